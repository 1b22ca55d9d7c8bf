// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package reportlog provides the two loggers every operation uses: a console
// logger for progress, and a report logger whose output accumulates in
// report.log and is folded into the next operation commit.
package reportlog

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
)

// Logger bundles the console and report loggers of one operation run.
type Logger struct {
	// Console logs human-readable progress to stderr.
	Console zerolog.Logger

	// Report logs the processing details that end up in the commit message.
	Report zerolog.Logger

	file *os.File
}

// New opens (and truncates) the report file and returns the logger pair.
// The report file starts empty for each operation so the commit only
// carries the details of the run that produced it.
func New(reportPath string) (*Logger, error) {
	f, err := os.OpenFile(reportPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening report file %s: %w", reportPath, err)
	}

	console := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}).
		With().Timestamp().Logger()

	// The report is read back into commit messages, where JSON framing and
	// timestamps would be noise: render bare "level message" lines.
	report := zerolog.New(zerolog.ConsoleWriter{
		Out:          f,
		NoColor:      true,
		PartsExclude: []string{zerolog.TimestampFieldName},
	})

	return &Logger{Console: console, Report: report, file: f}, nil
}

// NewDiscard returns a logger pair that drops all output. Used in tests.
func NewDiscard() *Logger {
	return &Logger{
		Console: zerolog.New(io.Discard),
		Report:  zerolog.New(io.Discard),
	}
}

// Infof logs to both the console and the report.
func (l *Logger) Infof(format string, args ...any) {
	l.Console.Info().Msgf(format, args...)
	l.Report.Info().Msgf(format, args...)
}

// Close flushes and closes the report file.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}

// Line writes a formatted line to the report file only.
func (l *Logger) Line(format string, args ...any) {
	if l.file != nil {
		fmt.Fprintf(l.file, format+"\n", args...)
	}
}
