// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package load imports search result files into the review dataset.
//
// Each file under the search directory is matched against the known source
// heuristics, parsed with the RIS or CSV loader, cleaned up with the
// source's fixes, and appended to the records file. Loading is incremental:
// a record whose origin is already in the dataset is skipped, so search
// files can be refreshed and reloaded.
package load

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/review-engine/internal/dataset"
	"github.com/pdiddy/review-engine/internal/reportlog"
	"github.com/pdiddy/review-engine/pkg/types"
)

// Summary holds the counts of one load run.
type Summary struct {
	Files    int
	Imported int
	Skipped  int
}

// Run imports every supported file in searchDir into ds.
func Run(ds *dataset.Dataset, searchDir string, log *reportlog.Logger) (Summary, error) {
	entries, err := os.ReadDir(searchDir)
	if err != nil {
		if os.IsNotExist(err) {
			return Summary{}, fmt.Errorf("search directory %s does not exist", searchDir)
		}
		return Summary{}, fmt.Errorf("reading search directory: %w", err)
	}

	var summary Summary
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".ris" && ext != ".csv" {
			continue
		}

		fileSummary, err := loadFile(ds, filepath.Join(searchDir, entry.Name()), log)
		if err != nil {
			return summary, fmt.Errorf("loading %s: %w", entry.Name(), err)
		}
		summary.Files++
		summary.Imported += fileSummary.Imported
		summary.Skipped += fileSummary.Skipped
	}

	log.Infof("loaded %d records from %d files (%d already imported)",
		summary.Imported, summary.Files, summary.Skipped)
	return summary, nil
}

func loadFile(ds *dataset.Dataset, path string, log *reportlog.Logger) (Summary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Summary{}, err
	}

	source := DetectSource(path, data)
	filename := filepath.Base(path)
	log.Console.Info().Str("source", source.Name()).Msgf("loading %s", filename)

	var records map[string]*types.Record
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ris":
		records, err = LoadRIS(strings.NewReader(string(data)))
	case ".csv":
		records, err = LoadCSV(strings.NewReader(string(data)), source.UniqueIDField())
	default:
		return Summary{}, fmt.Errorf("unsupported file type: %s", path)
	}
	if err != nil {
		return Summary{}, err
	}
	source.Fix(records)

	var summary Summary
	for _, id := range sortedIDs(records) {
		rec := records[id]
		origin := filename + "/" + id

		if ds.OriginExists(origin) {
			summary.Skipped++
			continue
		}

		rec.Origins = []string{origin}
		rec.Status = types.StateImported
		rec.ID = uniqueID(id, ds.Records)
		if err := ds.Add(rec); err != nil {
			return summary, err
		}
		log.Report.Info().Msgf("imported %s (%s)", rec.ID, origin)
		summary.Imported++
	}
	return summary, nil
}
