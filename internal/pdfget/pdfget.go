// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pdfget acquires full-text PDFs for records that passed the
// prescreen. Open access copies are located via Unpaywall; records whose
// PDF cannot be retrieved automatically are listed for manual retrieval.
package pdfget

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/pdiddy/review-engine/internal/dataset"
	"github.com/pdiddy/review-engine/internal/httputil"
	"github.com/pdiddy/review-engine/internal/reportlog"
	"github.com/pdiddy/review-engine/pkg/types"
)

// MissingPDFFile is the export listing records needing manual retrieval.
const MissingPDFFile = "missing_pdf_files.csv"

// missingColumns is the fixed column order of the missing-PDFs export.
var missingColumns = []string{
	"ID", "author", "title", "journal", "booktitle", "year", "volume", "number", "pages", "doi",
}

// Summary reports the outcome of a PDF retrieval run.
type Summary struct {
	Linked     int
	Downloaded int
	Missing    int
}

// Getter runs the PDF acquisition pipeline.
type Getter struct {
	Config types.PDFConfig
	Client *http.Client
	Log    *reportlog.Logger
	Hasher *Hasher
}

// New builds a Getter. Hasher may be nil when no container runtime is
// available; PDFs are then linked without a fingerprint.
func New(cfg types.PDFConfig, log *reportlog.Logger, hasher *Hasher) *Getter {
	return &Getter{
		Config: cfg,
		Client: httputil.NewClient(cfg.HTTPConfig),
		Log:    log,
		Hasher: hasher,
	}
}

// pdfPath is where a record's PDF is expected on disk.
func (g *Getter) pdfPath(pdfDir string, rec *types.Record) string {
	return filepath.Join(pdfDir, rec.ID+".pdf")
}

// Run processes every prescreen-included record: an already present PDF
// is linked, otherwise an open access copy is downloaded. Records left
// without a PDF move to manual retrieval and are exported to
// missing_pdf_files.csv in pdfDir.
func (g *Getter) Run(ctx context.Context, ds *dataset.Dataset, pdfDir string) (Summary, error) {
	var summary Summary
	if err := os.MkdirAll(pdfDir, 0o755); err != nil {
		return summary, fmt.Errorf("creating pdf directory: %w", err)
	}

	var missing []*types.Record
	for _, rec := range ds.InState(types.StatePrescreenIncluded) {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		path := g.pdfPath(pdfDir, rec)
		if _, err := os.Stat(path); err == nil {
			if err := g.link(rec, path); err != nil {
				g.Log.Report.Warn().Str("record", rec.ID).Err(err).Msg("rejecting existing pdf")
				missing = append(missing, rec)
				continue
			}
			summary.Linked++
			continue
		}

		ok, err := g.download(ctx, rec, path)
		if err != nil {
			g.Log.Report.Warn().Str("record", rec.ID).Err(err).Msg("pdf download failed")
		}
		if ok {
			summary.Downloaded++
			continue
		}
		missing = append(missing, rec)
	}

	for _, rec := range missing {
		ds.SetStatus([]string{rec.ID}, types.StatePDFNeedsManualRetrieval)
		g.Log.Line("%s: pdf needs manual retrieval", rec.ID)
	}
	summary.Missing = len(missing)

	if len(missing) > 0 {
		if err := exportMissing(missing, filepath.Join(pdfDir, MissingPDFFile)); err != nil {
			return summary, err
		}
	}
	return summary, nil
}

// link attaches a PDF already on disk to its record, fingerprinting it
// when a hasher is available.
func (g *Getter) link(rec *types.Record, path string) error {
	if g.Hasher != nil {
		hash, err := g.Hasher.HashFile(path)
		if err != nil {
			return err
		}
		rec.Set("pdf_hash", hash)
	}
	rec.Set("file", path)
	rec.Status = types.StatePDFImported
	g.Log.Line("%s: pdf linked (%s)", rec.ID, path)
	return nil
}

// download fetches an open access PDF via Unpaywall. The boolean reports
// whether the record ended up with a PDF.
func (g *Getter) download(ctx context.Context, rec *types.Record, path string) (bool, error) {
	doi := rec.Get("doi")
	if doi == "" {
		return false, nil
	}
	pdfURL, err := UnpaywallPDFURL(ctx, g.Client, doi, g.Config)
	if err != nil || pdfURL == "" {
		return false, err
	}

	if g.Config.DownloadDelay > 0 {
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(g.Config.DownloadDelay):
		}
	}

	req, err := httputil.NewRequest(ctx, pdfURL, g.Config.HTTPConfig, g.Config.Email)
	if err != nil {
		return false, err
	}
	resp, err := httputil.DoWithRetry(ctx, g.Client, req, 0)
	if err != nil {
		return false, fmt.Errorf("downloading %s: %w", pdfURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("downloading %s: status %d", pdfURL, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, fmt.Errorf("reading %s: %w", pdfURL, err)
	}
	if !bytes.HasPrefix(body, []byte("%PDF")) {
		return false, fmt.Errorf("%s did not return a PDF", pdfURL)
	}
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return false, fmt.Errorf("writing %s: %w", path, err)
	}

	if err := g.link(rec, path); err != nil {
		os.Remove(path)
		return false, err
	}
	return true, nil
}

func exportMissing(records []*types.Record, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.Write(missingColumns); err != nil {
		return err
	}
	for _, rec := range records {
		row := make([]string, 0, len(missingColumns))
		for _, col := range missingColumns {
			if col == "ID" {
				row = append(row, rec.ID)
				continue
			}
			row = append(row, rec.Get(col))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
