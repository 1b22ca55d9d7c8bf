// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package screen covers the two screening phases of a review: prescreen
// (inclusion decisions from the metadata alone) and screen (full-text
// decisions against explicit exclusion criteria).
package screen

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/pdiddy/review-engine/internal/dataset"
	"github.com/pdiddy/review-engine/internal/reportlog"
	"github.com/pdiddy/review-engine/pkg/types"
)

// prescreenColumns is the fixed column order of the prescreen sheet.
var prescreenColumns = []string{
	"ID", "author", "title", "journal", "booktitle", "year", "doi", "abstract", "prescreen_inclusion",
}

// PrescreenSummary reports the state of the prescreen after an operation.
type PrescreenSummary struct {
	Included int
	Excluded int
	Open     int
}

// ExportPrescreen writes all records awaiting a prescreen decision to a
// CSV sheet. The prescreen_inclusion column is pre-filled with TODO and
// is the only column read back on import.
func ExportPrescreen(ds *dataset.Dataset, w io.Writer) (int, error) {
	cw := csv.NewWriter(w)
	if err := cw.Write(prescreenColumns); err != nil {
		return 0, err
	}
	var n int
	for _, rec := range ds.InState(types.StateProcessed) {
		row := make([]string, 0, len(prescreenColumns))
		for _, col := range prescreenColumns {
			switch col {
			case "ID":
				row = append(row, rec.ID)
			case "prescreen_inclusion":
				row = append(row, "TODO")
			default:
				row = append(row, rec.Get(col))
			}
		}
		if err := cw.Write(row); err != nil {
			return n, err
		}
		n++
	}
	cw.Flush()
	return n, cw.Error()
}

// ImportPrescreen reads decisions back from an exported sheet. Accepted
// values for prescreen_inclusion are "yes", "no", and "TODO" (left open).
func ImportPrescreen(ds *dataset.Dataset, r io.Reader, log *reportlog.Logger) (PrescreenSummary, error) {
	var summary PrescreenSummary

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err != nil {
		return summary, fmt.Errorf("reading prescreen header: %w", err)
	}
	idCol, decisionCol := -1, -1
	for i, col := range header {
		switch col {
		case "ID":
			idCol = i
		case "prescreen_inclusion":
			decisionCol = i
		}
	}
	if idCol < 0 || decisionCol < 0 {
		return summary, fmt.Errorf("prescreen sheet is missing the ID or prescreen_inclusion column")
	}

	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return summary, fmt.Errorf("reading prescreen row: %w", err)
		}
		if idCol >= len(row) || decisionCol >= len(row) {
			continue
		}
		id, decision := row[idCol], row[decisionCol]
		if _, ok := ds.Records[id]; !ok {
			return summary, fmt.Errorf("prescreen sheet names unknown record %s", id)
		}

		switch decision {
		case "yes":
			ds.SetStatus([]string{id}, types.StatePrescreenIncluded)
			log.Line("%s: prescreen included", id)
			summary.Included++
		case "no":
			ds.SetStatus([]string{id}, types.StatePrescreenExcluded)
			log.Line("%s: prescreen excluded", id)
			summary.Excluded++
		case "TODO", "":
			summary.Open++
		default:
			return summary, fmt.Errorf("record %s: invalid prescreen_inclusion value %q", id, decision)
		}
	}
	return summary, nil
}

// IncludeAll marks every record awaiting prescreen as included. Used when
// the prescreen is delegated entirely to the full-text screen.
func IncludeAll(ds *dataset.Dataset, log *reportlog.Logger) (int, error) {
	queue := ds.InState(types.StateProcessed)
	for _, rec := range queue {
		ds.SetStatus([]string{rec.ID}, types.StatePrescreenIncluded)
		log.Line("%s: prescreen included", rec.ID)
	}
	return len(queue), nil
}

// ExportPrescreenFile is ExportPrescreen against a file path.
func ExportPrescreenFile(ds *dataset.Dataset, path string) (int, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("creating prescreen sheet: %w", err)
	}
	defer f.Close()
	return ExportPrescreen(ds, f)
}

// ImportPrescreenFile is ImportPrescreen against a file path.
func ImportPrescreenFile(ds *dataset.Dataset, path string, log *reportlog.Logger) (PrescreenSummary, error) {
	f, err := os.Open(path)
	if err != nil {
		return PrescreenSummary{}, fmt.Errorf("opening prescreen sheet: %w", err)
	}
	defer f.Close()
	return ImportPrescreen(ds, f, log)
}
