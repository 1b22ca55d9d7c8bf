// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package status

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/pdiddy/review-engine/internal/dataset"
	"github.com/pdiddy/review-engine/pkg/types"
)

// sampleColumns is the fixed column order of the sample export.
var sampleColumns = []string{
	"ID", "author", "title", "journal", "booktitle", "year", "volume", "number", "pages", "doi",
}

// Profile writes analytical exports of the included sample to outDir:
// the sample itself, an outlet-by-year pivot, and entry type counts.
func Profile(ds *dataset.Dataset, outDir string) error {
	included := ds.InState(types.StateIncluded, types.StateSynthesized)
	if len(included) == 0 {
		return fmt.Errorf("no records included yet")
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	if err := writeSample(included, filepath.Join(outDir, "sample.csv")); err != nil {
		return err
	}
	if err := writeOutletsByYear(included, filepath.Join(outDir, "journals_years.csv")); err != nil {
		return err
	}
	return writeEntryTypes(included, filepath.Join(outDir, "ENTRYTYPES.csv"))
}

func writeCSV(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func writeSample(records []*types.Record, path string) error {
	rows := [][]string{sampleColumns}
	for _, rec := range records {
		row := make([]string, 0, len(sampleColumns))
		for _, col := range sampleColumns {
			if col == "ID" {
				row = append(row, rec.ID)
				continue
			}
			row = append(row, rec.Get(col))
		}
		rows = append(rows, row)
	}
	return writeCSV(path, rows)
}

// writeOutletsByYear pivots the sample into outlets (rows) by publication
// year (columns).
func writeOutletsByYear(records []*types.Record, path string) error {
	counts := map[string]map[string]int{}
	yearSet := map[string]bool{}
	for _, rec := range records {
		outlet := rec.ContainerTitle()
		if outlet == "" {
			outlet = "(none)"
		}
		year := rec.Get("year")
		if year == "" {
			year = "(unknown)"
		}
		if counts[outlet] == nil {
			counts[outlet] = map[string]int{}
		}
		counts[outlet][year]++
		yearSet[year] = true
	}

	years := make([]string, 0, len(yearSet))
	for y := range yearSet {
		years = append(years, y)
	}
	sort.Strings(years)

	outlets := make([]string, 0, len(counts))
	for o := range counts {
		outlets = append(outlets, o)
	}
	sort.Strings(outlets)

	rows := [][]string{append([]string{"outlet"}, years...)}
	for _, outlet := range outlets {
		row := []string{outlet}
		for _, year := range years {
			row = append(row, strconv.Itoa(counts[outlet][year]))
		}
		rows = append(rows, row)
	}
	return writeCSV(path, rows)
}

func writeEntryTypes(records []*types.Record, path string) error {
	counts := map[types.EntryType]int{}
	for _, rec := range records {
		counts[rec.Type]++
	}
	entryTypes := make([]string, 0, len(counts))
	for et := range counts {
		entryTypes = append(entryTypes, string(et))
	}
	sort.Strings(entryTypes)

	rows := [][]string{{"entry_type", "count"}}
	for _, et := range entryTypes {
		rows = append(rows, []string{et, strconv.Itoa(counts[types.EntryType(et)])})
	}
	return writeCSV(path, rows)
}
