// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package screen

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/review-engine/internal/dataset"
	"github.com/pdiddy/review-engine/internal/reportlog"
	"github.com/pdiddy/review-engine/pkg/types"
)

// Criterion is a named exclusion criterion. A record is excluded from the
// review as soon as any criterion applies to it.
type Criterion struct {
	Name        string `yaml:"name"`
	Explanation string `yaml:"explanation"`
}

// ScreenSummary reports the outcome of a screening pass.
type ScreenSummary struct {
	Included int
	Excluded int
	Open     int
}

// criterionField is the record field a criterion decision is stored in.
func criterionField(c Criterion) string {
	return "ec_" + c.Name
}

// Screener runs the full-text screen. Decisions are recorded on the
// record itself (one ec_* field per criterion) so the audit trail shows
// which criterion excluded a paper.
type Screener struct {
	Criteria []Criterion
	Log      *reportlog.Logger

	// In and Out drive the interactive session.
	In  io.Reader
	Out io.Writer
}

// Decide applies a full set of criterion decisions to one record. Keys of
// decisions are criterion names, values report whether the criterion
// applies. A record with no applying criterion is included.
func (s *Screener) Decide(ds *dataset.Dataset, id string, decisions map[string]bool) error {
	return s.decideWith(ds, id, s.Criteria, decisions)
}

func (s *Screener) decideWith(ds *dataset.Dataset, id string, criteria []Criterion, decisions map[string]bool) error {
	rec, ok := ds.Records[id]
	if !ok {
		return fmt.Errorf("unknown record %s", id)
	}
	excluded := false
	for _, c := range criteria {
		applies, ok := decisions[c.Name]
		if !ok {
			return fmt.Errorf("record %s: no decision for criterion %s", id, c.Name)
		}
		if applies {
			rec.Set(criterionField(c), "yes")
			excluded = true
		} else {
			rec.Set(criterionField(c), "no")
		}
	}
	if excluded {
		rec.Status = types.StateExcluded
		s.Log.Line("%s: excluded", id)
	} else {
		rec.Status = types.StateIncluded
		s.Log.Line("%s: included", id)
	}
	return nil
}

// RunInteractive walks through every record awaiting a screen decision,
// asking y/n for each criterion. Answering q stops the session; records
// not yet decided keep their state.
func (s *Screener) RunInteractive(ds *dataset.Dataset) (ScreenSummary, error) {
	var summary ScreenSummary
	reader := bufio.NewScanner(s.In)
	queue := ds.InState(types.StatePDFPrepared, types.StatePDFImported)

	for i, rec := range queue {
		fmt.Fprintf(s.Out, "\n[%d/%d] %s\n  %s\n", i+1, len(queue), rec.ID, rec.CitationString())

		criteria := s.Criteria
		if len(criteria) == 0 {
			// No explicit criteria configured: a single overall decision.
			criteria = []Criterion{{Name: "exclude", Explanation: "exclude from the review"}}
		}

		decisions := map[string]bool{}
		quit := false
		for _, c := range criteria {
			answer, err := s.ask(reader, c)
			if err != nil {
				return summary, err
			}
			if answer == "q" {
				quit = true
				break
			}
			decisions[c.Name] = answer == "y"
		}
		if quit {
			break
		}

		if err := s.decideWith(ds, rec.ID, criteria, decisions); err != nil {
			return summary, err
		}
		if rec.Status == types.StateIncluded {
			summary.Included++
		} else {
			summary.Excluded++
		}
	}
	summary.Open = len(queue) - summary.Included - summary.Excluded
	return summary, nil
}

func (s *Screener) ask(reader *bufio.Scanner, c Criterion) (string, error) {
	for {
		fmt.Fprintf(s.Out, "  %s (%s) applies? [y/n/q] ", c.Name, c.Explanation)
		if !reader.Scan() {
			if err := reader.Err(); err != nil {
				return "", err
			}
			return "q", nil
		}
		answer := strings.ToLower(strings.TrimSpace(reader.Text()))
		switch answer {
		case "y", "n", "q":
			return answer, nil
		}
	}
}

// screenColumns is the fixed column order of the screen sheet, before the
// per-criterion columns.
var screenColumns = []string{"ID", "author", "title", "year", "inclusion_2"}

// ExportScreen writes all records awaiting a screen decision, one ec_*
// column per criterion, for screening in a spreadsheet.
func (s *Screener) ExportScreen(ds *dataset.Dataset, w io.Writer) (int, error) {
	cw := csv.NewWriter(w)
	header := append([]string{}, screenColumns...)
	for _, c := range s.Criteria {
		header = append(header, criterionField(c))
	}
	if err := cw.Write(header); err != nil {
		return 0, err
	}
	var n int
	for _, rec := range ds.InState(types.StatePDFPrepared, types.StatePDFImported) {
		row := []string{rec.ID, rec.Get("author"), rec.Get("title"), rec.Get("year"), "TODO"}
		for range s.Criteria {
			row = append(row, "TODO")
		}
		if err := cw.Write(row); err != nil {
			return n, err
		}
		n++
	}
	cw.Flush()
	return n, cw.Error()
}

// ImportScreen reads decisions back from an exported sheet. Without
// criteria, inclusion_2 is the decision (yes or no). With criteria, each
// ec_* column takes "yes" or "no" and inclusion_2 must agree with the
// verdict they imply.
func (s *Screener) ImportScreen(ds *dataset.Dataset, r io.Reader) (ScreenSummary, error) {
	var summary ScreenSummary

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err != nil {
		return summary, fmt.Errorf("reading screen header: %w", err)
	}
	cols := map[string]int{}
	for i, col := range header {
		cols[col] = i
	}
	if _, ok := cols["ID"]; !ok {
		return summary, fmt.Errorf("screen sheet is missing the ID column")
	}

	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return summary, fmt.Errorf("reading screen row: %w", err)
		}
		cell := func(name string) string {
			i, ok := cols[name]
			if !ok || i >= len(row) {
				return ""
			}
			return row[i]
		}
		id := cell("ID")
		inclusion := cell("inclusion_2")
		if inclusion == "TODO" {
			summary.Open++
			continue
		}

		if len(s.Criteria) == 0 {
			rec, ok := ds.Records[id]
			if !ok {
				return summary, fmt.Errorf("unknown record %s", id)
			}
			switch inclusion {
			case "yes":
				rec.Status = types.StateIncluded
				s.Log.Line("%s: included", id)
				summary.Included++
			case "no":
				rec.Status = types.StateExcluded
				s.Log.Line("%s: excluded", id)
				summary.Excluded++
			default:
				return summary, fmt.Errorf("record %s: invalid inclusion_2 value %q", id, inclusion)
			}
			continue
		}

		decisions := map[string]bool{}
		open := false
		for _, c := range s.Criteria {
			switch cell(criterionField(c)) {
			case "yes":
				decisions[c.Name] = true
			case "no":
				decisions[c.Name] = false
			default:
				open = true
			}
		}
		if open {
			summary.Open++
			continue
		}
		if err := s.Decide(ds, id, decisions); err != nil {
			return summary, err
		}
		if ds.Records[id].Status == types.StateIncluded {
			if inclusion != "yes" {
				return summary, fmt.Errorf("record %s: inclusion_2 %q contradicts the criterion columns", id, inclusion)
			}
			summary.Included++
		} else {
			if inclusion != "no" {
				return summary, fmt.Errorf("record %s: inclusion_2 %q contradicts the criterion columns", id, inclusion)
			}
			summary.Excluded++
		}
	}
	return summary, nil
}

// LoadCriteria reads the project's exclusion criteria from a YAML file.
// A missing file yields no criteria, which makes the screen a plain
// include/exclude decision.
func LoadCriteria(path string) ([]Criterion, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading criteria: %w", err)
	}
	var criteria []Criterion
	if err := yaml.Unmarshal(data, &criteria); err != nil {
		return nil, fmt.Errorf("parsing criteria: %w", err)
	}
	return criteria, nil
}
