// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dedupe

import (
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/pdiddy/review-engine/internal/dataset"
	"github.com/pdiddy/review-engine/internal/reportlog"
	"github.com/pdiddy/review-engine/pkg/types"
)

// SameSourceMergeFile records prevented same-source merges for manual
// review.
const SameSourceMergeFile = "same_source_merges.txt"

// Decision is one deduplication verdict for a record pair.
type Decision struct {
	ID1       string
	ID2       string
	Duplicate bool
	// Score is the similarity that produced an automated decision;
	// zero for manual decisions.
	Score float64
}

// Summary holds the counts of one dedupe run.
type Summary struct {
	Compared  int
	Merged    int
	Prevented int
}

// Run finds duplicates among all prepared records and applies the merges.
// Records that survive every comparison move to md_processed.
func Run(ds *dataset.Dataset, cfg types.DedupeConfig, log *reportlog.Logger) (Summary, error) {
	queue := ds.InState(types.StatePrepared, types.StateProcessed)

	var decisions []Decision
	var summary Summary
	for i := 0; i < len(queue); i++ {
		for j := i + 1; j < len(queue); j++ {
			// Cheap block: records from different years cannot match the
			// threshold anyway once year weighs in, skip the expensive ratio.
			if y1, y2 := queue[i].Get("year"), queue[j].Get("year"); y1 != "" && y2 != "" && y1 != y2 {
				continue
			}
			summary.Compared++
			score := Similarity(queue[i], queue[j])
			if score >= cfg.MergeThreshold {
				decisions = append(decisions, Decision{
					ID1: queue[i].ID, ID2: queue[j].ID, Duplicate: true, Score: score,
				})
			}
		}
	}

	merged, prevented, err := ApplyDecisions(ds, decisions, cfg, log)
	if err != nil {
		return summary, err
	}
	summary.Merged = merged
	summary.Prevented = prevented

	// All prepared records have now been considered.
	for _, rec := range ds.InState(types.StatePrepared) {
		rec.Status = types.StateProcessed
	}

	log.Infof("dedupe: %d pairs compared, %d merged, %d same-source merges prevented",
		summary.Compared, summary.Merged, summary.Prevented)
	return summary, nil
}

// ApplyDecisions merges the duplicate pairs into the dataset and returns
// the number of merges applied and prevented.
//
// Merging works on IDs, which requires IDs to be immutable once a record
// reaches md_prepared. When a record has already been merged away, the
// decision follows the move (closure over moved duplicates).
func ApplyDecisions(ds *dataset.Dataset, decisions []Decision, cfg types.DedupeConfig, log *reportlog.Logger) (merged, prevented int, err error) {
	moved := map[string]string{} // removed ID → surviving ID

	resolve := func(id string) (*types.Record, bool) {
		for {
			next, ok := moved[id]
			if !ok {
				break
			}
			id = next
		}
		rec, ok := ds.Records[id]
		return rec, ok
	}

	for _, d := range decisions {
		if !d.Duplicate {
			if rec, ok := ds.Records[d.ID1]; ok && rec.Status == types.StatePrepared {
				rec.Status = types.StateProcessed
			}
			continue
		}

		rec1, ok1 := resolve(d.ID1)
		rec2, ok2 := resolve(d.ID2)
		if !ok1 || !ok2 {
			return merged, prevented, fmt.Errorf("dedupe decision references unknown record %s/%s", d.ID1, d.ID2)
		}
		if rec1.ID == rec2.ID {
			continue
		}

		main, dupe := selectPrimary(rec1, rec2)

		if crossLevelMerge(main, dupe) {
			continue
		}

		if sources := sharedSources(main, dupe); len(sources) > 0 {
			switch cfg.SameSourceMerges {
			case types.SameSourceApply:
				// fall through to the merge
			case types.SameSourcePrevent:
				if err := exportSameSourceMerge(main, dupe); err != nil {
					return merged, prevented, err
				}
				log.Console.Warn().Msgf("prevented same-source merge: %s,%s (%s)",
					main.ID, dupe.ID, strings.Join(sources, ","))
				prevented++
				continue
			default: // warn
				log.Console.Warn().Msgf("applying same-source merge: %s,%s (%s)",
					main.ID, dupe.ID, strings.Join(sources, ","))
			}
		}

		main.MergeFrom(dupe)
		moved[dupe.ID] = main.ID
		delete(ds.Records, dupe.ID)
		merged++

		if d.Score > 0 {
			log.Report.Info().Msgf("removed duplicate (confidence %.3f): %s <- %s", d.Score, main.ID, dupe.ID)
		} else {
			log.Report.Info().Msgf("removed duplicate: %s <- %s", main.ID, dupe.ID)
		}
	}
	return merged, prevented, nil
}

// selectPrimary decides which record of a duplicate pair survives.
//
// Records with the same status keep the one whose ID has no letter suffix
// (the original, not a collision-renamed import). A record still in
// md_prepared loses to one that progressed further; a record in
// md_processed wins.
func selectPrimary(a, b *types.Record) (main, dupe *types.Record) {
	switch {
	case a.Status == b.Status:
		if endsInDigit(a.ID) && !endsInDigit(b.ID) {
			return a, b
		}
		return b, a
	case a.Status == types.StatePrepared:
		return b, a
	case b.Status == types.StatePrepared:
		return a, b
	case a.Status == types.StateProcessed:
		return a, b
	case b.Status == types.StateProcessed:
		return b, a
	default:
		return a, b
	}
}

func endsInDigit(s string) bool {
	if s == "" {
		return false
	}
	c := s[len(s)-1]
	return c >= '0' && c <= '9'
}

// crossLevelMerge reports whether the pair spans bibliographic levels
// (a proceedings volume and a paper within it must not be merged).
func crossLevelMerge(a, b *types.Record) bool {
	return a.Type == types.Proceedings || b.Type == types.Proceedings
}

// sharedSources returns the search sources both records came from. Two
// hits from one source are usually distinct papers, not duplicates.
func sharedSources(a, b *types.Record) []string {
	bSources := map[string]bool{}
	for _, s := range b.SourceFiles() {
		bSources[s] = true
	}
	var shared []string
	for _, s := range a.SourceFiles() {
		if bSources[s] {
			shared = append(shared, s)
		}
	}
	return shared
}

func exportSameSourceMerge(main, dupe *types.Record) error {
	f, err := os.OpenFile(SameSourceMergeFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening %s: %w", SameSourceMergeFile, err)
	}
	defer f.Close()
	_, err = fmt.Fprintf(f, "%s,%s\n", main.ID, dupe.ID)
	return err
}

// ApplyManualDecisions merges pairs confirmed by hand, e.g. from the
// same-source merge file. Lines have the form "id1,id2".
func ApplyManualDecisions(ds *dataset.Dataset, path string, log *reportlog.Logger) (int, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("reading decisions file %s: %w", path, err)
	}

	var decisions []Decision
	for _, line := range strings.Split(strings.TrimSpace(string(content)), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, ",", 2)
		if len(parts) != 2 {
			return 0, fmt.Errorf("malformed decision line %q", line)
		}
		decisions = append(decisions, Decision{ID1: parts[0], ID2: parts[1], Duplicate: true})
	}

	// Manual decisions merge regardless of source overlap.
	cfg := types.DedupeConfig{SameSourceMerges: types.SameSourceApply}
	merged, _, err := ApplyDecisions(ds, decisions, cfg, log)
	return merged, err
}

// Unmerge restores the constituents of previously merged records from a
// prior version of the records file (read from git history). The restored
// records return to md_processed.
func Unmerge(ds *dataset.Dataset, priorRecords map[string]*types.Record, ids []string, log *reportlog.Logger) error {
	for _, id := range ids {
		if _, ok := priorRecords[id]; !ok {
			return fmt.Errorf("cannot restore %s: not found in prior records", id)
		}
	}
	for _, id := range ids {
		delete(ds.Records, id)
	}
	for _, id := range ids {
		restored := priorRecords[id].Clone()
		restored.Status = types.StateProcessed
		ds.Records[restored.ID] = restored
		log.Infof("restored %s", restored.ID)
	}
	return nil
}

// Info summarizes source overlap: merges that combined two hits from the
// same source file.
func Info(ds *dataset.Dataset) []string {
	var sameSource []string
	for _, rec := range ds.Sorted() {
		counts := map[string][]string{}
		for _, origin := range rec.Origins {
			source := origin
			if i := strings.Index(origin, "/"); i >= 0 {
				source = origin[:i]
			}
			counts[source] = append(counts[source], origin)
		}
		var cases []string
		for source, origins := range counts {
			if len(origins) > 1 {
				cases = append(cases, fmt.Sprintf("%s: %v", source, origins))
			}
		}
		if len(cases) > 0 {
			sort.Strings(cases)
			sameSource = append(sameSource, fmt.Sprintf("%s (%s)", rec.ID, strings.Join(cases, ", ")))
		}
	}
	return sameSource
}

// SourceComparison writes a CSV of records that are missing from at least
// one of the given source files, to support curation of multi-source
// datasets.
func SourceComparison(ds *dataset.Dataset, sourceFiles []string, path string) (int, error) {
	var rows [][]string
	for _, rec := range ds.Sorted() {
		present := map[string]string{}
		for _, origin := range rec.Origins {
			if i := strings.Index(origin, "/"); i >= 0 {
				present[origin[:i]] = origin
			}
		}
		missing := false
		for _, source := range sourceFiles {
			if present[source] == "" {
				missing = true
			}
		}
		if !missing {
			continue
		}

		row := []string{rec.ID, rec.Get("title"), rec.Get("year")}
		for _, source := range sourceFiles {
			row = append(row, present[source])
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return 0, nil
	}

	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := append([]string{"id", "title", "year"}, sourceFiles...)
	if err := w.Write(header); err != nil {
		return 0, err
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return 0, err
		}
	}
	w.Flush()
	return len(rows), w.Error()
}
