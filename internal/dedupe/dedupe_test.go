// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dedupe

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pdiddy/review-engine/internal/dataset"
	"github.com/pdiddy/review-engine/internal/reportlog"
	"github.com/pdiddy/review-engine/pkg/types"
)

// chdir changes into dir and restores the previous working directory when the
// test ends (t.Chdir requires Go 1.24, newer than this module's toolchain).
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(wd); err != nil {
			t.Fatal(err)
		}
	})
}

func testDataset(t *testing.T, recs ...*types.Record) *dataset.Dataset {
	t.Helper()
	ds, err := dataset.Load(filepath.Join(t.TempDir(), "records.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	for _, rec := range recs {
		if err := ds.Add(rec); err != nil {
			t.Fatal(err)
		}
	}
	return ds
}

func article(id string, origins ...string) *types.Record {
	return &types.Record{
		ID:      id,
		Type:    types.Article,
		Status:  types.StatePrepared,
		Origins: origins,
		Fields: map[string]string{
			"author": "Smith, John", "title": "A theory of everything",
			"journal": "MIS Quarterly", "year": "2020", "volume": "44", "number": "2",
		},
	}
}

func TestRunMergesDuplicates(t *testing.T) {
	a := article("smith2020", "wos.ris/1")
	b := article("smith2020a", "ais.ris/42")
	c := article("brown2019", "wos.ris/2")
	c.Fields = map[string]string{
		"author": "Brown, Pat", "title": "Blockchain consensus under churn",
		"journal": "Distributed Computing", "year": "2019",
	}
	ds := testDataset(t, a, b, c)

	cfg := types.DedupeConfig{MergeThreshold: 0.95, SameSourceMerges: types.SameSourceWarn}
	summary, err := Run(ds, cfg, reportlog.NewDiscard())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if summary.Merged != 1 {
		t.Errorf("Merged = %d, want 1", summary.Merged)
	}
	if _, ok := ds.Records["smith2020a"]; ok {
		t.Error("suffixed duplicate should be merged away")
	}
	survivor, ok := ds.Records["smith2020"]
	if !ok {
		t.Fatal("primary record missing")
	}
	if survivor.Status != types.StateProcessed {
		t.Errorf("status = %q, want md_processed", survivor.Status)
	}
	if len(survivor.Origins) != 2 {
		t.Errorf("origins = %v, want both origins", survivor.Origins)
	}
	if rec := ds.Records["brown2019"]; rec.Status != types.StateProcessed {
		t.Errorf("non-duplicate status = %q, want md_processed", rec.Status)
	}
}

func TestRunSkipsDifferentYears(t *testing.T) {
	a := article("smith2020", "wos.ris/1")
	b := article("smith2021", "ais.ris/42")
	b.Fields["year"] = "2021"
	ds := testDataset(t, a, b)

	cfg := types.DedupeConfig{MergeThreshold: 0.5, SameSourceMerges: types.SameSourceWarn}
	summary, err := Run(ds, cfg, reportlog.NewDiscard())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Compared != 0 {
		t.Errorf("Compared = %d, want 0", summary.Compared)
	}
	if summary.Merged != 0 {
		t.Errorf("Merged = %d, want 0", summary.Merged)
	}
}

func TestRunPreventsSameSourceMerges(t *testing.T) {
	chdir(t, t.TempDir())

	a := article("smith2020", "wos.ris/1")
	b := article("smith2020a", "wos.ris/2")
	ds := testDataset(t, a, b)

	cfg := types.DedupeConfig{MergeThreshold: 0.95, SameSourceMerges: types.SameSourcePrevent}
	summary, err := Run(ds, cfg, reportlog.NewDiscard())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Prevented != 1 {
		t.Errorf("Prevented = %d, want 1", summary.Prevented)
	}
	if len(ds.Records) != 2 {
		t.Errorf("records = %d, want 2 (no merge applied)", len(ds.Records))
	}

	content, err := os.ReadFile(SameSourceMergeFile)
	if err != nil {
		t.Fatalf("reading %s: %v", SameSourceMergeFile, err)
	}
	if got := strings.TrimSpace(string(content)); got != "smith2020,smith2020a" {
		t.Errorf("%s = %q", SameSourceMergeFile, got)
	}
}

func TestApplyDecisionsMovedClosure(t *testing.T) {
	a := article("smith2020", "wos.ris/1")
	b := article("smith2020a", "ais.ris/42")
	c := article("smith2020b", "acm.csv/7")
	ds := testDataset(t, a, b, c)

	decisions := []Decision{
		{ID1: "smith2020", ID2: "smith2020a", Duplicate: true, Score: 0.99},
		// References the already-merged record; the decision must follow
		// the move to the survivor.
		{ID1: "smith2020a", ID2: "smith2020b", Duplicate: true, Score: 0.98},
	}
	cfg := types.DedupeConfig{SameSourceMerges: types.SameSourceApply}
	merged, _, err := ApplyDecisions(ds, decisions, cfg, reportlog.NewDiscard())
	if err != nil {
		t.Fatalf("ApplyDecisions: %v", err)
	}
	if merged != 2 {
		t.Errorf("merged = %d, want 2", merged)
	}
	survivor := ds.Records["smith2020"]
	if survivor == nil {
		t.Fatal("survivor missing")
	}
	if len(survivor.Origins) != 3 {
		t.Errorf("origins = %v, want all three", survivor.Origins)
	}
}

func TestApplyDecisionsUnknownRecord(t *testing.T) {
	ds := testDataset(t, article("smith2020", "wos.ris/1"))
	decisions := []Decision{{ID1: "smith2020", ID2: "ghost2020", Duplicate: true}}
	cfg := types.DedupeConfig{SameSourceMerges: types.SameSourceApply}
	if _, _, err := ApplyDecisions(ds, decisions, cfg, reportlog.NewDiscard()); err == nil {
		t.Error("expected error for unknown record")
	}
}

func TestApplyDecisionsSkipsProceedings(t *testing.T) {
	paper := article("smith2020", "wos.ris/1")
	paper.Type = types.InProceedings
	volume := article("icis2020", "wos.ris/2")
	volume.Type = types.Proceedings
	ds := testDataset(t, paper, volume)

	decisions := []Decision{{ID1: "smith2020", ID2: "icis2020", Duplicate: true}}
	cfg := types.DedupeConfig{SameSourceMerges: types.SameSourceApply}
	merged, _, err := ApplyDecisions(ds, decisions, cfg, reportlog.NewDiscard())
	if err != nil {
		t.Fatalf("ApplyDecisions: %v", err)
	}
	if merged != 0 {
		t.Errorf("merged = %d, want 0 for cross-level pair", merged)
	}
}

func TestSelectPrimary(t *testing.T) {
	tests := []struct {
		name     string
		a, b     *types.Record
		wantMain string
	}{
		{
			name:     "same status prefers unsuffixed id",
			a:        &types.Record{ID: "smith2020a", Status: types.StatePrepared},
			b:        &types.Record{ID: "smith2020", Status: types.StatePrepared},
			wantMain: "smith2020",
		},
		{
			name:     "processed beats prepared",
			a:        &types.Record{ID: "smith2020a", Status: types.StateProcessed},
			b:        &types.Record{ID: "smith2020", Status: types.StatePrepared},
			wantMain: "smith2020a",
		},
		{
			name:     "screened beats prepared",
			a:        &types.Record{ID: "smith2020", Status: types.StatePrepared},
			b:        &types.Record{ID: "smith2020a", Status: types.StatePrescreenIncluded},
			wantMain: "smith2020a",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			main, _ := selectPrimary(tt.a, tt.b)
			if main.ID != tt.wantMain {
				t.Errorf("main = %s, want %s", main.ID, tt.wantMain)
			}
		})
	}
}

func TestApplyManualDecisions(t *testing.T) {
	a := article("smith2020", "wos.ris/1")
	b := article("smith2020a", "wos.ris/2")
	ds := testDataset(t, a, b)

	path := filepath.Join(t.TempDir(), "decisions.txt")
	if err := os.WriteFile(path, []byte("smith2020,smith2020a\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	merged, err := ApplyManualDecisions(ds, path, reportlog.NewDiscard())
	if err != nil {
		t.Fatalf("ApplyManualDecisions: %v", err)
	}
	if merged != 1 {
		t.Errorf("merged = %d, want 1", merged)
	}
	if _, ok := ds.Records["smith2020a"]; ok {
		t.Error("duplicate should be merged despite shared source")
	}
}

func TestApplyManualDecisionsMalformed(t *testing.T) {
	ds := testDataset(t)
	path := filepath.Join(t.TempDir(), "decisions.txt")
	if err := os.WriteFile(path, []byte("only-one-id\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ApplyManualDecisions(ds, path, reportlog.NewDiscard()); err == nil {
		t.Error("expected error for malformed line")
	}
}

func TestUnmerge(t *testing.T) {
	merged := article("smith2020", "wos.ris/1", "ais.ris/42")
	merged.Status = types.StateProcessed
	ds := testDataset(t, merged)

	prior := map[string]*types.Record{
		"smith2020":  article("smith2020", "wos.ris/1"),
		"smith2020a": article("smith2020a", "ais.ris/42"),
	}

	if err := Unmerge(ds, prior, []string{"smith2020", "smith2020a"}, reportlog.NewDiscard()); err != nil {
		t.Fatalf("Unmerge: %v", err)
	}
	if len(ds.Records) != 2 {
		t.Fatalf("records = %d, want 2", len(ds.Records))
	}
	for _, id := range []string{"smith2020", "smith2020a"} {
		rec, ok := ds.Records[id]
		if !ok {
			t.Fatalf("record %s not restored", id)
		}
		if rec.Status != types.StateProcessed {
			t.Errorf("%s status = %q, want md_processed", id, rec.Status)
		}
	}
}

func TestUnmergeUnknownID(t *testing.T) {
	ds := testDataset(t, article("smith2020", "wos.ris/1"))
	err := Unmerge(ds, map[string]*types.Record{}, []string{"ghost2020"}, reportlog.NewDiscard())
	if err == nil {
		t.Error("expected error for id missing from prior records")
	}
}

func TestInfo(t *testing.T) {
	a := article("smith2020", "wos.ris/1", "wos.ris/2")
	b := article("brown2019", "wos.ris/3", "ais.ris/4")
	b.Fields["year"] = "2019"
	ds := testDataset(t, a, b)

	got := Info(ds)
	if len(got) != 1 {
		t.Fatalf("Info = %v, want one entry", got)
	}
	if !strings.HasPrefix(got[0], "smith2020 ") {
		t.Errorf("Info[0] = %q", got[0])
	}
}

func TestSourceComparison(t *testing.T) {
	a := article("smith2020", "wos.ris/1", "ais.ris/42")
	b := article("brown2019", "wos.ris/2")
	b.Fields["year"] = "2019"
	ds := testDataset(t, a, b)

	path := filepath.Join(t.TempDir(), "comparison.csv")
	n, err := SourceComparison(ds, []string{"wos.ris", "ais.ris"}, path)
	if err != nil {
		t.Fatalf("SourceComparison: %v", err)
	}
	if n != 1 {
		t.Errorf("n = %d, want 1", n)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	if len(lines) != 2 {
		t.Fatalf("lines = %d, want header plus one row", len(lines))
	}
	if !strings.HasPrefix(lines[1], "brown2019,") {
		t.Errorf("row = %q", lines[1])
	}
}

func TestSourceComparisonNoGaps(t *testing.T) {
	a := article("smith2020", "wos.ris/1", "ais.ris/42")
	ds := testDataset(t, a)

	path := filepath.Join(t.TempDir(), "comparison.csv")
	n, err := SourceComparison(ds, []string{"wos.ris", "ais.ris"}, path)
	if err != nil {
		t.Fatalf("SourceComparison: %v", err)
	}
	if n != 0 {
		t.Errorf("n = %d, want 0", n)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("no file should be written when nothing is missing")
	}
}
