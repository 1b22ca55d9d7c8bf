// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package syncer

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/pdiddy/review-engine/internal/dataset"
	"github.com/pdiddy/review-engine/internal/localindex"
	"github.com/pdiddy/review-engine/internal/reportlog"
	"github.com/pdiddy/review-engine/pkg/types"
)

func TestExtractCitationsMarkdown(t *testing.T) {
	src := []byte(`# Introduction

Prior work [@smith2020; @brown2019] established the field.
@smith2020 argues further, see also [@doe2021, p. 4].
Email addresses like user@example.com are not citations.
`)
	got := ExtractCitations("paper.md", src)
	want := []string{"smith2020", "brown2019", "doe2021"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ExtractCitations = %v, want %v", got, want)
	}
}

func TestExtractCitationsRST(t *testing.T) {
	src := []byte("Prior work :cite:p:`smith2020,brown2019` and :cite:p:`doe2021`.\n")
	got := ExtractCitations("chapter.rst", src)
	want := []string{"smith2020", "brown2019", "doe2021"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ExtractCitations = %v, want %v", got, want)
	}
}

func TestExtractCitationsUnknownExtension(t *testing.T) {
	if got := ExtractCitations("notes.txt", []byte("@smith2020")); got != nil {
		t.Errorf("ExtractCitations = %v, want nil", got)
	}
}

func TestExistingKeys(t *testing.T) {
	bib := []byte(`@article{smith2020,
  author     = {Smith, John},
}

@inproceedings{brown2019,
  title      = {Blockchain consensus under churn},
}
`)
	got := ExistingKeys(bib)
	want := map[string]bool{"smith2020": true, "brown2019": true}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ExistingKeys = %v, want %v", got, want)
	}
}

func TestFormatBibTeX(t *testing.T) {
	rec := &types.Record{
		ID:   "smith2020",
		Type: types.Article,
		Fields: map[string]string{
			"author":  "Smith, John",
			"title":   "A theory of everything",
			"journal": "MIS Quarterly",
			"year":    "2020",
			"volume":  "44",
			"number":  "2",
			"file":    "pdfs/smith2020.pdf",
		},
	}
	want := `@article{smith2020,
  author     = {Smith, John},
  title      = {A theory of everything},
  journal    = {MIS Quarterly},
  year       = {2020},
  volume     = {44},
  number     = {2},
}

`
	if got := FormatBibTeX(rec); got != want {
		t.Errorf("FormatBibTeX = %q, want %q", got, want)
	}
}

func TestCollectKeys(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"paper.md":    "As shown by @smith2020 and [@brown2019].\n",
		"chapter.rst": "See :cite:p:`doe2021`.\n",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	got, err := CollectKeys(dir)
	if err != nil {
		t.Fatalf("CollectKeys: %v", err)
	}
	want := []string{"smith2020", "brown2019", "doe2021"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("CollectKeys = %v, want %v", got, want)
	}
}

func syncIndex(t *testing.T, recs ...*types.Record) *localindex.Store {
	t.Helper()
	store, err := localindex.NewStore(types.IndexConfig{IndexDir: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })

	repo := t.TempDir()
	ds, err := dataset.Load(filepath.Join(repo, "records.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	for _, rec := range recs {
		if err := ds.Add(rec); err != nil {
			t.Fatal(err)
		}
	}
	if err := ds.Save(); err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	if err := store.RegisterRepo(ctx, repo); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Index(ctx, "records.yaml", io.Discard); err != nil {
		t.Fatal(err)
	}
	return store
}

func TestRun(t *testing.T) {
	store := syncIndex(t, &types.Record{
		ID:     "smith2020",
		Type:   types.Article,
		Status: types.StateProcessed,
		Fields: map[string]string{
			"author": "Smith, John", "title": "A theory of everything",
			"journal": "MIS Quarterly", "year": "2020",
		},
	})

	dir := t.TempDir()
	manuscript := "Results confirm @smith2020, contradicting @ghost1999.\n"
	if err := os.WriteFile(filepath.Join(dir, "paper.md"), []byte(manuscript), 0o644); err != nil {
		t.Fatal(err)
	}

	s := &Syncer{Index: store, Log: reportlog.NewDiscard()}
	summary, err := s.Run(context.Background(), dir)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if summary.Cited != 2 || summary.Added != 1 {
		t.Errorf("summary = %+v, want 2 cited and 1 added", summary)
	}
	if !reflect.DeepEqual(summary.Missing, []string{"ghost1999"}) {
		t.Errorf("Missing = %v, want [ghost1999]", summary.Missing)
	}

	bib, err := os.ReadFile(filepath.Join(dir, ReferencesFile))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(bib, []byte("@article{smith2020,")) {
		t.Errorf("references.bib = %q", bib)
	}

	// A second run adds nothing: the entry already exists.
	summary, err = s.Run(context.Background(), dir)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Added != 0 {
		t.Errorf("Added = %d, want 0 on rerun", summary.Added)
	}

	bib2, err := os.ReadFile(filepath.Join(dir, ReferencesFile))
	if err != nil {
		t.Fatal(err)
	}
	if strings.Count(string(bib2), "@article{smith2020,") != 1 {
		t.Error("rerun must not duplicate entries")
	}
}
