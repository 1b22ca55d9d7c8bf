// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package syncer keeps a manuscript's bibliography in step with the
// citations in its text. Citation keys are collected from Markdown and
// reStructuredText sources, resolved against the local index, and the
// missing entries are appended to references.bib.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/pdiddy/review-engine/internal/localindex"
	"github.com/pdiddy/review-engine/internal/reportlog"
	"github.com/pdiddy/review-engine/pkg/types"
)

// ReferencesFile is the bibliography maintained next to the manuscript.
const ReferencesFile = "references.bib"

var (
	// Pandoc-style citations: @key2020 after a word boundary, bracket, or
	// semicolon. The leading @ is not part of the key.
	markdownCiteRe = regexp.MustCompile(`(?:^|[\s\[;])@([a-zA-Z0-9_][a-zA-Z0-9_:.\-]*)`)

	// Sphinx citations: :cite:p:`key` with one or more comma-separated keys.
	rstCiteRe = regexp.MustCompile(":cite:p:`([^`]+)`")

	// Entry heads in an existing references.bib.
	bibKeyRe = regexp.MustCompile(`(?m)^@[a-zA-Z]+\{([^,\s]+),`)
)

// ExtractCitations collects the citation keys used in src, dispatching on
// the file extension. Keys are returned in order of first appearance.
func ExtractCitations(path string, src []byte) []string {
	var keys []string
	switch filepath.Ext(path) {
	case ".md":
		for _, m := range markdownCiteRe.FindAllSubmatch(src, -1) {
			keys = append(keys, string(m[1]))
		}
	case ".rst":
		for _, m := range rstCiteRe.FindAllSubmatch(src, -1) {
			for _, key := range strings.Split(string(m[1]), ",") {
				if key = strings.TrimSpace(key); key != "" {
					keys = append(keys, key)
				}
			}
		}
	}
	return dedupeKeys(keys)
}

func dedupeKeys(keys []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, k := range keys {
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	return out
}

// manuscriptSources are the files scanned for citations, relative to the
// project directory.
var manuscriptSources = []string{"paper.md", "review.md"}

// CollectKeys scans the project's manuscript files plus any *.rst files
// for citation keys.
func CollectKeys(dir string) ([]string, error) {
	var keys []string
	for _, name := range manuscriptSources {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", name, err)
		}
		keys = append(keys, ExtractCitations(name, data)...)
	}

	rstFiles, err := filepath.Glob(filepath.Join(dir, "*.rst"))
	if err != nil {
		return nil, err
	}
	for _, path := range rstFiles {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		keys = append(keys, ExtractCitations(path, data)...)
	}
	return dedupeKeys(keys), nil
}

// ExistingKeys parses the entry keys already present in a bibliography.
func ExistingKeys(bib []byte) map[string]bool {
	keys := map[string]bool{}
	for _, m := range bibKeyRe.FindAllSubmatch(bib, -1) {
		keys[string(m[1])] = true
	}
	return keys
}

// Summary reports the outcome of a sync run.
type Summary struct {
	Cited     int
	Added     int
	Missing   []string
	Ambiguous []string
}

// Syncer resolves citation keys against the local index.
type Syncer struct {
	Index *localindex.Store
	Log   *reportlog.Logger
}

// Run collects all cited keys in dir and appends the entries missing from
// dir/references.bib. Keys the index cannot resolve are reported, not
// fatal: the manuscript author sees them listed and fixes the citation or
// indexes the missing project.
func (s *Syncer) Run(ctx context.Context, dir string) (Summary, error) {
	var summary Summary

	keys, err := CollectKeys(dir)
	if err != nil {
		return summary, err
	}
	summary.Cited = len(keys)

	bibPath := filepath.Join(dir, ReferencesFile)
	bib, err := os.ReadFile(bibPath)
	if err != nil && !os.IsNotExist(err) {
		return summary, fmt.Errorf("reading %s: %w", ReferencesFile, err)
	}
	existing := ExistingKeys(bib)

	var toAdd []*types.Record
	for _, key := range keys {
		if existing[key] {
			continue
		}
		rec, err := s.Index.GetKey(ctx, key)
		switch {
		case errors.Is(err, localindex.ErrNotFound):
			summary.Missing = append(summary.Missing, key)
			continue
		case errors.Is(err, localindex.ErrAmbiguous):
			summary.Ambiguous = append(summary.Ambiguous, key)
			continue
		case err != nil:
			return summary, err
		}
		toAdd = append(toAdd, rec)
	}

	if len(toAdd) > 0 {
		sort.Slice(toAdd, func(i, j int) bool { return toAdd[i].ID < toAdd[j].ID })
		f, err := os.OpenFile(bibPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return summary, fmt.Errorf("opening %s: %w", ReferencesFile, err)
		}
		defer f.Close()
		for _, rec := range toAdd {
			if _, err := f.WriteString(FormatBibTeX(rec)); err != nil {
				return summary, fmt.Errorf("appending to %s: %w", ReferencesFile, err)
			}
			s.Log.Line("%s: added to %s", rec.ID, ReferencesFile)
			summary.Added++
		}
	}

	for _, key := range summary.Missing {
		s.Log.Line("%s: not found in local index", key)
	}
	for _, key := range summary.Ambiguous {
		s.Log.Line("%s: ambiguous in local index", key)
	}
	return summary, nil
}

// bibFieldOrder fixes the field order inside a serialized entry.
var bibFieldOrder = []string{
	"author", "title", "journal", "booktitle", "year", "volume", "number", "pages", "doi",
}

// FormatBibTeX serializes a record as a BibTeX entry with a stable field
// order. Fields outside the bibliographic set are left out.
func FormatBibTeX(rec *types.Record) string {
	var b strings.Builder
	fmt.Fprintf(&b, "@%s{%s,\n", rec.Type, rec.ID)
	for _, field := range bibFieldOrder {
		if v := rec.Get(field); v != "" {
			fmt.Fprintf(&b, "  %-10s = {%s},\n", field, v)
		}
	}
	b.WriteString("}\n\n")
	return b.String()
}
