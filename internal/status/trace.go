// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package status

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/google/go-cmp/cmp"

	"github.com/pdiddy/review-engine/internal/dataset"
	"github.com/pdiddy/review-engine/internal/gitutil"
	"github.com/pdiddy/review-engine/pkg/types"
)

// Trace prints the change history of one record: every commit that
// touched it in the records file, with a field-level diff, plus commits
// that mention it in the screening and data sheets.
func Trace(repo *gitutil.Repo, recordsFile string, auxFiles []string, id string, w io.Writer) error {
	versions, err := repo.FileHistory(recordsFile)
	if err != nil {
		return fmt.Errorf("reading history of %s: %w", recordsFile, err)
	}

	// Walk oldest to newest so the output reads as the record's life.
	var prev *types.Record
	found := false
	for i := len(versions) - 1; i >= 0; i-- {
		v := versions[i]
		var cur *types.Record
		if v.Present {
			records, err := dataset.Parse(v.Contents)
			if err != nil {
				return fmt.Errorf("parsing %s at %s: %w", recordsFile, shortHash(v.Hash), err)
			}
			cur = records[id]
		}

		diff := recordDiff(prev, cur)
		if diff != "" {
			found = true
			fmt.Fprintf(w, "commit %s (%s, %s)\n  %s\n%s\n",
				shortHash(v.Hash), v.Author, v.When.Format("2006-01-02"), v.Message, diff)
		}
		prev = cur
	}

	if !found {
		return fmt.Errorf("record %s not found in the history of %s", id, recordsFile)
	}

	for _, aux := range auxFiles {
		if err := traceLines(repo, aux, id, w); err != nil {
			return err
		}
	}
	return nil
}

func shortHash(h string) string {
	if len(h) > 8 {
		return h[:8]
	}
	return h
}

// recordDiff renders the change between two versions of a record.
func recordDiff(prev, cur *types.Record) string {
	switch {
	case prev == nil && cur == nil:
		return ""
	case prev == nil:
		var b strings.Builder
		fmt.Fprintf(&b, "  record created (%s, %s)\n", cur.Type, cur.Status)
		for _, line := range fieldLines(cur) {
			fmt.Fprintf(&b, "    + %s\n", line)
		}
		return strings.TrimRight(b.String(), "\n")
	case cur == nil:
		return "  record removed"
	}

	diff := cmp.Diff(prev, cur)
	if diff == "" {
		return ""
	}
	var b strings.Builder
	for _, line := range strings.Split(strings.TrimRight(diff, "\n"), "\n") {
		fmt.Fprintf(&b, "  %s\n", line)
	}
	return strings.TrimRight(b.String(), "\n")
}

func fieldLines(rec *types.Record) []string {
	var lines []string
	for _, key := range rec.FieldKeys() {
		lines = append(lines, key+": "+rec.Get(key))
	}
	return lines
}

// traceLines reports commits that added or removed lines mentioning the
// record in an auxiliary file such as the screening sheet.
func traceLines(repo *gitutil.Repo, path, id string, w io.Writer) error {
	versions, err := repo.FileHistory(path)
	if err != nil {
		return fmt.Errorf("reading history of %s: %w", path, err)
	}

	var prev map[string]bool
	for i := len(versions) - 1; i >= 0; i-- {
		v := versions[i]
		cur := map[string]bool{}
		if v.Present {
			for _, line := range strings.Split(string(v.Contents), "\n") {
				if strings.Contains(line, id) {
					cur[line] = true
				}
			}
		}

		var changes []string
		for line := range cur {
			if !prev[line] {
				changes = append(changes, "+ "+line)
			}
		}
		for line := range prev {
			if !cur[line] {
				changes = append(changes, "- "+line)
			}
		}
		sort.Strings(changes)
		if len(changes) > 0 {
			fmt.Fprintf(w, "commit %s (%s): %s\n", shortHash(v.Hash), v.Author, path)
			for _, c := range changes {
				fmt.Fprintf(w, "  %s\n", c)
			}
		}
		prev = cur
	}
	return nil
}
