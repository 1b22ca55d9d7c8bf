// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package dedupe detects and merges duplicate records.
//
// Candidate pairs are scored with weighted Levenshtein ratios over
// normalized fields; pairs at or above the merge threshold are merged
// automatically, with the primary record chosen by a status heuristic.
package dedupe

import (
	"regexp"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/pdiddy/review-engine/pkg/types"
)

// Ratio returns the Levenshtein similarity of two strings in [0, 1].
func Ratio(a, b string) float64 {
	if a == b {
		return 1
	}
	longest := len([]rune(a))
	if l := len([]rune(b)); l > longest {
		longest = l
	}
	if longest == 0 {
		return 1
	}
	d := levenshtein.ComputeDistance(a, b)
	return 1 - float64(d)/float64(longest)
}

var nonAlnumRe = regexp.MustCompile(`[^a-z0-9, ]+`)

// compareRecord is the normalized projection used for similarity scoring.
type compareRecord struct {
	author    string
	title     string
	year      string
	container string
	volume    string
	number    string
	pages     string
}

// missing values exported by databases that mean "not set".
var missingValues = map[string]bool{
	"no issue": true, "no volume": true, "no pages": true,
	"no author": true, "nan": true, "na": true,
}

func clean(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.Trim(s, `"'`)
	if missingValues[s] {
		return ""
	}
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.Join(strings.Fields(s), " ")
}

// normalize projects a record onto the comparison fields. Book chapters
// compare their chapter as the title and the book title as the container,
// so a chapter and its containing book do not look identical.
func normalize(rec *types.Record) compareRecord {
	title := rec.Get("title")
	container := rec.Get("journal") + rec.Get("booktitle") + rec.Get("series")
	if rec.Type == types.InBook {
		container = rec.Get("title")
		if rec.Has("chapter") {
			title = rec.Get("chapter")
		}
	}

	author := clean(rec.Get("author"))
	if runes := []rune(author); len(runes) > 60 {
		author = string(runes[:60])
	}

	return compareRecord{
		author:    author,
		title:     nonAlnumRe.ReplaceAllString(clean(title), " "),
		year:      clean(rec.Get("year")),
		container: nonAlnumRe.ReplaceAllString(clean(container), ""),
		volume:    clean(rec.Get("volume")),
		number:    clean(rec.Get("number")),
		pages:     clean(rec.Get("pages")),
	}
}

// similarityWeights must sum to 1.
var similarityWeights = []struct {
	field  func(compareRecord) string
	weight float64
}{
	{func(c compareRecord) string { return c.author }, 0.25},
	{func(c compareRecord) string { return c.title }, 0.35},
	{func(c compareRecord) string { return c.year }, 0.10},
	{func(c compareRecord) string { return c.container }, 0.18},
	{func(c compareRecord) string { return c.volume }, 0.04},
	{func(c compareRecord) string { return c.number }, 0.04},
	{func(c compareRecord) string { return c.pages }, 0.04},
}

// Similarity scores two records in [0, 1]. Fields missing from both
// records are excluded and the remaining weights renormalized, so sparse
// records are not penalized for what neither source exported.
func Similarity(a, b *types.Record) float64 {
	ca, cb := normalize(a), normalize(b)

	var score, weightSum float64
	for _, w := range similarityWeights {
		va, vb := w.field(ca), w.field(cb)
		if va == "" && vb == "" {
			continue
		}
		score += w.weight * Ratio(va, vb)
		weightSum += w.weight
	}
	if weightSum == 0 {
		return 0
	}
	return score / weightSum
}

// FormatAuthorsForComparison reduces an author string to lowercase
// surnames, the projection used when comparing author lists across
// databases with different name formats.
func FormatAuthorsForComparison(authors string) string {
	var surnames []string
	for _, name := range strings.Split(authors, " and ") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if i := strings.Index(name, ","); i >= 0 {
			name = name[:i]
		} else if fields := strings.Fields(name); len(fields) > 0 {
			name = fields[len(fields)-1]
		}
		surnames = append(surnames, strings.ToLower(name))
	}
	return strings.Join(surnames, " ")
}
