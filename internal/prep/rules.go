// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package prep

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/pdiddy/review-engine/pkg/types"
)

// conferenceMarkers flag container names that belong to proceedings.
var conferenceMarkers = []string{"proceedings", "conference", "workshop", "symposium"}

// CorrectEntryType fixes records whose entry type contradicts their fields:
// conference names in the journal field, thesis links, series used as
// journals.
func CorrectEntryType(rec *types.Record, rules *Rules) {
	markers := append([]string{}, conferenceMarkers...)
	for _, c := range rules.ConferenceAbbreviations {
		markers = append(markers, strings.ToLower(c.Abbreviation), strings.ToLower(c.Conference))
	}
	isConference := func(s string) bool {
		s = strings.ToLower(s)
		for _, m := range markers {
			if m != "" && strings.Contains(s, m) {
				return true
			}
		}
		return false
	}

	if rec.Has("journal") && isConference(rec.Get("journal")) {
		rec.Set("booktitle", rec.Get("journal"))
		rec.Del("journal")
		rec.Type = types.InProceedings
	}
	if rec.Has("booktitle") && isConference(rec.Get("booktitle")) {
		rec.Type = types.InProceedings
	}

	fulltext := strings.ToLower(rec.Get("fulltext"))
	if (strings.Contains(fulltext, "dissertation") || strings.Contains(fulltext, "thesis")) &&
		rec.Type != types.PhDThesis {
		rec.Type = types.PhDThesis
	}

	switch rec.Type {
	case types.Article:
		// Journal articles should not carry booktitles or series.
		if rec.Has("booktitle") && !rec.Has("journal") {
			rec.Set("journal", rec.Get("booktitle"))
			rec.Del("booktitle")
		}
		if rec.Has("series") && !rec.Has("journal") {
			rec.Set("journal", rec.Get("series"))
			rec.Del("series")
		}
	case types.Book:
		if rec.Has("series") && isConference(rec.Get("series")) {
			rec.Set("booktitle", rec.Get("series"))
			rec.Del("series")
			rec.Type = types.InProceedings
		}
	}
}

var (
	dblpAuthorIDRe = regexp.MustCompile(`[0-9]{4}`)
	multiSpaceRe   = regexp.MustCompile(`\s+`)
	ordinalRe      = regexp.MustCompile(`\d{1,2}(?:th|nd|rd|st)`)
	yearDigitsRe   = regexp.MustCompile(`\d{4}`)
	acronymRe      = regexp.MustCompile(`\([A-Z]{3,6}\)`)
)

// Homogenize normalizes field formatting: whitespace, brace markup, author
// name order, casing, page ranges, and DOI prefixes.
func Homogenize(rec *types.Record) {
	for _, field := range []string{
		"author", "year", "title", "journal", "booktitle", "series",
		"volume", "number", "pages", "doi", "abstract",
	} {
		if !rec.Has(field) {
			continue
		}
		v := rec.Get(field)
		v = strings.ReplaceAll(v, "\n", " ")
		v = strings.ReplaceAll(v, "{", "")
		v = strings.ReplaceAll(v, "}", "")
		rec.Set(field, strings.TrimSpace(v))
	}

	if rec.Has("author") {
		// DBLP appends four-digit identifiers to non-unique author names.
		author := dblpAuthorIDRe.ReplaceAllString(rec.Get("author"), "")
		if !strings.Contains(author, ", ") {
			author = FormatAuthorField(author)
		}
		rec.Set("author", author)
	}

	if rec.Has("title") {
		title := multiSpaceRe.ReplaceAllString(rec.Get("title"), " ")
		title = strings.TrimRight(title, ".")
		rec.Set("title", TitleIfMostlyUpperCase(title))
	}

	if rec.Has("booktitle") {
		bt := TitleIfMostlyUpperCase(rec.Get("booktitle"))
		bt = yearDigitsRe.ReplaceAllString(bt, "")
		bt = ordinalRe.ReplaceAllString(bt, "")
		bt = acronymRe.ReplaceAllString(bt, "")
		bt = strings.ReplaceAll(bt, "Proceedings of the", "")
		bt = strings.ReplaceAll(bt, "Proceedings", "")
		rec.Set("booktitle", strings.TrimSpace(multiSpaceRe.ReplaceAllString(bt, " ")))
	}

	if rec.Has("journal") {
		rec.Set("journal", TitleIfMostlyUpperCase(rec.Get("journal")))
	}
	if rec.Has("pages") {
		rec.Set("pages", UnifyPages(rec.Get("pages")))
	}
	if rec.Has("doi") {
		doi := rec.Get("doi")
		doi = strings.TrimPrefix(doi, "http://dx.doi.org/")
		doi = strings.TrimPrefix(doi, "https://doi.org/")
		rec.Set("doi", doi)
	}
	if rec.Has("issue") && !rec.Has("number") {
		rec.Set("number", rec.Get("issue"))
		rec.Del("issue")
	}
}

// FormatAuthorField converts "First Last and First Last" author strings to
// the "Last, First and Last, First" convention used in the dataset.
func FormatAuthorField(authors string) string {
	parts := strings.Split(authors, " and ")
	for i, name := range parts {
		name = strings.TrimSpace(name)
		if name == "" || strings.Contains(name, ",") {
			continue
		}
		words := strings.Fields(name)
		if len(words) < 2 {
			parts[i] = name
			continue
		}
		last := words[len(words)-1]
		given := strings.Join(words[:len(words)-1], " ")
		parts[i] = last + ", " + given
	}
	return strings.Join(parts, " and ")
}

// MostlyUpperCase reports whether more than 80% of the letters are upper
// case (all-caps exports from some databases).
func MostlyUpperCase(s string) bool {
	var letters, upper int
	for _, r := range s {
		if unicode.IsLetter(r) {
			letters++
			if unicode.IsUpper(r) {
				upper++
			}
		}
	}
	return letters > 0 && float64(upper)/float64(letters) > 0.8
}

// TitleIfMostlyUpperCase converts all-caps strings to title case, leaving
// mixed-case input untouched.
func TitleIfMostlyUpperCase(s string) string {
	if !MostlyUpperCase(s) {
		return s
	}
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		if i > 0 && isMinorWord(w) {
			continue
		}
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

func isMinorWord(w string) bool {
	switch w {
	case "a", "an", "the", "and", "or", "of", "in", "on", "for", "to", "with":
		return true
	}
	return false
}

var pagesRe = regexp.MustCompile(`^\s*(\S+?)\s*[-–—]+\s*(\S+)\s*$`)

// UnifyPages normalizes page ranges to the "first--last" convention.
func UnifyPages(pages string) string {
	if m := pagesRe.FindStringSubmatch(pages); m != nil {
		return m[1] + "--" + m[2]
	}
	return strings.TrimSpace(pages)
}

// fieldRequirements lists the fields a complete record of each type needs.
var fieldRequirements = map[types.EntryType][]string{
	types.Article:       {"author", "title", "journal", "year", "volume", "number"},
	types.InProceedings: {"author", "title", "booktitle", "year"},
	types.InCollection:  {"author", "title", "booktitle", "publisher", "year"},
	types.InBook:        {"author", "title", "chapter", "publisher", "year"},
	types.Book:          {"author", "title", "publisher", "year"},
	types.PhDThesis:     {"author", "title", "school", "year"},
	types.MastersThesis: {"author", "title", "school", "year"},
	types.TechReport:    {"author", "title", "institution", "year"},
	types.Unpublished:   {"title", "author", "year"},
}

// IsComplete reports whether the record carries all fields its entry type
// requires.
func IsComplete(rec *types.Record) bool {
	reqs, ok := fieldRequirements[rec.Type]
	if !ok {
		return false
	}
	for _, field := range reqs {
		if !rec.Has(field) {
			return false
		}
	}
	return true
}

// fieldInconsistencies lists fields an entry type must not carry.
var fieldInconsistencies = map[types.EntryType][]string{
	types.Article:       {"booktitle"},
	types.InProceedings: {"volume", "issue", "number", "journal"},
	types.InBook:        {"journal"},
	types.Book:          {"volume", "issue", "number", "journal"},
	types.PhDThesis:     {"volume", "issue", "number", "journal", "booktitle"},
	types.MastersThesis: {"volume", "issue", "number", "journal", "booktitle"},
	types.TechReport:    {"volume", "issue", "number", "journal", "booktitle"},
	types.Unpublished:   {"volume", "issue", "number", "journal", "booktitle"},
}

// InconsistentFields returns the fields that contradict the record's entry
// type.
func InconsistentFields(rec *types.Record) []string {
	var found []string
	for _, field := range fieldInconsistencies[rec.Type] {
		if rec.Has(field) {
			found = append(found, field)
		}
	}
	return found
}

// HasIncompleteFields reports whether any identifying field was truncated
// by the exporting database.
func HasIncompleteFields(rec *types.Record) bool {
	for _, field := range []string{"title", "journal", "booktitle", "author"} {
		v := rec.Get(field)
		if strings.HasSuffix(v, "...") || strings.HasSuffix(v, "…") {
			return true
		}
	}
	return strings.HasSuffix(rec.Get("author"), "and others")
}

// fieldsToKeep is the whitelist applied to prepared records.
var fieldsToKeep = map[string]bool{
	"author": true, "year": true, "title": true,
	"journal": true, "booktitle": true, "series": true, "chapter": true,
	"volume": true, "number": true, "pages": true, "doi": true,
	"abstract": true, "school": true, "institution": true, "publisher": true,
	"editor": true, "keywords": true, "file": true, "fulltext": true,
	"dblp_key": true, "url": true,
}

// DropFields removes everything outside the field whitelist and returns
// the dropped keys.
func DropFields(rec *types.Record) []string {
	var dropped []string
	for key, value := range rec.Fields {
		if value == "NA" || !fieldsToKeep[key] {
			rec.Del(key)
			if !fieldsToKeep[key] {
				dropped = append(dropped, key)
			}
		}
	}
	return dropped
}
