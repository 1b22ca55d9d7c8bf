// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package load

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strings"

	"github.com/pdiddy/review-engine/pkg/types"
)

// RIS tag lines look like "TY  - JOUR". A record ends at "ER".
var risTagRe = regexp.MustCompile(`^([A-Z][A-Z0-9])  - ?(.*)$`)

// risListTags collect multiple values per record.
var risListTags = map[string]bool{
	"AU": true, "A1": true, "A2": true, "A3": true, "A4": true, "KW": true,
}

// risEntry is one parsed RIS reference: tag → values.
type risEntry map[string][]string

func (e risEntry) first(tags ...string) string {
	for _, t := range tags {
		if vs := e[t]; len(vs) > 0 {
			return vs[0]
		}
	}
	return ""
}

// parseRIS reads tagged references from r. Header lines (FN, VR) and
// unknown continuation lines are ignored; continuation text is appended to
// the previous tag's value.
func parseRIS(r io.Reader) ([]risEntry, error) {
	var entries []risEntry
	var current risEntry
	var lastTag string

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		m := risTagRe.FindStringSubmatch(line)
		if m == nil {
			// Continuation of the previous value.
			if current != nil && lastTag != "" {
				vs := current[lastTag]
				vs[len(vs)-1] += " " + strings.TrimSpace(line)
			}
			continue
		}

		tag, value := m[1], strings.TrimSpace(m[2])
		switch tag {
		case "TY":
			current = risEntry{}
			lastTag = ""
			fallthrough
		default:
			if current == nil {
				continue // content before the first TY
			}
			current[tag] = append(current[tag], value)
			lastTag = tag
		case "ER":
			if current != nil {
				entries = append(entries, current)
				current = nil
				lastTag = ""
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading RIS input: %w", err)
	}
	if current != nil {
		entries = append(entries, current)
	}
	return entries, nil
}

// risTypes maps RIS reference types to entry types.
var risTypes = map[string]types.EntryType{
	"JOUR":  types.Article,
	"JFULL": types.Article,
	"CONF":  types.InProceedings,
	"CPAPER": types.InProceedings,
	"THES":  types.PhDThesis,
	"RPRT":  types.TechReport,
	"REPT":  types.TechReport,
	"CHAP":  types.InBook,
	"BOOK":  types.Book,
}

// LoadRIS parses RIS references and converts them to records. Citation keys
// are derived from the first three author surnames and the year; colliding
// keys get letter suffixes.
func LoadRIS(r io.Reader) (map[string]*types.Record, error) {
	entries, err := parseRIS(r)
	if err != nil {
		return nil, err
	}

	records := map[string]*types.Record{}
	for _, e := range entries {
		rec := risToRecord(e)
		rec.ID = uniqueID(rec.ID, records)
		records[rec.ID] = rec
	}
	return records, nil
}

func risToRecord(e risEntry) *types.Record {
	entryType := types.Misc
	if t, ok := risTypes[e.first("TY")]; ok {
		entryType = t
	}

	authors := risAuthors(e)
	year := strings.Trim(e.first("PY", "Y1"), "/")

	rec := &types.Record{
		ID:     citationKey(authors, year),
		Type:   entryType,
		Status: types.StateRetrieved,
		Fields: map[string]string{},
	}
	if len(authors) > 0 {
		rec.Set("author", strings.Join(authors, " and "))
	}
	if year != "" {
		rec.Set("year", year)
	}

	setIf := func(field, value string) {
		if value != "" {
			rec.Set(field, value)
		}
	}
	setIf("title", e.first("TI", "T1"))
	setIf("abstract", e.first("AB", "N2"))
	setIf("volume", e.first("VL"))
	setIf("number", e.first("IS"))
	setIf("doi", e.first("DO"))
	setIf("publisher", e.first("PB"))
	setIf("edition", e.first("ET"))
	setIf("url", e.first("UR"))

	// The secondary title is the container: journal for articles, booktitle
	// for proceedings and chapters.
	if container := e.first("T2", "JO", "JF"); container != "" {
		switch entryType {
		case types.InProceedings, types.InBook, types.InCollection:
			rec.Set("booktitle", container)
		default:
			rec.Set("journal", container)
		}
	}
	if entryType == types.Article && !rec.Has("journal") {
		setIf("journal", e.first("T2", "T1", "TI"))
	}

	switch sp, ep := e.first("SP"), e.first("EP"); {
	case sp != "" && ep != "":
		rec.Set("pages", sp+"--"+ep)
	case sp != "":
		rec.Set("pages", sp+"--")
	}

	if kws := e["KW"]; len(kws) > 0 {
		rec.Set("keywords", strings.Join(kws, ", "))
	}
	return rec
}

// risAuthors collects authors across the primary, secondary, and tertiary
// author tags, falling back to the generic AU tag.
func risAuthors(e risEntry) []string {
	var authors []string
	for _, tag := range []string{"A1", "A2", "A3"} {
		authors = append(authors, e[tag]...)
	}
	if len(authors) == 0 {
		authors = append(authors, e["AU"]...)
	}
	return authors
}

// citationKey builds the "first three surnames + year" key.
func citationKey(authors []string, year string) string {
	limit := len(authors)
	if limit > 3 {
		limit = 3
	}
	var b strings.Builder
	for _, author := range authors[:limit] {
		surname := author
		if i := strings.Index(author, ","); i >= 0 {
			surname = author[:i]
		}
		b.WriteString(strings.TrimSpace(surname))
	}
	key := strings.ToLower(b.String() + year)
	key = strings.ReplaceAll(key, " ", "_")
	key = strings.Trim(key, ".")
	if key == "" {
		key = "anonymous" + year
	}
	return key
}

// uniqueID suffixes id with a, b, c, ... until it is unused.
func uniqueID(id string, taken map[string]*types.Record) string {
	if _, ok := taken[id]; !ok {
		return id
	}
	for suffix := 'a'; suffix <= 'z'; suffix++ {
		candidate := id + string(suffix)
		if _, ok := taken[candidate]; !ok {
			return candidate
		}
	}
	// Extremely unlikely; fall back to a numbered suffix.
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s_%d", id, i)
		if _, ok := taken[candidate]; !ok {
			return candidate
		}
	}
}

// sortedIDs returns record keys in stable order (used in reports).
func sortedIDs(records map[string]*types.Record) []string {
	ids := make([]string, 0, len(records))
	for id := range records {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
