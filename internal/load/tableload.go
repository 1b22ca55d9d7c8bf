// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package load

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/pdiddy/review-engine/pkg/types"
)

// LoadCSV reads tabular search results. Column names are normalized
// (lowercased, spaces and dashes replaced by underscores) and the rows are
// cleaned up the way database exports usually require: placeholder values
// dropped, common column aliases renamed, entry types inferred.
//
// When uniqueIDField is empty, records get zero-padded sequential IDs;
// otherwise the named column provides the ID.
func LoadCSV(r io.Reader, uniqueIDField string) (map[string]*types.Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading csv header: %w", err)
	}
	for i, col := range header {
		col = strings.ToLower(strings.TrimSpace(col))
		col = strings.ReplaceAll(col, " ", "_")
		col = strings.ReplaceAll(col, "-", "_")
		header[i] = col
	}

	var rows []map[string]string
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("not a csv file? %w", err)
		}
		fields := map[string]string{}
		for i, value := range row {
			if i < len(header) {
				fields[header[i]] = strings.TrimSpace(value)
			}
		}
		rows = append(rows, fields)
	}

	records := map[string]*types.Record{}
	for i, fields := range rows {
		rec := tableToRecord(fields)

		var id string
		switch {
		case uniqueIDField != "" && fields[uniqueIDField] != "":
			id = strings.NewReplacer(" ", "", ";", "_").Replace(fields[uniqueIDField])
		case fields["citation_key"] != "":
			id = fields["citation_key"]
		default:
			id = fmt.Sprintf("%06d", i+1)
		}
		rec.ID = uniqueID(id, records)
		records[rec.ID] = rec
	}
	return records, nil
}

// tableToRecord cleans one table row and converts it to a record.
func tableToRecord(fields map[string]string) *types.Record {
	rec := &types.Record{
		Type:   types.Misc,
		Status: types.StateRetrieved,
		Fields: map[string]string{},
	}

	// Entry type from an explicit column, else inferred from the container.
	if t := fields["type"]; t != "" {
		rec.Type = types.EntryType(strings.ToLower(t))
		delete(fields, "type")
	}

	for key, value := range fields {
		if dropValue(key, value) {
			continue
		}
		rec.Set(key, value)
	}

	renameField(rec, "authors", "author")
	renameField(rec, "publication_year", "year")
	if rec.Has("issue") && !rec.Has("number") {
		if rec.Get("issue") != "no issue" {
			rec.Set("number", rec.Get("issue"))
		}
		rec.Del("issue")
	}
	// Exports from DOI-based databases label the container ambiguously.
	if rec.Has("journal/book") && !rec.Has("journal") && rec.Has("doi") {
		rec.Set("journal", rec.Get("journal/book"))
		rec.Del("journal/book")
	}

	if rec.Type == types.Misc {
		switch {
		case rec.Has("journal"):
			rec.Type = types.Article
		case rec.Has("booktitle"):
			rec.Type = types.InProceedings
		}
	}
	switch rec.Type {
	case types.InProceedings:
		if rec.Has("journal") && !rec.Has("booktitle") {
			rec.Set("booktitle", rec.Get("journal"))
			rec.Del("journal")
		}
	case types.Article:
		if rec.Has("booktitle") && !rec.Has("journal") {
			rec.Set("journal", rec.Get("booktitle"))
			rec.Del("booktitle")
		}
	}

	if author := rec.Get("author"); strings.Contains(author, "; ") {
		rec.Set("author", strings.ReplaceAll(author, "; ", " and "))
	}

	for _, junk := range []string{"author_count", "entrytype", "citation_key"} {
		rec.Del(junk)
	}
	return rec
}

// dropValue reports whether a cell is a known placeholder.
func dropValue(key, value string) bool {
	switch value {
	case "", "nan", "NA", "no " + key:
		return true
	}
	switch key {
	case "number_of_cited_references":
		return value == "no Number-of-Cited-References"
	case "cited_by":
		return value == "no Times-Cited"
	case "file_name":
		return strings.Contains(value, "no file")
	}
	return false
}

func renameField(rec *types.Record, from, to string) {
	if rec.Has(from) && !rec.Has(to) {
		rec.Set(to, rec.Get(from))
		rec.Del(from)
	}
}
