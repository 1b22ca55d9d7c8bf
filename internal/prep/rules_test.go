// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package prep

import (
	"reflect"
	"testing"

	"github.com/pdiddy/review-engine/pkg/types"
)

func TestCorrectEntryType(t *testing.T) {
	rules := &Rules{
		ConferenceAbbreviations: []ConferenceRule{
			{Abbreviation: "ICIS", Conference: "International Conference on Information Systems"},
		},
	}

	tests := []struct {
		name       string
		rec        *types.Record
		wantType   types.EntryType
		wantFields map[string]string
	}{
		{
			name: "conference name in journal field",
			rec: &types.Record{ID: "a", Type: types.Article, Fields: map[string]string{
				"journal": "Proceedings of the 14th Workshop on Things",
			}},
			wantType: types.InProceedings,
			wantFields: map[string]string{
				"booktitle": "Proceedings of the 14th Workshop on Things",
			},
		},
		{
			name: "conference abbreviation in journal field",
			rec: &types.Record{ID: "b", Type: types.Article, Fields: map[string]string{
				"journal": "ICIS",
			}},
			wantType:   types.InProceedings,
			wantFields: map[string]string{"booktitle": "ICIS"},
		},
		{
			name: "thesis link forces phdthesis",
			rec: &types.Record{ID: "c", Type: types.Article, Fields: map[string]string{
				"title":    "An investigation",
				"fulltext": "https://example.edu/dissertation/12345.pdf",
			}},
			wantType: types.PhDThesis,
			wantFields: map[string]string{
				"title":    "An investigation",
				"fulltext": "https://example.edu/dissertation/12345.pdf",
			},
		},
		{
			name: "article with booktitle and no journal",
			rec: &types.Record{ID: "d", Type: types.Article, Fields: map[string]string{
				"booktitle": "Journal of Important Research",
			}},
			wantType:   types.Article,
			wantFields: map[string]string{"journal": "Journal of Important Research"},
		},
		{
			name: "article with series and no journal",
			rec: &types.Record{ID: "e", Type: types.Article, Fields: map[string]string{
				"series": "Lecture Notes in Business",
			}},
			wantType:   types.Article,
			wantFields: map[string]string{"journal": "Lecture Notes in Business"},
		},
		{
			name: "book with conference series",
			rec: &types.Record{ID: "f", Type: types.Book, Fields: map[string]string{
				"series": "Proceedings of the Annual Symposium",
			}},
			wantType:   types.InProceedings,
			wantFields: map[string]string{"booktitle": "Proceedings of the Annual Symposium"},
		},
		{
			name: "plain article untouched",
			rec: &types.Record{ID: "g", Type: types.Article, Fields: map[string]string{
				"journal": "MIS Quarterly",
			}},
			wantType:   types.Article,
			wantFields: map[string]string{"journal": "MIS Quarterly"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			CorrectEntryType(tt.rec, rules)
			if tt.rec.Type != tt.wantType {
				t.Errorf("type = %q, want %q", tt.rec.Type, tt.wantType)
			}
			if !reflect.DeepEqual(tt.rec.Fields, tt.wantFields) {
				t.Errorf("fields = %v, want %v", tt.rec.Fields, tt.wantFields)
			}
		})
	}
}

func TestHomogenize(t *testing.T) {
	tests := []struct {
		name  string
		in    map[string]string
		field string
		want  string
	}{
		{
			name:  "braces stripped from title",
			in:    map[string]string{"title": "{A} study of {IT} adoption"},
			field: "title",
			want:  "A study of IT adoption",
		},
		{
			name:  "trailing period trimmed from title",
			in:    map[string]string{"title": "A study  of adoption."},
			field: "title",
			want:  "A study of adoption",
		},
		{
			name:  "all caps title converted",
			in:    map[string]string{"title": "A STUDY OF THE ADOPTION OF SYSTEMS"},
			field: "title",
			want:  "A Study of the Adoption of Systems",
		},
		{
			name:  "dblp author id stripped",
			in:    map[string]string{"author": "Smith 0002, John and Doe, Jane"},
			field: "author",
			want:  "Smith , John and Doe, Jane",
		},
		{
			name:  "first-last author reordered",
			in:    map[string]string{"author": "John Smith and Jane van Doe"},
			field: "author",
			want:  "Smith, John and Doe, Jane van",
		},
		{
			name:  "booktitle boilerplate stripped",
			in:    map[string]string{"booktitle": "Proceedings of the 14th International Conference on Design (DESIGN) 2019"},
			field: "booktitle",
			want:  "International Conference on Design",
		},
		{
			name:  "pages unified",
			in:    map[string]string{"pages": "101 - 120"},
			field: "pages",
			want:  "101--120",
		},
		{
			name:  "doi resolver prefix stripped",
			in:    map[string]string{"doi": "https://doi.org/10.1000/test.1"},
			field: "doi",
			want:  "10.1000/test.1",
		},
		{
			name:  "legacy doi prefix stripped",
			in:    map[string]string{"doi": "http://dx.doi.org/10.1000/test.2"},
			field: "doi",
			want:  "10.1000/test.2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &types.Record{ID: "x", Type: types.Article, Fields: tt.in}
			Homogenize(rec)
			if got := rec.Get(tt.field); got != tt.want {
				t.Errorf("%s = %q, want %q", tt.field, got, tt.want)
			}
		})
	}
}

func TestHomogenizeIssueToNumber(t *testing.T) {
	rec := &types.Record{ID: "x", Type: types.Article, Fields: map[string]string{"issue": "3"}}
	Homogenize(rec)
	if rec.Has("issue") {
		t.Error("issue field should be removed")
	}
	if got := rec.Get("number"); got != "3" {
		t.Errorf("number = %q, want %q", got, "3")
	}
}

func TestFormatAuthorField(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"John Smith", "Smith, John"},
		{"John Smith and Jane Doe", "Smith, John and Doe, Jane"},
		{"Smith, John", "Smith, John"},
		{"Madonna", "Madonna"},
		{"Jean Paul van der Berg", "Berg, Jean Paul van der"},
	}
	for _, tt := range tests {
		if got := FormatAuthorField(tt.in); got != tt.want {
			t.Errorf("FormatAuthorField(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMostlyUpperCase(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"A STUDY OF SYSTEMS", true},
		{"A Study of Systems", false},
		{"", false},
		{"123", false},
		{"MIXED Case Here", false},
	}
	for _, tt := range tests {
		if got := MostlyUpperCase(tt.in); got != tt.want {
			t.Errorf("MostlyUpperCase(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestUnifyPages(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1-10", "1--10"},
		{"1 - 10", "1--10"},
		{"1–10", "1--10"},
		{"1--10", "1--10"},
		{" 42 ", "42"},
		{"e1234", "e1234"},
	}
	for _, tt := range tests {
		if got := UnifyPages(tt.in); got != tt.want {
			t.Errorf("UnifyPages(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestIsComplete(t *testing.T) {
	tests := []struct {
		name string
		rec  *types.Record
		want bool
	}{
		{
			name: "complete article",
			rec: &types.Record{Type: types.Article, Fields: map[string]string{
				"author": "Smith, John", "title": "T", "journal": "J",
				"year": "2020", "volume": "1", "number": "2",
			}},
			want: true,
		},
		{
			name: "article missing number",
			rec: &types.Record{Type: types.Article, Fields: map[string]string{
				"author": "Smith, John", "title": "T", "journal": "J",
				"year": "2020", "volume": "1",
			}},
			want: false,
		},
		{
			name: "complete inproceedings",
			rec: &types.Record{Type: types.InProceedings, Fields: map[string]string{
				"author": "Smith, John", "title": "T", "booktitle": "B", "year": "2019",
			}},
			want: true,
		},
		{
			name: "misc never complete",
			rec: &types.Record{Type: types.Misc, Fields: map[string]string{
				"author": "Smith, John", "title": "T", "year": "2019",
			}},
			want: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsComplete(tt.rec); got != tt.want {
				t.Errorf("IsComplete = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestInconsistentFields(t *testing.T) {
	rec := &types.Record{Type: types.Article, Fields: map[string]string{
		"journal": "J", "booktitle": "B",
	}}
	got := InconsistentFields(rec)
	if !reflect.DeepEqual(got, []string{"booktitle"}) {
		t.Errorf("InconsistentFields = %v, want [booktitle]", got)
	}

	proc := &types.Record{Type: types.InProceedings, Fields: map[string]string{
		"booktitle": "B", "journal": "J", "volume": "3",
	}}
	got = InconsistentFields(proc)
	if !reflect.DeepEqual(got, []string{"volume", "journal"}) {
		t.Errorf("InconsistentFields = %v, want [volume journal]", got)
	}
}

func TestHasIncompleteFields(t *testing.T) {
	tests := []struct {
		name string
		rec  *types.Record
		want bool
	}{
		{
			name: "truncated title",
			rec:  &types.Record{Fields: map[string]string{"title": "A study of..."}},
			want: true,
		},
		{
			name: "unicode ellipsis",
			rec:  &types.Record{Fields: map[string]string{"journal": "Journal of…"}},
			want: true,
		},
		{
			name: "truncated author list",
			rec:  &types.Record{Fields: map[string]string{"author": "Smith, John and others"}},
			want: true,
		},
		{
			name: "complete fields",
			rec:  &types.Record{Fields: map[string]string{"title": "A study", "author": "Smith, John"}},
			want: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HasIncompleteFields(tt.rec); got != tt.want {
				t.Errorf("HasIncompleteFields = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDropFields(t *testing.T) {
	rec := &types.Record{Type: types.Article, Fields: map[string]string{
		"author":          "Smith, John",
		"title":           "T",
		"year":            "2020",
		"source_url":      "https://example.com",
		"note":            "imported",
		"volume":          "NA",
		"metadata_source": "doi.org",
	}}
	dropped := DropFields(rec)
	for _, key := range []string{"author", "title", "year"} {
		if !rec.Has(key) {
			t.Errorf("field %q should be kept", key)
		}
	}
	for _, key := range []string{"source_url", "note", "volume", "metadata_source"} {
		if rec.Has(key) {
			t.Errorf("field %q should be removed", key)
		}
	}
	want := map[string]bool{"source_url": true, "note": true, "metadata_source": true}
	if len(dropped) != len(want) {
		t.Fatalf("dropped = %v, want keys %v", dropped, want)
	}
	for _, key := range dropped {
		if !want[key] {
			t.Errorf("unexpected dropped key %q", key)
		}
	}
}
