// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"reflect"
	"testing"
)

func TestMergeFrom(t *testing.T) {
	r := &Record{
		ID:      "smith2020",
		Type:    Misc,
		Status:  StateProcessed,
		Origins: []string{"ais.ris/000042"},
		Fields:  map[string]string{"title": "A Theory of Everything", "year": "2020"},
	}
	other := &Record{
		ID:      "smith2020a",
		Type:    Article,
		Status:  StatePrepared,
		Origins: []string{"wos.csv/17", "ais.ris/000042"},
		Fields: map[string]string{
			"title":   "A theory of everything",
			"journal": "MIS Quarterly",
			"volume":  "44",
		},
	}

	r.MergeFrom(other)

	if r.ID != "smith2020" || r.Status != StateProcessed {
		t.Errorf("merge must keep the primary's ID and status, got %s/%s", r.ID, r.Status)
	}
	if r.Get("title") != "A Theory of Everything" {
		t.Errorf("existing field overwritten: %q", r.Get("title"))
	}
	if r.Get("journal") != "MIS Quarterly" || r.Get("volume") != "44" {
		t.Error("missing fields not filled from the duplicate")
	}
	if r.Type != Article {
		t.Errorf("misc type should be upgraded, got %s", r.Type)
	}
	want := []string{"ais.ris/000042", "wos.csv/17"}
	if !reflect.DeepEqual(r.Origins, want) {
		t.Errorf("origins = %v, want %v", r.Origins, want)
	}
}

func TestSourceFiles(t *testing.T) {
	r := &Record{Origins: []string{"wos.csv/17", "wos.csv/23", "ais.ris/000042"}}
	want := []string{"ais.ris", "wos.csv"}
	if got := r.SourceFiles(); !reflect.DeepEqual(got, want) {
		t.Errorf("SourceFiles() = %v, want %v", got, want)
	}
}

func TestContainerTitle(t *testing.T) {
	tests := []struct {
		fields map[string]string
		want   string
	}{
		{map[string]string{"journal": "ISR", "booktitle": "ICIS"}, "ISR"},
		{map[string]string{"booktitle": "ICIS"}, "ICIS"},
		{map[string]string{"series": "LNCS"}, "LNCS"},
		{map[string]string{}, ""},
	}
	for _, tt := range tests {
		r := &Record{Fields: tt.fields}
		if got := r.ContainerTitle(); got != tt.want {
			t.Errorf("ContainerTitle() with %v = %q, want %q", tt.fields, got, tt.want)
		}
	}
}

func TestCitationString(t *testing.T) {
	r := &Record{
		Type: Article,
		Fields: map[string]string{
			"author":  "Smith, Jo",
			"year":    "2020",
			"title":   "A theory of everything",
			"journal": "MIS Quarterly",
			"volume":  "44",
			"number":  "2",
		},
	}
	want := "Smith, Jo (2020). A theory of everything. MIS Quarterly, 44(2)"
	if got := r.CitationString(); got != want {
		t.Errorf("CitationString() = %q, want %q", got, want)
	}
}

func TestCloneIsDeep(t *testing.T) {
	r := &Record{ID: "a", Fields: map[string]string{"title": "x"}, Origins: []string{"f/1"}}
	c := r.Clone()
	c.Set("title", "y")
	c.Origins[0] = "g/2"
	if r.Get("title") != "x" || r.Origins[0] != "f/1" {
		t.Error("clone shares state with the original")
	}
}
