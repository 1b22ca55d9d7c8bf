// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the review-engine
// workflow: bibliographic records, the record state machine, and the
// per-stage configuration.
package types

import (
	"fmt"
	"sort"
	"strings"
)

// EntryType classifies a bibliographic record.
type EntryType string

const (
	Article       EntryType = "article"
	InProceedings EntryType = "inproceedings"
	Proceedings   EntryType = "proceedings"
	InCollection  EntryType = "incollection"
	InBook        EntryType = "inbook"
	Book          EntryType = "book"
	PhDThesis     EntryType = "phdthesis"
	MastersThesis EntryType = "mastersthesis"
	TechReport    EntryType = "techreport"
	Unpublished   EntryType = "unpublished"
	Misc          EntryType = "misc"
)

// Record is one bibliographic record in the review dataset. Bibliographic
// fields (author, title, journal, ...) live in the Fields map; ID, entry
// type, status, and provenance are first-class.
type Record struct {
	// ID is the citation key. Immutable once the record reaches md_prepared.
	ID string `yaml:"id" json:"id"`

	// Type is the bibliographic entry type.
	Type EntryType `yaml:"type" json:"type"`

	// Status is the record's position in the review state machine.
	Status State `yaml:"status" json:"status"`

	// Origins lists provenance entries of the form "<source-file>/<id>".
	// Merged records carry the origins of all constituent records.
	Origins []string `yaml:"origins,omitempty" json:"origins,omitempty"`

	// Fields holds the bibliographic fields.
	Fields map[string]string `yaml:"fields" json:"fields"`
}

// Get returns the value of a bibliographic field, or "" when unset.
func (r *Record) Get(key string) string {
	return r.Fields[key]
}

// Set stores a bibliographic field, allocating the map if needed.
func (r *Record) Set(key, value string) {
	if r.Fields == nil {
		r.Fields = make(map[string]string)
	}
	r.Fields[key] = value
}

// Del removes a bibliographic field.
func (r *Record) Del(key string) {
	delete(r.Fields, key)
}

// Has reports whether a bibliographic field is set and non-empty.
func (r *Record) Has(key string) bool {
	return r.Fields[key] != ""
}

// FieldKeys returns the set bibliographic field names, sorted.
func (r *Record) FieldKeys() []string {
	keys := make([]string, 0, len(r.Fields))
	for k := range r.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns a deep copy of the record.
func (r *Record) Clone() *Record {
	c := *r
	c.Origins = append([]string(nil), r.Origins...)
	c.Fields = make(map[string]string, len(r.Fields))
	for k, v := range r.Fields {
		c.Fields[k] = v
	}
	return &c
}

// ContainerTitle returns the journal, booktitle, or series, in that order
// of preference.
func (r *Record) ContainerTitle() string {
	for _, key := range []string{"journal", "booktitle", "series"} {
		if r.Has(key) {
			return r.Get(key)
		}
	}
	return ""
}

// SourceFiles returns the distinct source files from the record's origins
// (the part before the first "/").
func (r *Record) SourceFiles() []string {
	seen := map[string]bool{}
	var files []string
	for _, origin := range r.Origins {
		file := origin
		if i := strings.Index(origin, "/"); i >= 0 {
			file = origin[:i]
		}
		if !seen[file] {
			seen[file] = true
			files = append(files, file)
		}
	}
	sort.Strings(files)
	return files
}

// AddOrigin appends an origin unless already present.
func (r *Record) AddOrigin(origin string) {
	for _, o := range r.Origins {
		if o == origin {
			return
		}
	}
	r.Origins = append(r.Origins, origin)
}

// MergeFrom fills empty fields of r from other and combines origins.
// Existing values of r always win; the merged record keeps r's ID and
// status.
func (r *Record) MergeFrom(other *Record) {
	for key, value := range other.Fields {
		if value != "" && !r.Has(key) {
			r.Set(key, value)
		}
	}
	for _, origin := range other.Origins {
		r.AddOrigin(origin)
	}
	if r.Type == "" || r.Type == Misc {
		if other.Type != "" && other.Type != Misc {
			r.Type = other.Type
		}
	}
}

// CitationString renders the record in a compact bibliography style for
// console output.
func (r *Record) CitationString() string {
	var b strings.Builder
	if r.Has("author") {
		b.WriteString(r.Get("author"))
	}
	if r.Has("year") {
		fmt.Fprintf(&b, " (%s)", r.Get("year"))
	}
	if r.Has("title") {
		fmt.Fprintf(&b, ". %s", r.Get("title"))
	}
	if ct := r.ContainerTitle(); ct != "" {
		fmt.Fprintf(&b, ". %s", ct)
	}
	if r.Has("volume") {
		fmt.Fprintf(&b, ", %s", r.Get("volume"))
		if r.Has("number") {
			fmt.Fprintf(&b, "(%s)", r.Get("number"))
		}
	}
	return b.String()
}
