// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package load

import (
	"regexp"
	"strings"

	"github.com/pdiddy/review-engine/pkg/types"
)

// Source identifies a search database and applies its quirks after the
// generic loader has run.
type Source interface {
	Name() string

	// Heuristic inspects the raw file contents and returns a confidence
	// between 0 and 1 that the file came from this source.
	Heuristic(filename string, data []byte) float64

	// UniqueIDField names the column providing stable IDs, or "".
	UniqueIDField() string

	// Fix applies source-specific field corrections in place.
	Fix(records map[string]*types.Record)
}

// Sources lists the known search sources, tried in order.
var Sources = []Source{
	springerLink{},
	ebscoHost{},
	genericSource{},
}

// DetectSource picks the source with the highest heuristic confidence.
func DetectSource(filename string, data []byte) Source {
	best := Source(genericSource{})
	bestConfidence := 0.0
	for _, s := range Sources {
		if c := s.Heuristic(filename, data); c > bestConfidence {
			best = s
			bestConfidence = c
		}
	}
	return best
}

// --- Springer Link ---

type springerLink struct{}

func (springerLink) Name() string          { return "springer_link" }
func (springerLink) UniqueIDField() string { return "item_doi" }

// Heuristic matches Springer CSV exports, which carry an item URL per row.
func (springerLink) Heuristic(filename string, data []byte) float64 {
	if !strings.HasSuffix(filename, ".csv") {
		return 0
	}
	content := string(data)
	if strings.Count(content, "link.springer.com") > strings.Count(content, "\n")-2 {
		return 1.0
	}
	return 0
}

// springerAuthorRe splits run-together camel-case author lists
// ("Jane DoeJohn Roe"). The lowercase class skips "c" so McDonald-style
// names are left alone.
var springerAuthorRe = regexp.MustCompile(`([a-bd-z])([A-Z])`)

func (springerLink) Fix(records map[string]*types.Record) {
	for _, rec := range records {
		renameField(rec, "item_title", "title")
		if rec.Get("book_series_title") == "nan" {
			rec.Del("book_series_title")
		}

		switch rec.Get("content_type") {
		case "Article":
			renameField(rec, "publication_title", "journal")
			rec.Type = types.Article
		case "Book":
			renameField(rec, "publication_title", "series")
			rec.Type = types.Book
		case "Chapter":
			rec.Set("chapter", rec.Get("title"))
			rec.Del("title")
			renameField(rec, "publication_title", "title")
			rec.Type = types.InBook
		}
		rec.Del("content_type")

		renameField(rec, "item_doi", "doi")
		renameField(rec, "journal_volume", "volume")
		renameField(rec, "journal_issue", "number")

		if rec.Has("author") {
			rec.Set("author", springerAuthorRe.ReplaceAllString(rec.Get("author"), "$1 and $2"))
		}
	}
}

// --- EBSCOHost ---

type ebscoHost struct{}

func (ebscoHost) Name() string          { return "ebsco_host" }
func (ebscoHost) UniqueIDField() string { return "accession_number" }

// ebscoIDRe matches the 17-digit accession numbers EBSCO assigns.
var ebscoIDRe = regexp.MustCompile(`\b\d{17}\b`)

func (ebscoHost) Heuristic(filename string, data []byte) float64 {
	content := string(data)
	if strings.Contains(content, "search.ebscohost.com") && ebscoIDRe.MatchString(content) {
		return 1.0
	}
	return 0
}

func (ebscoHost) Fix(records map[string]*types.Record) {
	for _, rec := range records {
		// The result URL points at the EBSCO viewer, not the paper.
		rec.Del("url")
	}
}

// --- fallback ---

type genericSource struct{}

func (genericSource) Name() string                            { return "unknown" }
func (genericSource) UniqueIDField() string                   { return "" }
func (genericSource) Heuristic(string, []byte) float64        { return 0 }
func (genericSource) Fix(records map[string]*types.Record)    {}
