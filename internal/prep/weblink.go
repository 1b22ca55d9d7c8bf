// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package prep

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"

	"github.com/pdiddy/review-engine/internal/dedupe"
	"github.com/pdiddy/review-engine/internal/httputil"
	"github.com/pdiddy/review-engine/pkg/types"
)

var doiRe = regexp.MustCompile(`10\.\d{4,9}/[-._;/:A-Za-z0-9]*`)

// doiBodyLimit caps how much of a landing page is scanned for a DOI.
const doiBodyLimit = 1 << 20

// doiValidationThreshold is the similarity the metadata behind a scraped
// DOI must have to the record before the DOI is kept.
const doiValidationThreshold = 0.95

// mostCommonDOI returns the DOI occurring most often in the page body.
// Landing pages mention related articles; the paper's own DOI repeats.
func mostCommonDOI(body []byte) string {
	counts := map[string]int{}
	for _, m := range doiRe.FindAll(body, -1) {
		counts[string(m)]++
	}
	var best string
	var bestN int
	for doi, n := range counts {
		if n > bestN {
			best, bestN = doi, n
		}
	}
	return best
}

// retrieveDOIFromLink fetches the record's url or fulltext link, scrapes a
// candidate DOI from the page, and keeps it only if the metadata behind it
// matches the record.
func retrieveDOIFromLink(ctx context.Context, client *http.Client, rec *types.Record, cfg types.PrepConfig) error {
	if rec.Has("doi") {
		return nil
	}
	link := rec.Get("url")
	if link == "" {
		link = rec.Get("fulltext")
	}
	if link == "" {
		return nil
	}

	req, err := httputil.NewRequest(ctx, link, cfg.HTTPConfig, cfg.Email)
	if err != nil {
		return err
	}
	resp, err := httputil.DoWithRetry(ctx, client, req, 0)
	if err != nil {
		return fmt.Errorf("fetching %s: %w", link, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, doiBodyLimit))
	if err != nil {
		return fmt.Errorf("reading %s: %w", link, err)
	}

	doi := mostCommonDOI(body)
	if doi == "" {
		return nil
	}

	// Validate against the resolved metadata before trusting the scrape.
	candidate := &types.Record{ID: rec.ID, Type: rec.Type, Fields: map[string]string{"doi": doi}}
	if err := RetrieveDOIMetadata(ctx, client, candidate, cfg); err != nil {
		return nil
	}
	if dedupe.Similarity(candidate, rec) < doiValidationThreshold {
		return nil
	}
	rec.Set("doi", doi)
	return nil
}
