// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package prep

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/pdiddy/review-engine/internal/dedupe"
	"github.com/pdiddy/review-engine/internal/httputil"
	"github.com/pdiddy/review-engine/pkg/types"
)

// crossrefAPI is overridden in tests.
var crossrefAPI = "https://api.crossref.org/works"

// crossrefDOIThreshold is the similarity a Crossref hit must reach before
// its DOI is adopted.
const crossrefDOIThreshold = 0.95

// crossrefMinTitleLen guards against matching short, generic titles.
const crossrefMinTitleLen = 60

type crossrefResponse struct {
	Message struct {
		Items []struct {
			Title          []string `json:"title"`
			ContainerTitle []string `json:"container-title"`
			DOI            string   `json:"DOI"`
		} `json:"items"`
	} `json:"message"`
}

// CrossrefDOI queries Crossref by bibliographic title and returns the DOI
// of the best match together with its similarity score. An empty DOI means
// no sufficiently similar work was found.
func CrossrefDOI(ctx context.Context, client *http.Client, rec *types.Record, cfg types.PrepConfig) (string, float64, error) {
	query := url.Values{
		"rows":                []string{"5"},
		"query.bibliographic": []string{rec.Get("title")},
	}
	req, err := httputil.NewRequest(ctx, crossrefAPI+"?"+query.Encode(), cfg.HTTPConfig, cfg.Email)
	if err != nil {
		return "", 0, err
	}

	resp, err := httputil.DoWithRetry(ctx, client, req, 0)
	if err != nil {
		return "", 0, fmt.Errorf("querying crossref: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", 0, fmt.Errorf("crossref returned status %d", resp.StatusCode)
	}

	var parsed crossrefResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", 0, fmt.Errorf("decoding crossref response: %w", err)
	}

	var bestDOI string
	var bestScore float64
	for _, item := range parsed.Message.Items {
		if len(item.Title) == 0 || item.DOI == "" {
			continue
		}
		titleSim := dedupe.Ratio(strings.ToLower(item.Title[0]), strings.ToLower(rec.Get("title")))

		containerSim := 0.0
		if len(item.ContainerTitle) > 0 {
			containerSim = dedupe.Ratio(strings.ToLower(item.ContainerTitle[0]), strings.ToLower(rec.ContainerTitle()))
		}

		score := 0.6*titleSim + 0.4*containerSim
		if score > bestScore {
			bestScore = score
			bestDOI = item.DOI
		}
	}
	return bestDOI, bestScore, nil
}

// retrieveCrossrefDOI adopts a Crossref DOI for records with a long enough
// title and no DOI yet.
func retrieveCrossrefDOI(ctx context.Context, client *http.Client, rec *types.Record, cfg types.PrepConfig) error {
	if rec.Has("doi") || len(rec.Get("title")) <= crossrefMinTitleLen {
		return nil
	}
	doi, score, err := CrossrefDOI(ctx, client, rec, cfg)
	if err != nil {
		return err
	}
	if doi != "" && score > crossrefDOIThreshold {
		rec.Set("doi", doi)
	}
	return nil
}
