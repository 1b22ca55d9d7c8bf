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

// Overridden in tests.
var (
	dblpPublAPI  = "https://dblp.org/search/publ/api"
	dblpVenueAPI = "https://dblp.org/search/venue/api"
)

// dblpThreshold is deliberately strict; DBLP metadata overwrites record
// fields when a hit matches.
const dblpThreshold = 0.99

// dblpAuthors accepts both the single-object and the array form DBLP
// uses for the author list.
type dblpAuthors struct {
	Names []string
}

func (a *dblpAuthors) UnmarshalJSON(data []byte) error {
	var wrapped struct {
		Author json.RawMessage `json:"author"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return err
	}
	if len(wrapped.Author) == 0 {
		return nil
	}

	type dblpName struct {
		Text string `json:"text"`
	}
	var many []dblpName
	if err := json.Unmarshal(wrapped.Author, &many); err == nil {
		for _, n := range many {
			a.Names = append(a.Names, n.Text)
		}
		return nil
	}
	var one dblpName
	if err := json.Unmarshal(wrapped.Author, &one); err != nil {
		return err
	}
	a.Names = append(a.Names, one.Text)
	return nil
}

type dblpHit struct {
	Info struct {
		Title   string      `json:"title"`
		Authors dblpAuthors `json:"authors"`
		Venue   string      `json:"venue"`
		Volume  string      `json:"volume"`
		Number  string      `json:"number"`
		Pages   string      `json:"pages"`
		Year    string      `json:"year"`
		Type    string      `json:"type"`
		Key     string      `json:"key"`
		DOI     string      `json:"doi"`
	} `json:"info"`
}

type dblpResponse struct {
	Result struct {
		Hits struct {
			Hit []dblpHit `json:"hit"`
		} `json:"hits"`
	} `json:"result"`
}

func dblpAuthorString(names []string) string {
	formatted := make([]string, 0, len(names))
	for _, n := range names {
		name := strings.TrimSpace(dblpAuthorIDRe.ReplaceAllString(n, ""))
		formatted = append(formatted, FormatAuthorField(name))
	}
	return strings.Join(formatted, " and ")
}

func dblpSimilarity(hit dblpHit, rec *types.Record) float64 {
	titleSim := dedupe.Ratio(strings.ToLower(hit.Info.Title), strings.ToLower(rec.Get("title")))
	authorSim := dedupe.Ratio(
		dedupe.FormatAuthorsForComparison(dblpAuthorString(hit.Info.Authors.Names)),
		dedupe.FormatAuthorsForComparison(rec.Get("author")),
	)
	yearSim := dedupe.Ratio(hit.Info.Year, rec.Get("year"))
	return 0.4*titleSim + 0.3*authorSim + 0.3*yearSim
}

// dblpVenueName resolves a DBLP venue abbreviation to its full name. On
// any failure the abbreviation is returned unchanged.
func dblpVenueName(ctx context.Context, client *http.Client, abbrev string, cfg types.PrepConfig) string {
	query := url.Values{"q": []string{abbrev}, "format": []string{"json"}}
	req, err := httputil.NewRequest(ctx, dblpVenueAPI+"?"+query.Encode(), cfg.HTTPConfig, cfg.Email)
	if err != nil {
		return abbrev
	}
	resp, err := httputil.DoWithRetry(ctx, client, req, 0)
	if err != nil {
		return abbrev
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return abbrev
	}

	var parsed struct {
		Result struct {
			Hits struct {
				Hit []struct {
					Info struct {
						Venue string `json:"venue"`
					} `json:"info"`
				} `json:"hit"`
			} `json:"hits"`
		} `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return abbrev
	}
	for _, hit := range parsed.Result.Hits.Hit {
		if hit.Info.Venue != "" {
			return hit.Info.Venue
		}
	}
	return abbrev
}

func applyDBLP(ctx context.Context, client *http.Client, hit dblpHit, rec *types.Record, cfg types.PrepConfig) {
	info := hit.Info
	rec.Set("title", strings.TrimRight(info.Title, "."))
	if len(info.Authors.Names) > 0 {
		rec.Set("author", dblpAuthorString(info.Authors.Names))
	}
	if info.Year != "" {
		rec.Set("year", info.Year)
	}
	if info.Pages != "" {
		rec.Set("pages", UnifyPages(info.Pages))
	}
	if info.DOI != "" && !rec.Has("doi") {
		rec.Set("doi", strings.ToLower(info.DOI))
	}

	switch info.Type {
	case "Journal Articles":
		rec.Type = types.Article
		rec.Del("booktitle")
		if info.Venue != "" {
			rec.Set("journal", dblpVenueName(ctx, client, info.Venue, cfg))
		}
		if info.Volume != "" {
			rec.Set("volume", info.Volume)
		}
		if info.Number != "" {
			rec.Set("number", info.Number)
		}
	case "Conference and Workshop Papers":
		rec.Type = types.InProceedings
		rec.Del("journal")
		rec.Del("volume")
		rec.Del("number")
		if info.Venue != "" {
			rec.Set("booktitle", dblpVenueName(ctx, client, info.Venue, cfg))
		}
	}

	if info.Key != "" {
		rec.Set("dblp_key", "https://dblp.org/rec/"+info.Key)
	}
}

// retrieveDBLPMetadata searches DBLP by title and, on a near-exact match,
// replaces the record metadata with the curated DBLP entry.
func retrieveDBLPMetadata(ctx context.Context, client *http.Client, rec *types.Record, cfg types.PrepConfig) error {
	if rec.Has("dblp_key") || rec.Get("title") == "" {
		return nil
	}
	query := url.Values{"q": []string{rec.Get("title")}, "format": []string{"json"}}
	req, err := httputil.NewRequest(ctx, dblpPublAPI+"?"+query.Encode(), cfg.HTTPConfig, cfg.Email)
	if err != nil {
		return err
	}
	resp, err := httputil.DoWithRetry(ctx, client, req, 0)
	if err != nil {
		return fmt.Errorf("querying dblp: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("dblp returned status %d", resp.StatusCode)
	}

	var parsed dblpResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return fmt.Errorf("decoding dblp response: %w", err)
	}

	for _, hit := range parsed.Result.Hits.Hit {
		if dblpSimilarity(hit, rec) > dblpThreshold {
			applyDBLP(ctx, client, hit, rec, cfg)
			break
		}
	}
	return nil
}
