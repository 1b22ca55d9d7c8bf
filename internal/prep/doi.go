// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package prep

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/pdiddy/review-engine/internal/httputil"
	"github.com/pdiddy/review-engine/pkg/types"
)

// doiResolver is overridden in tests.
var doiResolver = "https://doi.org/"

var jatsTagRe = regexp.MustCompile(`</?jats:[^>]*>`)

// cslString tolerates the string-or-array shape CSL JSON uses for titles.
type cslString string

func (s *cslString) UnmarshalJSON(data []byte) error {
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		*s = cslString(one)
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	if len(many) > 0 {
		*s = cslString(many[0])
	}
	return nil
}

type cslItem struct {
	Title          cslString `json:"title"`
	ContainerTitle cslString `json:"container-title"`
	Page           string    `json:"page"`
	Volume         string    `json:"volume"`
	Issue          string    `json:"issue"`
	Abstract       string    `json:"abstract"`
	Author         []struct {
		Family string `json:"family"`
		Given  string `json:"given"`
	} `json:"author"`
	PublishedPrint struct {
		DateParts [][]int `json:"date-parts"`
	} `json:"published-print"`
	PublishedOnline struct {
		DateParts [][]int `json:"date-parts"`
	} `json:"published-online"`
}

func (c *cslItem) year() string {
	for _, parts := range [][][]int{c.PublishedPrint.DateParts, c.PublishedOnline.DateParts} {
		if len(parts) > 0 && len(parts[0]) > 0 {
			return strconv.Itoa(parts[0][0])
		}
	}
	return ""
}

func (c *cslItem) authorString() string {
	var names []string
	for _, a := range c.Author {
		if a.Family == "" {
			continue
		}
		if a.Given == "" {
			names = append(names, a.Family)
			continue
		}
		names = append(names, a.Family+", "+a.Given)
	}
	return strings.Join(names, " and ")
}

// applyCSL fills record fields from resolved DOI metadata without
// overwriting values the record already carries.
func applyCSL(item *cslItem, rec *types.Record) {
	set := func(key, value string) {
		if value != "" && !rec.Has(key) {
			rec.Set(key, value)
		}
	}
	set("title", strings.TrimRight(string(item.Title), "."))
	set("author", item.authorString())
	set("year", item.year())
	set("volume", item.Volume)
	set("number", item.Issue)
	set("journal", string(item.ContainerTitle))
	if item.Abstract != "" {
		set("abstract", strings.TrimSpace(jatsTagRe.ReplaceAllString(item.Abstract, "")))
	}
	// Only adopt a page range, and only when the current value is not
	// already contained in it.
	if strings.Contains(item.Page, "-") &&
		(rec.Get("pages") == "" || !strings.Contains(item.Page, rec.Get("pages"))) {
		rec.Set("pages", UnifyPages(item.Page))
	}
}

// RetrieveDOIMetadata resolves a record's DOI to CSL JSON and fills in the
// missing bibliographic fields. Successful retrieval marks the record so
// completeness checks can trust the curated metadata.
func RetrieveDOIMetadata(ctx context.Context, client *http.Client, rec *types.Record, cfg types.PrepConfig) error {
	doi := rec.Get("doi")
	if doi == "" {
		return nil
	}
	req, err := httputil.NewRequest(ctx, doiResolver+doi, cfg.HTTPConfig, cfg.Email)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/vnd.citationstyles.csl+json")

	resp, err := httputil.DoWithRetry(ctx, client, req, 0)
	if err != nil {
		return fmt.Errorf("resolving doi %s: %w", doi, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("doi.org returned status %d for %s", resp.StatusCode, doi)
	}

	var item cslItem
	if err := json.NewDecoder(resp.Body).Decode(&item); err != nil {
		return fmt.Errorf("decoding doi metadata for %s: %w", doi, err)
	}
	applyCSL(&item, rec)
	rec.Set("metadata_source", "doi.org")
	return nil
}
