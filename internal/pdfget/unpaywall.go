// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pdfget

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/pdiddy/review-engine/internal/httputil"
	"github.com/pdiddy/review-engine/pkg/types"
)

// unpaywallAPI is overridden in tests.
var unpaywallAPI = "https://api.unpaywall.org/v2/"

const unpaywallServerRetries = 3

type unpaywallResponse struct {
	BestOALocation *struct {
		URLForPDF string `json:"url_for_pdf"`
	} `json:"best_oa_location"`
	OALocations []struct {
		URLForPDF string `json:"url_for_pdf"`
	} `json:"oa_locations"`
}

// UnpaywallPDFURL looks up the open access PDF link for a DOI. An empty
// return with nil error means no open access copy is known.
func UnpaywallPDFURL(ctx context.Context, client *http.Client, doi string, cfg types.PDFConfig) (string, error) {
	query := url.Values{"email": []string{cfg.Email}}
	reqURL := unpaywallAPI + url.PathEscape(doi) + "?" + query.Encode()

	for attempt := 0; ; attempt++ {
		req, err := httputil.NewRequest(ctx, reqURL, cfg.HTTPConfig, cfg.Email)
		if err != nil {
			return "", err
		}
		resp, err := httputil.DoWithRetry(ctx, client, req, 0)
		if err != nil {
			return "", fmt.Errorf("querying unpaywall for %s: %w", doi, err)
		}

		// Transient server errors are worth a few more tries.
		if resp.StatusCode >= 500 && attempt < unpaywallServerRetries {
			resp.Body.Close()
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(time.Second):
			}
			continue
		}

		defer resp.Body.Close()
		switch {
		case resp.StatusCode == http.StatusNotFound:
			return "", nil
		case resp.StatusCode != http.StatusOK:
			return "", fmt.Errorf("unpaywall returned status %d for %s", resp.StatusCode, doi)
		}

		var parsed unpaywallResponse
		if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
			return "", fmt.Errorf("decoding unpaywall response for %s: %w", doi, err)
		}
		if parsed.BestOALocation != nil && parsed.BestOALocation.URLForPDF != "" {
			return parsed.BestOALocation.URLForPDF, nil
		}
		for _, loc := range parsed.OALocations {
			if loc.URLForPDF != "" {
				return loc.URLForPDF, nil
			}
		}
		return "", nil
	}
}
