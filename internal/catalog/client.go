package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"charterdesk/internal/domain"
)

// Client fetches the vessel catalog and itinerary list from the configured
// automation webhooks. Both fetch paths degrade to an empty list when their
// URL is unconfigured or the upstream answers with a non-2xx status; only
// transport failures surface as errors.
type Client struct {
	HTTP           *http.Client
	CatalogURL     string
	ItinerariesURL string
}

func (c *Client) httpClient() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return http.DefaultClient
}

// FetchCatalog returns the normalized vessel list.
func (c *Client) FetchCatalog(ctx context.Context) ([]domain.CatalogItem, error) {
	if strings.TrimSpace(c.CatalogURL) == "" {
		return nil, nil
	}
	payload, err := c.postJSON(ctx, c.CatalogURL)
	if err != nil {
		return nil, fmt.Errorf("fetch catalog: %w", err)
	}
	return NormalizeAll(ExtractItems(payload)), nil
}

// FetchItineraries returns the itinerary list, dropping entries without an id.
func (c *Client) FetchItineraries(ctx context.Context) ([]domain.Itinerary, error) {
	if strings.TrimSpace(c.ItinerariesURL) == "" {
		return nil, nil
	}
	payload, err := c.postJSON(ctx, c.ItinerariesURL)
	if err != nil {
		return nil, fmt.Errorf("fetch itineraries: %w", err)
	}
	var out []domain.Itinerary
	for _, raw := range ExtractItems(payload) {
		r, _ := raw.(map[string]any)
		id := stringField(r, "id", "Id")
		if id == nil {
			continue
		}
		title := stringField(r, "title", "Title", "Name")
		it := domain.Itinerary{ID: *id, Title: "Itinerary"}
		if title != nil {
			it.Title = *title
		}
		out = append(out, it)
	}
	return out, nil
}

// postJSON issues the webhook call: a POST with an empty JSON body. A non-2xx
// response is logged and treated as no data.
func (c *Client) postJSON(ctx context.Context, url string) (any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader([]byte("{}")))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	res, err := c.httpClient().Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	text, _ := io.ReadAll(res.Body)
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		snippet := string(text)
		if len(snippet) > 300 {
			snippet = snippet[:300]
		}
		log.Printf("catalog: webhook %s status %d: %s", url, res.StatusCode, snippet)
		return nil, nil
	}
	if len(text) == 0 {
		return nil, nil
	}
	var payload any
	if err := json.Unmarshal(text, &payload); err != nil {
		return nil, nil
	}
	return payload, nil
}
