// Package charterdesksdk is a minimal Charterdesk HTTP API client.
package charterdesksdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client talks to a Charterdesk server.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// New creates a client with sane defaults.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		Timeout: 10 * time.Second,
	}
}

// CatalogItem represents a normalized catalog entry (partial).
type CatalogItem struct {
	ID     string   `json:"id,omitempty"`
	Name   *string  `json:"name,omitempty"`
	Model  *string  `json:"model,omitempty"`
	Base   *string  `json:"base,omitempty"`
	Rating *float64 `json:"rating,omitempty"`
}

// Item pairs a catalog entry with its session state.
type Item struct {
	Key      string `json:"key"`
	Selected bool   `json:"selected"`
	Price    string `json:"price,omitempty"`
	Note     string `json:"note,omitempty"`
	CatalogItem
}

// Itinerary is a selectable itinerary option.
type Itinerary struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Selected bool   `json:"selected"`
}

// Draft mirrors the session's editable fields.
type Draft struct {
	Language          string `json:"language"`
	Currency          string `json:"currency"`
	BrokerMessage     string `json:"broker_message,omitempty"`
	ClientName        string `json:"client_name,omitempty"`
	ClientEmail       string `json:"client_email,omitempty"`
	FinalNotesEnabled bool   `json:"final_notes_enabled"`
	FinalNotes        string `json:"final_notes"`
	SelectedCount     int    `json:"selected_count"`
}

// Session is the full session view returned by most endpoints.
type Session struct {
	ID          string      `json:"id"`
	CreatedAt   string      `json:"created_at"`
	Items       []Item      `json:"items"`
	Itineraries []Itinerary `json:"itineraries"`
	Draft       Draft       `json:"draft"`
}

// RelayResult is the outcome of a webhook relay, mirroring the upstream
// status. Ok is true only for a 2xx upstream response.
type RelayResult struct {
	Ok             bool   `json:"ok"`
	UpstreamStatus int    `json:"upstreamStatus"`
	Data           any    `json:"data,omitempty"`
	Error          string `json:"error,omitempty"`
	RequestID      string `json:"requestId,omitempty"`
}

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

// OpenSession opens an editing session over a fresh catalog snapshot.
func (c *Client) OpenSession(ctx context.Context) (Session, error) {
	var resp Session
	err := c.do(ctx, http.MethodPost, "v1/sessions", nil, &resp)
	return resp, err
}

// GetSession fetches the current session state.
func (c *Client) GetSession(ctx context.Context, sessionID string) (Session, error) {
	var resp Session
	err := c.do(ctx, http.MethodGet, c.sessionPath(sessionID, ""), nil, &resp)
	return resp, err
}

// ToggleItem toggles one item's selection.
func (c *Client) ToggleItem(ctx context.Context, sessionID, key string) (Session, error) {
	var resp Session
	endpoint := c.sessionPath(sessionID, fmt.Sprintf("items/%s/toggle", url.PathEscape(key)))
	err := c.do(ctx, http.MethodPost, endpoint, nil, &resp)
	return resp, err
}

// SelectAll selects every catalog item.
func (c *Client) SelectAll(ctx context.Context, sessionID string) (Session, error) {
	var resp Session
	err := c.do(ctx, http.MethodPost, c.sessionPath(sessionID, "select-all"), nil, &resp)
	return resp, err
}

// ClearAll resets selection, prices, notes and itineraries.
func (c *Client) ClearAll(ctx context.Context, sessionID string) (Session, error) {
	var resp Session
	err := c.do(ctx, http.MethodPost, c.sessionPath(sessionID, "clear"), nil, &resp)
	return resp, err
}

// SetItemEntry sets an item's price and/or note. Nil leaves a field untouched.
func (c *Client) SetItemEntry(ctx context.Context, sessionID, key string, price, note *string) (Session, error) {
	body := map[string]any{}
	if price != nil {
		body["price"] = *price
	}
	if note != nil {
		body["note"] = *note
	}
	var resp Session
	endpoint := c.sessionPath(sessionID, fmt.Sprintf("items/%s", url.PathEscape(key)))
	err := c.do(ctx, http.MethodPut, endpoint, body, &resp)
	return resp, err
}

// SetLanguage switches the proposal language.
func (c *Client) SetLanguage(ctx context.Context, sessionID, language string) (Session, error) {
	var resp Session
	err := c.do(ctx, http.MethodPut, c.sessionPath(sessionID, "language"), map[string]any{"language": language}, &resp)
	return resp, err
}

// SetCurrency sets the proposal currency.
func (c *Client) SetCurrency(ctx context.Context, sessionID, currency string) (Session, error) {
	var resp Session
	err := c.do(ctx, http.MethodPut, c.sessionPath(sessionID, "currency"), map[string]any{"currency": currency}, &resp)
	return resp, err
}

// SetClient sets the client identity.
func (c *Client) SetClient(ctx context.Context, sessionID, name, email string) (Session, error) {
	var resp Session
	err := c.do(ctx, http.MethodPut, c.sessionPath(sessionID, "client"), map[string]any{"name": name, "email": email}, &resp)
	return resp, err
}

// Submit validates and relays the session's proposal.
func (c *Client) Submit(ctx context.Context, sessionID string) (RelayResult, error) {
	var resp RelayResult
	err := c.do(ctx, http.MethodPost, c.sessionPath(sessionID, "submit"), nil, &resp)
	return resp, err
}

// NotifySelection relays the session's selected boat ids.
func (c *Client) NotifySelection(ctx context.Context, sessionID string) (RelayResult, error) {
	var resp RelayResult
	err := c.do(ctx, http.MethodPost, c.sessionPath(sessionID, "selection"), nil, &resp)
	return resp, err
}

// RelayProposal forwards a prebuilt proposal payload.
func (c *Client) RelayProposal(ctx context.Context, payload any) (RelayResult, error) {
	var resp RelayResult
	err := c.do(ctx, http.MethodPost, "v1/proposals", payload, &resp)
	return resp, err
}

// RelaySelection forwards boat ids to the selection webhook.
func (c *Client) RelaySelection(ctx context.Context, boatIDs []string) (RelayResult, error) {
	var resp RelayResult
	err := c.do(ctx, http.MethodPost, "v1/selection", map[string]any{"boatIds": boatIDs}, &resp)
	return resp, err
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	url := c.base() + "/" + strings.TrimLeft(endpoint, "/")
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	// Relay endpoints mirror the upstream status, so non-2xx bodies are
	// still well-formed results worth decoding.
	if resp.StatusCode >= 300 {
		if out != nil && json.Unmarshal(data, out) == nil {
			if _, ok := out.(*RelayResult); ok {
				return nil
			}
		}
		return &APIError{StatusCode: resp.StatusCode, Body: string(data)}
	}
	if out != nil {
		return json.Unmarshal(data, out)
	}
	return nil
}

func (c *Client) sessionPath(sessionID, p string) string {
	endpoint := fmt.Sprintf("v1/sessions/%s", url.PathEscape(sessionID))
	if p != "" {
		endpoint += "/" + strings.TrimLeft(p, "/")
	}
	return endpoint
}

func (c *Client) base() string {
	return strings.TrimRight(c.BaseURL, "/")
}
