// Package relay forwards JSON payloads to the configured automation
// webhooks. The relay is a transparent pass-through: the upstream's status
// and body are reflected to the caller verbatim, never reinterpreted.
package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"charterdesk/internal/domain"
)

const bodyLogLimit = 250

// Recorder archives relay exchanges. The timestamp is assigned by the
// recorder.
type Recorder interface {
	RecordExchange(ctx context.Context, x domain.Exchange) error
}

// Forwarder issues one outbound POST per invocation. No retry, no backoff.
type Forwarder struct {
	HTTP     *http.Client
	NewID    func() string
	Recorder Recorder
}

// NewCorrelationID returns a random correlation token, falling back to a
// coarse time-based token when secure randomness is unavailable.
func NewCorrelationID() string {
	id, err := uuid.NewRandom()
	if err != nil {
		return fmt.Sprintf("t-%d", time.Now().UnixNano())
	}
	return id.String()
}

func (f *Forwarder) httpClient() *http.Client {
	if f.HTTP != nil {
		return f.HTTP
	}
	return http.DefaultClient
}

func (f *Forwarder) newID() string {
	if f.NewID != nil {
		return f.NewID()
	}
	return NewCorrelationID()
}

// Forward serializes payload as JSON and POSTs it to url, returning the
// upstream's status and body unchanged. kind names the exchange for logs
// and the archive ("proposal", "selection"). An empty url is a
// configuration error reported as a 500 without any network attempt; a
// transport failure is caught and reported as a 500 carrying the
// underlying message.
func (f *Forwarder) Forward(ctx context.Context, kind, url string, payload any) domain.RelayResult {
	requestID := f.newID()

	if strings.TrimSpace(url) == "" {
		result := domain.RelayResult{
			Ok:             false,
			UpstreamStatus: http.StatusInternalServerError,
			Error:          fmt.Sprintf("missing %s webhook url", kind),
			RequestID:      requestID,
		}
		log.Printf("[%s] relay %s: %s", requestID, kind, result.Error)
		f.record(ctx, kind, url, result, "")
		return result
	}

	if payload == nil {
		payload = map[string]any{}
	}
	body, err := json.Marshal(payload)
	if err != nil {
		result := domain.RelayResult{
			Ok:             false,
			UpstreamStatus: http.StatusInternalServerError,
			Error:          fmt.Sprintf("encode payload: %v", err),
			RequestID:      requestID,
		}
		log.Printf("[%s] relay %s: %s", requestID, kind, result.Error)
		return result
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return f.transportFailure(ctx, kind, url, requestID, err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := f.httpClient().Do(req)
	if err != nil {
		return f.transportFailure(ctx, kind, url, requestID, err)
	}
	defer res.Body.Close()
	text, _ := io.ReadAll(res.Body)

	result := domain.RelayResult{
		Ok:             res.StatusCode >= 200 && res.StatusCode < 300,
		UpstreamStatus: res.StatusCode,
		Data:           decodeBody(text),
		RequestID:      requestID,
	}
	log.Printf("[%s] relay %s -> %s status=%d ok=%v body=%s",
		requestID, kind, url, res.StatusCode, result.Ok, truncate(string(text)))
	f.record(ctx, kind, url, result, string(text))
	return result
}

func (f *Forwarder) transportFailure(ctx context.Context, kind, url, requestID string, err error) domain.RelayResult {
	result := domain.RelayResult{
		Ok:             false,
		UpstreamStatus: http.StatusInternalServerError,
		Error:          err.Error(),
		RequestID:      requestID,
	}
	log.Printf("[%s] relay %s -> %s failed: %v", requestID, kind, url, err)
	f.record(ctx, kind, url, result, "")
	return result
}

// decodeBody parses the upstream body as JSON, keeping the raw text when it
// is not JSON. A non-JSON body is not an error.
func decodeBody(text []byte) any {
	if len(text) == 0 {
		return nil
	}
	var data any
	if err := json.Unmarshal(text, &data); err != nil {
		return string(text)
	}
	return data
}

func (f *Forwarder) record(ctx context.Context, kind, url string, result domain.RelayResult, body string) {
	if f.Recorder == nil {
		return
	}
	snippet := body
	if snippet == "" {
		snippet = result.Error
	}
	err := f.Recorder.RecordExchange(ctx, domain.Exchange{
		RequestID: result.RequestID,
		Kind:      kind,
		Target:    url,
		Status:    result.UpstreamStatus,
		Ok:        result.Ok,
		Body:      truncate(snippet),
	})
	if err != nil {
		log.Printf("[%s] relay %s: archive exchange failed: %v", result.RequestID, kind, err)
	}
}

func truncate(s string) string {
	if len(s) > bodyLogLimit {
		return s[:bodyLogLimit]
	}
	return s
}
