package relay

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"charterdesk/internal/domain"
)

type recorderSpy struct {
	exchanges []domain.Exchange
}

func (r *recorderSpy) RecordExchange(_ context.Context, x domain.Exchange) error {
	r.exchanges = append(r.exchanges, x)
	return nil
}

func TestForwardPassThrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Content-Type"); got != "application/json" {
			t.Errorf("content-type: got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"received":true}`))
	}))
	defer srv.Close()

	f := &Forwarder{NewID: func() string { return "req-1" }}
	result := f.Forward(context.Background(), "proposal", srv.URL, map[string]any{"language": "en"})
	if !result.Ok || result.UpstreamStatus != http.StatusCreated {
		t.Fatalf("unexpected result %+v", result)
	}
	data, ok := result.Data.(map[string]any)
	if !ok || data["received"] != true {
		t.Fatalf("unexpected data %#v", result.Data)
	}
	if result.RequestID != "req-1" {
		t.Fatalf("expected correlation id preserved, got %q", result.RequestID)
	}
}

func TestForwardUpstreamStatusNotRemapped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("not found"))
	}))
	defer srv.Close()

	f := &Forwarder{}
	result := f.Forward(context.Background(), "proposal", srv.URL, nil)
	if result.Ok {
		t.Fatalf("expected ok=false")
	}
	if result.UpstreamStatus != http.StatusNotFound {
		t.Fatalf("expected 404 passed through, got %d", result.UpstreamStatus)
	}
	if result.Data != "not found" {
		t.Fatalf("expected raw text body, got %#v", result.Data)
	}
	if result.Error != "" {
		t.Fatalf("a non-2xx upstream is not a relay error, got %q", result.Error)
	}
}

func TestForwardMissingURLSkipsNetwork(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer srv.Close()

	f := &Forwarder{HTTP: srv.Client()}
	result := f.Forward(context.Background(), "proposal", "", map[string]any{})
	if result.Ok || result.UpstreamStatus != http.StatusInternalServerError {
		t.Fatalf("expected config error, got %+v", result)
	}
	if result.Error == "" || result.RequestID == "" {
		t.Fatalf("expected error message and request id, got %+v", result)
	}
	if atomic.LoadInt32(&calls) != 0 {
		t.Fatalf("expected no network call")
	}
}

func TestForwardTransportError(t *testing.T) {
	// closed server: connection refused
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	f := &Forwarder{}
	result := f.Forward(context.Background(), "selection", url, map[string]any{"boatIds": []string{"1"}})
	if result.Ok || result.UpstreamStatus != http.StatusInternalServerError {
		t.Fatalf("expected generic failure, got %+v", result)
	}
	if result.Error == "" {
		t.Fatalf("expected underlying error message")
	}
}

func TestForwardRecordsExchange(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`ok`))
	}))
	defer srv.Close()

	spy := &recorderSpy{}
	f := &Forwarder{NewID: func() string { return "req-9" }, Recorder: spy}
	f.Forward(context.Background(), "selection", srv.URL, nil)
	if len(spy.exchanges) != 1 {
		t.Fatalf("expected 1 exchange, got %d", len(spy.exchanges))
	}
	x := spy.exchanges[0]
	if x.RequestID != "req-9" || x.Kind != "selection" || x.Target != srv.URL || !x.Ok {
		t.Fatalf("unexpected exchange %+v", x)
	}
}

func TestNewCorrelationIDUnique(t *testing.T) {
	a, b := NewCorrelationID(), NewCorrelationID()
	if a == "" || a == b {
		t.Fatalf("expected distinct non-empty ids, got %q and %q", a, b)
	}
}
