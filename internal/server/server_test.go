package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"charterdesk/internal/archive"
	"charterdesk/internal/config"
	"charterdesk/internal/domain"
	"charterdesk/internal/engine"
)

type upstream struct {
	Catalog  *httptest.Server
	Proposal *httptest.Server

	mu        sync.Mutex
	proposals []map[string]any
}

func newUpstream(t *testing.T) *upstream {
	t.Helper()
	u := &upstream{}
	u.Catalog = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"items":[
			{"Id":1,"Boat Name":"Nautilus","Rating":4.5,"Currency":"EUR"},
			{"Id":2,"Boat Name":"Siren","Base":"Athens"}
		]}`)
	}))
	t.Cleanup(u.Catalog.Close)
	u.Proposal = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var payload map[string]any
		json.Unmarshal(body, &payload)
		u.mu.Lock()
		u.proposals = append(u.proposals, payload)
		u.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `{"received":true}`)
	}))
	t.Cleanup(u.Proposal.Close)
	return u
}

func (u *upstream) lastProposal(t *testing.T) map[string]any {
	t.Helper()
	u.mu.Lock()
	defer u.mu.Unlock()
	if len(u.proposals) == 0 {
		t.Fatalf("no proposal reached upstream")
	}
	return u.proposals[len(u.proposals)-1]
}

type testServer struct {
	URL    string
	client *http.Client
	close  func()
}

func (s *testServer) Client() *http.Client { return s.client }
func (s *testServer) Close()               { s.close() }

func newTestServer(t *testing.T, cfg *config.Config) *testServer {
	t.Helper()
	workspace := t.TempDir()
	if _, err := archive.EnsureWorkspace(workspace); err != nil {
		t.Fatalf("ensure workspace: %v", err)
	}
	conn, err := archive.Open(archive.Config{Workspace: workspace})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := archive.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	e := engine.New(cfg, conn)
	handler, err := New(Config{Engine: e, BasePath: "/v1"})
	if err != nil {
		t.Fatalf("build handler: %v", err)
	}
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv := &http.Server{Handler: handler}
	go srv.Serve(ln)
	testSrv := &testServer{
		URL:    "http://" + ln.Addr().String(),
		client: &http.Client{},
		close: func() {
			srv.Shutdown(context.Background())
			ln.Close()
			conn.Close()
		},
	}
	t.Cleanup(testSrv.Close)
	return testSrv
}

func doJSON(t *testing.T, client *http.Client, method, url string, body any) (*http.Response, []byte) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	res, err := client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return res, data
}

func openSession(t *testing.T, srv *testServer) engine.SessionView {
	t.Helper()
	res, data := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/v1/sessions", nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("open session status %d: %s", res.StatusCode, string(data))
	}
	var view engine.SessionView
	if err := json.Unmarshal(data, &view); err != nil {
		t.Fatalf("unmarshal session: %v", err)
	}
	return view
}

func TestSessionSubmitFlow(t *testing.T) {
	up := newUpstream(t)
	cfg := config.Default()
	cfg.Webhooks.Catalog = up.Catalog.URL
	cfg.Webhooks.Proposal = up.Proposal.URL
	srv := newTestServer(t, cfg)
	client := srv.Client()

	view := openSession(t, srv)
	if len(view.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(view.Items))
	}
	key := view.Items[0].Key

	res, data := doJSON(t, client, http.MethodPost, srv.URL+"/v1/sessions/"+view.ID+"/items/"+key+"/toggle", nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("toggle status %d: %s", res.StatusCode, string(data))
	}

	price := "1.500,00"
	res, data = doJSON(t, client, http.MethodPut, srv.URL+"/v1/sessions/"+view.ID+"/items/"+key, ItemEntryRequest{Price: &price})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("set price status %d: %s", res.StatusCode, string(data))
	}

	res, data = doJSON(t, client, http.MethodPut, srv.URL+"/v1/sessions/"+view.ID+"/client", ClientRequest{Name: "Ana", Email: "ana@example.com"})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("set client status %d: %s", res.StatusCode, string(data))
	}

	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/v1/sessions/"+view.ID+"/submit", nil)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("expected upstream status 201, got %d: %s", res.StatusCode, string(data))
	}
	var result domain.RelayResult
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("unmarshal relay result: %v", err)
	}
	if !result.Ok {
		t.Fatalf("expected ok result, got %+v", result)
	}
	if result.RequestID == "" {
		t.Fatalf("expected a request id")
	}

	payload := up.lastProposal(t)
	boats, _ := payload["boats"].([]any)
	if len(boats) != 1 {
		t.Fatalf("expected 1 boat in payload, got %v", payload["boats"])
	}
	boat := boats[0].(map[string]any)
	if boat["id"] != "1" || boat["price"] != 1500.0 {
		t.Fatalf("unexpected boat payload: %v", boat)
	}
}

func TestSubmitValidationEnvelope(t *testing.T) {
	up := newUpstream(t)
	cfg := config.Default()
	cfg.Webhooks.Catalog = up.Catalog.URL
	cfg.Webhooks.Proposal = up.Proposal.URL
	srv := newTestServer(t, cfg)

	view := openSession(t, srv)
	res, data := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/v1/sessions/"+view.ID+"/submit", nil)
	if res.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", res.StatusCode, string(data))
	}
	var envelope struct {
		Ok    bool   `json:"ok"`
		Error string `json:"error"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		t.Fatalf("unmarshal envelope: %v", err)
	}
	if envelope.Ok || envelope.Error != "no boats selected" {
		t.Fatalf("unexpected envelope: %+v", envelope)
	}
	up.mu.Lock()
	forwarded := len(up.proposals)
	up.mu.Unlock()
	if forwarded != 0 {
		t.Fatalf("validation failure must not reach upstream")
	}
}

func TestUnknownSessionIs404(t *testing.T) {
	cfg := config.Default()
	srv := newTestServer(t, cfg)
	res, data := doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/v1/sessions/nope", nil)
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", res.StatusCode, string(data))
	}
}

func TestRelayPassThroughKeepsUpstreamStatus(t *testing.T) {
	notFound := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, "not found")
	}))
	defer notFound.Close()

	cfg := config.Default()
	cfg.Webhooks.Proposal = notFound.URL
	srv := newTestServer(t, cfg)

	res, data := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/v1/proposals", map[string]any{"language": "en"})
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("expected upstream 404 to pass through, got %d: %s", res.StatusCode, string(data))
	}
	var result domain.RelayResult
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("unmarshal relay result: %v", err)
	}
	if result.Ok || result.UpstreamStatus != http.StatusNotFound {
		t.Fatalf("unexpected result: %+v", result)
	}
	if result.Data != "not found" {
		t.Fatalf("expected raw upstream body, got %v", result.Data)
	}
}

func TestSelectionMissingWebhook(t *testing.T) {
	cfg := config.Default()
	srv := newTestServer(t, cfg)

	res, data := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/v1/selection", SelectionRequest{BoatIDs: []any{"1", 2.0}})
	if res.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d: %s", res.StatusCode, string(data))
	}
	var result domain.RelayResult
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("unmarshal relay result: %v", err)
	}
	if result.Error != "missing selection webhook url" {
		t.Fatalf("unexpected error: %q", result.Error)
	}
}

func TestLanguageValidatedAtBoundary(t *testing.T) {
	up := newUpstream(t)
	cfg := config.Default()
	cfg.Webhooks.Catalog = up.Catalog.URL
	srv := newTestServer(t, cfg)

	view := openSession(t, srv)
	res, data := doJSON(t, srv.Client(), http.MethodPut, srv.URL+"/v1/sessions/"+view.ID+"/language", LanguageRequest{Language: "xx"})
	if res.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for unknown language, got %d: %s", res.StatusCode, string(data))
	}

	res, data = doJSON(t, srv.Client(), http.MethodPut, srv.URL+"/v1/sessions/"+view.ID+"/language", LanguageRequest{Language: "fr"})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("set language status %d: %s", res.StatusCode, string(data))
	}
	var updated engine.SessionView
	if err := json.Unmarshal(data, &updated); err != nil {
		t.Fatalf("unmarshal session: %v", err)
	}
	if updated.Draft.Language != "fr" {
		t.Fatalf("expected language fr, got %s", updated.Draft.Language)
	}
}
