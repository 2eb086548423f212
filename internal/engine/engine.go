// Package engine orchestrates the proposal pipeline: it opens editing
// sessions over a catalog snapshot, applies draft transitions, and drives
// validate -> assemble -> relay -> archive on submission.
package engine

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"charterdesk/internal/archive"
	"charterdesk/internal/catalog"
	"charterdesk/internal/config"
	"charterdesk/internal/domain"
	"charterdesk/internal/draft"
	"charterdesk/internal/proposal"
	"charterdesk/internal/relay"
)

var ErrSessionNotFound = errors.New("session not found")

// ValidationError is a recoverable pre-submission failure; no upstream call
// happens when it is returned.
type ValidationError struct {
	Message string
}

func (e ValidationError) Error() string { return e.Message }

type Engine struct {
	Config  *config.Config
	Catalog *catalog.Client
	Forward *relay.Forwarder
	Archive *archive.Store
	Now     func() time.Time
	NewID   func() string

	mu       sync.Mutex
	sessions map[string]*session
}

// session owns one draft. The draft value is replaced wholesale on each
// transition; the mutex only guards that replacement against concurrent
// HTTP handlers.
type session struct {
	id          string
	items       []domain.CatalogItem
	itineraries []domain.Itinerary
	createdAt   string

	mu    sync.Mutex
	draft draft.Draft
}

// New wires an engine from config. db may be nil to run without an archive
// (exchanges and proposals are then not recorded).
func New(cfg *config.Config, db *sql.DB) *Engine {
	e := &Engine{
		Config: cfg,
		Catalog: &catalog.Client{
			CatalogURL:     cfg.Webhooks.Catalog,
			ItinerariesURL: cfg.Webhooks.Itineraries,
		},
		Forward:  &relay.Forwarder{},
		Now:      time.Now,
		NewID:    relay.NewCorrelationID,
		sessions: map[string]*session{},
	}
	if db != nil {
		store := archive.Store{DB: db}
		e.Archive = &store
		e.Forward.Recorder = store
	}
	return e
}

func (e *Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e *Engine) newID() string {
	if e.NewID != nil {
		return e.NewID()
	}
	return relay.NewCorrelationID()
}

// OpenSession fetches a fresh catalog snapshot and itinerary list and
// creates a draft over them. The snapshot is immutable for the session's
// lifetime; opening another session re-fetches independently.
func (e *Engine) OpenSession(ctx context.Context) (SessionView, error) {
	items, err := e.Catalog.FetchCatalog(ctx)
	if err != nil {
		return SessionView{}, err
	}
	itineraries, err := e.Catalog.FetchItineraries(ctx)
	if err != nil {
		return SessionView{}, err
	}
	s := &session{
		id:          e.newID(),
		items:       items,
		itineraries: itineraries,
		createdAt:   e.now().UTC().Format(time.RFC3339),
		draft:       draft.New(items, draft.DefaultNotes(e.Config.FinalNotes)),
	}
	e.mu.Lock()
	e.sessions[s.id] = s
	e.mu.Unlock()
	return e.view(s), nil
}

func (e *Engine) session(id string) (*session, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return s, nil
}

// Apply runs one draft transition, atomically replacing the session's whole
// state with the transition's result.
func (e *Engine) Apply(sessionID string, transition func(draft.Draft) draft.Draft) (SessionView, error) {
	s, err := e.session(sessionID)
	if err != nil {
		return SessionView{}, err
	}
	s.mu.Lock()
	s.draft = transition(s.draft)
	s.mu.Unlock()
	return e.view(s), nil
}

// View returns the current session state.
func (e *Engine) View(sessionID string) (SessionView, error) {
	s, err := e.session(sessionID)
	if err != nil {
		return SessionView{}, err
	}
	return e.view(s), nil
}

// Submit validates the draft, assembles a fresh payload and relays it to
// the proposal webhook. A validation failure returns ValidationError and no
// upstream call is made. The relay outcome is returned verbatim and, when
// an archive is attached, recorded together with the payload.
func (e *Engine) Submit(ctx context.Context, sessionID string) (domain.RelayResult, error) {
	s, err := e.session(sessionID)
	if err != nil {
		return domain.RelayResult{}, err
	}
	s.mu.Lock()
	d := s.draft
	s.mu.Unlock()

	if err := proposal.Validate(d); err != nil {
		return domain.RelayResult{}, ValidationError{Message: err.Error()}
	}

	payload := proposal.Assemble(d, e.Config.Source, e.newID, e.now())
	result := e.Forward.Forward(ctx, "proposal", e.Config.Webhooks.Proposal, payload)

	if e.Archive != nil {
		raw, _ := json.Marshal(payload)
		rec := domain.ProposalRecord{
			ProposalID:     payload.Meta.ProposalID,
			SessionID:      sessionID,
			Language:       payload.Language,
			Currency:       d.Currency(),
			ClientName:     d.ClientName(),
			ClientEmail:    d.ClientEmail(),
			BoatCount:      len(payload.Boats),
			PayloadJSON:    string(raw),
			RequestID:      result.RequestID,
			UpstreamStatus: result.UpstreamStatus,
			Ok:             result.Ok,
		}
		if err := e.Archive.RecordProposal(ctx, rec); err != nil {
			// The proposal already went out; losing the audit row must not
			// fail the submission.
			log.Printf("archive proposal %s: %v", payload.Meta.ProposalID, err)
		}
	}
	return result, nil
}

// NotifySelection posts the session's selected boat ids to the selection
// webhook, independent of a full proposal submission.
func (e *Engine) NotifySelection(ctx context.Context, sessionID string) (domain.RelayResult, error) {
	s, err := e.session(sessionID)
	if err != nil {
		return domain.RelayResult{}, err
	}
	s.mu.Lock()
	ids := s.draft.SelectedIDs()
	s.mu.Unlock()
	return e.ForwardSelection(ctx, ids), nil
}

// ForwardProposal relays an already-built payload to the proposal webhook.
func (e *Engine) ForwardProposal(ctx context.Context, body any) domain.RelayResult {
	return e.Forward.Forward(ctx, "proposal", e.Config.Webhooks.Proposal, body)
}

// ForwardSelection relays a set of boat ids to the selection webhook.
func (e *Engine) ForwardSelection(ctx context.Context, boatIDs []string) domain.RelayResult {
	if boatIDs == nil {
		boatIDs = []string{}
	}
	return e.Forward.Forward(ctx, "selection", e.Config.Webhooks.Selection, map[string]any{"boatIds": boatIDs})
}
