// Package server exposes the proposal desk over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	humachi "github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"

	"charterdesk/internal/domain"
	"charterdesk/internal/engine"
)

// Config for the HTTP API handler.
type Config struct {
	Engine   *engine.Engine
	BasePath string
}

// apiError models the uniform session-boundary envelope.
type apiError struct {
	status    int
	Ok        bool   `json:"ok"`
	Message   string `json:"error" example:"missing price for boat id=1"`
	RequestID string `json:"requestId,omitempty"`
}

func (e *apiError) GetStatus() int { return e.status }
func (e *apiError) Error() string  { return e.Message }

func newAPIError(status int, message string) huma.StatusError {
	return &apiError{status: status, Ok: false, Message: message}
}

// New returns an HTTP handler exposing the Charterdesk API.
func New(cfg Config) (http.Handler, error) {
	if cfg.Engine == nil {
		return nil, fmt.Errorf("engine is required")
	}
	basePath := cfg.BasePath
	if basePath == "" {
		basePath = "/v1"
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	huma.DefaultArrayNullable = false
	// All errors leave the API in the {ok:false, error} envelope.
	huma.NewError = func(status int, msg string, errs ...error) huma.StatusError {
		return newAPIError(status, msg)
	}
	huma.NewErrorWithContext = func(_ huma.Context, status int, msg string, errs ...error) huma.StatusError {
		return newAPIError(status, msg)
	}

	router := chi.NewRouter()
	hcfg := huma.DefaultConfig("Charterdesk API", "0.1.0")
	api := humachi.New(router, hcfg)
	group := huma.NewGroup(api, basePath)

	registerHealth(group)
	registerSessions(group, cfg.Engine)
	registerRelay(group, cfg.Engine)

	return router, nil
}

func handleError(err error) huma.StatusError {
	if err == nil {
		return nil
	}
	var verr engine.ValidationError
	if errors.As(err, &verr) {
		return newAPIError(http.StatusUnprocessableEntity, verr.Message)
	}
	if errors.Is(err, engine.ErrSessionNotFound) {
		return newAPIError(http.StatusNotFound, err.Error())
	}
	return newAPIError(http.StatusInternalServerError, err.Error())
}

func registerHealth(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body map[string]string `json:"body"`
	}, error) {
		return &struct {
			Body map[string]string `json:"body"`
		}{Body: map[string]string{"status": "ok"}}, nil
	})
}

type SessionPath struct {
	SessionID string `path:"session_id"`
}

type SessionItemPath struct {
	SessionID string `path:"session_id"`
	Key       string `path:"key"`
}

type SessionItineraryPath struct {
	SessionID   string `path:"session_id"`
	ItineraryID string `path:"itinerary_id"`
}

type sessionOutput struct {
	Body engine.SessionView
}

// relayOutput mirrors the upstream status onto the API response, per the
// pass-through contract.
type relayOutput struct {
	Status int
	Body   domain.RelayResult
}

func relayResponse(result domain.RelayResult) *relayOutput {
	status := result.UpstreamStatus
	if status == 0 {
		status = http.StatusInternalServerError
	}
	return &relayOutput{Status: status, Body: result}
}

func registerSessions(api huma.API, e *engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "open-session",
		Method:      http.MethodPost,
		Path:        "/sessions",
		Summary:     "Open an editing session over a fresh catalog snapshot",
	}, func(ctx context.Context, _ *struct{}) (*sessionOutput, error) {
		view, err := e.OpenSession(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		return &sessionOutput{Body: view}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-session",
		Method:      http.MethodGet,
		Path:        "/sessions/{session_id}",
		Summary:     "Current session state",
	}, func(ctx context.Context, input *SessionPath) (*sessionOutput, error) {
		view, err := e.View(input.SessionID)
		if err != nil {
			return nil, handleError(err)
		}
		return &sessionOutput{Body: view}, nil
	})

	registerDraftActions(api, e)
	registerSubmission(api, e)
}

func registerDraftActions(api huma.API, e *engine.Engine) {
	apply := func(sessionID string, transition func(d draftState) draftState) (*sessionOutput, error) {
		view, err := e.Apply(sessionID, transition)
		if err != nil {
			return nil, handleError(err)
		}
		return &sessionOutput{Body: view}, nil
	}

	huma.Register(api, huma.Operation{
		OperationID: "select-all",
		Method:      http.MethodPost,
		Path:        "/sessions/{session_id}/select-all",
		Summary:     "Select every catalog item",
	}, func(ctx context.Context, input *SessionPath) (*sessionOutput, error) {
		return apply(input.SessionID, func(d draftState) draftState { return d.SelectAll() })
	})

	huma.Register(api, huma.Operation{
		OperationID: "clear-all",
		Method:      http.MethodPost,
		Path:        "/sessions/{session_id}/clear",
		Summary:     "Reset selection, prices, notes and itineraries",
	}, func(ctx context.Context, input *SessionPath) (*sessionOutput, error) {
		return apply(input.SessionID, func(d draftState) draftState { return d.ClearAll() })
	})

	huma.Register(api, huma.Operation{
		OperationID: "toggle-item",
		Method:      http.MethodPost,
		Path:        "/sessions/{session_id}/items/{key}/toggle",
		Summary:     "Toggle an item's selection",
	}, func(ctx context.Context, input *SessionItemPath) (*sessionOutput, error) {
		return apply(input.SessionID, func(d draftState) draftState { return d.ToggleSelection(input.Key) })
	})

	huma.Register(api, huma.Operation{
		OperationID: "set-item-entry",
		Method:      http.MethodPut,
		Path:        "/sessions/{session_id}/items/{key}",
		Summary:     "Set an item's price and/or note",
	}, func(ctx context.Context, input *struct {
		SessionItemPath
		Body ItemEntryRequest
	}) (*sessionOutput, error) {
		return apply(input.SessionID, func(d draftState) draftState {
			if input.Body.Price != nil {
				d = d.SetPrice(input.Key, *input.Body.Price)
			}
			if input.Body.Note != nil {
				d = d.SetNote(input.Key, *input.Body.Note)
			}
			return d
		})
	})

	huma.Register(api, huma.Operation{
		OperationID: "set-language",
		Method:      http.MethodPut,
		Path:        "/sessions/{session_id}/language",
		Summary:     "Switch the proposal language",
	}, func(ctx context.Context, input *struct {
		SessionPath
		Body LanguageRequest
	}) (*sessionOutput, error) {
		return apply(input.SessionID, func(d draftState) draftState { return d.SetLanguage(input.Body.Language) })
	})

	huma.Register(api, huma.Operation{
		OperationID: "set-currency",
		Method:      http.MethodPut,
		Path:        "/sessions/{session_id}/currency",
		Summary:     "Set the proposal currency",
	}, func(ctx context.Context, input *struct {
		SessionPath
		Body CurrencyRequest
	}) (*sessionOutput, error) {
		return apply(input.SessionID, func(d draftState) draftState { return d.SetCurrency(input.Body.Currency) })
	})

	huma.Register(api, huma.Operation{
		OperationID: "set-message",
		Method:      http.MethodPut,
		Path:        "/sessions/{session_id}/message",
		Summary:     "Set the broker's intro message",
	}, func(ctx context.Context, input *struct {
		SessionPath
		Body MessageRequest
	}) (*sessionOutput, error) {
		return apply(input.SessionID, func(d draftState) draftState { return d.SetBrokerMessage(input.Body.Message) })
	})

	huma.Register(api, huma.Operation{
		OperationID: "set-client",
		Method:      http.MethodPut,
		Path:        "/sessions/{session_id}/client",
		Summary:     "Set the client identity",
	}, func(ctx context.Context, input *struct {
		SessionPath
		Body ClientRequest
	}) (*sessionOutput, error) {
		return apply(input.SessionID, func(d draftState) draftState { return d.SetClient(input.Body.Name, input.Body.Email) })
	})

	huma.Register(api, huma.Operation{
		OperationID: "edit-final-notes",
		Method:      http.MethodPut,
		Path:        "/sessions/{session_id}/final-notes",
		Summary:     "Toggle or edit the final-notes boilerplate",
	}, func(ctx context.Context, input *struct {
		SessionPath
		Body FinalNotesRequest
	}) (*sessionOutput, error) {
		return apply(input.SessionID, func(d draftState) draftState {
			if input.Body.Enabled != nil {
				d = d.SetFinalNotesEnabled(*input.Body.Enabled)
			}
			if input.Body.Text != nil {
				d = d.EditFinalNotes(*input.Body.Text)
			}
			return d
		})
	})

	huma.Register(api, huma.Operation{
		OperationID: "reset-final-notes",
		Method:      http.MethodPost,
		Path:        "/sessions/{session_id}/final-notes/reset",
		Summary:     "Restore the active language's final notes to its default",
	}, func(ctx context.Context, input *SessionPath) (*sessionOutput, error) {
		return apply(input.SessionID, func(d draftState) draftState { return d.ResetFinalNotes() })
	})

	huma.Register(api, huma.Operation{
		OperationID: "toggle-itinerary",
		Method:      http.MethodPost,
		Path:        "/sessions/{session_id}/itineraries/{itinerary_id}/toggle",
		Summary:     "Toggle an itinerary",
	}, func(ctx context.Context, input *SessionItineraryPath) (*sessionOutput, error) {
		return apply(input.SessionID, func(d draftState) draftState { return d.ToggleItinerary(input.ItineraryID) })
	})
}

func registerSubmission(api huma.API, e *engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "submit-proposal",
		Method:      http.MethodPost,
		Path:        "/sessions/{session_id}/submit",
		Summary:     "Validate, assemble and relay the proposal",
	}, func(ctx context.Context, input *SessionPath) (*relayOutput, error) {
		result, err := e.Submit(ctx, input.SessionID)
		if err != nil {
			return nil, handleError(err)
		}
		return relayResponse(result), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "notify-selection",
		Method:      http.MethodPost,
		Path:        "/sessions/{session_id}/selection",
		Summary:     "Notify the backend of the session's selected boat ids",
	}, func(ctx context.Context, input *SessionPath) (*relayOutput, error) {
		result, err := e.NotifySelection(ctx, input.SessionID)
		if err != nil {
			return nil, handleError(err)
		}
		return relayResponse(result), nil
	})
}

// registerRelay exposes the raw pass-through routes used by external
// callers that build their own payloads.
func registerRelay(api huma.API, e *engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "relay-proposal",
		Method:      http.MethodPost,
		Path:        "/proposals",
		Summary:     "Relay a prebuilt proposal payload to the proposal webhook",
	}, func(ctx context.Context, input *struct {
		Body any
	}) (*relayOutput, error) {
		return relayResponse(e.ForwardProposal(ctx, input.Body)), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "relay-selection",
		Method:      http.MethodPost,
		Path:        "/selection",
		Summary:     "Relay selected boat ids to the selection webhook",
	}, func(ctx context.Context, input *struct {
		Body SelectionRequest
	}) (*relayOutput, error) {
		return relayResponse(e.ForwardSelection(ctx, stringIDs(input.Body.BoatIDs))), nil
	})
}
