package server

import (
	"fmt"
	"strconv"
	"strings"

	"charterdesk/internal/draft"
)

// draftState aliases the draft value type so transition closures stay short.
type draftState = draft.Draft

// ItemEntryRequest carries a price and/or note edit. Omitted fields are
// left untouched.
type ItemEntryRequest struct {
	Price *string `json:"price,omitempty" example:"1.500,00"`
	Note  *string `json:"note,omitempty"`
}

type LanguageRequest struct {
	Language string `json:"language" enum:"en,es,pt,it,fr,de"`
}

type CurrencyRequest struct {
	Currency string `json:"currency" minLength:"1" example:"EUR"`
}

type MessageRequest struct {
	Message string `json:"message"`
}

type ClientRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type FinalNotesRequest struct {
	Enabled *bool   `json:"enabled,omitempty"`
	Text    *string `json:"text,omitempty"`
}

// SelectionRequest accepts boat ids as strings or numbers, matching what
// upstream callers actually send.
type SelectionRequest struct {
	BoatIDs []any `json:"boatIds"`
}

func stringIDs(raw []any) []string {
	ids := make([]string, 0, len(raw))
	for _, v := range raw {
		switch t := v.(type) {
		case string:
			ids = append(ids, t)
		case float64:
			if t == float64(int64(t)) {
				ids = append(ids, strconv.FormatInt(int64(t), 10))
			} else {
				ids = append(ids, strconv.FormatFloat(t, 'f', -1, 64))
			}
		default:
			s := strings.TrimSpace(fmt.Sprintf("%v", v))
			if s != "" {
				ids = append(ids, s)
			}
		}
	}
	return ids
}
