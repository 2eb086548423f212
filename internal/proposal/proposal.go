// Package proposal validates a draft and assembles the submission payload.
package proposal

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"charterdesk/internal/domain"
	"charterdesk/internal/draft"
	"charterdesk/internal/money"
)

// Loose on purpose: the upstream automation does its own address handling,
// this only catches obvious typos before a proposal goes out.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidEmail reports whether the client email is acceptable. The field is
// optional, so an empty value is always valid.
func ValidEmail(email string) bool {
	trimmed := strings.TrimSpace(email)
	if trimmed == "" {
		return true
	}
	return emailPattern.MatchString(trimmed)
}

// Validate applies the pre-submission checks in order, returning the first
// failure: at least one boat selected, a well-shaped optional client email,
// and a present, parseable, positive price for every selected boat in
// selection order.
func Validate(d draft.Draft) error {
	ids := d.SelectedIDs()
	if len(ids) == 0 {
		return errors.New("no boats selected")
	}
	if !ValidEmail(d.ClientEmail()) {
		return errors.New("client email is not valid")
	}
	for _, id := range ids {
		raw := strings.TrimSpace(d.Price(id))
		if raw == "" {
			return fmt.Errorf("missing price for boat id=%s", id)
		}
		if !money.Valid(money.Parse(raw)) {
			return fmt.Errorf("invalid price for boat id=%s", id)
		}
	}
	return nil
}

// Assemble builds a fresh ProposalPayload from a validated draft. The draft
// is not mutated; proposal id and timestamp are generated per attempt and
// never reused.
func Assemble(d draft.Draft, source string, newID func() string, now time.Time) domain.ProposalPayload {
	ids := d.SelectedIDs()
	boats := make([]domain.ProposalBoat, 0, len(ids))
	for _, id := range ids {
		boats = append(boats, domain.ProposalBoat{
			ID:        id,
			Price:     money.Parse(d.Price(id)),
			Currency:  d.Currency(),
			PriceNote: trimmedOrNil(d.Note(id)),
		})
	}

	var finalNotes *string
	if d.FinalNotesEnabled() {
		finalNotes = trimmedOrNil(d.FinalNotes())
	}

	itineraryIDs := d.SelectedItineraryIDs()
	itineraries := make([]domain.ItineraryRef, 0, len(itineraryIDs))
	for _, id := range itineraryIDs {
		itineraries = append(itineraries, domain.ItineraryRef{ID: id})
	}

	return domain.ProposalPayload{
		Language: d.Language(),
		Boats:    boats,
		Client: domain.ProposalClient{
			Name:  trimmedOrNil(d.ClientName()),
			Email: trimmedOrNil(d.ClientEmail()),
		},
		CTA: domain.ProposalCTA{
			MessageFromBroker: d.BrokerMessage(),
			ClientNoteEnabled: true,
			FinalNotes:        finalNotes,
		},
		Itineraries: itineraries,
		Meta: domain.ProposalMeta{
			Source:     source,
			ProposalID: newID(),
			Timestamp:  now.UTC().Format(time.RFC3339),
		},
	}
}

func trimmedOrNil(s string) *string {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
