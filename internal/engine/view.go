package engine

import "charterdesk/internal/domain"

// SessionView is the read model returned to the API and CLI surfaces.
type SessionView struct {
	ID          string          `json:"id"`
	CreatedAt   string          `json:"created_at" format:"date-time"`
	Items       []ItemView      `json:"items"`
	Itineraries []ItineraryView `json:"itineraries"`
	Draft       DraftView       `json:"draft"`
}

// ItemView pairs a catalog item with its selection key and entered state.
type ItemView struct {
	Key      string `json:"key"`
	Selected bool   `json:"selected"`
	Price    string `json:"price,omitempty"`
	Note     string `json:"note,omitempty"`
	domain.CatalogItem
}

type ItineraryView struct {
	domain.Itinerary
	Selected bool `json:"selected"`
}

type DraftView struct {
	Language          string `json:"language"`
	Currency          string `json:"currency"`
	BrokerMessage     string `json:"broker_message,omitempty"`
	ClientName        string `json:"client_name,omitempty"`
	ClientEmail       string `json:"client_email,omitempty"`
	FinalNotesEnabled bool   `json:"final_notes_enabled"`
	FinalNotes        string `json:"final_notes"`
	FinalNotesTouched bool   `json:"final_notes_touched"`
	SelectedCount     int    `json:"selected_count"`
}

func (e *Engine) view(s *session) SessionView {
	s.mu.Lock()
	d := s.draft
	s.mu.Unlock()

	items := make([]ItemView, len(s.items))
	for i, item := range s.items {
		key := d.Keys()[i]
		items[i] = ItemView{
			Key:         key,
			Selected:    d.Selected(key),
			Price:       d.Price(key),
			Note:        d.Note(key),
			CatalogItem: item,
		}
	}
	itineraries := make([]ItineraryView, len(s.itineraries))
	for i, it := range s.itineraries {
		itineraries[i] = ItineraryView{Itinerary: it, Selected: d.ItinerarySelected(it.ID)}
	}
	return SessionView{
		ID:          s.id,
		CreatedAt:   s.createdAt,
		Items:       items,
		Itineraries: itineraries,
		Draft: DraftView{
			Language:          d.Language(),
			Currency:          d.Currency(),
			BrokerMessage:     d.BrokerMessage(),
			ClientName:        d.ClientName(),
			ClientEmail:       d.ClientEmail(),
			FinalNotesEnabled: d.FinalNotesEnabled(),
			FinalNotes:        d.FinalNotes(),
			FinalNotesTouched: d.FinalNotesTouched(),
			SelectedCount:     d.SelectedCount(),
		},
	}
}
