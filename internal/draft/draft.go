// Package draft holds the in-progress proposal state for one editing
// session. A Draft is an immutable value: every transition is a total
// function returning the next state, so the owner replaces its whole state
// atomically on each action and never needs locking inside the store.
package draft

import (
	"fmt"
	"strings"

	"charterdesk/internal/domain"
)

// DefaultLanguage and DefaultCurrency seed a fresh draft.
const (
	DefaultLanguage = "en"
	DefaultCurrency = "EUR"
)

// Draft is the selection/draft state over an immutable catalog snapshot.
type Draft struct {
	items []domain.CatalogItem
	keys  []string

	selected    map[string]bool
	prices      map[string]string
	notes       map[string]string
	itineraries []string

	language      string
	currency      string
	brokerMessage string

	finalNotesEnabled bool
	finalNotes        map[string]string
	finalNotesTouched map[string]bool
	defaults          map[string]string

	clientName  string
	clientEmail string
}

// New creates a draft over a catalog snapshot. Items without an upstream id
// get a positional fallback key unique within the snapshot. defaults is the
// per-language final-notes table; nil means the built-in table.
func New(items []domain.CatalogItem, defaults map[string]string) Draft {
	if defaults == nil {
		defaults = DefaultNotes(nil)
	}
	keys := make([]string, len(items))
	for i, item := range items {
		keys[i] = KeyFor(item, i)
	}
	return Draft{
		items:             items,
		keys:              keys,
		selected:          map[string]bool{},
		prices:            map[string]string{},
		notes:             map[string]string{},
		language:          DefaultLanguage,
		currency:          DefaultCurrency,
		finalNotesEnabled: true,
		finalNotes:        cloneMap(defaults),
		finalNotesTouched: map[string]bool{},
		defaults:          defaults,
	}
}

// KeyFor returns the selection key for an item at a catalog position.
func KeyFor(item domain.CatalogItem, idx int) string {
	if item.ID != "" {
		return item.ID
	}
	return fmt.Sprintf("idx-%d", idx)
}

// --- transitions ---

// ToggleSelection adds or removes a key from the selection. Entered price
// and note for the key stay behind, so re-selecting restores them.
func (d Draft) ToggleSelection(key string) Draft {
	sel := cloneSet(d.selected)
	if sel[key] {
		delete(sel, key)
	} else {
		sel[key] = true
	}
	d.selected = sel
	return d
}

// SelectAll selects every catalog key.
func (d Draft) SelectAll() Draft {
	sel := make(map[string]bool, len(d.keys))
	for _, key := range d.keys {
		sel[key] = true
	}
	d.selected = sel
	return d
}

// ClearAll resets the selection, entered prices/notes, itinerary choices and
// the final-notes subsystem. Client identity, language, currency and the
// broker message survive.
func (d Draft) ClearAll() Draft {
	d.selected = map[string]bool{}
	d.prices = map[string]string{}
	d.notes = map[string]string{}
	d.itineraries = nil
	d.finalNotesEnabled = true
	d.finalNotes = cloneMap(d.defaults)
	d.finalNotesTouched = map[string]bool{}
	return d
}

// SetPrice upserts the raw price string for a key. No validation happens at
// write time; interpretation is deferred to submission.
func (d Draft) SetPrice(key, raw string) Draft {
	prices := cloneMap(d.prices)
	prices[key] = raw
	d.prices = prices
	return d
}

// SetNote upserts the free-text note for a key.
func (d Draft) SetNote(key, text string) Draft {
	notes := cloneMap(d.notes)
	notes[key] = text
	d.notes = notes
	return d
}

// SetLanguage switches the active proposal language, seeding that language's
// final notes from the defaults table if it was never seeded. Other
// languages' draft text is untouched.
func (d Draft) SetLanguage(lang string) Draft {
	d.language = lang
	if _, ok := d.finalNotes[lang]; !ok {
		notes := cloneMap(d.finalNotes)
		notes[lang] = d.defaults[lang]
		d.finalNotes = notes
	}
	return d
}

// SetCurrency stores the currency code normalized to uppercase.
func (d Draft) SetCurrency(code string) Draft {
	d.currency = strings.ToUpper(code)
	return d
}

func (d Draft) SetBrokerMessage(text string) Draft {
	d.brokerMessage = text
	return d
}

func (d Draft) SetClient(name, email string) Draft {
	d.clientName = name
	d.clientEmail = email
	return d
}

func (d Draft) SetFinalNotesEnabled(enabled bool) Draft {
	d.finalNotesEnabled = enabled
	return d
}

// EditFinalNotes updates the active language's text and marks it
// user-touched.
func (d Draft) EditFinalNotes(text string) Draft {
	notes := cloneMap(d.finalNotes)
	notes[d.language] = text
	touched := cloneSet(d.finalNotesTouched)
	touched[d.language] = true
	d.finalNotes = notes
	d.finalNotesTouched = touched
	return d
}

// ResetFinalNotes restores the active language's text to its default and
// clears its touched flag.
func (d Draft) ResetFinalNotes() Draft {
	notes := cloneMap(d.finalNotes)
	notes[d.language] = d.defaults[d.language]
	touched := cloneSet(d.finalNotesTouched)
	delete(touched, d.language)
	d.finalNotes = notes
	d.finalNotesTouched = touched
	return d
}

// ToggleItinerary adds or removes an itinerary id, preserving toggle order.
func (d Draft) ToggleItinerary(id string) Draft {
	for i, existing := range d.itineraries {
		if existing == id {
			next := make([]string, 0, len(d.itineraries)-1)
			next = append(next, d.itineraries[:i]...)
			next = append(next, d.itineraries[i+1:]...)
			d.itineraries = next
			return d
		}
	}
	next := make([]string, len(d.itineraries), len(d.itineraries)+1)
	copy(next, d.itineraries)
	d.itineraries = append(next, id)
	return d
}

// --- accessors ---

func (d Draft) Items() []domain.CatalogItem { return d.items }
func (d Draft) Keys() []string              { return d.keys }
func (d Draft) Language() string            { return d.language }
func (d Draft) Currency() string            { return d.currency }
func (d Draft) BrokerMessage() string       { return d.brokerMessage }
func (d Draft) ClientName() string          { return d.clientName }
func (d Draft) ClientEmail() string         { return d.clientEmail }
func (d Draft) FinalNotesEnabled() bool     { return d.finalNotesEnabled }

func (d Draft) Selected(key string) bool { return d.selected[key] }

func (d Draft) SelectedCount() int { return len(d.selected) }

// SelectedKeys returns the selected keys in catalog order.
func (d Draft) SelectedKeys() []string {
	var out []string
	for _, key := range d.keys {
		if d.selected[key] {
			out = append(out, key)
		}
	}
	return out
}

// SelectedIDs returns the upstream ids of selected items in catalog order.
// Items carrying only a positional fallback key have no upstream identity
// and are excluded.
func (d Draft) SelectedIDs() []string {
	var out []string
	for i, item := range d.items {
		if item.ID != "" && d.selected[d.keys[i]] {
			out = append(out, item.ID)
		}
	}
	return out
}

func (d Draft) Price(key string) string { return d.prices[key] }
func (d Draft) Note(key string) string  { return d.notes[key] }

// FinalNotes returns the active language's boilerplate text, falling back to
// the defaults table when unseeded.
func (d Draft) FinalNotes() string {
	if text, ok := d.finalNotes[d.language]; ok {
		return text
	}
	return d.defaults[d.language]
}

// FinalNotesTouched reports whether the active language's text was
// user-edited since the last seed or reset.
func (d Draft) FinalNotesTouched() bool { return d.finalNotesTouched[d.language] }

func (d Draft) ItinerarySelected(id string) bool {
	for _, existing := range d.itineraries {
		if existing == id {
			return true
		}
	}
	return false
}

// SelectedItineraryIDs returns itinerary ids in toggle order.
func (d Draft) SelectedItineraryIDs() []string {
	out := make([]string, len(d.itineraries))
	copy(out, d.itineraries)
	return out
}

func cloneMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneSet(m map[string]bool) map[string]bool {
	out := make(map[string]bool, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
