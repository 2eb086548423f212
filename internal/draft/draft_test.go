package draft

import (
	"testing"

	"charterdesk/internal/domain"
)

func str(s string) *string { return &s }

func testItems() []domain.CatalogItem {
	return []domain.CatalogItem{
		{ID: "1", Name: str("Orion")},
		{ID: "2", Name: str("Vega")},
		{Name: str("Nameless")},
	}
}

func TestKeysWithPositionalFallback(t *testing.T) {
	d := New(testItems(), nil)
	keys := d.Keys()
	if len(keys) != 3 {
		t.Fatalf("expected 3 keys, got %d", len(keys))
	}
	if keys[0] != "1" || keys[1] != "2" || keys[2] != "idx-2" {
		t.Fatalf("unexpected keys %v", keys)
	}
}

func TestToggleSelection(t *testing.T) {
	d := New(testItems(), nil)
	d = d.ToggleSelection("1")
	if !d.Selected("1") || d.SelectedCount() != 1 {
		t.Fatalf("expected key 1 selected")
	}
	d = d.ToggleSelection("1")
	if d.Selected("1") || d.SelectedCount() != 0 {
		t.Fatalf("expected key 1 deselected")
	}
}

func TestDeselectPreservesPriceAndNote(t *testing.T) {
	d := New(testItems(), nil)
	d = d.ToggleSelection("1").SetPrice("1", "1.500,00").SetNote("1", "fuel included")
	d = d.ToggleSelection("1")
	if d.Selected("1") {
		t.Fatalf("expected deselected")
	}
	d = d.ToggleSelection("1")
	if d.Price("1") != "1.500,00" || d.Note("1") != "fuel included" {
		t.Fatalf("expected price and note restored, got %q / %q", d.Price("1"), d.Note("1"))
	}
}

func TestTransitionsDoNotMutatePriorState(t *testing.T) {
	base := New(testItems(), nil)
	selected := base.ToggleSelection("1")
	priced := selected.SetPrice("1", "900")
	if base.Selected("1") {
		t.Fatalf("base state mutated by ToggleSelection")
	}
	if selected.Price("1") != "" {
		t.Fatalf("intermediate state mutated by SetPrice")
	}
	if priced.Price("1") != "900" {
		t.Fatalf("expected price on the new state")
	}
}

func TestSelectAll(t *testing.T) {
	d := New(testItems(), nil).SelectAll()
	if d.SelectedCount() != 3 {
		t.Fatalf("expected all selected, got %d", d.SelectedCount())
	}
	got := d.SelectedKeys()
	if len(got) != 3 || got[2] != "idx-2" {
		t.Fatalf("unexpected selection order %v", got)
	}
}

func TestSelectedIDsExcludeFallbackKeys(t *testing.T) {
	d := New(testItems(), nil).SelectAll()
	ids := d.SelectedIDs()
	if len(ids) != 2 || ids[0] != "1" || ids[1] != "2" {
		t.Fatalf("expected only upstream ids, got %v", ids)
	}
}

func TestClearAllKeepsClient(t *testing.T) {
	d := New(testItems(), nil).
		SetClient("Ada", "ada@example.com").
		ToggleSelection("1").
		SetPrice("1", "900").
		SetNote("1", "skipper included").
		ToggleItinerary("it-1").
		EditFinalNotes("custom text")
	d = d.ClearAll()
	if d.SelectedCount() != 0 || d.Price("1") != "" || d.Note("1") != "" {
		t.Fatalf("expected selection and entries cleared")
	}
	if len(d.SelectedItineraryIDs()) != 0 {
		t.Fatalf("expected itineraries cleared")
	}
	if d.FinalNotes() == "custom text" || d.FinalNotesTouched() {
		t.Fatalf("expected final notes reseeded")
	}
	if d.ClientName() != "Ada" || d.ClientEmail() != "ada@example.com" {
		t.Fatalf("expected client identity preserved")
	}
}

func TestLanguageSwitchKeepsDrafts(t *testing.T) {
	d := New(testItems(), nil)
	d = d.EditFinalNotes("english edit")
	d = d.SetLanguage("es")
	if d.Language() != "es" {
		t.Fatalf("expected language es")
	}
	if d.FinalNotes() == "english edit" {
		t.Fatalf("expected spanish default after switch")
	}
	d = d.SetLanguage("en")
	if d.FinalNotes() != "english edit" {
		t.Fatalf("expected english edit preserved, got %q", d.FinalNotes())
	}
	if !d.FinalNotesTouched() {
		t.Fatalf("expected english still marked touched")
	}
}

func TestResetFinalNotes(t *testing.T) {
	defaults := DefaultNotes(map[string]string{"en": "house default"})
	d := New(testItems(), defaults)
	d = d.EditFinalNotes("edited")
	if !d.FinalNotesTouched() {
		t.Fatalf("expected touched after edit")
	}
	d = d.ResetFinalNotes()
	if d.FinalNotes() != "house default" || d.FinalNotesTouched() {
		t.Fatalf("expected default restored, got %q", d.FinalNotes())
	}
}

func TestSetCurrencyUppercases(t *testing.T) {
	d := New(nil, nil).SetCurrency("usd")
	if d.Currency() != "USD" {
		t.Fatalf("expected USD, got %q", d.Currency())
	}
}

func TestToggleItineraryOrder(t *testing.T) {
	d := New(nil, nil).ToggleItinerary("a").ToggleItinerary("b").ToggleItinerary("c")
	d = d.ToggleItinerary("b")
	ids := d.SelectedItineraryIDs()
	if len(ids) != 2 || ids[0] != "a" || ids[1] != "c" {
		t.Fatalf("unexpected itinerary ids %v", ids)
	}
	if d.ItinerarySelected("b") {
		t.Fatalf("expected b removed")
	}
}

func TestDefaultNotesCoverAllLanguages(t *testing.T) {
	notes := DefaultNotes(nil)
	for _, lang := range []string{"en", "es", "pt", "it", "fr", "de"} {
		if notes[lang] == "" {
			t.Errorf("missing default notes for %s", lang)
		}
	}
}
