// Package catalog turns loosely-shaped upstream automation payloads into
// typed records. Upstream rows arrive with human-readable column labels
// ("Boat Name", "Service Type") or camel/snake spellings depending on which
// workflow produced them; the normalizer probes the accepted spellings in
// order and tolerates any input shape.
package catalog

import (
	"fmt"
	"math"
	"strconv"

	"charterdesk/internal/domain"
)

// ExtractItems flattens an arbitrary catalog response into a sequence of
// record-like values. An envelope object carrying "items" or "data" is
// unwrapped before the single-object fallback so it is never mistaken for
// one catalog entry. Null and scalar payloads yield an empty sequence.
func ExtractItems(payload any) []any {
	switch v := payload.(type) {
	case []any:
		return v
	case map[string]any:
		if items, ok := v["items"].([]any); ok {
			return items
		}
		if data, ok := v["data"].([]any); ok {
			return data
		}
		return []any{v}
	default:
		return nil
	}
}

// Normalize maps one upstream record into a CatalogItem. It never fails:
// missing, null or wrong-typed values leave the corresponding field absent.
func Normalize(raw any) domain.CatalogItem {
	r, _ := raw.(map[string]any)
	item := domain.CatalogItem{
		Name:            stringField(r, "Boat Name", "name"),
		Model:           stringField(r, "Model", "model"),
		ServiceType:     stringField(r, "Service Type", "serviceType"),
		BoatType:        stringField(r, "Boat Type", "boatType"),
		Base:            stringField(r, "Base", "base"),
		Country:         stringField(r, "Country", "country"),
		LengthFt:        stringField(r, "Lenght (ft)", "Length (ft)", "lengthFt", "length_ft"),
		Image:           stringField(r, "Image", "Main Image", "image"),
		DefaultCurrency: stringField(r, "Currency", "currency"),
		DefaultPrice:    floatField(r, "Default Price", "defaultPrice"),
	}
	if id := stringField(r, "Id", "id"); id != nil {
		item.ID = *id
	}
	if rating := floatField(r, "Rating", "rating"); rating != nil {
		clamped := math.Max(0, math.Min(5, *rating))
		item.Rating = &clamped
	}
	return item
}

// NormalizeAll applies Normalize to every record of an extracted sequence.
func NormalizeAll(records []any) []domain.CatalogItem {
	items := make([]domain.CatalogItem, 0, len(records))
	for _, raw := range records {
		items = append(items, Normalize(raw))
	}
	return items
}

func probe(r map[string]any, keys ...string) (any, bool) {
	for _, k := range keys {
		if v, ok := r[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func stringField(r map[string]any, keys ...string) *string {
	v, ok := probe(r, keys...)
	if !ok {
		return nil
	}
	switch s := v.(type) {
	case string:
		if s == "" {
			return nil
		}
		return &s
	case float64:
		out := formatNumber(s)
		return &out
	case int:
		out := strconv.Itoa(s)
		return &out
	case bool:
		out := strconv.FormatBool(s)
		return &out
	default:
		return nil
	}
}

func floatField(r map[string]any, keys ...string) *float64 {
	v, ok := probe(r, keys...)
	if !ok {
		return nil
	}
	switch n := v.(type) {
	case float64:
		return &n
	case int:
		out := float64(n)
		return &out
	case string:
		if parsed, err := strconv.ParseFloat(n, 64); err == nil {
			return &parsed
		}
		return nil
	default:
		return nil
	}
}

// formatNumber renders JSON numbers without a spurious ".000000" so that a
// numeric upstream id like 1 canonicalizes to "1".
func formatNumber(n float64) string {
	if n == math.Trunc(n) && math.Abs(n) < 1e15 {
		return strconv.FormatInt(int64(n), 10)
	}
	return fmt.Sprintf("%v", n)
}
