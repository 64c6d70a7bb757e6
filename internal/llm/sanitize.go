package llm

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/joseph-ayodele/venue-planner/internal/entity"
	"github.com/joseph-ayodele/venue-planner/internal/utils"
)

var fieldSynonyms = map[string]string{
	"venue_name":        "name",
	"vendor_name":       "name",
	"business_name":     "name",
	"title":             "name",
	"address":           "location",
	"town":              "location",
	"max_capacity":      "capacity",
	"max_guests":        "capacity",
	"guest_capacity":    "capacity",
	"hire_fee":          "venue_hire_cost",
	"venue_hire":        "venue_hire_cost",
	"hire_cost":         "venue_hire_cost",
	"price_per_head":    "catering_cost_per_head",
	"cost_per_head":     "catering_cost_per_head",
	"catering_per_head": "catering_cost_per_head",
	"drinks_package":    "drinks_package_cost",
	"drinks_cost":       "drinks_package_cost",
	"min_spend":         "minimum_spend",
	"amenities":         "features",
	"facilities":        "features",
	"email":             "contact_email",
	"phone":             "contact_phone",
	"telephone":         "contact_phone",
	"contact":           "contact_name",
	"url":               "website",
	"web":               "website",
	"type":              "category",
	"service":           "category",
	"cost":              "price",
	"package_price":     "price",
	"summary":           "description",
}

var moneyFields = map[entity.Kind][]string{
	entity.KindVenue:  {"venue_hire_cost", "catering_cost_per_head", "drinks_package_cost", "minimum_spend", "deposit"},
	entity.KindVendor: {"price"},
}

// NormalizeAndSanitizeJSON
// - Strips markdown fences and wraps bare lists or single records
// - Renames known synonyms (hire_fee -> venue_hire_cost)
// - Coerces money strings such as "£1,500" to numbers
// - Drops null/empty values and unknown keys
func NormalizeAndSanitizeJSON(raw []byte, kind entity.Kind, logger *slog.Logger) ([]byte, []string, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var doc any
	if err := json.Unmarshal(StripCodeFences(raw), &doc); err != nil {
		return nil, nil, fmt.Errorf("sanitize: decode: %w", err)
	}

	items, wrapped := itemsOf(doc, kind)
	dropped := make([]string, 0, 8)
	if wrapped != "" {
		dropped = append(dropped, wrapped)
	}

	allowed := ItemFields(kind)
	clean := make([]any, 0, len(items))
	for i, it := range items {
		m, ok := it.(map[string]any)
		if !ok {
			dropped = append(dropped, fmt.Sprintf("[%d](not an object)", i))
			continue
		}
		dropped = append(dropped, normalizeItem(m, kind, allowed)...)
		clean = append(clean, m)
	}

	out, err := json.Marshal(map[string]any{kind.Plural(): clean})
	if err != nil {
		return nil, dropped, fmt.Errorf("sanitize: encode: %w", err)
	}
	if len(dropped) > 0 {
		logger.Warn("llm.extract.normalize_sanitize", "kind", kind, "dropped", dropped)
	}
	return out, dropped, nil
}

// StripCodeFences removes a ```json fence and any prose around the JSON value.
func StripCodeFences(raw []byte) []byte {
	s := strings.TrimSpace(string(raw))
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		if nl := strings.IndexByte(s, '\n'); nl >= 0 {
			s = s[nl+1:]
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	start := strings.IndexAny(s, "{[")
	if start > 0 {
		s = s[start:]
	}
	if end := strings.LastIndexAny(s, "}]"); end >= 0 && end < len(s)-1 {
		s = s[:end+1]
	}
	return []byte(strings.TrimSpace(s))
}

// itemsOf finds the record list in whatever shape the model returned.
func itemsOf(doc any, kind entity.Kind) ([]any, string) {
	switch t := doc.(type) {
	case []any:
		return t, "(bare list)"
	case map[string]any:
		if list, ok := t[kind.Plural()].([]any); ok {
			return list, ""
		}
		for _, key := range []string{string(kind), "items", "results", "data", "records"} {
			switch v := t[key].(type) {
			case []any:
				return v, key + "->" + kind.Plural()
			case map[string]any:
				return []any{v}, key + "->" + kind.Plural()
			}
		}
		if _, ok := t["name"]; ok {
			return []any{t}, "(single record)"
		}
	}
	return nil, "(no records)"
}

func normalizeItem(m map[string]any, kind entity.Kind, allowed map[string]struct{}) []string {
	var dropped []string

	for from, to := range fieldSynonyms {
		v, ok := m[from]
		if !ok {
			continue
		}
		if _, known := allowed[to]; known {
			if _, exists := m[to]; !exists {
				m[to] = v
			}
		}
		delete(m, from)
		dropped = append(dropped, from+"->"+to)
	}

	for k, v := range m {
		if _, ok := allowed[k]; !ok {
			delete(m, k)
			dropped = append(dropped, k+"(unknown)")
			continue
		}
		switch t := v.(type) {
		case nil:
			delete(m, k)
			dropped = append(dropped, k+"(null)")
		case string:
			s := strings.TrimSpace(t)
			if s == "" || strings.EqualFold(s, "null") || strings.EqualFold(s, "n/a") {
				delete(m, k)
				dropped = append(dropped, k+"(empty)")
			} else {
				m[k] = s
			}
		}
	}

	for _, k := range moneyFields[kind] {
		if reason := coerceNumber(m, k, false); reason != "" {
			dropped = append(dropped, k+reason)
		}
	}
	if kind == entity.KindVenue {
		if reason := coerceNumber(m, "capacity", true); reason != "" {
			dropped = append(dropped, "capacity"+reason)
		}
		if reason := coerceList(m, "features"); reason != "" {
			dropped = append(dropped, "features"+reason)
		}
	}
	return dropped
}

// coerceNumber turns display strings into numbers and drops zero, negative
// or unparseable values. It returns a reason only when the field was dropped.
func coerceNumber(m map[string]any, k string, integer bool) string {
	v, ok := m[k]
	if !ok {
		return ""
	}
	var n float64
	switch t := v.(type) {
	case float64:
		n = t
	case string:
		parsed, err := utils.ParseAmount(t)
		if err != nil {
			delete(m, k)
			return "(unparseable)"
		}
		n = parsed
	default:
		delete(m, k)
		return "(type)"
	}
	if n <= 0 {
		delete(m, k)
		return "(non-positive)"
	}
	if integer {
		n = math.Round(n)
	}
	m[k] = n
	return ""
}

func coerceList(m map[string]any, k string) string {
	v, ok := m[k]
	if !ok {
		return ""
	}
	var out []any
	switch t := v.(type) {
	case string:
		for _, p := range strings.FieldsFunc(t, func(r rune) bool { return r == ',' || r == ';' || r == '\n' }) {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
	case []any:
		for _, item := range t {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
	default:
		delete(m, k)
		return "(type)"
	}
	if len(out) == 0 {
		delete(m, k)
		return "(empty)"
	}
	m[k] = out
	return ""
}
