package llm

import "github.com/joseph-ayodele/venue-planner/internal/entity"

// BuildJSONSchema returns a JSON-Schema (draft 2020-12 subset) for kind. The
// document is an object holding one list, {"venues": [...]} or {"vendors": [...]},
// since a single brochure often lists several packages or suppliers.
func BuildJSONSchema(kind entity.Kind, vendorCategories []string) map[string]any {
	var item map[string]any
	switch kind {
	case entity.KindVendor:
		item = vendorItemSchema(vendorCategories)
	default:
		item = venueItemSchema()
	}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			kind.Plural(): map[string]any{"type": "array", "items": item},
		},
		"required": []string{kind.Plural()},
	}
}

func venueItemSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"name":                   nameProp(),
			"location":               textProp(),
			"style":                  textProp(),
			"capacity":               map[string]any{"type": "integer", "minimum": 0},
			"venue_hire_cost":        moneyProp(),
			"catering_cost_per_head": moneyProp(),
			"drinks_package_cost":    moneyProp(),
			"minimum_spend":          moneyProp(),
			"deposit":                moneyProp(),
			"features":               map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"contact_name":           textProp(),
			"contact_email":          textProp(),
			"contact_phone":          textProp(),
			"website":                textProp(),
			"description":            textProp(),
			"notes":                  textProp(),
		},
		"required": []string{"name"},
	}
}

func vendorItemSchema(categories []string) map[string]any {
	category := textProp()
	if len(categories) > 0 {
		category = map[string]any{"type": "string", "enum": categories}
	}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"name":          nameProp(),
			"category":      category,
			"price":         moneyProp(),
			"location":      textProp(),
			"contact_name":  textProp(),
			"contact_email": textProp(),
			"contact_phone": textProp(),
			"website":       textProp(),
			"description":   textProp(),
			"notes":         textProp(),
		},
		"required": []string{"name"},
	}
}

func nameProp() map[string]any { return map[string]any{"type": "string", "minLength": 1} }

func textProp() map[string]any { return map[string]any{"type": "string"} }

func moneyProp() map[string]any { return map[string]any{"type": "number", "minimum": 0} }

// ItemFields lists the property names allowed on one record of kind.
func ItemFields(kind entity.Kind) map[string]struct{} {
	var props map[string]any
	if kind == entity.KindVendor {
		props = vendorItemSchema(nil)["properties"].(map[string]any)
	} else {
		props = venueItemSchema()["properties"].(map[string]any)
	}
	out := make(map[string]struct{}, len(props))
	for k := range props {
		out[k] = struct{}{}
	}
	return out
}
