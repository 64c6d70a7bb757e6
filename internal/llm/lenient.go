package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/joseph-ayodele/venue-planner/constants"
	"github.com/joseph-ayodele/venue-planner/internal/entity"
)

// SanitizeOptionalFields removes or normalizes optional fields that don't meet our stricter schema,
// so the overall document can still validate. Records without a usable name are dropped whole.
func SanitizeOptionalFields(doc []byte, kind entity.Kind, categories []string) ([]byte, []string, error) {
	var m map[string]any
	if err := json.Unmarshal(doc, &m); err != nil {
		return nil, nil, err
	}
	list, _ := m[kind.Plural()].([]any)

	allowedCats := make(map[string]struct{}, len(categories))
	for _, c := range categories {
		allowedCats[c] = struct{}{}
	}

	var dropped []string
	kept := make([]any, 0, len(list))
	for i, it := range list {
		item, ok := it.(map[string]any)
		if !ok {
			dropped = append(dropped, fmt.Sprintf("[%d]", i))
			continue
		}
		name, _ := item["name"].(string)
		if strings.TrimSpace(name) == "" {
			dropped = append(dropped, fmt.Sprintf("[%d](no name)", i))
			continue
		}
		for k, v := range item {
			switch k {
			case "name":
			case "capacity", "venue_hire_cost", "catering_cost_per_head", "drinks_package_cost", "minimum_spend", "deposit", "price":
				if n, ok := v.(float64); !ok || n < 0 {
					delete(item, k)
					dropped = append(dropped, fmt.Sprintf("[%d].%s", i, k))
				}
			case "features":
				if _, ok := v.([]any); !ok {
					delete(item, k)
					dropped = append(dropped, fmt.Sprintf("[%d].%s", i, k))
				}
			case "category":
				s, _ := v.(string)
				if _, ok := allowedCats[s]; ok || len(allowedCats) == 0 {
					continue
				}
				canon, _ := constants.Canonicalize(s)
				item[k] = string(canon)
			default:
				if _, ok := v.(string); !ok {
					delete(item, k)
					dropped = append(dropped, fmt.Sprintf("[%d].%s", i, k))
				}
			}
		}
		kept = append(kept, item)
	}

	b, err := json.Marshal(map[string]any{kind.Plural(): kept})
	if err != nil {
		return nil, nil, err
	}
	return b, dropped, nil
}
