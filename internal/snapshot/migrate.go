package snapshot

import (
	"fmt"
	"math"
	"strings"

	"github.com/joseph-ayodele/venue-planner/constants"
	"github.com/joseph-ayodele/venue-planner/internal/utils"
)

// migration upgrades a decoded document from version to version+1 in place.
type migration struct {
	from  int
	name  string
	apply func(doc map[string]any) error
}

// migrations must stay ordered and contiguous.
var migrations = []migration{
	{from: 1, name: "features-to-list-and-numeric-costs", apply: migrateV1},
	{from: 2, name: "normalise-status-and-category", apply: migrateV2},
}

var venueNumericFields = []string{
	"capacity",
	"venue_hire_cost",
	"catering_cost_per_head",
	"drinks_package_cost",
	"minimum_spend",
	"deposit",
}

func upgrade(doc map[string]any, from int) error {
	for _, m := range migrations {
		if m.from < from {
			continue
		}
		if err := m.apply(doc); err != nil {
			return fmt.Errorf("migration %s (v%d): %w", m.name, m.from, err)
		}
	}
	doc["schema_version"] = float64(CurrentVersion)
	return nil
}

// migrateV1: features was a comma separated string and money amounts were
// sometimes stored as display strings such as "£1,500".
func migrateV1(doc map[string]any) error {
	for _, v := range records(doc, "venues") {
		switch f := v["features"].(type) {
		case string:
			v["features"] = splitList(f)
		case nil:
			delete(v, "features")
		}
		for _, key := range venueNumericFields {
			if s, ok := v[key].(string); ok {
				n, err := utils.ParseAmount(s)
				if err != nil {
					delete(v, key)
					continue
				}
				if key == "capacity" {
					n = math.Round(n)
				}
				v[key] = n
			}
		}
	}
	for _, v := range records(doc, "vendors") {
		if s, ok := v["price"].(string); ok {
			n, err := utils.ParseAmount(s)
			if err != nil {
				delete(v, "price")
				continue
			}
			v["price"] = n
		}
	}
	return nil
}

// migrateV2: status became mandatory and vendor categories canonical.
func migrateV2(doc map[string]any) error {
	for _, key := range []string{"venues", "vendors"} {
		for _, r := range records(doc, key) {
			raw, _ := r["status"].(string)
			st, _ := constants.ParseStatus(raw)
			r["status"] = string(st)
		}
	}
	for _, v := range records(doc, "vendors") {
		raw, _ := v["category"].(string)
		if strings.TrimSpace(raw) == "" {
			continue
		}
		if cat, ok := constants.Canonicalize(raw); ok {
			v["category"] = string(cat)
		}
	}
	return nil
}

func records(doc map[string]any, key string) []map[string]any {
	list, ok := doc[key].([]any)
	if !ok {
		if doc[key] != nil {
			doc[key] = []any{}
		}
		return nil
	}
	out := make([]map[string]any, 0, len(list))
	for _, item := range list {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

func splitList(s string) []any {
	var out []any
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
