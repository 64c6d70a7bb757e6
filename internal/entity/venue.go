package entity

import (
	"time"

	"github.com/joseph-ayodele/venue-planner/constants"
)

// VenueFields is what the extractor produces for a venue: flat fields, no identity.
// Zero values mean "not stated in the document".
type VenueFields struct {
	Name                string   `json:"name"`
	Location            string   `json:"location,omitempty"`
	Style               string   `json:"style,omitempty"`
	Capacity            int      `json:"capacity,omitempty"`
	VenueHireCost       float64  `json:"venue_hire_cost,omitempty"`
	CateringCostPerHead float64  `json:"catering_cost_per_head,omitempty"`
	DrinksPackageCost   float64  `json:"drinks_package_cost,omitempty"`
	MinimumSpend        float64  `json:"minimum_spend,omitempty"`
	Deposit             float64  `json:"deposit,omitempty"`
	Features            []string `json:"features,omitempty"`
	ContactName         string   `json:"contact_name,omitempty"`
	ContactEmail        string   `json:"contact_email,omitempty"`
	ContactPhone        string   `json:"contact_phone,omitempty"`
	Website             string   `json:"website,omitempty"`
	Description         string   `json:"description,omitempty"`
	Notes               string   `json:"notes,omitempty"`
}

// Venue is a stored venue: extracted fields plus identity, triage status and audit trail.
type Venue struct {
	ID string `json:"id"`
	VenueFields
	Status                constants.ConsiderationStatus `json:"status"`
	LastUpdatedAt         *time.Time                    `json:"last_updated_at,omitempty"`
	LastChangeDescription string                        `json:"last_change_description,omitempty"`
}

// EstimatedCost is hire plus catering for the given head count plus drinks.
// The minimum spend is used as a floor.
func (v VenueFields) EstimatedCost(guests int) float64 {
	total := v.VenueHireCost + v.CateringCostPerHead*float64(guests) + v.DrinksPackageCost
	if total < v.MinimumSpend {
		return v.MinimumSpend
	}
	return total
}

// Clone returns a deep copy.
func (v Venue) Clone() Venue {
	out := v
	if v.Features != nil {
		out.Features = append([]string(nil), v.Features...)
	}
	if v.LastUpdatedAt != nil {
		t := *v.LastUpdatedAt
		out.LastUpdatedAt = &t
	}
	return out
}
