package entity

import (
	"time"

	"github.com/joseph-ayodele/venue-planner/constants"
)

// VendorFields is what the extractor produces for a vendor.
type VendorFields struct {
	Name         string  `json:"name"`
	Category     string  `json:"category,omitempty"`
	Price        float64 `json:"price,omitempty"`
	Location     string  `json:"location,omitempty"`
	ContactName  string  `json:"contact_name,omitempty"`
	ContactEmail string  `json:"contact_email,omitempty"`
	ContactPhone string  `json:"contact_phone,omitempty"`
	Website      string  `json:"website,omitempty"`
	Description  string  `json:"description,omitempty"`
	Notes        string  `json:"notes,omitempty"`
}

// Vendor is a stored vendor.
type Vendor struct {
	ID string `json:"id"`
	VendorFields
	Status                constants.ConsiderationStatus `json:"status"`
	LastUpdatedAt         *time.Time                    `json:"last_updated_at,omitempty"`
	LastChangeDescription string                        `json:"last_change_description,omitempty"`
}

func (v Vendor) Clone() Vendor {
	out := v
	if v.LastUpdatedAt != nil {
		t := *v.LastUpdatedAt
		out.LastUpdatedAt = &t
	}
	return out
}
