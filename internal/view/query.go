// Package view holds read-only projections of the state: filtered and sorted
// lists for display and the summary figures behind the comparison charts.
package view

import (
	"sort"
	"strings"

	"github.com/joseph-ayodele/venue-planner/constants"
	"github.com/joseph-ayodele/venue-planner/internal/entity"
)

// Sort keys. Not every key applies to both kinds; an inapplicable key sorts by name.
const (
	SortName     = "name"
	SortStatus   = "status"
	SortUpdated  = "updated"
	SortCost     = "cost"
	SortCapacity = "capacity"
	SortCategory = "category"
	SortPrice    = "price"
)

// Query filters and orders a collection. The zero value returns everything
// in stored order.
type Query struct {
	Status   constants.ConsiderationStatus `json:"status,omitempty"`
	Category string                        `json:"category,omitempty"`
	Search   string                        `json:"search,omitempty"`
	SortBy   string                        `json:"sort_by,omitempty"`
	Desc     bool                          `json:"desc,omitempty"`
	// Guests sizes the estimated venue cost used by SortCost.
	Guests int `json:"guests,omitempty"`
}

var statusRank = map[constants.ConsiderationStatus]int{
	constants.StatusPriority: 0,
	constants.StatusMaybe:    1,
	constants.StatusUnseen:   2,
	constants.StatusRejected: 3,
}

func (q Query) matches(status constants.ConsiderationStatus, haystack ...string) bool {
	if q.Status != "" && status != q.Status {
		return false
	}
	needle := strings.ToLower(strings.TrimSpace(q.Search))
	if needle == "" {
		return true
	}
	for _, h := range haystack {
		if strings.Contains(strings.ToLower(h), needle) {
			return true
		}
	}
	return false
}

// Venues returns the venues matching q, sorted as requested.
func Venues(in []entity.Venue, q Query) []entity.Venue {
	out := make([]entity.Venue, 0, len(in))
	for _, v := range in {
		hay := append([]string{v.Name, v.Location, v.Style, v.Description, v.Notes}, v.Features...)
		if q.matches(v.Status, hay...) {
			out = append(out, v.Clone())
		}
	}
	if q.SortBy == "" {
		return out
	}

	var less func(a, b entity.Venue) bool
	switch q.SortBy {
	case SortStatus:
		less = func(a, b entity.Venue) bool { return statusRank[a.Status] < statusRank[b.Status] }
	case SortUpdated:
		less = func(a, b entity.Venue) bool { return timeOf(a.LastUpdatedAt) < timeOf(b.LastUpdatedAt) }
	case SortCost:
		less = func(a, b entity.Venue) bool { return a.EstimatedCost(q.Guests) < b.EstimatedCost(q.Guests) }
	case SortCapacity:
		less = func(a, b entity.Venue) bool { return a.Capacity < b.Capacity }
	default:
		less = func(a, b entity.Venue) bool { return lowerName(a.Name) < lowerName(b.Name) }
	}
	sort.SliceStable(out, func(i, j int) bool {
		if q.Desc {
			return less(out[j], out[i])
		}
		return less(out[i], out[j])
	})
	return out
}

// Vendors returns the vendors matching q, sorted as requested.
func Vendors(in []entity.Vendor, q Query) []entity.Vendor {
	out := make([]entity.Vendor, 0, len(in))
	for _, v := range in {
		if q.Category != "" && !strings.EqualFold(v.Category, q.Category) {
			continue
		}
		if q.matches(v.Status, v.Name, v.Category, v.Location, v.Description, v.Notes) {
			out = append(out, v.Clone())
		}
	}
	if q.SortBy == "" {
		return out
	}

	var less func(a, b entity.Vendor) bool
	switch q.SortBy {
	case SortStatus:
		less = func(a, b entity.Vendor) bool { return statusRank[a.Status] < statusRank[b.Status] }
	case SortUpdated:
		less = func(a, b entity.Vendor) bool { return timeOf(a.LastUpdatedAt) < timeOf(b.LastUpdatedAt) }
	case SortPrice, SortCost:
		less = func(a, b entity.Vendor) bool { return a.Price < b.Price }
	case SortCategory:
		less = func(a, b entity.Vendor) bool { return a.Category < b.Category }
	default:
		less = func(a, b entity.Vendor) bool { return lowerName(a.Name) < lowerName(b.Name) }
	}
	sort.SliceStable(out, func(i, j int) bool {
		if q.Desc {
			return less(out[j], out[i])
		}
		return less(out[i], out[j])
	})
	return out
}

func lowerName(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
