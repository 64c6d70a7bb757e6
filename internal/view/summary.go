package view

import (
	"math"
	"time"

	"github.com/joseph-ayodele/venue-planner/constants"
	"github.com/joseph-ayodele/venue-planner/internal/entity"
)

// CostPoint is one bar in a cost comparison chart.
type CostPoint struct {
	ID     string                        `json:"id"`
	Name   string                        `json:"name"`
	Cost   float64                       `json:"cost"`
	Status constants.ConsiderationStatus `json:"status"`
}

type VenueSummary struct {
	Total    int                                   `json:"total"`
	ByStatus map[constants.ConsiderationStatus]int `json:"by_status"`
	// Costed counts venues with at least one cost figure.
	Costed  int         `json:"costed"`
	MinCost float64     `json:"min_cost"`
	MaxCost float64     `json:"max_cost"`
	AvgCost float64     `json:"avg_cost"`
	Costs   []CostPoint `json:"costs"`
}

type CategorySummary struct {
	Count      int     `json:"count"`
	Priced     int     `json:"priced"`
	TotalPrice float64 `json:"total_price"`
	MinPrice   float64 `json:"min_price"`
}

type VendorSummary struct {
	Total      int                                   `json:"total"`
	ByStatus   map[constants.ConsiderationStatus]int `json:"by_status"`
	ByCategory map[string]CategorySummary            `json:"by_category"`
}

type Summary struct {
	Guests  int           `json:"guests"`
	Venues  VenueSummary  `json:"venues"`
	Vendors VendorSummary `json:"vendors"`
	// Budget is the cheapest costed non-rejected venue plus the cheapest
	// priced non-rejected vendor of each category.
	Budget float64 `json:"budget"`
}

// Summarize computes counts and cost figures for st. Rejected records are
// counted but left out of cost aggregates.
func Summarize(st entity.ApplicationState, guests int) Summary {
	s := Summary{
		Guests: guests,
		Venues: VenueSummary{
			ByStatus: zeroStatusCounts(),
			Costs:    []CostPoint{},
		},
		Vendors: VendorSummary{
			ByStatus:   zeroStatusCounts(),
			ByCategory: map[string]CategorySummary{},
		},
	}

	var sum float64
	cheapestVenue := math.Inf(1)
	for _, v := range st.Venues {
		s.Venues.Total++
		s.Venues.ByStatus[v.Status]++
		if v.Status == constants.StatusRejected {
			continue
		}
		cost := v.EstimatedCost(guests)
		if cost <= 0 {
			continue
		}
		s.Venues.Costs = append(s.Venues.Costs, CostPoint{ID: v.ID, Name: v.Name, Cost: round2(cost), Status: v.Status})
		if s.Venues.Costed == 0 || cost < s.Venues.MinCost {
			s.Venues.MinCost = cost
		}
		if cost > s.Venues.MaxCost {
			s.Venues.MaxCost = cost
		}
		s.Venues.Costed++
		sum += cost
		cheapestVenue = math.Min(cheapestVenue, cost)
	}
	if s.Venues.Costed > 0 {
		s.Venues.AvgCost = round2(sum / float64(s.Venues.Costed))
		s.Budget += cheapestVenue
	}
	s.Venues.MinCost = round2(s.Venues.MinCost)
	s.Venues.MaxCost = round2(s.Venues.MaxCost)

	for _, v := range st.Vendors {
		s.Vendors.Total++
		s.Vendors.ByStatus[v.Status]++
		cat := v.Category
		if cat == "" {
			cat = string(constants.OtherVendor)
		}
		cs := s.Vendors.ByCategory[cat]
		cs.Count++
		if v.Status != constants.StatusRejected && v.Price > 0 {
			if cs.Priced == 0 || v.Price < cs.MinPrice {
				cs.MinPrice = v.Price
			}
			cs.Priced++
			cs.TotalPrice += v.Price
		}
		s.Vendors.ByCategory[cat] = cs
	}
	for _, cs := range s.Vendors.ByCategory {
		if cs.Priced > 0 {
			s.Budget += cs.MinPrice
		}
	}
	s.Budget = round2(s.Budget)
	return s
}

func zeroStatusCounts() map[constants.ConsiderationStatus]int {
	out := make(map[constants.ConsiderationStatus]int, 4)
	for _, st := range constants.ConsiderationStatuses() {
		out[st] = 0
	}
	return out
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

func timeOf(t *time.Time) int64 {
	if t == nil {
		return 0
	}
	return t.UnixNano()
}
