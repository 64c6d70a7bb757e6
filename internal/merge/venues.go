package merge

import (
	"strings"

	"github.com/joseph-ayodele/venue-planner/constants"
	"github.com/joseph-ayodele/venue-planner/internal/entity"
)

// VenueKey is the natural key of a venue: its name, case-insensitive.
func VenueKey(name string) string {
	return normalizeKey(name)
}

// Venues folds extracted venue records into existing and returns the new collection.
// existing is never modified.
func (m *Merger) Venues(existing []entity.Venue, incoming []entity.VenueFields) ([]entity.Venue, Summary) {
	return fold(existing, incoming,
		func(v entity.Venue) string { return VenueKey(v.Name) },
		func(f entity.VenueFields) string { return VenueKey(f.Name) },
		func(f entity.VenueFields) entity.Venue {
			now := m.now()
			return entity.Venue{
				ID:                    m.newID(),
				VenueFields:           cleanVenueFields(f),
				Status:                constants.StatusUnseen,
				LastUpdatedAt:         &now,
				LastChangeDescription: constants.NoteAddedViaUpload,
			}
		},
		m.updateVenue,
	)
}

func (m *Merger) updateVenue(cur entity.Venue, f entity.VenueFields) (entity.Venue, bool) {
	var changes changeSet
	changes.number("Venue hire cost", cur.VenueHireCost, f.VenueHireCost)
	changes.number("Catering cost per head", cur.CateringCostPerHead, f.CateringCostPerHead)
	changes.number("Drinks package cost", cur.DrinksPackageCost, f.DrinksPackageCost)
	changes.number("Minimum spend", cur.MinimumSpend, f.MinimumSpend)
	changes.number("Deposit", cur.Deposit, f.Deposit)
	changes.integer("Capacity", cur.Capacity, f.Capacity)

	next := cur.Clone()
	next.VenueFields = overlayVenue(cur.VenueFields, f)

	if len(changes) == 0 {
		return next, false
	}
	now := m.now()
	next.LastUpdatedAt = &now
	next.LastChangeDescription = changes.String()
	return next, true
}

// overlayVenue takes every populated extracted field and keeps the existing
// value wherever the extractor returned nothing.
func overlayVenue(cur, f entity.VenueFields) entity.VenueFields {
	return entity.VenueFields{
		Name:                pickString(cur.Name, strings.TrimSpace(f.Name)),
		Location:            pickString(cur.Location, f.Location),
		Style:               pickString(cur.Style, f.Style),
		Capacity:            pickInt(cur.Capacity, f.Capacity),
		VenueHireCost:       pickFloat(cur.VenueHireCost, f.VenueHireCost),
		CateringCostPerHead: pickFloat(cur.CateringCostPerHead, f.CateringCostPerHead),
		DrinksPackageCost:   pickFloat(cur.DrinksPackageCost, f.DrinksPackageCost),
		MinimumSpend:        pickFloat(cur.MinimumSpend, f.MinimumSpend),
		Deposit:             pickFloat(cur.Deposit, f.Deposit),
		Features:            pickList(cur.Features, f.Features),
		ContactName:         pickString(cur.ContactName, f.ContactName),
		ContactEmail:        pickString(cur.ContactEmail, f.ContactEmail),
		ContactPhone:        pickString(cur.ContactPhone, f.ContactPhone),
		Website:             pickString(cur.Website, f.Website),
		Description:         pickString(cur.Description, f.Description),
		Notes:               pickString(cur.Notes, f.Notes),
	}
}

func cleanVenueFields(f entity.VenueFields) entity.VenueFields {
	f.Name = strings.TrimSpace(f.Name)
	if f.Features != nil {
		f.Features = append([]string(nil), f.Features...)
	}
	return f
}
