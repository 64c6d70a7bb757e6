package merge

import (
	"fmt"
	"strings"

	"github.com/joseph-ayodele/venue-planner/constants"
	"github.com/joseph-ayodele/venue-planner/internal/entity"
)

// AddVenue appends a manually entered venue. An empty status means unseen.
func (m *Merger) AddVenue(existing []entity.Venue, f entity.VenueFields, status constants.ConsiderationStatus) ([]entity.Venue, entity.Venue, error) {
	f = cleanVenueFields(f)
	key := VenueKey(f.Name)
	for _, v := range existing {
		if VenueKey(v.Name) == key {
			return nil, entity.Venue{}, fmt.Errorf("venue %q: %w", f.Name, ErrDuplicateKey)
		}
	}
	now := m.now()
	added := entity.Venue{
		ID:                    m.newID(),
		VenueFields:           f,
		Status:                statusOrUnseen(status),
		LastUpdatedAt:         &now,
		LastChangeDescription: constants.NoteAddedManually,
	}
	out := append(cloneVenues(existing), added)
	return out, added.Clone(), nil
}

// EditVenue replaces every field of the venue with id. Manual edits always
// refresh the audit trail, even when nothing differs.
func (m *Merger) EditVenue(existing []entity.Venue, id string, f entity.VenueFields) ([]entity.Venue, entity.Venue, error) {
	f = cleanVenueFields(f)
	idx := -1
	key := VenueKey(f.Name)
	for i, v := range existing {
		if v.ID == id {
			idx = i
			continue
		}
		if VenueKey(v.Name) == key {
			return nil, entity.Venue{}, fmt.Errorf("venue %q: %w", f.Name, ErrDuplicateKey)
		}
	}
	if idx < 0 {
		return nil, entity.Venue{}, fmt.Errorf("venue %s: %w", id, ErrNotFound)
	}
	out := cloneVenues(existing)
	now := m.now()
	out[idx].VenueFields = f
	out[idx].LastUpdatedAt = &now
	out[idx].LastChangeDescription = constants.NoteManuallyUpdated
	return out, out[idx].Clone(), nil
}

func (m *Merger) SetVenueStatus(existing []entity.Venue, id string, status constants.ConsiderationStatus) ([]entity.Venue, error) {
	out := cloneVenues(existing)
	for i := range out {
		if out[i].ID == id {
			now := m.now()
			out[i].Status = statusOrUnseen(status)
			out[i].LastUpdatedAt = &now
			out[i].LastChangeDescription = constants.NoteManuallyUpdated
			return out, nil
		}
	}
	return nil, fmt.Errorf("venue %s: %w", id, ErrNotFound)
}

func DeleteVenue(existing []entity.Venue, id string) ([]entity.Venue, error) {
	for i, v := range existing {
		if v.ID == id {
			out := make([]entity.Venue, 0, len(existing)-1)
			out = append(out, cloneVenues(existing[:i])...)
			return append(out, cloneVenues(existing[i+1:])...), nil
		}
	}
	return nil, fmt.Errorf("venue %s: %w", id, ErrNotFound)
}

// AddVendor appends a manually entered vendor.
func (m *Merger) AddVendor(existing []entity.Vendor, f entity.VendorFields, status constants.ConsiderationStatus) ([]entity.Vendor, entity.Vendor, error) {
	f.Name = strings.TrimSpace(f.Name)
	key := VendorKey(f.Name, f.Category)
	for _, v := range existing {
		if VendorKey(v.Name, v.Category) == key {
			return nil, entity.Vendor{}, fmt.Errorf("vendor %q (%s): %w", f.Name, f.Category, ErrDuplicateKey)
		}
	}
	now := m.now()
	added := entity.Vendor{
		ID:                    m.newID(),
		VendorFields:          f,
		Status:                statusOrUnseen(status),
		LastUpdatedAt:         &now,
		LastChangeDescription: constants.NoteAddedManually,
	}
	out := append(cloneVendors(existing), added)
	return out, added.Clone(), nil
}

func (m *Merger) EditVendor(existing []entity.Vendor, id string, f entity.VendorFields) ([]entity.Vendor, entity.Vendor, error) {
	f.Name = strings.TrimSpace(f.Name)
	idx := -1
	key := VendorKey(f.Name, f.Category)
	for i, v := range existing {
		if v.ID == id {
			idx = i
			continue
		}
		if VendorKey(v.Name, v.Category) == key {
			return nil, entity.Vendor{}, fmt.Errorf("vendor %q (%s): %w", f.Name, f.Category, ErrDuplicateKey)
		}
	}
	if idx < 0 {
		return nil, entity.Vendor{}, fmt.Errorf("vendor %s: %w", id, ErrNotFound)
	}
	out := cloneVendors(existing)
	now := m.now()
	out[idx].VendorFields = f
	out[idx].LastUpdatedAt = &now
	out[idx].LastChangeDescription = constants.NoteManuallyUpdated
	return out, out[idx].Clone(), nil
}

func (m *Merger) SetVendorStatus(existing []entity.Vendor, id string, status constants.ConsiderationStatus) ([]entity.Vendor, error) {
	out := cloneVendors(existing)
	for i := range out {
		if out[i].ID == id {
			now := m.now()
			out[i].Status = statusOrUnseen(status)
			out[i].LastUpdatedAt = &now
			out[i].LastChangeDescription = constants.NoteManuallyUpdated
			return out, nil
		}
	}
	return nil, fmt.Errorf("vendor %s: %w", id, ErrNotFound)
}

func DeleteVendor(existing []entity.Vendor, id string) ([]entity.Vendor, error) {
	for i, v := range existing {
		if v.ID == id {
			out := make([]entity.Vendor, 0, len(existing)-1)
			out = append(out, cloneVendors(existing[:i])...)
			return append(out, cloneVendors(existing[i+1:])...), nil
		}
	}
	return nil, fmt.Errorf("vendor %s: %w", id, ErrNotFound)
}

func statusOrUnseen(s constants.ConsiderationStatus) constants.ConsiderationStatus {
	if parsed, ok := constants.ParseStatus(string(s)); ok {
		return parsed
	}
	return constants.StatusUnseen
}

func cloneVenues(in []entity.Venue) []entity.Venue {
	out := make([]entity.Venue, len(in))
	for i, v := range in {
		out[i] = v.Clone()
	}
	return out
}

func cloneVendors(in []entity.Vendor) []entity.Vendor {
	out := make([]entity.Vendor, len(in))
	for i, v := range in {
		out[i] = v.Clone()
	}
	return out
}
