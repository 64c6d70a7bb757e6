package merge

import (
	"strings"

	"github.com/joseph-ayodele/venue-planner/constants"
	"github.com/joseph-ayodele/venue-planner/internal/entity"
)

// VendorKey is the natural key of a vendor: name and category, case-insensitive.
func VendorKey(name, category string) string {
	return normalizeKey(name, category)
}

// Vendors folds extracted vendor records into existing and returns the new collection.
func (m *Merger) Vendors(existing []entity.Vendor, incoming []entity.VendorFields) ([]entity.Vendor, Summary) {
	return fold(existing, incoming,
		func(v entity.Vendor) string { return VendorKey(v.Name, v.Category) },
		func(f entity.VendorFields) string { return VendorKey(f.Name, f.Category) },
		func(f entity.VendorFields) entity.Vendor {
			now := m.now()
			f.Name = strings.TrimSpace(f.Name)
			return entity.Vendor{
				ID:                    m.newID(),
				VendorFields:          f,
				Status:                constants.StatusUnseen,
				LastUpdatedAt:         &now,
				LastChangeDescription: constants.NoteAddedViaUpload,
			}
		},
		m.updateVendor,
	)
}

func (m *Merger) updateVendor(cur entity.Vendor, f entity.VendorFields) (entity.Vendor, bool) {
	var changes changeSet
	changes.number("Price", cur.Price, f.Price)

	next := cur.Clone()
	next.VendorFields = entity.VendorFields{
		Name:         pickString(cur.Name, strings.TrimSpace(f.Name)),
		Category:     pickString(cur.Category, f.Category),
		Price:        pickFloat(cur.Price, f.Price),
		Location:     pickString(cur.Location, f.Location),
		ContactName:  pickString(cur.ContactName, f.ContactName),
		ContactEmail: pickString(cur.ContactEmail, f.ContactEmail),
		ContactPhone: pickString(cur.ContactPhone, f.ContactPhone),
		Website:      pickString(cur.Website, f.Website),
		Description:  pickString(cur.Description, f.Description),
		Notes:        pickString(cur.Notes, f.Notes),
	}

	if len(changes) == 0 {
		return next, false
	}
	now := m.now()
	next.LastUpdatedAt = &now
	next.LastChangeDescription = changes.String()
	return next, true
}
