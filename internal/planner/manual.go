package planner

import (
	"context"
	"strings"

	"github.com/joseph-ayodele/venue-planner/constants"
	"github.com/joseph-ayodele/venue-planner/internal/common"
	"github.com/joseph-ayodele/venue-planner/internal/entity"
	"github.com/joseph-ayodele/venue-planner/internal/merge"
)

const (
	maxNameLen = 200
	maxTextLen = 4000
)

func validateVenue(f entity.VenueFields) error {
	v := common.NewValidator().
		Field("name", f.Name, common.Required, common.Max(maxNameLen)).
		Field("location", f.Location, common.Max(maxNameLen)).
		Field("style", f.Style, common.Max(maxNameLen)).
		Field("capacity", f.Capacity, common.NonNegative).
		Field("venue_hire_cost", f.VenueHireCost, common.NonNegative).
		Field("catering_cost_per_head", f.CateringCostPerHead, common.NonNegative).
		Field("drinks_package_cost", f.DrinksPackageCost, common.NonNegative).
		Field("minimum_spend", f.MinimumSpend, common.NonNegative).
		Field("deposit", f.Deposit, common.NonNegative).
		Field("contact_email", f.ContactEmail, common.Email).
		Field("description", f.Description, common.Max(maxTextLen)).
		Field("notes", f.Notes, common.Max(maxTextLen))
	return v.Error()
}

func validateVendor(f entity.VendorFields) error {
	v := common.NewValidator().
		Field("name", f.Name, common.Required, common.Max(maxNameLen)).
		Field("category", f.Category, common.Max(maxNameLen)).
		Field("price", f.Price, common.NonNegative).
		Field("location", f.Location, common.Max(maxNameLen)).
		Field("contact_email", f.ContactEmail, common.Email).
		Field("description", f.Description, common.Max(maxTextLen)).
		Field("notes", f.Notes, common.Max(maxTextLen))
	return v.Error()
}

func validateStatus(raw constants.ConsiderationStatus) (constants.ConsiderationStatus, error) {
	if raw == "" {
		return constants.StatusUnseen, nil
	}
	st, ok := constants.ParseStatus(string(raw))
	if !ok {
		return "", common.NewValidator().
			Field("status", string(raw), common.OneOf(statusNames()...)).
			Error()
	}
	return st, nil
}

func statusNames() []string {
	all := constants.ConsiderationStatuses()
	out := make([]string, len(all))
	for i, s := range all {
		out[i] = string(s)
	}
	return out
}

func canonicalVendor(f entity.VendorFields) entity.VendorFields {
	f.Name = strings.TrimSpace(f.Name)
	canon, _ := constants.Canonicalize(f.Category)
	f.Category = string(canon)
	return f
}

func (s *Service) AddVenue(ctx context.Context, f entity.VenueFields, status constants.ConsiderationStatus) (entity.Venue, error) {
	if err := validateVenue(f); err != nil {
		return entity.Venue{}, err
	}
	st, err := validateStatus(status)
	if err != nil {
		return entity.Venue{}, err
	}
	var added entity.Venue
	_, err = s.store.Update(ctx, func(cur entity.ApplicationState) (entity.ApplicationState, error) {
		var err error
		cur.Venues, added, err = s.merger.AddVenue(cur.Venues, f, st)
		return cur, err
	})
	if err != nil {
		return entity.Venue{}, err
	}
	s.logger.Info("planner.venue.added", "id", added.ID, "name", added.Name)
	return added, nil
}

func (s *Service) EditVenue(ctx context.Context, id string, f entity.VenueFields) (entity.Venue, error) {
	if err := validateVenue(f); err != nil {
		return entity.Venue{}, err
	}
	var edited entity.Venue
	_, err := s.store.Update(ctx, func(cur entity.ApplicationState) (entity.ApplicationState, error) {
		var err error
		cur.Venues, edited, err = s.merger.EditVenue(cur.Venues, id, f)
		return cur, err
	})
	if err != nil {
		return entity.Venue{}, err
	}
	s.logger.Info("planner.venue.edited", "id", id)
	return edited, nil
}

func (s *Service) SetVenueStatus(ctx context.Context, id string, status constants.ConsiderationStatus) error {
	st, err := validateStatus(status)
	if err != nil {
		return err
	}
	_, err = s.store.Update(ctx, func(cur entity.ApplicationState) (entity.ApplicationState, error) {
		var err error
		cur.Venues, err = s.merger.SetVenueStatus(cur.Venues, id, st)
		return cur, err
	})
	return err
}

func (s *Service) DeleteVenue(ctx context.Context, id string) error {
	_, err := s.store.Update(ctx, func(cur entity.ApplicationState) (entity.ApplicationState, error) {
		var err error
		cur.Venues, err = merge.DeleteVenue(cur.Venues, id)
		return cur, err
	})
	if err == nil {
		s.logger.Info("planner.venue.deleted", "id", id)
	}
	return err
}

func (s *Service) AddVendor(ctx context.Context, f entity.VendorFields, status constants.ConsiderationStatus) (entity.Vendor, error) {
	f = canonicalVendor(f)
	if err := validateVendor(f); err != nil {
		return entity.Vendor{}, err
	}
	st, err := validateStatus(status)
	if err != nil {
		return entity.Vendor{}, err
	}
	var added entity.Vendor
	_, err = s.store.Update(ctx, func(cur entity.ApplicationState) (entity.ApplicationState, error) {
		var err error
		cur.Vendors, added, err = s.merger.AddVendor(cur.Vendors, f, st)
		return cur, err
	})
	if err != nil {
		return entity.Vendor{}, err
	}
	s.logger.Info("planner.vendor.added", "id", added.ID, "name", added.Name, "category", added.Category)
	return added, nil
}

func (s *Service) EditVendor(ctx context.Context, id string, f entity.VendorFields) (entity.Vendor, error) {
	f = canonicalVendor(f)
	if err := validateVendor(f); err != nil {
		return entity.Vendor{}, err
	}
	var edited entity.Vendor
	_, err := s.store.Update(ctx, func(cur entity.ApplicationState) (entity.ApplicationState, error) {
		var err error
		cur.Vendors, edited, err = s.merger.EditVendor(cur.Vendors, id, f)
		return cur, err
	})
	if err != nil {
		return entity.Vendor{}, err
	}
	s.logger.Info("planner.vendor.edited", "id", id)
	return edited, nil
}

func (s *Service) SetVendorStatus(ctx context.Context, id string, status constants.ConsiderationStatus) error {
	st, err := validateStatus(status)
	if err != nil {
		return err
	}
	_, err = s.store.Update(ctx, func(cur entity.ApplicationState) (entity.ApplicationState, error) {
		var err error
		cur.Vendors, err = s.merger.SetVendorStatus(cur.Vendors, id, st)
		return cur, err
	})
	return err
}

func (s *Service) DeleteVendor(ctx context.Context, id string) error {
	_, err := s.store.Update(ctx, func(cur entity.ApplicationState) (entity.ApplicationState, error) {
		var err error
		cur.Vendors, err = merge.DeleteVendor(cur.Vendors, id)
		return cur, err
	})
	if err == nil {
		s.logger.Info("planner.vendor.deleted", "id", id)
	}
	return err
}

// SetStatus changes the triage status of a venue or vendor.
func (s *Service) SetStatus(ctx context.Context, kind entity.Kind, id string, status constants.ConsiderationStatus) error {
	switch kind {
	case entity.KindVenue:
		return s.SetVenueStatus(ctx, id, status)
	case entity.KindVendor:
		return s.SetVendorStatus(ctx, id, status)
	}
	return common.NewAppError("INVALID_KIND", string(kind), common.ErrInvalidInput)
}

// Delete removes a venue or vendor.
func (s *Service) Delete(ctx context.Context, kind entity.Kind, id string) error {
	switch kind {
	case entity.KindVenue:
		return s.DeleteVenue(ctx, id)
	case entity.KindVendor:
		return s.DeleteVendor(ctx, id)
	}
	return common.NewAppError("INVALID_KIND", string(kind), common.ErrInvalidInput)
}
