package constants

import (
	"strings"
)

// VendorCategory is the canonical category of a wedding vendor.
type VendorCategory string

const (
	Photographer  VendorCategory = "Photographer"
	Videographer  VendorCategory = "Videographer"
	Caterer       VendorCategory = "Caterer"
	Florist       VendorCategory = "Florist"
	Band          VendorCategory = "Band"
	DJ            VendorCategory = "DJ"
	Cake          VendorCategory = "Cake"
	HairAndMakeup VendorCategory = "HairAndMakeup"
	Stationery    VendorCategory = "Stationery"
	Transport     VendorCategory = "Transport"
	Officiant     VendorCategory = "Officiant"
	Decor         VendorCategory = "Decor"
	Attire        VendorCategory = "Attire"
	OtherVendor   VendorCategory = "Other"
)

var allVendorCategories = []VendorCategory{
	Photographer,
	Videographer,
	Caterer,
	Florist,
	Band,
	DJ,
	Cake,
	HairAndMakeup,
	Stationery,
	Transport,
	Officiant,
	Decor,
	Attire,
	OtherVendor,
}

var categorySynonyms = map[string]VendorCategory{
	"photography":     Photographer,
	"photographer":    Photographer,
	"photo":           Photographer,
	"videography":     Videographer,
	"video":           Videographer,
	"film":            Videographer,
	"catering":        Caterer,
	"food":            Caterer,
	"flowers":         Florist,
	"floristry":       Florist,
	"music":           Band,
	"live music":      Band,
	"disc jockey":     DJ,
	"cakes":           Cake,
	"wedding cake":    Cake,
	"bakery":          Cake,
	"hair":            HairAndMakeup,
	"makeup":          HairAndMakeup,
	"hair & makeup":   HairAndMakeup,
	"hair and makeup": HairAndMakeup,
	"invitations":     Stationery,
	"cars":            Transport,
	"car hire":        Transport,
	"celebrant":       Officiant,
	"registrar":       Officiant,
	"decoration":      Decor,
	"styling":         Decor,
	"dress":           Attire,
	"bridalwear":      Attire,
	"suits":           Attire,
}

// VendorCategoryStrings returns the canonical categories in display order.
func VendorCategoryStrings() []string {
	result := make([]string, len(allVendorCategories))
	for i, cat := range allVendorCategories {
		result[i] = string(cat)
	}
	return result
}

// Canonicalize maps free-form model or user input onto a known category.
// The bool reports whether the input was recognised; unknown input maps to Other.
func Canonicalize(input string) (VendorCategory, bool) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	if normalized == "" {
		return OtherVendor, false
	}

	if cat, ok := categorySynonyms[normalized]; ok {
		return cat, true
	}

	squashed := strings.NewReplacer(" ", "", "&", "and", "-", "", "_", "").Replace(normalized)
	for _, cat := range allVendorCategories {
		if normalized == strings.ToLower(string(cat)) || squashed == strings.ToLower(string(cat)) {
			return cat, true
		}
	}

	return OtherVendor, false
}
