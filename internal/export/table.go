package export

import (
	"strings"
	"time"

	"github.com/joseph-ayodele/venue-planner/internal/entity"
)

// table is a kind rendered as header plus rows. Cell values are string,
// float64, int or nil (blank).
type table struct {
	sheet   string
	headers []string
	widths  []float64
	rows    [][]any
}

func venueTable(venues []entity.Venue) table {
	t := table{
		sheet: "Venues",
		headers: []string{
			"Name", "Status", "Location", "Style", "Capacity",
			"Venue Hire Cost", "Catering Cost Per Head", "Drinks Package Cost", "Minimum Spend", "Deposit",
			"Features", "Contact Name", "Contact Email", "Contact Phone", "Website",
			"Description", "Notes", "Last Updated", "Last Change",
		},
		widths: []float64{28, 10, 22, 14, 10, 14, 14, 14, 14, 12, 36, 20, 28, 18, 30, 48, 48, 20, 48},
	}
	for _, v := range venues {
		t.rows = append(t.rows, []any{
			v.Name, string(v.Status), v.Location, v.Style, intCell(v.Capacity),
			money(v.VenueHireCost), money(v.CateringCostPerHead), money(v.DrinksPackageCost), money(v.MinimumSpend), money(v.Deposit),
			strings.Join(v.Features, ", "), v.ContactName, v.ContactEmail, v.ContactPhone, v.Website,
			v.Description, v.Notes, timeCell(v.LastUpdatedAt), v.LastChangeDescription,
		})
	}
	return t
}

func vendorTable(vendors []entity.Vendor) table {
	t := table{
		sheet: "Vendors",
		headers: []string{
			"Name", "Category", "Status", "Price", "Location",
			"Contact Name", "Contact Email", "Contact Phone", "Website",
			"Description", "Notes", "Last Updated", "Last Change",
		},
		widths: []float64{28, 16, 10, 12, 22, 20, 28, 18, 30, 48, 48, 20, 48},
	}
	for _, v := range vendors {
		t.rows = append(t.rows, []any{
			v.Name, v.Category, string(v.Status), money(v.Price), v.Location,
			v.ContactName, v.ContactEmail, v.ContactPhone, v.Website,
			v.Description, v.Notes, timeCell(v.LastUpdatedAt), v.LastChangeDescription,
		})
	}
	return t
}

// money leaves "not stated" amounts blank rather than writing 0.
func money(v float64) any {
	if v == 0 {
		return nil
	}
	return v
}

func intCell(v int) any {
	if v == 0 {
		return nil
	}
	return v
}

func timeCell(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format("2006-01-02 15:04")
}
