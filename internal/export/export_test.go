package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/venue-planner/constants"
	"github.com/joseph-ayodele/venue-planner/internal/entity"
)

func fixedService() *Service {
	s := NewService(nil)
	s.now = func() time.Time { return time.Date(2026, 6, 20, 9, 0, 0, 0, time.UTC) }
	return s
}

func sample() entity.ApplicationState {
	return entity.ApplicationState{
		Venues: []entity.Venue{{
			ID: "1",
			VenueFields: entity.VenueFields{
				Name: `The "Old" Barn`, Location: "Kent, UK", VenueHireCost: 4500, Capacity: 120,
				Features: []string{"bar", "garden"}, Notes: "line one\nline two",
			},
			Status: constants.StatusMaybe,
		}},
		Vendors: []entity.Vendor{{
			ID:           "a",
			VendorFields: entity.VendorFields{Name: "Snap", Category: "Photographer", Price: 1200.5},
			Status:       constants.StatusPriority,
		}},
	}
}

func TestExport_CSVQuoting(t *testing.T) {
	res, err := fixedService().Export(sample(), entity.KindVenue, FormatCSV)
	require.NoError(t, err)

	assert.Equal(t, "venues-2026-06-20.csv", res.FileName)
	assert.Equal(t, 1, res.Rows)
	body := strings.TrimPrefix(string(res.Data), "\ufeff")
	lines := strings.SplitN(body, "\r\n", 2)
	assert.True(t, strings.HasPrefix(lines[0], `"Name","Status","Location"`))
	assert.True(t, strings.HasPrefix(lines[1], `"The ""Old"" Barn","maybe","Kent, UK","","120","4500.00","","","","","bar, garden"`), lines[1])
	assert.Contains(t, lines[1], "\"line one\nline two\"")
}

func TestExport_VendorCSV(t *testing.T) {
	res, err := fixedService().Export(sample(), entity.KindVendor, FormatCSV)
	require.NoError(t, err)
	assert.Contains(t, string(res.Data), `"Snap","Photographer","priority","1200.50"`)
}

func TestExport_EmptyCollectionHasHeader(t *testing.T) {
	res, err := fixedService().Export(entity.ApplicationState{}, entity.KindVendor, FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Rows)
	assert.Equal(t, 1, strings.Count(string(res.Data), "\r\n"))
}

func TestExport_XLSX(t *testing.T) {
	res, err := fixedService().Export(sample(), entity.KindVenue, FormatXLSX)
	require.NoError(t, err)
	assert.Equal(t, "venues-2026-06-20.xlsx", res.FileName)

	wb, err := excelize.OpenReader(bytes.NewReader(res.Data))
	require.NoError(t, err)
	defer func() { _ = wb.Close() }()

	assert.Equal(t, []string{"Venues"}, wb.GetSheetList())
	rows, err := wb.GetRows("Venues")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Name", rows[0][0])
	assert.Equal(t, `The "Old" Barn`, rows[1][0])
	assert.Equal(t, "4500", rows[1][5])
}

func TestWorkbook(t *testing.T) {
	res, err := fixedService().Workbook(sample())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Rows)

	wb, err := excelize.OpenReader(bytes.NewReader(res.Data))
	require.NoError(t, err)
	defer func() { _ = wb.Close() }()
	assert.Equal(t, []string{"Venues", "Vendors"}, wb.GetSheetList())
	v, err := wb.GetCellValue("Vendors", "A2")
	require.NoError(t, err)
	assert.Equal(t, "Snap", v)
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("XLSX")
	require.NoError(t, err)
	assert.Equal(t, FormatXLSX, f)

	f, err = ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)

	_, err = ParseFormat("pdf")
	require.ErrorIs(t, err, ErrUnknownFormat)

	_, err = fixedService().Export(sample(), entity.KindVenue, Format("pdf"))
	require.ErrorIs(t, err, ErrUnknownFormat)
}
