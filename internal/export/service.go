// Package export renders venues and vendors as CSV or XLSX downloads.
package export

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/venue-planner/internal/entity"
)

type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

var ErrUnknownFormat = errors.New("unknown export format")

func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "csv", "":
		return FormatCSV, nil
	case "xlsx", "excel":
		return FormatXLSX, nil
	}
	return "", fmt.Errorf("%q: %w", s, ErrUnknownFormat)
}

func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// Result is a rendered download.
type Result struct {
	FileName    string
	ContentType string
	Data        []byte
	Rows        int
}

type Service struct {
	logger *slog.Logger
	now    func() time.Time
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger, now: time.Now}
}

// Export renders one kind from st. XLSX output for a single kind still holds
// only that kind's sheet; use Workbook for both.
func (s *Service) Export(st entity.ApplicationState, kind entity.Kind, format Format) (Result, error) {
	start := time.Now()
	var t table
	switch kind {
	case entity.KindVenue:
		t = venueTable(st.Venues)
	case entity.KindVendor:
		t = vendorTable(st.Vendors)
	default:
		return Result{}, fmt.Errorf("export: unknown kind %q", kind)
	}

	res := Result{
		FileName:    fmt.Sprintf("%s-%s.%s", kind.Plural(), s.now().Format("2006-01-02"), format),
		ContentType: format.ContentType(),
		Rows:        len(t.rows),
	}
	switch format {
	case FormatCSV:
		res.Data = writeCSV(t)
	case FormatXLSX:
		data, err := writeXLSX(t)
		if err != nil {
			return Result{}, err
		}
		res.Data = data
	default:
		return Result{}, fmt.Errorf("export: %q: %w", format, ErrUnknownFormat)
	}

	s.logger.Info("export.ok", "kind", kind, "format", format, "rows", res.Rows, "bytes", len(res.Data),
		"elapsed_ms", time.Since(start).Milliseconds())
	return res, nil
}

// Workbook renders venues and vendors as two sheets of one XLSX file.
func (s *Service) Workbook(st entity.ApplicationState) (Result, error) {
	data, err := writeXLSX(venueTable(st.Venues), vendorTable(st.Vendors))
	if err != nil {
		return Result{}, err
	}
	s.logger.Info("export.workbook.ok", "venues", len(st.Venues), "vendors", len(st.Vendors), "bytes", len(data))
	return Result{
		FileName:    fmt.Sprintf("wedding-planner-%s.xlsx", s.now().Format("2006-01-02")),
		ContentType: FormatXLSX.ContentType(),
		Data:        data,
		Rows:        len(st.Venues) + len(st.Vendors),
	}, nil
}

func writeXLSX(tables ...table) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	for i, t := range tables {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", t.sheet); err != nil {
				return nil, err
			}
		} else if _, err := f.NewSheet(t.sheet); err != nil {
			return nil, err
		}

		header := make([]any, len(t.headers))
		for j, h := range t.headers {
			header[j] = h
		}
		if err := f.SetSheetRow(t.sheet, "A1", &header); err != nil {
			return nil, err
		}
		for r, row := range t.rows {
			cell, _ := excelize.CoordinatesToCellName(1, r+2)
			if err := f.SetSheetRow(t.sheet, cell, &row); err != nil {
				return nil, err
			}
		}
		for j, w := range t.widths {
			col, _ := excelize.ColumnNumberToName(j + 1)
			_ = f.SetColWidth(t.sheet, col, col, w)
		}
		if err := f.SetPanes(t.sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
			return nil, err
		}
	}

	idx, _ := f.GetSheetIndex(tables[0].sheet)
	f.SetActiveSheet(idx)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}
