package document

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
)

var ErrUnsupportedFormat = errors.New("unsupported file format")

// Prepared is a file reduced to what a model can read: either the original
// bytes (PDF, image) or flattened text.
type Prepared struct {
	Name     string
	MIMEType string
	Inline   []byte
	Text     string
	Sheets   int
}

func (p Prepared) Attached() bool { return len(p.Inline) > 0 }

// Prepare converts f for extraction. Spreadsheets are flattened sheet by sheet
// into tab-separated rows.
func Prepare(f File) (Prepared, error) {
	out := Prepared{Name: f.Name, MIMEType: f.MIMEType}
	if len(f.Data) == 0 {
		return out, fmt.Errorf("%s: file is empty", f.Name)
	}

	switch f.Ext() {
	case "pdf", "png", "jpg", "jpeg", "webp", "heic":
		out.Inline = f.Data
		return out, nil
	case "xlsx":
		text, sheets, err := flattenWorkbook(f.Data)
		if err != nil {
			return out, fmt.Errorf("%s: read spreadsheet: %w", f.Name, err)
		}
		out.Text, out.Sheets = text, sheets
		return out, nil
	case "csv", "txt", "md":
		if !utf8.Valid(f.Data) {
			return out, fmt.Errorf("%s: text is not valid UTF-8", f.Name)
		}
		out.Text = strings.TrimPrefix(string(f.Data), "\ufeff")
		return out, nil
	}
	return out, fmt.Errorf("%s (.%s): %w", f.Name, f.Ext(), ErrUnsupportedFormat)
}

func flattenWorkbook(data []byte) (string, int, error) {
	wb, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return "", 0, err
	}
	defer func() { _ = wb.Close() }()

	var b strings.Builder
	sheets := wb.GetSheetList()
	for _, sheet := range sheets {
		rows, err := wb.GetRows(sheet)
		if err != nil {
			return "", 0, fmt.Errorf("sheet %q: %w", sheet, err)
		}
		if len(rows) == 0 {
			continue
		}
		fmt.Fprintf(&b, "## Sheet: %s\n", sheet)
		for _, row := range rows {
			line := strings.TrimRight(strings.Join(row, "\t"), "\t")
			if strings.TrimSpace(line) == "" {
				continue
			}
			b.WriteString(line)
			b.WriteByte('\n')
		}
		b.WriteByte('\n')
	}
	return strings.TrimSpace(b.String()), len(sheets), nil
}
