package export

import (
	"bytes"
	"strconv"
	"strings"
)

// writeCSV renders t with every field double-quoted and embedded quotes
// doubled, so spreadsheet apps never reinterpret a value.
func writeCSV(t table) []byte {
	var b bytes.Buffer
	b.WriteString("\ufeff")
	writeCSVRow(&b, stringsOf(t.headers))
	for _, row := range t.rows {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = csvValue(v)
		}
		writeCSVRow(&b, cells)
	}
	return b.Bytes()
}

func writeCSVRow(b *bytes.Buffer, cells []string) {
	for i, c := range cells {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('"')
		b.WriteString(strings.ReplaceAll(c, `"`, `""`))
		b.WriteByte('"')
	}
	b.WriteString("\r\n")
}

func csvValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case int:
		return strconv.Itoa(t)
	case float64:
		return strconv.FormatFloat(t, 'f', 2, 64)
	}
	return ""
}

func stringsOf(in []string) []string { return append([]string(nil), in...) }
