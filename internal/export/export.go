// Package export writes receipt tables as spreadsheets or delimited text
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/zombor/soliq-checkmate/internal/ofd"
)

// Format is an export file format
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

// ParseFormat accepts "xlsx" or "csv" in any case; empty means xlsx
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatXLSX:
		return FormatXLSX, nil
	case FormatCSV:
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("unsupported export format %q (must be xlsx or csv)", s)
	}
}

// Extension returns the file extension without the dot
func (f Format) Extension() string {
	return string(f)
}

// ContentType returns the MIME type of the format
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	default:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
}

// Filename names an export check_<identifier>.<ext>, with path separators in
// the identifier replaced by underscores
func Filename(identifier string, format Format) string {
	return fmt.Sprintf("check_%s.%s", pathSafe(identifier), format.Extension())
}

func pathSafe(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' {
			return '_'
		}
		return r
	}, s)
}

// Write renders table to w in the given format
func Write(w io.Writer, table ofd.Table, format Format) error {
	switch format {
	case FormatXLSX:
		return WriteXLSX(w, table)
	case FormatCSV:
		return WriteCSV(w, table)
	default:
		return fmt.Errorf("unsupported export format %q", format)
	}
}

// textValues renders an item in column order; missing numbers become ""
func textValues(item ofd.Item) []string {
	return []string{
		item.Name,
		decimalText(item.Quantity),
		decimalText(item.UnitPrice),
		item.Discount,
		decimalText(item.Barcode),
		decimalText(item.MXIKCode),
		item.MXIKName,
		item.MarkingCode,
	}
}

func decimalText(d decimal.NullDecimal) string {
	if !d.Valid {
		return ""
	}
	return d.Decimal.String()
}
