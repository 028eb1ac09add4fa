package export

import (
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"github.com/zombor/soliq-checkmate/internal/ofd"
)

// SheetName is the name of the single sheet of an exported workbook
const SheetName = "Чек"

// widthMargin is added to the longest value of each column
const widthMargin = 2

// WriteXLSX writes table as a single-sheet workbook with a header row and
// columns sized to their longest value
func WriteXLSX(w io.Writer, table ofd.Table) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}

	header := make([]interface{}, len(ofd.Columns))
	for i, c := range ofd.Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, item := range table.Items {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := cellValues(item)
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return fmt.Errorf("writing row %d: %w", i, err)
		}
	}

	for i, width := range columnWidths(table) {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(SheetName, col, col, float64(width)); err != nil {
			return fmt.Errorf("sizing column %s: %w", col, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

// columnWidths returns, per column, the longest header or value plus a margin
func columnWidths(table ofd.Table) []int {
	widths := make([]int, len(ofd.Columns))
	for i, c := range ofd.Columns {
		widths[i] = utf8.RuneCountInString(c)
	}
	for _, item := range table.Items {
		for i, v := range textValues(item) {
			widths[i] = max(widths[i], utf8.RuneCountInString(v))
		}
	}
	for i := range widths {
		widths[i] += widthMargin
	}
	return widths
}

func cellValues(item ofd.Item) []interface{} {
	return []interface{}{
		item.Name,
		numericCell(item.Quantity),
		numericCell(item.UnitPrice),
		item.Discount,
		numericCell(item.Barcode),
		numericCell(item.MXIKCode),
		item.MXIKName,
		item.MarkingCode,
	}
}

// numericCell keeps integers exact; codes too long for int64 stay text
func numericCell(d decimal.NullDecimal) interface{} {
	if !d.Valid {
		return nil
	}
	s := d.Decimal.String()
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if !strings.Contains(s, ".") {
		return s
	}
	f, _ := d.Decimal.Float64()
	return f
}

// ReadXLSX reads a workbook written by WriteXLSX back into a table
func ReadXLSX(r io.Reader) (ofd.Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return ofd.Table{}, fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0), excelize.Options{RawCellValue: true})
	if err != nil {
		return ofd.Table{}, fmt.Errorf("reading rows: %w", err)
	}
	if len(rows) == 0 || !slices.Equal(rows[0], ofd.Columns) {
		return ofd.Table{}, fmt.Errorf("unexpected header row")
	}

	items := make([]ofd.Item, 0, len(rows)-1)
	for _, row := range rows[1:] {
		// GetRows drops trailing empty cells
		values := make([]string, len(ofd.Columns))
		copy(values, row)
		items = append(items, ofd.Item{
			Name:        values[0],
			Quantity:    parseDecimal(values[1]),
			UnitPrice:   parseDecimal(values[2]),
			Discount:    values[3],
			Barcode:     parseDecimal(values[4]),
			MXIKCode:    parseDecimal(values[5]),
			MXIKName:    values[6],
			MarkingCode: values[7],
		})
	}
	return ofd.Table{Items: items}, nil
}

func parseDecimal(s string) decimal.NullDecimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: d, Valid: true}
}
