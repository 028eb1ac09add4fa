package ofd

import "github.com/shopspring/decimal"

// Column headers of an exported receipt, in output order
const (
	ColumnName        = "Nomi"
	ColumnQuantity    = "Soni"
	ColumnUnitPrice   = "Narxi"
	ColumnDiscount    = "Chegirma"
	ColumnBarcode     = "Shtrix kodi"
	ColumnMXIKCode    = "MXIK-kod"
	ColumnMXIKName    = "MXIK nomi"
	ColumnMarkingCode = "Markirovka kodi"
)

// Columns is the fixed column order of a Table
var Columns = []string{
	ColumnName,
	ColumnQuantity,
	ColumnUnitPrice,
	ColumnDiscount,
	ColumnBarcode,
	ColumnMXIKCode,
	ColumnMXIKName,
	ColumnMarkingCode,
}

// Item is one line of a fiscal receipt; numeric fields that could not be
// coerced have Valid set to false
type Item struct {
	Name        string              `json:"name"`
	Quantity    decimal.NullDecimal `json:"quantity"`
	UnitPrice   decimal.NullDecimal `json:"unit_price"`
	Discount    string              `json:"discount"`
	Barcode     decimal.NullDecimal `json:"barcode"`
	MXIKCode    decimal.NullDecimal `json:"mxik_code"`
	MXIKName    string              `json:"mxik_name"`
	MarkingCode string              `json:"marking_code"`
}

// Table is the ordered list of items found on a receipt page
type Table struct {
	Items []Item `json:"items"`
}

// Len returns the number of items
func (t Table) Len() int {
	return len(t.Items)
}

// Empty reports whether the receipt held no items
func (t Table) Empty() bool {
	return len(t.Items) == 0
}
