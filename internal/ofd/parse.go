package ofd

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"github.com/shopspring/decimal"
)

const (
	itemRowSelector       = "tr.products-row"
	annotationRowSelector = "tr.code-row"
)

// rawItem holds the untyped cell text of one item before coercion
type rawItem struct {
	name        string
	quantity    string
	unitPrice   string
	discount    string
	barcode     string
	mxikCode    string
	mxikName    string
	markingCode string
}

// annotationRule maps a label keyword to the field it fills
type annotationRule struct {
	keyword string
	clean   func(string) string
	assign  func(item *rawItem, value string)
}

// annotationRules are tried in order; the first keyword contained in the
// label wins and unknown labels are skipped
var annotationRules = []annotationRule{
	{keyword: "Chegirma", assign: func(item *rawItem, v string) { item.discount = v }},
	{keyword: "Shtrix kodi", clean: digitsOnly, assign: func(item *rawItem, v string) { item.barcode = v }},
	{keyword: "MXIK kodi", clean: digitsOnly, assign: func(item *rawItem, v string) { item.mxikCode = v }},
	{keyword: "MXIK nomi", assign: func(item *rawItem, v string) { item.mxikName = v }},
	{keyword: "Markirovka kodi", assign: func(item *rawItem, v string) { item.markingCode = v }},
}

// Parse extracts the receipt items from a receipt page. A page without item
// rows yields an empty Table and no error
func Parse(markup string) (Table, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return Table{}, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}

	rows := doc.Find(itemRowSelector)
	if rows.Length() == 0 {
		return Table{}, nil
	}

	raws := make([]rawItem, 0, rows.Length())
	for i := range rows.Nodes {
		raw, err := readItem(i, rows.Eq(i))
		if err != nil {
			return Table{}, err
		}
		raws = append(raws, raw)
	}

	items := make([]Item, len(raws))
	for i, raw := range raws {
		items[i] = raw.normalize()
	}
	return Table{Items: items}, nil
}

// readItem reads the item row and every annotation row up to the next item row
func readItem(index int, row *goquery.Selection) (rawItem, error) {
	cells := row.Find("td")
	if cells.Length() < 3 {
		return rawItem{}, &MalformedError{Row: index, Cells: cells.Length(), Reason: "item row needs name, quantity and price cells"}
	}

	item := rawItem{
		name:      cellText(cells.Eq(0)),
		quantity:  cellText(cells.Eq(1)),
		unitPrice: cleanPrice(cellText(cells.Eq(2))),
	}

	var err error
	row.NextUntil(itemRowSelector).Filter(annotationRowSelector).EachWithBreak(func(_ int, annotation *goquery.Selection) bool {
		annotationCells := annotation.Find("td")
		if annotationCells.Length() == 0 {
			err = &MalformedError{Row: index, Cells: 0, Reason: "annotation row has no cells"}
			return false
		}
		// a single-cell row carries label and value in the same cell
		label := cellText(annotationCells.First())
		value := cellText(annotationCells.Last())
		applyAnnotation(&item, label, value)
		return true
	})
	if err != nil {
		return rawItem{}, err
	}

	return item, nil
}

func applyAnnotation(item *rawItem, label, value string) {
	for _, rule := range annotationRules {
		if !strings.Contains(label, rule.keyword) {
			continue
		}
		if rule.clean != nil {
			value = rule.clean(value)
		}
		rule.assign(item, value)
		return
	}
}

// normalize trims every text field and coerces the numeric ones
func (r rawItem) normalize() Item {
	price := toDecimal(r.unitPrice)
	if price.Valid {
		price.Decimal = price.Decimal.Round(2)
	}

	return Item{
		Name:        strings.TrimSpace(r.name),
		Quantity:    toDecimal(r.quantity),
		UnitPrice:   price,
		Discount:    strings.TrimSpace(r.discount),
		Barcode:     toDecimal(r.barcode),
		MXIKCode:    toDecimal(r.mxikCode),
		MXIKName:    strings.TrimSpace(r.mxikName),
		MarkingCode: strings.TrimSpace(r.markingCode),
	}
}

func cellText(cell *goquery.Selection) string {
	return strings.TrimSpace(cell.Text())
}

// cleanPrice drops thousands separators: "15,000.50" -> "15000.50"
func cleanPrice(s string) string {
	return strings.Map(func(r rune) rune {
		if r == ',' || unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

func digitsOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}

// toDecimal never fails: text that is not a number becomes a null decimal
func toDecimal(s string) decimal.NullDecimal {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: d, Valid: true}
}
