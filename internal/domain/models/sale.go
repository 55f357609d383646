package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// DateLayout is the calendar date format used by the ledger (ISO 8601).
const DateLayout = "2006-01-02"

// SaleRecord is a sale as written to the ledger. It is created once and never edited.
type SaleRecord struct {
	ID          int64   `json:"id"`
	Date        string  `json:"date"`
	ItemName    string  `json:"itemName"`
	CashPrice   float64 `json:"cashPrice"`
	OnlinePrice float64 `json:"onlinePrice"`
	Capital     float64 `json:"capital"`
	Quantity    int     `json:"quantity"`
}

// Cell is a loosely typed ledger value. The spreadsheet endpoint returns
// numbers and strings interchangeably, so both decode into their text form.
type Cell string

// UnmarshalJSON accepts JSON strings, numbers, booleans and null.
func (c *Cell) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	switch {
	case len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")):
		*c = ""
	case trimmed[0] == '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return fmt.Errorf("decode cell: %w", err)
		}
		*c = Cell(s)
	default:
		*c = Cell(trimmed)
	}
	return nil
}

// CellOf converts a raw spreadsheet value into a Cell. Floats are written out
// in full so millisecond ids keep every digit.
func CellOf(value interface{}) Cell {
	switch v := value.(type) {
	case nil:
		return ""
	case float64:
		return Cell(strconv.FormatFloat(v, 'f', -1, 64))
	default:
		return Cell(fmt.Sprint(v))
	}
}

// String returns the trimmed text of the cell.
func (c Cell) String() string {
	return strings.TrimSpace(string(c))
}

// Empty reports whether the cell holds no value.
func (c Cell) Empty() bool {
	return c.String() == ""
}

// RawSale is a sale exactly as listed by the ledger, before any parsing.
type RawSale struct {
	ID          Cell `json:"id"`
	Date        Cell `json:"date"`
	ItemName    Cell `json:"itemName"`
	CashPrice   Cell `json:"cashPrice"`
	OnlinePrice Cell `json:"onlinePrice"`
	Capital     Cell `json:"capital"`
	Quantity    Cell `json:"quantity"`
}

// DerivedSale is a ledger row decorated with computed fields. It is never persisted.
// Capital and Quantity are NaN when the stored value could not be parsed, and
// the NaN carries into every field computed from them.
type DerivedSale struct {
	ID           int64   `json:"id"`
	Date         string  `json:"date"`
	ItemName     string  `json:"itemName"`
	CashPrice    float64 `json:"cashPrice"`
	OnlinePrice  float64 `json:"onlinePrice"`
	SellingPrice float64 `json:"sellingPrice"`
	Capital      float64 `json:"capital"`
	Quantity     float64 `json:"quantity"`
	Profit       float64 `json:"profit"`
	TotalSales   float64 `json:"totalSales"`
	TotalCapital float64 `json:"totalCapital"`
	TotalCash    float64 `json:"totalCash"`
	TotalOnline  float64 `json:"totalOnline"`
}

// Totals is the rollup of a set of derived sales. The zero value is the identity.
type Totals struct {
	TotalSales   float64 `json:"totalSales" bson:"total_sales"`
	TotalCapital float64 `json:"totalCapital" bson:"total_capital"`
	TotalProfit  float64 `json:"totalProfit" bson:"total_profit"`
	TotalCash    float64 `json:"totalCash" bson:"total_cash"`
	TotalOnline  float64 `json:"totalOnline" bson:"total_online"`
}

// Add folds one sale into the totals.
func (t Totals) Add(sale DerivedSale) Totals {
	return Totals{
		TotalSales:   t.TotalSales + sale.TotalSales,
		TotalCapital: t.TotalCapital + sale.TotalCapital,
		TotalProfit:  t.TotalProfit + sale.Profit,
		TotalCash:    t.TotalCash + sale.TotalCash,
		TotalOnline:  t.TotalOnline + sale.TotalOnline,
	}
}

// FormatAmount renders a monetary amount with two decimals.
func FormatAmount(v float64) string {
	return fmt.Sprintf("$%.2f", v)
}
