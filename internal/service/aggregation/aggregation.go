// Package aggregation derives per-sale figures from raw ledger rows and folds
// them into totals. Everything here is pure: nothing is cached or persisted.
package aggregation

import (
	"math"

	"github.com/mamadbah2/salestracker/internal/domain/models"
)

// Decorate computes the derived fields of every record. Empty cash and online
// prices count as zero. Any other unreadable number yields NaN figures; such
// rows are kept so the problem stays visible.
func Decorate(records []models.RawSale) []models.DerivedSale {
	out := make([]models.DerivedSale, 0, len(records))
	for _, record := range records {
		out = append(out, DecorateOne(record))
	}
	return out
}

// DecorateOne computes the derived fields of a single record.
func DecorateOne(record models.RawSale) models.DerivedSale {
	cash := priceOf(record.CashPrice)
	online := priceOf(record.OnlinePrice)
	capital := ParseAmount(record.Capital.String())
	quantity := ParseQuantity(record.Quantity.String())
	selling := cash + online

	return models.DerivedSale{
		ID:           parseID(record.ID),
		Date:         record.Date.String(),
		ItemName:     record.ItemName.String(),
		CashPrice:    cash,
		OnlinePrice:  online,
		SellingPrice: selling,
		Capital:      capital,
		Quantity:     quantity,
		Profit:       (selling - capital) * quantity,
		TotalSales:   selling * quantity,
		TotalCapital: capital * quantity,
		TotalCash:    cash * quantity,
		TotalOnline:  online * quantity,
	}
}

// Aggregate sums the totals of all sales.
func Aggregate(sales []models.DerivedSale) models.Totals {
	var totals models.Totals
	for _, sale := range sales {
		totals = totals.Add(sale)
	}
	return totals
}

// AggregateByDate sums the totals of the sales whose date equals date exactly.
func AggregateByDate(sales []models.DerivedSale, date string) models.Totals {
	return Aggregate(FilterByDate(sales, date))
}

// FilterByDate returns the sales recorded on date, in input order.
func FilterByDate(sales []models.DerivedSale, date string) []models.DerivedSale {
	var out []models.DerivedSale
	for _, sale := range sales {
		if sale.Date == date {
			out = append(out, sale)
		}
	}
	return out
}

func priceOf(cell models.Cell) float64 {
	if cell.Empty() {
		return 0
	}
	return ParseAmount(cell.String())
}

// ledger ids are millisecond timestamps; spreadsheets may render them as floats.
func parseID(cell models.Cell) int64 {
	v := ParseAmount(cell.String())
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return int64(v)
}
