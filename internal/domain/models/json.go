package models

import (
	"encoding/json"
	"math"
)

// finite encodes NaN and infinities as null, which encoding/json rejects otherwise.
type finite float64

func (f finite) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(v)
}

// MarshalJSON writes non-finite derived values as null.
func (d DerivedSale) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID           int64  `json:"id"`
		Date         string `json:"date"`
		ItemName     string `json:"itemName"`
		CashPrice    finite `json:"cashPrice"`
		OnlinePrice  finite `json:"onlinePrice"`
		SellingPrice finite `json:"sellingPrice"`
		Capital      finite `json:"capital"`
		Quantity     finite `json:"quantity"`
		Profit       finite `json:"profit"`
		TotalSales   finite `json:"totalSales"`
		TotalCapital finite `json:"totalCapital"`
		TotalCash    finite `json:"totalCash"`
		TotalOnline  finite `json:"totalOnline"`
	}{
		ID:           d.ID,
		Date:         d.Date,
		ItemName:     d.ItemName,
		CashPrice:    finite(d.CashPrice),
		OnlinePrice:  finite(d.OnlinePrice),
		SellingPrice: finite(d.SellingPrice),
		Capital:      finite(d.Capital),
		Quantity:     finite(d.Quantity),
		Profit:       finite(d.Profit),
		TotalSales:   finite(d.TotalSales),
		TotalCapital: finite(d.TotalCapital),
		TotalCash:    finite(d.TotalCash),
		TotalOnline:  finite(d.TotalOnline),
	})
}

// MarshalJSON writes non-finite totals as null.
func (t Totals) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		TotalSales   finite `json:"totalSales"`
		TotalCapital finite `json:"totalCapital"`
		TotalProfit  finite `json:"totalProfit"`
		TotalCash    finite `json:"totalCash"`
		TotalOnline  finite `json:"totalOnline"`
	}{
		TotalSales:   finite(t.TotalSales),
		TotalCapital: finite(t.TotalCapital),
		TotalProfit:  finite(t.TotalProfit),
		TotalCash:    finite(t.TotalCash),
		TotalOnline:  finite(t.TotalOnline),
	})
}
