package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCell_UnmarshalMixedTypes(t *testing.T) {
	payload := `[{"id":1704067200000,"date":"2024-01-01","itemName":"Bag","cashPrice":"10","onlinePrice":null,"capital":4.5,"quantity":"3"}]`

	var rows []RawSale
	require.NoError(t, json.Unmarshal([]byte(payload), &rows))
	require.Len(t, rows, 1)

	row := rows[0]
	assert.Equal(t, "1704067200000", row.ID.String())
	assert.Equal(t, "2024-01-01", row.Date.String())
	assert.Equal(t, "10", row.CashPrice.String())
	assert.True(t, row.OnlinePrice.Empty())
	assert.Equal(t, "4.5", row.Capital.String())
	assert.Equal(t, "3", row.Quantity.String())
}

func TestCell_MissingField(t *testing.T) {
	var row RawSale
	require.NoError(t, json.Unmarshal([]byte(`{"id":1,"capital":2}`), &row))
	assert.True(t, row.CashPrice.Empty())
	assert.True(t, row.Quantity.Empty())
}

func TestCellOf(t *testing.T) {
	assert.Equal(t, Cell(""), CellOf(nil))
	assert.Equal(t, Cell("12.5"), CellOf(12.5))
	assert.Equal(t, Cell("Bag"), CellOf("Bag"))
	assert.Equal(t, Cell("1704067234567"), CellOf(float64(1704067234567)))
}

func TestTotals_Add(t *testing.T) {
	sale := DerivedSale{TotalSales: 30, TotalCapital: 12, Profit: 18, TotalCash: 30}
	got := Totals{}.Add(sale).Add(sale)
	assert.Equal(t, Totals{TotalSales: 60, TotalCapital: 24, TotalProfit: 36, TotalCash: 60}, got)
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "$18.00", FormatAmount(18))
	assert.Equal(t, "$0.10", FormatAmount(0.1))
}

func TestErrors(t *testing.T) {
	var err error = &ValidationError{Field: "capital", Message: "Please fill in item name and capital"}
	assert.True(t, errors.Is(err, ErrValidation))
	assert.Equal(t, "Please fill in item name and capital", err.Error())

	cause := errors.New("connection refused")
	wrapped := fmt.Errorf("refresh: %w", &TransportError{Op: "list", Err: cause})
	var transportErr *TransportError
	require.True(t, errors.As(wrapped, &transportErr))
	assert.ErrorIs(t, wrapped, cause)
	assert.Equal(t, "ledger list: status 502: connection refused", (&TransportError{Op: "list", StatusCode: 502, Err: cause}).Error())
}

func TestDerivedSale_MarshalNaNAsNull(t *testing.T) {
	nan := math.NaN()
	sale := DerivedSale{ID: 7, Date: "2024-01-01", ItemName: "Bag", CashPrice: 10, Capital: nan, Quantity: 2, Profit: nan, TotalSales: 20, TotalCapital: nan, TotalCash: 20}

	data, err := json.Marshal(sale)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Nil(t, decoded["capital"])
	assert.Nil(t, decoded["profit"])
	assert.Equal(t, float64(20), decoded["totalSales"])
	assert.Equal(t, "Bag", decoded["itemName"])
}

func TestTotals_MarshalJSON(t *testing.T) {
	data, err := json.Marshal(Totals{TotalSales: 30, TotalProfit: math.NaN()})
	require.NoError(t, err)
	assert.JSONEq(t, `{"totalSales":30,"totalCapital":0,"totalProfit":null,"totalCash":0,"totalOnline":0}`, string(data))
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		in   string
		typ  CommandType
		date string
	}{
		{"/report", CommandReport, ""},
		{"report 2024-01-02", CommandReport, "2024-01-02"},
		{"  /SALES   2024-01-02 ", CommandSales, "2024-01-02"},
		{"/totals", CommandTotals, ""},
		{"help", CommandHelp, ""},
		{"/eggs 12", CommandUnknown, "12"},
		{"   ", CommandUnknown, ""},
	}
	for _, tt := range tests {
		cmd := ParseCommand(tt.in)
		assert.Equal(t, tt.typ, cmd.Type, tt.in)
		assert.Equal(t, tt.date, cmd.Date(), tt.in)
		assert.Equal(t, tt.in, cmd.Raw)
	}
}

func TestInboundMessage_Body(t *testing.T) {
	assert.Equal(t, "/report", InboundMessage{Text: &TextContent{Body: "/report"}}.Body())
	assert.Equal(t, "totals", InboundMessage{Interactive: &InteractiveContent{ButtonReply: &ButtonReply{ID: "totals"}}}.Body())
	assert.Empty(t, InboundMessage{Type: "image"}.Body())
}
