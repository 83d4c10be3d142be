package market

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDAcceptsStringsAndNumbers(t *testing.T) {
	var payload struct {
		A ID `json:"a"`
		B ID `json:"b"`
		C ID `json:"c"`
	}
	err := json.Unmarshal([]byte(`{"a":"abc-1","b":42,"c":null}`), &payload)
	require.NoError(t, err)

	assert.Equal(t, ID("abc-1"), payload.A)
	assert.Equal(t, ID("42"), payload.B)
	assert.Equal(t, ID(""), payload.C)
}

func TestStockDecodesNumericPrices(t *testing.T) {
	var stocks []Stock
	err := json.Unmarshal([]byte(`[{"id":"1","symbol":"ACME","name":"Acme Co","current_price":10.00,"price_change":-1.5}]`), &stocks)
	require.NoError(t, err)
	require.Len(t, stocks, 1)

	assert.True(t, stocks[0].CurrentPrice.Equal(decimal.NewFromInt(10)))
	assert.True(t, stocks[0].PriceChange.Equal(decimal.RequireFromString("-1.5")))
}

func TestOrderRequestWritesNumbers(t *testing.T) {
	req := OrderRequest{
		StockID:  "1",
		Side:     SideBuy,
		Quantity: 5,
		Price:    decimal.RequireFromString("10"),
	}
	b, err := json.Marshal(req)
	require.NoError(t, err)
	assert.JSONEq(t, `{"stock_id":"1","type":"buy","quantity":5,"price":10.00}`, string(b))
}

func TestTimestampLayouts(t *testing.T) {
	cases := []string{
		`"2024-03-01T10:20:30Z"`,
		`"2024-03-01T10:20:30.123456"`,
		`"2024-03-01 10:20:30"`,
		`"2024-03-01"`,
	}
	for _, c := range cases {
		var ts Timestamp
		require.NoError(t, json.Unmarshal([]byte(c), &ts), c)
		assert.Equal(t, 2024, ts.Year(), c)
		assert.Equal(t, 3, int(ts.Month()), c)
	}

	var bad Timestamp
	assert.Error(t, json.Unmarshal([]byte(`"yesterday"`), &bad))
}

func TestSideOpposite(t *testing.T) {
	assert.Equal(t, SideSell, SideBuy.Opposite())
	assert.Equal(t, SideBuy, SideSell.Opposite())
	assert.False(t, Side("hold").Valid())
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "$10.00", FormatPrice(decimal.NewFromInt(10)))
	assert.Equal(t, "$0.50", FormatPrice(decimal.RequireFromString("0.5")))
	assert.Equal(t, "+0.00%", FormatChange(decimal.Zero))
	assert.Equal(t, "+2.35%", FormatChange(decimal.RequireFromString("2.345")))
	assert.Equal(t, "-1.50%", FormatChange(decimal.RequireFromString("-1.5")))
	assert.Equal(t, "-0.00%", FormatChange(decimal.RequireFromString("-0.001")))
	assert.Equal(t, "+0.00%", FormatChange(decimal.RequireFromString("0.001")))
}
