package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSaleDetails(t *testing.T) {
	cases := []struct {
		name    string
		details string
		want    SaleDetails
	}{
		{"quantity and order", "Sold 3 units - Order #1042", SaleDetails{Quantity: 3, OrderNumber: "1042"}},
		{"singular unit", "Sold 1 unit", SaleDetails{Quantity: 1}},
		{"zero quantity", "Sold 0 units - Order #7", SaleDetails{Quantity: 1, OrderNumber: "7"}},
		{"no order reference", "Sold 4 units to walk-in", SaleDetails{Quantity: 4}},
		{"free text", "Inventory correction", SaleDetails{Quantity: 1}},
		{"empty", "", SaleDetails{Quantity: 1}},
		{"overflowing quantity", "Sold 99999999999999999999 units - Order #12", SaleDetails{Quantity: 1, OrderNumber: "12"}},
		{"spaced order mark", "Sold 2 units - Order # 55", SaleDetails{Quantity: 2, OrderNumber: "55"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ParseSaleDetails(tc.details))
		})
	}
}

func TestFormatSaleDetailsRoundTrips(t *testing.T) {
	assert.Equal(t, "Sold 1 unit - Order #1001", FormatSaleDetails(1, "1001"))
	assert.Equal(t, "Sold 3 units - Order #1042", FormatSaleDetails(3, "1042"))
	assert.Equal(t, SaleDetails{Quantity: 3, OrderNumber: "1042"}, ParseSaleDetails(FormatSaleDetails(3, "1042")))
}

func TestFallbackOrderNumber(t *testing.T) {
	assert.Equal(t, "TRX-AB12", FallbackOrderNumber("ab12"))
	assert.Equal(t, "TRX-", FallbackOrderNumber(""))
	assert.Equal(t, "TRX-3F2B9C1D", FallbackOrderNumber("3f2b9c1d-4e5f-6789-abcd-ef0123456789"))
	assert.Equal(t, "TRX-A1B2C3", FallbackOrderNumber("a1-b2-c3"))
}

func TestDisplayOrderNumber(t *testing.T) {
	assert.Equal(t, "#1042", SaleDetails{OrderNumber: "1042"}.DisplayOrderNumber())
	assert.Equal(t, "TRX-3F2B9C1D", SaleDetails{OrderNumber: "TRX-3F2B9C1D"}.DisplayOrderNumber())
	assert.Equal(t, "TRX-AB12", SaleDetails{Fallback: "TRX-AB12"}.DisplayOrderNumber())
	assert.Empty(t, SaleDetails{}.DisplayOrderNumber())
}

func TestSaleLogPrefersStructuredColumns(t *testing.T) {
	qty, order := 5, "2001"

	structured := SaleLog{ID: "log-1", Quantity: &qty, OrderNumber: &order, Details: "Sold 1 unit - Order #9"}
	assert.Equal(t, SaleDetails{Quantity: 5, OrderNumber: "2001"}, structured.Sale(nil))

	legacy := SaleLog{ID: "log-2", Details: "Sold 3 units - Order #1042"}
	assert.Equal(t, SaleDetails{Quantity: 3, OrderNumber: "1042"}, legacy.Sale(LegacyDetailsParser{}))

	bare := SaleLog{ID: "9f8e7d6c-5b4a", Details: "Sold 2 units"}
	sale := bare.Sale(nil)
	assert.Equal(t, 2, sale.Quantity)
	assert.Equal(t, "TRX-9F8E7D6C", sale.DisplayOrderNumber())
}

func TestParseStoreTime(t *testing.T) {
	want := time.Date(2024, 3, 6, 10, 0, 0, 0, time.UTC)

	for _, raw := range []string{
		"2024-03-06T10:00:00Z",
		"2024-03-06T10:00:00+00:00",
		"2024-03-06T12:00:00+02:00",
		"2024-03-06T10:00:00",
		"2024-03-06 10:00:00",
		"2024-03-06 10:00:00+00",
		"2024-03-06T10:00:00.000000",
	} {
		got, err := ParseStoreTime(raw)
		require.NoError(t, err, raw)
		assert.True(t, got.Equal(want), "%s parsed as %s", raw, got)
	}

	zero, err := ParseStoreTime("")
	require.NoError(t, err)
	assert.True(t, zero.IsZero())

	_, err = ParseStoreTime("06/03/2024")
	assert.Error(t, err)
}

func TestSaleLogDecodesZonelessTimestamp(t *testing.T) {
	var log SaleLog
	require.NoError(t, json.Unmarshal([]byte(`{"id":"log-1","item_id":"i-1","action":"stock_out","timestamp":"2024-03-06T10:00:00","quantity":2,"items":{"id":"i-1","name":"Mouse","price":25}}`), &log))

	assert.True(t, log.Timestamp.Equal(time.Date(2024, 3, 6, 10, 0, 0, 0, time.UTC)))
	assert.Equal(t, "log-1", log.ID)
	require.NotNil(t, log.Quantity)
	assert.Equal(t, 2, *log.Quantity)
	assert.Equal(t, "Mouse", log.ProductName())

	var bad SaleLog
	assert.Error(t, json.Unmarshal([]byte(`{"id":"log-2","timestamp":"yesterday"}`), &bad))
}
