package models

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const fallbackPrefix = "TRX-"

var (
	soldPattern  = regexp.MustCompile(`Sold\s+(\d+)\s+unit`)
	orderPattern = regexp.MustCompile(`Order\s*#\s*(\d+)`)
)

// SaleDetails is the quantity and order number of a stock_out log.
type SaleDetails struct {
	Quantity    int
	OrderNumber string
	// Fallback is set when no order number exists anywhere for the log.
	Fallback string
}

// DisplayOrderNumber renders the order reference shown to users. Backfilled
// fallback references are stored as-is and shown without the # prefix.
func (s SaleDetails) DisplayOrderNumber() string {
	switch {
	case strings.HasPrefix(s.OrderNumber, fallbackPrefix):
		return s.OrderNumber
	case s.OrderNumber != "":
		return "#" + s.OrderNumber
	default:
		return s.Fallback
	}
}

// DetailsParser extracts sale fields from a free-text log description.
type DetailsParser interface {
	Parse(details string) SaleDetails
}

// LegacyDetailsParser reads the "Sold N unit(s) - Order #M" convention.
type LegacyDetailsParser struct{}

// Parse implements DetailsParser.
func (LegacyDetailsParser) Parse(details string) SaleDetails {
	return ParseSaleDetails(details)
}

// ParseSaleDetails derives quantity and order number from a details string.
// A missing quantity yields 1 and a missing order number yields an empty string.
func ParseSaleDetails(details string) SaleDetails {
	sale := SaleDetails{Quantity: 1}

	if m := soldPattern.FindStringSubmatch(details); m != nil {
		if qty, err := strconv.Atoi(m[1]); err == nil && qty > 0 {
			sale.Quantity = qty
		}
	}
	if m := orderPattern.FindStringSubmatch(details); m != nil {
		sale.OrderNumber = m[1]
	}

	return sale
}

// FormatSaleDetails writes the legacy description for a new stock_out log.
func FormatSaleDetails(quantity int, orderNumber string) string {
	unit := "units"
	if quantity == 1 {
		unit = "unit"
	}
	return fmt.Sprintf("Sold %d %s - Order #%s", quantity, unit, orderNumber)
}

// FormatRestockDetails writes the description for a stock_in log.
func FormatRestockDetails(quantity int) string {
	unit := "units"
	if quantity == 1 {
		unit = "unit"
	}
	return fmt.Sprintf("Added %d %s to stock", quantity, unit)
}

// FallbackOrderNumber builds a reference from the first 8 characters of a log id.
func FallbackOrderNumber(id string) string {
	short := strings.ReplaceAll(id, "-", "")
	if len(short) > 8 {
		short = short[:8]
	}
	return fallbackPrefix + strings.ToUpper(short)
}
