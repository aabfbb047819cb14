package models

import "time"

// LogAction is the inventory movement recorded by a sale log.
type LogAction string

const (
	ActionStockIn  LogAction = "stock_in"
	ActionStockOut LogAction = "stock_out"
)

// UnknownProduct labels logs whose item join came back empty.
const UnknownProduct = "Unknown Product"

// WalkInCustomer labels orders created without a customer.
const WalkInCustomer = "Walk-in"

// SaleLog is an append-only record of a stock movement.
//
// Quantity and OrderNumber are the structured sale fields. Rows written before
// they existed carry the information only inside Details.
type SaleLog struct {
	ID          string    `json:"id" gorm:"primaryKey"`
	ItemID      string    `json:"item_id" gorm:"index"`
	CustomerID  *string   `json:"customer_id,omitempty"`
	Action      LogAction `json:"action" gorm:"index"`
	Timestamp   time.Time `json:"timestamp" gorm:"index"`
	Details     string    `json:"details"`
	Quantity    *int      `json:"quantity,omitempty"`
	OrderNumber *string   `json:"order_number,omitempty"`
	Item        *Item     `json:"items,omitempty" gorm:"foreignKey:ItemID"`
	Customer    *Customer `json:"customers,omitempty" gorm:"foreignKey:CustomerID"`
}

// TableName keeps the hosted schema's table name.
func (SaleLog) TableName() string { return "logs" }

// Sale resolves quantity and order number, preferring the structured columns
// and falling back to the details parser for legacy rows.
func (l SaleLog) Sale(parser DetailsParser) SaleDetails {
	var parsed SaleDetails
	if l.Quantity == nil || l.OrderNumber == nil || *l.OrderNumber == "" {
		if parser == nil {
			parser = LegacyDetailsParser{}
		}
		parsed = parser.Parse(l.Details)
	}

	sale := SaleDetails{Quantity: parsed.Quantity, OrderNumber: parsed.OrderNumber}
	if l.Quantity != nil && *l.Quantity > 0 {
		sale.Quantity = *l.Quantity
	}
	if sale.Quantity < 1 {
		sale.Quantity = 1
	}
	if l.OrderNumber != nil && *l.OrderNumber != "" {
		sale.OrderNumber = *l.OrderNumber
	}
	if sale.OrderNumber == "" {
		sale.Fallback = FallbackOrderNumber(l.ID)
	}
	return sale
}

// UnitPrice is the joined item's current price, used as the sale's price snapshot.
func (l SaleLog) UnitPrice() float64 {
	if l.Item == nil {
		return 0
	}
	return l.Item.Price
}

// ProductName returns the joined item name.
func (l SaleLog) ProductName() string {
	if l.Item == nil || l.Item.Name == "" {
		return UnknownProduct
	}
	return l.Item.Name
}

// CustomerName returns the joined customer name.
func (l SaleLog) CustomerName() string {
	if l.Customer == nil || l.Customer.Name == "" {
		return WalkInCustomer
	}
	return l.Customer.Name
}
