package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of a derived order.
type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusProcessing OrderStatus = "processing"
	StatusCompleted  OrderStatus = "completed"
	StatusCancelled  OrderStatus = "cancelled"
)

// DefaultOrderStatus applies to logs without a status row.
const DefaultOrderStatus = StatusCompleted

// OrderStatuses lists every accepted status in display order.
var OrderStatuses = []OrderStatus{StatusPending, StatusProcessing, StatusCompleted, StatusCancelled}

// ParseOrderStatus validates a raw status value.
func ParseOrderStatus(raw string) (OrderStatus, bool) {
	normalized := OrderStatus(strings.ToLower(strings.TrimSpace(raw)))
	for _, s := range OrderStatuses {
		if s == normalized {
			return s, true
		}
	}
	return "", false
}

// Active reports whether the order still needs work.
func (s OrderStatus) Active() bool {
	return s == StatusPending || s == StatusProcessing
}

// OrderStatusRecord is the single stored status of an order, keyed by its log id.
type OrderStatusRecord struct {
	LogID     string      `json:"log_id" gorm:"primaryKey"`
	Status    OrderStatus `json:"status"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// TableName keeps the hosted schema's table name.
func (OrderStatusRecord) TableName() string { return "order_statuses" }

// StatusOf looks up a log's status, defaulting to completed.
func StatusOf(statuses map[string]OrderStatus, logID string) OrderStatus {
	if s, ok := statuses[logID]; ok && s != "" {
		return s
	}
	return DefaultOrderStatus
}

// OrderView is an order reconstructed from a stock_out log.
type OrderView struct {
	ID          string      `json:"id"`
	OrderNumber string      `json:"orderNumber"`
	Product     string      `json:"product"`
	ProductID   string      `json:"productId"`
	Quantity    int         `json:"quantity"`
	UnitPrice   float64     `json:"unitPrice"`
	TotalAmount float64     `json:"totalAmount"`
	Status      OrderStatus `json:"status"`
	Customer    string      `json:"customer"`
	Date        string      `json:"date"`
	Timestamp   time.Time   `json:"timestamp"`
}

// CreateOrderRequest is the POST /orders body.
type CreateOrderRequest struct {
	ItemID     string `json:"item_id"`
	CustomerID string `json:"customer_id"`
	Quantity   int    `json:"quantity"`
}

// UpdateStatusRequest is the PATCH /orders/:id/status body.
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// LineTotal multiplies a unit price by a quantity without float drift.
func LineTotal(unitPrice float64, quantity int) decimal.Decimal {
	return decimal.NewFromFloat(unitPrice).Mul(decimal.NewFromInt(int64(quantity)))
}

// BuildOrderView joins a log with its resolved sale fields and status.
func BuildOrderView(log SaleLog, parser DetailsParser, status OrderStatus, loc *time.Location) OrderView {
	if loc == nil {
		loc = time.UTC
	}
	sale := log.Sale(parser)
	unit := log.UnitPrice()

	return OrderView{
		ID:          log.ID,
		OrderNumber: sale.DisplayOrderNumber(),
		Product:     log.ProductName(),
		ProductID:   log.ItemID,
		Quantity:    sale.Quantity,
		UnitPrice:   unit,
		TotalAmount: LineTotal(unit, sale.Quantity).Round(2).InexactFloat64(),
		Status:      status,
		Customer:    log.CustomerName(),
		Date:        log.Timestamp.In(loc).Format(DateLayout),
		Timestamp:   log.Timestamp,
	}
}
