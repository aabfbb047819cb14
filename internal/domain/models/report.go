package models

import "time"

// DailySnapshot is the archived summary of one day of sales.
type DailySnapshot struct {
	Date              time.Time `bson:"date" json:"date"`
	Revenue           float64   `bson:"revenue" json:"revenue"`
	Orders            int       `bson:"orders" json:"orders"`
	UnitsSold         int       `bson:"units_sold" json:"units_sold"`
	AverageOrderValue float64   `bson:"average_order_value" json:"average_order_value"`
	TopProduct        string    `bson:"top_product" json:"top_product"`
	LowStockItems     int       `bson:"low_stock_items" json:"low_stock_items"`
	CreatedAt         time.Time `bson:"created_at" json:"created_at"`
}

// RunReportRequest is the optional POST /reports/daily body. An empty date means today.
type RunReportRequest struct {
	Date string `json:"date"`
}
