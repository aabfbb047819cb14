package models

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the calendar date format used in views and exports.
const DateLayout = "2006-01-02"

// Period is one of the fixed analytics windows.
type Period string

const (
	Period7Days  Period = "7days"
	Period30Days Period = "30days"
	Period90Days Period = "90days"
)

// ParsePeriod validates a period query value. Empty means 7days.
func ParsePeriod(raw string) (Period, error) {
	switch p := Period(strings.TrimSpace(raw)); p {
	case "":
		return Period7Days, nil
	case Period7Days, Period30Days, Period90Days:
		return p, nil
	default:
		return "", fmt.Errorf("invalid period %q: must be one of 7days, 30days, 90days", raw)
	}
}

// Days is the window length.
func (p Period) Days() int {
	switch p {
	case Period30Days:
		return 30
	case Period90Days:
		return 90
	default:
		return 7
	}
}

// Window returns [start, end) ending at now.
func (p Period) Window(now time.Time) (time.Time, time.Time) {
	return now.AddDate(0, 0, -p.Days()), now
}

// PreviousWindow returns the window of equal length immediately before Window.
func (p Period) PreviousWindow(now time.Time) (time.Time, time.Time) {
	start, _ := p.Window(now)
	return start.AddDate(0, 0, -p.Days()), start
}

// Viewer describes the caller of an analytics request.
type Viewer struct {
	UserID  string
	IsAdmin bool
}

// AnalyticsSummary holds the headline numbers.
type AnalyticsSummary struct {
	TotalRevenue      float64 `json:"totalRevenue"`
	TotalOrders       int     `json:"totalOrders"`
	AverageOrderValue float64 `json:"averageOrderValue"`
	TopSellingProduct string  `json:"topSellingProduct"`
	LowStockItems     int     `json:"lowStockItems"`
	RevenueGrowth     float64 `json:"revenueGrowth"`
}

// Chart is a labelled series.
type Chart struct {
	Labels []string  `json:"labels"`
	Data   []float64 `json:"data"`
}

// TopProduct is one row of the per-product ranking.
type TopProduct struct {
	Name    string  `json:"name"`
	Sales   int     `json:"sales"`
	Revenue float64 `json:"revenue"`
	Trend   string  `json:"trend"`
}

// Transaction is a recent sale shown to admins.
type Transaction struct {
	ID       string      `json:"id"`
	Product  string      `json:"product"`
	Customer string      `json:"customer"`
	Amount   float64     `json:"amount"`
	Status   OrderStatus `json:"status"`
	Date     string      `json:"date"`
}

// AnalyticsReport is the /analytics response body.
type AnalyticsReport struct {
	Summary            AnalyticsSummary `json:"summary"`
	RevenueChart       Chart            `json:"revenueChart"`
	CategoryChart      Chart            `json:"categoryChart"`
	TopProducts        []TopProduct     `json:"topProducts"`
	RecentTransactions []Transaction    `json:"recentTransactions"`
}
