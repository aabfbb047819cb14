package analytics

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mamadbah2/stockdesk/internal/domain/models"
)

// topProductsLimit is the length of the per-product ranking.
const topProductsLimit = 5

var weekdayLabels = []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// Aggregator folds sale logs into business metrics. It holds no state
// besides its parser and the timezone used for calendar bucketing.
type Aggregator struct {
	parser models.DetailsParser
	loc    *time.Location
}

// NewAggregator builds an aggregator. Nil arguments fall back to the legacy
// parser and UTC.
func NewAggregator(parser models.DetailsParser, loc *time.Location) Aggregator {
	if parser == nil {
		parser = models.LegacyDetailsParser{}
	}
	if loc == nil {
		loc = time.UTC
	}
	return Aggregator{parser: parser, loc: loc}
}

// Totals is the revenue and volume of a set of sales.
type Totals struct {
	Revenue decimal.Decimal
	Orders  int
	Units   int
}

// AverageOrderValue is revenue per order, zero when there are no orders.
func (t Totals) AverageOrderValue() decimal.Decimal {
	if t.Orders == 0 {
		return decimal.Zero
	}
	return t.Revenue.Div(decimal.NewFromInt(int64(t.Orders)))
}

// Revenue is the line total of a single sale.
func (a Aggregator) Revenue(log models.SaleLog) decimal.Decimal {
	return models.LineTotal(log.UnitPrice(), log.Sale(a.parser).Quantity)
}

// Totals sums revenue, orders and units over logs.
func (a Aggregator) Totals(logs []models.SaleLog) Totals {
	t := Totals{Revenue: decimal.Zero, Orders: len(logs)}
	for _, log := range logs {
		sale := log.Sale(a.parser)
		t.Units += sale.Quantity
		t.Revenue = t.Revenue.Add(models.LineTotal(log.UnitPrice(), sale.Quantity))
	}
	return t
}

type productTotals struct {
	name    string
	units   int
	revenue decimal.Decimal
}

func (a Aggregator) byProduct(logs []models.SaleLog) map[string]*productTotals {
	totals := make(map[string]*productTotals)
	for _, log := range logs {
		name := log.ProductName()
		p, ok := totals[name]
		if !ok {
			p = &productTotals{name: name, revenue: decimal.Zero}
			totals[name] = p
		}
		sale := log.Sale(a.parser)
		p.units += sale.Quantity
		p.revenue = p.revenue.Add(models.LineTotal(log.UnitPrice(), sale.Quantity))
	}
	return totals
}

// TopProducts ranks products by revenue and keeps the first five. The trend
// compares each product with its own revenue in the previous window.
func (a Aggregator) TopProducts(current, previous []models.SaleLog) []models.TopProduct {
	now := a.byProduct(current)
	before := a.byProduct(previous)

	ranked := make([]*productTotals, 0, len(now))
	for _, p := range now {
		ranked = append(ranked, p)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if c := ranked[i].revenue.Cmp(ranked[j].revenue); c != 0 {
			return c > 0
		}
		return ranked[i].name < ranked[j].name
	})
	if len(ranked) > topProductsLimit {
		ranked = ranked[:topProductsLimit]
	}

	top := make([]models.TopProduct, 0, len(ranked))
	for _, p := range ranked {
		trend := "up"
		if prev, ok := before[p.name]; ok && p.revenue.LessThan(prev.revenue) {
			trend = "down"
		}
		top = append(top, models.TopProduct{
			Name:    p.name,
			Sales:   p.units,
			Revenue: p.revenue.Round(2).InexactFloat64(),
			Trend:   trend,
		})
	}
	return top
}

// RevenueChart buckets revenue for the period.
//
// 7days uses one slot per weekday, Mon first, so the same weekday of two
// different weeks lands in one slot. 30days and 90days count whole days back
// from now into 7-day or 30-day slots and present them oldest first; anything
// past the last slot is dropped.
func (a Aggregator) RevenueChart(period models.Period, logs []models.SaleLog, now time.Time) models.Chart {
	var (
		labels  []string
		buckets []decimal.Decimal
	)

	switch period {
	case models.Period30Days, models.Period90Days:
		slots, width, prefix := 4, 7, "Week"
		if period == models.Period90Days {
			slots, width, prefix = 3, 30, "Month"
		}
		buckets = zeroBuckets(slots)
		for _, log := range logs {
			daysAgo := int(math.Floor(now.Sub(log.Timestamp).Hours() / 24))
			if daysAgo < 0 {
				continue
			}
			if idx := daysAgo / width; idx < slots {
				buckets[idx] = buckets[idx].Add(a.Revenue(log))
			}
		}
		reverse(buckets)
		for i := 1; i <= slots; i++ {
			labels = append(labels, fmt.Sprintf("%s %d", prefix, i))
		}
	default:
		buckets = zeroBuckets(len(weekdayLabels))
		for _, log := range logs {
			idx := (int(log.Timestamp.In(a.loc).Weekday()) + 6) % 7
			buckets[idx] = buckets[idx].Add(a.Revenue(log))
		}
		labels = append(labels, weekdayLabels...)
	}

	data := make([]float64, len(buckets))
	for i, b := range buckets {
		data[i] = b.Round(2).InexactFloat64()
	}
	return models.Chart{Labels: labels, Data: data}
}

// CategoryDistribution counts items per category over the whole catalogue.
// Shares use every item as the denominator, so uncategorized items pull the
// sum below 100.
func CategoryDistribution(items []models.Item) models.Chart {
	chart := models.Chart{Labels: []string{}, Data: []float64{}}
	if len(items) == 0 {
		return chart
	}

	counts := make(map[string]int)
	for _, item := range items {
		if name := item.CategoryName(); name != "" {
			counts[name]++
		}
	}

	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if counts[names[i]] != counts[names[j]] {
			return counts[names[i]] > counts[names[j]]
		}
		return names[i] < names[j]
	})

	total := float64(len(items))
	for _, name := range names {
		chart.Labels = append(chart.Labels, name)
		chart.Data = append(chart.Data, math.Round(float64(counts[name])/total*100))
	}
	return chart
}

// Growth is the percentage change from previous to current, rounded to one
// decimal. It is zero when there is nothing to compare against.
func Growth(current, previous decimal.Decimal) float64 {
	if previous.IsZero() {
		return 0
	}
	return current.Sub(previous).
		Div(previous).
		Mul(decimal.NewFromInt(100)).
		Round(1).
		InexactFloat64()
}

// LowStockCount counts items whose amount is below threshold.
func LowStockCount(items []models.Item, threshold int) int {
	n := 0
	for _, item := range items {
		if item.Amount < threshold {
			n++
		}
	}
	return n
}

// RecentTransactions renders the newest sales first, up to limit.
func (a Aggregator) RecentTransactions(logs []models.SaleLog, statuses map[string]models.OrderStatus, limit int) []models.Transaction {
	sorted := make([]models.SaleLog, len(logs))
	copy(sorted, logs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.After(sorted[j].Timestamp)
	})
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}

	txs := make([]models.Transaction, 0, len(sorted))
	for _, log := range sorted {
		sale := log.Sale(a.parser)
		txs = append(txs, models.Transaction{
			ID:       sale.DisplayOrderNumber(),
			Product:  log.ProductName(),
			Customer: log.CustomerName(),
			Amount:   models.LineTotal(log.UnitPrice(), sale.Quantity).Round(2).InexactFloat64(),
			Status:   models.StatusOf(statuses, log.ID),
			Date:     log.Timestamp.In(a.loc).Format(models.DateLayout),
		})
	}
	return txs
}

func zeroBuckets(n int) []decimal.Decimal {
	b := make([]decimal.Decimal, n)
	for i := range b {
		b[i] = decimal.Zero
	}
	return b
}

func reverse(b []decimal.Decimal) {
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
}
