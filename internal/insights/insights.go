// Package insights produces deterministic business insight cards from
// invoice data. No model call is involved: the numbers come straight from
// the books, so a flaky provider can never degrade them.
package insights

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"conicore/internal/domain"
)

// Generate computes insight cards over the given invoices for the trailing
// timeRange days, ordered high priority first. now anchors the window so
// tests stay deterministic.
func Generate(invoices []domain.InvoiceRef, timeRange int, now time.Time) []domain.Insight {
	if timeRange <= 0 {
		timeRange = 30
	}
	start := now.Add(-time.Duration(timeRange) * 24 * time.Hour)

	var recent []domain.InvoiceRef
	for _, inv := range invoices {
		if d, ok := parseDate(inv.Date); ok && !d.Before(start) {
			recent = append(recent, inv)
		}
	}

	var out []domain.Insight

	var totalRevenue, paidRevenue float64
	for _, inv := range recent {
		totalRevenue += inv.Total
		if inv.Status == "paid" {
			paidRevenue += inv.Total
		}
	}
	outstanding := totalRevenue - paidRevenue

	revenuePriority := "medium"
	if outstanding > totalRevenue*0.3 {
		revenuePriority = "high"
	}
	out = append(out, domain.Insight{
		Type:  "revenue",
		Title: "Revenue Overview",
		Message: fmt.Sprintf("R%s total revenue in last %d days. R%s outstanding.",
			formatAmount(totalRevenue), timeRange, formatAmount(outstanding)),
		Value:    totalRevenue,
		Trend:    revenueTrend(invoices, timeRange, now),
		Priority: revenuePriority,
	})

	collectionRate := 0.0
	if totalRevenue > 0 {
		collectionRate = paidRevenue / totalRevenue * 100
	}
	collectionNote := "Great collection rate!"
	collectionPriority := "low"
	if collectionRate < 70 {
		collectionNote = "Consider sending payment reminders."
		collectionPriority = "high"
	}
	out = append(out, domain.Insight{
		Type:     "collection",
		Title:    "Payment Collection Rate",
		Message:  fmt.Sprintf("%.1f%% of invoices paid. %s", collectionRate, collectionNote),
		Value:    collectionRate,
		Priority: collectionPriority,
	})

	if top := topCustomers(recent); len(top) > 0 {
		out = append(out, domain.Insight{
			Type:  "customers",
			Title: "Top Customers",
			Message: fmt.Sprintf("%s is your #1 customer with R%s revenue this period.",
				top[0].name, formatAmount(top[0].revenue)),
			Value:    customerValues(top),
			Priority: "medium",
		})
	}

	if top := topProducts(recent); len(top) > 0 {
		out = append(out, domain.Insight{
			Type:  "products",
			Title: "Best Selling Products",
			Message: fmt.Sprintf("%s leads with R%s in sales (%.0f units).",
				top[0].name, formatAmount(top[0].revenue), top[0].quantity),
			Value:    productValues(top),
			Priority: "low",
		})
	}

	overdueCount := 0
	var overdueAmount float64
	for _, inv := range invoices {
		if inv.Status == "paid" {
			continue
		}
		if d, ok := parseDate(inv.DueDate); ok && d.Before(now) {
			overdueCount++
			overdueAmount += inv.Total - inv.AmountPaid
		}
	}
	if overdueCount > 0 {
		out = append(out, domain.Insight{
			Type:  "alert",
			Title: "Overdue Invoices",
			Message: fmt.Sprintf("%d overdue invoices totaling R%s. Consider sending AI follow-up reminders.",
				overdueCount, formatAmount(overdueAmount)),
			Value:       overdueCount,
			Priority:    "high",
			Action:      "sendFollowups",
			ActionLabel: "Send AI Follow-ups",
		})
	}

	avgValue := 0.0
	if len(recent) > 0 {
		avgValue = totalRevenue / float64(len(recent))
	}
	avgNote := "Consider upselling with product recommendations."
	if avgValue > 5000 {
		avgNote = "Strong performance!"
	}
	out = append(out, domain.Insight{
		Type:     "metric",
		Title:    "Average Invoice Value",
		Message:  fmt.Sprintf("R%s per invoice. %s", formatAmount(avgValue), avgNote),
		Value:    avgValue,
		Priority: "low",
	})

	if day, revenue, ok := bestDay(recent); ok {
		out = append(out, domain.Insight{
			Type:  "trend",
			Title: "Best Sales Day",
			Message: fmt.Sprintf("%s generates the most revenue with R%s. Schedule important sales on this day!",
				day, formatAmount(revenue)),
			Value:    day,
			Priority: "low",
		})
	}

	var unpaidTotal float64
	for _, inv := range invoices {
		if inv.Status != "paid" {
			unpaidTotal += inv.Total - inv.AmountPaid
		}
	}
	if unpaidTotal > totalRevenue {
		out = append(out, domain.Insight{
			Type:  "cashflow",
			Title: "Cash Flow Alert",
			Message: fmt.Sprintf("R%s in unpaid invoices, more than your recent revenue. Focus on collections!",
				formatAmount(unpaidTotal)),
			Value:    unpaidTotal,
			Priority: "high",
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return priorityRank(out[i].Priority) < priorityRank(out[j].Priority)
	})
	return out
}

type rankedEntry struct {
	name     string
	revenue  float64
	quantity float64
}

func topCustomers(invoices []domain.InvoiceRef) []rankedEntry {
	byCustomer := map[string]float64{}
	for _, inv := range invoices {
		byCustomer[inv.Customer] += inv.Total
	}
	return rankTop(byCustomerEntries(byCustomer), 3)
}

func topProducts(invoices []domain.InvoiceRef) []rankedEntry {
	type sales struct{ revenue, quantity float64 }
	byProduct := map[string]*sales{}
	for _, inv := range invoices {
		for _, item := range inv.Items {
			s := byProduct[item.Name]
			if s == nil {
				s = &sales{}
				byProduct[item.Name] = s
			}
			s.revenue += item.Total
			s.quantity += item.Quantity
		}
	}
	entries := make([]rankedEntry, 0, len(byProduct))
	for name, s := range byProduct {
		entries = append(entries, rankedEntry{name: name, revenue: s.revenue, quantity: s.quantity})
	}
	return rankTop(entries, 3)
}

func byCustomerEntries(m map[string]float64) []rankedEntry {
	entries := make([]rankedEntry, 0, len(m))
	for name, revenue := range m {
		entries = append(entries, rankedEntry{name: name, revenue: revenue})
	}
	return entries
}

func rankTop(entries []rankedEntry, n int) []rankedEntry {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].revenue != entries[j].revenue {
			return entries[i].revenue > entries[j].revenue
		}
		return entries[i].name < entries[j].name
	})
	if len(entries) > n {
		entries = entries[:n]
	}
	return entries
}

func customerValues(entries []rankedEntry) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(entries))
	for _, e := range entries {
		out = append(out, map[string]interface{}{"name": e.name, "revenue": e.revenue})
	}
	return out
}

func productValues(entries []rankedEntry) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(entries))
	for _, e := range entries {
		out = append(out, map[string]interface{}{"name": e.name, "revenue": e.revenue, "quantity": e.quantity})
	}
	return out
}

func bestDay(invoices []domain.InvoiceRef) (string, float64, bool) {
	byDay := map[string]float64{}
	for _, inv := range invoices {
		if d, ok := parseDate(inv.Date); ok {
			byDay[d.Weekday().String()] += inv.Total
		}
	}
	best := ""
	var revenue float64
	for day, total := range byDay {
		if total > revenue || (total == revenue && day < best) {
			best, revenue = day, total
		}
	}
	return best, revenue, best != ""
}

// revenueTrend compares the two halves of the window: more than a 10%
// swing in either direction counts as a trend.
func revenueTrend(invoices []domain.InvoiceRef, timeRange int, now time.Time) string {
	window := time.Duration(timeRange) * 24 * time.Hour
	midpoint := now.Add(-window / 2)
	start := now.Add(-window)

	var recent, older float64
	for _, inv := range invoices {
		d, ok := parseDate(inv.Date)
		if !ok {
			continue
		}
		switch {
		case !d.Before(midpoint):
			recent += inv.Total
		case !d.Before(start):
			older += inv.Total
		}
	}
	if older == 0 {
		return "neutral"
	}
	change := (recent - older) / older * 100
	if change > 10 {
		return "up"
	}
	if change < -10 {
		return "down"
	}
	return "neutral"
}

func priorityRank(p string) int {
	switch p {
	case "high":
		return 0
	case "medium":
		return 1
	default:
		return 2
	}
}

func parseDate(s string) (time.Time, bool) {
	for _, layout := range []string{time.RFC3339, "2006-01-02", "2006/01/02", "02/01/2006"} {
		if d, err := time.Parse(layout, s); err == nil {
			return d, true
		}
	}
	return time.Time{}, false
}

// formatAmount renders a rand amount with thousands separated by spaces.
func formatAmount(v float64) string {
	s := fmt.Sprintf("%.0f", v)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	parts = append([]string{s}, parts...)
	joined := strings.Join(parts, " ")
	if neg {
		return "-" + joined
	}
	return joined
}
