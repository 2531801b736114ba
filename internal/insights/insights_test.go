package insights

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"conicore/internal/domain"
)

var anchor = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

func day(offset int) string {
	return anchor.AddDate(0, 0, offset).Format("2006-01-02")
}

func findInsight(t *testing.T, cards []domain.Insight, typ string) domain.Insight {
	t.Helper()
	for _, c := range cards {
		if c.Type == typ {
			return c
		}
	}
	t.Fatalf("no insight of type %q", typ)
	return domain.Insight{}
}

func TestGenerateRevenueAndCollection(t *testing.T) {
	invoices := []domain.InvoiceRef{
		{Number: "1", Customer: "Wave Riders", Date: day(-5), Total: 10000, AmountPaid: 10000, Status: "paid"},
		{Number: "2", Customer: "Surf Shack", Date: day(-10), Total: 5000, Status: "sent"},
	}
	cards := Generate(invoices, 30, anchor)

	revenue := findInsight(t, cards, "revenue")
	assert.Equal(t, 15000.0, revenue.Value)
	assert.Contains(t, revenue.Message, "R15 000 total revenue")
	assert.Contains(t, revenue.Message, "R5 000 outstanding")
	assert.Equal(t, "high", revenue.Priority, "outstanding above 30% of revenue")

	collection := findInsight(t, cards, "collection")
	assert.InDelta(t, 66.7, collection.Value.(float64), 0.1)
	assert.Equal(t, "high", collection.Priority)
	assert.Contains(t, collection.Message, "payment reminders")
}

func TestGenerateHealthyCollectionRate(t *testing.T) {
	invoices := []domain.InvoiceRef{
		{Number: "1", Customer: "A", Date: day(-3), Total: 9000, AmountPaid: 9000, Status: "paid"},
		{Number: "2", Customer: "B", Date: day(-4), Total: 1000, Status: "sent"},
	}
	cards := Generate(invoices, 30, anchor)
	collection := findInsight(t, cards, "collection")
	assert.Equal(t, "low", collection.Priority)
	assert.Contains(t, collection.Message, "Great collection rate")
}

func TestGenerateTopCustomersAndProducts(t *testing.T) {
	invoices := []domain.InvoiceRef{
		{Number: "1", Customer: "Big Spender", Date: day(-2), Total: 20000, Status: "paid", AmountPaid: 20000,
			Items: []domain.InvoiceItemBrief{{Name: "Jetboard", Quantity: 1, Total: 20000}}},
		{Number: "2", Customer: "Small Fry", Date: day(-3), Total: 500, Status: "paid", AmountPaid: 500,
			Items: []domain.InvoiceItemBrief{{Name: "Leash", Quantity: 5, Total: 500}}},
	}
	cards := Generate(invoices, 30, anchor)

	customers := findInsight(t, cards, "customers")
	assert.Contains(t, customers.Message, "Big Spender is your #1 customer")

	products := findInsight(t, cards, "products")
	assert.Contains(t, products.Message, "Jetboard leads with R20 000")
	assert.Contains(t, products.Message, "(1 units)")
}

func TestGenerateOverdueAlert(t *testing.T) {
	invoices := []domain.InvoiceRef{
		{Number: "1", Customer: "Late Co", Date: day(-20), DueDate: day(-5), Total: 4000, AmountPaid: 1000, Status: "sent"},
		{Number: "2", Customer: "Late Co", Date: day(-25), DueDate: day(-10), Total: 2000, Status: "overdue"},
	}
	cards := Generate(invoices, 30, anchor)

	alert := findInsight(t, cards, "alert")
	assert.Equal(t, 2, alert.Value)
	assert.Contains(t, alert.Message, "2 overdue invoices totaling R5 000")
	assert.Equal(t, "high", alert.Priority)
	assert.Equal(t, "sendFollowups", alert.Action)
	assert.Equal(t, "Send AI Follow-ups", alert.ActionLabel)
}

func TestGenerateNoOverdueNoAlert(t *testing.T) {
	invoices := []domain.InvoiceRef{
		{Number: "1", Customer: "A", Date: day(-2), DueDate: day(20), Total: 100, Status: "sent"},
	}
	for _, c := range Generate(invoices, 30, anchor) {
		assert.NotEqual(t, "alert", c.Type)
	}
}

func TestGenerateRevenueTrend(t *testing.T) {
	invoices := []domain.InvoiceRef{
		// Older half of the 30 day window.
		{Number: "1", Customer: "A", Date: day(-25), Total: 1000, Status: "paid", AmountPaid: 1000},
		// Recent half, well above a 10% rise.
		{Number: "2", Customer: "A", Date: day(-3), Total: 5000, Status: "paid", AmountPaid: 5000},
	}
	cards := Generate(invoices, 30, anchor)
	assert.Equal(t, "up", findInsight(t, cards, "revenue").Trend)

	// Swap the weights and the trend reverses.
	invoices[0].Total, invoices[1].Total = 5000, 1000
	cards = Generate(invoices, 30, anchor)
	assert.Equal(t, "down", findInsight(t, cards, "revenue").Trend)
}

func TestGenerateCashFlowAlert(t *testing.T) {
	invoices := []domain.InvoiceRef{
		// Old unpaid invoice outside the window still counts against cash flow.
		{Number: "1", Customer: "A", Date: day(-90), Total: 50000, Status: "sent"},
		{Number: "2", Customer: "B", Date: day(-5), Total: 1000, Status: "paid", AmountPaid: 1000},
	}
	cards := Generate(invoices, 30, anchor)
	cash := findInsight(t, cards, "cashflow")
	assert.Equal(t, 50000.0, cash.Value)
	assert.Equal(t, "high", cash.Priority)
}

func TestGenerateBestDay(t *testing.T) {
	// 2026-03-09 is a Monday.
	invoices := []domain.InvoiceRef{
		{Number: "1", Customer: "A", Date: "2026-03-09", Total: 8000, Status: "paid", AmountPaid: 8000},
		{Number: "2", Customer: "A", Date: "2026-03-10", Total: 100, Status: "paid", AmountPaid: 100},
	}
	cards := Generate(invoices, 30, anchor)
	trend := findInsight(t, cards, "trend")
	assert.Equal(t, "Monday", trend.Value)
	assert.Contains(t, trend.Message, "Monday generates the most revenue")
}

func TestGeneratePrioritySorted(t *testing.T) {
	invoices := []domain.InvoiceRef{
		{Number: "1", Customer: "Late Co", Date: day(-20), DueDate: day(-5), Total: 4000, Status: "sent"},
	}
	cards := Generate(invoices, 30, anchor)
	require.NotEmpty(t, cards)

	rank := map[string]int{"high": 0, "medium": 1, "low": 2}
	for i := 1; i < len(cards); i++ {
		assert.LessOrEqual(t, rank[cards[i-1].Priority], rank[cards[i].Priority])
	}
}

func TestGenerateEmptyInvoices(t *testing.T) {
	cards := Generate(nil, 30, anchor)
	require.NotEmpty(t, cards, "revenue, collection and average cards always render")
	revenue := findInsight(t, cards, "revenue")
	assert.Equal(t, 0.0, revenue.Value)
	assert.Equal(t, "neutral", revenue.Trend)
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "1 234 567", formatAmount(1234567))
	assert.Equal(t, "999", formatAmount(999))
	assert.Equal(t, "-12 000", formatAmount(-12000))
	assert.Equal(t, "0", formatAmount(0))
}

func TestParseDateLayouts(t *testing.T) {
	for _, s := range []string{"2026-03-15", "2026/03/15", "15/03/2026", "2026-03-15T10:00:00Z"} {
		_, ok := parseDate(s)
		assert.True(t, ok, s)
	}
	_, ok := parseDate("not a date")
	assert.False(t, ok)
}
