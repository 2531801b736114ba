package recommend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"conicore/internal/domain"
)

func catalog() []domain.CatalogProduct {
	return []domain.CatalogProduct{
		{SKU: "BAT-01", Name: "Lithium Battery", Category: "Batteries", LandedCost: 8000, SellingPrice: 12000, SalesCount: 40},
		{SKU: "CHG-01", Name: "Fast Charger", Category: "Charger", LandedCost: 2000, SellingPrice: 3500, SalesCount: 25},
		{SKU: "JB-01", Name: "Jetboard Pro", Category: "Jetboards", LandedCost: 180000, SellingPrice: 260000, SalesCount: 10},
		{SKU: "ACC-01", Name: "Maintenance Kit", Category: "Accessories", LandedCost: 500, SellingPrice: 900, SalesCount: 60},
		{SKU: "ACC-02", Name: "Cleaning Solution", Category: "Accessories", LandedCost: 200, SellingPrice: 400, SalesCount: 15},
		{SKU: "SUP-01", Name: "Touring SUP", Category: "SUP", LandedCost: 15000, SellingPrice: 22000, SalesCount: 30},
	}
}

func TestGenerateBoughtTogether(t *testing.T) {
	out := Generate(Input{
		CurrentItems: []domain.PurchasedItem{{SKU: "JB-01", Category: "Jetboards"}},
		Products:     catalog(),
	})
	require.NotEmpty(t, out)

	bySKU := map[string]domain.Recommendation{}
	for _, r := range out {
		bySKU[r.SKU] = r
	}
	require.Contains(t, bySKU, "BAT-01", "batteries pair with jetboards")
	assert.Equal(t, "Frequently bought with Jetboards", bySKU["BAT-01"].Reason)
	assert.NotContains(t, bySKU, "JB-01", "in-cart items are never re-suggested")
}

func TestGenerateHistoryRule(t *testing.T) {
	out := Generate(Input{
		History:  []domain.PurchasedItem{{SKU: "SUP-OLD", Category: "SUP"}, {SKU: "SUP-OLD2", Category: "SUP"}},
		Products: catalog(),
	})
	bySKU := map[string]domain.Recommendation{}
	for _, r := range out {
		bySKU[r.SKU] = r
	}
	require.Contains(t, bySKU, "SUP-01")
	assert.Equal(t, "Based on your purchase history", bySKU["SUP-01"].Reason)
}

func TestGenerateLowPaymentRateGetsEssentials(t *testing.T) {
	out := Generate(Input{
		Products:    catalog(),
		PaymentRate: 40,
	})
	bySKU := map[string]domain.Recommendation{}
	for _, r := range out {
		bySKU[r.SKU] = r
	}
	assert.Contains(t, bySKU, "ACC-01", "unreliable payers get affordable accessories")
	assert.NotContains(t, bySKU, "JB-01", "no big-ticket margin picks for unreliable payers")
}

func TestGenerateHighPaymentRateGetsMargin(t *testing.T) {
	out := Generate(Input{
		Products:    catalog(),
		PaymentRate: 95,
	})
	require.NotEmpty(t, out)
	assert.Equal(t, "JB-01", out[0].SKU, "highest margin product leads for reliable payers")
}

func TestGenerateTierFilter(t *testing.T) {
	out := Generate(Input{
		Products:     catalog(),
		CustomerTier: "platinum",
		PaymentRate:  100,
	})
	// Only the jetboard clears the platinum price floor for the margin rule;
	// best sellers are unaffected by tier.
	bySKU := map[string]domain.Recommendation{}
	for _, r := range out {
		bySKU[r.SKU] = r
	}
	assert.Contains(t, bySKU, "JB-01")
}

func TestGenerateCapAndDedupe(t *testing.T) {
	out := Generate(Input{
		CurrentItems: []domain.PurchasedItem{{SKU: "X", Category: "Jetboards"}, {SKU: "Y", Category: "SUP"}},
		History:      []domain.PurchasedItem{{SKU: "Z", Category: "Accessories"}},
		Products:     catalog(),
	})
	assert.LessOrEqual(t, len(out), 5)

	seen := map[string]bool{}
	for _, r := range out {
		assert.False(t, seen[r.SKU], "duplicate SKU %s", r.SKU)
		seen[r.SKU] = true
	}
}

func TestGenerateEmptyCatalog(t *testing.T) {
	assert.Empty(t, Generate(Input{}))
}
