// Package recommend produces rule-based product suggestions. The rules are
// deliberately simple and offline: bought-together pairings, purchase
// history, margin, and popularity.
package recommend

import (
	"sort"
	"strings"

	"conicore/internal/domain"
)

// boughtTogether maps a product category to categories customers commonly
// add alongside it.
var boughtTogether = map[string][]string{
	"Jetboards":   {"Batteries", "Charger", "Remote Control", "Safety Gear"},
	"eFoils":      {"Battery Pack", "Charger", "Safety Gear", "Board Bag", "Wing"},
	"SUP":         {"Paddle", "Pump", "Repair Kit", "Board Bag", "Leash"},
	"Batteries":   {"Charger", "Power Adapter", "Battery Case"},
	"Accessories": {"Maintenance Kit", "Cleaning Solution"},
}

// Input carries everything the rules consider for one request.
type Input struct {
	History      []domain.PurchasedItem
	CurrentItems []domain.PurchasedItem
	Products     []domain.CatalogProduct
	CustomerTier string
	PaymentRate  float64
}

// Generate applies the recommendation rules and returns up to five unique
// suggestions with a human-readable reason each.
func Generate(in Input) []domain.Recommendation {
	tier := in.CustomerTier
	if tier == "" {
		tier = "retail"
	}
	paymentRate := in.PaymentRate
	if paymentRate == 0 {
		paymentRate = 100
	}

	currentSKUs := map[string]bool{}
	var currentCategories []string
	for _, it := range in.CurrentItems {
		currentSKUs[it.SKU] = true
		currentCategories = append(currentCategories, it.Category)
	}

	tierProducts := filterByTier(in.Products, tier)

	var picks []domain.CatalogProduct

	// Rule 1: bought-together pairings for the in-cart categories.
	for _, category := range currentCategories {
		for _, related := range boughtTogether[category] {
			picks = append(picks, matching(in.Products, related, currentSKUs, 2)...)
		}
	}

	// Rule 2: the customer's most frequent past categories.
	if len(in.History) > 0 {
		freq := map[string]int{}
		for _, it := range in.History {
			freq[it.Category]++
		}
		for _, category := range topCategories(freq, 3) {
			picks = append(picks, byCategory(in.Products, category, currentSKUs, 1)...)
		}
	}

	// Rule 3: margin for reliable payers, affordable essentials otherwise.
	if paymentRate >= 70 {
		picks = append(picks, topMargin(tierProducts, currentSKUs, 2)...)
	} else {
		picks = append(picks, byCategory(tierProducts, "Accessories", currentSKUs, 2)...)
	}

	// Rule 4: overall best sellers.
	picks = append(picks, topSellers(in.Products, currentSKUs, 2)...)

	seen := map[string]bool{}
	var out []domain.Recommendation
	for _, p := range picks {
		if seen[p.SKU] {
			continue
		}
		seen[p.SKU] = true
		out = append(out, domain.Recommendation{
			SKU:      p.SKU,
			Name:     p.Name,
			Category: p.Category,
			Price:    p.LandedCost,
			Reason:   reasonFor(p, currentCategories, in.History),
		})
		if len(out) == 5 {
			break
		}
	}
	return out
}

func filterByTier(products []domain.CatalogProduct, tier string) []domain.CatalogProduct {
	var out []domain.CatalogProduct
	for _, p := range products {
		switch tier {
		case "platinum":
			if p.LandedCost > 150000 {
				out = append(out, p)
			}
		case "gold":
			if p.LandedCost > 80000 {
				out = append(out, p)
			}
		case "silver":
			if p.LandedCost < 200000 {
				out = append(out, p)
			}
		default:
			out = append(out, p)
		}
	}
	return out
}

// matching finds products in a related category, by exact category or a
// name substring.
func matching(products []domain.CatalogProduct, related string, exclude map[string]bool, n int) []domain.CatalogProduct {
	lowered := strings.ToLower(related)
	var out []domain.CatalogProduct
	for _, p := range products {
		if exclude[p.SKU] {
			continue
		}
		if p.Category == related || strings.Contains(strings.ToLower(p.Name), lowered) {
			out = append(out, p)
			if len(out) == n {
				break
			}
		}
	}
	return out
}

func byCategory(products []domain.CatalogProduct, category string, exclude map[string]bool, n int) []domain.CatalogProduct {
	var out []domain.CatalogProduct
	for _, p := range products {
		if exclude[p.SKU] || p.Category != category {
			continue
		}
		out = append(out, p)
		if len(out) == n {
			break
		}
	}
	return out
}

func topCategories(freq map[string]int, n int) []string {
	categories := make([]string, 0, len(freq))
	for c := range freq {
		categories = append(categories, c)
	}
	sort.SliceStable(categories, func(i, j int) bool {
		if freq[categories[i]] != freq[categories[j]] {
			return freq[categories[i]] > freq[categories[j]]
		}
		return categories[i] < categories[j]
	})
	if len(categories) > n {
		categories = categories[:n]
	}
	return categories
}

func topMargin(products []domain.CatalogProduct, exclude map[string]bool, n int) []domain.CatalogProduct {
	var candidates []domain.CatalogProduct
	for _, p := range products {
		if !exclude[p.SKU] {
			candidates = append(candidates, p)
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].SellingPrice-candidates[i].LandedCost >
			candidates[j].SellingPrice-candidates[j].LandedCost
	})
	if len(candidates) > n {
		candidates = candidates[:n]
	}
	return candidates
}

func topSellers(products []domain.CatalogProduct, exclude map[string]bool, n int) []domain.CatalogProduct {
	var candidates []domain.CatalogProduct
	for _, p := range products {
		if !exclude[p.SKU] {
			candidates = append(candidates, p)
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].SalesCount > candidates[j].SalesCount
	})
	if len(candidates) > n {
		candidates = candidates[:n]
	}
	return candidates
}

func reasonFor(p domain.CatalogProduct, currentCategories []string, history []domain.PurchasedItem) string {
	for _, category := range currentCategories {
		for _, related := range boughtTogether[category] {
			if p.Category == related || strings.Contains(strings.ToLower(p.Name), strings.ToLower(related)) {
				return "Frequently bought with " + category
			}
		}
	}
	for _, it := range history {
		if it.Category == p.Category {
			return "Based on your purchase history"
		}
	}
	return "Popular choice"
}
