package catalog

import (
	"sort"
	"strings"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// ByCategory returns the products of a category in catalog order.
func (s *Store) ByCategory(category enums.ProductCategory) []Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []Product{}
	for _, p := range s.products {
		if p.Category == category {
			out = append(out, p.clone())
		}
	}
	return out
}

// Search matches term against name and description ignoring case. An empty
// term matches nothing.
func (s *Store) Search(term string) []Product {
	out := []Product{}
	term = strings.TrimSpace(term)
	if term == "" {
		return out
	}

	fold := cases.Fold()
	needle := fold.String(term)

	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.products {
		if strings.Contains(fold.String(p.Name), needle) || strings.Contains(fold.String(p.Description), needle) {
			out = append(out, p.clone())
		}
	}
	return out
}

// Stats summarizes the local copy.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := Stats{Count: len(s.products), AveragePrice: decimal.Zero}
	if stats.Count == 0 {
		return stats
	}
	sum := decimal.Zero
	categories := map[enums.ProductCategory]struct{}{}
	for _, p := range s.products {
		sum = sum.Add(p.Price)
		categories[p.Category] = struct{}{}
		stats.TotalStock += p.Stock
	}
	stats.AveragePrice = sum.Div(decimal.NewFromInt(int64(stats.Count))).Round(2)
	stats.Categories = len(categories)
	return stats
}

// Sort returns a copy of products ordered for display. Names compare with
// Brazilian Portuguese collation; unknown options keep the given order.
func Sort(products []Product, option enums.SortOption) []Product {
	out := cloneProducts(products)
	switch option {
	case enums.SortOptionName:
		coll := collate.New(language.BrazilianPortuguese, collate.IgnoreCase)
		sort.SliceStable(out, func(i, j int) bool {
			return coll.CompareString(out[i].Name, out[j].Name) < 0
		})
	case enums.SortOptionPriceLow:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Price.LessThan(out[j].Price)
		})
	case enums.SortOptionPriceHigh:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Price.GreaterThan(out[j].Price)
		})
	}
	return out
}
