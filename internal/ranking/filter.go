package ranking

import "github.com/lukman83/shopgenie/internal/models"

// Filter drops products below a rating or sales floor or above a price
// ceiling. Zero fields do not constrain.
type Filter struct {
	MinRating float64
	MaxPrice  float64
	MinSales  int
}

// IsZero reports whether the filter would keep everything.
func (f Filter) IsZero() bool {
	return f == Filter{}
}

// Apply returns the products that pass the filter, in input order.
func (f Filter) Apply(products []models.Product) []models.Product {
	out := make([]models.Product, 0, len(products))
	for _, p := range products {
		if p.Rating < f.MinRating {
			continue
		}
		if f.MaxPrice > 0 && PriceValue(p.Price) > f.MaxPrice {
			continue
		}
		if p.Sales < f.MinSales {
			continue
		}
		out = append(out, p)
	}
	return out
}
