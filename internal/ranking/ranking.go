// Package ranking orders products by a composite desirability score or a
// single field.
package ranking

import (
	"log/slog"
	"math"
	"slices"
	"strings"

	"github.com/lukman83/shopgenie/internal/extract"
	"github.com/lukman83/shopgenie/internal/models"
)

// Method selects the sort key.
type Method string

const (
	ByScore  Method = "score"
	ByPrice  Method = "price"
	ByRating Method = "rating"
	BySales  Method = "sales"
)

// Methods lists every supported method.
var Methods = []Method{ByScore, ByPrice, ByRating, BySales}

// Score weights.
const (
	RatingWeight = 0.4
	SalesWeight  = 0.3
	PriceWeight  = 0.3

	// neutralPrice keeps unknown prices from being penalized.
	neutralPrice = 0.5
)

// ParseMethod resolves a method name case-insensitively.
func ParseMethod(s string) (Method, bool) {
	m := Method(strings.ToLower(strings.TrimSpace(s)))
	if slices.Contains(Methods, m) {
		return m, true
	}
	return ByScore, false
}

// PriceValue parses the numeric part of a display price. Unparseable and
// unknown prices are 0.
func PriceValue(price string) float64 {
	v, ok := extract.FirstNumber(price)
	if !ok {
		return 0
	}
	return v
}

// Score combines rating, sales and price into [0, 1]. Unknown rating and
// sales contribute 0, an unknown price contributes a neutral 0.5.
func Score(p models.Product) float64 {
	var rating, sales float64
	if p.Rating > 0 {
		rating = clamp01(p.Rating / 5)
	}
	if p.Sales > 0 {
		sales = clamp01(math.Log10(float64(p.Sales)+1) / 6)
	}
	price := neutralPrice
	if v := PriceValue(p.Price); v > 0 {
		price = clamp01(1 - v/1000)
	}
	return RatingWeight*rating + SalesWeight*sales + PriceWeight*price
}

// Rank returns at most limit products ordered by method. Ties keep their
// input order and the input slice is never modified. An unknown method
// falls back to ByScore.
//
// ByPrice sorts ascending on PriceValue, so unknown prices (0) come first.
func Rank(products []models.Product, method Method, limit int) []models.Product {
	if len(products) == 0 || limit <= 0 {
		return []models.Product{}
	}

	ranked := slices.Clone(products)
	switch method {
	case ByScore:
		sortDesc(ranked, Score)
	case ByPrice:
		slices.SortStableFunc(ranked, func(a, b models.Product) int {
			return cmpFloat(PriceValue(a.Price), PriceValue(b.Price))
		})
	case ByRating:
		sortDesc(ranked, func(p models.Product) float64 { return p.Rating })
	case BySales:
		sortDesc(ranked, func(p models.Product) float64 { return float64(p.Sales) })
	default:
		slog.Warn("unknown ranking method, using score", "method", method)
		return Rank(products, ByScore, limit)
	}

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

func sortDesc(products []models.Product, key func(models.Product) float64) {
	slices.SortStableFunc(products, func(a, b models.Product) int {
		return cmpFloat(key(b), key(a))
	})
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
