package aliexpress

import (
	"github.com/lukman83/shopgenie/internal/extract"
	"github.com/lukman83/shopgenie/internal/models"
)

func plausibleTitle(v string) bool {
	return extract.LongerThan(models.MinTitleLength)(v) && !extract.IsBoilerplate(v)
}

func isItemLink(href string) bool {
	return extract.HasPathFragment(href, "/item/")
}

func positiveNumber(v string) bool {
	n, ok := extract.FirstNumber(v)
	return ok && n > 0
}

func positiveCount(v string) bool {
	n, ok := extract.FirstCount(v)
	return ok && n > 0
}

type rules struct {
	title, price, rating, sales, image, link extract.Chain
}

func newRules(base string) rules {
	title := extract.AttrOrText("title")
	rating := extract.AttrOrText("data-rating")
	href := extract.ResolvedAttr(base, "href")

	titleRules := make(extract.Chain, 0, 8)
	for _, sel := range []string{"h3", "h2", "h1", ".item-title", "a[title]", "[title]", ".title", "span.item-title-label"} {
		titleRules = append(titleRules, extract.Rule{Selector: sel, Read: title, Accept: plausibleTitle})
	}
	// Fallback anchors carry the title on themselves.
	titleRules = append(titleRules, extract.Rule{Read: title, Accept: plausibleTitle})

	priceRules := make(extract.Chain, 0, 6)
	for _, sel := range []string{".price", ".item-price", ".price-current", `span[class*="price"]`, `div[class*="price"]`, "span.notranslate"} {
		priceRules = append(priceRules, extract.Rule{Selector: sel, Read: extract.Text, Accept: extract.HasCurrency})
	}

	ratingRules := make(extract.Chain, 0, 5)
	for _, sel := range []string{".rate-star", ".rating", ".stars", "[data-rating]", ".item-rating"} {
		ratingRules = append(ratingRules, extract.Rule{Selector: sel, Read: rating, Accept: positiveNumber})
	}

	salesRules := make(extract.Chain, 0, 5)
	for _, sel := range []string{".item-sales", ".sold", ".orders", `span[class*="sold"]`, `span[class*="order"]`} {
		salesRules = append(salesRules, extract.Rule{Selector: sel, Read: extract.Text, Accept: positiveCount})
	}

	return rules{
		title:  titleRules,
		price:  priceRules,
		rating: ratingRules,
		sales:  salesRules,
		image: extract.Chain{
			{Selector: "img", Read: extract.ResolvedAttr(base, "src", "data-src")},
		},
		link: extract.Chain{
			{Read: href, Accept: isItemLink},
			{Selector: `a[href*="/item/"]`, Read: href, Accept: isItemLink},
		},
	}
}
