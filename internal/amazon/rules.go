package amazon

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/lukman83/shopgenie/internal/extract"
	"github.com/lukman83/shopgenie/internal/models"
)

var titlePrefixes = []string{
	"Sponsored Ad -",
	"Sponsored Ad –",
	"Sponsored",
	"Amazon's Choice",
	"Best Seller",
	"Overall Pick",
}

var countOnlyRe = regexp.MustCompile(`^\(?[\d,.]+[kKmM]?\+?\)?$`)

func cleanTitle(v string) string {
	return extract.TrimAffixes(v, titlePrefixes, nil)
}

func plausibleTitle(minLen int) func(string) bool {
	return extract.All(extract.LongerThan(minLen), func(v string) bool { return !extract.IsBoilerplate(v) })
}

func isProductLink(href string) bool {
	return extract.HasPathFragment(href, "/dp/", "/gp/")
}

func hasRating(v string) bool {
	_, ok := extract.RatingOutOf(v)
	return ok
}

func looksLikeCount(v string) bool {
	return countOnlyRe.MatchString(strings.ReplaceAll(v, " ", ""))
}

// splitPrice joins the whole and fraction spans of Amazon's price widget.
func splitPrice(el *goquery.Selection) string {
	whole := el.Find("span.a-price-whole").First()
	if whole.Length() == 0 {
		return ""
	}
	text := strings.TrimRight(extract.Text(whole), ".")
	if text == "" {
		return ""
	}
	if frac := extract.Text(el.Find("span.a-price-fraction").First()); frac != "" {
		text += "." + frac
	}
	return "$" + text
}

type rules struct {
	title, price, rating, sales, image, link extract.Chain
}

func newRules(base string) rules {
	title := extract.Map(extract.Text, cleanTitle)
	minLen := models.MinTitleLength - 1
	href := extract.ResolvedAttr(base, "href")

	return rules{
		title: extract.Chain{
			{Selector: `[data-cy="title-recipe"] h2`, Read: title, Accept: plausibleTitle(minLen)},
			{Selector: `[data-cy="title-recipe"]`, Read: title, Accept: plausibleTitle(minLen)},
			{Selector: `h2[class*="a-size-mini"] a, h2[class*="a-size-base-plus"] a`, Read: title, Accept: plausibleTitle(minLen)},
			{Selector: `a[href*="/dp/"], a[href*="/gp/"]`, Read: title, Accept: plausibleTitle(15)},
			{Selector: "h2 a span", Read: title, Accept: plausibleTitle(5)},
			{Selector: "h2 span", Read: title, Accept: plausibleTitle(5)},
			{Selector: `[data-cy="title-recipe-link"]`, Read: title, Accept: plausibleTitle(5)},
			{Selector: `a[href*="/dp/"]`, Read: title, Accept: plausibleTitle(5)},
		},
		price: extract.Chain{
			{Read: splitPrice},
			{Selector: ".a-price .a-offscreen", Read: extract.Text},
			{Selector: ".a-price-range", Read: extract.Text},
			{Selector: `span[data-a-color="price"]`, Read: extract.Text},
		},
		rating: extract.Chain{
			{Selector: "span.a-icon-alt", Read: extract.Text, Accept: hasRating},
			{Selector: `[aria-label*="out of 5 stars"]`, Read: extract.Attr("aria-label"), Accept: hasRating},
		},
		sales: extract.Chain{
			{Selector: `a[href*="#customerReviews"] span`, Read: extract.Text, Accept: looksLikeCount},
			{Selector: "span.s-underline-text", Read: extract.Text, Accept: looksLikeCount},
			{Selector: "a.a-link-normal", Read: extract.Text, Accept: looksLikeCount},
		},
		image: extract.Chain{
			{Selector: "img.s-image", Read: extract.Map(extract.ResolvedAttr(base, "src", "data-src"), extract.StripQuery)},
		},
		link: extract.Chain{
			{Selector: "a[href]", Read: href, Accept: isProductLink},
			{Selector: `h2[class*="a-size-mini"] a, h2[class*="a-size-base-plus"] a`, Read: href, Accept: extract.IsProductURL},
		},
	}
}
