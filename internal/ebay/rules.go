package ebay

import (
	"regexp"
	"strings"

	"github.com/lukman83/shopgenie/internal/extract"
	"github.com/lukman83/shopgenie/internal/models"
)

var (
	titlePrefixes = []string{"New Listing", "SPONSORED", "Hot This Week"}
	titleSuffixes = []string{"Shop on eBay", "Opens in a new window or tab"}

	thumbnailSizes = []string{"s-l64", "s-l96", "s-l140", "s-l225"}

	soldRe = regexp.MustCompile(`(?i)(\d[\d,]*)\+?\s*sold`)
)

func cleanTitle(v string) string {
	t := extract.TrimAffixes(v, titlePrefixes, nil)
	t, _, _ = strings.Cut(t, "|")
	return extract.TrimAffixes(t, titlePrefixes, titleSuffixes)
}

func plausibleTitle(minLen int) func(string) bool {
	return extract.All(extract.LongerThan(minLen), func(v string) bool { return !extract.IsBoilerplate(v) })
}

func hasRating(v string) bool {
	_, ok := extract.RatingOutOf(v)
	return ok
}

func hasSold(v string) bool {
	return soldRe.MatchString(v)
}

// soldCount reads "1,234 sold" style text.
func soldCount(v string) int {
	m := soldRe.FindStringSubmatch(v)
	if m == nil {
		return 0
	}
	n, _ := extract.FirstCount(m[1])
	return n
}

// upsizeImage drops CDN query strings and swaps thumbnail size tokens for
// the 300px rendition.
func upsizeImage(u string) string {
	u = extract.StripQuery(u)
	for _, small := range thumbnailSizes {
		u = strings.Replace(u, small+".", "s-l300.", 1)
	}
	return u
}

type rules struct {
	title, price, rating, reviews, sales, image, link extract.Chain
}

func newRules(base string) rules {
	minLen := models.MinTitleLength - 1
	heading := extract.Map(extract.NestedText(minLen, `span[role="heading"]`, "span", "a"), cleanTitle)
	image := extract.Map(extract.ResolvedAttr(base, "src", "data-src", "data-original", "data-lazy"), upsizeImage)
	link := extract.Map(extract.ResolvedAttr(base, "href"), extract.StripQuery)

	return rules{
		title: extract.Chain{
			{Selector: "div.s-item__title", Read: heading, Accept: plausibleTitle(minLen)},
			{Selector: "h3.s-item__title", Read: heading, Accept: plausibleTitle(minLen)},
			{Selector: ".s-card__title", Read: heading, Accept: plausibleTitle(minLen)},
			{Selector: `a[href*="/itm/"]`, Read: heading, Accept: plausibleTitle(minLen)},
			{Selector: `span[data-testid="item-title"]`, Read: heading, Accept: plausibleTitle(minLen)},
			{Selector: `h1[class*="title"], h2[class*="title"], h3[class*="title"], h4[class*="title"]`, Read: heading, Accept: plausibleTitle(minLen)},
			{Selector: "a[href]", Read: extract.Map(extract.Text, cleanTitle), Accept: plausibleTitle(10)},
		},
		price: extract.Chain{
			{Selector: "span.s-item__price", Read: extract.Text},
			{Selector: ".s-card__price", Read: extract.Text},
		},
		rating: extract.Chain{
			{Selector: ".x-star-rating .clipped", Read: extract.Text, Accept: hasRating},
			{Selector: `[aria-label*="out of 5 stars"]`, Read: extract.Attr("aria-label"), Accept: hasRating},
		},
		reviews: extract.Chain{
			{Selector: "span.s-item__reviews-count", Read: extract.Text, Accept: func(v string) bool {
				_, ok := extract.FirstCount(v)
				return ok
			}},
		},
		sales: extract.Chain{
			{Selector: "span.s-item__dynamic", Read: extract.Text, Accept: hasSold},
			{Selector: "span.s-item__quantitySold", Read: extract.Text, Accept: hasSold},
			{Selector: ".s-card__attribute-row", Read: extract.Text, Accept: hasSold},
		},
		image: extract.Chain{
			{Selector: "img.s-item__image", Read: image},
			{Selector: ".s-item__image img", Read: image},
			{Selector: ".s-item__link img", Read: image},
			{Selector: "img.s-card__image", Read: image},
			{Selector: `img[src*="ebayimg"]`, Read: image},
		},
		link: extract.Chain{
			{Selector: "a.s-item__link", Read: link, Accept: extract.IsProductURL},
			{Selector: `a[href*="/itm/"]`, Read: link, Accept: extract.IsProductURL},
			{Read: link, Accept: extract.IsProductURL},
		},
	}
}
