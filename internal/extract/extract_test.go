package extract

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, html string) *goquery.Selection {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc.Find("div.item").First()
}

func TestChainFirstRuleWins(t *testing.T) {
	el := parse(t, `<div class="item">
		<h2><span>Short</span></h2>
		<span class="title">Anker Soundcore 2 Portable Speaker</span>
		<a href="/dp/B01">Link text that is long enough</a>
	</div>`)

	chain := Chain{
		{Selector: "h2 span", Read: Text, Accept: LongerThan(5)},
		{Selector: "span.title", Read: Text},
		{Selector: "a", Read: Text},
	}
	assert.Equal(t, "Anker Soundcore 2 Portable Speaker", chain.First(el))
}

func TestChainFallsThroughAllMatches(t *testing.T) {
	el := parse(t, `<div class="item">
		<a href="/help">Help</a>
		<a href="/gp/product/B02">Product</a>
	</div>`)

	chain := Chain{
		{Selector: "a[href]", Read: ResolvedAttr("https://www.amazon.com", "href"), Accept: IsProductURL},
	}
	assert.Equal(t, "https://www.amazon.com/gp/product/B02", chain.First(el))
}

func TestChainEmpty(t *testing.T) {
	el := parse(t, `<div class="item"><p></p></div>`)
	chain := Chain{{Selector: "h3", Read: Text}}
	assert.Empty(t, chain.First(el))
}

func TestSelfRule(t *testing.T) {
	el := parse(t, `<div class="item" title="  Title From Attribute  ">body</div>`)
	chain := Chain{{Read: AttrOrText("title")}}
	assert.Equal(t, "Title From Attribute", chain.First(el))
}

func TestNestedText(t *testing.T) {
	el := parse(t, `<div class="item"><h3><span role="heading">Noise Cancelling Headphones</span></h3></div>`)
	read := NestedText(5, `span[role="heading"]`, "span")
	assert.Equal(t, "Noise Cancelling Headphones", read(el.Find("h3")))
}

func TestResolvedAttrSkipsDataURIs(t *testing.T) {
	el := parse(t, `<div class="item"><img src="data:image/gif;base64,AAA" data-src="//i.ebayimg.com/s-l140.jpg"></div>`)
	read := ResolvedAttr("https://www.ebay.com", "src", "data-src")
	assert.Equal(t, "https://i.ebayimg.com/s-l140.jpg", read(el.Find("img")))
}

func TestMap(t *testing.T) {
	el := parse(t, `<div class="item">  SPONSORED Gaming Mouse </div>`)
	read := Map(Text, func(v string) string { return TrimAffixes(v, []string{"sponsored"}, nil) })
	assert.Equal(t, "Gaming Mouse", read(el))
}

func TestFirstNumber(t *testing.T) {
	v, ok := FirstNumber("$1,299.99")
	require.True(t, ok)
	assert.InDelta(t, 1299.99, v, 0.001)

	_, ok = FirstNumber("free")
	assert.False(t, ok)
}

func TestFirstCount(t *testing.T) {
	tests := []struct {
		in   string
		want int
		ok   bool
	}{
		{"1,234 ratings", 1234, true},
		{"37 sold", 37, true},
		{"1.2K bought in past month", 1200, true},
		{"no reviews", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := FirstCount(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRatingOutOf(t *testing.T) {
	v, ok := RatingOutOf("4.6 out of 5 stars")
	require.True(t, ok)
	assert.Equal(t, 4.6, v)

	_, ok = RatingOutOf("4.6 stars")
	assert.False(t, ok)
}

func TestRatingFromCount(t *testing.T) {
	assert.Equal(t, 5.0, RatingFromCount(101))
	assert.Equal(t, 4.5, RatingFromCount(100))
	assert.Equal(t, 4.0, RatingFromCount(21))
	assert.Equal(t, 3.5, RatingFromCount(11))
	assert.Equal(t, 3.0, RatingFromCount(6))
	assert.Equal(t, 2.5, RatingFromCount(5))
	assert.Equal(t, 2.5, RatingFromCount(0))
}

func TestPriceHelpers(t *testing.T) {
	assert.Equal(t, "$10.00", LowerBound("$10.00 to $25.00"))
	assert.Equal(t, "$10.00", LowerBound("$10.00"))
	assert.Equal(t, "$8.99", LowerBound("$8.99 - $12.99"))
	assert.Equal(t, "$12.50", StripShipping("$12.50 +$4.99 shipping"))
	assert.True(t, HasCurrency("US $3.20"))
	assert.True(t, HasCurrency("€3,20"))
	assert.False(t, HasCurrency("3.20"))
}

func TestResolveURL(t *testing.T) {
	assert.Equal(t, "https://www.ebay.com/itm/1", ResolveURL("https://www.ebay.com/sch/i.html", "/itm/1"))
	assert.Equal(t, "https://a.example/x", ResolveURL("https://www.ebay.com", "https://a.example/x"))
	assert.Empty(t, ResolveURL("https://www.ebay.com", "javascript:void(0)"))
	assert.Empty(t, ResolveURL("https://www.ebay.com", ""))
	assert.Empty(t, ResolveURL("https://www.ebay.com", "mailto:a@b.c"))
}

func TestStripQuery(t *testing.T) {
	assert.Equal(t, "https://i.ebayimg.com/s-l300.jpg", StripQuery("https://i.ebayimg.com/s-l300.jpg?set_id=1#x"))
}

func TestIsProductURL(t *testing.T) {
	assert.True(t, IsProductURL("https://www.amazon.com/Speaker/dp/B01"))
	assert.True(t, IsProductURL("https://www.ebay.com/itm/123"))
	assert.True(t, IsProductURL("https://www.aliexpress.com/item/100.html"))
	assert.False(t, IsProductURL("https://www.amazon.com/s?k=phone"))
	assert.False(t, IsProductURL(""))
}

func TestIsBoilerplate(t *testing.T) {
	assert.True(t, IsBoilerplate("Shop on eBay"))
	assert.True(t, IsBoilerplate("SPONSORED listing"))
	assert.True(t, IsBoilerplate("Related searches"))
	assert.False(t, IsBoilerplate("Sony WH-1000XM5"))
	assert.False(t, IsBoilerplate("Case compatible with sponsored phones"))
}

func TestTrimAffixes(t *testing.T) {
	prefixes := []string{"New Listing", "SPONSORED"}
	suffixes := []string{"Shop on eBay"}

	assert.Equal(t, "Apple iPhone 13", TrimAffixes("New Listing  Apple iPhone 13", prefixes, suffixes))
	assert.Equal(t, "Apple iPhone 13", TrimAffixes("new listingSPONSORED Apple iPhone 13 Shop on eBay", prefixes, suffixes))
	assert.Equal(t, "Apple iPhone 13", TrimAffixes("Apple iPhone 13...", prefixes, suffixes))
}
