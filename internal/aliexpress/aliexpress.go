// Package aliexpress scrapes aliexpress.com search results. Most of the
// listing grid is rendered client-side, so this platform benefits from the
// headless fallback.
package aliexpress

import (
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/lukman83/shopgenie/internal/extract"
	"github.com/lukman83/shopgenie/internal/httputil"
	"github.com/lukman83/shopgenie/internal/models"
	"github.com/lukman83/shopgenie/internal/platform"
	"github.com/lukman83/shopgenie/internal/scrape"
)

const (
	ID          platform.ID = "aliexpress"
	DisplayName             = "AliExpress"
	BaseURL                 = "https://www.aliexpress.com"

	// MaxTitleLength is shorter than elsewhere; AliExpress titles are
	// keyword-stuffed.
	MaxTitleLength = 100
)

// Aliases are the extra tokens users type for AliExpress.
var Aliases = []string{"aliexpress.com", "ali"}

// Parser extracts products from AliExpress result tiles.
type Parser struct {
	rules rules
}

// NewParser returns a Parser resolving links against BaseURL.
func NewParser() *Parser {
	return &Parser{rules: newRules(BaseURL)}
}

func (p *Parser) ParseProduct(el *goquery.Selection) (models.Product, error) {
	l := models.Listing{
		Title:    models.Truncate(p.rules.title.First(el), MaxTitleLength),
		Price:    p.rules.price.First(el),
		ImageURL: p.rules.image.First(el),
		URL:      p.rules.link.First(el),
		Platform: string(ID),
	}
	if r, ok := extract.FirstNumber(p.rules.rating.First(el)); ok {
		l.Rating = extract.ClampRating(r)
	}
	if n, ok := extract.FirstCount(p.rules.sales.First(el)); ok {
		l.Sales = n
	}
	return l.Product()
}

// Site describes the AliExpress wholesale search page. The pre-request
// delay applies before the first attempt as well as between retries.
func Site(delay time.Duration) scrape.Site {
	return scrape.Site{
		Platform:  string(ID),
		BaseURL:   BaseURL,
		SearchURL: BaseURL + "/wholesale?SearchText=%s&SortType=total_tranpro_desc",
		Containers: []string{
			`div[data-widget-cid="module_item_list_square"] div._1k5Jn`,
			"div.list-item",
			"div.item",
			"div[data-widget-cid] div.item-info",
			`a[href*="/item/"]`,
		},
		FallbackAnchors: `a[href*="/item/"]`,
		PreRequestDelay: delay,
		BotMarkers: []string{
			"slide to verify",
			"unusual traffic",
			"captcha",
		},
		HealthyBodySize: 20_000,
		Parser:          NewParser(),
	}
}

// Backoff is a fixed pause between attempts.
func Backoff(delay time.Duration) httputil.Backoff {
	return httputil.FixedBackoff(delay)
}

// Entry registers s as the AliExpress platform.
func Entry(s platform.Scraper) platform.Entry {
	return platform.Entry{ID: ID, DisplayName: DisplayName, Aliases: Aliases, Scraper: s}
}
