// Package ebay scrapes ebay.com search results.
package ebay

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
	ID          platform.ID = "ebay"
	DisplayName             = "eBay"
	BaseURL                 = "https://www.ebay.com"

	// PreRequestDelay spaces searches out to avoid burst detection.
	PreRequestDelay = 2 * time.Second
)

// Aliases are the extra tokens users type for eBay.
var Aliases = []string{"ebay.com", "bay"}

// Parser extracts products from eBay result items.
type Parser struct {
	rules rules
}

// NewParser returns a Parser resolving links against BaseURL.
func NewParser() *Parser {
	return &Parser{rules: newRules(BaseURL)}
}

func (p *Parser) ParseProduct(el *goquery.Selection) (models.Product, error) {
	l := models.Listing{
		Title:    p.rules.title.First(el),
		Price:    extract.StripShipping(extract.LowerBound(p.rules.price.First(el))),
		Sales:    soldCount(p.rules.sales.First(el)),
		ImageURL: p.rules.image.First(el),
		URL:      p.rules.link.First(el),
		Platform: string(ID),
	}
	if r, ok := extract.RatingOutOf(p.rules.rating.First(el)); ok {
		l.Rating = r
	} else if n, ok := extract.FirstCount(p.rules.reviews.First(el)); ok {
		l.Rating = extract.RatingFromCount(n)
	}
	return l.Product()
}

// Site describes the eBay search page.
func Site() scrape.Site {
	return scrape.Site{
		Platform:  string(ID),
		BaseURL:   BaseURL,
		SearchURL: BaseURL + "/sch/i.html?_nkw=%s&_sacat=0&_ipg=60",
		Containers: []string{
			"div.s-item__wrapper",
			`div[class*="s-item__wrapper"]`,
			"li.s-card",
			`div[class*="s-item"]`,
			`div[data-view="mi:1686|iid:1"]`,
			`div[class*="item"]`,
			".s-item",
		},
		FallbackAnchors: `a[href*="/itm/"]`,
		PreRequestDelay: PreRequestDelay,
		BotMarkers: []string{
			"pardon our interruption",
			"checking your browser",
			"captcha",
		},
		HealthyBodySize: 100_000,
		Parser:          NewParser(),
	}
}

// Backoff doubles the pause after every failed attempt: 2s, 4s, 8s.
func Backoff() httputil.Backoff {
	return httputil.ExponentialBackoff(2 * time.Second)
}

// Entry registers s as the eBay platform.
func Entry(s platform.Scraper) platform.Entry {
	return platform.Entry{ID: ID, DisplayName: DisplayName, Aliases: Aliases, Scraper: s}
}
