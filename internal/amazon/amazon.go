// Package amazon scrapes amazon.com search results.
package amazon

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
	ID          platform.ID = "amazon"
	DisplayName             = "Amazon"
	BaseURL                 = "https://www.amazon.com"
)

// Aliases are the extra tokens users type for Amazon.
var Aliases = []string{"amazon.com", "amzn"}

// Parser extracts products from Amazon search result cards.
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
		ImageURL: p.rules.image.First(el),
		URL:      p.rules.link.First(el),
		Platform: string(ID),
	}
	if r, ok := extract.RatingOutOf(p.rules.rating.First(el)); ok {
		l.Rating = r
	}
	if n, ok := extract.FirstCount(p.rules.sales.First(el)); ok {
		l.Sales = n
	}
	return l.Product()
}

// Site describes the Amazon search page.
func Site() scrape.Site {
	return scrape.Site{
		Platform:  string(ID),
		BaseURL:   BaseURL,
		SearchURL: BaseURL + "/s?k=%s&ref=nb_sb_noss",
		Containers: []string{
			`div[data-component-type="s-search-result"]`,
			"div.s-result-item",
		},
		FallbackAnchors: `a[href*="/dp/"]`,
		BotMarkers: []string{
			"enter the characters you see below",
			"to discuss automated access to amazon data",
			"api-services-support@amazon.com",
			"captcha",
		},
		HealthyBodySize: 50_000,
		Parser:          NewParser(),
	}
}

// Backoff is a fixed pause between attempts.
func Backoff(delay time.Duration) httputil.Backoff {
	return httputil.FixedBackoff(delay)
}

// Entry registers s as the Amazon platform.
func Entry(s platform.Scraper) platform.Entry {
	return platform.Entry{ID: ID, DisplayName: DisplayName, Aliases: Aliases, Scraper: s}
}
