// Package scrape runs one marketplace search: build the URL, fetch with
// retries, locate result elements and hand each one to the site's parser.
package scrape

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/lukman83/shopgenie/internal/extract"
	"github.com/lukman83/shopgenie/internal/httputil"
	"github.com/lukman83/shopgenie/internal/models"
	"github.com/lukman83/shopgenie/internal/platform"
	"golang.org/x/net/html"
)

// ProductParser turns one result element into a Product or rejects it.
type ProductParser interface {
	ParseProduct(el *goquery.Selection) (models.Product, error)
}

// PageFetcher retrieves a page body. httputil.Fetcher and headless.Fetcher
// both satisfy it.
type PageFetcher interface {
	Fetch(ctx context.Context, rawURL string) (*httputil.Page, error)
}

// Site describes how to search one marketplace.
type Site struct {
	Platform string
	BaseURL  string
	// SearchURL is a fmt template with one %s for the encoded query.
	SearchURL string
	// Containers are tried in order; the first selector with any match wins.
	Containers []string
	// FallbackAnchors is scanned when no container selector matches.
	FallbackAnchors string
	// PreRequestDelay is slept before the first request of every search.
	PreRequestDelay time.Duration
	// BotMarkers are lowercase fragments that show up on block pages.
	BotMarkers []string
	// HealthyBodySize is the smallest body a real results page has.
	HealthyBodySize int
	Parser          ProductParser
}

// Scraper implements platform.Scraper for a Site.
type Scraper struct {
	site     Site
	fetcher  PageFetcher
	fallback PageFetcher
	logger   *slog.Logger
	sleep    func(context.Context, time.Duration) error
}

// Option configures a Scraper.
type Option func(*Scraper)

// WithFallback sets a secondary fetcher tried once when the primary page
// looks throttled.
func WithFallback(f PageFetcher) Option {
	return func(s *Scraper) { s.fallback = f }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scraper) { s.logger = l }
}

// WithSleep replaces the pre-request wait. Used by tests.
func WithSleep(sleep func(context.Context, time.Duration) error) Option {
	return func(s *Scraper) { s.sleep = sleep }
}

// New creates a Scraper for site.
func New(site Site, fetcher PageFetcher, opts ...Option) *Scraper {
	s := &Scraper{
		site:    site,
		fetcher: fetcher,
		logger:  slog.Default(),
		sleep:   httputil.Sleep,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "scraper", "platform", site.Platform)
	return s
}

var _ platform.Scraper = (*Scraper)(nil)

// Site returns the scraper's site description.
func (s *Scraper) Site() Site { return s.site }

// SearchURL builds the search page URL for query.
func (s *Scraper) SearchURL(query string) string {
	q := strings.ReplaceAll(url.QueryEscape(strings.TrimSpace(query)), "+", "%20")
	return fmt.Sprintf(s.site.SearchURL, q)
}

// Search fetches the results page for query and returns up to maxResults
// products. Exhausted retries are returned as an error; a reachable page
// with nothing extractable is not an error.
func (s *Scraper) Search(ctx context.Context, query string, maxResults int) ([]models.Product, error) {
	defer s.closeIdle()

	if maxResults <= 0 {
		return nil, nil
	}
	if err := s.sleep(ctx, s.site.PreRequestDelay); err != nil {
		return nil, err
	}

	searchURL := s.SearchURL(query)
	platform.ReportProgress(ctx, fmt.Sprintf("Searching %s for %q...", s.site.Platform, query))
	s.logger.Info("searching", "query", query, "url", searchURL)

	page, err := s.fetcher.Fetch(ctx, searchURL)
	if err != nil {
		s.logger.Error("search failed", "query", query, "error", err)
		return nil, fmt.Errorf("%s search: %w", s.site.Platform, err)
	}

	products, err := s.Extract(page.Body, maxResults)
	if err != nil {
		return nil, fmt.Errorf("%s search: %w", s.site.Platform, err)
	}
	if len(products) > 0 || !s.LooksLimited(page.Body) {
		s.logger.Info("search complete", "query", query, "products", len(products), "bytes", len(page.Body))
		return products, nil
	}

	s.logger.Warn("platform likely rate-limiting us",
		"query", query,
		"bytes", len(page.Body),
	)
	if s.fallback == nil {
		return products, nil
	}

	platform.ReportProgress(ctx, "Page looked throttled, retrying in a headless browser...")
	rendered, err := s.fallback.Fetch(ctx, searchURL)
	if err != nil {
		s.logger.Warn("fallback fetch failed", "error", err)
		return products, nil
	}
	products, err = s.Extract(rendered.Body, maxResults)
	if err != nil {
		return nil, fmt.Errorf("%s search: %w", s.site.Platform, err)
	}
	s.logger.Info("fallback search complete", "query", query, "products", len(products))
	return products, nil
}

// Extract parses body and returns up to maxResults products. Elements the
// parser rejects, or that make it panic, are skipped.
func (s *Scraper) Extract(body []byte, maxResults int) ([]models.Product, error) {
	doc, err := ParseDocument(body)
	if err != nil {
		return nil, err
	}

	candidates, selector := s.candidates(doc)
	s.logger.Debug("candidate elements", "selector", selector, "count", candidates.Length())

	products := make([]models.Product, 0, min(maxResults, candidates.Length()))
	seen := make(map[string]bool)
	candidates.EachWithBreak(func(i int, el *goquery.Selection) bool {
		p, err := s.parseOne(el)
		if err != nil {
			s.logger.Debug("skipping element", "index", i, "reason", err)
			return true
		}
		if seen[p.URL] {
			return true
		}
		seen[p.URL] = true
		products = append(products, p)
		return len(products) < maxResults
	})

	if len(products) == 0 {
		products = s.structuredData(doc, maxResults)
	}
	return products, nil
}

// LooksLimited reports whether a page that produced no products resembles
// a block or interstitial page.
func (s *Scraper) LooksLimited(body []byte) bool {
	if len(body) < s.site.HealthyBodySize {
		return true
	}
	lower := bytes.ToLower(body)
	for _, m := range s.site.BotMarkers {
		if bytes.Contains(lower, []byte(m)) {
			return true
		}
	}
	return false
}

func (s *Scraper) candidates(doc *goquery.Document) (*goquery.Selection, string) {
	for _, sel := range s.site.Containers {
		if found := doc.Find(sel); found.Length() > 0 {
			return found, sel
		}
	}
	if s.site.FallbackAnchors != "" {
		return doc.Find(s.site.FallbackAnchors), s.site.FallbackAnchors
	}
	return doc.FindNodes(), ""
}

func (s *Scraper) parseOne(el *goquery.Selection) (p models.Product, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parser panic: %v", r)
		}
	}()
	return s.site.Parser.ParseProduct(el)
}

func (s *Scraper) structuredData(doc *goquery.Document, maxResults int) []models.Product {
	var products []models.Product
	for _, l := range ExtractJSONLD(doc, s.site.BaseURL) {
		l.Platform = s.site.Platform
		if extract.IsBoilerplate(l.Title) {
			continue
		}
		p, err := l.Product()
		if err != nil {
			continue
		}
		products = append(products, p)
		if len(products) == maxResults {
			break
		}
	}
	if len(products) > 0 {
		s.logger.Debug("products from structured data", "count", len(products))
	}
	return products
}

func (s *Scraper) closeIdle() {
	if c, ok := s.fetcher.(interface{ CloseIdleConnections() }); ok {
		c.CloseIdleConnections()
	}
}

// ParseDocument builds a goquery document from raw HTML.
func ParseDocument(body []byte) (*goquery.Document, error) {
	root, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse HTML: %w", err)
	}
	return goquery.NewDocumentFromNode(root), nil
}
