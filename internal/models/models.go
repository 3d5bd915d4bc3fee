package models

import (
	"errors"
	"math"
	"net/url"
	"strings"
	"time"
)

const (
	// UnknownPrice is shown when a listing carries no readable price.
	UnknownPrice = "N/A"

	MaxTitleLength = 150
	MinTitleLength = 5
)

var (
	ErrMissingTitle = errors.New("listing has no usable title")
	ErrMissingLink  = errors.New("listing has no product link")
)

var placeholderTitles = map[string]bool{
	"unknown item": true,
	"unknown":      true,
	"n/a":          true,
	"shop on ebay": true,
}

// Product is one normalized marketplace listing. Values are only produced by
// Listing.Product and are never modified afterwards.
type Product struct {
	Title     string    `json:"title"`
	Price     string    `json:"price"`
	Rating    float64   `json:"rating"`
	Sales     int       `json:"sales"`
	ImageURL  string    `json:"image_url,omitempty"`
	URL       string    `json:"url"`
	Platform  string    `json:"platform"`
	ScrapedAt time.Time `json:"scraped_at"`
}

// Listing holds the raw fields pulled out of a result element before they
// are validated into a Product.
type Listing struct {
	Title    string
	Price    string
	Rating   float64
	Sales    int
	ImageURL string
	URL      string
	Platform string
}

// Product validates the listing and builds the immutable Product.
func (l Listing) Product() (Product, error) {
	title := strings.Join(strings.Fields(l.Title), " ")
	if len([]rune(title)) < MinTitleLength || placeholderTitles[strings.ToLower(title)] {
		return Product{}, ErrMissingTitle
	}
	if !isAbsoluteHTTP(l.URL) {
		return Product{}, ErrMissingLink
	}

	price := strings.TrimSpace(l.Price)
	if price == "" {
		price = UnknownPrice
	}
	rating := l.Rating
	if rating < 0 || math.IsNaN(rating) {
		rating = 0
	}
	if rating > 5 {
		rating = 5
	}
	sales := l.Sales
	if sales < 0 {
		sales = 0
	}
	image := strings.TrimSpace(l.ImageURL)
	if image != "" && !isAbsoluteHTTP(image) {
		image = ""
	}

	return Product{
		Title:     Truncate(title, MaxTitleLength),
		Price:     price,
		Rating:    rating,
		Sales:     sales,
		ImageURL:  image,
		URL:       l.URL,
		Platform:  l.Platform,
		ScrapedAt: time.Now(),
	}, nil
}

// HasKnownPrice reports whether the price is something other than the sentinel.
func (p Product) HasKnownPrice() bool {
	return p.Price != "" && p.Price != UnknownPrice
}

func isAbsoluteHTTP(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Truncate shortens s to at most max runes, marking the cut with "...".
func Truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return strings.TrimSpace(string(r[:max-3])) + "..."
}
