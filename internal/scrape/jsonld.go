package scrape

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/lukman83/shopgenie/internal/extract"
	"github.com/lukman83/shopgenie/internal/models"
)

type jsonLDItem struct {
	Type            string                 `json:"@type"`
	Name            string                 `json:"name"`
	URL             string                 `json:"url"`
	Image           any                    `json:"image"`
	Offers          json.RawMessage        `json:"offers"`
	AggregateRating *jsonLDAggregateRating `json:"aggregateRating"`
	ItemListElement []jsonLDListElement    `json:"itemListElement"`
}

type jsonLDOffer struct {
	Price         json.Number `json:"price"`
	LowPrice      json.Number `json:"lowPrice"`
	PriceCurrency string      `json:"priceCurrency"`
}

type jsonLDAggregateRating struct {
	RatingValue json.Number `json:"ratingValue"`
	ReviewCount json.Number `json:"reviewCount"`
}

type jsonLDListElement struct {
	Type string      `json:"@type"`
	URL  string      `json:"url"`
	Item *jsonLDItem `json:"item"`
}

// ExtractJSONLD reads schema.org Product and ItemList blocks embedded in
// the page. Relative URLs are resolved against base.
func ExtractJSONLD(doc *goquery.Document, base string) []models.Listing {
	var listings []models.Listing
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		items, err := parseJSONLD(s.Text())
		if err != nil {
			return
		}
		for _, it := range items {
			listings = append(listings, it.listing(base))
		}
	})
	return listings
}

func parseJSONLD(data string) ([]*jsonLDItem, error) {
	data = strings.TrimSpace(data)

	var item jsonLDItem
	if err := json.Unmarshal([]byte(data), &item); err == nil {
		return item.products(), nil
	}

	var items []jsonLDItem
	if err := json.Unmarshal([]byte(data), &items); err != nil {
		return nil, fmt.Errorf("decode JSON-LD: %w", err)
	}
	var out []*jsonLDItem
	for i := range items {
		out = append(out, items[i].products()...)
	}
	return out, nil
}

func (it *jsonLDItem) products() []*jsonLDItem {
	switch it.Type {
	case "Product":
		return []*jsonLDItem{it}
	case "ItemList":
		var out []*jsonLDItem
		for _, el := range it.ItemListElement {
			if el.Item != nil && el.Item.Type == "Product" {
				if el.Item.URL == "" {
					el.Item.URL = el.URL
				}
				out = append(out, el.Item)
			}
		}
		return out
	}
	return nil
}

func (it *jsonLDItem) listing(base string) models.Listing {
	l := models.Listing{
		Title: it.Name,
		URL:   extract.ResolveURL(base, it.URL),
	}

	if offer, ok := firstOffer(it.Offers); ok {
		price := offer.Price.String()
		if price == "" {
			price = offer.LowPrice.String()
		}
		if price != "" {
			l.Price = strings.TrimSpace(offer.PriceCurrency + " " + price)
		}
	}

	if it.AggregateRating != nil {
		if r, err := it.AggregateRating.RatingValue.Float64(); err == nil {
			l.Rating = extract.ClampRating(r)
		}
		if rc, err := it.AggregateRating.ReviewCount.Int64(); err == nil {
			l.Sales = int(rc)
		}
	}

	switch img := it.Image.(type) {
	case string:
		l.ImageURL = extract.ResolveURL(base, img)
	case []any:
		if len(img) > 0 {
			if s, ok := img[0].(string); ok {
				l.ImageURL = extract.ResolveURL(base, s)
			}
		}
	}
	return l
}

// firstOffer accepts both a single Offer object and an array of them.
func firstOffer(raw json.RawMessage) (jsonLDOffer, bool) {
	if len(raw) == 0 {
		return jsonLDOffer{}, false
	}
	var one jsonLDOffer
	if err := json.Unmarshal(raw, &one); err == nil {
		return one, true
	}
	var many []jsonLDOffer
	if err := json.Unmarshal(raw, &many); err == nil && len(many) > 0 {
		return many[0], true
	}
	return jsonLDOffer{}, false
}
