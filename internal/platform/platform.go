// Package platform maps user-facing marketplace tokens to scrapers.
package platform

import (
	"context"
	"errors"

	"github.com/lukman83/shopgenie/internal/models"
)

// ErrUnsupportedPlatform is reported for tokens that match no registered
// platform or alias.
var ErrUnsupportedPlatform = errors.New("unsupported platform")

// ID is a canonical platform identifier such as "amazon".
type ID string

func (id ID) String() string { return string(id) }

// Scraper searches one marketplace.
type Scraper interface {
	Search(ctx context.Context, query string, maxResults int) ([]models.Product, error)
}

// Entry registers a scraper under a canonical ID plus aliases.
type Entry struct {
	ID          ID
	DisplayName string
	Aliases     []string
	Scraper     Scraper
}

// Result is the outcome of one registry search. Products is never nil.
// Err is set when the platform was unknown or the scraper failed, so a
// failure can still be told apart from a search that found nothing.
type Result struct {
	Platform ID
	Products []models.Product
	Err      error
}

// Failed reports whether the search errored rather than came back empty.
func (r Result) Failed() bool { return r.Err != nil }
