package models

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListingProduct(t *testing.T) {
	tests := []struct {
		name    string
		listing Listing
		wantErr error
	}{
		{
			name:    "valid listing",
			listing: Listing{Title: "JBL Flip 6 Portable Speaker", URL: "https://www.amazon.com/dp/B09", Platform: "amazon"},
		},
		{
			name:    "empty title",
			listing: Listing{Title: "   ", URL: "https://www.amazon.com/dp/B09"},
			wantErr: ErrMissingTitle,
		},
		{
			name:    "short title",
			listing: Listing{Title: "abc", URL: "https://www.amazon.com/dp/B09"},
			wantErr: ErrMissingTitle,
		},
		{
			name:    "placeholder title",
			listing: Listing{Title: "Unknown Item", URL: "https://www.amazon.com/dp/B09"},
			wantErr: ErrMissingTitle,
		},
		{
			name:    "missing link",
			listing: Listing{Title: "Wireless Headphones"},
			wantErr: ErrMissingLink,
		},
		{
			name:    "relative link",
			listing: Listing{Title: "Wireless Headphones", URL: "/itm/123"},
			wantErr: ErrMissingLink,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := tt.listing.Product()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, p.URL)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.listing.URL, p.URL)
		})
	}
}

func TestListingProductNormalizesFields(t *testing.T) {
	p, err := Listing{
		Title:    "  Bluetooth \n\t Speaker   Waterproof ",
		Rating:   7.5,
		Sales:    -3,
		ImageURL: "/images/thumb.jpg",
		URL:      "https://www.ebay.com/itm/1",
		Platform: "ebay",
	}.Product()
	require.NoError(t, err)

	assert.Equal(t, "Bluetooth Speaker Waterproof", p.Title)
	assert.Equal(t, UnknownPrice, p.Price)
	assert.False(t, p.HasKnownPrice())
	assert.Equal(t, 5.0, p.Rating)
	assert.Equal(t, 0, p.Sales)
	assert.Empty(t, p.ImageURL)
	assert.False(t, p.ScrapedAt.IsZero())
}

func TestListingProductTruncatesTitle(t *testing.T) {
	p, err := Listing{Title: strings.Repeat("a", 400), URL: "https://www.amazon.com/dp/X"}.Product()
	require.NoError(t, err)

	assert.Len(t, []rune(p.Title), MaxTitleLength)
	assert.True(t, strings.HasSuffix(p.Title, "..."))
}
