package assistant

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lukman83/shopgenie/internal/amazon"
	"github.com/lukman83/shopgenie/internal/ebay"
	"github.com/lukman83/shopgenie/internal/httputil"
	"github.com/lukman83/shopgenie/internal/models"
	"github.com/lukman83/shopgenie/internal/platform"
	"github.com/lukman83/shopgenie/internal/ranking"
	"github.com/lukman83/shopgenie/internal/scrape"
	"github.com/lukman83/shopgenie/internal/status"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeScraper struct {
	products []models.Product
	err      error
	queries  []string
}

func (f *fakeScraper) Search(_ context.Context, query string, maxResults int) ([]models.Product, error) {
	f.queries = append(f.queries, query)
	if f.err != nil {
		return nil, f.err
	}
	if len(f.products) > maxResults {
		return f.products[:maxResults], nil
	}
	return f.products, nil
}

func product(t *testing.T, title, price string, rating float64, sales int) models.Product {
	t.Helper()
	p, err := models.Listing{
		Title:    title,
		Price:    price,
		Rating:   rating,
		Sales:    sales,
		URL:      "https://www.amazon.com/dp/" + title,
		Platform: "amazon",
	}.Product()
	require.NoError(t, err)
	return p
}

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func newService(t *testing.T, amz, eb platform.Scraper, opts Options) (*Service, *status.Tracker) {
	t.Helper()
	reg := platform.NewRegistry(platform.WithLogger(quietLogger))
	require.NoError(t, reg.Register(amazon.Entry(amz)))
	require.NoError(t, reg.Register(ebay.Entry(eb)))

	tracker := status.NewTracker(
		status.WithDisplayNames(reg.DisplayName),
		status.WithLogger(quietLogger),
	)
	return NewService(reg, tracker, opts, quietLogger), tracker
}

func TestHandleMessageResults(t *testing.T) {
	amz := &fakeScraper{products: []models.Product{
		product(t, "Cheap Speaker", "$9.99", 3.0, 10),
		product(t, "Great Speaker", "$49.99", 4.8, 20000),
		product(t, "Okay Speaker", "$29.99", 4.0, 500),
		product(t, "Pricey Speaker", "$999.00", 4.9, 10),
		product(t, "Unknown Speaker", "", 0, 0),
	}}
	svc, tracker := newService(t, amz, &fakeScraper{}, Options{TopResults: 3})

	reply := svc.HandleMessage(context.Background(), "bluetooth speaker, amazon")

	assert.Equal(t, KindResults, reply.Kind)
	assert.NotEmpty(t, reply.ID)
	assert.Equal(t, "bluetooth speaker", reply.Query)
	assert.Equal(t, platform.ID("amazon"), reply.Platform)
	assert.Equal(t, "Amazon", reply.PlatformName)
	require.Len(t, reply.Products, 3)
	assert.Equal(t, "Great Speaker", reply.Products[0].Title)
	assert.Equal(t, []string{"bluetooth speaker"}, amz.queries)

	state, ok := tracker.Status("amazon")
	require.True(t, ok)
	assert.Equal(t, status.Working, state)
}

func TestHandleMessageAppliesFilterAndMethod(t *testing.T) {
	amz := &fakeScraper{products: []models.Product{
		product(t, "Cheap Speaker", "$9.99", 3.0, 10),
		product(t, "Great Speaker", "$49.99", 4.8, 20000),
		product(t, "Okay Speaker", "$29.99", 4.0, 500),
	}}
	svc, _ := newService(t, amz, &fakeScraper{}, Options{
		Method: ranking.ByPrice,
		Filter: ranking.Filter{MinRating: 3.5},
	})

	reply := svc.HandleMessage(context.Background(), "speaker on amazon")
	require.Equal(t, KindResults, reply.Kind)
	require.Len(t, reply.Products, 2)
	assert.Equal(t, "Okay Speaker", reply.Products[0].Title)
	assert.Equal(t, "Great Speaker", reply.Products[1].Title)
}

func TestHandleMessageParseFailure(t *testing.T) {
	amz := &fakeScraper{}
	svc, tracker := newService(t, amz, &fakeScraper{}, Options{})

	reply := svc.HandleMessage(context.Background(), "just a phone")

	assert.Equal(t, KindParseFailure, reply.Kind)
	assert.Contains(t, reply.Message, "Missing platform")
	assert.Contains(t, reply.Message, "Amazon, eBay")
	assert.NotNil(t, reply.Products)
	assert.Empty(t, reply.Products)
	assert.Empty(t, amz.queries)
	assert.Empty(t, tracker.Snapshot())
}

func TestHandleMessageNoResults(t *testing.T) {
	svc, tracker := newService(t, &fakeScraper{}, &fakeScraper{}, Options{})

	reply := svc.HandleMessage(context.Background(), "ebay, wireless headphones")

	assert.Equal(t, KindNoResults, reply.Kind)
	assert.Equal(t, "eBay", reply.PlatformName)
	assert.Contains(t, reply.Message, "eBay Anti-Bot Detection")

	state, ok := tracker.Status("ebay")
	require.True(t, ok)
	assert.Equal(t, status.Limited, state)
}

func TestHandleMessageFilteredToNothing(t *testing.T) {
	amz := &fakeScraper{products: []models.Product{product(t, "Cheap Speaker", "$9.99", 3.0, 10)}}
	svc, tracker := newService(t, amz, &fakeScraper{}, Options{Filter: ranking.Filter{MinRating: 4.5}})

	reply := svc.HandleMessage(context.Background(), "speaker, amazon")

	assert.Equal(t, KindNoResults, reply.Kind)
	assert.Contains(t, reply.Message, "No results found for: speaker")
	state, _ := tracker.Status("amazon")
	assert.Equal(t, status.Working, state)
}

func TestHandleMessageFetchFailure(t *testing.T) {
	eb := &fakeScraper{err: fmt.Errorf("ebay search: %w", httputil.ErrRetriesExhausted)}
	svc, tracker := newService(t, &fakeScraper{}, eb, Options{})

	reply := svc.HandleMessage(context.Background(), "bay for usb hub")

	assert.Equal(t, KindFetchFailure, reply.Kind)
	assert.Equal(t, "usb hub", reply.Query)
	assert.Contains(t, reply.Message, "eBay Temporarily Unavailable")
	assert.Empty(t, reply.Products)

	state, ok := tracker.Status("ebay")
	require.True(t, ok)
	assert.Equal(t, status.Error, state)
}

func TestHandleMessageThreeTimeouts(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		<-r.Context().Done()
	}))
	defer srv.Close()

	noSleep := func(context.Context, time.Duration) error { return nil }
	fetcher := httputil.NewFetcher(
		httputil.NewHTTPClient(nil, 50*time.Millisecond),
		httputil.WithRetryPolicy(httputil.RetryPolicy{MaxAttempts: 3, Backoff: amazon.Backoff(time.Second)}),
		httputil.WithSleep(noSleep),
		httputil.WithLogger(quietLogger),
	)
	site := amazon.Site()
	site.SearchURL = srv.URL + "/s?k=%s"
	amz := scrape.New(site, fetcher, scrape.WithSleep(noSleep), scrape.WithLogger(quietLogger))

	// The scraper itself surfaces the exhausted retries.
	_, err := amz.Search(context.Background(), "laptop", 10)
	require.Error(t, err)
	assert.True(t, errors.Is(err, httputil.ErrRetriesExhausted))
	assert.Equal(t, int32(3), hits.Load())

	svc, tracker := newService(t, amz, &fakeScraper{}, Options{})
	reply := svc.HandleMessage(context.Background(), "laptop on amazon")

	assert.Equal(t, KindFetchFailure, reply.Kind)
	assert.Empty(t, reply.Products)
	assert.Equal(t, int32(6), hits.Load())

	state, ok := tracker.Status("amazon")
	require.True(t, ok)
	assert.Equal(t, status.Error, state)
}

type slowScraper struct {
	delay    time.Duration
	products []models.Product
}

func (s *slowScraper) Search(ctx context.Context, _ string, _ int) ([]models.Product, error) {
	select {
	case <-time.After(s.delay):
		return s.products, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestHandleMessageOutlivesCaller(t *testing.T) {
	amz := &slowScraper{
		delay:    30 * time.Millisecond,
		products: []models.Product{product(t, "Dell Laptop", "$499.00", 4.4, 900)},
	}
	svc, tracker := newService(t, amz, &fakeScraper{}, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	reply := svc.HandleMessage(ctx, "laptop on amazon")

	assert.Equal(t, KindResults, reply.Kind)
	require.Len(t, reply.Products, 1)

	state, ok := tracker.Status("amazon")
	require.True(t, ok)
	assert.Equal(t, status.Working, state)
	assert.NotContains(t, tracker.UserMessage("amazon", "laptop"), "Temporarily Unavailable")
}

func TestReplyIDsAreUnique(t *testing.T) {
	svc, _ := newService(t, &fakeScraper{}, &fakeScraper{}, Options{})
	a := svc.HandleMessage(context.Background(), "")
	b := svc.HandleMessage(context.Background(), "")
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, KindParseFailure, a.Kind)
}

func TestWelcomeAndHelp(t *testing.T) {
	svc, _ := newService(t, &fakeScraper{}, &fakeScraper{}, Options{TopResults: 5})

	assert.Contains(t, svc.Welcome(), "bluetooth speaker, amazon")
	assert.Contains(t, svc.Welcome(), "Amazon, eBay")
	assert.Contains(t, svc.Help(), "top 5 products")
}

func TestSearchStructured(t *testing.T) {
	eb := &fakeScraper{products: []models.Product{product(t, "Sony Headphones", "$59.00", 4.5, 120)}}
	svc, _ := newService(t, &fakeScraper{}, eb, Options{})

	reply := svc.Search(context.Background(), " headphones ", "BAY")
	assert.Equal(t, KindResults, reply.Kind)
	assert.Equal(t, platform.ID("ebay"), reply.Platform)
	assert.Equal(t, []string{"headphones"}, eb.queries)

	reply = svc.Search(context.Background(), "headphones", "walmart")
	assert.Equal(t, KindUnsupported, reply.Kind)
	assert.Contains(t, reply.Message, "Unsupported platform: walmart")
	assert.Contains(t, reply.Message, "Amazon, eBay")

	reply = svc.Search(context.Background(), "  ", "amazon")
	assert.Equal(t, KindParseFailure, reply.Kind)
}
