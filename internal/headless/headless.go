// Package headless renders search pages in a real browser through rod. It
// is the fallback used when a static fetch comes back looking throttled.
package headless

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/lukman83/shopgenie/internal/httputil"
)

const (
	defaultTimeout = 30 * time.Second
	settleTimeout  = 15 * time.Second
)

// Fetcher renders pages with a headless Chromium. A browser is launched
// per fetch and torn down before Fetch returns.
type Fetcher struct {
	bin       string
	userAgent string
	timeout   time.Duration
	logger    *slog.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithBrowserBin uses the given browser binary instead of letting rod
// download one.
func WithBrowserBin(path string) Option {
	return func(f *Fetcher) { f.bin = path }
}

// WithUserAgent overrides the browser's User-Agent.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) { f.userAgent = ua }
}

// WithTimeout bounds a whole fetch, browser launch included.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) { f.timeout = d }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(f *Fetcher) { f.logger = l }
}

func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		userAgent: httputil.DefaultUserAgent,
		timeout:   defaultTimeout,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	f.logger = f.logger.With("component", "headless")
	return f
}

// Fetch loads rawURL, waits for the DOM to settle and returns the rendered
// HTML. Browsers do not expose the HTTP status, so StatusCode is always 200.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*httputil.Page, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	page, cleanup, err := f.openPage(ctx)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	f.logger.Debug("rendering page", "url", rawURL)
	if err := page.Navigate(rawURL); err != nil {
		return nil, fmt.Errorf("navigate %s: %w", rawURL, err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("wait load %s: %w", rawURL, err)
	}

	// Wait for page to stabilize
	timed := page.Timeout(settleTimeout)
	if err := timed.WaitStable(time.Second); err == nil {
		_ = timed.WaitDOMStable(2*time.Second, 0.1)
	}

	html, err := page.HTML()
	if err != nil {
		return nil, fmt.Errorf("get page HTML: %w", err)
	}
	f.logger.Debug("page rendered", "url", rawURL, "bytes", len(html))
	return &httputil.Page{URL: rawURL, StatusCode: 200, Body: []byte(html)}, nil
}

func (f *Fetcher) openPage(ctx context.Context) (*rod.Page, func(), error) {
	l := launcher.New().Context(ctx).Headless(true).Logger(io.Discard)
	if f.bin != "" {
		l = l.Bin(f.bin)
	}
	controlURL, err := l.Launch()
	if err != nil {
		return nil, nil, fmt.Errorf("launch browser: %w", err)
	}

	browser := rod.New().Context(ctx).ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, nil, fmt.Errorf("connect browser: %w", err)
	}

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		browser.Close()
		l.Cleanup()
		return nil, nil, fmt.Errorf("open page: %w", err)
	}

	cleanup := func() {
		page.Close()
		browser.Close()
		l.Cleanup()
	}

	// Set viewport to desktop size
	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{Width: 1920, Height: 1080}); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("set viewport: %w", err)
	}
	if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: f.userAgent}); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("set user agent: %w", err)
	}
	return page, cleanup, nil
}
