package httputil

import (
	"compress/gzip"
	"compress/zlib"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/andybalholm/brotli"
)

// maxBodySize caps how much of a search page is read into memory.
const maxBodySize = 8 << 20

// ErrRetriesExhausted is wrapped by Fetch once every attempt has failed.
var ErrRetriesExhausted = errors.New("retries exhausted")

// StatusError reports a response that was not 200 OK.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.StatusCode, e.URL)
}

// Page is a fetched document.
type Page struct {
	URL        string
	StatusCode int
	Body       []byte
}

// Backoff returns the wait before the retry that follows failed attempt n
// (zero-based).
type Backoff func(n int) time.Duration

// FixedBackoff waits d between every attempt.
func FixedBackoff(d time.Duration) Backoff {
	return func(int) time.Duration { return d }
}

// ExponentialBackoff waits 2^n * unit after failed attempt n.
func ExponentialBackoff(unit time.Duration) Backoff {
	return func(n int) time.Duration {
		return time.Duration(math.Pow(2, float64(n))) * unit
	}
}

// RetryPolicy bounds how often a fetch is attempted.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     Backoff
}

// NewHTTPClient creates an HTTP client with the given total timeout.
// An optional RoundTripper (e.g. stealth.Transport) can be injected.
func NewHTTPClient(transport http.RoundTripper, timeout time.Duration) *http.Client {
	if transport == nil {
		transport = &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		}
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}

// Fetcher performs browser-like GET requests with retries.
type Fetcher struct {
	client    *http.Client
	headers   http.Header
	userAgent string
	policy    RetryPolicy
	logger    *slog.Logger
	sleep     func(context.Context, time.Duration) error
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithUserAgent pins the User-Agent header.
func WithUserAgent(ua string) FetcherOption {
	return func(f *Fetcher) { f.userAgent = ua }
}

// WithHeaders replaces the default browser header set.
func WithHeaders(h http.Header) FetcherOption {
	return func(f *Fetcher) { f.headers = h }
}

// WithRetryPolicy sets the attempt budget and backoff.
func WithRetryPolicy(p RetryPolicy) FetcherOption {
	return func(f *Fetcher) { f.policy = p }
}

// WithLogger sets the logger used for attempt-level diagnostics.
func WithLogger(l *slog.Logger) FetcherOption {
	return func(f *Fetcher) { f.logger = l }
}

// WithSleep replaces the wait between attempts. Used by tests.
func WithSleep(sleep func(context.Context, time.Duration) error) FetcherOption {
	return func(f *Fetcher) { f.sleep = sleep }
}

// NewFetcher wraps client. Without options it sends BrowserHeaders and
// tries three times with a one second pause.
func NewFetcher(client *http.Client, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		client:  client,
		headers: BrowserHeaders(),
		policy:  RetryPolicy{MaxAttempts: 3, Backoff: FixedBackoff(time.Second)},
		logger:  slog.Default(),
		sleep:   Sleep,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.policy.MaxAttempts < 1 {
		f.policy.MaxAttempts = 1
	}
	if f.policy.Backoff == nil {
		f.policy.Backoff = FixedBackoff(0)
	}
	return f
}

// Fetch GETs rawURL. Transport errors, timeouts and non-200 statuses each
// consume one attempt. When the budget is spent the returned error wraps
// ErrRetriesExhausted and the last cause.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Page, error) {
	var lastErr error
	for attempt := 0; attempt < f.policy.MaxAttempts; attempt++ {
		if attempt > 0 {
			wait := f.policy.Backoff(attempt - 1)
			f.logger.Debug("retrying request", "url", rawURL, "attempt", attempt+1, "wait", wait)
			if err := f.sleep(ctx, wait); err != nil {
				return nil, err
			}
		}

		page, err := f.do(ctx, rawURL)
		if err == nil {
			return page, nil
		}
		lastErr = err
		f.logger.Warn("request attempt failed",
			"url", rawURL,
			"attempt", attempt+1,
			"max_attempts", f.policy.MaxAttempts,
			"error", err,
		)
	}
	return nil, fmt.Errorf("GET %s: %w after %d attempts: %w", rawURL, ErrRetriesExhausted, f.policy.MaxAttempts, lastErr)
}

func (f *Fetcher) do(ctx context.Context, rawURL string) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for k, vals := range f.headers {
		for _, v := range vals {
			req.Header.Add(k, v)
		}
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodySize))
		return nil, &StatusError{URL: rawURL, StatusCode: resp.StatusCode}
	}

	body, err := ReadBody(resp)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return &Page{URL: rawURL, StatusCode: resp.StatusCode, Body: body}, nil
}

// CloseIdleConnections releases pooled connections held by the client.
func (f *Fetcher) CloseIdleConnections() {
	f.client.CloseIdleConnections()
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ReadBody reads and decompresses an HTTP response body.
func ReadBody(resp *http.Response) ([]byte, error) {
	var reader io.Reader
	switch resp.Header.Get("Content-Encoding") {
	case "gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("gzip reader: %w", err)
		}
		defer gz.Close()
		reader = gz
	case "deflate":
		zr, err := zlib.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("deflate reader: %w", err)
		}
		defer zr.Close()
		reader = zr
	case "br":
		reader = brotli.NewReader(resp.Body)
	default:
		reader = resp.Body
	}
	return io.ReadAll(io.LimitReader(reader, maxBodySize))
}
