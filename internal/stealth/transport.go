package stealth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// ErrDisallowed is returned when robots.txt forbids the request.
var ErrDisallowed = errors.New("blocked by robots.txt")

// Transport is an http.RoundTripper that applies the stealth pipeline:
// Fingerprint → RobotsCheck (and Crawl-delay) → RateLimiter → HumanDelay → Proxy → Send.
// Every stage except the fingerprint is optional.
type Transport struct {
	Base        http.RoundTripper
	Fingerprint *FingerprintPool
	Robots      *RobotsChecker
	RateLimiter *rate.Limiter
	Delay       *HumanDelay
	Proxy       *ProxyRotator
	Logger      *slog.Logger
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	// RoundTrippers must not modify the caller's request.
	req = req.Clone(req.Context())

	fp := t.Fingerprint.Next()
	req.Header.Set("User-Agent", fp.UserAgent)
	for key, vals := range fp.Headers {
		req.Header.Del(key)
		for _, v := range vals {
			req.Header.Add(key, v)
		}
	}

	if t.Robots != nil {
		allowed, err := t.Robots.IsAllowed(req.Context(), fp.UserAgent, req.URL.String())
		if err == nil && !allowed {
			return nil, fmt.Errorf("%w: %s", ErrDisallowed, req.URL.Path)
		}
		origin := req.URL.Scheme + "://" + req.URL.Host
		if d := t.Robots.CrawlDelay(req.Context(), fp.UserAgent, origin); d > 0 {
			if err := sleep(req.Context(), d); err != nil {
				return nil, fmt.Errorf("crawl delay: %w", err)
			}
		}
	}

	if t.RateLimiter != nil {
		if err := t.RateLimiter.Wait(req.Context()); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	if t.Delay != nil {
		if err := t.Delay.Wait(req.Context()); err != nil {
			return nil, fmt.Errorf("delay: %w", err)
		}
	}

	transport := t.Base
	if t.Proxy != nil {
		p := t.Proxy.Next()
		transport = p.Transport()
		if t.Logger != nil {
			t.Logger.Debug("routing request", "proxy", p.Name(), "host", req.URL.Host)
		}
	}
	if transport == nil {
		transport = http.DefaultTransport
	}

	return transport.RoundTrip(req)
}

// CloseIdleConnections forwards to the base transport and every proxy
// transport so a search can release its connections when it returns.
func (t *Transport) CloseIdleConnections() {
	type idleCloser interface{ CloseIdleConnections() }
	if c, ok := t.Base.(idleCloser); ok {
		c.CloseIdleConnections()
	}
	if t.Proxy == nil {
		return
	}
	t.Proxy.mu.Lock()
	providers := t.Proxy.providers
	t.Proxy.mu.Unlock()
	for _, p := range providers {
		if c, ok := p.Transport().(idleCloser); ok {
			c.CloseIdleConnections()
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
