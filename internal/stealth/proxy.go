package stealth

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
)

// ProxyProvider abstracts a proxy backend.
type ProxyProvider interface {
	Transport() http.RoundTripper
	Name() string
}

// ProxyRotator cycles through multiple proxy providers.
type ProxyRotator struct {
	providers []ProxyProvider
	mu        sync.Mutex
	idx       int
}

// NewProxyRotator creates a rotator from a list of providers.
// Returns nil if no providers are given.
func NewProxyRotator(providers []ProxyProvider) *ProxyRotator {
	if len(providers) == 0 {
		return nil
	}
	return &ProxyRotator{providers: providers}
}

// Next returns the next proxy provider in round-robin order.
func (p *ProxyRotator) Next() ProxyProvider {
	p.mu.Lock()
	defer p.mu.Unlock()
	provider := p.providers[p.idx%len(p.providers)]
	p.idx++
	return provider
}

// DirectProvider routes traffic directly (no proxy).
type DirectProvider struct {
	transport http.RoundTripper
}

// NewDirectProvider sends through base, or http.DefaultTransport when nil.
func NewDirectProvider(base http.RoundTripper) *DirectProvider {
	if base == nil {
		base = http.DefaultTransport
	}
	return &DirectProvider{transport: base}
}

func (d *DirectProvider) Transport() http.RoundTripper { return d.transport }
func (d *DirectProvider) Name() string                 { return "direct" }

// HTTPProxyProvider routes through one HTTP(S) or SOCKS5 proxy.
type HTTPProxyProvider struct {
	proxyURL  *url.URL
	transport http.RoundTripper
	once      sync.Once
}

// NewHTTPProxyProvider validates rawURL up front.
func NewHTTPProxyProvider(rawURL string) (*HTTPProxyProvider, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, fmt.Errorf("parse proxy %q: %w", rawURL, err)
	}
	switch u.Scheme {
	case "http", "https", "socks5":
	default:
		return nil, fmt.Errorf("proxy %q: unsupported scheme %q", u.Redacted(), u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("proxy %q: missing host", u.Redacted())
	}
	return &HTTPProxyProvider{proxyURL: u}, nil
}

// Name returns the proxy URL without credentials.
func (h *HTTPProxyProvider) Name() string { return h.proxyURL.Redacted() }

func (h *HTTPProxyProvider) Transport() http.RoundTripper {
	h.once.Do(func() {
		h.transport = &http.Transport{
			Proxy:             http.ProxyURL(h.proxyURL),
			DisableKeepAlives: true, // new exit IP per request on rotating gateways
		}
	})
	return h.transport
}

// ParseProxyList builds providers from a list of proxy URLs. Blank entries
// are skipped.
func ParseProxyList(raw []string) ([]ProxyProvider, error) {
	var providers []ProxyProvider
	for _, r := range raw {
		if strings.TrimSpace(r) == "" {
			continue
		}
		p, err := NewHTTPProxyProvider(r)
		if err != nil {
			return nil, err
		}
		providers = append(providers, p)
	}
	return providers, nil
}
