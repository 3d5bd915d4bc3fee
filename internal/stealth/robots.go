package stealth

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
)

// RobotsChecker caches and checks robots.txt rules per origin.
type RobotsChecker struct {
	rules    map[string]*robotstxt.RobotsData
	expiry   map[string]time.Time
	mu       sync.RWMutex
	client   *http.Client
	cacheTTL time.Duration
	now      func() time.Time
}

// NewRobotsChecker creates a new robots.txt checker. client should not be
// routed through a Transport that consults this checker.
func NewRobotsChecker(client *http.Client) *RobotsChecker {
	return &RobotsChecker{
		rules:    make(map[string]*robotstxt.RobotsData),
		expiry:   make(map[string]time.Time),
		client:   client,
		cacheTTL: time.Hour,
		now:      time.Now,
	}
}

// IsAllowed checks if the given URL is allowed by robots.txt. An
// unreachable robots.txt allows the request.
func (r *RobotsChecker) IsAllowed(ctx context.Context, userAgent, rawURL string) (bool, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false, err
	}

	data, err := r.getRobots(ctx, u.Scheme+"://"+u.Host)
	if err != nil {
		return true, nil
	}
	return data.TestAgent(u.RequestURI(), userAgent), nil
}

// CrawlDelay returns the crawl delay specified for the user agent.
func (r *RobotsChecker) CrawlDelay(ctx context.Context, userAgent, origin string) time.Duration {
	data, err := r.getRobots(ctx, origin)
	if err != nil {
		return 0
	}
	if group := data.FindGroup(userAgent); group != nil {
		return group.CrawlDelay
	}
	return 0
}

func (r *RobotsChecker) getRobots(ctx context.Context, origin string) (*robotstxt.RobotsData, error) {
	r.mu.RLock()
	data, ok := r.rules[origin]
	exp := r.expiry[origin]
	r.mu.RUnlock()

	if ok && r.now().Before(exp) {
		return data, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if data, ok := r.rules[origin]; ok && r.now().Before(r.expiry[origin]) {
		return data, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, origin+"/robots.txt", nil)
	if err != nil {
		return nil, fmt.Errorf("build robots.txt request: %w", err)
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch robots.txt: %w", err)
	}
	defer resp.Body.Close()

	data, err = robotstxt.FromResponse(resp)
	if err != nil {
		return nil, fmt.Errorf("parse robots.txt: %w", err)
	}

	r.rules[origin] = data
	r.expiry[origin] = r.now().Add(r.cacheTTL)
	return data, nil
}
