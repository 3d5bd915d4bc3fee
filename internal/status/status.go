// Package status remembers how each platform behaved recently so an empty
// search can be explained as "no matches", "being throttled" or "down".
package status

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultWindow is how long a recorded outcome stays fresh.
const DefaultWindow = 15 * time.Minute

// State is the last observed condition of a platform.
type State string

const (
	Working State = "working"
	Limited State = "limited"
	Error   State = "error"
)

// Entry is one platform's last recorded outcome.
type Entry struct {
	State        State     `json:"state"`
	CheckedAt    time.Time `json:"checked_at"`
	ProductCount int       `json:"product_count"`
	Success      bool      `json:"success"`
}

// Tracker is safe for concurrent use. Concurrent records for the same
// platform resolve as last write wins.
type Tracker struct {
	mu           sync.RWMutex
	entries      map[string]Entry
	window       time.Duration
	now          func() time.Time
	displayName  func(string) string
	alternatives func() []string
	logger       *slog.Logger
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// WithWindow sets the freshness window.
func WithWindow(d time.Duration) Option {
	return func(t *Tracker) {
		if d > 0 {
			t.window = d
		}
	}
}

// WithDisplayNames sets how platform ids are shown to users.
func WithDisplayNames(fn func(platform string) string) Option {
	return func(t *Tracker) { t.displayName = fn }
}

// WithAlternatives sets the platforms suggested when one is unavailable.
func WithAlternatives(fn func() []string) Option {
	return func(t *Tracker) { t.alternatives = fn }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(t *Tracker) { t.logger = l }
}

// NewTracker creates an empty tracker.
func NewTracker(opts ...Option) *Tracker {
	t := &Tracker{
		entries: make(map[string]Entry),
		window:  DefaultWindow,
		now:     time.Now,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.displayName == nil {
		t.displayName = func(p string) string {
			return cases.Title(language.English).String(p)
		}
	}
	t.logger = t.logger.With("component", "status")
	return t
}

// Record stores the outcome of one scrape attempt. The state depends only
// on this outcome: a failure is Error, success with nothing found is
// Limited, anything else is Working.
func (t *Tracker) Record(platform string, success bool, productCount int) State {
	state := Working
	switch {
	case !success:
		state = Error
	case productCount == 0:
		state = Limited
	}

	t.mu.Lock()
	t.entries[platform] = Entry{
		State:        state,
		CheckedAt:    t.now(),
		ProductCount: productCount,
		Success:      success,
	}
	t.mu.Unlock()

	t.logger.Info("platform status recorded", "platform", platform, "state", state, "products", productCount)
	return state
}

// Status returns the platform's state, or false when nothing was recorded
// within the freshness window.
func (t *Tracker) Status(platform string) (State, bool) {
	t.mu.RLock()
	e, ok := t.entries[platform]
	t.mu.RUnlock()

	if !ok || t.now().Sub(e.CheckedAt) > t.window {
		return "", false
	}
	return e.State, true
}

// Snapshot returns every fresh entry.
func (t *Tracker) Snapshot() map[string]Entry {
	now := t.now()

	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make(map[string]Entry, len(t.entries))
	for p, e := range t.entries {
		if now.Sub(e.CheckedAt) <= t.window {
			out[p] = e
		}
	}
	return out
}

// UserMessage explains an empty search on platform in plain text.
func (t *Tracker) UserMessage(platform, searchTerm string) string {
	name := t.displayName(platform)
	elsewhere := t.suggestion(platform)
	state, _ := t.Status(platform)

	var b strings.Builder
	switch state {
	case Error:
		fmt.Fprintf(&b, "%s Temporarily Unavailable\n\n", name)
		fmt.Fprintf(&b, "Sorry, we're having trouble connecting to %s right now. This could be due to:\n", name)
		b.WriteString("• Server maintenance\n")
		b.WriteString("• Network issues\n")
		b.WriteString("• High traffic\n\n")
		b.WriteString("Please try again in a few minutes")
		if elsewhere != "" {
			fmt.Fprintf(&b, " or search on %s instead", elsewhere)
		}
		b.WriteString(".")
	case Limited:
		fmt.Fprintf(&b, "%s Anti-Bot Detection\n\n", name)
		fmt.Fprintf(&b, "It looks like %s is limiting automated searches right now. ", name)
		b.WriteString("This is common when they detect bot traffic.\n\n")
		b.WriteString("What you can do:\n")
		b.WriteString("• Try a different search term\n")
		if elsewhere != "" {
			fmt.Fprintf(&b, "• Search on %s instead\n", elsewhere)
		}
		b.WriteString("• Try again in 10-15 minutes")
	default:
		fmt.Fprintf(&b, "No results found for: %s\n\n", searchTerm)
		b.WriteString("Try:\n")
		b.WriteString("• Using different keywords\n")
		b.WriteString("• Being more specific\n")
		b.WriteString("• Checking spelling")
		if elsewhere != "" {
			fmt.Fprintf(&b, "\n• Searching on %s instead", elsewhere)
		}
	}
	return b.String()
}

// suggestion names the other platforms that are not currently failing.
func (t *Tracker) suggestion(platform string) string {
	if t.alternatives == nil {
		return ""
	}
	var names []string
	for _, p := range t.alternatives() {
		if p == platform {
			continue
		}
		if s, ok := t.Status(p); ok && s != Working {
			continue
		}
		names = append(names, t.displayName(p))
	}
	return strings.Join(names, " or ")
}
