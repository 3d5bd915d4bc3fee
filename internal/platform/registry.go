package platform

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/lukman83/shopgenie/internal/models"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Registry resolves platform tokens and dispatches searches.
type Registry struct {
	mu            sync.RWMutex
	entries       map[ID]Entry
	aliases       map[string]ID
	order         []ID
	logger        *slog.Logger
	maxConcurrent int
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) { r.logger = l }
}

// WithMaxConcurrent bounds SearchAll fan-out.
func WithMaxConcurrent(n int) Option {
	return func(r *Registry) { r.maxConcurrent = n }
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		entries:       make(map[ID]Entry),
		aliases:       make(map[string]ID),
		logger:        slog.Default(),
		maxConcurrent: 3,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With("component", "registry")
	return r
}

// Register adds or replaces a platform. An alias already owned by another
// platform is rejected.
func (r *Registry) Register(e Entry) error {
	id := ID(normalizeToken(string(e.ID)))
	if id == "" {
		return fmt.Errorf("register platform: empty id")
	}
	if e.Scraper == nil {
		return fmt.Errorf("register platform %q: nil scraper", id)
	}
	e.ID = id

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, a := range e.Aliases {
		a = normalizeToken(a)
		if owner, ok := r.aliases[a]; ok && owner != id {
			return fmt.Errorf("register platform %q: alias %q already belongs to %q", id, a, owner)
		}
		if _, ok := r.entries[ID(a)]; ok && ID(a) != id {
			return fmt.Errorf("register platform %q: alias %q is a platform id", id, a)
		}
	}

	if _, exists := r.entries[id]; !exists {
		r.order = append(r.order, id)
	}
	r.entries[id] = e
	for _, a := range e.Aliases {
		if a = normalizeToken(a); a != "" && ID(a) != id {
			r.aliases[a] = id
		}
	}
	return nil
}

// Normalize resolves a token or alias to its canonical ID.
func (r *Registry) Normalize(token string) (ID, bool) {
	t := normalizeToken(token)
	if t == "" {
		return "", false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.entries[ID(t)]; ok {
		return ID(t), true
	}
	id, ok := r.aliases[t]
	return id, ok
}

// IsSupported reports whether token names a registered platform.
func (r *Registry) IsSupported(token string) bool {
	_, ok := r.Normalize(token)
	return ok
}

// List returns the registered IDs in registration order.
func (r *Registry) List() []ID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]ID(nil), r.order...)
}

// Aliases returns the aliases registered for id.
func (r *Registry) Aliases(id ID) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []string
	for _, a := range r.entries[id].Aliases {
		out = append(out, normalizeToken(a))
	}
	return out
}

// DisplayName returns the human-readable name for token. Unknown tokens
// are title-cased.
func (r *Registry) DisplayName(token string) string {
	if id, ok := r.Normalize(token); ok {
		r.mu.RLock()
		name := r.entries[id].DisplayName
		r.mu.RUnlock()
		if name != "" {
			return name
		}
		return titleCase(string(id))
	}
	return titleCase(normalizeToken(token))
}

// DisplayNames returns display names in registration order.
func (r *Registry) DisplayNames() []string {
	ids := r.List()
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		names = append(names, r.DisplayName(string(id)))
	}
	return names
}

// Search resolves token and runs its scraper. It never panics and never
// returns a nil product slice; see Result for how failures are reported.
func (r *Registry) Search(ctx context.Context, token, query string, maxResults int) (res Result) {
	id, ok := r.Normalize(token)
	if !ok {
		r.logger.Warn("search for unsupported platform", "platform", token)
		return Result{
			Platform: ID(normalizeToken(token)),
			Products: []models.Product{},
			Err:      fmt.Errorf("%w: %q", ErrUnsupportedPlatform, token),
		}
	}

	r.mu.RLock()
	scraper := r.entries[id].Scraper
	r.mu.RUnlock()

	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("scraper panicked", "platform", id, "panic", p)
			res = Result{
				Platform: id,
				Products: []models.Product{},
				Err:      fmt.Errorf("%s scraper panicked: %v", id, p),
			}
		}
	}()

	products, err := scraper.Search(ctx, query, maxResults)
	if err != nil {
		r.logger.Error("search failed", "platform", id, "query", query, "error", err)
		return Result{Platform: id, Products: []models.Product{}, Err: err}
	}
	if products == nil {
		products = []models.Product{}
	}
	return Result{Platform: id, Products: products}
}

// SearchAll runs query on every registered platform concurrently, bounded
// by the registry's concurrency limit. Results follow registration order.
func (r *Registry) SearchAll(ctx context.Context, query string, maxResults int) []Result {
	ids := r.List()
	results := make([]Result, len(ids))

	var g errgroup.Group
	g.SetLimit(max(r.maxConcurrent, 1))
	for i, id := range ids {
		g.Go(func() error {
			results[i] = r.Search(ctx, string(id), query, maxResults)
			ReportProgress(ctx, fmt.Sprintf("%s: %d products", r.DisplayName(string(id)), len(results[i].Products)))
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func normalizeToken(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func titleCase(s string) string {
	return cases.Title(language.English).String(s)
}
