// Package assistant runs the chat search pipeline: parse the message, scrape
// the chosen platform, rank what came back and explain empty results.
package assistant

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/lukman83/shopgenie/internal/models"
	"github.com/lukman83/shopgenie/internal/platform"
	"github.com/lukman83/shopgenie/internal/query"
	"github.com/lukman83/shopgenie/internal/ranking"
	"github.com/lukman83/shopgenie/internal/status"
)

// Kind tells the presentation layer what a Reply carries.
type Kind string

const (
	KindResults      Kind = "results"
	KindParseFailure Kind = "parse_failure"
	KindUnsupported  Kind = "unsupported_platform"
	KindNoResults    Kind = "no_results"
	KindFetchFailure Kind = "fetch_failure"
)

// Reply is the outcome of one message. Message is plain text; rendering
// and escaping belong to whoever shows it.
type Reply struct {
	ID           string           `json:"id"`
	Kind         Kind             `json:"kind"`
	Query        string           `json:"query,omitempty"`
	Platform     platform.ID      `json:"platform,omitempty"`
	PlatformName string           `json:"platform_name,omitempty"`
	Products     []models.Product `json:"products"`
	Message      string           `json:"message,omitempty"`
}

// HasProducts reports whether the reply carries results.
func (r Reply) HasProducts() bool { return len(r.Products) > 0 }

// Searcher is the part of platform.Registry the pipeline needs.
type Searcher interface {
	query.PlatformSet
	IsSupported(token string) bool
	Search(ctx context.Context, token, query string, maxResults int) platform.Result
	DisplayName(token string) string
}

// Options holds the tunables read from configuration.
type Options struct {
	// MaxResults is how many products a scraper is asked for.
	MaxResults int
	// TopResults is how many ranked products a reply carries.
	TopResults int
	Method     ranking.Method
	Filter     ranking.Filter
}

// DefaultOptions mirrors the configuration defaults.
func DefaultOptions() Options {
	return Options{MaxResults: 10, TopResults: 4, Method: ranking.ByScore}
}

// Service handles inbound chat messages.
type Service struct {
	parser   *query.Parser
	searcher Searcher
	tracker  *status.Tracker
	opts     Options
	logger   *slog.Logger
}

// NewService wires the pipeline. Zero option fields take their defaults.
func NewService(searcher Searcher, tracker *status.Tracker, opts Options, logger *slog.Logger) *Service {
	def := DefaultOptions()
	if opts.MaxResults <= 0 {
		opts.MaxResults = def.MaxResults
	}
	if opts.TopResults <= 0 {
		opts.TopResults = def.TopResults
	}
	if opts.Method == "" {
		opts.Method = def.Method
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		parser:   query.NewParser(searcher),
		searcher: searcher,
		tracker:  tracker,
		opts:     opts,
		logger:   logger.With("component", "assistant"),
	}
}

// Parse exposes the request parser.
func (s *Service) Parse(text string) query.Request {
	return s.parser.Parse(text)
}

// HandleMessage runs one message through the pipeline. It always returns a
// Reply; failures are described by Kind and Message.
func (s *Service) HandleMessage(ctx context.Context, text string) Reply {
	reply := Reply{ID: uuid.NewString(), Products: []models.Product{}}

	req := s.parser.Parse(text)
	if !req.Valid {
		s.logger.Info("could not parse message", "reply_id", reply.ID, "problem", req.Problem)
		reply.Kind = KindParseFailure
		reply.Query = req.Item
		reply.Message = req.Guidance
		return reply
	}
	return s.search(ctx, reply, req.Item, req.Platform, req.PlatformID)
}

// Search runs an already structured request, skipping the parser. Tools
// that collect item and platform separately use it.
func (s *Service) Search(ctx context.Context, item, platformToken string) Reply {
	reply := Reply{ID: uuid.NewString(), Products: []models.Product{}}
	item = strings.TrimSpace(item)
	if item == "" {
		reply.Kind = KindParseFailure
		reply.Message = "Missing item name! Please specify what to search for."
		return reply
	}
	id, ok := s.searcher.Normalize(platformToken)
	if !ok {
		reply.Query = item
		return s.unsupported(reply, platformToken)
	}
	return s.search(ctx, reply, item, platformToken, id)
}

func (s *Service) search(ctx context.Context, reply Reply, item, token string, id platform.ID) Reply {
	reply.Query = item
	reply.Platform = id
	reply.PlatformName = s.searcher.DisplayName(string(id))
	log := s.logger.With("reply_id", reply.ID, "platform", id, "query", item)

	if !s.searcher.IsSupported(string(id)) {
		return s.unsupported(reply, token)
	}

	// A scrape runs to its own completion or timeout; a caller that hangs up
	// must not leave the platform marked as failing.
	res := s.searcher.Search(context.WithoutCancel(ctx), string(id), item, s.opts.MaxResults)
	if errors.Is(res.Err, platform.ErrUnsupportedPlatform) {
		return s.unsupported(reply, token)
	}

	s.tracker.Record(string(id), !res.Failed(), len(res.Products))

	if res.Failed() {
		log.Warn("search failed", "error", res.Err)
		reply.Kind = KindFetchFailure
		reply.Message = s.tracker.UserMessage(string(id), item)
		return reply
	}

	products := res.Products
	if !s.opts.Filter.IsZero() {
		products = s.opts.Filter.Apply(products)
	}
	ranked := ranking.Rank(products, s.opts.Method, s.opts.TopResults)
	if len(ranked) == 0 {
		log.Info("no results", "scraped", len(res.Products))
		reply.Kind = KindNoResults
		reply.Message = s.tracker.UserMessage(string(id), item)
		return reply
	}

	log.Info("search answered", "scraped", len(res.Products), "returned", len(ranked))
	reply.Kind = KindResults
	reply.Products = ranked
	return reply
}

func (s *Service) unsupported(reply Reply, token string) Reply {
	reply.Kind = KindUnsupported
	reply.Message = "Unsupported platform: " + token + "\n\nSupported platforms: " +
		strings.Join(s.searcher.DisplayNames(), ", ")
	return reply
}
