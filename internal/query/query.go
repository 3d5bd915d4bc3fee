// Package query turns free-text chat messages into (item, platform) search
// requests.
package query

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/lukman83/shopgenie/internal/platform"
)

// PlatformSet resolves platform tokens. platform.Registry satisfies it.
type PlatformSet interface {
	Normalize(token string) (platform.ID, bool)
	DisplayNames() []string
}

// Problem classifies why a request is invalid.
type Problem int

const (
	ProblemNone Problem = iota
	ProblemMissingPlatform
	ProblemMissingItem
	ProblemUnparseable
)

func (p Problem) String() string {
	switch p {
	case ProblemNone:
		return "none"
	case ProblemMissingPlatform:
		return "missing_platform"
	case ProblemMissingItem:
		return "missing_item"
	default:
		return "unparseable"
	}
}

// Request is the parse result for one message.
type Request struct {
	Item       string
	Platform   string
	PlatformID platform.ID
	Valid      bool
	Problem    Problem
	Guidance   string
}

var (
	keywordRe = regexp.MustCompile(`(?i)\s+(?:on|from|in|at)\s+`)
	forRe     = regexp.MustCompile(`(?i)\s+for\s+`)
	leadInRe  = regexp.MustCompile(`(?i)^(?:please\s+)?(?:search\s+for|look(?:ing)?\s+for|find\s+me|show\s+me)\s+`)
)

var examples = []string{
	"bluetooth speaker, amazon",
	"ebay, wireless headphones",
	"laptop on amazon",
	"search for phone in ebay",
}

// Examples returns sample messages in every supported format.
func Examples() []string {
	return append([]string(nil), examples...)
}

// Parser extracts search requests. It does no I/O and keeps no state.
type Parser struct {
	platforms PlatformSet
}

// NewParser creates a Parser that recognizes the tokens in platforms.
func NewParser(platforms PlatformSet) *Parser {
	return &Parser{platforms: platforms}
}

// Parse tries, in order, a comma split, a keyword split and a single-token
// fallback. The first grammar that finds a platform wins. The comma form
// keeps the whole non-platform side as the item; lead-in phrases such as
// "search for" are only dropped for the other forms.
func (p *Parser) Parse(text string) Request {
	msg := strings.TrimSpace(text)

	req, ok := p.commaSplit(msg)
	if !ok {
		if stripped := leadInRe.ReplaceAllString(msg, ""); stripped != "" {
			msg = stripped
		}
		req, ok = p.keywordSplit(msg)
	}
	if !ok {
		req = p.single(msg)
	}
	return p.validate(req)
}

func (p *Parser) commaSplit(msg string) (Request, bool) {
	left, right, found := strings.Cut(msg, ",")
	if !found {
		return Request{}, false
	}
	left, right = strings.TrimSpace(left), strings.TrimSpace(right)
	if id, ok := p.platforms.Normalize(left); ok {
		return Request{Item: right, Platform: left, PlatformID: id}, true
	}
	if id, ok := p.platforms.Normalize(right); ok {
		return Request{Item: left, Platform: right, PlatformID: id}, true
	}
	return Request{}, false
}

// keywordSplit handles "<item> on <platform>" and "<platform> for <item>".
// For the first form every keyword position is tried from the right, so
// "case in leather on amazon" keeps "case in leather" as the item.
func (p *Parser) keywordSplit(msg string) (Request, bool) {
	locs := keywordRe.FindAllStringIndex(msg, -1)
	for i := len(locs) - 1; i >= 0; i-- {
		item := strings.TrimSpace(msg[:locs[i][0]])
		token := strings.TrimSpace(msg[locs[i][1]:])
		if id, ok := p.platforms.Normalize(token); ok {
			return Request{Item: item, Platform: token, PlatformID: id}, true
		}
	}

	if loc := forRe.FindStringIndex(msg); loc != nil {
		token := strings.TrimSpace(msg[:loc[0]])
		item := strings.TrimSpace(msg[loc[1]:])
		if id, ok := p.platforms.Normalize(token); ok {
			return Request{Item: item, Platform: token, PlatformID: id}, true
		}
	}
	return Request{}, false
}

func (p *Parser) single(msg string) Request {
	if id, ok := p.platforms.Normalize(msg); ok {
		return Request{Platform: msg, PlatformID: id}
	}
	return Request{Item: msg}
}

func (p *Parser) validate(req Request) Request {
	if !meaningful(req.Item) {
		req.Item = ""
	}
	hasItem, hasPlatform := req.Item != "", req.PlatformID != ""

	switch {
	case hasItem && hasPlatform:
		req.Valid = true
		req.Problem = ProblemNone
	case hasItem:
		req.Problem = ProblemMissingPlatform
		req.Guidance = p.guidance("Missing platform! Please specify where to search.")
	case hasPlatform:
		req.Problem = ProblemMissingItem
		req.Guidance = p.guidance("Missing item name! Please specify what to search for.")
	default:
		req.Problem = ProblemUnparseable
		req.Guidance = p.guidance("Could not understand your search request!")
	}
	return req
}

func (p *Parser) guidance(headline string) string {
	var b strings.Builder
	b.WriteString(headline)
	b.WriteString("\n\nSupported formats:\n")
	b.WriteString("• item name, platform\n")
	b.WriteString("• platform, item name\n")
	b.WriteString("• item name on platform\n\n")
	b.WriteString("Supported platforms: ")
	b.WriteString(strings.Join(p.platforms.DisplayNames(), ", "))
	b.WriteString("\n\nExample: ")
	b.WriteString(examples[0])
	return b.String()
}

func meaningful(s string) bool {
	return strings.IndexFunc(s, func(r rune) bool {
		return unicode.IsLetter(r) || unicode.IsDigit(r)
	}) >= 0
}
