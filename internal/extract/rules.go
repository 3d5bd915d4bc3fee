// Package extract holds the ordered fallback rules used to pull listing
// fields out of marketplace result markup.
package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Accessor reads a raw value from a matched element.
type Accessor func(*goquery.Selection) string

// Rule pairs a selector with the accessor applied to each of its matches.
// An empty Selector targets the result element itself.
type Rule struct {
	Selector string
	Read     Accessor
	Accept   func(string) bool
}

// Chain is an ordered list of rules for one field. The first rule that
// yields an accepted value wins and later rules are not evaluated.
type Chain []Rule

// First evaluates the chain against el and returns the winning value, or ""
// when every rule came up empty.
func (c Chain) First(el *goquery.Selection) string {
	for _, r := range c {
		if v, ok := r.apply(el); ok {
			return v
		}
	}
	return ""
}

func (r Rule) apply(el *goquery.Selection) (string, bool) {
	accept := r.Accept
	if accept == nil {
		accept = NonEmpty
	}

	targets := el
	if r.Selector != "" {
		targets = el.Find(r.Selector)
	}

	var (
		value string
		found bool
	)
	targets.EachWithBreak(func(_ int, s *goquery.Selection) bool {
		v := r.Read(s)
		if accept(v) {
			value, found = v, true
			return false
		}
		return true
	})
	return value, found
}

// Text returns the whitespace-normalized text content.
func Text(s *goquery.Selection) string {
	return CleanText(s.Text())
}

// Attr returns the trimmed value of the named attribute.
func Attr(name string) Accessor {
	return func(s *goquery.Selection) string {
		v, _ := s.Attr(name)
		return strings.TrimSpace(v)
	}
}

// AttrOrText prefers the named attribute and falls back to the text content.
func AttrOrText(name string) Accessor {
	return func(s *goquery.Selection) string {
		if v := Attr(name)(s); v != "" {
			return CleanText(v)
		}
		return Text(s)
	}
}

// FirstAttr returns the first non-empty attribute among names.
func FirstAttr(names ...string) Accessor {
	return func(s *goquery.Selection) string {
		for _, n := range names {
			if v := Attr(n)(s); v != "" {
				return v
			}
		}
		return ""
	}
}

// ResolvedAttr is FirstAttr with the value resolved against base. Inline
// data URIs and placeholders resolve to "".
func ResolvedAttr(base string, names ...string) Accessor {
	return func(s *goquery.Selection) string {
		for _, n := range names {
			if v := ResolveURL(base, Attr(n)(s)); v != "" {
				return v
			}
		}
		return ""
	}
}

// NestedText looks for text in the given descendants first, then in the
// element itself, returning the first candidate longer than minLen runes.
func NestedText(minLen int, selectors ...string) Accessor {
	return func(s *goquery.Selection) string {
		for _, sel := range selectors {
			if v := Text(s.Find(sel).First()); runeLen(v) > minLen {
				return v
			}
		}
		if v := Text(s); runeLen(v) > minLen {
			return v
		}
		return ""
	}
}

// Map post-processes the value produced by read.
func Map(read Accessor, fn func(string) string) Accessor {
	return func(s *goquery.Selection) string {
		return fn(read(s))
	}
}

// NonEmpty accepts any non-blank value.
func NonEmpty(v string) bool {
	return strings.TrimSpace(v) != ""
}

// LongerThan accepts values with more than n runes.
func LongerThan(n int) func(string) bool {
	return func(v string) bool {
		return runeLen(v) > n
	}
}

// All combines acceptance checks.
func All(checks ...func(string) bool) func(string) bool {
	return func(v string) bool {
		for _, c := range checks {
			if !c(v) {
				return false
			}
		}
		return true
	}
}

func runeLen(s string) int {
	return len([]rune(s))
}
