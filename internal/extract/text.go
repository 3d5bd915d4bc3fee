package extract

import (
	"math"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

// ProductPaths are the URL path fragments that identify a product page on
// the supported marketplaces.
var ProductPaths = []string{"/dp/", "/gp/", "/itm/", "/item/"}

// Boilerplate is marketing or navigation text that is never a product title.
var Boilerplate = []string{
	"shop on ebay",
	"browse categories",
	"sponsored",
	"advertisement",
	"see more like this",
	"trending at",
	"related searches",
}

var (
	decimalRe  = regexp.MustCompile(`\d[\d,]*(?:\.\d+)?`)
	countRe    = regexp.MustCompile(`(\d[\d,]*(?:\.\d+)?)\s*([kKmM])?`)
	outOfRe    = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*out of`)
	rangeRe    = regexp.MustCompile(`(?i)\s+(?:to|-|–)\s+`)
	ellipsisRe = regexp.MustCompile(`(\.\.\.|…)+$`)
)

// CleanText collapses runs of whitespace and trims the ends.
func CleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// FirstNumber parses the first decimal number in s, ignoring thousands
// separators.
func FirstNumber(s string) (float64, bool) {
	m := decimalRe.FindString(s)
	if m == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(m, ",", ""), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// FirstCount parses the first integer count in s. Thousands separators are
// dropped and a trailing K or M multiplier is honored, so "1.2K bought"
// yields 1200.
func FirstCount(s string) (int, bool) {
	m := countRe.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
	if err != nil {
		return 0, false
	}
	switch strings.ToLower(m[2]) {
	case "k":
		v *= 1_000
	case "m":
		v *= 1_000_000
	}
	return int(math.Round(v)), true
}

// RatingOutOf reads "4.5 out of 5 stars" style text.
func RatingOutOf(s string) (float64, bool) {
	m := outOfRe.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return ClampRating(v), true
}

// RatingFromCount maps a review count onto an approximate star rating for
// sites that only publish the number of reviews.
func RatingFromCount(n int) float64 {
	switch {
	case n > 100:
		return 5.0
	case n > 50:
		return 4.5
	case n > 20:
		return 4.0
	case n > 10:
		return 3.5
	case n > 5:
		return 3.0
	default:
		return 2.5
	}
}

// ClampRating bounds v to [0, 5].
func ClampRating(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 5 {
		return 5
	}
	return v
}

// LowerBound keeps the lower end of a "$10.00 to $25.00" or
// "$10.00 - $25.00" price range.
func LowerBound(price string) string {
	return strings.TrimSpace(rangeRe.Split(price, 2)[0])
}

// StripShipping drops a "+$4.99 shipping" style suffix.
func StripShipping(price string) string {
	before, _, _ := strings.Cut(price, "+")
	return strings.TrimSpace(before)
}

// HasCurrency reports whether s carries a dollar, euro or pound sign.
func HasCurrency(s string) bool {
	return strings.ContainsAny(s, "$€£")
}

// ResolveURL resolves href against base and returns it only if the result
// is an absolute http(s) URL.
func ResolveURL(base, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "data:") || strings.HasPrefix(href, "javascript:") {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if !ref.IsAbs() {
		b, err := url.Parse(base)
		if err != nil {
			return ""
		}
		ref = b.ResolveReference(ref)
	}
	if (ref.Scheme != "http" && ref.Scheme != "https") || ref.Host == "" {
		return ""
	}
	return ref.String()
}

// StripQuery drops the query string and fragment.
func StripQuery(u string) string {
	u, _, _ = strings.Cut(u, "#")
	u, _, _ = strings.Cut(u, "?")
	return u
}

// HasPathFragment reports whether href contains any of the fragments.
func HasPathFragment(href string, fragments ...string) bool {
	for _, f := range fragments {
		if strings.Contains(href, f) {
			return true
		}
	}
	return false
}

// IsProductURL accepts links that point at a product detail page.
func IsProductURL(href string) bool {
	return href != "" && HasPathFragment(href, ProductPaths...)
}

// IsBoilerplate reports whether title is, or opens with, a known
// non-product phrase.
func IsBoilerplate(title string) bool {
	lower := strings.ToLower(CleanText(title))
	for _, b := range Boilerplate {
		if strings.HasPrefix(lower, b) {
			return true
		}
	}
	return false
}

// TrimAffixes removes the given prefixes and suffixes (case-insensitive)
// and any trailing ellipsis, repeating until nothing changes.
func TrimAffixes(title string, prefixes, suffixes []string) string {
	title = CleanText(title)
	for {
		before := title
		for _, p := range prefixes {
			if len(title) >= len(p) && strings.EqualFold(title[:len(p)], p) {
				title = strings.TrimSpace(title[len(p):])
			}
		}
		for _, s := range suffixes {
			if len(title) >= len(s) && strings.EqualFold(title[len(title)-len(s):], s) {
				title = strings.TrimSpace(title[:len(title)-len(s)])
			}
		}
		title = strings.TrimSpace(ellipsisRe.ReplaceAllString(title, ""))
		if title == before {
			return title
		}
	}
}
