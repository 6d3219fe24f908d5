package scraper

import (
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// lookupRule resolves one candidate value from an item container.
// Implementations are pure: they inspect the selection and report
// whether they produced a usable value.
type lookupRule interface {
	resolve(container *goquery.Selection) (string, bool)
}

// attrRule reads a named attribute from the first descendant matching
// the selector. Attribute markers survive cosmetic markup changes
// better than text nodes, so these sit at the top of each field's
// fallback list.
type attrRule struct {
	selector string
	attr     string
}

func (r attrRule) resolve(container *goquery.Selection) (string, bool) {
	value, exists := container.Find(r.selector).First().Attr(r.attr)
	value = strings.TrimSpace(value)
	return value, exists && value != ""
}

// textRule reads the trimmed text of the first descendant matching any
// of its selectors, most specific selector first.
type textRule struct {
	selectors []string
}

func (r textRule) resolve(container *goquery.Selection) (string, bool) {
	for _, selector := range r.selectors {
		text := strings.TrimSpace(container.Find(selector).First().Text())
		if text != "" {
			return text, true
		}
	}
	return "", false
}

// selfAttrRule reads a named attribute from the container node itself.
type selfAttrRule struct {
	attr string
}

func (r selfAttrRule) resolve(container *goquery.Selection) (string, bool) {
	value, exists := container.Attr(r.attr)
	value = strings.TrimSpace(value)
	return value, exists && value != ""
}

// resolveField evaluates rules in order and returns the first non-empty
// result, or "" when no rule matches.
func resolveField(container *goquery.Selection, rules []lookupRule) string {
	for _, rule := range rules {
		if value, ok := rule.resolve(container); ok {
			return value
		}
	}
	return ""
}

// resolveQuantity evaluates the quantity candidates in order and
// returns the first one that parses as a strictly positive base-10
// integer. Containers with no parseable quantity default to 1.
func resolveQuantity(container *goquery.Selection, rules []lookupRule) int {
	for _, rule := range rules {
		raw, ok := rule.resolve(container)
		if !ok {
			continue
		}
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			return n
		}
	}
	return 1
}

// resolveURL rewrites site-relative URLs against the configured origin.
// Absolute URLs pass through unchanged and empty stays empty.
func resolveURL(origin, raw string) string {
	if strings.HasPrefix(raw, "/") {
		return origin + raw
	}
	return raw
}
