// Package extract provides selector-based field extraction primitives used by
// the site parsers. Every primitive tolerates missing content: a selector that
// matches nothing yields the caller-supplied default instead of an error.
package extract

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Text returns the whitespace-collapsed text of the first element matching
// selector, or def when nothing matches or the text is empty.
func Text(s *goquery.Selection, selector, def string) string {
	if s == nil {
		return def
	}
	el := s.Find(selector).First()
	if el.Length() == 0 {
		return def
	}
	if t := CollapseWhitespace(el.Text()); t != "" {
		return t
	}
	return def
}

// AllTexts returns the text of every element matching selector, in document
// order, skipping elements whose text collapses to empty.
func AllTexts(s *goquery.Selection, selector string) []string {
	if s == nil {
		return nil
	}
	var out []string
	s.Find(selector).Each(func(_ int, el *goquery.Selection) {
		if t := CollapseWhitespace(el.Text()); t != "" {
			out = append(out, t)
		}
	})
	return out
}

// Attr returns the named attribute of the first element matching selector,
// or "" when absent. For src and href attributes a relative value is resolved
// against base.
func Attr(s *goquery.Selection, selector, attr, base string) string {
	if s == nil {
		return ""
	}
	el := s.Find(selector).First()
	if el.Length() == 0 {
		return ""
	}
	v, ok := el.Attr(attr)
	if !ok {
		return ""
	}
	v = strings.TrimSpace(v)
	if v == "" {
		return ""
	}
	if attr == "src" || attr == "href" {
		return AbsoluteURL(base, v)
	}
	return v
}

// Image is Attr for the src attribute.
func Image(s *goquery.Selection, selector, base string) string {
	return Attr(s, selector, "src", base)
}

// Link is Attr for the href attribute.
func Link(s *goquery.Selection, selector, base string) string {
	return Attr(s, selector, "href", base)
}

// AbsoluteURL resolves raw against base. Already-absolute values (http://,
// https://, data:) pass through unchanged, which makes the function
// idempotent. Protocol-relative values inherit base's scheme. When base is
// empty or unparsable the raw value is returned as-is.
func AbsoluteURL(base, raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") || strings.HasPrefix(raw, "data:") {
		return raw
	}
	if base == "" {
		return raw
	}
	bu, err := url.Parse(base)
	if err != nil || bu.Scheme == "" {
		return raw
	}
	if strings.HasPrefix(raw, "//") {
		return bu.Scheme + ":" + raw
	}
	ru, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	return bu.ResolveReference(ru).String()
}

// CollapseWhitespace trims s and collapses internal whitespace runs to a
// single space.
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
