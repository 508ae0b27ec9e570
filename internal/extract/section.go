package extract

import (
	"strings"

	"golang.org/x/net/html"
)

// The heuristic fallback tier of the site parsers slices a detail page into
// sections delimited by heading-like elements. The walkers below operate on
// raw html nodes so that bare text siblings (which goquery selections skip)
// are included, matching how mixed markup interleaves text and tags.

// blockElements are the sibling tags whose text contributes to a section body.
var blockElements = map[string]bool{
	"p": true, "ul": true, "ol": true, "div": true, "li": true, "pre": true,
}

// NodeAttr returns the value of the named attribute on n, or "".
func NodeAttr(n *html.Node, key string) string {
	if n == nil {
		return ""
	}
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// IsElement reports whether n is an element node with one of the given names.
func IsElement(n *html.Node, names ...string) bool {
	if n == nil || n.Type != html.ElementNode {
		return false
	}
	for _, name := range names {
		if n.Data == name {
			return true
		}
	}
	return false
}

// NodeText returns the whitespace-collapsed text content of n's subtree.
func NodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteByte(' ')
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	if n != nil {
		walk(n)
	}
	return CollapseWhitespace(b.String())
}

// BlockText returns the text of n's subtree with block and line-break
// boundaries rendered as newlines, each line trimmed, empty lines dropped.
func BlockText(n *html.Node) string {
	var lines []string
	var current strings.Builder

	flush := func() {
		if t := CollapseWhitespace(current.String()); t != "" {
			lines = append(lines, t)
		}
		current.Reset()
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			current.WriteString(n.Data)
			current.WriteByte(' ')
		case html.ElementNode:
			if n.Data == "br" {
				flush()
				return
			}
			block := blockElements[n.Data] || strings.HasPrefix(n.Data, "h")
			if block {
				flush()
			}
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				walk(c)
			}
			if block {
				flush()
			}
		}
	}
	if n != nil {
		walk(n)
	}
	flush()
	return strings.Join(lines, "\n")
}

// SectionBetween concatenates the block-level text of the siblings following
// start, stopping at stop (or at the end of the sibling chain when stop is
// nil). Bare text siblings are included. Returns "" when start is nil.
func SectionBetween(start, stop *html.Node) string {
	if start == nil {
		return ""
	}
	var parts []string
	for cur := start.NextSibling; cur != nil && cur != stop; cur = cur.NextSibling {
		switch cur.Type {
		case html.TextNode:
			if t := CollapseWhitespace(cur.Data); t != "" {
				parts = append(parts, t)
			}
		case html.ElementNode:
			if blockElements[cur.Data] {
				if t := BlockText(cur); t != "" {
					parts = append(parts, t)
				}
			}
		}
	}
	return strings.Join(parts, "\n")
}

// NodesBetween collects, in document order, every node within the sibling
// span (start, stop) for which match returns true, descending into element
// subtrees. start itself is excluded.
func NodesBetween(start, stop *html.Node, match func(*html.Node) bool) []*html.Node {
	if start == nil {
		return nil
	}
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if match(n) {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for cur := start.NextSibling; cur != nil && cur != stop; cur = cur.NextSibling {
		walk(cur)
	}
	return out
}

// NodeHTML renders n's subtree back to markup. Used to retain section HTML
// for alternate output formats.
func NodeHTML(n *html.Node) string {
	if n == nil {
		return ""
	}
	var b strings.Builder
	if err := html.Render(&b, n); err != nil {
		return ""
	}
	return b.String()
}

// PrecedingLabel returns a short trimmed text label taken from the text node
// immediately preceding n, with trailing separator punctuation removed. Used
// to label loose download anchors with nearby text such as "Part 1 –".
func PrecedingLabel(n *html.Node, maxLen int) string {
	if n == nil || n.PrevSibling == nil {
		return ""
	}
	prev := n.PrevSibling
	if prev.Type != html.TextNode {
		return ""
	}
	label := strings.TrimRight(CollapseWhitespace(prev.Data), "–—-: ")
	if label == "" || len(label) >= maxLen {
		return ""
	}
	return label
}
