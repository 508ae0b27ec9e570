package sites

import (
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"gamestore/internal/extract"
	"gamestore/internal/model"
)

// Shared extraction heuristics. Both parsers target WordPress-flavored
// markup, so the password regexes, the screenshot denylist and the category
// slug rules are common; the page-structure logic stays in each parser.

var (
	rarPasswordRe  = regexp.MustCompile(`(?i)Rar password\s*:\s*([\w.-]+)`)
	passwordRe     = regexp.MustCompile(`(?i)Password\s*:?\s*([\w.-]+)`)
	cellPasswordRe = regexp.MustCompile(`(?i)\((?:Password|Pass)\s*:\s*([\w.-]+)\)`)

	metaLabelRe = regexp.MustCompile(`(?i)(Title|Genre|Developer|Publisher|Release Date)\s*:`)

	// postPathRe matches URLs whose final segment looks like a post slug.
	postPathRe = regexp.MustCompile(`/[a-zA-Z0-9-]+/?$`)
)

// searchResultLimit caps raw per-site search results.
const searchResultLimit = 20

func looksLikePostURL(href string) bool {
	return postPathRe.MatchString(href)
}

// lazyAttr returns the image URL attribute of img, preferring lazy-load
// attributes over src.
func lazyAttr(img *goquery.Selection) string {
	for _, attr := range []string{"data-src", "data-lazy-src", "src"} {
		if v, ok := img.Attr(attr); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// matchPassword applies re to text and returns the captured password, or "".
func matchPassword(re *regexp.Regexp, text string) string {
	if m := re.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return ""
}

// screenshotJunk marks image URLs that are site chrome rather than
// screenshots.
var screenshotJunk = []string{"icon", "logo", "button", "feed", "spinner"}

func looksLikeChrome(imageURL string) bool {
	lower := strings.ToLower(imageURL)
	for _, kw := range screenshotJunk {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// skipDownloadHref reports whether an anchor href is navigation noise rather
// than a file host link.
func skipDownloadHref(href string) bool {
	href = strings.TrimSpace(href)
	return href == "" || strings.HasPrefix(href, "javascript:") || strings.HasPrefix(href, "#")
}

// nonDownloadHrefParts marks page-navigation links that can sit between a
// download heading and the next section in the loose heading-fallback flow.
var nonDownloadHrefParts = []string{"#comment", "#respond", "/comments", "/category/", "/tag/", "/author/", "/faq"}

// nonDownloadHref extends skipDownloadHref for anchors collected outside a
// structured download block, where site chrome mixes into the section span.
func nonDownloadHref(href string) bool {
	if skipDownloadHref(href) {
		return true
	}
	lower := strings.ToLower(href)
	for _, part := range nonDownloadHrefParts {
		if strings.Contains(lower, part) {
			return true
		}
	}
	return false
}

// appendLink appends l unless a link with the same URL is already present.
func appendLink(links []model.DownloadLink, l model.DownloadLink) []model.DownloadLink {
	for _, existing := range links {
		if existing.URL == l.URL {
			return links
		}
	}
	return append(links, l)
}

// appendScreenshot appends u unless it is empty, the cover image, chrome, or
// already present.
func appendScreenshot(shots []string, u, cover string) []string {
	if u == "" || u == cover || looksLikeChrome(u) {
		return shots
	}
	for _, existing := range shots {
		if existing == u {
			return shots
		}
	}
	return append(shots, u)
}

// metaFromBlob pulls the value for label out of a "Label: value" text blob.
// The value ends at a line break or at the next known label.
func metaFromBlob(label, blob string) string {
	re := regexp.MustCompile(`(?is)` + label + `\s*:?\s*(.*?)(?:\n|\r|Release Date:|Genre:|Developer:|Publisher:|$)`)
	m := re.FindStringSubmatch(blob)
	if m == nil {
		return ""
	}
	value := strings.TrimSpace(m[1])
	if value == "" {
		return ""
	}
	// A colon inside the value means the blob ran into the next field.
	if strings.Contains(value, ":") && !strings.Contains(value, "http") {
		value = strings.TrimSpace(strings.SplitN(value, ":", 2)[0])
	}
	return value
}

// slugFromCategoryHref derives a category slug from a link path. Paths like
// /category/action/ use the segment after "category"; plain paths use the
// last segment.
func slugFromCategoryHref(href string, requireCategoryPrefix bool) string {
	path := href
	if i := strings.Index(path, "://"); i >= 0 {
		path = path[i+3:]
		if j := strings.Index(path, "/"); j >= 0 {
			path = path[j:]
		} else {
			path = ""
		}
	}
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		return ""
	}
	if parts[0] == "category" {
		if len(parts) > 1 {
			return parts[len(parts)-1]
		}
		return ""
	}
	if requireCategoryPrefix {
		return ""
	}
	return parts[len(parts)-1]
}

// uniqueCategories deduplicates by lowercased slug and sorts by name.
func uniqueCategories(cats []model.Category) []model.Category {
	if len(cats) == 0 {
		return cats
	}
	seen := make(map[string]model.Category, len(cats))
	for _, c := range cats {
		seen[strings.ToLower(c.Slug)] = c
	}
	out := make([]model.Category, 0, len(seen))
	for _, c := range seen {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// titleFromURL turns the last path segment of a game URL into a readable
// title, for related-game links that carry no text.
func titleFromURL(rawURL string) string {
	seg := strings.Trim(rawURL, "/")
	if i := strings.LastIndex(seg, "/"); i >= 0 {
		seg = seg[i+1:]
	}
	words := strings.Split(strings.ReplaceAll(seg, "-", " "), " ")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.TrimSpace(strings.Join(words, " "))
}

// appendRelated appends g unless it is empty, self-referencing or a
// duplicate URL.
func appendRelated(related []model.GameListing, g model.GameListing, selfURL, selfTitle string) []model.GameListing {
	if g.URL == "" || g.URL == selfURL || g.Title == "" {
		return related
	}
	if strings.EqualFold(g.Title, selfTitle) {
		return related
	}
	for _, existing := range related {
		if existing.URL == g.URL {
			return related
		}
	}
	return append(related, g)
}

// imageSrc returns the best image URL attribute of the first element
// matching selector, preferring lazy-load attributes, resolved against base.
func imageSrc(s *goquery.Selection, selector, base string) string {
	el := s.Find(selector).First()
	if el.Length() == 0 {
		return ""
	}
	for _, attr := range []string{"data-src", "data-lazy-src", "src"} {
		if v, ok := el.Attr(attr); ok && strings.TrimSpace(v) != "" {
			return extract.AbsoluteURL(base, strings.TrimSpace(v))
		}
	}
	return ""
}
