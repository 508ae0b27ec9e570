package sites

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"gamestore/internal/extract"
	"gamestore/internal/metrics"
	"gamestore/internal/model"
)

func init() {
	register("ovagames", newOvaGames)
}

// ovaGames parses ovagames.com, a WordPress theme with tabbed detail pages.
type ovaGames struct {
	baseURL string
	fetcher Fetcher
	logger  *slog.Logger
}

func newOvaGames(opts Options) Parser {
	base := opts.BaseURL
	if base == "" {
		base = "https://ovagames.com"
	}
	return &ovaGames{
		baseURL: strings.TrimRight(base, "/"),
		fetcher: newFetcher("ovagames", opts),
		logger:  opts.logger().With("site", "ovagames"),
	}
}

func (o *ovaGames) Descriptor() model.SiteDescriptor {
	return model.SiteDescriptor{
		ID:          "ovagames",
		Name:        "OvaGames",
		Description: "A popular site for PC games",
	}
}

func (o *ovaGames) ListGames(ctx context.Context, page int, category string) (ListingPage, error) {
	var listURL string
	if category != "" {
		listURL = fmt.Sprintf("%s/category/%s/page/%d", o.baseURL, url.PathEscape(category), page)
	} else {
		listURL = fmt.Sprintf("%s/page/%d", o.baseURL, page)
	}

	doc, err := o.fetcher.Fetch(ctx, listURL)
	if err != nil {
		o.logger.Warn("listing fetch failed", "url", listURL, "error", err)
		metrics.RecordScrapeOp("ovagames", "list", false)
		return ListingPage{}, nil
	}

	result := ListingPage{Games: o.collectCards(doc.Selection)}

	next := doc.Find("div.wp-pagenavi a.nextpostslink").First()
	_, hasHref := next.Attr("href")
	result.HasNext = next.Length() > 0 && hasHref
	if len(result.Games) == 0 && page > 1 {
		result.HasNext = false
	}

	doc.Find("ul#menu-2nd li.menu-item-object-category a, .sidebar .widget_categories ul li a, .sidebar #categories-3 ul li a").
		Each(func(_ int, a *goquery.Selection) {
			name := extract.CollapseWhitespace(a.Text())
			href, _ := a.Attr("href")
			href = extract.AbsoluteURL(o.baseURL, href)
			if name == "" || href == "" {
				return
			}
			if slug := slugFromCategoryHref(href, false); slug != "" {
				result.Categories = append(result.Categories, model.Category{Name: name, Slug: slug})
			}
		})
	result.Categories = uniqueCategories(result.Categories)

	o.logger.Info("listing parsed", "url", listURL, "games", len(result.Games), "has_next", result.HasNext)
	metrics.RecordScrapeOp("ovagames", "list", true)
	return result, nil
}

// collectCards extracts game cards from a listing or search results page.
func (o *ovaGames) collectCards(s *goquery.Selection) []model.GameListing {
	var games []model.GameListing
	s.Find("div.home-post-wrap").Each(func(_ int, card *goquery.Selection) {
		link := card.Find(".home-post-titles h2 a").First()
		href, ok := link.Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			return
		}
		title := extract.CollapseWhitespace(link.Text())
		if title == "" {
			title = model.UnknownTitle
		}
		games = append(games, model.GameListing{
			Title: title,
			URL:   extract.AbsoluteURL(o.baseURL, href),
			Image: imageSrc(card, ".post-inside a img.thumbnail", o.baseURL),
			Site:  "ovagames",
		})
	})
	return games
}

func (o *ovaGames) GetGameDetails(ctx context.Context, pageURL string) (model.GameDetail, error) {
	detail := model.GameDetail{Meta: map[string]string{}, Screenshots: []string{}}

	doc, err := o.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		o.logger.Warn("detail fetch failed", "url", pageURL, "error", err)
		metrics.RecordScrapeOp("ovagames", "detail", false)
		return detail, nil
	}

	content := doc.Find("div.post-wrapper, div.post-content, div.entry-content, article.single-post").First()
	if content.Length() == 0 {
		content = doc.Find("body").First()
	}
	if content.Length() == 0 {
		metrics.RecordScrapeOp("ovagames", "detail", false)
		return detail, nil
	}

	detail.Meta["title"] = extract.Text(content, "h1.post-title, h1.entry-title", "Unknown Game")
	detail.Meta["url"] = pageURL
	detail.Meta["site"] = "ovagames"

	blob := o.metaBlob(content)
	for _, field := range []struct{ key, label string }{
		{"genre", "Genre"}, {"developer", "Developer"},
		{"publisher", "Publisher"}, {"release_date", "Release Date"},
	} {
		if v := metaFromBlob(field.label, blob); v != "" {
			detail.Meta[field.key] = v
		}
	}

	if cover := imageSrc(content, "p > a > img, p > img, figure > img, .separator > a > img, .separator > img", o.baseURL); cover != "" {
		detail.Meta["image"] = cover
	}
	cover := detail.Meta["image"]

	// Tabbed layout first, heading-flow fallback for the rest.
	if tabs := doc.Find("div.wp-tabs, div.tabs-container, div#tabs").First(); tabs.Length() > 0 {
		o.fromTabs(tabs, cover, &detail)
	}
	if detail.Description == "" || detail.SystemRequirements == "" || len(detail.Downloads) == 0 || len(detail.Screenshots) == 0 {
		o.fromHeadings(content, cover, &detail)
	}

	detail.RelatedGames = o.relatedGames(doc, pageURL, detail.Meta["title"])

	metrics.RecordScrapeOp("ovagames", "detail", !detail.Empty())
	return detail, nil
}

// metaBlob joins the text of leading paragraphs that look like a
// "Label: value" info block.
func (o *ovaGames) metaBlob(content *goquery.Selection) string {
	var blob strings.Builder
	count := 0
	content.ChildrenFiltered("p, div").EachWithBreak(func(_ int, el *goquery.Selection) bool {
		count++
		text := extract.CollapseWhitespace(el.Text())
		if metaLabelRe.MatchString(text) {
			blob.WriteString(text)
			blob.WriteByte('\n')
		}
		return count < 10
	})
	if blob.Len() > 0 {
		return blob.String()
	}
	count = 0
	content.Find("p, div").EachWithBreak(func(_ int, el *goquery.Selection) bool {
		count++
		text := extract.CollapseWhitespace(el.Text())
		if metaLabelRe.MatchString(text) {
			blob.WriteString(text)
			blob.WriteByte('\n')
		}
		return count < 15
	})
	return blob.String()
}

// fromTabs fills detail from the wp-tabs panels (#description,
// #system_requirements, #screenshot, #link_download).
func (o *ovaGames) fromTabs(tabs *goquery.Selection, cover string, detail *model.GameDetail) {
	if panel := tabs.Find("#description .wp-tab-content-wrapper").First(); panel.Length() > 0 {
		detail.Description = o.panelText(panel)
		detail.DescriptionHTML = extract.NodeHTML(panel.Nodes[0])
	}
	if panel := tabs.Find("#system_requirements .wp-tab-content-wrapper").First(); panel.Length() > 0 {
		detail.SystemRequirements = o.panelText(panel)
		detail.SystemRequirementsHTML = extract.NodeHTML(panel.Nodes[0])
	}
	if panel := tabs.Find("#screenshot .wp-tab-content-wrapper").First(); panel.Length() > 0 {
		panel.Find("img").Each(func(_ int, img *goquery.Selection) {
			src := lazyAttr(img)
			detail.Screenshots = appendScreenshot(detail.Screenshots, extract.AbsoluteURL(o.baseURL, src), cover)
		})
	}
	if panel := tabs.Find("#link_download .wp-tab-content-wrapper").First(); panel.Length() > 0 {
		if box := panel.Find("div.su-box-content").First(); box.Length() > 0 {
			text := extract.CollapseWhitespace(box.Text())
			if pwd := matchPassword(rarPasswordRe, text); pwd != "" {
				detail.DownloadPassword = pwd
			} else if pwd := matchPassword(passwordRe, text); pwd != "" {
				detail.DownloadPassword = pwd
			}
		}
		panel.Find(".dl-wraps-item").Each(func(_ int, item *goquery.Selection) {
			section := extract.Text(item, "b", "Download Links")
			group := "Main Game"
			if strings.Contains(strings.ToUpper(section), "UPDATE") {
				group = "Update"
			}
			item.Find("p a[href]").Each(func(_ int, a *goquery.Selection) {
				href, _ := a.Attr("href")
				if skipDownloadHref(href) {
					return
				}
				text := extract.CollapseWhitespace(a.Text())
				if text == "" {
					text = "Download"
				}
				detail.Downloads = appendLink(detail.Downloads, model.DownloadLink{
					URL:     extract.AbsoluteURL(o.baseURL, href),
					Text:    text,
					Group:   group,
					Section: section,
				})
			})
		})
	}
}

func (o *ovaGames) panelText(panel *goquery.Selection) string {
	if len(panel.Nodes) == 0 {
		return ""
	}
	return strings.TrimSpace(extract.BlockText(panel.Nodes[0]))
}

// fromHeadings is the fallback tier: locate section headings in the content
// flow and slice the siblings between them.
func (o *ovaGames) fromHeadings(content *goquery.Selection, cover string, detail *model.GameDetail) {
	var descStart, sysreqStart, shotsStart, dlStart *html.Node
	content.Find("h2, h3, h4, strong, b").Each(func(_ int, h *goquery.Selection) {
		txt := strings.ToLower(extract.CollapseWhitespace(h.Text()))
		node := h.Nodes[0]
		if descStart == nil && strings.Contains(txt, "description") {
			descStart = node
		}
		if sysreqStart == nil && (strings.Contains(txt, "system requirements") ||
			(strings.Contains(txt, "minimum") && strings.Contains(txt, "recommended"))) {
			sysreqStart = node
		}
		if shotsStart == nil && strings.Contains(txt, "screenshot") {
			shotsStart = node
		}
		if dlStart == nil && (strings.Contains(txt, "download") || strings.Contains(txt, "link")) {
			dlStart = node
		}
	})

	firstOf := func(nodes ...*html.Node) *html.Node {
		for _, n := range nodes {
			if n != nil {
				return n
			}
		}
		return nil
	}

	if detail.Description == "" && descStart != nil {
		detail.Description = extract.SectionBetween(descStart, firstOf(sysreqStart, shotsStart, dlStart))
	}
	if detail.SystemRequirements == "" && sysreqStart != nil {
		detail.SystemRequirements = extract.SectionBetween(sysreqStart, firstOf(shotsStart, dlStart))
	}

	if len(detail.Screenshots) == 0 {
		imgs := o.fallbackNodes(content, shotsStart, dlStart, func(n *html.Node) bool {
			return extract.IsElement(n, "img")
		})
		for _, img := range imgs {
			src := extract.NodeAttr(img, "src")
			if src == "" {
				src = extract.NodeAttr(img, "data-src")
			}
			detail.Screenshots = appendScreenshot(detail.Screenshots, extract.AbsoluteURL(o.baseURL, src), cover)
		}
	}

	if len(detail.Downloads) == 0 {
		stop := nextHeading(dlStart)
		anchors := o.fallbackNodes(content, dlStart, stop, func(n *html.Node) bool {
			return extract.IsElement(n, "a") && !nonDownloadHref(extract.NodeAttr(n, "href"))
		})
		for _, a := range anchors {
			href := extract.NodeAttr(a, "href")
			text := extract.NodeText(a)
			if text == "" {
				text = "Download"
			}
			detail.Downloads = appendLink(detail.Downloads, model.DownloadLink{
				URL:     extract.AbsoluteURL(o.baseURL, href),
				Text:    text,
				Group:   "Downloads",
				Section: "Links",
			})
		}
		if detail.DownloadPassword == "" {
			if pwd := matchPassword(passwordRe, extract.CollapseWhitespace(content.Text())); pwd != "" {
				detail.DownloadPassword = pwd
			}
		}
	}
}

// fallbackNodes collects matching nodes between start and stop, or from the
// whole content area when no start heading was found.
func (o *ovaGames) fallbackNodes(content *goquery.Selection, start, stop *html.Node, match func(*html.Node) bool) []*html.Node {
	if start != nil {
		return extract.NodesBetween(start, stop, match)
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
	for _, n := range content.Nodes {
		walk(n)
	}
	return out
}

// nextHeading returns the first h2 or h3 sibling after n, or nil.
func nextHeading(n *html.Node) *html.Node {
	if n == nil {
		return nil
	}
	for cur := n.NextSibling; cur != nil; cur = cur.NextSibling {
		if extract.IsElement(cur, "h2", "h3") {
			return cur
		}
	}
	return nil
}

const ovaRelatedLimit = 6

func (o *ovaGames) relatedGames(doc *goquery.Document, pageURL, title string) []model.GameListing {
	container := doc.Find(".related-posts, .rp4wp-related-posts, div[id*='related']").First()
	if container.Length() == 0 {
		return nil
	}
	var related []model.GameListing
	container.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		if href == "" || href == pageURL || !looksLikePostURL(href) {
			return true
		}
		relURL := extract.AbsoluteURL(o.baseURL, href)
		relTitle := extract.CollapseWhitespace(a.Text())
		img := a.Find("img").First()
		var relImage string
		if img.Length() > 0 {
			relImage = extract.AbsoluteURL(o.baseURL, lazyAttr(img))
			if relTitle == "" {
				relTitle, _ = img.Attr("alt")
			}
		}
		if relTitle == "" {
			relTitle = titleFromURL(relURL)
		}
		related = appendRelated(related, model.GameListing{
			Title: relTitle,
			URL:   relURL,
			Image: relImage,
			Site:  "ovagames",
		}, pageURL, title)
		return len(related) < ovaRelatedLimit
	})
	return related
}

func (o *ovaGames) SearchGames(ctx context.Context, query string) ([]model.GameListing, error) {
	searchURL := fmt.Sprintf("%s/?s=%s", o.baseURL, url.QueryEscape(query))
	doc, err := o.fetcher.Fetch(ctx, searchURL)
	if err != nil {
		o.logger.Warn("search fetch failed", "url", searchURL, "error", err)
		metrics.RecordScrapeOp("ovagames", "search", false)
		return nil, nil
	}
	games := o.collectCards(doc.Selection)
	if len(games) > searchResultLimit {
		games = games[:searchResultLimit]
	}
	o.logger.Info("search parsed", "query", query, "results", len(games))
	metrics.RecordScrapeOp("ovagames", "search", true)
	metrics.RecordSearchResults("ovagames", len(games))
	return games, nil
}
