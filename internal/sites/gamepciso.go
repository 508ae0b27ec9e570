package sites

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"gamestore/internal/extract"
	"gamestore/internal/metrics"
	"gamestore/internal/model"
)

func init() {
	register("gamepciso", newGamePCISO)
}

// gamePCISO parses gamepciso.com, a Blogger-styled theme with an info table
// and su-spoiler download blocks on detail pages.
type gamePCISO struct {
	baseURL string
	fetcher Fetcher
	logger  *slog.Logger
}

func newGamePCISO(opts Options) Parser {
	base := opts.BaseURL
	if base == "" {
		base = "https://gamepciso.com"
	}
	return &gamePCISO{
		baseURL: strings.TrimRight(base, "/"),
		fetcher: newFetcher("gamepciso", opts),
		logger:  opts.logger().With("site", "gamepciso"),
	}
}

func (g *gamePCISO) Descriptor() model.SiteDescriptor {
	return model.SiteDescriptor{
		ID:          "gamepciso",
		Name:        "GamePCISO",
		Description: "Game PC ISO download site",
	}
}

// titleSuffixRes strip SEO boilerplate the site appends to post titles.
var titleSuffixRes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\s*-\s*Download Game PC Iso New Free$`),
	regexp.MustCompile(`(?i)\s*Download\s+Free\s*$`),
	regexp.MustCompile(`(?i)\s*Free\s+Download\s*$`),
	regexp.MustCompile(`(?i)\s*PC\s+Game\s+Free\s*$`),
	regexp.MustCompile(`(?i)\s*PC\s+Game\s*$`),
	regexp.MustCompile(`(?i)\s*Full\s+Version\s*$`),
	regexp.MustCompile(`(?i)\s*Repack\s*$`),
}

func cleanTitle(title string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return model.UnknownTitle
	}
	for _, re := range titleSuffixRes {
		title = re.ReplaceAllString(title, "")
	}
	return strings.TrimSpace(title)
}

// bloggerSizeRe matches the size segment in Blogger-hosted image URLs, for
// example /s320/ or /w400-h225-c/.
var bloggerSizeRe = regexp.MustCompile(`/(s\d+(-[cp])?|w\d+-h\d+(-[cpkno]+)?)/`)

// resolveImage absolutizes an image URL and upgrades Blogger size segments
// to full resolution.
func (g *gamePCISO) resolveImage(raw, base string) string {
	if base == "" {
		base = g.baseURL
	}
	full := extract.AbsoluteURL(base, raw)
	if full == "" {
		return ""
	}
	if m := bloggerSizeRe.FindStringSubmatch(full); m != nil {
		return strings.Replace(full, m[1], "s1600", 1)
	}
	return full
}

func (g *gamePCISO) ListGames(ctx context.Context, page int, category string) (ListingPage, error) {
	var listURL string
	switch {
	case category != "" && page > 1:
		listURL = fmt.Sprintf("%s/category/%s/page/%d/", g.baseURL, url.PathEscape(category), page)
	case category != "":
		listURL = fmt.Sprintf("%s/category/%s/", g.baseURL, url.PathEscape(category))
	case page > 1:
		listURL = fmt.Sprintf("%s/page/%d/", g.baseURL, page)
	default:
		listURL = g.baseURL + "/"
	}

	doc, err := g.fetcher.Fetch(ctx, listURL)
	if err != nil {
		g.logger.Warn("listing fetch failed", "url", listURL, "error", err)
		metrics.RecordScrapeOp("gamepciso", "list", false)
		return ListingPage{}, nil
	}

	result := ListingPage{Games: g.collectCards(doc.Selection, 0)}

	next := doc.Find(".phantrang .wp-pagenavi a.nextpostslink, .phantrang .wp-pagenavi a[rel='next']").First()
	_, hasHref := next.Attr("href")
	result.HasNext = next.Length() > 0 && hasHref
	if len(result.Games) == 0 && page > 1 {
		result.HasNext = false
	}

	doc.Find("#Label7 .menu-menu-ben-trai-container li a").Each(func(_ int, a *goquery.Selection) {
		name := extract.CollapseWhitespace(a.Text())
		href, _ := a.Attr("href")
		href = extract.AbsoluteURL(g.baseURL, href)
		if name == "" || href == "" {
			return
		}
		if slug := slugFromCategoryHref(href, true); slug != "" {
			result.Categories = append(result.Categories, model.Category{Name: name, Slug: slug})
		}
	})
	result.Categories = uniqueCategories(result.Categories)

	g.logger.Info("listing parsed", "url", listURL, "games", len(result.Games), "has_next", result.HasNext)
	metrics.RecordScrapeOp("gamepciso", "list", true)
	return result, nil
}

// collectCards extracts game cards from a listing or search page. A limit of
// 0 means unlimited.
func (g *gamePCISO) collectCards(s *goquery.Selection, limit int) []model.GameListing {
	var games []model.GameListing
	s.Find("div.post.bar.hentry").EachWithBreak(func(_ int, card *goquery.Selection) bool {
		link := card.Find("h2.post-title.entry-title a").First()
		href, ok := link.Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			return true
		}
		gameURL := extract.AbsoluteURL(g.baseURL, href)

		var image string
		if raw := lazyAttr(card.Find(".post-body div[id^='summary'] img, .post-body img").First()); raw != "" {
			image = g.resolveImage(raw, gameURL)
		}

		var released string
		if date := card.Find(".postmeta .date, .entry-date, time.published").First(); date.Length() > 0 {
			released = extract.CollapseWhitespace(date.Text())
			if released == "" {
				released, _ = date.Attr("datetime")
			}
		}

		games = append(games, model.GameListing{
			Title:       cleanTitle(link.Text()),
			URL:         gameURL,
			Image:       image,
			ReleaseDate: released,
			Site:        "gamepciso",
		})
		return limit == 0 || len(games) < limit
	})
	return games
}

func (g *gamePCISO) GetGameDetails(ctx context.Context, pageURL string) (model.GameDetail, error) {
	detail := model.GameDetail{Meta: map[string]string{}, Screenshots: []string{}}

	doc, err := g.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		g.logger.Warn("detail fetch failed", "url", pageURL, "error", err)
		metrics.RecordScrapeOp("gamepciso", "detail", false)
		return detail, nil
	}

	content := doc.Find("div.post-body.entry-content").First()
	if content.Length() == 0 {
		content = doc.Find("body").First()
	}
	if content.Length() == 0 {
		metrics.RecordScrapeOp("gamepciso", "detail", false)
		return detail, nil
	}

	detail.Meta["url"] = pageURL
	detail.Meta["site"] = "gamepciso"
	detail.Meta["title"] = cleanTitle(extract.Text(content, "h1.post-title.entry-title", ""))

	infoTable := content.Find("table[border='7']").First()
	if infoTable.Length() > 0 {
		g.fromInfoTable(infoTable, pageURL, &detail)
	}
	cover := detail.Meta["image"]

	detail.Description, detail.DescriptionHTML = g.description(content, infoTable)
	detail.SystemRequirements, detail.SystemRequirementsHTML = g.systemRequirements(content)
	detail.Screenshots = g.screenshots(content, pageURL, cover)
	g.downloads(content, &detail)
	detail.RelatedGames = g.relatedGames(doc, pageURL, detail.Meta["title"])

	metrics.RecordScrapeOp("gamepciso", "detail", !detail.Empty())
	return detail, nil
}

// fromInfoTable fills meta fields from the bordered info table, whose rows
// pair an uppercase label cell with a highlighted value cell.
func (g *gamePCISO) fromInfoTable(table *goquery.Selection, pageURL string, detail *model.GameDetail) {
	fields := map[string]string{
		"NAME": "", "GENRE": "genre", "RELEASE": "release_date",
		"DEVELOPER": "developer", "PUBLISHER": "publisher", "LANGUAGE": "language",
		"SIZE": "file_size",
	}
	table.Find("tr").Each(func(_ int, row *goquery.Selection) {
		value := extract.Text(row, "td[bgcolor='#FFF68F']", "")
		if value == "" {
			return
		}
		// The label cell position varies (the cover cell spans rows), so
		// match labels anywhere in the row.
		label := strings.ToUpper(extract.CollapseWhitespace(row.Text()))
		for key, metaKey := range fields {
			if !strings.Contains(label, key) {
				continue
			}
			if key == "NAME" {
				if detail.Meta["title"] == model.UnknownTitle || detail.Meta["title"] == "" {
					detail.Meta["title"] = cleanTitle(value)
				}
			} else {
				detail.Meta[metaKey] = value
			}
		}
	})

	coverCell := table.Find("tr > td[rowspan]").First()
	if coverCell.Length() == 0 {
		coverCell = table.Find("tr > td").First()
	}
	if src, ok := coverCell.Find("img").First().Attr("src"); ok {
		if cover := g.resolveImage(src, pageURL); cover != "" {
			detail.Meta["image"] = cover
		}
	}
}

var descHeadingRe = regexp.MustCompile(`(?i)Info|Description`)

// description collects the paragraphs between the Info/Description heading
// (or the info table) and the next section boundary.
func (g *gamePCISO) description(content, infoTable *goquery.Selection) (string, string) {
	start := content.Find("h2, h3").FilterFunction(func(_ int, h *goquery.Selection) bool {
		return descHeadingRe.MatchString(h.Text())
	}).First()
	if start.Length() == 0 {
		start = infoTable
	}
	if start == nil || start.Length() == 0 {
		return "", ""
	}

	var parts, markup []string
	for cur := start.Nodes[0].NextSibling; cur != nil; cur = cur.NextSibling {
		if extract.IsElement(cur, "h2", "h3") && !descHeadingRe.MatchString(extract.NodeText(cur)) {
			break
		}
		if extract.IsElement(cur, "div") && isSectionBoundary(extract.NodeAttr(cur, "class")) {
			break
		}
		if extract.IsElement(cur, "p") {
			if t := extract.NodeText(cur); t != "" {
				parts = append(parts, t)
				markup = append(markup, extract.NodeHTML(cur))
			}
		}
	}
	return strings.Join(parts, "\n\n"), strings.Join(markup, "\n")
}

func isSectionBoundary(class string) bool {
	return strings.Contains(class, "su-spoiler") || strings.Contains(class, "separator")
}

var sysreqHeadingRe = regexp.MustCompile(`(?i)System Requirements`)

func (g *gamePCISO) systemRequirements(content *goquery.Selection) (string, string) {
	start := content.Find("h2, h3").FilterFunction(func(_ int, h *goquery.Selection) bool {
		return sysreqHeadingRe.MatchString(h.Text())
	}).First()
	if start.Length() == 0 {
		return "", ""
	}

	var parts, markup []string
	for cur := start.Nodes[0].NextSibling; cur != nil; cur = cur.NextSibling {
		if extract.IsElement(cur, "h2", "h3") && !sysreqHeadingRe.MatchString(extract.NodeText(cur)) {
			break
		}
		if extract.IsElement(cur, "div") && isSectionBoundary(extract.NodeAttr(cur, "class")) {
			break
		}
		if extract.IsElement(cur, "p", "ul") {
			if t := extract.BlockText(cur); t != "" {
				parts = append(parts, t)
				markup = append(markup, extract.NodeHTML(cur))
			}
		} else if cur.Type == html.TextNode {
			if t := extract.CollapseWhitespace(cur.Data); t != "" {
				parts = append(parts, t)
			}
		}
	}
	return strings.Join(parts, "\n"), strings.Join(markup, "\n")
}

// thumbSizeRe matches small Blogger thumbnail sizes that survived resolution.
var thumbSizeRe = regexp.MustCompile(`/s\d{2,3}(-c)?/`)

// screenshots collects separator-wrapped images that follow a spoiler block.
// Images in separators before the first spoiler are cover art, not
// screenshots.
func (g *gamePCISO) screenshots(content *goquery.Selection, pageURL, cover string) []string {
	shots := []string{}
	content.Find("div.separator > a > img").Each(func(_ int, img *goquery.Selection) {
		sep := img.ParentsFiltered("div.separator").First()
		if sep.Length() == 0 || sep.PrevAllFiltered("div.su-spoiler").Length() == 0 {
			return
		}
		raw := img.AttrOr("src", "")
		if raw == "" {
			raw = img.AttrOr("data-lazy-src", "")
		}
		full := g.resolveImage(raw, pageURL)
		if full == "" || strings.Contains(full, "ytimg") || thumbSizeRe.MatchString(full) {
			return
		}
		shots = appendScreenshot(shots, full, cover)
	})
	return shots
}

// downloads walks the su-spoiler blocks, parsing host tables and mirror
// paragraphs. The first "password to extract" row becomes the download
// password; passwords scoped to one spoiler become per-link hints when no
// extraction password exists.
func (g *gamePCISO) downloads(content *goquery.Selection, detail *model.GameDetail) {
	groupPasswords := map[string]string{}

	content.Find("div.su-spoiler").Each(func(_ int, spoiler *goquery.Selection) {
		group := cleanTitle(extract.Text(spoiler, ".su-spoiler-title", "Download Links"))
		body := spoiler.Find(".su-spoiler-content").First()
		if body.Length() == 0 {
			return
		}

		if table := body.Find("table").First(); table.Length() > 0 {
			g.downloadTable(table, group, groupPasswords, detail)
		}
		g.mirrorParagraphs(body, group, detail)
	})

	if detail.DownloadPassword == "" && len(groupPasswords) > 0 {
		g.logger.Info("group passwords found without an extraction password", "groups", len(groupPasswords))
		for i := range detail.Downloads {
			if hint, ok := groupPasswords[detail.Downloads[i].Group]; ok {
				detail.Downloads[i].PasswordHint = hint
			}
		}
	}
}

func (g *gamePCISO) downloadTable(table *goquery.Selection, group string, groupPasswords map[string]string, detail *model.GameDetail) {
	allRows := table.Find("tr")
	// A header-only or empty table carries nothing to extract.
	if allRows.Length() < 2 {
		return
	}

	var hosts []string
	allRows.First().Find("th").Each(func(_ int, th *goquery.Selection) {
		hosts = append(hosts, strings.TrimSpace(strings.ReplaceAll(extract.CollapseWhitespace(th.Text()), "Link", "")))
	})

	rows := allRows.Slice(1, goquery.ToEnd)
	var prevParts []string
	var prevPart string
	rows.Each(func(rowIdx int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() == 0 {
			return
		}

		part := extract.Text(cells.Eq(0), "center", "")
		if part == "" {
			part = extract.CollapseWhitespace(cells.Eq(0).Text())
		}

		if strings.Contains(strings.ToLower(part), "password") && cells.Length() > 1 {
			pwd := extract.Text(cells.Eq(1), "center", "")
			if pwd == "" {
				pwd = extract.CollapseWhitespace(cells.Eq(1).Text())
			}
			if pwd != "" {
				if strings.Contains(strings.ToLower(part), "extract") {
					if detail.DownloadPassword == "" {
						detail.DownloadPassword = pwd
					}
				} else if _, ok := groupPasswords[group]; !ok {
					groupPasswords[group] = pwd
				}
			}
			return
		}
		if cells.Length() <= 1 {
			return
		}

		if pwd := matchPassword(cellPasswordRe, row.Text()); pwd != "" && detail.DownloadPassword == "" {
			if _, ok := groupPasswords[group]; !ok {
				groupPasswords[group] = pwd
			}
		}

		if len(hosts) == cells.Length() {
			// Standard layout: part name cell followed by one cell per host.
			cells.Slice(1, goquery.ToEnd).Each(func(i int, cell *goquery.Selection) {
				href, ok := cell.Find("a").First().Attr("href")
				if !ok || skipDownloadHref(href) {
					return
				}
				host := fmt.Sprintf("Link %d", i+1)
				if i+1 < len(hosts) {
					host = hosts[i+1]
				}
				detail.Downloads = appendLink(detail.Downloads, model.DownloadLink{
					URL:     extract.AbsoluteURL(g.baseURL, href),
					Text:    host + " - " + part,
					Group:   group,
					Section: "Table Links",
				})
			})
			prevPart = part
			prevParts = prevParts[:0]
			cells.Slice(1, goquery.ToEnd).Each(func(_ int, cell *goquery.Selection) {
				prevParts = append(prevParts, extract.CollapseWhitespace(cell.Text()))
			})
		} else if len(hosts) < cells.Length() && rowIdx > 0 {
			// Continuation row: every cell is a link, hosts named in the
			// previous row.
			cells.Each(func(i int, cell *goquery.Selection) {
				href, ok := cell.Find("a").First().Attr("href")
				if !ok || skipDownloadHref(href) {
					return
				}
				host := fmt.Sprintf("Alt Link %d", i+1)
				if i < len(prevParts) {
					host = prevParts[i]
				}
				detail.Downloads = appendLink(detail.Downloads, model.DownloadLink{
					URL:     extract.AbsoluteURL(g.baseURL, href),
					Text:    host + " - " + prevPart,
					Group:   group,
					Section: "Table Links (Alt Row)",
				})
			})
		}
	})
}

var updatePrefixRe = regexp.MustCompile(`(?i)^update v`)

// mirrorParagraphs collects loose anchor links in paragraphs, labelling them
// with any short preceding text such as a part number.
func (g *gamePCISO) mirrorParagraphs(body *goquery.Selection, group string, detail *model.GameDetail) {
	section := "Mirrors/Other"
	if firstP := body.Find("p").First(); firstP.Length() > 0 {
		text := extract.CollapseWhitespace(firstP.Text())
		if updatePrefixRe.MatchString(text) {
			section = strings.SplitN(text, ":", 2)[0]
		}
	}

	body.Find("p a[href]").Each(func(_ int, a *goquery.Selection) {
		parent := a.ParentsFiltered("p").First()
		if parent.Length() > 0 && strings.Contains(strings.ToLower(parent.Text()), "install:") {
			return
		}
		href, _ := a.Attr("href")
		if skipDownloadHref(href) {
			return
		}
		text := extract.CollapseWhitespace(a.Text())
		if text == "" {
			text = "Download"
		}
		if prefix := extract.PrecedingLabel(a.Nodes[0], 20); prefix != "" {
			text = prefix + " - " + text
		}
		detail.Downloads = appendLink(detail.Downloads, model.DownloadLink{
			URL:     extract.AbsoluteURL(g.baseURL, href),
			Text:    text,
			Group:   group,
			Section: section,
		})
	})
}

const gamePCISORelatedLimit = 8

func (g *gamePCISO) relatedGames(doc *goquery.Document, pageURL, title string) []model.GameListing {
	container := doc.Find("div#related-posts").First()
	if container.Length() == 0 {
		return nil
	}
	var related []model.GameListing
	container.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		if href == "" || href == pageURL {
			return true
		}
		relURL := extract.AbsoluteURL(g.baseURL, href)
		relTitle := extract.CollapseWhitespace(a.Find("div").First().Text())
		var relImage string
		if img := a.Find("img.maskolis_img, img").First(); img.Length() > 0 {
			relImage = g.resolveImage(img.AttrOr("src", ""), relURL)
			if relTitle == "" {
				relTitle = img.AttrOr("alt", "")
			}
		}
		if relTitle == "" {
			relTitle = titleFromURL(relURL)
		}
		related = appendRelated(related, model.GameListing{
			Title: cleanTitle(relTitle),
			URL:   relURL,
			Image: relImage,
			Site:  "gamepciso",
		}, pageURL, title)
		return len(related) < gamePCISORelatedLimit
	})
	return related
}

func (g *gamePCISO) SearchGames(ctx context.Context, query string) ([]model.GameListing, error) {
	searchURL := fmt.Sprintf("%s/?s=%s", g.baseURL, url.QueryEscape(query))
	doc, err := g.fetcher.Fetch(ctx, searchURL)
	if err != nil {
		g.logger.Warn("search fetch failed", "url", searchURL, "error", err)
		metrics.RecordScrapeOp("gamepciso", "search", false)
		return nil, nil
	}
	games := g.collectCards(doc.Selection, searchResultLimit)
	g.logger.Info("search parsed", "query", query, "results", len(games))
	metrics.RecordScrapeOp("gamepciso", "search", true)
	metrics.RecordSearchResults("gamepciso", len(games))
	return games, nil
}
