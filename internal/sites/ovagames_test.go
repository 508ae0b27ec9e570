package sites

import (
	"context"
	"testing"
)

const ovaListingPage = `<html><body>
<div class="home-post-wrap">
  <div class="home-post-titles"><h2><a href="https://ovagames.com/elden-ring.html">Elden Ring</a></h2></div>
  <div class="post-inside"><a href="https://ovagames.com/elden-ring.html"><img class="thumbnail" src="//cdn.ovagames.com/er.jpg"></a></div>
</div>
<div class="home-post-wrap">
  <div class="home-post-titles"><h2><a href="/stray.html">Stray</a></h2></div>
</div>
<div class="home-post-wrap">
  <div class="home-post-titles"><h2><a href=" ">Broken Card</a></h2></div>
</div>
<div class="wp-pagenavi"><a class="nextpostslink" href="/page/2">Next</a></div>
<ul id="menu-2nd">
  <li class="menu-item-object-category"><a href="https://ovagames.com/category/rpg/">RPG</a></li>
  <li class="menu-item-object-category"><a href="https://ovagames.com/category/action/">Action</a></li>
  <li class="menu-item-object-category"><a href="https://ovagames.com/category/Action/">Action</a></li>
</ul>
</body></html>`

func newOvaForTest(pages map[string]string) Parser {
	return newOvaGames(Options{Fetcher: &fakeFetcher{pages: pages}})
}

func TestOvaGamesListGames(t *testing.T) {
	parser := newOvaForTest(map[string]string{
		"https://ovagames.com/page/1": ovaListingPage,
	})

	listing, err := parser.ListGames(context.Background(), 1, "")
	if err != nil {
		t.Fatalf("ListGames returned error: %v", err)
	}

	if len(listing.Games) != 2 {
		t.Fatalf("expected 2 games (broken card skipped), got %d", len(listing.Games))
	}
	first := listing.Games[0]
	if first.Title != "Elden Ring" || first.Site != "ovagames" {
		t.Fatalf("unexpected first game: %+v", first)
	}
	if first.Image != "https://cdn.ovagames.com/er.jpg" {
		t.Fatalf("protocol-relative image not resolved: %q", first.Image)
	}
	if listing.Games[1].URL != "https://ovagames.com/stray.html" {
		t.Fatalf("relative card URL not resolved: %q", listing.Games[1].URL)
	}
	if !listing.HasNext {
		t.Fatalf("expected has_next with a next link present")
	}

	if len(listing.Categories) != 2 {
		t.Fatalf("expected categories deduplicated by slug, got %+v", listing.Categories)
	}
	if listing.Categories[0].Name != "Action" || listing.Categories[0].Slug != "Action" {
		t.Fatalf("expected name-sorted categories, got %+v", listing.Categories)
	}
	if listing.Categories[1].Slug != "rpg" {
		t.Fatalf("unexpected second category: %+v", listing.Categories[1])
	}
}

func TestOvaGamesListCategoryURL(t *testing.T) {
	parser := newOvaForTest(map[string]string{
		"https://ovagames.com/category/rpg/page/3": ovaListingPage,
	})

	listing, err := parser.ListGames(context.Background(), 3, "rpg")
	if err != nil {
		t.Fatalf("ListGames returned error: %v", err)
	}
	if len(listing.Games) != 2 {
		t.Fatalf("category URL was not fetched, got %d games", len(listing.Games))
	}
}

func TestOvaGamesEmptyDeepPageHasNoNext(t *testing.T) {
	parser := newOvaForTest(map[string]string{
		"https://ovagames.com/page/99": `<html><body>
			<div class="wp-pagenavi"><a class="nextpostslink" href="/page/100">Next</a></div>
		</body></html>`,
	})

	listing, err := parser.ListGames(context.Background(), 99, "")
	if err != nil {
		t.Fatalf("ListGames returned error: %v", err)
	}
	if len(listing.Games) != 0 || listing.HasNext {
		t.Fatalf("empty page beyond 1 must not report a next page: %+v", listing)
	}
}

func TestOvaGamesListFetchFailureDegrades(t *testing.T) {
	parser := newOvaForTest(nil)

	listing, err := parser.ListGames(context.Background(), 1, "")
	if err != nil {
		t.Fatalf("fetch failure must not surface an error, got %v", err)
	}
	if len(listing.Games) != 0 || listing.HasNext || len(listing.Categories) != 0 {
		t.Fatalf("expected empty listing on fetch failure: %+v", listing)
	}
}

const ovaDetailPage = `<html><body>
<div class="post-wrapper">
  <h1 class="post-title">Elden Ring Free Download</h1>
  <p>Genre: Action RPG Developer: FromSoftware Publisher: Bandai Namco Release Date: Feb 25, 2022</p>
  <p><a href="/elden-ring"><img src="/img/cover.jpg"></a></p>
</div>
<div class="wp-tabs">
  <div id="description"><div class="wp-tab-content-wrapper"><p>Rise, Tarnished.</p><p>A vast world awaits.</p></div></div>
  <div id="system_requirements"><div class="wp-tab-content-wrapper"><p>OS: Windows 10<br>RAM: 12 GB</p></div></div>
  <div id="screenshot"><div class="wp-tab-content-wrapper">
    <img src="/shots/1.jpg"><img src="/shots/2.jpg"><img src="/img/cover.jpg">
  </div></div>
  <div id="link_download"><div class="wp-tab-content-wrapper">
    <div class="su-box-content">Rar password: www.ovagames.com</div>
    <div class="dl-wraps-item"><b>MAIN GAME</b>
      <p><a href="https://host1.example/part1">Mega</a><br><a href="https://host2.example/part1">1fichier</a><br><a href="javascript:void(0)">Noise</a></p>
    </div>
    <div class="dl-wraps-item"><b>UPDATE v1.02</b>
      <p><a href="https://host1.example/update">Mega</a></p>
    </div>
  </div></div>
</div>
<div class="related-posts">
  <a href="https://ovagames.com/dark-souls-3/"><img src="/img/ds3.jpg" alt="Dark Souls 3"></a>
  <a href="https://ovagames.com/sekiro/">Sekiro</a>
</div>
</body></html>`

func TestOvaGamesGetGameDetails(t *testing.T) {
	url := "https://ovagames.com/elden-ring.html"
	parser := newOvaForTest(map[string]string{url: ovaDetailPage})

	detail, err := parser.GetGameDetails(context.Background(), url)
	if err != nil {
		t.Fatalf("GetGameDetails returned error: %v", err)
	}

	if detail.Meta["title"] != "Elden Ring Free Download" {
		t.Fatalf("unexpected title: %q", detail.Meta["title"])
	}
	if detail.Meta["genre"] != "Action RPG" || detail.Meta["developer"] != "FromSoftware" {
		t.Fatalf("unexpected meta: %+v", detail.Meta)
	}
	if detail.Meta["publisher"] != "Bandai Namco" {
		t.Fatalf("unexpected publisher: %q", detail.Meta["publisher"])
	}
	if detail.Meta["image"] != "https://ovagames.com/img/cover.jpg" {
		t.Fatalf("unexpected cover image: %q", detail.Meta["image"])
	}

	if detail.Description != "Rise, Tarnished.\nA vast world awaits." {
		t.Fatalf("unexpected description: %q", detail.Description)
	}
	if detail.SystemRequirements != "OS: Windows 10\nRAM: 12 GB" {
		t.Fatalf("unexpected system requirements: %q", detail.SystemRequirements)
	}

	if len(detail.Screenshots) != 2 {
		t.Fatalf("expected cover excluded from screenshots, got %v", detail.Screenshots)
	}
	if detail.Screenshots[0] != "https://ovagames.com/shots/1.jpg" {
		t.Fatalf("unexpected screenshot: %q", detail.Screenshots[0])
	}

	if detail.DownloadPassword != "www.ovagames.com" {
		t.Fatalf("unexpected password: %q", detail.DownloadPassword)
	}
	if len(detail.Downloads) != 3 {
		t.Fatalf("expected 3 download links (javascript link skipped), got %+v", detail.Downloads)
	}
	if detail.Downloads[0].Group != "Main Game" || detail.Downloads[0].Section != "MAIN GAME" {
		t.Fatalf("unexpected first link grouping: %+v", detail.Downloads[0])
	}
	if detail.Downloads[2].Group != "Update" {
		t.Fatalf("update section should map to the Update group: %+v", detail.Downloads[2])
	}

	if len(detail.RelatedGames) != 2 {
		t.Fatalf("expected 2 related games, got %+v", detail.RelatedGames)
	}
	if detail.RelatedGames[0].Title != "Dark Souls 3" {
		t.Fatalf("related title should fall back to the image alt: %+v", detail.RelatedGames[0])
	}
}

func TestOvaGamesDetailFetchFailure(t *testing.T) {
	parser := newOvaForTest(nil)

	detail, err := parser.GetGameDetails(context.Background(), "https://ovagames.com/missing.html")
	if err != nil {
		t.Fatalf("fetch failure must not surface an error, got %v", err)
	}
	if !detail.Empty() {
		t.Fatalf("expected the empty detail on fetch failure: %+v", detail)
	}
}

func TestOvaGamesHeadingFallback(t *testing.T) {
	url := "https://ovagames.com/old-post.html"
	parser := newOvaForTest(map[string]string{url: `<html><body>
<div class="entry-content">
  <h1 class="entry-title">Old Game</h1>
  <h3>Description</h3>
  <p>A classic platformer.</p>
  <h3>System Requirements</h3>
  <p>OS: Windows XP</p>
  <h3>Download Links</h3>
  <p><a href="https://host.example/old">Mirror</a></p>
  <p>Password: oldpass</p>
</div>
</body></html>`})

	detail, err := parser.GetGameDetails(context.Background(), url)
	if err != nil {
		t.Fatalf("GetGameDetails returned error: %v", err)
	}
	if detail.Description != "A classic platformer." {
		t.Fatalf("fallback description missing: %q", detail.Description)
	}
	if detail.SystemRequirements != "OS: Windows XP" {
		t.Fatalf("fallback system requirements missing: %q", detail.SystemRequirements)
	}
	if len(detail.Downloads) != 1 || detail.Downloads[0].URL != "https://host.example/old" {
		t.Fatalf("fallback downloads missing: %+v", detail.Downloads)
	}
	if detail.DownloadPassword != "oldpass" {
		t.Fatalf("fallback password missing: %q", detail.DownloadPassword)
	}
}

func TestOvaGamesHeadingFallbackSkipsNavLinks(t *testing.T) {
	url := "https://ovagames.com/another-post.html"
	parser := newOvaForTest(map[string]string{url: `<html><body>
<div class="entry-content">
  <h1 class="entry-title">Another Game</h1>
  <h3>Download Links</h3>
  <p><a href="https://host.example/another">Mirror</a></p>
  <p>
    <a href="https://ovagames.com/another-post.html#comments">Comments</a>
    <a href="/category/action/">Action</a>
    <a href="/author/admin/">admin</a>
    <a href="/faq/">FAQ</a>
  </p>
</div>
</body></html>`})

	detail, err := parser.GetGameDetails(context.Background(), url)
	if err != nil {
		t.Fatalf("GetGameDetails returned error: %v", err)
	}
	if len(detail.Downloads) != 1 || detail.Downloads[0].URL != "https://host.example/another" {
		t.Fatalf("navigation links must not become downloads: %+v", detail.Downloads)
	}
}

func TestOvaGamesSearchCapsResults(t *testing.T) {
	var page string
	for i := 0; i < 30; i++ {
		page += `<div class="home-post-wrap"><div class="home-post-titles"><h2><a href="/g` +
			string(rune('a'+i%26)) + `">Game</a></h2></div></div>`
	}
	parser := newOvaForTest(map[string]string{
		"https://ovagames.com/?s=mario": "<html><body>" + page + "</body></html>",
	})

	results, err := parser.SearchGames(context.Background(), "mario")
	if err != nil {
		t.Fatalf("SearchGames returned error: %v", err)
	}
	if len(results) != searchResultLimit {
		t.Fatalf("expected results capped at %d, got %d", searchResultLimit, len(results))
	}
}
