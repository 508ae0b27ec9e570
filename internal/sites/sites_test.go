package sites

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"

	"gamestore/internal/model"
)

// fakeFetcher serves canned documents keyed by URL.
type fakeFetcher struct {
	pages map[string]string
}

func (f *fakeFetcher) Fetch(_ context.Context, rawURL string) (*goquery.Document, error) {
	body, ok := f.pages[rawURL]
	if !ok {
		return nil, errors.New("no page registered for " + rawURL)
	}
	return goquery.NewDocumentFromReader(strings.NewReader(body))
}

func newTestRegistry(pages map[string]string) *Registry {
	return NewRegistry(Options{Fetcher: &fakeFetcher{pages: pages}}, nil)
}

func TestRegistryHasBothSites(t *testing.T) {
	r := newTestRegistry(nil)

	ids := r.IDs()
	if len(ids) != 2 || ids[0] != "gamepciso" || ids[1] != "ovagames" {
		t.Fatalf("unexpected site ids: %v", ids)
	}
	if _, ok := r.Get("ovagames"); !ok {
		t.Fatalf("ovagames parser missing")
	}
	if _, ok := r.Get("bogus"); ok {
		t.Fatalf("unknown site should not resolve")
	}
}

func TestRegistryDescriptors(t *testing.T) {
	r := newTestRegistry(nil)

	descs := r.Descriptors()
	if len(descs) != 2 {
		t.Fatalf("expected 2 descriptors, got %d", len(descs))
	}
	if descs[0].ID != "gamepciso" || descs[0].Name != "GamePCISO" {
		t.Fatalf("unexpected first descriptor: %+v", descs[0])
	}
	if descs[1].ID != "ovagames" || descs[1].Name != "OvaGames" {
		t.Fatalf("unexpected second descriptor: %+v", descs[1])
	}
}

// stubParser carries only a descriptor, for registry-level tests.
type stubParser struct {
	desc model.SiteDescriptor
}

func (p *stubParser) Descriptor() model.SiteDescriptor { return p.desc }
func (p *stubParser) ListGames(context.Context, int, string) (ListingPage, error) {
	return ListingPage{}, ErrNotSupported
}
func (p *stubParser) GetGameDetails(context.Context, string) (model.GameDetail, error) {
	return model.GameDetail{}, ErrNotSupported
}
func (p *stubParser) SearchGames(context.Context, string) ([]model.GameListing, error) {
	return nil, ErrNotSupported
}

func TestRegistryDescriptorsSortedByName(t *testing.T) {
	// IDs sort one way, display names the other.
	r := &Registry{
		parsers: map[string]Parser{
			"aaa": &stubParser{desc: model.SiteDescriptor{ID: "aaa", Name: "Zulu"}},
			"zzz": &stubParser{desc: model.SiteDescriptor{ID: "zzz", Name: "Alpha"}},
		},
		order: []string{"aaa", "zzz"},
	}

	descs := r.Descriptors()
	if len(descs) != 2 || descs[0].Name != "Alpha" || descs[1].Name != "Zulu" {
		t.Fatalf("descriptors must sort by display name: %+v", descs)
	}
}

func TestRegisterDuplicateKeepsLast(t *testing.T) {
	defer delete(factories, "dup")
	register("dup", func(Options) Parser {
		return &stubParser{desc: model.SiteDescriptor{ID: "dup", Name: "First"}}
	})
	register("dup", func(Options) Parser {
		return &stubParser{desc: model.SiteDescriptor{ID: "dup", Name: "Second"}}
	})

	r := NewRegistry(Options{Fetcher: &fakeFetcher{}}, nil)
	p, ok := r.Get("dup")
	if !ok || p.Descriptor().Name != "Second" {
		t.Fatalf("last registration must win, got %+v", p)
	}
}

func TestRegistryBaseURLOverride(t *testing.T) {
	pages := map[string]string{
		"https://mirror.example.com/page/1": `<div class="home-post-wrap">
			<div class="home-post-titles"><h2><a href="/some-game">Some Game</a></h2></div>
		</div>`,
	}
	r := NewRegistry(Options{Fetcher: &fakeFetcher{pages: pages}},
		map[string]string{"ovagames": "https://mirror.example.com"})

	parser, _ := r.Get("ovagames")
	listing, err := parser.ListGames(context.Background(), 1, "")
	if err != nil {
		t.Fatalf("ListGames returned error: %v", err)
	}
	if len(listing.Games) != 1 {
		t.Fatalf("expected the mirror listing to be fetched, got %d games", len(listing.Games))
	}
	if listing.Games[0].URL != "https://mirror.example.com/some-game" {
		t.Fatalf("relative URL should resolve against the mirror: %q", listing.Games[0].URL)
	}
}

func TestSlugFromCategoryHref(t *testing.T) {
	cases := []struct {
		href    string
		require bool
		want    string
	}{
		{"https://example.com/category/action/", false, "action"},
		{"https://example.com/category/pc/action/", false, "action"},
		{"https://example.com/rpg/", false, "rpg"},
		{"https://example.com/rpg/", true, ""},
		{"https://example.com/category/", false, ""},
		{"https://example.com/", false, ""},
	}
	for _, tc := range cases {
		if got := slugFromCategoryHref(tc.href, tc.require); got != tc.want {
			t.Fatalf("slugFromCategoryHref(%q, %v) = %q, want %q", tc.href, tc.require, got, tc.want)
		}
	}
}

func TestCleanTitle(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"Elden Ring Free Download", "Elden Ring"},
		{"Hades - Download Game PC Iso New Free", "Hades"},
		{"Stray PC Game", "Stray"},
		{"Forza Horizon 5 Full Version", "Forza Horizon 5"},
		{"Silent Hill 2 Repack", "Silent Hill 2"},
		{"", "Unknown Title"},
	}
	for _, tc := range cases {
		if got := cleanTitle(tc.in); got != tc.want {
			t.Fatalf("cleanTitle(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestTitleFromURL(t *testing.T) {
	if got := titleFromURL("https://example.com/grand-theft-auto-v/"); got != "Grand Theft Auto V" {
		t.Fatalf("titleFromURL = %q", got)
	}
}
