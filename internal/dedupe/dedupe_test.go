package dedupe

import (
	"fmt"
	"testing"

	"gamestore/internal/model"
)

func TestNormalizeTitle(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"The Witcher 3: Wild Hunt", "witcher 3 wild hunt"},
		{"The Witcher 3 – Wild Hunt GOTY Edition", "witcher 3 wild hunt"},
		{"Witcher 3 Wild Hunt (GOG)", "witcher 3 wild hunt"},
		{"DOOM Eternal Deluxe Edition MULTI13", "doom eternal"},
		{"An Ordinary Game", "ordinary game"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := NormalizeTitle(tc.in); got != tc.want {
			t.Fatalf("NormalizeTitle(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeTitleIdempotent(t *testing.T) {
	titles := []string{
		"The Witcher 3: Wild Hunt – GOTY Edition",
		"Grand Theft Auto V (MULTI11) ElAmigos",
		"Hades II Deluxe",
	}
	for _, title := range titles {
		once := NormalizeTitle(title)
		if twice := NormalizeTitle(once); twice != once {
			t.Fatalf("NormalizeTitle not idempotent for %q: %q vs %q", title, once, twice)
		}
	}
}

func TestScore(t *testing.T) {
	cases := []struct {
		title, query string
		image        bool
		want         int
	}{
		{"Mario", "mario", false, 100},
		{"Mario", "Mario", true, 105},
		{"Super Mario Odyssey", "mario", false, 75},  // contains: 50 + 5*5
		{"Mario Kart 8", "mario", false, 95},         // contains + prefix bonus
		{"Elden Ring", "mario", true, 0},             // image bonus only on a match
		{"Cyberpunk 2077", "cyberpunk", false, 115},  // 50 + 45 + 20
	}
	for _, tc := range cases {
		if got := Score(tc.title, tc.query, tc.image); got != tc.want {
			t.Fatalf("Score(%q, %q, %v) = %d, want %d", tc.title, tc.query, tc.image, got, tc.want)
		}
	}
}

func TestRankCollapsesDuplicates(t *testing.T) {
	raw := []model.GameListing{
		{Title: "The Witcher 3: Wild Hunt", URL: "https://a/witcher", Site: "ovagames"},
		{Title: "The Witcher 3 – Wild Hunt GOTY Edition", URL: "https://b/witcher", Image: "https://b/w.png", Site: "gamepciso"},
		{Title: "Witcher Card Game", URL: "https://a/gwent", Site: "ovagames"},
	}

	out := Rank(raw, "witcher", 0)
	if len(out) != 2 {
		t.Fatalf("expected 2 groups, got %d: %+v", len(out), out)
	}
	// Both Witcher 3 variants normalize to the same group; the one with an
	// image scores higher and represents it. The card game ranks first on
	// its prefix bonus.
	if out[0].URL != "https://a/gwent" {
		t.Fatalf("expected the prefix match first, got %q", out[0].URL)
	}
	if out[1].URL != "https://b/witcher" {
		t.Fatalf("expected the image-bearing duplicate to represent its group, got %q", out[1].URL)
	}
}

func TestRankDropsNonMatches(t *testing.T) {
	raw := []model.GameListing{
		{Title: "Elden Ring", URL: "https://a/er", Image: "https://a/er.png", Site: "ovagames"},
		{Title: "Stardew Valley", URL: "https://a/sv", Site: "ovagames"},
	}

	out := Rank(raw, "stardew", 0)
	if len(out) != 1 || out[0].URL != "https://a/sv" {
		t.Fatalf("expected only the matching title, got %+v", out)
	}
}

func TestRankSkipsEmptyTitles(t *testing.T) {
	raw := []model.GameListing{
		{Title: "", URL: "https://a/none", Site: "ovagames"},
		{Title: "---", URL: "https://a/punct", Site: "ovagames"},
		{Title: "Hades", URL: "https://a/hades", Site: "ovagames"},
	}

	out := Rank(raw, "hades", 0)
	if len(out) != 1 || out[0].URL != "https://a/hades" {
		t.Fatalf("expected empty and all-punctuation titles dropped, got %+v", out)
	}
}

func TestRankTruncates(t *testing.T) {
	var raw []model.GameListing
	for i := 0; i < 80; i++ {
		raw = append(raw, model.GameListing{
			Title: fmt.Sprintf("Racing Game %02d", i),
			URL:   fmt.Sprintf("https://a/racing-%02d", i),
			Site:  "ovagames",
		})
	}

	out := Rank(raw, "racing", 0)
	if len(out) != MaxResults {
		t.Fatalf("expected truncation to %d, got %d", MaxResults, len(out))
	}
	out = Rank(raw, "racing", 10)
	if len(out) != 10 {
		t.Fatalf("expected truncation to 10, got %d", len(out))
	}
}
