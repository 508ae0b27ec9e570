// Package dedupe turns the concatenated raw search output of every site
// parser into a single ranked, de-duplicated result list. Listings are
// clustered by normalized title, scored against the query, and each cluster
// collapses to its best-scoring member.
package dedupe

import (
	"regexp"
	"sort"
	"strings"

	"gamestore/internal/model"
)

// MaxResults bounds the final representative list.
const MaxResults = 50

var (
	articlesRe = regexp.MustCompile(`\b(the|a|an)\b`)
	// The original stripped only ASCII '-'; unicode dashes are included here
	// so that "Title – GOTY Edition" and "Title" normalize to the same form.
	punctRe    = regexp.MustCompile(`[:'",.&!?()\-` + "–—" + `]`)
	editionsRe = regexp.MustCompile(`\b(enhanced|deluxe|complete|ultimate|goty|game of the year|edition|remastered|definitive|gold|repack)\b`)
	groupsRe   = regexp.MustCompile(`\b(multi\d*|elamigos|gog|rune)\b`)
)

// NormalizeTitle reduces a listing title to its comparison form: lowercased,
// articles and punctuation removed, edition markers and release-group tags
// stripped, whitespace collapsed. The function is idempotent.
func NormalizeTitle(title string) string {
	norm := strings.ToLower(title)
	norm = articlesRe.ReplaceAllString(norm, "")
	norm = punctRe.ReplaceAllString(norm, "")
	norm = strings.Join(strings.Fields(norm), " ")
	norm = editionsRe.ReplaceAllString(norm, "")
	norm = groupsRe.ReplaceAllString(norm, "")
	return strings.Join(strings.Fields(norm), " ")
}

// Score rates how well a listing title matches the query. Exact match scores
// 100; substring containment scores 50 + 5x the query length, plus 20 when
// the title starts with the query. A matching listing with an image gets 5
// more. Non-matching titles score 0 regardless of image.
func Score(title, query string, hasImage bool) int {
	tl := strings.ToLower(title)
	ql := strings.ToLower(query)

	score := 0
	switch {
	case tl == ql:
		score = 100
	case strings.Contains(tl, ql):
		score = 50 + 5*len(query)
		if strings.HasPrefix(tl, ql) {
			score += 20
		}
	}
	if score > 0 && hasImage {
		score += 5
	}
	return score
}

type scored struct {
	listing model.GameListing
	score   int
}

type group struct {
	norm    string
	best    int
	members []scored
}

// Rank implements the full cross-site pipeline: normalize, group by
// normalized title (first-appearance order), score, drop zero-score groups,
// order groups by best score then normalized title, collapse each group to
// its top member, and truncate to max (MaxResults when max <= 0). Output is
// deterministic for a given raw-result multiset and query.
func Rank(raw []model.GameListing, query string, max int) []model.GameListing {
	if max <= 0 {
		max = MaxResults
	}

	index := make(map[string]*group)
	var order []*group
	for _, l := range raw {
		if l.Title == "" {
			continue
		}
		norm := NormalizeTitle(l.Title)
		if norm == "" {
			continue
		}
		g, ok := index[norm]
		if !ok {
			g = &group{norm: norm}
			index[norm] = g
			order = append(order, g)
		}
		s := Score(l.Title, query, l.Image != "")
		g.members = append(g.members, scored{listing: l, score: s})
		if s > g.best {
			g.best = s
		}
	}

	surviving := order[:0]
	for _, g := range order {
		if g.best > 0 {
			surviving = append(surviving, g)
		}
	}

	sort.SliceStable(surviving, func(i, j int) bool {
		if surviving[i].best != surviving[j].best {
			return surviving[i].best > surviving[j].best
		}
		return surviving[i].norm < surviving[j].norm
	})

	var final []scored
	for _, g := range surviving {
		sort.SliceStable(g.members, func(i, j int) bool {
			if g.members[i].score != g.members[j].score {
				return g.members[i].score > g.members[j].score
			}
			return strings.ToLower(g.members[i].listing.Title) < strings.ToLower(g.members[j].listing.Title)
		})
		final = append(final, g.members[0])
		if len(final) >= max {
			break
		}
	}

	sort.SliceStable(final, func(i, j int) bool {
		if final[i].score != final[j].score {
			return final[i].score > final[j].score
		}
		return strings.ToLower(final[i].listing.Title) < strings.ToLower(final[j].listing.Title)
	})

	out := make([]model.GameListing, 0, len(final))
	for _, s := range final {
		out = append(out, s.listing)
	}
	return out
}
