// Package deduplication merges extracted articles across feeds, removes
// duplicate links and selects the articles that go on to summarization.
package deduplication

import (
	"sort"

	"morningbrief/types"
)

// Selection is the result of Select
type Selection struct {
	// Articles is the final ordered selection
	Articles []types.Article
	// Rejected holds articles whose extraction failed
	Rejected []types.Article
	// Duplicates is the number of candidates dropped as duplicates
	Duplicates int
	// Truncated is the number of unique candidates cut by the limit
	Truncated int
}

// Select drops failed extractions, orders the rest, removes duplicate links
// and truncates to max. It does not modify its input. Same input, same output.
func Select(articles []types.Article, max int) Selection {
	var sel Selection

	candidates := make([]types.Article, 0, len(articles))
	for _, a := range articles {
		if !a.Extraction.OK() {
			sel.Rejected = append(sel.Rejected, a)
			continue
		}
		candidates = append(candidates, a)
	}

	unique, dropped := Dedupe(Order(candidates))
	sel.Duplicates = dropped

	if max < 0 {
		max = 0
	}
	if len(unique) > max {
		sel.Truncated = len(unique) - max
		unique = unique[:max]
	}
	sel.Articles = unique
	return sel
}

// Order returns a copy sorted by declared source order, then published time
// descending with unknown times last, then discovery position within the feed.
func Order(articles []types.Article) []types.Article {
	out := append([]types.Article(nil), articles...)
	sort.SliceStable(out, func(i, j int) bool {
		return less(out[i], out[j])
	})
	return out
}

func less(a, b types.Article) bool {
	if a.SourceIndex != b.SourceIndex {
		return a.SourceIndex < b.SourceIndex
	}
	az, bz := a.PublishedAt.IsZero(), b.PublishedAt.IsZero()
	if az != bz {
		return bz
	}
	if !a.PublishedAt.Equal(b.PublishedAt) {
		return a.PublishedAt.After(b.PublishedAt)
	}
	return a.Position < b.Position
}

// Dedupe keeps the first article for each normalized link and returns the
// kept articles plus the number dropped. Kept articles get CanonicalURL set.
func Dedupe(articles []types.Article) ([]types.Article, int) {
	seen := make(map[string]struct{}, len(articles))
	out := make([]types.Article, 0, len(articles))
	dropped := 0

	for _, a := range articles {
		key := NormalizeURL(a.URL)
		if key != "" {
			if _, dup := seen[key]; dup {
				dropped++
				continue
			}
			seen[key] = struct{}{}
		}
		a.CanonicalURL = key
		out = append(out, a)
	}
	return out, dropped
}
