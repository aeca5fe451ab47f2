// Package suggest offers "did you mean" hints for mistyped location, region
// and phase keys, and fuzzy filtering for location listings.
package suggest

import (
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"
)

// levenshtein calculates the edit distance between two strings
func levenshtein(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		cur[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}

// Keys returns up to three keys from valid closest to unknown, best first.
// Only keys within three edits, or half the length of unknown, are offered.
func Keys(unknown string, valid []string) []string {
	unknown = strings.ToLower(unknown)
	type scored struct {
		key   string
		score int
	}
	var candidates []scored
	maxDist := max(3, len(unknown)/2)
	for _, k := range valid {
		if d := levenshtein(unknown, strings.ToLower(k)); d <= maxDist {
			candidates = append(candidates, scored{k, d})
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score < candidates[j].score
	})

	var result []string
	for i := 0; i < len(candidates) && i < 3; i++ {
		result = append(result, candidates[i].key)
	}
	return result
}

// Hint formats a "did you mean" suffix, or "" when there is nothing close.
func Hint(unknown string, valid []string) string {
	keys := Keys(unknown, valid)
	if len(keys) == 0 {
		return ""
	}
	return " (did you mean " + strings.Join(keys, ", ") + "?)"
}

// Item is a filterable entry: a key and its display name.
type Item struct {
	Key  string
	Name string
}

// itemSource adapts []Item for the fuzzy library, matching on
// "key name" so either field can hit.
type itemSource []Item

func (s itemSource) String(i int) string { return s[i].Key + " " + s[i].Name }

func (s itemSource) Len() int { return len(s) }

// Filter returns the items matching query, best match first. An empty
// query returns items unchanged.
func Filter(query string, items []Item) []Item {
	if query == "" {
		return items
	}
	matches := fuzzy.FindFrom(query, itemSource(items))
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	out := make([]Item, len(matches))
	for i, m := range matches {
		out[i] = items[m.Index]
	}
	return out
}
