// Package fuzzy provides approximate string matching for reconciling
// model-generated labels against known catalogs. Model output is never
// trusted to reproduce a catalog entry exactly, so every label coming back
// from an AI call is matched here before use.
//
// Scores are integers in [0, 100], 100 meaning an exact match after
// normalization. The underlying metric is Levenshtein edit distance.
package fuzzy

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
)

// Match is a single scored candidate.
type Match struct {
	Text  string
	Index int // position in the original choices slice
	Score int
}

// Ratio returns the similarity of two strings in [0, 100]. Comparison is
// case-insensitive and ignores surrounding whitespace.
func Ratio(a, b string) int {
	a = normalize(a)
	b = normalize(b)
	if a == b {
		return 100
	}
	longest := len([]rune(a))
	if l := len([]rune(b)); l > longest {
		longest = l
	}
	if longest == 0 {
		return 100
	}
	dist := levenshtein.ComputeDistance(a, b)
	score := 100 - (100*dist+longest/2)/longest
	if score < 0 {
		return 0
	}
	return score
}

// TokenSortRatio splits both strings into whitespace-separated tokens, sorts
// them and compares the rejoined forms. This makes the score insensitive to
// word order, which models routinely shuffle.
func TokenSortRatio(a, b string) int {
	return Ratio(sortTokens(a), sortTokens(b))
}

// Extract scores every choice against the query and returns all matches
// ordered by descending score. Ordering is stable: among equal scores the
// original choice order is preserved.
func Extract(query string, choices []string) []Match {
	matches := make([]Match, len(choices))
	for i, choice := range choices {
		matches[i] = Match{Text: choice, Index: i, Score: TokenSortRatio(query, choice)}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	return matches
}

// ExtractBest returns the highest-scoring choice for the query. The second
// return value is false when choices is empty.
func ExtractBest(query string, choices []string) (Match, bool) {
	if len(choices) == 0 {
		return Match{}, false
	}
	return Extract(query, choices)[0], true
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func sortTokens(s string) string {
	tokens := strings.Fields(normalize(s))
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}
