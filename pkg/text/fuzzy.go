package text

import "strings"

// Relevance scores returned by Score, best first.
const (
	ScoreExact     = 3
	ScorePrefix    = 2
	ScoreSubstring = 1
	ScoreNone      = 0
)

// Matches reports whether query occurs in target once both are normalized.
// An empty query matches everything.
func Matches(query, target string) bool {
	q := Normalize(query)
	if q == "" {
		return true
	}
	return strings.Contains(Normalize(target), q)
}

// Score ranks how well query matches target: 3 exact, 2 prefix,
// 1 substring, 0 no match. An empty query scores 1.
func Score(query, target string) int {
	q := Normalize(query)
	if q == "" {
		return ScoreSubstring
	}
	t := Normalize(target)
	switch {
	case t == q:
		return ScoreExact
	case strings.HasPrefix(t, q):
		return ScorePrefix
	case strings.Contains(t, q):
		return ScoreSubstring
	default:
		return ScoreNone
	}
}
