package namematch

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Mode selects the matching strategy.
type Mode string

const (
	ModeExact        Mode = "exact"
	ModeClosestMatch Mode = "closest_match"
)

// ParseMode converts a configuration value into a Mode.
func ParseMode(value string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(value))) {
	case ModeExact:
		return ModeExact, nil
	case ModeClosestMatch, "":
		return ModeClosestMatch, nil
	default:
		return "", fmt.Errorf("unknown name matching mode %q", value)
	}
}

// Matcher compares series titles.
type Matcher struct {
	Mode Mode
}

// New returns a matcher for the given mode.
func New(mode Mode) Matcher {
	return Matcher{Mode: mode}
}

// Matches reports whether candidate names the same series as query.
func (m Matcher) Matches(query, candidate string) bool {
	return m.prepare(query).matches(candidate)
}

// MatchesAny reports whether any candidate matches query. The query is folded
// once and one caser serves every candidate.
func (m Matcher) MatchesAny(query string, candidates []string) bool {
	q := m.prepare(query)
	for _, candidate := range candidates {
		if q.matches(candidate) {
			return true
		}
	}
	return false
}

// preparedQuery holds a folded query and the caser reused for candidates.
// A caser resets before each String call but is not safe for concurrent use.
type preparedQuery struct {
	exact bool
	runes int
	upper string
	caser cases.Caser
}

func (m Matcher) prepare(query string) preparedQuery {
	caser := cases.Upper(language.Und)
	runes := utf8.RuneCountInString(query)
	return preparedQuery{
		exact: m.Mode == ModeExact || runes <= 3,
		runes: runes,
		upper: caser.String(query),
		caser: caser,
	}
}

func (q preparedQuery) matches(candidate string) bool {
	if q.runes == 0 {
		return false
	}
	upperCandidate := q.caser.String(candidate)
	if q.exact {
		return q.upper == upperCandidate
	}
	return Distance(q.upper, upperCandidate) <= Threshold(q.runes)
}

// Threshold returns the maximum accepted edit distance for a query of the
// given rune length.
func Threshold(queryLen int) int {
	switch {
	case queryLen <= 3:
		return 0
	case queryLen <= 6:
		return 1
	case queryLen <= 9:
		return 2
	default:
		return 3
	}
}

// Distance computes the Levenshtein edit distance between a and b over runes,
// keeping two rolling rows sized by a.
func Distance(a, b string) int {
	ra := []rune(a)
	rb := []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(ra)+1)
	curr := make([]int, len(ra)+1)
	for i := range prev {
		prev[i] = i
	}
	for j := 1; j <= len(rb); j++ {
		curr[0] = j
		for i := 1; i <= len(ra); i++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[i] = min(prev[i]+1, curr[i-1]+1, prev[i-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(ra)]
}
