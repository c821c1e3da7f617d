// Package namematch decides whether a remote series title names the same
// series as a local query.
//
// Two modes exist. Exact compares case-folded titles for equality. Closest
// match accepts a bounded Levenshtein distance whose threshold grows with the
// query length: short queries (acronyms, single kanji) must match exactly
// because a single edit changes their meaning, while long titles tolerate
// typos and transliteration drift.
//
// The threshold depends on the query only, so Matches(a, b) and Matches(b, a)
// may disagree.
package namematch
