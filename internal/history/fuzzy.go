// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package history

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// =============================================================================
// FUZZY MATCHING
// =============================================================================
//
// A query matches an entry when its characters appear in order (possibly
// non-contiguous) within the entry's prompt; case-insensitive. The score
// rewards tight matches and punishes gaps:
//   - each matched character scores Base
//   - a match adjacent to the previous one adds Consecutive
//   - a match at position 0 adds PromptStart, at a word boundary WordStart
//   - an exact-case match adds CaseMatch
//   - every skipped character between matched ones costs Gap
//   - long prompts lose len/LengthPenaltyDiv
// Ties are broken by recency: the more recent entry wins.

// Weights tunes fuzzy scoring. Ranking properties (exact match maximal,
// tighter clusters above looser ones) hold for any positive settings.
type Weights struct {
	Base             int
	Consecutive      int
	PromptStart      int
	WordStart        int
	CaseMatch        int
	Gap              int
	LengthPenaltyDiv int
}

// DefaultWeights returns the scoring used across the UI.
func DefaultWeights() Weights {
	return Weights{
		Base:             1,
		Consecutive:      5,
		PromptStart:      10,
		WordStart:        7,
		CaseMatch:        2,
		Gap:              1,
		LengthPenaltyDiv: 4,
	}
}

// Match is one ranked search hit.
type Match struct {
	Entry Entry
	// Index is the entry's position in the store's order (most recent =
	// highest), so the UI can jump navigation there.
	Index int
	Score int
	// Positions holds the matched rune offsets in the prompt, for
	// highlighting.
	Positions []int
}

// Score fuzzy-matches query against target and reports whether every query
// character was found in order. Score is only meaningful when matched.
func (w Weights) Score(query, target string) (score int, positions []int, matched bool) {
	if query == "" {
		return 0, nil, true
	}

	queryRunes := []rune(strings.ToLower(query))
	targetRunes := []rune(strings.ToLower(target))
	if len(queryRunes) > len(targetRunes) {
		return 0, nil, false
	}

	queryOrig := []rune(query)
	targetOrig := []rune(target)

	queryPos := 0
	lastMatch := -1

	for targetPos := 0; targetPos < len(targetRunes) && queryPos < len(queryRunes); targetPos++ {
		if targetRunes[targetPos] != queryRunes[queryPos] {
			continue
		}

		matchScore := w.Base

		if lastMatch == targetPos-1 {
			matchScore += w.Consecutive
		} else if lastMatch >= 0 {
			matchScore -= w.Gap * (targetPos - lastMatch - 1)
		}

		if targetPos == 0 {
			matchScore += w.PromptStart
		}
		if isWordBoundary(targetRunes, targetPos) {
			matchScore += w.WordStart
		}
		if targetPos < len(targetOrig) && queryPos < len(queryOrig) &&
			targetOrig[targetPos] == queryOrig[queryPos] {
			matchScore += w.CaseMatch
		}

		score += matchScore
		positions = append(positions, targetPos)
		lastMatch = targetPos
		queryPos++
	}

	if queryPos != len(queryRunes) {
		return 0, nil, false
	}

	if w.LengthPenaltyDiv > 0 {
		score -= len(targetRunes) / w.LengthPenaltyDiv
	}
	return score, positions, true
}

// isWordBoundary reports whether pos starts a word: position 0, after a
// space, slash, dash, or underscore, or a camelCase lower-to-upper edge.
func isWordBoundary(runes []rune, pos int) bool {
	if pos == 0 {
		return true
	}
	if pos >= len(runes) {
		return false
	}

	prev := runes[pos-1]
	if prev == ' ' || prev == '/' || prev == '-' || prev == '_' {
		return true
	}
	if unicode.IsLower(prev) && unicode.IsUpper(runes[pos]) {
		return true
	}
	return false
}

// IsSubsequence reports whether pattern's characters appear in order within
// text, case-insensitively. The navigator's match rule.
func IsSubsequence(pattern, text string) bool {
	if pattern == "" {
		return true
	}
	p := []rune(strings.ToLower(pattern))
	i := 0
	for _, r := range strings.ToLower(text) {
		if r == p[i] {
			i++
			if i == len(p) {
				return true
			}
		}
	}
	return false
}

// =============================================================================
// SEARCH
// =============================================================================

// Search ranks history entries against the query, best first, ties broken
// by recency. An empty query returns the full history most recent first; a
// query matching nothing returns an empty result.
func (s *Store) Search(query string) []Match {
	return SearchEntries(query, s.Entries(), DefaultWeights())
}

// SearchEntries is Search over an explicit entry slice (ordered most recent
// last, as Entries returns) with custom weights.
func SearchEntries(query string, entries []Entry, w Weights) []Match {
	query = norm.NFC.String(query)

	// Walk most recent first so the stable sort leaves ties in recency
	// order.
	var matches []Match
	for i := len(entries) - 1; i >= 0; i-- {
		score, positions, ok := w.Score(query, entries[i].Prompt)
		if !ok {
			continue
		}
		matches = append(matches, Match{
			Entry:     entries[i],
			Index:     i,
			Score:     score,
			Positions: positions,
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	return matches
}
