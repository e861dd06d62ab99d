// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package history

import (
	"math"
	"strings"
)

// =============================================================================
// PROMPT RECALL NAVIGATOR
// =============================================================================

// Navigator drives Up/Down prompt recall in the input line: the typed text
// acts as a filter pattern, Up walks to older prompts containing it as a
// subsequence, Down walks back towards the newest. Prompts identical to the
// one currently recalled are skipped so holding Up never shows the same
// text twice in a row.
type Navigator struct {
	store   *Store
	pattern string
	cursor  int
}

// NewNavigator creates a navigator over the store, positioned past the
// newest entry.
func NewNavigator(s *Store) *Navigator {
	return &Navigator{store: s, cursor: math.MaxInt}
}

// Reset re-arms the navigator with the text currently being edited. Called
// on every edit so recall always filters on what the user sees.
func (n *Navigator) Reset(pattern string) {
	n.pattern = pattern
	n.cursor = math.MaxInt
}

// Up recalls the next older prompt matching the pattern. Returns false at
// the oldest match.
func (n *Navigator) Up() (string, bool) {
	entries := n.store.Entries()
	if len(entries) == 0 {
		return "", false
	}

	cursor := n.cursor
	if cursor > len(entries) {
		cursor = len(entries)
	}

	for {
		if cursor > 0 {
			cursor--
		}
		if n.isMatch(entries, entries[cursor].Prompt) {
			n.cursor = cursor
			return entries[cursor].Prompt, true
		}
		if cursor == 0 {
			return "", false
		}
	}
}

// Down recalls the next newer prompt matching the pattern. Returns false
// once past the newest match; the caller then restores the edited text.
func (n *Navigator) Down() (string, bool) {
	entries := n.store.Entries()
	if len(entries) == 0 {
		return "", false
	}

	cursor := n.cursor
	if cursor > len(entries)-1 {
		cursor = len(entries) - 1
	}

	for {
		cursor++
		if cursor >= len(entries) {
			return "", false
		}
		if n.isMatch(entries, entries[cursor].Prompt) {
			n.cursor = cursor
			return entries[cursor].Prompt, true
		}
	}
}

// isMatch applies the subsequence filter, skipping the prompt currently
// recalled at the cursor.
func (n *Navigator) isMatch(entries []Entry, text string) bool {
	if n.cursor >= 0 && n.cursor < len(entries) &&
		strings.EqualFold(text, entries[n.cursor].Prompt) {
		return false
	}
	return IsSubsequence(n.pattern, text)
}
