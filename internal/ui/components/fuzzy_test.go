// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides UI components for the hearth TUI.
package components

import (
	"testing"
)

// =============================================================================
// FUZZY MATCH TESTS
// =============================================================================

func TestFuzzyMatchBasic(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		target  string
		matched bool
	}{
		{"exact match", "model", "model", true},
		{"prefix match", "mod", "model", true},
		{"subsequence match", "hlp", "help", true},
		{"scattered match", "mls", "models", true},
		{"no match", "xyz", "model", false},
		{"query longer than target", "models", "mod", false},
		{"case insensitive", "MODEL", "model", true},
		{"mixed case", "MoDeL", "model", true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, matched := FuzzyMatch(tc.query, tc.target)
			if matched != tc.matched {
				t.Errorf("FuzzyMatch(%q, %q) matched = %v, want %v", tc.query, tc.target, matched, tc.matched)
			}
		})
	}
}

func TestFuzzyMatchEmptyQuery(t *testing.T) {
	score, matched := FuzzyMatch("", "anything")
	if !matched {
		t.Error("empty query should match everything")
	}
	if score != 0 {
		t.Errorf("empty query score = %d, want 0", score)
	}
}

func TestFuzzyMatchConsecutiveBonus(t *testing.T) {
	// "mo" in "model" is consecutive at the start; "ml" is scattered
	consecutive, _ := FuzzyMatch("mo", "model")
	scattered, _ := FuzzyMatch("ml", "model")

	if consecutive <= scattered {
		t.Errorf("consecutive match score %d should exceed scattered score %d", consecutive, scattered)
	}
}

func TestFuzzyMatchStartBonus(t *testing.T) {
	// Match at start of string beats the same letters mid-string
	atStart, _ := FuzzyMatch("he", "help")
	midWord, _ := FuzzyMatch("he", "ache")

	if atStart <= midWord {
		t.Errorf("start match score %d should exceed mid-string score %d", atStart, midWord)
	}
}

func TestFuzzyMatchWordBoundaryBonus(t *testing.T) {
	// "c" right after a dash is a boundary match
	boundary, _ := FuzzyMatch("c", "top-careful")
	interior, _ := FuzzyMatch("c", "topcareful")

	if boundary <= interior {
		t.Errorf("boundary match score %d should exceed interior score %d", boundary, interior)
	}
}

func TestFuzzyMatchLengthPenalty(t *testing.T) {
	// Shorter targets win when the match quality is equal
	short, _ := FuzzyMatch("mod", "model")
	long, _ := FuzzyMatch("mod", "model-with-a-much-longer-name")

	if short <= long {
		t.Errorf("short target score %d should exceed long target score %d", short, long)
	}
}

// =============================================================================
// WORD BOUNDARY TESTS
// =============================================================================

func TestIsWordBoundary(t *testing.T) {
	tests := []struct {
		name  string
		input string
		pos   int
		want  bool
	}{
		{"start of string", "hello", 0, true},
		{"after space", "a b", 2, true},
		{"after slash", "a/b", 2, true},
		{"after dash", "a-b", 2, true},
		{"after underscore", "a_b", 2, true},
		{"camelCase boundary", "aB", 1, true},
		{"interior lowercase", "ab", 1, false},
		{"past end", "ab", 5, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := isWordBoundary([]rune(tc.input), tc.pos)
			if got != tc.want {
				t.Errorf("isWordBoundary(%q, %d) = %v, want %v", tc.input, tc.pos, got, tc.want)
			}
		})
	}
}

// =============================================================================
// FUZZY FILTER TESTS
// =============================================================================

func TestFuzzyFilter(t *testing.T) {
	targets := []string{"model", "modelfiles", "help", "history", "preset"}

	matches := FuzzyFilter("mod", targets)

	if len(matches) != 2 {
		t.Fatalf("FuzzyFilter(\"mod\") returned %d matches, want 2", len(matches))
	}

	// Sorted by score descending: "model" beats "modelfiles" on length penalty
	if matches[0].Target != "model" {
		t.Errorf("best match = %q, want %q", matches[0].Target, "model")
	}
	if matches[0].Score < matches[1].Score {
		t.Error("matches should be sorted by score descending")
	}
}

func TestFuzzyFilterEmptyQuery(t *testing.T) {
	targets := []string{"one", "two", "three"}
	matches := FuzzyFilter("", targets)
	if len(matches) != len(targets) {
		t.Errorf("empty query matched %d targets, want %d", len(matches), len(targets))
	}
}

func TestFuzzyFilterNoMatches(t *testing.T) {
	matches := FuzzyFilter("zzz", []string{"model", "help"})
	if len(matches) != 0 {
		t.Errorf("FuzzyFilter(\"zzz\") returned %d matches, want 0", len(matches))
	}
}

// =============================================================================
// HIGHLIGHT TESTS
// =============================================================================

func TestHighlightMatch(t *testing.T) {
	positions := HighlightMatch("mdl", "model")

	want := []int{0, 2, 4}
	if len(positions) != len(want) {
		t.Fatalf("HighlightMatch positions = %v, want %v", positions, want)
	}
	for i, pos := range want {
		if positions[i] != pos {
			t.Errorf("position %d = %d, want %d", i, positions[i], pos)
		}
	}
}

func TestHighlightMatchEmptyQuery(t *testing.T) {
	if positions := HighlightMatch("", "model"); positions != nil {
		t.Errorf("HighlightMatch with empty query = %v, want nil", positions)
	}
}

func TestHighlightMatchUnicode(t *testing.T) {
	// Positions are rune indices, not byte offsets
	positions := HighlightMatch("w", "héllo wörld")
	if len(positions) != 1 || positions[0] != 6 {
		t.Errorf("HighlightMatch rune position = %v, want [6]", positions)
	}
}

// =============================================================================
// BENCHMARKS
// =============================================================================

func BenchmarkFuzzyMatch(b *testing.B) {
	for i := 0; i < b.N; i++ {
		FuzzyMatch("mdl", "stablelm-2-zephyr-model")
	}
}

func BenchmarkFuzzyFilter(b *testing.B) {
	targets := []string{
		"stablelm-2-zephyr", "tinyllama-1.1b-chat", "phi-2",
		"qwen2-0.5b-instruct", "gemma-2b-it",
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		FuzzyFilter("lm", targets)
	}
}
