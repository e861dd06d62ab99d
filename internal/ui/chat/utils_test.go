// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"
	"testing"
	"time"
)

// =============================================================================
// FORMATTING UTILITIES TESTS
// =============================================================================

func TestFormatTimestamp(t *testing.T) {
	now := time.Now()

	// Test today - should show just time
	result := formatTimestamp(now)
	if !strings.Contains(result, ":") {
		t.Error("formatTimestamp(today) should contain time with colon")
	}
	if strings.Contains(result, "Mon") || strings.Contains(result, "Jan") {
		t.Error("formatTimestamp(today) should not contain day or month")
	}

	// Test this week - should show day and time
	yesterday := now.AddDate(0, 0, -1)
	result = formatTimestamp(yesterday)
	// Should have either Mon/Tue/Wed/Thu/Fri/Sat/Sun and time
	weekdays := []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}
	hasWeekday := false
	for _, day := range weekdays {
		if strings.Contains(result, day) {
			hasWeekday = true
			break
		}
	}
	if !hasWeekday {
		t.Logf("formatTimestamp(yesterday) = %q", result)
		// Note: If yesterday is same day, it will be "today" format
	}

	// Test older - should show date and time
	lastMonth := now.AddDate(0, -1, 0)
	result = formatTimestamp(lastMonth)
	months := []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}
	hasMonth := false
	for _, month := range months {
		if strings.Contains(result, month) {
			hasMonth = true
			break
		}
	}
	if !hasMonth {
		t.Errorf("formatTimestamp(old) = %q, should contain month", result)
	}
}

func TestFormatInt(t *testing.T) {
	tests := []struct {
		input int
		want  string
	}{
		{0, "0"},
		{1, "1"},
		{123, "123"},
		{-5, "-5"},
		{-9223372036854775808, "-9223372036854775808"}, // MinInt64
	}

	for _, tc := range tests {
		got := formatInt(tc.input)
		if got != tc.want {
			t.Errorf("formatInt(%d) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestFormatNumberWithCommas(t *testing.T) {
	tests := []struct {
		input int
		want  string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{1234567, "1,234,567"},
		{-1234, "-1,234"},
		{-9223372036854775808, "-9,223,372,036,854,775,808"}, // MinInt64
	}

	for _, tc := range tests {
		got := formatNumberWithCommas(tc.input)
		if got != tc.want {
			t.Errorf("formatNumberWithCommas(%d) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

// =============================================================================
// TEXT UTILITIES TESTS
// =============================================================================

func TestWrapText(t *testing.T) {
	text := "This is a test of text wrapping functionality"
	maxWidth := 10

	result := wrapText(text, maxWidth)
	lines := strings.Split(result, "\n")

	// Verify each line is within max width
	for i, line := range lines {
		runeCount := len([]rune(line))
		if runeCount > maxWidth {
			t.Errorf("Line %d exceeds max width: %d > %d", i, runeCount, maxWidth)
		}
	}
}

func TestWrapTextPreservesNewlines(t *testing.T) {
	text := "Line 1\nLine 2\nLine 3"
	result := wrapText(text, 100)

	lines := strings.Split(result, "\n")
	if len(lines) < 3 {
		t.Errorf("wrapText should preserve original newlines, got %d lines", len(lines))
	}
}

func TestWrapTextUnicode(t *testing.T) {
	text := "Hello 世界 Unicode test 你好"
	maxWidth := 10

	result := wrapText(text, maxWidth)
	lines := strings.Split(result, "\n")

	// Should handle Unicode correctly (count runes, not bytes)
	for i, line := range lines {
		runeCount := len([]rune(line))
		if runeCount > maxWidth {
			t.Errorf("Line %d (Unicode) exceeds max width: %d > %d", i, runeCount, maxWidth)
		}
	}
}

func TestWrapTextEmptyString(t *testing.T) {
	result := wrapText("", 10)
	if result != "" {
		t.Error("wrapText of empty string should return empty string")
	}
}

func TestTruncateRunes(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		maxLen int
		want   string
	}{
		{"short stays", "hello", 10, "hello"},
		{"exact fit", "hello", 5, "hello"},
		{"truncates with ellipsis", "hello world", 8, "hello..."},
		{"tiny max plain cut", "hello", 3, "hel"},
		{"unicode counts runes", "世界世界世界", 5, "世界..."},
		{"empty", "", 5, ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := truncateRunes(tc.input, tc.maxLen)
			if got != tc.want {
				t.Errorf("truncateRunes(%q, %d) = %q, want %q", tc.input, tc.maxLen, got, tc.want)
			}
			if runeCount := len([]rune(got)); runeCount > tc.maxLen {
				t.Errorf("truncateRunes(%q, %d) has %d runes", tc.input, tc.maxLen, runeCount)
			}
		})
	}
}

func TestTruncateRunesFlattensNewlines(t *testing.T) {
	result := truncateRunes("first line\nsecond line", 50)
	if strings.Contains(result, "\n") {
		t.Errorf("truncateRunes should flatten newlines, got %q", result)
	}
	if !strings.Contains(result, "first line second line") {
		t.Errorf("truncateRunes should join lines with spaces, got %q", result)
	}
}

// =============================================================================
// EDGE CASES AND ERROR HANDLING
// =============================================================================

func TestFormatIntMinInt64(t *testing.T) {
	minInt64 := -9223372036854775808
	result := formatInt(minInt64)
	expected := "-9223372036854775808"

	if result != expected {
		t.Errorf("formatInt(MinInt64) = %q, want %q", result, expected)
	}
}

func TestFormatNumberWithCommasMinInt64(t *testing.T) {
	minInt64 := -9223372036854775808
	result := formatNumberWithCommas(minInt64)
	expected := "-9,223,372,036,854,775,808"

	if result != expected {
		t.Errorf("formatNumberWithCommas(MinInt64) = %q, want %q", result, expected)
	}
}

func TestWrapTextNoInjection(t *testing.T) {
	// Test that control characters are handled safely
	malicious := "Normal text\x1b[31mRed text\x1b[0m"
	result := wrapText(malicious, 50)

	// Should preserve the control sequences (not interpret them during wrap)
	if !strings.Contains(result, malicious) {
		t.Error("wrapText should preserve control sequences")
	}
}
