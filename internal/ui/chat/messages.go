// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"
	"time"
)

// =============================================================================
// MESSAGE TYPES
// =============================================================================

// PollTickMsg drives the event drain while a generation or model load is in
// flight. Each tick empties the session controller's event queue; the tick
// reschedules itself only while the controller is busy.
type PollTickMsg struct {
	Time time.Time
}

// ErrorMsg is a blocking error displayed over the chat until dismissed.
type ErrorMsg struct {
	Title       string
	Message     string
	Suggestions []string
	Dismissible bool
}

// NewErrorMsg creates a basic error message.
func NewErrorMsg(title, message string) ErrorMsg {
	return ErrorMsg{
		Title:       title,
		Message:     message,
		Dismissible: true,
	}
}

// NewErrorMsgWithSuggestions creates an error message with recovery hints.
func NewErrorMsgWithSuggestions(title, message string, suggestions []string) ErrorMsg {
	return ErrorMsg{
		Title:       title,
		Message:     message,
		Suggestions: suggestions,
		Dismissible: true,
	}
}

// =============================================================================
// ERROR SUGGESTION DETECTION
// =============================================================================

// detectErrorSuggestions matches common failure text and returns recovery
// suggestions for the error overlay.
func detectErrorSuggestions(errMsg string) []string {
	lower := strings.ToLower(errMsg)

	// Missing weights
	if strings.Contains(lower, "no such file") ||
		strings.Contains(lower, "not cached") ||
		strings.Contains(lower, "not found") {
		return []string{
			"Download the model: /model <id>",
			"See what is available: /models",
			"Installed weights live under ~/.hearth/models",
		}
	}

	// Corrupted download
	if strings.Contains(lower, "checksum") || strings.Contains(lower, "sha256") {
		return []string{
			"The download looks corrupted - remove it and pull again: hearth models rm <id>",
			"Check free disk space before retrying",
		}
	}

	// Network failures during a pull
	if strings.Contains(lower, "connection") ||
		strings.Contains(lower, "timeout") ||
		strings.Contains(lower, "no such host") ||
		strings.Contains(lower, "tls") {
		return []string{
			"Check your network connection",
			"Retry the download: /model <id>",
			"Weights are fetched once and cached after that",
		}
	}

	// Sampler blowups (NaN logits, zero probability mass)
	if strings.Contains(lower, "sampling") ||
		strings.Contains(lower, "nan") ||
		strings.Contains(lower, "probability") {
		return []string{
			"Switch to a steadier preset: /preset careful",
			"High temperatures can flatten the distribution past recovery",
		}
	}

	// Prompt exceeds the context window
	if strings.Contains(lower, "context") || strings.Contains(lower, "too long") {
		return []string{
			"Start a fresh conversation: /new",
			"Shorten the prompt and try again",
		}
	}

	// History persistence trouble
	if strings.Contains(lower, "history") {
		return []string{
			"Check permissions on ~/.hearth/history.jsonl",
			"Replies still display; only the archive write failed",
		}
	}

	return nil
}
