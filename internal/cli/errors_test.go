// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Tests for the structured error types and the error-to-exit-code
// mapping. Scripts depend on the exit codes, so the mapping is pinned
// here case by case.
package cli

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

// =============================================================================
// EXIT CODE MAPPING
// =============================================================================

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil is success", nil, ExitSuccess},
		{"validation error", NewValidationError("seed", "abc", "must be an integer"), ExitUsageError},
		{"not found error", NewNotFoundError("model", "phi-9"), ExitNotFoundError},
		{"config error by message", errors.New("could not save config"), ExitConfigError},
		{"network error by message", errors.New("download failed: connection refused"), ExitNetworkError},
		{"timeout error by message", errors.New("operation timed out"), ExitTimeoutError},
		{"generic error", errors.New("boom"), ExitGeneralError},
		{"wrapped validation error", fmt.Errorf("while parsing: %w", NewValidationError("key", "", "empty")), ExitUsageError},
		// Type checks win over message matching: a missing config key is
		// a not-found, not a config error.
		{"not found beats config message", NewNotFoundError("config key", "no.such.key"), ExitNotFoundError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetExitCode(tt.err); got != tt.want {
				t.Errorf("GetExitCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

// =============================================================================
// ERROR TYPES
// =============================================================================

func TestValidationError_Message(t *testing.T) {
	err := NewValidationErrorWithExample("generation.seed", "abc", "must be an integer", "hearth config set generation.seed 42")

	msg := err.Error()
	if !strings.Contains(msg, "invalid generation.seed") {
		t.Errorf("message %q should name the field", msg)
	}
	if !strings.Contains(msg, "(got: abc)") {
		t.Errorf("message %q should include the rejected value", msg)
	}
	if !strings.Contains(msg, "Example: hearth config set generation.seed 42") {
		t.Errorf("message %q should include the example", msg)
	}
}

func TestValidationError_NoValueNoExample(t *testing.T) {
	msg := NewValidationError("preset", "", "unknown preset").Error()
	if strings.Contains(msg, "got:") || strings.Contains(msg, "Example:") {
		t.Errorf("message %q should omit empty value and example", msg)
	}
}

func TestNotFoundError_Message(t *testing.T) {
	msg := NewNotFoundError("model", "phi-9").Error()
	if msg != "model not found: phi-9" {
		t.Errorf("message = %q, want %q", msg, "model not found: phi-9")
	}
}

func TestCommandError_Unwrap(t *testing.T) {
	underlying := errors.New("disk full")
	err := NewCommandError("models", "pull", "could not write weights", underlying)

	if !errors.Is(err, underlying) {
		t.Error("CommandError should unwrap to the underlying error")
	}
	if !strings.Contains(err.Error(), "models pull failed") {
		t.Errorf("message %q should name command and action", err.Error())
	}

	bare := NewCommandError("history", "search", "index unavailable", nil)
	if !strings.Contains(bare.Error(), "history search failed: index unavailable") {
		t.Errorf("message without underlying error = %q", bare.Error())
	}
}

func TestErrMissingArgument(t *testing.T) {
	err := ErrMissingArgument("model id", "hearth models pull phi-2")

	if !IsValidationError(err) {
		t.Error("ErrMissingArgument should produce a ValidationError")
	}
	if GetExitCode(err) != ExitUsageError {
		t.Errorf("GetExitCode = %d, want %d", GetExitCode(err), ExitUsageError)
	}
	if !strings.Contains(err.Error(), "hearth models pull phi-2") {
		t.Errorf("message %q should include the usage example", err.Error())
	}
}

// =============================================================================
// PREDICATES AND WRAPPING
// =============================================================================

func TestErrorPredicates(t *testing.T) {
	validation := NewValidationError("field", "v", "bad")
	notFound := NewNotFoundError("model", "x")
	command := NewCommandError("ask", "generate", "failed", nil)
	generic := errors.New("plain")

	if !IsValidationError(validation) || IsValidationError(notFound) || IsValidationError(generic) {
		t.Error("IsValidationError misclassified")
	}
	if !IsNotFoundError(notFound) || IsNotFoundError(validation) || IsNotFoundError(generic) {
		t.Error("IsNotFoundError misclassified")
	}
	if !IsCommandError(command) || IsCommandError(validation) || IsCommandError(generic) {
		t.Error("IsCommandError misclassified")
	}
}

func TestWrapError(t *testing.T) {
	if WrapError(nil, "context") != nil {
		t.Error("WrapError(nil) should be nil")
	}

	base := errors.New("base failure")
	wrapped := WrapError(base, "loading model")
	if !errors.Is(wrapped, base) {
		t.Error("wrapped error should match the base via errors.Is")
	}
	if !strings.Contains(wrapped.Error(), "loading model: base failure") {
		t.Errorf("wrapped message = %q", wrapped.Error())
	}
}

// =============================================================================
// JSON ENVELOPE
// =============================================================================

func TestJSONResponse_Envelope(t *testing.T) {
	resp := NewJSONResponse("version", VersionData{Version: "0.1.0"})
	if !resp.Success {
		t.Error("success response should have Success=true")
	}
	if resp.Error != nil {
		t.Error("success response should have nil Error")
	}
	if resp.Timestamp == "" {
		t.Error("response should carry a timestamp")
	}

	s := resp.String()
	if !strings.Contains(s, `"success": true`) || !strings.Contains(s, `"command": "version"`) {
		t.Errorf("String() = %q, want envelope fields", s)
	}
}

func TestNewJSONErrorResponse(t *testing.T) {
	resp := NewJSONErrorResponse("ask", errors.New("model not loaded"))
	if resp.Success {
		t.Error("error response should have Success=false")
	}
	if resp.Error == nil || *resp.Error != "model not loaded" {
		t.Errorf("Error = %v, want %q", resp.Error, "model not loaded")
	}
	if !strings.Contains(resp.String(), `"success": false`) {
		t.Errorf("String() = %q, want success false", resp.String())
	}
}
