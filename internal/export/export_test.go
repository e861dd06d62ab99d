// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jeranaias/hearth-tui/internal/model"
)

// testConversation builds a small two-turn transcript with generation stats
// on the reply.
func testConversation() *model.Conversation {
	conv := model.NewConversationWithModel("phi-2")
	conv.AddUserMessage("why is the sky blue?")

	reply := conv.AddAssistantMessage()
	reply.AppendFragment("Rayleigh scattering: short wavelengths scatter more.")
	reply.FinalizeStream(&model.Statistics{
		TTFT:             120 * time.Millisecond,
		TotalDuration:    2 * time.Second,
		CompletionTokens: 64,
		TokensPerSecond:  32.0,
	})
	return conv
}

// =============================================================================
// MARKDOWN EXPORTER TESTS
// =============================================================================

func TestMarkdownExporter_Export(t *testing.T) {
	conv := testConversation()

	out, err := NewMarkdownExporter(nil).Export(conv)
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	got := string(out)

	for _, want := range []string{
		"title: why is the sky blue?",
		"model: phi-2",
		"generator: hearth",
		"## Session Information",
		"### You",
		"### Hearth",
		"Rayleigh scattering",
		"<sub>Stats: Tokens: 64 | Duration: 2.00s | TTFT: 120ms | Speed: 32.0 tok/s</sub>",
		"*Exported from hearth on",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("markdown export missing %q\n---\n%s", want, got)
		}
	}
}

func TestMarkdownExporter_NoTimestamps(t *testing.T) {
	opts := DefaultOptions()
	opts.IncludeTimestamps = false

	out, err := NewMarkdownExporter(opts).Export(testConversation())
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if strings.Contains(string(out), "### You <sub>") {
		t.Error("timestamps rendered despite IncludeTimestamps=false")
	}
}

func TestMarkdownExporter_SystemMessages(t *testing.T) {
	conv := testConversation()
	conv.AddSystemMessage("Switched to model phi-2")

	out, err := NewMarkdownExporter(nil).Export(conv)
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if strings.Contains(string(out), "Switched to model") {
		t.Error("system message exported by default")
	}

	opts := DefaultOptions()
	opts.IncludeSystem = true
	out, err = NewMarkdownExporter(opts).Export(conv)
	if err != nil {
		t.Fatalf("Export with IncludeSystem failed: %v", err)
	}
	if !strings.Contains(string(out), "Switched to model") {
		t.Error("system message missing despite IncludeSystem=true")
	}
}

func TestMarkdownExporter_InvalidInput(t *testing.T) {
	e := NewMarkdownExporter(nil)

	if _, err := e.Export(nil); err == nil {
		t.Error("expected error for nil conversation")
	}
	if _, err := e.Export(model.NewConversation()); err == nil {
		t.Error("expected error for empty conversation")
	}

	// Only system messages and IncludeSystem off leaves nothing to export.
	conv := model.NewConversation()
	conv.AddSystemMessage("noise")
	if _, err := e.Export(conv); err == nil {
		t.Error("expected error when filtering leaves no messages")
	}
}

// =============================================================================
// JSON EXPORTER TESTS
// =============================================================================

func TestJSONExporter_RoundTrip(t *testing.T) {
	conv := testConversation()

	out, err := NewJSONExporter(nil).Export(conv)
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	var decoded model.Conversation
	if err := json.Unmarshal(out, &decoded); err != nil {
		t.Fatalf("exported JSON does not parse: %v", err)
	}
	if decoded.Model != "phi-2" {
		t.Errorf("Model = %q, want phi-2", decoded.Model)
	}
	if len(decoded.Messages) != 2 {
		t.Fatalf("Messages = %d, want 2", len(decoded.Messages))
	}
	if decoded.Messages[1].TokenCount != 64 {
		t.Errorf("reply TokenCount = %d, want 64", decoded.Messages[1].TokenCount)
	}
}

// =============================================================================
// FILE OUTPUT TESTS
// =============================================================================

func TestExportToFile(t *testing.T) {
	opts := DefaultOptions()
	opts.OutputDir = t.TempDir()

	path, err := ExportMarkdown(testConversation(), opts)
	if err != nil {
		t.Fatalf("ExportMarkdown failed: %v", err)
	}

	base := filepath.Base(path)
	if !strings.HasPrefix(base, "chat_") || !strings.HasSuffix(base, ".md") {
		t.Errorf("unexpected export filename: %s", base)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading export: %v", err)
	}
	if len(data) == 0 {
		t.Error("export file is empty")
	}
}

func TestByFormat(t *testing.T) {
	for _, name := range []string{"md", "markdown", "json"} {
		if _, err := ByFormat(name, nil); err != nil {
			t.Errorf("ByFormat(%q) failed: %v", name, err)
		}
	}
	if _, err := ByFormat("pdf", nil); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"why is the sky blue?", "why_is_the_sky_blue-"},
		{"a/b\\c:d", "a-b-c-d"},
		{"", "chat"},
		{"tabs\tand\nnewlines", "tabs_and_newlines"},
	}

	for _, tt := range tests {
		if got := sanitizeFilename(tt.input); got != tt.expected {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}
