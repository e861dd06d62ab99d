// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"os"
	"runtime"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/hearth-tui/internal/model"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

// asModel unwraps the tea.Model returned by a command handler. Handlers in
// the registry return the *Model they received; other paths return a value.
func asModel(t *testing.T, tm tea.Model) Model {
	t.Helper()
	switch v := tm.(type) {
	case Model:
		return v
	case *Model:
		return *v
	}
	t.Fatalf("Unexpected model type %T", tm)
	return Model{}
}

// lastSystemMessage returns the newest system message in the transcript.
func lastSystemMessage(t *testing.T, m Model) string {
	t.Helper()
	msgs := m.conversation.Messages
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == model.RoleSystem {
			return msgs[i].DisplayContent()
		}
	}
	t.Fatal("Expected a system message in the transcript")
	return ""
}

// runCommand dispatches a slash command and returns the updated model.
func runCommand(t *testing.T, m Model, input string) (Model, tea.Cmd) {
	t.Helper()
	tm, cmd := m.handleCommand(input)
	return asModel(t, tm), cmd
}

// =============================================================================
// REGISTRY DISPATCH
// =============================================================================

func TestHandleCommandUnknown(t *testing.T) {
	m := newTestChat(t, helloWorldAdapter(), nil)

	nm, _ := runCommand(t, m, "/frobnicate")

	msg := lastSystemMessage(t, nm)
	if !strings.Contains(msg, "Unknown command '/frobnicate'") {
		t.Errorf("Expected unknown command error, got %q", msg)
	}
	if !strings.Contains(msg, "/help") {
		t.Errorf("Expected a /help hint, got %q", msg)
	}
}

func TestHandleCommandAliases(t *testing.T) {
	tests := []struct {
		input string
		want  string // substring of the resulting system message
	}{
		{"/h", "Commands:"},
		{"/hist", "History is disabled"},
		{"/ver", "hearth: 0.1.0"},
		{"/cfg", "Configuration:"},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			m := newTestChat(t, helloWorldAdapter(), nil)
			nm, _ := runCommand(t, m, tc.input)

			msg := lastSystemMessage(t, nm)
			if !strings.Contains(msg, tc.want) {
				t.Errorf("%s: expected %q in output, got %q", tc.input, tc.want, msg)
			}
		})
	}
}

func TestHandleCommandCaseInsensitive(t *testing.T) {
	m := newTestChat(t, helloWorldAdapter(), nil)

	nm, _ := runCommand(t, m, "/HELP")

	msg := lastSystemMessage(t, nm)
	if !strings.Contains(msg, "Commands:") {
		t.Errorf("Expected /HELP to dispatch to help, got %q", msg)
	}
}

// =============================================================================
// HELP AND META COMMANDS
// =============================================================================

func TestHelpCommand(t *testing.T) {
	m := newTestChat(t, helloWorldAdapter(), nil)

	nm, _ := runCommand(t, m, "/help")

	msg := lastSystemMessage(t, nm)
	for _, want := range []string{"/model", "/preset", "/history", "/search", "Keys:", "Ctrl+R"} {
		if !strings.Contains(msg, want) {
			t.Errorf("Help output missing %q", want)
		}
	}
}

func TestQuitCommand(t *testing.T) {
	m := newTestChat(t, helloWorldAdapter(), nil)

	_, cmd := runCommand(t, m, "/quit")
	if cmd == nil {
		t.Fatal("Expected /quit to return a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("Expected /quit to produce tea.QuitMsg")
	}
}

// =============================================================================
// CONVERSATION COMMANDS
// =============================================================================

func TestClearCommand(t *testing.T) {
	m := newTestChat(t, helloWorldAdapter(), nil)
	m.conversation.AddUserMessage("hello")
	m.conversation.AddSystemMessage("note")

	nm, _ := runCommand(t, m, "/clear")

	if !nm.conversation.IsEmpty() {
		t.Errorf("Expected an empty conversation after /clear, got %d messages",
			nm.conversation.MessageCount())
	}
	if nm.statusMsg != "Conversation cleared" {
		t.Errorf("Expected status 'Conversation cleared', got %q", nm.statusMsg)
	}
}

func TestNewCommand(t *testing.T) {
	m := newTestChat(t, helloWorldAdapter(), nil)
	loadTestModel(t, &m)
	m.conversation.AddUserMessage("hello")

	nm, _ := runCommand(t, m, "/new")

	if !nm.conversation.IsEmpty() {
		t.Error("Expected a fresh conversation after /new")
	}
	if nm.conversation.Model != "stub-model" {
		t.Errorf("New conversation should keep the loaded model, got %q", nm.conversation.Model)
	}
	if nm.statusMsg != "New conversation" {
		t.Errorf("Expected status 'New conversation', got %q", nm.statusMsg)
	}
}

func TestExportCommand(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)

	m := newTestChat(t, helloWorldAdapter(), nil)
	m.conversation.AddUserMessage("hello")
	reply := m.conversation.AddAssistantMessage()
	reply.AppendFragment("world")
	reply.FinalizeStream(nil)

	nm, _ := runCommand(t, m, "/export")

	msg := lastSystemMessage(t, nm)
	if !strings.HasPrefix(msg, "Exported to ") {
		t.Fatalf("Expected an export confirmation, got %q", msg)
	}
	path := strings.TrimPrefix(msg, "Exported to ")
	if !strings.HasSuffix(path, ".md") {
		t.Errorf("Expected a markdown export by default, got %s", path)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("Export file missing: %v", err)
	}
}

func TestExportCommandBadFormat(t *testing.T) {
	m := newTestChat(t, helloWorldAdapter(), nil)
	m.conversation.AddUserMessage("hello")

	nm, _ := runCommand(t, m, "/export pdf")

	if !strings.Contains(lastSystemMessage(t, nm), "Usage: /export") {
		t.Error("Expected the usage message for an unknown format")
	}
}

func TestExportCommandEmpty(t *testing.T) {
	m := newTestChat(t, helloWorldAdapter(), nil)

	nm, _ := runCommand(t, m, "/export")

	if nm.statusMsg != "Nothing to export yet" {
		t.Errorf("Expected 'Nothing to export yet', got %q", nm.statusMsg)
	}
}

// =============================================================================
// MODEL COMMANDS
// =============================================================================

func TestModelsCommand(t *testing.T) {
	m := newTestChat(t, helloWorldAdapter(), nil)

	nm, _ := runCommand(t, m, "/models")

	msg := lastSystemMessage(t, nm)
	if !strings.Contains(msg, "stablelm-2-zephyr") {
		t.Errorf("Expected the registry listing to include stablelm-2-zephyr, got %q", msg)
	}
	if !strings.Contains(msg, "'+' = downloaded, '*' = loaded") {
		t.Errorf("Expected the legend footer, got %q", msg)
	}
}

func TestModelsCommandMarksLoaded(t *testing.T) {
	m := newTestChat(t, helloWorldAdapter(), nil)
	if err := m.controller.LoadModel("phi-2"); err != nil {
		t.Fatalf("LoadModel failed: %v", err)
	}
	drainChat(t, &m, 2*time.Second)

	nm, _ := runCommand(t, m, "/models")

	msg := lastSystemMessage(t, nm)
	if !strings.Contains(msg, "* phi-2") {
		t.Errorf("Expected phi-2 to carry the loaded marker, got %q", msg)
	}
}

func TestModelCommandUnknown(t *testing.T) {
	m := newTestChat(t, helloWorldAdapter(), nil)

	nm, _ := runCommand(t, m, "/model not-a-model")

	msg := lastSystemMessage(t, nm)
	if !strings.Contains(msg, "Unknown model 'not-a-model'") {
		t.Errorf("Expected unknown model error, got %q", msg)
	}
	if !strings.Contains(msg, "/models") {
		t.Errorf("Expected a /models hint, got %q", msg)
	}
}

func TestModelCommandAlreadyLoaded(t *testing.T) {
	m := newTestChat(t, helloWorldAdapter(), nil)
	if err := m.controller.LoadModel("phi-2"); err != nil {
		t.Fatalf("LoadModel failed: %v", err)
	}
	drainChat(t, &m, 2*time.Second)

	nm, _ := runCommand(t, m, "/model phi-2")

	if nm.statusMsg != "Model phi-2 is already loaded" {
		t.Errorf("Expected already-loaded status, got %q", nm.statusMsg)
	}
}

// =============================================================================
// PRESET COMMANDS
// =============================================================================

func TestPresetCommandList(t *testing.T) {
	m := newTestChat(t, helloWorldAdapter(), nil)

	nm, _ := runCommand(t, m, "/preset")

	msg := lastSystemMessage(t, nm)
	if !strings.Contains(msg, "* careful") {
		t.Errorf("Expected the active preset marker on careful, got %q", msg)
	}
	for _, name := range []string{"careful", "creative", "deranged"} {
		if !strings.Contains(msg, name) {
			t.Errorf("Preset listing missing %q", name)
		}
	}
	if !strings.Contains(msg, "Usage: /preset <name>") {
		t.Errorf("Expected usage line, got %q", msg)
	}
}

func TestPresetCommandSwitch(t *testing.T) {
	m := newTestChat(t, helloWorldAdapter(), nil)

	nm, _ := runCommand(t, m, "/preset creative")

	if nm.presetName != "creative" {
		t.Errorf("Expected preset 'creative', got %q", nm.presetName)
	}
	msg := lastSystemMessage(t, nm)
	if !strings.Contains(msg, "Generation preset: creative") {
		t.Errorf("Expected confirmation message, got %q", msg)
	}
}

func TestPresetCommandUppercase(t *testing.T) {
	m := newTestChat(t, helloWorldAdapter(), nil)

	nm, _ := runCommand(t, m, "/preset DERANGED")

	if nm.presetName != "deranged" {
		t.Errorf("Expected preset names to be case-insensitive, got %q", nm.presetName)
	}
}

func TestPresetCommandInvalid(t *testing.T) {
	m := newTestChat(t, helloWorldAdapter(), nil)

	nm, _ := runCommand(t, m, "/preset reckless")

	if nm.presetName != "careful" {
		t.Errorf("Invalid preset should not change the active one, got %q", nm.presetName)
	}
	msg := lastSystemMessage(t, nm)
	if !strings.Contains(msg, "Valid presets: careful, creative, deranged") {
		t.Errorf("Expected the valid preset list, got %q", msg)
	}
}

// =============================================================================
// HISTORY COMMANDS
// =============================================================================

func TestHistoryCommandDisabled(t *testing.T) {
	m := newTestChat(t, helloWorldAdapter(), nil)

	nm, _ := runCommand(t, m, "/history")

	if msg := lastSystemMessage(t, nm); msg != "History is disabled" {
		t.Errorf("Expected 'History is disabled', got %q", msg)
	}
}

func TestHistoryCommandListsTail(t *testing.T) {
	hist := testHistory(t)
	for _, prompt := range []string{"first prompt", "second prompt", "third prompt"} {
		if _, err := hist.Append(prompt, "reply"); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	m := newTestChat(t, helloWorldAdapter(), hist)
	nm, _ := runCommand(t, m, "/history 2")

	msg := lastSystemMessage(t, nm)
	if !strings.Contains(msg, "Last 2 prompts") {
		t.Errorf("Expected a 2-entry listing, got %q", msg)
	}
	if !strings.Contains(msg, "second prompt") || !strings.Contains(msg, "third prompt") {
		t.Errorf("Expected the two newest prompts, got %q", msg)
	}
	if strings.Contains(msg, "first prompt") {
		t.Errorf("Oldest prompt should be outside the tail, got %q", msg)
	}
}

func TestHistoryCommandEmpty(t *testing.T) {
	m := newTestChat(t, helloWorldAdapter(), testHistory(t))

	nm, _ := runCommand(t, m, "/history")

	if msg := lastSystemMessage(t, nm); msg != "No archived prompts yet" {
		t.Errorf("Expected 'No archived prompts yet', got %q", msg)
	}
}

func TestHistoryCommandInvalidNumber(t *testing.T) {
	m := newTestChat(t, helloWorldAdapter(), testHistory(t))

	nm, _ := runCommand(t, m, "/history many")

	msg := lastSystemMessage(t, nm)
	if !strings.Contains(msg, "Invalid number 'many'") {
		t.Errorf("Expected invalid number error, got %q", msg)
	}
}

func TestHistoryCommandNonPositive(t *testing.T) {
	m := newTestChat(t, helloWorldAdapter(), testHistory(t))

	nm, _ := runCommand(t, m, "/history 0")

	msg := lastSystemMessage(t, nm)
	if !strings.Contains(msg, "Number must be positive") {
		t.Errorf("Expected positive number error, got %q", msg)
	}
}

func TestSearchCommandOpensOverlay(t *testing.T) {
	hist := testHistory(t)
	if _, err := hist.Append("find me later", "ok"); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	m := newTestChat(t, helloWorldAdapter(), hist)
	nm, _ := runCommand(t, m, "/search find")

	if !nm.searchMode {
		t.Fatal("Expected /search to enter search mode")
	}
	if got := nm.searchInput.Value(); got != "find" {
		t.Errorf("Expected the query prefilled, got %q", got)
	}
	if len(nm.searchMatches) != 1 {
		t.Fatalf("Expected 1 match, got %d", len(nm.searchMatches))
	}
	if nm.searchMatches[0].Entry.Prompt != "find me later" {
		t.Errorf("Expected the archived prompt, got %q", nm.searchMatches[0].Entry.Prompt)
	}
}

func TestSearchCommandDisabled(t *testing.T) {
	m := newTestChat(t, helloWorldAdapter(), nil)

	nm, _ := runCommand(t, m, "/search anything")

	if nm.searchMode {
		t.Error("Search mode should stay off without a history store")
	}
	if nm.statusMsg != "History is disabled" {
		t.Errorf("Expected 'History is disabled' status, got %q", nm.statusMsg)
	}
}

// =============================================================================
// STATUS COMMANDS
// =============================================================================

func TestStatsCommand(t *testing.T) {
	hist := testHistory(t)
	if _, err := hist.Append("one", "two"); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	m := newTestChat(t, helloWorldAdapter(), hist)
	m.conversation.AddUserMessage("hello")

	nm, _ := runCommand(t, m, "/stats")

	msg := lastSystemMessage(t, nm)
	for _, want := range []string{"Session statistics:", "Messages:", "Context tokens:", "Archived prompts: 1", "Session state:"} {
		if !strings.Contains(msg, want) {
			t.Errorf("Stats output missing %q in %q", want, msg)
		}
	}
}

func TestVersionCommand(t *testing.T) {
	m := newTestChat(t, helloWorldAdapter(), nil)

	nm, _ := runCommand(t, m, "/version")

	msg := lastSystemMessage(t, nm)
	if !strings.Contains(msg, "hearth: 0.1.0") {
		t.Errorf("Expected the hearth version, got %q", msg)
	}
	if !strings.Contains(msg, runtime.Version()) {
		t.Errorf("Expected the Go version, got %q", msg)
	}
}
