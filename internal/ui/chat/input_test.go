// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"
	"testing"
	"time"

	"github.com/jeranaias/hearth-tui/internal/model"
	"github.com/jeranaias/hearth-tui/internal/session"
)

// =============================================================================
// SUBMISSION TESTS
// =============================================================================

func TestSubmitInputBlank(t *testing.T) {
	m := newTestChat(t, helloWorldAdapter(), nil)
	m.input.SetValue("   ")

	nm, cmd := m.submitInput()
	if cmd != nil {
		t.Error("Blank input should not produce a command")
	}
	if !asModel(t, nm).conversation.IsEmpty() {
		t.Error("Blank input should not add messages")
	}
}

func TestSubmitInputRoutesCommands(t *testing.T) {
	m := newTestChat(t, helloWorldAdapter(), nil)
	m.input.SetValue("/help")

	nm, _ := m.submitInput()

	cm := asModel(t, nm)
	if !strings.Contains(lastSystemMessage(t, cm), "Commands:") {
		t.Error("Expected /help to dispatch through the command registry")
	}
	if cm.input.Value() != "" {
		t.Errorf("Expected the input cleared after a command, got %q", cm.input.Value())
	}
}

func TestSubmitInputNoModel(t *testing.T) {
	m := newTestChat(t, helloWorldAdapter(), nil)
	m.input.SetValue("hello there")

	nm, _ := m.submitInput()

	cm := asModel(t, nm)
	msg := lastSystemMessage(t, cm)
	if !strings.Contains(msg, "No model loaded") {
		t.Errorf("Expected a no-model hint, got %q", msg)
	}
	// The rejected prompt must survive in the input
	if cm.input.Value() != "hello there" {
		t.Errorf("Rejected input should be preserved, got %q", cm.input.Value())
	}
}

func TestSubmitInputStartsGeneration(t *testing.T) {
	m := newTestChat(t, helloWorldAdapter(), nil)
	loadTestModel(t, &m)
	m.input.SetValue("Hello")

	nm, cmd := m.submitInput()

	cm := asModel(t, nm)
	if cmd == nil {
		t.Error("Expected a poll command after a successful submit")
	}
	if cm.input.Value() != "" {
		t.Errorf("Expected the input cleared, got %q", cm.input.Value())
	}
	if got := cm.conversation.MessageCount(); got != 2 {
		t.Fatalf("Expected user + assistant bubbles, got %d messages", got)
	}

	msgs := cm.conversation.Messages
	if msgs[0].Role != model.RoleUser || msgs[0].DisplayContent() != "Hello" {
		t.Errorf("First message should be the user prompt, got %v %q",
			msgs[0].Role, msgs[0].DisplayContent())
	}
	if msgs[1].Role != model.RoleAssistant || !msgs[1].IsStreaming {
		t.Error("Second message should be the streaming assistant bubble")
	}

	drainChat(t, &cm, 2*time.Second)
	if got := cm.conversation.LastAssistantMessage().DisplayContent(); got != "world" {
		t.Errorf("Expected reply 'world', got %q", got)
	}
}

func TestSubmitInputWhileBusy(t *testing.T) {
	m := newTestChat(t, endlessAdapter(), nil)
	loadTestModel(t, &m)

	if err := m.controller.Submit("first", m.genMode); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	m.input.SetValue("second")
	nm, _ := m.submitInput()

	cm := asModel(t, nm)
	if cm.statusMsg != "Still generating - Esc to cancel" {
		t.Errorf("Expected busy status, got %q", cm.statusMsg)
	}
	if cm.input.Value() != "second" {
		t.Errorf("Rejected input should be preserved, got %q", cm.input.Value())
	}

	cm.controller.Cancel()
	drainChat(t, &cm, 2*time.Second)
	if got := cm.controller.State(); got != session.StateIdle {
		t.Errorf("State after cancel = %v, want StateIdle", got)
	}
}

// =============================================================================
// PROMPT RECALL TESTS
// =============================================================================

func seedHistory(t *testing.T, m Model, prompts ...string) {
	t.Helper()
	for _, p := range prompts {
		if _, err := m.store.Append(p, "reply"); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}
}

func TestRecallOlderWalksBack(t *testing.T) {
	m := newTestChat(t, helloWorldAdapter(), testHistory(t))
	seedHistory(t, m, "first", "second", "third")

	nm, _ := m.recallOlder()
	cm := asModel(t, nm)
	if got := cm.input.Value(); got != "third" {
		t.Errorf("First Up should recall the newest prompt, got %q", got)
	}
	if !cm.recalling {
		t.Error("Expected the recall walk to be active")
	}

	nm, _ = cm.recallOlder()
	cm = asModel(t, nm)
	if got := cm.input.Value(); got != "second" {
		t.Errorf("Second Up should recall the next older prompt, got %q", got)
	}
}

func TestRecallStopsAtOldest(t *testing.T) {
	m := newTestChat(t, helloWorldAdapter(), testHistory(t))
	seedHistory(t, m, "only one")

	nm, _ := m.recallOlder()
	cm := asModel(t, nm)
	if got := cm.input.Value(); got != "only one" {
		t.Errorf("Expected 'only one', got %q", got)
	}

	// Another Up past the oldest leaves the input alone
	nm, _ = cm.recallOlder()
	cm = asModel(t, nm)
	if got := cm.input.Value(); got != "only one" {
		t.Errorf("Up past the oldest should keep the input, got %q", got)
	}
}

func TestRecallNewerRestoresDraft(t *testing.T) {
	m := newTestChat(t, helloWorldAdapter(), testHistory(t))
	seedHistory(t, m, "first", "second")

	// "se" narrows the walk to "second" as a subsequence
	m.input.SetValue("se")

	nm, _ := m.recallOlder()
	cm := asModel(t, nm)
	if got := cm.input.Value(); got != "second" {
		t.Fatalf("Expected 'second', got %q", got)
	}

	// Down past the newest match restores what was being typed
	nm, _ = cm.recallNewer()
	cm = asModel(t, nm)
	if got := cm.input.Value(); got != "se" {
		t.Errorf("Down past the newest should restore the draft, got %q", got)
	}
	if cm.recalling {
		t.Error("The recall walk should end when the draft is restored")
	}
}

func TestRecallFiltersBySubsequence(t *testing.T) {
	m := newTestChat(t, helloWorldAdapter(), testHistory(t))
	seedHistory(t, m, "deploy the service", "check the logs", "deploy again")
	m.input.SetValue("dpl")

	nm, _ := m.recallOlder()
	cm := asModel(t, nm)
	if got := cm.input.Value(); got != "deploy again" {
		t.Errorf("Expected the newest subsequence match, got %q", got)
	}

	nm, _ = cm.recallOlder()
	cm = asModel(t, nm)
	if got := cm.input.Value(); got != "deploy the service" {
		t.Errorf("Expected the older subsequence match, got %q", got)
	}
}

func TestRecallWithoutStore(t *testing.T) {
	m := newTestChat(t, helloWorldAdapter(), nil)
	m.input.SetValue("draft")

	nm, _ := m.recallOlder()
	cm := asModel(t, nm)
	if got := cm.input.Value(); got != "draft" {
		t.Errorf("Recall without a store should leave the input alone, got %q", got)
	}
	if cm.recalling {
		t.Error("Recall should not activate without a store")
	}
}

func TestRecallNewerWithoutWalk(t *testing.T) {
	m := newTestChat(t, helloWorldAdapter(), testHistory(t))
	seedHistory(t, m, "something")
	m.input.SetValue("typing")

	// Down without a preceding Up is a no-op
	nm, _ := m.recallNewer()
	cm := asModel(t, nm)
	if got := cm.input.Value(); got != "typing" {
		t.Errorf("Down without an active walk should keep the input, got %q", got)
	}
}
