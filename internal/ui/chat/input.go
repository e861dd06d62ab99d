// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
//
// This file contains input submission and prompt recall. Submission hands the
// prompt to the session controller; the reply arrives as events drained by
// the poll tick.
package chat

import (
	"errors"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/hearth-tui/internal/session"
)

// =============================================================================
// INPUT SUBMISSION
// =============================================================================

// submitInput is the main entry point for input submission.
// It coordinates the pipeline: validation -> command check -> session submit.
func (m Model) submitInput() (tea.Model, tea.Cmd) {
	content := strings.TrimSpace(m.input.Value())
	if content == "" {
		return m, nil
	}

	// Check for commands first
	if strings.HasPrefix(content, "/") {
		return m.handleCommand(content)
	}

	// Hand the prompt to the session controller. Rejections leave the input
	// untouched so nothing the user typed is lost.
	if err := m.controller.Submit(content, m.genMode); err != nil {
		switch {
		case errors.Is(err, session.ErrBusy):
			m.statusMsg = "Still generating - Esc to cancel"
		case errors.Is(err, session.ErrLoading):
			m.statusMsg = "Model is still loading"
		case errors.Is(err, session.ErrNoModel):
			m.conversation.AddSystemMessage("No model loaded. Pick one with /model or Ctrl+P.")
			m.updateViewport()
			m.viewport.GotoBottom()
		default:
			m.statusMsg = "Submit failed: " + err.Error()
		}
		return m, nil
	}

	// Clear input and reset the recall walk
	m.input.Reset()
	m.recalling = false
	if m.navigator != nil {
		m.navigator.Reset("")
	}

	// Add user message and an empty assistant bubble for the stream to fill
	m.conversation.AddUserMessage(content)
	m.conversation.AddAssistantMessage()
	m.statusMsg = ""

	m.updateViewport()
	m.viewport.GotoBottom()

	return m, m.startPolling()
}

// =============================================================================
// PROMPT RECALL
// =============================================================================

// recallOlder walks to the previous archived prompt on Up. The first press
// stashes whatever was being typed and narrows the walk to prompts matching
// it as a fuzzy subsequence.
func (m Model) recallOlder() (tea.Model, tea.Cmd) {
	if m.navigator == nil {
		return m, nil
	}

	if !m.recalling {
		m.recallStash = m.input.Value()
		m.navigator.Reset(m.recallStash)
	}

	text, ok := m.navigator.Up()
	if !ok {
		// Nothing older matches; leave the input alone
		return m, nil
	}

	m.recalling = true
	m.input.SetValue(text)
	m.input.CursorEnd()
	return m, nil
}

// recallNewer walks back toward the present on Down. Stepping past the
// newest match restores the stashed in-progress text.
func (m Model) recallNewer() (tea.Model, tea.Cmd) {
	if m.navigator == nil || !m.recalling {
		return m, nil
	}

	text, ok := m.navigator.Down()
	if !ok {
		m.recalling = false
		m.input.SetValue(m.recallStash)
		m.input.CursorEnd()
		return m, nil
	}

	m.input.SetValue(text)
	m.input.CursorEnd()
	return m, nil
}
