// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/hearth-tui/internal/model"
	"github.com/jeranaias/hearth-tui/internal/session"
	"github.com/jeranaias/hearth-tui/internal/ui/components"
)

// =============================================================================
// EVENT POLLING
// =============================================================================

// pollInterval is how often the UI drains session events while a generation
// or model load is running. ~30fps: fast enough that streaming feels live,
// slow enough that a flood of tiny fragments coalesces into one redraw.
const pollInterval = 33 * time.Millisecond

// pollTick schedules the next event drain.
func pollTick() tea.Cmd {
	return tea.Tick(pollInterval, func(t time.Time) tea.Msg {
		return PollTickMsg{Time: t}
	})
}

// handlePollTick drains pending session events, applies them to the
// conversation, and reschedules itself while the controller stays busy.
//
// Terminal events are always the last event a request emits and the
// controller's state flips before PollEvents returns them, so stopping the
// tick loop when the drain leaves a non-busy state cannot strand events.
func (m Model) handlePollTick(_ PollTickMsg) (tea.Model, tea.Cmd) {
	events := m.controller.PollEvents()
	if len(events) > 0 {
		m.applyEvents(events)
		m.updateViewport()
		if m.controller.State() == session.StateGenerating {
			m.viewport.GotoBottom()
		}
	}

	switch m.controller.State() {
	case session.StateLoading, session.StateGenerating:
		return m, pollTick()
	}

	m.polling = false
	return m, nil
}

// startPolling arms the poll tick loop if it is not already running.
func (m *Model) startPolling() tea.Cmd {
	if m.polling {
		return nil
	}
	m.polling = true
	return pollTick()
}

// applyEvents folds a batch of session events into the UI state. Fragment
// events append to the streaming assistant bubble; terminal events finalize
// it and release the session for the next prompt.
func (m *Model) applyEvents(events []session.Event) {
	for _, ev := range events {
		switch e := ev.(type) {
		case session.TokenFragment:
			m.conversation.AppendToLast(e.Text)

		case session.Completed:
			m.finishGeneration(e)

		case session.Cancelled:
			m.conversation.AppendToLast("\n[cancelled]")
			m.conversation.FinalizeLast(nil)
			m.statusMsg = "Generation cancelled"
			m.controller.Dismiss()

		case session.Failed:
			m.conversation.FinalizeLast(nil)
			errMsg := NewErrorMsgWithSuggestions(
				"Generation failed",
				e.Err.Error(),
				detectErrorSuggestions(e.Err.Error()),
			)
			m.lastError = &errMsg
			// The session stays errored until the overlay is dismissed.

		case session.LoadStarted:
			m.loadProgress = components.NewProgressIndicator("Loading " + e.ModelID)
			m.layoutViewport()

		case session.LoadProgress:
			if m.loadProgress != nil {
				m.loadProgress.SetDetail(e.File)
				m.loadProgress.SetFraction(e.Fraction)
			}

		case session.LoadCompleted:
			m.loadProgress = nil
			m.layoutViewport()
			m.conversation.Model = e.ModelID
			m.statusMsg = "Model ready: " + e.ModelID
			m.optimizer.ForceUpdate()

		case session.LoadFailed:
			m.loadProgress = nil
			m.layoutViewport()
			if errors.Is(e.Err, context.Canceled) {
				// User hit Esc during the download; not an error.
				m.statusMsg = "Model load cancelled"
				break
			}
			errMsg := NewErrorMsgWithSuggestions(
				"Model load failed",
				e.Err.Error(),
				detectErrorSuggestions(e.Err.Error()),
			)
			m.lastError = &errMsg
		}
	}
}

// finishGeneration finalizes the streaming bubble with timing statistics and
// links it to its history archive entry.
func (m *Model) finishGeneration(e session.Completed) {
	m.conversation.FinalizeLast(model.StatsFromResult(e.Result))
	if last := m.conversation.LastAssistantMessage(); last != nil {
		last.HistoryID = e.HistoryID
	}
	if e.HistoryErr != nil {
		m.conversation.AddSystemMessage("History not saved: " + e.HistoryErr.Error())
	}
	m.statusMsg = ""
	m.controller.Dismiss()
}
