// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session provides the generation session controller.
package session

// =============================================================================
// SESSION STATE
// =============================================================================

// State is the controller's position in the generation lifecycle. Exactly
// one state is live at a time; transitions happen on the polling thread in
// response to worker events and user actions.
type State int

const (
	// StateIdle: no generation or load in flight; submissions accepted.
	StateIdle State = iota
	// StateLoading: a model load/download runs on the worker. Loading
	// always completes back into Idle, never directly into Generating.
	StateLoading
	// StateGenerating: a generation worker is producing tokens.
	StateGenerating
	// StateDone: the last generation completed; cleared on the next user
	// action.
	StateDone
	// StateCancelled: the last generation was cancelled by the user.
	StateCancelled
	// StateErrored: the last generation failed.
	StateErrored
)

// String returns the state name for logs and the status bar.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateGenerating:
		return "generating"
	case StateDone:
		return "done"
	case StateCancelled:
		return "cancelled"
	case StateErrored:
		return "errored"
	default:
		return "unknown"
	}
}

// Terminal reports whether the state marks a finished generation awaiting
// acknowledgment.
func (s State) Terminal() bool {
	return s == StateDone || s == StateCancelled || s == StateErrored
}
