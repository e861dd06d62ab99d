// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import "github.com/jeranaias/hearth-tui/internal/llm"

// =============================================================================
// EVENTS
// =============================================================================
//
// Workers communicate with the interactive thread exclusively through these
// tagged variants, delivered in order on one channel. For every submitted
// request: zero or more TokenFragment events, then exactly one terminal
// event (Completed, Cancelled, or Failed). Model loads follow the same
// shape with LoadStarted/LoadProgress then LoadCompleted or LoadFailed.

// Event is the closed set of worker-to-UI notifications.
type Event interface{ sessionEvent() }

// TokenFragment is a piece of reply text, in generation order.
type TokenFragment struct {
	RequestID uint64
	Text      string
}

// Completed terminates a successful generation. Reply is the concatenation
// of every fragment for the request. If history persistence failed the
// generation still succeeded; HistoryErr carries the failure for the UI to
// surface.
type Completed struct {
	RequestID uint64
	Reply     string
	Result    llm.Result

	// HistoryID is the persisted entry's id, when the append succeeded.
	HistoryID  uint64
	HistoryErr error
}

// Cancelled terminates a generation stopped by the user. Nothing is written
// to history.
type Cancelled struct {
	RequestID uint64
}

// Failed terminates a generation aborted by a step-level error. Fragments
// already delivered stand as a truncated reply.
type Failed struct {
	RequestID uint64
	Err       error
}

// LoadStarted announces a model load/download beginning on the worker.
type LoadStarted struct {
	ModelID string
}

// LoadProgress reports download progress for one file. Fraction is in
// [0, 1], or negative while the transfer size is still unknown.
type LoadProgress struct {
	ModelID  string
	File     string
	Fraction float64
}

// LoadCompleted announces the model is ready; the session is Idle and
// submissions will run against the new model.
type LoadCompleted struct {
	ModelID string
}

// LoadFailed announces the load attempt failed; a previously loaded model,
// if any, remains usable.
type LoadFailed struct {
	ModelID string
	Err     error
}

func (TokenFragment) sessionEvent() {}
func (Completed) sessionEvent()     {}
func (Cancelled) sessionEvent()     {}
func (Failed) sessionEvent()        {}
func (LoadStarted) sessionEvent()   {}
func (LoadProgress) sessionEvent()  {}
func (LoadCompleted) sessionEvent() {}
func (LoadFailed) sessionEvent()    {}
