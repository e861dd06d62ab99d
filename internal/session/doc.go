// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session provides the generation session controller.
//
// The controller owns the loaded model and the background worker that runs
// the generation loop. It enforces the single-session state machine (at
// most one generation in flight), bridges worker output to the interactive
// thread through an ordered event channel, and hands every completed
// prompt/reply pair to the history store.
//
// # Key Types
//
//   - Controller: state machine + worker ownership
//   - State: Idle, Loading, Generating, Done, Cancelled, Errored
//   - Event: TokenFragment, Completed, Cancelled, Failed, Load*
//   - Model: a ready engine bound to its prompt template
//
// # Usage
//
// Create a controller and load a model:
//
//	ctrl := session.New(session.Options{History: store, Load: loader})
//	err := ctrl.LoadModel("stablelm-2-zephyr-1_6b")
//
// Submit a prompt and drain events each render tick:
//
//	err := ctrl.Submit("explain recursion", mode)
//	for _, ev := range ctrl.PollEvents() {
//	    switch e := ev.(type) {
//	    case session.TokenFragment:
//	        // append e.Text to the transcript
//	    case session.Completed:
//	        // final reply in e.Reply
//	    }
//	}
//
// Cancel from the interactive thread at any time:
//
//	ctrl.Cancel()
//
// # Guarantees
//
// Fragments arrive in generation order. Every submitted request observes
// exactly one terminal event (Completed, Cancelled, or Failed), panics
// included, so the UI can never be left waiting on a generation that
// silently died. PollEvents never blocks.
package session
