// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package llm

import "fmt"

// =============================================================================
// ERROR TAXONOMY
// =============================================================================
//
// Errors are split by where they occur in the pipeline:
//
//   - LoadError: the model or tokenizer could not be brought up at all.
//     Fatal to that load attempt, recoverable by retrying or picking a
//     different model.
//   - EncodingError, SamplingError, InferenceError: step-level failures
//     during a generation. They abort the current generation (surfaced as a
//     Failed terminal event) but never crash the process.
//
// All are matchable with errors.As, and wrap an underlying cause where one
// exists.

// LoadError indicates model or tokenizer files were missing, corrupt, or
// incompatible with the backend.
type LoadError struct {
	Model string // model id or path being loaded
	Err   error
}

// Error implements the error interface.
func (e *LoadError) Error() string {
	if e.Model == "" {
		return fmt.Sprintf("model load failed: %v", e.Err)
	}
	return fmt.Sprintf("model load failed (%s): %v", e.Model, e.Err)
}

// Unwrap returns the underlying cause.
func (e *LoadError) Unwrap() error { return e.Err }

// EncodingError indicates the tokenizer rejected input text. UI-sourced text
// should never trigger this, but it is handled rather than assumed safe.
type EncodingError struct {
	Err error
}

// Error implements the error interface.
func (e *EncodingError) Error() string {
	return fmt.Sprintf("prompt encoding failed: %v", e.Err)
}

// Unwrap returns the underlying cause.
func (e *EncodingError) Unwrap() error { return e.Err }

// SamplingError indicates the sampler could not make a defined selection,
// e.g. logits containing NaN/Inf or all probability mass underflowing during
// renormalization.
type SamplingError struct {
	Step   int    // generation step at which sampling failed
	Reason string // human-readable cause
}

// Error implements the error interface.
func (e *SamplingError) Error() string {
	return fmt.Sprintf("sampling failed at step %d: %s", e.Step, e.Reason)
}

// InferenceError indicates a forward step failed mid-generation.
type InferenceError struct {
	Step int // generation step at which the forward pass failed
	Err  error
}

// Error implements the error interface.
func (e *InferenceError) Error() string {
	return fmt.Sprintf("inference failed at step %d: %v", e.Step, e.Err)
}

// Unwrap returns the underlying cause.
func (e *InferenceError) Unwrap() error { return e.Err }
