// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package llm

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"time"
)

// =============================================================================
// GENERATION REQUESTS AND RESULTS
// =============================================================================

// Request describes one generation. Immutable once submitted; cancellation
// travels through the context passed to Generate.
type Request struct {
	// Prompt is the fully templated text fed to the model (chat template
	// already applied).
	Prompt string

	// Mode selects the sampling strategy.
	Mode Mode

	// MaxTokens is the reply token budget. 0 means DefaultMaxTokens.
	MaxTokens int

	// Seed seeds the sampler's random source. 0 means time-based.
	Seed int64
}

// FinishReason records why a generation stopped.
type FinishReason string

const (
	// FinishEOS: the model produced its end-of-sequence token.
	FinishEOS FinishReason = "eos"
	// FinishBudget: the token budget was exhausted.
	FinishBudget FinishReason = "budget"
	// FinishCancelled: the cancellation signal was observed at a step
	// boundary.
	FinishCancelled FinishReason = "cancelled"
)

// Result summarizes a finished generation. Fragments were already delivered
// through the onFragment callback; Reply is their concatenation.
type Result struct {
	Reply         string
	Tokens        int // tokens produced, excluding the prompt
	PromptTokens  int
	Finish        FinishReason
	Duration      time.Duration
	FirstFragment time.Duration // time from start to the first emitted fragment
}

// =============================================================================
// ENGINE
// =============================================================================

// ErrBusy is returned by an Engine when a generation is already holding the
// model's inference cache.
var ErrBusy = errors.New("a generation is already in flight")

// Engine runs complete generations against a loaded model. Implementations:
// NativeEngine (adapter + sampler + loop, the default and the test target)
// and the optional llama.cpp backend.
type Engine interface {
	// Generate runs one generation to completion, invoking onFragment for
	// each produced text fragment in order. Cancelling ctx stops the run at
	// the next step boundary; the Result then reports FinishCancelled and a
	// nil error. Step-level failures return EncodingError, SamplingError,
	// or InferenceError.
	Generate(ctx context.Context, req Request, onFragment func(string)) (Result, error)

	// Close releases the model. The engine is unusable afterwards.
	Close() error
}

// NativeEngine drives the autoregressive loop over an Adapter: encode the
// prompt, then repeatedly forward one step, sample, and decode, until
// end-of-sequence, budget exhaustion, or cancellation — whichever comes
// first. It guards the adapter's inference cache so only one loop can hold
// it at a time.
type NativeEngine struct {
	adapter Adapter
	busy    atomic.Bool
}

// NewNativeEngine wraps an adapter in the generation loop.
func NewNativeEngine(a Adapter) *NativeEngine {
	return &NativeEngine{adapter: a}
}

// Generate implements Engine.
func (e *NativeEngine) Generate(ctx context.Context, req Request, onFragment func(string)) (Result, error) {
	if onFragment == nil {
		onFragment = func(string) {}
	}
	if !e.busy.CompareAndSwap(false, true) {
		return Result{}, ErrBusy
	}
	defer e.busy.Store(false)

	start := time.Now()
	budget := req.MaxTokens
	if budget <= 0 {
		budget = DefaultMaxTokens
	}

	promptIDs, err := e.adapter.Encode(req.Prompt)
	if err != nil {
		var encErr *EncodingError
		if !errors.As(err, &encErr) {
			err = &EncodingError{Err: err}
		}
		return Result{}, err
	}
	if len(promptIDs) == 0 {
		return Result{}, &EncodingError{Err: errors.New("prompt encoded to zero tokens")}
	}

	e.adapter.Reset()

	sampler := NewSampler(req.Mode, req.Seed)
	stream := NewTokenStream(e.adapter)
	eos := e.adapter.EndOfSequenceID()

	// The repeat penalty window spans the prompt as well as produced
	// tokens.
	history := make([]int, len(promptIDs), len(promptIDs)+budget)
	copy(history, promptIDs)

	var reply strings.Builder
	res := Result{PromptTokens: len(promptIDs), Finish: FinishBudget}

	emit := func(frag string) {
		if frag == "" {
			return
		}
		if reply.Len() == 0 {
			res.FirstFragment = time.Since(start)
		}
		reply.WriteString(frag)
		onFragment(frag)
	}

	// First step feeds the whole prompt; afterwards the KV cache carries
	// the context and each step feeds only the newest token.
	feed := promptIDs
	for step := 0; step < budget; step++ {
		// Checked every step so cancellation latency is bounded by one
		// forward pass, not the remaining budget.
		if ctx.Err() != nil {
			res.Finish = FinishCancelled
			break
		}

		logits, err := e.adapter.ForwardStep(feed)
		if err != nil {
			var infErr *InferenceError
			if !errors.As(err, &infErr) {
				err = &InferenceError{Step: step, Err: err}
			}
			return Result{}, err
		}

		id, err := sampler.Sample(logits, history)
		if err != nil {
			return Result{}, err
		}

		if id == eos {
			res.Finish = FinishEOS
			break
		}

		history = append(history, id)
		res.Tokens++

		frag, err := stream.Push(id)
		if err != nil {
			return Result{}, &InferenceError{Step: step, Err: err}
		}
		emit(frag)

		feed = []int{id}
	}

	// Text produced before the stop still belongs to the reply, whatever
	// the stop reason was.
	tail, err := stream.Flush()
	if err != nil {
		return Result{}, &InferenceError{Step: res.Tokens, Err: err}
	}
	emit(tail)

	res.Reply = reply.String()
	res.Duration = time.Since(start)
	return res, nil
}

// Close implements Engine. The native engine holds no resources beyond the
// adapter, which callers own.
func (e *NativeEngine) Close() error { return nil }
