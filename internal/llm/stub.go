// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package llm

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// =============================================================================
// STUB ADAPTER
// =============================================================================

// StubAdapter is a deterministic, scripted model used by the pipeline tests
// and the demo mode. Its vocabulary is a plain string table, Encode is a
// word lookup, and ForwardStep replays a per-step logits script. Once the
// script is exhausted it yields end-of-sequence, unless LoopLast keeps
// replaying the final row (useful for budget and cancellation tests).
type StubAdapter struct {
	// Vocab maps token id to its decoded text. Entry spacing is the
	// caller's business: "world" and " world" are both legal entries.
	Vocab []string

	// EOS is the end-of-sequence token id. Must index into Vocab.
	EOS int

	// Script holds one logits row per forward step.
	Script [][]float32

	// LoopLast replays the last script row forever instead of falling back
	// to end-of-sequence.
	LoopLast bool

	// EncodeErr, when set, is returned by every Encode call.
	EncodeErr error

	// ForwardErr is returned by ForwardStep at step FailAtStep.
	ForwardErr error
	FailAtStep int

	// StepDelay slows each forward step down, bounding how fast a loop can
	// burn through its budget in cancellation tests.
	StepDelay time.Duration

	mu     sync.Mutex
	step   int
	resets int
	feeds  [][]int
}

// Encode implements Adapter: each whitespace-separated word must appear in
// the vocabulary.
func (s *StubAdapter) Encode(text string) ([]int, error) {
	if s.EncodeErr != nil {
		return nil, &EncodingError{Err: s.EncodeErr}
	}

	var ids []int
	for _, word := range strings.Fields(text) {
		id := -1
		for i, v := range s.Vocab {
			if strings.TrimSpace(v) == word {
				id = i
				break
			}
		}
		if id < 0 {
			return nil, &EncodingError{Err: fmt.Errorf("word %q not in stub vocabulary", word)}
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Decode implements Adapter by concatenating vocabulary entries.
func (s *StubAdapter) Decode(ids []int) (string, error) {
	var b strings.Builder
	for _, id := range ids {
		if id < 0 || id >= len(s.Vocab) {
			return "", fmt.Errorf("token id %d outside stub vocabulary (size %d)", id, len(s.Vocab))
		}
		b.WriteString(s.Vocab[id])
	}
	return b.String(), nil
}

// ForwardStep implements Adapter by replaying the script. Each returned row
// is a fresh copy, since the sampler penalizes logits in place.
func (s *StubAdapter) ForwardStep(ids []int) ([]float32, error) {
	s.mu.Lock()
	step := s.step
	s.step++
	feed := make([]int, len(ids))
	copy(feed, ids)
	s.feeds = append(s.feeds, feed)
	s.mu.Unlock()

	if s.StepDelay > 0 {
		time.Sleep(s.StepDelay)
	}

	if s.ForwardErr != nil && step == s.FailAtStep {
		return nil, s.ForwardErr
	}

	var row []float32
	switch {
	case step < len(s.Script):
		row = s.Script[step]
	case s.LoopLast && len(s.Script) > 0:
		row = s.Script[len(s.Script)-1]
	default:
		row = ScriptRow(len(s.Vocab), s.EOS)
	}

	out := make([]float32, len(row))
	copy(out, row)
	return out, nil
}

// Reset implements Adapter: a new generation starts replaying the script
// from the top.
func (s *StubAdapter) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.step = 0
	s.resets++
}

// EndOfSequenceID implements Adapter.
func (s *StubAdapter) EndOfSequenceID() int { return s.EOS }

// Resets reports how many generations have started against this stub.
func (s *StubAdapter) Resets() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resets
}

// Feeds returns a copy of every token batch fed to ForwardStep, in call
// order. The first feed of a generation is the full prompt; later feeds are
// single tokens.
func (s *StubAdapter) Feeds() [][]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]int, len(s.feeds))
	copy(out, s.feeds)
	return out
}

// ScriptRow builds a logits row of the given size strongly favoring one
// token id: uniform at -10 with +10 at the favorite.
func ScriptRow(size, favorite int) []float32 {
	row := make([]float32, size)
	for i := range row {
		row[i] = -10
	}
	if favorite >= 0 && favorite < size {
		row[favorite] = 10
	}
	return row
}
