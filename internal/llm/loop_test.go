// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package llm

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// =============================================================================
// GENERATION LOOP TESTS
// =============================================================================

// helloWorldStub scripts the canonical exchange: prompt "Hello", one token
// "world", then end-of-sequence.
func helloWorldStub() *StubAdapter {
	return &StubAdapter{
		Vocab: []string{"Hello", "world", "<eos>"},
		EOS:   2,
		Script: [][]float32{
			ScriptRow(3, 1), // "world"
			ScriptRow(3, 2), // eos
		},
	}
}

func TestNativeEngine_HelloWorld(t *testing.T) {
	adapter := helloWorldStub()
	eng := NewNativeEngine(adapter)

	var frags []string
	res, err := eng.Generate(context.Background(), Request{
		Prompt: "Hello",
		Mode:   Deterministic(),
	}, func(f string) { frags = append(frags, f) })
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if res.Reply != "world" {
		t.Errorf("Reply = %q, want %q", res.Reply, "world")
	}
	if res.Finish != FinishEOS {
		t.Errorf("Finish = %q, want %q", res.Finish, FinishEOS)
	}
	if res.Tokens != 1 {
		t.Errorf("Tokens = %d, want 1", res.Tokens)
	}
	if res.PromptTokens != 1 {
		t.Errorf("PromptTokens = %d, want 1", res.PromptTokens)
	}
	if len(frags) != 1 || frags[0] != "world" {
		t.Errorf("Fragments = %q, want [\"world\"]", frags)
	}
}

func TestNativeEngine_FeedsPromptThenSingleTokens(t *testing.T) {
	adapter := &StubAdapter{
		Vocab: []string{"Hello", "a", "b", "<eos>"},
		EOS:   3,
		Script: [][]float32{
			ScriptRow(4, 1),
			ScriptRow(4, 2),
			ScriptRow(4, 3),
		},
	}
	eng := NewNativeEngine(adapter)

	_, err := eng.Generate(context.Background(), Request{Prompt: "Hello", Mode: Deterministic()}, nil)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	feeds := adapter.Feeds()
	if len(feeds) != 3 {
		t.Fatalf("ForwardStep calls = %d, want 3", len(feeds))
	}
	if len(feeds[0]) != 1 || feeds[0][0] != 0 {
		t.Errorf("First feed = %v, want full prompt [0]", feeds[0])
	}
	for i, feed := range feeds[1:] {
		if len(feed) != 1 {
			t.Errorf("Feed #%d = %v, want single token", i+1, feed)
		}
	}
}

func TestNativeEngine_BudgetBoundsFragments(t *testing.T) {
	const budget = 5
	adapter := &StubAdapter{
		Vocab:    []string{"go", "on", "<eos>"},
		EOS:      2,
		Script:   [][]float32{ScriptRow(3, 1)},
		LoopLast: true, // never reaches eos by itself
	}
	eng := NewNativeEngine(adapter)

	var frags []string
	res, err := eng.Generate(context.Background(), Request{
		Prompt:    "go",
		Mode:      Deterministic(),
		MaxTokens: budget,
	}, func(f string) { frags = append(frags, f) })
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if res.Finish != FinishBudget {
		t.Errorf("Finish = %q, want %q", res.Finish, FinishBudget)
	}
	if res.Tokens != budget {
		t.Errorf("Tokens = %d, want %d", res.Tokens, budget)
	}
	if len(frags) > budget {
		t.Errorf("Fragment count = %d, want at most %d", len(frags), budget)
	}
	if res.Reply != "ononononon" {
		t.Errorf("Reply = %q, want %q", res.Reply, "ononononon")
	}
}

func TestNativeEngine_PreCancelledContext(t *testing.T) {
	adapter := helloWorldStub()
	eng := NewNativeEngine(adapter)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var frags []string
	res, err := eng.Generate(ctx, Request{Prompt: "Hello", Mode: Deterministic()},
		func(f string) { frags = append(frags, f) })
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if res.Finish != FinishCancelled {
		t.Errorf("Finish = %q, want %q", res.Finish, FinishCancelled)
	}
	if res.Tokens != 0 {
		t.Errorf("Tokens = %d, want 0", res.Tokens)
	}
	if len(frags) != 0 {
		t.Errorf("Fragments = %q, want none", frags)
	}
}

func TestNativeEngine_CancelMidGeneration(t *testing.T) {
	adapter := &StubAdapter{
		Vocab:    []string{"go", "on", "<eos>"},
		EOS:      2,
		Script:   [][]float32{ScriptRow(3, 1)},
		LoopLast: true,
	}
	eng := NewNativeEngine(adapter)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Cancel as soon as the first fragment arrives; the loop must stop at
	// the next step boundary, well inside the budget.
	const budget = 10000
	count := 0
	res, err := eng.Generate(ctx, Request{
		Prompt:    "go",
		Mode:      Deterministic(),
		MaxTokens: budget,
	}, func(string) {
		count++
		cancel()
	})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if res.Finish != FinishCancelled {
		t.Errorf("Finish = %q, want %q", res.Finish, FinishCancelled)
	}
	if res.Tokens >= budget {
		t.Errorf("Tokens = %d, want far fewer than %d", res.Tokens, budget)
	}
	if count == 0 {
		t.Error("Expected at least one fragment before cancellation")
	}
}

func TestNativeEngine_ForwardFailureSurfacesInferenceError(t *testing.T) {
	cause := errors.New("backend exploded")
	adapter := &StubAdapter{
		Vocab:      []string{"go", "on", "<eos>"},
		EOS:        2,
		Script:     [][]float32{ScriptRow(3, 1), ScriptRow(3, 1)},
		ForwardErr: cause,
		FailAtStep: 1,
	}
	eng := NewNativeEngine(adapter)

	var frags []string
	_, err := eng.Generate(context.Background(), Request{Prompt: "go", Mode: Deterministic()},
		func(f string) { frags = append(frags, f) })

	var infErr *InferenceError
	if !errors.As(err, &infErr) {
		t.Fatalf("Expected InferenceError, got %v", err)
	}
	if infErr.Step != 1 {
		t.Errorf("Step = %d, want 1", infErr.Step)
	}
	if !errors.Is(err, cause) {
		t.Error("InferenceError should wrap the backend cause")
	}
	// The fragment emitted before the failure is not retracted.
	if len(frags) != 1 || frags[0] != "on" {
		t.Errorf("Fragments = %q, want [\"on\"]", frags)
	}
}

func TestNativeEngine_EncodeFailure(t *testing.T) {
	adapter := helloWorldStub()
	adapter.EncodeErr = errors.New("bad bytes")
	eng := NewNativeEngine(adapter)

	_, err := eng.Generate(context.Background(), Request{Prompt: "Hello", Mode: Deterministic()}, nil)

	var encErr *EncodingError
	if !errors.As(err, &encErr) {
		t.Errorf("Expected EncodingError, got %v", err)
	}
}

func TestNativeEngine_EmptyPrompt(t *testing.T) {
	eng := NewNativeEngine(helloWorldStub())

	_, err := eng.Generate(context.Background(), Request{Prompt: "   ", Mode: Deterministic()}, nil)

	var encErr *EncodingError
	if !errors.As(err, &encErr) {
		t.Errorf("Expected EncodingError for empty prompt, got %v", err)
	}
}

func TestNativeEngine_RejectsConcurrentGeneration(t *testing.T) {
	adapter := &StubAdapter{
		Vocab:     []string{"go", "on", "<eos>"},
		EOS:       2,
		Script:    [][]float32{ScriptRow(3, 1)},
		LoopLast:  true,
		StepDelay: 2 * time.Millisecond,
	}
	eng := NewNativeEngine(adapter)

	ctx, cancel := context.WithCancel(context.Background())

	started := make(chan struct{})
	var once sync.Once
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = eng.Generate(ctx, Request{Prompt: "go", Mode: Deterministic(), MaxTokens: 100000},
			func(string) { once.Do(func() { close(started) }) })
	}()

	<-started
	_, err := eng.Generate(context.Background(), Request{Prompt: "go", Mode: Deterministic()}, nil)
	if !errors.Is(err, ErrBusy) {
		t.Errorf("Expected ErrBusy for concurrent generation, got %v", err)
	}

	cancel()
	wg.Wait()
}

func TestNativeEngine_ResetsCachePerGeneration(t *testing.T) {
	adapter := helloWorldStub()
	eng := NewNativeEngine(adapter)

	for i := 0; i < 2; i++ {
		res, err := eng.Generate(context.Background(), Request{Prompt: "Hello", Mode: Deterministic()}, nil)
		if err != nil {
			t.Fatalf("Generate #%d failed: %v", i, err)
		}
		if res.Reply != "world" {
			t.Errorf("Generate #%d reply = %q, want %q", i, res.Reply, "world")
		}
	}

	if adapter.Resets() != 2 {
		t.Errorf("Adapter resets = %d, want 2", adapter.Resets())
	}
}
