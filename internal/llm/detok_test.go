// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package llm

import "testing"

// =============================================================================
// TOKEN STREAM TESTS
// =============================================================================

func TestTokenStream_EmitsOnASCIIBoundary(t *testing.T) {
	// "é" (0xC3 0xA9) split across two tokens must be held back until an
	// ASCII boundary arrives.
	adapter := &StubAdapter{
		Vocab: []string{"Hel", "\xc3", "\xa9", "!"},
	}
	ts := NewTokenStream(adapter)

	steps := []struct {
		id   int
		want string
	}{
		{0, "Hel"}, // clean ASCII end, emitted immediately
		{1, ""},    // dangling UTF-8 lead byte, held
		{2, ""},    // completes "é" but still no ASCII end
		{3, "é!"},  // ASCII boundary flushes the pending rune
	}

	for i, step := range steps {
		frag, err := ts.Push(step.id)
		if err != nil {
			t.Fatalf("Push #%d failed: %v", i, err)
		}
		if frag != step.want {
			t.Errorf("Push #%d = %q, want %q", i, frag, step.want)
		}
	}
}

func TestTokenStream_FlushDrainsPendingText(t *testing.T) {
	adapter := &StubAdapter{
		Vocab: []string{"door", "caf", "\xc3", "\xa9"},
	}
	ts := NewTokenStream(adapter)

	var got string
	for _, id := range []int{1, 2, 3} { // "caf" + the two bytes of "é"
		frag, err := ts.Push(id)
		if err != nil {
			t.Fatalf("Push failed: %v", err)
		}
		got += frag
	}

	tail, err := ts.Flush()
	if err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	got += tail

	if got != "café" {
		t.Errorf("Emitted text = %q, want %q", got, "café")
	}
}

func TestTokenStream_FlushOnEmptyStream(t *testing.T) {
	adapter := &StubAdapter{Vocab: []string{"x"}}
	ts := NewTokenStream(adapter)

	tail, err := ts.Flush()
	if err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	if tail != "" {
		t.Errorf("Flush on empty stream = %q, want empty", tail)
	}
}

func TestTokenStream_ConcatenationMatchesFullDecode(t *testing.T) {
	adapter := &StubAdapter{
		Vocab: []string{" the", " quick", " bro", "wn", " fox", "\xc3", "\xa9"},
	}
	ts := NewTokenStream(adapter)

	ids := []int{0, 1, 2, 3, 4, 5, 6, 0}
	var emitted string
	for _, id := range ids {
		frag, err := ts.Push(id)
		if err != nil {
			t.Fatalf("Push failed: %v", err)
		}
		emitted += frag
	}
	tail, err := ts.Flush()
	if err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	emitted += tail

	full, err := adapter.Decode(ids)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if emitted != full {
		t.Errorf("Emitted %q, full decode %q", emitted, full)
	}
}

func TestTokenStream_FlushIsIdempotent(t *testing.T) {
	adapter := &StubAdapter{Vocab: []string{"\xc3", "\xa9"}}
	ts := NewTokenStream(adapter)

	if _, err := ts.Push(0); err != nil {
		t.Fatalf("Push failed: %v", err)
	}
	if _, err := ts.Push(1); err != nil {
		t.Fatalf("Push failed: %v", err)
	}

	first, err := ts.Flush()
	if err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	if first != "é" {
		t.Errorf("First flush = %q, want %q", first, "é")
	}

	second, err := ts.Flush()
	if err != nil {
		t.Fatalf("Second flush failed: %v", err)
	}
	if second != "" {
		t.Errorf("Second flush = %q, want empty", second)
	}
}

func TestTokenStream_MidStreamFlushKeepsConcatenation(t *testing.T) {
	// Flushing at any point, including between the two bytes of a split
	// rune, must not change what the stream emits overall.
	adapter := &StubAdapter{
		Vocab: []string{"Hel", "lo", " ", "\xc3", "\xa9", "!"},
	}
	ids := []int{0, 1, 2, 3, 4, 5}

	full, err := adapter.Decode(ids)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	for split := 0; split <= len(ids); split++ {
		ts := NewTokenStream(adapter)
		var emitted string

		for _, id := range ids[:split] {
			frag, err := ts.Push(id)
			if err != nil {
				t.Fatalf("split %d: Push failed: %v", split, err)
			}
			emitted += frag
		}
		mid, err := ts.Flush()
		if err != nil {
			t.Fatalf("split %d: mid-stream Flush failed: %v", split, err)
		}
		emitted += mid

		for _, id := range ids[split:] {
			frag, err := ts.Push(id)
			if err != nil {
				t.Fatalf("split %d: Push failed: %v", split, err)
			}
			emitted += frag
		}
		tail, err := ts.Flush()
		if err != nil {
			t.Fatalf("split %d: final Flush failed: %v", split, err)
		}
		emitted += tail

		if emitted != full {
			t.Errorf("Split %d: emitted %q, full decode %q", split, emitted, full)
		}
	}
}
