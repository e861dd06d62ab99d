// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package llm

import "unicode/utf8"

// =============================================================================
// INCREMENTAL DETOKENIZATION
// =============================================================================

// TokenStream turns a sequence of sampled token ids into text fragments
// without ever re-decoding the whole reply. Byte-pair tokenizers can split a
// multi-byte rune across tokens, so a token's text is only emitted once the
// decoded window ends on a clean ASCII boundary; Flush drains whatever is
// still pending after the final token.
//
// Invariant: the concatenation of every string returned by Push plus the
// final Flush equals the full decode of every pushed id.
type TokenStream struct {
	adapter Adapter
	tokens  []int

	// prevIndex..currentIndex is the window already emitted; everything
	// from currentIndex on is still pending a clean boundary.
	prevIndex    int
	currentIndex int
}

// NewTokenStream creates a stream decoding through the given adapter.
func NewTokenStream(a Adapter) *TokenStream {
	return &TokenStream{adapter: a}
}

// Push appends a sampled token id and returns the newly stable text
// fragment, or "" when the pending window does not yet decode to a clean
// boundary.
func (ts *TokenStream) Push(id int) (string, error) {
	prevText := ""
	if len(ts.tokens) > 0 {
		t, err := ts.adapter.Decode(ts.tokens[ts.prevIndex:ts.currentIndex])
		if err != nil {
			return "", err
		}
		prevText = t
	}

	ts.tokens = append(ts.tokens, id)
	text, err := ts.adapter.Decode(ts.tokens[ts.prevIndex:])
	if err != nil {
		return "", err
	}

	if len(text) > len(prevText) && endsASCII(text) {
		frag := text[len(prevText):]
		ts.prevIndex = ts.currentIndex
		ts.currentIndex = len(ts.tokens)
		return frag, nil
	}
	return "", nil
}

// Flush returns any text still pending after the final token. Safe to call
// on an empty stream.
func (ts *TokenStream) Flush() (string, error) {
	if len(ts.tokens) == 0 {
		return "", nil
	}

	prevText, err := ts.adapter.Decode(ts.tokens[ts.prevIndex:ts.currentIndex])
	if err != nil {
		return "", err
	}
	text, err := ts.adapter.Decode(ts.tokens[ts.prevIndex:])
	if err != nil {
		return "", err
	}

	if len(text) > len(prevText) {
		ts.prevIndex = ts.currentIndex
		ts.currentIndex = len(ts.tokens)
		return text[len(prevText):], nil
	}
	return "", nil
}

// Tokens returns the ids pushed so far, oldest first.
func (ts *TokenStream) Tokens() []int { return ts.tokens }

// endsASCII reports whether the final rune of s is plain ASCII, i.e. no
// partially decoded multi-byte sequence can be dangling at the end.
func endsASCII(s string) bool {
	r, _ := utf8.DecodeLastRuneInString(s)
	return r < utf8.RuneSelf
}
