// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package llm implements the generation pipeline for hearth: the model
// adapter boundary, token sampling, the autoregressive generation loop, and
// incremental detokenization. Everything above the adapter is backend
// agnostic and runs identically against a real model or the deterministic
// stub used in tests.
package llm

// =============================================================================
// MODEL ADAPTER
// =============================================================================

// Adapter is the capability boundary around a loaded quantized model and its
// tokenizer. An implementation owns the weights, the vocabulary, and the
// per-generation inference cache (e.g. the attention KV cache); that cache is
// exclusively owned by whichever generation loop is currently driving the
// adapter. ForwardStep is therefore not safe for concurrent use. The engine
// enforces single-loop access; see NativeEngine.
type Adapter interface {
	// Encode tokenizes text into model token ids. Returns an EncodingError
	// if the tokenizer rejects the input.
	Encode(text string) ([]int, error)

	// Decode converts token ids back into text. It must be callable on any
	// prefix window of a growing id sequence; TokenStream relies on this to
	// stream fragments without re-decoding from scratch.
	Decode(ids []int) (string, error)

	// ForwardStep runs one inference step over the given tokens and returns
	// logits over the vocabulary. The first call of a generation receives
	// the full encoded prompt; subsequent calls receive only the most
	// recently sampled token, with everything earlier served from the
	// inference cache. Mutates the cache.
	ForwardStep(ids []int) ([]float32, error)

	// Reset clears the inference cache. Called by the engine at the start
	// of each generation so consecutive generations do not observe each
	// other's context.
	Reset()

	// EndOfSequenceID returns the token id the model emits to terminate a
	// reply.
	EndOfSequenceID() int
}
