// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package llama runs GGUF models in-process through llama.cpp bindings.
//
// The real backend needs CGO and the 'llama' build tag:
//
//	go build -tags llama
//
// Default builds compile a stub whose New always fails, keeping plain
// `go build` and CI CGO-free. Callers decide at runtime whether the backend
// is available by checking New's error against ErrNotBuilt.
package llama

import (
	"errors"
	"runtime"
)

// ErrNotBuilt is wrapped by New in binaries compiled without the 'llama'
// build tag.
var ErrNotBuilt = errors.New("llama backend not built (rebuild with -tags llama)")

// Config describes how to load a GGUF model.
type Config struct {
	// WeightsPath is the local path to the .gguf file.
	WeightsPath string

	// ContextLength is the context window in tokens. Zero means 2048.
	ContextLength int

	// Threads is the CPU thread count. Zero means all cores.
	Threads int

	// GPULayers is how many layers to offload to the GPU, if any.
	GPULayers int
}

func (c Config) contextLength() int {
	if c.ContextLength > 0 {
		return c.ContextLength
	}
	return 2048
}

func (c Config) threads() int {
	if c.Threads > 0 {
		return c.Threads
	}
	return runtime.NumCPU()
}
