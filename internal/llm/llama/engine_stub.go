// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

//go:build !llama

package llama

import (
	"context"

	"github.com/jeranaias/hearth-tui/internal/llm"
)

// Built reports whether this binary includes the llama.cpp backend.
const Built = false

// Engine is a stand-in compiled when the 'llama' build tag is not set. New
// refuses to construct one, so its methods exist only to satisfy llm.Engine.
type Engine struct{}

// New fails fast in CGO-free builds.
func New(cfg Config) (*Engine, error) {
	return nil, &llm.LoadError{Model: cfg.WeightsPath, Err: ErrNotBuilt}
}

func (e *Engine) Generate(ctx context.Context, req llm.Request, onFragment func(string)) (llm.Result, error) {
	return llm.Result{}, &llm.InferenceError{Err: ErrNotBuilt}
}

func (e *Engine) Close() error { return nil }
