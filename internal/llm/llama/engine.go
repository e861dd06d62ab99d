// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

//go:build llama

package llama

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"time"

	gollama "github.com/go-skynet/go-llama.cpp"

	"github.com/jeranaias/hearth-tui/internal/llm"
	"github.com/jeranaias/hearth-tui/internal/logger"
)

// Built reports whether this binary includes the llama.cpp backend.
const Built = true

// Engine wraps a loaded llama.cpp model. It satisfies llm.Engine and admits
// one generation at a time, like the native engine.
type Engine struct {
	model *gollama.LLama
	cfg   Config
	busy  atomic.Bool
	log   *logger.Logger
}

// New loads the GGUF weights at cfg.WeightsPath.
func New(cfg Config) (*Engine, error) {
	if strings.TrimSpace(cfg.WeightsPath) == "" {
		return nil, &llm.LoadError{Model: cfg.WeightsPath, Err: errors.New("no weights path configured")}
	}

	opts := []gollama.ModelOption{
		gollama.SetContext(cfg.contextLength()),
	}
	if cfg.GPULayers > 0 {
		opts = append(opts, gollama.SetGPULayers(cfg.GPULayers))
	}

	model, err := gollama.New(cfg.WeightsPath, opts...)
	if err != nil {
		return nil, &llm.LoadError{Model: cfg.WeightsPath, Err: err}
	}

	return &Engine{
		model: model,
		cfg:   cfg,
		log:   logger.Log.With("llama"),
	}, nil
}

// Generate runs one prediction, streaming text pieces to onFragment as
// llama.cpp emits them. Cancelling the context stops the prediction at the
// next token boundary and reports what was produced so far.
func (e *Engine) Generate(ctx context.Context, req llm.Request, onFragment func(string)) (llm.Result, error) {
	if !e.busy.CompareAndSwap(false, true) {
		return llm.Result{}, llm.ErrBusy
	}
	defer e.busy.Store(false)

	start := time.Now()
	res := llm.Result{Finish: llm.FinishEOS}

	budget := req.MaxTokens
	if budget <= 0 {
		budget = llm.DefaultMaxTokens
	}

	var reply strings.Builder
	e.model.SetTokenCallback(func(piece string) bool {
		select {
		case <-ctx.Done():
			return false
		default:
		}
		if res.Tokens == 0 {
			res.FirstFragment = time.Since(start)
		}
		res.Tokens++
		reply.WriteString(piece)
		if onFragment != nil {
			onFragment(piece)
		}
		return true
	})
	defer e.model.SetTokenCallback(nil)

	_, err := e.model.Predict(req.Prompt, predictOptions(req, budget, e.cfg.threads())...)

	res.Reply = reply.String()
	res.Duration = time.Since(start)

	switch {
	case ctx.Err() != nil:
		res.Finish = llm.FinishCancelled
		return res, nil
	case err != nil:
		return res, &llm.InferenceError{Step: res.Tokens, Err: err}
	case res.Tokens >= budget:
		res.Finish = llm.FinishBudget
	}

	e.log.Debug("prediction finished",
		"tokens", res.Tokens, "duration", res.Duration, "finish", string(res.Finish))
	return res, nil
}

// Close frees the model's native memory.
func (e *Engine) Close() error {
	if e.model != nil {
		e.model.Free()
		e.model = nil
	}
	return nil
}

// predictOptions maps a request's sampling mode onto llama.cpp knobs.
// llama.cpp treats temperature 0 as greedy decoding, which lines up with
// deterministic mode.
func predictOptions(req llm.Request, budget, threads int) []gollama.PredictOption {
	opts := []gollama.PredictOption{
		gollama.SetTokens(budget),
		gollama.SetThreads(threads),
	}

	switch req.Mode.Kind {
	case llm.KindDeterministic:
		opts = append(opts, gollama.SetTemperature(0))
	case llm.KindTemperature:
		opts = append(opts,
			gollama.SetTemperature(float32(req.Mode.Temperature)),
			gollama.SetTopP(1.0))
	case llm.KindTopP:
		opts = append(opts,
			gollama.SetTemperature(float32(req.Mode.Temperature)),
			gollama.SetTopP(float32(req.Mode.TopP)))
	}

	if req.Mode.TopK > 0 {
		opts = append(opts, gollama.SetTopK(req.Mode.TopK))
	}
	if req.Mode.RepeatPenalty > 0 {
		opts = append(opts, gollama.SetPenalty(float32(req.Mode.RepeatPenalty)))
	}
	if req.Seed != 0 {
		opts = append(opts, gollama.SetSeed(int(req.Seed)))
	}
	return opts
}
