// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// loader.go - Model resolution and session wiring shared by CLI commands.
//
// Every surface (TUI, ask, chat) brings a model up the same way: resolve the
// registry spec, fetch weights through the cache, hand the result to the
// llama.cpp backend. The TUI consumes load/generation events from its render
// loop; the one-shot commands poll the same event stream in a small loop here.
package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/jeranaias/hearth-tui/internal/config"
	"github.com/jeranaias/hearth-tui/internal/history"
	"github.com/jeranaias/hearth-tui/internal/llm"
	"github.com/jeranaias/hearth-tui/internal/llm/llama"
	"github.com/jeranaias/hearth-tui/internal/modelcache"
	"github.com/jeranaias/hearth-tui/internal/session"
)

// eventPollInterval is how often the CLI drains controller events while
// waiting for a load or generation to finish.
const eventPollInterval = 25 * time.Millisecond

// ResolveModelID picks the model for a command: the CLI flag wins, then the
// configured default, then the registry default. Accepts ids or (partial)
// display names and always returns a canonical registry id.
func ResolveModelID(args Args, cfg *config.Config) (string, error) {
	name := args.Model
	if name == "" {
		name = cfg.DefaultModel
	}
	if name == "" {
		name = modelcache.DefaultModelID
	}

	spec, ok := modelcache.Lookup(name)
	if !ok {
		return "", NewNotFoundError("model", name)
	}
	return spec.ID, nil
}

// NewLoadFunc builds the session load function used by every surface. The
// returned function runs on the controller's worker goroutine.
func NewLoadFunc(cfg *config.Config) session.LoadFunc {
	return func(ctx context.Context, modelID string, progress func(file string, fraction float64)) (*session.Model, error) {
		spec, ok := modelcache.Lookup(modelID)
		if !ok {
			return nil, &llm.LoadError{Model: modelID, Err: fmt.Errorf("not in the model registry (see 'hearth models')")}
		}

		modelsDir, err := cfg.ModelsDir()
		if err != nil {
			return nil, &llm.LoadError{Model: spec.ID, Err: err}
		}
		cache, err := modelcache.New(modelsDir)
		if err != nil {
			return nil, &llm.LoadError{Model: spec.ID, Err: err}
		}

		weights, err := cache.Resolve(ctx, spec, progress)
		if err != nil {
			return nil, &llm.LoadError{Model: spec.ID, Err: err}
		}

		// The model's trained context wins unless the config asks for less.
		contextLength := spec.ContextLength
		if cfg.Generation.ContextLength > 0 && cfg.Generation.ContextLength < contextLength {
			contextLength = cfg.Generation.ContextLength
		}

		engine, err := llama.New(llama.Config{
			WeightsPath:   weights,
			ContextLength: contextLength,
			Threads:       cfg.Generation.Threads,
			GPULayers:     cfg.Generation.GPULayers,
		})
		if err != nil {
			// llama.New already reports a LoadError
			return nil, err
		}

		return &session.Model{
			ID:       spec.ID,
			Engine:   engine,
			Template: spec.Template,
		}, nil
	}
}

// newSessionController wires a controller for a CLI command: durable history
// when enabled, the shared load function, and the configured generation
// limits. History trouble degrades with a warning rather than blocking the
// command: an unresolvable path disables persistence, a corrupt log keeps
// the entries parsed before the corruption.
func newSessionController(cfg *config.Config) (*session.Controller, *history.Store) {
	var store *history.Store
	if cfg.History.Enabled {
		path, err := cfg.HistoryPath()
		if err != nil {
			StderrPrint("Warning: history disabled: %v\n", err)
		} else {
			var loadErr error
			store, loadErr = history.OpenWithLimit(path, cfg.History.MaxEntries)
			if loadErr != nil {
				StderrPrint("Warning: history: %v\n", loadErr)
			}
		}
	}

	ctrl := session.New(session.Options{
		History:   store,
		Load:      NewLoadFunc(cfg),
		MaxTokens: cfg.Generation.MaxTokens,
		Seed:      cfg.Generation.Seed,
	})
	return ctrl, store
}

// waitForLoad blocks until the in-flight model load finishes, rendering
// download progress to stderr unless quiet. Returns the load error, if any.
func waitForLoad(ctrl *session.Controller, quiet bool) error {
	progressShown := false
	endProgress := func() {
		if progressShown {
			StderrPrint("\n")
		}
	}

	for {
		for _, ev := range ctrl.PollEvents() {
			switch ev := ev.(type) {
			case session.LoadProgress:
				if quiet {
					continue
				}
				progressShown = true
				if ev.Fraction < 0 {
					StderrPrint("\rPulling %s ...", ev.File)
				} else {
					StderrPrint("\rPulling %s %3.0f%%", ev.File, ev.Fraction*100)
				}
			case session.LoadCompleted:
				endProgress()
				return nil
			case session.LoadFailed:
				endProgress()
				return ev.Err
			}
		}
		time.Sleep(eventPollInterval)
	}
}

// generationOutcome is the terminal result of one generation as seen by a
// CLI command.
type generationOutcome struct {
	Reply      string
	Result     llm.Result
	HistoryID  uint64
	HistoryErr error
	Cancelled  bool
}

// runGeneration submits a prompt and blocks until its terminal event,
// forwarding fragments to onFragment as they stream. Exactly one of the
// outcome or the error is meaningful; a cancelled generation is not an
// error.
func runGeneration(ctrl *session.Controller, prompt string, mode llm.Mode, onFragment func(string)) (generationOutcome, error) {
	if err := ctrl.Submit(prompt, mode); err != nil {
		return generationOutcome{}, err
	}

	for {
		for _, ev := range ctrl.PollEvents() {
			switch ev := ev.(type) {
			case session.TokenFragment:
				if onFragment != nil {
					onFragment(ev.Text)
				}
			case session.Completed:
				return generationOutcome{
					Reply:      ev.Reply,
					Result:     ev.Result,
					HistoryID:  ev.HistoryID,
					HistoryErr: ev.HistoryErr,
				}, nil
			case session.Cancelled:
				return generationOutcome{Cancelled: true}, nil
			case session.Failed:
				return generationOutcome{}, ev.Err
			}
		}
		time.Sleep(eventPollInterval)
	}
}
