// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/jeranaias/hearth-tui/internal/history"
	"github.com/jeranaias/hearth-tui/internal/llm"
	"github.com/jeranaias/hearth-tui/internal/logger"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrBusy rejects a submission or load while a generation is in
	// flight; only one concurrent session is permitted.
	ErrBusy = errors.New("a generation is already in flight")

	// ErrLoading rejects a submission or load while a model load is in
	// progress.
	ErrLoading = errors.New("a model load is in progress")

	// ErrNoModel rejects a submission before any model has been loaded.
	ErrNoModel = errors.New("no model is loaded")
)

// =============================================================================
// MODEL BINDING
// =============================================================================

// Model bundles a ready engine with the prompt template its weights were
// trained for. Produced by the LoadFunc, owned by the controller.
type Model struct {
	ID       string
	Engine   llm.Engine
	Template string // contains "{prompt}" where the user text goes
}

// BuildPrompt applies the chat template to the raw user text. An empty
// template passes the text through unchanged.
func (m *Model) BuildPrompt(raw string) string {
	if m.Template == "" {
		return raw
	}
	return strings.ReplaceAll(m.Template, "{prompt}", raw)
}

// LoadFunc resolves a model id into a ready Model, downloading weights if
// needed. It runs on a worker goroutine; progress calls are forwarded to
// the UI as LoadProgress events.
type LoadFunc func(ctx context.Context, modelID string, progress func(file string, fraction float64)) (*Model, error)

// =============================================================================
// CONTROLLER
// =============================================================================

// Options configures a Controller.
type Options struct {
	// History receives the prompt/reply pair of every completed
	// generation. Nil disables persistence.
	History *history.Store

	// Load resolves model ids; required for LoadModel.
	Load LoadFunc

	// MaxTokens is the per-reply budget. 0 means llm.DefaultMaxTokens.
	MaxTokens int

	// Seed seeds each generation's sampler. 0 means time-based.
	Seed int64

	// EventBuffer caps queued events between polls. 0 means 1024.
	EventBuffer int
}

// Controller owns the background worker running the generation loop. All
// exported methods are safe for the interactive thread; PollEvents must be
// called from a single goroutine (the render loop).
type Controller struct {
	mu    sync.Mutex
	state State
	model *Model
	opts  Options

	nextRequestID uint64
	activeID      uint64
	activePrompt  string // raw user text of the in-flight request
	cancelGen     context.CancelFunc
	cancelLoad    context.CancelFunc

	events    chan Event
	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup

	log *logger.Logger
}

// New creates an idle controller with no model loaded.
func New(opts Options) *Controller {
	buffer := opts.EventBuffer
	if buffer <= 0 {
		buffer = 1024
	}
	return &Controller{
		state:         StateIdle,
		opts:          opts,
		nextRequestID: 1,
		events:        make(chan Event, buffer),
		done:          make(chan struct{}),
		log:           logger.Log.With("session"),
	}
}

// State returns the current session state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// ModelID returns the loaded model's id, or "" when none is loaded.
func (c *Controller) ModelID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.model == nil {
		return ""
	}
	return c.model.ID
}

// =============================================================================
// SUBMIT / CANCEL / POLL
// =============================================================================

// Submit starts a generation for the prompt and returns immediately. A
// finished session (Done/Cancelled/Errored) is implicitly acknowledged back
// to Idle first. Rejected with ErrBusy while generating, ErrLoading while a
// model loads, and ErrNoModel before any load.
func (c *Controller) Submit(prompt string, mode llm.Mode) error {
	c.mu.Lock()

	switch c.state {
	case StateGenerating:
		c.mu.Unlock()
		return ErrBusy
	case StateLoading:
		c.mu.Unlock()
		return ErrLoading
	}
	if c.model == nil {
		c.mu.Unlock()
		return ErrNoModel
	}

	id := c.nextRequestID
	c.nextRequestID++

	ctx, cancel := context.WithCancel(context.Background())
	c.cancelGen = cancel
	c.activeID = id
	c.activePrompt = prompt
	c.state = StateGenerating
	model := c.model
	c.mu.Unlock()

	c.log.Info("generation started", "request_id", id, "model", model.ID, "mode", mode.Kind.String())

	c.wg.Add(1)
	go c.runGeneration(ctx, model, id, prompt, mode)
	return nil
}

// Cancel signals the running generation to stop at its next step boundary.
// Idempotent; a no-op unless the session is Generating.
func (c *Controller) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateGenerating || c.cancelGen == nil {
		return
	}
	c.cancelGen()
}

// CancelLoad aborts an in-flight model load/download. A no-op unless the
// session is Loading.
func (c *Controller) CancelLoad() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateLoading || c.cancelLoad == nil {
		return
	}
	c.cancelLoad()
}

// Dismiss acknowledges a finished generation, returning the session to
// Idle. A no-op in any other state.
func (c *Controller) Dismiss() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Terminal() {
		c.state = StateIdle
	}
}

// PollEvents drains every event currently queued, in arrival order, without
// blocking. State transitions and the history side effect happen here, on
// the polling thread, so history reads never race the append.
func (c *Controller) PollEvents() []Event {
	var out []Event
	for {
		select {
		case ev := <-c.events:
			out = append(out, c.apply(ev))
		default:
			return out
		}
	}
}

// apply performs the state transition (and side effects) an event implies,
// returning the event to hand to the UI. Completed events come back
// annotated with the history append outcome.
func (c *Controller) apply(ev Event) Event {
	switch e := ev.(type) {
	case Completed:
		c.mu.Lock()
		c.state = StateDone
		c.cancelGen = nil
		prompt := c.activePrompt
		c.mu.Unlock()

		if c.opts.History != nil {
			id, err := c.opts.History.Append(prompt, e.Reply)
			if err != nil {
				c.log.Error("history append failed", "request_id", e.RequestID, "error", err)
				e.HistoryErr = err
			} else {
				e.HistoryID = id
			}
		}
		c.log.Info("generation completed", "request_id", e.RequestID,
			"tokens", e.Result.Tokens, "finish", string(e.Result.Finish))
		return e

	case Cancelled:
		c.mu.Lock()
		c.state = StateCancelled
		c.cancelGen = nil
		c.mu.Unlock()
		c.log.Info("generation cancelled", "request_id", e.RequestID)
		return e

	case Failed:
		c.mu.Lock()
		c.state = StateErrored
		c.cancelGen = nil
		c.mu.Unlock()
		c.log.Error("generation failed", "request_id", e.RequestID, "error", e.Err)
		return e

	case LoadCompleted:
		c.mu.Lock()
		c.state = StateIdle
		c.cancelLoad = nil
		c.mu.Unlock()
		c.log.Info("model loaded", "model", e.ModelID)
		return e

	case LoadFailed:
		c.mu.Lock()
		c.state = StateIdle
		c.cancelLoad = nil
		c.mu.Unlock()
		c.log.Error("model load failed", "model", e.ModelID, "error", e.Err)
		return e

	default:
		return ev
	}
}

// =============================================================================
// MODEL LOADING
// =============================================================================

// LoadModel starts loading (and downloading, if uncached) the given model
// on a worker goroutine, returning immediately. Completion or failure
// arrives as a LoadCompleted/LoadFailed event; either way the session ends
// up Idle.
func (c *Controller) LoadModel(modelID string) error {
	c.mu.Lock()
	switch c.state {
	case StateGenerating:
		c.mu.Unlock()
		return ErrBusy
	case StateLoading:
		c.mu.Unlock()
		return ErrLoading
	}
	if c.opts.Load == nil {
		c.mu.Unlock()
		return errors.New("no model loader configured")
	}

	ctx, cancel := context.WithCancel(context.Background())
	c.cancelLoad = cancel
	c.state = StateLoading
	c.mu.Unlock()

	c.log.Info("model load started", "model", modelID)

	c.wg.Add(1)
	go c.runLoad(ctx, modelID)
	return nil
}

// runLoad is the model-load worker. Exactly one LoadCompleted or LoadFailed
// is emitted per call, panics included.
func (c *Controller) runLoad(ctx context.Context, modelID string) {
	defer c.wg.Done()

	var terminal Event
	defer func() {
		if r := recover(); r != nil {
			c.log.Error("load worker panicked", "model", modelID, "panic", r)
			terminal = LoadFailed{ModelID: modelID, Err: fmt.Errorf("model load panicked: %v", r)}
		}
		c.emit(terminal)
	}()

	c.emit(LoadStarted{ModelID: modelID})

	model, err := c.opts.Load(ctx, modelID, func(file string, fraction float64) {
		c.emit(LoadProgress{ModelID: modelID, File: file, Fraction: fraction})
	})
	if err != nil {
		terminal = LoadFailed{ModelID: modelID, Err: err}
		return
	}

	c.mu.Lock()
	old := c.model
	c.model = model
	c.mu.Unlock()

	if old != nil && old.Engine != nil {
		old.Engine.Close()
	}
	terminal = LoadCompleted{ModelID: modelID}
}

// =============================================================================
// GENERATION WORKER
// =============================================================================

// runGeneration is the generation worker. Exactly one terminal event is
// emitted per submitted request: errors and panics both funnel into Failed,
// so the interactive thread always observes an end to the request.
func (c *Controller) runGeneration(ctx context.Context, m *Model, id uint64, rawPrompt string, mode llm.Mode) {
	defer c.wg.Done()

	var terminal Event
	defer func() {
		if r := recover(); r != nil {
			c.log.Error("generation worker panicked", "request_id", id, "panic", r)
			terminal = Failed{RequestID: id, Err: fmt.Errorf("generation panicked: %v", r)}
		}
		c.emit(terminal)
	}()

	req := llm.Request{
		Prompt:    m.BuildPrompt(rawPrompt),
		Mode:      mode,
		MaxTokens: c.opts.MaxTokens,
		Seed:      c.opts.Seed,
	}

	res, err := m.Engine.Generate(ctx, req, func(frag string) {
		c.emit(TokenFragment{RequestID: id, Text: frag})
	})

	switch {
	case ctx.Err() != nil:
		// The user's cancel wins over whatever the backend reported while
		// being torn down.
		terminal = Cancelled{RequestID: id}
	case err != nil:
		terminal = Failed{RequestID: id, Err: err}
	case res.Finish == llm.FinishCancelled:
		terminal = Cancelled{RequestID: id}
	default:
		terminal = Completed{RequestID: id, Reply: res.Reply, Result: res}
	}
}

// emit queues an event for the next poll. Never blocks past controller
// shutdown.
func (c *Controller) emit(ev Event) {
	if ev == nil {
		return
	}
	select {
	case c.events <- ev:
	case <-c.done:
	}
}

// Close cancels any in-flight work, waits for workers to drain, and
// releases the loaded model. The controller is unusable afterwards.
func (c *Controller) Close() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		if c.cancelGen != nil {
			c.cancelGen()
		}
		if c.cancelLoad != nil {
			c.cancelLoad()
		}
		c.mu.Unlock()

		close(c.done)
		c.wg.Wait()

		c.mu.Lock()
		if c.model != nil && c.model.Engine != nil {
			c.model.Engine.Close()
		}
		c.model = nil
		c.mu.Unlock()
	})
}
