// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/hearth-tui/internal/config"
	"github.com/jeranaias/hearth-tui/internal/history"
	"github.com/jeranaias/hearth-tui/internal/llm"
	"github.com/jeranaias/hearth-tui/internal/model"
	"github.com/jeranaias/hearth-tui/internal/modelcache"
	"github.com/jeranaias/hearth-tui/internal/session"
	"github.com/jeranaias/hearth-tui/internal/ui/components"
	"github.com/jeranaias/hearth-tui/internal/ui/styles"
)

// =============================================================================
// MODEL
// =============================================================================

// Options configures a chat Model.
type Options struct {
	Theme      *styles.Theme
	Controller *session.Controller
	Store      *history.Store    // nil disables prompt recall and history search
	Cache      *modelcache.Cache // nil hides install badges in the model picker
	Preset     string            // generation preset name; empty selects careful
}

// Model is the Bubble Tea model for the chat interface. It owns the
// conversation transcript and translates session controller events into UI
// state; the controller owns the generation worker.
type Model struct {
	theme *styles.Theme

	// Terminal dimensions
	width  int
	height int

	// Session plumbing
	controller *session.Controller
	polling    bool // poll tick loop is scheduled

	// Conversation and persistence
	conversation *model.Conversation
	store        *history.Store
	cache        *modelcache.Cache
	navigator    *history.Navigator

	// Prompt recall state (Up/Down in the input field)
	recalling   bool
	recallStash string // user's in-progress text, restored when recall walks past newest

	// Generation preset
	presetName string
	genMode    llm.Mode

	// UI components
	viewport  viewport.Model
	input     textinput.Model
	optimizer *ViewportOptimizer
	picker    *components.Picker
	keyMap    KeyMap

	// Model load progress
	loadProgress *components.ProgressIndicator

	// History search overlay
	searchMode    bool
	searchInput   textinput.Model
	searchMatches []history.Match
	searchIndex   int

	// Overlays and transient state
	showHelp  bool
	lastError *ErrorMsg
	statusMsg string
	inputMode bool
}

// New creates a chat model wired to the given session controller.
func New(opts Options) Model {
	// Create text input with prompt
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Type a message..."
	ti.CharLimit = 4096
	ti.Focus()

	// Create viewport
	vp := viewport.New(80, 20)
	vp.SetContent("")

	// Create the history search input
	searchInput := textinput.New()
	searchInput.Prompt = "search> "
	searchInput.Placeholder = "fuzzy match your prompt history..."
	searchInput.CharLimit = 256

	conv := model.NewConversation()
	if opts.Controller != nil {
		conv.Model = opts.Controller.ModelID()
	}

	presetName := opts.Preset
	if presetName == "" {
		presetName = llm.PresetCareful
	}
	genMode, err := llm.PresetMode(presetName)
	if err != nil {
		presetName = llm.PresetCareful
		genMode, _ = llm.PresetMode(presetName)
	}

	var nav *history.Navigator
	if opts.Store != nil {
		nav = history.NewNavigator(opts.Store)
	}

	return Model{
		theme:        opts.Theme,
		controller:   opts.Controller,
		conversation: conv,
		store:        opts.Store,
		cache:        opts.Cache,
		navigator:    nav,
		presetName:   presetName,
		genMode:      genMode,
		viewport:     vp,
		input:        ti,
		searchInput:  searchInput,
		optimizer:    NewViewportOptimizer(),
		picker:       components.NewPicker("Switch model", opts.Theme),
		keyMap:       DefaultKeyMap(),
		inputMode:    true, // Start in input mode (focused on text input)
		polling:      true, // Init schedules the first poll tick
	}
}

// Init starts the cursor blink and the first event drain. The first tick
// picks up events from a model load started before the program ran.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, pollTick())
}

// View renders the chat view.
func (m Model) View() string {
	return m.renderChat()
}

// =============================================================================
// UPDATE
// =============================================================================

// Update handles incoming messages and updates the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case PollTickMsg:
		return m.handlePollTick(msg)

	case components.PickedMsg:
		return m.loadModel(msg.ID)

	default:
		// For any unhandled messages (cursor blink etc.), update the
		// focused inputs and always update the viewport for scroll events.
		if m.inputMode {
			var inputCmd tea.Cmd
			m.input, inputCmd = m.input.Update(msg)
			cmds = append(cmds, inputCmd)
		}
		if m.searchMode {
			var searchCmd tea.Cmd
			m.searchInput, searchCmd = m.searchInput.Update(msg)
			cmds = append(cmds, searchCmd)
		}

		var vpCmd tea.Cmd
		m.viewport, vpCmd = m.viewport.Update(msg)
		cmds = append(cmds, vpCmd)

		return m, tea.Batch(cmds...)
	}
}

// =============================================================================
// RESIZE HANDLING
// =============================================================================

func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	// Apply resize immediately - Bubble Tea handles resize events efficiently
	// and debouncing with time.Sleep causes UI freezes during window drag
	m.width = msg.Width
	m.height = msg.Height

	m.layoutViewport()

	// Update input width:
	// Layout: inputLine has Width(width-4) with Padding(0,1) giving effective content width of (width-6)
	// The textinput renders as: prompt (2 chars "> ") + input value
	// So textinput.Width should be: (width - 6) - prompt_length(2) = width - 8
	// This ensures the full textinput fits within the padded line without overflow
	const promptLen = 2 // "> "
	inputWidth := m.width - 6 - promptLen
	if inputWidth < 10 {
		inputWidth = 10
	}
	m.input.Width = inputWidth

	// Update theme dimensions
	if m.theme != nil {
		m.theme.SetSize(m.width, m.height)
	}

	// Update model picker dimensions
	if m.picker != nil {
		m.picker.SetSize(m.width, m.height)
	}

	// The same transcript re-wraps to different lines at a new width, so the
	// content hash must not suppress this render.
	m.optimizer.ForceUpdate()
	m.updateViewport()

	// Also forward the resize to viewport so it can update internal state
	var vpCmd tea.Cmd
	m.viewport, vpCmd = m.viewport.Update(msg)

	return m, vpCmd
}

// layoutViewport recomputes the viewport dimensions from the terminal size
// and which chrome is currently visible.
//
// IMPORTANT: These constants MUST stay in sync with the actual rendered
// heights in view.go renderChat(). The renderChat() function measures actual
// heights using lipgloss.Height() and has a fallback if there's a mismatch,
// but these values should be conservative (larger) to ensure the viewport is
// never too tall.
func (m *Model) layoutViewport() {
	const (
		headerHeight    = 2 // Conservative to account for styling/padding
		inputAreaHeight = 4 // Separator + input line + char count + buffer
		statusBarHeight = 2 // Conservative to account for styling/padding
		progressHeight  = 8 // Bordered load progress box
	)

	reservedHeight := headerHeight + inputAreaHeight + statusBarHeight
	if m.loadProgress != nil {
		reservedHeight += progressHeight
	}

	viewportHeight := m.height - reservedHeight
	if viewportHeight < 1 {
		viewportHeight = 1
	}

	// Viewport width is full terminal width (content handles its own margins)
	viewportWidth := m.width
	if viewportWidth < 1 {
		viewportWidth = 1
	}

	m.viewport.Width = viewportWidth
	m.viewport.Height = viewportHeight
}

// updateViewport re-renders the transcript into the viewport, skipping the
// SetContent when nothing actually changed.
func (m *Model) updateViewport() {
	content := m.renderMessages()
	if m.optimizer.ShouldUpdate(content) {
		m.viewport.SetContent(content)
		m.optimizer.MarkClean()
	}
}

// =============================================================================
// KEY HANDLING
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	keyStr := msg.String()

	// Emergency quit works from anywhere
	if keyStr == "ctrl+q" {
		return m, tea.Quit
	}

	// Model picker gets keys first while visible
	if m.picker != nil && m.picker.IsVisible() {
		var cmd tea.Cmd
		m.picker, cmd = m.picker.Update(msg)
		return m, cmd
	}

	// Help overlay: dismiss keys close it, everything else is swallowed
	if m.showHelp {
		switch keyStr {
		case "?", "esc", "q", "enter":
			m.showHelp = false
		}
		return m, nil
	}

	// History search overlay
	if m.searchMode {
		return m.handleSearchKey(msg)
	}

	// Blocking error overlay. Dismissing it also releases the session from
	// its errored state so the next prompt can start.
	if m.lastError != nil {
		switch keyStr {
		case "esc", "enter", " ":
			m.lastError = nil
			m.controller.Dismiss()
			m.inputMode = true
			m.input.Focus()
			return m, textinput.Blink
		}
		return m, nil
	}

	// Global shortcuts
	switch keyStr {
	case "ctrl+c":
		if m.controller.State() == session.StateGenerating {
			m.controller.Cancel()
			m.statusMsg = "Cancelling..."
		}
		return m, nil

	case "ctrl+p":
		m.picker.SetItems(m.modelPickerItems())
		m.picker.Toggle()
		if m.picker.IsVisible() {
			return m, m.picker.Focus()
		}
		return m, nil

	case "ctrl+f":
		return m.enterSearchMode("")

	case "ctrl+l":
		m.clearConversation()
		return m, nil

	case "ctrl+r":
		m.cyclePreset()
		return m, nil

	case "ctrl+y":
		return m.copyLastReply()

	case "?":
		// Toggle help unless the user is typing a literal '?'
		if !m.inputMode || m.input.Value() == "" {
			m.showHelp = true
			return m, nil
		}
	}

	// Busy states: Esc cancels the work, navigation still scrolls
	switch m.controller.State() {
	case session.StateGenerating:
		if keyStr == "esc" {
			m.controller.Cancel()
			m.statusMsg = "Cancelling..."
			return m, nil
		}
		return m.handleNavigationKeys(msg)

	case session.StateLoading:
		if keyStr == "esc" {
			m.controller.CancelLoad()
			return m, nil
		}
		return m.handleNavigationKeys(msg)
	}

	// Normal mode: navigation plus vim-like entry points
	if !m.inputMode {
		switch keyStr {
		case "i":
			m.inputMode = true
			m.input.Focus()
			return m, textinput.Blink

		case "a":
			m.inputMode = true
			m.input.Focus()
			m.input.CursorEnd()
			return m, textinput.Blink

		case "q":
			return m, tea.Quit

		case "/":
			return m.enterSearchMode("")
		}
		return m.handleNavigationKeys(msg)
	}

	// Input mode
	switch keyStr {
	case "esc":
		m.inputMode = false
		m.recalling = false
		m.input.Blur()
		return m, nil

	case "enter":
		if strings.TrimSpace(m.input.Value()) != "" {
			return m.submitInput()
		}
		return m, nil

	case "up":
		return m.recallOlder()

	case "down":
		return m.recallNewer()

	case "pgup", "pgdown":
		// Scroll the transcript while composing
		return m.handleNavigationKeys(msg)
	}

	// Any other key edits the input, which invalidates an active recall walk
	m.recalling = false
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleNavigationKeys handles viewport scrolling shortcuts.
func (m Model) handleNavigationKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	// Page navigation
	case "pgup", "ctrl+u":
		m.viewport.HalfViewUp()
		return m, nil

	case "pgdown", "ctrl+d":
		m.viewport.HalfViewDown()
		return m, nil

	// Line-by-line navigation (vim-like)
	case "up", "k":
		m.viewport.LineUp(1)
		return m, nil

	case "down", "j":
		m.viewport.LineDown(1)
		return m, nil

	// Go to top/bottom
	case "home", "g":
		m.viewport.GotoTop()
		return m, nil

	case "end", "G":
		m.viewport.GotoBottom()
		return m, nil
	}

	return m, nil
}

// =============================================================================
// HISTORY SEARCH
// =============================================================================

// enterSearchMode opens the history search overlay. An empty query lists the
// most recent prompts, so the overlay is immediately useful.
func (m Model) enterSearchMode(initial string) (tea.Model, tea.Cmd) {
	if m.store == nil {
		m.statusMsg = "History is disabled"
		return m, nil
	}
	m.searchMode = true
	m.searchInput.SetValue(initial)
	m.searchInput.CursorEnd()
	m.searchInput.Focus()
	m.runSearch()
	return m, textinput.Blink
}

func (m *Model) exitSearchMode() {
	m.searchMode = false
	m.searchInput.Reset()
	m.searchInput.Blur()
	m.searchMatches = nil
	m.searchIndex = 0
}

func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "ctrl+f":
		m.exitSearchMode()
		return m, nil

	case "enter":
		// Recall the selected prompt into the input field
		if m.searchIndex >= 0 && m.searchIndex < len(m.searchMatches) {
			prompt := m.searchMatches[m.searchIndex].Entry.Prompt
			m.exitSearchMode()
			m.inputMode = true
			m.recalling = false
			m.input.SetValue(prompt)
			m.input.CursorEnd()
			m.input.Focus()
			return m, textinput.Blink
		}
		m.exitSearchMode()
		return m, nil

	case "down", "ctrl+n", "tab":
		if len(m.searchMatches) > 0 {
			m.searchIndex = (m.searchIndex + 1) % len(m.searchMatches)
		}
		return m, nil

	case "up", "ctrl+p":
		if len(m.searchMatches) > 0 {
			m.searchIndex = (m.searchIndex - 1 + len(m.searchMatches)) % len(m.searchMatches)
		}
		return m, nil
	}

	previous := m.searchInput.Value()
	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	if m.searchInput.Value() != previous {
		m.runSearch()
	}
	return m, cmd
}

// runSearch refreshes the match list from the history store.
func (m *Model) runSearch() {
	if m.store == nil {
		m.searchMatches = nil
		m.searchIndex = 0
		return
	}
	m.searchMatches = m.store.Search(m.searchInput.Value())
	m.searchIndex = 0
}

// =============================================================================
// SESSION ACTIONS
// =============================================================================

// loadModel asks the controller to load a model; progress arrives as events.
func (m Model) loadModel(id string) (tea.Model, tea.Cmd) {
	if err := m.controller.LoadModel(id); err != nil {
		switch {
		case errors.Is(err, session.ErrBusy):
			m.statusMsg = "Finish or cancel the current generation first"
		case errors.Is(err, session.ErrLoading):
			m.statusMsg = "A model is already loading"
		default:
			m.statusMsg = "Load failed: " + err.Error()
		}
		return m, nil
	}
	return m, m.startPolling()
}

// cyclePreset rotates careful -> creative -> deranged on Ctrl+R.
func (m *Model) cyclePreset() {
	names := llm.PresetNames()
	next := names[0]
	for i, name := range names {
		if name == m.presetName {
			next = names[(i+1)%len(names)]
			break
		}
	}
	if err := m.applyPreset(next); err != nil {
		m.statusMsg = "Preset error: " + err.Error()
		return
	}
	m.conversation.AddSystemMessage("Generation preset: " + next)
	m.updateViewport()
	m.viewport.GotoBottom()
}

// applyPreset switches the sampling mode used for subsequent prompts.
func (m *Model) applyPreset(name string) error {
	genMode, err := llm.PresetMode(name)
	if err != nil {
		return err
	}
	m.presetName = name
	m.genMode = genMode
	m.statusMsg = "Preset: " + name
	if cfg := config.Global(); cfg != nil {
		cfg.Generation.Preset = name
	}
	return nil
}

// copyLastReply copies the most recent assistant reply to the clipboard.
func (m Model) copyLastReply() (tea.Model, tea.Cmd) {
	last := m.conversation.LastAssistantMessage()
	if last == nil || last.Content == "" {
		m.statusMsg = "Nothing to copy yet"
		return m, nil
	}

	if err := copyToClipboard(last.Content); err != nil {
		m.statusMsg = "Copy failed: " + err.Error()
		return m, nil
	}

	chars := len(last.Content)
	sizeInfo := formatInt(chars) + " chars"
	if chars >= 1000 {
		sizeInfo = formatInt(chars/1000) + "." + formatInt((chars%1000)/100) + "K chars"
	}
	m.statusMsg = "Copied last reply (" + sizeInfo + ")"
	return m, nil
}

// clearConversation empties the transcript but keeps the loaded model and
// archived history.
func (m *Model) clearConversation() {
	m.conversation.Clear()
	m.optimizer.Reset()
	m.updateViewport()
	m.viewport.GotoTop()
	m.statusMsg = "Conversation cleared"
}

// modelPickerItems builds the picker list from the model registry, badging
// the loaded model and any cached weights.
func (m Model) modelPickerItems() []components.PickerItem {
	ids := modelcache.IDs()
	items := make([]components.PickerItem, 0, len(ids))
	for _, id := range ids {
		spec := modelcache.Registry[id]

		badge := ""
		if m.cache != nil && m.cache.IsCached(spec) {
			badge = "installed"
		}
		if id == m.controller.ModelID() {
			badge = "loaded"
		}

		items = append(items, components.PickerItem{
			ID:          id,
			Title:       spec.Name,
			Description: spec.Params + ", " + spec.SizeString() + ", " + spec.ContextString(),
			Badge:       badge,
		})
	}
	return items
}
