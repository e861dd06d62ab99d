// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
//
// This file implements the command handler registry pattern: each slash
// command gets an individual, testable handler function.
package chat

import (
	"fmt"
	"runtime"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/hearth-tui/internal/config"
	"github.com/jeranaias/hearth-tui/internal/export"
	"github.com/jeranaias/hearth-tui/internal/llm"
	"github.com/jeranaias/hearth-tui/internal/model"
	"github.com/jeranaias/hearth-tui/internal/modelcache"
)

// =============================================================================
// COMMAND HANDLER REGISTRY
// =============================================================================

// CommandHandler is a function that handles a specific command.
// It receives the model and command arguments, and returns an updated model and command.
type CommandHandler func(m *Model, args []string) (tea.Model, tea.Cmd)

// commandHandlers maps command names to their handler functions.
var commandHandlers = map[string]CommandHandler{
	// Help & Meta
	"help": handleHelpCommand,
	"h":    handleHelpCommand,
	"?":    handleHelpCommand,
	"quit": handleQuitCommand,
	"q":    handleQuitCommand,
	"exit": handleQuitCommand,

	// Conversation
	"clear":  handleClearCommand,
	"c":      handleClearCommand,
	"new":    handleNewCommand,
	"n":      handleNewCommand,
	"export": handleExportCommand,

	// Models
	"model":  handleModelCommand,
	"m":      handleModelCommand,
	"models": handleModelsCommand,

	// Generation
	"preset": handlePresetCommand,
	"mode":   handlePresetCommand,

	// History
	"history": handleHistoryCommand,
	"hist":    handleHistoryCommand,
	"search":  handleSearchCommand,

	// Status & Information
	"stats":   handleStatsCommand,
	"config":  handleConfigCommand,
	"cfg":     handleConfigCommand,
	"version": handleVersionCommand,
	"ver":     handleVersionCommand,
}

// handleCommand processes slash commands using the command registry pattern.
func (m Model) handleCommand(content string) (tea.Model, tea.Cmd) {
	m.input.Reset()

	// Parse command and arguments
	parts := strings.Fields(content)
	if len(parts) == 0 {
		return m, nil
	}

	cmdName := strings.ToLower(strings.TrimPrefix(parts[0], "/"))
	args := parts[1:]

	// Look up handler in registry
	if handler, ok := commandHandlers[cmdName]; ok {
		return handler(&m, args)
	}

	// Unknown command
	m.conversation.AddSystemMessage("Error: Unknown command '" + content + "'\nType /help for available commands")
	m.updateViewport()
	m.viewport.GotoBottom()
	return m, nil
}

// =============================================================================
// HELP AND META COMMANDS
// =============================================================================

func handleHelpCommand(m *Model, args []string) (tea.Model, tea.Cmd) {
	var sb strings.Builder

	sb.WriteString("Commands:\n")
	sb.WriteString("  /help            Show this help\n")
	sb.WriteString("  /model [id]      Switch model (no argument opens the picker)\n")
	sb.WriteString("  /models          List available models\n")
	sb.WriteString("  /preset [name]   Show or set the generation preset\n")
	sb.WriteString("  /history [n]     Show the last n archived prompts\n")
	sb.WriteString("  /search [query]  Fuzzy-search your prompt history\n")
	sb.WriteString("  /clear           Clear the conversation\n")
	sb.WriteString("  /new             Start a fresh conversation\n")
	sb.WriteString("  /export [fmt]    Save the conversation to a file (md or json)\n")
	sb.WriteString("  /stats           Session statistics\n")
	sb.WriteString("  /config          Show the active configuration\n")
	sb.WriteString("  /version         Version information\n")
	sb.WriteString("  /quit            Exit\n")
	sb.WriteString("\n")
	sb.WriteString("Keys:\n")
	sb.WriteString("  Up/Down          Recall older/newer prompts while typing\n")
	sb.WriteString("  Ctrl+F           Search prompt history\n")
	sb.WriteString("  Ctrl+P           Switch model\n")
	sb.WriteString("  Ctrl+R           Cycle generation preset\n")
	sb.WriteString("  Ctrl+Y           Copy the last reply\n")
	sb.WriteString("  Esc              Cancel a running generation\n")
	sb.WriteString("\n")
	sb.WriteString("Press ? outside the input for the full shortcut list.")

	m.conversation.AddSystemMessage(sb.String())
	m.updateViewport()
	m.viewport.GotoBottom()
	return m, nil
}

func handleQuitCommand(m *Model, args []string) (tea.Model, tea.Cmd) {
	return m, tea.Quit
}

// =============================================================================
// CONVERSATION COMMANDS
// =============================================================================

func handleClearCommand(m *Model, args []string) (tea.Model, tea.Cmd) {
	m.clearConversation()
	return m, nil
}

func handleNewCommand(m *Model, args []string) (tea.Model, tea.Cmd) {
	m.conversation = newConversation(m)
	m.optimizer.Reset()
	m.updateViewport()
	m.viewport.GotoTop()
	m.statusMsg = "New conversation"
	return m, nil
}

// handleExportCommand saves the conversation to a file.
// Usage: /export [md|json] [open]. Markdown is the default.
func handleExportCommand(m *Model, args []string) (tea.Model, tea.Cmd) {
	if m.conversation.IsEmpty() {
		m.statusMsg = "Nothing to export yet"
		return m, nil
	}

	format := "md"
	opts := export.DefaultOptions()
	for _, arg := range args {
		switch strings.ToLower(arg) {
		case "md", "markdown", "json":
			format = strings.ToLower(arg)
		case "open":
			opts.OpenAfterExport = true
		default:
			m.conversation.AddSystemMessage("Usage: /export [md|json] [open]")
			m.updateViewport()
			m.viewport.GotoBottom()
			return m, nil
		}
	}

	exporter, err := export.ByFormat(format, opts)
	if err != nil {
		m.conversation.AddSystemMessage("Export failed: " + err.Error())
		m.updateViewport()
		m.viewport.GotoBottom()
		return m, nil
	}

	// Export a snapshot so a reply still streaming is materialized and
	// the write never races the generation worker.
	path, err := export.ExportToFile(m.conversation.Clone(), exporter, opts)
	if err != nil {
		m.conversation.AddSystemMessage("Export failed: " + err.Error())
	} else {
		m.conversation.AddSystemMessage("Exported to " + path)
	}
	m.updateViewport()
	m.viewport.GotoBottom()
	return m, nil
}

// =============================================================================
// MODEL COMMANDS
// =============================================================================

func handleModelCommand(m *Model, args []string) (tea.Model, tea.Cmd) {
	// No argument: open the picker
	if len(args) == 0 {
		m.picker.SetItems(m.modelPickerItems())
		m.picker.Show()
		return m, m.picker.Focus()
	}

	spec, ok := modelcache.Lookup(args[0])
	if !ok {
		m.conversation.AddSystemMessage("Error: Unknown model '" + args[0] + "'\nType /models to see what is available")
		m.updateViewport()
		m.viewport.GotoBottom()
		return m, nil
	}

	if spec.ID == m.controller.ModelID() {
		m.statusMsg = "Model " + spec.ID + " is already loaded"
		return m, nil
	}

	return m.loadModel(spec.ID)
}

func handleModelsCommand(m *Model, args []string) (tea.Model, tea.Cmd) {
	var sb strings.Builder
	sb.WriteString("Available models:\n")

	for _, id := range modelcache.IDs() {
		spec := modelcache.Registry[id]

		mark := " "
		if m.cache != nil && m.cache.IsCached(spec) {
			mark = "+"
		}
		if id == m.controller.ModelID() {
			mark = "*"
		}

		sb.WriteString(fmt.Sprintf("  %s %-24s %-8s %-10s %s\n",
			mark, id, spec.Params, spec.SizeString(), spec.ContextString()))
	}

	sb.WriteString("\n'+' = downloaded, '*' = loaded. Switch with /model <id>.")

	m.conversation.AddSystemMessage(sb.String())
	m.updateViewport()
	m.viewport.GotoBottom()
	return m, nil
}

// =============================================================================
// GENERATION COMMANDS
// =============================================================================

// presetDescriptions summarizes each preset for /preset output.
var presetDescriptions = map[string]string{
	llm.PresetCareful:  "deterministic, repetition-penalized (the default)",
	llm.PresetCreative: "temperature 2.0, top-k 5",
	llm.PresetDeranged: "temperature 5.0, top-k 10, heavy repetition penalty",
}

func handlePresetCommand(m *Model, args []string) (tea.Model, tea.Cmd) {
	if len(args) == 0 {
		var sb strings.Builder
		sb.WriteString("Generation preset: " + m.presetName + "\n\n")
		for _, name := range llm.PresetNames() {
			marker := "  "
			if name == m.presetName {
				marker = "* "
			}
			sb.WriteString(fmt.Sprintf("%s%-10s %s\n", marker, name, presetDescriptions[name]))
		}
		sb.WriteString("\nUsage: /preset <name>")

		m.conversation.AddSystemMessage(sb.String())
		m.updateViewport()
		m.viewport.GotoBottom()
		return m, nil
	}

	name := strings.ToLower(args[0])
	if err := m.applyPreset(name); err != nil {
		m.conversation.AddSystemMessage("Error: Unknown preset '" + args[0] + "'\nValid presets: " + strings.Join(llm.PresetNames(), ", "))
		m.updateViewport()
		m.viewport.GotoBottom()
		return m, nil
	}

	m.conversation.AddSystemMessage("Generation preset: " + name)
	m.updateViewport()
	m.viewport.GotoBottom()
	return m, nil
}

// =============================================================================
// HISTORY COMMANDS
// =============================================================================

func handleHistoryCommand(m *Model, args []string) (tea.Model, tea.Cmd) {
	if m.store == nil {
		m.conversation.AddSystemMessage("History is disabled")
		m.updateViewport()
		m.viewport.GotoBottom()
		return m, nil
	}

	n := 10
	if len(args) > 0 {
		parsed, err := strconv.Atoi(args[0])
		if err != nil {
			m.conversation.AddSystemMessage("Error: Invalid number '" + args[0] + "'\nUsage: /history [n]")
			m.updateViewport()
			m.viewport.GotoBottom()
			return m, nil
		}
		if parsed <= 0 {
			m.conversation.AddSystemMessage("Error: Number must be positive\nUsage: /history [n]")
			m.updateViewport()
			m.viewport.GotoBottom()
			return m, nil
		}
		n = parsed
	}

	entries := m.store.Entries()
	if len(entries) == 0 {
		m.conversation.AddSystemMessage("No archived prompts yet")
		m.updateViewport()
		m.viewport.GotoBottom()
		return m, nil
	}

	start := len(entries) - n
	if start < 0 {
		start = 0
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Last %d prompts (oldest first):\n", len(entries)-start))
	for _, entry := range entries[start:] {
		sb.WriteString(fmt.Sprintf("  #%d  %s  %s\n",
			entry.ID, formatTimestamp(entry.Timestamp), truncateRunes(entry.Prompt, 56)))
	}
	sb.WriteString("\nRecall one with Up in the input, or /search.")

	m.conversation.AddSystemMessage(sb.String())
	m.updateViewport()
	m.viewport.GotoBottom()
	return m, nil
}

func handleSearchCommand(m *Model, args []string) (tea.Model, tea.Cmd) {
	return m.enterSearchMode(strings.Join(args, " "))
}

// =============================================================================
// STATUS COMMANDS
// =============================================================================

func handleStatsCommand(m *Model, args []string) (tea.Model, tea.Cmd) {
	var sb strings.Builder
	sb.WriteString("Session statistics:\n")
	sb.WriteString(fmt.Sprintf("  Messages:         %d\n", m.conversation.MessageCount()))
	sb.WriteString(fmt.Sprintf("  Context tokens:   ~%s of %s (%.1f%%)\n",
		formatNumberWithCommas(m.conversation.EstimateTokens()),
		formatNumberWithCommas(m.conversation.MaxTokens),
		m.conversation.ContextPercent))

	if m.store != nil {
		sb.WriteString(fmt.Sprintf("  Archived prompts: %d\n", m.store.Len()))
	} else {
		sb.WriteString("  Archived prompts: history disabled\n")
	}

	total, skipped, efficiency := m.optimizer.GetStats()
	sb.WriteString(fmt.Sprintf("  Viewport updates: %d (%d skipped, %.1f%% saved)\n", total, skipped, efficiency))
	sb.WriteString("  Session state:    " + m.controller.State().String())

	m.conversation.AddSystemMessage(sb.String())
	m.updateViewport()
	m.viewport.GotoBottom()
	return m, nil
}

func handleConfigCommand(m *Model, args []string) (tea.Model, tea.Cmd) {
	cfg := config.Global()
	if cfg == nil {
		m.conversation.AddSystemMessage("No configuration loaded")
		m.updateViewport()
		m.viewport.GotoBottom()
		return m, nil
	}

	seed := "time-based"
	if cfg.Generation.Seed != 0 {
		seed = strconv.FormatInt(cfg.Generation.Seed, 10)
	}

	var sb strings.Builder
	sb.WriteString("Configuration:\n")
	sb.WriteString("  Default model: " + cfg.DefaultModel + "\n")
	sb.WriteString("  Preset:        " + cfg.Generation.Preset + "\n")
	sb.WriteString(fmt.Sprintf("  Max tokens:    %d\n", cfg.Generation.MaxTokens))
	sb.WriteString("  Seed:          " + seed + "\n")
	sb.WriteString(fmt.Sprintf("  History:       enabled=%v path=%s\n", cfg.History.Enabled, cfg.History.Path))
	sb.WriteString("  Models dir:    " + cfg.Models.Dir + "\n")
	sb.WriteString("\nEdit with: hearth config set <key> <value>")

	m.conversation.AddSystemMessage(sb.String())
	m.updateViewport()
	m.viewport.GotoBottom()
	return m, nil
}

func handleVersionCommand(m *Model, args []string) (tea.Model, tea.Cmd) {
	var sb strings.Builder
	sb.WriteString("Version Information:\n")
	sb.WriteString("  hearth: 0.1.0\n")
	sb.WriteString("  go: " + runtime.Version() + "\n")
	sb.WriteString("  platform: " + runtime.GOOS + "/" + runtime.GOARCH)

	m.conversation.AddSystemMessage(sb.String())
	m.updateViewport()
	m.viewport.GotoBottom()
	return m, nil
}

// =============================================================================
// CONVERSATION HELPER
// =============================================================================

// newConversation creates a fresh conversation bound to the loaded model.
func newConversation(m *Model) *model.Conversation {
	conv := model.NewConversation()
	conv.Model = m.controller.ModelID()
	return conv
}
