// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package chat provides the main chat view component for the hearth TUI application.

The chat package implements a complete terminal-based chat interface using the
Bubble Tea framework. It provides an interactive, real-time conversation
experience with local GGUF models running fully on the user's machine.

# Key Components

## Model (model.go)

The Model struct is the central Bubble Tea model that maintains all chat state:
  - Conversation transcript and message management
  - Input handling with prompt recall (Up/Down through past prompts)
  - Viewport for message scrolling
  - Fuzzy history search overlay
  - Generation preset selection (careful, creative, deranged)

## View Rendering (view.go)

Rendering logic for the complete chat interface:
  - Header with model name and session state indicator
  - Message bubbles with role-specific styling (user, assistant, system)
  - Code block syntax highlighting
  - Fuzzy match highlighting with Unicode support
  - Status bar with context usage, preset badge, and session state

## Streaming (streaming.go)

Poll-based streaming of generated replies:
  - A 33ms tick drains pending session events each frame
  - Token fragments append to the last assistant message
  - Terminal events finalize the message and stop the poll loop
  - Model load progress renders as an inline progress block

## Commands (commands.go)

Slash command handler registry supporting:
  - /help - Show available commands
  - /clear, /new - Clear or restart the conversation
  - /model, /models - Switch or list models
  - /preset - Change the generation preset
  - /history, /search - Browse or fuzzy-search the prompt archive
  - /stats, /config, /version - Inspect session and app state

## Input (input.go)

Prompt submission and history recall:
  - Submit routes to the session controller or the command registry
  - Up recalls older prompts, Down walks back toward the draft

## Key Bindings (keys.go)

Central key map plus the context-sensitive help registry that backs
the ? overlay.

# Usage

Create a new chat model and run it as a Bubble Tea program:

	controller := session.New(session.Options{Load: loadFn})
	model := chat.New(chat.Options{
		Controller: controller,
		Store:      store,
		Cache:      cache,
	})
	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		log.Fatal(err)
	}

# Privacy

Everything renders from local state: model weights, the prompt archive,
and configuration all live under ~/.hearth. No conversation content
leaves the machine.
*/
package chat
