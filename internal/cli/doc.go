// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides command-line interface parsing and execution for hearth.
//
// This package implements all CLI commands for the hearth TUI application.
// Every command runs fully offline against local model weights; commands
// that produce output support a --json flag for scripting.
//
// # Key Types
//
//   - Command: Enumeration of all available CLI commands
//   - Args: Parsed command-line arguments with global and command-specific flags
//   - ArgParser: Shared flag/subcommand parsing used by the subcommand parsers
//   - JSONResponse: Envelope for machine-readable output
//
// # Usage
//
// Parse and execute commands:
//
//	cmd, args := cli.Parse()
//	switch cmd {
//	case cli.CmdAsk:
//	    cli.HandleAsk(args)
//	case cli.CmdChat:
//	    cli.HandleChat(args)
//	// ... other commands
//	}
//
// # Commands Overview
//
//   - ask: One-shot prompt, streamed answer, then exit
//   - chat: Interactive line-based chat session
//   - models: List, download, and remove model weights
//   - history: Show or search saved conversations
//   - config: Read and change configuration
//   - doctor: Environment diagnostics with optional auto-fix
//   - version, help: The usual
//
// Running hearth with no command starts the TUI.
package cli
