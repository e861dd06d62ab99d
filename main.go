// hearth - A warm terminal interface for local LLM chat.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/hearth-tui/internal/cli"
	"github.com/jeranaias/hearth-tui/internal/config"
	"github.com/jeranaias/hearth-tui/internal/history"
	"github.com/jeranaias/hearth-tui/internal/modelcache"
	"github.com/jeranaias/hearth-tui/internal/session"
	"github.com/jeranaias/hearth-tui/internal/ui/chat"
	"github.com/jeranaias/hearth-tui/internal/ui/styles"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	// Sync version info with cli package
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	// Parse CLI arguments
	cmd, args := cli.Parse()

	// Route to appropriate handler
	switch cmd {
	case cli.CmdTUI:
		runTUI(args)
	case cli.CmdAsk:
		cli.HandleAsk(args)
	case cli.CmdChat:
		cli.HandleChat(args)
	case cli.CmdModels:
		cli.HandleModels(args)
	case cli.CmdHistory:
		cli.HandleHistory(args)
	case cli.CmdConfig:
		cli.HandleConfig(args)
	case cli.CmdDoctor:
		// HandleDoctor renders its own report; the error only carries
		// the exit code.
		if err := cli.HandleDoctor(args); err != nil {
			os.Exit(cli.GetExitCode(err))
		}
	case cli.CmdVersion:
		cli.HandleVersionWithJSON(args)
	case cli.CmdHelp:
		cli.HandleHelp()
	default:
		runTUI(args)
	}
}

// =============================================================================
// TUI STARTUP
// =============================================================================

// runTUI wires the interactive stack: config, history store, model cache,
// session controller, and the Bubble Tea chat program. The initial model
// load is kicked off before the program runs; the chat model's first poll
// tick picks up its progress events.
func runTUI(args cli.Args) {
	if err := cli.RequiresTTY("run the TUI"); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		fmt.Fprintln(os.Stderr, "Try `hearth ask \"question\"` for non-interactive use.")
		os.Exit(cli.ExitUsageError)
	}

	// Load configuration at startup
	cfg := config.Global()

	// Durable prompt history. Trouble here degrades with a warning rather
	// than blocking the TUI: an unresolvable path disables persistence, a
	// corrupt log keeps the entries parsed before the corruption.
	var store *history.Store
	if cfg.History.Enabled {
		path, err := cfg.HistoryPath()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: history disabled: %v\n", err)
		} else {
			var loadErr error
			store, loadErr = history.OpenWithLimit(path, cfg.History.MaxEntries)
			if loadErr != nil {
				fmt.Fprintf(os.Stderr, "Warning: history: %v\n", loadErr)
			}
		}
	}
	if store != nil {
		defer store.Close()
	}

	// Model cache for the picker's install badges. Optional: a failure
	// here only hides the badges.
	var cache *modelcache.Cache
	if dir, err := cfg.ModelsDir(); err == nil {
		if c, cacheErr := modelcache.New(dir); cacheErr == nil {
			cache = c
		}
	}

	ctrl := session.New(session.Options{
		History:   store,
		Load:      cli.NewLoadFunc(cfg),
		MaxTokens: cfg.Generation.MaxTokens,
		Seed:      cfg.Generation.Seed,
	})
	defer ctrl.Close()

	// Start the initial model load; the TUI renders its progress.
	modelID, err := cli.ResolveModelID(args, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(cli.GetExitCode(err))
	}
	if err := ctrl.LoadModel(modelID); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(cli.ExitGeneralError)
	}

	// Create the application model
	theme := styles.NewTheme()
	m := chat.New(chat.Options{
		Theme:      theme,
		Controller: ctrl,
		Store:      store,
		Cache:      cache,
		Preset:     cfg.Generation.Preset,
	})

	// Create the Bubble Tea program
	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),       // Use alternate screen buffer
		tea.WithMouseCellMotion(), // Enable mouse support
	)

	// Run the program
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running hearth: %v\n", err)
		os.Exit(1)
	}
}
