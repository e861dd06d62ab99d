// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - CLI parsing and command handlers for hearth.
//
// CLI: Comprehensive help and examples for all commands
package cli

import (
	"fmt"
	"os"
	"runtime"
	"strings"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdAsk
	CmdChat
	CmdModels
	CmdHistory
	CmdConfig
	CmdDoctor
	CmdVersion
	CmdHelp
)

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	Quiet   bool
	Verbose bool
	JSON    bool // Output in JSON format
	Plain   bool // Plain streaming output, no markdown rendering
	Model   string

	// Command-specific
	Query      string
	File       string
	Preset     string
	MaxTokens  int
	Limit      int
	ConfigKey  string
	ConfigVal  string
	Subcommand string
	Confirm    bool

	// Raw args (remaining after flag parsing)
	Raw []string
}

const usageText = `hearth - local LLM chat for your terminal

Hearth runs small chat models entirely on your machine.

It provides:
  - Fully local inference (no API keys, no telemetry)
  - A TUI chat interface with token-by-token streaming
  - Durable prompt history with fuzzy recall and full-text search
  - A curated model registry with managed weight downloads

Usage:
  hearth                     Start TUI (default)
  hearth ask "question"      Ask a single question
  hearth chat                Interactive chat (line mode)
  hearth models [list]       List registry and installed models
  hearth models pull <id>    Download model weights
  hearth models rm <id>      Remove downloaded weights
    --confirm                Skip the confirmation prompt
  hearth history             Show recent prompt history
    --limit N                Number of entries to show (default 20)
  hearth history search <q>  Full-text search over past conversations
  hearth config [get|set|list|path]  Configuration
  hearth doctor [--fix]      System diagnostics
  hearth version             Show version information
  hearth help                Show this help

Ask Options:
  -f, --file PATH     Include a file as context for the question
  -m, --model NAME    Use a specific model for this question
  --preset NAME       Sampling preset: careful, creative, deranged
  --max-tokens N      Override the reply token budget

Chat Options:
  -m, --model NAME    Use a specific model for this session
  --preset NAME       Sampling preset: careful, creative, deranged

Global Flags:
  -q, --quiet     Minimal output (no stats summary)
  -v, --verbose   Debug output
  --json          Output in JSON format
  --plain         Disable markdown rendering of replies
  --model NAME    Override the default model

Examples:
  # Basic usage
  hearth                              Start TUI interface
  hearth ask "What is a goroutine?"   Ask a single question
  hearth chat                         Start interactive line-mode chat

  # Ask command with options
  hearth ask "Review this:" --file main.go   Include file with question
  hearth ask "List sorting algorithms" --json  Machine-readable response
  hearth ask --preset creative "Write a haiku" Looser sampling

  # Model management
  hearth models                       List registry and installed models
  hearth models pull phi-2            Download phi-2 weights
  hearth models rm phi-2              Remove downloaded weights

  # History
  hearth history                      Show recent prompts
  hearth history search "goroutine"   Search past conversations

  # Configuration and diagnostics
  hearth config list                  Show current configuration
  hearth config set generation.preset creative  Change default preset
  hearth config set ui.markdown false Disable markdown rendering
  hearth doctor                       Run health checks
  hearth doctor --fix                 Attempt auto-fixes

Version: %s
`

// PrintUsage prints the usage/help text.
func PrintUsage() {
	fmt.Printf(usageText, Version)
}

// PrintVersion prints version information.
func PrintVersion() {
	fmt.Printf("hearth version %s\n", Version)
	fmt.Printf("  Git commit: %s\n", GitCommit)
	fmt.Printf("  Build date: %s\n", BuildDate)
}

// Parse parses command-line arguments and returns the command and args.
func Parse() (Command, Args) {
	args := os.Args[1:]

	// Parse global flags first
	remaining, parsedArgs := parseGlobalFlags(args)

	// If no remaining args, default to TUI
	if len(remaining) == 0 {
		return CmdTUI, parsedArgs
	}

	// Check first argument for command
	cmd := strings.ToLower(remaining[0])
	remaining = remaining[1:]
	parsedArgs.Raw = remaining

	switch cmd {
	case "tui":
		return CmdTUI, parsedArgs

	case "ask":
		// Parse ask-specific flags and query
		parseAskArgs(&parsedArgs, remaining)
		return CmdAsk, parsedArgs

	case "chat":
		// Parse chat-specific flags
		parseChatArgs(&parsedArgs, remaining)
		return CmdChat, parsedArgs

	case "models", "model":
		parseModelsArgs(&parsedArgs, remaining)
		return CmdModels, parsedArgs

	case "history", "hist":
		parseHistoryArgs(&parsedArgs, remaining)
		return CmdHistory, parsedArgs

	case "config", "cfg":
		parseConfigArgs(&parsedArgs, remaining)
		return CmdConfig, parsedArgs

	case "doctor":
		parseDoctorArgs(&parsedArgs, remaining)
		return CmdDoctor, parsedArgs

	case "version", "--version":
		return CmdVersion, parsedArgs

	case "help", "-h", "--help":
		return CmdHelp, parsedArgs

	default:
		// Unknown command: fail rather than silently opening the TUI, so
		// a typo like "chta" does not swallow the user's intent.
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		if suggestion := SuggestCommand(cmd); suggestion != "" {
			fmt.Fprintf(os.Stderr, "Did you mean: hearth %s\n", suggestion)
		}
		fmt.Fprintln(os.Stderr, "Run 'hearth help' for usage.")
		os.Exit(ExitUsageError)
	}

	return CmdTUI, parsedArgs // not reached; every case above returns or exits
}

// parseGlobalFlags extracts global flags from args and returns remaining args.
func parseGlobalFlags(args []string) ([]string, Args) {
	var remaining []string
	var parsedArgs Args

	i := 0
	for i < len(args) {
		arg := args[i]

		switch arg {
		case "-q", "--quiet":
			parsedArgs.Quiet = true
		case "-v", "--verbose":
			parsedArgs.Verbose = true
		case "--json":
			parsedArgs.JSON = true
		case "--plain":
			parsedArgs.Plain = true
		case "--model":
			if i+1 < len(args) {
				i++
				parsedArgs.Model = args[i]
			}
		default:
			// Check for --model=value format
			if strings.HasPrefix(arg, "--model=") {
				parsedArgs.Model = strings.TrimPrefix(arg, "--model=")
			} else {
				remaining = append(remaining, arg)
			}
		}
		i++
	}

	return remaining, parsedArgs
}

// parseAskArgs parses ask command specific arguments.
func parseAskArgs(args *Args, remaining []string) {
	var query []string

	i := 0
	for i < len(remaining) {
		arg := remaining[i]

		switch arg {
		case "-f", "--file":
			if i+1 < len(remaining) {
				i++
				args.File = remaining[i]
			}
		case "-m", "--model":
			if i+1 < len(remaining) {
				i++
				args.Model = remaining[i]
			}
		case "--preset":
			if i+1 < len(remaining) {
				i++
				args.Preset = remaining[i]
			}
		case "--max-tokens":
			if i+1 < len(remaining) {
				i++
				if n, err := ParseIntWithValidation(remaining[i], "max-tokens"); err == nil {
					args.MaxTokens = n
				}
			}
		default:
			// Check for --file=value or --model=value format
			if strings.HasPrefix(arg, "--file=") {
				args.File = strings.TrimPrefix(arg, "--file=")
			} else if strings.HasPrefix(arg, "--model=") {
				args.Model = strings.TrimPrefix(arg, "--model=")
			} else if strings.HasPrefix(arg, "--preset=") {
				args.Preset = strings.TrimPrefix(arg, "--preset=")
			} else if strings.HasPrefix(arg, "--max-tokens=") {
				if n, err := ParseIntWithValidation(strings.TrimPrefix(arg, "--max-tokens="), "max-tokens"); err == nil {
					args.MaxTokens = n
				}
			} else if !strings.HasPrefix(arg, "-") {
				query = append(query, arg)
			}
		}
		i++
	}

	args.Query = strings.Join(query, " ")
}

// parseChatArgs parses chat command specific arguments.
func parseChatArgs(args *Args, remaining []string) {
	for i := 0; i < len(remaining); i++ {
		arg := remaining[i]

		switch arg {
		case "-m", "--model":
			if i+1 < len(remaining) {
				i++
				args.Model = remaining[i]
			}
		case "--preset":
			if i+1 < len(remaining) {
				i++
				args.Preset = remaining[i]
			}
		default:
			if strings.HasPrefix(arg, "--model=") {
				args.Model = strings.TrimPrefix(arg, "--model=")
			} else if strings.HasPrefix(arg, "--preset=") {
				args.Preset = strings.TrimPrefix(arg, "--preset=")
			}
		}
	}
}

// parseModelsArgs parses models command specific arguments. The first
// positional is the subcommand (list, pull, rm), the second the model id.
func parseModelsArgs(args *Args, remaining []string) {
	parser := NewArgParser(remaining)
	args.Subcommand = strings.ToLower(parser.Subcommand())
	args.Query = parser.Positional(1)
	args.Confirm = parser.BoolFlag("confirm")
}

// parseHistoryArgs parses history command specific arguments. Everything
// after a "search" subcommand joins into the query.
func parseHistoryArgs(args *Args, remaining []string) {
	parser := NewArgParser(remaining)
	args.Subcommand = strings.ToLower(parser.Subcommand())
	args.Limit = parser.FlagIntOrDefault("limit", 0)
	if args.Subcommand == "search" {
		args.Query = JoinPositionalArgs(parser, 1)
	}
}

// parseConfigArgs parses config command specific arguments.
func parseConfigArgs(args *Args, remaining []string) {
	if len(remaining) > 0 {
		args.Subcommand = remaining[0]
		if len(remaining) > 1 {
			args.ConfigKey = remaining[1]
		}
		if len(remaining) > 2 {
			args.ConfigVal = remaining[2]
		}
	}
}

// parseDoctorArgs parses doctor command specific arguments.
func parseDoctorArgs(args *Args, remaining []string) {
	for _, arg := range remaining {
		if arg == "--fix" {
			args.Subcommand = "fix"
		}
	}
}

// =============================================================================
// COMMAND HANDLERS
// =============================================================================

// ERROR HANDLING: Errors must not be silently ignored

// HandleAsk handles the "ask" command.
// This delegates to the full implementation in ask.go.
func HandleAsk(args Args) {
	if err := HandleAskCommand(args); err != nil {
		HandleErrorAndExit(err, args.JSON)
	}
}

// HandleChat handles the "chat" command.
// This delegates to the full implementation in chat.go.
func HandleChat(args Args) {
	if err := HandleChatCommand(args); err != nil {
		HandleErrorAndExit(err, args.JSON)
	}
}

// HandleModels handles the "models" command.
// This delegates to the full implementation in models.go.
func HandleModels(args Args) {
	if err := HandleModelsCommand(args); err != nil {
		HandleErrorAndExit(err, args.JSON)
	}
}

// HandleHistory handles the "history" command.
// This delegates to the full implementation in history.go.
func HandleHistory(args Args) {
	if err := HandleHistoryCommand(args); err != nil {
		HandleErrorAndExit(err, args.JSON)
	}
}

// NOTE: HandleConfig is implemented in config.go
// NOTE: HandleDoctor is implemented in doctor.go

// HandleVersion handles the "version" command.
func HandleVersion() {
	PrintVersion()
}

// HandleVersionWithJSON handles the "version" command with JSON output support.
func HandleVersionWithJSON(args Args) {
	if args.JSON {
		data := VersionData{
			Version:   Version,
			GitCommit: GitCommit,
			BuildDate: BuildDate,
			GoVersion: runtime.Version(),
		}
		resp := NewJSONResponse("version", data)
		resp.Print()
		return
	}
	PrintVersion()
}

// HandleHelp handles the "help" command.
func HandleHelp() {
	PrintUsage()
}
