// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// ask.go - Single query command handler for hearth CLI.
//
// CLI: Comprehensive help and examples for all commands
// USABILITY: Markdown rendering and stats summary for better CLI experience
//
// Handles the "hearth ask" command which runs a single prompt through the
// local model and streams the reply to stdout.
//
// Command: ask [question]
// Short:   Ask a single question
// Aliases: (none)
//
// Examples:
//   hearth ask "What is the capital of France?"
//   hearth ask --json "List three sorting algorithms"
//   hearth ask "Review this code:" --file main.go
//   hearth ask --preset creative "Write a haiku about terminals"
//   cat error.log | hearth ask
//
// Flags:
//   -f, --file FILE     Include file content with the question
//   -m, --model NAME    Use specific model (overrides config)
//   --preset NAME       Sampling preset (careful, creative, deranged)
//   --max-tokens N      Override the reply token budget
//   --json              Output response as JSON
//   --plain             Disable markdown rendering
//   -v, --verbose       Verbose output
//   -q, --quiet         Minimal output (no stats summary)
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/hearth-tui/internal/config"
	"github.com/jeranaias/hearth-tui/internal/llm"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// MaxFileSize is the maximum file size to include (50KB).
	MaxFileSize = 50 * 1024
)

// =============================================================================
// MARKDOWN RENDERING
// =============================================================================

// markdownRenderer is the global glamour renderer for markdown output.
// USABILITY: Renders markdown responses with syntax highlighting and formatting.
var markdownRenderer *glamour.TermRenderer

func init() {
	wrap := GetTerminalWidth()
	if wrap > 100 {
		wrap = 100
	}

	var err error
	markdownRenderer, err = glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(wrap),
	)
	if err != nil {
		// Fallback to plain text if renderer initialization fails
		markdownRenderer = nil
	}
}

// renderMarkdown renders markdown content for terminal display.
// Returns the original content if rendering fails or renderer is unavailable.
func renderMarkdown(content string) string {
	if markdownRenderer == nil {
		return content
	}

	rendered, err := markdownRenderer.Render(content)
	if err != nil {
		return content
	}
	return rendered
}

// displayResponse displays a response with markdown rendering when appropriate.
// Only renders markdown when stdout is a TTY to avoid corrupting piped output.
func displayResponse(response string) {
	if IsStdoutTTY() {
		fmt.Print(renderMarkdown(response))
	} else {
		fmt.Print(response)
	}
}

// =============================================================================
// STYLES
// =============================================================================

var (
	separatorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	summaryLabelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(14)
	summaryValueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	errorStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// streamToStdout writes a streamed fragment directly to stdout.
func streamToStdout(token string) {
	fmt.Print(token)
}

// =============================================================================
// ASK COMMAND
// =============================================================================

// HandleAskCommand handles the "ask" command: load the model, run one
// generation, print the reply.
func HandleAskCommand(args Args) error {
	question := strings.TrimSpace(args.Query)

	// Fall back to stdin when no question was given on the command line
	// (supports: cat error.log | hearth ask)
	if question == "" {
		stat, _ := os.Stdin.Stat()
		if (stat.Mode() & os.ModeCharDevice) == 0 {
			reader := bufio.NewReader(os.Stdin)
			stdinData, err := io.ReadAll(reader)
			if err == nil && len(stdinData) > 0 {
				question = strings.TrimSpace(string(stdinData))
			}
		}
	}

	// Include file content as context when requested
	if args.File != "" {
		content, err := readFileForContext(args.File)
		if err != nil {
			return err
		}
		if question == "" {
			question = "Explain this file:"
		}
		question = question + "\n\nFile: " + args.File + "\n```\n" + content + "\n```"
	}

	if question == "" {
		return fmt.Errorf("no question provided. Usage: hearth ask \"your question\"")
	}

	cfg := config.Global()
	if args.MaxTokens > 0 {
		cfg = cfg.Clone()
		cfg.Generation.MaxTokens = args.MaxTokens
	}

	// Sampling mode: CLI preset wins over the configured one
	var mode llm.Mode
	var err error
	if args.Preset != "" {
		mode, err = llm.PresetMode(args.Preset)
	} else {
		mode, err = cfg.SamplingMode()
	}
	if err != nil {
		return err
	}

	modelID, err := ResolveModelID(args, cfg)
	if err != nil {
		return err
	}

	ctrl, store := newSessionController(cfg)
	if store != nil {
		defer store.Close()
	}
	defer ctrl.Close()

	if err := ctrl.LoadModel(modelID); err != nil {
		return err
	}
	if err := waitForLoad(ctrl, args.Quiet); err != nil {
		return err
	}

	// Render markdown only for interactive terminal output; pipe and JSON
	// consumers get raw text
	useMarkdown := IsStdoutTTY() && !args.JSON && !args.Plain && cfg.UI.Markdown

	var onFragment func(string)
	if !useMarkdown && !args.JSON {
		onFragment = streamToStdout
	}

	outcome, err := runGeneration(ctrl, question, mode, onFragment)
	if err != nil {
		return err
	}
	if outcome.Cancelled {
		StderrPrintln("[cancelled]")
		return nil
	}

	if args.JSON {
		data := AskData{
			Response:     outcome.Reply,
			Model:        modelID,
			Tokens:       outcome.Result.Tokens,
			PromptTokens: outcome.Result.PromptTokens,
			TokensPerSec: tokensPerSecond(outcome.Result),
			Finish:       string(outcome.Result.Finish),
			DurationMs:   outcome.Result.Duration.Milliseconds(),
			HistoryID:    outcome.HistoryID,
		}
		resp := NewJSONResponse("ask", data)
		resp.Print()
		return nil
	}

	if useMarkdown {
		displayResponse(outcome.Reply)
	} else if !strings.HasSuffix(outcome.Reply, "\n") {
		// Streamed output already reached stdout; just close the line
		fmt.Println()
	}

	if outcome.HistoryErr != nil {
		fmt.Fprintf(os.Stderr, "%s\n", errorStyle.Render(
			fmt.Sprintf("Warning: reply not saved to history: %v", outcome.HistoryErr)))
	}

	if !args.Quiet {
		printAskSummary(modelID, outcome)
	}
	return nil
}

// tokensPerSecond computes generation throughput, guarding short runs.
func tokensPerSecond(res llm.Result) float64 {
	secs := res.Duration.Seconds()
	if secs <= 0 {
		return 0
	}
	return float64(res.Tokens) / secs
}

// printAskSummary prints generation stats to stderr, keeping stdout clean
// for the reply itself.
func printAskSummary(modelID string, outcome generationOutcome) {
	res := outcome.Result

	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, separatorStyle.Render(strings.Repeat("─", 45)))

	summaryLine("Model:", modelID)
	summaryLine("Tokens:", fmt.Sprintf("%d (prompt %d)", res.Tokens, res.PromptTokens))
	summaryLine("Speed:", fmt.Sprintf("%.1f tok/s", tokensPerSecond(res)))
	if res.FirstFragment > 0 {
		summaryLine("First token:", formatDurationShort(res.FirstFragment))
	}
	summaryLine("Duration:", formatDurationShort(res.Duration))
	summaryLine("Finish:", string(res.Finish))
	if outcome.HistoryID != 0 {
		summaryLine("Saved:", fmt.Sprintf("history #%d", outcome.HistoryID))
	}
}

// summaryLine prints one label/value pair of the stats summary.
func summaryLine(label, value string) {
	fmt.Fprintf(os.Stderr, "  %s %s\n",
		summaryLabelStyle.Render(label),
		summaryValueStyle.Render(value))
}

// readFileForContext reads a file to include with the question, enforcing
// the size limit.
func readFileForContext(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("cannot read file %s: %w", path, err)
	}
	if info.Size() > MaxFileSize {
		return "", fmt.Errorf("file %s too large (%d bytes, max %d)", path, info.Size(), MaxFileSize)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("cannot read file %s: %w", path, err)
	}
	return string(data), nil
}
