// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Interactive line-mode chat for hearth CLI.
//
// CLI: Comprehensive help and examples for all commands
// USABILITY: Readline-style input with its own prompt history
//
// Handles the "hearth chat" command: a REPL alternative to the TUI for
// terminals (or users) that prefer plain line-based interaction. Each line
// is one prompt; replies stream token by token. Slash commands manage the
// session.
//
// Command: chat
// Short:   Interactive chat (line mode)
// Aliases: (none)
//
// Examples:
//   hearth chat
//   hearth chat --model phi-2
//   hearth chat --preset creative
//   hearth chat --plain
//
// Flags:
//   -m, --model NAME    Use specific model (overrides config)
//   --preset NAME       Sampling preset (careful, creative, deranged)
//   --plain             Plain streaming output (no markdown rendering)
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package cli

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/peterh/liner"

	"github.com/jeranaias/hearth-tui/internal/config"
	"github.com/jeranaias/hearth-tui/internal/history"
	"github.com/jeranaias/hearth-tui/internal/llm"
	"github.com/jeranaias/hearth-tui/internal/modelcache"
	"github.com/jeranaias/hearth-tui/internal/session"
	"github.com/jeranaias/hearth-tui/internal/util"
)

// =============================================================================
// STYLES
// =============================================================================

var (
	chatTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	promptStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	chatDimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	chatErrorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// =============================================================================
// LINE INPUT
// =============================================================================

// ChatCLI wraps liner with a persistent prompt history file. This history is
// the REPL's own input recall (Up/Down at the prompt), separate from the
// durable conversation log.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI creates a line editor with Ctrl+C aborts enabled and loads any
// previous prompt history.
func NewChatCLI() *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	historyFile := ""
	if dir, err := config.ConfigDir(); err == nil {
		historyFile = filepath.Join(dir, "chat_history")
	} else {
		historyFile = filepath.Join(os.TempDir(), "hearth_chat_history")
	}

	cli := &ChatCLI{
		line:        line,
		historyFile: historyFile,
	}
	cli.LoadHistory()
	return cli
}

// ReadInput reads one line, appending non-empty input to the recall history.
func (c *ChatCLI) ReadInput(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}
	return input, nil
}

// LoadHistory loads prompt history from the history file.
func (c *ChatCLI) LoadHistory() {
	f, err := os.Open(c.historyFile)
	if err != nil {
		return // No history yet
	}
	defer f.Close()
	c.line.ReadHistory(f)
}

// SaveHistory saves prompt history to the history file.
func (c *ChatCLI) SaveHistory() error {
	f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = c.line.WriteHistory(f)
	return err
}

// Close saves history and releases the terminal.
func (c *ChatCLI) Close() {
	if err := c.SaveHistory(); err != nil {
		StderrPrint("Warning: could not save chat history: %v\n", err)
	}
	c.line.Close()
}

// =============================================================================
// CHAT SESSION
// =============================================================================

// ChatSession holds the state of one chat command invocation.
type ChatSession struct {
	InputCLI   *ChatCLI
	Controller *session.Controller
	Store      *history.Store
	Cfg        *config.Config

	ModelID    string
	PresetName string
	Mode       llm.Mode
	Plain      bool

	MessageCount int
	TotalTokens  int
	StartTime    time.Time
}

// HandleChatCommand handles the "chat" command.
func HandleChatCommand(args Args) error {
	if err := RequiresTTY("chat"); err != nil {
		return err
	}

	cfg := config.Global()

	presetName := args.Preset
	if presetName == "" {
		presetName = cfg.Generation.Preset
	}
	mode, err := llm.PresetMode(presetName)
	if err != nil {
		return err
	}
	if presetName == "" {
		presetName = llm.PresetCareful
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

	chatSession := &ChatSession{
		InputCLI:   NewChatCLI(),
		Controller: ctrl,
		Store:      store,
		Cfg:        cfg,
		ModelID:    modelID,
		PresetName: presetName,
		Mode:       mode,
		Plain:      args.Plain || !cfg.UI.Markdown,
		StartTime:  time.Now(),
	}
	defer chatSession.InputCLI.Close()

	// Ctrl+C during a generation cancels it; at the prompt liner owns the
	// terminal and turns Ctrl+C into ErrPromptAborted instead.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		for range sigChan {
			ctrl.Cancel()
		}
	}()

	if err := ctrl.LoadModel(modelID); err != nil {
		return err
	}
	if err := waitForLoad(ctrl, args.Quiet); err != nil {
		return err
	}

	printWelcome(chatSession)

	// Main REPL loop
	for {
		input, err := chatSession.InputCLI.ReadInput(promptStyle.Render("hearth> "))
		if err == liner.ErrPromptAborted {
			// Ctrl+C at the prompt
			printExitSummary(chatSession)
			return nil
		}
		if err != nil {
			// EOF (Ctrl+D) or terminal error
			printExitSummary(chatSession)
			return nil
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		// Slash commands
		if strings.HasPrefix(input, "/") {
			shouldContinue, err := handleSlashCommand(input, chatSession)
			if err != nil {
				fmt.Println(chatErrorStyle.Render(err.Error()))
			}
			if !shouldContinue {
				printExitSummary(chatSession)
				return nil
			}
			continue
		}

		// Bare exit/quit also works
		if strings.EqualFold(input, "exit") || strings.EqualFold(input, "quit") {
			printExitSummary(chatSession)
			return nil
		}

		if err := processMessage(input, chatSession); err != nil {
			fmt.Println(chatErrorStyle.Render("Error: " + err.Error()))
		}
	}
}

// processMessage runs one prompt through the session and prints the reply.
func processMessage(input string, s *ChatSession) error {
	useMarkdown := !s.Plain && IsStdoutTTY()

	var onFragment func(string)
	if !useMarkdown {
		onFragment = streamToStdout
	}

	outcome, err := runGeneration(s.Controller, input, s.Mode, onFragment)
	if err != nil {
		return err
	}
	if outcome.Cancelled {
		fmt.Println()
		fmt.Println(chatDimStyle.Render("[cancelled]"))
		return nil
	}

	if useMarkdown {
		displayResponse(outcome.Reply)
	} else if !strings.HasSuffix(outcome.Reply, "\n") {
		fmt.Println()
	}

	s.MessageCount++
	s.TotalTokens += outcome.Result.Tokens

	if outcome.HistoryErr != nil {
		fmt.Println(chatErrorStyle.Render(
			fmt.Sprintf("Warning: reply not saved to history: %v", outcome.HistoryErr)))
	}

	if s.Cfg.UI.ShowStats {
		fmt.Println(chatDimStyle.Render(fmt.Sprintf("[%s · %d tok · %.1f tok/s]",
			outcome.Result.Finish, outcome.Result.Tokens, tokensPerSecond(outcome.Result))))
	}
	return nil
}

// =============================================================================
// SLASH COMMANDS
// =============================================================================

// handleSlashCommand dispatches a /command. Returns false when the REPL
// should exit.
func handleSlashCommand(input string, s *ChatSession) (bool, error) {
	parts := strings.Fields(input)
	command := strings.ToLower(parts[0])

	switch command {
	case "/help", "/h", "/?":
		printHelp()
		return true, nil

	case "/clear", "/c":
		// Clear the terminal; each prompt is independent, so there is no
		// conversation state to reset
		fmt.Print("\033[2J\033[H")
		return true, nil

	case "/model", "/m":
		if len(parts) < 2 {
			printModelList(s)
			return true, nil
		}
		return true, switchModel(parts[1], s)

	case "/preset", "/p":
		if len(parts) < 2 {
			fmt.Printf("Current preset: %s (available: %s)\n",
				s.PresetName, strings.Join(llm.PresetNames(), ", "))
			return true, nil
		}
		return true, switchPreset(parts[1], s)

	case "/status", "/s":
		printStatus(s)
		return true, nil

	case "/history":
		printRecentHistory(s)
		return true, nil

	case "/quit", "/q", "/exit":
		return false, nil

	case "/":
		printHelp()
		return true, nil

	default:
		return true, fmt.Errorf("unknown command: %s (type /help for commands)", command)
	}
}

// switchModel loads a different model into the running session.
func switchModel(name string, s *ChatSession) error {
	spec, ok := modelcache.Lookup(name)
	if !ok {
		return fmt.Errorf("unknown model: %s (type /model for the list)", name)
	}
	if spec.ID == s.ModelID {
		fmt.Printf("Already using %s\n", spec.ID)
		return nil
	}

	if err := s.Controller.LoadModel(spec.ID); err != nil {
		return err
	}
	if err := waitForLoad(s.Controller, false); err != nil {
		return err
	}

	s.ModelID = spec.ID
	fmt.Printf("Switched to %s\n", chatTitleStyle.Render(spec.ID))
	return nil
}

// switchPreset changes the sampling preset for subsequent prompts.
func switchPreset(name string, s *ChatSession) error {
	mode, err := llm.PresetMode(name)
	if err != nil {
		return err
	}
	s.Mode = mode
	s.PresetName = strings.ToLower(name)
	fmt.Printf("Preset set to %s\n", s.PresetName)
	return nil
}

// printModelList lists registry models, marking the active one.
func printModelList(s *ChatSession) {
	fmt.Println("Available models:")
	for _, id := range modelcache.IDs() {
		marker := "  "
		if id == s.ModelID {
			marker = "* "
		}
		spec, _ := modelcache.Lookup(id)
		fmt.Printf("  %s%-22s %-6s %s\n", marker, id, spec.Params, spec.SizeString())
	}
	fmt.Println("\nUse /model <id> to switch.")
}

// printRecentHistory shows the tail of the durable conversation log.
func printRecentHistory(s *ChatSession) {
	if s.Store == nil {
		fmt.Println(chatDimStyle.Render("History is disabled."))
		return
	}

	entries := s.Store.Entries()
	if len(entries) == 0 {
		fmt.Println(chatDimStyle.Render("No history yet."))
		return
	}

	start := len(entries) - 10
	if start < 0 {
		start = 0
	}
	fmt.Println("Recent prompts:")
	for _, e := range entries[start:] {
		prompt := util.TruncateWidth(strings.ReplaceAll(e.Prompt, "\n", " "), 100)
		fmt.Printf("  #%-4d %s  %s\n",
			e.ID, chatDimStyle.Render(e.Timestamp.Format("2006-01-02 15:04")), prompt)
	}
}

// =============================================================================
// DISPLAY
// =============================================================================

// printWelcome prints the chat welcome banner.
func printWelcome(s *ChatSession) {
	fmt.Println()
	fmt.Println(chatTitleStyle.Render("hearth chat") + chatDimStyle.Render(" v"+Version))
	fmt.Printf("Model: %s · Preset: %s\n", s.ModelID, s.PresetName)
	fmt.Println(chatDimStyle.Render("Type /help for commands, /quit to exit."))
	fmt.Println()
}

// printHelp prints the slash command reference.
func printHelp() {
	fmt.Println("\nCommands:")
	fmt.Printf("  %-15s %s\n", "/help", "Show this help")
	fmt.Printf("  %-15s %s\n", "/model [id]", "Show or switch the active model")
	fmt.Printf("  %-15s %s\n", "/preset [name]", "Show or change the sampling preset")
	fmt.Printf("  %-15s %s\n", "/status", "Show session status")
	fmt.Printf("  %-15s %s\n", "/history", "Show recent saved prompts")
	fmt.Printf("  %-15s %s\n", "/clear", "Clear the screen")
	fmt.Printf("  %-15s %s\n", "/quit", "Exit chat")
	fmt.Println()
}

// printStatus prints the session status.
func printStatus(s *ChatSession) {
	fmt.Println("\nSession status:")
	fmt.Printf("  %-15s %s\n", "Model:", s.ModelID)
	fmt.Printf("  %-15s %s\n", "Preset:", s.PresetName)
	if s.Store != nil {
		fmt.Printf("  %-15s %s (%d entries)\n", "History:", s.Store.Path(), s.Store.Len())
	} else {
		fmt.Printf("  %-15s %s\n", "History:", "disabled")
	}
	fmt.Printf("  %-15s %d\n", "Messages:", s.MessageCount)
	fmt.Printf("  %-15s %d\n", "Tokens:", s.TotalTokens)
	fmt.Printf("  %-15s %s\n", "Uptime:", formatDuration(time.Since(s.StartTime)))
	fmt.Println()
}

// printExitSummary prints a goodbye message with session stats.
func printExitSummary(s *ChatSession) {
	fmt.Println()
	if s.MessageCount > 0 {
		fmt.Printf("%d message(s), %d tokens in %s.\n",
			s.MessageCount, s.TotalTokens, formatDuration(time.Since(s.StartTime)))
	}
	fmt.Println("Goodbye!")
}
