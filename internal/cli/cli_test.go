// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// This test file covers CLI argument parsing: the shared ArgParser, the
// command-specific parsers behind Parse(), command suggestion, and the
// small formatting helpers the command handlers share.
package cli

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/muesli/termenv"
)

// =============================================================================
// ARG PARSER TESTS (args.go)
// =============================================================================

func TestArgParser_BasicParsing(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantSub  string
		validate func(*testing.T, *ArgParser)
	}{
		{
			name:    "simple subcommand",
			args:    []string{"pull"},
			wantSub: "pull",
		},
		{
			name:    "subcommand with flag",
			args:    []string{"list", "--limit", "50"},
			wantSub: "list",
			validate: func(t *testing.T, p *ArgParser) {
				if p.Flag("limit") != "50" {
					t.Errorf("Flag(limit) = %q, want %q", p.Flag("limit"), "50")
				}
			},
		},
		{
			name:    "flag with equals",
			args:    []string{"pull", "--dir=/tmp/models"},
			wantSub: "pull",
			validate: func(t *testing.T, p *ArgParser) {
				if p.Flag("dir") != "/tmp/models" {
					t.Errorf("Flag(dir) = %q, want %q", p.Flag("dir"), "/tmp/models")
				}
			},
		},
		{
			name:    "boolean flag",
			args:    []string{"rm", "phi-2", "--confirm"},
			wantSub: "rm",
			validate: func(t *testing.T, p *ArgParser) {
				if !p.BoolFlag("confirm") {
					t.Error("BoolFlag(confirm) should be true")
				}
				if p.Positional(1) != "phi-2" {
					t.Errorf("Positional(1) = %q, want %q", p.Positional(1), "phi-2")
				}
			},
		},
		{
			name:    "explicit boolean value",
			args:    []string{"list", "--json=false"},
			wantSub: "list",
			validate: func(t *testing.T, p *ArgParser) {
				if p.BoolFlag("json") {
					t.Error("BoolFlag(json) should be false for --json=false")
				}
			},
		},
		{
			name:    "multiple positional args",
			args:    []string{"search", "goroutine", "leak", "in", "scheduler"},
			wantSub: "search",
			validate: func(t *testing.T, p *ArgParser) {
				if p.PositionalCount() != 5 {
					t.Errorf("PositionalCount() = %d, want 5", p.PositionalCount())
				}
				joined := JoinPositionalArgs(p, 1)
				if joined != "goroutine leak in scheduler" {
					t.Errorf("JoinPositionalArgs(1) = %q, want %q", joined, "goroutine leak in scheduler")
				}
			},
		},
		{
			name:    "mixed flags and positional",
			args:    []string{"ask", "--model", "phi-2", "Hello", "world"},
			wantSub: "ask",
			validate: func(t *testing.T, p *ArgParser) {
				if p.Flag("model") != "phi-2" {
					t.Errorf("Flag(model) = %q, want %q", p.Flag("model"), "phi-2")
				}
				// Positional should be: ask, Hello, world
				if p.Positional(1) != "Hello" {
					t.Errorf("Positional(1) = %q, want %q", p.Positional(1), "Hello")
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parser := NewArgParser(tt.args)
			if parser.Subcommand() != tt.wantSub {
				t.Errorf("Subcommand() = %q, want %q", parser.Subcommand(), tt.wantSub)
			}
			if tt.validate != nil {
				tt.validate(t, parser)
			}
		})
	}
}

func TestArgParser_FlagIntOrDefault(t *testing.T) {
	tests := []struct {
		name       string
		args       []string
		flagName   string
		defaultVal int
		want       int
	}{
		{
			name:       "flag present",
			args:       []string{"list", "--limit", "10"},
			flagName:   "limit",
			defaultVal: 20,
			want:       10,
		},
		{
			name:       "flag missing uses default",
			args:       []string{"list"},
			flagName:   "limit",
			defaultVal: 20,
			want:       20,
		},
		{
			name:       "invalid int uses default",
			args:       []string{"list", "--limit", "abc"},
			flagName:   "limit",
			defaultVal: 20,
			want:       20,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parser := NewArgParser(tt.args)
			got := parser.FlagIntOrDefault(tt.flagName, tt.defaultVal)
			if got != tt.want {
				t.Errorf("FlagIntOrDefault(%q, %d) = %d, want %d", tt.flagName, tt.defaultVal, got, tt.want)
			}
		})
	}
}

func TestArgParser_HasFlag(t *testing.T) {
	parser := NewArgParser([]string{"list", "--confirm", "--limit", "50"})

	if !parser.HasFlag("confirm") {
		t.Error("HasFlag(confirm) should be true")
	}
	if !parser.HasFlag("limit") {
		t.Error("HasFlag(limit) should be true")
	}
	if parser.HasFlag("nonexistent") {
		t.Error("HasFlag(nonexistent) should be false")
	}
}

// =============================================================================
// PARSE BOOL STRING TESTS
// =============================================================================

func TestParseBoolString(t *testing.T) {
	trueValues := []string{"true", "TRUE", "True", "yes", "YES", "y", "Y", "1", "on", "ON"}
	falseValues := []string{"false", "FALSE", "False", "no", "NO", "n", "N", "0", "off", "OFF"}

	for _, v := range trueValues {
		t.Run("true_"+v, func(t *testing.T) {
			got, err := ParseBoolString(v)
			if err != nil {
				t.Errorf("ParseBoolString(%q) error = %v", v, err)
			}
			if !got {
				t.Errorf("ParseBoolString(%q) = false, want true", v)
			}
		})
	}

	for _, v := range falseValues {
		t.Run("false_"+v, func(t *testing.T) {
			got, err := ParseBoolString(v)
			if err != nil {
				t.Errorf("ParseBoolString(%q) error = %v", v, err)
			}
			if got {
				t.Errorf("ParseBoolString(%q) = true, want false", v)
			}
		})
	}

	t.Run("invalid", func(t *testing.T) {
		_, err := ParseBoolString("maybe")
		if err == nil {
			t.Error("ParseBoolString(maybe) should error")
		}
	})
}

// =============================================================================
// PARSE INT WITH VALIDATION TESTS
// =============================================================================

func TestParseIntWithValidation(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		field   string
		want    int
		wantErr bool
	}{
		{"valid positive", "42", "max-tokens", 42, false},
		{"valid one", "1", "max-tokens", 1, false},
		{"zero is invalid", "0", "max-tokens", 0, true},
		{"negative is invalid", "-5", "max-tokens", 0, true},
		{"empty is invalid", "", "max-tokens", 0, true},
		{"non-numeric is invalid", "abc", "max-tokens", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseIntWithValidation(tt.input, tt.field)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseIntWithValidation(%q, %q) error = %v, wantErr %v", tt.input, tt.field, err, tt.wantErr)
				return
			}
			if got != tt.want {
				t.Errorf("ParseIntWithValidation(%q, %q) = %d, want %d", tt.input, tt.field, got, tt.want)
			}
		})
	}
}

// =============================================================================
// COMMAND SUGGESTION TESTS (suggest.go)
// =============================================================================

func TestSuggestCommand(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"chta", "chat"},
		{"hepl", "help"},
		{"modles", "models"},
		{"histroy", "history"},
		{"confg", "config"},
		{"dcotor", "doctor"},
		{"ak", "ask"},
		{"ask", ""},     // exact match, nothing to suggest
		{"a", ""},       // too short
		{"zzzzzz", ""},  // nothing close
		{"weather", ""}, // nothing close
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := SuggestCommand(tt.input)
			if got != tt.want {
				t.Errorf("SuggestCommand(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestLevenshteinDistance(t *testing.T) {
	tests := []struct {
		s1, s2 string
		want   int
	}{
		{"", "", 0},
		{"", "abc", 3},
		{"abc", "", 3},
		{"chat", "chat", 0},
		{"chta", "chat", 2},
		{"confg", "config", 1},
		{"hist", "history", 3},
	}

	for _, tt := range tests {
		t.Run(tt.s1+"_"+tt.s2, func(t *testing.T) {
			got := levenshteinDistance(tt.s1, tt.s2)
			if got != tt.want {
				t.Errorf("levenshteinDistance(%q, %q) = %d, want %d", tt.s1, tt.s2, got, tt.want)
			}
		})
	}
}

// =============================================================================
// FORMAT HELPER TESTS (helpers.go)
// =============================================================================

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{45 * time.Second, "45s"},
		{90 * time.Second, "1m"},
		{2 * time.Hour, "2h"},
		{49 * time.Hour, "2d"},
	}

	for _, tt := range tests {
		if got := formatDuration(tt.d); got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestFormatDurationShort(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{300 * time.Millisecond, "300ms"},
		{1500 * time.Millisecond, "1.5s"},
		{90 * time.Second, "1m30s"},
		{65 * time.Minute, "1h5m"},
	}

	for _, tt := range tests {
		if got := formatDurationShort(tt.d); got != tt.want {
			t.Errorf("formatDurationShort(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		bytes int64
		want  string
	}{
		{512, "512 bytes"},
		{1536, "1.50 KB"},
		{2048, "2.00 KB"},
		{5 * 1024 * 1024, "5.00 MB"},
		{3 * 1024 * 1024 * 1024, "3.00 GB"},
	}

	for _, tt := range tests {
		if got := formatBytes(tt.bytes); got != tt.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.bytes, got, tt.want)
		}
	}
}

// =============================================================================
// COLOR CONTROL TESTS (terminal.go)
// =============================================================================

func TestForceColorsEnabled(t *testing.T) {
	defer ForceColorsEnabled(false)

	ForceColorsEnabled(true)
	if !ColorsEnabled() {
		t.Error("ColorsEnabled() should be true after ForceColorsEnabled(true)")
	}

	ForceColorsEnabled(false)
	if ColorsEnabled() {
		t.Error("ColorsEnabled() should be false after ForceColorsEnabled(false)")
	}
	if GetColorProfile() != termenv.Ascii {
		t.Error("GetColorProfile() should be Ascii when colors are disabled")
	}
}

func TestRenderSeparator(t *testing.T) {
	if s := RenderSeparator(10); !strings.Contains(s, strings.Repeat("=", 10)) {
		t.Errorf("RenderSeparator(10) = %q, want 10 equal signs", s)
	}
	if s := RenderSeparator(); !strings.Contains(s, strings.Repeat("=", 70)) {
		t.Errorf("RenderSeparator() = %q, want default width 70", s)
	}
}

// =============================================================================
// INTEGRATION-STYLE TESTS (testing Parse() with os.Args simulation)
// =============================================================================

// TestParse_Integration tests the actual Parse() function by temporarily
// modifying os.Args. This is an integration test of the full CLI parsing.
func TestParse_Integration(t *testing.T) {
	// Save original args
	originalArgs := os.Args
	defer func() { os.Args = originalArgs }()

	tests := []struct {
		name        string
		args        []string
		wantCommand Command
		validate    func(*testing.T, Args)
	}{
		{
			name:        "no args defaults to TUI",
			args:        []string{"hearth"},
			wantCommand: CmdTUI,
		},
		{
			name:        "ask command",
			args:        []string{"hearth", "ask", "What", "is", "Go?"},
			wantCommand: CmdAsk,
			validate: func(t *testing.T, a Args) {
				if a.Query != "What is Go?" {
					t.Errorf("Query = %q, want %q", a.Query, "What is Go?")
				}
			},
		},
		{
			name:        "ask with model flag",
			args:        []string{"hearth", "ask", "--model", "phi-2", "Hello"},
			wantCommand: CmdAsk,
			validate: func(t *testing.T, a Args) {
				if a.Model != "phi-2" {
					t.Errorf("Model = %q, want %q", a.Model, "phi-2")
				}
				if a.Query != "Hello" {
					t.Errorf("Query = %q, want %q", a.Query, "Hello")
				}
			},
		},
		{
			name:        "ask with max tokens",
			args:        []string{"hearth", "ask", "--max-tokens", "64", "Hi"},
			wantCommand: CmdAsk,
			validate: func(t *testing.T, a Args) {
				if a.MaxTokens != 64 {
					t.Errorf("MaxTokens = %d, want 64", a.MaxTokens)
				}
			},
		},
		{
			name:        "ask ignores invalid max tokens",
			args:        []string{"hearth", "ask", "--max-tokens=0", "Hi"},
			wantCommand: CmdAsk,
			validate: func(t *testing.T, a Args) {
				if a.MaxTokens != 0 {
					t.Errorf("MaxTokens = %d, want 0", a.MaxTokens)
				}
			},
		},
		{
			name:        "ask with quiet flag",
			args:        []string{"hearth", "-q", "ask", "Question"},
			wantCommand: CmdAsk,
			validate: func(t *testing.T, a Args) {
				if !a.Quiet {
					t.Error("Quiet should be true")
				}
			},
		},
		{
			name:        "chat command",
			args:        []string{"hearth", "chat"},
			wantCommand: CmdChat,
		},
		{
			name:        "chat with preset",
			args:        []string{"hearth", "chat", "--preset", "creative"},
			wantCommand: CmdChat,
			validate: func(t *testing.T, a Args) {
				if a.Preset != "creative" {
					t.Errorf("Preset = %q, want %q", a.Preset, "creative")
				}
			},
		},
		{
			name:        "models list by default",
			args:        []string{"hearth", "models"},
			wantCommand: CmdModels,
			validate: func(t *testing.T, a Args) {
				if a.Subcommand != "" {
					t.Errorf("Subcommand = %q, want empty", a.Subcommand)
				}
			},
		},
		{
			name:        "models pull",
			args:        []string{"hearth", "models", "pull", "phi-2"},
			wantCommand: CmdModels,
			validate: func(t *testing.T, a Args) {
				if a.Subcommand != "pull" {
					t.Errorf("Subcommand = %q, want %q", a.Subcommand, "pull")
				}
				if a.Query != "phi-2" {
					t.Errorf("Query = %q, want %q", a.Query, "phi-2")
				}
			},
		},
		{
			name:        "model alias with confirm",
			args:        []string{"hearth", "model", "rm", "phi-2", "--confirm"},
			wantCommand: CmdModels,
			validate: func(t *testing.T, a Args) {
				if a.Subcommand != "rm" {
					t.Errorf("Subcommand = %q, want %q", a.Subcommand, "rm")
				}
				if !a.Confirm {
					t.Error("Confirm should be true")
				}
			},
		},
		{
			name:        "history command",
			args:        []string{"hearth", "history"},
			wantCommand: CmdHistory,
		},
		{
			name:        "history with limit",
			args:        []string{"hearth", "history", "--limit", "50"},
			wantCommand: CmdHistory,
			validate: func(t *testing.T, a Args) {
				if a.Limit != 50 {
					t.Errorf("Limit = %d, want 50", a.Limit)
				}
			},
		},
		{
			name:        "hist alias with search query",
			args:        []string{"hearth", "hist", "search", "goroutine", "leak"},
			wantCommand: CmdHistory,
			validate: func(t *testing.T, a Args) {
				if a.Subcommand != "search" {
					t.Errorf("Subcommand = %q, want %q", a.Subcommand, "search")
				}
				if a.Query != "goroutine leak" {
					t.Errorf("Query = %q, want %q", a.Query, "goroutine leak")
				}
			},
		},
		{
			name:        "history search with json flag",
			args:        []string{"hearth", "history", "search", "deadlock", "--json"},
			wantCommand: CmdHistory,
			validate: func(t *testing.T, a Args) {
				if !a.JSON {
					t.Error("JSON should be true")
				}
				if a.Query != "deadlock" {
					t.Errorf("Query = %q, want %q", a.Query, "deadlock")
				}
			},
		},
		{
			name:        "config get",
			args:        []string{"hearth", "cfg", "get", "generation.preset"},
			wantCommand: CmdConfig,
			validate: func(t *testing.T, a Args) {
				if a.Subcommand != "get" {
					t.Errorf("Subcommand = %q, want %q", a.Subcommand, "get")
				}
				if a.ConfigKey != "generation.preset" {
					t.Errorf("ConfigKey = %q, want %q", a.ConfigKey, "generation.preset")
				}
			},
		},
		{
			// Negative values must survive config parsing; a seed of -1
			// means "random" and must not be read as a flag.
			name:        "config set with negative value",
			args:        []string{"hearth", "config", "set", "generation.seed", "-1"},
			wantCommand: CmdConfig,
			validate: func(t *testing.T, a Args) {
				if a.Subcommand != "set" {
					t.Errorf("Subcommand = %q, want %q", a.Subcommand, "set")
				}
				if a.ConfigKey != "generation.seed" {
					t.Errorf("ConfigKey = %q, want %q", a.ConfigKey, "generation.seed")
				}
				if a.ConfigVal != "-1" {
					t.Errorf("ConfigVal = %q, want %q", a.ConfigVal, "-1")
				}
			},
		},
		{
			name:        "doctor with fix",
			args:        []string{"hearth", "doctor", "--fix"},
			wantCommand: CmdDoctor,
			validate: func(t *testing.T, a Args) {
				if a.Subcommand != "fix" {
					t.Errorf("Subcommand = %q, want %q", a.Subcommand, "fix")
				}
			},
		},
		{
			name:        "version command",
			args:        []string{"hearth", "version"},
			wantCommand: CmdVersion,
		},
		{
			name:        "version flag",
			args:        []string{"hearth", "--version"},
			wantCommand: CmdVersion,
		},
		{
			name:        "help command",
			args:        []string{"hearth", "help"},
			wantCommand: CmdHelp,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Args = tt.args
			cmd, args := Parse()

			if cmd != tt.wantCommand {
				t.Errorf("Command = %v, want %v", cmd, tt.wantCommand)
			}

			if tt.validate != nil {
				tt.validate(t, args)
			}
		})
	}
}

// =============================================================================
// EDGE CASES
// =============================================================================

func TestArgParser_EmptyArgs(t *testing.T) {
	parser := NewArgParser([]string{})
	if parser.Subcommand() != "" {
		t.Errorf("Subcommand() = %q, want empty", parser.Subcommand())
	}
	if parser.PositionalCount() != 0 {
		t.Errorf("PositionalCount() = %d, want 0", parser.PositionalCount())
	}
}

func TestArgParser_OnlyFlags(t *testing.T) {
	parser := NewArgParser([]string{"--confirm", "--json"})
	if parser.Subcommand() != "" {
		t.Errorf("Subcommand() = %q, want empty", parser.Subcommand())
	}
	if !parser.BoolFlag("confirm") {
		t.Error("BoolFlag(confirm) should be true")
	}
	if !parser.BoolFlag("json") {
		t.Error("BoolFlag(json) should be true")
	}
}

func TestArgParser_FlagOrDefault(t *testing.T) {
	parser := NewArgParser([]string{"pull", "--dir", "/tmp/models"})

	if parser.FlagOrDefault("dir", "default") != "/tmp/models" {
		t.Error("FlagOrDefault should return actual value when present")
	}
	if parser.FlagOrDefault("missing", "default") != "default" {
		t.Error("FlagOrDefault should return default when missing")
	}
}

// TestArgParser_DashValueReadAsFlag documents why the config command
// parses positionally: a value like "-1" is indistinguishable from a
// flag, so ArgParser reads it as one.
func TestArgParser_DashValueReadAsFlag(t *testing.T) {
	parser := NewArgParser([]string{"set", "generation.seed", "-1"})
	if parser.PositionalCount() != 2 {
		t.Errorf("PositionalCount() = %d, want 2 (-1 is read as a flag)", parser.PositionalCount())
	}
	if !parser.BoolFlag("1") {
		t.Error("BoolFlag(1) should be true; -1 is read as a boolean flag")
	}
}

// =============================================================================
// BENCHMARKS
// =============================================================================

func BenchmarkArgParser_Simple(b *testing.B) {
	args := []string{"ask", "What is Go?"}
	for i := 0; i < b.N; i++ {
		NewArgParser(args)
	}
}

func BenchmarkArgParser_Complex(b *testing.B) {
	args := []string{"ask", "--model", "phi-2", "--max-tokens", "256", "--preset=precise", "-q", "Summarize this design"}
	for i := 0; i < b.N; i++ {
		NewArgParser(args)
	}
}

func BenchmarkSuggestCommand(b *testing.B) {
	for i := 0; i < b.N; i++ {
		SuggestCommand("histroy")
	}
}
