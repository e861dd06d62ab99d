// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// doctor.go - Doctor command implementation for hearth.
//
// Command: doctor [subcommand]
// Short:   Run health checks and diagnostics
//
// Subcommands:
//   (default)           Run all health checks
//   fix                 Run checks and attempt auto-fixes
//
// Examples:
//   hearth doctor                Run all health checks
//   hearth doctor --json         Health check results in JSON
//   hearth doctor fix            Run checks and attempt auto-fixes
//
// Health Checks Performed:
//   1. Config            - Config file parses and validates
//   2. Data Directory    - ~/.hearth exists and is writable
//   3. Model Weights     - Default model is downloaded
//   4. History Log       - Chat history log opens cleanly
//   5. Search Index      - Full-text index opens cleanly
//   6. Inference Engine  - Binary was built with the llama backend
//   7. Terminal          - Interactive features are available
//
// Exit Codes:
//   0   All checks passed
//   1   One or more checks failed
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/hearth-tui/internal/config"
	"github.com/jeranaias/hearth-tui/internal/history"
	"github.com/jeranaias/hearth-tui/internal/index"
	"github.com/jeranaias/hearth-tui/internal/llm/llama"
	"github.com/jeranaias/hearth-tui/internal/modelcache"
)

// =============================================================================
// DOCTOR STYLES
// =============================================================================

var (
	// Doctor title style
	doctorTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("39")). // Cyan
				MarginBottom(1)

	// Check pass style (green checkmark)
	checkPassStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("82")).
			Bold(true)

	// Check warn style (yellow warning)
	checkWarnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("220")).
			Bold(true)

	// Check fail style (red X)
	checkFailStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	// Check message style
	checkMsgStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	// Fix suggestion style
	fixStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Italic(true).
			PaddingLeft(2)

	// Summary style
	summaryStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))
)

// =============================================================================
// HEALTH CHECK TYPES
// =============================================================================

// CheckStatus represents the status of a health check.
type CheckStatus int

const (
	// CheckPass indicates the check passed successfully.
	CheckPass CheckStatus = iota
	// CheckWarn indicates the check passed with warnings.
	CheckWarn
	// CheckFail indicates the check failed.
	CheckFail
)

// String returns the string representation of the check status.
func (s CheckStatus) String() string {
	switch s {
	case CheckPass:
		return "Pass"
	case CheckWarn:
		return "Warn"
	case CheckFail:
		return "Fail"
	default:
		return "Unknown"
	}
}

// Symbol returns the styled marker for the check status.
func (s CheckStatus) Symbol() string {
	switch s {
	case CheckPass:
		return checkPassStyle.Render("[OK]")
	case CheckWarn:
		return checkWarnStyle.Render("[!!]")
	case CheckFail:
		return checkFailStyle.Render("[FAIL]")
	default:
		return "?"
	}
}

// HealthCheck represents a single health check result.
type HealthCheck struct {
	Name    string
	Status  CheckStatus
	Message string
	Fix     string // Suggested fix command or instruction

	// fixFn, when set, repairs the issue in-process. Checks whose fix is a
	// shell command or a user decision leave it nil.
	fixFn func() error
}

// Render returns a formatted string representation of the health check.
func (c *HealthCheck) Render() string {
	result := fmt.Sprintf("%s %s", c.Status.Symbol(), checkMsgStyle.Render(c.Message))
	if c.Status != CheckPass && c.Fix != "" {
		result += "\n" + fixStyle.Render("-> "+c.Fix)
	}
	return result
}

// TryFix attempts to automatically fix the issue if possible.
func (c *HealthCheck) TryFix() error {
	if c.Status == CheckPass {
		return nil
	}
	if c.fixFn == nil {
		if c.Fix == "" {
			return fmt.Errorf("no fix available")
		}
		return fmt.Errorf("manual fix required: %s", c.Fix)
	}
	return c.fixFn()
}

// =============================================================================
// HANDLE DOCTOR
// =============================================================================

// HandleDoctor handles the "doctor" command.
// Runs health checks and optionally attempts auto-fixes.
func HandleDoctor(args Args) error {
	// Run all checks
	checks := runAllChecks()

	// Count results
	passed := 0
	warned := 0
	failed := 0
	for _, check := range checks {
		switch check.Status {
		case CheckPass:
			passed++
		case CheckWarn:
			warned++
		case CheckFail:
			failed++
		}
	}

	// JSON output mode for scripting
	if args.JSON {
		return handleDoctorJSON(checks, passed, warned, failed)
	}

	// Human-readable output
	separator := strings.Repeat("=", 41)
	fmt.Println()
	fmt.Println(doctorTitleStyle.Render("hearth Doctor"))
	fmt.Println(separatorStyle.Render(separator))
	fmt.Println()

	// Display results
	for _, check := range checks {
		fmt.Println(check.Render())
	}

	// Summary line
	fmt.Println()
	fmt.Println(separatorStyle.Render(strings.Repeat("-", 41)))

	summaryParts := []string{
		fmt.Sprintf("%d passed", passed),
	}
	if warned > 0 {
		summaryParts = append(summaryParts, checkWarnStyle.Render(fmt.Sprintf("%d warning", warned)))
	}
	if failed > 0 {
		summaryParts = append(summaryParts, checkFailStyle.Render(fmt.Sprintf("%d failed", failed)))
	}

	fmt.Println(summaryStyle.Render(strings.Join(summaryParts, ", ")))
	fmt.Println()

	// Auto-fix if requested
	if args.Subcommand == "fix" && (warned > 0 || failed > 0) {
		fmt.Println(doctorTitleStyle.Render("Attempting Auto-Fix..."))
		fmt.Println()

		for _, check := range checks {
			if check.Status != CheckPass {
				if err := check.TryFix(); err != nil {
					fmt.Printf("  %s Could not fix %s: %s\n",
						checkWarnStyle.Render("[!!]"),
						check.Name,
						err)
				} else {
					fmt.Printf("  %s Fixed %s\n",
						checkPassStyle.Render("[OK]"),
						check.Name)
				}
			}
		}
		fmt.Println()
	}

	// Return error if there are failures
	if failed > 0 {
		return fmt.Errorf("%d health check(s) failed", failed)
	}

	return nil
}

// handleDoctorJSON outputs doctor results in JSON format.
func handleDoctorJSON(checks []*HealthCheck, passed, warned, failed int) error {
	// Convert checks to JSON-friendly format
	jsonChecks := make([]DoctorCheck, 0, len(checks))
	for _, check := range checks {
		status := "pass"
		switch check.Status {
		case CheckWarn:
			status = "warn"
		case CheckFail:
			status = "fail"
		}

		jsonChecks = append(jsonChecks, DoctorCheck{
			Name:    check.Name,
			Status:  status,
			Message: check.Message,
			Fix:     check.Fix,
		})
	}

	data := DoctorData{
		Checks: jsonChecks,
		Summary: DoctorSummary{
			Passed:  passed,
			Warned:  warned,
			Failed:  failed,
			Healthy: failed == 0,
		},
	}

	resp := NewJSONResponse("doctor", data)

	// If there are failures, mark as unsuccessful but still output data
	if failed > 0 {
		errMsg := fmt.Sprintf("%d health check(s) failed", failed)
		resp.Success = false
		resp.Error = &errMsg
	}

	return resp.Print()
}

// =============================================================================
// HEALTH CHECK FUNCTIONS
// =============================================================================

// runAllChecks runs all health checks and returns the results.
func runAllChecks() []*HealthCheck {
	cfg, configCheck := checkConfigValid()

	return []*HealthCheck{
		configCheck,
		checkDataDirWritable(),
		checkModelInstalled(cfg),
		checkHistoryLog(cfg),
		checkSearchIndex(cfg),
		checkEngineBuilt(),
		checkTerminal(),
	}
}

// checkConfigValid checks that the config file parses and validates.
// The loaded config (or defaults, on failure) is returned for the checks
// that follow.
func checkConfigValid() (*config.Config, *HealthCheck) {
	check := &HealthCheck{
		Name: "Config",
	}

	configPath, err := config.ConfigPathTOML()
	if err != nil {
		check.Status = CheckFail
		check.Message = fmt.Sprintf("Could not determine config path: %s", err)
		return config.Default(), check
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		check.Status = CheckPass
		check.Message = "Config valid (no file yet; defaults active)"
		return config.Default(), check
	}

	cfg, err := config.Load()
	if err != nil {
		check.Status = CheckFail
		check.Message = fmt.Sprintf("Config invalid: %s", err)
		check.Fix = fmt.Sprintf("Fix the reported key in %s, or delete the file to restore defaults", configPath)
		return config.Default(), check
	}

	if err := cfg.Validate(); err != nil {
		check.Status = CheckFail
		check.Message = fmt.Sprintf("Config invalid: %s", err)
		check.Fix = "Run: hearth config list to inspect current values"
		return config.Default(), check
	}

	check.Status = CheckPass
	check.Message = "Config valid"
	return cfg, check
}

// checkDataDirWritable checks that the data directory can be written.
func checkDataDirWritable() *HealthCheck {
	check := &HealthCheck{
		Name: "Data Directory",
	}

	dir, err := config.ConfigDir()
	if err != nil {
		check.Status = CheckFail
		check.Message = fmt.Sprintf("Could not determine data directory: %s", err)
		return check
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		check.Status = CheckFail
		check.Message = fmt.Sprintf("Could not create data directory: %s", err)
		check.Fix = fmt.Sprintf("Create manually: mkdir -p %s", dir)
		check.fixFn = func() error { return os.MkdirAll(dir, 0755) }
		return check
	}

	// Try to write a test file
	testFile := filepath.Join(dir, ".write_test")
	if err := os.WriteFile(testFile, []byte("test"), 0644); err != nil {
		check.Status = CheckFail
		check.Message = fmt.Sprintf("Data directory not writable: %s", err)
		check.Fix = fmt.Sprintf("Check permissions: chmod 755 %s", dir)
		return check
	}
	os.Remove(testFile)

	check.Status = CheckPass
	check.Message = fmt.Sprintf("Data directory writable (%s)", dir)
	return check
}

// checkModelInstalled checks that the default model's weights are cached.
func checkModelInstalled(cfg *config.Config) *HealthCheck {
	check := &HealthCheck{
		Name: "Model Weights",
	}

	modelID := cfg.DefaultModel
	if modelID == "" {
		modelID = modelcache.DefaultModelID
	}

	spec, ok := modelcache.Lookup(modelID)
	if !ok {
		check.Status = CheckWarn
		check.Message = fmt.Sprintf("Default model not in the registry: %s", modelID)
		check.Fix = "Run: hearth config set default_model <id> (see: hearth models list)"
		return check
	}

	dir, err := cfg.ModelsDir()
	if err != nil {
		check.Status = CheckFail
		check.Message = fmt.Sprintf("Could not determine models directory: %s", err)
		return check
	}

	cache, err := modelcache.New(dir)
	if err != nil {
		check.Status = CheckFail
		check.Message = fmt.Sprintf("Could not open model cache: %s", err)
		return check
	}

	if !cache.IsCached(spec) {
		check.Status = CheckWarn
		check.Message = fmt.Sprintf("Model not downloaded: %s (%s)", spec.ID, spec.SizeString())
		check.Fix = fmt.Sprintf("Run: hearth models pull %s", spec.ID)
		check.fixFn = func() error {
			if !PromptYesNo(fmt.Sprintf("  Download %s (%s) now?", spec.ID, spec.SizeString())) {
				return fmt.Errorf("download declined")
			}
			_, err := cache.Resolve(context.Background(), spec, func(file string, fraction float64) {
				if fraction >= 0 {
					fmt.Fprintf(os.Stderr, "\r  %s %3.0f%%", file, fraction*100)
				}
			})
			fmt.Fprintln(os.Stderr)
			return err
		}
		return check
	}

	check.Status = CheckPass
	check.Message = fmt.Sprintf("Model installed: %s", spec.ID)
	return check
}

// checkHistoryLog checks that the history log opens cleanly.
func checkHistoryLog(cfg *config.Config) *HealthCheck {
	check := &HealthCheck{
		Name: "History Log",
	}

	if !cfg.History.Enabled {
		check.Status = CheckPass
		check.Message = "History disabled by config"
		return check
	}

	path, err := cfg.HistoryPath()
	if err != nil {
		check.Status = CheckFail
		check.Message = fmt.Sprintf("Could not determine history path: %s", err)
		return check
	}

	store, err := history.Open(path)
	if err != nil {
		check.Status = CheckFail
		check.Message = fmt.Sprintf("History log unreadable: %s", err)
		check.Fix = fmt.Sprintf("Move %s aside if corrupt; a fresh log is started automatically", path)
		return check
	}
	defer store.Close()

	check.Status = CheckPass
	check.Message = fmt.Sprintf("History log OK (%d entries)", store.Len())
	return check
}

// checkSearchIndex checks that the full-text index opens. The index is
// derived from the history log, so deleting a broken one is safe: the next
// search rebuilds it.
func checkSearchIndex(cfg *config.Config) *HealthCheck {
	check := &HealthCheck{
		Name: "Search Index",
	}

	path, err := cfg.IndexPath()
	if err != nil {
		check.Status = CheckFail
		check.Message = fmt.Sprintf("Could not determine index path: %s", err)
		return check
	}

	idx, err := index.Open(path)
	if err != nil {
		check.Status = CheckWarn
		check.Message = fmt.Sprintf("Search index unavailable: %s", err)
		check.Fix = fmt.Sprintf("Delete %s; it is rebuilt on the next search", path)
		check.fixFn = func() error { return os.Remove(path) }
		return check
	}
	idx.Close()

	check.Status = CheckPass
	check.Message = "Search index OK"
	return check
}

// checkEngineBuilt checks whether the llama backend was compiled in.
func checkEngineBuilt() *HealthCheck {
	check := &HealthCheck{
		Name: "Inference Engine",
	}

	if !llama.Built {
		check.Status = CheckWarn
		check.Message = "Built without the llama backend; generation will fail"
		check.Fix = "Rebuild with: go build -tags llama"
		return check
	}

	check.Status = CheckPass
	check.Message = "Inference engine available (llama.cpp)"
	return check
}

// checkTerminal checks whether interactive features can run.
func checkTerminal() *HealthCheck {
	check := &HealthCheck{
		Name: "Terminal",
	}

	caps := GetTerminalCapabilities()

	if !caps.IsTTY {
		check.Status = CheckWarn
		check.Message = "Not a terminal; chat and TUI need an interactive session"
		return check
	}

	colors := "colors on"
	if !caps.ColorsEnabled {
		colors = "colors off"
	}

	check.Status = CheckPass
	check.Message = fmt.Sprintf("Terminal interactive (%dx%d, %s)", caps.Width, caps.Height, colors)
	return check
}
