// json_output.go - JSON output support for scripting.
//
// Provides a standardized JSON envelope for all CLI commands so the
// output can be piped into jq or consumed by wrapper scripts.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// JSONResponse is the standardized response format for all CLI commands.
// Every command honoring --json wraps its payload in this envelope, so
// callers can check .success before reading .data.
type JSONResponse struct {
	// Success indicates whether the command completed successfully
	Success bool `json:"success"`

	// Data contains the command-specific response data
	Data interface{} `json:"data"`

	// Error contains the error message if Success is false, null otherwise
	Error *string `json:"error"`

	// Timestamp is the ISO8601 timestamp when the response was generated
	Timestamp string `json:"timestamp"`

	// Command is the command that was executed
	Command string `json:"command,omitempty"`
}

// NewJSONResponse creates a new successful JSON response.
func NewJSONResponse(command string, data interface{}) *JSONResponse {
	return &JSONResponse{
		Success:   true,
		Data:      data,
		Error:     nil,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Command:   command,
	}
}

// NewJSONErrorResponse creates a new error JSON response.
func NewJSONErrorResponse(command string, err error) *JSONResponse {
	errStr := err.Error()
	return &JSONResponse{
		Success:   false,
		Data:      nil,
		Error:     &errStr,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Command:   command,
	}
}

// Print outputs the JSON response to stdout.
// Human-readable messages should go to stderr when JSON mode is enabled.
func (r *JSONResponse) Print() error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(r)
}

// String returns the JSON response as a string.
func (r *JSONResponse) String() string {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Sprintf(`{"success":false,"error":"failed to marshal response: %s","timestamp":"%s"}`,
			err.Error(), time.Now().UTC().Format(time.RFC3339))
	}
	return string(data)
}

// StderrPrint prints a message to stderr (for human-readable output in JSON mode).
func StderrPrint(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format, args...)
}

// StderrPrintln prints a line to stderr (for human-readable output in JSON mode).
func StderrPrintln(msg string) {
	fmt.Fprintln(os.Stderr, msg)
}

// =============================================================================
// COMMAND-SPECIFIC DATA STRUCTURES
// =============================================================================

// AskData represents the data returned by the ask command.
type AskData struct {
	Response     string  `json:"response"`
	Model        string  `json:"model"`
	Tokens       int     `json:"tokens"`
	PromptTokens int     `json:"prompt_tokens"`
	TokensPerSec float64 `json:"tokens_per_sec"`
	Finish       string  `json:"finish"`
	DurationMs   int64   `json:"duration_ms"`
	HistoryID    uint64  `json:"history_id,omitempty"`
}

// ModelsData represents the data returned by the models list command.
type ModelsData struct {
	Models []ModelInfo `json:"models"`
	Dir    string      `json:"dir"`
}

// ModelInfo describes a single registry model.
type ModelInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Params      string `json:"params"`
	Context     int    `json:"context"`
	SizeBytes   int64  `json:"size_bytes"`
	Installed   bool   `json:"installed"`
	Default     bool   `json:"default"`
	Description string `json:"description,omitempty"`
}

// ModelPullData represents the data returned by the models pull command.
type ModelPullData struct {
	ID   string `json:"id"`
	Path string `json:"path"`
}

// ModelRemoveData represents the data returned by the models rm command.
type ModelRemoveData struct {
	ID      string `json:"id"`
	Removed bool   `json:"removed"`
}

// HistoryData represents the data returned by the history list command.
type HistoryData struct {
	Total   int                `json:"total"`
	Path    string             `json:"path"`
	Entries []HistoryEntryInfo `json:"entries"`
}

// HistoryEntryInfo describes a single history entry.
type HistoryEntryInfo struct {
	ID        uint64    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Prompt    string    `json:"prompt"`
	Reply     string    `json:"reply"`
}

// SearchData represents the data returned by the history search command.
type SearchData struct {
	Query   string             `json:"query"`
	Results []SearchResultInfo `json:"results"`
}

// SearchResultInfo describes a single full-text search hit.
type SearchResultInfo struct {
	ID        uint64    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Prompt    string    `json:"prompt"`
	Snippet   string    `json:"snippet"`
	Rank      float64   `json:"rank"`
}

// ConfigData represents the data returned by the config list command.
type ConfigData struct {
	Values map[string]interface{} `json:"values"`
	Path   string                 `json:"path"`
}

// DoctorData represents the data returned by the doctor command.
type DoctorData struct {
	Checks  []DoctorCheck `json:"checks"`
	Summary DoctorSummary `json:"summary"`
}

// DoctorCheck represents a single health check result.
type DoctorCheck struct {
	Name    string `json:"name"`
	Status  string `json:"status"` // "pass", "warn", "fail"
	Message string `json:"message"`
	Fix     string `json:"fix,omitempty"`
}

// DoctorSummary contains the summary of health checks.
type DoctorSummary struct {
	Passed  int  `json:"passed"`
	Warned  int  `json:"warned"`
	Failed  int  `json:"failed"`
	Healthy bool `json:"healthy"`
}

// VersionData represents the data returned by the version command.
type VersionData struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version,omitempty"`
}
