// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides UI components for the hearth TUI.
package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/hearth-tui/internal/ui/styles"
)

// =============================================================================
// PROGRESS INDICATOR COMPONENT
// =============================================================================

// ProgressStatus represents the state of a progress indicator
type ProgressStatus string

const (
	ProgressStatusRunning  ProgressStatus = "Running"
	ProgressStatusComplete ProgressStatus = "Complete"
	ProgressStatusCanceled ProgressStatus = "Canceled"
	ProgressStatusError    ProgressStatus = "Error"
)

// ProgressIndicator tracks a long model operation: downloading weights or
// loading them into memory. Displays the operation label, the file in
// flight, completion fraction, and elapsed time.
type ProgressIndicator struct {
	// Label describes the operation, e.g. "Downloading stablelm-2-zephyr"
	Label string

	// Detail names what is currently moving, e.g. the weights file
	Detail string

	// Fraction is completion in [0, 1]. Negative means total size unknown,
	// in which case a pulse is shown instead of a bar.
	Fraction float64

	// Time tracking
	StartTime time.Time

	// State
	Status ProgressStatus

	// Display settings
	Width          int
	ShowCancelHint bool // Whether to show "Press Esc to cancel"
	Compact        bool // Use compact single-line mode
}

// NewProgressIndicator creates a progress indicator for the given operation.
func NewProgressIndicator(label string) *ProgressIndicator {
	return &ProgressIndicator{
		Label:          label,
		Fraction:       -1,
		StartTime:      time.Now(),
		Status:         ProgressStatusRunning,
		Width:          80,
		ShowCancelHint: true,
	}
}

// SetDetail updates the detail line.
func (p *ProgressIndicator) SetDetail(detail string) {
	p.Detail = detail
}

// SetFraction updates the completion fraction. Values above 1 clamp to 1;
// negative values mark the total as unknown.
func (p *ProgressIndicator) SetFraction(fraction float64) {
	if fraction > 1 {
		fraction = 1
	}
	p.Fraction = fraction
}

// Complete marks the progress as complete.
func (p *ProgressIndicator) Complete() {
	p.Status = ProgressStatusComplete
	p.Fraction = 1
}

// Cancel marks the progress as canceled.
func (p *ProgressIndicator) Cancel() {
	p.Status = ProgressStatusCanceled
}

// Error marks the progress as errored.
func (p *ProgressIndicator) Error() {
	p.Status = ProgressStatusError
}

// GetElapsed returns the elapsed time since the operation started.
func (p *ProgressIndicator) GetElapsed() time.Duration {
	if p.StartTime.IsZero() {
		return 0
	}
	return time.Since(p.StartTime)
}

// GetPercent returns the progress percentage (0-100), or -1 when unknown.
func (p *ProgressIndicator) GetPercent() float64 {
	if p.Fraction < 0 {
		return -1
	}
	return p.Fraction * 100
}

// IsActive returns true if the operation is still running.
func (p *ProgressIndicator) IsActive() bool {
	return p.Status == ProgressStatusRunning
}

// =============================================================================
// RENDERING
// =============================================================================

// Render renders the progress indicator.
func (p *ProgressIndicator) Render() string {
	if p.Compact {
		return p.renderCompact()
	}
	return p.renderFull()
}

// renderFull renders the full boxed progress indicator.
func (p *ProgressIndicator) renderFull() string {
	// Calculate dimensions
	width := p.Width
	if width <= 0 {
		width = 80
	}
	contentWidth := width - 4 // Account for borders and padding

	if contentWidth < 30 {
		// Too narrow for full display - use compact mode
		return p.renderCompact()
	}

	// Build content lines
	var lines []string

	// Line 1: Label
	labelStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(styles.TextPrimary)
	lines = append(lines, labelStyle.Render(p.Label))

	// Line 2: Progress bar or pulse when the total is unknown
	lines = append(lines, p.renderProgressBar(contentWidth))

	// Line 3: Detail (if available)
	if p.Detail != "" {
		detailStyle := lipgloss.NewStyle().
			Foreground(styles.TextSecondary)
		lines = append(lines, detailStyle.Render(p.Detail))
	}

	// Line 4: Time info
	timeStyle := lipgloss.NewStyle().
		Foreground(styles.TextMuted)
	lines = append(lines, timeStyle.Render("Elapsed: "+formatProgressDuration(p.GetElapsed())))

	// Line 5: Cancel hint (if enabled)
	if p.ShowCancelHint && p.Status == ProgressStatusRunning {
		hintStyle := lipgloss.NewStyle().
			Foreground(styles.TextMuted).
			Italic(true)
		lines = append(lines, hintStyle.Render("Press Esc to cancel"))
	}

	// Join lines
	content := strings.Join(lines, "\n")

	// Determine border color based on status
	borderColor := p.statusColor()

	// Create box
	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(borderColor).
		Padding(0, 1).
		Width(contentWidth)

	// Add title based on status
	title := p.getTitle()
	if title != "" {
		titleStyle := lipgloss.NewStyle().
			Bold(true).
			Foreground(borderColor)

		return titleStyle.Render(title) + "\n" + boxStyle.Render(content)
	}

	return boxStyle.Render(content)
}

// renderCompact renders a single-line compact progress indicator.
func (p *ProgressIndicator) renderCompact() string {
	// Format: Downloading model | weights.gguf | 12s | 40% [####------]
	var parts []string

	labelStyle := lipgloss.NewStyle().Bold(true).Foreground(styles.Ember)
	parts = append(parts, labelStyle.Render(p.Label))

	if p.Detail != "" {
		detailStyle := lipgloss.NewStyle().Foreground(styles.Frost)
		parts = append(parts, detailStyle.Render(truncateString(p.Detail, 24)))
	}

	// Elapsed time
	timeStyle := lipgloss.NewStyle().Foreground(styles.TextMuted)
	parts = append(parts, timeStyle.Render(formatProgressDuration(p.GetElapsed())))

	// Progress bar (compact)
	progressStyle := lipgloss.NewStyle().Foreground(p.statusColor())
	percent := p.GetPercent()
	if percent < 0 {
		parts = append(parts, progressStyle.Render(styles.PulseSpinner.Frame(time.Now())))
	} else {
		bar := styles.RenderProgressBar(10, percent)
		percentStr := fmt.Sprintf("%.0f%%", percent)
		parts = append(parts, progressStyle.Render(percentStr+" "+bar))
	}

	// Join with separator
	sep := lipgloss.NewStyle().Foreground(styles.Overlay).Render(" | ")
	return strings.Join(parts, sep)
}

// renderProgressBar renders the progress bar line.
func (p *ProgressIndicator) renderProgressBar(width int) string {
	barStyle := lipgloss.NewStyle().
		Foreground(p.statusColor())

	percent := p.GetPercent()
	if percent < 0 {
		// Total size unknown: pulse instead of a bar
		pulse := styles.PulseSpinner.Frame(time.Now())
		hint := lipgloss.NewStyle().Foreground(styles.TextMuted).Render(" size unknown")
		return barStyle.Render(pulse) + hint
	}

	// Reserve space for percentage
	barWidth := width - 10 // "100% " + some padding
	if barWidth < 10 {
		barWidth = 10
	}

	bar := styles.RenderProgressBar(barWidth, percent)

	percentStr := fmt.Sprintf("%.0f%%", percent)
	percentStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(p.statusColor())

	return barStyle.Render(bar) + " " + percentStyle.Render(percentStr)
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// statusColor returns the accent color for the current status.
func (p *ProgressIndicator) statusColor() lipgloss.AdaptiveColor {
	switch p.Status {
	case ProgressStatusRunning:
		return styles.Amber
	case ProgressStatusComplete:
		return styles.Sage
	case ProgressStatusCanceled:
		return styles.TextMuted
	case ProgressStatusError:
		return styles.Rose
	default:
		return styles.Amber
	}
}

// getTitle returns the title text based on status.
func (p *ProgressIndicator) getTitle() string {
	switch p.Status {
	case ProgressStatusRunning:
		return "- Working -"
	case ProgressStatusComplete:
		return "- Complete -"
	case ProgressStatusCanceled:
		return "- Canceled -"
	case ProgressStatusError:
		return "- Error -"
	default:
		return "- Progress -"
	}
}

// formatProgressDuration formats a duration for display.
func formatProgressDuration(d time.Duration) string {
	seconds := int(d.Seconds())

	if seconds < 1 {
		// Show milliseconds for very short durations
		ms := int(d.Milliseconds())
		return fmt.Sprintf("%dms", ms)
	}

	if seconds < 60 {
		return fmt.Sprintf("%ds", seconds)
	}

	minutes := seconds / 60
	secs := seconds % 60

	if minutes < 60 {
		return fmt.Sprintf("%dm %ds", minutes, secs)
	}

	hours := minutes / 60
	mins := minutes % 60

	return fmt.Sprintf("%dh %dm", hours, mins)
}
