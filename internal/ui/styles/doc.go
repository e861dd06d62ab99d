// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the hearth TUI.

This package defines the complete color palette, theme, and animation
system used throughout the application. All colors use Lip Gloss AdaptiveColor
for automatic light/dark terminal detection.

# Color System (colors.go)

## Primary Accent Colors

  - Ember - Primary accent for assistant replies and selections
  - Frost - Secondary accent for info, commands, and user highlights
  - Sage - Success states and model-ready indicator
  - Amber - Warnings and downloads in flight
  - Rose - Errors and critical alerts

## Semantic Colors

Message bubbles and UI elements use semantic color tokens:

	UserBubbleBg      - Background for user messages
	UserBubbleFg      - Text color for user messages
	AssistantBubbleBg - Background for assistant replies
	AssistantBubbleFg - Text color for assistant replies

## Surface Colors

Layered surface system for depth:

	Surface    - Main background (warm charcoal in the dark)
	SurfaceDim - Subtle backgrounds (headers, status bars)
	Overlay    - Borders, separators, popups

## Text Colors

Hierarchical text color system:

	TextPrimary   - Main content text
	TextSecondary - Supporting text
	TextMuted     - De-emphasized text
	TextInverse   - Text on colored backgrounds

# Theme System (theme.go)

The Theme struct provides runtime color adaptation:

	theme := styles.NewTheme()
	if theme.IsDark {
		// Dark terminal detected
	}
	if theme.HasTrueColor {
		// Terminal supports 16M colors
	}

# Animation System (animations.go)

## Spinner Configurations

Pre-defined spinner styles:

	LineSpinner  - Simple line rotation for streaming replies
	DotsSpinner  - Three-dot animation for model warm-up
	PulseSpinner - Pulsing indicator for long downloads

## Status Indicators

ASCII indicators for various states:

	StatusIndicators.Success   - [OK]
	StatusIndicators.Error     - [X]
	StatusIndicators.Warning   - [!]
	StatusIndicators.Info      - [i]

# Usage Example

	import "github.com/jeranaias/hearth-tui/internal/ui/styles"

	// Use adaptive colors
	headerStyle := lipgloss.NewStyle().
		Background(styles.SurfaceDim).
		Foreground(styles.TextPrimary)

	// Use theme for runtime detection
	theme := styles.NewTheme()
	msg := theme.ErrorStyle.Render("model not found")

	// Use spinner configuration
	frame := styles.LineSpinner.Frame(time.Now())
*/
package styles
