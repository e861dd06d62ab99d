// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
//
// This file contains all rendering logic for the chat interface, including:
//   - Main view rendering (renderChat)
//   - Message rendering (user, assistant, system messages)
//   - UI components (header, status bar, input area, load progress)
//   - Code block processing and syntax highlighting
//   - Overlays (help, history search, errors)
//
// All helper functions for formatting and text utilities live in utils.go.
package chat

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/hearth-tui/internal/model"
	"github.com/jeranaias/hearth-tui/internal/session"
	"github.com/jeranaias/hearth-tui/internal/ui/components"
	"github.com/jeranaias/hearth-tui/internal/ui/styles"
	"github.com/jeranaias/hearth-tui/internal/util"
)

// =============================================================================
// MAIN LAYOUT
// =============================================================================

// renderChat composes the full chat layout: header, optional load progress,
// scrollable transcript, input area, and status bar, with overlays layered
// on top.
func (m Model) renderChat() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	// If help overlay is active, render it instead of normal UI
	if m.showHelp {
		return m.renderHelpOverlay()
	}

	// Build fixed-height components first to calculate available space
	header := m.renderHeader()
	input := m.renderInput()
	status := m.renderStatusBar()

	// Render load progress if a model is downloading or loading
	var progressBar string
	if m.loadProgress != nil {
		progressBar = m.renderLoadProgress()
	}

	// Calculate exact heights
	headerHeight := lipgloss.Height(header)
	inputHeight := lipgloss.Height(input)
	statusHeight := lipgloss.Height(status)
	progressBarHeight := 0
	if progressBar != "" {
		progressBarHeight = lipgloss.Height(progressBar)
	}

	// Calculate available height for messages viewport
	// This MUST match the viewport's configured height
	availableHeight := m.height - headerHeight - inputHeight - statusHeight - progressBarHeight
	if availableHeight < 1 {
		availableHeight = 1
	}

	// Get viewport content - viewport should already be sized correctly
	// via layoutViewport in the Update path. We trust the viewport's height.
	messages := m.viewport.View()

	// Verify viewport height matches available space to catch sizing bugs
	viewportRenderedHeight := lipgloss.Height(messages)
	if viewportRenderedHeight != availableHeight {
		// Viewport height mismatch - force correct height to prevent layout
		// breakage. This is a fallback; the root cause should be fixed in
		// layoutViewport.
		messages = lipgloss.NewStyle().
			Height(availableHeight).
			MaxHeight(availableHeight).
			Width(m.width).
			Render(messages)
	}

	// Stack vertically - order is critical:
	// 1. Header at top
	// 2. Load progress (if a model is loading)
	// 3. Messages area (scrollable viewport)
	// 4. Input area (separator + input + char count)
	// 5. Status bar at bottom
	var baseView string
	if progressBar != "" {
		baseView = lipgloss.JoinVertical(
			lipgloss.Left,
			header,
			progressBar,
			messages,
			input,
			status,
		)
	} else {
		baseView = lipgloss.JoinVertical(
			lipgloss.Left,
			header,
			messages,
			input,
			status,
		)
	}

	// Render model picker overlay on top if visible
	if m.picker != nil && m.picker.IsVisible() {
		m.picker.SetSize(m.width, m.height)
		pickerView := m.picker.View()
		return lipgloss.Place(
			m.width, m.height,
			lipgloss.Left, lipgloss.Top,
			baseView+"\n"+pickerView,
		)
	}

	// Render history search overlay
	if m.searchMode {
		searchView := m.renderSearchOverlay()
		return lipgloss.Place(
			m.width, m.height,
			lipgloss.Left, lipgloss.Top,
			baseView+"\n"+searchView,
		)
	}

	// Render blocking error overlay
	if m.lastError != nil {
		errorView := m.renderErrorOverlay()
		return lipgloss.Place(
			m.width, m.height,
			lipgloss.Left, lipgloss.Top,
			baseView+"\n"+errorView,
		)
	}

	return baseView
}

// =============================================================================
// HEADER
// =============================================================================

func (m Model) renderHeader() string {
	width := m.width
	if width <= 0 {
		width = 80
	}

	// Title
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(styles.Ember).
		Render("hearth")

	// Model info
	modelName := m.conversation.Model
	if modelName == "" {
		modelName = "no model"
	}
	modelInfo := lipgloss.NewStyle().
		Foreground(styles.TextMuted).
		Render(" | " + modelName)

	// Status indicator
	var statusIcon string
	switch m.controller.State() {
	case session.StateGenerating:
		statusIcon = lipgloss.NewStyle().
			Foreground(styles.Sage).
			Render(" " + styles.AnimationStatusIndicators.Loading)
	case session.StateLoading:
		statusIcon = lipgloss.NewStyle().
			Foreground(styles.Amber).
			Render(" " + styles.AnimationStatusIndicators.Loading)
	case session.StateErrored:
		statusIcon = lipgloss.NewStyle().
			Foreground(styles.Rose).
			Render(" " + styles.StatusIndicators.Error)
	default:
		statusIcon = lipgloss.NewStyle().
			Foreground(styles.Frost).
			Render(" " + styles.StatusIndicators.Success)
	}

	// Combine header content
	headerContent := title + modelInfo + statusIcon

	// Create header bar
	header := lipgloss.NewStyle().
		Background(styles.SurfaceDim).
		Width(width).
		Padding(0, 1).
		Render(headerContent)

	return header
}

// =============================================================================
// MESSAGES
// =============================================================================

// renderMessages renders all messages in the conversation with appropriate styling.
// Returns an empty state message if the conversation is empty or nil.
func (m *Model) renderMessages() string {
	if m.conversation == nil || m.conversation.IsEmpty() {
		return m.renderEmptyState()
	}

	var parts []string
	messages := m.conversation.Messages

	for i, msg := range messages {
		rendered := m.renderMessage(msg, i == len(messages)-1)
		parts = append(parts, rendered)
	}

	// Add thinking indicator while waiting for the first fragment
	if m.controller.State() == session.StateGenerating {
		if last := m.conversation.LastMessage(); last != nil && last.IsStreaming && last.DisplayContent() == "" {
			parts = append(parts, m.renderThinking())
		}
	}

	// Join with consistent vertical spacing for readability
	return strings.Join(parts, "\n")
}

// renderMessage renders a single message based on its role.
// Delegates to role-specific rendering functions for proper styling and layout.
func (m *Model) renderMessage(msg *model.Message, isLast bool) string {
	switch msg.Role {
	case model.RoleUser:
		return m.renderUserMessage(msg)
	case model.RoleAssistant:
		return m.renderAssistantMessage(msg, isLast)
	case model.RoleSystem:
		return m.renderSystemMessage(msg)
	default:
		return msg.DisplayContent()
	}
}

func (m *Model) renderUserMessage(msg *model.Message) string {
	maxWidth := m.width - 8
	if maxWidth > m.width-2 {
		maxWidth = m.width - 2 // Never exceed terminal
	}
	if maxWidth < 10 {
		maxWidth = 10 // Minimum takes precedence
	}

	content := msg.DisplayContent()

	// User bubble style - frost tones, right-aligned feel
	bubble := lipgloss.NewStyle().
		Foreground(styles.UserBubbleFg).
		Background(styles.UserBubbleBg).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(styles.UserBubbleBorder).
		Padding(0, 2).
		MaxWidth(maxWidth)

	// Wrap content with safe width
	wrapWidth := maxWidth - 4
	if wrapWidth < 10 {
		wrapWidth = 10
	}
	rendered := bubble.Render(wrapText(content, wrapWidth))

	// Add margin to push right (user messages align right)
	marginLeft := m.width - lipgloss.Width(rendered) - 4
	if marginLeft < 0 {
		marginLeft = 0
	}

	withMargin := lipgloss.NewStyle().
		MarginLeft(marginLeft).
		MarginTop(1).
		MarginBottom(1).
		Render(rendered)

	// No role label needed - right alignment and color indicate user message
	return withMargin
}

// renderAssistantMessage renders an assistant message with ember styling.
// Includes code block processing, streaming cursor, and statistics.
func (m *Model) renderAssistantMessage(msg *model.Message, isLast bool) string {
	maxWidth := m.width - 8
	if maxWidth > m.width-2 {
		maxWidth = m.width - 2 // Never exceed terminal
	}
	if maxWidth < 10 {
		maxWidth = 10 // Minimum takes precedence
	}

	content := msg.DisplayContent()

	// Skip rendering if no content yet (prevents empty bubble)
	if strings.TrimSpace(content) == "" && !msg.IsStreaming {
		return ""
	}

	// Add streaming cursor if this is the last message and a reply is
	// being generated
	if msg.IsStreaming && m.controller.State() == session.StateGenerating {
		if content == "" {
			content = "_" // Show just cursor when no content yet
		} else {
			content += lipgloss.NewStyle().
				Foreground(styles.Ember).
				Blink(true).
				Render("_")
		}
	}

	// Process code blocks in the content
	processedContent := m.renderContentWithCodeBlocks(content, maxWidth)

	// Add statistics line if complete
	var statsLine string
	if !msg.IsStreaming && msg.TotalDuration > 0 {
		statsLine = "\n" + m.renderStats(msg)
	}

	// Wrap in consistent margin for clean spacing
	result := processedContent + statsLine
	return lipgloss.NewStyle().
		MarginTop(1).
		MarginBottom(1).
		MarginLeft(2).
		Render(result)
}

// renderContentWithCodeBlocks processes content and renders code blocks separately.
func (m *Model) renderContentWithCodeBlocks(content string, maxWidth int) string {
	// Calculate safe wrap width to avoid negative values
	wrapWidth := maxWidth - 4
	if wrapWidth < 10 {
		wrapWidth = 10
	}

	// Check if content has code blocks
	if !strings.Contains(content, "```") {
		// No code blocks - render as normal assistant bubble
		bubble := lipgloss.NewStyle().
			Foreground(styles.AssistantBubbleFg).
			Background(styles.AssistantBubbleBg).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(styles.AssistantBubbleBorder).
			Padding(0, 2).
			MaxWidth(maxWidth)
		return bubble.Render(wrapText(content, wrapWidth))
	}

	// Has code blocks - split and render each part
	var parts []string
	lines := strings.Split(content, "\n")
	var currentText []string
	var inCodeBlock bool
	var codeLines []string
	var language string

	textBubble := lipgloss.NewStyle().
		Foreground(styles.AssistantBubbleFg).
		Background(styles.AssistantBubbleBg).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(styles.AssistantBubbleBorder).
		Padding(0, 2).
		MaxWidth(maxWidth)

	for _, line := range lines {
		if strings.HasPrefix(line, "```") {
			if inCodeBlock {
				// End of code block - render it
				if len(currentText) > 0 {
					text := strings.Join(currentText, "\n")
					if strings.TrimSpace(text) != "" {
						parts = append(parts, textBubble.Render(wrapText(text, wrapWidth)))
					}
					currentText = nil
				}

				// Render code block
				code := strings.Join(codeLines, "\n")
				cb := components.NewCodeBlock(language, code)
				cb.SetMaxWidth(maxWidth)
				parts = append(parts, cb.Render())

				codeLines = nil
				language = ""
				inCodeBlock = false
			} else {
				// Start of code block
				if len(currentText) > 0 {
					text := strings.Join(currentText, "\n")
					if strings.TrimSpace(text) != "" {
						parts = append(parts, textBubble.Render(wrapText(text, wrapWidth)))
					}
					currentText = nil
				}

				language = strings.TrimPrefix(line, "```")
				language = strings.TrimSpace(language)
				inCodeBlock = true
			}
		} else if inCodeBlock {
			codeLines = append(codeLines, line)
		} else {
			currentText = append(currentText, line)
		}
	}

	// Handle remaining content
	if len(currentText) > 0 {
		text := strings.Join(currentText, "\n")
		if strings.TrimSpace(text) != "" {
			parts = append(parts, textBubble.Render(wrapText(text, wrapWidth)))
		}
	}

	// Handle unclosed code block (common mid-stream)
	if inCodeBlock {
		if len(codeLines) > 0 {
			// Render as code block
			code := strings.Join(codeLines, "\n")
			cb := components.NewCodeBlock(language, code)
			cb.SetMaxWidth(maxWidth)
			parts = append(parts, cb.Render())
		} else {
			// Just an opening marker with no content - render as text
			text := "```" + language
			if strings.TrimSpace(text) != "" {
				parts = append(parts, textBubble.Render(text))
			}
		}
	}

	return strings.Join(parts, "\n")
}

// renderSystemMessage renders a system message with amber styling.
func (m *Model) renderSystemMessage(msg *model.Message) string {
	maxWidth := m.width - 8
	if maxWidth > m.width-2 {
		maxWidth = m.width - 2 // Never exceed terminal
	}
	if maxWidth < 10 {
		maxWidth = 10 // Minimum takes precedence
	}

	content := msg.DisplayContent()

	// System bubble style - amber tones, centered
	// Double border indicates system message
	bubble := lipgloss.NewStyle().
		Foreground(styles.SystemBubbleFg).
		Background(styles.SystemBubbleBg).
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(styles.SystemBubbleBorder).
		Padding(0, 2).
		MaxWidth(maxWidth)

	// Calculate safe wrap width to avoid negative values
	wrapWidth := maxWidth - 4
	if wrapWidth < 10 {
		wrapWidth = 10
	}
	rendered := bubble.Render(wrapText(content, wrapWidth))

	// Wrap with consistent margins
	return lipgloss.NewStyle().
		MarginTop(1).
		MarginBottom(1).
		Render(rendered)
}

// renderStats renders the statistics line for a message.
func (m *Model) renderStats(msg *model.Message) string {
	stats := msg.FormatStats()
	if stats == "" {
		return ""
	}

	// Note which archive entry holds this exchange
	if msg.HistoryID > 0 {
		stats += fmt.Sprintf(" - saved #%d", msg.HistoryID)
	}

	return lipgloss.NewStyle().
		Foreground(styles.TextMuted).
		Italic(true).
		PaddingLeft(2).
		Render(stats)
}

// renderThinking renders the indicator shown between submit and the first
// fragment.
func (m *Model) renderThinking() string {
	frame := styles.LineSpinner.Frame(time.Now())

	thinkingStyle := lipgloss.NewStyle().
		Foreground(styles.TextSecondary)

	spinnerStyle := lipgloss.NewStyle().
		Foreground(styles.Ember)

	text := thinkingStyle.Render("Thinking")
	dots := spinnerStyle.Render("...")

	return spinnerStyle.Render(frame) + " " + text + dots
}

// renderEmptyState renders the empty conversation state with a welcoming interface.
// Shows: welcome message, current model, quick tips, example prompts, and help hint.
func (m *Model) renderEmptyState() string {
	width := m.width
	if width <= 0 {
		width = 80
	}
	emptyWidth := width - 8
	if emptyWidth < 40 {
		emptyWidth = 40 // Minimum for readable content
	}
	if emptyWidth > 80 {
		emptyWidth = 80 // Cap width for readability
	}

	var sb strings.Builder

	// Welcome header with model name
	welcomeStyle := lipgloss.NewStyle().
		Foreground(styles.Ember).
		Bold(true).
		Align(lipgloss.Center).
		Width(emptyWidth)
	sb.WriteString(welcomeStyle.Render("Welcome to hearth"))
	sb.WriteString("\n\n")

	// Current model info
	modelStyle := lipgloss.NewStyle().
		Foreground(styles.TextSecondary).
		Align(lipgloss.Center).
		Width(emptyWidth)
	modelName := m.conversation.Model
	if modelName == "" {
		modelName = "No model loaded"
	}
	sb.WriteString(modelStyle.Render("Model: " + modelName))
	sb.WriteString("\n\n")

	// Separator
	sepStyle := lipgloss.NewStyle().
		Foreground(styles.Overlay).
		Align(lipgloss.Center).
		Width(emptyWidth)
	sb.WriteString(sepStyle.Render(strings.Repeat("-", 40)))
	sb.WriteString("\n\n")

	// Quick tips section
	tipsHeaderStyle := lipgloss.NewStyle().
		Foreground(styles.Frost).
		Bold(true)
	sb.WriteString(tipsHeaderStyle.Render("Quick Tips"))
	sb.WriteString("\n\n")

	tipStyle := lipgloss.NewStyle().
		Foreground(styles.TextMuted)
	keyStyle := lipgloss.NewStyle().
		Foreground(styles.Amber).
		Bold(true)

	tips := []struct {
		key  string
		desc string
	}{
		{"Type a message", "Everything runs on your machine"},
		{"?", "Show keyboard shortcuts"},
		{"/help", "List available commands"},
		{"Ctrl+P", "Switch model"},
		{"Ctrl+R", "Cycle preset (careful/creative/deranged)"},
		{"Up", "Recall previous prompts while typing"},
	}

	for _, tip := range tips {
		line := fmt.Sprintf("  %s  %s",
			keyStyle.Render(fmt.Sprintf("%-16s", tip.key)),
			tipStyle.Render(tip.desc))
		sb.WriteString(line)
		sb.WriteString("\n")
	}

	sb.WriteString("\n")

	// Example prompts section
	examplesHeaderStyle := lipgloss.NewStyle().
		Foreground(styles.Sage).
		Bold(true)
	sb.WriteString(examplesHeaderStyle.Render("Try asking"))
	sb.WriteString("\n\n")

	exampleStyle := lipgloss.NewStyle().
		Foreground(styles.TextSecondary).
		Italic(true)

	examples := []string{
		"\"Explain how goroutines work in Go\"",
		"\"Write a haiku about winter\"",
		"\"/preset creative\"",
		"\"/model tinyllama-chat\"",
	}

	for _, example := range examples {
		sb.WriteString("  " + exampleStyle.Render(example))
		sb.WriteString("\n")
	}

	sb.WriteString("\n")

	// Help hint at bottom
	hintStyle := lipgloss.NewStyle().
		Foreground(styles.Overlay).
		Align(lipgloss.Center).
		Width(emptyWidth)
	sb.WriteString(hintStyle.Render("Press ? for help | Ctrl+Q to quit"))

	// Wrap everything in a centered container
	containerStyle := lipgloss.NewStyle().
		Align(lipgloss.Center).
		Width(width - 4).
		Padding(2, 0)

	return containerStyle.Render(sb.String())
}

// =============================================================================
// INPUT AREA
// =============================================================================

// renderInput renders the input area with a focus ring indicator.
// The border brightens while the input is focused, following lazygit's focus
// styling pattern, so it is always clear where keystrokes will land.
func (m Model) renderInput() string {
	width := m.width
	if width <= 0 {
		width = 80
	}

	// Determine border color from focus state
	var borderColor lipgloss.AdaptiveColor
	if m.input.Focused() {
		borderColor = styles.FocusRing
	} else {
		borderColor = styles.Overlay
	}

	// Top border line
	borderChar := "─" // Unicode horizontal line
	borderLine := lipgloss.NewStyle().
		Foreground(borderColor).
		Render(strings.Repeat(borderChar, width))

	// Input view - the textinput handles its own prompt
	inputView := m.input.View()

	// Status indicator for a running generation
	var statusIndicator string
	if m.controller.State() == session.StateGenerating {
		statusIndicator = lipgloss.NewStyle().
			Foreground(styles.Amber).
			Render(" (generating...)")
	}

	// Combine input on one line with padding
	inputLineWidth := width - 4
	if inputLineWidth < 10 {
		inputLineWidth = 10
	}

	inputLine := lipgloss.NewStyle().
		Width(inputLineWidth).
		Render("  " + inputView + statusIndicator)

	// Character count - right aligned, subtle
	charCount := m.renderCharCount()

	// Build the input area: border, input line, char count
	result := lipgloss.JoinVertical(
		lipgloss.Left,
		borderLine,
		inputLine,
		charCount,
	)

	// Force exact height of 3 lines to prevent shrinking when user types
	return lipgloss.NewStyle().
		Height(3).
		MaxHeight(3).
		Width(width).
		Render(result)
}

// renderCharCount renders the character count indicator.
func (m Model) renderCharCount() string {
	count := util.RuneLen(m.input.Value())
	max := m.input.CharLimit

	// Prevent division by zero
	if max <= 0 {
		max = 1
	}

	// Determine color based on usage
	var style lipgloss.Style
	percent := float64(count) / float64(max) * 100

	if percent >= 90 {
		style = lipgloss.NewStyle().Foreground(styles.Rose)
	} else if percent >= 75 {
		style = lipgloss.NewStyle().Foreground(styles.Amber)
	} else {
		style = lipgloss.NewStyle().Foreground(styles.TextMuted)
	}

	countStr := formatInt(count) + " / " + formatInt(max)

	// Use stored width, ensure minimum
	width := m.width
	if width <= 0 {
		width = 80
	}
	charCountWidth := width - 4
	if charCountWidth < 10 {
		charCountWidth = 10
	}

	return lipgloss.NewStyle().
		Width(charCountWidth).
		Align(lipgloss.Right).
		Padding(0, 2).
		Render(style.Render(countStr))
}

// =============================================================================
// STATUS BAR
// =============================================================================

// presetBadgeStyle returns the themed style for the active preset.
func (m Model) presetBadgeStyle() lipgloss.Style {
	if m.theme == nil {
		return lipgloss.NewStyle().Bold(true)
	}
	switch m.presetName {
	case "creative":
		return m.theme.PresetCreative
	case "deranged":
		return m.theme.PresetDeranged
	default:
		return m.theme.PresetCareful
	}
}

// renderStatusBar renders the bottom status bar.
// Format: stablelm-2-zephyr | CAREFUL | idle | 1,234 tok  Ctx: [##--------]  ?=help
// Responsive: adapts content based on terminal width with smart truncation.
// Guarantees content NEVER exceeds terminal width - no overflow, no wrapping.
func (m Model) renderStatusBar() string {
	width := m.width
	if width <= 0 {
		width = 80
	}

	sep := lipgloss.NewStyle().Foreground(styles.Overlay).Render(" | ")

	// Maximum available width for content (excluding padding from Padding(0, 1))
	maxContentWidth := width - 4
	if maxContentWidth < 20 {
		maxContentWidth = 20
	}

	// Preset badge
	presetStyle := m.presetBadgeStyle()
	presetFull := presetStyle.Render(strings.ToUpper(m.presetName))
	presetIcon := presetStyle.Render(string([]rune(strings.ToUpper(m.presetName))[0:1]))

	// Session state indicator
	state := m.controller.State()
	var stateStyle lipgloss.Style
	switch state {
	case session.StateGenerating:
		stateStyle = lipgloss.NewStyle().Foreground(styles.Sage).Bold(true)
	case session.StateLoading:
		stateStyle = lipgloss.NewStyle().Foreground(styles.Amber).Bold(true)
	case session.StateErrored:
		stateStyle = lipgloss.NewStyle().Foreground(styles.Rose).Bold(true)
	default:
		stateStyle = lipgloss.NewStyle().Foreground(styles.TextMuted)
	}
	stateStr := stateStyle.Render(state.String())

	// Transient status message
	var statusMsgStr string
	if m.statusMsg != "" {
		statusMsgStr = lipgloss.NewStyle().
			Foreground(styles.Frost).
			Render(m.statusMsg)
	}

	// Context token estimate
	var tokenStr string
	if tokens := m.conversation.EstimateTokens(); tokens > 0 {
		tokenStr = lipgloss.NewStyle().
			Foreground(styles.TextMuted).
			Render(fmt.Sprintf("%s tok", formatNumberWithCommas(tokens)))
	}

	contextBarFull := m.renderContextBar()
	contextBarCompact := m.renderContextBarCompact()

	// Help hint styled to be subtle but noticeable - always show in some form
	shortcutsShort := lipgloss.NewStyle().Foreground(styles.TextMuted).Render("? | ^C")
	shortcutsFull := lipgloss.NewStyle().Foreground(styles.TextMuted).Render("?=help | ^R=preset | ^C=stop")

	// Helper function to build and measure status bar with given components
	buildStatusBar := func(modelName string, showFullPreset, showState, showStatusMsg, showTokens, useFullContext, useFullShortcuts bool) (left, right string, totalWidth int) {
		modelStr := lipgloss.NewStyle().
			Foreground(styles.TextSecondary).
			Render(modelName)

		leftParts := []string{modelStr}

		if showFullPreset {
			leftParts = append(leftParts, presetFull)
		} else {
			leftParts = append(leftParts, presetIcon)
		}

		if showState {
			leftParts = append(leftParts, stateStr)
		}

		left = strings.Join(leftParts, sep)

		if showStatusMsg && statusMsgStr != "" {
			left += sep + statusMsgStr
		}
		if showTokens && tokenStr != "" {
			left += sep + tokenStr
		}

		var rightParts []string
		if useFullContext {
			rightParts = append(rightParts, contextBarFull)
		} else {
			rightParts = append(rightParts, contextBarCompact)
		}
		if useFullShortcuts {
			rightParts = append(rightParts, shortcutsFull)
		} else {
			rightParts = append(rightParts, shortcutsShort)
		}
		right = strings.Join(rightParts, "  ")

		leftWidth := lipgloss.Width(left)
		rightWidth := lipgloss.Width(right)
		totalWidth = leftWidth + rightWidth + 1 // +1 for minimum spacing

		return left, right, totalWidth
	}

	// Try configurations from most complete to most minimal
	// Each step removes one element or truncates more aggressively
	modelName := m.conversation.Model
	if modelName == "" {
		modelName = "no model"
	}

	type statusConfig struct {
		modelMaxLen      int
		showFullPreset   bool
		showState        bool
		showStatusMsg    bool
		showTokens       bool
		useFullContext   bool
		useFullShortcuts bool
	}

	configurations := []statusConfig{
		// Full configuration
		{40, true, true, true, true, true, true},
		// Remove tokens
		{40, true, true, true, false, true, true},
		// Remove status message
		{40, true, true, false, false, true, true},
		// Use compact shortcuts
		{40, true, true, false, false, true, false},
		// Use compact context
		{40, true, true, false, false, false, false},
		// Remove state
		{40, true, false, false, false, false, false},
		// Use preset initial only
		{40, false, false, false, false, false, false},
		// Truncate model name to 25
		{25, false, false, false, false, false, false},
		// Truncate model name to 18
		{18, false, false, false, false, false, false},
		// Truncate model name to 12
		{12, false, false, false, false, false, false},
		// Minimal - truncate model to 5
		{5, false, false, false, false, false, false},
	}

	var finalLeft, finalRight string
	for _, cfg := range configurations {
		truncatedModel := modelName
		// Use rune-based truncation to handle Unicode correctly
		modelRunes := []rune(truncatedModel)
		if len(modelRunes) > cfg.modelMaxLen {
			truncatedModel = string(modelRunes[:cfg.modelMaxLen]) + ".."
		}

		left, right, totalWidth := buildStatusBar(
			truncatedModel,
			cfg.showFullPreset,
			cfg.showState,
			cfg.showStatusMsg,
			cfg.showTokens,
			cfg.useFullContext,
			cfg.useFullShortcuts,
		)

		if totalWidth <= maxContentWidth {
			finalLeft = left
			finalRight = right
			break
		}
	}

	// Fallback: if still too wide after all configurations, use absolute minimum
	if finalLeft == "" {
		finalLeft = presetIcon
		finalRight = shortcutsShort
	}

	// Calculate padding - guaranteed to fit now since we checked width above
	leftWidth := lipgloss.Width(finalLeft)
	rightWidth := lipgloss.Width(finalRight)
	padding := maxContentWidth - leftWidth - rightWidth
	if padding < 0 {
		padding = 0
	}

	// Build status bar
	status := lipgloss.NewStyle().
		Background(styles.SurfaceDim).
		Width(width).
		Padding(0, 1).
		Render(finalLeft + strings.Repeat(" ", padding) + finalRight)

	return status
}

// renderContextBar renders the context usage bar.
func (m Model) renderContextBar() string {
	percent := m.conversation.ContextPercent
	barWidth := 10

	filled := int(percent / 100 * float64(barWidth))
	if filled < 0 {
		filled = 0
	}
	if filled > barWidth {
		filled = barWidth
	}
	empty := barWidth - filled

	// Determine color
	var color lipgloss.AdaptiveColor
	if percent >= 90 {
		color = styles.Rose
	} else if percent >= 75 {
		color = styles.Amber
	} else {
		color = styles.Frost
	}

	bar := lipgloss.NewStyle().Foreground(color).Render(strings.Repeat("#", filled)) +
		lipgloss.NewStyle().Foreground(styles.Overlay).Render(strings.Repeat("-", empty))

	label := lipgloss.NewStyle().Foreground(styles.TextMuted).Render("Ctx: ")

	return label + "[" + bar + "]"
}

// renderContextBarCompact renders a compact context bar for very narrow terminals.
func (m Model) renderContextBarCompact() string {
	percent := m.conversation.ContextPercent
	barWidth := 5 // Smaller bar for narrow terminals

	filled := int(percent / 100 * float64(barWidth))
	if filled < 0 {
		filled = 0
	}
	if filled > barWidth {
		filled = barWidth
	}
	empty := barWidth - filled

	// Determine color based on context percentage
	var color lipgloss.AdaptiveColor
	if percent >= 90 {
		color = styles.Rose
	} else if percent >= 75 {
		color = styles.Amber
	} else {
		color = styles.Frost
	}

	bar := lipgloss.NewStyle().Foreground(color).Render(strings.Repeat("#", filled)) +
		lipgloss.NewStyle().Foreground(styles.Overlay).Render(strings.Repeat("-", empty))

	return "[" + bar + "]"
}

// =============================================================================
// HELP OVERLAY
// =============================================================================

// renderHelpOverlay renders context-sensitive keyboard shortcuts help overlay.
// Following lazygit's pattern, only shows keybindings that work in the current context.
// This is displayed when the user presses '?' to toggle help.
func (m Model) renderHelpOverlay() string {
	width := m.width
	height := m.height
	if width <= 0 {
		width = 80
	}
	if height <= 0 {
		height = 24
	}

	// Determine the context that was active BEFORE help was shown
	// When help opens, we show keys for the previous context (what user was doing)
	var activeContext HelpContext
	if m.searchMode {
		activeContext = ContextSearch
	} else if m.lastError != nil {
		activeContext = ContextError
	} else if m.controller.State() == session.StateGenerating {
		activeContext = ContextStreaming
	} else if m.controller.State() == session.StateLoading {
		activeContext = ContextLoading
	} else if m.inputMode {
		activeContext = ContextInput
	} else {
		activeContext = ContextNormal
	}

	// Get help items filtered by context and grouped by category
	groupedItems := GetHelpItemsByCategory(activeContext)
	categoryOrder := GetCategoryOrder()

	// Build help content
	var sb strings.Builder

	// Header with context indicator - styled to stand out
	contextName := GetContextDisplayName(activeContext)
	sb.WriteString(fmt.Sprintf("Keys available now (%s)\n", contextName))
	sb.WriteString(strings.Repeat("─", 35) + "\n\n") // Unicode horizontal line

	// Render items grouped by category in preferred order
	hasContent := false
	for _, category := range categoryOrder {
		items, exists := groupedItems[category]
		if !exists || len(items) == 0 {
			continue
		}

		hasContent = true
		// Category header
		categoryStyle := lipgloss.NewStyle().
			Foreground(styles.Frost).
			Bold(true)
		sb.WriteString(categoryStyle.Render(string(category)) + "\n")

		// Items in this category
		for _, item := range items {
			keyStyle := lipgloss.NewStyle().Foreground(styles.Amber)
			descStyle := lipgloss.NewStyle().Foreground(styles.TextMuted)
			sb.WriteString(fmt.Sprintf("  %s  %s\n",
				keyStyle.Render(fmt.Sprintf("%-14s", item.Key)),
				descStyle.Render(item.Desc)))
		}
		sb.WriteString("\n")
	}

	// If no items for this context, show a helpful message
	if !hasContent {
		sb.WriteString("  No specific keybindings for this mode.\n\n")
	}

	// Current state indicator
	sb.WriteString(strings.Repeat("─", 35) + "\n")
	stateStyle := lipgloss.NewStyle().Foreground(styles.TextMuted).Italic(true)

	// Show current mode info
	var modeInfo string
	switch activeContext {
	case ContextInput:
		modeInfo = "Input mode - type your message"
	case ContextNormal:
		modeInfo = "Normal mode - navigate with j/k"
	case ContextStreaming:
		modeInfo = "Generating - Esc or C-c to cancel"
	case ContextLoading:
		modeInfo = "Loading model - Esc to cancel"
	case ContextSearch:
		modeInfo = "History search - Enter recalls a prompt"
	case ContextError:
		modeInfo = "Error - Esc or Enter to dismiss"
	default:
		modeInfo = "Press ? to toggle help"
	}
	sb.WriteString(stateStyle.Render(modeInfo) + "\n")

	// Close hint
	sb.WriteString("\n")
	closeStyle := lipgloss.NewStyle().Foreground(styles.Overlay)
	sb.WriteString(closeStyle.Render("Press ? or Esc to close"))

	content := sb.String()

	// Calculate overlay dimensions - slightly wider for better formatting
	contentWidth := 55
	if contentWidth > width-4 {
		contentWidth = width - 4
	}

	contentLines := strings.Count(content, "\n") + 1
	contentHeight := contentLines + 2 // +2 for padding
	if contentHeight > height-4 {
		contentHeight = height - 4
	}

	// Create help box style with subtle background
	helpStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(styles.Ember).
		Foreground(styles.TextPrimary).
		Background(styles.Surface).
		Padding(1, 2).
		Width(contentWidth).
		MaxHeight(contentHeight)

	helpBox := helpStyle.Render(content)

	// Center the help box
	helpWidth := lipgloss.Width(helpBox)
	helpHeight := lipgloss.Height(helpBox)

	marginLeft := (width - helpWidth) / 2
	if marginLeft < 0 {
		marginLeft = 0
	}
	marginTop := (height - helpHeight) / 2
	if marginTop < 0 {
		marginTop = 0
	}

	// Create centered overlay
	centered := lipgloss.NewStyle().
		MarginLeft(marginLeft).
		MarginTop(marginTop).
		Render(helpBox)

	return centered
}

// =============================================================================
// HISTORY SEARCH OVERLAY
// =============================================================================

// maxSearchRows caps how many matches the overlay lists at once.
const maxSearchRows = 8

// renderSearchOverlay renders the fuzzy history search box.
func (m Model) renderSearchOverlay() string {
	width := m.width
	height := m.height
	if width <= 0 {
		width = 80
	}
	if height <= 0 {
		height = 24
	}

	boxWidth := 64
	if boxWidth > width-4 {
		boxWidth = width - 4
	}
	if boxWidth < 30 {
		boxWidth = 30
	}
	rowWidth := boxWidth - 6

	var sb strings.Builder

	titleStyle := lipgloss.NewStyle().
		Foreground(styles.Ember).
		Bold(true)
	sb.WriteString(titleStyle.Render("History search"))
	sb.WriteString("\n\n")

	sb.WriteString(m.searchInput.View())
	sb.WriteString("\n\n")

	if len(m.searchMatches) == 0 {
		emptyStyle := lipgloss.NewStyle().
			Foreground(styles.TextMuted).
			Italic(true)
		if m.searchInput.Value() == "" {
			sb.WriteString(emptyStyle.Render("No archived prompts yet"))
		} else {
			sb.WriteString(emptyStyle.Render("Nothing matches"))
		}
		sb.WriteString("\n")
	} else {
		// Keep the selection visible by windowing the match list
		start := 0
		if m.searchIndex >= maxSearchRows {
			start = m.searchIndex - maxSearchRows + 1
		}
		end := start + maxSearchRows
		if end > len(m.searchMatches) {
			end = len(m.searchMatches)
		}

		for i := start; i < end; i++ {
			match := m.searchMatches[i]

			marker := "  "
			if i == m.searchIndex {
				marker = lipgloss.NewStyle().Foreground(styles.Ember).Bold(true).Render("> ")
			}

			timestamp := lipgloss.NewStyle().
				Foreground(styles.TextMuted).
				Render(formatTimestamp(match.Entry.Timestamp))

			prompt := highlightPositions(
				truncateRunes(match.Entry.Prompt, rowWidth-10),
				match.Positions,
				i == m.searchIndex,
			)

			sb.WriteString(marker + prompt + "  " + timestamp)
			sb.WriteString("\n")
		}

		countStyle := lipgloss.NewStyle().Foreground(styles.TextMuted)
		sb.WriteString("\n")
		sb.WriteString(countStyle.Render(fmt.Sprintf("%d match(es)", len(m.searchMatches))))
		sb.WriteString("\n")
	}

	hintStyle := lipgloss.NewStyle().Foreground(styles.Overlay)
	sb.WriteString("\n")
	sb.WriteString(hintStyle.Render("Up/Down select | Enter recall | Esc close"))

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(styles.Ember).
		Background(styles.Surface).
		Padding(1, 2).
		Width(boxWidth).
		Render(sb.String())

	// Center the box
	boxHeight := lipgloss.Height(box)
	marginLeft := (width - lipgloss.Width(box)) / 2
	if marginLeft < 0 {
		marginLeft = 0
	}
	marginTop := (height - boxHeight) / 3
	if marginTop < 0 {
		marginTop = 0
	}

	return lipgloss.NewStyle().
		MarginLeft(marginLeft).
		MarginTop(marginTop).
		Render(box)
}

// highlightPositions emphasizes the matched runes of a fuzzy search hit.
// Positions index runes, not bytes, so multi-byte text highlights correctly.
func highlightPositions(text string, positions []int, selected bool) string {
	if len(positions) == 0 {
		return lipgloss.NewStyle().Foreground(styles.TextPrimary).Render(text)
	}

	posSet := make(map[int]bool, len(positions))
	for _, p := range positions {
		posSet[p] = true
	}

	matchStyle := lipgloss.NewStyle().
		Foreground(styles.MatchHighlight).
		Bold(true).
		Underline(selected)
	normalStyle := lipgloss.NewStyle().
		Foreground(styles.TextPrimary)

	var sb strings.Builder
	for i, r := range []rune(text) {
		if posSet[i] {
			sb.WriteString(matchStyle.Render(string(r)))
		} else {
			sb.WriteString(normalStyle.Render(string(r)))
		}
	}
	return sb.String()
}

// =============================================================================
// ERROR OVERLAY
// =============================================================================

// renderErrorOverlay renders the blocking error box with recovery
// suggestions.
func (m Model) renderErrorOverlay() string {
	if m.lastError == nil {
		return ""
	}

	width := m.width
	height := m.height
	if width <= 0 {
		width = 80
	}
	if height <= 0 {
		height = 24
	}

	boxWidth := 56
	if boxWidth > width-4 {
		boxWidth = width - 4
	}

	var titleStyle, messageStyle, suggestionStyle, boxStyle lipgloss.Style
	if m.theme != nil {
		titleStyle = m.theme.ErrorTitle
		messageStyle = m.theme.ErrorMessage
		suggestionStyle = m.theme.ErrorSuggestion
		boxStyle = m.theme.ErrorBox
	} else {
		titleStyle = lipgloss.NewStyle().Foreground(styles.Rose).Bold(true)
		messageStyle = lipgloss.NewStyle().Foreground(styles.TextPrimary)
		suggestionStyle = lipgloss.NewStyle().Foreground(styles.TextSecondary).PaddingLeft(2)
		boxStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.DoubleBorder()).
			BorderForeground(styles.Rose).
			Padding(1, 2)
	}

	var sb strings.Builder
	sb.WriteString(titleStyle.Render(m.lastError.Title))
	sb.WriteString("\n\n")
	sb.WriteString(messageStyle.Render(wrapText(m.lastError.Message, boxWidth-8)))

	if len(m.lastError.Suggestions) > 0 {
		sb.WriteString("\n")
		for _, suggestion := range m.lastError.Suggestions {
			sb.WriteString("\n")
			sb.WriteString(suggestionStyle.Render("- " + suggestion))
		}
	}

	sb.WriteString("\n\n")
	hintStyle := lipgloss.NewStyle().Foreground(styles.Overlay)
	sb.WriteString(hintStyle.Render("Esc or Enter to dismiss"))

	box := boxStyle.Width(boxWidth).Render(sb.String())

	marginLeft := (width - lipgloss.Width(box)) / 2
	if marginLeft < 0 {
		marginLeft = 0
	}
	marginTop := (height - lipgloss.Height(box)) / 2
	if marginTop < 0 {
		marginTop = 0
	}

	return lipgloss.NewStyle().
		MarginLeft(marginLeft).
		MarginTop(marginTop).
		Render(box)
}

// =============================================================================
// LOAD PROGRESS RENDERING
// =============================================================================

// renderLoadProgress renders the model load/download progress block.
func (m Model) renderLoadProgress() string {
	if m.loadProgress == nil {
		return ""
	}

	// Set width for rendering without mutating the model's indicator
	// Create a copy to avoid mutating the shared state
	indicator := *m.loadProgress
	indicator.Width = m.width - 4

	return indicator.Render()
}
