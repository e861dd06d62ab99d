// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides UI components for the hearth TUI.
package components

import (
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/hearth-tui/internal/ui/styles"
)

// =============================================================================
// PICKER OVERLAY
// =============================================================================

// PickerItem is a single selectable entry in a Picker.
type PickerItem struct {
	// ID is the value delivered in PickedMsg when the item is chosen.
	ID string
	// Title is the primary display text.
	Title string
	// Description is secondary text shown after the title.
	Description string
	// Badge is an optional trailing marker, e.g. "installed".
	Badge string
}

// Picker is a centered overlay for fuzzy-searching and selecting one item.
// The chat screen uses it to switch models; the item list is caller-supplied.
type Picker struct {
	// Overlay title, e.g. "Models"
	title string

	// Input field for filtering
	input textinput.Model

	// All items, in caller-preferred order
	items []PickerItem

	// Filtered items with scores
	filtered []scoredItem

	// Selected index
	selected int

	// Dimensions
	width  int
	height int

	// Visibility
	visible bool

	// Theme
	theme *styles.Theme

	// Maximum items to show
	maxItems int
}

// scoredItem holds an item with its fuzzy match score.
type scoredItem struct {
	item  PickerItem
	score int
}

// PickedMsg is sent when an item is chosen from the picker.
type PickedMsg struct {
	ID string
}

// NewPicker creates a picker overlay with the given title.
func NewPicker(title string, theme *styles.Theme) *Picker {
	ti := textinput.New()
	ti.Placeholder = "Type to filter..."
	ti.Prompt = "> "
	ti.CharLimit = 100
	ti.Width = 50
	ti.PromptStyle = lipgloss.NewStyle().Foreground(styles.Frost).Bold(true)
	ti.TextStyle = lipgloss.NewStyle().Foreground(styles.TextPrimary)
	ti.PlaceholderStyle = lipgloss.NewStyle().Foreground(styles.TextMuted).Italic(true)

	p := &Picker{
		title:    title,
		input:    ti,
		theme:    theme,
		maxItems: 10,
	}

	p.updateFiltered()

	return p
}

// =============================================================================
// BUBBLE TEA INTERFACE
// =============================================================================

// Init initializes the picker.
func (p *Picker) Init() tea.Cmd {
	return nil
}

// Update handles messages for the picker.
func (p *Picker) Update(msg tea.Msg) (*Picker, tea.Cmd) {
	if !p.visible {
		return p, nil
	}

	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			p.Hide()
			return p, nil

		case "enter":
			if p.selected >= 0 && p.selected < len(p.filtered) {
				chosen := p.filtered[p.selected].item
				p.Hide()
				return p, func() tea.Msg {
					return PickedMsg{ID: chosen.ID}
				}
			}
			return p, nil

		case "up", "ctrl+p":
			if len(p.filtered) == 0 {
				return p, nil
			}
			p.selected--
			if p.selected < 0 {
				p.selected = len(p.filtered) - 1
			}
			return p, nil

		case "down", "ctrl+n", "tab":
			if len(p.filtered) == 0 {
				return p, nil
			}
			p.selected++
			if p.selected >= len(p.filtered) {
				p.selected = 0
			}
			return p, nil
		}
	}

	// Update the input field
	previousValue := p.input.Value()
	p.input, cmd = p.input.Update(msg)

	// If input changed, update filtered list
	if p.input.Value() != previousValue {
		p.updateFiltered()
		p.selected = 0
	}

	return p, cmd
}

// View renders the picker overlay.
func (p *Picker) View() string {
	if !p.visible {
		return ""
	}

	// Box dimensions
	boxWidth := 60
	if p.width > 0 && p.width < boxWidth+10 {
		boxWidth = p.width - 10
	}
	if boxWidth < 40 {
		boxWidth = 40
	}

	// Header
	headerStyle := lipgloss.NewStyle().
		Foreground(styles.Ember).
		Bold(true).
		Padding(0, 1)
	header := headerStyle.Render(p.title)

	// Separator
	sepStyle := lipgloss.NewStyle().
		Foreground(styles.Overlay)
	separator := sepStyle.Render(strings.Repeat("-", boxWidth-4))

	// Input
	p.input.Width = boxWidth - 6
	inputView := p.input.View()

	// Item list
	var listItems []string
	for i, si := range p.filtered {
		if i >= p.maxItems {
			// Show "... X more" indicator
			remaining := len(p.filtered) - p.maxItems
			if remaining > 0 {
				moreStyle := lipgloss.NewStyle().
					Foreground(styles.TextMuted).
					Italic(true)
				listItems = append(listItems, moreStyle.Render("  ... "+toStr(remaining)+" more"))
			}
			break
		}

		item := p.renderItem(si.item, i == p.selected, boxWidth-6)
		listItems = append(listItems, item)
	}

	list := strings.Join(listItems, "\n")

	// If nothing matches
	if len(p.filtered) == 0 {
		noMatchStyle := lipgloss.NewStyle().
			Foreground(styles.TextMuted).
			Italic(true).
			Padding(1, 0)
		list = noMatchStyle.Render("Nothing matches")
	}

	// Help text
	helpStyle := lipgloss.NewStyle().
		Foreground(styles.TextMuted).
		Padding(1, 0, 0, 0)
	help := helpStyle.Render("Up/Down navigate | Enter select | Esc close")

	// Combine all parts
	content := lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		separator,
		inputView,
		separator,
		list,
		help,
	)

	// Box style
	boxStyle := lipgloss.NewStyle().
		Background(styles.Surface).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(styles.Ember).
		Padding(1, 2).
		Width(boxWidth)

	box := boxStyle.Render(content)

	// Center the box
	if p.width > 0 && p.height > 0 {
		return lipgloss.Place(
			p.width, p.height,
			lipgloss.Center, lipgloss.Center,
			box,
			lipgloss.WithWhitespaceChars(" "),
			lipgloss.WithWhitespaceForeground(lipgloss.Color("#000000")),
		)
	}

	return box
}

// =============================================================================
// INTERNAL METHODS
// =============================================================================

// renderItem renders a single picker item.
func (p *Picker) renderItem(item PickerItem, selected bool, width int) string {
	// Selection indicator (ASCII)
	indicator := "  "
	if selected {
		indicator = "> "
	}

	// Title with matched runes highlighted
	title := p.renderTitle(item.Title)

	// Badge (ASCII)
	badge := ""
	if item.Badge != "" {
		badge = lipgloss.NewStyle().
			Foreground(styles.Sage).
			Render(" [" + item.Badge + "]")
	}

	// Description style
	descStyle := lipgloss.NewStyle().
		Foreground(styles.TextMuted)

	// Calculate remaining width for description
	usedWidth := lipgloss.Width(indicator) + lipgloss.Width(title) + lipgloss.Width(badge) + 2
	descWidth := width - usedWidth
	if descWidth < 10 {
		descWidth = 10
	}

	desc := descStyle.Render(truncateString(item.Description, descWidth))

	line := indicator + title + badge + "  " + desc

	if selected {
		selectedStyle := lipgloss.NewStyle().
			Background(styles.Ember).
			Foreground(styles.TextInverse).
			Width(width).
			Padding(0, 1)
		return selectedStyle.Render(line)
	}

	return line
}

// renderTitle styles the item title, bolding the runes the filter matched.
func (p *Picker) renderTitle(title string) string {
	baseStyle := lipgloss.NewStyle().
		Foreground(styles.Frost).
		Bold(true)

	filter := strings.TrimSpace(p.input.Value())
	if filter == "" {
		return baseStyle.Render(title)
	}

	positions := HighlightMatch(filter, title)
	if len(positions) == 0 {
		return baseStyle.Render(title)
	}

	matchStyle := lipgloss.NewStyle().
		Foreground(styles.MatchHighlight).
		Bold(true).
		Underline(true)

	matched := make(map[int]bool, len(positions))
	for _, pos := range positions {
		matched[pos] = true
	}

	var sb strings.Builder
	for i, r := range []rune(title) {
		if matched[i] {
			sb.WriteString(matchStyle.Render(string(r)))
		} else {
			sb.WriteString(baseStyle.Render(string(r)))
		}
	}
	return sb.String()
}

// updateFiltered updates the filtered item list based on input using fuzzy matching.
func (p *Picker) updateFiltered() {
	filter := strings.TrimSpace(p.input.Value())

	if filter == "" {
		// Show all items in caller order
		all := make([]scoredItem, 0, len(p.items))
		for _, item := range p.items {
			all = append(all, scoredItem{item: item})
		}
		p.filtered = all
		return
	}

	// Fuzzy match against all items
	var scored []scoredItem
	for _, item := range p.items {
		// Try fuzzy matching against title and ID
		titleScore, titleMatched := FuzzyMatch(filter, item.Title)
		idScore, idMatched := FuzzyMatch(filter, item.ID)

		// Try fuzzy matching against description
		descScore, descMatched := FuzzyMatch(filter, item.Description)

		// Take the best match
		bestScore := 0
		matched := false
		if titleMatched && titleScore > bestScore {
			bestScore = titleScore
			matched = true
		}
		if idMatched && idScore > bestScore {
			bestScore = idScore
			matched = true
		}
		if descMatched && descScore/2 > bestScore {
			bestScore = descScore / 2 // Description matches get lower priority
			matched = true
		}

		if matched {
			scored = append(scored, scoredItem{
				item:  item,
				score: bestScore,
			})
		}
	}

	// Sort by score (highest first)
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})

	p.filtered = scored
}

// =============================================================================
// PUBLIC METHODS
// =============================================================================

// SetItems replaces the item list and re-applies the current filter.
func (p *Picker) SetItems(items []PickerItem) {
	p.items = items
	p.updateFiltered()
	if p.selected >= len(p.filtered) {
		p.selected = 0
	}
}

// Show shows the picker with a cleared filter.
func (p *Picker) Show() {
	p.visible = true
	p.input.Reset()
	p.input.Focus()
	p.updateFiltered()
	p.selected = 0
}

// Hide hides the picker.
func (p *Picker) Hide() {
	p.visible = false
	p.input.Blur()
}

// Toggle toggles the visibility of the picker.
func (p *Picker) Toggle() {
	if p.visible {
		p.Hide()
	} else {
		p.Show()
	}
}

// IsVisible returns true if the picker is visible.
func (p *Picker) IsVisible() bool {
	return p.visible
}

// SetSize sets the dimensions for centering the picker.
func (p *Picker) SetSize(width, height int) {
	p.width = width
	p.height = height
}

// Focus focuses the input field.
func (p *Picker) Focus() tea.Cmd {
	return p.input.Focus()
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// truncateString truncates a string to maxLen characters.
// Uses rune-based truncation to handle Unicode correctly.
func truncateString(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}
