// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package components provides reusable UI components for the hearth TUI.

This package contains a collection of styled, interactive components built on
top of the Bubble Tea and Lip Gloss libraries. Each component is designed to
be visually consistent with the hearth design language.

# Core Components

## Display Components

CodeBlock (codeblock.go) - Syntax-highlighted code blocks using Chroma.
ParseCodeBlocks walks reply text and renders fenced blocks in place;
ParseInlineCode styles backticked spans.

## Selection Components

Picker (picker.go) - Centered overlay for fuzzy-searching and choosing one
item, used by the chat screen to switch models.

## Progress and Feedback

ProgressIndicator (progress.go) - Boxed or single-line progress for model
downloads and loads, with a pulse mode when the total size is unknown.

## Matching

FuzzyMatch and friends (fuzzy.go) - Subsequence scoring with bonuses for
consecutive runs, word boundaries, and start-of-string matches. Used by the
Picker and by slash-command completion.

# Key Types

## Theme Integration

Components accept a *styles.Theme for consistent styling:

	theme := styles.NewTheme()
	picker := components.NewPicker("Models", theme)
	picker.SetItems(items)
	picker.Show()

## Bubble Tea Integration

Interactive components follow the Bubble Tea update cycle:

	picker, cmd := picker.Update(msg)
	view := picker.View()

A chosen item arrives as a PickedMsg carrying the item's ID.

# Helper Functions

The package includes shared helper functions in helpers.go:
  - toStr() - Integer to string conversion without fmt
  - fmtNumber() - Thousand-separator formatting for counts
*/
package components
