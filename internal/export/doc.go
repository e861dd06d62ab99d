// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export renders a chat transcript to a file.
//
// Two formats are supported: Markdown for reading and sharing, JSON for a
// complete machine-readable record. Exports are written under
// ~/.hearth/exports by default.
//
// Usage:
//
//	snapshot := conversation.Clone()
//	path, err := export.ExportMarkdown(snapshot, nil)
//
// Exporters read the conversation as given; export a Clone() of a live
// session so a message still streaming is materialized into plain content
// first.
package export
