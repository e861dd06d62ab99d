// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for the chat transcript.
//
// This package defines the in-memory types for a chat session: the
// conversation, its messages, and generation statistics. The durable record
// of prompts and replies lives in the history package; these types only back
// the display.
//
// # Key Types
//
//   - Conversation: Transcript for one chat session with token tracking
//   - Message: Single message with role, content, and streaming state
//   - Statistics: Timing and token counts for one generation
//   - Role: Message role enumeration (user, assistant, system)
//
// # Usage
//
// Build a transcript as generation progresses:
//
//	conv := model.NewConversationWithModel("stablelm-2-zephyr")
//	conv.AddUserMessage("Hello!")
//	conv.AddAssistantMessage()
//	conv.AppendToLast(fragment)
//	conv.FinalizeLast(model.StatsFromResult(res))
package model
