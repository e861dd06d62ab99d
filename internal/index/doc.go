// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package index provides full-text search over the prompt history.
//
// This package maintains a SQLite FTS5 index derived from the JSONL history
// log. The log is the source of truth; the index is a disposable search
// structure that is rebuilt from the log whenever the two diverge.
//
// # Key Types
//
//   - HistoryIndex: SQLite-backed index with porter-stemmed FTS
//   - SearchResult: Matched entry with relevance rank and snippet
//   - SearchOptions: Result limits and prompt-only filtering
//
// # Usage
//
// Open the index and sync it with the history store:
//
//	idx, err := index.Open(dbPath)
//	err = idx.Sync(ctx, store.Entries())
//
// Search indexed entries:
//
//	results, err := idx.Search("binary tree", nil)
//	for _, r := range results {
//	    fmt.Printf("#%d %s\n", r.ID, r.Snippet)
//	}
//
// Stemming means "recursion" finds entries mentioning "recursive". Simple
// queries also match as prefixes, so partial words work while typing.
package index
