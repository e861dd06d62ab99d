// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package index

import (
	"fmt"
	"strings"
	"time"
	"unicode"
)

// =============================================================================
// SEARCH RESULT
// =============================================================================

// SearchResult represents a single search result
type SearchResult struct {
	ID        uint64
	Timestamp time.Time
	Prompt    string
	Reply     string

	// Rank is the bm25 relevance score; more negative is more relevant
	Rank float64

	// Snippet is an excerpt of the best-matching column with match markers
	Snippet string
}

// SearchOptions configures search behavior
type SearchOptions struct {
	// MaxResults limits the number of results (0 = default limit)
	MaxResults int

	// PromptOnly restricts matching to prompts, ignoring replies
	PromptOnly bool
}

// DefaultSearchOptions returns default search options
func DefaultSearchOptions() *SearchOptions {
	return &SearchOptions{
		MaxResults: 50,
	}
}

// =============================================================================
// SEARCH
// =============================================================================

// Search performs a full-text search over indexed history entries.
//
// Simple queries match as prefixes so partial words find entries as you type.
// Results come back most relevant first; an empty query returns no results.
func (idx *HistoryIndex) Search(query string, opts *SearchOptions) ([]SearchResult, error) {
	if opts == nil {
		opts = DefaultSearchOptions()
	}

	ftsQuery := buildFTSQuery(query, opts.PromptOnly)
	if ftsQuery == "" {
		return nil, nil
	}

	limit := opts.MaxResults
	if limit <= 0 {
		limit = 50
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if idx.db == nil {
		return nil, ErrDatabaseError
	}

	// bm25 ranks ascending: the most relevant row has the most negative
	// score. snippet column -1 picks whichever column matched best.
	rows, err := idx.db.Query(`
		SELECT e.id, e.ts, e.prompt, e.reply,
		       bm25(entries_fts) AS rank,
		       snippet(entries_fts, -1, '>', '<', '…', 12)
		FROM entries_fts
		JOIN entries e ON e.id = entries_fts.rowid
		WHERE entries_fts MATCH ?
		ORDER BY rank
		LIMIT ?`,
		ftsQuery, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: search failed: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var (
			r  SearchResult
			id int64
			ts int64
		)
		if err := rows.Scan(&id, &ts, &r.Prompt, &r.Reply, &r.Rank, &r.Snippet); err != nil {
			return nil, fmt.Errorf("%w: failed to scan result: %v", ErrDatabaseError, err)
		}
		r.ID = uint64(id)
		r.Timestamp = time.Unix(ts, 0)
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}

	return results, nil
}

// =============================================================================
// QUERY BUILDING
// =============================================================================

// buildFTSQuery converts a user query into FTS5 MATCH syntax.
//
// Each whitespace-separated term becomes a quoted phrase (so FTS5 operator
// characters in user input cannot break the query), terms are implicitly
// ANDed, and the final term matches as a prefix. Terms with no letters or
// digits are dropped: they tokenize to an empty phrase, which FTS5 rejects.
func buildFTSQuery(query string, promptOnly bool) string {
	var quoted []string
	for _, term := range strings.Fields(query) {
		if !hasToken(term) {
			continue
		}
		quoted = append(quoted, quoteFTSTerm(term))
	}
	if len(quoted) == 0 {
		return ""
	}
	// Prefix-match the final term for search-as-you-type behavior
	quoted[len(quoted)-1] += "*"

	fts := strings.Join(quoted, " ")
	if promptOnly {
		fts = "prompt: (" + fts + ")"
	}
	return fts
}

// quoteFTSTerm wraps a term in double quotes, doubling any embedded quotes.
// Inside quotes FTS5 treats everything literally, so no further escaping is
// needed.
func quoteFTSTerm(term string) string {
	return `"` + strings.ReplaceAll(term, `"`, `""`) + `"`
}

// hasToken reports whether the term contains at least one rune the unicode61
// tokenizer will keep.
func hasToken(term string) bool {
	for _, r := range term {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}
