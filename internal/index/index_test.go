// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package index

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jeranaias/hearth-tui/internal/history"
)

func testIndex(t *testing.T) *HistoryIndex {
	t.Helper()
	idx, err := Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })
	return idx
}

func entry(id uint64, prompt, reply string) history.Entry {
	return history.Entry{
		ID:        id,
		Timestamp: time.Unix(1700000000+int64(id), 0),
		Prompt:    prompt,
		Reply:     reply,
	}
}

func TestOpen_CreatesDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "history.db")
	idx, err := Open(path)
	require.NoError(t, err)
	defer idx.Close()

	_, err = os.Stat(path)
	require.NoError(t, err, "database file should be created")
	require.Equal(t, 0, idx.Count())

	last, err := idx.LastID()
	require.NoError(t, err)
	require.Equal(t, uint64(0), last)
}

func TestOpen_EmptyPath(t *testing.T) {
	_, err := Open("")
	require.ErrorIs(t, err, ErrInvalidPath)
}

func TestOpen_RecoversFromCorruptDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	require.NoError(t, os.WriteFile(path, []byte("this is not a database"), 0o600))

	idx, err := Open(path)
	require.NoError(t, err, "Open should replace a corrupt database")
	defer idx.Close()

	require.Equal(t, 0, idx.Count())
	require.NoError(t, idx.Add(entry(1, "hello", "world")), "recovered index should accept writes")
}

func TestAdd_AndSearch(t *testing.T) {
	idx := testIndex(t)

	entries := []history.Entry{
		entry(1, "explain goroutines", "goroutines are lightweight threads managed by the runtime"),
		entry(2, "write a haiku about autumn", "falling maple leaves"),
		entry(3, "what is a mutex", "a mutex guards shared state from concurrent access"),
	}
	for _, e := range entries {
		require.NoError(t, idx.Add(e))
	}
	require.Equal(t, 3, idx.Count())

	results, err := idx.Search("mutex", nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, uint64(3), results[0].ID)
	require.Equal(t, "what is a mutex", results[0].Prompt)
	require.Contains(t, results[0].Snippet, "mutex", "snippet should contain the match")
}

func TestAdd_ReplacesExistingID(t *testing.T) {
	idx := testIndex(t)

	require.NoError(t, idx.Add(entry(1, "original prompt", "original reply")))
	require.NoError(t, idx.Add(entry(1, "updated prompt", "updated reply")))
	require.Equal(t, 1, idx.Count())

	// The old text must be gone from the FTS table, not just the entries
	// table, or stale matches would surface deleted content.
	results, err := idx.Search("original", nil)
	require.NoError(t, err)
	require.Empty(t, results, "replaced text should not be searchable")

	results, err = idx.Search("updated", nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
}

func TestSearch_Stemming(t *testing.T) {
	idx := testIndex(t)

	require.NoError(t, idx.Add(entry(1, "explain this code", "a recursive function calls itself until a base case")))

	// Porter stemming maps "recursion" and "recursive" to the same stem.
	results, err := idx.Search("recursion", nil)
	require.NoError(t, err)
	require.Len(t, results, 1, "stemmed query should match")
}

func TestSearch_PrefixMatching(t *testing.T) {
	idx := testIndex(t)

	require.NoError(t, idx.Add(entry(1, "compute fibonacci numbers", "here is an iterative version")))

	results, err := idx.Search("fibo", nil)
	require.NoError(t, err)
	require.Len(t, results, 1, "prefix query should match")
}

func TestSearch_RankOrdering(t *testing.T) {
	idx := testIndex(t)

	entries := []history.Entry{
		entry(1, "what is a parser", "a parser is different from a tokenizer"),
		entry(2, "how does the tokenizer work", "the tokenizer splits text into pieces and the tokenizer maps them to ids"),
	}
	for _, e := range entries {
		require.NoError(t, idx.Add(e))
	}

	results, err := idx.Search("tokenizer", nil)
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.Equal(t, uint64(2), results[0].ID, "higher term frequency should rank first")
	require.LessOrEqual(t, results[0].Rank, results[1].Rank, "results should be ordered by rank")
}

func TestSearch_PromptOnly(t *testing.T) {
	idx := testIndex(t)

	entries := []history.Entry{
		entry(1, "sort a slice of structs", "use the sort package"),
		entry(2, "clean up this function", "you could sort the keys first"),
	}
	for _, e := range entries {
		require.NoError(t, idx.Add(e))
	}

	results, err := idx.Search("sort", &SearchOptions{PromptOnly: true})
	require.NoError(t, err)
	require.Len(t, results, 1, "reply-only match should be excluded")
	require.Equal(t, uint64(1), results[0].ID)
}

func TestSearch_AgreesWithFuzzyMatcher(t *testing.T) {
	// The FTS index and the fuzzy matcher are two views over the same log;
	// a prompt-only FTS hit for a word taken verbatim from a prompt must
	// also be accepted by the fuzzy matcher, or the two search surfaces
	// would disagree about what exists.
	idx := testIndex(t)

	entries := []history.Entry{
		entry(1, "deploy the staging server", "rolling restart via the deploy script"),
		entry(2, "restart the production server", "drain connections first"),
		entry(3, "check disk usage", "df -h on each host"),
	}
	for _, e := range entries {
		require.NoError(t, idx.Add(e))
	}

	for _, query := range []string{"server", "staging", "deploy", "disk"} {
		results, err := idx.Search(query, &SearchOptions{PromptOnly: true})
		require.NoError(t, err, "Search(%q)", query)
		require.NotEmpty(t, results, "Search(%q)", query)

		fuzzy := history.SearchEntries(query, entries, history.DefaultWeights())
		accepted := make(map[uint64]bool, len(fuzzy))
		for _, m := range fuzzy {
			accepted[m.Entry.ID] = true
		}

		for _, r := range results {
			require.True(t, accepted[r.ID],
				"FTS hit %d for %q not accepted by the fuzzy matcher", r.ID, query)
		}
	}
}

func TestSearch_MultipleTermsAreANDed(t *testing.T) {
	idx := testIndex(t)

	entries := []history.Entry{
		entry(1, "binary search in go", "halve the range each step"),
		entry(2, "binary file formats", "magic bytes identify the format"),
	}
	for _, e := range entries {
		require.NoError(t, idx.Add(e))
	}

	results, err := idx.Search("binary search", nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, uint64(1), results[0].ID)
}

func TestSearch_EmptyQuery(t *testing.T) {
	idx := testIndex(t)
	require.NoError(t, idx.Add(entry(1, "hello", "world")))

	for _, q := range []string{"", "   ", "\t\n"} {
		results, err := idx.Search(q, nil)
		require.NoError(t, err, "Search(%q)", q)
		require.Empty(t, results, "Search(%q)", q)
	}
}

func TestSearch_OperatorCharactersAreLiteral(t *testing.T) {
	idx := testIndex(t)
	require.NoError(t, idx.Add(entry(1, "compare c++ and rust", "both compile to native code")))

	// None of these may produce an FTS5 syntax error.
	queries := []string{
		`c++`,
		`(rust)`,
		`a AND b OR c`,
		`"quoted phrase`,
		`foo*bar`,
		`col:value`,
		`-negated`,
		`++`,
		`...`,
	}
	for _, q := range queries {
		_, err := idx.Search(q, nil)
		require.NoError(t, err, "Search(%q)", q)
	}
}

func TestRebuild_ReplacesContents(t *testing.T) {
	idx := testIndex(t)

	require.NoError(t, idx.Add(entry(1, "stale prompt", "stale reply")))

	fresh := []history.Entry{
		entry(10, "fresh question", "fresh answer"),
		entry(11, "another question", "another answer"),
	}
	require.NoError(t, idx.Rebuild(context.Background(), fresh))

	require.Equal(t, 2, idx.Count())
	last, err := idx.LastID()
	require.NoError(t, err)
	require.Equal(t, uint64(11), last)

	results, err := idx.Search("stale", nil)
	require.NoError(t, err)
	require.Empty(t, results, "pre-rebuild contents should be gone")
}

func TestRebuild_CancelledContextKeepsOldContents(t *testing.T) {
	idx := testIndex(t)

	require.NoError(t, idx.Add(entry(1, "surviving prompt", "surviving reply")))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := idx.Rebuild(ctx, []history.Entry{entry(2, "never", "indexed")})
	require.Error(t, err, "Rebuild with cancelled context should fail")

	results, err := idx.Search("surviving", nil)
	require.NoError(t, err)
	require.Len(t, results, 1, "failed rebuild must not lose old contents")
}

func TestSync(t *testing.T) {
	idx := testIndex(t)
	ctx := context.Background()

	entries := []history.Entry{
		entry(1, "first", "one"),
		entry(2, "second", "two"),
	}

	// Fresh index: full rebuild.
	require.NoError(t, idx.Sync(ctx, entries))
	require.Equal(t, 2, idx.Count())

	// Already in sync: idempotent.
	require.NoError(t, idx.Sync(ctx, entries))
	require.Equal(t, 2, idx.Count())

	// Log grew: the new tail is indexed.
	entries = append(entries, entry(3, "third", "three"))
	require.NoError(t, idx.Sync(ctx, entries))
	last, err := idx.LastID()
	require.NoError(t, err)
	require.Equal(t, uint64(3), last)

	results, err := idx.Search("third", nil)
	require.NoError(t, err)
	require.Len(t, results, 1, "new tail should be searchable after Sync")

	// Log shrank (pruned): full rebuild.
	pruned := entries[1:]
	require.NoError(t, idx.Sync(ctx, pruned))
	require.Equal(t, 2, idx.Count())

	results, err = idx.Search("first", nil)
	require.NoError(t, err)
	require.Empty(t, results, "pruned entry should not be searchable")
}

func TestSearch_MaxResults(t *testing.T) {
	idx := testIndex(t)

	for i := uint64(1); i <= 10; i++ {
		require.NoError(t, idx.Add(entry(i, "repeated topic", "same subject every time")))
	}

	results, err := idx.Search("topic", &SearchOptions{MaxResults: 3})
	require.NoError(t, err)
	require.Len(t, results, 3)
}

func TestStats(t *testing.T) {
	idx := testIndex(t)

	require.NoError(t, idx.Rebuild(context.Background(), []history.Entry{
		entry(1, "hello", "world"),
	}))

	s := idx.Stats()
	require.Equal(t, 1, s.EntryCount)
	require.False(t, s.LastRebuild.IsZero(), "LastRebuild should be set after rebuild")
	require.Greater(t, s.DatabaseSize, int64(0))
}

func TestPersistence_ReopenKeepsEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")

	idx, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, idx.Add(entry(1, "persistent prompt", "persistent reply")))
	require.NoError(t, idx.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	require.Equal(t, 1, reopened.Count())
	results, err := reopened.Search("persistent", nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
}
