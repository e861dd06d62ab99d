// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// history.go - Conversation history listing and search for hearth CLI.
//
// Handles the "hearth history" command: list recent exchanges from the
// durable log, or run a full-text search over every saved conversation
// through the SQLite index.
//
// Command: history [search <query>] [--limit N]
// Short:   Show or search saved conversations
// Aliases: hist
//
// Examples:
//   hearth history                      Show recent prompts
//   hearth history --limit 50           Show more of the log
//   hearth history search "goroutine"   Full-text search
//   hearth history search deadlock --json
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/jeranaias/hearth-tui/internal/config"
	"github.com/jeranaias/hearth-tui/internal/history"
	"github.com/jeranaias/hearth-tui/internal/index"
	"github.com/jeranaias/hearth-tui/internal/util"
)

// historyListLimit caps how many entries the listing shows unless the
// user overrides it with --limit.
const historyListLimit = 20

// HandleHistoryCommand handles the "history" command.
func HandleHistoryCommand(args Args) error {
	switch args.Subcommand {
	case "", "list", "show":
		return handleHistoryList(args)
	case "search", "find":
		return handleHistorySearch(args)
	default:
		return fmt.Errorf("unknown history subcommand: %s (expected search)", args.Subcommand)
	}
}

// openHistoryStore opens the configured history log for reading. A corrupt
// tail is not fatal here: the entries parsed before it are still worth
// showing, so we warn and carry on. `hearth doctor` reports the damage.
func openHistoryStore(cfg *config.Config) (*history.Store, error) {
	if !cfg.History.Enabled {
		return nil, fmt.Errorf("history is disabled (enable with: hearth config set history.enabled true)")
	}
	path, err := cfg.HistoryPath()
	if err != nil {
		return nil, err
	}
	store, err := history.Open(path)
	if err != nil {
		StderrPrint("Warning: %v\n", err)
	}
	return store, nil
}

// handleHistoryList shows the tail of the history log.
func handleHistoryList(args Args) error {
	cfg := config.Global()
	store, err := openHistoryStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	entries := store.Entries()
	limit := historyListLimit
	if args.Limit > 0 {
		limit = args.Limit
	}

	if args.JSON {
		start := len(entries) - limit
		if start < 0 {
			start = 0
		}
		data := HistoryData{Total: len(entries), Path: store.Path()}
		for _, e := range entries[start:] {
			data.Entries = append(data.Entries, HistoryEntryInfo{
				ID:        e.ID,
				Timestamp: e.Timestamp,
				Prompt:    e.Prompt,
				Reply:     e.Reply,
			})
		}
		resp := NewJSONResponse("history", data)
		resp.Print()
		return nil
	}

	if len(entries) == 0 {
		fmt.Println("No history yet.")
		return nil
	}

	start := len(entries) - limit
	if start < 0 {
		start = 0
	}
	for _, e := range entries[start:] {
		fmt.Printf("  #%-5d %s  %s\n",
			e.ID,
			DimStyle.Render(e.Timestamp.Format("2006-01-02 15:04")),
			truncateLine(e.Prompt, 80))
	}
	fmt.Printf("\nShowing %d of %d entries from %s\n", len(entries)-start, len(entries), store.Path())
	return nil
}

// handleHistorySearch runs a full-text query against the search index,
// syncing it with the log first so results never lag behind.
func handleHistorySearch(args Args) error {
	query := strings.TrimSpace(args.Query)
	if query == "" {
		return ErrMissingArgument("query", `hearth history search "goroutine leak"`)
	}

	cfg := config.Global()
	store, err := openHistoryStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	idxPath, err := cfg.IndexPath()
	if err != nil {
		return err
	}
	idx, err := index.Open(idxPath)
	if err != nil {
		return err
	}
	defer idx.Close()

	ctx := context.Background()
	if err := idx.Sync(ctx, store.Entries()); err != nil {
		return err
	}

	results, err := idx.Search(query, nil)
	if err != nil {
		return err
	}

	if args.JSON {
		data := SearchData{Query: query}
		for _, r := range results {
			data.Results = append(data.Results, SearchResultInfo{
				ID:        r.ID,
				Timestamp: r.Timestamp,
				Prompt:    r.Prompt,
				Snippet:   r.Snippet,
				Rank:      r.Rank,
			})
		}
		resp := NewJSONResponse("history", data)
		resp.Print()
		return nil
	}

	if len(results) == 0 {
		fmt.Printf("No matches for %q.\n", query)
		return nil
	}

	for _, r := range results {
		fmt.Printf("  #%-5d %s  %s\n",
			r.ID,
			DimStyle.Render(r.Timestamp.Format("2006-01-02 15:04")),
			truncateLine(r.Prompt, 70))
		fmt.Printf("         %s\n", DimStyle.Render(r.Snippet))
	}
	fmt.Printf("\n%d match(es) for %q\n", len(results), query)
	return nil
}

// truncateLine flattens newlines and clips the text for one-line display.
// Width-aware so CJK prompts stay within the column budget.
func truncateLine(s string, max int) string {
	return util.TruncateWidth(strings.ReplaceAll(s, "\n", " "), max)
}
