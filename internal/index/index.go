// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package index provides full-text search over the prompt history.
package index

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/jeranaias/hearth-tui/internal/history"
	"github.com/jeranaias/hearth-tui/internal/logger"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	ErrRebuilding    = errors.New("index rebuild in progress")
	ErrDatabaseError = errors.New("database error")
	ErrInvalidPath   = errors.New("invalid path")
)

// =============================================================================
// HISTORY INDEX
// =============================================================================

// HistoryIndex maintains a SQLite FTS database derived from the history log.
//
// The JSONL log remains the source of truth: the index is a disposable search
// structure that can be rebuilt from the log at any time. Open recovers from
// a corrupt database file by recreating it empty; callers then Sync from the
// log.
type HistoryIndex struct {
	db   *sql.DB
	path string
	mu   sync.RWMutex

	// Rebuild state
	rebuilding  bool
	rebuildMu   sync.Mutex
	lastRebuild time.Time
	entryCount  int
}

// Stats contains index statistics
type Stats struct {
	EntryCount   int
	LastRebuild  time.Time
	DatabaseSize int64
}

// =============================================================================
// LIFECYCLE
// =============================================================================

// Open opens or creates the history index at the given path.
func Open(path string) (*HistoryIndex, error) {
	if path == "" {
		return nil, ErrInvalidPath
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create index directory: %w", err)
	}

	db, err := openDatabase(path)
	if err != nil {
		// Corrupt or incompatible database: recreate from scratch. The log
		// holds the real data, so nothing is lost beyond a rebuild.
		logger.Log.Warn("index database unusable, recreating",
			"path", path, "error", err.Error())
		_ = os.Remove(path)
		_ = os.Remove(path + "-wal")
		_ = os.Remove(path + "-shm")
		db, err = openDatabase(path)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
		}
	}

	idx := &HistoryIndex{
		db:   db,
		path: path,
	}
	idx.loadStats()

	return idx, nil
}

// openDatabase opens the SQLite file, applies pragmas, and initializes the
// schema. Any failure closes the handle and returns the first error.
func openDatabase(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite works best with a single writer connection
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA cache_size=-64000", // 64MB cache
		"PRAGMA temp_store=MEMORY",
		"PRAGMA mmap_size=268435456", // 256MB mmap
		"PRAGMA foreign_keys=ON",
		"PRAGMA wal_autocheckpoint=1000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	if _, err := db.Exec(InitMetadata); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize metadata: %w", err)
	}

	return db, nil
}

// Close closes the index database
func (idx *HistoryIndex) Close() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.db == nil {
		return nil
	}
	err := idx.db.Close()
	idx.db = nil
	return err
}

// Path returns the database file path
func (idx *HistoryIndex) Path() string {
	return idx.path
}

// =============================================================================
// INDEXING
// =============================================================================

// Add indexes a single history entry. Re-adding an existing id replaces it.
func (idx *HistoryIndex) Add(e history.Entry) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.db == nil {
		return ErrDatabaseError
	}

	var exists int
	if err := idx.db.QueryRow(
		`SELECT EXISTS(SELECT 1 FROM entries WHERE id = ?)`, int64(e.ID),
	).Scan(&exists); err != nil {
		return fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}

	// Upsert rather than INSERT OR REPLACE: the update path fires the FTS
	// sync trigger, while REPLACE deletes without firing delete triggers.
	_, err := idx.db.Exec(
		`INSERT INTO entries (id, ts, prompt, reply) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET ts=excluded.ts, prompt=excluded.prompt, reply=excluded.reply`,
		int64(e.ID), e.Timestamp.Unix(), e.Prompt, e.Reply,
	)
	if err != nil {
		return fmt.Errorf("%w: failed to index entry %d: %v", ErrDatabaseError, e.ID, err)
	}
	if exists == 0 {
		idx.entryCount++
	}
	return nil
}

// Rebuild replaces the entire index contents with the given entries in a
// single transaction. The context is checked between inserts; on cancellation
// the transaction rolls back and the previous contents survive.
func (idx *HistoryIndex) Rebuild(ctx context.Context, entries []history.Entry) error {
	idx.rebuildMu.Lock()
	if idx.rebuilding {
		idx.rebuildMu.Unlock()
		return ErrRebuilding
	}
	idx.rebuilding = true
	idx.rebuildMu.Unlock()

	defer func() {
		idx.rebuildMu.Lock()
		idx.rebuilding = false
		idx.rebuildMu.Unlock()
	}()

	start := time.Now()

	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.db == nil {
		return ErrDatabaseError
	}

	tx, err := idx.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: failed to begin transaction: %v", ErrDatabaseError, err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM entries`); err != nil {
		return fmt.Errorf("%w: failed to clear entries: %v", ErrDatabaseError, err)
	}

	stmt, err := tx.Prepare(`INSERT INTO entries (id, ts, prompt, reply) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("%w: failed to prepare insert: %v", ErrDatabaseError, err)
	}
	defer stmt.Close()

	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := stmt.Exec(int64(e.ID), e.Timestamp.Unix(), e.Prompt, e.Reply); err != nil {
			return fmt.Errorf("%w: failed to insert entry %d: %v", ErrDatabaseError, e.ID, err)
		}
	}

	now := time.Now()
	if _, err := tx.Exec(
		`INSERT OR REPLACE INTO metadata (key, value) VALUES ('last_rebuild', ?)`,
		strconv.FormatInt(now.Unix(), 10),
	); err != nil {
		return fmt.Errorf("%w: failed to update metadata: %v", ErrDatabaseError, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: failed to commit: %v", ErrDatabaseError, err)
	}

	idx.entryCount = len(entries)
	idx.lastRebuild = now

	logger.Log.Debug("index rebuilt",
		"entries", len(entries),
		"duration", time.Since(start).String())

	return nil
}

// Sync brings the index up to date with the history log.
//
// When the index already matches (same count, same last id) it does nothing.
// When the log has only grown it indexes the new tail. Anything else (pruned
// log, healed log, fresh index) triggers a full rebuild.
func (idx *HistoryIndex) Sync(ctx context.Context, entries []history.Entry) error {
	count := idx.Count()
	lastID, err := idx.LastID()
	if err != nil {
		return idx.Rebuild(ctx, entries)
	}

	if count == len(entries) {
		if count == 0 || entries[count-1].ID == lastID {
			return nil
		}
		return idx.Rebuild(ctx, entries)
	}

	if count > 0 && count < len(entries) && entries[count-1].ID == lastID {
		for _, e := range entries[count:] {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := idx.Add(e); err != nil {
				return err
			}
		}
		return nil
	}

	return idx.Rebuild(ctx, entries)
}

// =============================================================================
// STATS
// =============================================================================

// Count returns the number of indexed entries
func (idx *HistoryIndex) Count() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.entryCount
}

// LastID returns the highest indexed entry id, or 0 for an empty index.
func (idx *HistoryIndex) LastID() (uint64, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if idx.db == nil {
		return 0, ErrDatabaseError
	}

	var id sql.NullInt64
	if err := idx.db.QueryRow(`SELECT MAX(id) FROM entries`).Scan(&id); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	if !id.Valid {
		return 0, nil
	}
	return uint64(id.Int64), nil
}

// Stats returns current index statistics
func (idx *HistoryIndex) Stats() Stats {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	s := Stats{
		EntryCount:  idx.entryCount,
		LastRebuild: idx.lastRebuild,
	}
	if fi, err := os.Stat(idx.path); err == nil {
		s.DatabaseSize = fi.Size()
	}
	return s
}

// loadStats reads entry count and rebuild time from the database. Failures
// leave the zero values; stats are advisory.
func (idx *HistoryIndex) loadStats() {
	var count int
	if err := idx.db.QueryRow(`SELECT COUNT(*) FROM entries`).Scan(&count); err == nil {
		idx.entryCount = count
	}

	var rebuild string
	err := idx.db.QueryRow(`SELECT value FROM metadata WHERE key = 'last_rebuild'`).Scan(&rebuild)
	if err == nil {
		if ts, err := strconv.ParseInt(rebuild, 10, 64); err == nil && ts > 0 {
			idx.lastRebuild = time.Unix(ts, 0)
		}
	}
}
