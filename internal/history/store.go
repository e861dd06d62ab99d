// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package history persists the prompt/reply log and serves fuzzy recall
// over it. The store is the sole writer of the on-disk log; everything is
// held in memory once opened, so lookups never touch the disk.
package history

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/jeranaias/hearth-tui/internal/util"
)

// =============================================================================
// HISTORY ENTRIES
// =============================================================================

// Entry is one persisted prompt/reply exchange. Immutable once written.
type Entry struct {
	ID        uint64    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Prompt    string    `json:"prompt"`
	Reply     string    `json:"reply"`
}

// Direction selects which neighbor Navigate returns.
type Direction int

const (
	// Older moves towards the start of the log.
	Older Direction = iota
	// Newer moves towards the most recent entry.
	Newer
)

// =============================================================================
// ERRORS
// =============================================================================

// LoadError reports a corrupted history file. Entries parsed before the
// corruption are still served; the next append rewrites a clean log.
type LoadError struct {
	Path string
	Line int
	Err  error
}

// Error implements the error interface.
func (e *LoadError) Error() string {
	return fmt.Sprintf("history file %s corrupt at line %d: %v", e.Path, e.Line, e.Err)
}

// Unwrap returns the underlying cause.
func (e *LoadError) Unwrap() error { return e.Err }

// WriteError reports a failed durable append. The generation that produced
// the entry still succeeded; only its persistence failed.
type WriteError struct {
	Path string
	Err  error
}

// Error implements the error interface.
func (e *WriteError) Error() string {
	return fmt.Sprintf("history write to %s failed: %v", e.Path, e.Err)
}

// Unwrap returns the underlying cause.
func (e *WriteError) Unwrap() error { return e.Err }

// =============================================================================
// STORE
// =============================================================================

// Store is the append-only history log. One JSON record per line; appends
// are synced to disk before they are reported successful. IDs increase
// strictly and are never reused, even across restarts.
type Store struct {
	mu         sync.Mutex
	path       string
	f          *os.File
	entries    []Entry
	nextID     uint64
	maxEntries int

	// dirty marks a log that needs rewriting before the next append can
	// extend it (corrupt tail, or pruning pending).
	dirty bool
}

// Open loads the history log at path. A missing or empty file is an empty
// history. A corrupted file returns both the entries parsed up to the
// corruption and a LoadError for the caller to surface; the store stays
// usable.
func Open(path string) (*Store, error) {
	return OpenWithLimit(path, 0)
}

// OpenWithLimit is Open with a cap on retained entries; once exceeded, the
// oldest entries are pruned on the next append. 0 means unbounded.
func OpenWithLimit(path string, maxEntries int) (*Store, error) {
	s := &Store{path: path, nextID: 1, maxEntries: maxEntries}

	loadErr := s.load()

	if s.prune() {
		s.dirty = true
	}
	return s, loadErr
}

// load parses the log file into memory. Only called during Open.
func (s *Store) load() error {
	f, err := os.Open(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return &LoadError{Path: s.path, Err: err}
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}

		var e Entry
		if err := json.Unmarshal(raw, &e); err != nil {
			s.dirty = true
			return &LoadError{Path: s.path, Line: line, Err: err}
		}
		if e.ID < s.nextID {
			s.dirty = true
			return &LoadError{Path: s.path, Line: line,
				Err: fmt.Errorf("id %d not increasing (next expected >= %d)", e.ID, s.nextID)}
		}

		s.entries = append(s.entries, e)
		s.nextID = e.ID + 1
	}
	if err := scanner.Err(); err != nil {
		s.dirty = true
		return &LoadError{Path: s.path, Line: line, Err: err}
	}
	return nil
}

// Append durably records a prompt/reply pair and returns its id. The write
// is synced to disk before success is reported; on failure a WriteError is
// returned and the entry is not retained in memory either.
func (s *Store) Append(prompt, reply string) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := Entry{
		ID:        s.nextID,
		Timestamp: time.Now().UTC(),
		Prompt:    norm.NFC.String(prompt),
		Reply:     norm.NFC.String(reply),
	}

	if s.dirty {
		// Heal a corrupt tail (or apply pending pruning) by rewriting the
		// whole log before extending it.
		if err := s.rewriteLocked(); err != nil {
			return 0, err
		}
	}

	if err := s.ensureOpenLocked(); err != nil {
		return 0, err
	}

	data, err := json.Marshal(e)
	if err != nil {
		return 0, &WriteError{Path: s.path, Err: err}
	}
	data = append(data, '\n')

	if _, err := s.f.Write(data); err != nil {
		return 0, &WriteError{Path: s.path, Err: err}
	}
	if err := s.f.Sync(); err != nil {
		return 0, &WriteError{Path: s.path, Err: err}
	}

	s.entries = append(s.entries, e)
	s.nextID = e.ID + 1

	if s.prune() {
		if err := s.rewriteLocked(); err != nil {
			// The entry is durable and retained; only the pruning rewrite
			// failed. Report it, retry on the next append.
			s.dirty = true
			return e.ID, err
		}
	}
	return e.ID, nil
}

// ensureOpenLocked opens the append handle on first use.
func (s *Store) ensureOpenLocked() error {
	if s.f != nil {
		return nil
	}
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return &WriteError{Path: s.path, Err: err}
	}
	s.f = f
	return nil
}

// rewriteLocked replaces the log file with the in-memory entries using an
// atomic temp-file-and-rename write.
func (s *Store) rewriteLocked() error {
	if s.f != nil {
		s.f.Close()
		s.f = nil
	}

	var buf []byte
	for _, e := range s.entries {
		data, err := json.Marshal(e)
		if err != nil {
			return &WriteError{Path: s.path, Err: err}
		}
		buf = append(buf, data...)
		buf = append(buf, '\n')
	}

	if err := util.AtomicWriteFile(s.path, buf, 0o600); err != nil {
		return &WriteError{Path: s.path, Err: err}
	}
	s.dirty = false
	return nil
}

// prune trims the oldest entries down to the cap. Returns whether anything
// was dropped; ids keep increasing regardless.
func (s *Store) prune() bool {
	if s.maxEntries <= 0 || len(s.entries) <= s.maxEntries {
		return false
	}
	drop := len(s.entries) - s.maxEntries
	s.entries = append([]Entry(nil), s.entries[drop:]...)
	return true
}

// Entries returns the history in order, most recent last.
func (s *Store) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Len reports the number of retained entries.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Navigate returns the neighbor of fromIndex in the given direction, along
// with its index. Total over all integers: positions at or past the oldest
// entry have no earlier neighbor, positions at or past the newest have no
// later one; it never wraps. len(entries) is the conventional "editing a
// fresh prompt" position, so Older from there yields the newest entry.
func (s *Store) Navigate(dir Direction, fromIndex int) (Entry, int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.entries)
	if n == 0 {
		return Entry{}, fromIndex, false
	}

	switch dir {
	case Older:
		if fromIndex <= 0 {
			return Entry{}, fromIndex, false
		}
		if fromIndex > n {
			fromIndex = n
		}
		return s.entries[fromIndex-1], fromIndex - 1, true
	case Newer:
		if fromIndex >= n-1 {
			return Entry{}, fromIndex, false
		}
		if fromIndex < -1 {
			fromIndex = -1
		}
		return s.entries[fromIndex+1], fromIndex + 1, true
	default:
		return Entry{}, fromIndex, false
	}
}

// Path returns the on-disk location of the log.
func (s *Store) Path() string { return s.path }

// Close releases the append handle. The store must not be used afterwards.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f == nil {
		return nil
	}
	err := s.f.Close()
	s.f = nil
	return err
}
