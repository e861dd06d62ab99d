// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package index provides full-text search over the prompt history.
package index

const (
	// SchemaVersion tracks the database schema version for migrations
	SchemaVersion = 1
)

// SQLite schema for the history index with FTS (Full Text Search).
//
// The JSONL history log is the source of truth; this database is a derived
// search structure that can be rebuilt from the log at any time.
const Schema = `
-- Metadata table for schema version and index state
CREATE TABLE IF NOT EXISTS metadata (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
) WITHOUT ROWID;

-- Entries table: mirrors the history log, keyed by the log's entry id
CREATE TABLE IF NOT EXISTS entries (
    id INTEGER PRIMARY KEY,
    ts INTEGER NOT NULL,        -- Unix timestamp
    prompt TEXT NOT NULL,
    reply TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_entries_ts ON entries(ts);

-- Full-text search virtual table over prompts and replies
CREATE VIRTUAL TABLE IF NOT EXISTS entries_fts USING fts5(
    prompt,
    reply,
    content='entries',
    content_rowid='id',
    tokenize='porter unicode61'
);

-- Triggers to keep FTS table in sync
CREATE TRIGGER IF NOT EXISTS entries_ai AFTER INSERT ON entries BEGIN
    INSERT INTO entries_fts(rowid, prompt, reply)
    VALUES (new.id, new.prompt, new.reply);
END;

CREATE TRIGGER IF NOT EXISTS entries_ad AFTER DELETE ON entries BEGIN
    INSERT INTO entries_fts(entries_fts, rowid, prompt, reply)
    VALUES ('delete', old.id, old.prompt, old.reply);
END;

CREATE TRIGGER IF NOT EXISTS entries_au AFTER UPDATE ON entries BEGIN
    INSERT INTO entries_fts(entries_fts, rowid, prompt, reply)
    VALUES ('delete', old.id, old.prompt, old.reply);
    INSERT INTO entries_fts(rowid, prompt, reply)
    VALUES (new.id, new.prompt, new.reply);
END;
`

// InitMetadata initializes the metadata table with default values
const InitMetadata = `
INSERT OR IGNORE INTO metadata (key, value) VALUES ('schema_version', '1');
INSERT OR IGNORE INTO metadata (key, value) VALUES ('created_at', strftime('%s', 'now'));
INSERT OR IGNORE INTO metadata (key, value) VALUES ('last_rebuild', '0');
`
