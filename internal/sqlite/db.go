package sqlite

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// DB wraps a SQLite database connection
type DB struct {
	*sql.DB
}

// New creates a new SQLite database connection
func New(dataSourceName string) (*DB, error) {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return &DB{db}, nil
}

// RunMigrations creates the schema. Grants are deliberately absent: they are
// re-issuable and security-sensitive, so they are never persisted.
func (db *DB) RunMigrations() error {
	migration := `
-- Rooms table
CREATE TABLE IF NOT EXISTS rooms (
    id TEXT PRIMARY KEY,
    kind TEXT NOT NULL CHECK(kind IN ('original', 'briefing')),
    empty_timeout_secs INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

-- Calls table
CREATE TABLE IF NOT EXISTS calls (
    id TEXT PRIMARY KEY,
    caller_identity TEXT NOT NULL,
    room_id TEXT NOT NULL,
    status TEXT NOT NULL CHECK(status IN ('active', 'transferring', 'closed')),
    active_transfer_id TEXT,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    closed_at TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_call_status ON calls(status);

-- Agents currently joined to a call
CREATE TABLE IF NOT EXISTS call_agents (
    call_id TEXT NOT NULL,
    identity TEXT NOT NULL,
    role TEXT NOT NULL,
    joined_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (call_id, identity),
    FOREIGN KEY (call_id) REFERENCES calls(id)
);

-- Transfers table
CREATE TABLE IF NOT EXISTS transfers (
    id TEXT PRIMARY KEY,
    call_id TEXT NOT NULL,
    agent_a TEXT NOT NULL,
    agent_b TEXT NOT NULL,
    briefing_room_id TEXT,
    summary TEXT NOT NULL DEFAULT '',
    state TEXT NOT NULL CHECK(state IN (
        'requested', 'briefing', 'summary_ready', 'awaiting_agent_b',
        'handing_off', 'completed', 'cancelled', 'failed')),
    failed_from TEXT,
    requested_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    completed_at TIMESTAMP,
    FOREIGN KEY (call_id) REFERENCES calls(id)
);
CREATE INDEX IF NOT EXISTS idx_transfer_call ON transfers(call_id);
CREATE INDEX IF NOT EXISTS idx_transfer_state ON transfers(state);

-- Conversation log (append-only, gap-free per-call sequence)
CREATE TABLE IF NOT EXISTS conversation_entries (
    call_id TEXT NOT NULL,
    seq INTEGER NOT NULL,
    speaker TEXT NOT NULL,
    text TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (call_id, seq),
    FOREIGN KEY (call_id) REFERENCES calls(id)
);
`

	_, err := db.Exec(migration)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}
