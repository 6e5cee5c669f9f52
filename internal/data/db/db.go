// Package db owns the SQLite connection and schema for docket.
package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // SQLite driver
)

const busyTimeout = 5000 // milliseconds

const schema = `
CREATE TABLE IF NOT EXISTS actions (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	client_id       TEXT NOT NULL,
	conversation_id TEXT NOT NULL,
	task_type       TEXT NOT NULL,
	task_text       TEXT NOT NULL,
	task_key        TEXT NOT NULL,
	owner           TEXT NOT NULL,
	status          TEXT NOT NULL DEFAULT 'open',
	metadata        TEXT NOT NULL DEFAULT '{}',
	created_at      DATETIME NOT NULL,
	updated_at      DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS actions_history (
	id                INTEGER PRIMARY KEY AUTOINCREMENT,
	action_id         INTEGER NOT NULL,
	operation         TEXT NOT NULL,
	payload           TEXT NOT NULL DEFAULT '{}',
	source_message_id TEXT,
	source_text       TEXT,
	actor             TEXT NOT NULL,
	created_at        DATETIME NOT NULL,
	FOREIGN KEY (action_id) REFERENCES actions (id)
);

CREATE TABLE IF NOT EXISTS messages (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	message_id      TEXT UNIQUE NOT NULL,
	conversation_id TEXT NOT NULL,
	sender          TEXT NOT NULL,
	text            TEXT NOT NULL,
	received_at     DATETIME NOT NULL,
	processed       BOOLEAN DEFAULT FALSE
);

CREATE INDEX IF NOT EXISTS idx_actions_client_id ON actions (client_id);
CREATE INDEX IF NOT EXISTS idx_actions_status ON actions (status);
CREATE INDEX IF NOT EXISTS idx_actions_task_key ON actions (task_key);
CREATE INDEX IF NOT EXISTS idx_actions_history_action_id ON actions_history (action_id);
CREATE INDEX IF NOT EXISTS idx_messages_message_id ON messages (message_id);
CREATE INDEX IF NOT EXISTS idx_messages_conversation_id ON messages (conversation_id);
`

// DB wraps the SQL connection used by all docket stores.
type DB struct {
	conn *sql.DB
}

// Open creates (or reuses) the database file under dataDir and
// ensures the schema exists. The caller is responsible for Close.
func Open(dataDir string) (*DB, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	dbPath := filepath.Join(dataDir, "docket.db")
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(%d)", dbPath, busyTimeout)

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	conn.SetMaxOpenConns(1) // prevent SQLITE_BUSY

	if _, err := conn.Exec(schema); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &DB{conn: conn}, nil
}

// Conn exposes the underlying connection to the stores package.
func (d *DB) Conn() *sql.DB { return d.conn }

// Close releases the underlying database connection.
func (d *DB) Close() error { return d.conn.Close() }
