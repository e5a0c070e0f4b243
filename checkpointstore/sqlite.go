package checkpointstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/lyzr-oss/statelang/workflow"
)

// SQLiteStore is a SQLite-backed workflow.CheckpointStore. Grounded on the
// teacher's store.SQLiteStore: a single-file database, WAL mode for
// concurrent reads, auto-migration on first use.
type SQLiteStore struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteStore opens (creating if necessary) a SQLite database at path
// and ensures its checkpoints table exists. Use ":memory:" for an
// ephemeral database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("checkpointstore: open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA journal_mode=WAL;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("checkpointstore: enable WAL: %w", err)
	}
	if _, err := db.Exec(schemaSQLite); err != nil {
		db.Close()
		return nil, fmt.Errorf("checkpointstore: migrate: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

const schemaSQLite = `
CREATE TABLE IF NOT EXISTS checkpoints (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	exec_id TEXT NOT NULL,
	created_at TEXT NOT NULL,
	input_json TEXT NOT NULL,
	trace_json TEXT NOT NULL,
	tokens REAL NOT NULL,
	cost REAL NOT NULL,
	ttl_seconds REAL NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_checkpoints_exec_id ON checkpoints(exec_id, created_at);
`

// Save persists snapshot as a row, upserting on ID.
func (s *SQLiteStore) Save(ctx context.Context, snapshot workflow.CheckpointSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	inputJSON, err := json.Marshal(snapshot.Input)
	if err != nil {
		return fmt.Errorf("checkpointstore: marshal input: %w", err)
	}
	traceJSON, err := json.Marshal(snapshot.Trace)
	if err != nil {
		return fmt.Errorf("checkpointstore: marshal trace: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO checkpoints (id, name, exec_id, created_at, input_json, trace_json, tokens, cost, ttl_seconds)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name=excluded.name, exec_id=excluded.exec_id, created_at=excluded.created_at,
			input_json=excluded.input_json, trace_json=excluded.trace_json,
			tokens=excluded.tokens, cost=excluded.cost, ttl_seconds=excluded.ttl_seconds
	`, snapshot.ID, snapshot.Name, snapshot.ExecID, snapshot.CreatedAt.Format(time.RFC3339), inputJSON, traceJSON, snapshot.Tokens, snapshot.Cost, snapshot.TTLSeconds)
	if err != nil {
		return fmt.Errorf("checkpointstore: save: %w", err)
	}
	return nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
