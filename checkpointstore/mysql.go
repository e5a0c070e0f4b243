package checkpointstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/lyzr-oss/statelang/workflow"
)

// MySQLStore is a MySQL-backed workflow.CheckpointStore, grounded on the
// teacher's store.MySQLStore: a connection-pooled *sql.DB opened from a
// DSN, with the same upsert-by-ID write path as SQLiteStore.
type MySQLStore struct {
	db *sql.DB
}

// NewMySQLStore opens a connection pool against dsn (a standard
// go-sql-driver/mysql DSN, e.g. "user:pass@tcp(host:3306)/dbname") and
// ensures its checkpoints table exists.
func NewMySQLStore(dsn string) (*MySQLStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("checkpointstore: open mysql: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	if _, err := db.Exec(schemaMySQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("checkpointstore: migrate: %w", err)
	}
	return &MySQLStore{db: db}, nil
}

const schemaMySQL = `
CREATE TABLE IF NOT EXISTS checkpoints (
	id VARCHAR(64) PRIMARY KEY,
	name VARCHAR(255) NOT NULL,
	exec_id VARCHAR(64) NOT NULL,
	created_at DATETIME NOT NULL,
	input_json JSON NOT NULL,
	trace_json JSON NOT NULL,
	tokens DOUBLE NOT NULL,
	cost DOUBLE NOT NULL,
	ttl_seconds DOUBLE NOT NULL,
	INDEX idx_checkpoints_exec_id (exec_id, created_at)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;
`

// Save persists snapshot as a row, upserting on ID.
func (s *MySQLStore) Save(ctx context.Context, snapshot workflow.CheckpointSnapshot) error {
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
		ON DUPLICATE KEY UPDATE
			name=VALUES(name), exec_id=VALUES(exec_id), created_at=VALUES(created_at),
			input_json=VALUES(input_json), trace_json=VALUES(trace_json),
			tokens=VALUES(tokens), cost=VALUES(cost), ttl_seconds=VALUES(ttl_seconds)
	`, snapshot.ID, snapshot.Name, snapshot.ExecID, snapshot.CreatedAt, inputJSON, traceJSON, snapshot.Tokens, snapshot.Cost, snapshot.TTLSeconds)
	if err != nil {
		return fmt.Errorf("checkpointstore: save: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (s *MySQLStore) Close() error {
	return s.db.Close()
}
