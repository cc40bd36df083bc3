package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/lumeo-studio/workspace-api/pkg/models"
)

// stateRow is the JSON blob stored next to the version counter.
type stateRow struct {
	Users []models.User  `json:"users"`
	Data  models.AppData `json:"data"`
}

// SQLiteAdapter keeps the state document in a single-row sqlite table.
// This is the default backend for single-host deployments.
type SQLiteAdapter struct {
	db *sql.DB
}

// NewSQLiteAdapter opens (and if needed creates) the sqlite database at path.
func NewSQLiteAdapter(path string) (*SQLiteAdapter, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite store: %w", err)
	}
	// A single writer keeps the CAS semantics honest under sqlite locking.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS workspace_state (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		version INTEGER NOT NULL,
		doc TEXT NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create workspace_state table: %w", err)
	}
	return &SQLiteAdapter{db: db}, nil
}

// Load implements Adapter.
func (a *SQLiteAdapter) Load(ctx context.Context) (*Document, error) {
	var version int
	var raw string
	err := a.db.QueryRowContext(ctx, `SELECT version, doc FROM workspace_state WHERE id = 1`).Scan(&version, &raw)
	if err == sql.ErrNoRows {
		doc := emptyDocument()
		if err := a.insertInitial(ctx, doc); err != nil {
			return nil, err
		}
		return doc, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load state: %w", err)
	}
	var row stateRow
	if err := json.Unmarshal([]byte(raw), &row); err != nil {
		return nil, fmt.Errorf("corrupt state document: %w", err)
	}
	return &Document{Version: version, Users: row.Users, Data: row.Data}, nil
}

// TrySave implements Adapter. The UPDATE is guarded on the version column;
// zero affected rows means another writer committed first.
func (a *SQLiteAdapter) TrySave(ctx context.Context, version int, users []models.User, data models.AppData) (bool, error) {
	raw, err := json.Marshal(stateRow{Users: users, Data: data})
	if err != nil {
		return false, fmt.Errorf("failed to encode state: %w", err)
	}
	res, err := a.db.ExecContext(ctx,
		`UPDATE workspace_state SET version = version + 1, doc = ? WHERE id = 1 AND version = ?`,
		string(raw), version)
	if err != nil {
		return false, fmt.Errorf("failed to save state: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// Close implements Adapter.
func (a *SQLiteAdapter) Close() error {
	return a.db.Close()
}

func (a *SQLiteAdapter) insertInitial(ctx context.Context, doc *Document) error {
	raw, err := json.Marshal(stateRow{Users: doc.Users, Data: doc.Data})
	if err != nil {
		return fmt.Errorf("failed to encode initial state: %w", err)
	}
	// Another process may have initialized the row concurrently; losing
	// that race is fine, the next Load will read its document.
	_, err = a.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO workspace_state (id, version, doc) VALUES (1, ?, ?)`,
		doc.Version, string(raw))
	if err != nil {
		return fmt.Errorf("failed to initialize state: %w", err)
	}
	return nil
}
