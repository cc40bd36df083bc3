package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/lumeo-studio/workspace-api/pkg/models"
)

// PostgresAdapter keeps the state document in a single-row postgres table.
// Same CAS shape as the sqlite backend, for deployments that already run a
// postgres instance.
type PostgresAdapter struct {
	db *sql.DB
}

// NewPostgresAdapter connects to postgres and ensures the state table exists.
func NewPostgresAdapter(databaseURL string) (*PostgresAdapter, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres store: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS workspace_state (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		version INTEGER NOT NULL,
		doc JSONB NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create workspace_state table: %w", err)
	}
	return &PostgresAdapter{db: db}, nil
}

// Load implements Adapter.
func (a *PostgresAdapter) Load(ctx context.Context) (*Document, error) {
	var version int
	var raw []byte
	err := a.db.QueryRowContext(ctx, `SELECT version, doc FROM workspace_state WHERE id = 1`).Scan(&version, &raw)
	if err == sql.ErrNoRows {
		doc := emptyDocument()
		encoded, err := json.Marshal(stateRow{Users: doc.Users, Data: doc.Data})
		if err != nil {
			return nil, fmt.Errorf("failed to encode initial state: %w", err)
		}
		if _, err := a.db.ExecContext(ctx,
			`INSERT INTO workspace_state (id, version, doc) VALUES (1, $1, $2) ON CONFLICT (id) DO NOTHING`,
			doc.Version, encoded); err != nil {
			return nil, fmt.Errorf("failed to initialize state: %w", err)
		}
		return doc, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load state: %w", err)
	}
	var row stateRow
	if err := json.Unmarshal(raw, &row); err != nil {
		return nil, fmt.Errorf("corrupt state document: %w", err)
	}
	return &Document{Version: version, Users: row.Users, Data: row.Data}, nil
}

// TrySave implements Adapter.
func (a *PostgresAdapter) TrySave(ctx context.Context, version int, users []models.User, data models.AppData) (bool, error) {
	raw, err := json.Marshal(stateRow{Users: users, Data: data})
	if err != nil {
		return false, fmt.Errorf("failed to encode state: %w", err)
	}
	res, err := a.db.ExecContext(ctx,
		`UPDATE workspace_state SET version = version + 1, doc = $1 WHERE id = 1 AND version = $2`,
		raw, version)
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
func (a *PostgresAdapter) Close() error {
	return a.db.Close()
}
