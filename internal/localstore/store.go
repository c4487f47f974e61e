// Package localstore is the on-device replica of budgets, kept in SQLite.
package localstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/MrJamesThe3rd/budgetbox/internal/budget"
)

type Store struct {
	db *sql.DB
}

// Open creates the database file and its directory when missing and applies
// pending migrations.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	// One writer keeps SQLite from returning SQLITE_BUSY between goroutines.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(path); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Save overwrites the stored copy of b.
func (s *Store) Save(ctx context.Context, b budget.Budget) error {
	data, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("encoding budget: %w", err)
	}

	query := `
		INSERT INTO budgets (key, user_id, month, data, updated_at)
		VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (key) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at
	`

	if _, err := s.db.ExecContext(ctx, query, b.Key(), b.UserID, b.Month, string(data)); err != nil {
		return fmt.Errorf("saving budget: %w", err)
	}

	return nil
}

func (s *Store) Load(ctx context.Context, userID, month string) (*budget.Budget, error) {
	var data string

	err := s.db.QueryRowContext(ctx, `SELECT data FROM budgets WHERE key = ?`, budget.Key(userID, month)).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, budget.ErrNotFound
		}

		return nil, fmt.Errorf("loading budget: %w", err)
	}

	var b budget.Budget
	if err := json.Unmarshal([]byte(data), &b); err != nil {
		return nil, fmt.Errorf("decoding budget: %w", err)
	}

	return &b, nil
}

// List returns every stored budget ordered by user and month.
func (s *Store) List(ctx context.Context) ([]budget.Budget, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT data FROM budgets ORDER BY user_id, month`)
	if err != nil {
		return nil, fmt.Errorf("listing budgets: %w", err)
	}
	defer rows.Close()

	var budgets []budget.Budget

	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scanning budget: %w", err)
		}

		var b budget.Budget
		if err := json.Unmarshal([]byte(data), &b); err != nil {
			return nil, fmt.Errorf("decoding budget: %w", err)
		}

		budgets = append(budgets, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating budgets: %w", err)
	}

	return budgets, nil
}

func (s *Store) SaveStatus(ctx context.Context, userID, month string, status budget.SyncStatus) error {
	query := `
		INSERT INTO sync_state (key, status, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (key) DO UPDATE SET status = excluded.status, updated_at = excluded.updated_at
	`

	if _, err := s.db.ExecContext(ctx, query, budget.Key(userID, month), string(status)); err != nil {
		return fmt.Errorf("saving sync status: %w", err)
	}

	return nil
}

// LoadStatus returns budget.ErrNotFound when no status was ever saved for the key.
func (s *Store) LoadStatus(ctx context.Context, userID, month string) (budget.SyncStatus, error) {
	var status string

	err := s.db.QueryRowContext(ctx, `SELECT status FROM sync_state WHERE key = ?`, budget.Key(userID, month)).Scan(&status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", budget.ErrNotFound
		}

		return "", fmt.Errorf("loading sync status: %w", err)
	}

	return budget.SyncStatus(status), nil
}
