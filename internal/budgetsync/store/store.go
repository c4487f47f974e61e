package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/MrJamesThe3rd/budgetbox/internal/budget"
	"github.com/MrJamesThe3rd/budgetbox/internal/budgetsync"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// scanRecord reads a budgets row.
// Expected column order: id, user_id, month, data, last_modified, created_at, updated_at
func scanRecord(s scanner) (*budgetsync.Record, error) {
	var (
		rec  budgetsync.Record
		data []byte
	)

	if err := s.Scan(
		&rec.ID, &rec.UserID, &rec.Month, &data,
		&rec.LastModified, &rec.CreatedAt, &rec.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if err := json.Unmarshal(data, &rec.Data); err != nil {
		return nil, fmt.Errorf("decoding budget data: %w", err)
	}

	rec.LastModified = rec.LastModified.UTC()
	rec.Data.LastModified = rec.LastModified

	return &rec, nil
}

const selectRecordColumns = `id, user_id, month, data, last_modified, created_at, updated_at`

func (s *Store) GetRecord(ctx context.Context, userID, month string) (*budgetsync.Record, error) {
	query := `SELECT ` + selectRecordColumns + `
		FROM budgets
		WHERE user_id = $1 AND month = $2`

	rec, err := scanRecord(s.db.QueryRowContext(ctx, query, userID, month))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, budget.ErrNotFound
		}

		return nil, fmt.Errorf("getting budget: %w", err)
	}

	return rec, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// syncLockKey maps a budget key onto the bigint space of advisory locks.
func syncLockKey(userID, month string) int64 {
	h := fnv.New64a()
	h.Write([]byte(userID))
	h.Write([]byte{0})
	h.Write([]byte(month))

	return int64(h.Sum64())
}

type syncTx struct {
	tx     *sql.Tx
	userID string
	month  string
}

// BeginSync opens a transaction holding an advisory lock on the key. The lock
// also covers the first insert of a key, which a row lock cannot.
func (s *Store) BeginSync(ctx context.Context, userID, month string) (budgetsync.SyncTx, error) {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning sync tx: %w", err)
	}

	if _, err := dbTx.ExecContext(ctx, "SELECT pg_advisory_xact_lock($1)", syncLockKey(userID, month)); err != nil {
		dbTx.Rollback()
		return nil, fmt.Errorf("acquiring sync lock: %w", err)
	}

	return &syncTx{tx: dbTx, userID: userID, month: month}, nil
}

func (stx *syncTx) Commit() error   { return stx.tx.Commit() }
func (stx *syncTx) Rollback() error { return stx.tx.Rollback() }

func (stx *syncTx) Get(ctx context.Context) (*budgetsync.Record, error) {
	query := `SELECT ` + selectRecordColumns + `
		FROM budgets
		WHERE user_id = $1 AND month = $2
		FOR UPDATE`

	rec, err := scanRecord(stx.tx.QueryRowContext(ctx, query, stx.userID, stx.month))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, budget.ErrNotFound
		}

		return nil, fmt.Errorf("getting budget: %w", err)
	}

	return rec, nil
}

func (stx *syncTx) Insert(ctx context.Context, data budget.Budget, lastModified time.Time) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encoding budget: %w", err)
	}

	query := `
		INSERT INTO budgets (user_id, month, data, last_modified, created_at, updated_at)
		VALUES ($1, $2, $3::jsonb, $4, NOW(), NOW())
	`

	if _, err := stx.tx.ExecContext(ctx, query, stx.userID, stx.month, string(raw), lastModified); err != nil {
		return fmt.Errorf("inserting budget: %w", err)
	}

	return nil
}

func (stx *syncTx) Update(ctx context.Context, data budget.Budget, lastModified time.Time) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encoding budget: %w", err)
	}

	query := `
		UPDATE budgets
		SET data = $1::jsonb, last_modified = $2, updated_at = NOW()
		WHERE user_id = $3 AND month = $4
	`

	res, err := stx.tx.ExecContext(ctx, query, string(raw), lastModified, stx.userID, stx.month)
	if err != nil {
		return fmt.Errorf("updating budget: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating budget: %w", err)
	}

	if n == 0 {
		return budget.ErrNotFound
	}

	return nil
}
