package budgetsync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/MrJamesThe3rd/budgetbox/internal/budget"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=budgetsync
type Repository interface {
	// BeginSync opens a scope holding an exclusive lock on the (userID, month) key
	// until the returned SyncTx is committed or rolled back.
	BeginSync(ctx context.Context, userID, month string) (SyncTx, error)
	GetRecord(ctx context.Context, userID, month string) (*Record, error)
	Ping(ctx context.Context) error
}

type SyncTx interface {
	// Get returns the locked record, or budget.ErrNotFound.
	Get(ctx context.Context) (*Record, error)
	Insert(ctx context.Context, data budget.Budget, lastModified time.Time) error
	Update(ctx context.Context, data budget.Budget, lastModified time.Time) error
	Commit() error
	Rollback() error
}

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// WithClock replaces the server clock. Used by tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// stamp is the canonical server time. Postgres keeps microseconds, so the
// stamp is truncated to survive a round trip unchanged.
func (s *Service) stamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

// UpsertIfNewer applies last-write-wins between incoming and the stored record.
// The read, the comparison and the write happen under one per-key lock.
func (s *Service) UpsertIfNewer(ctx context.Context, incoming budget.Budget) (*Outcome, error) {
	start := time.Now()

	outcome, err := s.upsertIfNewer(ctx, incoming)
	observeSync(time.Since(start), outcome, err)

	return outcome, err
}

func (s *Service) upsertIfNewer(ctx context.Context, incoming budget.Budget) (*Outcome, error) {
	stx, err := s.repo.BeginSync(ctx, incoming.UserID, incoming.Month)
	if err != nil {
		return nil, fmt.Errorf("begin sync: %w", err)
	}
	defer stx.Rollback()

	stored, err := stx.Get(ctx)
	if err != nil && !errors.Is(err, budget.ErrNotFound) {
		return nil, fmt.Errorf("get stored budget: %w", err)
	}

	if stored == nil {
		ts := s.stamp()
		incoming.LastModified = ts

		if err := stx.Insert(ctx, incoming, ts); err != nil {
			return nil, fmt.Errorf("insert budget: %w", err)
		}

		if err := stx.Commit(); err != nil {
			return nil, fmt.Errorf("commit sync: %w", err)
		}

		return &Outcome{Accepted: true, Inserted: true, Timestamp: ts}, nil
	}

	if incoming.LastModified.Before(stored.LastModified) {
		slog.InfoContext(ctx, "rejected stale budget",
			"user_id", incoming.UserID,
			"month", incoming.Month,
			"client_last_modified", incoming.LastModified,
			"server_last_modified", stored.LastModified,
		)

		return &Outcome{
			Accepted:   false,
			Timestamp:  stored.LastModified,
			ServerCopy: &stored.Data,
		}, nil
	}

	ts := s.stamp()
	incoming.LastModified = ts

	if err := stx.Update(ctx, incoming, ts); err != nil {
		return nil, fmt.Errorf("update budget: %w", err)
	}

	if err := stx.Commit(); err != nil {
		return nil, fmt.Errorf("commit sync: %w", err)
	}

	return &Outcome{Accepted: true, Timestamp: ts}, nil
}

// Get returns the stored budget for the key, or budget.ErrNotFound.
func (s *Service) Get(ctx context.Context, userID, month string) (*budget.Budget, error) {
	rec, err := s.repo.GetRecord(ctx, userID, month)
	if err != nil {
		return nil, err
	}

	return &rec.Data, nil
}

// Ping reports whether the record store is reachable.
func (s *Service) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}
