// Package session holds the budget a client is editing and drives its sync
// with the server.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/budgetbox/internal/budget"
	"github.com/MrJamesThe3rd/budgetbox/internal/client"
)

// OverwriteNotice is shown when a sync replaced local edits with the server copy.
const OverwriteNotice = "Budget updated from server (newer version found)."

var ErrNotOpen = errors.New("no budget open")

type Outcome int

const (
	OutcomeSynced Outcome = iota + 1
	OutcomeOverwritten
)

type LocalStore interface {
	Save(ctx context.Context, b budget.Budget) error
	Load(ctx context.Context, userID, month string) (*budget.Budget, error)
	SaveStatus(ctx context.Context, userID, month string, status budget.SyncStatus) error
	LoadStatus(ctx context.Context, userID, month string) (budget.SyncStatus, error)
}

type Remote interface {
	Sync(ctx context.Context, b budget.Budget) (*client.SyncResponse, error)
	Latest(ctx context.Context, userID, month string) (*budget.Budget, error)
}

type Session struct {
	local  LocalStore
	remote Remote
	now    func() time.Time

	mu     sync.Mutex
	open   bool
	budget budget.Budget
	status budget.SyncStatus
}

func New(local LocalStore, remote Remote) *Session {
	return &Session{local: local, remote: remote, now: time.Now}
}

// WithClock replaces the clock used to stamp local edits.
func (s *Session) WithClock(now func() time.Time) *Session {
	s.now = now
	return s
}

// Open makes (userID, month) the current budget. A local copy wins over the
// server; without one the server copy is fetched, and without that a new
// budget is started.
func (s *Session) Open(ctx context.Context, userID, month string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	local, err := s.local.Load(ctx, userID, month)

	switch {
	case err == nil:
		status, err := s.local.LoadStatus(ctx, userID, month)
		if err != nil {
			if !errors.Is(err, budget.ErrNotFound) {
				return fmt.Errorf("loading sync status: %w", err)
			}

			status = budget.StatusSyncPending
		}

		s.set(*local, status)

		return nil
	case !errors.Is(err, budget.ErrNotFound):
		return fmt.Errorf("loading local budget: %w", err)
	}

	remote, err := s.remote.Latest(ctx, userID, month)
	if err == nil {
		return s.replace(ctx, *remote, budget.StatusSynced)
	}

	if !errors.Is(err, budget.ErrNotFound) {
		slog.WarnContext(ctx, "server unreachable, starting local budget",
			"user_id", userID, "month", month, "error", err)
	}

	return s.replace(ctx, budget.New(userID, month, s.now()), budget.StatusLocalOnly)
}

func (s *Session) Budget() (budget.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.open {
		return budget.Budget{}, ErrNotOpen
	}

	b := s.budget
	b.Categories = append([]budget.Category{}, b.Categories...)

	return b, nil
}

func (s *Session) Status() budget.SyncStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.status
}

func (s *Session) SetIncome(ctx context.Context, amount decimal.Decimal) error {
	return s.mutate(ctx, func(b budget.Budget, now time.Time) budget.Budget {
		return budget.SetIncome(b, amount, now)
	})
}

func (s *Session) AddCategory(ctx context.Context, name string, amount decimal.Decimal) error {
	return s.mutate(ctx, func(b budget.Budget, now time.Time) budget.Budget {
		return budget.AddCategory(b, name, amount, now)
	})
}

func (s *Session) UpdateCategoryAmount(ctx context.Context, id string, amount decimal.Decimal) error {
	return s.mutate(ctx, func(b budget.Budget, now time.Time) budget.Budget {
		return budget.UpdateCategoryAmount(b, id, amount, now)
	})
}

func (s *Session) RemoveCategory(ctx context.Context, id string) error {
	return s.mutate(ctx, func(b budget.Budget, now time.Time) budget.Budget {
		return budget.RemoveCategory(b, id, now)
	})
}

// mutate applies op in memory right away, then waits for the local write.
func (s *Session) mutate(ctx context.Context, op func(budget.Budget, time.Time) budget.Budget) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.open {
		return ErrNotOpen
	}

	return s.replace(ctx, op(s.budget, s.now()), budget.StatusSyncPending)
}

// Sync pushes the current budget to the server. On failure nothing changes
// and the error is returned.
func (s *Session) Sync(ctx context.Context) (Outcome, error) {
	s.mu.Lock()
	if !s.open {
		s.mu.Unlock()
		return 0, ErrNotOpen
	}

	sent := s.budget
	s.mu.Unlock()

	resp, err := s.remote.Sync(ctx, sent)
	if err != nil {
		slog.ErrorContext(ctx, "failed to sync budget",
			"user_id", sent.UserID, "month", sent.Month, "error", err)

		return 0, fmt.Errorf("syncing budget: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// The user switched budgets while the request was in flight.
	if s.budget.Key() != sent.Key() {
		return 0, fmt.Errorf("syncing budget: %s is no longer open", sent.Key())
	}

	if !resp.Success {
		return OutcomeOverwritten, s.replace(ctx, *resp.ServerCopy, budget.StatusSynced)
	}

	// Edits made while the request was in flight are still unsynced. They must
	// not be older than the copy the server just stamped, or the next sync loses
	// them to it.
	if s.budget.Version != sent.Version {
		pending := s.budget
		if resp.Timestamp.After(pending.LastModified) {
			pending.LastModified = resp.Timestamp
		}

		return OutcomeSynced, s.replace(ctx, pending, budget.StatusSyncPending)
	}

	synced := s.budget
	synced.LastModified = resp.Timestamp

	return OutcomeSynced, s.replace(ctx, synced, budget.StatusSynced)
}

// replace sets the in-memory state and persists it. Callers hold s.mu.
func (s *Session) replace(ctx context.Context, b budget.Budget, status budget.SyncStatus) error {
	s.set(b, status)

	if err := s.local.Save(ctx, b); err != nil {
		return fmt.Errorf("saving budget locally: %w", err)
	}

	if err := s.local.SaveStatus(ctx, b.UserID, b.Month, status); err != nil {
		return fmt.Errorf("saving sync status: %w", err)
	}

	return nil
}

func (s *Session) set(b budget.Budget, status budget.SyncStatus) {
	s.budget = b
	s.status = status
	s.open = true
}
