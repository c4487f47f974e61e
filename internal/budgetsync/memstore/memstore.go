// Package memstore is an in-process Server Record Store. Records live for the
// lifetime of the process.
package memstore

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/budgetbox/internal/budget"
	"github.com/MrJamesThe3rd/budgetbox/internal/budgetsync"
)

var (
	errTxDone    = errors.New("sync transaction already finished")
	errDuplicate = errors.New("budget already exists")
)

type key struct {
	userID string
	month  string
}

type Store struct {
	mu      sync.Mutex
	records map[key]budgetsync.Record
	locks   map[key]*sync.Mutex
}

func New() *Store {
	return &Store{
		records: make(map[key]budgetsync.Record),
		locks:   make(map[key]*sync.Mutex),
	}
}

// keyLock returns the lock for k. Locks are never dropped, so the map grows
// with the number of distinct keys seen.
func (s *Store) keyLock(k key) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.locks[k]
	if !ok {
		l = &sync.Mutex{}
		s.locks[k] = l
	}

	return l
}

func (s *Store) read(k key) (budgetsync.Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[k]

	return rec, ok
}

func (s *Store) write(k key, rec budgetsync.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[k] = rec
}

func (s *Store) GetRecord(_ context.Context, userID, month string) (*budgetsync.Record, error) {
	rec, ok := s.read(key{userID: userID, month: month})
	if !ok {
		return nil, budget.ErrNotFound
	}

	return copyRecord(rec), nil
}

func (s *Store) Ping(_ context.Context) error {
	return nil
}

// BeginSync blocks until no other sync holds the key, or ctx is done.
func (s *Store) BeginSync(ctx context.Context, userID, month string) (budgetsync.SyncTx, error) {
	k := key{userID: userID, month: month}
	l := s.keyLock(k)

	acquired := make(chan struct{})
	go func() {
		l.Lock()
		close(acquired)
	}()

	select {
	case <-acquired:
		return &syncTx{store: s, key: k, lock: l}, nil
	case <-ctx.Done():
		// Hand the lock back once the goroutine gets it.
		go func() {
			<-acquired
			l.Unlock()
		}()

		return nil, ctx.Err()
	}
}

type syncTx struct {
	store  *Store
	key    key
	lock   *sync.Mutex
	staged *budgetsync.Record
	done   bool
}

func (tx *syncTx) Get(_ context.Context) (*budgetsync.Record, error) {
	if tx.done {
		return nil, errTxDone
	}

	rec, ok := tx.store.read(tx.key)
	if !ok {
		return nil, budget.ErrNotFound
	}

	return copyRecord(rec), nil
}

func (tx *syncTx) Insert(_ context.Context, data budget.Budget, lastModified time.Time) error {
	if tx.done {
		return errTxDone
	}

	if _, ok := tx.store.read(tx.key); ok {
		return errDuplicate
	}

	now := time.Now().UTC()
	tx.staged = &budgetsync.Record{
		ID:           uuid.New(),
		UserID:       tx.key.userID,
		Month:        tx.key.month,
		Data:         copyBudget(data),
		LastModified: lastModified,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	return nil
}

func (tx *syncTx) Update(_ context.Context, data budget.Budget, lastModified time.Time) error {
	if tx.done {
		return errTxDone
	}

	rec, ok := tx.store.read(tx.key)
	if !ok {
		return budget.ErrNotFound
	}

	rec.Data = copyBudget(data)
	rec.LastModified = lastModified
	rec.UpdatedAt = time.Now().UTC()
	tx.staged = &rec

	return nil
}

func (tx *syncTx) Commit() error {
	if tx.done {
		return errTxDone
	}

	if tx.staged != nil {
		tx.store.write(tx.key, *tx.staged)
	}

	tx.finish()

	return nil
}

func (tx *syncTx) Rollback() error {
	if tx.done {
		return nil
	}

	tx.finish()

	return nil
}

func (tx *syncTx) finish() {
	tx.done = true
	tx.staged = nil
	tx.lock.Unlock()
}

func copyBudget(b budget.Budget) budget.Budget {
	b.Categories = append([]budget.Category{}, b.Categories...)
	return b
}

func copyRecord(rec budgetsync.Record) *budgetsync.Record {
	rec.Data = copyBudget(rec.Data)
	return &rec
}
