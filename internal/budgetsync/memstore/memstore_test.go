package memstore_test

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/MrJamesThe3rd/budgetbox/internal/budget"
	"github.com/MrJamesThe3rd/budgetbox/internal/budgetsync"
	"github.com/MrJamesThe3rd/budgetbox/internal/budgetsync/memstore"
)

var t0 = time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)

// tickingClock returns strictly increasing times, one millisecond apart.
func tickingClock(start time.Time) func() time.Time {
	var n atomic.Int64
	return func() time.Time {
		return start.Add(time.Duration(n.Add(1)) * time.Millisecond)
	}
}

func scenarioBudget(lastModified time.Time) budget.Budget {
	b := budget.SetIncome(budget.New("u1", "2024-01", lastModified), decimal.NewFromInt(5000), lastModified)
	return budget.AddCategory(b, "Food", decimal.NewFromInt(200), lastModified)
}

func TestStore_GetRecord_NotFound(t *testing.T) {
	_, err := memstore.New().GetRecord(context.Background(), "u1", "2024-01")
	assert.ErrorIs(t, err, budget.ErrNotFound)
}

func TestStore_RollbackDiscardsWrites(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()

	stx, err := store.BeginSync(ctx, "u1", "2024-01")
	require.NoError(t, err)
	require.NoError(t, stx.Insert(ctx, scenarioBudget(t0), t0))
	require.NoError(t, stx.Rollback())

	_, err = store.GetRecord(ctx, "u1", "2024-01")
	assert.ErrorIs(t, err, budget.ErrNotFound)

	// The key lock was released.
	stx, err = store.BeginSync(ctx, "u1", "2024-01")
	require.NoError(t, err)
	require.NoError(t, stx.Rollback())
}

func TestStore_BeginSync_ContextCanceledWhileLocked(t *testing.T) {
	store := memstore.New()

	held, err := store.BeginSync(context.Background(), "u1", "2024-01")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = store.BeginSync(ctx, "u1", "2024-01")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// Other keys are not blocked.
	other, err := store.BeginSync(context.Background(), "u2", "2024-01")
	require.NoError(t, err)
	require.NoError(t, other.Rollback())

	require.NoError(t, held.Rollback())

	again, err := store.BeginSync(context.Background(), "u1", "2024-01")
	require.NoError(t, err)
	require.NoError(t, again.Rollback())
}

func TestSync_ScenarioA_FirstSync(t *testing.T) {
	ctx := context.Background()
	svc := budgetsync.NewService(memstore.New()).WithClock(tickingClock(t0))

	out, err := svc.UpsertIfNewer(ctx, scenarioBudget(t0))
	require.NoError(t, err)
	assert.True(t, out.Accepted)
	assert.True(t, out.Inserted)

	got, err := svc.Get(ctx, "u1", "2024-01")
	require.NoError(t, err)
	assert.Equal(t, out.Timestamp, got.LastModified)
	assert.True(t, decimal.NewFromInt(5000).Equal(got.Income))
	require.Len(t, got.Categories, 1)
	assert.Equal(t, "Food", got.Categories[0].Name)
}

func TestSync_Idempotent(t *testing.T) {
	ctx := context.Background()
	svc := budgetsync.NewService(memstore.New()).WithClock(tickingClock(t0))

	b := scenarioBudget(t0)

	first, err := svc.UpsertIfNewer(ctx, b)
	require.NoError(t, err)
	require.True(t, first.Accepted)

	// The client adopts the server stamp and re-sends the unchanged budget.
	b.LastModified = first.Timestamp

	second, err := svc.UpsertIfNewer(ctx, b)
	require.NoError(t, err)
	require.True(t, second.Accepted)
	assert.False(t, second.Timestamp.Before(first.Timestamp))

	got, err := svc.Get(ctx, "u1", "2024-01")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(5000).Equal(got.Income))
	assert.Len(t, got.Categories, 1)
}

func TestSync_ScenarioB_ServerNewerLeavesRecordUntouched(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	svc := budgetsync.NewService(store).WithClock(tickingClock(t0))

	_, err := svc.UpsertIfNewer(ctx, scenarioBudget(t0))
	require.NoError(t, err)

	before, err := store.GetRecord(ctx, "u1", "2024-01")
	require.NoError(t, err)
	beforeJSON, err := json.Marshal(before)
	require.NoError(t, err)

	stale := budget.SetIncome(scenarioBudget(t0), decimal.NewFromInt(1), t0.Add(-time.Hour))

	out, err := svc.UpsertIfNewer(ctx, stale)
	require.NoError(t, err)
	assert.False(t, out.Accepted)
	assert.Equal(t, before.LastModified, out.Timestamp)
	require.NotNil(t, out.ServerCopy)
	assert.True(t, decimal.NewFromInt(5000).Equal(out.ServerCopy.Income))

	after, err := store.GetRecord(ctx, "u1", "2024-01")
	require.NoError(t, err)
	afterJSON, err := json.Marshal(after)
	require.NoError(t, err)
	assert.Equal(t, string(beforeJSON), string(afterJSON))
}

func TestSync_ConcurrentSameKeySerialized(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	svc := budgetsync.NewService(store).WithClock(tickingClock(t0))

	const writers = 32

	var g errgroup.Group

	for i := range writers {
		g.Go(func() error {
			// Every client claims a time far in the future so every write is accepted.
			b := budget.SetIncome(scenarioBudget(t0), decimal.NewFromInt(int64(i)), t0.Add(24*time.Hour))
			_, err := svc.UpsertIfNewer(ctx, b)

			return err
		})
	}

	require.NoError(t, g.Wait())

	// Read-modify-write under the key lock must not lose increments.
	var counters errgroup.Group

	for range writers {
		counters.Go(func() error {
			stx, err := store.BeginSync(ctx, "u1", "2024-01")
			if err != nil {
				return err
			}
			defer stx.Rollback()

			rec, err := stx.Get(ctx)
			if err != nil {
				return err
			}

			next := rec.Data
			next.Version++
			time.Sleep(time.Millisecond)

			if err := stx.Update(ctx, next, rec.LastModified); err != nil {
				return err
			}

			return stx.Commit()
		})
	}

	require.NoError(t, counters.Wait())

	after, err := store.GetRecord(ctx, "u1", "2024-01")
	require.NoError(t, err)
	assert.Equal(t, scenarioBudget(t0).Version+1+writers, after.Data.Version)
}
