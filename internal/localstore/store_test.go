package localstore_test

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/budgetbox/internal/budget"
	"github.com/MrJamesThe3rd/budgetbox/internal/localstore"
)

var t0 = time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC)

func openStore(t *testing.T) *localstore.Store {
	t.Helper()

	s, err := localstore.Open(filepath.Join(t.TempDir(), "nested", "budgetbox.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	return s
}

func jsonOf(t *testing.T, v any) string {
	t.Helper()

	raw, err := json.Marshal(v)
	require.NoError(t, err)

	return string(raw)
}

func TestStore_SaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	b := budget.New("u1", "2024-01", t0)
	b = budget.SetIncome(b, decimal.RequireFromString("5000.25"), t0)
	b = budget.AddCategory(b, "Food", decimal.RequireFromString("200.10"), t0.Add(time.Minute))
	b = budget.AddCategory(b, "Rent", decimal.NewFromInt(1500), t0.Add(2*time.Minute))

	require.NoError(t, s.Save(ctx, b))

	got, err := s.Load(ctx, "u1", "2024-01")
	require.NoError(t, err)

	assert.JSONEq(t, jsonOf(t, b), jsonOf(t, got))
	assert.Equal(t, b.Version, got.Version)
	assert.True(t, b.LastModified.Equal(got.LastModified))
	assert.True(t, b.TotalExpenses.Equal(got.TotalExpenses))
}

func TestStore_SaveOverwrites(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	b := budget.New("u1", "2024-01", t0)
	require.NoError(t, s.Save(ctx, b))

	b = budget.SetIncome(b, decimal.NewFromInt(42), t0.Add(time.Hour))
	require.NoError(t, s.Save(ctx, b))

	got, err := s.Load(ctx, "u1", "2024-01")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(42).Equal(got.Income))

	all, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestStore_LoadMissing(t *testing.T) {
	_, err := openStore(t).Load(context.Background(), "nobody", "2024-01")
	assert.ErrorIs(t, err, budget.ErrNotFound)
}

func TestStore_List(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	for _, k := range []struct{ user, month string }{
		{"u2", "2024-01"},
		{"u1", "2024-02"},
		{"u1", "2024-01"},
	} {
		require.NoError(t, s.Save(ctx, budget.New(k.user, k.month, t0)))
	}

	all, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)

	var keys []string
	for _, b := range all {
		keys = append(keys, b.Key())
	}

	assert.Equal(t, []string{"budget:u1:2024-01", "budget:u1:2024-02", "budget:u2:2024-01"}, keys)
}

func TestStore_Status(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	_, err := s.LoadStatus(ctx, "u1", "2024-01")
	assert.ErrorIs(t, err, budget.ErrNotFound)

	require.NoError(t, s.SaveStatus(ctx, "u1", "2024-01", budget.StatusSyncPending))
	require.NoError(t, s.SaveStatus(ctx, "u1", "2024-01", budget.StatusSynced))

	got, err := s.LoadStatus(ctx, "u1", "2024-01")
	require.NoError(t, err)
	assert.Equal(t, budget.StatusSynced, got)

	// Statuses are per key.
	_, err = s.LoadStatus(ctx, "u1", "2024-02")
	assert.ErrorIs(t, err, budget.ErrNotFound)
}

func TestStore_ReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "budgetbox.db")

	s, err := localstore.Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, budget.New("u1", "2024-01", t0)))
	require.NoError(t, s.SaveStatus(ctx, "u1", "2024-01", budget.StatusLocalOnly))
	require.NoError(t, s.Close())

	s, err = localstore.Open(path)
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Load(ctx, "u1", "2024-01")
	require.NoError(t, err)

	status, err := s.LoadStatus(ctx, "u1", "2024-01")
	require.NoError(t, err)
	assert.Equal(t, budget.StatusLocalOnly, status)
}
