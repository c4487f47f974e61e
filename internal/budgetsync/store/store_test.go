package store

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}

	for i, d := range dest {
		switch p := d.(type) {
		case *uuid.UUID:
			*p = r.values[i].(uuid.UUID)
		case *string:
			*p = r.values[i].(string)
		case *[]byte:
			*p = r.values[i].([]byte)
		case *time.Time:
			*p = r.values[i].(time.Time)
		default:
			return errors.New("unexpected destination")
		}
	}

	return nil
}

func TestSyncLockKey(t *testing.T) {
	a := syncLockKey("u1", "2024-01")

	assert.Equal(t, a, syncLockKey("u1", "2024-01"))
	assert.NotEqual(t, a, syncLockKey("u1", "2024-02"))
	assert.NotEqual(t, a, syncLockKey("u2", "2024-01"))
	// The separator keeps shifted boundaries apart.
	assert.NotEqual(t, syncLockKey("u1", "12024-01"), syncLockKey("u11", "2024-01"))
}

func TestScanRecord(t *testing.T) {
	id := uuid.New()
	lastModified := time.Date(2024, 1, 15, 9, 30, 0, 123456000, time.FixedZone("WET", 3600))
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	data := []byte(`{
		"userId": "u1",
		"month": "2024-01",
		"income": 5000,
		"categories": [{"id": "c1", "name": "Food", "amount": 200.5}],
		"totalExpenses": 200.5,
		"lastModified": "2023-12-31T00:00:00Z",
		"version": 3
	}`)

	rec, err := scanRecord(fakeRow{values: []any{id, "u1", "2024-01", data, lastModified, created, created}})
	require.NoError(t, err)

	assert.Equal(t, id, rec.ID)
	assert.Equal(t, "u1", rec.UserID)
	assert.Equal(t, "2024-01", rec.Month)
	assert.Equal(t, time.UTC, rec.LastModified.Location())
	assert.True(t, lastModified.Equal(rec.LastModified))
	// The column wins over the copy embedded in the document.
	assert.True(t, rec.LastModified.Equal(rec.Data.LastModified))
	assert.True(t, decimal.NewFromInt(5000).Equal(rec.Data.Income))
	require.Len(t, rec.Data.Categories, 1)
	assert.True(t, decimal.RequireFromString("200.5").Equal(rec.Data.Categories[0].Amount))
	assert.Equal(t, int64(3), rec.Data.Version)
}

func TestScanRecord_Errors(t *testing.T) {
	_, err := scanRecord(fakeRow{err: errors.New("boom")})
	assert.EqualError(t, err, "boom")

	now := time.Now()
	_, err = scanRecord(fakeRow{values: []any{uuid.New(), "u1", "2024-01", []byte(`{not json`), now, now, now}})
	assert.ErrorContains(t, err, "decoding budget data")
}
