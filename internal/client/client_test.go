package client_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/budgetbox/internal/budget"
	"github.com/MrJamesThe3rd/budgetbox/internal/client"
)

var t0 = time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC)

func sample() budget.Budget {
	b := budget.SetIncome(budget.New("u1", "2024-01", t0), decimal.NewFromInt(5000), t0)
	return budget.AddCategory(b, "Food", decimal.NewFromInt(200), t0)
}

func TestClient_Sync(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		check   func(t *testing.T, got *client.SyncResponse)
		wantErr string
	}{
		{
			name:   "Accepted",
			status: http.StatusOK,
			body:   `{"success":true,"timestamp":"2024-01-15T09:30:00.123Z","status":"synced"}`,
			check: func(t *testing.T, got *client.SyncResponse) {
				assert.True(t, got.Success)
				assert.Equal(t, "synced", got.Status)
				assert.True(t, time.Date(2024, 1, 15, 9, 30, 0, 123000000, time.UTC).Equal(got.Timestamp))
			},
		},
		{
			name:   "ServerNewer",
			status: http.StatusOK,
			body: `{"success":false,"reason":"server-newer","timestamp":"2024-01-15T09:30:00Z",
				"serverCopy":{"userId":"u1","month":"2024-01","income":9000,"categories":[],"totalExpenses":0,
				"lastModified":"2024-01-15T09:30:00Z","version":7}}`,
			check: func(t *testing.T, got *client.SyncResponse) {
				assert.False(t, got.Success)
				assert.Equal(t, client.ReasonServerNewer, got.Reason)
				require.NotNil(t, got.ServerCopy)
				assert.True(t, decimal.NewFromInt(9000).Equal(got.ServerCopy.Income))
				assert.Equal(t, int64(7), got.ServerCopy.Version)
			},
		},
		{
			name:    "InternalError",
			status:  http.StatusInternalServerError,
			body:    `{"error":"Internal server error"}`,
			wantErr: "unexpected status code 500: Internal server error",
		},
		{
			name:    "Garbage",
			status:  http.StatusOK,
			body:    `<html>`,
			wantErr: "decoding sync response",
		},
		{
			name:    "RejectedWithoutCopy",
			status:  http.StatusOK,
			body:    `{"success":false,"reason":"server-newer","timestamp":"2024-01-15T09:30:00Z"}`,
			wantErr: "unexpected sync response",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "/budget/sync", r.URL.Path)
				assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

				var sent budget.Budget
				assert.NoError(t, json.NewDecoder(r.Body).Decode(&sent))
				assert.Equal(t, "u1", sent.UserID)
				assert.True(t, t0.Equal(sent.LastModified))

				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			got, err := client.New(srv.URL+"/", time.Second).Sync(context.Background(), sample())
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				assert.Nil(t, got)

				return
			}

			require.NoError(t, err)
			tt.check(t, got)
		})
	}
}

func TestClient_Latest(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{
			name:   "Found",
			status: http.StatusOK,
			body:   `{"budget":{"userId":"u1","month":"2024-01","income":5000,"categories":[],"totalExpenses":0,"lastModified":"2024-01-15T09:30:00Z","version":1}}`,
		},
		{
			name:    "NotFound",
			status:  http.StatusNotFound,
			body:    `{"error":"not-found"}`,
			wantErr: budget.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/budget/latest", r.URL.Path)
				assert.Equal(t, "u1", r.URL.Query().Get("userId"))
				assert.Equal(t, "2024-01", r.URL.Query().Get("month"))

				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			got, err := client.New(srv.URL, time.Second).Latest(context.Background(), "u1", "2024-01")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.True(t, decimal.NewFromInt(5000).Equal(got.Income))
		})
	}
}

func TestClient_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	_, err := client.New(srv.URL, 50*time.Millisecond).Sync(context.Background(), sample())
	assert.ErrorContains(t, err, "executing request")
}

func TestClient_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := client.New(url, time.Second).Latest(context.Background(), "u1", "2024-01")
	require.Error(t, err)
	assert.NotErrorIs(t, err, budget.ErrNotFound)
}
