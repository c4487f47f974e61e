package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/budgetbox/internal/budgetsync"
	"github.com/MrJamesThe3rd/budgetbox/internal/budgetsync/memstore"
	budgetHttp "github.com/MrJamesThe3rd/budgetbox/internal/http"
	"github.com/MrJamesThe3rd/budgetbox/internal/http/budget"
	"github.com/MrJamesThe3rd/budgetbox/internal/http/health"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func newRouter(pinger health.Pinger) http.Handler {
	svc := budgetsync.NewService(memstore.New())

	return budgetHttp.New(budget.NewHandler(svc), health.NewHandler(pinger), []string{"http://app.test"})
}

func TestRouter_Healthz(t *testing.T) {
	tests := []struct {
		name       string
		pinger     health.Pinger
		wantCode   int
		wantStatus health.Status
	}{
		{
			name:       "Healthy",
			pinger:     budgetsync.NewService(memstore.New()),
			wantCode:   http.StatusOK,
			wantStatus: health.StatusHealthy,
		},
		{
			name:       "Unhealthy",
			pinger:     pingFunc(func(context.Context) error { return errors.New("db down") }),
			wantCode:   http.StatusServiceUnavailable,
			wantStatus: health.StatusUnhealthy,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			newRouter(tt.pinger).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

			assert.Equal(t, tt.wantCode, rec.Code)

			var resp health.Response
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
			assert.Equal(t, tt.wantStatus, resp.Status)
		})
	}
}

func TestRouter_Metrics(t *testing.T) {
	router := newRouter(pingFunc(func(context.Context) error { return nil }))

	body := `{"userId":"u1","month":"2024-01","income":10,"categories":[],"totalExpenses":0,"version":1}`
	req := httptest.NewRequest(http.MethodPost, "/budget/sync", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "budgetbox_sync_request_duration_seconds")
}

func TestRouter_RejectsNonJSONSync(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/budget/sync", strings.NewReader("userId=u1"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rec := httptest.NewRecorder()
	newRouter(pingFunc(func(context.Context) error { return nil })).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestRouter_CORSPreflight(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/budget/sync", nil)
	req.Header.Set("Origin", "http://app.test")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	rec := httptest.NewRecorder()
	newRouter(pingFunc(func(context.Context) error { return nil })).ServeHTTP(rec, req)

	assert.Equal(t, "http://app.test", rec.Header().Get("Access-Control-Allow-Origin"))
}
