package budget

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/budgetbox/internal/budget"
	"github.com/MrJamesThe3rd/budgetbox/internal/budgetsync"
)

const (
	msgMissingKey  = "Missing userId or month"
	msgInvalidBody = "Invalid request body"
	msgInternal    = "Internal server error"
	msgNotFound    = "not-found"
)

type Handler struct {
	svc *budgetsync.Service
}

func NewHandler(svc *budgetsync.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/sync", h.sync)
	r.Get("/latest", h.latest)
}

func (h *Handler) sync(w http.ResponseWriter, r *http.Request) {
	var incoming budget.Budget
	if err := json.NewDecoder(r.Body).Decode(&incoming); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: msgInvalidBody})
		return
	}

	if incoming.UserID == "" || incoming.Month == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: msgMissingKey})
		return
	}

	out, err := h.svc.UpsertIfNewer(r.Context(), incoming)
	if err != nil {
		slog.Error("failed to sync budget", "user_id", incoming.UserID, "month", incoming.Month, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: msgInternal})

		return
	}

	writeJSON(w, http.StatusOK, toSyncResponse(out))
}

func (h *Handler) latest(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	month := r.URL.Query().Get("month")

	if userID == "" || month == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: msgMissingKey})
		return
	}

	b, err := h.svc.Get(r.Context(), userID, month)
	if err != nil {
		if errors.Is(err, budget.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: msgNotFound})
			return
		}

		slog.Error("failed to get latest budget", "user_id", userID, "month", month, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: msgInternal})

		return
	}

	writeJSON(w, http.StatusOK, latestResponse{Budget: *b})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
