package raffle_api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"ms-raffle/internal/logger"
	"ms-raffle/internal/models"
	raffle "ms-raffle/internal/raffle/service"
)

type EntryService interface {
	Status(ctx context.Context, userID int64) (int, error)
	Enter(ctx context.Context, userID int64) (int, error)
}

type Handler struct {
	Service EntryService
	Logger  *logger.Logger
}

func NewHandler(service EntryService, log *logger.Logger) *Handler {
	return &Handler{Service: service, Logger: log}
}

// RegisterRoutes mounts the raffle endpoints on the router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/api/raffle-status", h.RaffleStatus)
	r.Post("/api/raffle-entry", h.RaffleEntry)
}

// parseUserID validates the externally supplied identifier. The source
// behavior of coercing garbage to NaN and treating it as account 0 was
// a bug; anything that is not a non-negative integer is rejected.
func parseUserID(raw string) (int64, error) {
	userID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("userId %q is not a valid integer", raw)
	}
	if userID < 0 {
		return 0, fmt.Errorf("userId must be non-negative, got %d", userID)
	}
	return userID, nil
}

// RaffleStatus handles GET /api/raffle-status?userId=N. Pure read, safe
// to retry arbitrarily.
func (h *Handler) RaffleStatus(w http.ResponseWriter, r *http.Request) {
	userID, err := parseUserID(r.URL.Query().Get("userId"))
	if err != nil {
		h.Logger.Warn("API", fmt.Sprintf("RaffleStatus: invalid request: %v", err))
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	tickets, err := h.Service.Status(r.Context(), userID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("RaffleStatus: failed for user %d: %v", userID, err))
		h.respondError(w, h.statusFor(err), "could not read ticket count")
		return
	}

	h.respondJSON(w, http.StatusOK, models.RaffleStatusResponse{Tickets: tickets})
}

// RaffleEntry handles POST /api/raffle-entry. Each accepted call grants
// exactly one ticket; the caller is responsible for not submitting the
// same user action twice.
func (h *Handler) RaffleEntry(w http.ResponseWriter, r *http.Request) {
	var req models.RaffleEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Warn("API", fmt.Sprintf("RaffleEntry: failed to decode body: %v", err))
		h.respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if len(req.UserID) == 0 {
		h.respondError(w, http.StatusBadRequest, "userId is required")
		return
	}

	// Accept both a JSON number and a quoted numeric string; reject
	// everything else.
	userID, err := parseUserID(string(bytes.Trim(req.UserID, `"`)))
	if err != nil {
		h.Logger.Warn("API", fmt.Sprintf("RaffleEntry: invalid request: %v", err))
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	tickets, err := h.Service.Enter(r.Context(), userID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("RaffleEntry: failed for user %d: %v", userID, err))
		h.respondError(w, h.statusFor(err), "could not grant ticket")
		return
	}

	h.Logger.Info("API", fmt.Sprintf("RaffleEntry: granted ticket to user %d (total %d)", userID, tickets))
	h.respondJSON(w, http.StatusOK, models.RaffleEntryResponse{Success: true, Tickets: tickets})
}

func (h *Handler) statusFor(err error) int {
	if errors.Is(err, raffle.ErrStorageUnavailable) {
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func (h *Handler) respondJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.Logger.Error("API", fmt.Sprintf("failed to encode response: %v", err))
	}
}

func (h *Handler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}
