package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/krsna-app/krsna/api/domain"
	"github.com/krsna-app/krsna/api/store"
)

type TrackerHandler struct {
	store *store.Store
}

func NewTrackerHandler(s *store.Store) *TrackerHandler {
	return &TrackerHandler{store: s}
}

func (h *TrackerHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())

	var req struct {
		Name   string  `json:"name"`
		Unit   string  `json:"unit"`
		Target float64 `json:"target"`
		Color  string  `json:"color"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		respondError(w, "name is required", http.StatusBadRequest)
		return
	}

	tracker := &domain.Tracker{
		ID:     store.NewTrackerID(),
		UserID: userID,
		Name:   req.Name,
		Unit:   req.Unit,
		Target: req.Target,
		Color:  req.Color,
	}
	if err := h.store.CreateTracker(r.Context(), tracker); err != nil {
		respondError(w, "failed to create tracker", http.StatusInternalServerError)
		return
	}

	respondJSON(w, tracker, http.StatusCreated)
}

func (h *TrackerHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())
	logDays := parseIntQuery(r, "log_days", 30)

	trackers, err := h.store.ListTrackers(r.Context(), userID, logDays)
	if err != nil {
		respondError(w, "failed to list trackers", http.StatusInternalServerError)
		return
	}
	if trackers == nil {
		trackers = []*domain.Tracker{}
	}

	respondJSON(w, map[string]any{"trackers": trackers}, http.StatusOK)
}

// Log handles POST /trackers/{id}/logs. Logging twice on one date
// accumulates the value.
func (h *TrackerHandler) Log(w http.ResponseWriter, r *http.Request) {
	trackerID := chi.URLParam(r, "id")

	var req struct {
		Date  string  `json:"date"`
		Value float64 `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Value == 0 {
		req.Value = 1
	}

	log := &domain.TrackerLog{
		ID:        store.NewID("trklog"),
		TrackerID: trackerID,
		Date:      req.Date,
		Value:     req.Value,
	}
	if err := h.store.LogTracker(r.Context(), log); err != nil {
		respondError(w, "failed to log tracker", http.StatusInternalServerError)
		return
	}

	respondJSON(w, log, http.StatusCreated)
}

func (h *TrackerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())
	trackerID := chi.URLParam(r, "id")

	if err := h.store.DeleteTracker(r.Context(), userID, trackerID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			respondError(w, "tracker not found", http.StatusNotFound)
			return
		}
		respondError(w, "failed to delete tracker", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
