package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/krsna-app/krsna/api/domain"
	"github.com/krsna-app/krsna/api/store"
)

type GoalHandler struct {
	store *store.Store
}

func NewGoalHandler(s *store.Store) *GoalHandler {
	return &GoalHandler{store: s}
}

func (h *GoalHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())

	var req struct {
		Title       string             `json:"title"`
		Description string             `json:"description"`
		TargetDate  *time.Time         `json:"target_date"`
		Milestones  []domain.Milestone `json:"milestones"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Title == "" {
		respondError(w, "title is required", http.StatusBadRequest)
		return
	}

	goal := &domain.Goal{
		ID:          store.NewGoalID(),
		UserID:      userID,
		Title:       req.Title,
		Description: req.Description,
		TargetDate:  req.TargetDate,
		Milestones:  req.Milestones,
	}
	if err := h.store.CreateGoal(r.Context(), goal); err != nil {
		respondError(w, "failed to create goal", http.StatusInternalServerError)
		return
	}

	respondJSON(w, goal, http.StatusCreated)
}

func (h *GoalHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())

	goals, err := h.store.ListGoals(r.Context(), userID)
	if err != nil {
		respondError(w, "failed to list goals", http.StatusInternalServerError)
		return
	}
	if goals == nil {
		goals = []*domain.Goal{}
	}

	respondJSON(w, map[string]any{"goals": goals}, http.StatusOK)
}

func (h *GoalHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())
	goalID := chi.URLParam(r, "id")

	goals, err := h.store.ListGoals(r.Context(), userID)
	if err != nil {
		respondError(w, "failed to get goal", http.StatusInternalServerError)
		return
	}
	var goal *domain.Goal
	for _, g := range goals {
		if g.ID == goalID {
			goal = g
			break
		}
	}
	if goal == nil {
		respondError(w, "goal not found", http.StatusNotFound)
		return
	}

	var req struct {
		Title       *string             `json:"title"`
		Description *string             `json:"description"`
		TargetDate  *time.Time          `json:"target_date"`
		Progress    *int                `json:"progress"`
		Milestones  *[]domain.Milestone `json:"milestones"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if req.Title != nil {
		goal.Title = *req.Title
	}
	if req.Description != nil {
		goal.Description = *req.Description
	}
	if req.TargetDate != nil {
		goal.TargetDate = req.TargetDate
	}
	if req.Progress != nil {
		goal.Progress = *req.Progress
	}
	if req.Milestones != nil {
		goal.Milestones = *req.Milestones
	}

	if err := h.store.UpdateGoal(r.Context(), goal); err != nil {
		respondError(w, "failed to update goal", http.StatusInternalServerError)
		return
	}

	respondJSON(w, goal, http.StatusOK)
}

func (h *GoalHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())
	goalID := chi.URLParam(r, "id")

	if err := h.store.DeleteGoal(r.Context(), userID, goalID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			respondError(w, "goal not found", http.StatusNotFound)
			return
		}
		respondError(w, "failed to delete goal", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
