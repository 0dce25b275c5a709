package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/krsna-app/krsna/api/domain"
	"github.com/krsna-app/krsna/api/store"
)

type ProjectHandler struct {
	store *store.Store
}

func NewProjectHandler(s *store.Store) *ProjectHandler {
	return &ProjectHandler{store: s}
}

func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())

	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		Status      string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		respondError(w, "name is required", http.StatusBadRequest)
		return
	}

	project := &domain.Project{
		ID:          store.NewProjectID(),
		UserID:      userID,
		Name:        req.Name,
		Description: req.Description,
		Status:      req.Status,
	}
	if err := h.store.CreateProject(r.Context(), project); err != nil {
		respondError(w, "failed to create project", http.StatusInternalServerError)
		return
	}

	respondJSON(w, project, http.StatusCreated)
}

func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())

	projects, err := h.store.ListProjects(r.Context(), userID)
	if err != nil {
		respondError(w, "failed to list projects", http.StatusInternalServerError)
		return
	}
	if projects == nil {
		projects = []*domain.Project{}
	}

	respondJSON(w, map[string]any{"projects": projects}, http.StatusOK)
}

func (h *ProjectHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())
	projectID := chi.URLParam(r, "id")

	projects, err := h.store.ListProjects(r.Context(), userID)
	if err != nil {
		respondError(w, "failed to get project", http.StatusInternalServerError)
		return
	}
	var project *domain.Project
	for _, p := range projects {
		if p.ID == projectID {
			project = p
			break
		}
	}
	if project == nil {
		respondError(w, "project not found", http.StatusNotFound)
		return
	}

	var req struct {
		Name        *string `json:"name"`
		Description *string `json:"description"`
		Status      *string `json:"status"`
		Progress    *int    `json:"progress"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if req.Name != nil {
		project.Name = *req.Name
	}
	if req.Description != nil {
		project.Description = *req.Description
	}
	if req.Status != nil {
		project.Status = *req.Status
	}
	if req.Progress != nil {
		project.Progress = *req.Progress
	}

	if err := h.store.UpdateProject(r.Context(), project); err != nil {
		respondError(w, "failed to update project", http.StatusInternalServerError)
		return
	}

	respondJSON(w, project, http.StatusOK)
}

func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())
	projectID := chi.URLParam(r, "id")

	if err := h.store.DeleteProject(r.Context(), userID, projectID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			respondError(w, "project not found", http.StatusNotFound)
			return
		}
		respondError(w, "failed to delete project", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
