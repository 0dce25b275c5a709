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

type TodoHandler struct {
	store *store.Store
}

func NewTodoHandler(s *store.Store) *TodoHandler {
	return &TodoHandler{store: s}
}

func (h *TodoHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())

	var req struct {
		Text     string     `json:"text"`
		Priority string     `json:"priority"`
		DueDate  *time.Time `json:"due_date"`
		Tags     []string   `json:"tags"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Text == "" {
		respondError(w, "text is required", http.StatusBadRequest)
		return
	}

	todo := &domain.Todo{
		ID:       store.NewTodoID(),
		UserID:   userID,
		Text:     req.Text,
		Priority: req.Priority,
		DueDate:  req.DueDate,
		Tags:     req.Tags,
	}
	if err := h.store.CreateTodo(r.Context(), todo); err != nil {
		respondError(w, "failed to create todo", http.StatusInternalServerError)
		return
	}

	respondJSON(w, todo, http.StatusCreated)
}

func (h *TodoHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())
	filter := r.URL.Query().Get("filter")
	search := r.URL.Query().Get("search")

	todos, err := h.store.ListTodos(r.Context(), userID, filter, search)
	if err != nil {
		respondError(w, "failed to list todos", http.StatusInternalServerError)
		return
	}
	if todos == nil {
		todos = []*domain.Todo{}
	}

	respondJSON(w, map[string]any{"todos": todos}, http.StatusOK)
}

func (h *TodoHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())
	todoID := chi.URLParam(r, "id")

	todo, err := h.store.GetTodo(r.Context(), userID, todoID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			respondError(w, "todo not found", http.StatusNotFound)
			return
		}
		respondError(w, "failed to get todo", http.StatusInternalServerError)
		return
	}

	respondJSON(w, todo, http.StatusOK)
}

func (h *TodoHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())
	todoID := chi.URLParam(r, "id")

	todo, err := h.store.GetTodo(r.Context(), userID, todoID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			respondError(w, "todo not found", http.StatusNotFound)
			return
		}
		respondError(w, "failed to get todo", http.StatusInternalServerError)
		return
	}

	var req struct {
		Text      *string           `json:"text"`
		Completed *bool             `json:"completed"`
		Priority  *string           `json:"priority"`
		DueDate   *time.Time        `json:"due_date"`
		Tags      *[]string         `json:"tags"`
		Subtasks  *[]domain.Subtask `json:"subtasks"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if req.Text != nil {
		todo.Text = *req.Text
	}
	if req.Completed != nil {
		todo.Completed = *req.Completed
	}
	if req.Priority != nil {
		todo.Priority = *req.Priority
	}
	if req.DueDate != nil {
		todo.DueDate = req.DueDate
	}
	if req.Tags != nil {
		todo.Tags = *req.Tags
	}
	if req.Subtasks != nil {
		todo.Subtasks = *req.Subtasks
	}

	if err := h.store.UpdateTodo(r.Context(), todo); err != nil {
		respondError(w, "failed to update todo", http.StatusInternalServerError)
		return
	}

	respondJSON(w, todo, http.StatusOK)
}

func (h *TodoHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())
	todoID := chi.URLParam(r, "id")

	todo, err := h.store.ToggleTodo(r.Context(), userID, todoID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			respondError(w, "todo not found", http.StatusNotFound)
			return
		}
		respondError(w, "failed to toggle todo", http.StatusInternalServerError)
		return
	}

	respondJSON(w, todo, http.StatusOK)
}

func (h *TodoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())
	todoID := chi.URLParam(r, "id")

	if err := h.store.DeleteTodo(r.Context(), userID, todoID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			respondError(w, "todo not found", http.StatusNotFound)
			return
		}
		respondError(w, "failed to delete todo", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
