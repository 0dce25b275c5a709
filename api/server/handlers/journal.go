package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/krsna-app/krsna/api/domain"
	"github.com/krsna-app/krsna/api/store"
)

type JournalHandler struct {
	store *store.Store
}

func NewJournalHandler(s *store.Store) *JournalHandler {
	return &JournalHandler{store: s}
}

func (h *JournalHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())

	var req struct {
		Content string   `json:"content"`
		Mood    string   `json:"mood"`
		Tags    []string `json:"tags"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Content == "" {
		respondError(w, "content is required", http.StatusBadRequest)
		return
	}

	entry := &domain.JournalEntry{
		ID:      store.NewJournalID(),
		UserID:  userID,
		Content: req.Content,
		Mood:    req.Mood,
		Tags:    req.Tags,
	}
	if err := h.store.CreateJournalEntry(r.Context(), entry); err != nil {
		respondError(w, "failed to create journal entry", http.StatusInternalServerError)
		return
	}

	respondJSON(w, entry, http.StatusCreated)
}

func (h *JournalHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())
	limit := parseIntQuery(r, "limit", 50)

	entries, err := h.store.ListJournalEntries(r.Context(), userID, limit)
	if err != nil {
		respondError(w, "failed to list journal entries", http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []*domain.JournalEntry{}
	}

	respondJSON(w, map[string]any{"entries": entries}, http.StatusOK)
}

func (h *JournalHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())
	entryID := chi.URLParam(r, "id")

	entry, err := h.store.GetJournalEntry(r.Context(), userID, entryID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			respondError(w, "journal entry not found", http.StatusNotFound)
			return
		}
		respondError(w, "failed to get journal entry", http.StatusInternalServerError)
		return
	}

	var req struct {
		Content *string   `json:"content"`
		Mood    *string   `json:"mood"`
		Tags    *[]string `json:"tags"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if req.Content != nil {
		entry.Content = *req.Content
	}
	if req.Mood != nil {
		entry.Mood = *req.Mood
	}
	if req.Tags != nil {
		entry.Tags = *req.Tags
	}

	if err := h.store.UpdateJournalEntry(r.Context(), entry); err != nil {
		respondError(w, "failed to update journal entry", http.StatusInternalServerError)
		return
	}

	respondJSON(w, entry, http.StatusOK)
}

func (h *JournalHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())
	entryID := chi.URLParam(r, "id")

	if err := h.store.DeleteJournalEntry(r.Context(), userID, entryID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			respondError(w, "journal entry not found", http.StatusNotFound)
			return
		}
		respondError(w, "failed to delete journal entry", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
