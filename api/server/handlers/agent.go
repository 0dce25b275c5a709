package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/krsna-app/krsna/api/domain"
	"github.com/krsna-app/krsna/api/nudge"
	"github.com/krsna-app/krsna/api/store"
)

// NudgeDeliverer persists a fired nudge and pushes it to the user's
// clients. Implemented by the server's nudge scheduler.
type NudgeDeliverer interface {
	Deliver(ctx context.Context, userID string, decision *nudge.Decision) string
}

type AgentHandler struct {
	store     *store.Store
	deliverer NudgeDeliverer
}

func NewAgentHandler(s *store.Store, deliverer NudgeDeliverer) *AgentHandler {
	return &AgentHandler{store: s, deliverer: deliverer}
}

func (h *AgentHandler) GetConfig(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())

	cfg, err := h.store.GetAgentConfig(r.Context(), userID)
	if err != nil {
		respondError(w, "failed to get agent config", http.StatusInternalServerError)
		return
	}

	respondJSON(w, cfg, http.StatusOK)
}

// UpdateConfig handles PUT /agent/config. Partial updates merge into the
// current config; a successful update restarts the nudge idle clock.
func (h *AgentHandler) UpdateConfig(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())

	cfg, err := h.store.GetAgentConfig(r.Context(), userID)
	if err != nil {
		respondError(w, "failed to get agent config", http.StatusInternalServerError)
		return
	}

	var req struct {
		Persona         *string  `json:"persona"`
		CoachingStyle   *string  `json:"coaching_style"`
		Honesty         *int     `json:"honesty"`
		CheckInInterval *float64 `json:"check_in_interval"`
		MaxToolTurns    *int     `json:"max_tool_turns"`
		FocusVideoURL   *string  `json:"focus_video_url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if req.Persona != nil {
		if !domain.ValidPersona(*req.Persona) {
			respondError(w, "invalid persona", http.StatusBadRequest)
			return
		}
		cfg.Persona = *req.Persona
	}
	if req.CoachingStyle != nil {
		if !domain.ValidCoachingStyle(*req.CoachingStyle) {
			respondError(w, "invalid coaching style", http.StatusBadRequest)
			return
		}
		cfg.CoachingStyle = *req.CoachingStyle
	}
	if req.Honesty != nil {
		if *req.Honesty < 0 || *req.Honesty > 100 {
			respondError(w, "honesty must be between 0 and 100", http.StatusBadRequest)
			return
		}
		cfg.Honesty = *req.Honesty
	}
	if req.CheckInInterval != nil {
		cfg.CheckInInterval = *req.CheckInInterval
	}
	if req.MaxToolTurns != nil {
		cfg.MaxToolTurns = *req.MaxToolTurns
	}
	if req.FocusVideoURL != nil {
		cfg.FocusVideoURL = *req.FocusVideoURL
	}

	if err := h.store.UpsertAgentConfig(r.Context(), cfg); err != nil {
		respondError(w, "failed to update agent config", http.StatusInternalServerError)
		return
	}

	respondJSON(w, cfg, http.StatusOK)
}

func (h *AgentHandler) ListMemories(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())
	limit := parseIntQuery(r, "limit", 20)

	memories, err := h.store.ListAgentMemories(r.Context(), userID, limit)
	if err != nil {
		respondError(w, "failed to list memories", http.StatusInternalServerError)
		return
	}
	if memories == nil {
		memories = []*domain.AgentMemory{}
	}

	respondJSON(w, map[string]any{"memories": memories}, http.StatusOK)
}

func (h *AgentHandler) CreateMemory(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())

	var req struct {
		Content    string   `json:"content"`
		Type       string   `json:"type"`
		Importance int      `json:"importance"`
		Tags       []string `json:"tags"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Content == "" {
		respondError(w, "content is required", http.StatusBadRequest)
		return
	}

	memory := &domain.AgentMemory{
		ID:         store.NewMemoryID(),
		UserID:     userID,
		Content:    req.Content,
		Kind:       req.Type,
		Importance: req.Importance,
		Tags:       req.Tags,
	}
	if err := h.store.CreateAgentMemory(r.Context(), memory); err != nil {
		respondError(w, "failed to create memory", http.StatusInternalServerError)
		return
	}

	respondJSON(w, memory, http.StatusCreated)
}

func (h *AgentHandler) DeleteMemory(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())
	memoryID := chi.URLParam(r, "id")

	if err := h.store.DeleteAgentMemory(r.Context(), userID, memoryID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			respondError(w, "memory not found", http.StatusNotFound)
			return
		}
		respondError(w, "failed to delete memory", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *AgentHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())
	limit := parseIntQuery(r, "limit", 50)

	messages, err := h.store.ListRecentMessages(r.Context(), userID, limit)
	if err != nil {
		respondError(w, "failed to list messages", http.StatusInternalServerError)
		return
	}
	if messages == nil {
		messages = []*domain.ChatMessage{}
	}

	respondJSON(w, map[string]any{"messages": messages}, http.StatusOK)
}

func (h *AgentHandler) ClearMessages(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())

	if err := h.store.ClearMessages(r.Context(), userID); err != nil {
		respondError(w, "failed to clear messages", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// CheckNudge handles POST /agent/nudge: the polling fallback for
// clients without a websocket. The client reports its ambient state and
// gets back either a nudge or null.
func (h *AgentHandler) CheckNudge(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())

	var req struct {
		CurrentState struct {
			CurrentPage  string `json:"currentPage"`
			IsDoomscroll bool   `json:"isDoomscrolling"`
			Timer        struct {
				IsActive bool   `json:"isActive"`
				TaskName string `json:"taskName"`
			} `json:"timer"`
		} `json:"currentState"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	cfg, err := h.store.GetAgentConfig(r.Context(), userID)
	if err != nil {
		respondError(w, "failed to get agent config", http.StatusInternalServerError)
		return
	}

	state := nudge.State{
		CurrentPage:  req.CurrentState.CurrentPage,
		TimerActive:  req.CurrentState.Timer.IsActive,
		TimerTask:    req.CurrentState.Timer.TaskName,
		IsDoomscroll: req.CurrentState.IsDoomscroll,
	}

	decision := nudge.Evaluate(cfg, state, time.Now())
	if decision == nil {
		respondJSON(w, map[string]any{"nudge": nil}, http.StatusOK)
		return
	}

	var nudgeID string
	if h.deliverer != nil {
		nudgeID = h.deliverer.Deliver(r.Context(), userID, decision)
	}

	respondJSON(w, map[string]any{"nudge": map[string]any{
		"id":        nudgeID,
		"content":   decision.Content,
		"type":      decision.Type,
		"forceOpen": decision.ForceOpen,
	}}, http.StatusOK)
}
