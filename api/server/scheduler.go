package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/krsna-app/krsna/api/domain"
	"github.com/krsna-app/krsna/api/nudge"
	"github.com/krsna-app/krsna/api/store"
	"github.com/krsna-app/krsna/pkg/metrics"
	"github.com/krsna-app/krsna/shared/protocol"
)

// ambientMaxAge bounds how stale a client report may be before its user
// is considered gone and skipped by the sweep.
const ambientMaxAge = 2 * time.Minute

// Scheduler periodically evaluates the nudge rules against every
// user with a live ambient report and pushes the resulting nudges
// over the hub.
type Scheduler struct {
	hub      *Hub
	store    *store.Store
	interval time.Duration
}

func NewScheduler(hub *Hub, s *store.Store, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &Scheduler{hub: hub, store: s, interval: interval}
}

// Run blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	slog.Info("nudge scheduler started", "interval", s.interval)
	for {
		select {
		case <-ctx.Done():
			slog.Info("nudge scheduler stopped")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Scheduler) sweep(ctx context.Context) {
	states := s.hub.AmbientStates(ambientMaxAge)
	now := time.Now()

	for userID, state := range states {
		cfg, err := s.store.GetAgentConfig(ctx, userID)
		if err != nil {
			slog.ErrorContext(ctx, "nudge sweep: get config", "error", err, "user_id", userID)
			continue
		}

		decision := nudge.Evaluate(cfg, state, now)
		if decision == nil {
			continue
		}
		s.Deliver(ctx, userID, decision)
	}
}

// Deliver persists a nudge to history, resets the idle clock, and
// pushes the nudge to the user's clients. Returns the nudge's message
// id.
func (s *Scheduler) Deliver(ctx context.Context, userID string, decision *nudge.Decision) string {
	nudgeID := store.NewNudgeID()

	msg := &domain.ChatMessage{
		ID:      nudgeID,
		UserID:  userID,
		Role:    domain.RoleAssistant,
		Content: decision.Content,
		MsgType: domain.MsgTypeNudge,
		Payload: map[string]any{"nudgeType": decision.Type},
		Status:  domain.MessageStatusCompleted,
	}
	if err := s.store.CreateChatMessage(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "nudge deliver: persist", "error", err, "user_id", userID)
		return ""
	}

	// Firing counts as an interaction, otherwise the same rule
	// re-fires on the next sweep.
	if err := s.store.TouchLastInteraction(ctx, userID); err != nil {
		slog.ErrorContext(ctx, "nudge deliver: touch last interaction", "error", err, "user_id", userID)
	}

	s.hub.BroadcastEnvelope(userID, protocol.TypeNudge, &protocol.Nudge{
		ID:        nudgeID,
		Content:   decision.Content,
		Type:      decision.Type,
		ForceOpen: decision.ForceOpen,
	})
	metrics.NudgesTotal.WithLabelValues(decision.Type).Inc()
	slog.InfoContext(ctx, "nudge delivered", "user_id", userID, "type", decision.Type)
	return nudgeID
}
