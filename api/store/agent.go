package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/krsna-app/krsna/api/domain"
)

// GetAgentConfig returns the user's agent config, falling back to the
// defaults when the user has never customized anything.
func (s *Store) GetAgentConfig(ctx context.Context, userID string) (*domain.AgentConfig, error) {
	query := `
		SELECT user_id, persona, coaching_style, honesty, check_in_interval, max_tool_turns, focus_video_url,
		       last_interaction, created_at, updated_at
		FROM agent_configs
		WHERE user_id = $1`

	cfg := &domain.AgentConfig{}
	err := s.conn(ctx).QueryRow(ctx, query, userID).Scan(
		&cfg.UserID, &cfg.Persona, &cfg.CoachingStyle, &cfg.Honesty,
		&cfg.CheckInInterval, &cfg.MaxToolTurns, &cfg.FocusVideoURL,
		&cfg.LastInteraction, &cfg.CreatedAt, &cfg.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.DefaultAgentConfig(userID), nil
		}
		return nil, WrapError("get agent config", err)
	}
	return cfg, nil
}

// UpsertAgentConfig writes the full config row. Updating the config
// also resets last_interaction so the nudge clock restarts.
func (s *Store) UpsertAgentConfig(ctx context.Context, cfg *domain.AgentConfig) error {
	now := time.Now().UTC()
	if cfg.CreatedAt.IsZero() {
		cfg.CreatedAt = now
	}
	cfg.UpdatedAt = now
	cfg.LastInteraction = now

	query := `
		INSERT INTO agent_configs (user_id, persona, coaching_style, honesty, check_in_interval, max_tool_turns, focus_video_url,
		                           last_interaction, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (user_id) DO UPDATE SET
			persona = EXCLUDED.persona,
			coaching_style = EXCLUDED.coaching_style,
			honesty = EXCLUDED.honesty,
			check_in_interval = EXCLUDED.check_in_interval,
			max_tool_turns = EXCLUDED.max_tool_turns,
			focus_video_url = EXCLUDED.focus_video_url,
			last_interaction = EXCLUDED.last_interaction,
			updated_at = EXCLUDED.updated_at`

	_, err := s.conn(ctx).Exec(ctx, query,
		cfg.UserID, cfg.Persona, cfg.CoachingStyle, cfg.Honesty,
		cfg.CheckInInterval, cfg.MaxToolTurns, cfg.FocusVideoURL,
		cfg.LastInteraction, cfg.CreatedAt, cfg.UpdatedAt)
	if err != nil {
		return WrapError("upsert agent config", err)
	}
	return nil
}

// TouchLastInteraction marks the user as just seen. Creates the default
// config row if none exists yet.
func (s *Store) TouchLastInteraction(ctx context.Context, userID string) error {
	now := time.Now().UTC()

	query := `
		INSERT INTO agent_configs (user_id, persona, coaching_style, honesty, check_in_interval, max_tool_turns, focus_video_url,
		                           last_interaction, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8, $8)
		ON CONFLICT (user_id) DO UPDATE SET
			last_interaction = EXCLUDED.last_interaction,
			updated_at = EXCLUDED.updated_at`

	defaults := domain.DefaultAgentConfig(userID)
	_, err := s.conn(ctx).Exec(ctx, query,
		userID, defaults.Persona, defaults.CoachingStyle, defaults.Honesty,
		defaults.CheckInInterval, defaults.MaxToolTurns, defaults.FocusVideoURL, now)
	if err != nil {
		return WrapError("touch last interaction", err)
	}
	return nil
}

func (s *Store) CreateAgentMemory(ctx context.Context, memory *domain.AgentMemory) error {
	if memory.Kind == "" {
		memory.Kind = domain.MemoryKindFact
	}
	if memory.Importance < 1 {
		memory.Importance = 1
	}
	if memory.Importance > 10 {
		memory.Importance = 10
	}
	if memory.Tags == nil {
		memory.Tags = []string{}
	}
	if memory.CreatedAt.IsZero() {
		memory.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO agent_memories (id, user_id, content, kind, importance, tags, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := s.conn(ctx).Exec(ctx, query,
		memory.ID, memory.UserID, memory.Content, memory.Kind, memory.Importance, memory.Tags, memory.CreatedAt)
	if err != nil {
		return WrapError("create agent memory", err)
	}
	return nil
}

// ListAgentMemories returns the user's memories ranked by importance,
// most important and most recent first, up to limit.
func (s *Store) ListAgentMemories(ctx context.Context, userID string, limit int) ([]*domain.AgentMemory, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, user_id, content, kind, importance, tags, created_at
		FROM agent_memories
		WHERE user_id = $1 AND deleted_at IS NULL
		ORDER BY importance DESC, created_at DESC
		LIMIT $2`

	rows, err := s.conn(ctx).Query(ctx, query, userID, limit)
	if err != nil {
		return nil, WrapError("list agent memories", err)
	}
	defer rows.Close()

	var memories []*domain.AgentMemory
	for rows.Next() {
		memory := &domain.AgentMemory{}
		if err := rows.Scan(
			&memory.ID, &memory.UserID, &memory.Content, &memory.Kind, &memory.Importance,
			&memory.Tags, &memory.CreatedAt); err != nil {
			return nil, WrapError("scan agent memory", err)
		}
		memories = append(memories, memory)
	}
	return memories, rows.Err()
}

func (s *Store) DeleteAgentMemory(ctx context.Context, userID, memoryID string) error {
	query := `
		UPDATE agent_memories
		SET deleted_at = $3
		WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL`

	tag, err := s.conn(ctx).Exec(ctx, query, memoryID, userID, time.Now().UTC())
	if err != nil {
		return WrapError("delete agent memory", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
