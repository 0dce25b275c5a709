package store

import (
	"context"
	"time"

	"github.com/krsna-app/krsna/api/domain"
)

const goalColumns = `id, user_id, title, description, target_date, progress, milestones, created_at, updated_at`

func (s *Store) CreateGoal(ctx context.Context, goal *domain.Goal) error {
	if goal.Milestones == nil {
		goal.Milestones = []domain.Milestone{}
	}

	now := time.Now().UTC()
	if goal.CreatedAt.IsZero() {
		goal.CreatedAt = now
	}
	goal.UpdatedAt = now

	query := `
		INSERT INTO goals (id, user_id, title, description, target_date, progress, milestones, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := s.conn(ctx).Exec(ctx, query,
		goal.ID, goal.UserID, goal.Title, goal.Description, goal.TargetDate,
		goal.Progress, goal.Milestones, goal.CreatedAt, goal.UpdatedAt)
	if err != nil {
		return WrapError("create goal", err)
	}
	return nil
}

func (s *Store) ListGoals(ctx context.Context, userID string) ([]*domain.Goal, error) {
	query := `
		SELECT ` + goalColumns + `
		FROM goals
		WHERE user_id = $1 AND deleted_at IS NULL
		ORDER BY created_at ASC`

	rows, err := s.conn(ctx).Query(ctx, query, userID)
	if err != nil {
		return nil, WrapError("list goals", err)
	}
	defer rows.Close()

	var goals []*domain.Goal
	for rows.Next() {
		goal := &domain.Goal{}
		if err := rows.Scan(
			&goal.ID, &goal.UserID, &goal.Title, &goal.Description, &goal.TargetDate,
			&goal.Progress, &goal.Milestones, &goal.CreatedAt, &goal.UpdatedAt); err != nil {
			return nil, WrapError("scan goal", err)
		}
		goals = append(goals, goal)
	}
	return goals, rows.Err()
}

func (s *Store) UpdateGoal(ctx context.Context, goal *domain.Goal) error {
	goal.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE goals
		SET title = $3, description = $4, target_date = $5, progress = $6, milestones = $7, updated_at = $8
		WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL`

	tag, err := s.conn(ctx).Exec(ctx, query,
		goal.ID, goal.UserID, goal.Title, goal.Description, goal.TargetDate,
		goal.Progress, goal.Milestones, goal.UpdatedAt)
	if err != nil {
		return WrapError("update goal", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteGoal(ctx context.Context, userID, goalID string) error {
	query := `
		UPDATE goals
		SET deleted_at = $3
		WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL`

	tag, err := s.conn(ctx).Exec(ctx, query, goalID, userID, time.Now().UTC())
	if err != nil {
		return WrapError("delete goal", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
