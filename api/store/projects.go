package store

import (
	"context"
	"time"

	"github.com/krsna-app/krsna/api/domain"
)

func (s *Store) CreateProject(ctx context.Context, project *domain.Project) error {
	if project.Status == "" {
		project.Status = domain.ProjectStatusActive
	}

	now := time.Now().UTC()
	if project.CreatedAt.IsZero() {
		project.CreatedAt = now
	}
	project.UpdatedAt = now

	query := `
		INSERT INTO projects (id, user_id, name, description, status, progress, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := s.conn(ctx).Exec(ctx, query,
		project.ID, project.UserID, project.Name, project.Description,
		project.Status, project.Progress, project.CreatedAt, project.UpdatedAt)
	if err != nil {
		return WrapError("create project", err)
	}
	return nil
}

func (s *Store) ListProjects(ctx context.Context, userID string) ([]*domain.Project, error) {
	query := `
		SELECT id, user_id, name, description, status, progress, created_at, updated_at
		FROM projects
		WHERE user_id = $1 AND deleted_at IS NULL
		ORDER BY created_at ASC`

	rows, err := s.conn(ctx).Query(ctx, query, userID)
	if err != nil {
		return nil, WrapError("list projects", err)
	}
	defer rows.Close()

	var projects []*domain.Project
	for rows.Next() {
		project := &domain.Project{}
		if err := rows.Scan(
			&project.ID, &project.UserID, &project.Name, &project.Description,
			&project.Status, &project.Progress, &project.CreatedAt, &project.UpdatedAt); err != nil {
			return nil, WrapError("scan project", err)
		}
		projects = append(projects, project)
	}
	return projects, rows.Err()
}

func (s *Store) UpdateProject(ctx context.Context, project *domain.Project) error {
	project.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE projects
		SET name = $3, description = $4, status = $5, progress = $6, updated_at = $7
		WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL`

	tag, err := s.conn(ctx).Exec(ctx, query,
		project.ID, project.UserID, project.Name, project.Description,
		project.Status, project.Progress, project.UpdatedAt)
	if err != nil {
		return WrapError("update project", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteProject(ctx context.Context, userID, projectID string) error {
	query := `
		UPDATE projects
		SET deleted_at = $3
		WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL`

	tag, err := s.conn(ctx).Exec(ctx, query, projectID, userID, time.Now().UTC())
	if err != nil {
		return WrapError("delete project", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
