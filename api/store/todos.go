package store

import (
	"context"
	"strings"
	"time"

	"github.com/krsna-app/krsna/api/domain"
)

const todoColumns = `id, user_id, text, completed, priority, due_date, tags, subtasks, created_at, updated_at`

// CreateTodo inserts a new todo for the user.
func (s *Store) CreateTodo(ctx context.Context, todo *domain.Todo) error {
	if todo.Priority == "" {
		todo.Priority = domain.PriorityMedium
	}
	if todo.Tags == nil {
		todo.Tags = []string{}
	}
	if todo.Subtasks == nil {
		todo.Subtasks = []domain.Subtask{}
	}

	now := time.Now().UTC()
	if todo.CreatedAt.IsZero() {
		todo.CreatedAt = now
	}
	todo.UpdatedAt = now

	query := `
		INSERT INTO todos (id, user_id, text, completed, priority, due_date, tags, subtasks, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := s.conn(ctx).Exec(ctx, query,
		todo.ID, todo.UserID, todo.Text, todo.Completed, todo.Priority,
		todo.DueDate, todo.Tags, todo.Subtasks, todo.CreatedAt, todo.UpdatedAt)
	if err != nil {
		return WrapError("create todo", err)
	}
	return nil
}

// GetTodo retrieves a todo owned by the user.
func (s *Store) GetTodo(ctx context.Context, userID, todoID string) (*domain.Todo, error) {
	query := `
		SELECT ` + todoColumns + `
		FROM todos
		WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL`

	todo := &domain.Todo{}
	err := s.conn(ctx).QueryRow(ctx, query, todoID, userID).Scan(
		&todo.ID, &todo.UserID, &todo.Text, &todo.Completed, &todo.Priority,
		&todo.DueDate, &todo.Tags, &todo.Subtasks, &todo.CreatedAt, &todo.UpdatedAt)
	if err != nil {
		return nil, WrapNotFound("get todo", err)
	}
	return todo, nil
}

// ListTodos returns the user's todos matching the filter and optional
// search term. Filter is one of: all, today, pending, completed. A
// search term starting with '#' matches a tag; anything else matches
// the todo text case-insensitively.
func (s *Store) ListTodos(ctx context.Context, userID, filter, search string) ([]*domain.Todo, error) {
	query := `
		SELECT ` + todoColumns + `
		FROM todos
		WHERE user_id = $1 AND deleted_at IS NULL`
	args := []any{userID}

	switch filter {
	case "today":
		query += ` AND completed = FALSE AND due_date::date = CURRENT_DATE`
	case "pending":
		query += ` AND completed = FALSE`
	case "completed":
		query += ` AND completed = TRUE`
	}

	if search != "" {
		if tag, ok := strings.CutPrefix(search, "#"); ok {
			args = append(args, tag)
			query += ` AND $2 = ANY(tags)`
		} else {
			args = append(args, "%"+search+"%")
			query += ` AND text ILIKE $2`
		}
	}

	query += ` ORDER BY completed ASC, created_at DESC`

	rows, err := s.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, WrapError("list todos", err)
	}
	defer rows.Close()

	var todos []*domain.Todo
	for rows.Next() {
		todo := &domain.Todo{}
		if err := rows.Scan(
			&todo.ID, &todo.UserID, &todo.Text, &todo.Completed, &todo.Priority,
			&todo.DueDate, &todo.Tags, &todo.Subtasks, &todo.CreatedAt, &todo.UpdatedAt); err != nil {
			return nil, WrapError("scan todo", err)
		}
		todos = append(todos, todo)
	}
	return todos, rows.Err()
}

// UpdateTodo overwrites the mutable fields of a todo.
func (s *Store) UpdateTodo(ctx context.Context, todo *domain.Todo) error {
	todo.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE todos
		SET text = $3, completed = $4, priority = $5, due_date = $6, tags = $7, subtasks = $8, updated_at = $9
		WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL`

	tag, err := s.conn(ctx).Exec(ctx, query,
		todo.ID, todo.UserID, todo.Text, todo.Completed, todo.Priority,
		todo.DueDate, todo.Tags, todo.Subtasks, todo.UpdatedAt)
	if err != nil {
		return WrapError("update todo", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ToggleTodo flips the completed flag and returns the updated todo.
func (s *Store) ToggleTodo(ctx context.Context, userID, todoID string) (*domain.Todo, error) {
	query := `
		UPDATE todos
		SET completed = NOT completed, updated_at = $3
		WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL
		RETURNING ` + todoColumns

	todo := &domain.Todo{}
	err := s.conn(ctx).QueryRow(ctx, query, todoID, userID, time.Now().UTC()).Scan(
		&todo.ID, &todo.UserID, &todo.Text, &todo.Completed, &todo.Priority,
		&todo.DueDate, &todo.Tags, &todo.Subtasks, &todo.CreatedAt, &todo.UpdatedAt)
	if err != nil {
		return nil, WrapNotFound("toggle todo", err)
	}
	return todo, nil
}

// SetTodoCompleted sets a todo's completion state explicitly, so a
// repeated "mark as done" stays done.
func (s *Store) SetTodoCompleted(ctx context.Context, userID, todoID string, completed bool) (*domain.Todo, error) {
	query := `
		UPDATE todos
		SET completed = $3, updated_at = $4
		WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL
		RETURNING ` + todoColumns

	todo := &domain.Todo{}
	err := s.conn(ctx).QueryRow(ctx, query, todoID, userID, completed, time.Now().UTC()).Scan(
		&todo.ID, &todo.UserID, &todo.Text, &todo.Completed, &todo.Priority,
		&todo.DueDate, &todo.Tags, &todo.Subtasks, &todo.CreatedAt, &todo.UpdatedAt)
	if err != nil {
		return nil, WrapNotFound("set todo completed", err)
	}
	return todo, nil
}

// DeleteTodo soft-deletes a todo.
func (s *Store) DeleteTodo(ctx context.Context, userID, todoID string) error {
	query := `
		UPDATE todos
		SET deleted_at = $3
		WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL`

	tag, err := s.conn(ctx).Exec(ctx, query, todoID, userID, time.Now().UTC())
	if err != nil {
		return WrapError("delete todo", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
