package store

import (
	"context"
	"time"

	"github.com/krsna-app/krsna/api/domain"
)

const journalColumns = `id, user_id, content, mood, tags, created_at, updated_at`

func (s *Store) CreateJournalEntry(ctx context.Context, entry *domain.JournalEntry) error {
	if entry.Tags == nil {
		entry.Tags = []string{}
	}

	now := time.Now().UTC()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}
	entry.UpdatedAt = now

	query := `
		INSERT INTO journal_entries (id, user_id, content, mood, tags, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := s.conn(ctx).Exec(ctx, query,
		entry.ID, entry.UserID, entry.Content, entry.Mood, entry.Tags,
		entry.CreatedAt, entry.UpdatedAt)
	if err != nil {
		return WrapError("create journal entry", err)
	}
	return nil
}

func (s *Store) GetJournalEntry(ctx context.Context, userID, entryID string) (*domain.JournalEntry, error) {
	query := `
		SELECT ` + journalColumns + `
		FROM journal_entries
		WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL`

	entry := &domain.JournalEntry{}
	err := s.conn(ctx).QueryRow(ctx, query, entryID, userID).Scan(
		&entry.ID, &entry.UserID, &entry.Content, &entry.Mood, &entry.Tags,
		&entry.CreatedAt, &entry.UpdatedAt)
	if err != nil {
		return nil, WrapNotFound("get journal entry", err)
	}
	return entry, nil
}

// ListJournalEntries returns the user's entries newest first, up to limit.
func (s *Store) ListJournalEntries(ctx context.Context, userID string, limit int) ([]*domain.JournalEntry, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT ` + journalColumns + `
		FROM journal_entries
		WHERE user_id = $1 AND deleted_at IS NULL
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := s.conn(ctx).Query(ctx, query, userID, limit)
	if err != nil {
		return nil, WrapError("list journal entries", err)
	}
	defer rows.Close()

	var entries []*domain.JournalEntry
	for rows.Next() {
		entry := &domain.JournalEntry{}
		if err := rows.Scan(
			&entry.ID, &entry.UserID, &entry.Content, &entry.Mood, &entry.Tags,
			&entry.CreatedAt, &entry.UpdatedAt); err != nil {
			return nil, WrapError("scan journal entry", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (s *Store) UpdateJournalEntry(ctx context.Context, entry *domain.JournalEntry) error {
	entry.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE journal_entries
		SET content = $3, mood = $4, tags = $5, updated_at = $6
		WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL`

	tag, err := s.conn(ctx).Exec(ctx, query,
		entry.ID, entry.UserID, entry.Content, entry.Mood, entry.Tags, entry.UpdatedAt)
	if err != nil {
		return WrapError("update journal entry", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteJournalEntry(ctx context.Context, userID, entryID string) error {
	query := `
		UPDATE journal_entries
		SET deleted_at = $3
		WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL`

	tag, err := s.conn(ctx).Exec(ctx, query, entryID, userID, time.Now().UTC())
	if err != nil {
		return WrapError("delete journal entry", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
