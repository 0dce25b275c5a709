package store

import (
	"context"
	"time"

	"github.com/krsna-app/krsna/api/domain"
)

func (s *Store) CreateTracker(ctx context.Context, tracker *domain.Tracker) error {
	if tracker.CreatedAt.IsZero() {
		tracker.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO trackers (id, user_id, name, unit, target, color, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := s.conn(ctx).Exec(ctx, query,
		tracker.ID, tracker.UserID, tracker.Name, tracker.Unit, tracker.Target,
		tracker.Color, tracker.CreatedAt)
	if err != nil {
		return WrapError("create tracker", err)
	}
	return nil
}

// ListTrackers returns the user's trackers with logs from the last
// logDays days attached, newest log first. logDays <= 0 skips logs.
func (s *Store) ListTrackers(ctx context.Context, userID string, logDays int) ([]*domain.Tracker, error) {
	query := `
		SELECT id, user_id, name, unit, target, color, created_at
		FROM trackers
		WHERE user_id = $1 AND deleted_at IS NULL
		ORDER BY created_at ASC`

	rows, err := s.conn(ctx).Query(ctx, query, userID)
	if err != nil {
		return nil, WrapError("list trackers", err)
	}
	defer rows.Close()

	var trackers []*domain.Tracker
	for rows.Next() {
		tracker := &domain.Tracker{}
		if err := rows.Scan(
			&tracker.ID, &tracker.UserID, &tracker.Name, &tracker.Unit,
			&tracker.Target, &tracker.Color, &tracker.CreatedAt); err != nil {
			return nil, WrapError("scan tracker", err)
		}
		trackers = append(trackers, tracker)
	}
	if err := rows.Err(); err != nil {
		return nil, WrapError("list trackers", err)
	}

	if logDays <= 0 {
		return trackers, nil
	}
	for _, tracker := range trackers {
		logs, err := s.ListTrackerLogs(ctx, tracker.ID, logDays)
		if err != nil {
			return nil, err
		}
		tracker.Logs = logs
	}
	return trackers, nil
}

// ListTrackerLogs returns a tracker's logs from the last sinceDays days,
// newest first.
func (s *Store) ListTrackerLogs(ctx context.Context, trackerID string, sinceDays int) ([]domain.TrackerLog, error) {
	query := `
		SELECT id, tracker_id, date, value, created_at
		FROM tracker_logs
		WHERE tracker_id = $1 AND date >= (CURRENT_DATE - $2::int)::text
		ORDER BY date DESC`

	rows, err := s.conn(ctx).Query(ctx, query, trackerID, sinceDays)
	if err != nil {
		return nil, WrapError("list tracker logs", err)
	}
	defer rows.Close()

	var logs []domain.TrackerLog
	for rows.Next() {
		var log domain.TrackerLog
		if err := rows.Scan(&log.ID, &log.TrackerID, &log.Date, &log.Value, &log.CreatedAt); err != nil {
			return nil, WrapError("scan tracker log", err)
		}
		logs = append(logs, log)
	}
	return logs, rows.Err()
}

// LogTracker records a value for a tracker on a given date. Logging
// twice on the same date accumulates.
func (s *Store) LogTracker(ctx context.Context, log *domain.TrackerLog) error {
	if log.Date == "" {
		log.Date = time.Now().UTC().Format("2006-01-02")
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO tracker_logs (id, tracker_id, date, value, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (tracker_id, date) DO UPDATE SET
			value = tracker_logs.value + EXCLUDED.value`

	_, err := s.conn(ctx).Exec(ctx, query,
		log.ID, log.TrackerID, log.Date, log.Value, log.CreatedAt)
	if err != nil {
		return WrapError("log tracker", err)
	}
	return nil
}

func (s *Store) DeleteTracker(ctx context.Context, userID, trackerID string) error {
	query := `
		UPDATE trackers
		SET deleted_at = $3
		WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL`

	tag, err := s.conn(ctx).Exec(ctx, query, trackerID, userID, time.Now().UTC())
	if err != nil {
		return WrapError("delete tracker", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Streak returns the number of consecutive days ending today (or
// yesterday) with a log for the tracker.
func Streak(logs []domain.TrackerLog, today time.Time) int {
	dates := make(map[string]bool, len(logs))
	for _, log := range logs {
		dates[log.Date] = true
	}

	day := today.UTC()
	if !dates[day.Format("2006-01-02")] {
		day = day.AddDate(0, 0, -1)
	}

	streak := 0
	for dates[day.Format("2006-01-02")] {
		streak++
		day = day.AddDate(0, 0, -1)
	}
	return streak
}
