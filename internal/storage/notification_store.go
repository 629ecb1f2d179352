package storage

import (
	"context"
	"database/sql"
	"time"

	"github.com/daygrid/daygrid/internal/core"
)

// NotificationStore handles notification persistence. Reward-path
// notifications are never physically deleted; the xp rows double as the
// daily-dedupe ledger.
type NotificationStore struct {
	db *DB
}

// NewNotificationStore creates a new notification store
func NewNotificationStore(db *DB) *NotificationStore {
	return &NotificationStore{db: db}
}

// Insert persists a notification
func (s *NotificationStore) Insert(ctx context.Context, n *core.Notification) error {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.conn.ExecContext(ctx, `
		INSERT INTO notifications (
		    id, user_id, type, reason, amount, level,
		    unlocked_theme, unlocked_sticker, actor_id, task_id, task_title,
		    read, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		n.ID, n.UserID, n.Type, n.Reason, n.Amount, n.Level,
		n.UnlockedTheme, n.UnlockedSticker, n.ActorID, n.TaskID, n.TaskTitle,
		n.Read, n.CreatedAt,
	)

	return err
}

// GetByID returns a notification by ID
func (s *NotificationStore) GetByID(ctx context.Context, id core.NotificationID) (*core.Notification, error) {
	row := s.db.conn.QueryRowContext(ctx, `
		SELECT id, user_id, type, reason, amount, level,
		       unlocked_theme, unlocked_sticker, actor_id, task_id, task_title,
		       read, created_at
		FROM notifications WHERE id = ?
	`, id)

	n, err := scanNotification(row)
	if err == sql.ErrNoRows {
		return nil, core.ErrNotificationNotFound
	}
	return n, err
}

// ListByUser returns a user's notifications, newest first
func (s *NotificationStore) ListByUser(ctx context.Context, userID core.UserID, limit int) ([]*core.Notification, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.conn.QueryContext(ctx, `
		SELECT id, user_id, type, reason, amount, level,
		       unlocked_theme, unlocked_sticker, actor_id, task_id, task_title,
		       read, created_at
		FROM notifications WHERE user_id = ?
		ORDER BY created_at DESC LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notifications []*core.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}

	return notifications, rows.Err()
}

// ExistsForUserOnDay reports whether an xp notification with the given
// reason exists for the user on the UTC calendar day containing day.
func (s *NotificationStore) ExistsForUserOnDay(ctx context.Context, userID core.UserID, reason string, day time.Time) (bool, error) {
	day = day.UTC()
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)

	var count int
	err := s.db.conn.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM notifications
		WHERE user_id = ? AND type = ? AND reason = ?
		  AND created_at >= ? AND created_at < ?
	`, userID, core.NotifyXP, reason, start, end).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// MarkRead marks a notification as read
func (s *NotificationStore) MarkRead(ctx context.Context, id core.NotificationID) error {
	res, err := s.db.conn.ExecContext(ctx, `
		UPDATE notifications SET read = TRUE WHERE id = ?
	`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotificationNotFound
	}
	return nil
}

// MarkAllRead marks all of a user's notifications as read
func (s *NotificationStore) MarkAllRead(ctx context.Context, userID core.UserID) error {
	_, err := s.db.conn.ExecContext(ctx, `
		UPDATE notifications SET read = TRUE WHERE user_id = ? AND read = FALSE
	`, userID)
	return err
}

// UnreadCount returns the count of a user's unread notifications
func (s *NotificationStore) UnreadCount(ctx context.Context, userID core.UserID) (int, error) {
	var count int
	err := s.db.conn.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM notifications WHERE user_id = ? AND read = FALSE
	`, userID).Scan(&count)
	return count, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNotification(row rowScanner) (*core.Notification, error) {
	n := &core.Notification{}
	var reason, theme, actorID, taskID, taskTitle sql.NullString

	err := row.Scan(
		&n.ID, &n.UserID, &n.Type, &reason, &n.Amount, &n.Level,
		&theme, &n.UnlockedSticker, &actorID, &taskID, &taskTitle,
		&n.Read, &n.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	n.Reason = reason.String
	n.UnlockedTheme = theme.String
	n.ActorID = core.UserID(actorID.String)
	n.TaskID = core.TaskID(taskID.String)
	n.TaskTitle = taskTitle.String

	return n, nil
}
