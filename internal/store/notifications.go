package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/rigasset/internal/model"
)

// NotifyRoles addresses a notification to every active user holding one of
// the given roles. It returns the number of notifications written; zero
// recipients is not an error.
func NotifyRoles(ctx context.Context, q Queryer, roles []string, p model.NotificationPayload) (int64, error) {
	if len(roles) == 0 {
		return 0, nil
	}

	query, args, err := sqlx.In(
		`INSERT INTO notifications (user_id, type, icon, title, description, entity_type, entity_id)
		 SELECT id, CAST(? AS TEXT), CAST(? AS TEXT), CAST(? AS TEXT), CAST(? AS TEXT), CAST(? AS TEXT), CAST(? AS BIGINT)
		 FROM users WHERE role IN (?) AND deleted_at IS NULL`,
		p.Type, p.Icon, p.Title, p.Description, p.EntityType, p.EntityID, roles,
	)
	if err != nil {
		return 0, fmt.Errorf("building role notification: %w", err)
	}

	result, err := exec(ctx, q, query, args...)
	if err != nil {
		return 0, fmt.Errorf("notifying roles: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("notifying roles: %w", err)
	}
	return n, nil
}

// NotifyAll writes a broadcast notification visible to every user.
func NotifyAll(ctx context.Context, q Queryer, p model.NotificationPayload) error {
	_, err := exec(ctx, q,
		`INSERT INTO notifications (user_id, type, icon, title, description, entity_type, entity_id)
		 VALUES (NULL, ?, ?, ?, ?, ?, ?)`,
		p.Type, p.Icon, p.Title, p.Description, p.EntityType, p.EntityID,
	)
	if err != nil {
		return fmt.Errorf("broadcasting notification: %w", err)
	}
	return nil
}

// ListNotifications returns a user's notifications, including broadcasts,
// newest first.
func ListNotifications(ctx context.Context, q Queryer, userID int64, unreadOnly bool, limit int) ([]model.Notification, error) {
	if limit < 1 {
		limit = model.DefaultPageLimit
	}

	query := `SELECT id, user_id, type, icon, title, description, entity_type, entity_id, is_read, created_at
	          FROM notifications
	          WHERE (user_id = ? OR user_id IS NULL)`
	if unreadOnly {
		query += ` AND is_read = FALSE`
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ?`

	var notifications []model.Notification
	if err := list(ctx, q, &notifications, query, userID, limit); err != nil {
		return nil, fmt.Errorf("listing notifications: %w", err)
	}
	return notifications, nil
}

// MarkNotificationRead marks a single notification as read.
func MarkNotificationRead(ctx context.Context, q Queryer, id, userID int64) error {
	_, err := exec(ctx, q,
		`UPDATE notifications SET is_read = TRUE WHERE id = ? AND (user_id = ? OR user_id IS NULL)`,
		id, userID,
	)
	if err != nil {
		return fmt.Errorf("marking notification read: %w", err)
	}
	return nil
}

// MarkAllNotificationsRead marks every notification visible to a user as read.
func MarkAllNotificationsRead(ctx context.Context, q Queryer, userID int64) (int64, error) {
	result, err := exec(ctx, q,
		`UPDATE notifications SET is_read = TRUE WHERE (user_id = ? OR user_id IS NULL) AND is_read = FALSE`,
		userID,
	)
	if err != nil {
		return 0, fmt.Errorf("marking notifications read: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("marking notifications read: %w", err)
	}
	return n, nil
}

// CountUnreadNotifications returns how many notifications visible to a user
// are unread.
func CountUnreadNotifications(ctx context.Context, q Queryer, userID int64) (int, error) {
	var n int
	err := get(ctx, q, &n,
		`SELECT COUNT(*) FROM notifications WHERE (user_id = ? OR user_id IS NULL) AND is_read = FALSE`,
		userID,
	)
	if err != nil {
		return 0, fmt.Errorf("counting unread notifications: %w", err)
	}
	return n, nil
}

// DeleteNotification removes one notification visible to a user. Deleting a
// broadcast removes it for everyone.
func DeleteNotification(ctx context.Context, q Queryer, id, userID int64) error {
	_, err := exec(ctx, q,
		`DELETE FROM notifications WHERE id = ? AND (user_id = ? OR user_id IS NULL)`,
		id, userID,
	)
	if err != nil {
		return fmt.Errorf("deleting notification: %w", err)
	}
	return nil
}

// ClearReadNotifications removes every read notification visible to a user
// and returns how many were removed.
func ClearReadNotifications(ctx context.Context, q Queryer, userID int64) (int64, error) {
	result, err := exec(ctx, q,
		`DELETE FROM notifications WHERE (user_id = ? OR user_id IS NULL) AND is_read = TRUE`,
		userID,
	)
	if err != nil {
		return 0, fmt.Errorf("clearing notifications: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("clearing notifications: %w", err)
	}
	return n, nil
}
