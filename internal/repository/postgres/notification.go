package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/rpmweb/rpm-api/internal/model"
	"github.com/rpmweb/rpm-api/internal/repository"
)

const notificationColumns = `id, user_id, title, message, type, is_read, related_id, action_url, created_at`

const insertNotification = `
	INSERT INTO notifications (` + notificationColumns + `)
	VALUES (:id, :user_id, :title, :message, :type, :is_read, :related_id, :action_url, :created_at)
`

type notificationRepository struct {
	*BaseRepository
}

func NewNotificationRepository(base *BaseRepository) repository.NotificationRepository {
	return &notificationRepository{BaseRepository: base}
}

func prepareNotification(n *model.Notification, now time.Time) {
	n.ID = uuid.New()
	n.IsRead = false
	n.CreatedAt = now
}

func (r *notificationRepository) Create(ctx context.Context, n *model.Notification) error {
	prepareNotification(n, time.Now().UTC())
	if _, err := r.db.NamedExecContext(ctx, insertNotification, n); err != nil {
		return mapError(err, "create notification")
	}
	return nil
}

func (r *notificationRepository) CreateBulk(ctx context.Context, notifications []*model.Notification) error {
	now := time.Now().UTC()
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		for i, n := range notifications {
			prepareNotification(n, now)
			if _, err := tx.NamedExecContext(ctx, insertNotification, n); err != nil {
				return mapError(err, fmt.Sprintf("insert notification %d", i))
			}
		}
		return nil
	})
}

func (r *notificationRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Notification, error) {
	var n model.Notification
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE id = $1`
	if err := r.db.GetContext(ctx, &n, query, id); err != nil {
		return nil, mapError(err, "get notification")
	}
	return &n, nil
}

func (r *notificationRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*model.Notification, error) {
	notifications := []*model.Notification{}
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE user_id = $1 ORDER BY created_at DESC`
	if err := r.db.SelectContext(ctx, &notifications, query, userID); err != nil {
		return nil, mapError(err, "list notifications")
	}
	return notifications, nil
}

func (r *notificationRepository) ListAll(ctx context.Context) ([]*model.Notification, error) {
	notifications := []*model.Notification{}
	query := `SELECT ` + notificationColumns + ` FROM notifications ORDER BY created_at DESC`
	if err := r.db.SelectContext(ctx, &notifications, query); err != nil {
		return nil, mapError(err, "list all notifications")
	}
	return notifications, nil
}

func (r *notificationRepository) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND is_read = false`
	if err := r.db.GetContext(ctx, &count, query, userID); err != nil {
		return 0, mapError(err, "count unread notifications")
	}
	return count, nil
}

func (r *notificationRepository) SetRead(ctx context.Context, id uuid.UUID, isRead bool) error {
	result, err := r.db.ExecContext(ctx, `UPDATE notifications SET is_read = $1 WHERE id = $2`, isRead, id)
	if err != nil {
		return mapError(err, "update notification")
	}
	return expectRows(result, "update notification")
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = true WHERE user_id = $1 AND is_read = false`, userID)
	if err != nil {
		return 0, mapError(err, "mark notifications read")
	}
	return result.RowsAffected()
}

func (r *notificationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM notifications WHERE id = $1`, id)
	if err != nil {
		return mapError(err, "delete notification")
	}
	return expectRows(result, "delete notification")
}

func (r *notificationRepository) DeleteAll(ctx context.Context, userID uuid.UUID) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM notifications WHERE user_id = $1`, userID)
	if err != nil {
		return 0, mapError(err, "delete notifications")
	}
	return result.RowsAffected()
}
