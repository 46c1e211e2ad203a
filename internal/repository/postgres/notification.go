package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/showcase-api/internal/model"
	"github.com/jwalitptl/showcase-api/internal/repository"
)

const notificationColumns = `id, user_id, type, title, message, related_type, related_id, is_read, created_at`

// notificationRow is the flat column layout of a notification.
type notificationRow struct {
	ID          uuid.UUID  `db:"id"`
	UserID      uuid.UUID  `db:"user_id"`
	Type        string     `db:"type"`
	Title       string     `db:"title"`
	Message     *string    `db:"message"`
	RelatedType *string    `db:"related_type"`
	RelatedID   *uuid.UUID `db:"related_id"`
	IsRead      bool       `db:"is_read"`
	CreatedAt   time.Time  `db:"created_at"`
}

func (row *notificationRow) toModel() (*model.Notification, error) {
	related, err := model.ParseRelatedRef(row.RelatedType, row.RelatedID)
	if err != nil {
		return nil, fmt.Errorf("notification %s: %w", row.ID, err)
	}
	return &model.Notification{
		ID:        row.ID,
		UserID:    row.UserID,
		Type:      model.NotificationType(row.Type),
		Title:     row.Title,
		Message:   row.Message,
		Related:   related,
		IsRead:    row.IsRead,
		CreatedAt: row.CreatedAt,
	}, nil
}

type notificationRepository struct {
	BaseRepository
}

func NewNotificationRepository(base BaseRepository) repository.NotificationRepository {
	return &notificationRepository{base}
}

func (r *notificationRepository) Create(ctx context.Context, n *model.Notification) error {
	query := `
		INSERT INTO notifications (
			id, user_id, type, title, message, related_type, related_id, is_read, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}

	var (
		relatedType *string
		relatedID   *uuid.UUID
	)
	if n.Related != nil {
		kind := string(n.Related.Kind)
		id := n.Related.ID
		relatedType, relatedID = &kind, &id
	}

	_, err := r.db.ExecContext(ctx, query,
		n.ID,
		n.UserID,
		n.Type,
		n.Title,
		n.Message,
		relatedType,
		relatedID,
		n.IsRead,
		n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

func (r *notificationRepository) Get(ctx context.Context, userID, id uuid.UUID) (*model.Notification, error) {
	var row notificationRow
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE id = $1 AND user_id = $2`
	if err := r.get(ctx, &row, query, id, userID); err != nil {
		return nil, err
	}
	return row.toModel()
}

func (r *notificationRepository) List(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit int) ([]*model.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE user_id = $1`
	if unreadOnly {
		query += ` AND is_read = FALSE`
	}
	query += ` ORDER BY created_at DESC, id LIMIT $2`

	var rows []notificationRow
	if err := sqlx.SelectContext(ctx, r.db, &rows, query, userID, limit); err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}

	out := make([]*model.Notification, 0, len(rows))
	for i := range rows {
		n, err := rows[i].toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

func (r *notificationRepository) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	var n int
	err := sqlx.GetContext(ctx, r.db, &n,
		`SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND is_read = FALSE`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return n, nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	return r.execOne(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE id = $1 AND user_id = $2`, id, userID)
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE user_id = $1 AND is_read = FALSE`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return res.RowsAffected()
}

func (r *notificationRepository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	return r.execOne(ctx, `DELETE FROM notifications WHERE id = $1 AND user_id = $2`, id, userID)
}
