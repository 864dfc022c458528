package postgres

import (
	"context"
	"database/sql"
	"errors"

	"clientdocs/internal/model"
	"clientdocs/internal/repository"
)

const notificationColumns = `id, user_id, type, title, message, COALESCE(document_id::text, ''), from_user_id, is_read, created_at`

// NotificationPostgres is a PostgreSQL implementation of repository.NotificationRepository.
type NotificationPostgres struct {
	db *sql.DB
}

// NewNotificationPostgres creates a new NotificationPostgres repository.
func NewNotificationPostgres(db *sql.DB) *NotificationPostgres {
	return &NotificationPostgres{db: db}
}

var _ repository.NotificationRepository = (*NotificationPostgres)(nil)

func scanNotification(row rowScanner) (*model.Notification, error) {
	var (
		n               model.Notification
		typ             string
		docID, fromUser string
	)
	if err := row.Scan(&n.ID, &n.UserID, &typ, &n.Title, &n.Message, &docID, &fromUser, &n.IsRead, &n.CreatedAt); err != nil {
		return nil, err
	}
	n.Type = model.NotificationType(typ)
	n.Document = model.RefTo[model.DocumentSummary](docID)
	n.FromUser = model.RefTo[model.UserSummary](fromUser)
	return &n, nil
}

func (r *NotificationPostgres) Create(ctx context.Context, n *model.Notification) (*model.Notification, error) {
	q := `
		INSERT INTO notifications (id, user_id, type, title, message, document_id, from_user_id, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + notificationColumns
	var docID any
	if n.Document.ID != "" {
		docID = n.Document.ID
	}
	row := r.db.QueryRowContext(ctx, q,
		n.ID,
		n.UserID,
		string(n.Type),
		n.Title,
		n.Message,
		docID,
		n.FromUser.ID,
		n.IsRead,
		n.CreatedAt,
	)
	return scanNotification(row)
}

func (r *NotificationPostgres) FindByID(ctx context.Context, id string) (*model.Notification, error) {
	q := `SELECT ` + notificationColumns + ` FROM notifications WHERE id = $1`
	n, err := scanNotification(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return n, nil
}

// ListByUser returns newest first; ties on created_at are broken by id.
func (r *NotificationPostgres) ListByUser(ctx context.Context, userID string, unreadOnly bool, limit int) ([]model.Notification, error) {
	q := `SELECT ` + notificationColumns + ` FROM notifications WHERE user_id = $1`
	if unreadOnly {
		q += ` AND is_read = FALSE`
	}
	q += ` ORDER BY created_at DESC, id DESC LIMIT $2`

	rows, err := r.db.QueryContext(ctx, q, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Notification, 0)
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *NotificationPostgres) CountUnread(ctx context.Context, userID string) (int, error) {
	const q = `SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND is_read = FALSE`
	var n int
	if err := r.db.QueryRowContext(ctx, q, userID).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (r *NotificationPostgres) MarkRead(ctx context.Context, id string) (*model.Notification, error) {
	q := `UPDATE notifications SET is_read = TRUE WHERE id = $1 RETURNING ` + notificationColumns
	n, err := scanNotification(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return n, nil
}

func (r *NotificationPostgres) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	const q = `UPDATE notifications SET is_read = TRUE WHERE user_id = $1 AND is_read = FALSE`
	res, err := r.db.ExecContext(ctx, q, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
