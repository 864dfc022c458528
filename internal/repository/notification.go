package repository

import (
	"context"

	"clientdocs/internal/model"
)

// NotificationRepository persists notifications. Reference fields are returned unresolved.
type NotificationRepository interface {
	Create(ctx context.Context, n *model.Notification) (*model.Notification, error)

	// FindByID returns a notification or ErrNotFound.
	FindByID(ctx context.Context, id string) (*model.Notification, error)

	// ListByUser returns the newest notifications of userID, at most limit rows.
	ListByUser(ctx context.Context, userID string, unreadOnly bool, limit int) ([]model.Notification, error)

	CountUnread(ctx context.Context, userID string) (int, error)

	// MarkRead flags one notification as read and returns it, or ErrNotFound.
	MarkRead(ctx context.Context, id string) (*model.Notification, error)

	// MarkAllRead flags every unread notification of userID and returns how many changed.
	MarkAllRead(ctx context.Context, userID string) (int64, error)
}
