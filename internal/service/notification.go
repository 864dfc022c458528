package service

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"clientdocs/internal/apperror"
	"clientdocs/internal/cache"
	"clientdocs/internal/model"
	"clientdocs/internal/repository"
)

// NotificationService serves a principal's notifications. Only the recipient may
// read or mark a notification.
type NotificationService interface {
	Notifier

	// List returns the newest notifications of the principal, up to the configured cap.
	List(ctx context.Context, principalID string, unreadOnly bool) ([]model.Notification, error)

	// UnreadCount returns how many notifications of the principal are unread.
	UnreadCount(ctx context.Context, principalID string) (int, error)

	// MarkRead marks one notification as read.
	MarkRead(ctx context.Context, principalID, id string) (*model.Notification, error)

	// MarkAllRead marks every unread notification of the principal and returns how many changed.
	MarkAllRead(ctx context.Context, principalID string) (int64, error)
}

// NotificationDeps are the collaborators of the notification service.
type NotificationDeps struct {
	Notifications repository.NotificationRepository
	Documents     repository.DocumentRepository
	Users         repository.UserDirectory
	Counter       cache.UnreadCounter
	Logger        *zap.Logger
}

type notificationService struct {
	repo    repository.NotificationRepository
	counter cache.UnreadCounter
	resolve resolver
	log     *zap.Logger
	limit   int
}

// NewNotificationService constructs a new NotificationService. limit caps List.
func NewNotificationService(deps NotificationDeps, limit int) NotificationService {
	if limit <= 0 {
		limit = 50
	}
	counter := deps.Counter
	if counter == nil {
		counter = cache.Noop{}
	}
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &notificationService{
		repo:    deps.Notifications,
		counter: counter,
		resolve: resolver{users: deps.Users, docs: deps.Documents},
		log:     log,
		limit:   limit,
	}
}

func (s *notificationService) Notify(ctx context.Context, n *model.Notification) (_ *model.Notification, err error) {
	ctx, span := startSpan(ctx, "NotificationService.Notify", attribute.String("recipient.id", n.UserID))
	defer func() { finishSpan(span, err) }()

	created, err := s.repo.Create(ctx, n)
	if err != nil {
		return nil, apperror.Dependency("failed to create notification", err)
	}
	s.invalidate(ctx, n.UserID)
	return created, nil
}

func (s *notificationService) List(ctx context.Context, principalID string, unreadOnly bool) (_ []model.Notification, err error) {
	ctx, span := startSpan(ctx, "NotificationService.List", attribute.Bool("unread_only", unreadOnly))
	defer func() { finishSpan(span, err) }()

	items, err := s.repo.ListByUser(ctx, principalID, unreadOnly, s.limit)
	if err != nil {
		return nil, apperror.Dependency("failed to list notifications", err)
	}
	if err := s.resolve.notifications(ctx, items); err != nil {
		return nil, err
	}
	return items, nil
}

// UnreadCount reads through the cache; cache errors fall back to the repository.
func (s *notificationService) UnreadCount(ctx context.Context, principalID string) (_ int, err error) {
	ctx, span := startSpan(ctx, "NotificationService.UnreadCount")
	defer func() { finishSpan(span, err) }()

	n, err := s.counter.Get(ctx, principalID)
	if err == nil {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return n, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		s.log.Warn("unread count cache read failed", zap.String("user_id", principalID), zap.Error(err))
	}

	// The generation is read before counting so that a Notify landing in between
	// makes the write below a no-op.
	gen, genErr := s.counter.Generation(ctx, principalID)

	n, err = s.repo.CountUnread(ctx, principalID)
	if err != nil {
		return 0, apperror.Dependency("failed to count notifications", err)
	}
	if genErr != nil {
		s.log.Warn("unread count cache read failed", zap.String("user_id", principalID), zap.Error(genErr))
		return n, nil
	}
	switch err := s.counter.Set(ctx, principalID, gen, n); {
	case err == nil:
	case errors.Is(err, cache.ErrStale):
		s.log.Debug("unread count changed while counting, not cached", zap.String("user_id", principalID))
	default:
		s.log.Warn("unread count cache write failed", zap.String("user_id", principalID), zap.Error(err))
	}
	return n, nil
}

func (s *notificationService) MarkRead(ctx context.Context, principalID, id string) (_ *model.Notification, err error) {
	ctx, span := startSpan(ctx, "NotificationService.MarkRead", attribute.String("notification.id", id))
	defer func() { finishSpan(span, err) }()

	id, err = canonicalID("id", id, "invalid notification ID format")
	if err != nil {
		return nil, err
	}
	n, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, repoError(err, "notification not found")
	}
	if n.UserID != principalID {
		return nil, apperror.Forbidden("not authorized to update this notification")
	}

	updated, err := s.repo.MarkRead(ctx, id)
	if err != nil {
		return nil, repoError(err, "notification not found")
	}
	s.invalidate(ctx, principalID)

	items := []model.Notification{*updated}
	if err := s.resolve.notifications(ctx, items); err != nil {
		return nil, err
	}
	return &items[0], nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, principalID string) (_ int64, err error) {
	ctx, span := startSpan(ctx, "NotificationService.MarkAllRead")
	defer func() { finishSpan(span, err) }()

	changed, err := s.repo.MarkAllRead(ctx, principalID)
	if err != nil {
		return 0, apperror.Dependency("failed to update notifications", err)
	}
	s.invalidate(ctx, principalID)
	return changed, nil
}

func (s *notificationService) invalidate(ctx context.Context, userID string) {
	if err := s.counter.Invalidate(ctx, userID); err != nil {
		s.log.Warn("unread count cache invalidate failed", zap.String("user_id", userID), zap.Error(err))
	}
}
