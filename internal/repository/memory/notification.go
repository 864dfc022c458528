package memory

import (
	"context"
	"sort"
	"sync"

	"clientdocs/internal/model"
	"clientdocs/internal/repository"
)

// Notifications is an in-memory repository.NotificationRepository.
type Notifications struct {
	mu    sync.RWMutex
	items map[string]*model.Notification
}

// NewNotifications returns an empty notification store.
func NewNotifications() *Notifications {
	return &Notifications{items: make(map[string]*model.Notification)}
}

var _ repository.NotificationRepository = (*Notifications)(nil)

func cloneNotification(n *model.Notification) *model.Notification {
	out := *n
	out.Document = model.RefTo[model.DocumentSummary](n.Document.ID)
	out.FromUser = model.RefTo[model.UserSummary](n.FromUser.ID)
	return &out
}

func (s *Notifications) Create(_ context.Context, n *model.Notification) (*model.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := cloneNotification(n)
	s.items[stored.ID] = stored
	return cloneNotification(stored), nil
}

func (s *Notifications) FindByID(_ context.Context, id string) (*model.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneNotification(n), nil
}

func (s *Notifications) ListByUser(_ context.Context, userID string, unreadOnly bool, limit int) ([]model.Notification, error) {
	s.mu.RLock()
	items := make([]model.Notification, 0)
	for _, n := range s.items {
		if n.UserID != userID || (unreadOnly && n.IsRead) {
			continue
		}
		items = append(items, *cloneNotification(n))
	}
	s.mu.RUnlock()

	sort.Slice(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.After(items[j].CreatedAt)
		}
		return items[i].ID > items[j].ID
	})
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *Notifications) CountUnread(_ context.Context, userID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, n := range s.items {
		if n.UserID == userID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (s *Notifications) MarkRead(_ context.Context, id string) (*model.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	n.IsRead = true
	return cloneNotification(n), nil
}

func (s *Notifications) MarkAllRead(_ context.Context, userID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var changed int64
	for _, n := range s.items {
		if n.UserID == userID && !n.IsRead {
			n.IsRead = true
			changed++
		}
	}
	return changed, nil
}
