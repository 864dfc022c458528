// Package cache holds the unread-notification counter cache. The notification
// table stays the source of truth; a miss or a cache error falls through to it.
package cache

import (
	"context"
	"errors"
)

var (
	// ErrMiss is returned by Get when no count is cached for the user.
	ErrMiss = errors.New("cache miss")
	// ErrStale is returned by Set when the user was invalidated after the
	// generation was read; the count was not stored.
	ErrStale = errors.New("cache generation changed")
)

// UnreadCounter caches per-user unread notification counts.
//
// A count computed from the repository is stored with the generation read before
// counting. Invalidate advances the generation, so a count that raced with an
// invalidation is refused instead of being cached until the TTL expires.
type UnreadCounter interface {
	Get(ctx context.Context, userID string) (int, error)
	Generation(ctx context.Context, userID string) (int64, error)
	Set(ctx context.Context, userID string, generation int64, count int) error
	// Invalidate drops the cached counts of the given users.
	Invalidate(ctx context.Context, userIDs ...string) error
}

// Noop never caches anything. It is used when REDIS_URL is unset.
type Noop struct{}

func (Noop) Get(context.Context, string) (int, error)          { return 0, ErrMiss }
func (Noop) Generation(context.Context, string) (int64, error) { return 0, nil }
func (Noop) Set(context.Context, string, int64, int) error     { return nil }
func (Noop) Invalidate(context.Context, ...string) error       { return nil }
