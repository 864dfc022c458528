package repository

import (
	"context"

	"clientdocs/internal/model"
)

// UserDirectory reads principal display fields. Users are owned by the identity provider.
type UserDirectory interface {
	// FindByIDs returns the users that exist among ids, keyed by ID.
	FindByIDs(ctx context.Context, ids []string) (map[string]model.UserSummary, error)
}

// ClientDirectory reads client records. Clients are owned by the client CRUD service.
type ClientDirectory interface {
	// FindByID returns a client or ErrNotFound.
	FindByID(ctx context.Context, id string) (*model.Client, error)

	// FindByIDs returns the clients that exist among ids, keyed by ID.
	FindByIDs(ctx context.Context, ids []string) (map[string]model.ClientSummary, error)
}
