package repository

import (
	"context"

	"clientdocs/internal/model"
	"clientdocs/internal/query"
)

// DocumentRepository defines data access for document metadata.
// No business logic here; access decisions are made by the caller. Reference fields
// are returned unresolved (IDs only).
type DocumentRepository interface {
	// Create inserts a new document record and returns the stored row.
	Create(ctx context.Context, doc *model.Document) (*model.Document, error)

	// FindByID returns a document with its shared-with set, or ErrNotFound.
	FindByID(ctx context.Context, id string) (*model.Document, error)

	// List runs spec as a single query, newest upload first.
	List(ctx context.Context, spec query.Spec) ([]model.Document, error)

	// Update writes the metadata fields of doc if the stored version still equals
	// doc.Version, and bumps the version. Returns ErrVersionConflict on a stale
	// version and ErrNotFound when the row is gone.
	Update(ctx context.Context, doc *model.Document) (*model.Document, error)

	// AddShares sets the access level to shared and adds userIDs to the shared-with
	// set in one atomic step. It returns the IDs that were not members before,
	// in the order given. Existing members are never removed.
	AddShares(ctx context.Context, id string, userIDs []string) ([]string, error)

	// Delete removes a document by ID. It returns nil if the row was deleted or did not exist.
	Delete(ctx context.Context, id string) error

	// Summaries returns title and category for the given IDs; unknown IDs are omitted.
	Summaries(ctx context.Context, ids []string) (map[string]model.DocumentSummary, error)
}
