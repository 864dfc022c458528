package service

import (
	"context"

	"clientdocs/internal/apperror"
	"clientdocs/internal/model"
	"clientdocs/internal/repository"
)

// resolver fills the display side of reference fields in batch. References whose
// target no longer exists stay unresolved and render as {"id": ...}.
type resolver struct {
	users   repository.UserDirectory
	clients repository.ClientDirectory
	docs    repository.DocumentRepository
}

func (r resolver) documents(ctx context.Context, docs []model.Document) error {
	if len(docs) == 0 {
		return nil
	}
	var userIDs, clientIDs []string
	for i := range docs {
		userIDs = append(userIDs, docs[i].CreatedBy.ID)
		userIDs = append(userIDs, docs[i].SharedWithIDs()...)
		clientIDs = append(clientIDs, docs[i].Client.ID)
	}

	users, err := r.users.FindByIDs(ctx, unique(userIDs))
	if err != nil {
		return apperror.Dependency("failed to load users", err)
	}
	clients, err := r.clients.FindByIDs(ctx, unique(clientIDs))
	if err != nil {
		return apperror.Dependency("failed to load clients", err)
	}

	for i := range docs {
		d := &docs[i]
		if u, ok := users[d.CreatedBy.ID]; ok {
			d.CreatedBy.Resolve(u)
		}
		if c, ok := clients[d.Client.ID]; ok {
			d.Client.Resolve(c)
		}
		for j := range d.SharedWith {
			if u, ok := users[d.SharedWith[j].ID]; ok {
				d.SharedWith[j].Resolve(u)
			}
		}
	}
	return nil
}

func (r resolver) document(ctx context.Context, doc *model.Document) error {
	docs := []model.Document{*doc}
	if err := r.documents(ctx, docs); err != nil {
		return err
	}
	*doc = docs[0]
	return nil
}

func (r resolver) notifications(ctx context.Context, items []model.Notification) error {
	if len(items) == 0 {
		return nil
	}
	var userIDs, docIDs []string
	for _, n := range items {
		userIDs = append(userIDs, n.FromUser.ID)
		if n.Document.ID != "" {
			docIDs = append(docIDs, n.Document.ID)
		}
	}

	users, err := r.users.FindByIDs(ctx, unique(userIDs))
	if err != nil {
		return apperror.Dependency("failed to load users", err)
	}
	summaries, err := r.docs.Summaries(ctx, unique(docIDs))
	if err != nil {
		return apperror.Dependency("failed to load documents", err)
	}

	for i := range items {
		n := &items[i]
		if u, ok := users[n.FromUser.ID]; ok {
			n.FromUser.Resolve(u)
		}
		if s, ok := summaries[n.Document.ID]; ok {
			n.Document.Resolve(s)
		}
	}
	return nil
}

func unique(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
