// Package memory provides mutex-guarded in-process repositories. They back the
// single-binary demo mode and the end-to-end service tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"clientdocs/internal/model"
	"clientdocs/internal/query"
	"clientdocs/internal/repository"
)

// Documents is an in-memory repository.DocumentRepository.
type Documents struct {
	mu   sync.RWMutex
	docs map[string]*model.Document
	now  func() time.Time
}

// NewDocuments returns an empty document store.
func NewDocuments() *Documents {
	return &Documents{
		docs: make(map[string]*model.Document),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

var _ repository.DocumentRepository = (*Documents)(nil)

func cloneDocument(d *model.Document) *model.Document {
	out := *d
	out.Client = model.RefTo[model.ClientSummary](d.Client.ID)
	out.CreatedBy = model.RefTo[model.UserSummary](d.CreatedBy.ID)
	out.SharedWith = make([]model.Ref[model.UserSummary], 0, len(d.SharedWith))
	for _, r := range d.SharedWith {
		out.SharedWith = append(out.SharedWith, model.RefTo[model.UserSummary](r.ID))
	}
	return &out
}

func (s *Documents) Create(_ context.Context, doc *model.Document) (*model.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := cloneDocument(doc)
	stored.Version = 1
	s.docs[stored.ID] = stored
	return cloneDocument(stored), nil
}

func (s *Documents) FindByID(_ context.Context, id string) (*model.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.docs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneDocument(d), nil
}

// List evaluates spec against every stored document, newest upload first.
func (s *Documents) List(_ context.Context, spec query.Spec) ([]model.Document, error) {
	s.mu.RLock()
	items := make([]model.Document, 0)
	for _, d := range s.docs {
		if spec.Matches(d) {
			items = append(items, *cloneDocument(d))
		}
	}
	s.mu.RUnlock()

	sort.Slice(items, func(i, j int) bool {
		if !items[i].UploadDate.Equal(items[j].UploadDate) {
			return items[i].UploadDate.After(items[j].UploadDate)
		}
		return items[i].ID > items[j].ID
	})
	return items, nil
}

func (s *Documents) Update(_ context.Context, doc *model.Document) (*model.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.docs[doc.ID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if cur.Version != doc.Version {
		return nil, repository.ErrVersionConflict
	}
	cur.Title = doc.Title
	cur.Description = doc.Description
	cur.Category = doc.Category
	cur.AccessLevel = doc.AccessLevel
	cur.Client = model.RefTo[model.ClientSummary](doc.Client.ID)
	cur.UpdatedAt = doc.UpdatedAt
	cur.Version++
	return cloneDocument(cur), nil
}

func (s *Documents) AddShares(_ context.Context, id string, userIDs []string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.docs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	added := make([]string, 0, len(userIDs))
	for _, uid := range userIDs {
		if uid == "" || cur.HasRecipient(uid) {
			continue
		}
		cur.SharedWith = append(cur.SharedWith, model.RefTo[model.UserSummary](uid))
		added = append(added, uid)
	}
	cur.AccessLevel = model.AccessShared
	cur.UpdatedAt = s.now()
	cur.Version++
	return added, nil
}

func (s *Documents) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, id)
	return nil
}

func (s *Documents) Summaries(_ context.Context, ids []string) (map[string]model.DocumentSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]model.DocumentSummary, len(ids))
	for _, id := range ids {
		if d, ok := s.docs[id]; ok {
			out[id] = model.DocumentSummary{ID: d.ID, Title: d.Title, Category: d.Category}
		}
	}
	return out, nil
}
