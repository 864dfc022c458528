package memory

import (
	"context"
	"sync"

	"clientdocs/internal/model"
	"clientdocs/internal/repository"
)

// Users is an in-memory repository.UserDirectory.
type Users struct {
	mu    sync.RWMutex
	users map[string]model.UserSummary
}

// NewUsers returns a directory holding users.
func NewUsers(users ...model.UserSummary) *Users {
	d := &Users{users: make(map[string]model.UserSummary, len(users))}
	for _, u := range users {
		d.users[u.ID] = u
	}
	return d
}

var _ repository.UserDirectory = (*Users)(nil)

// Put adds or replaces a user.
func (d *Users) Put(u model.UserSummary) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.users[u.ID] = u
}

func (d *Users) FindByIDs(_ context.Context, ids []string) (map[string]model.UserSummary, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make(map[string]model.UserSummary, len(ids))
	for _, id := range ids {
		if u, ok := d.users[id]; ok {
			out[id] = u
		}
	}
	return out, nil
}

// Clients is an in-memory repository.ClientDirectory.
type Clients struct {
	mu      sync.RWMutex
	clients map[string]model.Client
}

// NewClients returns a directory holding clients.
func NewClients(clients ...model.Client) *Clients {
	d := &Clients{clients: make(map[string]model.Client, len(clients))}
	for _, c := range clients {
		d.clients[c.ID] = c
	}
	return d
}

var _ repository.ClientDirectory = (*Clients)(nil)

// Put adds or replaces a client.
func (d *Clients) Put(c model.Client) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.clients[c.ID] = c
}

func (d *Clients) FindByID(_ context.Context, id string) (*model.Client, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	c, ok := d.clients[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &c, nil
}

func (d *Clients) FindByIDs(_ context.Context, ids []string) (map[string]model.ClientSummary, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make(map[string]model.ClientSummary, len(ids))
	for _, id := range ids {
		if c, ok := d.clients[id]; ok {
			out[id] = c.Summary()
		}
	}
	return out, nil
}
