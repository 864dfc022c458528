package postgres

import (
	"context"
	"database/sql"
	"errors"

	"clientdocs/internal/model"
	"clientdocs/internal/repository"
)

// UserPostgres reads display fields from the users table. Password hashes are never selected.
type UserPostgres struct {
	db *sql.DB
}

// NewUserPostgres creates a new UserPostgres directory.
func NewUserPostgres(db *sql.DB) *UserPostgres {
	return &UserPostgres{db: db}
}

var _ repository.UserDirectory = (*UserPostgres)(nil)

func (r *UserPostgres) FindByIDs(ctx context.Context, ids []string) (map[string]model.UserSummary, error) {
	out := make(map[string]model.UserSummary)
	ids = dedupe(ids)
	if len(ids) == 0 {
		return out, nil
	}
	q := `SELECT id, name, email FROM users WHERE id IN (` + placeholders(1, len(ids)) + `)`
	rows, err := r.db.QueryContext(ctx, q, toArgs(ids)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var u model.UserSummary
		if err := rows.Scan(&u.ID, &u.Name, &u.Email); err != nil {
			return nil, err
		}
		out[u.ID] = u
	}
	return out, rows.Err()
}

// ClientPostgres reads client records.
type ClientPostgres struct {
	db *sql.DB
}

// NewClientPostgres creates a new ClientPostgres directory.
func NewClientPostgres(db *sql.DB) *ClientPostgres {
	return &ClientPostgres{db: db}
}

var _ repository.ClientDirectory = (*ClientPostgres)(nil)

func (r *ClientPostgres) FindByID(ctx context.Context, id string) (*model.Client, error) {
	const q = `SELECT id, name, email, company, created_by FROM clients WHERE id = $1`
	var c model.Client
	err := r.db.QueryRowContext(ctx, q, id).Scan(&c.ID, &c.Name, &c.Email, &c.Company, &c.CreatedBy)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *ClientPostgres) FindByIDs(ctx context.Context, ids []string) (map[string]model.ClientSummary, error) {
	out := make(map[string]model.ClientSummary)
	ids = dedupe(ids)
	if len(ids) == 0 {
		return out, nil
	}
	q := `SELECT id, name, email, company FROM clients WHERE id IN (` + placeholders(1, len(ids)) + `)`
	rows, err := r.db.QueryContext(ctx, q, toArgs(ids)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var c model.ClientSummary
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.Company); err != nil {
			return nil, err
		}
		out[c.ID] = c
	}
	return out, rows.Err()
}
