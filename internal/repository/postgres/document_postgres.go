package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"clientdocs/internal/model"
	"clientdocs/internal/policy"
	"clientdocs/internal/query"
	"clientdocs/internal/repository"
)

// documentColumns selects one document row plus its shared-with set, aggregated as a
// comma-separated list so the whole record comes back from a single statement.
const documentColumns = `d.id, d.title, d.description, d.category, d.access_level, d.client_id, d.created_by,
		d.original_name, d.storage_key, d.file_type, d.file_size, d.upload_date, d.created_at, d.updated_at, d.version,
		COALESCE((SELECT string_agg(s.user_id::text, ',' ORDER BY s.created_at, s.user_id)
			FROM document_shares s WHERE s.document_id = d.id), '')`

// DocumentPostgres is a PostgreSQL implementation of repository.DocumentRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type DocumentPostgres struct {
	db *sql.DB
}

// NewDocumentPostgres creates a new DocumentPostgres repository.
func NewDocumentPostgres(db *sql.DB) *DocumentPostgres {
	return &DocumentPostgres{db: db}
}

var _ repository.DocumentRepository = (*DocumentPostgres)(nil)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*model.Document, error) {
	var (
		d                   model.Document
		category, level     string
		clientID, createdBy string
		shared              string
	)
	if err := row.Scan(
		&d.ID,
		&d.Title,
		&d.Description,
		&category,
		&level,
		&clientID,
		&createdBy,
		&d.File.OriginalName,
		&d.File.StorageKey,
		&d.File.FileType,
		&d.File.FileSize,
		&d.UploadDate,
		&d.CreatedAt,
		&d.UpdatedAt,
		&d.Version,
		&shared,
	); err != nil {
		return nil, err
	}
	d.Category = model.Category(category)
	d.AccessLevel = model.AccessLevel(level)
	d.Client = model.RefTo[model.ClientSummary](clientID)
	d.CreatedBy = model.RefTo[model.UserSummary](createdBy)
	d.SharedWith = make([]model.Ref[model.UserSummary], 0)
	for _, id := range strings.Split(shared, ",") {
		if id != "" {
			d.SharedWith = append(d.SharedWith, model.RefTo[model.UserSummary](id))
		}
	}
	return &d, nil
}

// Create inserts a new document row and returns the stored record.
func (r *DocumentPostgres) Create(ctx context.Context, doc *model.Document) (*model.Document, error) {
	q := `
		INSERT INTO documents AS d (id, title, description, category, access_level, client_id, created_by,
			original_name, storage_key, file_type, file_size, upload_date, created_at, updated_at, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, 1)
		RETURNING ` + documentColumns
	row := r.db.QueryRowContext(ctx, q,
		doc.ID,
		doc.Title,
		doc.Description,
		string(doc.Category),
		string(doc.AccessLevel),
		doc.Client.ID,
		doc.CreatedBy.ID,
		doc.File.OriginalName,
		doc.File.StorageKey,
		doc.File.FileType,
		doc.File.FileSize,
		doc.UploadDate,
		doc.CreatedAt,
		doc.UpdatedAt,
	)
	return scanDocument(row)
}

// FindByID fetches a single document by its ID.
func (r *DocumentPostgres) FindByID(ctx context.Context, id string) (*model.Document, error) {
	q := `SELECT ` + documentColumns + `
		FROM documents d
		WHERE d.id = $1`
	d, err := scanDocument(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return d, nil
}

// List compiles spec into one WHERE clause; visibility is never evaluated in Go.
func (r *DocumentPostgres) List(ctx context.Context, spec query.Spec) ([]model.Document, error) {
	var w whereBuilder
	w.add(w.scope(spec.Scope()))
	if c := spec.Category(); c != "" {
		w.add("d.category = " + w.arg(string(c)))
	}
	if id := spec.ClientID(); id != "" {
		w.add("d.client_id = " + w.arg(id))
	}
	if from, ok := spec.From(); ok {
		w.add("d.upload_date >= " + w.arg(from))
	}
	if until, ok := spec.Until(); ok {
		w.add("d.upload_date < " + w.arg(until))
	}
	if term := spec.Search(); term != "" {
		p := w.arg("%" + EscapeLike(term) + "%")
		w.add(fmt.Sprintf(`(d.title ILIKE %s ESCAPE '\' OR d.description ILIKE %s ESCAPE '\')`, p, p))
	}

	q := `SELECT ` + documentColumns + `
		FROM documents d
		WHERE ` + w.String() + `
		ORDER BY d.upload_date DESC, d.id DESC`
	rows, err := r.db.QueryContext(ctx, q, w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Document, 0)
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// Update writes metadata fields guarded by the row version.
func (r *DocumentPostgres) Update(ctx context.Context, doc *model.Document) (*model.Document, error) {
	q := `
		UPDATE documents AS d
		SET title = $1, description = $2, category = $3, access_level = $4, client_id = $5,
			updated_at = $6, version = d.version + 1
		WHERE d.id = $7 AND d.version = $8
		RETURNING ` + documentColumns
	row := r.db.QueryRowContext(ctx, q,
		doc.Title,
		doc.Description,
		string(doc.Category),
		string(doc.AccessLevel),
		doc.Client.ID,
		doc.UpdatedAt,
		doc.ID,
		doc.Version,
	)
	out, err := scanDocument(row)
	if err == nil {
		return out, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	var exists bool
	if err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM documents WHERE id = $1)`, doc.ID).Scan(&exists); err != nil {
		return nil, err
	}
	if exists {
		return nil, repository.ErrVersionConflict
	}
	return nil, repository.ErrNotFound
}

// AddShares promotes the document to shared and inserts the recipients in one
// transaction. ON CONFLICT DO NOTHING makes the insert an atomic add-to-set, and
// RETURNING yields exactly the rows that were new, so concurrent callers adding the
// same recipient cannot both see it as added.
func (r *DocumentPostgres) AddShares(ctx context.Context, id string, userIDs []string) ([]string, error) {
	userIDs = dedupe(userIDs)
	if len(userIDs) == 0 {
		return nil, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	now := nowUTC()
	res, err := tx.ExecContext(ctx, `
		UPDATE documents
		SET access_level = 'shared', updated_at = $2, version = version + 1
		WHERE id = $1`, id, now)
	if err != nil {
		return nil, err
	}
	if n, err := res.RowsAffected(); err != nil {
		return nil, err
	} else if n == 0 {
		return nil, repository.ErrNotFound
	}

	args := []any{id, now}
	values := make([]string, 0, len(userIDs))
	for _, uid := range userIDs {
		args = append(args, uid)
		values = append(values, fmt.Sprintf("($1, $%d, $2)", len(args)))
	}
	q := `
		INSERT INTO document_shares (document_id, user_id, created_at)
		VALUES ` + strings.Join(values, ", ") + `
		ON CONFLICT (document_id, user_id) DO NOTHING
		RETURNING user_id`
	rows, err := tx.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	inserted := make(map[string]bool, len(userIDs))
	for rows.Next() {
		var uid string
		if err := rows.Scan(&uid); err != nil {
			rows.Close()
			return nil, err
		}
		inserted[uid] = true
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	added := make([]string, 0, len(inserted))
	for _, uid := range userIDs {
		if inserted[uid] {
			added = append(added, uid)
		}
	}
	return added, nil
}

// Delete removes a document by ID. Share rows go with it (ON DELETE CASCADE).
// It does not return an error if the row does not exist.
func (r *DocumentPostgres) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM documents WHERE id = $1`
	_, err := r.db.ExecContext(ctx, q, id)
	return err
}

// Summaries loads title and category for a batch of documents.
func (r *DocumentPostgres) Summaries(ctx context.Context, ids []string) (map[string]model.DocumentSummary, error) {
	out := make(map[string]model.DocumentSummary)
	ids = dedupe(ids)
	if len(ids) == 0 {
		return out, nil
	}
	q := `SELECT id, title, category FROM documents WHERE id IN (` + placeholders(1, len(ids)) + `)`
	rows, err := r.db.QueryContext(ctx, q, toArgs(ids)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var s model.DocumentSummary
		var category string
		if err := rows.Scan(&s.ID, &s.Title, &category); err != nil {
			return nil, err
		}
		s.Category = model.Category(category)
		out[s.ID] = s
	}
	return out, rows.Err()
}

// whereBuilder accumulates AND-ed conditions and their positional arguments.
type whereBuilder struct {
	conds []string
	args  []any
}

func (w *whereBuilder) arg(v any) string {
	w.args = append(w.args, v)
	return fmt.Sprintf("$%d", len(w.args))
}

func (w *whereBuilder) add(cond string) {
	w.conds = append(w.conds, cond)
}

func (w *whereBuilder) String() string {
	if len(w.conds) == 0 {
		return "TRUE"
	}
	return strings.Join(w.conds, " AND ")
}

// scope renders the visibility disjunction. Shared-with membership is an EXISTS
// lookup on document_shares, served by its primary key.
func (w *whereBuilder) scope(s policy.Scope) string {
	if len(s) == 0 {
		return "FALSE"
	}
	clauses := make([]string, 0, len(s))
	for _, c := range s {
		var conj []string
		if c.OwnerID != "" {
			conj = append(conj, "d.created_by = "+w.arg(c.OwnerID))
		}
		if c.AccessLevel != "" {
			conj = append(conj, "d.access_level = "+w.arg(string(c.AccessLevel)))
		}
		if c.SharedWith != "" {
			conj = append(conj, "EXISTS (SELECT 1 FROM document_shares ds WHERE ds.document_id = d.id AND ds.user_id = "+w.arg(c.SharedWith)+")")
		}
		if len(conj) == 0 {
			conj = append(conj, "TRUE")
		}
		clauses = append(clauses, "("+strings.Join(conj, " AND ")+")")
	}
	return "(" + strings.Join(clauses, " OR ") + ")"
}

// EscapeLike neutralizes LIKE metacharacters so term matches literally under ESCAPE '\'.
func EscapeLike(term string) string {
	return likeEscaper.Replace(term)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
