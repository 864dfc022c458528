package service

import (
	"context"
	"errors"
	"io"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"clientdocs/internal/apperror"
	"clientdocs/internal/config"
	"clientdocs/internal/metrics"
	"clientdocs/internal/model"
	"clientdocs/internal/policy"
	"clientdocs/internal/query"
	"clientdocs/internal/repository"
	"clientdocs/internal/storage"
)

// DocumentService defines the use cases for handling documents. Every method takes
// the acting principal; access decisions go through policy.Evaluate.
type DocumentService interface {
	// List returns the documents visible to the principal that match params, newest upload first.
	List(ctx context.Context, principalID string, params query.Params) ([]model.Document, error)

	// Get returns a single document the principal may read.
	Get(ctx context.Context, principalID, id string) (*model.Document, error)

	// Upload checks the bytes and the client, stores the object, then saves metadata.
	// The object is removed again if the metadata cannot be saved.
	Upload(ctx context.Context, principalID string, in UploadInput) (*model.Document, error)

	// Update changes metadata fields of a document owned by the principal.
	Update(ctx context.Context, principalID, id string, in UpdateInput) (*model.Document, error)

	// Delete removes the object (best effort) and then the metadata record.
	Delete(ctx context.Context, principalID, id string) (*DeleteReport, error)

	// Share adds recipients and notifies the new ones.
	Share(ctx context.Context, principalID, id string, targetIDs []string) (*ShareResult, error)

	// Download opens the stored bytes of a readable document. The caller closes Body.
	Download(ctx context.Context, principalID, id string) (*Download, error)

	// DownloadURL returns a time-limited direct link to the stored bytes.
	DownloadURL(ctx context.Context, principalID, id string) (*DownloadURL, error)
}

// UpdateInput holds the fields to change; nil means unchanged.
type UpdateInput struct {
	Title       *string
	Description *string
	Category    *model.Category
	AccessLevel *model.AccessLevel
	ClientID    *string
}

// DeleteReport tells whether the object was removed along with the metadata.
type DeleteReport struct {
	DocumentID    string `json:"documentId"`
	ObjectDeleted bool   `json:"objectDeleted"`
	ObjectError   string `json:"objectError,omitempty"`
}

// Download is an open object stream plus the headers to send with it.
type Download struct {
	Body        io.ReadCloser
	FileName    string
	ContentType string
	Size        int64
}

// DownloadURL is a presigned link to a document's bytes.
type DownloadURL struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// DocumentDeps are the collaborators of the document service.
type DocumentDeps struct {
	Store     storage.Storage
	Documents repository.DocumentRepository
	Users     repository.UserDirectory
	Clients   repository.ClientDirectory
	Notifier  Notifier
	Logger    *zap.Logger
	Metrics   *metrics.Metrics
}

// documentService is a concrete implementation of DocumentService.
type documentService struct {
	store    storage.Storage
	docs     repository.DocumentRepository
	users    repository.UserDirectory
	clients  repository.ClientDirectory
	notifier Notifier
	resolve  resolver
	log      *zap.Logger
	metrics  *metrics.Metrics
	cfg      config.DocumentConfig
	now      func() time.Time
}

// NewDocumentService constructs a new DocumentService.
func NewDocumentService(deps DocumentDeps, cfg config.DocumentConfig) DocumentService {
	if cfg.UploadMaxBytes <= 0 {
		cfg.UploadMaxBytes = 5 * 1024 * 1024
	}
	if cfg.StorageFolder == "" {
		cfg.StorageFolder = "documents"
	}
	if cfg.UpdateMaxRetries <= 0 {
		cfg.UpdateMaxRetries = 3
	}
	if cfg.DownloadURLTTL <= 0 {
		cfg.DownloadURLTTL = 15 * time.Minute
	}
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &documentService{
		store:    deps.Store,
		docs:     deps.Documents,
		users:    deps.Users,
		clients:  deps.Clients,
		notifier: deps.Notifier,
		resolve:  resolver{users: deps.Users, clients: deps.Clients, docs: deps.Documents},
		log:      log,
		metrics:  deps.Metrics,
		cfg:      cfg,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *documentService) List(ctx context.Context, principalID string, params query.Params) (_ []model.Document, err error) {
	ctx, span := startSpan(ctx, "DocumentService.List", attribute.String("principal.id", principalID))
	defer func() { finishSpan(span, err) }()

	spec, err := query.Build(principalID, params)
	if err != nil {
		return nil, err
	}
	docs, err := s.docs.List(ctx, spec)
	if err != nil {
		return nil, apperror.Dependency("failed to list documents", err)
	}
	if err := s.resolve.documents(ctx, docs); err != nil {
		return nil, err
	}
	return docs, nil
}

// load fetches a document and applies the policy decision for op.
func (s *documentService) load(ctx context.Context, principalID, id string, op policy.Operation) (*model.Document, error) {
	id, err := canonicalID("id", id, "invalid document ID format")
	if err != nil {
		return nil, err
	}
	doc, err := s.docs.FindByID(ctx, id)
	if err != nil {
		return nil, repoError(err, "document not found")
	}
	if d := policy.Evaluate(doc, principalID, op); !d.Allowed {
		return nil, apperror.Forbidden(d.Reason)
	}
	return doc, nil
}

func (s *documentService) Get(ctx context.Context, principalID, id string) (_ *model.Document, err error) {
	ctx, span := startSpan(ctx, "DocumentService.Get", attribute.String("document.id", id))
	defer func() { finishSpan(span, err) }()

	doc, err := s.load(ctx, principalID, id, policy.OpRead)
	if err != nil {
		return nil, err
	}
	if err := s.resolve.document(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *documentService) Update(ctx context.Context, principalID, id string, in UpdateInput) (_ *model.Document, err error) {
	ctx, span := startSpan(ctx, "DocumentService.Update", attribute.String("document.id", id))
	defer func() { finishSpan(span, err) }()

	if err := validateUpdate(&in); err != nil {
		return nil, err
	}

	checkedClient := ""
	for attempt := 0; attempt < s.cfg.UpdateMaxRetries; attempt++ {
		doc, err := s.load(ctx, principalID, id, policy.OpWrite)
		if err != nil {
			return nil, err
		}

		if in.ClientID != nil && *in.ClientID != doc.Client.ID && *in.ClientID != checkedClient {
			if err := s.checkClient(ctx, principalID, *in.ClientID); err != nil {
				return nil, err
			}
			checkedClient = *in.ClientID
		}
		applyUpdate(doc, in)
		doc.UpdatedAt = s.now()

		updated, err := s.docs.Update(ctx, doc)
		switch {
		case err == nil:
			if err := s.resolve.document(ctx, updated); err != nil {
				return nil, err
			}
			return updated, nil
		case errors.Is(err, repository.ErrVersionConflict):
			s.log.Info("document update conflict, retrying",
				zap.String("document_id", id),
				zap.Int("attempt", attempt+1),
			)
			continue
		default:
			return nil, repoError(err, "document not found")
		}
	}
	return nil, apperror.Conflict("document was modified concurrently, please retry", repository.ErrVersionConflict)
}

// validateUpdate checks the set fields and canonicalises the client ID.
func validateUpdate(in *UpdateInput) error {
	var fields []apperror.FieldError
	if in.Title != nil && *in.Title == "" {
		fields = append(fields, apperror.FieldError{Field: "title", Message: "title is required"})
	}
	if in.Category != nil && !in.Category.Valid() {
		fields = append(fields, apperror.FieldError{Field: "category", Message: "category must be one of: Proposal, Invoice, Report, Contract"})
	}
	if in.AccessLevel != nil && !in.AccessLevel.Valid() {
		fields = append(fields, apperror.FieldError{Field: "accessLevel", Message: "access level must be one of: private, shared, public"})
	}
	if in.ClientID != nil {
		clientID, err := canonicalID("clientId", *in.ClientID, "invalid client ID format")
		if err != nil {
			fields = append(fields, apperror.FieldsOf(err)...)
		}
		in.ClientID = &clientID
	}
	if len(fields) > 0 {
		return apperror.Validation("validation error", fields...)
	}
	return nil
}

// applyUpdate copies the set fields. Leaving the shared level keeps the share rows;
// the policy ignores them until the document is shared again.
func applyUpdate(doc *model.Document, in UpdateInput) {
	if in.Title != nil {
		doc.Title = *in.Title
	}
	if in.Description != nil {
		doc.Description = *in.Description
	}
	if in.Category != nil {
		doc.Category = *in.Category
	}
	if in.AccessLevel != nil {
		doc.AccessLevel = *in.AccessLevel
	}
	if in.ClientID != nil {
		doc.Client = model.RefTo[model.ClientSummary](*in.ClientID)
	}
}

// checkClient requires the client to exist and to belong to the principal.
func (s *documentService) checkClient(ctx context.Context, principalID, clientID string) error {
	client, err := s.clients.FindByID(ctx, clientID)
	if err != nil {
		return repoError(err, "client not found")
	}
	if client.CreatedBy != principalID {
		return apperror.Forbidden("not authorized to add documents to this client")
	}
	return nil
}

func (s *documentService) Delete(ctx context.Context, principalID, id string) (_ *DeleteReport, err error) {
	ctx, span := startSpan(ctx, "DocumentService.Delete", attribute.String("document.id", id))
	defer func() { finishSpan(span, err) }()

	doc, err := s.load(ctx, principalID, id, policy.OpDelete)
	if err != nil {
		return nil, err
	}

	report := &DeleteReport{DocumentID: doc.ID, ObjectDeleted: true}
	if err := s.store.Delete(ctx, doc.File.StorageKey); err != nil {
		// the metadata delete goes ahead; a leftover object is only wasted space
		report.ObjectDeleted = false
		report.ObjectError = err.Error()
		s.metrics.ObjectDelete(false)
		s.log.Warn("failed to delete document object",
			zap.String("document_id", doc.ID),
			zap.String("storage_key", doc.File.StorageKey),
			zap.Error(err),
		)
	} else {
		s.metrics.ObjectDelete(true)
	}

	if err := s.docs.Delete(ctx, doc.ID); err != nil {
		return nil, apperror.Dependency("failed to delete document", err)
	}
	return report, nil
}

func (s *documentService) Download(ctx context.Context, principalID, id string) (_ *Download, err error) {
	ctx, span := startSpan(ctx, "DocumentService.Download", attribute.String("document.id", id))
	defer func() { finishSpan(span, err) }()

	doc, err := s.load(ctx, principalID, id, policy.OpDownload)
	if err != nil {
		return nil, err
	}

	body, info, err := s.store.Get(ctx, doc.File.StorageKey)
	if err != nil {
		return nil, objectError(err)
	}

	contentType := doc.File.FileType
	if contentType == "" {
		contentType = info.ContentType
	}
	return &Download{
		Body:        body,
		FileName:    doc.File.OriginalName,
		ContentType: contentType,
		Size:        info.Size,
	}, nil
}

func (s *documentService) DownloadURL(ctx context.Context, principalID, id string) (_ *DownloadURL, err error) {
	ctx, span := startSpan(ctx, "DocumentService.DownloadURL", attribute.String("document.id", id))
	defer func() { finishSpan(span, err) }()

	doc, err := s.load(ctx, principalID, id, policy.OpDownload)
	if err != nil {
		return nil, err
	}

	// presigning never contacts the store, so check the bytes exist first
	if _, err := s.store.Stat(ctx, doc.File.StorageKey); err != nil {
		return nil, objectError(err)
	}
	expiresAt := s.now().Add(s.cfg.DownloadURLTTL)
	url, err := s.store.PresignGet(ctx, doc.File.StorageKey, s.cfg.DownloadURLTTL)
	if err != nil {
		return nil, objectError(err)
	}
	return &DownloadURL{URL: url, ExpiresAt: expiresAt}, nil
}

// objectError separates "metadata without bytes" from an unreachable store.
func objectError(err error) error {
	if errors.Is(err, storage.ErrObjectNotFound) {
		return apperror.Consistency("document file is missing from storage", err)
	}
	return apperror.Dependency("failed to retrieve document file", err)
}
