package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"clientdocs/internal/apperror"
	"clientdocs/internal/model"
	"clientdocs/internal/storage"
)

const (
	MimePDF  = "application/pdf"
	MimePNG  = "image/png"
	MimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

	// sniffLen is how many leading bytes are inspected to detect the file type.
	sniffLen = 3072
)

var allowedTypes = map[string]string{
	MimePDF:  ".pdf",
	MimePNG:  ".png",
	MimeDOCX: ".docx",
}

// UploadInput is a new document: metadata fields plus the file stream.
type UploadInput struct {
	Title       string
	Description string
	Category    model.Category
	AccessLevel model.AccessLevel
	ClientID    string

	FileName    string
	ContentType string
	Size        int64
	Content     io.Reader
}

func (s *documentService) Upload(ctx context.Context, principalID string, in UploadInput) (_ *model.Document, err error) {
	ctx, span := startSpan(ctx, "DocumentService.Upload",
		attribute.String("principal.id", principalID),
		attribute.Int64("file.size", in.Size),
	)
	defer func() { finishSpan(span, err) }()

	if in.AccessLevel == "" {
		in.AccessLevel = model.AccessPrivate
	}
	if err := s.validateUpload(&in); err != nil {
		return nil, err
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(in.Content, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, apperror.Validation("failed to read file", apperror.FieldError{Field: "file", Message: "file could not be read"})
	}
	head = head[:n]
	fileType, ok := detectType(head, in.ContentType, in.FileName)
	if !ok {
		return nil, apperror.Validation("invalid file type",
			apperror.FieldError{Field: "file", Message: "only PDF, PNG, and DOCX files are allowed"})
	}

	if err := s.checkClient(ctx, principalID, in.ClientID); err != nil {
		return nil, err
	}

	key := storageKey(s.cfg.StorageFolder, in.FileName, allowedTypes[fileType], s.now().UnixMilli())
	body := io.MultiReader(bytes.NewReader(head), in.Content)
	objInfo, err := s.store.Put(ctx, key, body, storage.PutObjectOptions{
		Size:        in.Size,
		ContentType: fileType,
		Metadata: map[string]string{
			"original-filename": in.FileName,
		},
	})
	if err != nil {
		return nil, apperror.Dependency("failed to upload file", fmt.Errorf("upload to storage: %w", err))
	}

	now := s.now()
	doc := &model.Document{
		ID:          uuid.NewString(),
		Title:       in.Title,
		Description: in.Description,
		Category:    in.Category,
		AccessLevel: in.AccessLevel,
		Client:      model.RefTo[model.ClientSummary](in.ClientID),
		CreatedBy:   model.RefTo[model.UserSummary](principalID),
		SharedWith:  []model.Ref[model.UserSummary]{},
		File: model.FileInfo{
			OriginalName: in.FileName,
			StorageKey:   objInfo.Key,
			FileType:     fileType,
			FileSize:     objInfo.Size,
		},
		UploadDate: now,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	stored, err := s.docs.Create(ctx, doc)
	if err != nil {
		// Rollback: delete the object from storage
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			s.log.Error("rollback delete failed",
				zap.String("storage_key", key),
				zap.Error(delErr),
			)
			return nil, apperror.Dependency("failed to save document", fmt.Errorf("db save failed: %v; rollback delete failed: %v", err, delErr))
		}
		return nil, apperror.Dependency("failed to save document", fmt.Errorf("db save failed: %w", err))
	}

	if err := s.resolve.document(ctx, stored); err != nil {
		return nil, err
	}
	return stored, nil
}

func (s *documentService) validateUpload(in *UploadInput) error {
	if in.Content == nil {
		return apperror.Validation("no file uploaded", apperror.FieldError{Field: "file", Message: "file is required"})
	}
	var fields []apperror.FieldError
	if in.Size <= 0 {
		fields = append(fields, apperror.FieldError{Field: "file", Message: "file is empty"})
	} else if in.Size > s.cfg.UploadMaxBytes {
		fields = append(fields, apperror.FieldError{
			Field:   "file",
			Message: fmt.Sprintf("file size must not exceed %d bytes", s.cfg.UploadMaxBytes),
		})
	}
	if strings.TrimSpace(in.Title) == "" {
		fields = append(fields, apperror.FieldError{Field: "title", Message: "title is required"})
	}
	if !in.Category.Valid() {
		fields = append(fields, apperror.FieldError{Field: "category", Message: "category must be one of: Proposal, Invoice, Report, Contract"})
	}
	if !in.AccessLevel.Valid() {
		fields = append(fields, apperror.FieldError{Field: "accessLevel", Message: "access level must be one of: private, shared, public"})
	}
	clientID, err := canonicalID("clientId", in.ClientID, "invalid client ID format")
	if err != nil {
		fields = append(fields, apperror.FieldsOf(err)...)
	}
	in.ClientID = clientID
	if len(fields) > 0 {
		return apperror.Validation("validation error", fields...)
	}
	return nil
}

// detectType sniffs the leading bytes. A DOCX is a zip archive, and when its
// parts are not within the sniffed prefix it is accepted on the declared type or
// the .docx extension.
func detectType(head []byte, declared, fileName string) (string, bool) {
	mt := mimetype.Detect(head)
	for allowed := range allowedTypes {
		if mt.Is(allowed) {
			return allowed, true
		}
	}
	if mt.Is("application/zip") {
		if declared == MimeDOCX || strings.EqualFold(filepath.Ext(fileName), ".docx") {
			return MimeDOCX, true
		}
	}
	return "", false
}

var (
	unsafeKeyChars = regexp.MustCompile(`[^a-zA-Z0-9.-]`)
	dotRuns        = regexp.MustCompile(`\.{2,}`)
)

// sanitizeName keeps letters, digits, dots and dashes, collapses dot runs and lowercases.
func sanitizeName(name string) string {
	name = unsafeKeyChars.ReplaceAllString(name, "_")
	name = dotRuns.ReplaceAllString(name, ".")
	return strings.ToLower(name)
}

// storageKey builds <folder>/<sanitized-name>-<unix-ms>-<rand><ext>.
func storageKey(folder, fileName, ext string, unixMilli int64) string {
	base := strings.TrimSuffix(filepath.Base(fileName), filepath.Ext(fileName))
	base = sanitizeName(base)
	if base == "" || base == "." {
		base = "file"
	}
	return fmt.Sprintf("%s/%s-%d-%d%s", folder, base, unixMilli, rand.IntN(1_000_000_000), ext)
}
