package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"clientdocs/internal/apperror"
	"clientdocs/internal/config"
	"clientdocs/internal/model"
	"clientdocs/internal/repository"
	repoMocks "clientdocs/internal/repository/mocks"
	"clientdocs/internal/storage"
	storeMocks "clientdocs/internal/storage/mocks"
)

var samplePNG = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00\x1f\x15\xc4\x89")

type notifierFunc func(ctx context.Context, n *model.Notification) (*model.Notification, error)

func (f notifierFunc) Notify(ctx context.Context, n *model.Notification) (*model.Notification, error) {
	return f(ctx, n)
}

type mockSet struct {
	store   *storeMocks.MockStorage
	docs    *repoMocks.MockDocumentRepository
	users   *repoMocks.MockUserDirectory
	clients *repoMocks.MockClientDirectory
}

func newMockService(t *testing.T, notifier Notifier, cfg config.DocumentConfig) (*documentService, mockSet) {
	t.Helper()
	m := mockSet{
		store:   new(storeMocks.MockStorage),
		docs:    new(repoMocks.MockDocumentRepository),
		users:   new(repoMocks.MockUserDirectory),
		clients: new(repoMocks.MockClientDirectory),
	}
	if notifier == nil {
		notifier = notifierFunc(func(_ context.Context, n *model.Notification) (*model.Notification, error) { return n, nil })
	}
	svc := NewDocumentService(DocumentDeps{
		Store:     m.store,
		Documents: m.docs,
		Users:     m.users,
		Clients:   m.clients,
		Notifier:  notifier,
	}, cfg).(*documentService)
	return svc, m
}

// expectResolve lets the reference resolver find nothing.
func (m mockSet) expectResolve() {
	m.users.On("FindByIDs", mock.Anything, mock.Anything).Return(map[string]model.UserSummary{}, nil).Maybe()
	m.clients.On("FindByIDs", mock.Anything, mock.Anything).Return(map[string]model.ClientSummary{}, nil).Maybe()
}

func ownedDoc(owner string, level model.AccessLevel) *model.Document {
	return &model.Document{
		ID:          uuid.NewString(),
		Title:       "Contract draft",
		Category:    model.CategoryContract,
		AccessLevel: level,
		Client:      model.RefTo[model.ClientSummary](uuid.NewString()),
		CreatedBy:   model.RefTo[model.UserSummary](owner),
		File: model.FileInfo{
			OriginalName: "draft.pdf",
			StorageKey:   "documents/draft-1-1.pdf",
			FileType:     MimePDF,
			FileSize:     128,
		},
		Version: 1,
	}
}

func pngUpload(clientID string) UploadInput {
	return UploadInput{
		Title:       "Site photo",
		Category:    model.CategoryReport,
		ClientID:    clientID,
		FileName:    "Site Photo (1).png",
		ContentType: "application/octet-stream",
		Size:        int64(len(samplePNG)),
		Content:     bytes.NewReader(samplePNG),
	}
}

func TestDocumentService_Upload(t *testing.T) {
	principal := uuid.NewString()
	clientID := uuid.NewString()

	t.Run("success", func(t *testing.T) {
		svc, m := newMockService(t, nil, config.DocumentConfig{})
		m.expectResolve()
		m.clients.On("FindByID", mock.Anything, clientID).Return(&model.Client{ID: clientID, CreatedBy: principal}, nil).Once()

		var stored []byte
		m.store.On("Put", mock.Anything, mock.MatchedBy(func(key string) bool {
			return strings.HasPrefix(key, "documents/site_photo__1_-") && strings.HasSuffix(key, ".png")
		}), mock.Anything, mock.MatchedBy(func(opt storage.PutObjectOptions) bool {
			return opt.ContentType == MimePNG && opt.Size == int64(len(samplePNG))
		})).Return(func(_ context.Context, key string, r io.Reader, _ storage.PutObjectOptions) storage.ObjectInfo {
			stored, _ = io.ReadAll(r)
			return storage.ObjectInfo{Key: key, Size: int64(len(stored)), ContentType: MimePNG}
		}, nil).Once()

		var created *model.Document
		m.docs.On("Create", mock.Anything, mock.AnythingOfType("*model.Document")).
			Run(func(args mock.Arguments) { created = args.Get(1).(*model.Document) }).
			Return(&model.Document{ID: "created"}, nil).Once()

		doc, err := svc.Upload(context.Background(), principal, pngUpload(clientID))
		require.NoError(t, err)
		assert.Equal(t, "created", doc.ID)
		assert.Equal(t, samplePNG, stored)

		require.NotNil(t, created)
		assert.Equal(t, model.AccessPrivate, created.AccessLevel)
		assert.Equal(t, MimePNG, created.File.FileType)
		assert.Equal(t, "Site Photo (1).png", created.File.OriginalName)
		assert.Equal(t, principal, created.OwnerID())
		assert.Equal(t, clientID, created.Client.ID)
		assert.Empty(t, created.SharedWith)
		m.store.AssertExpectations(t)
		m.docs.AssertExpectations(t)
	})

	t.Run("rejects disallowed bytes whatever the declared type", func(t *testing.T) {
		svc, m := newMockService(t, nil, config.DocumentConfig{})
		in := pngUpload(clientID)
		in.ContentType = MimePDF
		in.FileName = "notes.pdf"
		in.Content = strings.NewReader("just some text, not a pdf")
		in.Size = 25

		_, err := svc.Upload(context.Background(), principal, in)
		require.ErrorIs(t, err, apperror.ErrValidation)
		assert.Equal(t, "invalid file type", apperror.MessageOf(err, ""))
		m.store.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("too large", func(t *testing.T) {
		svc, m := newMockService(t, nil, config.DocumentConfig{UploadMaxBytes: 10})

		_, err := svc.Upload(context.Background(), principal, pngUpload(clientID))
		require.ErrorIs(t, err, apperror.ErrValidation)
		fields := apperror.FieldsOf(err)
		require.Len(t, fields, 1)
		assert.Equal(t, "file", fields[0].Field)
		m.store.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("missing fields", func(t *testing.T) {
		svc, _ := newMockService(t, nil, config.DocumentConfig{})
		_, err := svc.Upload(context.Background(), principal, UploadInput{Content: bytes.NewReader(samplePNG), Size: 10, ClientID: "nope"})
		require.ErrorIs(t, err, apperror.ErrValidation)

		var names []string
		for _, f := range apperror.FieldsOf(err) {
			names = append(names, f.Field)
		}
		assert.ElementsMatch(t, []string{"title", "category", "clientId"}, names)
	})

	t.Run("client of another principal", func(t *testing.T) {
		svc, m := newMockService(t, nil, config.DocumentConfig{})
		m.clients.On("FindByID", mock.Anything, clientID).Return(&model.Client{ID: clientID, CreatedBy: uuid.NewString()}, nil).Once()

		_, err := svc.Upload(context.Background(), principal, pngUpload(clientID))
		require.ErrorIs(t, err, apperror.ErrForbidden)
		m.store.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unknown client", func(t *testing.T) {
		svc, m := newMockService(t, nil, config.DocumentConfig{})
		m.clients.On("FindByID", mock.Anything, clientID).Return(nil, repository.ErrNotFound).Once()

		_, err := svc.Upload(context.Background(), principal, pngUpload(clientID))
		require.ErrorIs(t, err, apperror.ErrNotFound)
		assert.Equal(t, "client not found", apperror.MessageOf(err, ""))
	})

	t.Run("storage failure", func(t *testing.T) {
		svc, m := newMockService(t, nil, config.DocumentConfig{})
		m.clients.On("FindByID", mock.Anything, clientID).Return(&model.Client{ID: clientID, CreatedBy: principal}, nil).Once()
		m.store.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(storage.ObjectInfo{}, errors.New("connection refused")).Once()

		_, err := svc.Upload(context.Background(), principal, pngUpload(clientID))
		require.ErrorIs(t, err, apperror.ErrDependency)
		m.docs.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("metadata failure removes the object", func(t *testing.T) {
		svc, m := newMockService(t, nil, config.DocumentConfig{})
		m.clients.On("FindByID", mock.Anything, clientID).Return(&model.Client{ID: clientID, CreatedBy: principal}, nil).Once()

		var key string
		m.store.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) { key = args.String(1) }).
			Return(func(_ context.Context, k string, _ io.Reader, _ storage.PutObjectOptions) storage.ObjectInfo {
				return storage.ObjectInfo{Key: k, Size: int64(len(samplePNG))}
			}, nil).Once()
		m.docs.On("Create", mock.Anything, mock.Anything).Return(nil, errors.New("db down")).Once()
		m.store.On("Delete", mock.Anything, mock.MatchedBy(func(k string) bool { return k == key })).Return(nil).Once()

		_, err := svc.Upload(context.Background(), principal, pngUpload(clientID))
		require.ErrorIs(t, err, apperror.ErrDependency)
		assert.Equal(t, "failed to save document", apperror.MessageOf(err, ""))
		m.store.AssertExpectations(t)
	})
}

func TestDocumentService_Get(t *testing.T) {
	owner := uuid.NewString()

	t.Run("invalid id", func(t *testing.T) {
		svc, m := newMockService(t, nil, config.DocumentConfig{})
		_, err := svc.Get(context.Background(), owner, "not-a-uuid")
		require.ErrorIs(t, err, apperror.ErrValidation)
		m.docs.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
	})

	t.Run("not found", func(t *testing.T) {
		svc, m := newMockService(t, nil, config.DocumentConfig{})
		id := uuid.NewString()
		m.docs.On("FindByID", mock.Anything, id).Return(nil, repository.ErrNotFound).Once()

		_, err := svc.Get(context.Background(), owner, id)
		require.ErrorIs(t, err, apperror.ErrNotFound)
	})

	t.Run("repository failure", func(t *testing.T) {
		svc, m := newMockService(t, nil, config.DocumentConfig{})
		id := uuid.NewString()
		m.docs.On("FindByID", mock.Anything, id).Return(nil, errors.New("timeout")).Once()

		_, err := svc.Get(context.Background(), owner, id)
		require.ErrorIs(t, err, apperror.ErrDependency)
	})

	t.Run("private document of someone else", func(t *testing.T) {
		svc, m := newMockService(t, nil, config.DocumentConfig{})
		doc := ownedDoc(owner, model.AccessPrivate)
		m.docs.On("FindByID", mock.Anything, doc.ID).Return(doc, nil).Once()

		_, err := svc.Get(context.Background(), uuid.NewString(), doc.ID)
		require.ErrorIs(t, err, apperror.ErrForbidden)
	})

	t.Run("resolves references", func(t *testing.T) {
		svc, m := newMockService(t, nil, config.DocumentConfig{})
		doc := ownedDoc(owner, model.AccessPrivate)
		m.docs.On("FindByID", mock.Anything, doc.ID).Return(doc, nil).Once()
		m.users.On("FindByIDs", mock.Anything, []string{owner}).
			Return(map[string]model.UserSummary{owner: {ID: owner, Name: "Olga"}}, nil).Once()
		m.clients.On("FindByIDs", mock.Anything, []string{doc.Client.ID}).
			Return(map[string]model.ClientSummary{}, nil).Once()

		got, err := svc.Get(context.Background(), owner, doc.ID)
		require.NoError(t, err)
		require.True(t, got.CreatedBy.IsResolved())
		assert.Equal(t, "Olga", got.CreatedBy.Value.Name)
		assert.False(t, got.Client.IsResolved())
	})
}

func TestDocumentService_Update(t *testing.T) {
	owner := uuid.NewString()
	title := "Signed contract"

	t.Run("retries after a version conflict", func(t *testing.T) {
		svc, m := newMockService(t, nil, config.DocumentConfig{})
		m.expectResolve()
		doc := ownedDoc(owner, model.AccessPrivate)
		m.docs.On("FindByID", mock.Anything, doc.ID).Return(doc, nil).Twice()
		m.docs.On("Update", mock.Anything, mock.Anything).Return(nil, repository.ErrVersionConflict).Once()
		m.docs.On("Update", mock.Anything, mock.MatchedBy(func(d *model.Document) bool {
			return d.Title == title
		})).Return(&model.Document{ID: doc.ID, Title: title}, nil).Once()

		got, err := svc.Update(context.Background(), owner, doc.ID, UpdateInput{Title: &title})
		require.NoError(t, err)
		assert.Equal(t, title, got.Title)
		m.docs.AssertExpectations(t)
	})

	t.Run("gives up after the retry budget", func(t *testing.T) {
		svc, m := newMockService(t, nil, config.DocumentConfig{UpdateMaxRetries: 2})
		doc := ownedDoc(owner, model.AccessPrivate)
		m.docs.On("FindByID", mock.Anything, doc.ID).Return(doc, nil).Twice()
		m.docs.On("Update", mock.Anything, mock.Anything).Return(nil, repository.ErrVersionConflict).Twice()

		_, err := svc.Update(context.Background(), owner, doc.ID, UpdateInput{Title: &title})
		require.ErrorIs(t, err, apperror.ErrConflict)
		m.docs.AssertExpectations(t)
	})

	t.Run("non-owner", func(t *testing.T) {
		svc, m := newMockService(t, nil, config.DocumentConfig{})
		doc := ownedDoc(owner, model.AccessPublic)
		m.docs.On("FindByID", mock.Anything, doc.ID).Return(doc, nil).Once()

		_, err := svc.Update(context.Background(), uuid.NewString(), doc.ID, UpdateInput{Title: &title})
		require.ErrorIs(t, err, apperror.ErrForbidden)
		m.docs.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("moving to a foreign client", func(t *testing.T) {
		svc, m := newMockService(t, nil, config.DocumentConfig{})
		doc := ownedDoc(owner, model.AccessPrivate)
		other := uuid.NewString()
		m.docs.On("FindByID", mock.Anything, doc.ID).Return(doc, nil).Once()
		m.clients.On("FindByID", mock.Anything, other).Return(&model.Client{ID: other, CreatedBy: uuid.NewString()}, nil).Once()

		_, err := svc.Update(context.Background(), owner, doc.ID, UpdateInput{ClientID: &other})
		require.ErrorIs(t, err, apperror.ErrForbidden)
	})

	t.Run("invalid fields", func(t *testing.T) {
		svc, _ := newMockService(t, nil, config.DocumentConfig{})
		empty := ""
		level := model.AccessLevel("secret")
		_, err := svc.Update(context.Background(), owner, uuid.NewString(), UpdateInput{Title: &empty, AccessLevel: &level})
		require.ErrorIs(t, err, apperror.ErrValidation)
		assert.Len(t, apperror.FieldsOf(err), 2)
	})
}

func TestDocumentService_Delete(t *testing.T) {
	owner := uuid.NewString()

	t.Run("object failure does not block the metadata delete", func(t *testing.T) {
		svc, m := newMockService(t, nil, config.DocumentConfig{})
		doc := ownedDoc(owner, model.AccessPrivate)
		m.docs.On("FindByID", mock.Anything, doc.ID).Return(doc, nil).Once()
		m.store.On("Delete", mock.Anything, doc.File.StorageKey).Return(errors.New("store unavailable")).Once()
		m.docs.On("Delete", mock.Anything, doc.ID).Return(nil).Once()

		report, err := svc.Delete(context.Background(), owner, doc.ID)
		require.NoError(t, err)
		assert.False(t, report.ObjectDeleted)
		assert.Equal(t, "store unavailable", report.ObjectError)
		m.docs.AssertExpectations(t)
	})

	t.Run("metadata failure", func(t *testing.T) {
		svc, m := newMockService(t, nil, config.DocumentConfig{})
		doc := ownedDoc(owner, model.AccessPrivate)
		m.docs.On("FindByID", mock.Anything, doc.ID).Return(doc, nil).Once()
		m.store.On("Delete", mock.Anything, doc.File.StorageKey).Return(nil).Once()
		m.docs.On("Delete", mock.Anything, doc.ID).Return(errors.New("db down")).Once()

		_, err := svc.Delete(context.Background(), owner, doc.ID)
		require.ErrorIs(t, err, apperror.ErrDependency)
	})

	t.Run("recipient cannot delete", func(t *testing.T) {
		svc, m := newMockService(t, nil, config.DocumentConfig{})
		recipient := uuid.NewString()
		doc := ownedDoc(owner, model.AccessShared)
		doc.SharedWith = []model.Ref[model.UserSummary]{model.RefTo[model.UserSummary](recipient)}
		m.docs.On("FindByID", mock.Anything, doc.ID).Return(doc, nil).Once()

		_, err := svc.Delete(context.Background(), recipient, doc.ID)
		require.ErrorIs(t, err, apperror.ErrForbidden)
		m.store.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})
}

func TestDocumentService_Download(t *testing.T) {
	owner := uuid.NewString()

	t.Run("store unreachable", func(t *testing.T) {
		svc, m := newMockService(t, nil, config.DocumentConfig{})
		doc := ownedDoc(owner, model.AccessPrivate)
		m.docs.On("FindByID", mock.Anything, doc.ID).Return(doc, nil).Once()
		m.store.On("Get", mock.Anything, doc.File.StorageKey).Return(nil, storage.ObjectInfo{}, errors.New("dial tcp: refused")).Once()

		_, err := svc.Download(context.Background(), owner, doc.ID)
		require.ErrorIs(t, err, apperror.ErrDependency)
	})

	t.Run("object missing", func(t *testing.T) {
		svc, m := newMockService(t, nil, config.DocumentConfig{})
		doc := ownedDoc(owner, model.AccessPrivate)
		m.docs.On("FindByID", mock.Anything, doc.ID).Return(doc, nil).Once()
		m.store.On("Get", mock.Anything, doc.File.StorageKey).Return(nil, storage.ObjectInfo{}, storage.ErrObjectNotFound).Once()

		_, err := svc.Download(context.Background(), owner, doc.ID)
		require.ErrorIs(t, err, apperror.ErrConsistency)
	})

	t.Run("stream", func(t *testing.T) {
		svc, m := newMockService(t, nil, config.DocumentConfig{})
		doc := ownedDoc(owner, model.AccessPrivate)
		m.docs.On("FindByID", mock.Anything, doc.ID).Return(doc, nil).Once()
		m.store.On("Get", mock.Anything, doc.File.StorageKey).
			Return(io.NopCloser(bytes.NewReader(samplePDF)), storage.ObjectInfo{Size: int64(len(samplePDF))}, nil).Once()

		dl, err := svc.Download(context.Background(), owner, doc.ID)
		require.NoError(t, err)
		defer dl.Body.Close()
		assert.Equal(t, "draft.pdf", dl.FileName)
		assert.Equal(t, MimePDF, dl.ContentType)
		assert.Equal(t, int64(len(samplePDF)), dl.Size)
	})
}

func TestDocumentService_DownloadURL(t *testing.T) {
	owner := uuid.NewString()
	fixed := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	t.Run("object missing is checked before presigning", func(t *testing.T) {
		svc, m := newMockService(t, nil, config.DocumentConfig{})
		doc := ownedDoc(owner, model.AccessPrivate)
		m.docs.On("FindByID", mock.Anything, doc.ID).Return(doc, nil).Once()
		m.store.On("Stat", mock.Anything, doc.File.StorageKey).Return(storage.ObjectInfo{}, storage.ErrObjectNotFound).Once()

		_, err := svc.DownloadURL(context.Background(), owner, doc.ID)
		require.ErrorIs(t, err, apperror.ErrConsistency)
		m.store.AssertNotCalled(t, "PresignGet", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("presigned for the configured ttl", func(t *testing.T) {
		svc, m := newMockService(t, nil, config.DocumentConfig{DownloadURLTTL: 5 * time.Minute})
		svc.now = func() time.Time { return fixed }
		doc := ownedDoc(owner, model.AccessPrivate)
		m.docs.On("FindByID", mock.Anything, doc.ID).Return(doc, nil).Once()
		m.store.On("Stat", mock.Anything, doc.File.StorageKey).Return(storage.ObjectInfo{Key: doc.File.StorageKey}, nil).Once()
		m.store.On("PresignGet", mock.Anything, doc.File.StorageKey, 5*time.Minute).Return("https://objects.local/signed", nil).Once()

		link, err := svc.DownloadURL(context.Background(), owner, doc.ID)
		require.NoError(t, err)
		assert.Equal(t, "https://objects.local/signed", link.URL)
		assert.True(t, link.ExpiresAt.Equal(fixed.Add(5*time.Minute)))
		m.store.AssertExpectations(t)
	})
}

func TestDocumentService_Share(t *testing.T) {
	owner := uuid.NewString()

	t.Run("requires targets", func(t *testing.T) {
		svc, _ := newMockService(t, nil, config.DocumentConfig{})
		_, err := svc.Share(context.Background(), owner, uuid.NewString(), nil)
		require.ErrorIs(t, err, apperror.ErrValidation)
	})

	t.Run("malformed target", func(t *testing.T) {
		svc, m := newMockService(t, nil, config.DocumentConfig{})
		_, err := svc.Share(context.Background(), owner, uuid.NewString(), []string{"bob"})
		require.ErrorIs(t, err, apperror.ErrValidation)
		assert.Equal(t, "invalid user ID format: bob", apperror.FieldsOf(err)[0].Message)
		m.docs.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
	})

	t.Run("unknown target", func(t *testing.T) {
		svc, m := newMockService(t, nil, config.DocumentConfig{})
		doc := ownedDoc(owner, model.AccessPrivate)
		ghost := uuid.NewString()
		m.docs.On("FindByID", mock.Anything, doc.ID).Return(doc, nil).Once()
		m.users.On("FindByIDs", mock.Anything, []string{owner, ghost}).
			Return(map[string]model.UserSummary{owner: {ID: owner}}, nil).Once()

		_, err := svc.Share(context.Background(), owner, doc.ID, []string{ghost})
		require.ErrorIs(t, err, apperror.ErrValidation)
		m.docs.AssertNotCalled(t, "AddShares", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("failed notification is reported, not fatal", func(t *testing.T) {
		ok, broken := uuid.NewString(), uuid.NewString()
		var (
			mu   sync.Mutex
			sent []string
		)
		notifier := notifierFunc(func(_ context.Context, n *model.Notification) (*model.Notification, error) {
			if n.UserID == broken {
				return nil, errors.New("notifications table locked")
			}
			mu.Lock()
			sent = append(sent, n.UserID)
			mu.Unlock()
			assert.Equal(t, "Document Shared with You", n.Title)
			assert.Equal(t, `Olga shared document "Contract draft" with you`, n.Message)
			assert.Equal(t, model.NotificationDocumentShared, n.Type)
			assert.Equal(t, owner, n.FromUser.ID)
			return n, nil
		})
		svc, m := newMockService(t, notifier, config.DocumentConfig{})
		doc := ownedDoc(owner, model.AccessPrivate)
		m.docs.On("FindByID", mock.Anything, doc.ID).Return(doc, nil)
		m.users.On("FindByIDs", mock.Anything, []string{owner, ok, broken}).Return(map[string]model.UserSummary{
			owner:  {ID: owner, Name: "Olga"},
			ok:     {ID: ok},
			broken: {ID: broken},
		}, nil).Once()
		m.expectResolve()
		m.docs.On("AddShares", mock.Anything, doc.ID, []string{ok, broken}).Return([]string{ok, broken}, nil).Once()

		res, err := svc.Share(context.Background(), owner, doc.ID, []string{ok, broken, ok})
		require.NoError(t, err)
		assert.Equal(t, []string{ok, broken}, res.Report.Added)
		assert.Equal(t, []string{ok}, res.Report.Notified)
		require.Len(t, res.Report.Failures, 1)
		assert.Equal(t, broken, res.Report.Failures[0].RecipientID)
		assert.Equal(t, []string{ok}, sent)
	})

	t.Run("already shared recipients are not notified again", func(t *testing.T) {
		calls := 0
		notifier := notifierFunc(func(_ context.Context, n *model.Notification) (*model.Notification, error) {
			calls++
			return n, nil
		})
		svc, m := newMockService(t, notifier, config.DocumentConfig{})
		doc := ownedDoc(owner, model.AccessShared)
		target := uuid.NewString()
		m.docs.On("FindByID", mock.Anything, doc.ID).Return(doc, nil)
		m.users.On("FindByIDs", mock.Anything, []string{owner, target}).
			Return(map[string]model.UserSummary{owner: {ID: owner}, target: {ID: target}}, nil).Once()
		m.expectResolve()
		m.docs.On("AddShares", mock.Anything, doc.ID, []string{target}).Return([]string{}, nil).Once()

		res, err := svc.Share(context.Background(), owner, doc.ID, []string{target})
		require.NoError(t, err)
		assert.Empty(t, res.Report.Added)
		assert.Zero(t, calls)
	})
}

func TestStorageKey(t *testing.T) {
	key := storageKey("documents", "../Q4 Report..final.PDF", ".pdf", 1700000000000)
	assert.True(t, strings.HasPrefix(key, "documents/q4_report.final-1700000000000-"), key)
	assert.True(t, strings.HasSuffix(key, ".pdf"))
	assert.NotContains(t, strings.TrimPrefix(key, "documents/"), "/")

	assert.True(t, strings.HasPrefix(storageKey("documents", ".png", ".png", 1), "documents/file-1-"))
}

func TestDetectType(t *testing.T) {
	zipHead := []byte("PK\x03\x04\x14\x00\x06\x00\x08\x00\x00\x00!\x00")

	tests := []struct {
		name     string
		head     []byte
		declared string
		fileName string
		want     string
		ok       bool
	}{
		{name: "pdf", head: samplePDF, want: MimePDF, ok: true},
		{name: "png", head: samplePNG, want: MimePNG, ok: true},
		{name: "zip declared docx", head: zipHead, declared: MimeDOCX, want: MimeDOCX, ok: true},
		{name: "zip with docx extension", head: zipHead, fileName: "offer.DOCX", want: MimeDOCX, ok: true},
		{name: "plain zip", head: zipHead, fileName: "archive.zip"},
		{name: "text", head: []byte("hello"), declared: MimePDF},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := detectType(tc.head, tc.declared, tc.fileName)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}
