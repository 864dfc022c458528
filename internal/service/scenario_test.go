package service

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clientdocs/internal/apperror"
	"clientdocs/internal/config"
	"clientdocs/internal/model"
	"clientdocs/internal/query"
	"clientdocs/internal/repository/memory"
	"clientdocs/internal/storage"
)

var samplePDF = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n<< /Root 1 0 R >>\n%%EOF\n")

type fixture struct {
	docs          *memory.Documents
	notes         *memory.Notifications
	users         *memory.Users
	clients       *memory.Clients
	store         *storage.Memory
	svc           DocumentService
	notifications NotificationService

	u1, u2, u3 string
	client     string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		docs:    memory.NewDocuments(),
		notes:   memory.NewNotifications(),
		store:   storage.NewMemory(),
		u1:      uuid.NewString(),
		u2:      uuid.NewString(),
		u3:      uuid.NewString(),
		client:  uuid.NewString(),
		clients: memory.NewClients(),
	}
	f.users = memory.NewUsers(
		model.UserSummary{ID: f.u1, Name: "Ulla One", Email: "u1@example.com"},
		model.UserSummary{ID: f.u2, Name: "Udo Two", Email: "u2@example.com"},
		model.UserSummary{ID: f.u3, Name: "Una Three", Email: "u3@example.com"},
	)
	f.clients.Put(model.Client{ID: f.client, Name: "Kestrel Ltd", Email: "hi@kestrel.test", Company: "Kestrel", CreatedBy: f.u1})

	f.notifications = NewNotificationService(NotificationDeps{
		Notifications: f.notes,
		Documents:     f.docs,
		Users:         f.users,
	}, 50)
	f.svc = NewDocumentService(DocumentDeps{
		Store:     f.store,
		Documents: f.docs,
		Users:     f.users,
		Clients:   f.clients,
		Notifier:  f.notifications,
	}, config.DocumentConfig{})
	return f
}

func (f *fixture) upload(t *testing.T, owner, title string) *model.Document {
	t.Helper()
	doc, err := f.svc.Upload(context.Background(), owner, UploadInput{
		Title:       title,
		Category:    model.CategoryReport,
		AccessLevel: model.AccessPrivate,
		ClientID:    f.client,
		FileName:    title + ".pdf",
		ContentType: MimePDF,
		Size:        int64(len(samplePDF)),
		Content:     bytes.NewReader(samplePDF),
	})
	require.NoError(t, err)
	return doc
}

func (f *fixture) list(t *testing.T, principal string, p query.Params) []model.Document {
	t.Helper()
	docs, err := f.svc.List(context.Background(), principal, p)
	require.NoError(t, err)
	return docs
}

func TestScenario_PrivateUploadIsOwnerOnly(t *testing.T) {
	f := newFixture(t)
	doc := f.upload(t, f.u1, "Q4 Report")

	assert.Equal(t, model.AccessPrivate, doc.AccessLevel)
	assert.Equal(t, "application/pdf", doc.File.FileType)
	assert.True(t, f.store.Has(doc.File.StorageKey))
	require.True(t, doc.Client.IsResolved())
	assert.Equal(t, "Kestrel Ltd", doc.Client.Value.Name)

	assert.Len(t, f.list(t, f.u1, query.Params{}), 1)
	assert.Len(t, f.list(t, f.u2, query.Params{}), 0)
}

func TestScenario_ShareGrantsReadAndNotifiesOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	doc := f.upload(t, f.u1, "Q4 Report")

	res, err := f.svc.Share(ctx, f.u1, doc.ID, []string{f.u2})
	require.NoError(t, err)
	assert.Equal(t, model.AccessShared, res.Document.AccessLevel)
	assert.Equal(t, []string{f.u2}, res.Document.SharedWithIDs())
	require.True(t, res.Document.SharedWith[0].IsResolved())
	assert.Equal(t, "Udo Two", res.Document.SharedWith[0].Value.Name)
	assert.Equal(t, []string{f.u2}, res.Report.Notified)

	shared := f.list(t, f.u2, query.Params{AccessLevel: "shared"})
	require.Len(t, shared, 1)
	assert.Equal(t, doc.ID, shared[0].ID)

	items, err := f.notifications.List(ctx, f.u2, false)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, f.u2, items[0].UserID)
	assert.Equal(t, doc.ID, items[0].Document.ID)
	require.True(t, items[0].Document.IsResolved())
	assert.Equal(t, "Q4 Report", items[0].Document.Value.Title)
	require.True(t, items[0].FromUser.IsResolved())
	assert.Equal(t, "Ulla One", items[0].FromUser.Value.Name)
	assert.Equal(t, `Ulla One shared document "Q4 Report" with you`, items[0].Message)
}

func TestScenario_OnlyOwnerDeletes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	doc := f.upload(t, f.u1, "Q4 Report")
	_, err := f.svc.Share(ctx, f.u1, doc.ID, []string{f.u2})
	require.NoError(t, err)

	_, err = f.svc.Delete(ctx, f.u2, doc.ID)
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	report, err := f.svc.Delete(ctx, f.u1, doc.ID)
	require.NoError(t, err)
	assert.True(t, report.ObjectDeleted)
	assert.False(t, f.store.Has(doc.File.StorageKey))

	_, err = f.svc.Get(ctx, f.u1, doc.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	_, err = f.svc.Get(ctx, f.u2, doc.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestScenario_PublicIsReadableNotWritable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	doc := f.upload(t, f.u1, "Q4 Report")

	public := model.AccessPublic
	updated, err := f.svc.Update(ctx, f.u1, doc.ID, UpdateInput{AccessLevel: &public})
	require.NoError(t, err)
	assert.Equal(t, model.AccessPublic, updated.AccessLevel)

	got, err := f.svc.Get(ctx, f.u3, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, doc.ID, got.ID)

	dl, err := f.svc.Download(ctx, f.u3, doc.ID)
	require.NoError(t, err)
	body, err := io.ReadAll(dl.Body)
	dl.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, samplePDF, body)
	assert.Equal(t, "Q4 Report.pdf", dl.FileName)
	assert.Equal(t, MimePDF, dl.ContentType)

	title := "Hijacked"
	_, err = f.svc.Update(ctx, f.u3, doc.ID, UpdateInput{Title: &title})
	assert.ErrorIs(t, err, apperror.ErrForbidden)
	_, err = f.svc.Delete(ctx, f.u3, doc.ID)
	assert.ErrorIs(t, err, apperror.ErrForbidden)
	_, err = f.svc.Share(ctx, f.u3, doc.ID, []string{f.u2})
	assert.ErrorIs(t, err, apperror.ErrForbidden)
}

func TestShare_RepeatedShareNotifiesOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	doc := f.upload(t, f.u1, "Q4 Report")

	_, err := f.svc.Share(ctx, f.u1, doc.ID, []string{f.u2})
	require.NoError(t, err)
	res, err := f.svc.Share(ctx, f.u1, doc.ID, []string{f.u2})
	require.NoError(t, err)
	assert.Empty(t, res.Report.Added)
	assert.Empty(t, res.Report.Notified)

	count, err := f.notifications.UnreadCount(ctx, f.u2)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestShare_TargetSpellingIsCanonicalised(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	doc := f.upload(t, f.u1, "Q4 Report")

	res, err := f.svc.Share(ctx, f.u1, doc.ID, []string{strings.ToUpper(f.u2), f.u2})
	require.NoError(t, err)
	assert.Equal(t, []string{f.u2}, res.Report.Added)
	assert.Equal(t, []string{f.u2}, res.Report.Notified)
	assert.Equal(t, []string{f.u2}, res.Document.SharedWithIDs())

	count, err := f.notifications.UnreadCount(ctx, f.u2)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestScenario_UppercaseDocumentIDReachesOwnDocument(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	doc := f.upload(t, f.u1, "Q4 Report")
	upper := strings.ToUpper(doc.ID)

	got, err := f.svc.Get(ctx, f.u1, upper)
	require.NoError(t, err)
	assert.Equal(t, doc.ID, got.ID)

	title := "Q4 Report (final)"
	client := strings.ToUpper(f.client)
	updated, err := f.svc.Update(ctx, f.u1, upper, UpdateInput{Title: &title, ClientID: &client})
	require.NoError(t, err)
	assert.Equal(t, title, updated.Title)
	assert.Equal(t, f.client, updated.Client.ID)

	_, err = f.svc.Delete(ctx, f.u1, upper)
	require.NoError(t, err)
	assert.False(t, f.store.Has(doc.File.StorageKey))
}

func TestScenario_ListWithoutPrincipalIsUnauthorized(t *testing.T) {
	f := newFixture(t)
	f.upload(t, f.u1, "Q4 Report")

	docs, err := f.svc.List(context.Background(), "", query.Params{})
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)
	assert.Empty(t, docs)
}

func TestShare_NeverDropsRecipients(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	doc := f.upload(t, f.u1, "Q4 Report")

	_, err := f.svc.Share(ctx, f.u1, doc.ID, []string{f.u2})
	require.NoError(t, err)
	res, err := f.svc.Share(ctx, f.u1, doc.ID, []string{f.u3})
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{f.u2, f.u3}, res.Document.SharedWithIDs())
}

func TestShare_OwnerAmongTargetsIsNotNotified(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	doc := f.upload(t, f.u1, "Q4 Report")

	res, err := f.svc.Share(ctx, f.u1, doc.ID, []string{f.u1, f.u2})
	require.NoError(t, err)
	assert.Equal(t, []string{f.u2}, res.Report.Notified)

	count, err := f.notifications.UnreadCount(ctx, f.u1)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestShare_PromotesPublicToShared(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	doc := f.upload(t, f.u1, "Q4 Report")
	public := model.AccessPublic
	_, err := f.svc.Update(ctx, f.u1, doc.ID, UpdateInput{AccessLevel: &public})
	require.NoError(t, err)

	_, err = f.svc.Share(ctx, f.u1, doc.ID, []string{f.u2})
	require.NoError(t, err)

	_, err = f.svc.Get(ctx, f.u3, doc.ID)
	assert.ErrorIs(t, err, apperror.ErrForbidden)
}

func TestShare_StaleRecipientsIgnoredAfterLevelChange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	doc := f.upload(t, f.u1, "Q4 Report")
	_, err := f.svc.Share(ctx, f.u1, doc.ID, []string{f.u2})
	require.NoError(t, err)

	private := model.AccessPrivate
	updated, err := f.svc.Update(ctx, f.u1, doc.ID, UpdateInput{AccessLevel: &private})
	require.NoError(t, err)
	assert.Equal(t, []string{f.u2}, updated.SharedWithIDs())

	_, err = f.svc.Get(ctx, f.u2, doc.ID)
	assert.ErrorIs(t, err, apperror.ErrForbidden)
	assert.Empty(t, f.list(t, f.u2, query.Params{}))
}

func TestSearch_IsLiteral(t *testing.T) {
	f := newFixture(t)
	f.upload(t, f.u1, "plan a.*b")
	f.upload(t, f.u1, "plan axxb")

	found := f.list(t, f.u1, query.Params{Search: ".*"})
	require.Len(t, found, 1)
	assert.Equal(t, "plan a.*b", found[0].Title)

	assert.Len(t, f.list(t, f.u1, query.Params{Search: "PLAN"}), 2)
	assert.Len(t, f.list(t, f.u1, query.Params{Search: "   "}), 2)
}

func TestShare_ConcurrentSharesNotifyEachRecipientOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	doc := f.upload(t, f.u1, "Q4 Report")

	const workers = 16
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Share(ctx, f.u1, doc.ID, []string{f.u2, f.u3})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	for _, u := range []string{f.u2, f.u3} {
		items, err := f.notifications.List(ctx, u, false)
		require.NoError(t, err)
		assert.Len(t, items, 1)
	}

	got, err := f.svc.Get(ctx, f.u1, doc.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{f.u2, f.u3}, got.SharedWithIDs())
}

func TestDownload_MissingObjectIsConsistencyError(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	doc := f.upload(t, f.u1, "Q4 Report")
	require.NoError(t, f.store.Delete(ctx, doc.File.StorageKey))

	_, err := f.svc.Download(ctx, f.u1, doc.ID)
	assert.ErrorIs(t, err, apperror.ErrConsistency)
	assert.NotErrorIs(t, err, apperror.ErrNotFound)

	_, err = f.svc.DownloadURL(ctx, f.u1, doc.ID)
	assert.ErrorIs(t, err, apperror.ErrConsistency)

	report, err := f.svc.Delete(ctx, f.u1, doc.ID)
	require.NoError(t, err)
	assert.True(t, report.ObjectDeleted)
}

func TestDownloadURL(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	doc := f.upload(t, f.u1, "Q4 Report")

	link, err := f.svc.DownloadURL(ctx, f.u1, doc.ID)
	require.NoError(t, err)
	assert.Contains(t, link.URL, doc.File.StorageKey)
	assert.False(t, link.ExpiresAt.IsZero())

	_, err = f.svc.DownloadURL(ctx, f.u2, doc.ID)
	assert.ErrorIs(t, err, apperror.ErrForbidden)
}
