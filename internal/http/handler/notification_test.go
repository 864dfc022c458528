package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"clientdocs/internal/apperror"
	"clientdocs/internal/model"
	serviceMocks "clientdocs/internal/service/mocks"
)

func TestListNotifications(t *testing.T) {
	mockSvc := new(serviceMocks.MockNotificationService)
	app := newApp()
	app.Get("/notifications", ListNotifications(mockSvc))

	items := []model.Notification{{
		ID:        uuid.New().String(),
		UserID:    principal,
		Type:      model.NotificationDocumentShared,
		Title:     "Document Shared with You",
		Document:  model.Resolved(uuid.New().String(), model.DocumentSummary{Title: "Offer", Category: model.CategoryProposal}),
		FromUser:  model.RefTo[model.UserSummary](uuid.New().String()),
		CreatedAt: time.Now().UTC(),
	}}

	t.Run("unread only", func(t *testing.T) {
		mockSvc.On("List", mock.Anything, principal, true).Return(items, nil).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/notifications?unreadOnly=true", nil))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		body := decode(t, resp)
		assert.Equal(t, 1, *body.Count)
		var got []model.Notification
		require.NoError(t, json.Unmarshal(body.Data, &got))
		require.True(t, got[0].Document.IsResolved())
		assert.Equal(t, "Offer", got[0].Document.Value.Title)
		mockSvc.AssertExpectations(t)
	})

	t.Run("all", func(t *testing.T) {
		mockSvc.On("List", mock.Anything, principal, false).Return(items, nil).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/notifications", nil))
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})
}

func TestUnreadCount(t *testing.T) {
	mockSvc := new(serviceMocks.MockNotificationService)
	app := newApp()
	app.Get("/notifications/unread/count", UnreadCount(mockSvc))

	mockSvc.On("UnreadCount", mock.Anything, principal).Return(7, nil).Once()

	resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/notifications/unread/count", nil))

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"count":7}`, string(decode(t, resp).Data))
}

func TestMarkNotificationRead(t *testing.T) {
	mockSvc := new(serviceMocks.MockNotificationService)
	app := newApp()
	app.Put("/notifications/:id/read", MarkNotificationRead(mockSvc))

	t.Run("success", func(t *testing.T) {
		id := uuid.New().String()
		mockSvc.On("MarkRead", mock.Anything, principal, id).Return(&model.Notification{ID: id, UserID: principal, IsRead: true}, nil).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodPut, "/notifications/"+id+"/read", nil))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var n model.Notification
		require.NoError(t, json.Unmarshal(decode(t, resp).Data, &n))
		assert.True(t, n.IsRead)
	})

	t.Run("someone else's notification", func(t *testing.T) {
		id := uuid.New().String()
		mockSvc.On("MarkRead", mock.Anything, principal, id).Return(nil, apperror.Forbidden("not authorized to update this notification")).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodPut, "/notifications/"+id+"/read", nil))
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("unhyphenated id is canonicalised", func(t *testing.T) {
		id := uuid.New().String()
		mockSvc.On("MarkRead", mock.Anything, principal, id).Return(&model.Notification{ID: id, UserID: principal, IsRead: true}, nil).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodPut, "/notifications/"+strings.ReplaceAll(id, "-", "")+"/read", nil))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("invalid id", func(t *testing.T) {
		resp, _ := app.Test(httptest.NewRequest(http.MethodPut, "/notifications/42/read", nil))

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INVALID_ID", decode(t, resp).Code)
	})
}

func TestMarkAllNotificationsRead(t *testing.T) {
	mockSvc := new(serviceMocks.MockNotificationService)
	app := newApp()
	app.Put("/notifications/read-all", MarkAllNotificationsRead(mockSvc))

	t.Run("success", func(t *testing.T) {
		mockSvc.On("MarkAllRead", mock.Anything, principal).Return(int64(2), nil).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodPut, "/notifications/read-all", nil))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.JSONEq(t, `{"updatedCount":2}`, string(decode(t, resp).Data))
	})

	t.Run("store down", func(t *testing.T) {
		mockSvc.On("MarkAllRead", mock.Anything, principal).Return(int64(0), apperror.Dependency("failed to update notifications", errors.New("timeout"))).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodPut, "/notifications/read-all", nil))
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	})
}
