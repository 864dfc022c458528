package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"clientdocs/internal/http/middleware"
	"clientdocs/internal/service"
)

// ListNotifications returns the caller's newest notifications.
//
//	@Summary	List notifications
//	@Tags		notifications
//	@Security	BearerAuth
//	@Produce	json
//	@Param		unreadOnly	query		bool	false	"only unread"
//	@Success	200			{object}	envelope{data=[]model.Notification}
//	@Router		/notifications [get]
func ListNotifications(svc service.NotificationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		items, err := svc.List(c.UserContext(), middleware.PrincipalID(c), c.QueryBool("unreadOnly", false))
		if err != nil {
			return writeAppError(c, err)
		}
		return writeList(c, items, len(items))
	}
}

// UnreadCount returns how many of the caller's notifications are unread.
//
//	@Summary	Unread notification count
//	@Tags		notifications
//	@Security	BearerAuth
//	@Produce	json
//	@Success	200	{object}	envelope
//	@Router		/notifications/unread/count [get]
func UnreadCount(svc service.NotificationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		n, err := svc.UnreadCount(c.UserContext(), middleware.PrincipalID(c))
		if err != nil {
			return writeAppError(c, err)
		}
		return writeData(c, fiber.StatusOK, "", fiber.Map{"count": n})
	}
}

// MarkNotificationRead marks one of the caller's notifications as read.
//
//	@Summary	Mark a notification read
//	@Tags		notifications
//	@Security	BearerAuth
//	@Produce	json
//	@Param		id	path		string	true	"notification UUID"
//	@Success	200	{object}	envelope{data=model.Notification}
//	@Failure	403	{object}	envelope
//	@Failure	404	{object}	envelope
//	@Router		/notifications/{id}/read [put]
func MarkNotificationRead(svc service.NotificationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		n, err := svc.MarkRead(c.UserContext(), middleware.PrincipalID(c), id.String())
		if err != nil {
			return writeAppError(c, err)
		}
		return writeData(c, fiber.StatusOK, "notification marked as read", n)
	}
}

// MarkAllNotificationsRead marks every unread notification of the caller.
//
//	@Summary	Mark all notifications read
//	@Tags		notifications
//	@Security	BearerAuth
//	@Produce	json
//	@Success	200	{object}	envelope
//	@Router		/notifications/read-all [put]
func MarkAllNotificationsRead(svc service.NotificationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		n, err := svc.MarkAllRead(c.UserContext(), middleware.PrincipalID(c))
		if err != nil {
			return writeAppError(c, err)
		}
		return writeData(c, fiber.StatusOK, "all notifications marked as read", fiber.Map{"updatedCount": n})
	}
}
