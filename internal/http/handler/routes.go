package handler

import (
	"database/sql"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"

	"clientdocs/internal/service"
)

// RegisterRoutes attaches HTTP routes to the provided Fiber app. auth guards the
// document and notification routes; a nil auth leaves them open, which only tests do.
func RegisterRoutes(app *fiber.App, db *sql.DB, docSvc service.DocumentService, notifSvc service.NotificationService, auth fiber.Handler) {
	app.Get("/swagger/*", swagger.HandlerDefault)

	app.Get("/health", HealthCheck(db))
	app.Get("/healthz", LivenessProbe())

	var guard []fiber.Handler
	if auth != nil {
		guard = append(guard, auth)
	}

	docs := app.Group("/documents", guard...)
	docs.Get("", ListDocuments(docSvc))
	docs.Post("", UploadDocument(docSvc))
	docs.Get("/:id", GetDocument(docSvc))
	docs.Put("/:id", UpdateDocument(docSvc))
	docs.Delete("/:id", DeleteDocument(docSvc))
	docs.Post("/:id/share", ShareDocument(docSvc))
	docs.Get("/:id/download", DownloadDocument(docSvc))
	docs.Get("/:id/download-url", DownloadURL(docSvc))

	notes := app.Group("/notifications", guard...)
	notes.Get("", ListNotifications(notifSvc))
	notes.Get("/unread/count", UnreadCount(notifSvc))
	notes.Put("/read-all", MarkAllNotificationsRead(notifSvc))
	notes.Put("/:id/read", MarkNotificationRead(notifSvc))
}
