package model

import "time"

// NotificationType identifies what triggered a notification.
type NotificationType string

const NotificationDocumentShared NotificationType = "document_shared"

// Notification tells a principal that something happened to them, such as a document
// being shared. Only the recipient (UserID) may change it, and only IsRead changes.
type Notification struct {
	ID        string               `json:"id"`
	UserID    string               `json:"userId"`
	Type      NotificationType     `json:"type"`
	Title     string               `json:"title"`
	Message   string               `json:"message"`
	Document  Ref[DocumentSummary] `json:"document"`
	FromUser  Ref[UserSummary]     `json:"fromUser"`
	IsRead    bool                 `json:"isRead"`
	CreatedAt time.Time            `json:"createdAt"`
}
