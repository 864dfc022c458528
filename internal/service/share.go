package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"clientdocs/internal/apperror"
	"clientdocs/internal/model"
	"clientdocs/internal/policy"
)

// Notifier records a notification for its recipient.
type Notifier interface {
	Notify(ctx context.Context, n *model.Notification) (*model.Notification, error)
}

// ShareResult is the shared document, resolved, plus what happened on the way.
type ShareResult struct {
	Document *model.Document `json:"document"`
	Report   ShareReport     `json:"report"`
}

// ShareReport lists the recipients that were new to the document, those that got a
// notification, and the notifications that could not be created. A failed
// notification never undoes the share.
type ShareReport struct {
	Added    []string              `json:"added"`
	Notified []string              `json:"notified"`
	Failures []NotificationFailure `json:"failures"`
}

// NotificationFailure is one recipient whose notification was not created.
type NotificationFailure struct {
	RecipientID string `json:"recipientId"`
	Error       string `json:"error"`
}

const shareNotificationTitle = "Document Shared with You"

func (s *documentService) Share(ctx context.Context, principalID, id string, targetIDs []string) (_ *ShareResult, err error) {
	ctx, span := startSpan(ctx, "DocumentService.Share",
		attribute.String("document.id", id),
		attribute.Int("share.targets", len(targetIDs)),
	)
	defer func() { finishSpan(span, err) }()

	targets, err := normalizeTargets(targetIDs)
	if err != nil {
		return nil, err
	}

	doc, err := s.load(ctx, principalID, id, policy.OpShare)
	if err != nil {
		return nil, err
	}

	users, err := s.users.FindByIDs(ctx, append([]string{principalID}, targets...))
	if err != nil {
		return nil, apperror.Dependency("failed to load users", err)
	}
	var unknown []apperror.FieldError
	for _, t := range targets {
		if _, ok := users[t]; !ok {
			unknown = append(unknown, apperror.FieldError{Field: "targetPrincipalIds", Message: "user " + t + " does not exist"})
		}
	}
	if len(unknown) > 0 {
		return nil, apperror.Validation("validation error", unknown...)
	}

	// The repository adds to the set atomically and reports which recipients were
	// not members before; that list, not a prior read, decides who is notified.
	added, err := s.docs.AddShares(ctx, doc.ID, targets)
	if err != nil {
		return nil, repoError(err, "document not found")
	}
	s.metrics.DocumentShared()

	report := ShareReport{
		Added:    added,
		Notified: []string{},
		Failures: []NotificationFailure{},
	}
	actorName := displayName(users[principalID])
	for _, recipient := range added {
		if recipient == principalID {
			continue
		}
		_, nerr := s.notifier.Notify(ctx, &model.Notification{
			ID:        uuid.NewString(),
			UserID:    recipient,
			Type:      model.NotificationDocumentShared,
			Title:     shareNotificationTitle,
			Message:   fmt.Sprintf("%s shared document %q with you", actorName, doc.Title),
			Document:  model.RefTo[model.DocumentSummary](doc.ID),
			FromUser:  model.RefTo[model.UserSummary](principalID),
			CreatedAt: s.now(),
		})
		if nerr != nil {
			s.metrics.ShareNotification(false)
			s.log.Warn("failed to create share notification",
				zap.String("document_id", doc.ID),
				zap.String("recipient_id", recipient),
				zap.Error(nerr),
			)
			report.Failures = append(report.Failures, NotificationFailure{RecipientID: recipient, Error: nerr.Error()})
			continue
		}
		s.metrics.ShareNotification(true)
		report.Notified = append(report.Notified, recipient)
	}

	shared, err := s.docs.FindByID(ctx, doc.ID)
	if err != nil {
		return nil, repoError(err, "document not found")
	}
	if err := s.resolve.document(ctx, shared); err != nil {
		return nil, err
	}
	return &ShareResult{Document: shared, Report: report}, nil
}

// normalizeTargets validates recipient IDs, canonicalises them and de-duplicates,
// keeping first-seen order.
func normalizeTargets(ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, apperror.Validation("validation error",
			apperror.FieldError{Field: "targetPrincipalIds", Message: "at least one user ID is required"})
	}
	var fields []apperror.FieldError
	canonical := make([]string, 0, len(ids))
	for _, id := range ids {
		u, err := uuid.Parse(id)
		if err != nil {
			fields = append(fields, apperror.FieldError{Field: "targetPrincipalIds", Message: "invalid user ID format: " + id})
			continue
		}
		canonical = append(canonical, u.String())
	}
	if len(fields) > 0 {
		return nil, apperror.Validation("validation error", fields...)
	}
	return unique(canonical), nil
}

func displayName(u model.UserSummary) string {
	switch {
	case u.Name != "":
		return u.Name
	case u.Email != "":
		return u.Email
	default:
		return "Someone"
	}
}
