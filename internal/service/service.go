// Package service implements the document and notification use cases on top of
// the repositories, the object store and the access policy.
package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"clientdocs/internal/apperror"
	"clientdocs/internal/repository"
)

var tracer = otel.Tracer("clientdocs/internal/service")

func startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// finishSpan records err on span and ends it. Client errors are not span errors.
func finishSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		switch apperror.KindOf(err) {
		case apperror.KindInternal, apperror.KindDependency, apperror.KindConsistency:
			span.SetStatus(codes.Error, err.Error())
		}
	}
	span.End()
}

// canonicalID rejects identifiers that are not UUIDs before they reach a repository
// and returns the lowercase hyphenated form repositories store and compare.
func canonicalID(field, id, message string) (string, error) {
	u, err := uuid.Parse(id)
	if err != nil {
		return "", apperror.Validation("validation error", apperror.FieldError{Field: field, Message: message})
	}
	return u.String(), nil
}

// repoError translates repository sentinels into caller-facing errors.
func repoError(err error, notFound string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperror.NotFound(notFound)
	}
	return apperror.Dependency("repository failure", err)
}
