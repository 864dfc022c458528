package apperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsMatchesKind(t *testing.T) {
	err := fmt.Errorf("loading: %w", NotFound("document not found"))

	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrForbidden))
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.Equal(t, "document not found", MessageOf(err, "fallback"))
}

func TestUnwrapKeepsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Dependency("object store unavailable", cause)

	assert.True(t, errors.Is(err, cause))
	assert.True(t, errors.Is(err, ErrDependency))
	assert.Equal(t, "object store unavailable: connection refused", err.Error())
}

func TestFieldsOf(t *testing.T) {
	err := Validation("validation error", FieldError{Field: "title", Message: "required"})

	assert.Len(t, FieldsOf(err), 1)
	assert.Nil(t, FieldsOf(errors.New("plain")))
	assert.Equal(t, KindInternal, KindOf(errors.New("plain")))
	assert.Equal(t, "fallback", MessageOf(errors.New("plain"), "fallback"))
}
