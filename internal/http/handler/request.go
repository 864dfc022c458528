package handler

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"clientdocs/internal/apperror"
	"clientdocs/internal/model"
	"clientdocs/internal/service"
)

var (
	titlePattern = regexp.MustCompile(`^[a-zA-Z0-9\s\-_]+$`)
	htmlTag      = regexp.MustCompile(`<[^>]*>`)
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name, _, _ := strings.Cut(f.Tag.Get(tag), ",")
			if name != "" && name != "-" {
				return name
			}
		}
		return f.Name
	})
	_ = v.RegisterValidation("doctitle", func(fl validator.FieldLevel) bool {
		return titlePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("nohtml", func(fl validator.FieldLevel) bool {
		return !htmlTag.MatchString(fl.Field().String())
	})
	return v
}

// uploadForm is the metadata part of a multipart upload.
type uploadForm struct {
	Title       string `form:"title" validate:"required,min=3,max=100,doctitle"`
	Description string `form:"description" validate:"max=300,nohtml"`
	Category    string `form:"category" validate:"required,oneof=Proposal Invoice Report Contract"`
	AccessLevel string `form:"accessLevel" validate:"omitempty,oneof=private shared public"`
	ClientID    string `form:"clientId" validate:"required,uuid"`
}

// updateRequest is the body of PUT /documents/:id; absent fields are left unchanged.
type updateRequest struct {
	Title       *string `json:"title" validate:"omitnil,min=3,max=100,doctitle"`
	Description *string `json:"description" validate:"omitnil,max=300,nohtml"`
	Category    *string `json:"category" validate:"omitnil,oneof=Proposal Invoice Report Contract"`
	AccessLevel *string `json:"accessLevel" validate:"omitnil,oneof=private shared public"`
	ClientID    *string `json:"clientId" validate:"omitnil,uuid"`
}

func (r updateRequest) input() service.UpdateInput {
	in := service.UpdateInput{
		Title:       r.Title,
		Description: r.Description,
		ClientID:    r.ClientID,
	}
	if r.Category != nil {
		c := model.Category(*r.Category)
		in.Category = &c
	}
	if r.AccessLevel != nil {
		a := model.AccessLevel(*r.AccessLevel)
		in.AccessLevel = &a
	}
	return in
}

// shareRequest accepts the recipients as targetPrincipalIds or, for older clients, userIds.
type shareRequest struct {
	TargetPrincipalIDs []string `json:"targetPrincipalIds"`
	UserIDs            []string `json:"userIds"`
}

func (r shareRequest) targets() []string {
	if len(r.TargetPrincipalIDs) > 0 {
		return r.TargetPrincipalIDs
	}
	return r.UserIDs
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	return &t
}

// validateStruct runs the tag rules and converts failures into field errors.
func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperror.Validation("validation error")
	}
	fields := make([]apperror.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, apperror.FieldError{Field: fe.Field(), Message: fieldMessage(fe)})
	}
	return apperror.Validation("validation error", fields...)
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must not exceed %s characters", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), strings.ReplaceAll(fe.Param(), " ", ", "))
	case "uuid":
		return "invalid " + fe.Field() + " format"
	case "doctitle":
		return "title can only contain letters, numbers, spaces, hyphens, and underscores"
	case "nohtml":
		return fe.Field() + " must not contain HTML tags"
	default:
		return fe.Field() + " is invalid"
	}
}
