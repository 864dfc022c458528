// Package query turns request filters into an immutable, access-scoped document query.
package query

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"clientdocs/internal/apperror"
	"clientdocs/internal/model"
	"clientdocs/internal/policy"
)

// MaxSearchLength bounds the free-text search term.
const MaxSearchLength = 200

const dateLayout = "2006-01-02"

// Params are the raw, optional filters of a document listing.
type Params struct {
	Category    string `query:"category"`
	AccessLevel string `query:"accessLevel"`
	ClientID    string `query:"clientId"`
	StartDate   string `query:"startDate"`
	EndDate     string `query:"endDate"`
	Search      string `query:"search"`
}

// Spec is a validated document query. It is built once per request by Build and
// never modified afterwards; all fields are read through accessors.
type Spec struct {
	principalID string
	scope       policy.Scope
	category    model.Category
	clientID    string
	from        time.Time
	until       time.Time
	search      string
}

// Build validates p and combines it with the principal's visibility scope.
// Every present filter is ANDed with the scope; an accessLevel filter narrows the
// scope itself instead of being intersected with it. A query without a principal
// is rejected.
func Build(principalID string, p Params) (Spec, error) {
	if principalID == "" {
		return Spec{}, apperror.Unauthorized("authentication required")
	}
	var fields []apperror.FieldError
	s := Spec{principalID: principalID}

	level := model.AccessLevel(strings.TrimSpace(p.AccessLevel))
	if level != "" && !level.Valid() {
		fields = append(fields, apperror.FieldError{Field: "accessLevel", Message: "access level must be one of: private, shared, public"})
	}

	if c := model.Category(strings.TrimSpace(p.Category)); c != "" {
		if !c.Valid() {
			fields = append(fields, apperror.FieldError{Field: "category", Message: "category must be one of: Proposal, Invoice, Report, Contract"})
		}
		s.category = c
	}

	if id := strings.TrimSpace(p.ClientID); id != "" {
		u, err := uuid.Parse(id)
		if err != nil {
			fields = append(fields, apperror.FieldError{Field: "clientId", Message: "invalid client ID format"})
		}
		s.clientID = u.String()
	}

	if d := strings.TrimSpace(p.StartDate); d != "" {
		t, err := time.ParseInLocation(dateLayout, d, time.UTC)
		if err != nil {
			fields = append(fields, apperror.FieldError{Field: "startDate", Message: "date must be in YYYY-MM-DD format"})
		}
		s.from = t
	}
	if d := strings.TrimSpace(p.EndDate); d != "" {
		t, err := time.ParseInLocation(dateLayout, d, time.UTC)
		if err != nil {
			fields = append(fields, apperror.FieldError{Field: "endDate", Message: "date must be in YYYY-MM-DD format"})
		} else {
			// the end date covers its whole day
			s.until = t.AddDate(0, 0, 1)
		}
	}
	if !s.from.IsZero() && !s.until.IsZero() && !s.from.Before(s.until) {
		fields = append(fields, apperror.FieldError{Field: "endDate", Message: "end date must not be before start date"})
	}

	search := strings.TrimSpace(p.Search)
	if len([]rune(search)) > MaxSearchLength {
		fields = append(fields, apperror.FieldError{Field: "search", Message: "search query too long"})
	}
	s.search = search

	if len(fields) > 0 {
		return Spec{}, apperror.Validation("validation error", fields...)
	}
	s.scope = policy.NarrowScope(principalID, level)
	return s, nil
}

func (s Spec) PrincipalID() string { return s.principalID }

// Scope returns the visibility disjunction. The returned slice must not be modified.
func (s Spec) Scope() policy.Scope { return s.scope }

func (s Spec) Category() model.Category { return s.category }

func (s Spec) ClientID() string { return s.clientID }

// From is the inclusive lower bound on upload date; ok is false when unbounded.
func (s Spec) From() (t time.Time, ok bool) { return s.from, !s.from.IsZero() }

// Until is the exclusive upper bound on upload date; ok is false when unbounded.
func (s Spec) Until() (t time.Time, ok bool) { return s.until, !s.until.IsZero() }

// Search is the trimmed free-text term, matched literally and case-insensitively
// against title or description. Empty means no text filter.
func (s Spec) Search() string { return s.search }

// Matches evaluates the whole query against one document.
func (s Spec) Matches(doc *model.Document) bool {
	if !s.scope.Matches(doc) {
		return false
	}
	if s.category != "" && doc.Category != s.category {
		return false
	}
	if s.clientID != "" && doc.Client.ID != s.clientID {
		return false
	}
	if from, ok := s.From(); ok && doc.UploadDate.Before(from) {
		return false
	}
	if until, ok := s.Until(); ok && !doc.UploadDate.Before(until) {
		return false
	}
	if s.search != "" {
		term := strings.ToLower(s.search)
		if !strings.Contains(strings.ToLower(doc.Title), term) && !strings.Contains(strings.ToLower(doc.Description), term) {
			return false
		}
	}
	return true
}
