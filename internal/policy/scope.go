package policy

import "clientdocs/internal/model"

// Clause is a conjunction over one document: every non-empty field must hold.
// SharedWith requires the principal to be in the document's shared-with set.
type Clause struct {
	OwnerID     string
	AccessLevel model.AccessLevel
	SharedWith  string
}

// Matches evaluates the clause against doc.
func (c Clause) Matches(doc *model.Document) bool {
	if c.OwnerID != "" && doc.OwnerID() != c.OwnerID {
		return false
	}
	if c.AccessLevel != "" && doc.AccessLevel != c.AccessLevel {
		return false
	}
	if c.SharedWith != "" && !doc.HasRecipient(c.SharedWith) {
		return false
	}
	return true
}

// Scope is a disjunction of clauses describing a set of visible documents. It is
// evaluated in memory by Matches and compiled to a single query by repositories.
// An empty scope matches nothing.
type Scope []Clause

// Matches reports whether any clause holds for doc.
func (s Scope) Matches(doc *model.Document) bool {
	for _, c := range s {
		if c.Matches(doc) {
			return true
		}
	}
	return false
}

// ReadScope is the visibility rule: the principal's own documents, every public
// document, and shared documents whose shared-with set contains the principal.
// Without a principal the scope is empty.
func ReadScope(principalID string) Scope {
	if principalID == "" {
		return Scope{}
	}
	return Scope{
		{OwnerID: principalID},
		{AccessLevel: model.AccessPublic},
		{AccessLevel: model.AccessShared, SharedWith: principalID},
	}
}

// NarrowScope restricts ReadScope to one access level. The result is always a subset
// of ReadScope, so it is empty without a principal. An empty level returns
// ReadScope unchanged.
func NarrowScope(principalID string, level model.AccessLevel) Scope {
	if principalID == "" {
		return Scope{}
	}
	switch level {
	case "":
		return ReadScope(principalID)
	case model.AccessPrivate:
		return Scope{{OwnerID: principalID, AccessLevel: model.AccessPrivate}}
	case model.AccessShared:
		return Scope{
			{OwnerID: principalID, AccessLevel: model.AccessShared},
			{AccessLevel: model.AccessShared, SharedWith: principalID},
		}
	case model.AccessPublic:
		return Scope{{AccessLevel: model.AccessPublic}}
	default:
		return Scope{}
	}
}
