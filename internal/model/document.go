package model

import "time"

// Category classifies a document.
type Category string

const (
	CategoryProposal Category = "Proposal"
	CategoryInvoice  Category = "Invoice"
	CategoryReport   Category = "Report"
	CategoryContract Category = "Contract"
)

// Categories lists every accepted category.
var Categories = []Category{CategoryProposal, CategoryInvoice, CategoryReport, CategoryContract}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// AccessLevel governs who besides the owner may read a document.
type AccessLevel string

const (
	AccessPrivate AccessLevel = "private"
	AccessShared  AccessLevel = "shared"
	AccessPublic  AccessLevel = "public"
)

// Valid reports whether a is one of the known access levels.
func (a AccessLevel) Valid() bool {
	switch a {
	case AccessPrivate, AccessShared, AccessPublic:
		return true
	}
	return false
}

// FileInfo describes the stored bytes behind a document.
type FileInfo struct {
	OriginalName string `json:"originalName"`
	StorageKey   string `json:"storageKey"`
	FileType     string `json:"fileType"`
	FileSize     int64  `json:"fileSize"`
}

// Document is the metadata record for one uploaded file.
// This is a pure domain model with no database-specific dependencies or tags.
//
// CreatedBy is the only authority for mutation. SharedWith only grants read access
// while AccessLevel is AccessShared; in any other state it is kept but ignored.
type Document struct {
	ID          string             `json:"id"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Category    Category           `json:"category"`
	AccessLevel AccessLevel        `json:"accessLevel"`
	Client      Ref[ClientSummary] `json:"client"`
	CreatedBy   Ref[UserSummary]   `json:"createdBy"`
	SharedWith  []Ref[UserSummary] `json:"sharedWith"`
	File        FileInfo           `json:"file"`
	UploadDate  time.Time          `json:"uploadDate"`
	CreatedAt   time.Time          `json:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt"`
	Version     int64              `json:"-"`
}

// OwnerID returns the principal that uploaded the document.
func (d *Document) OwnerID() string {
	return d.CreatedBy.ID
}

// SharedWithIDs returns the principal IDs in the shared-with set, in stored order.
func (d *Document) SharedWithIDs() []string {
	ids := make([]string, 0, len(d.SharedWith))
	for _, r := range d.SharedWith {
		ids = append(ids, r.ID)
	}
	return ids
}

// HasRecipient reports whether principalID is a member of the shared-with set.
// Membership alone does not grant access; see AccessLevel.
func (d *Document) HasRecipient(principalID string) bool {
	for _, r := range d.SharedWith {
		if r.ID == principalID {
			return true
		}
	}
	return false
}

// DocumentSummary is the subset of a document shown next to a notification.
type DocumentSummary struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Category Category `json:"category"`
}
