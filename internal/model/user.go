package model

// UserSummary holds the display fields of a principal. Credentials never leave the
// identity provider, so there is no field for them here.
type UserSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}
