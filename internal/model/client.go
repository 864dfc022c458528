package model

// Client is a contact record owned by the user who created it.
type Client struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Company   string `json:"company"`
	CreatedBy string `json:"createdBy"`
}

// Summary returns the display fields of the client.
func (c *Client) Summary() ClientSummary {
	return ClientSummary{ID: c.ID, Name: c.Name, Email: c.Email, Company: c.Company}
}

// ClientSummary holds the display fields of a client.
type ClientSummary struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email,omitempty"`
	Company string `json:"company,omitempty"`
}
