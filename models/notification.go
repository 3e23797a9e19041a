package models

import "encoding/json"

// Notification is a message addressed to the current user. Read is derived:
// the server flag OR-ed with the local acknowledgment set.
type Notification struct {
	ID        int       `json:"id"`
	Message   string    `json:"message"`
	CreatedAt Timestamp `json:"created_at"`
	Read      bool      `json:"read"`
}

// UnmarshalJSON accepts both "read" and the server's "is_read" flag.
func (n *Notification) UnmarshalJSON(data []byte) error {
	var wire struct {
		ID        int       `json:"id"`
		Message   string    `json:"message"`
		CreatedAt Timestamp `json:"created_at"`
		Read      *bool     `json:"read"`
		IsRead    *bool     `json:"is_read"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	n.ID = wire.ID
	n.Message = wire.Message
	n.CreatedAt = wire.CreatedAt
	n.Read = (wire.Read != nil && *wire.Read) || (wire.IsRead != nil && *wire.IsRead)
	return nil
}

type Tag struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}
