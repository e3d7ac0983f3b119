package model

import "time"

// Transfer records a movement of working stock from one lab's item to the
// matching item in another lab.
type Transfer struct {
	ID            int64     `json:"id"`
	ItemID        int64     `json:"item_id"`
	DestItemID    int64     `json:"dest_item_id"`
	FromLabID     int64     `json:"from_lab_id"`
	ToLabID       int64     `json:"to_lab_id"`
	Quantity      int       `json:"quantity"`
	Notes         string    `json:"notes,omitempty"`
	TransferredAt time.Time `json:"transferred_at"`
	TransferredBy *int64    `json:"transferred_by,omitempty"`

	// Joined fields (not always populated).
	ItemName    string `json:"item_name,omitempty"`
	Category    string `json:"category,omitempty"`
	FromLabName string `json:"from_lab_name,omitempty"`
	ToLabName   string `json:"to_lab_name,omitempty"`
}
