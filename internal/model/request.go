package model

import "time"

// StockRequest is a lab's ask for more of an item. Deciding a request never
// moves stock by itself.
type StockRequest struct {
	ID           int64     `json:"id"`
	LabID        int64     `json:"lab_id"`
	ItemID       int64     `json:"item_id"`
	RequestedQty int       `json:"requested_qty"`
	Status       string    `json:"status"`
	Version      int64     `json:"version"`
	DecidedBy    *int64    `json:"decided_by,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// Joined fields (not always populated).
	LabName  string `json:"lab_name,omitempty"`
	ItemName string `json:"item_name,omitempty"`
	Category string `json:"category,omitempty"`
}

// Stock request statuses.
const (
	RequestPending  = "pending"
	RequestApproved = "approved"
	RequestRejected = "rejected"
)
