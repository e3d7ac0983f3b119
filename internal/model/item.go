package model

import "time"

// Item is a per-lab stock record for one kind of equipment. The working,
// damaged and lost counts always sum to TotalCount.
type Item struct {
	ID           int64      `json:"id"`
	Name         string     `json:"name"`
	Category     string     `json:"category"`
	TotalCount   int        `json:"total_count"`
	WorkingCount int        `json:"working_count"`
	DamagedCount int        `json:"damaged_count"`
	LostCount    int        `json:"lost_count"`
	LabID        int64      `json:"lab_id"`
	Version      int64      `json:"version"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty"`

	// Joined fields (not always populated).
	LabName string `json:"lab_name,omitempty"`
}
