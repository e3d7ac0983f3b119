package model

import "time"

// Complaint is an issue raised by a lab, optionally about a specific item.
type Complaint struct {
	ID           int64        `json:"id"`
	LabID        int64        `json:"lab_id"`
	ItemID       *int64       `json:"item_id,omitempty"`
	Title        string       `json:"title"`
	Description  string       `json:"description,omitempty"`
	Severity     string       `json:"severity"`
	Status       string       `json:"status"`
	AdminComment string       `json:"admin_comment,omitempty"`
	Version      int64        `json:"version"`
	Attachments  []Attachment `json:"attachments"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`

	// Joined fields (not always populated).
	LabName  string `json:"lab_name,omitempty"`
	ItemName string `json:"item_name,omitempty"`
}

// Attachment is a stored image reference on a complaint.
type Attachment struct {
	ID          int64     `json:"id"`
	ComplaintID int64     `json:"complaint_id"`
	Key         string    `json:"-"`
	Filename    string    `json:"filename"`
	URL         string    `json:"url"`
	MIME        string    `json:"mime"`
	Size        int64     `json:"size"`
	CreatedAt   time.Time `json:"created_at"`
}

// Complaint severities.
const (
	SeverityLow    = "low"
	SeverityMedium = "medium"
	SeverityHigh   = "high"
)

// Complaint statuses.
const (
	ComplaintOpen       = "open"
	ComplaintInProgress = "in_progress"
	ComplaintResolved   = "resolved"
)

// ValidSeverity reports whether s is a known severity.
func ValidSeverity(s string) bool {
	return s == SeverityLow || s == SeverityMedium || s == SeverityHigh
}

// ValidComplaintStatus reports whether s is a known complaint status.
func ValidComplaintStatus(s string) bool {
	return s == ComplaintOpen || s == ComplaintInProgress || s == ComplaintResolved
}
