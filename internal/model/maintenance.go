package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// MaintenanceRecord is an append-only cost entry for servicing an item.
type MaintenanceRecord struct {
	ID          int64           `json:"id"`
	LabID       int64           `json:"lab_id"`
	ItemID      int64           `json:"item_id"`
	Date        time.Time       `json:"date"`
	Cost        decimal.Decimal `json:"cost"`
	Type        string          `json:"type"`
	Vendor      string          `json:"vendor,omitempty"`
	Notes       string          `json:"notes,omitempty"`
	ComplaintID *int64          `json:"complaint_id,omitempty"`
	CreatedBy   *int64          `json:"created_by,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`

	// Joined fields (not always populated).
	ItemName string `json:"item_name,omitempty"`
	Category string `json:"category,omitempty"`
	LabName  string `json:"lab_name,omitempty"`
}

// Maintenance types.
const (
	MaintenanceRepair      = "repair"
	MaintenanceCalibration = "calibration"
	MaintenanceService     = "service"
	MaintenanceReplacement = "replacement"
	MaintenanceOther       = "other"
)

// ValidMaintenanceType reports whether t is a known maintenance type.
func ValidMaintenanceType(t string) bool {
	switch t {
	case MaintenanceRepair, MaintenanceCalibration, MaintenanceService, MaintenanceReplacement, MaintenanceOther:
		return true
	}
	return false
}
