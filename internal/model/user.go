package model

import (
	"fmt"
	"time"
)

// User represents an account. Lab users are bound to exactly one lab.
type User struct {
	ID           int64      `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	Role         string     `json:"role"`
	LabID        *int64     `json:"lab_id,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty"`

	// Joined fields (not always populated).
	LabName string `json:"lab_name,omitempty"`
}

// Roles.
const (
	RoleAdmin = "admin"
	RoleLab   = "lab"
)

// MinPasswordLength is the shortest password accepted for an account.
const MinPasswordLength = 8

// ValidRole reports whether role is one of the known roles.
func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleLab
}

// ValidatePassword checks password strength requirements.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	}
	return nil
}
