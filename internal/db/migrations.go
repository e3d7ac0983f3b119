package db

import (
	"database/sql"
	"fmt"
)

// migrations is a list of SQL statements applied in order after schema creation.
// Each migration must be idempotent. Append new migrations at the end.
var migrations = []string{
	// Migration 1: transfers touching a lab are listed per lab.
	`CREATE INDEX IF NOT EXISTS idx_transfers_labs ON transfers(from_lab_id, to_lab_id)`,
}

// Migrate applies the migrations list.
func Migrate(db *sql.DB) error {
	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("running migration %d: %w", i+1, err)
		}
	}
	return nil
}
