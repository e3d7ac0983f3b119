package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/erazemk/labstock/internal/model"
)

// DateLayout is the storage format of maintenance dates. Dates compare
// lexically in this layout.
const DateLayout = "2006-01-02"

// MaintenanceFilter narrows ListMaintenanceRecords. Zero values match
// everything; Start and End are inclusive.
type MaintenanceFilter struct {
	Start  time.Time
	End    time.Time
	LabID  int64
	ItemID int64
	Type   string
}

// CreateMaintenanceRecord appends a maintenance record.
func CreateMaintenanceRecord(ctx context.Context, q Querier, r *model.MaintenanceRecord) (*model.MaintenanceRecord, error) {
	result, err := q.ExecContext(ctx,
		`INSERT INTO maintenance_records (lab_id, item_id, date, cost, type, vendor, notes, complaint_id, created_by)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.LabID, r.ItemID, r.Date.UTC().Format(DateLayout), r.Cost.String(), r.Type, r.Vendor, r.Notes,
		nullInt64(r.ComplaintID), nullInt64(r.CreatedBy),
	)
	if err != nil {
		return nil, fmt.Errorf("creating maintenance record: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting maintenance record id: %w", err)
	}
	return GetMaintenanceRecord(ctx, q, id)
}

const maintenanceSelect = `SELECT m.id, m.lab_id, m.item_id, m.date, m.cost, m.type, m.vendor, m.notes,
	        m.complaint_id, m.created_by, m.created_at,
	        COALESCE(i.name, ''), COALESCE(i.category, ''), COALESCE(l.name, '')
	 FROM maintenance_records m
	 LEFT JOIN items i ON i.id = m.item_id
	 LEFT JOIN labs l ON l.id = m.lab_id`

func scanMaintenance(s rowScanner) (*model.MaintenanceRecord, error) {
	r := &model.MaintenanceRecord{}
	var date string
	var complaintID, createdBy sql.NullInt64
	if err := s.Scan(&r.ID, &r.LabID, &r.ItemID, &date, &r.Cost, &r.Type, &r.Vendor, &r.Notes,
		&complaintID, &createdBy, &r.CreatedAt,
		&r.ItemName, &r.Category, &r.LabName); err != nil {
		return nil, err
	}
	d, err := time.Parse(DateLayout, date)
	if err != nil {
		return nil, fmt.Errorf("parsing maintenance date %q: %w", date, err)
	}
	r.Date = d
	r.ComplaintID = int64Ptr(complaintID)
	r.CreatedBy = int64Ptr(createdBy)
	return r, nil
}

// GetMaintenanceRecord returns a maintenance record by ID.
func GetMaintenanceRecord(ctx context.Context, q Querier, id int64) (*model.MaintenanceRecord, error) {
	r, err := scanMaintenance(q.QueryRowContext(ctx, maintenanceSelect+` WHERE m.id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting maintenance record: %w", err)
	}
	return r, nil
}

// ListMaintenanceRecords returns matching records, newest date first.
func ListMaintenanceRecords(ctx context.Context, q Querier, filter MaintenanceFilter) ([]model.MaintenanceRecord, error) {
	query := maintenanceSelect + ` WHERE 1=1`
	var args []any

	if filter.LabID > 0 {
		query += ` AND m.lab_id = ?`
		args = append(args, filter.LabID)
	}
	if filter.ItemID > 0 {
		query += ` AND m.item_id = ?`
		args = append(args, filter.ItemID)
	}
	if filter.Type != "" {
		query += ` AND m.type = ?`
		args = append(args, filter.Type)
	}
	if !filter.Start.IsZero() {
		query += ` AND m.date >= ?`
		args = append(args, filter.Start.UTC().Format(DateLayout))
	}
	if !filter.End.IsZero() {
		query += ` AND m.date <= ?`
		args = append(args, filter.End.UTC().Format(DateLayout))
	}

	query += ` ORDER BY m.date DESC, m.id DESC`

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing maintenance records: %w", err)
	}
	defer rows.Close()

	var records []model.MaintenanceRecord
	for rows.Next() {
		r, err := scanMaintenance(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning maintenance record: %w", err)
		}
		records = append(records, *r)
	}
	return records, rows.Err()
}
