package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/labstock/internal/model"
)

// CreateStockRequest inserts a pending stock request.
func CreateStockRequest(ctx context.Context, q Querier, labID, itemID int64, qty int) (*model.StockRequest, error) {
	result, err := q.ExecContext(ctx,
		`INSERT INTO stock_requests (lab_id, item_id, requested_qty) VALUES (?, ?, ?)`,
		labID, itemID, qty,
	)
	if err != nil {
		return nil, fmt.Errorf("creating stock request: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting stock request id: %w", err)
	}
	return GetStockRequest(ctx, q, id)
}

const requestSelect = `SELECT r.id, r.lab_id, r.item_id, r.requested_qty, r.status, r.version, r.decided_by,
	        r.created_at, r.updated_at, COALESCE(l.name, ''), COALESCE(i.name, ''), COALESCE(i.category, '')
	 FROM stock_requests r
	 LEFT JOIN labs l ON l.id = r.lab_id
	 LEFT JOIN items i ON i.id = r.item_id`

func scanStockRequest(s rowScanner) (*model.StockRequest, error) {
	r := &model.StockRequest{}
	var decidedBy sql.NullInt64
	if err := s.Scan(&r.ID, &r.LabID, &r.ItemID, &r.RequestedQty, &r.Status, &r.Version, &decidedBy,
		&r.CreatedAt, &r.UpdatedAt, &r.LabName, &r.ItemName, &r.Category); err != nil {
		return nil, err
	}
	r.DecidedBy = int64Ptr(decidedBy)
	return r, nil
}

// GetStockRequest returns a stock request by ID.
func GetStockRequest(ctx context.Context, q Querier, id int64) (*model.StockRequest, error) {
	r, err := scanStockRequest(q.QueryRowContext(ctx, requestSelect+` WHERE r.id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting stock request: %w", err)
	}
	return r, nil
}

// ListStockRequests returns stock requests newest first, optionally filtered
// by lab and status.
func ListStockRequests(ctx context.Context, q Querier, labID int64, status string) ([]model.StockRequest, error) {
	query := requestSelect + ` WHERE 1=1`
	var args []any
	if labID > 0 {
		query += ` AND r.lab_id = ?`
		args = append(args, labID)
	}
	if status != "" {
		query += ` AND r.status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY r.created_at DESC, r.id DESC`

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing stock requests: %w", err)
	}
	defer rows.Close()

	var requests []model.StockRequest
	for rows.Next() {
		r, err := scanStockRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning stock request: %w", err)
		}
		requests = append(requests, *r)
	}
	return requests, rows.Err()
}

// DecideStockRequest moves a pending request to status. The write only
// applies while the request is pending and, when expectedVersion is
// non-zero, at that version. Reports whether a row was written.
func DecideStockRequest(ctx context.Context, q Querier, id int64, status string, decidedBy *int64, expectedVersion int64) (bool, error) {
	result, err := q.ExecContext(ctx,
		`UPDATE stock_requests SET status = ?, decided_by = ?, version = version + 1, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND status = 'pending' AND (? = 0 OR version = ?)`,
		status, nullInt64(decidedBy), id, expectedVersion, expectedVersion,
	)
	if err != nil {
		return false, fmt.Errorf("deciding stock request: %w", err)
	}
	return affected(result)
}
