package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/labstock/internal/model"
)

// InsertTransfer appends a transfer log row. Callers run it inside the same
// transaction as the count mutations it describes.
func InsertTransfer(ctx context.Context, q Querier, t *model.Transfer) (int64, error) {
	result, err := q.ExecContext(ctx,
		`INSERT INTO transfers (item_id, dest_item_id, from_lab_id, to_lab_id, quantity, notes, transferred_by)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.ItemID, t.DestItemID, t.FromLabID, t.ToLabID, t.Quantity, t.Notes, nullInt64(t.TransferredBy),
	)
	if err != nil {
		return 0, fmt.Errorf("recording transfer: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting transfer id: %w", err)
	}
	return id, nil
}

const transferSelect = `SELECT t.id, t.item_id, t.dest_item_id, t.from_lab_id, t.to_lab_id, t.quantity,
	        t.notes, t.transferred_at, t.transferred_by,
	        i.name, i.category, fl.name, tl.name
	 FROM transfers t
	 JOIN items i ON i.id = t.item_id
	 JOIN labs fl ON fl.id = t.from_lab_id
	 JOIN labs tl ON tl.id = t.to_lab_id`

func scanTransfer(s rowScanner) (*model.Transfer, error) {
	t := &model.Transfer{}
	var notes sql.NullString
	var by sql.NullInt64
	if err := s.Scan(&t.ID, &t.ItemID, &t.DestItemID, &t.FromLabID, &t.ToLabID, &t.Quantity,
		&notes, &t.TransferredAt, &by,
		&t.ItemName, &t.Category, &t.FromLabName, &t.ToLabName); err != nil {
		return nil, err
	}
	t.Notes = notes.String
	t.TransferredBy = int64Ptr(by)
	return t, nil
}

// GetTransfer returns a transfer by ID.
func GetTransfer(ctx context.Context, q Querier, id int64) (*model.Transfer, error) {
	t, err := scanTransfer(q.QueryRowContext(ctx, transferSelect+` WHERE t.id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting transfer: %w", err)
	}
	return t, nil
}

// ListTransfers returns transfers newest first, optionally filtered by an
// item (as source or destination) or a lab (as sender or receiver).
func ListTransfers(ctx context.Context, q Querier, itemID, labID int64) ([]model.Transfer, error) {
	query := transferSelect + ` WHERE 1=1`
	var args []any

	if itemID > 0 {
		query += ` AND (t.item_id = ? OR t.dest_item_id = ?)`
		args = append(args, itemID, itemID)
	}
	if labID > 0 {
		query += ` AND (t.from_lab_id = ? OR t.to_lab_id = ?)`
		args = append(args, labID, labID)
	}

	query += ` ORDER BY t.transferred_at DESC, t.id DESC`

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing transfers: %w", err)
	}
	defer rows.Close()

	var transfers []model.Transfer
	for rows.Next() {
		t, err := scanTransfer(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning transfer: %w", err)
		}
		transfers = append(transfers, *t)
	}
	return transfers, rows.Err()
}
