package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/labstock/internal/model"
)

// ItemFields are the writable columns of an item.
type ItemFields struct {
	Name         string
	Category     string
	TotalCount   int
	WorkingCount int
	DamagedCount int
	LostCount    int
	LabID        int64
}

// ItemFilter narrows ListItems. Zero values match everything.
type ItemFilter struct {
	LabID    int64
	Category string
}

const itemColumns = `i.id, i.name, i.category, i.total_count, i.working_count, i.damaged_count,
	i.lost_count, i.lab_id, i.version, i.created_at, i.updated_at, i.deleted_at, COALESCE(l.name, '')`

const itemFrom = ` FROM items i LEFT JOIN labs l ON l.id = i.lab_id`

func scanItem(s rowScanner) (*model.Item, error) {
	item := &model.Item{}
	err := s.Scan(&item.ID, &item.Name, &item.Category, &item.TotalCount, &item.WorkingCount,
		&item.DamagedCount, &item.LostCount, &item.LabID, &item.Version,
		&item.CreatedAt, &item.UpdatedAt, &item.DeletedAt, &item.LabName)
	if err != nil {
		return nil, err
	}
	return item, nil
}

// CreateItem inserts a new item.
func CreateItem(ctx context.Context, q Querier, f ItemFields) (*model.Item, error) {
	result, err := q.ExecContext(ctx,
		`INSERT INTO items (name, category, total_count, working_count, damaged_count, lost_count, lab_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		f.Name, f.Category, f.TotalCount, f.WorkingCount, f.DamagedCount, f.LostCount, f.LabID,
	)
	if err != nil {
		return nil, fmt.Errorf("creating item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting item id: %w", err)
	}

	return GetItem(ctx, q, id)
}

// GetItem returns a non-deleted item by ID.
func GetItem(ctx context.Context, q Querier, id int64) (*model.Item, error) {
	item, err := scanItem(q.QueryRowContext(ctx,
		`SELECT `+itemColumns+itemFrom+` WHERE i.id = ? AND i.deleted_at IS NULL`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	return item, nil
}

// FindItem returns the non-deleted item with the given name and category in
// a lab. The store does not enforce uniqueness of this key; the oldest match
// wins.
func FindItem(ctx context.Context, q Querier, labID int64, name, category string) (*model.Item, error) {
	item, err := scanItem(q.QueryRowContext(ctx,
		`SELECT `+itemColumns+itemFrom+`
		 WHERE i.lab_id = ? AND i.name = ? AND i.category = ? AND i.deleted_at IS NULL
		 ORDER BY i.id LIMIT 1`,
		labID, name, category,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding item: %w", err)
	}
	return item, nil
}

// ListItems returns non-deleted items ordered by lab, name and category.
func ListItems(ctx context.Context, q Querier, filter ItemFilter) ([]model.Item, error) {
	query := `SELECT ` + itemColumns + itemFrom + ` WHERE i.deleted_at IS NULL`
	var args []any

	if filter.LabID > 0 {
		query += ` AND i.lab_id = ?`
		args = append(args, filter.LabID)
	}
	if filter.Category != "" {
		query += ` AND i.category = ?`
		args = append(args, filter.Category)
	}

	query += ` ORDER BY l.name, i.name, i.category, i.id`

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()

	var items []model.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// UpdateItem replaces every writable column and bumps the version. When
// expectedVersion is non-zero the write only applies at that version.
// Reports whether a row was written.
func UpdateItem(ctx context.Context, q Querier, id int64, f ItemFields, expectedVersion int64) (bool, error) {
	result, err := q.ExecContext(ctx,
		`UPDATE items SET name = ?, category = ?, total_count = ?, working_count = ?,
		        damaged_count = ?, lost_count = ?, lab_id = ?,
		        version = version + 1, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND deleted_at IS NULL AND (? = 0 OR version = ?)`,
		f.Name, f.Category, f.TotalCount, f.WorkingCount, f.DamagedCount, f.LostCount, f.LabID,
		id, expectedVersion, expectedVersion,
	)
	if err != nil {
		return false, fmt.Errorf("updating item: %w", err)
	}
	return affected(result)
}

// UpdateItemCounts rewrites the four counts of an item and bumps the version,
// with the same version semantics as UpdateItem.
func UpdateItemCounts(ctx context.Context, q Querier, id int64, total, working, damaged, lost int, expectedVersion int64) (bool, error) {
	result, err := q.ExecContext(ctx,
		`UPDATE items SET total_count = ?, working_count = ?, damaged_count = ?, lost_count = ?,
		        version = version + 1, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND deleted_at IS NULL AND (? = 0 OR version = ?)`,
		total, working, damaged, lost, id, expectedVersion, expectedVersion,
	)
	if err != nil {
		return false, fmt.Errorf("updating item counts: %w", err)
	}
	return affected(result)
}

// DeleteItem soft-deletes an item. Related complaints, requests and
// maintenance records keep pointing at it.
func DeleteItem(ctx context.Context, q Querier, id int64) error {
	_, err := q.ExecContext(ctx,
		`UPDATE items SET deleted_at = CURRENT_TIMESTAMP, version = version + 1
		 WHERE id = ? AND deleted_at IS NULL`,
		id,
	)
	if err != nil {
		return fmt.Errorf("deleting item: %w", err)
	}
	return nil
}

func affected(result sql.Result) (bool, error) {
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("getting rows affected: %w", err)
	}
	return n > 0, nil
}
