package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/erazemk/labstock/internal/model"
)

// ErrLabInUse is returned when deleting a lab that still has items or users.
var ErrLabInUse = errors.New("lab still referenced")

// CreateLab creates a new lab.
func CreateLab(ctx context.Context, q Querier, name, description string) (*model.Lab, error) {
	result, err := q.ExecContext(ctx,
		`INSERT INTO labs (name, description) VALUES (?, ?)`,
		name, description,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("creating lab %q: %w", name, ErrDuplicate)
		}
		return nil, fmt.Errorf("creating lab: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting lab id: %w", err)
	}

	return GetLab(ctx, q, id)
}

const labColumns = `id, name, description, created_at, deleted_at`

func scanLab(s rowScanner) (*model.Lab, error) {
	l := &model.Lab{}
	var description sql.NullString
	if err := s.Scan(&l.ID, &l.Name, &description, &l.CreatedAt, &l.DeletedAt); err != nil {
		return nil, err
	}
	l.Description = description.String
	return l, nil
}

// GetLab returns a non-deleted lab by ID.
func GetLab(ctx context.Context, q Querier, id int64) (*model.Lab, error) {
	l, err := scanLab(q.QueryRowContext(ctx,
		`SELECT `+labColumns+` FROM labs WHERE id = ? AND deleted_at IS NULL`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting lab: %w", err)
	}
	return l, nil
}

// GetLabByName returns a non-deleted lab by its unique name.
func GetLabByName(ctx context.Context, q Querier, name string) (*model.Lab, error) {
	l, err := scanLab(q.QueryRowContext(ctx,
		`SELECT `+labColumns+` FROM labs WHERE name = ? AND deleted_at IS NULL`, name,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting lab by name: %w", err)
	}
	return l, nil
}

// ListLabs returns all non-deleted labs ordered by name.
func ListLabs(ctx context.Context, q Querier) ([]model.Lab, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+labColumns+` FROM labs WHERE deleted_at IS NULL ORDER BY name`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing labs: %w", err)
	}
	defer rows.Close()

	var labs []model.Lab
	for rows.Next() {
		l, err := scanLab(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning lab: %w", err)
		}
		labs = append(labs, *l)
	}
	return labs, rows.Err()
}

// UpdateLab updates a lab's name and description.
func UpdateLab(ctx context.Context, q Querier, id int64, name, description string) error {
	_, err := q.ExecContext(ctx,
		`UPDATE labs SET name = ?, description = ? WHERE id = ? AND deleted_at IS NULL`,
		name, description, id,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("updating lab %q: %w", name, ErrDuplicate)
		}
		return fmt.Errorf("updating lab: %w", err)
	}
	return nil
}

// DeleteLab soft-deletes a lab. Fails with ErrLabInUse while the lab still
// has non-deleted items or users.
func DeleteLab(ctx context.Context, q Querier, id int64) error {
	var items, users int
	err := q.QueryRowContext(ctx,
		`SELECT
		    (SELECT COUNT(*) FROM items WHERE lab_id = ? AND deleted_at IS NULL),
		    (SELECT COUNT(*) FROM users WHERE lab_id = ? AND deleted_at IS NULL)`,
		id, id,
	).Scan(&items, &users)
	if err != nil {
		return fmt.Errorf("checking lab references: %w", err)
	}
	if items > 0 || users > 0 {
		return fmt.Errorf("cannot delete lab: %d items and %d users: %w", items, users, ErrLabInUse)
	}

	_, err = q.ExecContext(ctx,
		`UPDATE labs SET deleted_at = CURRENT_TIMESTAMP WHERE id = ? AND deleted_at IS NULL`,
		id,
	)
	if err != nil {
		return fmt.Errorf("deleting lab: %w", err)
	}
	return nil
}
