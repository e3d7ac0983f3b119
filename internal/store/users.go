package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/labstock/internal/model"
)

// CreateUser creates a new user. labID must be set iff role is lab.
func CreateUser(ctx context.Context, q Querier, name, email, passwordHash, role string, labID *int64) (*model.User, error) {
	result, err := q.ExecContext(ctx,
		`INSERT INTO users (name, email, password_hash, role, lab_id) VALUES (?, ?, ?, ?, ?)`,
		name, email, passwordHash, role, nullInt64(labID),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("creating user %q: %w", email, ErrDuplicate)
		}
		return nil, fmt.Errorf("creating user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting user id: %w", err)
	}

	return GetUser(ctx, q, id)
}

const userColumns = `u.id, u.name, u.email, u.password_hash, u.role, u.lab_id, u.created_at, u.deleted_at,
	COALESCE(l.name, '')`

const userFrom = ` FROM users u LEFT JOIN labs l ON l.id = u.lab_id`

func scanUser(s rowScanner) (*model.User, error) {
	u := &model.User{}
	var labID sql.NullInt64
	if err := s.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &labID,
		&u.CreatedAt, &u.DeletedAt, &u.LabName); err != nil {
		return nil, err
	}
	u.LabID = int64Ptr(labID)
	return u, nil
}

// GetUser returns a user by ID.
func GetUser(ctx context.Context, q Querier, id int64) (*model.User, error) {
	u, err := scanUser(q.QueryRowContext(ctx,
		`SELECT `+userColumns+userFrom+` WHERE u.id = ?`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting user: %w", err)
	}
	return u, nil
}

// GetUserByEmail returns the active user with the given email.
func GetUserByEmail(ctx context.Context, q Querier, email string) (*model.User, error) {
	u, err := scanUser(q.QueryRowContext(ctx,
		`SELECT `+userColumns+userFrom+` WHERE u.email = ? AND u.deleted_at IS NULL`, email,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting user by email: %w", err)
	}
	return u, nil
}

// ListUsers returns all non-deleted users.
func ListUsers(ctx context.Context, q Querier) ([]model.User, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+userColumns+userFrom+` WHERE u.deleted_at IS NULL ORDER BY u.id`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// UpdateUser replaces a user's profile fields.
func UpdateUser(ctx context.Context, q Querier, id int64, name, email, role string, labID *int64) error {
	_, err := q.ExecContext(ctx,
		`UPDATE users SET name = ?, email = ?, role = ?, lab_id = ? WHERE id = ? AND deleted_at IS NULL`,
		name, email, role, nullInt64(labID), id,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("updating user %q: %w", email, ErrDuplicate)
		}
		return fmt.Errorf("updating user: %w", err)
	}
	return nil
}

// UpdateUserPassword updates a user's password hash.
func UpdateUserPassword(ctx context.Context, q Querier, id int64, passwordHash string) error {
	_, err := q.ExecContext(ctx,
		`UPDATE users SET password_hash = ? WHERE id = ? AND deleted_at IS NULL`,
		passwordHash, id,
	)
	if err != nil {
		return fmt.Errorf("updating user password: %w", err)
	}
	return nil
}

// DeleteUser soft-deletes a user.
func DeleteUser(ctx context.Context, q Querier, id int64) error {
	_, err := q.ExecContext(ctx,
		`UPDATE users SET deleted_at = CURRENT_TIMESTAMP WHERE id = ? AND deleted_at IS NULL`,
		id,
	)
	if err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}
	return nil
}

// CountAdmins returns the number of active admin users.
func CountAdmins(ctx context.Context, q Querier) (int, error) {
	var n int
	err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE role = ? AND deleted_at IS NULL`, model.RoleAdmin,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting admins: %w", err)
	}
	return n, nil
}
