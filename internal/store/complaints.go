package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/labstock/internal/model"
)

// ComplaintFilter narrows ListComplaints. Zero values match everything.
type ComplaintFilter struct {
	LabID  int64
	Status string
}

// CreateComplaint inserts an open complaint.
func CreateComplaint(ctx context.Context, q Querier, c *model.Complaint) (*model.Complaint, error) {
	result, err := q.ExecContext(ctx,
		`INSERT INTO complaints (lab_id, item_id, title, description, severity) VALUES (?, ?, ?, ?, ?)`,
		c.LabID, nullInt64(c.ItemID), c.Title, c.Description, c.Severity,
	)
	if err != nil {
		return nil, fmt.Errorf("creating complaint: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting complaint id: %w", err)
	}
	return GetComplaint(ctx, q, id)
}

const complaintSelect = `SELECT c.id, c.lab_id, c.item_id, c.title, c.description, c.severity, c.status,
	        c.admin_comment, c.version, c.created_at, c.updated_at,
	        COALESCE(l.name, ''), COALESCE(i.name, '')
	 FROM complaints c
	 LEFT JOIN labs l ON l.id = c.lab_id
	 LEFT JOIN items i ON i.id = c.item_id`

func scanComplaint(s rowScanner) (*model.Complaint, error) {
	c := &model.Complaint{}
	var itemID sql.NullInt64
	if err := s.Scan(&c.ID, &c.LabID, &itemID, &c.Title, &c.Description, &c.Severity, &c.Status,
		&c.AdminComment, &c.Version, &c.CreatedAt, &c.UpdatedAt, &c.LabName, &c.ItemName); err != nil {
		return nil, err
	}
	c.ItemID = int64Ptr(itemID)
	c.Attachments = []model.Attachment{}
	return c, nil
}

// GetComplaint returns a complaint with its attachments.
func GetComplaint(ctx context.Context, q Querier, id int64) (*model.Complaint, error) {
	c, err := scanComplaint(q.QueryRowContext(ctx, complaintSelect+` WHERE c.id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting complaint: %w", err)
	}

	attachments, err := ListAttachments(ctx, q, id)
	if err != nil {
		return nil, err
	}
	c.Attachments = attachments
	return c, nil
}

// ListComplaints returns complaints newest first. Attachments are loaded for
// every complaint in the result.
func ListComplaints(ctx context.Context, q Querier, filter ComplaintFilter) ([]model.Complaint, error) {
	query := complaintSelect + ` WHERE 1=1`
	var args []any
	if filter.LabID > 0 {
		query += ` AND c.lab_id = ?`
		args = append(args, filter.LabID)
	}
	if filter.Status != "" {
		query += ` AND c.status = ?`
		args = append(args, filter.Status)
	}
	query += ` ORDER BY c.created_at DESC, c.id DESC`

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing complaints: %w", err)
	}

	var complaints []model.Complaint
	for rows.Next() {
		c, err := scanComplaint(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning complaint: %w", err)
		}
		complaints = append(complaints, *c)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("listing complaints: %w", err)
	}
	rows.Close()

	for i := range complaints {
		attachments, err := ListAttachments(ctx, q, complaints[i].ID)
		if err != nil {
			return nil, err
		}
		complaints[i].Attachments = attachments
	}
	return complaints, nil
}

// UpdateComplaintStatus sets the status, and the admin comment when comment
// is non-nil, with optimistic version semantics. Reports whether a row was
// written.
func UpdateComplaintStatus(ctx context.Context, q Querier, id int64, status string, comment *string, expectedVersion int64) (bool, error) {
	var c sql.NullString
	if comment != nil {
		c = sql.NullString{String: *comment, Valid: true}
	}
	result, err := q.ExecContext(ctx,
		`UPDATE complaints SET status = ?, admin_comment = COALESCE(?, admin_comment),
		        version = version + 1, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND (? = 0 OR version = ?)`,
		status, c, id, expectedVersion, expectedVersion,
	)
	if err != nil {
		return false, fmt.Errorf("updating complaint status: %w", err)
	}
	return affected(result)
}

// AttachmentURL is the API path an attachment is served from.
func AttachmentURL(complaintID, id int64) string {
	return fmt.Sprintf("/api/complaints/%d/attachments/%d", complaintID, id)
}

// AddAttachment appends an attachment reference to a complaint.
func AddAttachment(ctx context.Context, q Querier, a *model.Attachment) (int64, error) {
	result, err := q.ExecContext(ctx,
		`INSERT INTO complaint_attachments (complaint_id, blob_key, filename, mime, size)
		 VALUES (?, ?, ?, ?, ?)`,
		a.ComplaintID, a.Key, a.Filename, a.MIME, a.Size,
	)
	if err != nil {
		return 0, fmt.Errorf("adding attachment: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting attachment id: %w", err)
	}
	return id, nil
}

// CountAttachments returns how many attachments a complaint has.
func CountAttachments(ctx context.Context, q Querier, complaintID int64) (int, error) {
	var n int
	err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM complaint_attachments WHERE complaint_id = ?`, complaintID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting attachments: %w", err)
	}
	return n, nil
}

// ListAttachments returns a complaint's attachments in upload order.
func ListAttachments(ctx context.Context, q Querier, complaintID int64) ([]model.Attachment, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, complaint_id, blob_key, filename, mime, size, created_at
		 FROM complaint_attachments WHERE complaint_id = ? ORDER BY id`, complaintID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing attachments: %w", err)
	}
	defer rows.Close()

	attachments := []model.Attachment{}
	for rows.Next() {
		var a model.Attachment
		if err := rows.Scan(&a.ID, &a.ComplaintID, &a.Key, &a.Filename, &a.MIME, &a.Size, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning attachment: %w", err)
		}
		a.URL = AttachmentURL(a.ComplaintID, a.ID)
		attachments = append(attachments, a)
	}
	return attachments, rows.Err()
}

// GetAttachment returns one attachment of a complaint.
func GetAttachment(ctx context.Context, q Querier, complaintID, id int64) (*model.Attachment, error) {
	a := &model.Attachment{}
	err := q.QueryRowContext(ctx,
		`SELECT id, complaint_id, blob_key, filename, mime, size, created_at
		 FROM complaint_attachments WHERE complaint_id = ? AND id = ?`, complaintID, id,
	).Scan(&a.ID, &a.ComplaintID, &a.Key, &a.Filename, &a.MIME, &a.Size, &a.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting attachment: %w", err)
	}
	a.URL = AttachmentURL(a.ComplaintID, a.ID)
	return a, nil
}
