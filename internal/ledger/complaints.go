package ledger

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"unicode/utf8"

	"github.com/erazemk/labstock/internal/blob"
	"github.com/erazemk/labstock/internal/imaging"
	"github.com/erazemk/labstock/internal/model"
	"github.com/erazemk/labstock/internal/notify"
	"github.com/erazemk/labstock/internal/store"
)

// MaxAttachments is the most attachments a complaint can carry in total.
const MaxAttachments = 5

// ComplaintInput is a new complaint from a lab.
type ComplaintInput struct {
	ItemID      *int64 `json:"item_id,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Severity    string `json:"severity,omitempty"`
}

// ComplaintStatusInput is an admin's status change.
type ComplaintStatusInput struct {
	Status          string  `json:"status"`
	AdminComment    *string `json:"admin_comment,omitempty"`
	ExpectedVersion int64   `json:"expected_version,omitempty"`
}

// ComplaintQuery filters ListComplaints. LabID is ignored for lab actors.
type ComplaintQuery struct {
	LabID  int64
	Status string
}

// Upload is one uploaded file.
type Upload struct {
	Filename string
	Body     io.Reader
}

// CreateComplaint files a complaint for the actor's lab. High severity
// complaints trigger a notification that runs in the background.
func (s *Service) CreateComplaint(ctx context.Context, actor Actor, in ComplaintInput) (*model.Complaint, error) {
	if !actor.IsLab() {
		return nil, ErrForbidden
	}
	in.Title = strings.TrimSpace(in.Title)
	if utf8.RuneCountInString(in.Title) < 3 {
		return nil, invalid("title", "must be at least 3 characters")
	}
	if in.Severity == "" {
		in.Severity = model.SeverityLow
	}
	if !model.ValidSeverity(in.Severity) {
		return nil, invalid("severity", "unknown severity %q", in.Severity)
	}

	if in.ItemID != nil {
		item, err := store.GetItem(ctx, s.DB, *in.ItemID)
		if err != nil {
			return nil, err
		}
		if item == nil {
			return nil, notFound("item")
		}
		if item.LabID != actor.LabID {
			return nil, ErrForbidden
		}
	}

	c, err := store.CreateComplaint(ctx, s.DB, &model.Complaint{
		LabID:       actor.LabID,
		ItemID:      in.ItemID,
		Title:       in.Title,
		Description: strings.TrimSpace(in.Description),
		Severity:    in.Severity,
	})
	if err != nil {
		return nil, err
	}
	s.Metrics.Complaint(c.Severity)
	slog.Info("complaint created", "complaint", c.ID, "lab", c.LabID, "severity", c.Severity)

	if c.Severity == model.SeverityHigh && s.Notifier != nil {
		notify.Async(s.Notifier, complaintMessage(c), s.NotifyTimeout, func(err error) {
			s.Metrics.Notification("complaint_high", err)
		})
	}
	return c, nil
}

func complaintMessage(c *model.Complaint) notify.Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Lab: %s\n", c.LabName)
	if c.ItemName != "" {
		fmt.Fprintf(&b, "Item: %s\n", c.ItemName)
	}
	fmt.Fprintf(&b, "Severity: %s\n\n%s\n", c.Severity, c.Description)
	return notify.Message{
		Subject: "[High Severity] Complaint: " + c.Title,
		Body:    b.String(),
	}
}

// ListComplaints returns complaints with their attachments.
func (s *Service) ListComplaints(ctx context.Context, actor Actor, q ComplaintQuery) ([]model.Complaint, error) {
	if err := requireMember(actor); err != nil {
		return nil, err
	}
	if q.Status != "" && !model.ValidComplaintStatus(q.Status) {
		return nil, invalid("status", "unknown status %q", q.Status)
	}
	return store.ListComplaints(ctx, s.DB, store.ComplaintFilter{
		LabID:  actor.scopeLab(q.LabID),
		Status: q.Status,
	})
}

// GetComplaint returns one complaint in the actor's scope.
func (s *Service) GetComplaint(ctx context.Context, actor Actor, id int64) (*model.Complaint, error) {
	if err := requireMember(actor); err != nil {
		return nil, err
	}
	c, err := store.GetComplaint(ctx, s.DB, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, notFound("complaint")
	}
	if !actor.canAccess(c.LabID) {
		return nil, ErrForbidden
	}
	return c, nil
}

// UpdateComplaintStatus moves a complaint between open, in_progress and
// resolved. Admin only.
func (s *Service) UpdateComplaintStatus(ctx context.Context, actor Actor, id int64, in ComplaintStatusInput) (*model.Complaint, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if !model.ValidComplaintStatus(in.Status) {
		return nil, invalid("status", "unknown status %q", in.Status)
	}
	if in.AdminComment != nil {
		trimmed := strings.TrimSpace(*in.AdminComment)
		in.AdminComment = &trimmed
	}

	c, err := store.GetComplaint(ctx, s.DB, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, notFound("complaint")
	}

	ok, err := store.UpdateComplaintStatus(ctx, s.DB, id, in.Status, in.AdminComment, in.ExpectedVersion)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: complaint %d changed since version %d", ErrConflict, id, in.ExpectedVersion)
	}
	slog.Info("complaint status changed", "complaint", id, "status", in.Status, "by", actor.UserID)
	return store.GetComplaint(ctx, s.DB, id)
}

// AddAttachments normalizes each upload to JPEG, stores it and appends a
// reference to the complaint. Either every file is attached or none is.
func (s *Service) AddAttachments(ctx context.Context, actor Actor, id int64, files []Upload) (*model.Complaint, error) {
	c, err := s.GetComplaint(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if s.Blobs == nil {
		return nil, errors.New("attachment storage is not configured")
	}
	if len(files) == 0 {
		return nil, invalid("files", "at least one file is required")
	}
	if len(c.Attachments)+len(files) > MaxAttachments {
		return nil, invalid("files", "a complaint can have at most %d attachments", MaxAttachments)
	}

	processed := make([]*imaging.Result, len(files))
	for i, f := range files {
		res, err := imaging.Process(f.Body)
		if err != nil {
			if errors.Is(err, imaging.ErrTooLarge) || errors.Is(err, imaging.ErrUnsupported) {
				return nil, invalid("files", "%s: %v", f.Filename, err)
			}
			return nil, err
		}
		processed[i] = res
	}

	prefix := fmt.Sprintf("complaints/%d", id)
	attachments := make([]model.Attachment, 0, len(files))
	for i, res := range processed {
		key := blob.NewKey(prefix, ".jpg")
		info, err := s.Blobs.Put(ctx, key, bytes.NewReader(res.Data), int64(len(res.Data)), res.MIME)
		if err != nil {
			s.discard(attachments)
			return nil, fmt.Errorf("storing attachment: %w", err)
		}
		attachments = append(attachments, model.Attachment{
			ComplaintID: id,
			Key:         info.Key,
			Filename:    jpegName(files[i].Filename),
			MIME:        res.MIME,
			Size:        int64(len(res.Data)),
		})
	}

	err = s.inTx(ctx, func(tx *sql.Tx) error {
		n, err := store.CountAttachments(ctx, tx, id)
		if err != nil {
			return err
		}
		if n+len(attachments) > MaxAttachments {
			return invalid("files", "a complaint can have at most %d attachments", MaxAttachments)
		}
		for i := range attachments {
			if _, err := store.AddAttachment(ctx, tx, &attachments[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.discard(attachments)
		return nil, err
	}

	slog.Info("attachments added", "complaint", id, "count", len(attachments))
	return store.GetComplaint(ctx, s.DB, id)
}

// discard removes blobs written for a batch that was not recorded.
func (s *Service) discard(attachments []model.Attachment) {
	for _, a := range attachments {
		if err := s.Blobs.Delete(context.Background(), a.Key); err != nil {
			slog.Warn("removing orphaned attachment", "key", a.Key, "error", err)
		}
	}
}

func jpegName(name string) string {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	if base == "." || base == "/" || base == "" {
		base = "attachment"
	}
	return strings.TrimSuffix(base, path.Ext(base)) + ".jpg"
}

// OpenAttachment returns an attachment's metadata and content. The caller
// closes the reader.
func (s *Service) OpenAttachment(ctx context.Context, actor Actor, complaintID, attachmentID int64) (*model.Attachment, io.ReadCloser, error) {
	if _, err := s.GetComplaint(ctx, actor, complaintID); err != nil {
		return nil, nil, err
	}
	a, err := store.GetAttachment(ctx, s.DB, complaintID, attachmentID)
	if err != nil {
		return nil, nil, err
	}
	if a == nil {
		return nil, nil, notFound("attachment")
	}
	if s.Blobs == nil {
		return nil, nil, errors.New("attachment storage is not configured")
	}
	_, rc, err := s.Blobs.Get(ctx, a.Key)
	if errors.Is(err, blob.ErrNotFound) {
		return nil, nil, notFound("attachment content")
	}
	if err != nil {
		return nil, nil, err
	}
	return a, rc, nil
}
