package ledger

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/erazemk/labstock/internal/model"
	"github.com/erazemk/labstock/internal/store"
)

// MaintenanceInput describes one maintenance cost entry.
type MaintenanceInput struct {
	ItemID      int64               `json:"item_id"`
	Date        string              `json:"date"`
	Cost        decimal.NullDecimal `json:"cost"`
	Type        string              `json:"type,omitempty"`
	Vendor      string              `json:"vendor,omitempty"`
	Notes       string              `json:"notes,omitempty"`
	ComplaintID *int64              `json:"complaint_id,omitempty"`
}

// MaintenanceQuery filters maintenance listings. Dates are inclusive and
// LabID is ignored for lab actors.
type MaintenanceQuery struct {
	Start  string
	End    string
	LabID  int64
	ItemID int64
	Type   string
}

// parseDate accepts a calendar date or an RFC 3339 timestamp and returns the
// UTC calendar day.
func parseDate(field, s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if d, err := time.Parse(store.DateLayout, s); err == nil {
		return d, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		y, m, d := t.UTC().Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
	}
	return time.Time{}, invalid(field, "must be a date (YYYY-MM-DD)")
}

func (q MaintenanceQuery) filter(actor Actor) (store.MaintenanceFilter, error) {
	f := store.MaintenanceFilter{
		LabID:  actor.scopeLab(q.LabID),
		ItemID: q.ItemID,
		Type:   strings.TrimSpace(q.Type),
	}
	var err error
	if q.Start != "" {
		if f.Start, err = parseDate("start", q.Start); err != nil {
			return f, err
		}
	}
	if q.End != "" {
		if f.End, err = parseDate("end", q.End); err != nil {
			return f, err
		}
	}
	if f.Type != "" && !model.ValidMaintenanceType(f.Type) {
		return f, invalid("type", "unknown maintenance type %q", f.Type)
	}
	return f, nil
}

// CreateMaintenanceRecord appends a cost entry for an item. Admins record
// against the item's lab; lab actors may only record for their own items.
func (s *Service) CreateMaintenanceRecord(ctx context.Context, actor Actor, in MaintenanceInput) (*model.MaintenanceRecord, error) {
	if err := requireMember(actor); err != nil {
		return nil, err
	}
	rec, err := s.buildMaintenance(ctx, actor, in)
	if err != nil {
		return nil, err
	}
	created, err := store.CreateMaintenanceRecord(ctx, s.DB, rec)
	if err != nil {
		return nil, err
	}
	slog.Info("maintenance recorded", "record", created.ID, "item", created.ItemID, "lab", created.LabID, "cost", created.Cost.String())
	return created, nil
}

// buildMaintenance validates in and resolves the effective lab.
func (s *Service) buildMaintenance(ctx context.Context, actor Actor, in MaintenanceInput) (*model.MaintenanceRecord, error) {
	if in.ItemID <= 0 {
		return nil, invalid("item_id", "is required")
	}
	date, err := parseDate("date", in.Date)
	if err != nil {
		return nil, err
	}
	if !in.Cost.Valid {
		return nil, invalid("cost", "is required")
	}
	if in.Cost.Decimal.IsNegative() {
		return nil, invalid("cost", "must not be negative")
	}
	typ := strings.TrimSpace(in.Type)
	if typ == "" {
		typ = model.MaintenanceRepair
	}
	if !model.ValidMaintenanceType(typ) {
		return nil, invalid("type", "unknown maintenance type %q", typ)
	}

	item, err := store.GetItem(ctx, s.DB, in.ItemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, notFound("item")
	}
	if !actor.canAccess(item.LabID) {
		return nil, ErrForbidden
	}

	if in.ComplaintID != nil {
		c, err := store.GetComplaint(ctx, s.DB, *in.ComplaintID)
		if err != nil {
			return nil, err
		}
		if c == nil {
			return nil, notFound("complaint")
		}
		if c.LabID != item.LabID {
			return nil, invalid("complaint_id", "belongs to another lab")
		}
	}

	return &model.MaintenanceRecord{
		LabID:       item.LabID,
		ItemID:      item.ID,
		Date:        date,
		Cost:        in.Cost.Decimal,
		Type:        typ,
		Vendor:      strings.TrimSpace(in.Vendor),
		Notes:       strings.TrimSpace(in.Notes),
		ComplaintID: in.ComplaintID,
		CreatedBy:   actor.userRef(),
	}, nil
}

// ListMaintenanceRecords returns matching records, newest first.
func (s *Service) ListMaintenanceRecords(ctx context.Context, actor Actor, q MaintenanceQuery) ([]model.MaintenanceRecord, error) {
	if err := requireMember(actor); err != nil {
		return nil, err
	}
	f, err := q.filter(actor)
	if err != nil {
		return nil, err
	}
	return store.ListMaintenanceRecords(ctx, s.DB, f)
}
