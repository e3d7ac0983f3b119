package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/erazemk/labstock/internal/model"
	"github.com/erazemk/labstock/internal/store"
)

// ItemInput is the full writable state of an item.
type ItemInput struct {
	Name            string `json:"name"`
	Category        string `json:"category"`
	TotalCount      int    `json:"total_count"`
	WorkingCount    int    `json:"working_count"`
	DamagedCount    int    `json:"damaged_count"`
	LostCount       int    `json:"lost_count"`
	LabID           int64  `json:"lab_id"`
	ExpectedVersion int64  `json:"expected_version,omitempty"`
}

func (in *ItemInput) validate() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Category = strings.TrimSpace(in.Category)
	if in.Name == "" {
		return invalid("name", "is required")
	}
	if in.Category == "" {
		return invalid("category", "is required")
	}
	if in.LabID <= 0 {
		return invalid("lab_id", "is required")
	}
	return CheckCounts(in.TotalCount, in.WorkingCount, in.DamagedCount, in.LostCount)
}

func (in ItemInput) fields() store.ItemFields {
	return store.ItemFields{
		Name:         in.Name,
		Category:     in.Category,
		TotalCount:   in.TotalCount,
		WorkingCount: in.WorkingCount,
		DamagedCount: in.DamagedCount,
		LostCount:    in.LostCount,
		LabID:        in.LabID,
	}
}

// StatusInput redistributes an item's existing total across conditions.
type StatusInput struct {
	WorkingCount    int   `json:"working_count"`
	DamagedCount    int   `json:"damaged_count"`
	LostCount       int   `json:"lost_count"`
	ExpectedVersion int64 `json:"expected_version,omitempty"`
}

// ItemQuery filters ListItems. LabID is ignored for lab actors.
type ItemQuery struct {
	LabID    int64
	Category string
}

// CreateItem adds an item to a lab. Admin only.
func (s *Service) CreateItem(ctx context.Context, actor Actor, in ItemInput) (*model.Item, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	lab, err := store.GetLab(ctx, s.DB, in.LabID)
	if err != nil {
		return nil, err
	}
	if lab == nil {
		return nil, notFound("lab")
	}

	item, err := store.CreateItem(ctx, s.DB, in.fields())
	if err != nil {
		return nil, err
	}
	slog.Info("item created", "item", item.ID, "lab", item.LabID, "name", item.Name)
	return item, nil
}

// ListItems returns items visible to the actor, with lab names resolved.
func (s *Service) ListItems(ctx context.Context, actor Actor, q ItemQuery) ([]model.Item, error) {
	if err := requireMember(actor); err != nil {
		return nil, err
	}
	return store.ListItems(ctx, s.DB, store.ItemFilter{
		LabID:    actor.scopeLab(q.LabID),
		Category: strings.TrimSpace(q.Category),
	})
}

// GetItem returns one item. Existence is checked before lab scope.
func (s *Service) GetItem(ctx context.Context, actor Actor, id int64) (*model.Item, error) {
	if err := requireMember(actor); err != nil {
		return nil, err
	}
	item, err := store.GetItem(ctx, s.DB, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, notFound("item")
	}
	if !actor.canAccess(item.LabID) {
		return nil, ErrForbidden
	}
	return item, nil
}

// UpdateItem replaces every field of an item. Admin only.
func (s *Service) UpdateItem(ctx context.Context, actor Actor, id int64, in ItemInput) (*model.Item, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	existing, err := store.GetItem(ctx, s.DB, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, notFound("item")
	}
	if in.LabID != existing.LabID {
		lab, err := store.GetLab(ctx, s.DB, in.LabID)
		if err != nil {
			return nil, err
		}
		if lab == nil {
			return nil, notFound("lab")
		}
	}

	ok, err := store.UpdateItem(ctx, s.DB, id, in.fields(), in.ExpectedVersion)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: item %d changed since version %d", ErrConflict, id, in.ExpectedVersion)
	}
	return store.GetItem(ctx, s.DB, id)
}

// UpdateItemStatus moves units between working, damaged and lost. The total
// never changes here. Admins and the owning lab may call it.
func (s *Service) UpdateItemStatus(ctx context.Context, actor Actor, id int64, in StatusInput) (*model.Item, error) {
	if err := requireMember(actor); err != nil {
		return nil, err
	}
	if err := nonNegative(in.WorkingCount, in.DamagedCount, in.LostCount); err != nil {
		return nil, err
	}

	item, err := store.GetItem(ctx, s.DB, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, notFound("item")
	}
	if !actor.canAccess(item.LabID) {
		return nil, ErrForbidden
	}
	if in.WorkingCount+in.DamagedCount+in.LostCount != item.TotalCount {
		return nil, &ValidationError{
			Field:   "total_count",
			Message: fmt.Sprintf("%s (%d)", ErrCountMismatch, item.TotalCount),
			Err:     ErrCountMismatch,
		}
	}

	version := in.ExpectedVersion
	if version == 0 {
		version = item.Version
	}
	ok, err := store.UpdateItemCounts(ctx, s.DB, id, item.TotalCount,
		in.WorkingCount, in.DamagedCount, in.LostCount, version)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: item %d changed since version %d", ErrConflict, id, version)
	}
	return store.GetItem(ctx, s.DB, id)
}

// DeleteItem soft-deletes an item. Admin only.
func (s *Service) DeleteItem(ctx context.Context, actor Actor, id int64) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	item, err := store.GetItem(ctx, s.DB, id)
	if err != nil {
		return err
	}
	if item == nil {
		return notFound("item")
	}
	if err := store.DeleteItem(ctx, s.DB, id); err != nil {
		return err
	}
	slog.Info("item deleted", "item", id, "lab", item.LabID)
	return nil
}

// ItemHistory returns the transfers that moved stock out of or into an item.
func (s *Service) ItemHistory(ctx context.Context, actor Actor, id int64) ([]model.Transfer, error) {
	if _, err := s.GetItem(ctx, actor, id); err != nil {
		return nil, err
	}
	return store.ListTransfers(ctx, s.DB, id, 0)
}
