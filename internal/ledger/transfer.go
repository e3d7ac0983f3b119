package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/erazemk/labstock/internal/model"
	"github.com/erazemk/labstock/internal/store"
)

// TransferInput moves Quantity working units of ItemID from FromLabID to
// the item with the same name and category in ToLabID.
type TransferInput struct {
	ItemID          int64  `json:"item_id"`
	FromLabID       int64  `json:"from_lab_id"`
	ToLabID         int64  `json:"to_lab_id"`
	Quantity        int    `json:"quantity"`
	Notes           string `json:"notes,omitempty"`
	ExpectedVersion int64  `json:"expected_version,omitempty"`
}

// TransferResult holds both items after the move and the log entry.
type TransferResult struct {
	From     *model.Item     `json:"from"`
	To       *model.Item     `json:"to"`
	Transfer *model.Transfer `json:"transfer"`
	Created  bool            `json:"created"`
}

// Transfer debits the source item and credits (or creates) the destination
// item in one transaction. Only working stock moves; damaged and lost units
// stay where they are. Admin only.
func (s *Service) Transfer(ctx context.Context, actor Actor, in TransferInput) (*TransferResult, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if in.Quantity < 1 {
		return nil, fmt.Errorf("%w: quantity must be at least 1", ErrInvalidTransfer)
	}
	if in.FromLabID == in.ToLabID {
		return nil, fmt.Errorf("%w: source and destination lab are the same", ErrInvalidTransfer)
	}

	var res *TransferResult
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var err error
		res, err = transfer(ctx, tx, actor, in)
		return err
	})
	s.Metrics.Transfer(transferOutcome(err), in.Quantity)
	if err != nil {
		return nil, err
	}

	slog.Info("transfer completed",
		"transfer", res.Transfer.ID,
		"item", in.ItemID,
		"from_lab", in.FromLabID,
		"to_lab", in.ToLabID,
		"dest_item", res.To.ID,
		"qty", in.Quantity,
		"created", res.Created,
	)
	return res, nil
}

// transfer runs every read and write on tx so the whole move commits or
// rolls back together.
func transfer(ctx context.Context, tx *sql.Tx, actor Actor, in TransferInput) (*TransferResult, error) {
	src, err := store.GetItem(ctx, tx, in.ItemID)
	if err != nil {
		return nil, err
	}
	if src == nil || src.LabID != in.FromLabID {
		return nil, notFound("source item")
	}
	if in.ExpectedVersion != 0 && src.Version != in.ExpectedVersion {
		return nil, fmt.Errorf("%w: item %d is at version %d", ErrConflict, src.ID, src.Version)
	}

	dstLab, err := store.GetLab(ctx, tx, in.ToLabID)
	if err != nil {
		return nil, err
	}
	if dstLab == nil {
		return nil, notFound("destination lab")
	}

	if src.WorkingCount < in.Quantity {
		return nil, fmt.Errorf("%w: %d requested, %d working", ErrInsufficientStock, in.Quantity, src.WorkingCount)
	}

	total, working := src.TotalCount-in.Quantity, src.WorkingCount-in.Quantity
	if err := CheckCounts(total, working, src.DamagedCount, src.LostCount); err != nil {
		return nil, err
	}
	ok, err := store.UpdateItemCounts(ctx, tx, src.ID, total, working, src.DamagedCount, src.LostCount, src.Version)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: item %d changed during transfer", ErrConflict, src.ID)
	}

	dst, err := store.FindItem(ctx, tx, dstLab.ID, src.Name, src.Category)
	if err != nil {
		return nil, err
	}
	created := dst == nil
	if created {
		dst, err = store.CreateItem(ctx, tx, store.ItemFields{
			Name:         src.Name,
			Category:     src.Category,
			TotalCount:   in.Quantity,
			WorkingCount: in.Quantity,
			LabID:        dstLab.ID,
		})
		if err != nil {
			return nil, err
		}
	} else {
		total, working := dst.TotalCount+in.Quantity, dst.WorkingCount+in.Quantity
		if err := CheckCounts(total, working, dst.DamagedCount, dst.LostCount); err != nil {
			return nil, err
		}
		ok, err := store.UpdateItemCounts(ctx, tx, dst.ID, total, working, dst.DamagedCount, dst.LostCount, dst.Version)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("%w: item %d changed during transfer", ErrConflict, dst.ID)
		}
	}

	id, err := store.InsertTransfer(ctx, tx, &model.Transfer{
		ItemID:        src.ID,
		DestItemID:    dst.ID,
		FromLabID:     in.FromLabID,
		ToLabID:       in.ToLabID,
		Quantity:      in.Quantity,
		Notes:         strings.TrimSpace(in.Notes),
		TransferredBy: actor.userRef(),
	})
	if err != nil {
		return nil, err
	}

	res := &TransferResult{Created: created}
	if res.From, err = store.GetItem(ctx, tx, src.ID); err != nil {
		return nil, err
	}
	if res.To, err = store.GetItem(ctx, tx, dst.ID); err != nil {
		return nil, err
	}
	if res.Transfer, err = store.GetTransfer(ctx, tx, id); err != nil {
		return nil, err
	}
	return res, nil
}

func transferOutcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrConflict):
		return "conflict"
	}
	return "error"
}

// ListTransfers returns the transfer log. Lab actors only see transfers
// into or out of their own lab.
func (s *Service) ListTransfers(ctx context.Context, actor Actor, itemID, labID int64) ([]model.Transfer, error) {
	if err := requireMember(actor); err != nil {
		return nil, err
	}
	return store.ListTransfers(ctx, s.DB, itemID, actor.scopeLab(labID))
}
