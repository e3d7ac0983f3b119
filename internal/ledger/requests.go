package ledger

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/erazemk/labstock/internal/model"
	"github.com/erazemk/labstock/internal/store"
)

// StockRequestInput is a lab's ask for more of one of its items.
type StockRequestInput struct {
	ItemID       int64 `json:"item_id"`
	RequestedQty int   `json:"requested_qty"`
}

// CreateStockRequest files a pending request. Lab actors only, for their own
// items.
func (s *Service) CreateStockRequest(ctx context.Context, actor Actor, in StockRequestInput) (*model.StockRequest, error) {
	if !actor.IsLab() {
		return nil, ErrForbidden
	}
	if in.RequestedQty < 1 {
		return nil, invalid("requested_qty", "must be at least 1")
	}

	item, err := store.GetItem(ctx, s.DB, in.ItemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, notFound("item")
	}
	if item.LabID != actor.LabID {
		return nil, ErrForbidden
	}

	req, err := store.CreateStockRequest(ctx, s.DB, actor.LabID, item.ID, in.RequestedQty)
	if err != nil {
		return nil, err
	}
	slog.Info("stock request created", "request", req.ID, "lab", req.LabID, "item", req.ItemID, "qty", req.RequestedQty)
	return req, nil
}

// ApproveStockRequest marks a pending request approved. It records the
// decision only; moving stock is a separate transfer or status update.
func (s *Service) ApproveStockRequest(ctx context.Context, actor Actor, id, expectedVersion int64) (*model.StockRequest, error) {
	return s.decide(ctx, actor, id, model.RequestApproved, expectedVersion)
}

// RejectStockRequest marks a pending request rejected.
func (s *Service) RejectStockRequest(ctx context.Context, actor Actor, id, expectedVersion int64) (*model.StockRequest, error) {
	return s.decide(ctx, actor, id, model.RequestRejected, expectedVersion)
}

func (s *Service) decide(ctx context.Context, actor Actor, id int64, status string, expectedVersion int64) (*model.StockRequest, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	req, err := store.GetStockRequest(ctx, s.DB, id)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, notFound("stock request")
	}
	if req.Status != model.RequestPending {
		return nil, fmt.Errorf("%w: request %d is already %s", ErrConflict, id, req.Status)
	}

	ok, err := store.DecideStockRequest(ctx, s.DB, id, status, actor.userRef(), expectedVersion)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: request %d changed since version %d", ErrConflict, id, expectedVersion)
	}

	slog.Info("stock request decided", "request", id, "status", status, "by", actor.UserID)
	return store.GetStockRequest(ctx, s.DB, id)
}

// ListStockRequests returns requests, all for admins and own-lab for lab
// actors. status filters when non-empty.
func (s *Service) ListStockRequests(ctx context.Context, actor Actor, status string) ([]model.StockRequest, error) {
	if err := requireMember(actor); err != nil {
		return nil, err
	}
	switch status {
	case "", model.RequestPending, model.RequestApproved, model.RequestRejected:
	default:
		return nil, invalid("status", "unknown status %q", status)
	}
	return store.ListStockRequests(ctx, s.DB, actor.scopeLab(0), status)
}
