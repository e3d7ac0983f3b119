package store

import (
	"context"
	"testing"

	"github.com/erazemk/labstock/internal/db"
	"github.com/erazemk/labstock/internal/model"
)

func TestStockRequestLifecycle(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	lab := mustLab(t, database, "Physics")
	item := mustItem(t, database, lab.ID, "Beaker", "Glassware", 2, 0, 0)
	admin, _ := CreateUser(ctx, database, "Root", "root@example.com", "hash", model.RoleAdmin, nil)

	req, err := CreateStockRequest(ctx, database, lab.ID, item.ID, 5)
	if err != nil {
		t.Fatalf("CreateStockRequest: %v", err)
	}
	if req.Status != model.RequestPending || req.ItemName != "Beaker" {
		t.Errorf("unexpected request %+v", req)
	}

	ok, err := DecideStockRequest(ctx, database, req.ID, model.RequestApproved, &admin.ID, req.Version)
	if err != nil {
		t.Fatalf("DecideStockRequest: %v", err)
	}
	if !ok {
		t.Fatal("expected pending request to be decided")
	}

	// Decided requests stay decided.
	ok, _ = DecideStockRequest(ctx, database, req.ID, model.RequestRejected, &admin.ID, 0)
	if ok {
		t.Error("expected second decision to be refused")
	}

	got, _ := GetStockRequest(ctx, database, req.ID)
	if got.Status != model.RequestApproved || got.DecidedBy == nil || *got.DecidedBy != admin.ID {
		t.Errorf("unexpected request after decision %+v", got)
	}

	// Stock is untouched by the decision.
	it, _ := GetItem(ctx, database, item.ID)
	if it.TotalCount != 2 {
		t.Errorf("expected total 2, got %d", it.TotalCount)
	}
}

func TestCreateStockRequestRejectsZeroQty(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	lab := mustLab(t, database, "Physics")
	item := mustItem(t, database, lab.ID, "Beaker", "Glassware", 2, 0, 0)

	if _, err := CreateStockRequest(ctx, database, lab.ID, item.ID, 0); err == nil {
		t.Error("expected constraint error for zero quantity")
	}
}

func TestListStockRequestsFiltered(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	physics := mustLab(t, database, "Physics")
	chem := mustLab(t, database, "Chemistry")
	a := mustItem(t, database, physics.ID, "Beaker", "Glassware", 2, 0, 0)
	b := mustItem(t, database, chem.ID, "Flask", "Glassware", 2, 0, 0)
	admin, _ := CreateUser(ctx, database, "Root", "root@example.com", "hash", model.RoleAdmin, nil)

	r1, _ := CreateStockRequest(ctx, database, physics.ID, a.ID, 1)
	CreateStockRequest(ctx, database, chem.ID, b.ID, 2)
	DecideStockRequest(ctx, database, r1.ID, model.RequestRejected, &admin.ID, 0)

	all, _ := ListStockRequests(ctx, database, 0, "")
	if len(all) != 2 {
		t.Errorf("expected 2 requests, got %d", len(all))
	}
	pending, _ := ListStockRequests(ctx, database, 0, model.RequestPending)
	if len(pending) != 1 || pending[0].LabID != chem.ID {
		t.Errorf("expected 1 pending chemistry request, got %+v", pending)
	}
	byLab, _ := ListStockRequests(ctx, database, physics.ID, "")
	if len(byLab) != 1 {
		t.Errorf("expected 1 physics request, got %d", len(byLab))
	}
}
