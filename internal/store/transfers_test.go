package store

import (
	"context"
	"testing"

	"github.com/erazemk/labstock/internal/db"
	"github.com/erazemk/labstock/internal/model"
)

func TestInsertAndListTransfers(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	physics := mustLab(t, database, "Physics")
	chem := mustLab(t, database, "Chemistry")
	bio := mustLab(t, database, "Biology")
	src := mustItem(t, database, physics.ID, "Beaker", "Glassware", 10, 0, 0)
	dst := mustItem(t, database, chem.ID, "Beaker", "Glassware", 0, 0, 0)
	other := mustItem(t, database, bio.ID, "Beaker", "Glassware", 0, 0, 0)

	id, err := InsertTransfer(ctx, database, &model.Transfer{
		ItemID: src.ID, DestItemID: dst.ID, FromLabID: physics.ID, ToLabID: chem.ID,
		Quantity: 3, Notes: "semester start",
	})
	if err != nil {
		t.Fatalf("InsertTransfer: %v", err)
	}
	InsertTransfer(ctx, database, &model.Transfer{
		ItemID: src.ID, DestItemID: other.ID, FromLabID: physics.ID, ToLabID: bio.ID, Quantity: 1,
	})

	got, err := GetTransfer(ctx, database, id)
	if err != nil {
		t.Fatalf("GetTransfer: %v", err)
	}
	if got.FromLabName != "Physics" || got.ToLabName != "Chemistry" || got.ItemName != "Beaker" {
		t.Errorf("unexpected joined names %+v", got)
	}
	if got.Notes != "semester start" || got.TransferredBy != nil {
		t.Errorf("unexpected transfer %+v", got)
	}

	all, _ := ListTransfers(ctx, database, 0, 0)
	if len(all) != 2 {
		t.Errorf("expected 2 transfers, got %d", len(all))
	}
	if all[0].ID < all[1].ID {
		t.Error("expected newest transfer first")
	}

	byDest, _ := ListTransfers(ctx, database, dst.ID, 0)
	if len(byDest) != 1 {
		t.Errorf("expected 1 transfer for destination item, got %d", len(byDest))
	}

	bySource, _ := ListTransfers(ctx, database, src.ID, 0)
	if len(bySource) != 2 {
		t.Errorf("expected 2 transfers for source item, got %d", len(bySource))
	}

	byLab, _ := ListTransfers(ctx, database, 0, bio.ID)
	if len(byLab) != 1 {
		t.Errorf("expected 1 transfer for biology, got %d", len(byLab))
	}
}

func TestInsertTransferRejectsZeroQuantity(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	physics := mustLab(t, database, "Physics")
	chem := mustLab(t, database, "Chemistry")
	src := mustItem(t, database, physics.ID, "Beaker", "Glassware", 10, 0, 0)
	dst := mustItem(t, database, chem.ID, "Beaker", "Glassware", 0, 0, 0)

	_, err := InsertTransfer(ctx, database, &model.Transfer{
		ItemID: src.ID, DestItemID: dst.ID, FromLabID: physics.ID, ToLabID: chem.ID,
	})
	if err == nil {
		t.Error("expected constraint error for zero quantity")
	}
}
