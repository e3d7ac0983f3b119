package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/erazemk/labstock/internal/db"
	"github.com/erazemk/labstock/internal/model"
)

func mustLab(t *testing.T, database *sql.DB, name string) *model.Lab {
	t.Helper()
	lab, err := CreateLab(context.Background(), database, name, "")
	if err != nil {
		t.Fatalf("CreateLab(%q): %v", name, err)
	}
	return lab
}

func mustItem(t *testing.T, database *sql.DB, labID int64, name, category string, working, damaged, lost int) *model.Item {
	t.Helper()
	item, err := CreateItem(context.Background(), database, ItemFields{
		Name:         name,
		Category:     category,
		TotalCount:   working + damaged + lost,
		WorkingCount: working,
		DamagedCount: damaged,
		LostCount:    lost,
		LabID:        labID,
	})
	if err != nil {
		t.Fatalf("CreateItem(%q): %v", name, err)
	}
	return item
}

func TestCreateAndGetLab(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	lab, err := CreateLab(ctx, database, "Physics", "Ground floor")
	if err != nil {
		t.Fatalf("CreateLab: %v", err)
	}
	if lab.Name != "Physics" || lab.Description != "Ground floor" {
		t.Errorf("unexpected lab %+v", lab)
	}

	byName, err := GetLabByName(ctx, database, "Physics")
	if err != nil {
		t.Fatalf("GetLabByName: %v", err)
	}
	if byName == nil || byName.ID != lab.ID {
		t.Errorf("expected lab %d by name, got %+v", lab.ID, byName)
	}

	missing, err := GetLab(ctx, database, 9999)
	if err != nil {
		t.Fatalf("GetLab: %v", err)
	}
	if missing != nil {
		t.Error("expected nil for missing lab")
	}
}

func TestCreateLabDuplicateName(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	mustLab(t, database, "Physics")
	_, err := CreateLab(ctx, database, "Physics", "")
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestUpdateLab(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	lab := mustLab(t, database, "Physics")
	mustLab(t, database, "Chemistry")

	if err := UpdateLab(ctx, database, lab.ID, "Optics", "Second floor"); err != nil {
		t.Fatalf("UpdateLab: %v", err)
	}
	got, _ := GetLab(ctx, database, lab.ID)
	if got.Name != "Optics" || got.Description != "Second floor" {
		t.Errorf("unexpected lab after update %+v", got)
	}

	err := UpdateLab(ctx, database, lab.ID, "Chemistry", "")
	if !errors.Is(err, ErrDuplicate) {
		t.Errorf("expected ErrDuplicate on rename clash, got %v", err)
	}
}

func TestDeleteLabInUse(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	lab := mustLab(t, database, "Physics")
	item := mustItem(t, database, lab.ID, "Oscilloscope", "Electronics", 2, 0, 0)

	err := DeleteLab(ctx, database, lab.ID)
	if !errors.Is(err, ErrLabInUse) {
		t.Fatalf("expected ErrLabInUse, got %v", err)
	}

	if err := DeleteItem(ctx, database, item.ID); err != nil {
		t.Fatalf("DeleteItem: %v", err)
	}
	if err := DeleteLab(ctx, database, lab.ID); err != nil {
		t.Fatalf("DeleteLab after removing items: %v", err)
	}

	got, _ := GetLab(ctx, database, lab.ID)
	if got != nil {
		t.Error("expected deleted lab to be hidden")
	}

	// The name is free again once the lab is gone.
	if _, err := CreateLab(ctx, database, "Physics", ""); err != nil {
		t.Errorf("recreating deleted lab name: %v", err)
	}
}

func TestListLabsOrdered(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	mustLab(t, database, "Zoology")
	mustLab(t, database, "Biology")

	labs, err := ListLabs(ctx, database)
	if err != nil {
		t.Fatalf("ListLabs: %v", err)
	}
	if len(labs) != 2 || labs[0].Name != "Biology" || labs[1].Name != "Zoology" {
		t.Errorf("unexpected order %+v", labs)
	}
}
