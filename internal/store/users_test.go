package store

import (
	"context"
	"errors"
	"testing"

	"github.com/erazemk/labstock/internal/db"
	"github.com/erazemk/labstock/internal/model"
)

func TestCreateAndGetUser(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	lab := mustLab(t, database, "Physics")
	user, err := CreateUser(ctx, database, "Ana", "ana@example.com", "hash123", model.RoleLab, &lab.ID)
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if user.Role != model.RoleLab {
		t.Errorf("expected role 'lab', got %q", user.Role)
	}
	if user.LabID == nil || *user.LabID != lab.ID {
		t.Errorf("expected lab %d, got %v", lab.ID, user.LabID)
	}
	if user.LabName != "Physics" {
		t.Errorf("expected lab name 'Physics', got %q", user.LabName)
	}

	got, err := GetUserByEmail(ctx, database, "ana@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}
	if got == nil || got.ID != user.ID {
		t.Fatalf("expected user %d, got %+v", user.ID, got)
	}

	missing, err := GetUserByEmail(ctx, database, "bob@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}
	if missing != nil {
		t.Error("expected nil for missing user")
	}
}

func TestCreateUserRoleLabConsistency(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	lab := mustLab(t, database, "Physics")

	if _, err := CreateUser(ctx, database, "Ana", "ana@example.com", "hash", model.RoleLab, nil); err == nil {
		t.Error("expected lab user without lab to be rejected")
	}
	if _, err := CreateUser(ctx, database, "Root", "root@example.com", "hash", model.RoleAdmin, &lab.ID); err == nil {
		t.Error("expected admin with lab to be rejected")
	}
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	CreateUser(ctx, database, "Root", "root@example.com", "hash", model.RoleAdmin, nil)
	_, err := CreateUser(ctx, database, "Other", "root@example.com", "hash", model.RoleAdmin, nil)
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestUpdateAndDeleteUser(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	lab := mustLab(t, database, "Physics")
	user, _ := CreateUser(ctx, database, "Ana", "ana@example.com", "hash", model.RoleLab, &lab.ID)

	if err := UpdateUser(ctx, database, user.ID, "Ana K", "ana@example.com", model.RoleAdmin, nil); err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}
	got, _ := GetUser(ctx, database, user.ID)
	if got.Role != model.RoleAdmin || got.LabID != nil || got.Name != "Ana K" {
		t.Errorf("unexpected user after update %+v", got)
	}

	if err := UpdateUserPassword(ctx, database, user.ID, "newhash"); err != nil {
		t.Fatalf("UpdateUserPassword: %v", err)
	}
	got, _ = GetUser(ctx, database, user.ID)
	if got.PasswordHash != "newhash" {
		t.Errorf("expected new hash, got %q", got.PasswordHash)
	}

	if err := DeleteUser(ctx, database, user.ID); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}
	byEmail, _ := GetUserByEmail(ctx, database, "ana@example.com")
	if byEmail != nil {
		t.Error("expected deleted user to be hidden from login lookup")
	}
	users, _ := ListUsers(ctx, database)
	if len(users) != 0 {
		t.Errorf("expected no users, got %d", len(users))
	}
}

func TestCountAdmins(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	n, err := CountAdmins(ctx, database)
	if err != nil {
		t.Fatalf("CountAdmins: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected 0 admins, got %d", n)
	}

	lab := mustLab(t, database, "Physics")
	CreateUser(ctx, database, "Ana", "ana@example.com", "hash", model.RoleLab, &lab.ID)
	admin, _ := CreateUser(ctx, database, "Root", "root@example.com", "hash", model.RoleAdmin, nil)

	if n, _ = CountAdmins(ctx, database); n != 1 {
		t.Errorf("expected 1 admin, got %d", n)
	}

	DeleteUser(ctx, database, admin.ID)
	if n, _ = CountAdmins(ctx, database); n != 0 {
		t.Errorf("expected deleted admin to be ignored, got %d", n)
	}
}
