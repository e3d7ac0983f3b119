package store

import (
	"context"
	"testing"

	"github.com/erazemk/labstock/internal/db"
)

func TestGetJWTSecret_GeneratesAndPersists(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	secret1, err := GetJWTSecret(ctx, database)
	if err != nil {
		t.Fatal(err)
	}
	if len(secret1) != 64 { // 32 bytes = 64 hex chars
		t.Fatalf("expected 64 hex chars, got %d", len(secret1))
	}

	secret2, err := GetJWTSecret(ctx, database)
	if err != nil {
		t.Fatal(err)
	}
	if secret1 != secret2 {
		t.Fatalf("expected same secret, got %q and %q", secret1, secret2)
	}
}

func TestPutAndGetSetting(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	_, ok, err := GetSetting(ctx, database, "bootstrap_done")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("expected unset key")
	}

	if err := PutSetting(ctx, database, "bootstrap_done", "1"); err != nil {
		t.Fatal(err)
	}
	if err := PutSetting(ctx, database, "bootstrap_done", "2"); err != nil {
		t.Fatal(err)
	}

	v, ok, _ := GetSetting(ctx, database, "bootstrap_done")
	if !ok || v != "2" {
		t.Errorf("expected overwritten value 2, got %q (ok=%v)", v, ok)
	}
}
