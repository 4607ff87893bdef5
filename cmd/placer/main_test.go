package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/talgya/waystone/internal/persistence"
)

func TestRunSeedsCatalogAndRoads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "placer.db")
	ctx := context.Background()

	if err := run(ctx, path, "alpha", 7, 40, true); err != nil {
		t.Fatalf("run: %v", err)
	}
	// A second run over the same inputs changes nothing.
	if err := run(ctx, path, "alpha", 7, 40, true); err != nil {
		t.Fatalf("rerun: %v", err)
	}

	db, err := persistence.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	settlements, err := db.Settlements(ctx, "alpha")
	if err != nil {
		t.Fatalf("settlements: %v", err)
	}
	if len(settlements) < 2 {
		t.Fatalf("expected a multi-settlement catalog, got %d", len(settlements))
	}
	rs, err := db.Roads(ctx, "alpha")
	if err != nil {
		t.Fatalf("roads: %v", err)
	}
	if len(rs) != len(settlements)-1 {
		t.Fatalf("expected %d roads, got %d", len(settlements)-1, len(rs))
	}
	if v, err := db.GetMeta("placement_seed:alpha"); err != nil || v != "7" {
		t.Fatalf("placement seed meta %q (%v)", v, err)
	}
}
