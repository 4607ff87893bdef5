package persistence

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/talgya/waystone/internal/locate"
	"github.com/talgya/waystone/internal/roads"
	"github.com/talgya/waystone/internal/world"
)

var fixedNow = time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "waystone.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	db.now = func() time.Time { return fixedNow }
	t.Cleanup(func() { db.Close() })
	return db
}

func testSettlements(seed string) []world.Settlement {
	return []world.Settlement{
		world.NewSettlement("s-1", seed, "Oakford", world.SettlementTown, world.Vector2{X: 0, Y: 0}),
		world.NewSettlement("s-2", seed, "Brightwater", world.SettlementCity, world.Vector2{X: 14, Y: 6}),
		world.NewSettlement("s-3", seed, "Ashmoor", world.SettlementVillage, world.Vector2{X: -9, Y: 11}),
	}
}

func TestOpenRejectsEmptyPath(t *testing.T) {
	if _, err := Open("  "); err == nil {
		t.Fatal("expected an error for an empty path")
	}
}

func TestSettlementsCatalogRules(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	if err := db.SaveSettlements(ctx, "alpha", testSettlements("alpha")); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := db.conn.Exec(`INSERT INTO settlements (campaign_seed, id, name, type, pos_x, pos_y)
		VALUES ('alpha', 's-4', 'Cragholt', 'Castle', 3, 4), ('alpha', 's-5', 'Nowhere', 'town', NULL, 2),
		('alpha', 's-6', 'Dunmere', 'Town', 5, 5), ('alpha', 'poi-9', 'Sunken Crypt', 'dungeon', 7, 1)`); err != nil {
		t.Fatalf("raw insert: %v", err)
	}

	got, err := db.Settlements(ctx, "alpha")
	if err != nil {
		t.Fatalf("settlements: %v", err)
	}
	names := make([]string, len(got))
	for i, s := range got {
		names[i] = s.Name
	}
	want := []string{"Ashmoor", "Brightwater", "Dunmere", "Oakford"}
	if !reflect.DeepEqual(names, want) {
		t.Fatalf("names = %v, want %v", names, want)
	}
	if got[2].Type != world.SettlementTown || got[2].Importance != 3 {
		t.Fatalf("mixed-case type not normalized: %+v", got[2])
	}
	if got[1].Importance != 4 || got[1].CampaignSeed != "alpha" {
		t.Fatalf("city read back as %+v", got[1])
	}

	other, err := db.Settlements(ctx, "beta")
	if err != nil || len(other) != 0 {
		t.Fatalf("expected an empty catalog for another seed, got %d (%v)", len(other), err)
	}
}

func TestSaveSettlementsReplacesCampaign(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	if err := db.SaveSettlements(ctx, "alpha", testSettlements("alpha")); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := db.SaveSettlements(ctx, "alpha", testSettlements("alpha")[:1]); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := db.Settlements(ctx, "alpha")
	if err != nil {
		t.Fatalf("settlements: %v", err)
	}
	if len(got) != 1 || got[0].ID != "s-1" {
		t.Fatalf("expected only s-1, got %+v", got)
	}
}

func planned(seed string) []roads.Record {
	return roads.Plan(world.NewField(seed), testSettlements(seed), nil)
}

func TestInsertRoadsRoundTrip(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	records := planned("alpha")
	if len(records) != 2 {
		t.Fatalf("expected 2 planned roads, got %d", len(records))
	}
	inserted, err := db.InsertRoads(ctx, records)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if len(inserted) != 2 {
		t.Fatalf("expected 2 inserted, got %d", len(inserted))
	}

	got, err := db.Roads(ctx, "alpha")
	if err != nil {
		t.Fatalf("roads: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 roads, got %d", len(got))
	}
	for i, r := range got {
		want := records[i]
		if r.ID != want.ID || r.FromSettlementName != want.FromSettlementName || r.ToPosition != want.ToPosition {
			t.Fatalf("road %d header mismatch: %+v", i, r)
		}
		if !reflect.DeepEqual(r.Polyline, want.Polyline) {
			t.Fatalf("road %d polyline mismatch", i)
		}
		if !reflect.DeepEqual(r.TerrainProfile, want.TerrainProfile) {
			t.Fatalf("road %d terrain profile mismatch", i)
		}
		if r.Length != want.Length || r.AverageTraversalCost != want.AverageTraversalCost {
			t.Fatalf("road %d metrics mismatch", i)
		}
		if !r.CreatedAt.Equal(fixedNow) || !r.UpdatedAt.Equal(fixedNow) {
			t.Fatalf("road %d timestamps %v / %v", i, r.CreatedAt, r.UpdatedAt)
		}
	}
}

func TestInsertRoadsSkipsExistingPairs(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	records := planned("alpha")
	if _, err := db.InsertRoads(ctx, records); err != nil {
		t.Fatalf("insert: %v", err)
	}

	again, err := db.InsertRoads(ctx, records)
	if err != nil {
		t.Fatalf("insert again: %v", err)
	}
	if len(again) != 0 {
		t.Fatalf("expected no new rows, got %d", len(again))
	}

	// The same pair written the other way round is still the same road.
	flipped := records[0]
	flipped.ID = "flipped"
	flipped.FromSettlementID, flipped.ToSettlementID = flipped.ToSettlementID, flipped.FromSettlementID
	got, err := db.InsertRoads(ctx, []roads.Record{flipped})
	if err != nil {
		t.Fatalf("insert flipped: %v", err)
	}
	if len(got) != 0 {
		t.Fatal("expected the reversed pair to be skipped")
	}

	// Another campaign may hold the same pair.
	other := records[0]
	other.ID = ""
	other.CampaignSeed = "beta"
	got, err = db.InsertRoads(ctx, []roads.Record{other})
	if err != nil {
		t.Fatalf("insert other campaign: %v", err)
	}
	if len(got) != 1 || got[0].ID == "" {
		t.Fatalf("expected one inserted road with a derived id, got %+v", got)
	}
}

func TestConcurrentInsertsDoNotDuplicate(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	records := planned("alpha")

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		total int
	)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := db.InsertRoads(ctx, records)
			if err != nil {
				t.Errorf("insert: %v", err)
				return
			}
			mu.Lock()
			total += len(got)
			mu.Unlock()
		}()
	}
	wg.Wait()

	if total != len(records) {
		t.Fatalf("inserted %d rows across writers, want %d", total, len(records))
	}
	rs, err := db.Roads(ctx, "alpha")
	if err != nil {
		t.Fatalf("roads: %v", err)
	}
	if len(rs) != len(records) {
		t.Fatalf("stored %d roads, want %d", len(rs), len(records))
	}
}

func TestOpenEnablesWALAndBusyTimeout(t *testing.T) {
	db := openTestDB(t)

	var mode string
	if err := db.conn.Get(&mode, "PRAGMA journal_mode"); err != nil {
		t.Fatalf("journal_mode: %v", err)
	}
	if mode != "wal" {
		t.Fatalf("journal_mode = %q, want wal", mode)
	}
	var timeout int
	if err := db.conn.Get(&timeout, "PRAGMA busy_timeout"); err != nil {
		t.Fatalf("busy_timeout: %v", err)
	}
	if timeout != 5000 {
		t.Fatalf("busy_timeout = %d, want 5000", timeout)
	}
}

func TestInsertsAcrossHandlesShareOneFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shared.db")
	handles := make([]*DB, 2)
	for i := range handles {
		db, err := Open(path)
		if err != nil {
			t.Fatalf("open handle %d: %v", i, err)
		}
		t.Cleanup(func() { db.Close() })
		handles[i] = db
	}

	ctx := context.Background()
	records := planned("alpha")

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		total int
	)
	for _, db := range handles {
		for w := 0; w < 4; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := 0; i < 20; i++ {
					got, err := db.InsertRoads(ctx, records)
					if err != nil {
						t.Errorf("insert: %v", err)
						return
					}
					mu.Lock()
					total += len(got)
					mu.Unlock()
				}
			}()
		}
	}
	wg.Wait()

	if total != len(records) {
		t.Fatalf("inserted %d rows across handles, want %d", total, len(records))
	}
	rs, err := handles[1].Roads(ctx, "alpha")
	if err != nil {
		t.Fatalf("roads: %v", err)
	}
	if len(rs) != len(records) {
		t.Fatalf("stored %d roads, want %d", len(rs), len(records))
	}
}

func TestRoadServiceOverDB(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	if err := db.SaveSettlements(ctx, "alpha", testSettlements("alpha")); err != nil {
		t.Fatalf("save: %v", err)
	}

	svc := roads.NewService(db, db)
	first, err := svc.EnsureNetwork(ctx, "alpha")
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if len(first) != 2 {
		t.Fatalf("expected 2 roads, got %d", len(first))
	}
	second, err := svc.GenerateNetwork(ctx, "alpha")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(second) != 2 {
		t.Fatalf("expected generation to be idempotent, got %d roads", len(second))
	}
}

func TestRoadServiceSkipsIsolatedDungeons(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	if err := db.SaveSettlements(ctx, "alpha", testSettlements("alpha")[:2]); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := db.conn.Exec(`INSERT INTO settlements (campaign_seed, id, name, type, pos_x, pos_y)
		VALUES ('alpha', 'poi-9', 'Sunken Crypt', 'dungeon', 12, 4)`); err != nil {
		t.Fatalf("raw insert: %v", err)
	}

	rs, err := roads.NewService(db, db).GenerateNetwork(ctx, "alpha")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(rs) != 1 {
		t.Fatalf("expected a single road between the two settlements, got %d", len(rs))
	}
	for _, r := range rs {
		if r.FromSettlementID == "poi-9" || r.ToSettlementID == "poi-9" {
			t.Fatalf("dungeon joined the network: %s -> %s", r.FromSettlementName, r.ToSettlementName)
		}
	}
}

func TestCharacterLocationUpsert(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	if _, err := db.CharacterLocation(ctx, "hero"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	f := world.NewField("alpha")
	first := locate.CharacterLocation{
		CharacterID:    "hero",
		CampaignSeed:   "alpha",
		LastPosition:   world.Vector2{X: 1, Y: 2},
		TerrainProfile: locate.Neighborhood(f, world.Vector2{X: 1, Y: 2}, 1),
	}
	if err := db.SaveCharacterLocation(ctx, first); err != nil {
		t.Fatalf("save: %v", err)
	}
	second := first
	second.LastPosition = world.Vector2{X: 5, Y: -3}
	second.UpdatedAt = fixedNow.Add(time.Hour)
	if err := db.SaveCharacterLocation(ctx, second); err != nil {
		t.Fatalf("save again: %v", err)
	}

	got, err := db.CharacterLocation(ctx, "hero")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.LastPosition != second.LastPosition || !got.UpdatedAt.Equal(second.UpdatedAt) {
		t.Fatalf("got %+v", got)
	}
	if !reflect.DeepEqual(got.TerrainProfile, first.TerrainProfile) {
		t.Fatal("terrain profile did not survive the round trip")
	}

	counts, err := db.Counts(ctx)
	if err != nil {
		t.Fatalf("counts: %v", err)
	}
	if counts.Characters != 1 {
		t.Fatalf("expected one character row, got %+v", counts)
	}
}

func TestMeta(t *testing.T) {
	db := openTestDB(t)
	if _, err := db.GetMeta("catalog_seed"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := db.SaveMeta("catalog_seed", "42"); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := db.SaveMeta("catalog_seed", "43"); err != nil {
		t.Fatalf("save: %v", err)
	}
	v, err := db.GetMeta("catalog_seed")
	if err != nil || v != "43" {
		t.Fatalf("got %q (%v)", v, err)
	}
}

func TestCounts(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	if err := db.SaveSettlements(ctx, "alpha", testSettlements("alpha")); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := db.SaveSettlements(ctx, "beta", testSettlements("beta")[:2]); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := db.InsertRoads(ctx, planned("alpha")); err != nil {
		t.Fatalf("insert: %v", err)
	}

	c, err := db.Counts(ctx)
	if err != nil {
		t.Fatalf("counts: %v", err)
	}
	want := Counts{Campaigns: 2, Settlements: 5, Roads: 2}
	if c != want {
		t.Fatalf("counts = %+v, want %+v", c, want)
	}
}
