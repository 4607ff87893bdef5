// Command placer seeds a demo settlement catalog for a campaign and,
// optionally, builds its road network.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/talgya/waystone/internal/config"
	"github.com/talgya/waystone/internal/persistence"
	"github.com/talgya/waystone/internal/roads"
	"github.com/talgya/waystone/internal/world"
)

func main() {
	campaign := flag.String("campaign", "", "campaign seed to seed the catalog for (required)")
	seed := flag.Int64("seed", 42, "placement seed")
	radius := flag.Int("radius", 80, "half-width of the placement region in tiles")
	withRoads := flag.Bool("roads", true, "generate the road network after seeding")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.Level(),
	}))
	slog.SetDefault(logger)

	if *campaign == "" {
		slog.Error("-campaign is required")
		os.Exit(2)
	}

	if err := run(context.Background(), cfg.DBPath, *campaign, *seed, *radius, *withRoads); err != nil {
		slog.Error("placement failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, dbPath, campaign string, seed int64, radius int, withRoads bool) error {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	db, err := persistence.Open(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	start := time.Now()
	field := world.NewField(campaign)
	placement := world.DefaultPlacementConfig()
	placement.Bounds = world.BoundsAround(0, 0, radius)

	seeds := world.PlaceSettlements(field, placement, seed)
	settlements := world.Settlements(campaign, seeds)
	for _, s := range settlements {
		slog.Debug("settlement", "id", s.ID, "name", s.Name, "type", s.Type, "at", s.Position)
	}

	if err := db.SaveSettlements(ctx, campaign, settlements); err != nil {
		return fmt.Errorf("save catalog: %w", err)
	}
	if err := db.SaveMeta("placement_seed:"+campaign, strconv.FormatInt(seed, 10)); err != nil {
		return fmt.Errorf("save meta: %w", err)
	}
	slog.Info("catalog seeded",
		"campaign_seed", campaign,
		"settlements", len(settlements),
		"tiles_scanned", humanize.Comma(int64(placement.Bounds.TileCount())),
		"took", time.Since(start).Round(time.Millisecond),
	)

	if !withRoads {
		return nil
	}
	rs, err := roads.NewService(db, db).EnsureNetwork(ctx, campaign)
	if err != nil {
		return fmt.Errorf("build roads: %w", err)
	}
	var length float64
	for _, r := range rs {
		length += r.Length
	}
	slog.Info("road network ready",
		"campaign_seed", campaign,
		"roads", len(rs),
		"total_length", humanize.FormatFloat("#,###.#", length),
		"took", time.Since(start).Round(time.Millisecond),
	)
	return nil
}
