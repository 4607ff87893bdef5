// Command waystone serves deterministic terrain, road networks and location
// queries for campaign worlds.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/talgya/waystone/internal/api"
	"github.com/talgya/waystone/internal/config"
	"github.com/talgya/waystone/internal/locate"
	"github.com/talgya/waystone/internal/persistence"
	"github.com/talgya/waystone/internal/roads"
	"github.com/talgya/waystone/internal/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.Level(),
	}))
	slog.SetDefault(logger)

	tuning, err := config.LoadTuning(cfg.TuningPath)
	if err != nil {
		slog.Error("failed to load tuning", "path", cfg.TuningPath, "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, "waystone", cfg.OTELEndpoint)
	if err != nil {
		slog.Error("failed to set up tracing", "error", err)
		os.Exit(1)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			slog.Warn("trace flush failed", "error", err)
		}
	}()

	// ── Database ──────────────────────────────────────────────────────
	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			slog.Error("failed to create data directory", "dir", dir, "error", err)
			os.Exit(1)
		}
	}
	db, err := persistence.Open(cfg.DBPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	counts, err := db.Counts(ctx)
	if err != nil {
		slog.Error("failed to read database", "error", err)
		os.Exit(1)
	}
	slog.Info("database opened",
		"path", cfg.DBPath,
		"campaigns", humanize.Comma(int64(counts.Campaigns)),
		"settlements", humanize.Comma(int64(counts.Settlements)),
		"roads", humanize.Comma(int64(counts.Roads)),
		"characters", humanize.Comma(int64(counts.Characters)),
	)

	// ── Services ──────────────────────────────────────────────────────
	network := roads.NewService(db, db)
	locator := locate.NewService(network, db)

	if cfg.AdminKey == "" {
		slog.Warn("WAYSTONE_ADMIN_KEY not set, road generation endpoint disabled")
	}

	// ── HTTP API ──────────────────────────────────────────────────────
	apiServer := &api.Server{
		Roads:       network,
		Locator:     locator,
		DB:          db,
		Tuning:      tuning,
		Port:        cfg.Port,
		AdminKey:    cfg.AdminKey,
		CORSOrigins: cfg.CORSOrigins,
	}
	srv := apiServer.Start()

	fmt.Printf("API: http://localhost:%d/api/v1/status\n", cfg.Port)

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP shutdown failed", "error", err)
	}
}
