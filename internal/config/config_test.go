package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"WAYSTONE_PORT", "WAYSTONE_DB_PATH", "WAYSTONE_LOG_LEVEL", "WAYSTONE_CORS_ORIGINS"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != 8080 || cfg.DBPath != "data/waystone.db" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.Level() != slog.LevelInfo {
		t.Fatalf("level = %v", cfg.Level())
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("WAYSTONE_PORT", "9090")
	t.Setenv("WAYSTONE_ADMIN_KEY", "secret")
	t.Setenv("WAYSTONE_LOG_LEVEL", "debug")
	t.Setenv("WAYSTONE_CORS_ORIGINS", "http://a.example,http://b.example")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != 9090 || cfg.AdminKey != "secret" {
		t.Fatalf("got %+v", cfg)
	}
	if cfg.Level() != slog.LevelDebug {
		t.Fatalf("level = %v", cfg.Level())
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "http://b.example" {
		t.Fatalf("origins = %v", cfg.CORSOrigins)
	}
}

func TestLoadRejectsBadPort(t *testing.T) {
	t.Setenv("WAYSTONE_PORT", "70000")
	if _, err := Load(); err == nil {
		t.Fatal("expected an error for an out-of-range port")
	}
	t.Setenv("WAYSTONE_PORT", "eighty")
	if _, err := Load(); err == nil {
		t.Fatal("expected a parse error")
	}
}

func TestUnknownLogLevelIsInfo(t *testing.T) {
	if got := (Config{LogLevel: "chatty"}).Level(); got != slog.LevelInfo {
		t.Fatalf("level = %v", got)
	}
}

func TestLoadTuningMissingFileUsesDefaults(t *testing.T) {
	for _, path := range []string{"", filepath.Join(t.TempDir(), "absent.yaml")} {
		got, err := LoadTuning(path)
		if err != nil {
			t.Fatalf("LoadTuning(%q): %v", path, err)
		}
		if got != DefaultTuning() {
			t.Fatalf("LoadTuning(%q) = %+v", path, got)
		}
	}
}

func TestLoadTuningOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	body := "max_radius: 90\nmax_tile_span: 64\nrate_limits:\n  generate_max: 2\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := LoadTuning(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.MaxRadius != 90 || got.MaxTileSpan != 64 || got.RateLimits.GenerateMax != 2 {
		t.Fatalf("overrides not applied: %+v", got)
	}
	if got.DefaultRadius != 30 || got.RateLimits.GenerateWindowSeconds != 3600 {
		t.Fatalf("defaults lost: %+v", got)
	}
}

func TestLoadTuningRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	if err := os.WriteFile(path, []byte("default_radius: 500\nmax_radius: 100\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadTuning(path); err == nil {
		t.Fatal("expected validation error")
	}
	if err := os.WriteFile(path, []byte("max_poi_radius: -1\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadTuning(path); err == nil || !strings.Contains(err.Error(), "max_poi_radius") {
		t.Fatalf("expected a max_poi_radius error, got %v", err)
	}
	if err := os.WriteFile(path, []byte("max_tile_span: 0\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadTuning(path); err == nil || !strings.Contains(err.Error(), "max_tile_span") {
		t.Fatalf("expected a max_tile_span error, got %v", err)
	}
	if err := os.WriteFile(path, []byte("max_radius: [oops"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadTuning(path); err == nil {
		t.Fatal("expected a yaml error")
	}
}
