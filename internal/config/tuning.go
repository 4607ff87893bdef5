package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Tuning bounds what a single API request may ask for.
type Tuning struct {
	DefaultRadius  float64 `yaml:"default_radius"`
	MaxRadius      float64 `yaml:"max_radius"`
	NearbyLimit    int     `yaml:"nearby_limit"`
	MaxNearbyLimit int     `yaml:"max_nearby_limit"`
	MaxTileSpan    int     `yaml:"max_tile_span"`
	MaxPOIRadius   int     `yaml:"max_poi_radius"`

	RateLimits RateLimits `yaml:"rate_limits"`
}

// RateLimits caps expensive endpoints per client address.
type RateLimits struct {
	GenerateMax           int `yaml:"generate_max"`
	GenerateWindowSeconds int `yaml:"generate_window_seconds"`
	LocateMax             int `yaml:"locate_max"`
	LocateWindowSeconds   int `yaml:"locate_window_seconds"`
}

// GenerateWindow is the network generation rate window.
func (r RateLimits) GenerateWindow() time.Duration {
	return time.Duration(r.GenerateWindowSeconds) * time.Second
}

// LocateWindow is the location query rate window.
func (r RateLimits) LocateWindow() time.Duration {
	return time.Duration(r.LocateWindowSeconds) * time.Second
}

// DefaultTuning is used when no tuning file is configured.
func DefaultTuning() Tuning {
	return Tuning{
		DefaultRadius:  30,
		MaxRadius:      200,
		NearbyLimit:    3,
		MaxNearbyLimit: 25,
		MaxTileSpan:    128,
		MaxPOIRadius:   32,
		RateLimits: RateLimits{
			GenerateMax:           10,
			GenerateWindowSeconds: 3600,
			LocateMax:             600,
			LocateWindowSeconds:   60,
		},
	}
}

// LoadTuning reads a tuning file over the defaults. An empty path or a
// missing file yields the defaults.
func LoadTuning(path string) (Tuning, error) {
	t := DefaultTuning()
	if path == "" {
		return t, nil
	}
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return t, nil
	}
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning %s: %w", path, err)
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning %s: %w", path, err)
	}
	return t, nil
}

// Validate rejects limits that would make every request fail.
func (t Tuning) Validate() error {
	switch {
	case t.DefaultRadius <= 0 || t.MaxRadius <= 0:
		return errors.New("radii must be positive")
	case t.DefaultRadius > t.MaxRadius:
		return fmt.Errorf("default_radius %v exceeds max_radius %v", t.DefaultRadius, t.MaxRadius)
	case t.NearbyLimit <= 0 || t.NearbyLimit > t.MaxNearbyLimit:
		return fmt.Errorf("nearby_limit must be in 1..%d", t.MaxNearbyLimit)
	case t.MaxTileSpan <= 0:
		return errors.New("max_tile_span must be positive")
	case t.MaxPOIRadius < 0:
		return errors.New("max_poi_radius must not be negative")
	case t.RateLimits.GenerateMax <= 0 || t.RateLimits.GenerateWindowSeconds <= 0:
		return errors.New("generate rate limit must be positive")
	case t.RateLimits.LocateMax <= 0 || t.RateLimits.LocateWindowSeconds <= 0:
		return errors.New("locate rate limit must be positive")
	}
	return nil
}
