// Tile classification from layered gradient noise.
// Elevation and moisture are each two weighted octaves; biome is a fixed
// branch chain over (elevation, moisture).
package world

import (
	"fmt"
	"math"
)

// Biome is the closed set of terrain classes a tile can take.
type Biome uint8

const (
	BiomeWater     Biome = iota // Impassable on foot
	BiomePlains                 // Open ground
	BiomeForest                 // Wet lowland
	BiomeMountains              // Elevation above the peak line
	BiomeDesert                 // Dry lowland
)

// Classification thresholds.
const (
	SeaLevel      = 0.3
	MountainLevel = 0.7
	AridLevel     = 0.3
	WetLevel      = 0.6
)

var biomeNames = [...]string{
	BiomeWater:     "water",
	BiomePlains:    "plains",
	BiomeForest:    "forest",
	BiomeMountains: "mountains",
	BiomeDesert:    "desert",
}

// Traversable reports whether the biome can be crossed on foot.
func (b Biome) Traversable() bool {
	return b != BiomeWater
}

func (b Biome) String() string {
	if int(b) < len(biomeNames) {
		return biomeNames[b]
	}
	return "unknown"
}

// MarshalText encodes the biome by name.
func (b Biome) MarshalText() ([]byte, error) {
	if int(b) >= len(biomeNames) {
		return nil, fmt.Errorf("invalid biome %d", b)
	}
	return []byte(biomeNames[b]), nil
}

// UnmarshalText decodes a biome name.
func (b *Biome) UnmarshalText(text []byte) error {
	parsed, ok := ParseBiome(string(text))
	if !ok {
		return fmt.Errorf("unknown biome %q", text)
	}
	*b = parsed
	return nil
}

// ParseBiome looks up a biome by name.
func ParseBiome(name string) (Biome, bool) {
	for i, n := range biomeNames {
		if n == name {
			return Biome(i), true
		}
	}
	return 0, false
}

// Tile is the classification of one world coordinate. Tiles are never stored;
// they are recomputed from (x, y, seed) whenever needed.
type Tile struct {
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Biome       Biome   `json:"biome"`
	Elevation   float64 `json:"elevation"` // 0.0 to 1.0, two decimals
	Traversable bool    `json:"traversable"`
}

// octave is one weighted noise layer.
type octave struct {
	frequency float64
	weight    float64
}

var (
	elevationOctaves = [2]octave{{0.05, 0.7}, {0.1, 0.3}}
	moistureOctaves  = [2]octave{{0.07, 0.6}, {0.12, 0.4}}
)

// moistureOffset decorrelates the moisture layer from elevation.
const moistureOffset = 1000

// Field classifies tiles for one campaign seed. A Field is immutable after
// construction and safe for concurrent use.
type Field struct {
	seed string
	perm permutation
}

// NewField builds the noise permutation for seed.
func NewField(seed string) *Field {
	return &Field{seed: seed, perm: newPermutation(seed)}
}

// Seed returns the campaign seed the field was built from.
func (f *Field) Seed() string {
	return f.seed
}

// TileAt classifies a single coordinate, building a fresh field for seed.
// Prefer NewField when classifying many tiles of the same campaign.
func TileAt(x, y float64, seed string) Tile {
	return NewField(seed).Tile(x, y)
}

// Tile classifies the coordinate (x, y). Inputs must be finite.
func (f *Field) Tile(x, y float64) Tile {
	elev := clamp01(f.layer(elevationOctaves, x, y, 0))
	elev = RoundTo(elev, 2)
	moisture := f.layer(moistureOctaves, x, y, moistureOffset)

	biome := Classify(elev, moisture)
	return Tile{
		X:           x,
		Y:           y,
		Biome:       biome,
		Elevation:   elev,
		Traversable: biome.Traversable(),
	}
}

// layer sums the octaves, each remapped from [-1, 1] to [0, 1].
func (f *Field) layer(octaves [2]octave, x, y, offset float64) float64 {
	total := 0.0
	for _, o := range octaves {
		n := f.perm.noise2(x*o.frequency+offset, y*o.frequency+offset)
		total += (n + 1) / 2 * o.weight
	}
	return total
}

// Classify maps elevation and moisture to a biome. The branch order is fixed
// and every input lands in exactly one biome.
func Classify(elevation, moisture float64) Biome {
	switch {
	case elevation < SeaLevel:
		return BiomeWater
	case elevation > MountainLevel:
		return BiomeMountains
	case moisture < AridLevel:
		return BiomeDesert
	case moisture > WetLevel:
		return BiomeForest
	default:
		return BiomePlains
	}
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
