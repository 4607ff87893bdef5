package world

import (
	"fmt"
	"slices"
	"strings"

	"github.com/talgya/waystone/internal/entropy"
)

// PointOfInterest is a landmark rolled for a single tile.
type PointOfInterest struct {
	X           int    `json:"x"`
	Y           int    `json:"y"`
	Type        string `json:"type"`
	Name        string `json:"name"`
	Biome       Biome  `json:"biome"`
	Description string `json:"description"`
	DangerLevel int    `json:"danger_level"` // 1–5
}

type poiTemplate struct {
	kind   string
	name   string
	biomes []Biome
	rarity float64 // chance per matching tile
}

// First matching template wins, so order matters.
var poiTemplates = []poiTemplate{
	{"village", "Village", []Biome{BiomePlains, BiomeForest}, 0.02},
	{"dungeon", "Ancient Dungeon", []Biome{BiomeMountains, BiomeForest}, 0.015},
	{"ruins", "Ruins", []Biome{BiomePlains, BiomeDesert}, 0.02},
	{"cave", "Cave", []Biome{BiomeMountains}, 0.03},
	{"tower", "Abandoned Tower", []Biome{BiomePlains, BiomeForest}, 0.01},
	{"shrine", "Ancient Shrine", []Biome{BiomeForest, BiomeMountains}, 0.015},
}

// PointOfInterestAt rolls the landmark for tile (x, y). The roll is keyed by
// the campaign seed and the coordinate, so it never changes.
func (f *Field) PointOfInterestAt(x, y int) (PointOfInterest, bool) {
	rng := entropy.New(fmt.Sprintf("%s-%d-%d", f.seed, x, y))
	tile := f.Tile(float64(x), float64(y))

	idx := slices.IndexFunc(poiTemplates, func(t poiTemplate) bool {
		return slices.Contains(t.biomes, tile.Biome)
	})
	if idx < 0 {
		return PointOfInterest{}, false
	}
	tmpl := poiTemplates[idx]
	if rng.Next() > tmpl.rarity {
		return PointOfInterest{}, false
	}

	return PointOfInterest{
		X:           x,
		Y:           y,
		Type:        tmpl.kind,
		Name:        tmpl.name,
		Biome:       tile.Biome,
		Description: fmt.Sprintf("A %s situated within the %s.", strings.ToLower(tmpl.name), tile.Biome),
		DangerLevel: rng.Int(1, 5),
	}, true
}

// PointsOfInterestAround collects landmarks in the square of the given
// radius around (cx, cy).
func (f *Field) PointsOfInterestAround(cx, cy, radius int) []PointOfInterest {
	b := BoundsAround(cx, cy, radius)
	var pois []PointOfInterest
	for x := b.MinX; x <= b.MaxX; x++ {
		for y := b.MinY; y <= b.MaxY; y++ {
			if poi, ok := f.PointOfInterestAt(x, y); ok {
				pois = append(pois, poi)
			}
		}
	}
	return pois
}
