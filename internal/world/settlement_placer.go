// Settlement placement: seeds a demo catalog by scoring land tiles.
package world

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// SettlementSeed is one proposed catalog entry.
type SettlementSeed struct {
	Position Point
	Type     SettlementType
	Score    float64 // Desirability score
	Name     string
}

// PlacementConfig controls how many settlements of each type are placed and
// how far apart they must be.
type PlacementConfig struct {
	Bounds Bounds
	Stride int // Sample every Nth tile
	Tiers  []PlacementTier
}

// PlacementTier is one settlement type's quota and spacing.
type PlacementTier struct {
	Type    SettlementType
	MinN    int
	MaxN    int
	MinDist float64
}

// DefaultPlacementConfig covers a 160x160 region around the origin.
func DefaultPlacementConfig() PlacementConfig {
	return PlacementConfig{
		Bounds: BoundsAround(0, 0, 80),
		Stride: 2,
		Tiers: []PlacementTier{
			{SettlementCapital, 1, 1, 40},
			{SettlementCity, 2, 3, 28},
			{SettlementTown, 4, 6, 18},
			{SettlementFort, 1, 2, 14},
			{SettlementOutpost, 2, 3, 10},
			{SettlementVillage, 6, 10, 8},
		},
	}
}

// PlaceSettlements proposes settlement sites on f. Output depends only on
// the field, cfg, and seed.
func PlaceSettlements(f *Field, cfg PlacementConfig, seed int64) []SettlementSeed {
	rng := rand.New(rand.NewSource(seed + 200))
	desire := opensimplex.NewNormalized(seed)

	stride := cfg.Stride
	if stride < 1 {
		stride = 1
	}
	b := cfg.Bounds.Normalize()

	type scored struct {
		at    Point
		score float64
	}
	var candidates []scored
	for x := b.MinX; x <= b.MaxX; x += stride {
		for y := b.MinY; y <= b.MaxY; y += stride {
			p := Point{X: x, Y: y}
			if s := settlementScore(f, desire, p); s > 0 {
				candidates = append(candidates, scored{p, s})
			}
		}
	}

	// Score descending; coordinates break ties so the order is total.
	sort.Slice(candidates, func(i, j int) bool {
		a, c := candidates[i], candidates[j]
		if a.score != c.score {
			return a.score > c.score
		}
		if a.at.X != c.at.X {
			return a.at.X < c.at.X
		}
		return a.at.Y < c.at.Y
	})

	var seeds []SettlementSeed
	taken := make(map[Point]bool)
	for _, tier := range cfg.Tiers {
		want := tier.MinN
		if tier.MaxN > tier.MinN {
			want += rng.Intn(tier.MaxN - tier.MinN + 1)
		}
		placed := 0
		for _, c := range candidates {
			if placed >= want {
				break
			}
			if taken[c.at] || tooClose(c.at, seeds, tier.MinDist) {
				continue
			}
			taken[c.at] = true
			seeds = append(seeds, SettlementSeed{Position: c.at, Type: tier.Type, Score: c.score})
			placed++
		}
	}

	names := generateNames(rng, len(seeds))
	for i := range seeds {
		seeds[i].Name = names[i]
	}
	return seeds
}

// Settlements turns placement seeds into catalog entries with stable ids.
func Settlements(campaignSeed string, seeds []SettlementSeed) []Settlement {
	out := make([]Settlement, 0, len(seeds))
	for i, s := range seeds {
		id := fmt.Sprintf("%s-%s-%03d", campaignSeed, s.Type, i+1)
		out = append(out, NewSettlement(id, campaignSeed, s.Name, s.Type, s.Position.Vec()))
	}
	return out
}

// settlementScore evaluates how desirable a tile is for a settlement.
// Prefers plains and forest, mixed surroundings, and high desirability noise.
func settlementScore(f *Field, desire opensimplex.Noise, p Point) float64 {
	t := f.Tile(float64(p.X), float64(p.Y))
	score := 0.0

	switch t.Biome {
	case BiomePlains:
		score += 3.0
	case BiomeForest:
		score += 1.5
	case BiomeDesert:
		score += 0.5
	case BiomeMountains:
		score += 0.3 // Mining outposts, not ideal for settlements
	default:
		return 0
	}

	// Bonus for nearby biome diversity, with water counting as a harbour.
	biomes := make(map[Biome]bool)
	for _, n := range f.TilesAround(p.X, p.Y, 1) {
		biomes[n.Biome] = true
	}
	score += float64(len(biomes)-1) * 0.3
	if biomes[BiomeWater] {
		score += 0.5
	}

	score += desire.Eval2(float64(p.X)*0.04, float64(p.Y)*0.04) * 2
	// Gentle ground is easier to build on.
	score -= math.Abs(t.Elevation-0.5) * 0.5
	return score
}

func tooClose(p Point, existing []SettlementSeed, minDist float64) bool {
	for _, s := range existing {
		if Distance(p.Vec(), s.Position.Vec()) < minDist {
			return true
		}
	}
	return false
}

// generateNames produces procedural settlement names by combining syllables.
// Once every combination is used, names repeat with a numeric suffix.
func generateNames(rng *rand.Rand, count int) []string {
	prefixes := []string{
		"Iron", "Green", "Ash", "Stone", "Mill", "Cross", "Black",
		"Silver", "Red", "White", "Dark", "Bright", "High", "Low",
		"Old", "New", "Far", "Deep", "Long", "Broad", "Gold", "Frost",
		"Storm", "Thorn", "Elm", "Oak", "Pine", "Copper", "River",
	}
	suffixes := []string{
		"haven", "ford", "hollow", "wick", "bridge", "gate", "keep",
		"stead", "wood", "field", "dale", "crest", "vale", "port",
		"town", "bury", "marsh", "well", "brook", "cliff", "moor",
		"ridge", "watch", "fall", "rest", "point", "reach", "helm",
	}

	capacity := len(prefixes) * len(suffixes)
	used := make(map[string]bool)
	names := make([]string, 0, count)
	for len(names) < count && len(names) < capacity {
		name := prefixes[rng.Intn(len(prefixes))] + suffixes[rng.Intn(len(suffixes))]
		if !used[name] {
			used[name] = true
			names = append(names, name)
		}
	}
	for i := 0; len(names) < count; i++ {
		names = append(names, fmt.Sprintf("%s %d", names[i%capacity], i/capacity+2))
	}
	return names
}
