package world

import "fmt"

// Bounds is an inclusive integer box of tiles.
type Bounds struct {
	MinX int `json:"min_x"`
	MinY int `json:"min_y"`
	MaxX int `json:"max_x"`
	MaxY int `json:"max_y"`
}

// BoundsAround returns the square of side 2*radius+1 centred on (cx, cy).
func BoundsAround(cx, cy, radius int) Bounds {
	if radius < 0 {
		radius = 0
	}
	return Bounds{MinX: cx - radius, MinY: cy - radius, MaxX: cx + radius, MaxY: cy + radius}
}

// Normalize swaps inverted edges so Min <= Max on both axes.
func (b Bounds) Normalize() Bounds {
	if b.MinX > b.MaxX {
		b.MinX, b.MaxX = b.MaxX, b.MinX
	}
	if b.MinY > b.MaxY {
		b.MinY, b.MaxY = b.MaxY, b.MinY
	}
	return b
}

// Width returns the number of tile columns.
func (b Bounds) Width() int {
	return b.MaxX - b.MinX + 1
}

// Height returns the number of tile rows.
func (b Bounds) Height() int {
	return b.MaxY - b.MinY + 1
}

// TileCount returns the number of tiles in the box.
func (b Bounds) TileCount() int {
	if b.Width() <= 0 || b.Height() <= 0 {
		return 0
	}
	return b.Width() * b.Height()
}

// Contains reports whether p lies inside the box.
func (b Bounds) Contains(p Point) bool {
	return p.X >= b.MinX && p.X <= b.MaxX && p.Y >= b.MinY && p.Y <= b.MaxY
}

func (b Bounds) String() string {
	return fmt.Sprintf("Bounds(%d,%d..%d,%d)", b.MinX, b.MinY, b.MaxX, b.MaxY)
}

// TilesInBounds classifies every tile in b, column by column.
func (f *Field) TilesInBounds(b Bounds) []Tile {
	b = b.Normalize()
	tiles := make([]Tile, 0, b.TileCount())
	for x := b.MinX; x <= b.MaxX; x++ {
		for y := b.MinY; y <= b.MaxY; y++ {
			tiles = append(tiles, f.Tile(float64(x), float64(y)))
		}
	}
	return tiles
}

// TilesAround classifies the (2*radius+1)^2 square centred on (cx, cy).
func (f *Field) TilesAround(cx, cy, radius int) []Tile {
	return f.TilesInBounds(BoundsAround(cx, cy, radius))
}

// BiomeCounts returns a summary of biome distribution over tiles.
func BiomeCounts(tiles []Tile) map[Biome]int {
	counts := make(map[Biome]int)
	for _, t := range tiles {
		counts[t.Biome]++
	}
	return counts
}
