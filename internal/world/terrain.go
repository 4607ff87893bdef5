package world

// Traversal cost terms.
const (
	BaseTraversalCost    = 1.0
	ImpassablePenalty    = 5.0
	SlopeCostCoefficient = 4.0
)

// TerrainSample is one classified tile along a line, with the slope from the
// previous tile and the resulting traversal cost.
type TerrainSample struct {
	Position      Vector2 `json:"position"`
	Biome         Biome   `json:"biome"`
	Elevation     float64 `json:"elevation"`
	Traversable   bool    `json:"traversable"`
	Slope         float64 `json:"slope"`
	TraversalCost float64 `json:"traversal_cost"`
}

// NewSample scores a tile given its slope. The cost is never below 1.
func NewSample(t Tile, slope float64) TerrainSample {
	traversable := t.Traversable && t.Biome != BiomeWater
	return TerrainSample{
		Position:      Vector2{X: t.X, Y: t.Y},
		Biome:         t.Biome,
		Elevation:     t.Elevation,
		Traversable:   traversable,
		Slope:         slope,
		TraversalCost: TraversalCost(traversable, slope),
	}
}

// TraversalCost is 1, plus 5 when impassable, plus 4 per unit of slope.
func TraversalCost(traversable bool, slope float64) float64 {
	cost := BaseTraversalCost + SlopeCostCoefficient*slope
	if !traversable {
		cost += ImpassablePenalty
	}
	return cost
}

// Bresenham returns every tile on the integer line from a to b, inclusive,
// in travel order. All eight octants go through one error accumulator.
func Bresenham(a, b Point) []Point {
	dx := abs(b.X - a.X)
	dy := -abs(b.Y - a.Y)
	sx, sy := 1, 1
	if a.X > b.X {
		sx = -1
	}
	if a.Y > b.Y {
		sy = -1
	}

	points := make([]Point, 0, max(dx, -dy)+1)
	x, y := a.X, a.Y
	err := dx + dy
	for {
		points = append(points, Point{X: x, Y: y})
		if x == b.X && y == b.Y {
			break
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x += sx
		}
		if e2 <= dx {
			err += dx
			y += sy
		}
	}
	return points
}

// SampleLine classifies the rasterized line between the tiles containing
// start and end. Slope of the first sample is 0.
func (f *Field) SampleLine(start, end Vector2) []TerrainSample {
	points := Bresenham(start.Round(), end.Round())
	samples := make([]TerrainSample, 0, len(points))

	prev := 0.0
	for i, p := range points {
		t := f.Tile(float64(p.X), float64(p.Y))
		slope := 0.0
		if i > 0 {
			slope = abs64(t.Elevation - prev)
		}
		samples = append(samples, NewSample(t, slope))
		prev = t.Elevation
	}
	return mergeDuplicates(samples)
}

// SamplePolyline concatenates the line profiles of consecutive waypoints,
// dropping the shared first sample of every segment after the first.
func (f *Field) SamplePolyline(polyline []Vector2) []TerrainSample {
	if len(polyline) < 2 {
		return nil
	}
	var samples []TerrainSample
	for i := 0; i < len(polyline)-1; i++ {
		seg := f.SampleLine(polyline[i], polyline[i+1])
		if i > 0 && len(seg) > 0 {
			seg = seg[1:]
		}
		samples = append(samples, seg...)
	}
	return mergeDuplicates(samples)
}

// mergeDuplicates drops samples at the same tile as their predecessor,
// keeping the first occurrence.
func mergeDuplicates(samples []TerrainSample) []TerrainSample {
	if len(samples) == 0 {
		return samples
	}
	merged := samples[:1]
	for _, s := range samples[1:] {
		if s.Position != merged[len(merged)-1].Position {
			merged = append(merged, s)
		}
	}
	return merged
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func abs64(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
