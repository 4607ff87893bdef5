// Package locate answers "where am I" questions: nearest settlement,
// settlements and roads within a radius, the nearest point on any road, and
// the local terrain neighbourhood.
package locate

import (
	"math"

	"github.com/talgya/waystone/internal/world"
)

// Projection is the closest point on a polyline to a query point.
type Projection struct {
	Distance     float64       `json:"distance"`
	Position     world.Vector2 `json:"position"`
	SegmentIndex int           `json:"segment_index"`
}

// ProjectOnSegment returns the point of segment ab closest to p and its
// distance. A zero-length segment projects onto a.
func ProjectOnSegment(p, a, b world.Vector2) (world.Vector2, float64) {
	ab := b.Sub(a)
	lenSq := ab.Dot(ab)
	if lenSq == 0 {
		return a, world.Distance(p, a)
	}
	t := p.Sub(a).Dot(ab) / lenSq
	t = math.Max(0, math.Min(1, t))
	proj := world.Vector2{X: a.X + ab.X*t, Y: a.Y + ab.Y*t}
	return proj, world.Distance(p, proj)
}

// DistanceToPolyline finds the closest segment of polyline to p. The first
// segment wins ties. An empty polyline is infinitely far away with segment
// index -1; a single vertex is treated as a zero-length segment.
func DistanceToPolyline(p world.Vector2, polyline []world.Vector2) Projection {
	switch len(polyline) {
	case 0:
		return Projection{Distance: math.Inf(1), SegmentIndex: -1}
	case 1:
		return Projection{Distance: world.Distance(p, polyline[0]), Position: polyline[0]}
	}

	best := Projection{Distance: math.Inf(1), Position: polyline[0]}
	for i := 0; i < len(polyline)-1; i++ {
		pos, d := ProjectOnSegment(p, polyline[i], polyline[i+1])
		if d < best.Distance {
			best = Projection{Distance: d, Position: pos, SegmentIndex: i}
		}
	}
	return best
}
