package roads

import (
	"math"

	"github.com/talgya/waystone/internal/entropy"
	"github.com/talgya/waystone/internal/world"
)

const (
	minSegments     = 4
	waypointSpacing = 6.0
	maxAmplitude    = 8.0
	amplitudeRatio  = 0.15
)

// Polyline renders a road between from and to as at least five waypoints.
// Interior points are pushed perpendicular to the direction of travel by
// amplitude * sin(pi*t) * offset, with offset drawn from [-0.5, 0.5) of a
// source keyed by seed. Endpoints are never moved. Coordinates are rounded to
// two decimals.
func Polyline(from, to world.Vector2, seed string) []world.Vector2 {
	dist := world.Distance(from, to)
	segments := max(minSegments, int(math.Ceil(dist/waypointSpacing)))
	rng := entropy.New(seed)

	dx := to.X - from.X
	dy := to.Y - from.Y
	perp := math.Atan2(dy, dx) + math.Pi/2
	amplitude := math.Min(maxAmplitude, dist*amplitudeRatio)

	points := make([]world.Vector2, 0, segments+1)
	for i := 0; i <= segments; i++ {
		t := float64(i) / float64(segments)
		x := from.X + dx*t
		y := from.Y + dy*t

		if i > 0 && i < segments {
			offset := amplitude * math.Sin(math.Pi*t) * rng.Float(-0.5, 0.5)
			x += math.Cos(perp) * offset
			y += math.Sin(perp) * offset
		}

		points = append(points, world.Vector2{X: world.RoundTo(x, 2), Y: world.RoundTo(y, 2)})
	}
	return points
}

// Length sums the segment lengths of a polyline.
func Length(polyline []world.Vector2) float64 {
	total := 0.0
	for i := 1; i < len(polyline); i++ {
		total += world.Distance(polyline[i-1], polyline[i])
	}
	return total
}
