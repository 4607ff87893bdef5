package locate

import (
	"math"
	"testing"

	"github.com/talgya/waystone/internal/entropy"
	"github.com/talgya/waystone/internal/world"
)

func TestMidpointOfTwoPointPolyline(t *testing.T) {
	poly := []world.Vector2{{X: 0, Y: 0}, {X: 10, Y: 0}}
	got := DistanceToPolyline(world.Vector2{X: 5, Y: 0}, poly)
	if got.Distance != 0 || got.SegmentIndex != 0 {
		t.Fatalf("got %+v, want distance 0 on segment 0", got)
	}
	if got.Position != (world.Vector2{X: 5, Y: 0}) {
		t.Fatalf("projected to %v", got.Position)
	}
}

func TestProjectionClampsToSegment(t *testing.T) {
	a, b := world.Vector2{X: 0, Y: 0}, world.Vector2{X: 4, Y: 0}
	pos, d := ProjectOnSegment(world.Vector2{X: 7, Y: 4}, a, b)
	if pos != b || d != 5 {
		t.Fatalf("beyond b: got %v at %v", pos, d)
	}
	pos, d = ProjectOnSegment(world.Vector2{X: -3, Y: -4}, a, b)
	if pos != a || d != 5 {
		t.Fatalf("before a: got %v at %v", pos, d)
	}
}

func TestZeroLengthSegmentFallsBackToEndpoint(t *testing.T) {
	a := world.Vector2{X: 2, Y: 2}
	pos, d := ProjectOnSegment(world.Vector2{X: 5, Y: 6}, a, a)
	if pos != a || d != 5 {
		t.Fatalf("got %v at %v", pos, d)
	}
}

func TestPolylineDistanceNeverExceedsVertexDistance(t *testing.T) {
	rng := entropy.New("vertex-bound")
	for trial := 0; trial < 200; trial++ {
		poly := make([]world.Vector2, rng.Int(2, 8))
		for i := range poly {
			poly[i] = world.Vector2{X: rng.Float(-50, 50), Y: rng.Float(-50, 50)}
		}
		p := world.Vector2{X: rng.Float(-60, 60), Y: rng.Float(-60, 60)}
		got := DistanceToPolyline(p, poly).Distance
		for i, v := range poly {
			if d := world.Distance(p, v); got > d+1e-9 {
				t.Fatalf("trial %d: polyline distance %v exceeds vertex %d distance %v", trial, got, i, d)
			}
		}
	}
}

func TestDegeneratePolylines(t *testing.T) {
	empty := DistanceToPolyline(world.Vector2{}, nil)
	if !math.IsInf(empty.Distance, 1) || empty.SegmentIndex != -1 {
		t.Fatalf("empty polyline: %+v", empty)
	}
	single := DistanceToPolyline(world.Vector2{X: 3, Y: 4}, []world.Vector2{{}})
	if single.Distance != 5 || single.SegmentIndex != 0 {
		t.Fatalf("single vertex: %+v", single)
	}
}

func TestFirstSegmentWinsTies(t *testing.T) {
	// Point equidistant from both legs of a V.
	poly := []world.Vector2{{X: -5, Y: 5}, {X: 0, Y: 0}, {X: 5, Y: 5}}
	got := DistanceToPolyline(world.Vector2{X: 0, Y: 5}, poly)
	if got.SegmentIndex != 0 {
		t.Fatalf("expected segment 0, got %d", got.SegmentIndex)
	}
}
