// Package world provides the deterministic terrain field: noise, tile
// classification, terrain sampling along lines, and settlement placement.
// Every tile is derived on demand from (x, y, seed); nothing is stored.
package world

import (
	"fmt"
	"math"
)

// Vector2 is a real-valued world coordinate.
type Vector2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Point is an integer tile coordinate.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Vec converts a tile coordinate back to world space.
func (p Point) Vec() Vector2 {
	return Vector2{X: float64(p.X), Y: float64(p.Y)}
}

// Round snaps v to the tile that contains it. Halves round up, so -2.5 maps
// to -2 and 2.5 to 3.
func (v Vector2) Round() Point {
	return Point{X: int(RoundHalfUp(v.X)), Y: int(RoundHalfUp(v.Y))}
}

// Sub returns v - o.
func (v Vector2) Sub(o Vector2) Vector2 {
	return Vector2{X: v.X - o.X, Y: v.Y - o.Y}
}

// Dot returns the dot product of v and o.
func (v Vector2) Dot(o Vector2) float64 {
	return v.X*o.X + v.Y*o.Y
}

// IsFinite reports whether both components are finite numbers.
func (v Vector2) IsFinite() bool {
	return !math.IsNaN(v.X) && !math.IsInf(v.X, 0) && !math.IsNaN(v.Y) && !math.IsInf(v.Y, 0)
}

func (v Vector2) String() string {
	return fmt.Sprintf("(%.2f, %.2f)", v.X, v.Y)
}

// Distance returns the Euclidean distance between a and b.
func Distance(a, b Vector2) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}

// RoundHalfUp rounds to the nearest integer with ties toward +Inf.
func RoundHalfUp(x float64) float64 {
	return math.Floor(x + 0.5)
}

// RoundTo rounds x to the given number of decimal places, ties toward +Inf.
func RoundTo(x float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return RoundHalfUp(x*scale) / scale
}
