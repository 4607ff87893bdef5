package world

import (
	"math"

	"github.com/talgya/waystone/internal/entropy"
)

// permutation is a 256-entry shuffle duplicated to 512 so corner lookups
// never wrap. Built fresh per Field; never shared between seeds.
type permutation [512]int

func newPermutation(seed string) permutation {
	rng := entropy.New(seed)

	var base [256]int
	for i := range base {
		base[i] = i
	}
	// Fisher–Yates.
	for i := 255; i > 0; i-- {
		j := rng.Int(0, i)
		base[i], base[j] = base[j], base[i]
	}

	var p permutation
	for i := 0; i < 256; i++ {
		p[i] = base[i]
		p[i+256] = base[i]
	}
	return p
}

// noise2 evaluates 2D gradient noise at (x, y).
func (p *permutation) noise2(x, y float64) float64 {
	fx := math.Floor(x)
	fy := math.Floor(y)
	X := int(fx) & 255
	Y := int(fy) & 255

	x -= fx
	y -= fy

	u := fade(x)
	v := fade(y)

	a := p[X] + Y
	b := p[X+1] + Y

	return lerp(v,
		lerp(u, grad(p[a], x, y), grad(p[b], x-1, y)),
		lerp(u, grad(p[a+1], x, y-1), grad(p[b+1], x-1, y-1)),
	)
}

// fade is the smoothstep 6t^5 - 15t^4 + 10t^3.
func fade(t float64) float64 {
	return t * t * t * (t*(t*6-15) + 10)
}

func lerp(t, a, b float64) float64 {
	return a + t*(b-a)
}

// grad picks one of four gradient directions from the low two bits of hash.
func grad(hash int, x, y float64) float64 {
	h := hash & 3
	u, v := y, x
	if h < 2 {
		u, v = x, y
	}
	if h&1 != 0 {
		u = -u
	}
	if h&2 != 0 {
		v = -2 * v
	} else {
		v = 2 * v
	}
	return u + v
}
