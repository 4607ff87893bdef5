// Package entropy provides the seeded, string-keyed random source that every
// deterministic generator in the world is built on.
// Nothing here reads wall-clock time, OS entropy, or addresses: the same seed
// string always yields the same infinite stream.
package entropy

import "unicode/utf16"

const (
	mixIncrement = 0x6D2B79F5
	twoPow32     = 4294967296.0
)

// Source produces a reproducible stream of floats in [0, 1).
// A Source carries mutable state and is not safe for concurrent use;
// build one per goroutine from the same seed instead of sharing.
type Source struct {
	state uint32
}

// New creates a Source keyed by the given seed string.
func New(seed string) *Source {
	return &Source{state: HashSeed(seed)}
}

// HashSeed folds a seed string into a non-zero 32-bit state with the rolling
// hash h = h*31 + c (mod 2^32) over UTF-16 code units, then takes the
// magnitude of the signed result.
func HashSeed(seed string) uint32 {
	var h uint32
	for _, c := range utf16.Encode([]rune(seed)) {
		h = h*31 + uint32(c)
	}
	v := int64(int32(h))
	if v < 0 {
		v = -v
	}
	if v == 0 {
		return 1
	}
	return uint32(v)
}

// Next advances the state and returns a float in [0, 1).
func (s *Source) Next() float64 {
	s.state += mixIncrement
	t := s.state
	t = (t ^ (t >> 15)) * (t | 1)
	t ^= t + (t^(t>>7))*(t|61)
	return float64(t^(t>>14)) / twoPow32
}

// Int returns an integer in [min, max], inclusive on both ends.
func (s *Source) Int(min, max int) int {
	return int(s.Next()*float64(max-min+1)) + min
}

// Float returns a float in [min, max).
func (s *Source) Float(min, max float64) float64 {
	return s.Next()*(max-min) + min
}

// Bool is a fair coin flip.
func (s *Source) Bool() bool {
	return s.Next() > 0.5
}

// Pick returns a uniformly chosen element of items.
// The zero value is returned for an empty slice, without consuming the stream.
func Pick[T any](s *Source, items []T) T {
	var zero T
	if len(items) == 0 {
		return zero
	}
	return items[s.Int(0, len(items)-1)]
}
