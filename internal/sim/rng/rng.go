// Package rng holds the single random source a game draws from.
package rng

import (
	"math/rand"
	"time"
)

// Source is the subset of *rand.Rand the simulation needs.
type Source interface {
	Float64() float64
	Intn(n int) int
}

// New returns a seeded source; seed 0 seeds from the clock.
func New(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

// ChooseWeighted picks an index with probability proportional to its weight
// using one uniform draw over the cumulative total. Non-positive weights are
// never chosen. It returns -1 when no weight is positive.
func ChooseWeighted(src Source, weights []float64) int {
	total := 0.0
	for _, w := range weights {
		if w > 0 {
			total += w
		}
	}
	if total <= 0 {
		return -1
	}
	r := src.Float64() * total
	last := -1
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		last = i
		r -= w
		if r <= 0 {
			return i
		}
	}
	return last
}

// Fixed replays a list of draws in order; it wraps around when exhausted.
// Tests use it to pin down rolls.
type Fixed struct {
	Values []float64
	i      int
}

func (f *Fixed) Float64() float64 {
	if len(f.Values) == 0 {
		return 0
	}
	v := f.Values[f.i%len(f.Values)]
	f.i++
	return v
}

func (f *Fixed) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	v := int(f.Float64() * float64(n))
	if v >= n {
		v = n - 1
	}
	return v
}
