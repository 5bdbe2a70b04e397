// Package enemies scales raiders to the player's progress, places them on
// the field edges and picks the carts they raid.
package enemies

import (
	"math"

	"idlemine.ai/internal/sim/catalogs"
	"idlemine.ai/internal/sim/geom"
	"idlemine.ai/internal/sim/rng"
)

const (
	CartReach     = 30
	spawnAttempts = 20
	edgeOffset    = 30
)

// Progress grows with gold (log scale) and with the size of the operation.
// It never drops below 0.5.
func Progress(gold float64, dwarves, carts, soldiers int) float64 {
	p := math.Log10(math.Max(1, gold+1))*0.5 +
		float64(dwarves)*0.1 +
		float64(carts)*0.2 +
		float64(soldiers)*0.15
	return math.Max(0.5, p)
}

type Stats struct {
	Health float64
	Speed  float64
	Damage float64
}

// Scale derives spawn stats from a type definition. Horde members get
// hordeMult on health and damage.
func Scale(def catalogs.EnemyDef, progress float64, hordeMult float64) Stats {
	if hordeMult <= 0 {
		hordeMult = 1
	}
	return Stats{
		Health: math.Floor(def.Health * progress * hordeMult),
		Speed:  def.Speed * (0.8 + progress*0.2),
		Damage: math.Floor(def.Damage * progress * hordeMult),
	}
}

// SpawnPoint picks an off-screen point, mostly right and bottom, retrying to
// keep clear of every cart. After the last attempt it keeps what it has.
func SpawnPoint(src rng.Source, w, h float64, carts []geom.Vec2, clearance float64) geom.Vec2 {
	var p geom.Vec2
	for attempt := 0; attempt < spawnAttempts; attempt++ {
		p = edgePoint(src, w, h)
		if clearOf(p, carts, clearance) {
			return p
		}
	}
	return p
}

func edgePoint(src rng.Source, w, h float64) geom.Vec2 {
	r := src.Float64()
	switch {
	case r < 0.6:
		return geom.V(w+edgeOffset, src.Float64()*h)
	case r < 0.8:
		return geom.V(w*0.7+src.Float64()*w*0.3+edgeOffset, h+edgeOffset)
	case r < 0.9:
		return geom.V(w*0.5+src.Float64()*w*0.5, h+edgeOffset)
	default:
		if src.Float64() < 0.5 {
			return geom.V(w*0.5+src.Float64()*w*0.5, -edgeOffset)
		}
		return geom.V(-edgeOffset, src.Float64()*h)
	}
}

func clearOf(p geom.Vec2, carts []geom.Vec2, clearance float64) bool {
	for _, c := range carts {
		if geom.Dist(p, c) < clearance {
			return false
		}
	}
	return true
}

// CartRef is a raid target as an enemy sees it.
type CartRef struct {
	ID  int
	Pos geom.Vec2
}

// PickCart returns the index of the nearest cart other than the first one,
// falling back to the nearest cart overall.
func PickCart(from geom.Vec2, carts []CartRef) int {
	best, bestD := -1, math.Inf(1)
	for i, c := range carts {
		if c.ID == 0 {
			continue
		}
		if d := geom.Dist(from, c.Pos); d < bestD {
			best, bestD = i, d
		}
	}
	if best >= 0 {
		return best
	}
	for i, c := range carts {
		if d := geom.Dist(from, c.Pos); d < bestD {
			best, bestD = i, d
		}
	}
	return best
}

// StealCount is 1-3 items, never more than the cart holds.
func StealCount(src rng.Source, items int) int {
	n := 1 + src.Intn(3)
	if n > items {
		n = items
	}
	return n
}
