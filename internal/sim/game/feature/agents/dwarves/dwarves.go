// Package dwarves holds the target-selection rules for dwarf miners.
package dwarves

import (
	"math"

	"idlemine.ai/internal/sim/geom"
)

// Arrival thresholds in pixels.
const (
	CartReach = 30
	OreReach  = 40
	RockReach = 60
)

// Candidate is a live ore as a dwarf sees it. Claimed is set when another
// dwarf carries, targets or was already assigned it this tick.
type Candidate struct {
	ID      uint64
	Pos     geom.Vec2
	Claimed bool
}

// PickOre returns the nearest unclaimed ore. When every ore is claimed it
// falls back to the nearest one overall so no dwarf stalls while pickups
// exist.
func PickOre(from geom.Vec2, ores []Candidate) (uint64, bool) {
	if len(ores) == 0 {
		return 0, false
	}
	best, bestD := -1, math.Inf(1)
	for i, o := range ores {
		if o.Claimed {
			continue
		}
		if d := geom.DistSq(from, o.Pos); d < bestD {
			best, bestD = i, d
		}
	}
	if best >= 0 {
		return ores[best].ID, true
	}
	for i, o := range ores {
		if d := geom.DistSq(from, o.Pos); d < bestD {
			best, bestD = i, d
		}
	}
	return ores[best].ID, true
}

// RockYield is the gold a dwarf chips off the rock per mining cycle, before
// multipliers.
func RockYield(clickPower float64) float64 {
	return math.Floor(clickPower * 0.5)
}
