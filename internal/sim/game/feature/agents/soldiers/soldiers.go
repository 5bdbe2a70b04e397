// Package soldiers splits the garrison into attackers and defenders and
// balances attackers across live enemies.
package soldiers

import (
	"math"

	"idlemine.ai/internal/sim/geom"
	"idlemine.ai/internal/sim/rng"
)

const (
	AttackReach   = 40
	HomeReach     = 30
	PatrolRadius  = 80
	ReturnFactor  = 0.7
	PatrolFactor  = 0.5
	defenderShare = 0.4
)

// Split returns how many soldiers attack; the rest (at least one) defend.
// Attackers are the first soldiers in order.
func Split(n int) (attackers, defenders int) {
	if n <= 0 {
		return 0, 0
	}
	defenders = int(math.Floor(float64(n) * defenderShare))
	if defenders < 1 {
		defenders = 1
	}
	if defenders > n {
		defenders = n
	}
	return n - defenders, defenders
}

// Slots is how many attackers each enemy may hold: an even share with the
// remainder going to the first enemies.
func Slots(attackers, enemies int) []int {
	if enemies <= 0 {
		return nil
	}
	out := make([]int, enemies)
	base := attackers / enemies
	extra := attackers % enemies
	for i := range out {
		out[i] = base
		if i < extra {
			out[i]++
		}
	}
	return out
}

// Assign keeps every still-valid assignment that fits its enemy's slot count
// and hands the remaining attackers to the least-loaded enemy with room.
// current holds the attackers' present targets (0 for none); the result is
// aligned with it.
func Assign(current []uint64, enemyIDs []uint64) []uint64 {
	out := make([]uint64, len(current))
	if len(enemyIDs) == 0 {
		return out
	}
	slots := Slots(len(current), len(enemyIDs))
	index := make(map[uint64]int, len(enemyIDs))
	for i, id := range enemyIDs {
		index[id] = i
	}
	load := make([]int, len(enemyIDs))
	for i, target := range current {
		j, ok := index[target]
		if !ok || target == 0 || load[j] >= slots[j] {
			continue
		}
		out[i] = target
		load[j]++
	}
	for i := range out {
		if out[i] != 0 {
			continue
		}
		best := -1
		for j := range enemyIDs {
			if load[j] >= slots[j] {
				continue
			}
			if best < 0 || load[j] < load[best] {
				best = j
			}
		}
		if best < 0 {
			continue
		}
		out[i] = enemyIDs[best]
		load[best]++
	}
	return out
}

// SpawnPoint scatters a new soldier 60-120 px around a random cart.
func SpawnPoint(src rng.Source, carts []geom.Vec2) geom.Vec2 {
	if len(carts) == 0 {
		return geom.V(50+src.Float64()*100, 50+src.Float64()*100)
	}
	c := carts[src.Intn(len(carts))]
	angle := src.Float64() * 2 * math.Pi
	radius := 60 + src.Float64()*60
	return geom.V(c.X+math.Cos(angle)*radius, c.Y+math.Sin(angle)*radius)
}
