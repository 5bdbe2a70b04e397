package game

import (
	"math"

	"idlemine.ai/internal/sim/game/feature/combat"
	"idlemine.ai/internal/sim/game/feature/spawnqueue"
	"idlemine.ai/internal/sim/geom"
)

// damage is the only way an enemy loses health. The hit that kills it drops
// loot and removes it; any later hit on the same id does nothing.
func (g *Game) damage(now int64, e *Enemy, dmg float64, cause combat.Cause) {
	if !g.ledger.Hit(e.ID, &e.Health, dmg) {
		return
	}
	g.ledger.Record(combat.Kill{EnemyID: e.ID, Type: e.Type, X: e.Pos.X, Y: e.Pos.Y, Cause: cause, AtMS: now})
	g.dropOre(e.Pos)
	g.removeEnemy(e.ID)
}

// systemTurrets fires each cart's turret at the nearest enemy in range. The
// shell lands later as a queued hit.
func (g *Game) systemTurrets(now int64) {
	if !g.state.MinecartTurrets || len(g.enemies) == 0 {
		return
	}
	th := g.tun.Threat
	for i := range g.state.Minecarts {
		c := &g.state.Minecarts[i]
		if now-c.LastTurretShot < th.TurretCooldownMS {
			continue
		}
		pos := g.cartPos(i)
		var target *Enemy
		bestD := math.Inf(1)
		for _, e := range g.enemies {
			if g.ledger.Dead(e.ID) {
				continue
			}
			if d := geom.Dist(pos, e.Pos); d <= th.TurretRange && d < bestD {
				target, bestD = e, d
			}
		}
		if target == nil {
			continue
		}
		c.LastTurretShot = now
		g.queue.Push(spawnqueue.Event{
			Due:    now + combat.FlightMS(bestD),
			Kind:   spawnqueue.KindTurretHit,
			Target: target.ID,
			Amount: th.TurretDamage,
		})
	}
}

// flushKills emits one kill event per death and forgets ids that are gone.
func (g *Game) flushKills() {
	for _, k := range g.ledger.Drain() {
		g.emit(k.AtMS, EventKill, map[string]any{
			"enemy_id": k.EnemyID,
			"type":     k.Type,
			"cause":    string(k.Cause),
			"x":        k.X,
			"y":        k.Y,
		})
	}
	g.ledger.Forget(func(id uint64) bool {
		for _, e := range g.enemies {
			if e.ID == id {
				return true
			}
		}
		return false
	})
}
