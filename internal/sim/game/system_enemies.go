package game

import (
	"idlemine.ai/internal/sim/game/feature/agents/enemies"
	"idlemine.ai/internal/sim/game/feature/horde"
	"idlemine.ai/internal/sim/game/feature/logistics"
	"idlemine.ai/internal/sim/game/feature/spawnqueue"
	"idlemine.ai/internal/sim/geom"
	"idlemine.ai/internal/sim/rng"
)

func (g *Game) ready() bool {
	return horde.Ready(g.state.Soldiers, g.cartIDs())
}

// systemEnemies gates raiders on readiness, starts ambient raids and moves
// every enemy toward its cart.
func (g *Game) systemEnemies(now int64) {
	if !g.ready() {
		g.despawnEnemies()
		return
	}

	if float64(now-g.state.LastRandomEnemySpawn) >= g.state.RandomEnemySpawnInterval {
		th := g.tun.Threat
		n := horde.AmbientCount(g.state.Soldiers)
		for i := 0; i < n; i++ {
			g.queue.Push(spawnqueue.Event{Due: now + int64(i)*th.AmbientStaggerMS, Kind: spawnqueue.KindEnemy})
		}
		g.state.LastRandomEnemySpawn = now
		g.state.RandomEnemySpawnInterval = horde.AmbientInterval(g.rng, th.AmbientBaseMS, th.AmbientSpreadMS, g.state.Soldiers)
	}

	if len(g.enemies) == 0 || len(g.state.Minecarts) == 0 {
		return
	}
	refs := make([]enemies.CartRef, len(g.state.Minecarts))
	for i, c := range g.state.Minecarts {
		refs[i] = enemies.CartRef{ID: c.ID, Pos: g.cartPos(i)}
	}
	for _, e := range g.enemies {
		if g.ledger.Dead(e.ID) {
			continue
		}
		i := enemies.PickCart(e.Pos, refs)
		if i < 0 {
			continue
		}
		e.TargetCart = refs[i].ID
		if geom.Dist(e.Pos, refs[i].Pos) > enemies.CartReach {
			e.Pos = geom.StepToward(e.Pos, refs[i].Pos, e.Speed)
			continue
		}
		if now-e.LastAttack < g.tun.Threat.EnemyAttackCooldownMS {
			continue
		}
		e.LastAttack = now
		c := &g.state.Minecarts[i]
		if c.Items <= 0 {
			continue
		}
		if n := logistics.Steal(c, enemies.StealCount(g.rng, c.Items)); n > 0 {
			g.cartsDirty = true
			g.dirty = true
		}
	}
}

// despawnEnemies clears the field without loot and drops pending spawns.
func (g *Game) despawnEnemies() {
	for i := range g.enemies {
		g.enemies[i] = nil
	}
	g.enemies = g.enemies[:0]
	g.queue.Drop(func(e spawnqueue.Event) bool {
		return e.Kind == spawnqueue.KindEnemy || e.Kind == spawnqueue.KindHordeEnemy
	})
}

func (g *Game) progress() float64 {
	return enemies.Progress(g.state.Gold, g.state.Dwarves, len(g.state.Minecarts), g.state.Soldiers)
}

func (g *Game) spawnEnemy(member bool) *Enemy {
	cat := g.cats.Enemies
	i := rng.ChooseWeighted(g.rng, cat.Weights)
	if i < 0 {
		return nil
	}
	def := cat.ByID[cat.Order[i]]
	mult := 1.0
	if member {
		mult = g.tun.Threat.HordeStatMultiplier
	}
	st := enemies.Scale(def, g.progress(), mult)
	if st.Health < 1 {
		st.Health = 1
	}
	pos := enemies.SpawnPoint(g.rng, g.field.W, g.field.H, g.cartPositions(), g.tun.Threat.SpawnCartClearance)
	e := &Enemy{
		ID:         g.newID(),
		Type:       def.ID,
		Pos:        pos,
		Health:     st.Health,
		MaxHealth:  st.Health,
		Speed:      st.Speed,
		Damage:     st.Damage,
		TargetCart: -1,
		Horde:      member,
	}
	g.enemies = append(g.enemies, e)
	return e
}

func (g *Game) enemyByID(id uint64) *Enemy {
	if id == 0 || g.ledger.Dead(id) {
		return nil
	}
	for _, e := range g.enemies {
		if e.ID == id {
			return e
		}
	}
	return nil
}

// liveEnemies is a fresh slice of enemies that have not died this tick.
func (g *Game) liveEnemies() []*Enemy {
	out := make([]*Enemy, 0, len(g.enemies))
	for _, e := range g.enemies {
		if !g.ledger.Dead(e.ID) {
			out = append(out, e)
		}
	}
	return out
}

func (g *Game) removeEnemy(id uint64) {
	for i, e := range g.enemies {
		if e.ID != id {
			continue
		}
		copy(g.enemies[i:], g.enemies[i+1:])
		g.enemies[len(g.enemies)-1] = nil
		g.enemies = g.enemies[:len(g.enemies)-1]
		return
	}
}
