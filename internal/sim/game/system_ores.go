package game

import (
	"idlemine.ai/internal/sim/game/feature/ores"
	"idlemine.ai/internal/sim/geom"
)

func (g *Game) spawnEfficiency() float64 {
	return g.state.OreSpawnEfficiency + g.state.Bonus.SpawnEfficiency
}

func (g *Game) oreValue(typ string) float64 {
	def := g.cats.Ores.ByID[typ]
	mult := 1.0
	if u := g.state.UnlockedOres[typ]; u != nil {
		mult = u.ValueMultiplier
	}
	return ores.Value(def.BaseValue, g.state.Bonus.OreValueMultiplier, g.state.OreValueMultiplier, mult)
}

func (g *Game) randomFieldPoint() geom.Vec2 {
	return g.field.PointAt(g.rng.Float64(), g.rng.Float64())
}

// systemOres runs every unlocked ore type's spawn timer. Nothing happens
// while the field is full, so timers keep accumulating.
func (g *Game) systemOres(now int64) {
	if len(g.ores) >= g.tun.Limits.MaxOres {
		return
	}
	eff := g.spawnEfficiency()
	for _, id := range g.cats.Ores.Order {
		u := g.state.UnlockedOres[id]
		if u == nil || !u.Unlocked {
			continue
		}
		if !ores.Due(now, u.LastSpawn, u.SpawnRate) {
			continue
		}
		spawn, double := ores.Roll(g.rng, u.SpawnChance, eff)
		if spawn {
			g.spawnOre(id, g.randomFieldPoint())
			if double {
				g.spawnOre(id, g.randomFieldPoint())
			}
		}
		u.LastSpawn = now
	}
}

// spawnOre places one ore unless the field is full.
func (g *Game) spawnOre(typ string, pos geom.Vec2) *Ore {
	if len(g.ores) >= g.tun.Limits.MaxOres {
		return nil
	}
	o := &Ore{ID: g.newID(), Type: typ, Pos: pos, Value: g.oreValue(typ)}
	g.ores = append(g.ores, o)
	return o
}

// randomUnlockedOre picks a uniformly random unlocked type, falling back to
// the first catalog ore.
func (g *Game) randomUnlockedOre() string {
	var ids []string
	for _, id := range g.cats.Ores.Order {
		if u := g.state.UnlockedOres[id]; u != nil && u.Unlocked {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return g.cats.Ores.Order[0]
	}
	return ids[g.rng.Intn(len(ids))]
}

// DropOre is enemy loot: a random unlocked ore where the enemy fell.
func (g *Game) dropOre(pos geom.Vec2) *Ore {
	return g.spawnOre(g.randomUnlockedOre(), pos)
}

func (g *Game) oreByID(id uint64) *Ore {
	if id == 0 {
		return nil
	}
	for _, o := range g.ores {
		if o.ID == id {
			return o
		}
	}
	return nil
}
