package game

import (
	"idlemine.ai/internal/sim/game/feature/agents/dwarves"
	"idlemine.ai/internal/sim/geom"
)

func (g *Game) systemDwarves(now int64) {
	if len(g.dwarves) == 0 {
		return
	}
	// ore id -> dwarf id
	targeted := make(map[uint64]uint64, len(g.dwarves))
	for _, d := range g.dwarves {
		if d.Target != 0 {
			targeted[d.Target] = d.ID
		}
	}
	for _, d := range g.dwarves {
		if d.Carrying != 0 {
			g.dwarfCarry(now, d)
			continue
		}
		g.dwarfSeek(now, d, targeted)
	}

	carried := make(map[uint64]bool, len(g.dwarves))
	for _, d := range g.dwarves {
		if d.Carrying != 0 {
			carried[d.Carrying] = true
		}
	}
	kept := g.ores[:0]
	for _, o := range g.ores {
		if o.PickedUp && !carried[o.ID] {
			continue
		}
		kept = append(kept, o)
	}
	for i := len(kept); i < len(g.ores); i++ {
		g.ores[i] = nil
	}
	g.ores = kept
}

func (g *Game) dwarfCarry(now int64, d *Dwarf) {
	o := g.oreByID(d.Carrying)
	if o == nil {
		d.Carrying = 0
		return
	}
	if len(g.state.Minecarts) == 0 {
		g.deposit(now, d, o)
		return
	}
	i := geom.Nearest(d.Pos, g.cartPositions())
	target := g.cartPos(i)
	if geom.Dist(d.Pos, target) < dwarves.CartReach && g.state.Minecarts[i].Ready(now) {
		g.deposit(now, d, o)
		return
	}
	d.Pos = geom.StepToward(d.Pos, target, g.state.DwarfSpeed)
	o.Pos = d.Pos
}

func (g *Game) deposit(now int64, d *Dwarf, o *Ore) {
	d.Carrying = 0
	g.addToMinecart(now, o.Value)
	g.emit(now, EventOreCollect, map[string]any{"ore": o.Type, "value": o.Value})
}

func (g *Game) dwarfSeek(now int64, d *Dwarf, targeted map[uint64]uint64) {
	var target *Ore
	if o := g.oreByID(d.Target); o != nil && !o.PickedUp {
		target = o
	} else if d.Target != 0 {
		if targeted[d.Target] == d.ID {
			delete(targeted, d.Target)
		}
		d.Target = 0
	}
	if target == nil {
		cands := make([]dwarves.Candidate, 0, len(g.ores))
		for _, o := range g.ores {
			if o.PickedUp {
				continue
			}
			owner, ok := targeted[o.ID]
			cands = append(cands, dwarves.Candidate{ID: o.ID, Pos: o.Pos, Claimed: ok && owner != d.ID})
		}
		if id, ok := dwarves.PickOre(d.Pos, cands); ok {
			d.Target = id
			targeted[id] = d.ID
			target = g.oreByID(id)
		}
	}

	if target != nil {
		d.MiningRock = false
		if geom.Dist(d.Pos, target.Pos) < dwarves.OreReach {
			d.Pos = target.Pos
			target.PickedUp = true
			d.Carrying = target.ID
			d.Target = 0
			return
		}
		d.Pos = geom.StepToward(d.Pos, target.Pos, g.state.DwarfSpeed)
		return
	}

	if geom.Dist(d.Pos, g.rock) >= dwarves.RockReach {
		d.MiningRock = false
		d.Pos = geom.StepToward(d.Pos, g.rock, g.state.DwarfSpeed)
		return
	}
	if !d.MiningRock {
		d.MiningRock = true
		d.LastMine = now
		return
	}
	if now-d.LastMine >= g.state.DwarfMiningSpeed {
		d.LastMine = now
		g.rockIncome(now, dwarves.RockYield(g.state.ClickPower))
	}
}
