package game

import (
	"idlemine.ai/internal/sim/game/feature/combat"
	"idlemine.ai/internal/sim/game/feature/horde"
	"idlemine.ai/internal/sim/game/feature/spawnqueue"
)

func (g *Game) scheduleHorde(now int64) {
	th := g.tun.Threat
	g.state.Horde = horde.Schedule(g.state.Horde, g.rng, now, th.HordeCooldownMS, th.HordeDelayMinMS, th.HordeDelaySpreadMS)
	g.dirty = true
}

// armHorde schedules the first wave once the operation is ready.
func (g *Game) armHorde(now int64) {
	if g.ready() && !g.state.Horde.Active && g.state.Horde.Next == 0 {
		g.scheduleHorde(now)
	}
}

func (g *Game) hordePhase(now int64) horde.Phase {
	return horde.PhaseOf(g.ready(), g.state.Horde, now, g.tun.Threat.HordeCooldownMS)
}

func (g *Game) systemHorde(now int64) {
	ready := g.ready()
	if !ready {
		return
	}
	g.armHorde(now)
	th := g.tun.Threat
	if !horde.ShouldTrigger(ready, g.state.Horde, now, th.HordeCooldownMS) {
		return
	}
	size := horde.WaveSize(g.progress(), g.state.Soldiers)
	g.state.Horde = horde.Start(g.state.Horde, now)
	for i := 0; i < size; i++ {
		g.queue.Push(spawnqueue.Event{Due: now + th.HordeLeadMS + int64(i)*th.HordeStaggerMS, Kind: spawnqueue.KindHordeEnemy})
	}
	g.queue.Push(spawnqueue.Event{Due: now + horde.Duration(size, th.HordeLeadMS, th.HordeStaggerMS), Kind: spawnqueue.KindHordeEnd})
	g.dirty = true
	g.emit(now, EventHorde, map[string]any{"phase": "start", "size": size})
}

// drainQueue runs every pending event that is due.
func (g *Game) drainQueue(now int64) {
	for _, ev := range g.queue.PopDue(now) {
		switch ev.Kind {
		case spawnqueue.KindEnemy, spawnqueue.KindHordeEnemy:
			if g.ready() {
				g.spawnEnemy(ev.Kind == spawnqueue.KindHordeEnemy)
			}
		case spawnqueue.KindHordeEnd:
			g.state.Horde.Active = false
			g.scheduleHorde(now)
			g.emit(now, EventHorde, map[string]any{"phase": "end", "next_ms": g.state.Horde.Next})
		case spawnqueue.KindOre:
			g.spawnOre(g.randomUnlockedOre(), g.randomFieldPoint())
		case spawnqueue.KindTurretHit:
			if e := g.enemyByID(ev.Target); e != nil {
				g.damage(now, e, ev.Amount, combat.CauseTurret)
			}
		}
	}
}
