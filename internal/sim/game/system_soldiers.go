package game

import (
	"math"

	"idlemine.ai/internal/sim/game/feature/agents/soldiers"
	"idlemine.ai/internal/sim/game/feature/combat"
	"idlemine.ai/internal/sim/geom"
)

func (g *Game) systemSoldiers(now int64) {
	if len(g.soldiers) == 0 {
		return
	}
	live := g.liveEnemies()
	if len(live) == 0 {
		for _, s := range g.soldiers {
			s.Target = 0
			s.Defender = false
			g.walkHome(s)
		}
		return
	}

	attackers, _ := soldiers.Split(len(g.soldiers))
	current := make([]uint64, attackers)
	for i := 0; i < attackers; i++ {
		current[i] = g.soldiers[i].Target
	}
	ids := make([]uint64, len(live))
	for i, e := range live {
		ids[i] = e.ID
	}
	assigned := soldiers.Assign(current, ids)

	for i, s := range g.soldiers {
		if i < attackers {
			s.Defender = false
			s.Target = assigned[i]
			g.attackerStep(now, s)
			continue
		}
		s.Defender = true
		g.defenderStep(now, s)
	}
}

func (g *Game) attackerStep(now int64, s *Soldier) {
	e := g.enemyByID(s.Target)
	if e == nil {
		s.Target = 0
		g.walkHome(s)
		return
	}
	g.engage(now, s, e)
}

// defenderStep engages the nearest enemy in range, else patrols the
// nearest cart.
func (g *Game) defenderStep(now int64, s *Soldier) {
	var best *Enemy
	bestD := math.Inf(1)
	for _, e := range g.enemies {
		if g.ledger.Dead(e.ID) {
			continue
		}
		if d := geom.Dist(s.Pos, e.Pos); d <= g.tun.Threat.DefenderRange && d < bestD {
			best, bestD = e, d
		}
	}
	if best != nil {
		s.Target = best.ID
		g.engage(now, s, best)
		return
	}
	s.Target = 0
	if len(g.state.Minecarts) == 0 {
		return
	}
	cart := g.cartPos(geom.Nearest(s.Pos, g.cartPositions()))
	if geom.Dist(s.Pos, cart) > soldiers.PatrolRadius {
		s.Pos = geom.StepToward(s.Pos, cart, g.state.SoldierSpeed*soldiers.PatrolFactor)
	}
}

func (g *Game) engage(now int64, s *Soldier, e *Enemy) {
	if geom.Dist(s.Pos, e.Pos) > soldiers.AttackReach {
		s.Pos = geom.StepToward(s.Pos, e.Pos, g.state.SoldierSpeed)
		return
	}
	if now-s.LastAttack < g.state.SoldierAttackSpeed {
		return
	}
	s.LastAttack = now
	g.damage(now, e, g.state.SoldierAttackPower, combat.CauseSoldier)
}

func (g *Game) walkHome(s *Soldier) {
	if geom.Dist(s.Pos, s.Home) > soldiers.HomeReach {
		s.Pos = geom.StepToward(s.Pos, s.Home, g.state.SoldierSpeed*soldiers.ReturnFactor)
	}
}
