package game

import (
	"idlemine.ai/internal/sim/game/feature/combat"
	"idlemine.ai/internal/sim/game/feature/ores"
	"idlemine.ai/internal/sim/game/feature/prestige"
)

// applyPrestigeBonuses recomputes every prestige-derived value from the
// node levels and the shop-only ore stats. Calling it again changes nothing.
func (g *Game) applyPrestigeBonuses() {
	s := &g.state
	b := prestige.Resolve(g.cats.Prestige, s.PrestigeNodes)
	s.Bonus = b
	s.PrestigeGoldMultiplier = b.GoldMultiplier

	floor := g.tun.Limits.MinOreSpawnRateMS
	for _, id := range g.cats.Ores.Order {
		u := s.UnlockedOres[id]
		if u == nil {
			continue
		}
		def := g.cats.Ores.ByID[id]
		rate, chance := b.AllOreSpawnRate, b.AllOreSpawnChance
		if !u.Unlocked {
			rate, chance = 0, 0
		}
		u.SpawnRate = ores.EffectiveRate(u.ShopSpawnRate, def.BaseSpawnRateMS, rate, floor)
		u.SpawnChance = ores.EffectiveChance(u.ShopSpawnChance, def.BaseSpawnChance, chance)
	}
	s.AutoClickerSpeed = g.autoClickerInterval()
}

// applyStartingBonuses grants the units owned start nodes promise. It only
// ever raises values.
func (g *Game) applyStartingBonuses(now int64) {
	s := &g.state
	gr := prestige.StartingGrants(g.cats.Prestige, s.PrestigeNodes)
	if gr.AutoClicker && s.AutoClickerLevel == 0 {
		s.AutoClickerLevel = 1
		s.AutoClickerLastClick = now
	}
	if s.Dwarves < gr.MinDwarves {
		s.Dwarves = gr.MinDwarves
	}
	if s.Soldiers < gr.MinSoldiers {
		s.Soldiers = gr.MinSoldiers
	}
	if s.OreSpawnEfficiency < gr.MinEfficiency {
		s.OreSpawnEfficiency = gr.MinEfficiency
	}
	if gr.FirstMinecart && len(s.Minecarts) == 0 {
		g.addCart()
	}
	g.syncAgents()
}

func (g *Game) prestigePreview() int {
	return prestige.Currency(g.state.TotalGoldEarned, g.tun.Limits.PrestigeThreshold, g.state.Bonus.CurrencyBonus)
}

// performPrestige trades lifetime earnings for prestige currency and starts
// a new run. Only currency, nodes, count and volume survive.
func (g *Game) performPrestige(now int64) bool {
	old := g.state
	if old.TotalGoldEarned < g.tun.Limits.PrestigeThreshold {
		return false
	}
	award := g.prestigePreview()

	g.state = freshState(g.tun, now)
	g.state.PrestigeCurrency = old.PrestigeCurrency + award
	g.state.PrestigeNodes = old.PrestigeNodes
	g.state.PrestigeCount = old.PrestigeCount + 1
	g.state.Volume = old.Volume

	g.clearField()
	g.initOres(now)
	g.ensureFirstCart()
	g.history.Reset(now, 0)
	g.scheduleMoneyBag(now)
	g.applyPrestigeBonuses()
	g.applyStartingBonuses(now)
	g.armHorde(now)

	g.dirty = true
	g.cartsDirty = true
	g.emit(now, EventPrestige, map[string]any{
		"award":    award,
		"count":    g.state.PrestigeCount,
		"currency": g.state.PrestigeCurrency,
	})
	return true
}

// clearField drops every entity and pending event.
func (g *Game) clearField() {
	g.ores = nil
	g.dwarves = nil
	g.soldiers = nil
	g.enemies = nil
	g.bag = nil
	g.queue.Clear()
	g.ledger = combat.NewLedger()
}
