package game

import (
	"math"

	"idlemine.ai/internal/sim/game/feature/economy/payout"
	"idlemine.ai/internal/sim/game/feature/logistics"
)

func (g *Game) multipliers() payout.Multipliers {
	return payout.Multipliers{
		Temp:     g.state.GoldMultiplier,
		TempEnd:  g.state.GoldMultiplierEndTime,
		Prestige: g.state.PrestigeGoldMultiplier,
	}
}

// earn credits income to gold and lifetime earnings.
func (g *Game) earn(now int64, v float64) {
	if v <= 0 {
		return
	}
	g.state.Gold += v
	g.state.TotalGoldEarned += v
	g.history.Track(now, g.state.Gold)
	g.dirty = true
}

func (g *Game) clickValue() float64 {
	return g.state.ClickPower + g.state.Bonus.ClickPower
}

func (g *Game) autoClickerInterval() float64 {
	st := g.tun.Start
	div := 1 + g.tun.Limits.AutoClickerSpeedStep*float64(g.state.AutoClickerSpeedUpgrades) + g.state.Bonus.AutoClickerSpeed
	return st.AutoClickerIntervalMS / div
}

// click credits one rock click. Manual clicks are counted and heard.
func (g *Game) click(now int64, manual bool) float64 {
	g.expireMultiplier(now)
	v := payout.Apply(g.clickValue(), g.multipliers(), now)
	g.earn(now, v)
	if manual {
		g.state.TotalClicks++
		g.emit(now, EventClick, map[string]any{"value": v})
	}
	return v
}

func (g *Game) systemAutoClicker(now int64) {
	if g.state.AutoClickerLevel <= 0 {
		return
	}
	if float64(now-g.state.AutoClickerLastClick) < g.state.AutoClickerSpeed {
		return
	}
	g.state.AutoClickerLastClick = now
	g.click(now, false)
}

// expireMultiplier drops a slot machine multiplier whose time is up.
func (g *Game) expireMultiplier(now int64) {
	if g.state.GoldMultiplierEndTime > 0 && now >= g.state.GoldMultiplierEndTime {
		g.state.GoldMultiplier = 1
		g.state.GoldMultiplierEndTime = 0
		g.dirty = true
	}
}

// AddToMinecart routes one ore's value into the fullest ready cart, or
// straight into gold when every cart is busy.
func (g *Game) addToMinecart(now int64, value float64) {
	v := payout.Apply(value, g.multipliers(), now)
	i := logistics.Pick(g.state.Minecarts, now)
	if i < 0 {
		g.earn(now, v)
		return
	}
	g.cartsDirty = true
	g.dirty = true
	if logistics.Load(&g.state.Minecarts[i], v) {
		g.sendMinecartAway(now, i)
	}
}

func (g *Game) sendMinecartAway(now int64, i int) {
	c := &g.state.Minecarts[i]
	items := c.Items
	gold, ok := logistics.Deliver(c, now, g.state.MinecartDeliverySpeed, g.state.PrestigeGoldMultiplier)
	if !ok {
		return
	}
	g.cartsDirty = true
	g.earn(now, gold)
	g.emit(now, EventDelivery, map[string]any{"cart": c.ID, "items": items, "gold": gold})
}

// systemMinecarts sends away any cart that is full and off cooldown, such as
// one restored full from a save, possibly still cooling down.
func (g *Game) systemMinecarts(now int64) {
	for i := range g.state.Minecarts {
		c := &g.state.Minecarts[i]
		if c.Full() && !c.OnCooldown(now) {
			g.sendMinecartAway(now, i)
		}
	}
}

// rockIncome is what dwarves chip off the rock: it goes to gold but not to
// lifetime earnings.
func (g *Game) rockIncome(now int64, v float64) {
	v = payout.Apply(v, g.multipliers(), now)
	if v <= 0 {
		return
	}
	g.state.Gold += v
	g.history.Track(now, g.state.Gold)
	g.dirty = true
}

func (g *Game) scheduleMoneyBag(now int64) {
	l := g.tun.Limits
	g.state.MoneyBagSpawnTime = now + l.MoneyBagMinMS + int64(g.rng.Float64()*float64(l.MoneyBagSpreadMS))
}

func (g *Game) systemMoneyBag(now int64) {
	if g.state.MoneyBagSpawnTime <= 0 || now < g.state.MoneyBagSpawnTime {
		return
	}
	if g.bag == nil {
		g.bag = &MoneyBag{Pos: g.field.PointAt(g.rng.Float64(), g.rng.Float64())}
		g.emit(now, EventMoneyBag, map[string]any{"spawned": true, "x": g.bag.Pos.X, "y": g.bag.Pos.Y})
	}
	g.scheduleMoneyBag(now)
}

func (g *Game) collectMoneyBag(now int64) (float64, bool) {
	if g.bag == nil {
		return 0, false
	}
	reward := math.Floor(g.tun.Limits.MoneyBagReward * g.state.PrestigeGoldMultiplier)
	g.earn(now, reward)
	g.bag = nil
	g.scheduleMoneyBag(now)
	g.emit(now, EventMoneyBag, map[string]any{"collected": true, "gold": reward})
	return reward, true
}
