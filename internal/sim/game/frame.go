package game

import (
	"encoding/json"

	"idlemine.ai/internal/protocol"
	"idlemine.ai/internal/sim/game/feature/logistics"
	"idlemine.ai/internal/sim/game/feature/prestige"
)

func marshalFrame(f protocol.FrameMsg) ([]byte, error) {
	return json.Marshal(f)
}

// Frame is a complete view of the game. Call it only from the loop
// goroutine or while the loop is not running.
func (g *Game) Frame(now int64) protocol.FrameMsg {
	return g.buildFrame(now, true)
}

// buildFrame copies the entity lists and attaches whatever HUD, cart view
// and events are pending. full forces fresh HUD and cart views and leaves
// the pending ones in place.
func (g *Game) buildFrame(now int64, full bool) protocol.FrameMsg {
	f := protocol.FrameMsg{
		Type:            protocol.TypeFrame,
		ProtocolVersion: protocol.Version,
		Tick:            g.tick.Load(),
		NowMS:           now,
		Ores:            make([]protocol.OreView, 0, len(g.ores)),
		Dwarves:         make([]protocol.DwarfView, 0, len(g.dwarves)),
		Soldiers:        make([]protocol.SoldierView, 0, len(g.soldiers)),
		Enemies:         make([]protocol.EnemyView, 0, len(g.enemies)),
	}
	for _, o := range g.ores {
		f.Ores = append(f.Ores, protocol.OreView{ID: o.ID, Type: o.Type, X: o.Pos.X, Y: o.Pos.Y, Value: o.Value})
	}
	for _, d := range g.dwarves {
		v := protocol.DwarfView{ID: d.ID, X: d.Pos.X, Y: d.Pos.Y, Mining: d.MiningRock}
		if o := g.oreByID(d.Carrying); o != nil {
			v.Carrying = o.Type
		}
		f.Dwarves = append(f.Dwarves, v)
	}
	for _, s := range g.soldiers {
		f.Soldiers = append(f.Soldiers, protocol.SoldierView{ID: s.ID, X: s.Pos.X, Y: s.Pos.Y, Target: s.Target, Defender: s.Defender})
	}
	for _, e := range g.enemies {
		f.Enemies = append(f.Enemies, protocol.EnemyView{
			ID: e.ID, Type: e.Type, X: e.Pos.X, Y: e.Pos.Y,
			Health: e.Health, MaxHealth: e.MaxHealth, Horde: e.Horde,
		})
	}
	if g.bag != nil {
		f.MoneyBag = &protocol.Point{X: g.bag.Pos.X, Y: g.bag.Pos.Y}
	}
	f.Horde = protocol.HordeView{Phase: string(g.hordePhase(now)), NextMS: g.state.Horde.Next}

	if full {
		f.Economy = g.economyViewOf(now)
		f.Minecarts = g.cartViews(now)
		return f
	}
	f.Economy = g.economyView
	f.Minecarts = g.cartsView
	g.economyView = nil
	g.cartsView = nil
	if len(g.pending) > 0 {
		f.Events = make([]protocol.Event, len(g.pending))
		for i, e := range g.pending {
			f.Events[i] = protocol.Event(e)
		}
		g.pending = g.pending[:0]
	}
	return f
}

func (g *Game) cartViews(now int64) []protocol.MinecartView {
	out := make([]protocol.MinecartView, 0, len(g.state.Minecarts))
	for i := range g.state.Minecarts {
		c := &g.state.Minecarts[i]
		p := g.cartPos(i)
		out = append(out, protocol.MinecartView{
			ID:         c.ID,
			X:          p.X,
			Y:          p.Y,
			Items:      c.Items,
			Capacity:   c.Capacity,
			TotalValue: c.TotalValue,
			Progress:   logistics.Progress(c, now, g.state.MinecartDeliverySpeed),
			Turret:     g.state.MinecartTurrets,
		})
	}
	return out
}

func (g *Game) economyViewOf(now int64) *protocol.EconomyView {
	s := &g.state
	lim := g.tun.Limits
	v := &protocol.EconomyView{
		Gold:            s.Gold,
		TotalGoldEarned: s.TotalGoldEarned,
		TotalClicks:     s.TotalClicks,
		CoinsPerMinute:  g.cpm,
		ClickValue:      g.clickValue(),

		AutoClickerLevel:      s.AutoClickerLevel,
		AutoClickerIntervalMS: s.AutoClickerSpeed,
		Dwarves:               s.Dwarves,
		Soldiers:              s.Soldiers,
		SpawnEfficiency:       g.spawnEfficiency(),

		Multiplier: 1,
		SlotLuck:   s.SlotMachineLuck,
		Volume:     s.Volume,
	}
	if s.GoldMultiplierEndTime > now {
		v.Multiplier = s.GoldMultiplier
		v.MultiplierEndMS = s.GoldMultiplierEndTime
	}

	v.Shop = []protocol.ShopEntry{
		{Action: ActClickPower, Price: s.ClickPowerPrice, Value: s.ClickPower},
		{Action: ActAutoClicker, Price: g.tun.Shop.AutoClicker.Base, Value: float64(s.AutoClickerLevel), Maxed: s.AutoClickerLevel >= 1},
		{Action: ActAutoClickerSpeed, Price: s.AutoClickerSpeedPrice, Value: float64(s.AutoClickerSpeedUpgrades)},
		{Action: ActHireDwarf, Price: s.DwarfPrice, Value: float64(s.Dwarves)},
		{Action: ActDwarfSpeed, Price: s.DwarfSpeedPrice, Value: s.DwarfSpeed},
		{Action: ActHireSoldier, Price: s.SoldierPrice, Value: float64(s.Soldiers)},
		{Action: ActSoldierAttackPower, Price: s.SoldierAttackPowerPrice, Value: s.SoldierAttackPower},
		{Action: ActSoldierAttackSpeed, Price: s.SoldierAttackSpeedPrice, Value: float64(s.SoldierAttackSpeed), Maxed: s.SoldierAttackSpeed <= lim.MinSoldierAttackMS},
		{Action: ActSoldierSpeed, Price: s.SoldierSpeedPrice, Value: s.SoldierSpeed},
		{Action: ActOreValue, Price: s.OreValuePrice, Value: s.OreValueMultiplier},
		{Action: ActSpawnEfficiency, Price: s.OreSpawnEfficiencyPrice, Value: g.spawnEfficiency(), Maxed: g.spawnEfficiency() >= 1},
		{Action: ActSlotLuck, Price: s.SlotMachineLuckPrice, Value: float64(s.SlotMachineLuck)},
		{Action: ActSpin, Price: s.GamblePrice},
		{Action: ActBuyMinecart, Price: s.MinecartPrice, Value: float64(len(s.Minecarts)), Maxed: len(s.Minecarts) >= lim.MaxMinecarts},
		{Action: ActMinecartCapacity, Price: s.MinecartCapacityPrice, Value: float64(s.MinecartCapacity), Maxed: s.MinecartCapacity >= lim.MaxMinecartCapacity},
		{Action: ActMinecartDeliverySpeed, Price: s.MinecartDeliverySpeedPrice, Value: float64(s.MinecartDeliverySpeed), Maxed: s.MinecartDeliverySpeed <= lim.MinDeliveryMS},
		{Action: ActMinecartTurrets, Price: s.MinecartTurretPrice, Maxed: s.MinecartTurrets},
	}

	v.Ores = make([]protocol.OreShopView, 0, len(g.cats.Ores.Order))
	for _, id := range g.cats.Ores.Order {
		u := s.UnlockedOres[id]
		if u == nil {
			continue
		}
		v.Ores = append(v.Ores, protocol.OreShopView{
			ID:               id,
			Unlocked:         u.Unlocked,
			UnlockPrice:      g.cats.Ores.ByID[id].UnlockPrice,
			SpawnRateMS:      u.SpawnRate,
			SpawnChance:      u.SpawnChance,
			ValueMultiplier:  u.ValueMultiplier,
			SpawnRatePrice:   u.SpawnRatePrice,
			SpawnChancePrice: u.SpawnChancePrice,
			ValuePrice:       u.ValuePrice,
		})
	}

	nodes := make(map[string]int, len(s.PrestigeNodes))
	for _, id := range prestige.Owned(g.cats.Prestige, s.PrestigeNodes) {
		nodes[id] = s.PrestigeNodes[id]
	}
	v.Prestige = protocol.PrestigeView{
		Currency:       s.PrestigeCurrency,
		Count:          s.PrestigeCount,
		Preview:        g.prestigePreview(),
		NextThreshold:  prestige.NextThreshold(s.TotalGoldEarned, lim.PrestigeThreshold),
		GoldMultiplier: s.PrestigeGoldMultiplier,
		Nodes:          nodes,
	}
	return v
}
