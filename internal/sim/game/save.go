package game

import (
	"context"
	"time"

	"idlemine.ai/internal/persistence/snapshot"
	"idlemine.ai/internal/sim/game/feature/economy/payout"
	"idlemine.ai/internal/sim/game/feature/logistics"
	"idlemine.ai/internal/sim/game/feature/ores"
	"idlemine.ai/internal/sim/game/feature/prestige"
)

// ExportSave captures the persisted part of the game.
func (g *Game) ExportSave(now int64) snapshot.SaveV1 {
	return exportState(&g.state, now)
}

// DefaultSave is the record a brand-new game would write. Decoding uses it
// for missing or invalid fields.
func (g *Game) DefaultSave(now int64) snapshot.SaveV1 {
	st := freshState(g.tun, now)
	for _, id := range g.cats.Ores.Order {
		def := g.cats.Ores.ByID[id]
		st.UnlockedOres[id] = &OreUnlock{
			SpawnRate:        def.BaseSpawnRateMS,
			SpawnChance:      def.BaseSpawnChance,
			ShopSpawnRate:    def.BaseSpawnRateMS,
			ShopSpawnChance:  def.BaseSpawnChance,
			LastSpawn:        now,
			ValueMultiplier:  1,
			ValuePrice:       g.tun.Shop.OreSingleValue.At(def.Tier).Base,
			SpawnRatePrice:   g.tun.Shop.OreRate.At(def.Tier).Base,
			SpawnChancePrice: g.tun.Shop.OreChance.At(def.Tier).Base,
		}
	}
	st.Minecarts = []logistics.Cart{{ID: 0, Capacity: st.MinecartCapacity}}
	return exportState(&st, now)
}

func exportState(s *State, now int64) snapshot.SaveV1 {
	out := snapshot.SaveV1{
		Version: snapshot.SaveVersion,
		SavedAt: now,

		Gold:            s.Gold,
		TotalGoldEarned: s.TotalGoldEarned,
		TotalClicks:     s.TotalClicks,
		ClickPower:      s.ClickPower,
		ClickPowerPrice: s.ClickPowerPrice,

		AutoClickerLevel:         s.AutoClickerLevel,
		AutoClickerLastClick:     s.AutoClickerLastClick,
		AutoClickerSpeed:         s.AutoClickerSpeed,
		AutoClickerSpeedUpgrades: s.AutoClickerSpeedUpgrades,
		AutoClickerSpeedPrice:    s.AutoClickerSpeedPrice,

		Dwarves:               s.Dwarves,
		DwarfPrice:            s.DwarfPrice,
		DwarfSpeed:            s.DwarfSpeed,
		DwarfSpeedPrice:       s.DwarfSpeedPrice,
		DwarfMiningSpeed:      s.DwarfMiningSpeed,
		DwarfMiningSpeedPrice: s.DwarfMiningSpeedPrice,

		UnlockedOres:            make(map[string]snapshot.OreSave, len(s.UnlockedOres)),
		OreValueMultiplier:      s.OreValueMultiplier,
		OreValuePrice:           s.OreValuePrice,
		OreSpawnEfficiency:      s.OreSpawnEfficiency,
		OreSpawnEfficiencyPrice: s.OreSpawnEfficiencyPrice,

		Minecarts:                  len(s.Minecarts),
		MinecartData:               make([]snapshot.MinecartSave, 0, len(s.Minecarts)),
		MinecartCapacity:           s.MinecartCapacity,
		MinecartPrice:              s.MinecartPrice,
		MinecartCapacityPrice:      s.MinecartCapacityPrice,
		MinecartDeliverySpeed:      s.MinecartDeliverySpeed,
		MinecartDeliverySpeedPrice: s.MinecartDeliverySpeedPrice,
		MinecartTurrets:            s.MinecartTurrets,
		MinecartTurretPrice:        s.MinecartTurretPrice,

		GamblePrice:           s.GamblePrice,
		SlotMachineLuck:       s.SlotMachineLuck,
		SlotMachineLuckPrice:  s.SlotMachineLuckPrice,
		GoldMultiplier:        s.GoldMultiplier,
		GoldMultiplierEndTime: s.GoldMultiplierEndTime,
		MoneyBagSpawnTime:     s.MoneyBagSpawnTime,

		Soldiers:                s.Soldiers,
		SoldierPrice:            s.SoldierPrice,
		SoldierAttackPower:      s.SoldierAttackPower,
		SoldierAttackPowerPrice: s.SoldierAttackPowerPrice,
		SoldierAttackSpeed:      s.SoldierAttackSpeed,
		SoldierAttackSpeedPrice: s.SoldierAttackSpeedPrice,
		SoldierSpeed:            s.SoldierSpeed,
		SoldierSpeedPrice:       s.SoldierSpeedPrice,

		NextHordeWaveTime:        s.Horde.Next,
		LastHordeWaveTime:        s.Horde.Last,
		HordeWaveActive:          s.Horde.Active,
		LastRandomEnemySpawn:     s.LastRandomEnemySpawn,
		RandomEnemySpawnInterval: s.RandomEnemySpawnInterval,

		PrestigeCurrency:       s.PrestigeCurrency,
		PrestigeNodes:          make(map[string]int, len(s.PrestigeNodes)),
		PrestigeCount:          s.PrestigeCount,
		PrestigeGoldMultiplier: s.PrestigeGoldMultiplier,

		Volume: s.Volume,
	}
	for id, u := range s.UnlockedOres {
		rate, chance := u.ShopSpawnRate, u.ShopSpawnChance
		out.UnlockedOres[id] = snapshot.OreSave{
			Unlocked:         u.Unlocked,
			SpawnRate:        u.SpawnRate,
			SpawnChance:      u.SpawnChance,
			ShopSpawnRate:    &rate,
			ShopSpawnChance:  &chance,
			LastSpawn:        u.LastSpawn,
			ValueMultiplier:  u.ValueMultiplier,
			ValuePrice:       u.ValuePrice,
			SpawnRatePrice:   u.SpawnRatePrice,
			SpawnChancePrice: u.SpawnChancePrice,
		}
	}
	for _, c := range s.Minecarts {
		out.MinecartData = append(out.MinecartData, snapshot.MinecartSave{
			Items:               c.Items,
			TotalValue:          c.TotalValue,
			Capacity:            c.Capacity,
			DeliveryCooldownEnd: c.CooldownEnd,
		})
	}
	for id, l := range s.PrestigeNodes {
		if l > 0 {
			out.PrestigeNodes[id] = l
		}
	}
	return out
}

// ImportSave replaces the game with a saved record. Must not be called
// while Run is active.
func (g *Game) ImportSave(sv snapshot.SaveV1) {
	now := g.now()
	st := freshState(g.tun, now)

	st.Gold = sv.Gold
	st.TotalGoldEarned = sv.TotalGoldEarned
	st.TotalClicks = sv.TotalClicks
	st.ClickPower = sv.ClickPower
	st.ClickPowerPrice = sv.ClickPowerPrice

	st.AutoClickerLevel = sv.AutoClickerLevel
	if st.AutoClickerLevel > 1 {
		st.AutoClickerLevel = 1
	}
	st.AutoClickerLastClick = sv.AutoClickerLastClick
	st.AutoClickerSpeedUpgrades = sv.AutoClickerSpeedUpgrades
	st.AutoClickerSpeedPrice = sv.AutoClickerSpeedPrice

	st.Dwarves = sv.Dwarves
	st.DwarfPrice = sv.DwarfPrice
	st.DwarfSpeed = sv.DwarfSpeed
	st.DwarfSpeedPrice = sv.DwarfSpeedPrice
	st.DwarfMiningSpeed = sv.DwarfMiningSpeed
	st.DwarfMiningSpeedPrice = sv.DwarfMiningSpeedPrice

	st.OreValueMultiplier = sv.OreValueMultiplier
	st.OreValuePrice = sv.OreValuePrice
	st.OreSpawnEfficiency = sv.OreSpawnEfficiency
	st.OreSpawnEfficiencyPrice = sv.OreSpawnEfficiencyPrice

	st.MinecartCapacity = sv.MinecartCapacity
	st.MinecartPrice = sv.MinecartPrice
	st.MinecartCapacityPrice = sv.MinecartCapacityPrice
	st.MinecartDeliverySpeed = sv.MinecartDeliverySpeed
	st.MinecartDeliverySpeedPrice = sv.MinecartDeliverySpeedPrice
	st.MinecartTurrets = sv.MinecartTurrets
	st.MinecartTurretPrice = sv.MinecartTurretPrice
	for i, c := range sv.MinecartData {
		if i >= g.tun.Limits.MaxMinecarts {
			break
		}
		cart := logistics.Cart{ID: i, Items: c.Items, TotalValue: c.TotalValue, Capacity: st.MinecartCapacity, CooldownEnd: c.DeliveryCooldownEnd}
		if cart.Items > cart.Capacity {
			cart.Items = cart.Capacity
		}
		st.Minecarts = append(st.Minecarts, cart)
	}

	st.GamblePrice = sv.GamblePrice
	st.SlotMachineLuck = sv.SlotMachineLuck
	st.SlotMachineLuckPrice = sv.SlotMachineLuckPrice
	st.GoldMultiplier = sv.GoldMultiplier
	st.GoldMultiplierEndTime = sv.GoldMultiplierEndTime
	st.MoneyBagSpawnTime = sv.MoneyBagSpawnTime

	st.Soldiers = sv.Soldiers
	st.SoldierPrice = sv.SoldierPrice
	st.SoldierAttackPower = sv.SoldierAttackPower
	st.SoldierAttackPowerPrice = sv.SoldierAttackPowerPrice
	st.SoldierAttackSpeed = sv.SoldierAttackSpeed
	st.SoldierAttackSpeedPrice = sv.SoldierAttackSpeedPrice
	st.SoldierSpeed = sv.SoldierSpeed
	st.SoldierSpeedPrice = sv.SoldierSpeedPrice

	st.Horde.Next = sv.NextHordeWaveTime
	st.Horde.Last = sv.LastHordeWaveTime
	st.LastRandomEnemySpawn = sv.LastRandomEnemySpawn
	if sv.RandomEnemySpawnInterval > 0 {
		st.RandomEnemySpawnInterval = sv.RandomEnemySpawnInterval
	}

	st.PrestigeCurrency = sv.PrestigeCurrency
	st.PrestigeCount = sv.PrestigeCount
	for id, l := range sv.PrestigeNodes {
		if l > 0 {
			st.PrestigeNodes[id] = l
		}
	}
	st.Volume = sv.Volume

	// Records without shop stats stored the bonus-adjusted values; recover
	// the shop base once.
	bonus := prestige.Resolve(g.cats.Prestige, st.PrestigeNodes)
	for id, o := range sv.UnlockedOres {
		def, ok := g.cats.Ores.ByID[id]
		if !ok {
			continue
		}
		u := &OreUnlock{
			Unlocked:         o.Unlocked,
			SpawnRate:        o.SpawnRate,
			SpawnChance:      o.SpawnChance,
			LastSpawn:        o.LastSpawn,
			ValueMultiplier:  o.ValueMultiplier,
			ValuePrice:       o.ValuePrice,
			SpawnRatePrice:   o.SpawnRatePrice,
			SpawnChancePrice: o.SpawnChancePrice,
		}
		switch {
		case o.ShopSpawnRate != nil:
			u.ShopSpawnRate = *o.ShopSpawnRate
		case o.Unlocked:
			u.ShopSpawnRate = ores.RecoverShopRate(o.SpawnRate, bonus.AllOreSpawnRate)
		default:
			u.ShopSpawnRate = o.SpawnRate
		}
		switch {
		case o.ShopSpawnChance != nil:
			u.ShopSpawnChance = *o.ShopSpawnChance
		case o.Unlocked:
			u.ShopSpawnChance = ores.RecoverShopChance(o.SpawnChance, def.BaseSpawnChance, bonus.AllOreSpawnChance)
		default:
			u.ShopSpawnChance = o.SpawnChance
		}
		st.UnlockedOres[id] = u
	}

	g.state = st
	g.clearField()
	g.initOres(now)
	g.ensureFirstCart()
	g.history = payout.NewHistory(g.tun.Limits.GoldHistoryMS, now, st.Gold)
	if g.state.MoneyBagSpawnTime <= now {
		g.scheduleMoneyBag(now)
	}
	if g.state.GoldMultiplier <= 0 {
		g.state.GoldMultiplier = 1
	}
	g.expireMultiplier(now)
	g.applyPrestigeBonuses()
	g.applyStartingBonuses(now)
	g.armHorde(now)
	g.cartsDirty = true
	g.dirty = false
	g.systemMinecarts(now)
}

// hardReset wipes the store and starts over. Saves queued before the reset
// are dropped by generation.
func (g *Game) hardReset(now int64) error {
	g.resetting = true
	defer func() { g.resetting = false }()
	g.saveGen++
	if g.saver != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := g.saver.Reset(ctx, g.saveGen); err != nil {
			g.logger.Printf("hard reset: %v", err)
			return err
		}
	}
	g.state = freshState(g.tun, now)
	g.clearField()
	g.initOres(now)
	g.ensureFirstCart()
	g.history.Reset(now, 0)
	g.scheduleMoneyBag(now)
	g.applyPrestigeBonuses()
	g.applyStartingBonuses(now)
	g.cartsDirty = true
	g.dirty = true
	return nil
}

// maybeSave hands the latest record to the saver: right away after player
// actions, otherwise at most every SaveEveryMS.
func (g *Game) maybeSave(now int64, force bool) {
	if g.saver == nil || g.resetting {
		return
	}
	if !g.dirty && !force {
		return
	}
	if !force && now-g.lastSave < int64(g.tun.SaveEveryMS) {
		return
	}
	g.saver.Save(g.saveGen, g.ExportSave(now))
	g.lastSave = now
	g.dirty = false
}

func (g *Game) maybeBackup(now int64, force bool) {
	if g.saver == nil || g.resetting {
		return
	}
	if !force && now-g.lastBackup < int64(g.tun.BackupEveryMS) {
		return
	}
	g.saver.Backup(g.saveGen, g.ExportSave(now))
	g.lastBackup = now
}
