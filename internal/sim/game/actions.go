package game

import (
	"context"
	"errors"
	"fmt"
	"math"

	"idlemine.ai/internal/protocol"
	"idlemine.ai/internal/sim/game/feature/economy/pricing"
	"idlemine.ai/internal/sim/game/feature/gamble"
	"idlemine.ai/internal/sim/game/feature/ores"
	"idlemine.ai/internal/sim/game/feature/prestige"
	"idlemine.ai/internal/sim/game/feature/spawnqueue"
	"idlemine.ai/internal/sim/tuning"
)

// Action names accepted by Submit.
const (
	ActClick           = "click"
	ActSpin            = "spin"
	ActCollectMoneyBag = "collect_money_bag"
	ActPrestige        = "prestige"
	ActPrestigeNode    = "purchase_prestige_node"
	ActSetVolume       = "set_volume"
	ActHardReset       = "hard_reset"

	ActClickPower            = "upgrade_click_power"
	ActAutoClicker           = "buy_auto_clicker"
	ActAutoClickerSpeed      = "upgrade_auto_clicker_speed"
	ActHireDwarf             = "hire_dwarf"
	ActDwarfSpeed            = "upgrade_dwarf_speed"
	ActHireSoldier           = "hire_soldier"
	ActSoldierAttackPower    = "upgrade_soldier_attack_power"
	ActSoldierAttackSpeed    = "upgrade_soldier_attack_speed"
	ActSoldierSpeed          = "upgrade_soldier_speed"
	ActOreValue              = "upgrade_ore_value"
	ActSpawnEfficiency       = "upgrade_ore_spawn_efficiency"
	ActSlotLuck              = "upgrade_slot_machine_luck"
	ActBuyMinecart           = "buy_minecart"
	ActMinecartCapacity      = "upgrade_minecart_capacity"
	ActMinecartDeliverySpeed = "upgrade_minecart_delivery_speed"
	ActMinecartTurrets       = "buy_minecart_turrets"
	ActUnlockOre             = "unlock_ore"
	ActOreRate               = "upgrade_ore_rate"
	ActOreChance             = "upgrade_ore_chance"
	ActOreValueSingle        = "upgrade_ore_value_single"
)

var ErrStopped = errors.New("game: stopped")

type Action struct {
	Type   string  `json:"action"`
	Ore    string  `json:"ore,omitempty"`
	Node   string  `json:"node,omitempty"`
	Volume float64 `json:"volume,omitempty"`
}

// ActionResult reports whether an action took effect. Refusals carry a
// protocol error code and never change state.
type ActionResult struct {
	OK      bool    `json:"ok"`
	Code    string  `json:"code,omitempty"`
	Message string  `json:"message,omitempty"`
	Gold    float64 `json:"gold"`
}

type actionReq struct {
	Action Action
	Resp   chan ActionResult
}

// Submit hands an action to the loop and waits for its result. The error
// is only set when ctx ends or the game stops first.
func (g *Game) Submit(ctx context.Context, a Action) (ActionResult, error) {
	resp := make(chan ActionResult, 1)
	select {
	case g.actions <- actionReq{Action: a, Resp: resp}:
	case <-ctx.Done():
		return ActionResult{}, ctx.Err()
	case <-g.stop:
		return ActionResult{}, ErrStopped
	}
	select {
	case r := <-resp:
		return r, nil
	case <-ctx.Done():
		return ActionResult{}, ctx.Err()
	case <-g.stop:
		return ActionResult{}, ErrStopped
	}
}

// HardReset wipes the save and starts a fresh game.
func (g *Game) HardReset(ctx context.Context) error {
	r, err := g.Submit(ctx, Action{Type: ActHardReset})
	if err != nil {
		return err
	}
	if !r.OK {
		return fmt.Errorf("hard reset: %s", r.Message)
	}
	return nil
}

func (g *Game) ok() ActionResult {
	return ActionResult{OK: true, Gold: g.state.Gold}
}

func (g *Game) refuse(code, msg string) ActionResult {
	return ActionResult{Code: code, Message: msg, Gold: g.state.Gold}
}

func (g *Game) applyAction(now int64, a Action) ActionResult {
	if g.resetting {
		return g.refuse(protocol.ErrBusy, "reset in progress")
	}
	switch a.Type {
	case ActClick:
		g.click(now, true)
		return g.ok()
	case ActSpin:
		return g.spin(now)
	case ActCollectMoneyBag:
		if _, ok := g.collectMoneyBag(now); !ok {
			return g.refuse(protocol.ErrNotReady, "no money bag")
		}
		return g.ok()
	case ActPrestige:
		if !g.performPrestige(now) {
			return g.refuse(protocol.ErrNotReady, fmt.Sprintf("need %.0f lifetime gold", g.tun.Limits.PrestigeThreshold))
		}
		return g.ok()
	case ActPrestigeNode:
		return g.purchasePrestigeNode(now, a.Node)
	case ActSetVolume:
		if math.IsNaN(a.Volume) || a.Volume < 0 || a.Volume > 1 {
			return g.refuse(protocol.ErrBadRequest, "volume must be in [0,1]")
		}
		g.state.Volume = a.Volume
		g.dirty = true
		return g.ok()
	case ActHardReset:
		if err := g.hardReset(now); err != nil {
			return g.refuse(protocol.ErrInternal, err.Error())
		}
		return g.ok()
	case ActUnlockOre, ActOreRate, ActOreChance, ActOreValueSingle:
		return g.buyOre(now, a.Type, a.Ore)
	}
	return g.buyShop(now, a.Type)
}

// buy spends price under rule and applies the upgrade.
func (g *Game) buy(now int64, what string, price *float64, rule tuning.PriceRule, apply func()) ActionResult {
	if !pricing.Spend(&g.state.Gold, price, rule) {
		return g.refuse(protocol.ErrNoResource, "not enough gold")
	}
	apply()
	g.dirty = true
	g.emit(now, EventUpgrade, map[string]any{"what": what})
	return g.ok()
}

func (g *Game) buyShop(now int64, what string) ActionResult {
	s := &g.state
	shop := g.tun.Shop
	lim := g.tun.Limits
	switch what {
	case ActClickPower:
		return g.buy(now, what, &s.ClickPowerPrice, shop.ClickPower, func() {
			s.ClickPower += lim.ClickPowerStep
		})
	case ActAutoClicker:
		if s.AutoClickerLevel >= 1 {
			return g.refuse(protocol.ErrMaxed, "auto-clicker already owned")
		}
		price := shop.AutoClicker.Base
		return g.buy(now, what, &price, shop.AutoClicker, func() {
			s.AutoClickerLevel = 1
			s.AutoClickerLastClick = now
		})
	case ActAutoClickerSpeed:
		return g.buy(now, what, &s.AutoClickerSpeedPrice, shop.AutoClickerSpeed, func() {
			s.AutoClickerSpeedUpgrades++
			s.AutoClickerSpeed = g.autoClickerInterval()
		})
	case ActHireDwarf:
		return g.buy(now, what, &s.DwarfPrice, shop.Dwarf, func() {
			s.Dwarves++
			g.syncAgents()
		})
	case ActDwarfSpeed:
		return g.buy(now, what, &s.DwarfSpeedPrice, shop.DwarfSpeed, func() {
			s.DwarfSpeed += lim.DwarfSpeedStep
		})
	case ActHireSoldier:
		return g.buy(now, what, &s.SoldierPrice, shop.Soldier, func() {
			s.Soldiers++
			g.syncAgents()
		})
	case ActSoldierAttackPower:
		return g.buy(now, what, &s.SoldierAttackPowerPrice, shop.SoldierAttackPower, func() {
			s.SoldierAttackPower += lim.SoldierAttackStep
		})
	case ActSoldierAttackSpeed:
		if s.SoldierAttackSpeed <= lim.MinSoldierAttackMS {
			return g.refuse(protocol.ErrMaxed, "attack speed at minimum")
		}
		return g.buy(now, what, &s.SoldierAttackSpeedPrice, shop.SoldierAttackSpeed, func() {
			s.SoldierAttackSpeed = maxInt64(lim.MinSoldierAttackMS, s.SoldierAttackSpeed-lim.SoldierAttackSpeedStep)
		})
	case ActSoldierSpeed:
		return g.buy(now, what, &s.SoldierSpeedPrice, shop.SoldierSpeed, func() {
			s.SoldierSpeed += lim.SoldierSpeedStep
		})
	case ActOreValue:
		return g.buy(now, what, &s.OreValuePrice, shop.OreValue, func() {
			s.OreValueMultiplier += lim.OreValueStep
		})
	case ActSpawnEfficiency:
		if g.spawnEfficiency() >= 1 {
			return g.refuse(protocol.ErrMaxed, "spawn efficiency at 100%")
		}
		return g.buy(now, what, &s.OreSpawnEfficiencyPrice, shop.SpawnEfficiency, func() {
			s.OreSpawnEfficiency = math.Min(1-s.Bonus.SpawnEfficiency, s.OreSpawnEfficiency+lim.SpawnEfficiencyStep)
		})
	case ActSlotLuck:
		return g.buy(now, what, &s.SlotMachineLuckPrice, shop.SlotLuck, func() {
			s.SlotMachineLuck++
		})
	case ActBuyMinecart:
		if len(s.Minecarts) >= lim.MaxMinecarts {
			return g.refuse(protocol.ErrMaxed, "minecart limit reached")
		}
		return g.buy(now, what, &s.MinecartPrice, shop.Minecart, func() {
			g.addCart()
		})
	case ActMinecartCapacity:
		if s.MinecartCapacity >= lim.MaxMinecartCapacity {
			return g.refuse(protocol.ErrMaxed, "minecart capacity at maximum")
		}
		return g.buy(now, what, &s.MinecartCapacityPrice, shop.MinecartCapacity, func() {
			s.MinecartCapacity = minInt(lim.MaxMinecartCapacity, s.MinecartCapacity+lim.CapacityStep)
			for i := range s.Minecarts {
				s.Minecarts[i].Capacity = s.MinecartCapacity
			}
			g.cartsDirty = true
		})
	case ActMinecartDeliverySpeed:
		if s.MinecartDeliverySpeed <= lim.MinDeliveryMS {
			return g.refuse(protocol.ErrMaxed, "delivery speed at minimum")
		}
		return g.buy(now, what, &s.MinecartDeliverySpeedPrice, shop.MinecartDeliverySpeed, func() {
			s.MinecartDeliverySpeed = maxInt64(lim.MinDeliveryMS, s.MinecartDeliverySpeed-lim.DeliveryStepMS)
		})
	case ActMinecartTurrets:
		if s.MinecartTurrets {
			return g.refuse(protocol.ErrMaxed, "turrets already installed")
		}
		return g.buy(now, what, &s.MinecartTurretPrice, shop.Turrets, func() {
			s.MinecartTurrets = true
			g.cartsDirty = true
		})
	}
	return g.refuse(protocol.ErrBadRequest, fmt.Sprintf("unknown action %q", what))
}

func (g *Game) buyOre(now int64, what, id string) ActionResult {
	def, ok := g.cats.Ores.ByID[id]
	u := g.state.UnlockedOres[id]
	if !ok || u == nil {
		return g.refuse(protocol.ErrBadRequest, fmt.Sprintf("unknown ore %q", id))
	}
	shop := g.tun.Shop
	lim := g.tun.Limits
	if what == ActUnlockOre {
		if u.Unlocked {
			return g.refuse(protocol.ErrMaxed, "ore already unlocked")
		}
		price := def.UnlockPrice
		return g.buy(now, what, &price, tuning.PriceRule{}, func() {
			u.Unlocked = true
			u.LastSpawn = now
			g.applyPrestigeBonuses()
		})
	}
	if !u.Unlocked {
		return g.refuse(protocol.ErrNotReady, "ore is locked")
	}
	switch what {
	case ActOreRate:
		next, ok := ores.UpgradeRate(u.ShopSpawnRate, u.SpawnRate, lim.OreRateStepMS, lim.MinOreSpawnRateMS)
		if !ok {
			return g.refuse(protocol.ErrMaxed, "spawn rate at minimum")
		}
		return g.buy(now, what, &u.SpawnRatePrice, shop.OreRate.At(def.Tier), func() {
			u.ShopSpawnRate = next
			g.applyPrestigeBonuses()
		})
	case ActOreChance:
		next, ok := ores.UpgradeChance(u.ShopSpawnChance, u.SpawnChance, lim.OreChanceStep)
		if !ok {
			return g.refuse(protocol.ErrMaxed, "spawn chance at maximum")
		}
		return g.buy(now, what, &u.SpawnChancePrice, shop.OreChance.At(def.Tier), func() {
			u.ShopSpawnChance = next
			g.applyPrestigeBonuses()
		})
	default:
		return g.buy(now, what, &u.ValuePrice, shop.OreSingleValue.At(def.Tier), func() {
			u.ValueMultiplier += lim.OreValueStep
		})
	}
}

// spin plays the slot machine once.
func (g *Game) spin(now int64) ActionResult {
	s := &g.state
	if s.Gold < s.GamblePrice {
		return g.refuse(protocol.ErrNoResource, "not enough gold")
	}
	s.Gold -= s.GamblePrice
	g.dirty = true
	g.emit(now, EventSpin, nil)

	luck := g.tun.Luck
	r := gamble.Spin(g.rng, s.SlotMachineLuck, luck.MultiplierValue, luck.MultiplierDurationMS)
	data := map[string]any{"kind": string(r.Kind), "amount": r.Amount}
	switch r.Kind {
	case gamble.KindGold:
		g.earn(now, r.Amount)
	case gamble.KindOres:
		live := len(g.ores) + g.queue.Count(spawnqueue.KindOre)
		n := gamble.OreCount(r.Amount, live, g.tun.Limits.MaxOres)
		for i := 0; i < n; i++ {
			g.queue.Push(spawnqueue.Event{Due: now + int64(i)*luck.OreRewardStaggerMS, Kind: spawnqueue.KindOre})
		}
		data["count"] = n
	case gamble.KindMultiplier:
		s.GoldMultiplier = r.Amount
		s.GoldMultiplierEndTime = now + r.DurationMS
	}
	g.emit(now, EventReward, data)
	return g.ok()
}

func (g *Game) purchasePrestigeNode(now int64, id string) ActionResult {
	s := &g.state
	cost, why := prestige.CanPurchase(g.cats.Prestige, s.PrestigeNodes, s.PrestigeCurrency, id)
	switch why {
	case prestige.RefuseUnknown:
		return g.refuse(protocol.ErrBadRequest, fmt.Sprintf("unknown node %q", id))
	case prestige.RefuseMaxed:
		return g.refuse(protocol.ErrMaxed, "node at max level")
	case prestige.RefuseLocked:
		return g.refuse(protocol.ErrNotReady, "node requirements not met")
	case prestige.RefuseCurrency:
		return g.refuse(protocol.ErrNoResource, "not enough prestige currency")
	}
	s.PrestigeCurrency -= cost
	s.PrestigeNodes[id]++
	g.applyPrestigeBonuses()
	g.dirty = true
	g.emit(now, EventUpgrade, map[string]any{"what": ActPrestigeNode, "node": id, "level": s.PrestigeNodes[id]})
	return g.ok()
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
