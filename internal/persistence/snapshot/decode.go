package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
)

// Decode reads a stored record field by field. A field that is missing,
// zero, or of the wrong type takes its value from def, so a damaged record
// still loads everything it can. Older key names are honoured. now stamps
// migrations that need a timestamp.
func Decode(raw []byte, def SaveV1, now int64) (SaveV1, error) {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return def, fmt.Errorf("save: %w", err)
	}
	if m == nil {
		return def, errors.New("save: not an object")
	}
	r := fields(m)
	var s SaveV1

	s.Version = r.int("version", 0)
	s.SavedAt = r.int64("savedAt", 0)
	s.Gold = math.Max(0, r.num("gold", def.Gold))
	if v, ok := r.present("totalGoldEarned"); ok {
		s.TotalGoldEarned = math.Max(0, v)
	} else {
		s.TotalGoldEarned = def.TotalGoldEarned
	}
	s.TotalClicks = r.int("totalClicks", def.TotalClicks)
	s.ClickPower = r.num("clickPower", def.ClickPower)
	s.ClickPowerPrice = r.num("clickPowerPrice", def.ClickPowerPrice)

	if n := r.arrayLen("autoClickers"); n > 0 {
		s.AutoClickerLevel = 1
		s.AutoClickerLastClick = now
	} else {
		s.AutoClickerLevel = r.int("autoClickerLevel", def.AutoClickerLevel)
		s.AutoClickerLastClick = r.int64("autoClickerLastClick", def.AutoClickerLastClick)
	}
	if v, ok := r.present("autoClickerSpeedUpgrades"); ok {
		s.AutoClickerSpeedUpgrades = int(math.Max(0, v))
	} else {
		old := r.num("autoClickerSpeed", 2000)
		if old < 2000 {
			s.AutoClickerSpeedUpgrades = int(math.Floor((2000 - old) / 100))
		}
	}
	s.AutoClickerSpeed = r.num("autoClickerSpeed", def.AutoClickerSpeed)
	s.AutoClickerSpeedPrice = r.num("autoClickerSpeedPrice", def.AutoClickerSpeedPrice)

	s.Dwarves = r.int("dwarves", def.Dwarves)
	s.DwarfPrice = r.num("dwarfPrice", def.DwarfPrice)
	s.DwarfSpeed = r.num("dwarfSpeed", def.DwarfSpeed)
	s.DwarfSpeedPrice = r.num("dwarfSpeedPrice", def.DwarfSpeedPrice)
	s.DwarfMiningSpeed = r.int64("dwarfMiningSpeed", def.DwarfMiningSpeed)
	s.DwarfMiningSpeedPrice = r.num("dwarfMiningSpeedPrice", def.DwarfMiningSpeedPrice)

	s.UnlockedOres = r.ores("unlockedOres", def.UnlockedOres)
	s.OreValueMultiplier = r.num("oreValueMultiplier", def.OreValueMultiplier)
	s.OreValuePrice = r.num("oreValuePrice", def.OreValuePrice)
	s.OreSpawnEfficiency = r.num("oreSpawnEfficiency", def.OreSpawnEfficiency)
	s.OreSpawnEfficiencyPrice = r.num("oreSpawnEfficiencyPrice", def.OreSpawnEfficiencyPrice)

	s.MinecartCapacity = r.int("minecartCapacity", r.int("truckCapacity", def.MinecartCapacity))
	s.MinecartPrice = r.num("minecartPrice", r.num("truckPrice", def.MinecartPrice))
	s.MinecartCapacityPrice = r.num("minecartCapacityPrice", r.num("truckCapacityPrice", def.MinecartCapacityPrice))
	s.MinecartDeliverySpeed = r.int64("minecartDeliverySpeed", r.int64("minecartDeliveryCooldown", def.MinecartDeliverySpeed))
	s.MinecartDeliverySpeedPrice = r.num("minecartDeliverySpeedPrice", def.MinecartDeliverySpeedPrice)
	s.MinecartTurrets = r.bool("minecartTurrets", def.MinecartTurrets)
	s.MinecartTurretPrice = r.num("minecartTurretPrice", def.MinecartTurretPrice)
	s.MinecartData = r.carts("minecartData")
	if len(s.MinecartData) == 0 {
		n := r.int("minecarts", r.int("trucks", 0))
		for i := 0; i < n; i++ {
			s.MinecartData = append(s.MinecartData, MinecartSave{})
		}
	}
	for i := range s.MinecartData {
		s.MinecartData[i].Capacity = s.MinecartCapacity
		if s.MinecartData[i].Items > s.MinecartCapacity {
			s.MinecartData[i].Items = s.MinecartCapacity
		}
	}
	s.Minecarts = len(s.MinecartData)

	s.GamblePrice = r.num("gamblePrice", def.GamblePrice)
	s.SlotMachineLuck = r.int("slotMachineLuck", def.SlotMachineLuck)
	s.SlotMachineLuckPrice = r.num("slotMachineLuckPrice", def.SlotMachineLuckPrice)
	s.GoldMultiplier = r.num("goldMultiplier", def.GoldMultiplier)
	s.GoldMultiplierEndTime = r.int64("goldMultiplierEndTime", def.GoldMultiplierEndTime)
	s.MoneyBagSpawnTime = r.int64("moneyBagSpawnTime", def.MoneyBagSpawnTime)

	s.Soldiers = r.int("soldiers", def.Soldiers)
	s.SoldierPrice = r.num("soldierPrice", def.SoldierPrice)
	s.SoldierAttackPower = r.num("soldierAttackPower", def.SoldierAttackPower)
	s.SoldierAttackPowerPrice = r.num("soldierAttackPowerPrice", def.SoldierAttackPowerPrice)
	s.SoldierAttackSpeed = r.int64("soldierAttackSpeed", def.SoldierAttackSpeed)
	s.SoldierAttackSpeedPrice = r.num("soldierAttackSpeedPrice", def.SoldierAttackSpeedPrice)
	s.SoldierSpeed = r.num("soldierSpeed", def.SoldierSpeed)
	s.SoldierSpeedPrice = r.num("soldierSpeedPrice", def.SoldierSpeedPrice)

	s.NextHordeWaveTime = r.int64("nextHordeWaveTime", def.NextHordeWaveTime)
	s.LastHordeWaveTime = r.int64("lastHordeWaveTime", def.LastHordeWaveTime)
	s.HordeWaveActive = r.bool("hordeWaveActive", false)
	s.LastRandomEnemySpawn = r.int64("lastRandomEnemySpawn", def.LastRandomEnemySpawn)
	s.RandomEnemySpawnInterval = r.num("randomEnemySpawnInterval", def.RandomEnemySpawnInterval)

	s.PrestigeCurrency = r.int("prestigeCurrency", def.PrestigeCurrency)
	s.PrestigeNodes = r.levels("prestigeNodes")
	s.PrestigeCount = r.int("prestigeCount", def.PrestigeCount)
	s.PrestigeGoldMultiplier = r.num("prestigeGoldMultiplier", 1)

	if v, ok := r.present("volume"); ok {
		s.Volume = math.Min(1, math.Max(0, v))
	} else {
		s.Volume = def.Volume
	}
	return s, nil
}

// Encode marshals a record for the store.
func Encode(s SaveV1) ([]byte, error) {
	if s.Version == 0 {
		s.Version = SaveVersion
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("save: %w", err)
	}
	return b, nil
}

type fields map[string]json.RawMessage

// present returns the numeric value of key when it exists, even if zero.
func (f fields) present(key string) (float64, bool) {
	raw, ok := f[key]
	if !ok {
		return 0, false
	}
	var v float64
	if err := json.Unmarshal(raw, &v); err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// num treats zero like a missing value.
func (f fields) num(key string, def float64) float64 {
	v, ok := f.present(key)
	if !ok || v == 0 {
		return def
	}
	return v
}

func (f fields) int(key string, def int) int {
	return int(f.num(key, float64(def)))
}

func (f fields) int64(key string, def int64) int64 {
	return int64(f.num(key, float64(def)))
}

func (f fields) bool(key string, def bool) bool {
	raw, ok := f[key]
	if !ok {
		return def
	}
	var v bool
	if err := json.Unmarshal(raw, &v); err != nil {
		return def
	}
	return v || def
}

func (f fields) arrayLen(key string) int {
	raw, ok := f[key]
	if !ok {
		return 0
	}
	var v []json.RawMessage
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0
	}
	return len(v)
}

func (f fields) object(key string) map[string]json.RawMessage {
	raw, ok := f[key]
	if !ok {
		return nil
	}
	var v map[string]json.RawMessage
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	return v
}

func (f fields) ores(key string, def map[string]OreSave) map[string]OreSave {
	out := make(map[string]OreSave, len(def))
	for id, d := range def {
		out[id] = d
	}
	for id, raw := range f.object(key) {
		var m map[string]json.RawMessage
		if err := json.Unmarshal(raw, &m); err != nil || m == nil {
			continue
		}
		o := fields(m)
		d := def[id]
		s := OreSave{
			Unlocked:         o.bool("unlocked", false),
			SpawnRate:        o.num("spawnRate", d.SpawnRate),
			SpawnChance:      o.num("spawnChance", d.SpawnChance),
			LastSpawn:        o.int64("lastSpawn", d.LastSpawn),
			ValueMultiplier:  o.num("valueMultiplier", 1),
			ValuePrice:       o.num("valuePrice", d.ValuePrice),
			SpawnRatePrice:   o.num("spawnRatePrice", d.SpawnRatePrice),
			SpawnChancePrice: o.num("spawnChancePrice", d.SpawnChancePrice),
		}
		if v, ok := o.present("shopSpawnRate"); ok && v > 0 {
			s.ShopSpawnRate = &v
		}
		if v, ok := o.present("shopSpawnChance"); ok && v > 0 {
			s.ShopSpawnChance = &v
		}
		out[id] = s
	}
	return out
}

func (f fields) carts(key string) []MinecartSave {
	raw, ok := f[key]
	if !ok {
		return nil
	}
	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil
	}
	out := make([]MinecartSave, 0, len(list))
	for _, item := range list {
		var m map[string]json.RawMessage
		if err := json.Unmarshal(item, &m); err != nil {
			m = nil
		}
		c := fields(m)
		out = append(out, MinecartSave{
			Items:               int(math.Max(0, float64(c.int("items", 0)))),
			TotalValue:          math.Max(0, c.num("totalValue", 0)),
			Capacity:            c.int("capacity", 0),
			DeliveryCooldownEnd: c.int64("deliveryCooldownEnd", 0),
		})
	}
	return out
}

func (f fields) levels(key string) map[string]int {
	out := map[string]int{}
	obj := f.object(key)
	ids := make([]string, 0, len(obj))
	for id := range obj {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		var v float64
		if err := json.Unmarshal(obj[id], &v); err != nil || v <= 0 {
			continue
		}
		out[id] = int(v)
	}
	return out
}
