package game

import (
	"idlemine.ai/internal/sim/game/feature/horde"
	"idlemine.ai/internal/sim/game/feature/logistics"
	"idlemine.ai/internal/sim/game/feature/prestige"
	"idlemine.ai/internal/sim/geom"
	"idlemine.ai/internal/sim/tuning"
)

// State is the economy of one game. It is owned by the loop goroutine.
type State struct {
	Gold            float64
	TotalGoldEarned float64
	TotalClicks     int

	ClickPower      float64
	ClickPowerPrice float64

	AutoClickerLevel         int
	AutoClickerLastClick     int64
	AutoClickerSpeed         float64
	AutoClickerSpeedUpgrades int
	AutoClickerSpeedPrice    float64

	Dwarves               int
	DwarfPrice            float64
	DwarfSpeed            float64
	DwarfSpeedPrice       float64
	DwarfMiningSpeed      int64
	DwarfMiningSpeedPrice float64

	UnlockedOres            map[string]*OreUnlock
	OreValueMultiplier      float64
	OreValuePrice           float64
	OreSpawnEfficiency      float64
	OreSpawnEfficiencyPrice float64

	Minecarts                  []logistics.Cart
	MinecartCapacity           int
	MinecartPrice              float64
	MinecartCapacityPrice      float64
	MinecartDeliverySpeed      int64
	MinecartDeliverySpeedPrice float64
	MinecartTurrets            bool
	MinecartTurretPrice        float64

	GamblePrice          float64
	SlotMachineLuck      int
	SlotMachineLuckPrice float64

	// Slot machine multiplier.
	GoldMultiplier        float64
	GoldMultiplierEndTime int64

	MoneyBagSpawnTime int64

	Soldiers                int
	SoldierPrice            float64
	SoldierAttackPower      float64
	SoldierAttackPowerPrice float64
	SoldierAttackSpeed      int64
	SoldierAttackSpeedPrice float64
	SoldierSpeed            float64
	SoldierSpeedPrice       float64

	Horde                    horde.State
	LastRandomEnemySpawn     int64
	RandomEnemySpawnInterval float64

	PrestigeCurrency       int
	PrestigeNodes          map[string]int
	PrestigeCount          int
	PrestigeGoldMultiplier float64

	Volume float64

	// Bonus is recomputed from PrestigeNodes; never persisted.
	Bonus prestige.Bonuses
}

// OreUnlock is the per-type spawn state. SpawnRate and SpawnChance are the
// effective values (prestige bonuses included); the Shop fields hold what
// was bought.
type OreUnlock struct {
	Unlocked         bool
	SpawnRate        float64
	SpawnChance      float64
	ShopSpawnRate    float64
	ShopSpawnChance  float64
	LastSpawn        int64
	ValueMultiplier  float64
	ValuePrice       float64
	SpawnRatePrice   float64
	SpawnChancePrice float64
}

type Ore struct {
	ID       uint64
	Type     string
	Pos      geom.Vec2
	Value    float64
	PickedUp bool
}

type Dwarf struct {
	ID         uint64
	Pos        geom.Vec2
	Target     uint64
	Carrying   uint64
	MiningRock bool
	LastMine   int64
}

type Soldier struct {
	ID         uint64
	Pos        geom.Vec2
	Home       geom.Vec2
	Target     uint64
	LastAttack int64
	Defender   bool
}

type Enemy struct {
	ID         uint64
	Type       string
	Pos        geom.Vec2
	Health     float64
	MaxHealth  float64
	Speed      float64
	Damage     float64
	TargetCart int
	LastAttack int64
	Horde      bool
}

type MoneyBag struct {
	Pos geom.Vec2
}

// freshState is a brand-new run: every stat at its starting value, nothing
// owned. Ores and carts are filled in by the caller.
func freshState(t tuning.Tuning, now int64) State {
	st := t.Start
	return State{
		ClickPower:      st.ClickPower,
		ClickPowerPrice: t.Shop.ClickPower.Base,

		AutoClickerSpeed:      st.AutoClickerIntervalMS,
		AutoClickerSpeedPrice: t.Shop.AutoClickerSpeed.Base,

		DwarfPrice:            t.Shop.Dwarf.Base,
		DwarfSpeed:            st.DwarfSpeed,
		DwarfSpeedPrice:       t.Shop.DwarfSpeed.Base,
		DwarfMiningSpeed:      st.DwarfMiningSpeedMS,
		DwarfMiningSpeedPrice: t.Shop.DwarfMiningSpeed.Base,

		UnlockedOres:            map[string]*OreUnlock{},
		OreValueMultiplier:      st.OreValueMultiplier,
		OreValuePrice:           t.Shop.OreValue.Base,
		OreSpawnEfficiencyPrice: t.Shop.SpawnEfficiency.Base,

		MinecartCapacity:           st.MinecartCapacity,
		MinecartPrice:              t.Shop.Minecart.Base,
		MinecartCapacityPrice:      t.Shop.MinecartCapacity.Base,
		MinecartDeliverySpeed:      st.MinecartDeliveryMS,
		MinecartDeliverySpeedPrice: t.Shop.MinecartDeliverySpeed.Base,
		MinecartTurretPrice:        t.Shop.Turrets.Base,

		GamblePrice:          st.GamblePrice,
		SlotMachineLuckPrice: t.Shop.SlotLuck.Base,
		GoldMultiplier:       1,

		SoldierPrice:            t.Shop.Soldier.Base,
		SoldierAttackPower:      st.SoldierAttackPower,
		SoldierAttackPowerPrice: t.Shop.SoldierAttackPower.Base,
		SoldierAttackSpeed:      st.SoldierAttackSpeedMS,
		SoldierAttackSpeedPrice: t.Shop.SoldierAttackSpeed.Base,
		SoldierSpeed:            st.SoldierSpeed,
		SoldierSpeedPrice:       t.Shop.SoldierSpeed.Base,

		RandomEnemySpawnInterval: t.Threat.AmbientBaseMS,

		PrestigeNodes:          map[string]int{},
		PrestigeGoldMultiplier: 1,
		Volume:                 st.Volume,
		Bonus:                  prestige.Identity(),
	}
}
