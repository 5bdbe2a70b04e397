package tuning

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Tuning is the balance sheet of a game: loop cadence, play-field geometry,
// starting stats and every shop price rule.
type Tuning struct {
	TickRateHz       int `yaml:"tick_rate_hz"`
	FrameEveryTicks  int `yaml:"frame_every_ticks"`
	UIUpdateMS       int `yaml:"ui_update_ms"`
	MinecartRenderMS int `yaml:"minecart_render_ms"`
	SaveEveryMS      int `yaml:"save_every_ms"`
	BackupEveryMS    int `yaml:"backup_every_ms"`

	Field  Field  `yaml:"field"`
	Start  Start  `yaml:"start"`
	Shop   Shop   `yaml:"shop"`
	Limits Limits `yaml:"limits"`
	Threat Threat `yaml:"threat"`
	Luck   Luck   `yaml:"luck"`
}

type Field struct {
	Width         float64 `yaml:"width"`
	Height        float64 `yaml:"height"`
	Padding       float64 `yaml:"padding"`
	CartX         float64 `yaml:"cart_x"`
	CartY0        float64 `yaml:"cart_y0"`
	CartSpacing   float64 `yaml:"cart_spacing"`
	DwarfFallback float64 `yaml:"dwarf_fallback"`
}

// Start holds the values a fresh (or freshly prestiged) game begins with.
type Start struct {
	ClickPower            float64 `yaml:"click_power"`
	AutoClickerIntervalMS float64 `yaml:"auto_clicker_interval_ms"`
	DwarfSpeed            float64 `yaml:"dwarf_speed"`
	DwarfMiningSpeedMS    int64   `yaml:"dwarf_mining_speed_ms"`
	OreValueMultiplier    float64 `yaml:"ore_value_multiplier"`
	MinecartCapacity      int     `yaml:"minecart_capacity"`
	MinecartDeliveryMS    int64   `yaml:"minecart_delivery_ms"`
	SoldierAttackPower    float64 `yaml:"soldier_attack_power"`
	SoldierAttackSpeedMS  int64   `yaml:"soldier_attack_speed_ms"`
	SoldierSpeed          float64 `yaml:"soldier_speed"`
	GamblePrice           float64 `yaml:"gamble_price"`
	Volume                float64 `yaml:"volume"`
}

// PriceRule describes a price ladder: Base, then price*Factor (floored) or
// price+Add after every purchase.
type PriceRule struct {
	Base   float64 `yaml:"base"`
	Factor float64 `yaml:"factor"`
	Add    float64 `yaml:"add"`
}

type Shop struct {
	ClickPower            PriceRule `yaml:"click_power"`
	AutoClicker           PriceRule `yaml:"auto_clicker"`
	AutoClickerSpeed      PriceRule `yaml:"auto_clicker_speed"`
	Dwarf                 PriceRule `yaml:"dwarf"`
	DwarfSpeed            PriceRule `yaml:"dwarf_speed"`
	DwarfMiningSpeed      PriceRule `yaml:"dwarf_mining_speed"`
	Soldier               PriceRule `yaml:"soldier"`
	SoldierAttackPower    PriceRule `yaml:"soldier_attack_power"`
	SoldierAttackSpeed    PriceRule `yaml:"soldier_attack_speed"`
	SoldierSpeed          PriceRule `yaml:"soldier_speed"`
	OreValue              PriceRule `yaml:"ore_value"`
	SpawnEfficiency       PriceRule `yaml:"spawn_efficiency"`
	SlotLuck              PriceRule `yaml:"slot_luck"`
	Minecart              PriceRule `yaml:"minecart"`
	MinecartCapacity      PriceRule `yaml:"minecart_capacity"`
	MinecartDeliverySpeed PriceRule `yaml:"minecart_delivery_speed"`
	Turrets               PriceRule `yaml:"turrets"`

	// Per-ore ladders start at Base + Step*tier.
	OreSingleValue TierRule `yaml:"ore_single_value"`
	OreRate        TierRule `yaml:"ore_rate"`
	OreChance      TierRule `yaml:"ore_chance"`
}

type TierRule struct {
	Base   float64 `yaml:"base"`
	Step   float64 `yaml:"step"`
	Factor float64 `yaml:"factor"`
}

func (r TierRule) At(tier int) PriceRule {
	return PriceRule{Base: r.Base + r.Step*float64(tier), Factor: r.Factor}
}

// Limits are the caps and per-purchase deltas of the shop.
type Limits struct {
	MaxOres                int     `yaml:"max_ores"`
	MaxMinecarts           int     `yaml:"max_minecarts"`
	MaxMinecartCapacity    int     `yaml:"max_minecart_capacity"`
	CapacityStep           int     `yaml:"capacity_step"`
	MinDeliveryMS          int64   `yaml:"min_delivery_ms"`
	DeliveryStepMS         int64   `yaml:"delivery_step_ms"`
	MinOreSpawnRateMS      float64 `yaml:"min_ore_spawn_rate_ms"`
	OreRateStepMS          float64 `yaml:"ore_rate_step_ms"`
	OreChanceStep          float64 `yaml:"ore_chance_step"`
	OreValueStep           float64 `yaml:"ore_value_step"`
	SpawnEfficiencyStep    float64 `yaml:"spawn_efficiency_step"`
	ClickPowerStep         float64 `yaml:"click_power_step"`
	AutoClickerSpeedStep   float64 `yaml:"auto_clicker_speed_step"`
	DwarfSpeedStep         float64 `yaml:"dwarf_speed_step"`
	SoldierAttackStep      float64 `yaml:"soldier_attack_step"`
	SoldierAttackSpeedStep int64   `yaml:"soldier_attack_speed_step_ms"`
	MinSoldierAttackMS     int64   `yaml:"min_soldier_attack_ms"`
	SoldierSpeedStep       float64 `yaml:"soldier_speed_step"`
	MoneyBagReward         float64 `yaml:"money_bag_reward"`
	MoneyBagMinMS          int64   `yaml:"money_bag_min_ms"`
	MoneyBagSpreadMS       int64   `yaml:"money_bag_spread_ms"`
	GoldHistoryMS          int64   `yaml:"gold_history_ms"`
	PrestigeThreshold      float64 `yaml:"prestige_threshold"`
}

// Threat configures the enemy scheduler.
type Threat struct {
	HordeCooldownMS       int64   `yaml:"horde_cooldown_ms"`
	HordeDelayMinMS       int64   `yaml:"horde_delay_min_ms"`
	HordeDelaySpreadMS    int64   `yaml:"horde_delay_spread_ms"`
	HordeLeadMS           int64   `yaml:"horde_lead_ms"`
	HordeStaggerMS        int64   `yaml:"horde_stagger_ms"`
	HordeStatMultiplier   float64 `yaml:"horde_stat_multiplier"`
	AmbientBaseMS         float64 `yaml:"ambient_base_ms"`
	AmbientSpreadMS       float64 `yaml:"ambient_spread_ms"`
	AmbientStaggerMS      int64   `yaml:"ambient_stagger_ms"`
	EnemyAttackCooldownMS int64   `yaml:"enemy_attack_cooldown_ms"`
	SpawnCartClearance    float64 `yaml:"spawn_cart_clearance"`
	TurretRange           float64 `yaml:"turret_range"`
	TurretCooldownMS      int64   `yaml:"turret_cooldown_ms"`
	TurretDamage          float64 `yaml:"turret_damage"`
	DefenderRange         float64 `yaml:"defender_range"`
}

// Luck configures the slot machine.
type Luck struct {
	MultiplierValue      float64 `yaml:"multiplier_value"`
	MultiplierDurationMS int64   `yaml:"multiplier_duration_ms"`
	OreRewardStaggerMS   int64   `yaml:"ore_reward_stagger_ms"`
}

func Defaults() Tuning {
	return Tuning{
		TickRateHz:       60,
		FrameEveryTicks:  2,
		UIUpdateMS:       100,
		MinecartRenderMS: 3000,
		SaveEveryMS:      1000,
		BackupEveryMS:    300000,
		Field: Field{
			Width: 1000, Height: 700, Padding: 40,
			CartX: 60, CartY0: 60, CartSpacing: 95,
			DwarfFallback: 50,
		},
		Start: Start{
			ClickPower:            1,
			AutoClickerIntervalMS: 1000,
			DwarfSpeed:            1.5,
			DwarfMiningSpeedMS:    2000,
			OreValueMultiplier:    1,
			MinecartCapacity:      20,
			MinecartDeliveryMS:    8000,
			SoldierAttackPower:    20,
			SoldierAttackSpeedMS:  500,
			SoldierSpeed:          2.5,
			GamblePrice:           15000,
			Volume:                0.5,
		},
		Shop: Shop{
			ClickPower:            PriceRule{Base: 50, Factor: 1.5},
			AutoClicker:           PriceRule{Base: 100},
			AutoClickerSpeed:      PriceRule{Base: 150, Factor: 1.3},
			Dwarf:                 PriceRule{Base: 25, Factor: 1.3},
			DwarfSpeed:            PriceRule{Base: 150, Factor: 1.5},
			DwarfMiningSpeed:      PriceRule{Base: 200},
			Soldier:               PriceRule{Base: 1000, Factor: 1.4},
			SoldierAttackPower:    PriceRule{Base: 500, Factor: 1.5},
			SoldierAttackSpeed:    PriceRule{Base: 400, Factor: 1.5},
			SoldierSpeed:          PriceRule{Base: 600, Factor: 1.5},
			OreValue:              PriceRule{Base: 300, Factor: 1.5},
			SpawnEfficiency:       PriceRule{Base: 500, Factor: 1.5},
			SlotLuck:              PriceRule{Base: 10000, Factor: 2.0},
			Minecart:              PriceRule{Base: 500, Factor: 2.0},
			MinecartCapacity:      PriceRule{Base: 5000, Add: 2000},
			MinecartDeliverySpeed: PriceRule{Base: 800, Factor: 1.5},
			Turrets:               PriceRule{Base: 5000000},
			OreSingleValue:        TierRule{Base: 100, Step: 200, Factor: 1.5},
			OreRate:               TierRule{Base: 200, Step: 150, Factor: 1.5},
			OreChance:             TierRule{Base: 250, Step: 200, Factor: 1.5},
		},
		Limits: Limits{
			MaxOres:                100,
			MaxMinecarts:           10,
			MaxMinecartCapacity:    50,
			CapacityStep:           5,
			MinDeliveryMS:          2000,
			DeliveryStepMS:         300,
			MinOreSpawnRateMS:      1000,
			OreRateStepMS:          500,
			OreChanceStep:          0.05,
			OreValueStep:           0.5,
			SpawnEfficiencyStep:    0.05,
			ClickPowerStep:         1,
			AutoClickerSpeedStep:   0.5,
			DwarfSpeedStep:         0.3,
			SoldierAttackStep:      2,
			SoldierAttackSpeedStep: 100,
			MinSoldierAttackMS:     200,
			SoldierSpeedStep:       0.3,
			MoneyBagReward:         10000,
			MoneyBagMinMS:          30000,
			MoneyBagSpreadMS:       270000,
			GoldHistoryMS:          30000,
			PrestigeThreshold:      100000,
		},
		Threat: Threat{
			HordeCooldownMS:       300000,
			HordeDelayMinMS:       60000,
			HordeDelaySpreadMS:    360000,
			HordeLeadMS:           2000,
			HordeStaggerMS:        500,
			HordeStatMultiplier:   1.3,
			AmbientBaseMS:         12000,
			AmbientSpreadMS:       15000,
			AmbientStaggerMS:      300,
			EnemyAttackCooldownMS: 2000,
			SpawnCartClearance:    150,
			TurretRange:           200,
			TurretCooldownMS:      1000,
			TurretDamage:          10,
			DefenderRange:         200,
		},
		Luck: Luck{
			MultiplierValue:      2,
			MultiplierDurationMS: 60000,
			OreRewardStaggerMS:   30,
		},
	}
}

// Normalize fills zero values left by a partial yaml file.
func (t *Tuning) Normalize() {
	d := Defaults()
	if t.TickRateHz <= 0 {
		t.TickRateHz = d.TickRateHz
	}
	if t.FrameEveryTicks <= 0 {
		t.FrameEveryTicks = d.FrameEveryTicks
	}
	if t.UIUpdateMS <= 0 {
		t.UIUpdateMS = d.UIUpdateMS
	}
	if t.MinecartRenderMS <= 0 {
		t.MinecartRenderMS = d.MinecartRenderMS
	}
	if t.SaveEveryMS <= 0 {
		t.SaveEveryMS = d.SaveEveryMS
	}
	if t.BackupEveryMS <= 0 {
		t.BackupEveryMS = d.BackupEveryMS
	}
	if t.Field.Width <= 0 || t.Field.Height <= 0 {
		t.Field = d.Field
	}
	if t.Limits.MaxOres <= 0 {
		t.Limits.MaxOres = d.Limits.MaxOres
	}
	if t.Limits.MaxMinecarts <= 0 {
		t.Limits.MaxMinecarts = d.Limits.MaxMinecarts
	}
	if t.Limits.MinOreSpawnRateMS <= 0 {
		t.Limits.MinOreSpawnRateMS = d.Limits.MinOreSpawnRateMS
	}
	if t.Limits.PrestigeThreshold <= 0 {
		t.Limits.PrestigeThreshold = d.Limits.PrestigeThreshold
	}
	if t.Limits.GoldHistoryMS <= 0 {
		t.Limits.GoldHistoryMS = d.Limits.GoldHistoryMS
	}
	if t.Threat.HordeStatMultiplier <= 0 {
		t.Threat.HordeStatMultiplier = d.Threat.HordeStatMultiplier
	}
	if t.Luck.MultiplierValue <= 0 {
		t.Luck.MultiplierValue = d.Luck.MultiplierValue
	}
	if t.Start.Volume < 0 || t.Start.Volume > 1 {
		t.Start.Volume = d.Start.Volume
	}
}

func (t Tuning) Validate() error {
	if t.TickRateHz <= 0 || t.TickRateHz > 240 {
		return fmt.Errorf("tick_rate_hz out of range: %d", t.TickRateHz)
	}
	if t.Field.Padding*2 >= t.Field.Width || t.Field.Padding*2 >= t.Field.Height {
		return errors.New("field padding leaves no room")
	}
	if t.Start.MinecartCapacity <= 0 || t.Start.MinecartCapacity > t.Limits.MaxMinecartCapacity {
		return fmt.Errorf("minecart_capacity must be in (0,%d]: %d", t.Limits.MaxMinecartCapacity, t.Start.MinecartCapacity)
	}
	if t.Start.MinecartDeliveryMS < t.Limits.MinDeliveryMS {
		return fmt.Errorf("minecart_delivery_ms below min_delivery_ms: %d", t.Start.MinecartDeliveryMS)
	}
	rules := map[string]PriceRule{
		"click_power":  t.Shop.ClickPower,
		"dwarf":        t.Shop.Dwarf,
		"soldier":      t.Shop.Soldier,
		"minecart":     t.Shop.Minecart,
		"ore_value":    t.Shop.OreValue,
		"slot_luck":    t.Shop.SlotLuck,
		"auto_clicker": t.Shop.AutoClicker,
	}
	for name, r := range rules {
		if r.Base <= 0 {
			return fmt.Errorf("shop.%s.base must be > 0", name)
		}
		if r.Factor != 0 && r.Factor < 1 {
			return fmt.Errorf("shop.%s.factor must be >= 1", name)
		}
	}
	return nil
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return t, nil
		}
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	t.Normalize()
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

// Digest is the sha256 of the tuning as canonical JSON.
func (t Tuning) Digest() string {
	b, _ := json.Marshal(t)
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
