// Package ores holds the spawn-timer, roll and value rules for ore pickups,
// and the math that layers prestige bonuses over shop-bought spawn stats.
package ores

import (
	"math"

	"idlemine.ai/internal/sim/rng"
)

// Due reports whether an ore type's spawn timer has elapsed.
func Due(now, lastSpawn int64, rateMS float64) bool {
	return float64(now-lastSpawn) >= rateMS
}

// Roll draws the spawn roll and, only when it succeeds, the double-spawn
// roll against efficiency.
func Roll(src rng.Source, chance, efficiency float64) (spawn, double bool) {
	if src.Float64() > chance {
		return false, false
	}
	if efficiency > 0 && src.Float64() <= efficiency {
		return true, true
	}
	return true, false
}

// Value of one spawned ore.
func Value(base, prestigeMult, globalMult, oreMult float64) float64 {
	return base * prestigeMult * globalMult * oreMult
}

// EffectiveRate applies a fractional interval reduction to the shop rate.
// The shop rate is clamped to the ore's static base first.
func EffectiveRate(shop, base, bonus, floor float64) float64 {
	if bonus <= 0 {
		return math.Max(floor, shop)
	}
	clamped := math.Min(shop, base)
	return math.Max(floor, clamped*(1-bonus))
}

// EffectiveChance adds an absolute bonus on top of the shop-bought increase.
func EffectiveChance(shop, base, bonus float64) float64 {
	if bonus <= 0 {
		return math.Min(1, shop)
	}
	return math.Min(1, base+math.Max(0, shop-base)+bonus)
}

// RecoverShopRate reverses a previously applied rate bonus. It is only used
// for saves written before shop values were stored separately.
func RecoverShopRate(saved, bonus float64) float64 {
	if bonus <= 0 || bonus >= 1 {
		return saved
	}
	return saved / (1 - bonus)
}

// RecoverShopChance reverses a previously applied chance bonus; when the
// saved value is below base+bonus the bonus is assumed not to have been
// applied yet.
func RecoverShopChance(saved, base, bonus float64) float64 {
	if bonus <= 0 {
		return saved
	}
	up := saved - base - bonus
	if up < 0 {
		up = saved - base
	}
	return base + math.Max(0, up)
}

// UpgradeRate lowers the shop interval by step. It refuses when the
// effective interval is already at the floor.
func UpgradeRate(shop, effective, step, floor float64) (float64, bool) {
	if effective <= floor || shop <= floor {
		return shop, false
	}
	return math.Max(floor, shop-step), true
}

// UpgradeChance raises the shop chance by step, capped at 1.
func UpgradeChance(shop, effective, step float64) (float64, bool) {
	if effective >= 1 || shop >= 1 {
		return shop, false
	}
	return math.Min(1, shop+step), true
}
