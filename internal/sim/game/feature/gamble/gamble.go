// Package gamble is the slot machine's reward table. Luck shifts weight from
// flat gold rewards toward ore showers and the gold multiplier.
package gamble

import (
	"math"

	"idlemine.ai/internal/sim/rng"
)

type Kind string

const (
	KindGold       Kind = "gold"
	KindOres       Kind = "ores"
	KindMultiplier Kind = "multiplier"
)

type Reward struct {
	Kind       Kind    `json:"kind"`
	Amount     float64 `json:"amount"`
	DurationMS int64   `json:"duration_ms,omitempty"`
}

// Table lists every reward with its weight at the given luck level.
func Table(luck int, multiplier float64, durationMS int64) ([]Reward, []float64) {
	l := float64(luck)
	rewards := []Reward{
		{Kind: KindGold, Amount: 1000},
		{Kind: KindGold, Amount: 5000},
		{Kind: KindGold, Amount: 25000},
		{Kind: KindOres, Amount: 30},
		{Kind: KindOres, Amount: 100},
		{Kind: KindMultiplier, Amount: multiplier, DurationMS: durationMS},
	}
	weights := []float64{
		math.Max(30, 45-l*2),
		math.Max(25, 35-l*1.5),
		math.Max(20, 25-l),
		math.Min(15, 8+l*0.7),
		math.Min(6, 1.5+l*0.5),
		math.Min(7, 1.5+l*0.6),
	}
	return rewards, weights
}

// Spin draws one reward.
func Spin(src rng.Source, luck int, multiplier float64, durationMS int64) Reward {
	rewards, weights := Table(luck, multiplier, durationMS)
	i := rng.ChooseWeighted(src, weights)
	if i < 0 {
		i = 0
	}
	return rewards[i]
}

// OreCount limits an ore shower to the free space on the field.
func OreCount(amount float64, live, max int) int {
	n := int(amount)
	if room := max - live; n > room {
		n = room
	}
	if n < 0 {
		return 0
	}
	return n
}
