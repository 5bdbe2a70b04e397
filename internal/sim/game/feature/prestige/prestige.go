// Package prestige resolves the permanent upgrade tree into bonuses. Resolve
// is a pure function of the node levels, so applying it any number of times
// gives the same result.
package prestige

import (
	"math"
	"sort"

	"idlemine.ai/internal/sim/catalogs"
)

// maxRateBonus keeps the interval reduction strictly below 100%.
const maxRateBonus = 0.95

// Bonuses is everything the tree grants. Multipliers start at 1 and bonuses
// at 0 when no node is owned.
type Bonuses struct {
	GoldMultiplier     float64
	OreValueMultiplier float64
	SpawnEfficiency    float64
	ClickPower         float64
	AutoClickerSpeed   float64
	AllOreSpawnRate    float64
	AllOreSpawnChance  float64
	CurrencyBonus      int
	StartBonus         bool
}

func Identity() Bonuses {
	return Bonuses{GoldMultiplier: 1, OreValueMultiplier: 1}
}

// Resolve sums every owned node's effect. Unknown node ids are ignored.
func Resolve(cat catalogs.PrestigeCatalog, nodes map[string]int) Bonuses {
	b := Identity()
	for _, id := range cat.Order {
		def := cat.ByID[id]
		level := nodes[id]
		if level <= 0 {
			continue
		}
		if level > def.MaxLevel {
			level = def.MaxLevel
		}
		v := float64(level) * def.Effect.PerLevel
		switch def.Effect.Type {
		case catalogs.EffectGoldMultiplier:
			b.GoldMultiplier += v
		case catalogs.EffectOreValueBonus:
			b.OreValueMultiplier += v
		case catalogs.EffectSpawnEfficiencyBonus:
			b.SpawnEfficiency += v
		case catalogs.EffectClickPowerBonus:
			b.ClickPower += v
		case catalogs.EffectAutoClickerSpeedBonus:
			b.AutoClickerSpeed += v
		case catalogs.EffectAllOreSpawnRate:
			b.AllOreSpawnRate += v
		case catalogs.EffectAllOreSpawnChance:
			b.AllOreSpawnChance += v
		case catalogs.EffectPrestigeCurrencyBonus:
			b.CurrencyBonus += int(v)
		case catalogs.EffectStartBonus:
			b.StartBonus = true
		}
	}
	b.AllOreSpawnRate = math.Min(b.AllOreSpawnRate, maxRateBonus)
	return b
}

// Currency is the award for prestiging with the given lifetime earnings.
func Currency(totalEarned, threshold float64, bonus int) int {
	if threshold <= 0 || totalEarned < threshold {
		return 0
	}
	return int(math.Floor(math.Sqrt(totalEarned/threshold))) + bonus
}

// NextThreshold is the lifetime earnings that raise the base award by one.
func NextThreshold(totalEarned, threshold float64) float64 {
	n := math.Floor(math.Sqrt(math.Max(0, totalEarned) / threshold))
	return (n + 1) * (n + 1) * threshold
}

// Unlocked reports whether every prerequisite of id has at least one level.
func Unlocked(cat catalogs.PrestigeCatalog, nodes map[string]int, id string) bool {
	def, ok := cat.ByID[id]
	if !ok {
		return false
	}
	for _, r := range def.Requires {
		if nodes[r] <= 0 {
			return false
		}
	}
	return true
}

// Refusal explains why a node cannot be bought.
type Refusal string

const (
	RefuseNone     Refusal = ""
	RefuseUnknown  Refusal = "unknown"
	RefuseMaxed    Refusal = "maxed"
	RefuseLocked   Refusal = "locked"
	RefuseCurrency Refusal = "currency"
)

// CanPurchase returns the cost of the next level of id, or the reason it
// cannot be bought.
func CanPurchase(cat catalogs.PrestigeCatalog, nodes map[string]int, currency int, id string) (int, Refusal) {
	def, ok := cat.ByID[id]
	if !ok {
		return 0, RefuseUnknown
	}
	level := nodes[id]
	cost := def.Cost(level)
	if cost < 0 {
		return 0, RefuseMaxed
	}
	if !Unlocked(cat, nodes, id) {
		return cost, RefuseLocked
	}
	if currency < cost {
		return cost, RefuseCurrency
	}
	return cost, RefuseNone
}

// Grants is what a run starts with on top of the fresh defaults.
type Grants struct {
	AutoClicker   bool
	MinDwarves    int
	MinSoldiers   int
	MinEfficiency float64
	FirstMinecart bool
}

// Legacy node ids from older trees still grant their starting units.
const (
	legacyAutoClicker = "start-auto-clicker"
	legacyDwarves     = "start-dwarves"
	legacySoldiers    = "start-soldiers"
	legacyEfficiency  = "start-spawn-efficiency"
	legacyMinecart    = "start-minecart"
)

// StartingGrants maps owned start nodes, current and legacy, to grants.
func StartingGrants(cat catalogs.PrestigeCatalog, nodes map[string]int) Grants {
	var g Grants
	if Resolve(cat, nodes).StartBonus {
		g.AutoClicker = true
		g.MinDwarves = 1
		g.MinSoldiers = 1
		g.MinEfficiency = 0.1
	}
	if nodes[legacyAutoClicker] > 0 {
		g.AutoClicker = true
	}
	if l := nodes[legacyDwarves]; l > g.MinDwarves {
		g.MinDwarves = l
	}
	if l := nodes[legacySoldiers]; l > g.MinSoldiers {
		g.MinSoldiers = l
	}
	if e := 0.1 * float64(nodes[legacyEfficiency]); e > g.MinEfficiency {
		g.MinEfficiency = e
	}
	if nodes[legacyMinecart] > 0 {
		g.FirstMinecart = true
	}
	return g
}

// Owned lists node ids with a positive level in catalog order, then unknown
// ids sorted.
func Owned(cat catalogs.PrestigeCatalog, nodes map[string]int) []string {
	out := make([]string, 0, len(nodes))
	seen := map[string]bool{}
	for _, id := range cat.Order {
		if nodes[id] > 0 {
			out = append(out, id)
			seen[id] = true
		}
	}
	var rest []string
	for id, l := range nodes {
		if l > 0 && !seen[id] {
			rest = append(rest, id)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}
