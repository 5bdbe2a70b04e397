package prestige

import (
	"math"
	"testing"

	"idlemine.ai/internal/sim/catalogs"
)

func TestResolve_Idempotent(t *testing.T) {
	cat := catalogs.Default().Prestige
	nodes := map[string]int{
		"gold-multiplier":        3,
		"all-ore-spawn-rate":     2,
		"all-ore-spawn-chance":   1,
		"ore-value-bonus":        4,
		"spawn-efficiency-bonus": 2,
	}
	a := Resolve(cat, nodes)
	b := Resolve(cat, nodes)
	if a != b {
		t.Fatalf("resolve not idempotent: %+v vs %+v", a, b)
	}
	if math.Abs(a.GoldMultiplier-1.3) > 1e-9 || math.Abs(a.OreValueMultiplier-1.4) > 1e-9 {
		t.Fatalf("multipliers %+v", a)
	}
	if math.Abs(a.AllOreSpawnRate-0.2) > 1e-9 || math.Abs(a.SpawnEfficiency-0.24) > 1e-9 {
		t.Fatalf("bonuses %+v", a)
	}
}

func TestResolve_Empty(t *testing.T) {
	if got := Resolve(catalogs.Default().Prestige, nil); got != Identity() {
		t.Fatalf("empty tree should be identity: %+v", got)
	}
}

func TestCurrency(t *testing.T) {
	if got := Currency(99999, 100000, 0); got != 0 {
		t.Fatalf("below threshold: %d", got)
	}
	if got := Currency(400000, 100000, 2); got != 4 {
		t.Fatalf("currency=%d want 4", got)
	}
	if got := NextThreshold(400000, 100000); got != 900000 {
		t.Fatalf("next threshold=%v", got)
	}
}

func TestCanPurchase(t *testing.T) {
	cat := catalogs.Default().Prestige
	nodes := map[string]int{}
	if _, r := CanPurchase(cat, nodes, 5, "ore-value-bonus"); r != RefuseLocked {
		t.Fatalf("want locked, got %q", r)
	}
	if cost, r := CanPurchase(cat, nodes, 1, "gold-multiplier"); r != RefuseNone || cost != 1 {
		t.Fatalf("root purchase: cost=%d r=%q", cost, r)
	}
	if _, r := CanPurchase(cat, nodes, 0, "gold-multiplier"); r != RefuseCurrency {
		t.Fatalf("want currency refusal, got %q", r)
	}
	nodes["start-bonuses"] = 1
	nodes["gold-multiplier"] = 1
	if _, r := CanPurchase(cat, nodes, 9, "start-bonuses"); r != RefuseMaxed {
		t.Fatalf("want maxed, got %q", r)
	}
}

func TestStartingGrants(t *testing.T) {
	cat := catalogs.Default().Prestige
	g := StartingGrants(cat, map[string]int{"gold-multiplier": 1, "start-bonuses": 1, "start-dwarves": 3})
	if !g.AutoClicker || g.MinDwarves != 3 || g.MinSoldiers != 1 || g.MinEfficiency != 0.1 {
		t.Fatalf("grants=%+v", g)
	}
}
