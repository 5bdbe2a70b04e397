package dwarves

import (
	"testing"

	"idlemine.ai/internal/sim/geom"
)

func TestPickOre(t *testing.T) {
	from := geom.V(0, 0)
	ores := []Candidate{
		{ID: 1, Pos: geom.V(5, 0), Claimed: true},
		{ID: 2, Pos: geom.V(50, 0)},
		{ID: 3, Pos: geom.V(20, 0)},
	}
	if id, ok := PickOre(from, ores); !ok || id != 3 {
		t.Fatalf("pick=%d ok=%v want 3", id, ok)
	}
	ores[1].Claimed = true
	ores[2].Claimed = true
	if id, _ := PickOre(from, ores); id != 1 {
		t.Fatalf("fallback pick=%d want 1", id)
	}
	if _, ok := PickOre(from, nil); ok {
		t.Fatalf("no ores should not pick")
	}
}

func TestRockYield(t *testing.T) {
	if RockYield(1) != 0 || RockYield(5) != 2 {
		t.Fatalf("rock yield floors half the click power")
	}
}
