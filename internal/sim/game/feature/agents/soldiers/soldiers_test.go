package soldiers

import (
	"testing"

	"idlemine.ai/internal/sim/geom"
	"idlemine.ai/internal/sim/rng"
)

func TestSplit(t *testing.T) {
	cases := []struct{ n, att, def int }{
		{1, 0, 1},
		{2, 1, 1},
		{5, 3, 2},
		{10, 6, 4},
	}
	for _, c := range cases {
		a, d := Split(c.n)
		if a != c.att || d != c.def {
			t.Fatalf("Split(%d)=%d,%d want %d,%d", c.n, a, d, c.att, c.def)
		}
	}
}

func TestSlots(t *testing.T) {
	got := Slots(7, 3)
	if got[0] != 3 || got[1] != 2 || got[2] != 2 {
		t.Fatalf("slots=%v", got)
	}
}

func TestAssign_KeepsValidAndBalances(t *testing.T) {
	enemies := []uint64{10, 20}
	cur := []uint64{10, 10, 10, 0}
	got := Assign(cur, enemies)
	count := map[uint64]int{}
	for _, id := range got {
		count[id]++
	}
	if count[10] != 2 || count[20] != 2 {
		t.Fatalf("unbalanced: %v", got)
	}
	if got[0] != 10 || got[1] != 10 {
		t.Fatalf("valid assignments should persist: %v", got)
	}
}

func TestAssign_DropsDeadTargets(t *testing.T) {
	got := Assign([]uint64{99, 99}, []uint64{5})
	if got[0] != 5 || got[1] != 5 {
		t.Fatalf("stale target not reassigned: %v", got)
	}
	if got := Assign([]uint64{5}, nil); got[0] != 0 {
		t.Fatalf("no enemies should clear targets: %v", got)
	}
}

func TestSpawnPoint_AroundCart(t *testing.T) {
	src := rng.New(7)
	cart := geom.V(300, 300)
	for i := 0; i < 50; i++ {
		p := SpawnPoint(src, []geom.Vec2{cart})
		d := geom.Dist(p, cart)
		if d < 60-1e-9 || d > 120+1e-9 {
			t.Fatalf("spawn distance %v outside [60,120]", d)
		}
	}
}
