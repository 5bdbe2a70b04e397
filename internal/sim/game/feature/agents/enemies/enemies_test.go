package enemies

import (
	"testing"

	"idlemine.ai/internal/sim/catalogs"
	"idlemine.ai/internal/sim/geom"
	"idlemine.ai/internal/sim/rng"
)

func TestProgressFloor(t *testing.T) {
	if got := Progress(0, 0, 0, 0); got != 0.5 {
		t.Fatalf("progress=%v want 0.5", got)
	}
	got := Progress(999, 2, 3, 2)
	want := 1.5 + 0.2 + 0.6 + 0.3
	if got < want-1e-9 || got > want+1e-9 {
		t.Fatalf("progress=%v want %v", got, want)
	}
}

func TestScale(t *testing.T) {
	orc := catalogs.EnemyDef{ID: "orc", Health: 40, Speed: 1.2, Damage: 1.4}
	s := Scale(orc, 2, 1)
	if s.Health != 80 || s.Damage != 2 {
		t.Fatalf("normal stats %+v", s)
	}
	h := Scale(orc, 2, 1.3)
	if h.Health != 104 || h.Speed != s.Speed {
		t.Fatalf("horde stats %+v", h)
	}
}

func TestSpawnPoint_AvoidsCarts(t *testing.T) {
	src := rng.New(3)
	carts := []geom.Vec2{geom.V(60, 60), geom.V(60, 155)}
	for i := 0; i < 200; i++ {
		p := SpawnPoint(src, 1000, 700, carts, 150)
		for _, c := range carts {
			if geom.Dist(p, c) < 150 {
				t.Fatalf("spawn %v too close to cart %v", p, c)
			}
		}
		if p.X >= 0 && p.X <= 1000 && p.Y >= 0 && p.Y <= 700 {
			t.Fatalf("spawn %v is on screen", p)
		}
	}
}

func TestPickCart_PrefersNonFirst(t *testing.T) {
	carts := []CartRef{{ID: 0, Pos: geom.V(0, 0)}, {ID: 1, Pos: geom.V(500, 0)}}
	if got := PickCart(geom.V(1, 1), carts); got != 1 {
		t.Fatalf("pick=%d want 1", got)
	}
	if got := PickCart(geom.V(1, 1), carts[:1]); got != 0 {
		t.Fatalf("fallback pick=%d want 0", got)
	}
	if got := PickCart(geom.V(1, 1), nil); got != -1 {
		t.Fatalf("empty pick=%d", got)
	}
}
