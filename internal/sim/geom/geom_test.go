package geom

import (
	"math"
	"testing"
)

func TestStepToward_NoOvershoot(t *testing.T) {
	p := StepToward(V(0, 0), V(3, 4), 10)
	if p != V(3, 4) {
		t.Fatalf("got %v want (3,4)", p)
	}
	p = StepToward(V(0, 0), V(3, 4), 1)
	if math.Abs(p.X-0.6) > 1e-9 || math.Abs(p.Y-0.8) > 1e-9 {
		t.Fatalf("got %v want (0.6,0.8)", p)
	}
	if got := StepToward(V(1, 1), V(1, 1), 5); got != V(1, 1) {
		t.Fatalf("zero distance moved: %v", got)
	}
}

func TestRectPointAt_StaysPadded(t *testing.T) {
	r := Rect{W: 1000, H: 700, Padding: 40}
	lo := r.PointAt(0, 0)
	hi := r.PointAt(1, 1)
	if lo != V(40, 40) || hi != V(960, 660) {
		t.Fatalf("bounds lo=%v hi=%v", lo, hi)
	}
}

func TestNearest(t *testing.T) {
	if Nearest(V(0, 0), nil) != -1 {
		t.Fatalf("empty should be -1")
	}
	pts := []Vec2{V(10, 0), V(2, 2), V(-2, -2)}
	if got := Nearest(V(0, 0), pts); got != 1 {
		t.Fatalf("nearest=%d want 1 (tie keeps lowest index)", got)
	}
}
