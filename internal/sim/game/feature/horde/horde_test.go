package horde

import (
	"testing"

	"idlemine.ai/internal/sim/rng"
)

func TestReady(t *testing.T) {
	if Ready(0, []int{0}) {
		t.Fatalf("first cart alone must not be ready")
	}
	if !Ready(0, []int{0, 1}) || !Ready(1, nil) {
		t.Fatalf("expected ready")
	}
}

func TestLifecycle(t *testing.T) {
	const cooldown = 300000
	var s State
	if PhaseOf(true, s, 1000, cooldown) != PhaseDormant {
		t.Fatalf("unscheduled should be dormant")
	}
	s = Schedule(s, &rng.Fixed{Values: []float64{0.5}}, 1000, cooldown, 60000, 360000)
	if s.Next != 1000+300000+60000+180000 || s.Last != 1000 {
		t.Fatalf("schedule=%+v", s)
	}
	if PhaseOf(true, s, 2000, cooldown) != PhaseCooldown {
		t.Fatalf("expected cooldown phase")
	}
	if ShouldTrigger(true, s, s.Next-1, cooldown) {
		t.Fatalf("triggered early")
	}
	if !ShouldTrigger(true, s, s.Next, cooldown) || PhaseOf(true, s, s.Next, cooldown) != PhaseArmed {
		t.Fatalf("expected armed trigger")
	}
	if ShouldTrigger(false, s, s.Next, cooldown) {
		t.Fatalf("not ready must never trigger")
	}
	s = Start(s, s.Next)
	if !s.Active || s.Next != 0 || PhaseOf(true, s, s.Last, cooldown) != PhaseActive {
		t.Fatalf("start=%+v", s)
	}
}

func TestSizes(t *testing.T) {
	if got := WaveSize(0.5, 0); got != 5 {
		t.Fatalf("wave size=%d want 5", got)
	}
	if got := WaveSize(2, 3); got != 11 {
		t.Fatalf("wave size=%d want 11", got)
	}
	if AmbientCount(0) != 1 || AmbientCount(5) != 6 {
		t.Fatalf("ambient count wrong")
	}
	if got := Duration(5, 2000, 500); got != 4600 {
		t.Fatalf("duration=%d", got)
	}
	if got := AmbientInterval(&rng.Fixed{Values: []float64{0}}, 12000, 15000, 0); got != 12000 {
		t.Fatalf("interval=%v", got)
	}
}
