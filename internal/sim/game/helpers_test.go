package game

import (
	"context"
	"testing"

	"idlemine.ai/internal/persistence/snapshot"
	"idlemine.ai/internal/sim/catalogs"
	"idlemine.ai/internal/sim/rng"
	"idlemine.ai/internal/sim/tuning"
)

const testStart = int64(1_700_000_000_000)

type testClock struct{ ms int64 }

func (c *testClock) Now() int64 { return c.ms }

func newTestGame(t *testing.T, draws ...float64) (*Game, *testClock) {
	t.Helper()
	if len(draws) == 0 {
		draws = []float64{0.5}
	}
	clk := &testClock{ms: testStart}
	g, err := New(Config{
		Tuning:   tuning.Defaults(),
		Catalogs: catalogs.Default(),
		Rand:     &rng.Fixed{Values: draws},
		Now:      clk.Now,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return g, clk
}

// step advances the clock by ms and runs one tick.
func step(g *Game, clk *testClock, ms int64, acts ...Action) []ActionResult {
	clk.ms += ms
	return g.StepOnce(clk.ms, acts...)
}

func countEvents(g *Game, name string) int {
	n := 0
	for _, e := range g.ring {
		if e.Name == name {
			n++
		}
	}
	return n
}

type recordingSaver struct {
	saves    []snapshot.SaveV1
	gens     []uint64
	backups  int
	resetGen uint64
	resets   int
}

func (s *recordingSaver) Save(gen uint64, sv snapshot.SaveV1) {
	s.gens = append(s.gens, gen)
	s.saves = append(s.saves, sv)
}

func (s *recordingSaver) Backup(uint64, snapshot.SaveV1) { s.backups++ }

func (s *recordingSaver) Reset(_ context.Context, gen uint64) error {
	s.resets++
	s.resetGen = gen
	return nil
}
