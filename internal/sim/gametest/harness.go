// Package gametest drives a game through its exported API for integration
// tests: a manual clock, StepOnce, and recorded events.
package gametest

import (
	"testing"

	"idlemine.ai/internal/persistence/snapshot"
	"idlemine.ai/internal/protocol"
	"idlemine.ai/internal/sim/catalogs"
	"idlemine.ai/internal/sim/game"
	"idlemine.ai/internal/sim/rng"
	"idlemine.ai/internal/sim/tuning"
)

// Start is the clock value a harness begins at.
const Start int64 = 1_700_000_000_000

type Harness struct {
	T *testing.T
	G *game.Game

	// Clock is the current unix ms; StepAt and Advance move it forward.
	Clock int64

	events []game.Event
}

type Options struct {
	Tuning   *tuning.Tuning
	Catalogs *catalogs.Catalogs
	// Rand defaults to a seeded source.
	Rand rng.Source
	Seed int64
	// Save, when set, is imported before the first step.
	Save *snapshot.SaveV1
}

func NewHarness(t *testing.T, opts Options) *Harness {
	t.Helper()
	tun := tuning.Defaults()
	if opts.Tuning != nil {
		tun = *opts.Tuning
	}
	cats := opts.Catalogs
	if cats == nil {
		cats = catalogs.Default()
	}
	src := opts.Rand
	if src == nil {
		seed := opts.Seed
		if seed == 0 {
			seed = 42
		}
		src = rng.New(seed)
	}

	h := &Harness{T: t, Clock: Start}
	g, err := game.New(game.Config{
		Tuning:   tun,
		Catalogs: cats,
		Rand:     src,
		Now:      func() int64 { return h.Clock },
	})
	if err != nil {
		t.Fatalf("game.New: %v", err)
	}
	g.AddSink(game.EventSinkFunc(func(e game.Event) { h.events = append(h.events, e) }))
	if opts.Save != nil {
		g.ImportSave(*opts.Save)
	}
	h.G = g
	return h
}

// StepAt runs one tick at ms and returns the action results.
func (h *Harness) StepAt(ms int64, acts ...game.Action) []game.ActionResult {
	h.T.Helper()
	if ms < h.Clock {
		h.T.Fatalf("StepAt(%d) before clock %d", ms, h.Clock)
	}
	h.Clock = ms
	return h.G.StepOnce(ms, acts...)
}

// Advance runs ticks of stepMS until total ms have passed.
func (h *Harness) Advance(total, stepMS int64) {
	h.T.Helper()
	end := h.Clock + total
	for h.Clock < end {
		next := h.Clock + stepMS
		if next > end {
			next = end
		}
		h.StepAt(next)
	}
}

// Act applies a single action on a 1ms tick.
func (h *Harness) Act(a game.Action) game.ActionResult {
	h.T.Helper()
	return h.StepAt(h.Clock+1, a)[0]
}

func (h *Harness) MustAct(a game.Action) game.ActionResult {
	h.T.Helper()
	r := h.Act(a)
	if !r.OK {
		h.T.Fatalf("%s refused: %s %s", a.Type, r.Code, r.Message)
	}
	return r
}

func (h *Harness) Click(n int) {
	h.T.Helper()
	for i := 0; i < n; i++ {
		h.MustAct(game.Action{Type: game.ActClick})
	}
}

// Frame returns a full frame at the current clock.
func (h *Harness) Frame() protocol.FrameMsg {
	return h.G.Frame(h.Clock)
}

func (h *Harness) Economy() protocol.EconomyView {
	h.T.Helper()
	f := h.Frame()
	if f.Economy == nil {
		h.T.Fatalf("full frame without economy")
	}
	return *f.Economy
}

// Price returns the shop price for action.
func (h *Harness) Price(action string) float64 {
	h.T.Helper()
	for _, e := range h.Economy().Shop {
		if e.Action == action {
			return e.Price
		}
	}
	h.T.Fatalf("no shop entry for %s", action)
	return 0
}

// Events returns recorded events named name; an empty name returns all.
func (h *Harness) Events(name string) []game.Event {
	var out []game.Event
	for _, e := range h.events {
		if name == "" || e.Name == name {
			out = append(out, e)
		}
	}
	return out
}

func (h *Harness) Save() snapshot.SaveV1 {
	return h.G.ExportSave(h.Clock)
}
