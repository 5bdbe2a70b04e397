package audio

import (
	"testing"

	"idlemine.ai/internal/sim/game"
)

func TestToneFor(t *testing.T) {
	if _, ok := toneFor(game.Event{Name: game.EventDelivery}); !ok {
		t.Fatalf("delivery should play")
	}
	if _, ok := toneFor(game.Event{Name: game.EventMoneyBag, Data: map[string]any{"spawned": true}}); ok {
		t.Fatalf("bag spawn should be silent")
	}
	if _, ok := toneFor(game.Event{Name: game.EventMoneyBag, Data: map[string]any{"collected": true}}); !ok {
		t.Fatalf("bag collect should play")
	}
	if _, ok := toneFor(game.Event{Name: game.EventHorde, Data: map[string]any{"phase": "end"}}); ok {
		t.Fatalf("horde end should be silent")
	}
	a, _ := toneFor(game.Event{Name: game.EventHorde, Data: map[string]any{"phase": "start"}})
	b, _ := toneFor(game.Event{Name: game.EventClick})
	if a.dur <= b.dur {
		t.Fatalf("horde tone should outlast click: %v vs %v", a.dur, b.dur)
	}
}

func TestPlayer_SilentUntilInit(t *testing.T) {
	p := NewPlayer()
	p.SetVolume(3)
	if p.volume != 1 {
		t.Fatalf("volume clamp: got %v want 1", p.volume)
	}
	p.HandleEvent(game.Event{Name: game.EventKill})
	if len(p.ch) != 0 {
		t.Fatalf("queued %d tones before Init", len(p.ch))
	}
	p.Close()
}
