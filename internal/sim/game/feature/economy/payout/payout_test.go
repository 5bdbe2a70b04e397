package payout

import "testing"

func TestApply(t *testing.T) {
	m := Multipliers{Temp: 2, TempEnd: 1000, Prestige: 1.1}
	if got := Apply(5, m, 999); got != 11 {
		t.Fatalf("active temp: got %v want 11", got)
	}
	if got := Apply(5, m, 1000); got != 5 {
		t.Fatalf("expired temp: got %v want 5", got)
	}
	if got := Apply(7, Multipliers{}, 0); got != 7 {
		t.Fatalf("zero multipliers should act as identity: %v", got)
	}
}

func TestHistory_PerMinute(t *testing.T) {
	h := NewHistory(30000, 0, 0)
	if h.PerMinute() != 0 {
		t.Fatalf("single sample should report 0")
	}
	h.Track(10000, 100)
	if got := h.PerMinute(); got != 600 {
		t.Fatalf("got %v want 600", got)
	}
	h.Track(40000, 100)
	if h.Len() != 1 {
		t.Fatalf("window not trimmed: len=%d", h.Len())
	}
	h.Track(41000, 50)
	if got := h.PerMinute(); got != 0 {
		t.Fatalf("negative delta should clamp to 0, got %v", got)
	}
}
