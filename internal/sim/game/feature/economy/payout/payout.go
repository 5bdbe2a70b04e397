// Package payout turns raw income into credited gold and tracks the recent
// gold curve.
package payout

import "math"

// Multipliers are the two gold multipliers every income source passes
// through: the slot machine's temporary one and the prestige one.
type Multipliers struct {
	Temp     float64
	TempEnd  int64
	Prestige float64
}

func (m Multipliers) TempActive(now int64) bool { return m.TempEnd > now }

// Apply floors after each multiplier, temporary first.
func Apply(value float64, m Multipliers, now int64) float64 {
	if m.TempActive(now) {
		value = math.Floor(value * m.Temp)
	}
	p := m.Prestige
	if p <= 0 {
		p = 1
	}
	return math.Floor(value * p)
}

type Sample struct {
	At   int64   `json:"at"`
	Gold float64 `json:"gold"`
}

// History keeps gold samples inside a sliding window.
type History struct {
	Window  int64
	samples []Sample
}

func NewHistory(window int64, now int64, gold float64) *History {
	h := &History{Window: window}
	h.Reset(now, gold)
	return h
}

func (h *History) Reset(now int64, gold float64) {
	h.samples = append(h.samples[:0], Sample{At: now, Gold: gold})
}

func (h *History) Track(now int64, gold float64) {
	h.samples = append(h.samples, Sample{At: now, Gold: gold})
	cut := now - h.Window
	i := 0
	for i < len(h.samples) && h.samples[i].At <= cut {
		i++
	}
	if i > 0 {
		h.samples = append(h.samples[:0], h.samples[i:]...)
	}
}

func (h *History) Len() int { return len(h.samples) }

// PerMinute extrapolates the window's gold delta to one minute. Spending
// inside the window never reports a negative rate.
func (h *History) PerMinute() float64 {
	if len(h.samples) < 2 {
		return 0
	}
	first := h.samples[0]
	last := h.samples[len(h.samples)-1]
	secs := float64(last.At-first.At) / 1000
	if secs <= 0 {
		return 0
	}
	return math.Max(0, (last.Gold-first.Gold)/secs*60)
}
