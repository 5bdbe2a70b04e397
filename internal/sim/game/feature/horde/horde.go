// Package horde is the threat scheduler: it gates enemies behind a
// readiness predicate, arms wave timers and sizes waves and ambient raids.
package horde

import (
	"math"

	"idlemine.ai/internal/sim/rng"
)

type Phase string

const (
	PhaseDormant  Phase = "dormant"
	PhaseCooldown Phase = "cooldown"
	PhaseArmed    Phase = "armed"
	PhaseActive   Phase = "active"
)

// State is the persisted part of the scheduler. Times are unix ms; Next == 0
// means no wave is scheduled.
type State struct {
	Active bool  `json:"active"`
	Next   int64 `json:"next"`
	Last   int64 `json:"last"`
}

// Ready reports whether the operation is big enough to attract raiders: at
// least one soldier, or any cart besides the first.
func Ready(soldiers int, cartIDs []int) bool {
	if soldiers > 0 {
		return true
	}
	for _, id := range cartIDs {
		if id != 0 {
			return true
		}
	}
	return false
}

func InCooldown(s State, now, cooldownMS int64) bool {
	return s.Last > 0 && now-s.Last < cooldownMS
}

func PhaseOf(ready bool, s State, now, cooldownMS int64) Phase {
	switch {
	case !ready:
		return PhaseDormant
	case s.Active:
		return PhaseActive
	case s.Next == 0:
		return PhaseDormant
	case InCooldown(s, now, cooldownMS) || now < s.Next:
		return PhaseCooldown
	default:
		return PhaseArmed
	}
}

// ShouldTrigger reports whether a wave starts this tick.
func ShouldTrigger(ready bool, s State, now, cooldownMS int64) bool {
	return ready && !s.Active && !InCooldown(s, now, cooldownMS) && s.Next > 0 && now >= s.Next
}

// Schedule arms the next wave after the cooldown plus a random delay.
func Schedule(s State, src rng.Source, now, cooldownMS, minDelayMS, spreadMS int64) State {
	delay := minDelayMS + int64(src.Float64()*float64(spreadMS))
	s.Next = now + cooldownMS + delay
	s.Last = now
	return s
}

// Start marks a wave as running.
func Start(s State, now int64) State {
	s.Active = true
	s.Last = now
	s.Next = 0
	return s
}

func WaveSize(progress float64, soldiers int) int {
	return int(math.Floor(4+progress*2.5)) + int(math.Floor(float64(soldiers)/1.5))
}

// Duration is the time from wave start to its end marker.
func Duration(size int, leadMS, staggerMS int64) int64 {
	return leadMS + int64(size)*staggerMS + 100
}

func AmbientCount(soldiers int) int {
	n := int(math.Floor(float64(soldiers) * 1.2))
	if n < 1 {
		n = 1
	}
	return n
}

// AmbientInterval draws the wait before the next ambient raid; more soldiers
// attract raids more often.
func AmbientInterval(src rng.Source, baseMS, spreadMS float64, soldiers int) float64 {
	return (baseMS + src.Float64()*spreadMS) / (1 + float64(soldiers)*0.15)
}
