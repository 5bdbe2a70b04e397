// Package combat resolves damage against enemies. Every kill, whichever
// weapon lands it, goes through Ledger so its effects fire exactly once.
package combat

import "math"

type Cause string

const (
	CauseSoldier Cause = "soldier"
	CauseTurret  Cause = "turret"
)

// Kill is the record of one enemy death.
type Kill struct {
	EnemyID uint64  `json:"enemy_id"`
	Type    string  `json:"type"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Cause   Cause   `json:"cause"`
	AtMS    int64   `json:"at_ms"`
}

// Ledger remembers which enemies already died so a second hit in the same
// tick (a turret shell landing after a soldier's blow) is ignored.
type Ledger struct {
	dead  map[uint64]struct{}
	kills []Kill
}

func NewLedger() *Ledger {
	return &Ledger{dead: map[uint64]struct{}{}}
}

func (l *Ledger) Dead(id uint64) bool {
	_, ok := l.dead[id]
	return ok
}

// Hit applies dmg to *health. It reports true only for the hit that takes a
// living enemy to zero or below.
func (l *Ledger) Hit(id uint64, health *float64, dmg float64) bool {
	if l.Dead(id) || *health <= 0 {
		return false
	}
	*health -= dmg
	if *health > 0 {
		return false
	}
	l.dead[id] = struct{}{}
	return true
}

func (l *Ledger) Record(k Kill) { l.kills = append(l.kills, k) }

// Drain returns the kills recorded since the last call.
func (l *Ledger) Drain() []Kill {
	out := l.kills
	l.kills = nil
	return out
}

// Forget drops dead ids that no longer exist in the world.
func (l *Ledger) Forget(alive func(id uint64) bool) {
	for id := range l.dead {
		if !alive(id) {
			delete(l.dead, id)
		}
	}
}

// FlightMS is how long a turret shell travels before it lands.
func FlightMS(dist float64) int64 {
	return int64(math.Min(500, dist/2))
}
