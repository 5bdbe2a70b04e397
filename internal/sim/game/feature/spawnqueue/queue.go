// Package spawnqueue holds timed follow-up work (staggered wave spawns, slot
// machine ore drops, turret projectiles) as data the tick driver drains.
package spawnqueue

import (
	"sort"

	"idlemine.ai/internal/sim/geom"
)

type Kind uint8

const (
	KindEnemy Kind = iota + 1
	KindHordeEnemy
	KindHordeEnd
	KindOre
	KindTurretHit
)

func (k Kind) String() string {
	switch k {
	case KindEnemy:
		return "enemy"
	case KindHordeEnemy:
		return "horde_enemy"
	case KindHordeEnd:
		return "horde_end"
	case KindOre:
		return "ore"
	case KindTurretHit:
		return "turret_hit"
	default:
		return "unknown"
	}
}

// Event is one pending action. Target and Amount are kind-specific
// (enemy id and damage for turret hits).
type Event struct {
	Due    int64     `json:"due"`
	Seq    uint64    `json:"seq"`
	Kind   Kind      `json:"kind"`
	Target uint64    `json:"target,omitempty"`
	Amount float64   `json:"amount,omitempty"`
	Pos    geom.Vec2 `json:"pos,omitempty"`
}

// Queue is ordered by (Due, Seq); events pushed for the same instant fire in
// push order.
type Queue struct {
	items []Event
	seq   uint64
}

func (q *Queue) Push(e Event) {
	q.seq++
	e.Seq = q.seq
	i := sort.Search(len(q.items), func(i int) bool {
		it := q.items[i]
		return it.Due > e.Due || (it.Due == e.Due && it.Seq > e.Seq)
	})
	q.items = append(q.items, Event{})
	copy(q.items[i+1:], q.items[i:])
	q.items[i] = e
}

// PopDue removes and returns every event with Due <= now.
func (q *Queue) PopDue(now int64) []Event {
	n := 0
	for n < len(q.items) && q.items[n].Due <= now {
		n++
	}
	if n == 0 {
		return nil
	}
	out := make([]Event, n)
	copy(out, q.items[:n])
	q.items = append(q.items[:0], q.items[n:]...)
	return out
}

// Drop removes every event matching fn and reports how many were removed.
func (q *Queue) Drop(fn func(Event) bool) int {
	kept := q.items[:0]
	dropped := 0
	for _, e := range q.items {
		if fn(e) {
			dropped++
			continue
		}
		kept = append(kept, e)
	}
	q.items = kept
	return dropped
}

func (q *Queue) Count(k Kind) int {
	n := 0
	for _, e := range q.items {
		if e.Kind == k {
			n++
		}
	}
	return n
}

func (q *Queue) Len() int { return len(q.items) }

func (q *Queue) Clear() { q.items = q.items[:0] }
