package game

import (
	"context"
	"errors"
)

// Event names.
const (
	EventClick      = "click"
	EventOreCollect = "ore_collect"
	EventUpgrade    = "upgrade"
	EventDelivery   = "delivery"
	EventKill       = "kill"
	EventPrestige   = "prestige"
	EventSpin       = "spin"
	EventHorde      = "horde"
	EventMoneyBag   = "money_bag"
	EventReward     = "reward"
)

const eventRingSize = 1024

// Event is one named thing that happened in the game. The field set mirrors
// protocol.Event so the two convert directly.
type Event struct {
	Cursor uint64         `json:"cursor"`
	Name   string         `json:"name"`
	AtMS   int64          `json:"at_ms"`
	Tick   uint64         `json:"tick"`
	Data   map[string]any `json:"data,omitempty"`
}

// EventSink consumes game events (sound, event log, index). It is called on
// the loop goroutine and must not block.
type EventSink interface {
	HandleEvent(e Event)
}

type EventSinkFunc func(e Event)

func (f EventSinkFunc) HandleEvent(e Event) { f(e) }

func (g *Game) emit(now int64, name string, data map[string]any) {
	g.nextCursor++
	e := Event{
		Cursor: g.nextCursor,
		Name:   name,
		AtMS:   now,
		Tick:   g.tick.Load(),
		Data:   data,
	}
	g.pending = append(g.pending, e)
	if len(g.ring) >= eventRingSize {
		copy(g.ring, g.ring[1:])
		g.ring = g.ring[:len(g.ring)-1]
	}
	g.ring = append(g.ring, e)
	for _, s := range g.sinks {
		g.deliver(s, e)
	}
}

func (g *Game) deliver(s EventSink, e Event) {
	defer func() {
		if r := recover(); r != nil {
			g.logger.Printf("event sink panic on %s: %v", e.Name, r)
		}
	}()
	s.HandleEvent(e)
}

type eventsReq struct {
	SinceCursor uint64
	Limit       int
	Resp        chan eventsResp
}

type eventsResp struct {
	Items      []Event
	NextCursor uint64
}

// RequestEventsAfter returns up to limit retained events with a cursor
// greater than sinceCursor.
func (g *Game) RequestEventsAfter(ctx context.Context, sinceCursor uint64, limit int) ([]Event, uint64, error) {
	if g == nil || g.eventsReq == nil {
		return nil, sinceCursor, errors.New("event query not available")
	}
	req := eventsReq{SinceCursor: sinceCursor, Limit: limit, Resp: make(chan eventsResp, 1)}
	select {
	case g.eventsReq <- req:
	case <-ctx.Done():
		return nil, sinceCursor, ctx.Err()
	}
	select {
	case resp := <-req.Resp:
		return resp.Items, resp.NextCursor, nil
	case <-ctx.Done():
		return nil, sinceCursor, ctx.Err()
	}
}

func (g *Game) handleEventsReq(req eventsReq) {
	items, next := g.eventsAfter(req.SinceCursor, req.Limit)
	select {
	case req.Resp <- eventsResp{Items: items, NextCursor: next}:
	default:
		// Client timed out; don't block the sim loop.
	}
}

func (g *Game) eventsAfter(since uint64, limit int) ([]Event, uint64) {
	if limit <= 0 || limit > eventRingSize {
		limit = 100
	}
	out := make([]Event, 0, limit)
	next := since
	for _, e := range g.ring {
		if e.Cursor <= since {
			continue
		}
		out = append(out, e)
		next = e.Cursor
		if len(out) >= limit {
			break
		}
	}
	return out, next
}
