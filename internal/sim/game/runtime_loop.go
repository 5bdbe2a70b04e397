package game

import (
	"context"
	"time"
)

type SubscribeRequest struct {
	ID  string
	Out chan []byte
}

func (g *Game) Run(ctx context.Context) error {
	interval := time.Second / time.Duration(g.tun.TickRateHz)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var pendingActions []actionReq
	var pendingAdmin []adminSaveReq

	for {
		select {
		case <-ctx.Done():
			g.maybeSave(g.now(), true)
			return ctx.Err()
		case <-g.stop:
			g.maybeSave(g.now(), true)
			return nil
		case req := <-g.actions:
			pendingActions = append(pendingActions, req)
		case req := <-g.subscribe:
			g.handleSubscribe(req)
		case id := <-g.unsubscribe:
			delete(g.subs, id)
		case req := <-g.admin:
			pendingAdmin = append(pendingAdmin, req)
		case req := <-g.eventsReq:
			g.handleEventsReq(req)
		case <-ticker.C:
			g.stepInternal(g.now(), pendingActions)
			g.handleAdminSaveRequests(pendingAdmin)
			pendingActions = pendingActions[:0]
			pendingAdmin = pendingAdmin[:0]
		}
	}
}

func (g *Game) Stop() { g.stopOnce.Do(func() { close(g.stop) }) }

// StepOnce advances the game by a single tick at nowMS using the same
// ordering as the loop. It is meant for tests and tools; it must not be
// mixed with Run.
func (g *Game) StepOnce(nowMS int64, actions ...Action) []ActionResult {
	reqs := make([]actionReq, len(actions))
	for i, a := range actions {
		reqs[i] = actionReq{Action: a}
	}
	return g.stepInternal(nowMS, reqs)
}

func (g *Game) handleSubscribe(req SubscribeRequest) {
	if req.ID == "" || req.Out == nil {
		return
	}
	g.subs[req.ID] = req.Out
	now := g.now()
	f := g.buildFrame(now, true)
	if b, err := marshalFrame(f); err == nil {
		sendLatest(req.Out, b)
	}
}

func sendLatest(ch chan []byte, b []byte) {
	select {
	case ch <- b:
		return
	default:
	}
	// Drop one.
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- b:
	default:
	}
}
