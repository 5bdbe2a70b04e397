package game

import (
	"context"
	"errors"
)

type adminSaveReq struct {
	Resp chan adminSaveResp
}

type adminSaveResp struct {
	Tick uint64
	Err  string
}

// RequestSave asks the loop goroutine to write the save and a backup now.
// It is safe to call from other goroutines (e.g. HTTP handlers).
func (g *Game) RequestSave(ctx context.Context) (tick uint64, err error) {
	if g == nil || g.admin == nil {
		return 0, errors.New("admin save not available")
	}
	resp := make(chan adminSaveResp, 1)
	req := adminSaveReq{Resp: resp}

	select {
	case g.admin <- req:
	case <-ctx.Done():
		return 0, ctx.Err()
	}

	select {
	case r := <-resp:
		if r.Err != "" {
			return r.Tick, errors.New(r.Err)
		}
		return r.Tick, nil
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

func (g *Game) handleAdminSaveRequests(reqs []adminSaveReq) {
	if len(reqs) == 0 {
		return
	}
	now := g.now()
	errStr := ""
	switch {
	case g.saver == nil:
		errStr = "saver not configured"
	case g.resetting:
		errStr = "reset in progress"
	default:
		g.maybeSave(now, true)
		g.maybeBackup(now, true)
	}

	resp := adminSaveResp{Tick: g.tick.Load(), Err: errStr}
	for _, r := range reqs {
		if r.Resp == nil {
			continue
		}
		select {
		case r.Resp <- resp:
		default:
			// Client timed out; don't block the sim loop.
		}
	}
}
