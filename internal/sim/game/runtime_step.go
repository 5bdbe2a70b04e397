package game

import "time"

const maxFrameEvents = 256

func (g *Game) stepInternal(now int64, reqs []actionReq) []ActionResult {
	stepStart := time.Now()
	tick := g.tick.Load()

	// Player actions apply at the tick boundary in receive order.
	acted := false
	results := make([]ActionResult, 0, len(reqs))
	for _, r := range reqs {
		res := g.applyAction(now, r.Action)
		results = append(results, res)
		if res.OK {
			acted = true
		}
		if r.Resp != nil {
			select {
			case r.Resp <- res:
			default:
				// Client timed out; don't block the sim loop.
			}
		}
	}

	g.syncAgents()
	g.systemAutoClicker(now)
	g.systemOres(now)
	g.systemMinecarts(now)
	g.systemDwarves(now)
	g.systemMoneyBag(now)
	g.expireMultiplier(now)
	g.drainQueue(now)
	g.systemEnemies(now)
	g.systemSoldiers(now)
	g.systemTurrets(now)
	g.systemHorde(now)
	g.flushKills()

	g.refreshViews(now)
	if tick%uint64(g.tun.FrameEveryTicks) == 0 {
		g.broadcastFrame(now)
	}
	if len(g.pending) > maxFrameEvents {
		g.pending = append(g.pending[:0], g.pending[len(g.pending)-maxFrameEvents:]...)
	}

	g.maybeSave(now, acted)
	g.maybeBackup(now, false)

	g.tick.Add(1)
	g.publishMetrics(now, time.Since(stepStart))
	return results
}

// refreshViews rebuilds the throttled HUD and minecart views.
func (g *Game) refreshViews(now int64) {
	if now-g.lastUI >= int64(g.tun.UIUpdateMS) {
		g.cpm = g.history.PerMinute()
		g.economyView = g.economyViewOf(now)
		g.lastUI = now
	}
	if g.cartsDirty || now-g.lastCartRender >= int64(g.tun.MinecartRenderMS) {
		g.cartsView = g.cartViews(now)
		g.cartsDirty = false
		g.lastCartRender = now
	}
}

func (g *Game) broadcastFrame(now int64) {
	if len(g.subs) == 0 {
		g.pending = g.pending[:0]
		g.economyView = nil
		g.cartsView = nil
		return
	}
	f := g.buildFrame(now, false)
	b, err := marshalFrame(f)
	if err != nil {
		g.logger.Printf("frame marshal: %v", err)
		return
	}
	for _, out := range g.subs {
		sendLatest(out, b)
	}
}
