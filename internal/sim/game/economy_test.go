package game

import (
	"testing"

	"idlemine.ai/internal/protocol"
)

func TestClick_FreshGame(t *testing.T) {
	g, clk := newTestGame(t)
	res := step(g, clk, 16, Action{Type: ActClick})
	if len(res) != 1 || !res[0].OK {
		t.Fatalf("click result: %+v", res)
	}
	s := g.state
	if s.Gold != 1 || s.TotalGoldEarned != 1 || s.TotalClicks != 1 {
		t.Fatalf("after click: gold=%v total=%v clicks=%d", s.Gold, s.TotalGoldEarned, s.TotalClicks)
	}
	if got := countEvents(g, EventClick); got != 1 {
		t.Fatalf("click events: got %d want 1", got)
	}
}

func TestBuy_NotEnoughGold(t *testing.T) {
	g, clk := newTestGame(t)
	res := step(g, clk, 16, Action{Type: ActHireDwarf})
	if res[0].OK || res[0].Code != protocol.ErrNoResource {
		t.Fatalf("expected %s, got %+v", protocol.ErrNoResource, res[0])
	}
	if g.state.Dwarves != 0 || g.state.DwarfPrice != 25 || g.state.Gold != 0 {
		t.Fatalf("state changed on refusal: %+v", g.state)
	}
}

func TestBuy_ClickPowerAccounting(t *testing.T) {
	g, clk := newTestGame(t)
	g.state.Gold = 120

	res := step(g, clk, 16, Action{Type: ActClickPower})
	if !res[0].OK {
		t.Fatalf("buy: %+v", res[0])
	}
	if g.state.Gold != 70 || g.state.ClickPowerPrice != 75 || g.state.ClickPower != 2 {
		t.Fatalf("after buy: gold=%v price=%v power=%v", g.state.Gold, g.state.ClickPowerPrice, g.state.ClickPower)
	}
	if g.state.TotalGoldEarned != 0 {
		t.Fatalf("spending must not touch lifetime earnings: %v", g.state.TotalGoldEarned)
	}

	step(g, clk, 16, Action{Type: ActClick})
	if g.state.Gold != 72 {
		t.Fatalf("click after upgrade: gold=%v want 72", g.state.Gold)
	}
}

func TestBuy_AutoClickerOnce(t *testing.T) {
	g, clk := newTestGame(t)
	g.state.Gold = 250

	res := step(g, clk, 16, Action{Type: ActAutoClicker}, Action{Type: ActAutoClicker})
	if !res[0].OK {
		t.Fatalf("first buy: %+v", res[0])
	}
	if res[1].Code != protocol.ErrMaxed {
		t.Fatalf("second buy: got %+v want %s", res[1], protocol.ErrMaxed)
	}
	if g.state.Gold != 150 {
		t.Fatalf("gold: got %v want 150", g.state.Gold)
	}

	before := g.state.Gold
	step(g, clk, 1000)
	if g.state.Gold != before+1 {
		t.Fatalf("auto click: gold=%v want %v", g.state.Gold, before+1)
	}
	if g.state.TotalClicks != 0 {
		t.Fatalf("auto clicks must not count as manual: %d", g.state.TotalClicks)
	}
}

func TestUnlockCoal(t *testing.T) {
	g, clk := newTestGame(t)
	g.state.Gold = 100

	res := step(g, clk, 16, Action{Type: ActUnlockOre, Ore: "coal"})
	if !res[0].OK {
		t.Fatalf("unlock: %+v", res[0])
	}
	if g.state.Gold != 0 || !g.state.UnlockedOres["coal"].Unlocked {
		t.Fatalf("after unlock: gold=%v unlocked=%v", g.state.Gold, g.state.UnlockedOres["coal"].Unlocked)
	}

	res = step(g, clk, 16, Action{Type: ActUnlockOre, Ore: "coal"})
	if res[0].Code != protocol.ErrMaxed {
		t.Fatalf("second unlock: got %+v want %s", res[0], protocol.ErrMaxed)
	}
	res = step(g, clk, 16, Action{Type: ActUnlockOre, Ore: "mithril"})
	if res[0].Code != protocol.ErrBadRequest {
		t.Fatalf("unknown ore: got %+v want %s", res[0], protocol.ErrBadRequest)
	}
	res = step(g, clk, 16, Action{Type: ActOreRate, Ore: "copper"})
	if res[0].Code != protocol.ErrNotReady {
		t.Fatalf("upgrade locked ore: got %+v want %s", res[0], protocol.ErrNotReady)
	}
}

func TestSetVolume(t *testing.T) {
	g, clk := newTestGame(t)
	res := step(g, clk, 16, Action{Type: ActSetVolume, Volume: 1.5})
	if res[0].Code != protocol.ErrBadRequest {
		t.Fatalf("out of range volume: %+v", res[0])
	}
	res = step(g, clk, 16, Action{Type: ActSetVolume, Volume: 0.2})
	if !res[0].OK || g.state.Volume != 0.2 {
		t.Fatalf("set volume: %+v volume=%v", res[0], g.state.Volume)
	}
}

func TestMinecart_FillAndDeliver(t *testing.T) {
	g, _ := newTestGame(t)
	now := testStart + 10

	for i := 0; i < 20; i++ {
		g.addToMinecart(now, 10)
		c := g.state.Minecarts[0]
		if c.Items > c.Capacity {
			t.Fatalf("cart over capacity: %d/%d", c.Items, c.Capacity)
		}
	}
	if g.state.Gold != 200 || g.state.TotalGoldEarned != 200 {
		t.Fatalf("delivery: gold=%v total=%v want 200", g.state.Gold, g.state.TotalGoldEarned)
	}
	c := g.state.Minecarts[0]
	if c.Items != 0 || c.TotalValue != 0 || !c.OnCooldown(now) {
		t.Fatalf("cart after delivery: %+v", c)
	}
	if got := countEvents(g, EventDelivery); got != 1 {
		t.Fatalf("delivery events: got %d want 1", got)
	}

	// Every cart is cooling down, so ore value is paid directly.
	g.addToMinecart(now, 10)
	if g.state.Gold != 210 {
		t.Fatalf("direct payout: gold=%v want 210", g.state.Gold)
	}
}

func TestBuyMinecart_Limit(t *testing.T) {
	g, clk := newTestGame(t)
	g.state.Gold = 1e12
	for i := 0; i < 12; i++ {
		step(g, clk, 16, Action{Type: ActBuyMinecart})
	}
	if n := len(g.state.Minecarts); n != g.tun.Limits.MaxMinecarts {
		t.Fatalf("minecarts: got %d want %d", n, g.tun.Limits.MaxMinecarts)
	}
	res := step(g, clk, 16, Action{Type: ActBuyMinecart})
	if res[0].Code != protocol.ErrMaxed {
		t.Fatalf("buy past limit: %+v", res[0])
	}
	for i, c := range g.state.Minecarts {
		if c.ID != i {
			t.Fatalf("cart %d has id %d", i, c.ID)
		}
	}
}

func TestMoneyBag_Collect(t *testing.T) {
	g, clk := newTestGame(t)
	res := step(g, clk, 16, Action{Type: ActCollectMoneyBag})
	if res[0].Code != protocol.ErrNotReady {
		t.Fatalf("collect without bag: %+v", res[0])
	}

	clk.ms = g.state.MoneyBagSpawnTime
	g.StepOnce(clk.ms)
	if g.bag == nil {
		t.Fatalf("money bag did not spawn at %d", clk.ms)
	}
	res = step(g, clk, 16, Action{Type: ActCollectMoneyBag})
	if !res[0].OK || g.state.Gold != 10000 || g.bag != nil {
		t.Fatalf("collect: %+v gold=%v bag=%v", res[0], g.state.Gold, g.bag)
	}
}
