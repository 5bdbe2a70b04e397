package game

import (
	"encoding/json"
	"testing"

	"idlemine.ai/internal/persistence/snapshot"
	"idlemine.ai/internal/protocol"
	"idlemine.ai/internal/sim/game/feature/combat"
	"idlemine.ai/internal/sim/game/feature/horde"
	"idlemine.ai/internal/sim/game/feature/logistics"
	"idlemine.ai/internal/sim/game/feature/spawnqueue"
	"idlemine.ai/internal/sim/geom"
)

func unlockAll(g *Game) {
	for _, id := range g.cats.Ores.Order {
		g.state.UnlockedOres[id].Unlocked = true
	}
	g.applyPrestigeBonuses()
}

func TestOres_NeverExceedCap(t *testing.T) {
	// Every roll succeeds, so the field fills quickly.
	g, clk := newTestGame(t, 0.01)
	unlockAll(g)

	limit := g.tun.Limits.MaxOres
	for i := 0; i < 1000; i++ {
		step(g, clk, 1000)
		if len(g.ores) > limit {
			t.Fatalf("tick %d: %d ores on the field (cap %d)", i, len(g.ores), limit)
		}
	}
	if len(g.ores) != limit {
		t.Fatalf("field not full after 1000s: %d", len(g.ores))
	}

	// Enemy loot respects the cap too.
	if o := g.dropOre(geom.V(100, 100)); o != nil || len(g.ores) != limit {
		t.Fatalf("drop on full field: ore=%v count=%d", o, len(g.ores))
	}
}

func TestDwarves_CollectIntoMinecart(t *testing.T) {
	g, clk := newTestGame(t, 0.01)
	g.state.UnlockedOres["coal"].Unlocked = true
	g.applyPrestigeBonuses()
	g.state.Dwarves = 1

	for i := 0; i < 600; i++ {
		step(g, clk, 100)
	}
	if countEvents(g, EventOreCollect) == 0 {
		t.Fatalf("dwarf never deposited an ore")
	}
	c := g.state.Minecarts[0]
	if c.Items == 0 && g.state.Gold == 0 {
		t.Fatalf("deposits produced neither cart items nor gold")
	}
	if c.Items > c.Capacity {
		t.Fatalf("cart over capacity: %d/%d", c.Items, c.Capacity)
	}
}

func TestHorde_DormantUntilReady(t *testing.T) {
	g, clk := newTestGame(t)
	for i := 0; i < 600; i++ {
		step(g, clk, 1000)
		if len(g.enemies) != 0 {
			t.Fatalf("tick %d: enemies spawned before the game was ready", i)
		}
	}
	if ph := g.hordePhase(clk.ms); ph != horde.PhaseDormant {
		t.Fatalf("phase: got %s want %s", ph, horde.PhaseDormant)
	}
	if g.state.Horde.Next != 0 {
		t.Fatalf("horde armed while dormant: next=%d", g.state.Horde.Next)
	}

	g.state.Gold = 1000
	res := step(g, clk, 16, Action{Type: ActHireSoldier})
	if !res[0].OK {
		t.Fatalf("hire soldier: %+v", res[0])
	}
	if g.state.Horde.Next <= clk.ms {
		t.Fatalf("horde not armed after first soldier: next=%d now=%d", g.state.Horde.Next, clk.ms)
	}
}

func TestHorde_DespawnWhenNoLongerReady(t *testing.T) {
	g, clk := newTestGame(t)
	g.state.Soldiers = 1
	g.syncAgents()
	g.spawnEnemy(false)
	g.queue.Push(spawnqueue.Event{Due: clk.ms + 5000, Kind: spawnqueue.KindEnemy})
	if len(g.enemies) != 1 {
		t.Fatalf("setup: enemies=%d", len(g.enemies))
	}

	g.state.Soldiers = 0
	step(g, clk, 16)
	if len(g.enemies) != 0 || g.queue.Count(spawnqueue.KindEnemy) != 0 {
		t.Fatalf("enemies survived readiness loss: live=%d queued=%d", len(g.enemies), g.queue.Count(spawnqueue.KindEnemy))
	}
}

func TestCombat_SingleDeath(t *testing.T) {
	g, _ := newTestGame(t)
	now := testStart + 10
	e := &Enemy{ID: g.newID(), Type: "goblin", Pos: geom.V(300, 300), Health: 10, MaxHealth: 10}
	g.enemies = append(g.enemies, e)

	g.damage(now, e, 25, combat.CauseSoldier)
	g.damage(now, e, 25, combat.CauseTurret)
	g.flushKills()

	if got := countEvents(g, EventKill); got != 1 {
		t.Fatalf("kill events: got %d want 1", got)
	}
	if len(g.ores) != 1 {
		t.Fatalf("loot drops: got %d want 1", len(g.ores))
	}
	if len(g.enemies) != 0 {
		t.Fatalf("dead enemy still on the field")
	}
}

func TestTurret_QueuedHitOnDeadEnemyIsIgnored(t *testing.T) {
	g, clk := newTestGame(t)
	e := &Enemy{ID: g.newID(), Type: "goblin", Pos: geom.V(300, 300), Health: 5, MaxHealth: 5}
	g.enemies = append(g.enemies, e)
	for i := 0; i < 2; i++ {
		g.queue.Push(spawnqueue.Event{Due: clk.ms + 1, Kind: spawnqueue.KindTurretHit, Target: e.ID, Amount: 10})
	}
	g.drainQueue(clk.ms + 1)
	g.flushKills()
	if got := countEvents(g, EventKill); got != 1 {
		t.Fatalf("kill events: got %d want 1", got)
	}
}

func TestFrame_MatchesWireShape(t *testing.T) {
	g, clk := newTestGame(t)
	g.state.Gold = 500
	step(g, clk, 16, Action{Type: ActHireDwarf})

	f := g.Frame(clk.ms)
	if f.Type != protocol.TypeFrame || f.Economy == nil || len(f.Minecarts) != 1 {
		t.Fatalf("frame: type=%s economy=%v carts=%d", f.Type, f.Economy, len(f.Minecarts))
	}
	if len(f.Dwarves) != 1 || f.Economy.Dwarves != 1 {
		t.Fatalf("dwarves: list=%d economy=%d", len(f.Dwarves), f.Economy.Dwarves)
	}
	if len(f.Economy.Ores) != len(g.cats.Ores.Order) {
		t.Fatalf("ore shop rows: got %d want %d", len(f.Economy.Ores), len(g.cats.Ores.Order))
	}
	b, err := marshalFrame(f)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back protocol.FrameMsg
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.Tick != f.Tick || back.Horde.Phase != string(horde.PhaseDormant) {
		t.Fatalf("decoded frame: tick=%d phase=%s", back.Tick, back.Horde.Phase)
	}
}

func TestSubscribe_ReceivesEvents(t *testing.T) {
	g, clk := newTestGame(t)
	out := make(chan []byte, 4)
	g.handleSubscribe(SubscribeRequest{ID: "s1", Out: out})
	<-out

	// Frames go out on even ticks; two steps guarantee one.
	step(g, clk, 16, Action{Type: ActClick})
	step(g, clk, 16)

	var got []protocol.Event
	for len(out) > 0 {
		var f protocol.FrameMsg
		if err := json.Unmarshal(<-out, &f); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		got = append(got, f.Events...)
	}
	if len(got) != 1 || got[0].Name != EventClick {
		t.Fatalf("events: %+v", got)
	}
}

func TestEventsAfter(t *testing.T) {
	g, clk := newTestGame(t)
	step(g, clk, 16, Action{Type: ActClick}, Action{Type: ActClick}, Action{Type: ActClick})

	items, next := g.eventsAfter(1, 10)
	if len(items) != 2 || next != 3 {
		t.Fatalf("eventsAfter(1): %d items next=%d", len(items), next)
	}
	items, next = g.eventsAfter(3, 10)
	if len(items) != 0 || next != 3 {
		t.Fatalf("eventsAfter(3): %d items next=%d", len(items), next)
	}
}

func TestOres_TimerHeldWhileFieldFull(t *testing.T) {
	g, clk := newTestGame(t, 0.01)
	u := g.state.UnlockedOres["coal"]
	u.Unlocked = true
	g.applyPrestigeBonuses()

	for len(g.ores) < g.tun.Limits.MaxOres {
		g.spawnOre("coal", geom.V(500, 350))
	}
	u.LastSpawn = clk.ms
	last := u.LastSpawn

	for i := 0; i < 5; i++ {
		clk.ms += int64(u.SpawnRate) + 1
		g.systemOres(clk.ms)
		if u.LastSpawn != last {
			t.Fatalf("round %d: timer reset while capped: last=%d want %d", i, u.LastSpawn, last)
		}
		if len(g.ores) != g.tun.Limits.MaxOres {
			t.Fatalf("round %d: ores=%d", i, len(g.ores))
		}
	}

	g.ores = g.ores[:len(g.ores)-1]
	clk.ms++
	g.systemOres(clk.ms)
	if len(g.ores) != g.tun.Limits.MaxOres {
		t.Fatalf("no spawn once space freed: ores=%d", len(g.ores))
	}
	if u.LastSpawn != clk.ms {
		t.Fatalf("timer not restarted: last=%d want %d", u.LastSpawn, clk.ms)
	}
}

func TestEnemies_RaidSecondCartOnCooldown(t *testing.T) {
	g, clk := newTestGame(t)
	g.state.Minecarts[0].Items = 10
	g.state.Minecarts[0].TotalValue = 100
	g.state.Minecarts = append(g.state.Minecarts, logistics.Cart{ID: 1, Items: 10, TotalValue: 100, Capacity: g.state.MinecartCapacity})

	// Standing on the first cart, the raider still heads for cart 1.
	e := &Enemy{ID: g.newID(), Type: "goblin", Pos: g.cartPos(0), Health: 10, MaxHealth: 10, Speed: 1, TargetCart: -1}
	g.enemies = append(g.enemies, e)
	g.systemEnemies(clk.ms)
	if e.TargetCart != 1 {
		t.Fatalf("target cart: got %d want 1", e.TargetCart)
	}
	if c := g.state.Minecarts[1]; c.Items != 10 {
		t.Fatalf("stole from out of reach: %+v", c)
	}

	e.Pos = g.cartPos(1)
	clk.ms += 16
	g.systemEnemies(clk.ms)
	// Draws of 0.5 steal two items; the rest keeps its per-item value.
	if c := g.state.Minecarts[1]; c.Items != 8 || c.TotalValue != 80 {
		t.Fatalf("after first raid: %+v", c)
	}

	clk.ms += g.tun.Threat.EnemyAttackCooldownMS - 1
	g.systemEnemies(clk.ms)
	if c := g.state.Minecarts[1]; c.Items != 8 {
		t.Fatalf("raided during cooldown: %+v", c)
	}

	clk.ms++
	g.systemEnemies(clk.ms)
	if c := g.state.Minecarts[1]; c.Items != 6 || c.TotalValue != 60 {
		t.Fatalf("after second raid: %+v", c)
	}
	if c := g.state.Minecarts[0]; c.Items != 10 || c.TotalValue != 100 {
		t.Fatalf("first cart touched: %+v", c)
	}
}

func TestImportSave_DeliversOverfullCart(t *testing.T) {
	g, clk := newTestGame(t)
	raw := []byte(`{"minecartData":[{"items":25,"totalValue":250}]}`)
	sv, err := snapshot.Decode(raw, g.DefaultSave(clk.ms), clk.ms)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	g.ImportSave(sv)

	c := g.state.Minecarts[0]
	if c.Items != 0 || c.TotalValue != 0 || !c.OnCooldown(clk.ms) {
		t.Fatalf("cart not sent away on load: %+v", c)
	}
	if g.state.Gold != 250 {
		t.Fatalf("gold: got %v want 250", g.state.Gold)
	}
	if n := countEvents(g, EventDelivery); n != 1 {
		t.Fatalf("deliveries: got %d want 1", n)
	}
}

func TestMinecarts_FullCartDeliversAfterCooldown(t *testing.T) {
	g, clk := newTestGame(t)
	c := &g.state.Minecarts[0]
	c.Items = c.Capacity
	c.TotalValue = 100
	c.CooldownEnd = clk.ms + 500

	step(g, clk, 100)
	if c := g.state.Minecarts[0]; c.Items != c.Capacity {
		t.Fatalf("delivered during cooldown: %+v", c)
	}
	step(g, clk, 400)
	if c := g.state.Minecarts[0]; c.Items != 0 || c.TotalValue != 0 {
		t.Fatalf("full cart stuck after cooldown: %+v", c)
	}
	if n := countEvents(g, EventDelivery); n != 1 {
		t.Fatalf("deliveries: got %d want 1", n)
	}
}
