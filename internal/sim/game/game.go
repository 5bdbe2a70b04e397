package game

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"idlemine.ai/internal/persistence/snapshot"
	"idlemine.ai/internal/protocol"
	"idlemine.ai/internal/sim/catalogs"
	"idlemine.ai/internal/sim/game/feature/agents/soldiers"
	"idlemine.ai/internal/sim/game/feature/combat"
	"idlemine.ai/internal/sim/game/feature/economy/payout"
	"idlemine.ai/internal/sim/game/feature/logistics"
	"idlemine.ai/internal/sim/game/feature/spawnqueue"
	"idlemine.ai/internal/sim/geom"
	"idlemine.ai/internal/sim/rng"
	"idlemine.ai/internal/sim/tuning"
)

type Config struct {
	Tuning   tuning.Tuning
	Catalogs *catalogs.Catalogs

	// Seed feeds the default random source; 0 seeds from the clock.
	Seed int64
	// Rand overrides the random source (tests).
	Rand rng.Source

	Logger *log.Logger
	// Now returns unix milliseconds. Defaults to the wall clock.
	Now func() int64
}

// Saver receives save records from the loop. Implementations must not block.
type Saver interface {
	Save(gen uint64, s snapshot.SaveV1)
	Backup(gen uint64, s snapshot.SaveV1)
	// Reset drops every save queued before gen and clears the backing store.
	Reset(ctx context.Context, gen uint64) error
}

// Game is a single-threaded authoritative simulation.
// All state must be accessed only from the loop goroutine.
type Game struct {
	cfg    Config
	tun    tuning.Tuning
	cats   *catalogs.Catalogs
	rng    rng.Source
	logger *log.Logger
	now    func() int64

	field geom.Rect
	rock  geom.Vec2

	state    State
	ores     []*Ore
	dwarves  []*Dwarf
	soldiers []*Soldier
	enemies  []*Enemy
	bag      *MoneyBag

	queue   spawnqueue.Queue
	ledger  *combat.Ledger
	history *payout.History
	nextID  uint64

	tick atomic.Uint64

	actions     chan actionReq
	subscribe   chan SubscribeRequest
	unsubscribe chan string
	admin       chan adminSaveReq
	eventsReq   chan eventsReq
	stop        chan struct{}
	stopOnce    sync.Once

	subs  map[string]chan []byte
	sinks []EventSink
	saver Saver

	pending    []Event
	ring       []Event
	nextCursor uint64

	resetting  bool
	saveGen    uint64
	dirty      bool
	lastSave   int64
	lastBackup int64

	lastUI         int64
	lastCartRender int64
	cartsDirty     bool
	cpm            float64
	economyView    *protocol.EconomyView
	cartsView      []protocol.MinecartView

	metrics atomic.Value
}

func New(cfg Config) (*Game, error) {
	if cfg.Catalogs == nil {
		return nil, errors.New("game: catalogs required")
	}
	if len(cfg.Catalogs.Ores.Order) == 0 {
		return nil, errors.New("game: ore catalog is empty")
	}
	cfg.Tuning.Normalize()
	if err := cfg.Tuning.Validate(); err != nil {
		return nil, fmt.Errorf("game: %w", err)
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(io.Discard, "", 0)
	}
	if cfg.Now == nil {
		cfg.Now = func() int64 { return time.Now().UnixMilli() }
	}
	if cfg.Rand == nil {
		cfg.Rand = rng.New(cfg.Seed)
	}

	f := cfg.Tuning.Field
	g := &Game{
		cfg:    cfg,
		tun:    cfg.Tuning,
		cats:   cfg.Catalogs,
		rng:    cfg.Rand,
		logger: cfg.Logger,
		now:    cfg.Now,

		field: geom.Rect{W: f.Width, H: f.Height, Padding: f.Padding},

		ledger: combat.NewLedger(),

		actions:     make(chan actionReq, 256),
		subscribe:   make(chan SubscribeRequest, 16),
		unsubscribe: make(chan string, 16),
		admin:       make(chan adminSaveReq, 4),
		eventsReq:   make(chan eventsReq, 16),
		stop:        make(chan struct{}),

		subs: map[string]chan []byte{},
	}
	g.rock = g.field.Center()

	now := g.now()
	g.state = freshState(g.tun, now)
	g.initOres(now)
	g.history = payout.NewHistory(g.tun.Limits.GoldHistoryMS, now, g.state.Gold)
	g.ensureFirstCart()
	g.scheduleMoneyBag(now)
	g.applyPrestigeBonuses()
	g.applyStartingBonuses(now)
	g.lastSave = now
	g.lastBackup = now
	return g, nil
}

func (g *Game) SetSaver(s Saver) { g.saver = s }

// AddSink registers an event consumer. Must be called before Run.
func (g *Game) AddSink(s EventSink) {
	if s != nil {
		g.sinks = append(g.sinks, s)
	}
}

func (g *Game) Tuning() tuning.Tuning        { return g.tun }
func (g *Game) Catalogs() *catalogs.Catalogs { return g.cats }
func (g *Game) CurrentTick() uint64          { return g.tick.Load() }
func (g *Game) Rock() geom.Vec2              { return g.rock }

func (g *Game) Subscribe() chan<- SubscribeRequest { return g.subscribe }
func (g *Game) Unsubscribe() chan<- string         { return g.unsubscribe }

func (g *Game) newID() uint64 {
	g.nextID++
	return g.nextID
}

// initOres adds every catalog ore missing from the state, locked, with the
// tier-scaled shop prices.
func (g *Game) initOres(now int64) {
	shop := g.tun.Shop
	for _, id := range g.cats.Ores.Order {
		def := g.cats.Ores.ByID[id]
		u := g.state.UnlockedOres[id]
		if u == nil {
			g.state.UnlockedOres[id] = &OreUnlock{
				SpawnRate:        def.BaseSpawnRateMS,
				SpawnChance:      def.BaseSpawnChance,
				ShopSpawnRate:    def.BaseSpawnRateMS,
				ShopSpawnChance:  def.BaseSpawnChance,
				LastSpawn:        now,
				ValueMultiplier:  1,
				ValuePrice:       shop.OreSingleValue.At(def.Tier).Base,
				SpawnRatePrice:   shop.OreRate.At(def.Tier).Base,
				SpawnChancePrice: shop.OreChance.At(def.Tier).Base,
			}
			continue
		}
		if u.ValueMultiplier <= 0 {
			u.ValueMultiplier = 1
			u.ValuePrice = shop.OreSingleValue.At(def.Tier).Base
		}
	}
}

func (g *Game) ensureFirstCart() {
	if len(g.state.Minecarts) > 0 {
		return
	}
	g.addCart()
}

func (g *Game) addCart() {
	g.state.Minecarts = append(g.state.Minecarts, logistics.Cart{
		ID:       len(g.state.Minecarts),
		Capacity: g.state.MinecartCapacity,
	})
	g.cartsDirty = true
}

func (g *Game) cartPos(i int) geom.Vec2 {
	f := g.tun.Field
	return logistics.Slot(i, f.CartX, f.CartY0, f.CartSpacing)
}

func (g *Game) cartPositions() []geom.Vec2 {
	out := make([]geom.Vec2, len(g.state.Minecarts))
	for i := range g.state.Minecarts {
		out[i] = g.cartPos(i)
	}
	return out
}

func (g *Game) cartIDs() []int {
	out := make([]int, len(g.state.Minecarts))
	for i, c := range g.state.Minecarts {
		out[i] = c.ID
	}
	return out
}

// syncAgents matches the dwarf and soldier lists to the purchased counts.
func (g *Game) syncAgents() {
	for len(g.dwarves) < g.state.Dwarves {
		pos := geom.V(g.tun.Field.DwarfFallback, g.tun.Field.DwarfFallback)
		if len(g.state.Minecarts) > 0 {
			pos = g.cartPos(0)
		}
		g.dwarves = append(g.dwarves, &Dwarf{ID: g.newID(), Pos: pos})
	}
	if len(g.dwarves) > g.state.Dwarves {
		g.dwarves = g.dwarves[:g.state.Dwarves]
	}
	for len(g.soldiers) < g.state.Soldiers {
		home := soldiers.SpawnPoint(g.rng, g.cartPositions())
		g.soldiers = append(g.soldiers, &Soldier{ID: g.newID(), Pos: home, Home: home})
	}
	if len(g.soldiers) > g.state.Soldiers {
		g.soldiers = g.soldiers[:g.state.Soldiers]
	}
}
