package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/http/pprof"
	"os"
	"strconv"
	"strings"
	"time"

	"idlemine.ai/internal/observerproto"
	"idlemine.ai/internal/persistence/indexdb"
	persistlog "idlemine.ai/internal/persistence/log"
	"idlemine.ai/internal/persistence/offsite"
	"idlemine.ai/internal/persistence/store"
	"idlemine.ai/internal/sim/game"
	"idlemine.ai/internal/transport/observer"
	"idlemine.ai/internal/transport/ws"
)

type runtime struct {
	game      *game.Game
	persister *store.Persister
	index     runtimeIndex
	events    *persistlog.EventLogger
	mirror    *offsite.Mirror

	logger   *log.Logger
	wsLogger *log.Logger
	admin    bool
	pprof    bool
	wsCfg    ws.Config
}

func (rt *runtime) routes() *http.ServeMux {
	g := rt.game
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/metrics", rt.metrics)
	mux.HandleFunc("/v1/bootstrap", func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			rw.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		rw.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(rw).Encode(observerproto.BootstrapResponse{
			ProtocolVersion: observerproto.Version,
			Tick:            g.CurrentTick(),
			GameParams:      g.Params(),
			Catalogs:        g.CatalogDigests(),
		})
	})

	if rt.admin {
		// Local-only admin endpoints.
		mux.HandleFunc("/admin/v1/state", rt.loopback(func(rw http.ResponseWriter, r *http.Request) {
			resp := struct {
				Tick    uint64             `json:"tick"`
				Metrics game.GameMetrics   `json:"metrics"`
				Persist store.PersistStats `json:"persist"`
				Dropped uint64             `json:"event_log_dropped"`
			}{
				Tick:    g.CurrentTick(),
				Metrics: g.Metrics(),
			}
			if rt.persister != nil {
				resp.Persist = rt.persister.Stats()
			}
			if rt.events != nil {
				resp.Dropped = rt.events.Dropped()
			}
			rw.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(rw).Encode(resp)
		}))
		mux.HandleFunc("/admin/v1/save", rt.loopback(rt.post(func(ctx context.Context) (uint64, error) {
			return g.RequestSave(ctx)
		})))
		mux.HandleFunc("/admin/v1/reset", rt.loopback(rt.post(func(ctx context.Context) (uint64, error) {
			err := g.HardReset(ctx)
			return g.CurrentTick(), err
		})))
		if sq, ok := rt.index.(*indexdb.SQLiteIndex); ok {
			mux.HandleFunc("/admin/v1/index/summary", rt.loopback(func(rw http.ResponseWriter, r *http.Request) {
				sum, err := sq.Summary(r.Context())
				if err != nil {
					http.Error(rw, err.Error(), http.StatusInternalServerError)
					return
				}
				rw.Header().Set("Content-Type", "application/json")
				_ = json.NewEncoder(rw).Encode(sum)
			}))
			mux.HandleFunc("/admin/v1/index/events", rt.loopback(func(rw http.ResponseWriter, r *http.Request) {
				limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
				evs, err := sq.RecentEvents(r.Context(), r.URL.Query().Get("name"), limit)
				if err != nil {
					http.Error(rw, err.Error(), http.StatusInternalServerError)
					return
				}
				rw.Header().Set("Content-Type", "application/json")
				_ = json.NewEncoder(rw).Encode(evs)
			}))
		}

		obsSrv := observer.NewServer(g, rt.wsLogger)
		mux.HandleFunc("/admin/v1/observer/bootstrap", obsSrv.BootstrapHandler())
		mux.HandleFunc("/admin/v1/observer/ws", obsSrv.WSHandler())
	} else {
		rt.logger.Printf("admin endpoints disabled (IM_ENABLE_ADMIN_HTTP=false)")
	}
	if rt.pprof {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	}
	mux.HandleFunc("/v1/ws", ws.NewServer(g, rt.wsLogger, rt.wsCfg).Handler())
	return mux
}

func (rt *runtime) loopback(h http.HandlerFunc) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if !observer.IsLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}
		h(rw, r)
	}
}

func (rt *runtime) post(do func(ctx context.Context) (uint64, error)) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			rw.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		tick, err := do(ctx)
		rw.Header().Set("Content-Type", "application/json")
		if err != nil {
			rw.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(rw).Encode(map[string]any{"ok": false, "tick": tick, "error": err.Error()})
			return
		}
		_ = json.NewEncoder(rw).Encode(map[string]any{"ok": true, "tick": tick})
	}
}

func (rt *runtime) metrics(rw http.ResponseWriter, r *http.Request) {
	rw.Header().Set("Content-Type", "text/plain; version=0.0.4")

	m := rt.game.Metrics()
	tick := rt.game.CurrentTick()
	if m.Tick != 0 {
		tick = m.Tick
	}

	// Minimal Prometheus exposition format.
	fmt.Fprintf(rw, "# HELP idlemine_tick Current game tick.\n")
	fmt.Fprintf(rw, "# TYPE idlemine_tick gauge\n")
	fmt.Fprintf(rw, "idlemine_tick %d\n", tick)

	fmt.Fprintf(rw, "# HELP idlemine_step_ms Last tick step duration in milliseconds.\n")
	fmt.Fprintf(rw, "# TYPE idlemine_step_ms gauge\n")
	fmt.Fprintf(rw, "idlemine_step_ms %.3f\n", m.StepMS)

	fmt.Fprintf(rw, "# HELP idlemine_gold Current gold.\n")
	fmt.Fprintf(rw, "# TYPE idlemine_gold gauge\n")
	fmt.Fprintf(rw, "idlemine_gold %.2f\n", m.Gold)

	fmt.Fprintf(rw, "# HELP idlemine_gold_earned_total Gold earned since the last prestige.\n")
	fmt.Fprintf(rw, "# TYPE idlemine_gold_earned_total gauge\n")
	fmt.Fprintf(rw, "idlemine_gold_earned_total %.2f\n", m.TotalGoldEarned)

	fmt.Fprintf(rw, "# HELP idlemine_coins_per_minute Trailing minute income.\n")
	fmt.Fprintf(rw, "# TYPE idlemine_coins_per_minute gauge\n")
	fmt.Fprintf(rw, "idlemine_coins_per_minute %.2f\n", m.CoinsPerMinute)

	fmt.Fprintf(rw, "# HELP idlemine_prestige_count Prestiges performed.\n")
	fmt.Fprintf(rw, "# TYPE idlemine_prestige_count gauge\n")
	fmt.Fprintf(rw, "idlemine_prestige_count %d\n", m.PrestigeCount)

	fmt.Fprintf(rw, "# HELP idlemine_entities Live entities by kind.\n")
	fmt.Fprintf(rw, "# TYPE idlemine_entities gauge\n")
	fmt.Fprintf(rw, "idlemine_entities{kind=%q} %d\n", "ore", m.Ores)
	fmt.Fprintf(rw, "idlemine_entities{kind=%q} %d\n", "dwarf", m.Dwarves)
	fmt.Fprintf(rw, "idlemine_entities{kind=%q} %d\n", "soldier", m.Soldiers)
	fmt.Fprintf(rw, "idlemine_entities{kind=%q} %d\n", "enemy", m.Enemies)
	fmt.Fprintf(rw, "idlemine_entities{kind=%q} %d\n", "minecart", m.Minecarts)

	fmt.Fprintf(rw, "# HELP idlemine_horde_phase Current horde phase (1 for the active phase).\n")
	fmt.Fprintf(rw, "# TYPE idlemine_horde_phase gauge\n")
	fmt.Fprintf(rw, "idlemine_horde_phase{phase=%q} 1\n", m.Horde)

	fmt.Fprintf(rw, "# HELP idlemine_subscribers Connected frame subscribers.\n")
	fmt.Fprintf(rw, "# TYPE idlemine_subscribers gauge\n")
	fmt.Fprintf(rw, "idlemine_subscribers %d\n", m.Subscribers)

	fmt.Fprintf(rw, "# HELP idlemine_queue_depth Channel backlog depth.\n")
	fmt.Fprintf(rw, "# TYPE idlemine_queue_depth gauge\n")
	fmt.Fprintf(rw, "idlemine_queue_depth{queue=%q} %d\n", "actions", m.QueueDepths.Actions)
	fmt.Fprintf(rw, "idlemine_queue_depth{queue=%q} %d\n", "subscribe", m.QueueDepths.Subscribe)
	fmt.Fprintf(rw, "idlemine_queue_depth{queue=%q} %d\n", "pending", m.QueueDepths.Pending)

	if rt.persister != nil {
		s := rt.persister.Stats()
		fmt.Fprintf(rw, "# HELP idlemine_persist_total Save store activity by outcome.\n")
		fmt.Fprintf(rw, "# TYPE idlemine_persist_total counter\n")
		fmt.Fprintf(rw, "idlemine_persist_total{outcome=%q} %d\n", "saved", s.Saved)
		fmt.Fprintf(rw, "idlemine_persist_total{outcome=%q} %d\n", "superseded", s.Superseded)
		fmt.Fprintf(rw, "idlemine_persist_total{outcome=%q} %d\n", "stale_drop", s.StaleDrops)
		fmt.Fprintf(rw, "idlemine_persist_total{outcome=%q} %d\n", "error", s.SaveErrors)
		fmt.Fprintf(rw, "idlemine_persist_total{outcome=%q} %d\n", "backup", s.Backups)
		fmt.Fprintf(rw, "idlemine_persist_total{outcome=%q} %d\n", "backup_drop", s.BackupDrops)
		fmt.Fprintf(rw, "idlemine_persist_total{outcome=%q} %d\n", "backup_error", s.BackupErrs)
	}
	if rt.events != nil {
		fmt.Fprintf(rw, "# HELP idlemine_event_log_dropped_total Events dropped by the event log.\n")
		fmt.Fprintf(rw, "# TYPE idlemine_event_log_dropped_total counter\n")
		fmt.Fprintf(rw, "idlemine_event_log_dropped_total %d\n", rt.events.Dropped())
	}
	writeIndexMetrics(rw, rt.index)
	writeOffsiteMetrics(rw, rt.mirror)
}

func defaultEnableAdminHTTP() bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("DEPLOY_ENV"))) {
	case "staging", "production":
		return false
	default:
		return true
	}
}
