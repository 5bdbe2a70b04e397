package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	persistlog "idlemine.ai/internal/persistence/log"
	"idlemine.ai/internal/persistence/snapshot"
	"idlemine.ai/internal/persistence/store"
	"idlemine.ai/internal/sim/catalogs"
	"idlemine.ai/internal/sim/game"
	"idlemine.ai/internal/sim/tuning"
	"idlemine.ai/internal/transport/ws"
)

func main() {
	var (
		addr       = flag.String("addr", ":8080", "http listen address")
		gameID     = flag.String("game", "main", "game id reported to the remote index")
		seed       = flag.Int64("seed", 0, "random seed (0 seeds from the clock)")
		configDir  = flag.String("configs", "./configs", "catalog directory (ores.json, enemies.json, prestige.json)")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		dbPath     = flag.String("db", "", "save store path (default: <data>/save.sqlite)")
		disableIdx = flag.Bool("disable_index", false, "disable the event index")

		snapPath   = flag.String("snapshot", "", "path to a .save.zst backup to load instead of the store")
		loadLatest = flag.Bool("load_latest_snapshot", true, "fall back to the newest backup when the store has no usable save")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)
	gameLogger := log.New(os.Stdout, "[game] ", log.LstdFlags|log.Lmicroseconds)
	persistLogger := log.New(os.Stdout, "[persist] ", log.LstdFlags|log.Lmicroseconds)
	wsLogger := log.New(os.Stdout, "[ws] ", log.LstdFlags|log.Lmicroseconds)

	cats, err := catalogs.Load(*configDir)
	if err != nil {
		logger.Fatalf("load catalogs: %v", err)
	}
	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		logger.Fatalf("load tuning: %v", err)
	}

	if err := os.MkdirAll(*dataDir, 0o755); err != nil {
		logger.Fatalf("data dir: %v", err)
	}
	dbp := strings.TrimSpace(*dbPath)
	if dbp == "" {
		dbp = filepath.Join(*dataDir, "save.sqlite")
	}
	st, err := store.OpenSQLite(dbp)
	if err != nil {
		logger.Fatalf("open store: %v", err)
	}
	defer st.Close()

	idx, err := openRuntimeIndex(*dataDir, *gameID, *disableIdx, persistLogger)
	if err != nil {
		logger.Fatalf("open index: %v", err)
	}
	if idx != nil {
		defer idx.Close()
		if err := idx.UpsertCatalogs(cats, tune); err != nil {
			logger.Printf("index catalogs: %v", err)
		}
	}

	mirror, err := buildOffsiteMirror(*dataDir, persistLogger)
	if err != nil {
		logger.Fatalf("offsite mirror: %v", err)
	}
	if mirror != nil {
		defer mirror.Close()
	}

	g, err := game.New(game.Config{
		Tuning:   tune,
		Catalogs: cats,
		Seed:     *seed,
		Logger:   gameLogger,
	})
	if err != nil {
		logger.Fatalf("game: %v", err)
	}

	backupDir := filepath.Join(*dataDir, "backups")
	now := time.Now().UnixMilli()
	if p := strings.TrimSpace(*snapPath); p != "" {
		_, sv, err := snapshot.ReadBackup(p)
		if err != nil {
			logger.Fatalf("load snapshot %s: %v", p, err)
		}
		g.ImportSave(sv)
		logger.Printf("loaded backup %s gold=%.0f prestige=%d", p, sv.Gold, sv.PrestigeCount)
	} else {
		dir := backupDir
		if !*loadLatest {
			dir = ""
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		sv, src := store.Load(ctx, st, dir, g.DefaultSave(now), now, persistLogger)
		cancel()
		g.ImportSave(sv)
		logger.Printf("save source=%s gold=%.0f prestige=%d", src, sv.Gold, sv.PrestigeCount)
	}

	persister := store.NewPersister(st, store.PersisterConfig{
		BackupDir:   backupDir,
		KeepBackups: envInt("IM_KEEP_BACKUPS", 24),
		Logger:      persistLogger,
		OnBackup: func(path string, h snapshot.Header) {
			if idx != nil {
				idx.RecordBackup(path, h)
			}
			mirror.EnqueueBackup(path, h)
		},
	})
	defer persister.Close()
	g.SetSaver(persister)

	var onRotate func(string)
	if mirror != nil {
		onRotate = mirror.Enqueue
	}
	events := persistlog.NewEventLoggerWithRotate(*dataDir, persistLogger, onRotate)
	defer events.Close()
	g.AddSink(events)
	if idx != nil {
		g.AddSink(idx)
	}

	ctx, cancel := signalContext()
	defer cancel()

	runDone := make(chan struct{})
	go func() {
		defer close(runDone)
		if err := g.Run(ctx); err != nil && err != context.Canceled {
			logger.Printf("game stopped: %v", err)
		}
	}()

	rt := &runtime{
		game:      g,
		persister: persister,
		index:     idx,
		events:    events,
		mirror:    mirror,
		logger:    logger,
		wsLogger:  wsLogger,
		admin:     envBool("IM_ENABLE_ADMIN_HTTP", defaultEnableAdminHTTP()),
		pprof:     envBool("IM_ENABLE_PPROF_HTTP", false),
		wsCfg: ws.Config{
			ActionsPerSecond: float64(envInt("IM_WS_ACTIONS_PER_SEC", 30)),
			ActionBurst:      envInt("IM_WS_ACTION_BURST", 60),
		},
	}

	srv := &http.Server{
		Addr:              *addr,
		Handler:           rt.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("listening on %s", *addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}
	cancel()
	<-runDone
	logger.Printf("stopped at tick %d", g.CurrentTick())
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}
