// Command tui runs a game in-process and plays it in the terminal.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"

	"idlemine.ai/internal/audio"
	persistlog "idlemine.ai/internal/persistence/log"
	"idlemine.ai/internal/persistence/store"
	"idlemine.ai/internal/protocol"
	"idlemine.ai/internal/sim/catalogs"
	"idlemine.ai/internal/sim/game"
	"idlemine.ai/internal/sim/tuning"
)

func main() {
	var (
		configDir  = flag.String("configs", "./configs", "catalog directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		dbPath     = flag.String("db", "", "save store path (default: <data>/save.sqlite)")
		seed       = flag.Int64("seed", 0, "random seed (0 seeds from the clock)")
		mute       = flag.Bool("mute", false, "disable sound")
		logPath    = flag.String("log", "", "write logs to this file (default: discard)")
	)
	flag.Parse()

	// The terminal belongs to tcell; logs go to a file or nowhere.
	var logOut io.Writer = io.Discard
	if p := strings.TrimSpace(*logPath); p != "" {
		f, err := os.OpenFile(p, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintln(os.Stderr, "open log:", err)
			os.Exit(1)
		}
		defer f.Close()
		logOut = f
	}
	logger := log.New(logOut, "[tui] ", log.LstdFlags|log.Lmicroseconds)

	if err := run(*configDir, *tuningPath, *dataDir, *dbPath, *seed, *mute, logger); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configDir, tuningPath, dataDir, dbPath string, seed int64, mute bool, logger *log.Logger) error {
	cats, err := catalogs.Load(configDir)
	if err != nil {
		return fmt.Errorf("load catalogs: %w", err)
	}
	if tuningPath == "" {
		tuningPath = filepath.Join(configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tuningPath)
	if err != nil {
		return fmt.Errorf("load tuning: %w", err)
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return err
	}
	if dbPath == "" {
		dbPath = filepath.Join(dataDir, "save.sqlite")
	}
	st, err := store.OpenSQLite(dbPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	g, err := game.New(game.Config{Tuning: tune, Catalogs: cats, Seed: seed, Logger: logger})
	if err != nil {
		return err
	}
	backupDir := filepath.Join(dataDir, "backups")
	now := time.Now().UnixMilli()
	lctx, lcancel := context.WithTimeout(context.Background(), 10*time.Second)
	sv, src := store.Load(lctx, st, backupDir, g.DefaultSave(now), now, logger)
	lcancel()
	g.ImportSave(sv)
	logger.Printf("save source=%s", src)

	persister := store.NewPersister(st, store.PersisterConfig{BackupDir: backupDir, Logger: logger})
	defer persister.Close()
	g.SetSaver(persister)
	events := persistlog.NewEventLogger(dataDir, logger)
	defer events.Close()
	g.AddSink(events)

	player := audio.NewPlayer()
	if !mute {
		if err := player.Init(); err != nil {
			logger.Printf("audio: %v", err)
		}
	}
	defer player.Close()
	g.AddSink(player)

	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	defer screen.Fini()

	ctx, cancel := context.WithCancel(context.Background())
	runDone := make(chan struct{})
	go func() {
		defer close(runDone)
		_ = g.Run(ctx)
	}()
	defer func() {
		cancel()
		<-runDone
	}()

	frames := make(chan []byte, 2)
	g.Subscribe() <- game.SubscribeRequest{ID: "tui", Out: frames}

	keys := make(chan tcell.Event, 100)
	go func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				return
			}
			keys <- ev
		}
	}()

	results := make(chan string, 16)
	submit := func(a game.Action) {
		go func() {
			actx, acancel := context.WithTimeout(ctx, 2*time.Second)
			defer acancel()
			res, err := g.Submit(actx, a)
			var msg string
			switch {
			case err != nil:
				msg = fmt.Sprintf("%s: %v", a.Type, err)
			case !res.OK:
				msg = fmt.Sprintf("%s: %s %s", a.Type, res.Code, res.Message)
			default:
				msg = a.Type
			}
			select {
			case results <- msg:
			default:
			}
		}()
	}

	v := &view{params: g.Params(), status: "space to mine"}
	for {
		select {
		case b := <-frames:
			var f protocol.FrameMsg
			if err := json.Unmarshal(b, &f); err != nil {
				continue
			}
			v.apply(f)
			if v.econ != nil {
				player.SetVolume(v.econ.Volume)
			}
			v.draw(screen)
		case msg := <-results:
			v.status = msg
			v.draw(screen)
		case ev := <-keys:
			switch ev := ev.(type) {
			case *tcell.EventKey:
				k := keyFor(ev, v.econ)
				switch k.cmd {
				case cmdQuit:
					return nil
				case cmdAction:
					submit(k.action)
				case cmdVolume:
					vol := 1.0
					if v.econ != nil {
						vol = v.econ.Volume
					}
					submit(game.Action{Type: game.ActSetVolume, Volume: clampVolume(vol + k.delta)})
				}
			case *tcell.EventResize:
				screen.Sync()
				v.draw(screen)
			}
		}
	}
}

func clampVolume(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
