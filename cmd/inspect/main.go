// Command inspect prints a summary of a save (store record or backup) and,
// optionally, of the event log.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	persistlog "idlemine.ai/internal/persistence/log"
	"idlemine.ai/internal/persistence/snapshot"
	"idlemine.ai/internal/persistence/store"
	"idlemine.ai/internal/sim/catalogs"
	"idlemine.ai/internal/sim/game"
	"idlemine.ai/internal/sim/tuning"
)

type report struct {
	Source     string           `json:"source"`
	Path       string           `json:"path"`
	Valid      bool             `json:"schema_valid"`
	SchemaErr  string           `json:"schema_error,omitempty"`
	Header     snapshot.Header  `json:"header"`
	Save       saveSummary      `json:"save"`
	EventFiles int              `json:"event_files,omitempty"`
	Events     map[string]int   `json:"events,omitempty"`
	Recent     []game.Event     `json:"recent,omitempty"`
	Delivered  *deliveredTotals `json:"delivered,omitempty"`
}

type saveSummary struct {
	Gold            float64        `json:"gold"`
	TotalGoldEarned float64        `json:"total_gold_earned"`
	TotalClicks     int            `json:"total_clicks"`
	ClickPower      float64        `json:"click_power"`
	Dwarves         int            `json:"dwarves"`
	Soldiers        int            `json:"soldiers"`
	Minecarts       int            `json:"minecarts"`
	CartItems       int            `json:"cart_items"`
	CartValue       float64        `json:"cart_value"`
	UnlockedOres    []string       `json:"unlocked_ores"`
	PrestigeCount   int            `json:"prestige_count"`
	PrestigeCurr    int            `json:"prestige_currency"`
	PrestigeNodes   map[string]int `json:"prestige_nodes,omitempty"`
	NextHordeWave   string         `json:"next_horde_wave,omitempty"`
}

type deliveredTotals struct {
	Deliveries int     `json:"deliveries"`
	Items      float64 `json:"items"`
	Gold       float64 `json:"gold"`
}

func main() {
	var (
		backupPath = flag.String("backup", "", "path to a .save.zst backup")
		dbPath     = flag.String("db", "", "save store path (default: <data>/save.sqlite)")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		configDir  = flag.String("configs", "./configs", "catalog directory (defaults for missing save fields)")
		events     = flag.Bool("events", false, "also summarize <data>/events")
		tail       = flag.Int("tail", 0, "print the last N events (with -events)")
	)
	flag.Parse()

	rep, err := inspect(*backupPath, *dbPath, *dataDir, *configDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *events {
		if err := summarizeEvents(&rep, filepath.Join(*dataDir, "events"), *tail); err != nil {
			fmt.Fprintln(os.Stderr, "events:", err)
			os.Exit(1)
		}
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(rep)
}

func inspect(backupPath, dbPath, dataDir, configDir string) (report, error) {
	if backupPath != "" {
		h, sv, err := snapshot.ReadBackup(backupPath)
		if err != nil {
			return report{}, fmt.Errorf("read backup: %w", err)
		}
		return report{Source: "backup", Path: backupPath, Valid: true, Header: h, Save: summarize(sv)}, nil
	}

	cats, err := catalogs.Load(configDir)
	if err != nil {
		return report{}, fmt.Errorf("load catalogs: %w", err)
	}
	g, err := game.New(game.Config{Tuning: tuning.Defaults(), Catalogs: cats})
	if err != nil {
		return report{}, err
	}
	if dbPath == "" {
		dbPath = filepath.Join(dataDir, "save.sqlite")
	}
	if _, err := os.Stat(dbPath); err != nil {
		return report{}, err
	}
	st, err := store.OpenSQLite(dbPath)
	if err != nil {
		return report{}, fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	raw, ok, err := st.Get(ctx, snapshot.Key)
	if err != nil {
		return report{}, fmt.Errorf("read store: %w", err)
	}
	if !ok {
		return report{}, fmt.Errorf("%s has no %q record", dbPath, snapshot.Key)
	}
	rep := report{Source: "store", Path: dbPath, Valid: true}
	if verr := snapshot.Validate(raw); verr != nil {
		rep.Valid = false
		rep.SchemaErr = verr.Error()
	}
	now := time.Now().UnixMilli()
	sv, err := snapshot.Decode(raw, g.DefaultSave(now), now)
	if err != nil {
		return report{}, fmt.Errorf("decode: %w", err)
	}
	rep.Header = snapshot.HeaderOf(sv)
	rep.Save = summarize(sv)
	return rep, nil
}

func summarize(sv snapshot.SaveV1) saveSummary {
	s := saveSummary{
		Gold:            sv.Gold,
		TotalGoldEarned: sv.TotalGoldEarned,
		TotalClicks:     sv.TotalClicks,
		ClickPower:      sv.ClickPower,
		Dwarves:         sv.Dwarves,
		Soldiers:        sv.Soldiers,
		Minecarts:       sv.Minecarts,
		PrestigeCount:   sv.PrestigeCount,
		PrestigeCurr:    sv.PrestigeCurrency,
		PrestigeNodes:   sv.PrestigeNodes,
		UnlockedOres:    []string{},
	}
	for _, c := range sv.MinecartData {
		s.CartItems += c.Items
		s.CartValue += c.TotalValue
	}
	for id, o := range sv.UnlockedOres {
		if o.Unlocked {
			s.UnlockedOres = append(s.UnlockedOres, id)
		}
	}
	sort.Strings(s.UnlockedOres)
	if sv.NextHordeWaveTime > 0 {
		s.NextHordeWave = time.UnixMilli(sv.NextHordeWaveTime).UTC().Format(time.RFC3339)
	}
	return s
}

func summarizeEvents(rep *report, dir string, tail int) error {
	files, err := persistlog.ListEventFiles(dir)
	if err != nil {
		return err
	}
	rep.EventFiles = len(files)
	rep.Events = map[string]int{}
	rep.Delivered = &deliveredTotals{}
	for _, f := range files {
		err := persistlog.ReadEvents(f, func(e game.Event) bool {
			rep.Events[e.Name]++
			if e.Name == game.EventDelivery {
				rep.Delivered.Deliveries++
				rep.Delivered.Items += num(e.Data["items"])
				rep.Delivered.Gold += num(e.Data["gold"])
			}
			if tail > 0 {
				rep.Recent = append(rep.Recent, e)
				if len(rep.Recent) > tail {
					rep.Recent = rep.Recent[1:]
				}
			}
			return true
		})
		if err != nil {
			return fmt.Errorf("%s: %w", f, err)
		}
	}
	return nil
}

func num(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case json.Number:
		f, _ := n.Float64()
		return f
	}
	return 0
}
