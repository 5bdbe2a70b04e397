package indexdb

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"

	"idlemine.ai/internal/persistence/snapshot"
	"idlemine.ai/internal/sim/catalogs"
	"idlemine.ai/internal/sim/game"
	"idlemine.ai/internal/sim/tuning"
)

func TestSQLiteIndex_QueueDropStats(t *testing.T) {
	s := &SQLiteIndex{ch: make(chan req, 1)}
	s.ch <- req{kind: reqEvent, event: game.Event{Cursor: 1}}

	s.HandleEvent(game.Event{Cursor: 2, Name: game.EventClick})
	s.RecordBackup("/tmp/1.save.zst", snapshot.Header{SavedAt: 1})

	st := s.Stats()
	if st.DropEventTotal != 1 {
		t.Fatalf("DropEventTotal=%d want=1", st.DropEventTotal)
	}
	if st.DropBackupTotal != 1 {
		t.Fatalf("DropBackupTotal=%d want=1", st.DropBackupTotal)
	}
	if st.QueueDepth != 1 || st.QueueCapacity != 1 {
		t.Fatalf("queue stats mismatch: depth=%d cap=%d", st.QueueDepth, st.QueueCapacity)
	}
}

func TestSQLiteIndex_Summary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")
	idx, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	events := []game.Event{
		{Cursor: 1, Name: game.EventClick, AtMS: 10, Data: map[string]any{"value": 1.0}},
		{Cursor: 2, Name: game.EventDelivery, AtMS: 20, Data: map[string]any{"cart": uint64(1), "items": 20, "gold": 200.0}},
		{Cursor: 3, Name: game.EventDelivery, AtMS: 30, Data: map[string]any{"cart": uint64(2), "items": 5, "gold": 50.0}},
		{Cursor: 4, Name: game.EventKill, AtMS: 40, Data: map[string]any{"enemy_id": uint64(9), "type": "goblin", "cause": "soldier"}},
		{Cursor: 5, Name: game.EventKill, AtMS: 41, Data: map[string]any{"enemy_id": uint64(10), "type": "goblin", "cause": "turret"}},
		{Cursor: 6, Name: game.EventHorde, AtMS: 50, Data: map[string]any{"phase": "start", "size": 12}},
		{Cursor: 7, Name: game.EventHorde, AtMS: 60, Data: map[string]any{"phase": "end"}},
		{Cursor: 8, Name: game.EventPrestige, AtMS: 70, Data: map[string]any{"award": 3, "count": 1, "currency": 3}},
	}
	for _, e := range events {
		idx.HandleEvent(e)
	}
	idx.RecordBackup("/data/backups/0000000000070.save.zst", snapshot.Header{SavedAt: 70, Gold: 12, PrestigeCount: 1})
	if err := idx.UpsertCatalogs(catalogs.Default(), tuning.Defaults()); err != nil {
		t.Fatalf("UpsertCatalogs: %v", err)
	}
	if err := idx.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	idx, err = OpenSQLite(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer idx.Close()

	sum, err := idx.Summary(context.Background())
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if sum.Events[game.EventDelivery] != 2 || sum.Events[game.EventClick] != 1 {
		t.Fatalf("event counts: %v", sum.Events)
	}
	if sum.Deliveries != 2 || sum.DeliveredItems != 25 || sum.DeliveredGold != 250 {
		t.Fatalf("deliveries: %+v", sum)
	}
	if sum.KillsByType["goblin"] != 2 || sum.KillsByCause["turret"] != 1 {
		t.Fatalf("kills: %v %v", sum.KillsByType, sum.KillsByCause)
	}
	if sum.Waves != 1 || sum.Prestiges != 1 || sum.PrestigeAward != 3 {
		t.Fatalf("waves=%d prestiges=%d award=%d", sum.Waves, sum.Prestiges, sum.PrestigeAward)
	}
	if sum.LastBackup == nil || sum.LastBackup.SavedAt != 70 || sum.LastBackup.PrestigeCount != 1 {
		t.Fatalf("last backup: %+v", sum.LastBackup)
	}

	recent, err := idx.RecentEvents(context.Background(), game.EventKill, 1)
	if err != nil {
		t.Fatalf("RecentEvents: %v", err)
	}
	if len(recent) != 1 || recent[0].Cursor != 5 || recent[0].Data["cause"] != "turret" {
		t.Fatalf("recent: %+v", recent)
	}
}

func TestSQLiteIndex_UpsertCatalogs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")
	idx, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	cats := catalogs.Default()
	if err := idx.UpsertCatalogs(cats, tuning.Defaults()); err != nil {
		t.Fatalf("UpsertCatalogs: %v", err)
	}
	if err := idx.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	defer db.Close()

	var digest string
	if err := db.QueryRow(`SELECT digest FROM catalogs WHERE name='ores'`).Scan(&digest); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if digest != cats.Ores.Digest {
		t.Fatalf("ores digest=%q want %q", digest, cats.Ores.Digest)
	}
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM catalogs`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 4 {
		t.Fatalf("catalog rows=%d want 4", n)
	}
}
