// Package indexdb keeps a queryable secondary index of game events. The
// JSONL event log stays the source of truth; the index may drop rows when it
// falls behind.
package indexdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"idlemine.ai/internal/persistence/snapshot"
	"idlemine.ai/internal/sim/catalogs"
	"idlemine.ai/internal/sim/game"
	"idlemine.ai/internal/sim/tuning"
)

type SQLiteIndex struct {
	db *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool

	dropEvent   atomic.Uint64
	dropBackup  atomic.Uint64
	written     atomic.Uint64
	writeErrors atomic.Uint64
}

// SQLiteStats are cumulative counters for /metrics.
type SQLiteStats struct {
	QueueDepth       int    `json:"queue_depth"`
	QueueCapacity    int    `json:"queue_capacity"`
	DropEventTotal   uint64 `json:"drop_event_total"`
	DropBackupTotal  uint64 `json:"drop_backup_total"`
	WrittenTotal     uint64 `json:"written_total"`
	WriteErrorsTotal uint64 `json:"write_errors_total"`
}

type reqKind int

const (
	reqEvent reqKind = iota + 1
	reqBackup
)

type req struct {
	kind reqKind

	event  game.Event
	backup backupRow
}

type backupRow struct {
	SavedAt       int64
	Path          string
	Gold          float64
	PrestigeCount int
	RecordedAt    string
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{
		db: db,
		// Clicks and collections arrive in bursts.
		ch: make(chan req, 65536),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS catalogs (
			name TEXT PRIMARY KEY,
			digest TEXT NOT NULL,
			json TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			cursor INTEGER NOT NULL,
			tick INTEGER NOT NULL,
			at_ms INTEGER NOT NULL,
			name TEXT NOT NULL,
			data_json TEXT
		);`,
		`CREATE INDEX IF NOT EXISTS idx_events_name_at ON events(name, at_ms);`,
		`CREATE TABLE IF NOT EXISTS deliveries (
			event_id INTEGER PRIMARY KEY,
			at_ms INTEGER NOT NULL,
			cart INTEGER NOT NULL,
			items INTEGER NOT NULL,
			gold REAL NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS kills (
			event_id INTEGER PRIMARY KEY,
			at_ms INTEGER NOT NULL,
			enemy_type TEXT NOT NULL,
			cause TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_kills_type ON kills(enemy_type);`,
		`CREATE TABLE IF NOT EXISTS prestiges (
			event_id INTEGER PRIMARY KEY,
			at_ms INTEGER NOT NULL,
			award INTEGER NOT NULL,
			count INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS waves (
			event_id INTEGER PRIMARY KEY,
			at_ms INTEGER NOT NULL,
			phase TEXT NOT NULL,
			size INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS backups (
			saved_at INTEGER PRIMARY KEY,
			path TEXT NOT NULL,
			gold REAL NOT NULL,
			prestige_count INTEGER NOT NULL,
			recorded_at TEXT NOT NULL
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

// HandleEvent queues e for indexing. It never blocks the game loop.
func (s *SQLiteIndex) HandleEvent(e game.Event) {
	if s == nil || s.closed.Load() {
		return
	}
	select {
	case s.ch <- req{kind: reqEvent, event: e}:
	default:
		s.dropEvent.Add(1)
	}
}

func (s *SQLiteIndex) RecordBackup(path string, h snapshot.Header) {
	if s == nil || s.closed.Load() || path == "" {
		return
	}
	r := backupRow{
		SavedAt:       h.SavedAt,
		Path:          path,
		Gold:          h.Gold,
		PrestigeCount: h.PrestigeCount,
		RecordedAt:    time.Now().UTC().Format(time.RFC3339Nano),
	}
	select {
	case s.ch <- req{kind: reqBackup, backup: r}:
	default:
		s.dropBackup.Add(1)
	}
}

func (s *SQLiteIndex) Stats() SQLiteStats {
	if s == nil {
		return SQLiteStats{}
	}
	return SQLiteStats{
		QueueDepth:       len(s.ch),
		QueueCapacity:    cap(s.ch),
		DropEventTotal:   s.dropEvent.Load(),
		DropBackupTotal:  s.dropBackup.Load(),
		WrittenTotal:     s.written.Load(),
		WriteErrorsTotal: s.writeErrors.Load(),
	}
}

type catalogRow struct {
	name   string
	digest string
	data   []byte
}

// catalogRows renders the catalogs and tuning in load order as stable JSON.
func catalogRows(cats *catalogs.Catalogs, tune tuning.Tuning) []catalogRow {
	var rows []catalogRow
	ores := make([]catalogs.OreDef, 0, len(cats.Ores.Order))
	for _, id := range cats.Ores.Order {
		ores = append(ores, cats.Ores.ByID[id])
	}
	if b, err := json.Marshal(ores); err == nil {
		rows = append(rows, catalogRow{name: "ores", digest: cats.Ores.Digest, data: b})
	}
	enemies := make([]catalogs.EnemyDef, 0, len(cats.Enemies.Order))
	for _, id := range cats.Enemies.Order {
		enemies = append(enemies, cats.Enemies.ByID[id])
	}
	if b, err := json.Marshal(enemies); err == nil {
		rows = append(rows, catalogRow{name: "enemies", digest: cats.Enemies.Digest, data: b})
	}
	nodes := make([]catalogs.PrestigeNodeDef, 0, len(cats.Prestige.Order))
	for _, id := range cats.Prestige.Order {
		nodes = append(nodes, cats.Prestige.ByID[id])
	}
	if b, err := json.Marshal(nodes); err == nil {
		rows = append(rows, catalogRow{name: "prestige", digest: cats.Prestige.Digest, data: b})
	}
	if b, err := json.Marshal(tune); err == nil {
		rows = append(rows, catalogRow{name: "tuning", digest: tune.Digest(), data: b})
	}
	return rows
}

// UpsertCatalogs records the content the server is running with.
func (s *SQLiteIndex) UpsertCatalogs(cats *catalogs.Catalogs, tune tuning.Tuning) error {
	if s == nil || cats == nil {
		return nil
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)

	tx, err := s.db.BeginTx(context.Background(), nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version','1')`); err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO catalogs(name,digest,json,updated_at) VALUES(?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, r := range catalogRows(cats, tune) {
		if r.digest == "" || len(r.data) == 0 {
			continue
		}
		if _, err := stmt.Exec(r.name, r.digest, string(r.data), now); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	var (
		tx            *sql.Tx
		opCount       int
		lastCommit    = time.Now()
		commitEvery   = 2000
		commitMaxWait = 2 * time.Second
	)

	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
		lastCommit = time.Now()
	}
	commit := func() {
		if tx == nil {
			return
		}
		if err := tx.Commit(); err != nil {
			s.writeErrors.Add(1)
		}
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	rollback := func() {
		if tx == nil {
			return
		}
		_ = tx.Rollback()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
		s.writeErrors.Add(1)
	}

	for r := range s.ch {
		begin()
		if tx == nil {
			s.writeErrors.Add(1)
			continue
		}
		var err error
		switch r.kind {
		case reqEvent:
			err = writeEvent(tx, r.event)
		case reqBackup:
			b := r.backup
			_, err = tx.Exec(`INSERT OR REPLACE INTO backups(saved_at,path,gold,prestige_count,recorded_at) VALUES(?,?,?,?,?)`,
				b.SavedAt, b.Path, b.Gold, b.PrestigeCount, b.RecordedAt)
		}
		if err != nil {
			rollback()
			continue
		}
		opCount++
		s.written.Add(1)
		// Readers share the one connection; commit when the queue drains.
		if opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait || len(s.ch) == 0 {
			commit()
		}
	}
	commit()
}

func writeEvent(tx *sql.Tx, e game.Event) error {
	var data any
	if len(e.Data) > 0 {
		b, err := json.Marshal(e.Data)
		if err != nil {
			return err
		}
		data = string(b)
	}
	res, err := tx.Exec(`INSERT INTO events(cursor,tick,at_ms,name,data_json) VALUES(?,?,?,?,?)`,
		int64(e.Cursor), int64(e.Tick), e.AtMS, e.Name, data)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}

	switch e.Name {
	case game.EventDelivery:
		_, err = tx.Exec(`INSERT INTO deliveries(event_id,at_ms,cart,items,gold) VALUES(?,?,?,?,?)`,
			id, e.AtMS, intOf(e.Data["cart"]), intOf(e.Data["items"]), numOf(e.Data["gold"]))
	case game.EventKill:
		_, err = tx.Exec(`INSERT INTO kills(event_id,at_ms,enemy_type,cause) VALUES(?,?,?,?)`,
			id, e.AtMS, strOf(e.Data["type"]), strOf(e.Data["cause"]))
	case game.EventPrestige:
		_, err = tx.Exec(`INSERT INTO prestiges(event_id,at_ms,award,count) VALUES(?,?,?,?)`,
			id, e.AtMS, intOf(e.Data["award"]), intOf(e.Data["count"]))
	case game.EventHorde:
		_, err = tx.Exec(`INSERT INTO waves(event_id,at_ms,phase,size) VALUES(?,?,?,?)`,
			id, e.AtMS, strOf(e.Data["phase"]), intOf(e.Data["size"]))
	}
	return err
}

func numOf(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case uint64:
		return float64(n)
	case json.Number:
		f, _ := n.Float64()
		return f
	}
	return 0
}

func intOf(v any) int64 { return int64(numOf(v)) }

func strOf(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}
