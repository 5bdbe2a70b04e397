package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"idlemine.ai/internal/persistence/indexdb"
	"idlemine.ai/internal/persistence/snapshot"
	"idlemine.ai/internal/sim/catalogs"
	"idlemine.ai/internal/sim/game"
	"idlemine.ai/internal/sim/tuning"
)

type runtimeIndex interface {
	game.EventSink
	RecordBackup(path string, h snapshot.Header)
	UpsertCatalogs(cats *catalogs.Catalogs, tune tuning.Tuning) error
	Close() error
}

func openRuntimeIndex(dataDir, gameID string, disable bool, logger *log.Logger) (runtimeIndex, error) {
	if disable {
		return nil, nil
	}

	backend := strings.ToLower(strings.TrimSpace(os.Getenv("IM_INDEX_BACKEND")))
	if backend == "" {
		backend = "sqlite"
	}

	switch backend {
	case "none", "off", "disabled":
		return nil, nil
	case "sqlite":
		return indexdb.OpenSQLite(filepath.Join(dataDir, "index", "index.sqlite"))
	case "http":
		endpoint := strings.TrimSpace(os.Getenv("IM_INDEX_INGEST_URL"))
		if endpoint == "" {
			return nil, fmt.Errorf("IM_INDEX_BACKEND=http but IM_INDEX_INGEST_URL is empty")
		}
		return indexdb.OpenHTTP(indexdb.HTTPConfig{
			Endpoint:      endpoint,
			Token:         strings.TrimSpace(os.Getenv("IM_INDEX_INGEST_TOKEN")),
			GameID:        gameID,
			BatchSize:     envInt("IM_INDEX_BATCH_SIZE", 128),
			FlushInterval: time.Duration(envInt("IM_INDEX_FLUSH_MS", 500)) * time.Millisecond,
			Logger:        logger,
		})
	default:
		return nil, fmt.Errorf("unsupported IM_INDEX_BACKEND: %s", backend)
	}
}

func writeIndexMetrics(rw http.ResponseWriter, idx runtimeIndex) {
	switch x := idx.(type) {
	case *indexdb.SQLiteIndex:
		s := x.Stats()
		fmt.Fprintf(rw, "# HELP idlemine_index_queue_depth Pending index writes.\n")
		fmt.Fprintf(rw, "# TYPE idlemine_index_queue_depth gauge\n")
		fmt.Fprintf(rw, "idlemine_index_queue_depth{backend=%q} %d\n", "sqlite", s.QueueDepth)
		fmt.Fprintf(rw, "# HELP idlemine_index_dropped_total Index records dropped on a full queue.\n")
		fmt.Fprintf(rw, "# TYPE idlemine_index_dropped_total counter\n")
		fmt.Fprintf(rw, "idlemine_index_dropped_total{backend=%q,kind=%q} %d\n", "sqlite", "event", s.DropEventTotal)
		fmt.Fprintf(rw, "idlemine_index_dropped_total{backend=%q,kind=%q} %d\n", "sqlite", "backup", s.DropBackupTotal)
		fmt.Fprintf(rw, "# HELP idlemine_index_written_total Index records written.\n")
		fmt.Fprintf(rw, "# TYPE idlemine_index_written_total counter\n")
		fmt.Fprintf(rw, "idlemine_index_written_total{backend=%q} %d\n", "sqlite", s.WrittenTotal)
		fmt.Fprintf(rw, "# HELP idlemine_index_write_errors_total Failed index transactions.\n")
		fmt.Fprintf(rw, "# TYPE idlemine_index_write_errors_total counter\n")
		fmt.Fprintf(rw, "idlemine_index_write_errors_total{backend=%q} %d\n", "sqlite", s.WriteErrorsTotal)
	case *indexdb.HTTPIndex:
		s := x.Stats()
		fmt.Fprintf(rw, "# HELP idlemine_index_queue_depth Pending index writes.\n")
		fmt.Fprintf(rw, "# TYPE idlemine_index_queue_depth gauge\n")
		fmt.Fprintf(rw, "idlemine_index_queue_depth{backend=%q} %d\n", "http", s.QueueDepth)
		fmt.Fprintf(rw, "# HELP idlemine_index_dropped_total Index records dropped on a full queue.\n")
		fmt.Fprintf(rw, "# TYPE idlemine_index_dropped_total counter\n")
		fmt.Fprintf(rw, "idlemine_index_dropped_total{backend=%q,kind=%q} %d\n", "http", "event", s.QueueDroppedTotal)
		fmt.Fprintf(rw, "# HELP idlemine_index_flush_total Ingest batch flushes by result.\n")
		fmt.Fprintf(rw, "# TYPE idlemine_index_flush_total counter\n")
		fmt.Fprintf(rw, "idlemine_index_flush_total{result=%q} %d\n", "ok", s.FlushOKTotal)
		fmt.Fprintf(rw, "idlemine_index_flush_total{result=%q} %d\n", "fail", s.FlushFailTotal)
		fmt.Fprintf(rw, "# HELP idlemine_index_retained Events held for retry after a failed flush.\n")
		fmt.Fprintf(rw, "# TYPE idlemine_index_retained gauge\n")
		fmt.Fprintf(rw, "idlemine_index_retained %d\n", s.Retained)
	}
}
