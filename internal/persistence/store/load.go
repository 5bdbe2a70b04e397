package store

import (
	"context"
	"io"
	"log"

	"idlemine.ai/internal/persistence/snapshot"
)

// Source says where a loaded record came from.
type Source string

const (
	SourceStore  Source = "store"
	SourceBackup Source = "backup"
	SourceFresh  Source = "fresh"
)

// Load restores the save: the store record if readable, else the newest
// backup in backupDir, else def. Problems are logged, never returned; a
// broken save must not keep the game from starting.
func Load(ctx context.Context, st Store, backupDir string, def snapshot.SaveV1, now int64, logger *log.Logger) (snapshot.SaveV1, Source) {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	if st != nil {
		raw, ok, err := st.Get(ctx, snapshot.Key)
		switch {
		case err != nil:
			logger.Printf("load: %v", err)
		case ok:
			if verr := snapshot.Validate(raw); verr != nil {
				logger.Printf("load: %v", verr)
			}
			s, derr := snapshot.Decode(raw, def, now)
			if derr == nil {
				return s, SourceStore
			}
			logger.Printf("load: %v", derr)
		}
	}

	if backupDir != "" {
		paths, err := snapshot.ListBackups(backupDir)
		if err != nil {
			logger.Printf("list backups: %v", err)
		}
		for i := len(paths) - 1; i >= 0; i-- {
			_, s, err := snapshot.ReadBackup(paths[i])
			if err != nil {
				logger.Printf("backup %s: %v", paths[i], err)
				continue
			}
			return s, SourceBackup
		}
	}
	return def, SourceFresh
}
