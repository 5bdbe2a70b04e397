package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"idlemine.ai/internal/persistence/indexdb"
	"idlemine.ai/internal/persistence/snapshot"
	"idlemine.ai/internal/persistence/store"
)

func main() {
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "restore":
			restoreCmd(os.Args[2:])
			return
		case "db":
			dbCmd(os.Args[2:])
			return
		case "state":
			postOrGet("state", os.Args[2:])
			return
		case "save":
			postOrGet("save", os.Args[2:])
			return
		case "reset":
			postOrGet("reset", os.Args[2:])
			return
		}
	}
	listCmd(os.Args[1:])
}

// listCmd prints every backup in the data dir with its header.
func listCmd(args []string) {
	fs := flag.NewFlagSet("admin", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	_ = fs.Parse(args)

	paths, err := snapshot.ListBackups(filepath.Join(*dataDir, "backups"))
	if err != nil {
		fmt.Fprintln(os.Stderr, "list:", err)
		os.Exit(1)
	}
	for _, p := range paths {
		h, _, err := snapshot.ReadBackup(p)
		if err != nil {
			fmt.Printf("%s\terror=%v\n", filepath.Base(p), err)
			continue
		}
		fmt.Printf("%s\tsaved_at=%s\tgold=%.0f\tprestige=%d\n",
			filepath.Base(p), time.UnixMilli(h.SavedAt).UTC().Format(time.RFC3339), h.Gold, h.PrestigeCount)
	}
}

// restoreCmd overwrites the store record with a backup. Run it with the
// server stopped; a running server would overwrite the record on its next save.
func restoreCmd(args []string) {
	fs := flag.NewFlagSet("restore", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	dbPath := fs.String("db", "", "save store path (default: <data>/save.sqlite)")
	from := fs.String("backup", "", "backup to restore (default: newest)")
	_ = fs.Parse(args)

	path := strings.TrimSpace(*from)
	if path == "" {
		paths, err := snapshot.ListBackups(filepath.Join(*dataDir, "backups"))
		if err != nil || len(paths) == 0 {
			fmt.Fprintln(os.Stderr, "no backup found; provide -backup")
			os.Exit(2)
		}
		path = paths[len(paths)-1]
	}
	_, sv, err := snapshot.ReadBackup(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read backup:", err)
		os.Exit(1)
	}
	raw, err := snapshot.Encode(sv)
	if err != nil {
		fmt.Fprintln(os.Stderr, "encode:", err)
		os.Exit(1)
	}

	dbp := strings.TrimSpace(*dbPath)
	if dbp == "" {
		dbp = filepath.Join(*dataDir, "save.sqlite")
	}
	st, err := store.OpenSQLite(dbp)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open store:", err)
		os.Exit(1)
	}
	defer st.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := st.Set(ctx, snapshot.Key, raw); err != nil {
		fmt.Fprintln(os.Stderr, "write store:", err)
		os.Exit(1)
	}
	fmt.Printf("restored %s into %s (gold=%.0f prestige=%d)\n", path, dbp, sv.Gold, sv.PrestigeCount)
}

// dbCmd queries the sqlite event index: "summary" (default) or "events".
func dbCmd(args []string) {
	fs := flag.NewFlagSet("db", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	dbPath := fs.String("db", "", "index path (default: <data>/index/index.sqlite)")
	name := fs.String("name", "", "event name filter (events)")
	limit := fs.Int("limit", 20, "result limit (events)")
	_ = fs.Parse(args)

	q := "summary"
	if fs.NArg() > 0 {
		q = strings.TrimSpace(fs.Arg(0))
	}
	path := strings.TrimSpace(*dbPath)
	if path == "" {
		path = filepath.Join(*dataDir, "index", "index.sqlite")
	}
	if _, err := os.Stat(path); err != nil {
		fmt.Fprintln(os.Stderr, "index:", err)
		os.Exit(1)
	}
	idx, err := indexdb.OpenSQLite(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open:", err)
		os.Exit(1)
	}
	defer idx.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	var out any
	switch q {
	case "summary":
		out, err = idx.Summary(ctx)
	case "events":
		out, err = idx.RecentEvents(ctx, *name, *limit)
	default:
		fmt.Fprintln(os.Stderr, "unknown query:", q)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "query:", err)
		os.Exit(1)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(out)
}
