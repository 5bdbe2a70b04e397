package snapshot

import (
	"os"
	"path/filepath"
	"testing"
)

func TestBackup_WriteRead(t *testing.T) {
	dir := t.TempDir()
	s := testDefaults()
	s.Gold = 42
	s.SavedAt = 1000
	s.PrestigeCount = 3
	s.PrestigeNodes = map[string]int{"gold-multiplier": 1}

	path := filepath.Join(dir, BackupName(s.SavedAt))
	if err := WriteBackup(path, s); err != nil {
		t.Fatalf("write: %v", err)
	}
	h, got, err := ReadBackup(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if h.Version != SaveVersion || h.SavedAt != 1000 || h.PrestigeCount != 3 || h.Gold != 42 {
		t.Fatalf("header: %+v", h)
	}
	if got.Gold != 42 || got.PrestigeNodes["gold-multiplier"] != 1 || got.UnlockedOres["coal"].SpawnRate != 5000 {
		t.Fatalf("body: %+v", got)
	}
}

func TestBackup_Prune(t *testing.T) {
	dir := t.TempDir()
	for _, at := range []int64{3000, 1000, 2000} {
		s := testDefaults()
		s.SavedAt = at
		if err := WriteBackup(filepath.Join(dir, BackupName(at)), s); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := PruneBackups(dir, 2); err != nil {
		t.Fatalf("prune: %v", err)
	}
	paths, err := ListBackups(dir)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(paths) != 2 || filepath.Base(paths[0]) != BackupName(2000) {
		t.Fatalf("paths: %v", paths)
	}
	if _, err := os.Stat(filepath.Join(dir, "notes.txt")); err != nil {
		t.Fatalf("unrelated file removed: %v", err)
	}
}

func TestListBackups_MissingDir(t *testing.T) {
	paths, err := ListBackups(filepath.Join(t.TempDir(), "nope"))
	if err != nil || len(paths) != 0 {
		t.Fatalf("got %v %v", paths, err)
	}
}
