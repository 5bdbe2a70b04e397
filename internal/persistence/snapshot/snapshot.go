package snapshot

import (
	"bufio"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/compress/zstd"
)

// Header is the first line of a backup file, readable without decoding the
// body.
type Header struct {
	Version       int     `json:"version"`
	SavedAt       int64   `json:"saved_at"`
	Gold          float64 `json:"gold"`
	PrestigeCount int     `json:"prestige_count"`
}

func HeaderOf(s SaveV1) Header {
	v := s.Version
	if v == 0 {
		v = SaveVersion
	}
	return Header{Version: v, SavedAt: s.SavedAt, Gold: s.Gold, PrestigeCount: s.PrestigeCount}
}

// BackupName returns the file name for a backup taken at savedAt.
func BackupName(savedAt int64) string {
	return fmt.Sprintf("%013d.save.zst", savedAt)
}

func WriteBackup(path string, s SaveV1) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	defer enc.Close()

	bw := bufio.NewWriterSize(enc, 64*1024)
	defer bw.Flush()

	hb, _ := json.Marshal(HeaderOf(s))
	if _, err := bw.Write(hb); err != nil {
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		return err
	}
	if err := gob.NewEncoder(bw).Encode(s); err != nil {
		return fmt.Errorf("gob encode: %w", err)
	}
	return nil
}

func ReadBackup(path string) (Header, SaveV1, error) {
	f, err := os.Open(path)
	if err != nil {
		return Header{}, SaveV1{}, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return Header{}, SaveV1{}, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 64*1024)
	line, err := br.ReadBytes('\n')
	if err != nil {
		return Header{}, SaveV1{}, err
	}
	var h Header
	if err := json.Unmarshal(line, &h); err != nil {
		return Header{}, SaveV1{}, fmt.Errorf("header: %w", err)
	}
	var s SaveV1
	if err := gob.NewDecoder(br).Decode(&s); err != nil {
		return h, SaveV1{}, fmt.Errorf("gob decode: %w", err)
	}
	return h, s, nil
}

// ListBackups returns backup paths in dir, oldest first.
func ListBackups(dir string) ([]string, error) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var names []string
	for _, e := range ents {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".save.zst") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	out := make([]string, 0, len(names))
	for _, n := range names {
		out = append(out, filepath.Join(dir, n))
	}
	return out, nil
}

// PruneBackups removes all but the newest keep backups in dir.
func PruneBackups(dir string, keep int) error {
	paths, err := ListBackups(dir)
	if err != nil {
		return err
	}
	if keep < 0 {
		keep = 0
	}
	for len(paths) > keep {
		if err := os.Remove(paths[0]); err != nil && !os.IsNotExist(err) {
			return err
		}
		paths = paths[1:]
	}
	return nil
}
