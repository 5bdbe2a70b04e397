package offsite

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"idlemine.ai/internal/persistence/snapshot"
)

type Stats struct {
	QueueDepth         int
	QueueCapacity      int
	EnqueuedTotal      uint64
	DroppedTotal       uint64
	UploadSuccessTotal uint64
	UploadFailTotal    uint64
	LastSuccessUnix    int64
	LastErrorUnix      int64
}

type MirrorConfig struct {
	// DataDir is the local root; object keys are paths relative to it.
	DataDir       string
	Prefix        string
	Workers       int
	QueueCapacity int
	// EnqueueWait bounds how long Enqueue blocks on a full queue.
	EnqueueWait time.Duration
	Logger      *log.Logger
}

type job struct {
	path   string
	header *snapshot.Header
}

// Mirror copies closed files (save backups, rotated event logs) to a bucket.
// Uploads run on worker goroutines; a full queue drops the file after
// EnqueueWait.
type Mirror struct {
	client Putter
	cfg    MirrorConfig

	jobs chan job
	wg   sync.WaitGroup
	once sync.Once

	enqueued      atomic.Uint64
	dropped       atomic.Uint64
	uploadOK      atomic.Uint64
	uploadFail    atomic.Uint64
	lastOKUnix    atomic.Int64
	lastErrorUnix atomic.Int64
}

// Putter is the part of Client the mirror needs.
type Putter interface {
	PutFile(ctx context.Context, key, localPath string) error
	PutBytes(ctx context.Context, key string, b []byte) error
}

func NewMirror(client Putter, cfg MirrorConfig) *Mirror {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.QueueCapacity <= 0 {
		cfg.QueueCapacity = 256
	}
	if cfg.EnqueueWait <= 0 {
		cfg.EnqueueWait = 25 * time.Millisecond
	}
	cfg.Prefix = strings.Trim(strings.ReplaceAll(cfg.Prefix, "\\", "/"), "/")
	m := &Mirror{
		client: client,
		cfg:    cfg,
		jobs:   make(chan job, cfg.QueueCapacity),
	}
	for i := 0; i < cfg.Workers; i++ {
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			for j := range m.jobs {
				m.upload(j)
			}
		}()
	}
	return m
}

// Enqueue schedules a closed file for upload.
func (m *Mirror) Enqueue(localPath string) { m.enqueue(job{path: localPath}) }

// EnqueueBackup uploads a save backup and then points LATEST.json at it.
func (m *Mirror) EnqueueBackup(localPath string, h snapshot.Header) {
	m.enqueue(job{path: localPath, header: &h})
}

func (m *Mirror) enqueue(j job) {
	if m == nil {
		return
	}
	m.enqueued.Add(1)
	select {
	case m.jobs <- j:
		return
	default:
	}
	t := time.NewTimer(m.cfg.EnqueueWait)
	defer t.Stop()
	select {
	case m.jobs <- j:
	case <-t.C:
		n := m.dropped.Add(1)
		m.printf("offsite drop local=%s dropped_total=%d", j.path, n)
	}
}

// Close waits for queued uploads to finish.
func (m *Mirror) Close() {
	if m == nil {
		return
	}
	m.once.Do(func() { close(m.jobs) })
	m.wg.Wait()
}

func (m *Mirror) Stats() Stats {
	if m == nil {
		return Stats{}
	}
	return Stats{
		QueueDepth:         len(m.jobs),
		QueueCapacity:      cap(m.jobs),
		EnqueuedTotal:      m.enqueued.Load(),
		DroppedTotal:       m.dropped.Load(),
		UploadSuccessTotal: m.uploadOK.Load(),
		UploadFailTotal:    m.uploadFail.Load(),
		LastSuccessUnix:    m.lastOKUnix.Load(),
		LastErrorUnix:      m.lastErrorUnix.Load(),
	}
}

func (m *Mirror) upload(j job) {
	key, err := m.objectKey(j.path)
	if err != nil {
		m.printf("offsite skip local=%s err=%v", j.path, err)
		return
	}
	err = retry(func(ctx context.Context) error { return m.client.PutFile(ctx, key, j.path) })
	if err == nil && j.header != nil {
		var b []byte
		b, err = json.Marshal(latestPointer{Key: key, Header: *j.header})
		if err == nil {
			err = retry(func(ctx context.Context) error {
				return m.client.PutBytes(ctx, m.join("backups/LATEST.json"), b)
			})
		}
	}
	if err != nil {
		m.uploadFail.Add(1)
		m.lastErrorUnix.Store(time.Now().Unix())
		m.printf("offsite upload failed key=%s err=%v", key, err)
		return
	}
	m.uploadOK.Add(1)
	m.lastOKUnix.Store(time.Now().Unix())
}

type latestPointer struct {
	Key    string          `json:"key"`
	Header snapshot.Header `json:"header"`
}

func retry(put func(ctx context.Context) error) error {
	const attempts = 4
	var err error
	for i := 1; i <= attempts; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		err = put(ctx)
		cancel()
		if err == nil {
			return nil
		}
		if i < attempts {
			time.Sleep(time.Duration(i*i) * 200 * time.Millisecond)
		}
	}
	return err
}

func (m *Mirror) objectKey(localPath string) (string, error) {
	base, err := filepath.Abs(m.cfg.DataDir)
	if err != nil {
		return "", err
	}
	abs, err := filepath.Abs(localPath)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(base, abs)
	if err != nil {
		return "", err
	}
	rel = filepath.ToSlash(rel)
	if rel == "." || rel == ".." || strings.HasPrefix(rel, "../") {
		return "", fmt.Errorf("%s is outside %s", abs, base)
	}
	return m.join(rel), nil
}

func (m *Mirror) join(rel string) string {
	if m.cfg.Prefix == "" {
		return rel
	}
	return path.Join(m.cfg.Prefix, rel)
}

func (m *Mirror) printf(format string, args ...any) {
	if m.cfg.Logger != nil {
		m.cfg.Logger.Printf(format, args...)
	}
}
