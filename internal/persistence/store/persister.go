package store

import (
	"context"
	"io"
	"log"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"idlemine.ai/internal/persistence/snapshot"
)

type PersisterConfig struct {
	// BackupDir receives zstd backups; empty disables them.
	BackupDir   string
	KeepBackups int
	// WriteTimeout bounds a single store write.
	WriteTimeout time.Duration
	Logger       *log.Logger
	// OnBackup, if set, is called after each backup file is written.
	OnBackup func(path string, h snapshot.Header)
}

// PersistStats are cumulative counters for /metrics.
type PersistStats struct {
	Saved       uint64 `json:"saved"`
	Superseded  uint64 `json:"superseded"`
	StaleDrops  uint64 `json:"stale_drops"`
	SaveErrors  uint64 `json:"save_errors"`
	Backups     uint64 `json:"backups"`
	BackupDrops uint64 `json:"backup_drops"`
	BackupErrs  uint64 `json:"backup_errors"`
}

type pendingSave struct {
	gen  uint64
	save snapshot.SaveV1
}

// Persister writes save records off the game loop. Only the newest pending
// record is kept; records from a generation older than the last Reset are
// dropped.
type Persister struct {
	st     Store
	cfg    PersisterConfig
	logger *log.Logger

	mu     sync.Mutex
	latest *pendingSave
	minGen uint64

	// writeMu orders store writes against Reset's Clear.
	writeMu sync.Mutex
	// flushMu makes Flush wait for a write already in flight.
	flushMu sync.Mutex

	wake    chan struct{}
	backups chan pendingSave
	stop    chan struct{}
	wg      sync.WaitGroup
	once    sync.Once

	saved, superseded, staleDrops, saveErrs atomic.Uint64
	backupsDone, backupDrops, backupErrs    atomic.Uint64
}

func NewPersister(st Store, cfg PersisterConfig) *Persister {
	if cfg.Logger == nil {
		cfg.Logger = log.New(io.Discard, "", 0)
	}
	if cfg.KeepBackups <= 0 {
		cfg.KeepBackups = 24
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 5 * time.Second
	}
	p := &Persister{
		st:      st,
		cfg:     cfg,
		logger:  cfg.Logger,
		wake:    make(chan struct{}, 1),
		backups: make(chan pendingSave, 1),
		stop:    make(chan struct{}),
	}
	p.wg.Add(2)
	go func() {
		defer p.wg.Done()
		p.saveLoop()
	}()
	go func() {
		defer p.wg.Done()
		p.backupLoop()
	}()
	return p
}

func (p *Persister) Save(gen uint64, s snapshot.SaveV1) {
	p.mu.Lock()
	if gen < p.minGen {
		p.mu.Unlock()
		p.staleDrops.Add(1)
		return
	}
	if p.latest != nil {
		p.superseded.Add(1)
	}
	p.latest = &pendingSave{gen: gen, save: s}
	p.mu.Unlock()

	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// Backup queues a backup of s. Like saves, backups from a generation older
// than the last Reset are never written.
func (p *Persister) Backup(gen uint64, s snapshot.SaveV1) {
	if p.cfg.BackupDir == "" {
		return
	}
	if p.stale(gen) {
		p.backupDrops.Add(1)
		return
	}
	b := pendingSave{gen: gen, save: s}
	select {
	case p.backups <- b:
		return
	default:
	}
	// Replace the queued one.
	select {
	case <-p.backups:
		p.backupDrops.Add(1)
	default:
	}
	select {
	case p.backups <- b:
	default:
		p.backupDrops.Add(1)
	}
}

// Reset drops pending saves older than gen, clears the store and removes
// every backup.
func (p *Persister) Reset(ctx context.Context, gen uint64) error {
	p.mu.Lock()
	if gen > p.minGen {
		p.minGen = gen
	}
	if p.latest != nil && p.latest.gen < p.minGen {
		p.latest = nil
		p.staleDrops.Add(1)
	}
	p.mu.Unlock()
	select {
	case <-p.backups:
		p.backupDrops.Add(1)
	default:
	}

	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	if err := p.st.Clear(ctx); err != nil {
		return err
	}
	if p.cfg.BackupDir != "" {
		if err := snapshot.PruneBackups(p.cfg.BackupDir, 0); err != nil {
			p.logger.Printf("reset backups: %v", err)
		}
	}
	return nil
}

func (p *Persister) Stats() PersistStats {
	return PersistStats{
		Saved:       p.saved.Load(),
		Superseded:  p.superseded.Load(),
		StaleDrops:  p.staleDrops.Load(),
		SaveErrors:  p.saveErrs.Load(),
		Backups:     p.backupsDone.Load(),
		BackupDrops: p.backupDrops.Load(),
		BackupErrs:  p.backupErrs.Load(),
	}
}

// Flush writes the pending record, if any, before returning.
func (p *Persister) Flush() {
	p.writeLatest()
}

// Close flushes the pending record and stops the writers. It does not close
// the underlying store.
func (p *Persister) Close() error {
	p.once.Do(func() {
		close(p.stop)
		p.wg.Wait()
		p.writeLatest()
	})
	return nil
}

func (p *Persister) take() *pendingSave {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := p.latest
	p.latest = nil
	return s
}

func (p *Persister) stale(gen uint64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return gen < p.minGen
}

func (p *Persister) saveLoop() {
	for {
		select {
		case <-p.stop:
			return
		case <-p.wake:
			p.writeLatest()
		}
	}
}

func (p *Persister) writeLatest() {
	p.flushMu.Lock()
	defer p.flushMu.Unlock()
	ps := p.take()
	if ps == nil {
		return
	}
	raw, err := snapshot.Encode(ps.save)
	if err != nil {
		p.saveErrs.Add(1)
		p.logger.Printf("encode: %v", err)
		return
	}

	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	if p.stale(ps.gen) {
		p.staleDrops.Add(1)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), p.cfg.WriteTimeout)
	defer cancel()
	if err := p.st.Set(ctx, snapshot.Key, raw); err != nil {
		p.saveErrs.Add(1)
		p.logger.Printf("save: %v", err)
		return
	}
	p.saved.Add(1)
}

func (p *Persister) backupLoop() {
	for {
		select {
		case <-p.stop:
			return
		case b := <-p.backups:
			p.writeBackup(b)
		}
	}
}

func (p *Persister) writeBackup(b pendingSave) {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	if p.stale(b.gen) {
		p.backupDrops.Add(1)
		return
	}
	s := b.save
	path := filepath.Join(p.cfg.BackupDir, snapshot.BackupName(s.SavedAt))
	if err := snapshot.WriteBackup(path, s); err != nil {
		p.backupErrs.Add(1)
		p.logger.Printf("backup %s: %v", path, err)
		return
	}
	p.backupsDone.Add(1)
	if p.cfg.OnBackup != nil {
		p.cfg.OnBackup(path, snapshot.HeaderOf(s))
	}
	if err := snapshot.PruneBackups(p.cfg.BackupDir, p.cfg.KeepBackups); err != nil {
		p.logger.Printf("prune backups: %v", err)
	}
}
