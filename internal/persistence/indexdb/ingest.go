package indexdb

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"idlemine.ai/internal/persistence/snapshot"
	"idlemine.ai/internal/sim/catalogs"
	"idlemine.ai/internal/sim/game"
	"idlemine.ai/internal/sim/tuning"
)

// HTTPConfig configures the remote ingest sink.
type HTTPConfig struct {
	Endpoint      string
	Token         string
	GameID        string
	BatchSize     int
	FlushInterval time.Duration
	HTTPTimeout   time.Duration
	// MaxRetained caps the events held back after failed flushes.
	MaxRetained int
	Logger      *log.Logger
}

// HTTPIndex posts events in JSON batches to a remote ingest endpoint. A batch
// that fails to send is kept and retried on the next flush.
type HTTPIndex struct {
	cfg        HTTPConfig
	httpClient *http.Client

	ch   chan ingestEvent
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool

	queueDropped atomic.Uint64
	flushOK      atomic.Uint64
	flushFail    atomic.Uint64
	sent         atomic.Uint64
	retained     atomic.Int64
}

type HTTPStats struct {
	QueueDepth        int    `json:"queue_depth"`
	QueueCapacity     int    `json:"queue_capacity"`
	QueueDroppedTotal uint64 `json:"queue_dropped_total"`
	FlushOKTotal      uint64 `json:"flush_ok_total"`
	FlushFailTotal    uint64 `json:"flush_fail_total"`
	SentEventsTotal   uint64 `json:"sent_events_total"`
	Retained          int64  `json:"retained"`
}

type ingestEvent struct {
	Kind    string `json:"kind"`
	GameID  string `json:"game_id"`
	Payload any    `json:"payload"`
}

type ingestCatalogPayload struct {
	Name      string `json:"name"`
	Digest    string `json:"digest"`
	JSON      string `json:"json"`
	UpdatedAt string `json:"updated_at"`
}

type ingestBackupPayload struct {
	Path string          `json:"path"`
	Head snapshot.Header `json:"header"`
}

func OpenHTTP(cfg HTTPConfig) (*HTTPIndex, error) {
	cfg.Endpoint = strings.TrimSpace(cfg.Endpoint)
	cfg.GameID = strings.TrimSpace(cfg.GameID)
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("empty ingest endpoint")
	}
	if cfg.GameID == "" {
		return nil, fmt.Errorf("empty game id")
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 128
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = 500 * time.Millisecond
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 10 * time.Second
	}
	if cfg.MaxRetained < cfg.BatchSize {
		cfg.MaxRetained = 16 * cfg.BatchSize
	}

	d := &HTTPIndex{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.HTTPTimeout},
		ch:         make(chan ingestEvent, 32768),
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.loop()
	}()
	return d, nil
}

func (d *HTTPIndex) Close() error {
	if d == nil {
		return nil
	}
	d.once.Do(func() {
		d.closed.Store(true)
		close(d.ch)
		d.wg.Wait()
	})
	return nil
}

func (d *HTTPIndex) HandleEvent(e game.Event) {
	d.enqueue(ingestEvent{Kind: "event", GameID: d.cfg.GameID, Payload: e})
}

func (d *HTTPIndex) RecordBackup(path string, h snapshot.Header) {
	if path == "" {
		return
	}
	d.enqueue(ingestEvent{Kind: "backup", GameID: d.cfg.GameID, Payload: ingestBackupPayload{Path: path, Head: h}})
}

func (d *HTTPIndex) UpsertCatalogs(cats *catalogs.Catalogs, tune tuning.Tuning) error {
	if d == nil || d.closed.Load() || cats == nil {
		return nil
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	for _, r := range catalogRows(cats, tune) {
		if r.digest == "" || len(r.data) == 0 {
			continue
		}
		d.enqueue(ingestEvent{Kind: "catalog", GameID: d.cfg.GameID, Payload: ingestCatalogPayload{
			Name:      r.name,
			Digest:    r.digest,
			JSON:      string(r.data),
			UpdatedAt: now,
		}})
	}
	return nil
}

func (d *HTTPIndex) Stats() HTTPStats {
	if d == nil {
		return HTTPStats{}
	}
	return HTTPStats{
		QueueDepth:        len(d.ch),
		QueueCapacity:     cap(d.ch),
		QueueDroppedTotal: d.queueDropped.Load(),
		FlushOKTotal:      d.flushOK.Load(),
		FlushFailTotal:    d.flushFail.Load(),
		SentEventsTotal:   d.sent.Load(),
		Retained:          d.retained.Load(),
	}
}

func (d *HTTPIndex) enqueue(ev ingestEvent) {
	if d == nil || d.closed.Load() {
		return
	}
	select {
	case d.ch <- ev:
	default:
		d.queueDropped.Add(1)
		d.printf("ingest queue full; drop kind=%s game=%s", ev.Kind, ev.GameID)
	}
}

func (d *HTTPIndex) loop() {
	ticker := time.NewTicker(d.cfg.FlushInterval)
	defer ticker.Stop()

	batch := make([]ingestEvent, 0, d.cfg.BatchSize)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		n := len(batch)
		if n > d.cfg.BatchSize {
			n = d.cfg.BatchSize
		}
		if err := d.sendBatch(batch[:n]); err != nil {
			d.flushFail.Add(1)
			d.printf("ingest flush failed batch=%d err=%v", n, err)
			d.retained.Store(int64(len(batch)))
			return
		}
		d.flushOK.Add(1)
		d.sent.Add(uint64(n))
		batch = append(batch[:0], batch[n:]...)
		d.retained.Store(int64(len(batch)))
	}

	for {
		in := d.ch
		if len(batch) >= d.cfg.MaxRetained {
			// Leave new events in the queue until the endpoint recovers.
			in = nil
		}
		select {
		case ev, ok := <-in:
			if !ok {
				for len(batch) > 0 {
					before := len(batch)
					flush()
					if len(batch) == before {
						d.printf("ingest closing with %d unsent events", before)
						return
					}
				}
				return
			}
			batch = append(batch, ev)
			if len(batch) >= d.cfg.BatchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}

func (d *HTTPIndex) sendBatch(events []ingestEvent) error {
	body := struct {
		Events []ingestEvent `json:"events"`
	}{Events: events}
	buf, err := json.Marshal(body)
	if err != nil {
		return err
	}

	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		req, err := http.NewRequest(http.MethodPost, d.cfg.Endpoint, bytes.NewReader(buf))
		if err != nil {
			return err
		}
		req.Header.Set("content-type", "application/json")
		if d.cfg.Token != "" {
			req.Header.Set("x-idlemine-index-token", d.cfg.Token)
		}

		resp, err := d.httpClient.Do(req)
		if err == nil {
			respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 16*1024))
			_ = resp.Body.Close()
			if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				return nil
			}
			err = fmt.Errorf("status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(respBody)))
		}
		lastErr = err
		time.Sleep(time.Duration(100*(1<<attempt)) * time.Millisecond)
	}
	return lastErr
}

func (d *HTTPIndex) printf(format string, args ...any) {
	if d != nil && d.cfg.Logger != nil {
		d.cfg.Logger.Printf(format, args...)
	}
}
