package log

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"

	"idlemine.ai/internal/sim/game"
)

// JSONLZstdWriter appends JSON lines to hourly zstd files named
// <prefix>-YYYY-MM-DD-HH.jsonl.zst.
type JSONLZstdWriter struct {
	baseDir string
	prefix  string
	now     func() time.Time

	// OnRotate receives the path of each file closed by an hourly rotation.
	OnRotate func(path string)

	mu      sync.Mutex
	curHour string
	f       *os.File
	enc     *zstd.Encoder
	w       *bufio.Writer
}

func NewJSONLZstdWriter(baseDir, prefix string) *JSONLZstdWriter {
	return &JSONLZstdWriter{
		baseDir: baseDir,
		prefix:  prefix,
		now:     time.Now,
	}
}

func (w *JSONLZstdWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closeLocked()
}

func (w *JSONLZstdWriter) Write(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	hour := w.now().UTC().Format("2006-01-02-15")
	if hour != w.curHour {
		if err := w.rotateLocked(hour); err != nil {
			return err
		}
	}

	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := w.w.Write(b); err != nil {
		return err
	}
	if err := w.w.WriteByte('\n'); err != nil {
		return err
	}
	return w.w.Flush()
}

func (w *JSONLZstdWriter) rotateLocked(hour string) error {
	prev := w.curHour
	if err := w.closeLocked(); err != nil {
		return err
	}
	if prev != "" && w.OnRotate != nil {
		w.OnRotate(w.pathForHour(prev))
	}
	dir := filepath.Dir(w.pathForHour(hour))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(w.pathForHour(hour), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return err
	}
	w.f = f
	w.enc = enc
	w.w = bufio.NewWriterSize(enc, 128*1024)
	w.curHour = hour
	return nil
}

func (w *JSONLZstdWriter) closeLocked() error {
	var err1 error
	if w.w != nil {
		_ = w.w.Flush()
	}
	if w.enc != nil {
		err1 = w.enc.Close()
		w.enc = nil
	}
	if w.f != nil {
		_ = w.f.Close()
		w.f = nil
	}
	w.w = nil
	return err1
}

func (w *JSONLZstdWriter) pathForHour(hour string) string {
	return filepath.Join(w.baseDir, fmt.Sprintf("%s-%s.jsonl.zst", w.prefix, hour))
}

// EventLogger is a game.EventSink that writes every event to the hourly
// event log. Writes happen on its own goroutine; when the buffer is full
// events are dropped and counted.
type EventLogger struct {
	w      *JSONLZstdWriter
	logger interface{ Printf(string, ...any) }

	ch      chan game.Event
	done    chan struct{}
	once    sync.Once
	mu      sync.Mutex
	dropped uint64
}

func NewEventLogger(dataDir string, logger interface{ Printf(string, ...any) }) *EventLogger {
	return NewEventLoggerWithRotate(dataDir, logger, nil)
}

// NewEventLoggerWithRotate is NewEventLogger with a callback for closed files.
func NewEventLoggerWithRotate(dataDir string, logger interface{ Printf(string, ...any) }, onRotate func(path string)) *EventLogger {
	w := NewJSONLZstdWriter(filepath.Join(dataDir, "events"), "events")
	w.OnRotate = onRotate
	l := &EventLogger{
		w:      w,
		logger: logger,
		ch:     make(chan game.Event, 1024),
		done:   make(chan struct{}),
	}
	go l.run()
	return l
}

func (l *EventLogger) HandleEvent(e game.Event) {
	select {
	case l.ch <- e:
	default:
		l.mu.Lock()
		l.dropped++
		l.mu.Unlock()
	}
}

func (l *EventLogger) Dropped() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.dropped
}

func (l *EventLogger) run() {
	defer close(l.done)
	for e := range l.ch {
		if err := l.w.Write(e); err != nil && l.logger != nil {
			l.logger.Printf("event log: %v", err)
		}
	}
}

// Close flushes pending events and closes the current file.
func (l *EventLogger) Close() error {
	l.once.Do(func() { close(l.ch) })
	<-l.done
	return l.w.Close()
}

// ListEventFiles returns event log files in dir, oldest first.
func ListEventFiles(dir string) ([]string, error) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	names := make([]string, 0, len(ents))
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasPrefix(name, "events-") && strings.HasSuffix(name, ".jsonl.zst") {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	out := make([]string, 0, len(names))
	for _, name := range names {
		out = append(out, filepath.Join(dir, name))
	}
	return out, nil
}

// ReadEvents decodes one event log file and calls fn per event. Returning
// false from fn stops early.
func ReadEvents(path string, fn func(game.Event) bool) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return readEvents(f, filepath.Base(path), fn)
}

func readEvents(r io.Reader, name string, fn func(game.Event) bool) error {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return err
	}
	defer dec.Close()

	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 64*1024), 8*1024*1024)
	for sc.Scan() {
		var e game.Event
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			return fmt.Errorf("%s: unmarshal: %w", name, err)
		}
		if !fn(e) {
			return nil
		}
	}
	return sc.Err()
}
