package main

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"idlemine.ai/internal/persistence/indexdb"
	"idlemine.ai/internal/persistence/snapshot"
	"idlemine.ai/internal/persistence/store"
	"idlemine.ai/internal/sim/catalogs"
	"idlemine.ai/internal/sim/game"
	"idlemine.ai/internal/sim/tuning"
)

func newTestRuntime(t *testing.T, admin bool) (*runtime, *store.Memory, *httptest.Server) {
	t.Helper()
	g, err := game.New(game.Config{Tuning: tuning.Defaults(), Catalogs: catalogs.Default(), Seed: 7})
	if err != nil {
		t.Fatalf("game.New: %v", err)
	}
	mem := store.NewMemory()
	p := store.NewPersister(mem, store.PersisterConfig{BackupDir: filepath.Join(t.TempDir(), "backups")})
	g.SetSaver(p)

	idx, err := indexdb.OpenSQLite(filepath.Join(t.TempDir(), "index.sqlite"))
	if err != nil {
		t.Fatalf("index: %v", err)
	}
	g.AddSink(idx)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = g.Run(ctx)
	}()

	rt := &runtime{
		game:      g,
		persister: p,
		index:     idx,
		logger:    log.New(io.Discard, "", 0),
		admin:     admin,
	}
	srv := httptest.NewServer(rt.routes())
	t.Cleanup(func() {
		srv.Close()
		cancel()
		<-done
		_ = p.Close()
		_ = idx.Close()
	})
	return rt, mem, srv
}

func TestHealthzAndMetrics(t *testing.T) {
	_, _, srv := newTestRuntime(t, false)

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("healthz: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != 200 {
		t.Fatalf("healthz status: %d", resp.StatusCode)
	}

	resp, err = http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	for _, want := range []string{
		"# TYPE idlemine_tick gauge",
		`idlemine_entities{kind="ore"}`,
		`idlemine_persist_total{outcome="saved"}`,
		`idlemine_index_queue_depth{backend="sqlite"}`,
	} {
		if !strings.Contains(string(body), want) {
			t.Fatalf("metrics missing %q:\n%s", want, body)
		}
	}
}

func TestBootstrap(t *testing.T) {
	rt, _, srv := newTestRuntime(t, false)
	resp, err := http.Get(srv.URL + "/v1/bootstrap")
	if err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	defer resp.Body.Close()
	var got struct {
		Catalogs struct {
			TuningDigest string `json:"tuning_digest"`
		} `json:"catalogs"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if want := rt.game.CatalogDigests().TuningDigest; got.Catalogs.TuningDigest != want {
		t.Fatalf("tuning digest: got %q want %q", got.Catalogs.TuningDigest, want)
	}
}

func TestAdminDisabled(t *testing.T) {
	_, _, srv := newTestRuntime(t, false)
	resp, err := http.Post(srv.URL+"/admin/v1/save", "application/json", nil)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status: got %d want 404", resp.StatusCode)
	}
}

func TestAdminSaveWritesStore(t *testing.T) {
	rt, mem, srv := newTestRuntime(t, true)

	resp, err := http.Get(srv.URL + "/admin/v1/save")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("GET save: got %d want 405", resp.StatusCode)
	}

	resp, err = http.Post(srv.URL+"/admin/v1/save", "application/json", nil)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	var out struct {
		OK bool `json:"ok"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	resp.Body.Close()
	if resp.StatusCode != 200 || !out.OK {
		t.Fatalf("save: status=%d ok=%v", resp.StatusCode, out.OK)
	}

	rt.persister.Flush()
	if _, ok, err := mem.Get(context.Background(), snapshot.Key); err != nil || !ok {
		t.Fatalf("store after save: ok=%v err=%v", ok, err)
	}
}

func TestAdminResetAndState(t *testing.T) {
	_, _, srv := newTestRuntime(t, true)

	resp, err := http.Post(srv.URL+"/admin/v1/reset", "application/json", nil)
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != 200 {
		t.Fatalf("reset status: %d", resp.StatusCode)
	}

	resp, err = http.Get(srv.URL + "/admin/v1/state")
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	defer resp.Body.Close()
	var st struct {
		Metrics game.GameMetrics `json:"metrics"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if st.Metrics.PrestigeCount != 0 {
		t.Fatalf("prestige after reset: %d", st.Metrics.PrestigeCount)
	}

	resp2, err := http.Get(srv.URL + "/admin/v1/index/summary")
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	resp2.Body.Close()
	if resp2.StatusCode != 200 {
		t.Fatalf("summary status: %d", resp2.StatusCode)
	}
}
