package ws

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"idlemine.ai/internal/protocol"
	"idlemine.ai/internal/sim/catalogs"
	"idlemine.ai/internal/sim/game"
	"idlemine.ai/internal/sim/tuning"
)

func startServer(t *testing.T, cfg Config) (*game.Game, string) {
	t.Helper()
	g, err := game.New(game.Config{Tuning: tuning.Defaults(), Catalogs: catalogs.Default(), Seed: 1})
	if err != nil {
		t.Fatalf("game.New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = g.Run(ctx) }()

	srv := httptest.NewServer(NewServer(g, nil, cfg).Handler())
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return g, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string, controller bool) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	hello := protocol.HelloMsg{
		Type:            protocol.TypeHello,
		ProtocolVersion: protocol.Version,
		ClientName:      "test",
		Capabilities:    protocol.HelloCapabilities{Controller: controller, MaxQueue: 4},
	}
	if err := conn.WriteJSON(hello); err != nil {
		t.Fatalf("write hello: %v", err)
	}
	return conn
}

// readType reads until a message of type typ arrives and returns it raw.
func readType(t *testing.T, conn *websocket.Conn, typ string) []byte {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		_ = conn.SetReadDeadline(deadline)
		_, msg, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read waiting for %s: %v", typ, err)
		}
		base, err := protocol.DecodeBase(msg)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if base.Type == typ {
			return msg
		}
	}
	t.Fatalf("timed out waiting for %s", typ)
	return nil
}

func sendAction(t *testing.T, conn *websocket.Conn, id, action string) protocol.AckMsg {
	t.Helper()
	act := protocol.ActionMsg{Type: protocol.TypeAction, ProtocolVersion: protocol.Version, ID: id, Action: action}
	if err := conn.WriteJSON(act); err != nil {
		t.Fatalf("write action: %v", err)
	}
	var ack protocol.AckMsg
	if err := json.Unmarshal(readType(t, conn, protocol.TypeAck), &ack); err != nil {
		t.Fatalf("ack: %v", err)
	}
	if ack.AckFor != id {
		t.Fatalf("ack_for=%q want %q", ack.AckFor, id)
	}
	return ack
}

func TestHandshake_WelcomeAndCatalogs(t *testing.T) {
	g, url := startServer(t, Config{})
	conn := dial(t, url, true)

	var welcome protocol.WelcomeMsg
	if err := json.Unmarshal(readType(t, conn, protocol.TypeWelcome), &welcome); err != nil {
		t.Fatalf("welcome: %v", err)
	}
	if welcome.SessionID == "" || !welcome.Controller {
		t.Fatalf("welcome: %+v", welcome)
	}
	if welcome.Catalogs.Ores.Digest != g.Catalogs().Ores.Digest {
		t.Fatalf("ores digest mismatch")
	}
	names := map[string]bool{}
	for i := 0; i < 3; i++ {
		var c protocol.CatalogMsg
		if err := json.Unmarshal(readType(t, conn, protocol.TypeCatalog), &c); err != nil {
			t.Fatalf("catalog: %v", err)
		}
		names[c.Name] = true
	}
	if !names["ores"] || !names["enemies"] || !names["prestige"] {
		t.Fatalf("catalogs: %v", names)
	}
	readType(t, conn, protocol.TypeFrame)
}

func TestAction_ClickIsAcked(t *testing.T) {
	_, url := startServer(t, Config{})
	conn := dial(t, url, true)
	readType(t, conn, protocol.TypeWelcome)

	ack := sendAction(t, conn, "a1", game.ActClick)
	if !ack.Accepted || ack.Gold < 1 {
		t.Fatalf("ack: %+v", ack)
	}
	ack = sendAction(t, conn, "a2", game.ActHireDwarf)
	if ack.Accepted || ack.Code != protocol.ErrNoResource {
		t.Fatalf("dwarf without gold: %+v", ack)
	}
}

func TestAction_SpectatorRefused(t *testing.T) {
	_, url := startServer(t, Config{})
	conn := dial(t, url, false)
	readType(t, conn, protocol.TypeWelcome)

	ack := sendAction(t, conn, "s1", game.ActClick)
	if ack.Accepted || ack.Code != protocol.ErrBadRequest {
		t.Fatalf("spectator ack: %+v", ack)
	}
}

func TestAction_RateLimited(t *testing.T) {
	_, url := startServer(t, Config{ActionsPerSecond: 0.001, ActionBurst: 1})
	conn := dial(t, url, true)
	readType(t, conn, protocol.TypeWelcome)

	if ack := sendAction(t, conn, "r1", game.ActClick); !ack.Accepted {
		t.Fatalf("first action refused: %+v", ack)
	}
	if ack := sendAction(t, conn, "r2", game.ActClick); ack.Code != protocol.ErrRateLimit {
		t.Fatalf("second action: %+v", ack)
	}
}

func TestEventBatch_ReturnsClicks(t *testing.T) {
	_, url := startServer(t, Config{})
	conn := dial(t, url, true)
	readType(t, conn, protocol.TypeWelcome)
	sendAction(t, conn, "c1", game.ActClick)

	req := protocol.EventBatchReqMsg{Type: protocol.TypeEventBatchReq, ProtocolVersion: protocol.Version, ReqID: "q1", Limit: 10}
	if err := conn.WriteJSON(req); err != nil {
		t.Fatalf("write: %v", err)
	}
	var batch protocol.EventBatchMsg
	if err := json.Unmarshal(readType(t, conn, protocol.TypeEventBatch), &batch); err != nil {
		t.Fatalf("batch: %v", err)
	}
	found := false
	for _, e := range batch.Events {
		if e.Name == game.EventClick {
			found = true
		}
	}
	if batch.ReqID != "q1" || !found || batch.NextCursor == 0 {
		t.Fatalf("batch: %+v", batch)
	}
}

func TestHandshake_RejectsNonHello(t *testing.T) {
	_, url := startServer(t, Config{})
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	if err := conn.WriteJSON(map[string]string{"type": protocol.TypeAction}); err != nil {
		t.Fatalf("write: %v", err)
	}
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Fatalf("expected close after non-HELLO first message")
	}
}
