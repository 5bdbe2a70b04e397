package observer

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"idlemine.ai/internal/observerproto"
	"idlemine.ai/internal/sim/game"
)

// Server is a read-only, loopback-only spectator stream for operators.
type Server struct {
	game *game.Game
	log  *log.Logger

	upgrader websocket.Upgrader
}

func NewServer(g *game.Game, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Server{
		game: g,
		log:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
}

func (s *Server) BootstrapHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			rw.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if !IsLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}
		resp := observerproto.BootstrapResponse{
			ProtocolVersion: observerproto.Version,
			Tick:            s.game.CurrentTick(),
			GameParams:      s.game.Params(),
			Catalogs:        s.game.CatalogDigests(),
		}
		rw.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(rw).Encode(resp)
	}
}

type settings struct {
	frameEvery    int
	statusEveryMS int
}

func (s *Server) WSHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if !IsLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}

		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		// Handshake: must send SUBSCRIBE first.
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var sub observerproto.SubscribeMsg
		if err := json.Unmarshal(msg, &sub); err != nil {
			_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "bad subscribe"), time.Now().Add(time.Second))
			return
		}
		if sub.Type != "SUBSCRIBE" || sub.ProtocolVersion != observerproto.Version {
			_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "expected SUBSCRIBE"), time.Now().Add(time.Second))
			return
		}
		var cur atomic.Value
		cur.Store(normalizeSubscribe(sub))

		sid := "O-" + uuid.NewString()
		frames := make(chan []byte, 4)
		select {
		case s.game.Subscribe() <- game.SubscribeRequest{ID: sid, Out: frames}:
		default:
			_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "server busy"), time.Now().Add(time.Second))
			return
		}
		defer func() {
			select {
			case s.game.Unsubscribe() <- sid:
			default:
				// Game loop is stopping; nothing else to do.
			}
		}()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// Writer goroutine.
		writeErr := make(chan error, 1)
		go func() {
			writeErr <- s.writeLoop(ctx, conn, sid, frames, &cur)
		}()

		// Reader loop: allow SUBSCRIBE updates.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				break
			}
			var sub observerproto.SubscribeMsg
			if err := json.Unmarshal(msg, &sub); err != nil {
				continue
			}
			if sub.Type != "SUBSCRIBE" || sub.ProtocolVersion != observerproto.Version {
				continue
			}
			cur.Store(normalizeSubscribe(sub))
		}

		cancel()
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"), time.Now().Add(time.Second))

		// Best-effort wait for the writer to stop so it doesn't outlive conn.
		select {
		case <-writeErr:
		case <-time.After(500 * time.Millisecond):
		}
	}
}

func (s *Server) writeLoop(ctx context.Context, conn *websocket.Conn, sid string, frames <-chan []byte, cur *atomic.Value) error {
	status := time.NewTicker(100 * time.Millisecond)
	defer status.Stop()
	var (
		seen       int
		lastStatus time.Time
	)
	write := func(b []byte) error {
		_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		return conn.WriteMessage(websocket.TextMessage, b)
	}
	for {
		st := cur.Load().(settings)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case b := <-frames:
			seen++
			if seen%st.frameEvery != 0 {
				continue
			}
			if err := write(b); err != nil {
				return err
			}
		case now := <-status.C:
			if st.statusEveryMS <= 0 || now.Sub(lastStatus) < time.Duration(st.statusEveryMS)*time.Millisecond {
				continue
			}
			lastStatus = now
			b, err := json.Marshal(observerproto.StatusMsg{
				Type:            "STATUS",
				ProtocolVersion: observerproto.Version,
				SessionID:       sid,
				Metrics:         s.game.Metrics(),
			})
			if err != nil {
				continue
			}
			if err := write(b); err != nil {
				return err
			}
		}
	}
}

func normalizeSubscribe(sub observerproto.SubscribeMsg) settings {
	st := settings{frameEvery: sub.FrameEvery, statusEveryMS: sub.StatusEveryMS}
	if st.frameEvery <= 0 {
		st.frameEvery = 1
	}
	if st.frameEvery > 600 {
		st.frameEvery = 600
	}
	if st.statusEveryMS > 0 && st.statusEveryMS < 100 {
		st.statusEveryMS = 100
	}
	return st
}

func IsLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
