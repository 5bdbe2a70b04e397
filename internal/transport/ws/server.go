package ws

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"idlemine.ai/internal/protocol"
	"idlemine.ai/internal/sim/game"
)

type Config struct {
	// ActionsPerSecond and ActionBurst bound ACTION messages per connection.
	ActionsPerSecond float64
	ActionBurst      int
	// ActionTimeout bounds the wait for the game loop to apply an action.
	ActionTimeout time.Duration
}

type Server struct {
	game *game.Game
	log  *log.Logger
	cfg  Config

	upgrader websocket.Upgrader
}

func NewServer(g *game.Game, logger *log.Logger, cfg Config) *Server {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	if cfg.ActionsPerSecond <= 0 {
		cfg.ActionsPerSecond = 30
	}
	if cfg.ActionBurst <= 0 {
		cfg.ActionBurst = 60
	}
	if cfg.ActionTimeout <= 0 {
		cfg.ActionTimeout = 2 * time.Second
	}
	return &Server{
		game: g,
		log:  logger,
		cfg:  cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
}

type session struct {
	id         string
	controller bool
	// ctrl carries ACK and EVENT_BATCH replies; frames arrive on out.
	ctrl    chan []byte
	out     chan []byte
	limiter *rate.Limiter
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		sess, ok := s.handshake(conn)
		if !ok {
			return
		}

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		select {
		case s.game.Subscribe() <- game.SubscribeRequest{ID: sess.id, Out: sess.out}:
		case <-time.After(time.Second):
			_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "server busy"), time.Now().Add(time.Second))
			return
		}
		defer func() {
			select {
			case s.game.Unsubscribe() <- sess.id:
			case <-time.After(time.Second):
				// Loop is stopping; nothing else to do.
			}
		}()
		s.log.Printf("session %s joined controller=%v", sess.id, sess.controller)

		// Writer goroutine.
		go func() {
			for {
				var b []byte
				select {
				case <-ctx.Done():
					return
				case b = <-sess.ctrl:
				case b = <-sess.out:
				}
				_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
				if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
					cancel()
					return
				}
			}
		}()

		// Reader loop.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				break
			}
			s.handleMessage(ctx, sess, msg)
			if ctx.Err() != nil {
				break
			}
		}
		cancel()
		s.log.Printf("session %s left", sess.id)
	}
}

func (s *Server) handleMessage(ctx context.Context, sess *session, msg []byte) {
	base, err := protocol.DecodeBase(msg)
	if err != nil {
		return
	}
	switch base.Type {
	case protocol.TypeAction:
		var act protocol.ActionMsg
		if err := json.Unmarshal(msg, &act); err != nil {
			return
		}
		s.reply(ctx, sess, s.applyAction(ctx, sess, act))
	case protocol.TypeEventBatchReq:
		var req protocol.EventBatchReqMsg
		if err := json.Unmarshal(msg, &req); err != nil || req.ProtocolVersion != protocol.Version {
			return
		}
		if b, ok := s.eventBatch(ctx, req.ReqID, req.SinceCursor, req.Limit); ok {
			s.reply(ctx, sess, b)
		}
	}
}

func (s *Server) applyAction(ctx context.Context, sess *session, act protocol.ActionMsg) protocol.AckMsg {
	ack := protocol.AckMsg{
		Type:            protocol.TypeAck,
		ProtocolVersion: protocol.Version,
		AckFor:          act.ID,
	}
	refuse := func(code, msg string) protocol.AckMsg {
		ack.Code = code
		ack.Message = msg
		ack.ServerTick = s.game.CurrentTick()
		return ack
	}
	switch {
	case act.ProtocolVersion != protocol.Version:
		return refuse(protocol.ErrProtoBadRequest, "bad protocol_version")
	case act.ID == "" || act.Action == "":
		return refuse(protocol.ErrProtoBadRequest, "id and action required")
	case !sess.controller:
		return refuse(protocol.ErrBadRequest, "session is not a controller")
	case !sess.limiter.Allow():
		return refuse(protocol.ErrRateLimit, "too many actions")
	}

	actx, cancel := context.WithTimeout(ctx, s.cfg.ActionTimeout)
	defer cancel()
	res, err := s.game.Submit(actx, game.Action{
		Type:   act.Action,
		Ore:    act.Ore,
		Node:   act.Node,
		Volume: act.Volume,
	})
	if err != nil {
		if errors.Is(err, game.ErrStopped) {
			return refuse(protocol.ErrBusy, "game stopped")
		}
		return refuse(protocol.ErrInternal, err.Error())
	}
	ack.Accepted = res.OK
	ack.Code = res.Code
	ack.Message = res.Message
	ack.Gold = res.Gold
	ack.ServerTick = s.game.CurrentTick()
	return ack
}

func (s *Server) eventBatch(ctx context.Context, reqID string, since uint64, limit int) (protocol.EventBatchMsg, bool) {
	qctx, cancel := context.WithTimeout(ctx, s.cfg.ActionTimeout)
	defer cancel()
	items, next, err := s.game.RequestEventsAfter(qctx, since, limit)
	if err != nil {
		return protocol.EventBatchMsg{}, false
	}
	out := protocol.EventBatchMsg{
		Type:            protocol.TypeEventBatch,
		ProtocolVersion: protocol.Version,
		ReqID:           reqID,
		Events:          make([]protocol.Event, 0, len(items)),
		NextCursor:      next,
	}
	for _, e := range items {
		out.Events = append(out.Events, protocol.Event(e))
	}
	return out, true
}

func (s *Server) reply(ctx context.Context, sess *session, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	select {
	case sess.ctrl <- b:
	case <-ctx.Done():
	}
}

func (s *Server) handshake(conn *websocket.Conn) (*session, bool) {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return nil, false
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "expected HELLO"), time.Now().Add(time.Second))
		return nil, false
	}

	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		return nil, false
	}
	if !supportsVersion(hello) {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "bad protocol_version"), time.Now().Add(time.Second))
		return nil, false
	}

	maxQ := hello.Capabilities.MaxQueue
	if maxQ <= 0 {
		maxQ = 8
	}
	if maxQ > 64 {
		maxQ = 64
	}
	sess := &session{
		id:         uuid.NewString(),
		controller: hello.Capabilities.Controller,
		ctrl:       make(chan []byte, 16),
		out:        make(chan []byte, maxQ),
		limiter:    rate.NewLimiter(rate.Limit(s.cfg.ActionsPerSecond), s.cfg.ActionBurst),
	}

	// Send welcome + catalogs immediately.
	if err := writeJSON(conn, s.game.Welcome(sess.id, sess.controller)); err != nil {
		return nil, false
	}
	for _, c := range s.game.CatalogMsgs() {
		if err := writeJSON(conn, c); err != nil {
			return nil, false
		}
	}
	if hello.Capabilities.Events {
		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ActionTimeout)
		batch, ok := s.eventBatch(ctx, "", 0, 0)
		cancel()
		if ok {
			if err := writeJSON(conn, batch); err != nil {
				return nil, false
			}
		}
	}
	return sess, true
}

func supportsVersion(h protocol.HelloMsg) bool {
	if h.ProtocolVersion == protocol.Version {
		return true
	}
	for _, v := range h.SupportedVersions {
		if v == protocol.Version {
			return true
		}
	}
	return false
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, b)
}
