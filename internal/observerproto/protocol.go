// Package observerproto is the wire format of the admin observer stream,
// versioned separately from the player protocol.
package observerproto

import (
	"idlemine.ai/internal/protocol"
	"idlemine.ai/internal/sim/game"
)

const Version = "0.1"

// Client -> Server. First message on the observer WS connection, and can be
// re-sent to update settings.
type SubscribeMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	// FrameEvery forwards one of every N frames; 0 or 1 forwards all.
	FrameEvery int `json:"frame_every"`
	// StatusEveryMS is the STATUS cadence; 0 disables it.
	StatusEveryMS int `json:"status_every_ms"`
}

// HTTP response for GET /admin/v1/observer/bootstrap.
type BootstrapResponse struct {
	ProtocolVersion string                  `json:"protocol_version"`
	Tick            uint64                  `json:"tick"`
	GameParams      protocol.GameParams     `json:"game_params"`
	Catalogs        protocol.CatalogDigests `json:"catalogs"`
}

// Server -> Client. Game counters at StatusEveryMS.
type StatusMsg struct {
	Type            string           `json:"type"`
	ProtocolVersion string           `json:"protocol_version"`
	SessionID       string           `json:"session_id"`
	Metrics         game.GameMetrics `json:"metrics"`
}
