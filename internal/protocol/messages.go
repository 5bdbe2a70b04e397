package protocol

// HELLO (client -> server)
type HelloMsg struct {
	Type              string            `json:"type"`
	ProtocolVersion   string            `json:"protocol_version"`
	SupportedVersions []string          `json:"supported_versions,omitempty"`
	ClientName        string            `json:"client_name"`
	Capabilities      HelloCapabilities `json:"capabilities"`
}

type HelloCapabilities struct {
	// Controller clients may send ACTION; spectators only receive frames.
	Controller bool `json:"controller,omitempty"`
	Events     bool `json:"events,omitempty"`
	MaxQueue   int  `json:"max_queue,omitempty"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string         `json:"type"`
	ProtocolVersion string         `json:"protocol_version"`
	SessionID       string         `json:"session_id"`
	Controller      bool           `json:"controller"`
	GameParams      GameParams     `json:"game_params"`
	Catalogs        CatalogDigests `json:"catalogs"`
}

type GameParams struct {
	TickRateHz      int     `json:"tick_rate_hz"`
	FrameEveryTicks int     `json:"frame_every_ticks"`
	FieldWidth      float64 `json:"field_width"`
	FieldHeight     float64 `json:"field_height"`
	Rock            Point   `json:"rock"`
	MaxOres         int     `json:"max_ores"`
	MaxMinecarts    int     `json:"max_minecarts"`
}

type CatalogDigests struct {
	Ores         DigestRef `json:"ores"`
	Enemies      DigestRef `json:"enemies"`
	Prestige     DigestRef `json:"prestige"`
	TuningDigest string    `json:"tuning_digest,omitempty"`
}

type DigestRef struct {
	Digest string `json:"digest"`
	Count  int    `json:"count"`
}

// CATALOG (server -> client): one catalog per message.
type CatalogMsg struct {
	Type            string      `json:"type"`
	ProtocolVersion string      `json:"protocol_version"`
	Name            string      `json:"name"`   // "ores", "enemies", "prestige"
	Digest          string      `json:"digest"` // sha256 hex
	Part            int         `json:"part"`
	TotalParts      int         `json:"total_parts"`
	Data            interface{} `json:"data"`
}

// ACTION (client -> server)
type ActionMsg struct {
	Type            string  `json:"type"`
	ProtocolVersion string  `json:"protocol_version"`
	ID              string  `json:"id"`
	Action          string  `json:"action"`
	Ore             string  `json:"ore,omitempty"`
	Node            string  `json:"node,omitempty"`
	Volume          float64 `json:"volume,omitempty"`
}

type AckMsg struct {
	Type            string  `json:"type"`
	ProtocolVersion string  `json:"protocol_version"`
	AckFor          string  `json:"ack_for"`
	Accepted        bool    `json:"accepted"`
	Code            string  `json:"code,omitempty"`
	Message         string  `json:"message,omitempty"`
	Gold            float64 `json:"gold"`
	ServerTick      uint64  `json:"server_tick,omitempty"`
}

// EVENT_BATCH_REQ (client -> server)
type EventBatchReqMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ReqID           string `json:"req_id"`
	SinceCursor     uint64 `json:"since_cursor"`
	Limit           int    `json:"limit"`
}

// EVENT_BATCH (server -> client)
type EventBatchMsg struct {
	Type            string  `json:"type"`
	ProtocolVersion string  `json:"protocol_version"`
	ReqID           string  `json:"req_id"`
	Events          []Event `json:"events"`
	NextCursor      uint64  `json:"next_cursor"`
}
