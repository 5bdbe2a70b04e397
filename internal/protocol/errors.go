package protocol

const (
	// Protocol/transport validation.
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"

	// Action layer.
	ErrBadRequest = "E_BAD_REQUEST"
	ErrNoResource = "E_NO_RESOURCE"
	ErrMaxed      = "E_MAXED"
	ErrNotReady   = "E_NOT_READY"
	ErrRateLimit  = "E_RATE_LIMIT"
	ErrBusy       = "E_BUSY"
	ErrInternal   = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrProtoBadRequest: {},
	ErrBadRequest:      {},
	ErrNoResource:      {},
	ErrMaxed:           {},
	ErrNotReady:        {},
	ErrRateLimit:       {},
	ErrBusy:            {},
	ErrInternal:        {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}
