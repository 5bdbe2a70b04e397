// Package store keeps the live save record in a key-value store and hands
// the game's save requests to a background writer.
package store

import (
	"context"
	"errors"
)

var ErrClosed = errors.New("store: closed")

// Store is a small key-value store. Get reports ok=false for a missing key.
type Store interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte) error
	Clear(ctx context.Context) error
	Close() error
}
