package store

import (
	"context"
	"errors"
)

var ErrClosed = errors.New("store closed")

// Store is the durable key-value interface backing all persisted client
// state (token, user profile, summary cache). Get reports found=false for a
// missing key rather than an error. Implementations must be safe for
// concurrent use.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	Close() error
}
