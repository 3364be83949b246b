package state

import (
	"context"
	"errors"
)

// ErrCodec is wrapped when a persisted session cannot be decoded.
var ErrCodec = errors.New("state: session codec")

// Store persists one session per user.
type Store[S any] interface {
	// Get returns the session and whether it exists.
	Get(ctx context.Context, userID int64) (S, bool, error)
	Put(ctx context.Context, userID int64, s S) error
	Delete(ctx context.Context, userID int64) error
}
