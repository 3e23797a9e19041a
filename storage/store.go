// Package storage holds the durable key/value stores behind the client's
// persisted state: the session record and the notification acknowledgment set.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when the key has never been written or was deleted.
var ErrNotFound = errors.New("storage: key not found")

// Store is a durable key/value store. Values are opaque bytes; a Put replaces
// the whole value in one write.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
