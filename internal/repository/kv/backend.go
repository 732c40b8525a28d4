// Package kv implements the repository interfaces on top of a plain
// key-value backend, using the browser client's storage layout:
//
//	users     JSON array of legacy.UserRecord, reports nested per user
//	sessions  JSON object mapping session ID to session
//
// Every write is a read-modify-write of a whole value, serialized by a mutex
// inside the Store. Two processes sharing one redis database can still
// overwrite each other's changes; run a single writer.
package kv

import (
	"context"
	"errors"
)

// ErrKeyNotFound is returned by Backend.Get for a key that was never set.
var ErrKeyNotFound = errors.New("kv: key not found")

// Backend is the minimal storage a Store needs.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Ping(ctx context.Context) error
	Close() error
}
