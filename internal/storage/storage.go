// Package storage persists opaque guest-cart payloads under string keys.
//
// The local cart store only ever reads, overwrites and deletes a whole
// JSON document per key, so every backend is a plain key/value store:
//
//	memory   - process-local map, for tests and single-node development
//	file     - one file per key in a directory (device-local, used by cartctl)
//	redis    - one string per key with TTL, for multi-instance deployments
//	postgres - one row per key in guest_carts, schema managed by migrations
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned by Get when no value is stored under the key.
var ErrNotFound = errors.New("storage: key not found")

// Store is a key/value store for serialized carts.
type Store interface {
	// Get returns the value for key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set overwrites the value for key.
	Set(ctx context.Context, key string, value []byte) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error
	Close() error
}

// Purger is implemented by backends that keep expired entries until swept.
type Purger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// Backend names accepted by Open.
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// Options selects and configures a backend.
type Options struct {
	Backend string
	TTL     time.Duration // 0 = keep forever

	Dir string // file

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	PostgresDSN string
}

// Open creates the configured backend. The postgres backend applies its
// migrations before returning.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Backend {
	case "", BackendMemory:
		return NewMemory(), nil
	case BackendFile:
		return NewFile(opts.Dir, opts.TTL)
	case BackendRedis:
		return NewRedis(ctx, RedisOptions{
			Addr:     opts.RedisAddr,
			Password: opts.RedisPassword,
			DB:       opts.RedisDB,
			TTL:      opts.TTL,
		})
	case BackendPostgres:
		return NewPostgres(ctx, opts.PostgresDSN, opts.TTL)
	default:
		return nil, fmt.Errorf("unsupported storage backend: %s", opts.Backend)
	}
}
