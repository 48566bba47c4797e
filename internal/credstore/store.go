// Package credstore provides the durable key/value slot that holds the
// client's bearer token.
package credstore

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// TokenKey is the key under which the bearer token is stored.
const TokenKey = "token"

// ErrUnknownBackend is returned by Open for an unsupported backend name.
var ErrUnknownBackend = errors.New("unknown credential backend")

// Store is a string-keyed, string-valued store. Get reports absence with
// ok=false; Remove of a missing key is not an error.
type Store interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// Config selects and configures a backend.
type Config struct {
	Backend  string        // memory, file or redis
	Path     string        // file backend
	RedisURL string        // redis backend
	TTL      time.Duration // redis backend, zero means no expiry
}

// Open returns the backend described by cfg. The caller closes it when the
// result implements io.Closer.
func Open(cfg Config) (Store, error) {
	switch cfg.Backend {
	case "memory":
		return NewMemory(), nil
	case "", "file":
		if cfg.Path == "" {
			return nil, errors.New("file credential backend requires a path")
		}
		return NewFile(cfg.Path), nil
	case "redis":
		s, err := NewRedisWithURL(cfg.RedisURL, cfg.TTL)
		if err != nil {
			return nil, fmt.Errorf("opening redis credential store: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
}
