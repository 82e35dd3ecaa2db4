package storage

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned by Get when no document is stored under the key.
	ErrNotFound = errors.New("document not found")
	// ErrNotLoaded is returned when a provider is used before Init or Load.
	ErrNotLoaded = errors.New("storage not loaded")
)

// Provider is a durable key/value medium holding one serialized document
// per key. Ordering between independent writers is decided by the medium:
// the last writer wins.
type Provider interface {
	// Lifecycle
	Init() error
	Load() error
	Close() error

	// Documents
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error

	// Utils
	GetConfigPath() string
}

// Watcher is implemented by providers that can report writes made by other
// contexts sharing the medium. Watch returns once listening has started and
// delivers notifications until ctx is done. Delivery is at-least-once, and
// a notification may also arrive for the watcher's own writes.
type Watcher interface {
	Watch(ctx context.Context, onChange func(key string)) error
}
