// Package reactive binds a value to one key of a storage provider and keeps
// every handle of that key in sync, within the process through a pubsub.Bus
// and across processes through the provider's Watcher.
package reactive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/julianstephens/habitlit/internal/logger"
	"github.com/julianstephens/habitlit/internal/pubsub"
	"github.com/julianstephens/habitlit/internal/storage"
)

// ErrWriteFailed wraps any serialization or provider error raised by Write.
// The cached and persisted values are unchanged when it is returned.
var ErrWriteFailed = errors.New("write failed")

type Option[T any] func(*Store[T])

// WithNormalizer runs fn over every value read from the provider and every
// value produced by an updater.
func WithNormalizer[T any](fn func(T) T) Option[T] {
	return func(s *Store[T]) {
		s.normalize = fn
	}
}

type Store[T any] struct {
	key       string
	provider  storage.Provider
	bus       *pubsub.Bus
	origin    string
	normalize func(T) T

	def      T
	defBytes []byte

	mu     sync.Mutex
	loaded bool
	// raw holds the compacted persisted bytes; nil means the default applies.
	raw []byte

	subMu   sync.Mutex
	nextSub int
	subs    map[int]func(T)

	unsubscribeBus func()
}

// New creates a handle for key. bus may be nil when the handle has no
// siblings in this process.
func New[T any](key string, provider storage.Provider, bus *pubsub.Bus, defaultValue T, opts ...Option[T]) *Store[T] {
	s := &Store[T]{
		key:      key,
		provider: provider,
		bus:      bus,
		origin:   uuid.NewString(),
		def:      defaultValue,
		subs:     make(map[int]func(T)),
	}
	for _, opt := range opts {
		opt(s)
	}

	if data, err := json.Marshal(defaultValue); err != nil {
		logger.Warn("Default value is not serializable", "key", key, "error", err)
	} else {
		s.defBytes = data
	}

	if bus != nil {
		s.unsubscribeBus = bus.Subscribe(s.handleEvent)
	}
	return s
}

// Key returns the storage key the handle is bound to.
func (s *Store[T]) Key() string {
	return s.key
}

// Origin returns the id stamped on events this handle publishes.
func (s *Store[T]) Origin() string {
	return s.origin
}

// Read returns an independent copy of the current value. It never fails:
// a missing or unreadable document yields the default value.
func (s *Store[T]) Read() T {
	s.mu.Lock()
	s.ensureLoaded()
	raw := s.raw
	s.mu.Unlock()
	return s.decode(raw)
}

// Write applies update to a copy of the latest value and persists the
// result. Subscribers and the bus are notified after the write commits.
func (s *Store[T]) Write(update func(prev T) T) error {
	s.mu.Lock()
	s.ensureLoaded()

	next := update(s.decode(s.raw))
	if s.normalize != nil {
		next = s.normalize(next)
	}

	data, err := json.Marshal(next)
	if err != nil {
		s.mu.Unlock()
		logger.Error("Failed to serialize value", "key", s.key, "error", err)
		return fmt.Errorf("%w: serialize %q: %v", ErrWriteFailed, s.key, err)
	}
	if err := s.provider.Set(s.key, data); err != nil {
		s.mu.Unlock()
		logger.Error("Failed to persist value", "key", s.key, "error", err)
		return fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}
	s.raw = data
	s.mu.Unlock()

	s.publish(data)
	s.notify()
	return nil
}

// Set replaces the value outright.
func (s *Store[T]) Set(value T) error {
	return s.Write(func(T) T { return value })
}

// Subscribe registers fn for every observed change, local or remote. fn
// receives its own copy of the value.
func (s *Store[T]) Subscribe(fn func(T)) func() {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

// Watch starts listening for writes made by other contexts. Providers that
// cannot report changes make Watch a no-op.
func (s *Store[T]) Watch(ctx context.Context) error {
	w, ok := s.provider.(storage.Watcher)
	if !ok {
		logger.Debug("Provider does not support change notifications", "provider", s.provider.GetConfigPath())
		return nil
	}
	return w.Watch(ctx, func(key string) {
		if key == s.key {
			s.Refresh()
		}
	})
}

// Refresh re-reads the provider and reports whether the value changed.
// Repeated notifications for the same bytes are ignored. Siblings on the
// bus are told to re-read as well.
func (s *Store[T]) Refresh() bool {
	return s.refresh(true)
}

func (s *Store[T]) refresh(announce bool) bool {
	s.mu.Lock()
	raw, ok := s.fetch()
	if !ok && s.loaded {
		s.mu.Unlock()
		return false
	}
	if s.loaded && bytes.Equal(raw, s.raw) {
		s.mu.Unlock()
		return false
	}
	s.loaded = true
	s.raw = raw
	s.mu.Unlock()

	if announce && raw != nil {
		s.publish(raw)
	}
	s.notify()
	return true
}

// Close detaches the handle from the bus.
func (s *Store[T]) Close() {
	if s.unsubscribeBus != nil {
		s.unsubscribeBus()
		s.unsubscribeBus = nil
	}
}

// handleEvent treats a sibling's event as a hint only. Events are
// delivered after the writer unlocks, so one can arrive after a newer write
// has landed; the provider is re-read instead of trusting ev.Value.
func (s *Store[T]) handleEvent(ev pubsub.Event) {
	if ev.Key != s.key || ev.Origin == s.origin {
		return
	}
	s.refresh(false)
}

// ensureLoaded must be called with mu held.
func (s *Store[T]) ensureLoaded() {
	if s.loaded {
		return
	}
	s.raw, _ = s.fetch()
	s.loaded = true
}

// fetch reads and validates the persisted document. A missing key yields
// (nil, true); a read or parse failure yields (nil, false).
func (s *Store[T]) fetch() ([]byte, bool) {
	data, err := s.provider.Get(s.key)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, true
	}
	if err != nil {
		logger.Warn("Failed to read value, using default", "key", s.key, "error", err)
		return nil, false
	}
	return s.validate(data)
}

// validate returns the compacted form of data if it decodes into T.
func (s *Store[T]) validate(data []byte) ([]byte, bool) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		logger.Warn("Failed to parse value, using default", "key", s.key, "error", err)
		return nil, false
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, data); err != nil {
		return nil, false
	}
	return buf.Bytes(), true
}

func (s *Store[T]) decode(raw []byte) T {
	if raw == nil {
		raw = s.defBytes
	}
	var v T
	if raw == nil || json.Unmarshal(raw, &v) != nil {
		v = s.def
	}
	if s.normalize != nil {
		v = s.normalize(v)
	}
	return v
}

func (s *Store[T]) publish(data []byte) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(pubsub.Event{Key: s.key, Value: data, Origin: s.origin})
}

// notify hands every subscriber the value current at delivery time, so a
// late notification never rolls a subscriber back to an older snapshot.
func (s *Store[T]) notify() {
	s.subMu.Lock()
	ids := make([]int, 0, len(s.subs))
	for id := range s.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func(T), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, s.subs[id])
	}
	s.subMu.Unlock()

	if len(fns) == 0 {
		return
	}
	for _, fn := range fns {
		fn(s.Read())
	}
}
