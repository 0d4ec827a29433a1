package cache

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// TierConfig is shared by every tier of one cached source.
type TierConfig struct {
	// Store is the durable tier. Nil keeps the tier in memory only.
	Store Store
	// Prefix namespaces every durable key, e.g. "himnario:drive:".
	Prefix string
	// TTL bounds the age of durable entries. Zero means DefaultTTL.
	TTL    time.Duration
	Now    func() time.Time
	Logger *slog.Logger
}

func (c TierConfig) withDefaults() TierConfig {
	if c.TTL <= 0 {
		c.TTL = DefaultTTL
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}

// Tier looks values up in an in-process map first, then in the durable
// store. In-process values live as long as the Tier; durable values expire
// after the TTL.
type Tier[T any] struct {
	cfg    TierConfig
	decode func([]byte) (T, error)
	clone  func(T) T

	mu  sync.RWMutex
	mem map[string]T
}

// TierOption configures a Tier.
type TierOption[T any] func(*Tier[T])

// WithClone copies values on their way in and out of the in-process map, so
// callers may modify what they get without touching the cache. Without it,
// values are shared and must be treated as read-only.
func WithClone[T any](clone func(T) T) TierOption[T] {
	return func(t *Tier[T]) { t.clone = clone }
}

// NewTier returns a Tier whose durable payloads are checked with decode.
func NewTier[T any](cfg TierConfig, decode func([]byte) (T, error), opts ...TierOption[T]) *Tier[T] {
	t := &Tier[T]{
		cfg:    cfg.withDefaults(),
		decode: decode,
		mem:    make(map[string]T),
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

func (t *Tier[T]) copy(v T) T {
	if t.clone == nil {
		return v
	}
	return t.clone(v)
}

// Get returns the cached value for key. A durable hit is promoted to the
// in-process map.
func (t *Tier[T]) Get(ctx context.Context, key string) (T, bool) {
	t.mu.RLock()
	v, ok := t.mem[key]
	t.mu.RUnlock()
	if ok {
		return t.copy(v), true
	}

	var zero T
	if t.cfg.Store == nil {
		return zero, false
	}
	data, err := t.cfg.Store.Get(ctx, t.cfg.Prefix+key)
	if err != nil {
		if !errors.Is(err, ErrMiss) {
			t.cfg.Logger.Debug("durable cache read failed", "key", t.cfg.Prefix+key, "error", err)
		}
		return zero, false
	}
	v, ok = Decode(data, t.cfg.Now(), t.cfg.TTL, t.decode)
	if !ok {
		t.cfg.Logger.Debug("durable cache entry rejected", "key", t.cfg.Prefix+key)
		return zero, false
	}

	t.mu.Lock()
	t.mem[key] = v
	t.mu.Unlock()
	return t.copy(v), true
}

// Put stores v in both tiers. Durable write failures are logged and
// otherwise ignored.
func (t *Tier[T]) Put(ctx context.Context, key string, v T) {
	t.mu.Lock()
	t.mem[key] = t.copy(v)
	t.mu.Unlock()

	if t.cfg.Store == nil {
		return
	}
	data, err := Encode(v, t.cfg.Now())
	if err == nil {
		err = t.cfg.Store.Set(ctx, t.cfg.Prefix+key, data)
	}
	if err != nil {
		t.cfg.Logger.Warn("durable cache write failed", "key", t.cfg.Prefix+key, "error", err)
	}
}

// Forget drops key from the in-process map only.
func (t *Tier[T]) Forget(key string) {
	t.mu.Lock()
	delete(t.mem, key)
	t.mu.Unlock()
}
