// Package cache memoizes derived results by the identity of their inputs.
package cache

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/redis/go-redis/v9"
)

// DefaultTTL bounds how long a derived result is served without recomputing.
const DefaultTTL = 5 * time.Minute

// DefaultMaxEntries caps the in-process cache.
const DefaultMaxEntries = 1024

// Cache stores opaque encoded results.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Key derives a stable digest from the parts identifying an input.
func Key(parts ...string) string {
	h := xxhash.New()
	for _, p := range parts {
		h.WriteString(p)
		h.Write([]byte{0})
	}
	return "wpmetrics:" + strconv.FormatUint(h.Sum64(), 16)
}

// ---- In-process ----

type entry struct {
	value   []byte
	expires time.Time
	seq     uint64
}

// Memory is an in-process Cache holding at most max entries. When full,
// expired entries are swept first, then the oldest insertion is evicted.
type Memory struct {
	mu    sync.Mutex
	items map[string]entry
	max   int
	seq   uint64
	now   func() time.Time
}

// NewMemory returns an empty in-process cache capped at DefaultMaxEntries.
func NewMemory() *Memory {
	return NewMemorySize(DefaultMaxEntries)
}

// NewMemorySize returns an empty in-process cache holding at most max entries.
func NewMemorySize(max int) *Memory {
	if max < 1 {
		max = 1
	}
	return &Memory{items: make(map[string]entry), max: max, now: time.Now}
}

// Len returns the number of stored entries, expired ones included.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.items[key]
	if !ok {
		return nil, false, nil
	}
	if !e.expires.IsZero() && m.now().After(e.expires) {
		delete(m.items, key)
		return nil, false, nil
	}
	return e.value, true, nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	if _, ok := m.items[key]; !ok && len(m.items) >= m.max {
		m.evict(now)
	}
	m.seq++
	e := entry{value: append([]byte(nil), value...), seq: m.seq}
	if ttl > 0 {
		e.expires = now.Add(ttl)
	}
	m.items[key] = e
	return nil
}

// evict makes room for one entry. Callers hold mu.
func (m *Memory) evict(now time.Time) {
	for k, e := range m.items {
		if !e.expires.IsZero() && now.After(e.expires) {
			delete(m.items, k)
		}
	}
	if len(m.items) < m.max {
		return
	}
	var oldest string
	var oldestSeq uint64
	first := true
	for k, e := range m.items {
		if first || e.seq < oldestSeq {
			oldest, oldestSeq, first = k, e.seq, false
		}
	}
	delete(m.items, oldest)
}

// ---- Redis ----

// Redis is a Cache backed by a Redis server.
type Redis struct {
	client *redis.Client
}

// NewRedis connects to the server at url (redis://host:port/db).
func NewRedis(ctx context.Context, url string) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return &Redis{client: client}, nil
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

// Close releases the connection pool.
func (r *Redis) Close() error {
	return r.client.Close()
}

// Open returns a Redis cache when url is set, and an in-process one otherwise.
func Open(ctx context.Context, url string) (Cache, error) {
	if strings.TrimSpace(url) == "" {
		return NewMemory(), nil
	}
	return NewRedis(ctx, url)
}
