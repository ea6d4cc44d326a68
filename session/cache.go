package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrCacheUnavailable is returned when the cache backend cannot be
// reached. Callers treat it as a cache miss.
var ErrCacheUnavailable = errors.New("session cache unavailable")

// DefaultCacheTTL is the freshness window applied when a caller does not
// choose one.
const DefaultCacheTTL = 300 * time.Second

// Cache holds at most one session together with the time it was cached.
// A miss is (nil, zero time, nil); backends never invent errors for
// absent entries.
type Cache interface {
	Load(ctx context.Context) (*Session, time.Time, error)
	Store(ctx context.Context, s *Session) error
	Invalidate(ctx context.Context) error
}

// Fresh reports whether a cached session may be adopted without a remote
// validation: it must exist, be valid, be within the freshness window,
// and not be past its own expiry.
func Fresh(s *Session, cachedAt time.Time, ttl time.Duration, now time.Time) bool {
	if s == nil || !s.Valid {
		return false
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if cachedAt.IsZero() || now.Sub(cachedAt) > ttl {
		return false
	}
	return !s.Expired(now)
}

// MemoryCache is an in-process Cache.
type MemoryCache struct {
	mu       sync.Mutex
	session  *Session
	cachedAt time.Time
}

// NewMemoryCache creates an empty in-process cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{}
}

// Load returns the cached session, if any.
func (c *MemoryCache) Load(context.Context) (*Session, time.Time, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session, c.cachedAt, nil
}

// Store replaces the cached session and stamps the cache time.
func (c *MemoryCache) Store(_ context.Context, s *Session) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = s
	c.cachedAt = time.Now()
	return nil
}

// Invalidate drops the cached session.
func (c *MemoryCache) Invalidate(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = nil
	c.cachedAt = time.Time{}
	return nil
}

type cacheEnvelope struct {
	Session  *Session  `json:"session"`
	CachedAt time.Time `json:"cached_at"`
}

// RedisCache stores the cached session as a JSON envelope under a single
// key, with the freshness window as the key TTL so stale entries clean
// themselves up.
type RedisCache struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewRedisCache creates a Redis-backed cache. An empty key defaults to
// "clientauth:session"; a non-positive ttl defaults to DefaultCacheTTL.
func NewRedisCache(client *redis.Client, key string, ttl time.Duration) *RedisCache {
	if key == "" {
		key = "clientauth:session"
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &RedisCache{client: client, key: key, ttl: ttl}
}

// Load reads the cached envelope.
func (c *RedisCache) Load(ctx context.Context) (*Session, time.Time, error) {
	data, err := c.client.Get(ctx, c.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, time.Time{}, nil
		}
		return nil, time.Time{}, errors.Join(ErrCacheUnavailable, err)
	}

	var envelope cacheEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		// Corrupt entries behave like a miss; the next Store overwrites.
		return nil, time.Time{}, nil
	}
	return envelope.Session, envelope.CachedAt, nil
}

// Store writes the envelope with the freshness window as TTL.
func (c *RedisCache) Store(ctx context.Context, s *Session) error {
	data, err := json.Marshal(cacheEnvelope{Session: s, CachedAt: time.Now()})
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, c.key, data, c.ttl).Err(); err != nil {
		return errors.Join(ErrCacheUnavailable, err)
	}
	return nil
}

// Invalidate deletes the envelope. Deleting an absent key is not an
// error.
func (c *RedisCache) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, c.key).Err(); err != nil {
		return errors.Join(ErrCacheUnavailable, err)
	}
	return nil
}
