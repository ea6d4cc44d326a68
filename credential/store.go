// Package credential provides the durable client-side credential store:
// a single named opaque value (the session bearer token) that survives
// page loads, with an expiry window.
//
// # Backends
//
//   - [Memory] — process-local, for headless hosts and tests.
//   - [Cookie] — backed by an [net/http.CookieJar], so the value rides on
//     API requests the way a browser cookie would.
//   - [Redis] — for confidential server-side clients that share the
//     credential across instances.
//
// # Architecture boundaries
//
// The store holds the token but never interprets it. Validation, expiry
// decisions beyond the storage TTL, and session semantics belong to the
// Provider.
package credential

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrStoreUnavailable is returned when the backing storage cannot be
// reached. Callers treat it like an absent credential (fail-closed).
var ErrStoreUnavailable = errors.New("credential store unavailable")

// Store is the persisted credential abstraction: set/get/delete of one
// named value with a max-age. Both mutation paths (initialization write,
// logout delete) must be idempotent.
type Store interface {
	Get(ctx context.Context, name string) (string, bool, error)
	Set(ctx context.Context, name, value string, maxAge time.Duration) error
	Delete(ctx context.Context, name string) error
}

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

// Memory is an in-process Store. Values expire lazily on read.
type Memory struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemory creates an empty in-process store.
func NewMemory() *Memory {
	return &Memory{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// Get returns the stored value and whether it exists and is unexpired.
func (m *Memory) Get(_ context.Context, name string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[name]
	if !ok {
		return "", false, nil
	}
	if !entry.expiresAt.IsZero() && m.now().After(entry.expiresAt) {
		delete(m.entries, name)
		return "", false, nil
	}
	return entry.value, true, nil
}

// Set stores value under name. A non-positive maxAge stores it without
// expiry.
func (m *Memory) Set(_ context.Context, name, value string, maxAge time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry := memoryEntry{value: value}
	if maxAge > 0 {
		entry.expiresAt = m.now().Add(maxAge)
	}
	m.entries[name] = entry
	return nil
}

// Delete removes name. Deleting an absent name is not an error.
func (m *Memory) Delete(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, name)
	return nil
}

// Cookie stores the credential as a cookie in an http.CookieJar scoped to
// the API origin. An HTTP client sharing the jar attaches the credential
// on every request automatically, mirroring cross-origin cookie
// transmission in a browser.
type Cookie struct {
	jar      http.CookieJar
	origin   *url.URL
	path     string
	sameSite http.SameSite
	secure   bool
}

// NewCookie creates a jar-backed store scoped to apiURL. Defaults follow
// browser cookie conventions: path "/", SameSite=Lax, Secure when the
// origin is https.
func NewCookie(jar http.CookieJar, apiURL string) (*Cookie, error) {
	if jar == nil {
		return nil, errors.New("cookie jar required")
	}
	origin, err := url.Parse(apiURL)
	if err != nil {
		return nil, err
	}
	if origin.Scheme == "" || origin.Host == "" {
		return nil, errors.New("api url must be absolute")
	}

	return &Cookie{
		jar:      jar,
		origin:   origin,
		path:     "/",
		sameSite: http.SameSiteLaxMode,
		secure:   origin.Scheme == "https",
	}, nil
}

// Get reads the named cookie from the jar.
func (c *Cookie) Get(_ context.Context, name string) (string, bool, error) {
	for _, cookie := range c.jar.Cookies(c.origin) {
		if cookie.Name == name && cookie.Value != "" {
			return cookie.Value, true, nil
		}
	}
	return "", false, nil
}

// Set writes the named cookie into the jar with the configured attributes.
func (c *Cookie) Set(_ context.Context, name, value string, maxAge time.Duration) error {
	cookie := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     c.path,
		SameSite: c.sameSite,
		Secure:   c.secure,
	}
	if maxAge > 0 {
		cookie.MaxAge = int(maxAge / time.Second)
		cookie.Expires = time.Now().Add(maxAge)
	}
	c.jar.SetCookies(c.origin, []*http.Cookie{cookie})
	return nil
}

// Delete expires the named cookie in the jar.
func (c *Cookie) Delete(_ context.Context, name string) error {
	c.jar.SetCookies(c.origin, []*http.Cookie{{
		Name:   name,
		Value:  "",
		Path:   c.path,
		MaxAge: -1,
	}})
	return nil
}

// Redis stores the credential in Redis under prefix+name with the
// max-age as the key TTL.
type Redis struct {
	client *redis.Client
	prefix string
}

// NewRedis creates a Redis-backed store. An empty prefix defaults to
// "clientauth:cred:".
func NewRedis(client *redis.Client, prefix string) *Redis {
	if prefix == "" {
		prefix = "clientauth:cred:"
	}
	return &Redis{client: client, prefix: prefix}
}

func (r *Redis) key(name string) string {
	return r.prefix + name
}

// Get reads the named value from Redis.
func (r *Redis) Get(ctx context.Context, name string) (string, bool, error) {
	value, err := r.client.Get(ctx, r.key(name)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, errors.Join(ErrStoreUnavailable, err)
	}
	return value, value != "", nil
}

// Set writes the named value with maxAge as TTL. A non-positive maxAge
// stores it without expiry.
func (r *Redis) Set(ctx context.Context, name, value string, maxAge time.Duration) error {
	if maxAge < 0 {
		maxAge = 0
	}
	if err := r.client.Set(ctx, r.key(name), value, maxAge).Err(); err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	return nil
}

// Delete removes the named value. Deleting an absent key is not an error.
func (r *Redis) Delete(ctx context.Context, name string) error {
	if err := r.client.Del(ctx, r.key(name)).Err(); err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	return nil
}
