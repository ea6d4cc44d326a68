package credential

import (
	"context"
	"net/http/cookiejar"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestMemoryRoundTrip(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	if err := m.Set(ctx, "clientSession", "abc123", time.Hour); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	value, ok, err := m.Get(ctx, "clientSession")
	if err != nil || !ok || value != "abc123" {
		t.Fatalf("Get = (%q, %v, %v), want (abc123, true, nil)", value, ok, err)
	}

	if err := m.Delete(ctx, "clientSession"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, ok, _ := m.Get(ctx, "clientSession"); ok {
		t.Fatal("expected value gone after delete")
	}
}

func TestMemoryExpiry(t *testing.T) {
	m := NewMemory()
	now := time.Now()
	m.now = func() time.Time { return now }
	ctx := context.Background()

	if err := m.Set(ctx, "clientSession", "abc123", time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	now = now.Add(2 * time.Minute)
	if _, ok, _ := m.Get(ctx, "clientSession"); ok {
		t.Fatal("expected expired value to be absent")
	}
}

func TestMemoryDeleteIdempotent(t *testing.T) {
	m := NewMemory()
	if err := m.Delete(context.Background(), "clientSession"); err != nil {
		t.Fatalf("Delete of absent name failed: %v", err)
	}
}

func TestCookieRoundTrip(t *testing.T) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar.New failed: %v", err)
	}
	c, err := NewCookie(jar, "https://id.example")
	if err != nil {
		t.Fatalf("NewCookie failed: %v", err)
	}
	ctx := context.Background()

	if err := c.Set(ctx, "clientSession", "abc123", 24*time.Hour); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	value, ok, err := c.Get(ctx, "clientSession")
	if err != nil || !ok || value != "abc123" {
		t.Fatalf("Get = (%q, %v, %v), want (abc123, true, nil)", value, ok, err)
	}

	if err := c.Delete(ctx, "clientSession"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, ok, _ := c.Get(ctx, "clientSession"); ok {
		t.Fatal("expected cookie gone after delete")
	}
}

func TestCookieRejectsRelativeURL(t *testing.T) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar.New failed: %v", err)
	}
	if _, err := NewCookie(jar, "/api"); err == nil {
		t.Fatal("expected error for relative api url")
	}
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	return mr, redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestRedisRoundTrip(t *testing.T) {
	_, rdb := newTestRedis(t)
	r := NewRedis(rdb, "")
	ctx := context.Background()

	if err := r.Set(ctx, "clientSession", "abc123", time.Hour); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	value, ok, err := r.Get(ctx, "clientSession")
	if err != nil || !ok || value != "abc123" {
		t.Fatalf("Get = (%q, %v, %v), want (abc123, true, nil)", value, ok, err)
	}

	if err := r.Delete(ctx, "clientSession"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, ok, _ := r.Get(ctx, "clientSession"); ok {
		t.Fatal("expected value gone after delete")
	}
}

func TestRedisTTL(t *testing.T) {
	mr, rdb := newTestRedis(t)
	r := NewRedis(rdb, "")
	ctx := context.Background()

	if err := r.Set(ctx, "clientSession", "abc123", time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	mr.FastForward(2 * time.Minute)
	if _, ok, _ := r.Get(ctx, "clientSession"); ok {
		t.Fatal("expected value gone after TTL")
	}
}

func TestRedisUnavailable(t *testing.T) {
	mr, rdb := newTestRedis(t)
	r := NewRedis(rdb, "")
	mr.Close()

	if _, _, err := r.Get(context.Background(), "clientSession"); err == nil {
		t.Fatal("expected error when redis is down")
	}
}
