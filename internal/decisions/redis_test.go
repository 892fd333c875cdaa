package decisions

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
)

func newTestRedisGuard(t *testing.T, ttl time.Duration) (*RedisGuard, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisGuard(client, ttl), mr
}

func TestRedisGuardClaimOnce(t *testing.T) {
	ctx := context.Background()
	g, _ := newTestRedisGuard(t, time.Hour)

	ok, err := g.Claim(ctx, "req-1")
	if err != nil || !ok {
		t.Fatalf("first Claim = %v, %v; want true, nil", ok, err)
	}

	ok, err = g.Claim(ctx, "req-1")
	if err != nil || ok {
		t.Fatalf("second Claim = %v, %v; want false, nil", ok, err)
	}

	ok, _ = g.Claim(ctx, "req-2")
	if !ok {
		t.Error("claim of another key must succeed")
	}
}

func TestRedisGuardRelease(t *testing.T) {
	ctx := context.Background()
	g, mr := newTestRedisGuard(t, time.Hour)

	_, _ = g.Claim(ctx, "req")
	if err := g.Release(ctx, "req"); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if mr.Exists(keyPrefix + "req") {
		t.Fatal("key still present after release")
	}

	ok, err := g.Claim(ctx, "req")
	if err != nil || !ok {
		t.Fatalf("Claim after release = %v, %v; want true, nil", ok, err)
	}
}

func TestRedisGuardTTL(t *testing.T) {
	ctx := context.Background()
	g, mr := newTestRedisGuard(t, 2*time.Hour)

	if _, err := g.Claim(ctx, "req"); err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if ttl := mr.TTL(keyPrefix + "req"); ttl != 2*time.Hour {
		t.Fatalf("ttl = %v, want 2h", ttl)
	}

	mr.FastForward(2*time.Hour + time.Second)

	ok, err := g.Claim(ctx, "req")
	if err != nil || !ok {
		t.Fatalf("Claim after ttl = %v, %v; want true, nil", ok, err)
	}
}

func TestRedisGuardClaimError(t *testing.T) {
	g, mr := newTestRedisGuard(t, time.Hour)
	mr.Close()

	ok, err := g.Claim(context.Background(), "req")
	if err == nil || ok {
		t.Fatalf("Claim on closed server = %v, %v; want false, error", ok, err)
	}
}
