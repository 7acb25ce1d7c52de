package rediscache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	c, err := New(context.Background(), "redis://"+mr.Addr()+"/0", "pa:")
	if err != nil {
		t.Fatalf("new cache: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestNew_InvalidURL(t *testing.T) {
	if _, err := New(context.Background(), "http://not-redis", "pa:"); err == nil {
		t.Fatalf("expected parse error for non-redis scheme")
	}
}

func TestNew_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	// Puerto reservado sin listener: el ping tiene que fallar rápido.
	if _, err := New(ctx, "redis://127.0.0.1:1/0", "pa:"); err == nil {
		t.Fatalf("expected ping failure")
	}
}

func TestGet_MissReturnsNotFound(t *testing.T) {
	c, _ := newTestCache(t)

	data, hit, err := c.Get(context.Background(), "reports:adoption-rates")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if hit || data != nil {
		t.Fatalf("expected miss, got hit=%v data=%q", hit, data)
	}
}

func TestSetThenGet_UsesPrefixAndTTL(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	if err := c.Set(ctx, "reports:adoption-rates", []byte(`{"success":true}`), time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}

	// La clave queda con prefijo y TTL.
	if !mr.Exists("pa:reports:adoption-rates") {
		t.Fatalf("expected prefixed key, keys=%v", mr.Keys())
	}
	if ttl := mr.TTL("pa:reports:adoption-rates"); ttl != time.Minute {
		t.Fatalf("expected 1m ttl, got %s", ttl)
	}

	data, hit, err := c.Get(ctx, "reports:adoption-rates")
	if err != nil || !hit {
		t.Fatalf("expected hit, got hit=%v err=%v", hit, err)
	}
	if string(data) != `{"success":true}` {
		t.Fatalf("unexpected payload %q", data)
	}

	// Vencido el TTL vuelve a ser miss.
	mr.FastForward(2 * time.Minute)
	if _, hit, _ := c.Get(ctx, "reports:adoption-rates"); hit {
		t.Fatalf("expected miss after ttl expiry")
	}
}

func TestPing_FailsWhenServerGone(t *testing.T) {
	c, mr := newTestCache(t)

	if err := c.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}

	mr.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := c.Ping(ctx); err == nil {
		t.Fatalf("expected ping error after server shutdown")
	}
}
