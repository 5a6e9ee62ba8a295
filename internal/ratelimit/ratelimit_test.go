package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func TestMemory(t *testing.T) {
	now := time.Date(2024, 3, 7, 12, 0, 0, 0, time.UTC)
	m := NewMemory(3, time.Minute)
	m.now = func() time.Time { return now }
	ctx := context.Background()

	for i, wantRemaining := range []int{2, 1, 0} {
		res, _ := m.Allow(ctx, "u1")
		if !res.Allowed || res.Remaining != wantRemaining {
			t.Fatalf("call %d = %+v, want allowed with %d remaining", i, res, wantRemaining)
		}
	}
	if res, _ := m.Allow(ctx, "u1"); res.Allowed || res.Remaining != 0 {
		t.Errorf("4th call = %+v, want denied", res)
	}
	if res, _ := m.Allow(ctx, "u2"); !res.Allowed {
		t.Error("other key should have its own budget")
	}

	now = now.Add(time.Minute)
	res, _ := m.Allow(ctx, "u1")
	if !res.Allowed || res.Remaining != 2 {
		t.Errorf("after window = %+v, want fresh budget", res)
	}
	if !res.ResetAt.Equal(now.Add(time.Minute)) {
		t.Errorf("ResetAt = %s", res.ResetAt)
	}
}

func TestMemory_SweepsExpired(t *testing.T) {
	now := time.Date(2024, 3, 7, 12, 0, 0, 0, time.UTC)
	m := NewMemory(1, time.Second)
	m.now = func() time.Time { return now }
	ctx := context.Background()

	for _, k := range []string{"a", "b", "c"} {
		m.Allow(ctx, k)
	}
	now = now.Add(2 * time.Second)
	m.Allow(ctx, "d")
	if got := m.Len(); got != 1 {
		t.Errorf("Len = %d, want 1 after sweep", got)
	}
}

func newTestRedis(t *testing.T, limit int) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	r, err := NewRedis("redis://"+mr.Addr(), "test", limit, time.Minute)
	if err != nil {
		t.Fatalf("new redis limiter: %v", err)
	}
	t.Cleanup(func() { r.Close() })
	return r, mr
}

func TestRedis(t *testing.T) {
	r, mr := newTestRedis(t, 2)
	ctx := context.Background()

	for i, wantRemaining := range []int{1, 0} {
		res, err := r.Allow(ctx, "u1")
		if err != nil {
			t.Fatalf("Allow: %v", err)
		}
		if !res.Allowed || res.Remaining != wantRemaining {
			t.Fatalf("call %d = %+v", i, res)
		}
	}
	res, err := r.Allow(ctx, "u1")
	if err != nil {
		t.Fatalf("Allow: %v", err)
	}
	if res.Allowed {
		t.Error("3rd call should be denied")
	}
	if ttl := mr.TTL("test:u1"); ttl <= 0 || ttl > time.Minute {
		t.Errorf("TTL = %s, want window expiry", ttl)
	}

	mr.FastForward(time.Minute + time.Second)
	if res, _ := r.Allow(ctx, "u1"); !res.Allowed || res.Remaining != 1 {
		t.Errorf("after expiry = %+v, want fresh budget", res)
	}
}

func TestNewRedis_Errors(t *testing.T) {
	if _, err := NewRedis("", "", 1, time.Second); err == nil {
		t.Error("empty url should fail")
	}
	if _, err := NewRedis("://bad", "", 1, time.Second); err == nil {
		t.Error("bad url should fail")
	}
}
