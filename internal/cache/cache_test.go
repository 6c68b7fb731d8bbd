package cache

import (
	"context"
	"testing"
	"time"

	"pennywise/internal/log"
)

func TestLRUEvictsOldest(t *testing.T) {
	c := NewLRUCache[int](2, time.Minute)
	var evicted []string
	c.OnEvict(func(key string, _ int) { evicted = append(evicted, key) })

	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a") // a is now most recent
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Fatalf("b should have been evicted")
	}
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Fatalf("a = %v, %v", v, ok)
	}
	if len(evicted) != 1 || evicted[0] != "b" {
		t.Fatalf("evicted = %v", evicted)
	}
}

func fakeClock[T any](c *LRUCache[T]) *time.Time {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	return &now
}

func TestLRUExpiry(t *testing.T) {
	c := NewLRUCache[string](10, time.Hour)
	clock := fakeClock(c)
	c.SetWithTTL("short", "x", time.Minute)
	c.Set("long", "y")

	*clock = clock.Add(2 * time.Minute)
	if _, ok := c.Get("short"); ok {
		t.Fatalf("short should have expired")
	}
	c.SetWithTTL("short2", "x", time.Minute)
	*clock = clock.Add(2 * time.Minute)
	if n := c.CleanExpired(); n != 1 {
		t.Fatalf("CleanExpired = %d, want 1", n)
	}
	if c.Size() != 1 {
		t.Fatalf("size = %d", c.Size())
	}
}

func TestLRUReadDoesNotExtendExpiry(t *testing.T) {
	c := NewLRUCache[int](10, time.Minute)
	clock := fakeClock(c)
	c.Set("a", 1)
	*clock = clock.Add(50 * time.Second)
	if _, ok := c.Get("a"); !ok {
		t.Fatal("a should still be live")
	}
	*clock = clock.Add(20 * time.Second)
	if _, ok := c.Get("a"); ok {
		t.Fatal("a should have expired despite the read")
	}
}

func TestLRUDeletePrefix(t *testing.T) {
	c := NewLRUCache[int](10, time.Minute)
	c.Set("u1:summary", 1)
	c.Set("u1:trends", 2)
	c.Set("u2:summary", 3)
	if n := c.DeletePrefix("u1:"); n != 2 {
		t.Fatalf("DeletePrefix = %d", n)
	}
	if c.Size() != 1 {
		t.Fatalf("size = %d", c.Size())
	}
}

func TestLocalStoreJSON(t *testing.T) {
	ctx := context.Background()
	s := NewLocalStore(10, time.Minute)

	type payload struct{ N int }
	if ok, err := GetJSON(ctx, s, "k", &payload{}); ok || err != nil {
		t.Fatalf("expected miss, got %v %v", ok, err)
	}
	if err := SetJSON(ctx, s, "k", payload{N: 7}, 0); err != nil {
		t.Fatalf("set: %v", err)
	}
	var got payload
	if ok, err := GetJSON(ctx, s, "k", &got); !ok || err != nil || got.N != 7 {
		t.Fatalf("got %+v %v %v", got, ok, err)
	}
	if err := s.DeletePrefix(ctx, "k"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := s.Get(ctx, "k"); ok {
		t.Fatalf("expected key removed")
	}
}

func TestManagerCleanNow(t *testing.T) {
	c := NewLRUCache[int](10, time.Minute)
	clock := fakeClock(c)
	c.Set("a", 1)
	*clock = clock.Add(time.Hour)

	m := NewManager(log.Discard())
	m.Register(c)
	if n := m.CleanNow(); n != 1 {
		t.Fatalf("CleanNow = %d", n)
	}
	m.StartCleanup(time.Hour)
	m.Stop()
}

func TestManagerStopWithoutStart(t *testing.T) {
	m := NewManager(nil)
	m.Stop()
	m.StartCleanup(time.Hour)
	m.StartCleanup(time.Hour)
	m.Stop()
	m.Stop()
}
