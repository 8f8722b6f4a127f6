package client

import (
	"testing"
	"time"
)

func TestTTLCacheExpiry(t *testing.T) {
	c := NewTTLCache(time.Minute)
	now := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Set(EntityUsers, []User{{ID: 1}})
	if _, ok := c.Get(EntityUsers); !ok {
		t.Fatal("fresh entry missing")
	}
	if at, ok := c.FetchedAt(EntityUsers); !ok || !at.Equal(now) {
		t.Fatalf("FetchedAt = %v, %v", at, ok)
	}

	now = now.Add(59 * time.Second)
	if _, ok := c.Get(EntityUsers); !ok {
		t.Fatal("entry expired early")
	}
	now = now.Add(time.Second)
	if _, ok := c.Get(EntityUsers); ok {
		t.Fatal("entry outlived its ttl")
	}
}

func TestTTLCacheInvalidateAndClear(t *testing.T) {
	c := NewTTLCache(0)
	c.Set(EntityUsers, 1)
	c.Set(EntityMicrosites, 2)

	c.Invalidate(EntityUsers)
	if _, ok := c.Get(EntityUsers); ok {
		t.Fatal("invalidated entry still present")
	}
	if v, ok := c.Get(EntityMicrosites); !ok || v.(int) != 2 {
		t.Fatalf("unrelated entry lost: %v, %v", v, ok)
	}
	c.Clear()
	if _, ok := c.Get(EntityMicrosites); ok {
		t.Fatal("Clear left entries behind")
	}
}

func TestSharedCacheIsSingleton(t *testing.T) {
	if SharedCache() != SharedCache() {
		t.Fatal("SharedCache returned different instances")
	}
}
