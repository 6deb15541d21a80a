package gate

import (
	"testing"
	"time"

	"wishwall/internal/domain"
)

func TestBanCacheLookup(t *testing.T) {
	cache := NewBanCache()
	now := time.Now()

	if _, ok := cache.Lookup("203.0.113.1", now); ok {
		t.Fatal("empty cache produced a hit")
	}

	cache.Put("203.0.113.1", "flood", now.Add(time.Hour), false)

	reason, ok := cache.Lookup("203.0.113.1", now)
	if !ok || reason != "flood" {
		t.Fatalf("expected cached ban, got ok=%v reason=%q", ok, reason)
	}
}

func TestBanCacheExpiresLazily(t *testing.T) {
	cache := NewBanCache()
	now := time.Now()

	cache.Put("203.0.113.2", "flood", now.Add(time.Minute), false)

	if _, ok := cache.Lookup("203.0.113.2", now.Add(2*time.Minute)); ok {
		t.Fatal("expired entry still served")
	}

	// The expired entry is gone, not just masked.
	if _, loaded := cache.entries.Load("203.0.113.2"); loaded {
		t.Fatal("expired entry not evicted")
	}
}

func TestBanCachePermanentNeverExpires(t *testing.T) {
	cache := NewBanCache()
	now := time.Now()

	cache.Put("203.0.113.3", "abuse", domain.PermanentBanSentinel, true)

	if _, ok := cache.Lookup("203.0.113.3", now.Add(24*365*time.Hour)); !ok {
		t.Fatal("permanent entry expired")
	}
}

func TestBanCacheInvalidate(t *testing.T) {
	cache := NewBanCache()
	now := time.Now()

	cache.Put("203.0.113.4", "flood", now.Add(time.Hour), false)
	cache.Invalidate("203.0.113.4")

	if _, ok := cache.Lookup("203.0.113.4", now); ok {
		t.Fatal("invalidated entry still served")
	}

	// Invalidating an absent identity is a no-op.
	cache.Invalidate("203.0.113.5")
}
