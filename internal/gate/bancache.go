package gate

import (
	"sync"
	"time"
)

// BanCache short-circuits the durable-store ban lookup on the hot path. It is
// a performance shortcut only: the store stays authoritative and is consulted
// on every miss.
type BanCache struct {
	entries sync.Map // identity -> banEntry
}

type banEntry struct {
	reason    string
	expiresAt time.Time
	permanent bool
}

func NewBanCache() *BanCache {
	return &BanCache{}
}

// Lookup returns the cached ban reason for the identity. Expired entries are
// evicted lazily here rather than by a background scan.
func (c *BanCache) Lookup(identity string, now time.Time) (string, bool) {
	entry, ok := c.lookupEntry(identity, now)
	return entry.reason, ok
}

func (c *BanCache) lookupEntry(identity string, now time.Time) (banEntry, bool) {
	raw, ok := c.entries.Load(identity)
	if !ok {
		return banEntry{}, false
	}

	entry := raw.(banEntry)
	if entry.permanent || entry.expiresAt.After(now) {
		return entry, true
	}

	c.entries.Delete(identity)
	return banEntry{}, false
}

func (c *BanCache) Put(identity, reason string, expiresAt time.Time, permanent bool) {
	c.entries.Store(identity, banEntry{
		reason:    reason,
		expiresAt: expiresAt,
		permanent: permanent,
	})
}

// Invalidate drops the identity so an explicit unban takes effect immediately
// instead of waiting for the cached expiry.
func (c *BanCache) Invalidate(identity string) {
	c.entries.Delete(identity)
}
