// Package routecache implements the Reply-Route Cache: a
// ClientId -> (SiloAddress, last_seen) map with TTL expiry, used so one
// Gateway can forward a client-addressable-object's reply to the Gateway
// its originating client is attached to.
package routecache

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/nimbus-silo/gateway/internal/identity"
)

// Cache is the Reply-Route Cache. It is backed by an expirable LRU with
// TTL-based freshness, constructed with an unbounded capacity (0) so no
// entry is evicted for lack of room. With a positive TTL the library starts
// its own background goroutine that removes expired entries; that goroutine
// runs independently of the gateway lock.
type Cache struct {
	ttl time.Duration
	lru *lru.LRU[identity.ClientID, identity.SiloAddress]
}

// New constructs a Cache with the given entry TTL.
func New(ttl time.Duration) *Cache {
	return &Cache{
		ttl: ttl,
		lru: lru.NewLRU[identity.ClientID, identity.SiloAddress](0, nil, ttl),
	}
}

// RecordRoute implements record_route: upsert with
// last_seen = now, idempotent, last write wins.
func (c *Cache) RecordRoute(client identity.ClientID, gateway identity.SiloAddress) {
	c.lru.Add(client, gateway)
}

// TryFindRoute implements try_find_route: a lookup with no side effects.
// It uses the library's Peek, which reports an entry older than the TTL as
// absent even before that entry has been removed, so a stale route is
// never returned.
func (c *Cache) TryFindRoute(client identity.ClientID) (identity.SiloAddress, bool) {
	return c.lru.Peek(client)
}

// DropExpired implements drop_expired: it calls Get on every key the
// library still reports as unexpired. Keys already leaves out expired
// entries and Get does not remove any, so this sweep evicts nothing itself;
// expired entries are removed by the library's background goroutine. It
// takes neither the gateway lock nor any lock of its own.
func (c *Cache) DropExpired() {
	for _, key := range c.lru.Keys() {
		c.lru.Get(key)
	}
}

// Len reports the current entry count, for the admin/stats surface.
func (c *Cache) Len() int { return c.lru.Len() }
