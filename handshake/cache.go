package handshake

import (
	"sync"
	"time"

	bloomring "github.com/v2fly/ss-bloomring"
)

// responseCacheTTL bounds how long a completed handshake's RESPONSE
// bytes are kept around for idempotent retransmission.
const responseCacheTTL = 300 * time.Second

type cacheEntry struct {
	response []byte
	expires  time.Time
}

// Cache deduplicates concurrent/retried INIT messages on the responder
// side. A bloom filter (github.com/v2fly/ss-bloomring, the same
// replay-prefilter library xray-core wires into its own inbound
// handlers) gives a fast, constant-memory "definitely new" check; a
// bounded TTL map backs it so a retransmitted INIT for an
// already-answered client_nonce gets the identical cached RESPONSE
// replayed instead of a second handshake running, making the
// responder idempotent under retransmission.
type Cache struct {
	mu      sync.Mutex
	bloom   *bloomring.BloomRing
	entries map[[16]byte]cacheEntry
}

// bloomRingSlots, bloomRingCapacity, and bloomRingFalsePositiveRate mirror
// the ss-bloomring package's own DefaultSFSlot/DefaultSFCapacity/DefaultSFFPR
// defaults.
const (
	bloomRingSlots             = 10
	bloomRingCapacity          = 1e6
	bloomRingFalsePositiveRate = 1e-6
)

func NewCache() *Cache {
	return &Cache{
		bloom:   bloomring.NewBloomRing(bloomRingSlots, bloomRingCapacity, bloomRingFalsePositiveRate),
		entries: make(map[[16]byte]cacheEntry),
	}
}

// Lookup reports whether clientNonce has already been answered, and if
// so returns the cached RESPONSE bytes to retransmit verbatim.
func (c *Cache) Lookup(clientNonce [16]byte) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.evictLocked()
	if !c.bloom.Test(clientNonce[:]) {
		return nil, false
	}
	e, ok := c.entries[clientNonce]
	if !ok {
		return nil, false
	}
	return e.response, true
}

// Store records that clientNonce has been answered with response,
// so a retransmitted INIT gets the same bytes back rather than a
// freshly derived (and differently keyed) RESPONSE.
func (c *Cache) Store(clientNonce [16]byte, response []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.bloom.Add(clientNonce[:]) // primes the filter so Lookup's Test reports a hit
	c.entries[clientNonce] = cacheEntry{
		response: append([]byte{}, response...),
		expires:  time.Now().Add(responseCacheTTL),
	}
}

func (c *Cache) evictLocked() {
	now := time.Now()
	for k, e := range c.entries {
		if now.After(e.expires) {
			delete(c.entries, k)
		}
	}
}
