package cache

import (
	"strings"
	"sync"
	"time"
)

const defaultRegistrationTTL = 10 * time.Minute

// RegistrationCache keeps hot flight-number to tail-number lookups in
// process so the inline enrichment step stays off the database for repeat
// keys within a pass window. The durable cache is the aircraft_cache table;
// this layer only absorbs read traffic.
type RegistrationCache interface {
	Get(flightIATA string) (string, bool)
	Set(flightIATA, tailNumber string)
}

type registrationCache struct {
	mu      sync.RWMutex
	entries map[string]entry
	ttl     time.Duration
	now     func() time.Time
}

type entry struct {
	tailNumber string
	expiresAt  time.Time
}

// NewRegistrationCache returns an in-memory TTL cache for resolved tails.
func NewRegistrationCache() RegistrationCache {
	return &registrationCache{
		entries: make(map[string]entry),
		ttl:     defaultRegistrationTTL,
		now:     time.Now,
	}
}

func (c *registrationCache) Get(flightIATA string) (string, bool) {
	key := cacheKey(flightIATA)
	if key == "" {
		return "", false
	}

	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || c.now().After(e.expiresAt) {
		return "", false
	}
	return e.tailNumber, true
}

func (c *registrationCache) Set(flightIATA, tailNumber string) {
	key := cacheKey(flightIATA)
	if key == "" || tailNumber == "" {
		return
	}

	c.mu.Lock()
	c.entries[key] = entry{tailNumber: tailNumber, expiresAt: c.now().Add(c.ttl)}
	c.mu.Unlock()
}

func cacheKey(flightIATA string) string {
	return strings.ToLower(strings.TrimSpace(flightIATA))
}
