// Package ratelimit enforces a fixed cooldown between requests for the
// same (actor, action) pair.
package ratelimit

import (
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
)

// Limiter tracks the last time each (actor, action) was seen. Entries
// expire after the cooldown, so a key still present in the cache is by
// construction inside its window.
type Limiter struct {
	cooldown time.Duration

	mu    sync.Mutex
	items *cache.Cache
	now   func() time.Time
}

// New creates a Limiter with the given cooldown. A non-positive cooldown
// disables limiting.
func New(cooldown time.Duration) *Limiter {
	cleanup := max(cooldown, time.Minute)
	return &Limiter{
		cooldown: cooldown,
		items:    cache.New(cooldown, cleanup),
		now:      time.Now,
	}
}

// Cooldown returns the configured cooldown.
func (l *Limiter) Cooldown() time.Duration {
	return l.cooldown
}

// IsLimited reports whether the pair was seen less than the cooldown ago.
// The current time is recorded as last-seen whatever the answer, and the
// check and the record happen atomically per limiter.
func (l *Limiter) IsLimited(actor, action string) bool {
	if l.cooldown <= 0 {
		return false
	}

	k := key(actor, action)
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	limited := false
	if v, found := l.items.Get(k); found {
		if last, ok := v.(time.Time); ok && now.Sub(last) < l.cooldown {
			limited = true
		}
	}
	l.items.Set(k, now, cache.DefaultExpiration)
	return limited
}

// Len returns the number of tracked pairs, including ones the janitor has
// not yet evicted.
func (l *Limiter) Len() int {
	return l.items.ItemCount()
}

func key(actor, action string) string {
	return actor + "\x00" + action
}
