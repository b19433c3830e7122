// Package guard provides the per-(actor, kind) generation lock that keeps
// at most one generation in flight for each key.
package guard

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// DefaultTTL bounds how long a lost release can block an actor.
const DefaultTTL = 120 * time.Second

// Token identifies one acquisition. Only the holder of the current token
// can release the key.
type Token string

type entry struct {
	token Token
	at    time.Time
}

// Guard is a TTL-bounded set of held keys. It is safe for concurrent use.
type Guard struct {
	ttl   time.Duration
	mu    sync.Mutex
	items *cache.Cache
}

// New creates a Guard whose entries expire after ttl. A non-positive ttl
// uses DefaultTTL.
func New(ttl time.Duration) *Guard {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Guard{
		ttl:   ttl,
		items: cache.New(ttl, ttl),
	}
}

// TTL returns the entry lifetime.
func (g *Guard) TTL() time.Duration {
	return g.ttl
}

// TryAcquire takes the lock for (actor, kind) and returns the token that
// releases it. It returns false if the key is already held and has not
// expired. Expired entries are swept first.
func (g *Guard) TryAcquire(actor, kind string) (Token, bool) {
	tok := Token(uuid.NewString())

	g.mu.Lock()
	defer g.mu.Unlock()

	g.items.DeleteExpired()
	if err := g.items.Add(key(actor, kind), entry{token: tok, at: time.Now()}, cache.DefaultExpiration); err != nil {
		return "", false
	}
	return tok, true
}

// Release drops the lock for (actor, kind) if tok still owns it. A holder
// whose entry expired and was taken over by another caller releases
// nothing. It reports whether the key was released.
func (g *Guard) Release(actor, kind string, tok Token) bool {
	k := key(actor, kind)

	g.mu.Lock()
	defer g.mu.Unlock()

	v, ok := g.items.Get(k)
	if !ok {
		return false
	}
	if e, ok := v.(entry); !ok || e.token != tok {
		return false
	}
	g.items.Delete(k)
	return true
}

// Held reports whether (actor, kind) is currently locked.
func (g *Guard) Held(actor, kind string) bool {
	_, ok := g.items.Get(key(actor, kind))
	return ok
}

// AcquiredAt returns when the current holder took the lock.
func (g *Guard) AcquiredAt(actor, kind string) (time.Time, bool) {
	v, ok := g.items.Get(key(actor, kind))
	if !ok {
		return time.Time{}, false
	}
	e, ok := v.(entry)
	return e.at, ok
}

func key(actor, kind string) string {
	return actor + "\x00" + kind
}
