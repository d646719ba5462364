package auth

import (
	"context"
	"sync"
	"time"
)

// DefaultRevocationWindow bounds how long an entry is kept when the caller
// does not supply the token's real expiry.
const DefaultRevocationWindow = 2 * time.Hour

// RevocationRegistry tracks revoked token ids (jti) until their expiry.
// Entries self-heal on read and a periodic sweep bounds memory for ids that
// are never re-queried. Access is mutex-guarded: fiber serves requests from
// multiple goroutines.
type RevocationRegistry struct {
	mu      sync.Mutex
	entries map[string]int64 // jti -> exp (epoch seconds)
	window  time.Duration
	now     func() time.Time
}

// NewRevocationRegistry builds an empty registry. A non-positive window
// falls back to DefaultRevocationWindow.
func NewRevocationRegistry(window time.Duration) *RevocationRegistry {
	if window <= 0 {
		window = DefaultRevocationWindow
	}
	return &RevocationRegistry{
		entries: make(map[string]int64),
		window:  window,
		now:     time.Now,
	}
}

// Revoke marks jti revoked until exp (epoch seconds). A zero exp is replaced
// with now + the configured window so malformed input cannot pin an entry
// forever.
func (r *RevocationRegistry) Revoke(jti string, exp int64) {
	if jti == "" {
		return
	}
	if exp <= 0 {
		exp = r.now().Add(r.window).Unix()
	}
	r.mu.Lock()
	r.entries[jti] = exp
	r.mu.Unlock()
}

// IsRevoked reports whether jti is currently revoked. An entry whose expiry
// has passed is deleted on observation and reported as not revoked
// (revoked iff exp > now, exclusive at the boundary second).
func (r *RevocationRegistry) IsRevoked(jti string) bool {
	if jti == "" {
		return false
	}
	now := r.now().Unix()

	r.mu.Lock()
	defer r.mu.Unlock()

	exp, ok := r.entries[jti]
	if !ok {
		return false
	}
	if exp <= now {
		delete(r.entries, jti)
		return false
	}
	return true
}

// Sweep deletes every entry whose expiry has passed.
func (r *RevocationRegistry) Sweep() {
	now := r.now().Unix()

	r.mu.Lock()
	defer r.mu.Unlock()

	for jti, exp := range r.entries {
		if exp <= now {
			delete(r.entries, jti)
		}
	}
}

// Len reports the number of live entries, expired or not.
func (r *RevocationRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// StartSweeper sweeps on a fixed interval until ctx is cancelled.
func (r *RevocationRegistry) StartSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 20 * time.Minute
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.Sweep()
			}
		}
	}()
}
