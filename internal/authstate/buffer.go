// Package authstate issues the one-time 'state' values that bind an outgoing
// authorization prompt to the OAuth callback that later redeems it, preventing
// an attacker from tricking a user into completing a flow they never started.
package authstate

import (
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"
)

// ttl is how long an issued state value remains redeemable: long enough for a
// user to click through the Slack consent screen, short enough that stolen
// values go stale quickly
const ttl = 15 * time.Minute

// Buffer holds issued state values until they're redeemed or expire
type Buffer struct {
	mu      sync.Mutex
	pending []pendingState
	now     func() time.Time
}

type pendingState struct {
	value     string
	expiresAt time.Time
}

func NewBuffer() *Buffer {
	return &Buffer{
		pending: make([]pendingState, 0, 8),
		now:     time.Now,
	}
}

// Issue generates a new random state value and records it as pending
func (b *Buffer) Issue() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
	value := hex.EncodeToString(buf)

	b.mu.Lock()
	defer b.mu.Unlock()

	b.pending = append(b.pending, pendingState{
		value:     value,
		expiresAt: b.now().Add(ttl),
	})
	return value
}

// Redeem consumes the given state value, returning true only if it was
// previously issued, has not expired, and has not already been redeemed
func (b *Buffer) Redeem(value string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	redeemed := false
	kept := b.pending[:0]
	for _, p := range b.pending {
		if p.expiresAt.Before(now) {
			continue
		}
		if p.value == value && !redeemed {
			redeemed = true
			continue
		}
		kept = append(kept, p)
	}
	b.pending = kept
	return redeemed
}
