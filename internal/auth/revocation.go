/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package auth

import (
	"sync"
	"time"
)

// RevocationList remembers token IDs invalidated by logout until they would
// have expired anyway. JWTs cannot be forced to expire, so revocation is
// tracked server side; the list is in-memory and resets on restart, which
// matches the single-process deployment model.
type RevocationList struct {
	mu      sync.RWMutex
	revoked map[string]time.Time // jti -> token expiry
}

// NewRevocationList creates an empty revocation list.
func NewRevocationList() *RevocationList {
	return &RevocationList{revoked: make(map[string]time.Time)}
}

// Revoke marks a token ID invalid until expiresAt.
func (l *RevocationList) Revoke(jti string, expiresAt time.Time) {
	if jti == "" {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.revoked[jti] = expiresAt
	l.sweepLocked()
}

// Revoked reports whether the token ID has been revoked.
func (l *RevocationList) Revoked(jti string) bool {
	l.mu.RLock()
	expiry, ok := l.revoked[jti]
	l.mu.RUnlock()
	return ok && time.Now().Before(expiry)
}

// sweepLocked drops entries for tokens that have expired on their own.
func (l *RevocationList) sweepLocked() {
	now := time.Now()
	for jti, expiry := range l.revoked {
		if now.After(expiry) {
			delete(l.revoked, jti)
		}
	}
}
