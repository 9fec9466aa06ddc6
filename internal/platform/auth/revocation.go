package auth

import (
	"sync"
	"time"
)

// revocationEntry stores metadata about a revoked session token.
type revocationEntry struct {
	ExpiresAt time.Time
	UserID    string
}

// issuedEntry tracks a live token so it can be bulk-revoked per user.
type issuedEntry struct {
	JTI       string
	ExpiresAt time.Time
}

// TokenRevocationStore manages revoked session tokens in memory. Revoked
// token JTIs are stored with automatic cleanup of expired entries.
// Thread-safe for concurrent access.
type TokenRevocationStore struct {
	mu      sync.RWMutex
	entries map[string]revocationEntry // JTI -> entry
	issued  map[string][]issuedEntry   // userID -> issued tokens
	done    chan struct{}
}

// NewTokenRevocationStore creates a new store and starts a background
// goroutine that cleans up expired entries every 5 minutes.
func NewTokenRevocationStore() *TokenRevocationStore {
	s := &TokenRevocationStore{
		entries: make(map[string]revocationEntry),
		issued:  make(map[string][]issuedEntry),
		done:    make(chan struct{}),
	}
	go s.cleanupLoop()
	return s
}

// TrackIssued records a freshly issued token so RevokeAllForUser can find it
// later.
func (s *TokenRevocationStore) TrackIssued(jti, userID string, expiresAt time.Time) {
	if userID == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issued[userID] = append(s.issued[userID], issuedEntry{JTI: jti, ExpiresAt: expiresAt})
}

// Revoke adds a token's JTI to the revocation list. The expiresAt time is
// when the token would have naturally expired; the entry is cleaned up after
// that since an expired token needs no tracking.
func (s *TokenRevocationStore) Revoke(jti string, expiresAt time.Time) {
	s.RevokeForUser(jti, "", expiresAt)
}

// RevokeForUser adds a token's JTI to the revocation list, attributing the
// revocation to a user ID.
func (s *TokenRevocationStore) RevokeForUser(jti, userID string, expiresAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[jti] = revocationEntry{
		ExpiresAt: expiresAt,
		UserID:    userID,
	}
}

// IsRevoked checks if a token JTI has been revoked.
func (s *TokenRevocationStore) IsRevoked(jti string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.entries[jti]
	return ok
}

// RevokeAllForUser revokes every tracked, unexpired token for a user and
// returns the number of tokens affected.
func (s *TokenRevocationStore) RevokeAllForUser(userID string) int {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, tok := range s.issued[userID] {
		if now.After(tok.ExpiresAt) {
			continue
		}
		if _, already := s.entries[tok.JTI]; already {
			continue
		}
		s.entries[tok.JTI] = revocationEntry{ExpiresAt: tok.ExpiresAt, UserID: userID}
		count++
	}
	return count
}

// Count returns the number of currently revoked tokens.
func (s *TokenRevocationStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.entries)
}

// Close stops the background cleanup goroutine.
func (s *TokenRevocationStore) Close() {
	close(s.done)
}

func (s *TokenRevocationStore) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.done:
			return
		}
	}
}

func (s *TokenRevocationStore) cleanup() {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	for jti, entry := range s.entries {
		if now.After(entry.ExpiresAt) {
			delete(s.entries, jti)
		}
	}

	for userID, toks := range s.issued {
		var live []issuedEntry
		for _, tok := range toks {
			if now.Before(tok.ExpiresAt) {
				live = append(live, tok)
			}
		}
		if len(live) == 0 {
			delete(s.issued, userID)
		} else {
			s.issued[userID] = live
		}
	}
}
