package auth

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"movie-discovery-weather-recommender/internal/cache"
)

const revokedKeyPrefix = "revoked:session:"

// TokenStore remembers revoked session ids until they would have expired.
// Revocations go to Redis when available and are mirrored in memory.
type TokenStore struct {
	cache *cache.Client

	mu      sync.Mutex
	revoked map[string]time.Time
	now     func() time.Time
}

// NewTokenStore creates a new token store over c, which may be nil.
func NewTokenStore(c *cache.Client) *TokenStore {
	return &TokenStore{cache: c, revoked: map[string]time.Time{}, now: time.Now}
}

// Revoke marks id as revoked for ttl.
func (s *TokenStore) Revoke(ctx context.Context, id string, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	s.cache.Set(ctx, revokedKeyPrefix+id, []byte("1"), ttl)

	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for k, exp := range s.revoked {
		if !exp.After(now) {
			delete(s.revoked, k)
		}
	}
	s.revoked[id] = now.Add(ttl)
}

// IsRevoked reports whether id has been revoked.
func (s *TokenStore) IsRevoked(ctx context.Context, id string) bool {
	s.mu.Lock()
	exp, ok := s.revoked[id]
	s.mu.Unlock()
	if ok && exp.After(s.now()) {
		return true
	}

	found, err := s.cache.Exists(ctx, revokedKeyPrefix+id)
	if err != nil {
		if err != cache.ErrDisabled {
			slog.Warn("revocation lookup failed, using local state", "error", err)
		}
		return false
	}
	return found
}
