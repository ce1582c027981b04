package auth

import (
	"context"
	"time"
)

// Sessions issues, verifies and revokes session tokens.
type Sessions struct {
	jwt   *JWTService
	store *TokenStore
}

func NewSessions(j *JWTService, store *TokenStore) *Sessions {
	return &Sessions{jwt: j, store: store}
}

// Issue creates a session for the account userID.
func (s *Sessions) Issue(userID, email string) (string, *Claims, error) {
	return s.jwt.Generate(userID, email)
}

// Verify validates token and rejects revoked sessions.
func (s *Sessions) Verify(ctx context.Context, token string) (*Claims, error) {
	claims, err := s.jwt.Validate(token)
	if err != nil {
		return nil, err
	}
	if s.store.IsRevoked(ctx, claims.ID) {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Revoke ends the session described by claims.
func (s *Sessions) Revoke(ctx context.Context, claims *Claims) {
	if claims == nil || claims.ExpiresAt == nil {
		return
	}
	s.store.Revoke(ctx, claims.ID, time.Until(claims.ExpiresAt.Time))
}
