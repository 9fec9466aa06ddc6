package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims carried by a portal session token.
type Claims struct {
	jwt.RegisteredClaims
	Name string `json:"name"`
	Role string `json:"role"`
}

// SessionManager issues and verifies HMAC-signed session tokens. Logout is
// implemented by revoking the token's JTI until it would have expired.
type SessionManager struct {
	secret     []byte
	ttl        time.Duration
	revocation *TokenRevocationStore
}

func NewSessionManager(secret string, ttl time.Duration) *SessionManager {
	return &SessionManager{
		secret:     []byte(secret),
		ttl:        ttl,
		revocation: NewTokenRevocationStore(),
	}
}

// Issue creates a signed session token for the given user.
func (m *SessionManager) Issue(userID, name, role string) (string, error) {
	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
		Name: name,
		Role: role,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	m.revocation.TrackIssued(claims.ID, userID, claims.ExpiresAt.Time)
	return signed, nil
}

// Verify parses and validates a session token, rejecting revoked sessions.
func (m *SessionManager) Verify(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return nil, fmt.Errorf("parse session token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid session token")
	}
	if m.revocation.IsRevoked(claims.ID) {
		return nil, fmt.Errorf("session has been revoked")
	}
	return claims, nil
}

// Revoke ends the session carried by the given token. Verifying the token
// first means a garbled or expired token is not an error for logout purposes.
func (m *SessionManager) Revoke(tokenStr string) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		return
	}

	expires := time.Now().Add(m.ttl)
	if claims.ExpiresAt != nil {
		expires = claims.ExpiresAt.Time
	}
	m.revocation.RevokeForUser(claims.ID, claims.Subject, expires)
}

// RevokeAllForUser ends every known session for the given user.
func (m *SessionManager) RevokeAllForUser(userID string) int {
	return m.revocation.RevokeAllForUser(userID)
}

// Close stops the revocation store's cleanup goroutine.
func (m *SessionManager) Close() {
	m.revocation.Close()
}
