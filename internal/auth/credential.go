// Package auth holds the trainee's bearer credential for API calls.
package auth

import (
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Credential is a thread-safe bearer token holder.
type Credential struct {
	mu    sync.RWMutex
	token string
	now   func() time.Time
}

// NewCredential creates a holder, optionally pre-loaded with a token.
func NewCredential(token string) *Credential {
	return &Credential{token: token, now: time.Now}
}

// Token returns the bearer token, or "" when signed out.
func (c *Credential) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// Set replaces the token.
func (c *Credential) Set(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

// Clear signs out.
func (c *Credential) Clear() {
	c.Set("")
}

// IsAuthenticated reports whether a token is present and not expired. The
// signature is the server's business; only the exp claim is inspected.
func (c *Credential) IsAuthenticated() bool {
	token := c.Token()
	if token == "" {
		return false
	}

	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return false
	}
	if claims.ExpiresAt == nil {
		return true
	}
	return c.now().Before(claims.ExpiresAt.Time)
}

// ExpiresAt returns the token's exp claim, if any.
func (c *Credential) ExpiresAt() (time.Time, bool) {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(c.Token(), &claims); err != nil || claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
