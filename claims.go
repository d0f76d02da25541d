package accounts

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AuthClaims is the decoded view of a bearer token. The scope list is the
// snapshot captured at mint time; authorization decisions never trust it
// and always consult the live account row instead.
type AuthClaims interface {
	Subject() string
	Scopes() []Scope
	Expiration() (time.Time, bool)
	IssuedAtTime() (time.Time, bool)
}

// JWTClaims carries the registered claim set plus the advisory scope
// snapshot under the "scopes" key.
type JWTClaims struct {
	ScopeSnapshot []string `json:"scopes,omitempty"`
	jwt.RegisteredClaims
}

// Subject shadows the promoted RegisteredClaims field so JWTClaims
// satisfies AuthClaims.
func (c *JWTClaims) Subject() string {
	return c.RegisteredClaims.Subject
}

// Scopes returns the advisory snapshot exactly as minted.
func (c *JWTClaims) Scopes() []Scope {
	return c.ScopeSnapshot
}

// Expiration returns the expiry instant, if the token carries one.
func (c *JWTClaims) Expiration() (time.Time, bool) {
	if c.ExpiresAt == nil {
		return time.Time{}, false
	}
	return c.ExpiresAt.Time, true
}

// IssuedAtTime returns the mint instant, if the token carries one.
func (c *JWTClaims) IssuedAtTime() (time.Time, bool) {
	if c.IssuedAt == nil {
		return time.Time{}, false
	}
	return c.IssuedAt.Time, true
}
