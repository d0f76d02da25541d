package accounts

import (
	"context"
	"fmt"
	"time"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Principal is the authenticated account view handed to callers after a
// successful session validation. It is built from the live storage row,
// never from token claims.
type Principal interface {
	ID() string
	Username() string
	Email() string
	FullName() string
	Scopes() []string
	EmailVerified() bool
}

// Authenticator exchanges credentials for a signed bearer token.
type Authenticator interface {
	Login(ctx context.Context, identifier, password string) (string, error)
}

type LoginPayload interface {
	GetIdentifier() string
	GetPassword() string
}

// TokenService mints and validates bearer tokens.
type TokenService interface {
	Generate(subject string, scopes []string) (string, error)
	GenerateWithTTL(subject string, scopes []string, ttl time.Duration) (string, error)
	Validate(tokenString string) (AuthClaims, error)
}

// PrincipalStore retrieves live account rows for session validation.
type PrincipalStore interface {
	FindBySubject(ctx context.Context, subject string) (*User, error)
}

// Mailer delivers a single plain or HTML message to one recipient.
type Mailer interface {
	Send(ctx context.Context, subject, to, body string) error
}

// PasswordAuthenticator authenticates passwords
type PasswordAuthenticator interface {
	HashPassword(password string) (string, error)
	ComparePasswordAndHash(password, hash string) error
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] ACCOUNTS "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] ACCOUNTS "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] ACCOUNTS "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] ACCOUNTS "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
