package accounts

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// DefaultTokenTTL applies when no expiration is configured.
const DefaultTokenTTL = 30 * time.Minute

// TokenServiceImpl mints and validates HMAC signed bearer tokens. Only the
// HMAC family is accepted on validation; a token presenting any other alg
// fails as malformed regardless of its signature.
type TokenServiceImpl struct {
	signingKey    []byte
	signingMethod jwt.SigningMethod
	issuer        string
	audience      []string
	defaultTTL    time.Duration
	logger        Logger
}

// NewTokenService builds a token service signing with key. expireMinutes
// sets the default token lifetime; zero or negative falls back to
// DefaultTokenTTL.
func NewTokenService(signingKey, issuer string, audience []string, expireMinutes int) *TokenServiceImpl {
	ttl := DefaultTokenTTL
	if expireMinutes > 0 {
		ttl = time.Duration(expireMinutes) * time.Minute
	}

	return &TokenServiceImpl{
		signingKey:    []byte(signingKey),
		signingMethod: jwt.SigningMethodHS256,
		issuer:        issuer,
		audience:      audience,
		defaultTTL:    ttl,
		logger:        defLogger{},
	}
}

// WithLogger sets the logger instance
func (s *TokenServiceImpl) WithLogger(logger Logger) *TokenServiceImpl {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// WithSigningMethod selects an HMAC variant by its JWT alg name. Unknown
// names keep the current method.
func (s *TokenServiceImpl) WithSigningMethod(alg string) *TokenServiceImpl {
	switch alg {
	case "HS256":
		s.signingMethod = jwt.SigningMethodHS256
	case "HS384":
		s.signingMethod = jwt.SigningMethodHS384
	case "HS512":
		s.signingMethod = jwt.SigningMethodHS512
	default:
		s.logger.Warn("unsupported signing method %q, keeping %s", alg, s.signingMethod.Alg())
	}
	return s
}

// DefaultTTL exposes the configured default token lifetime.
func (s *TokenServiceImpl) DefaultTTL() time.Duration {
	return s.defaultTTL
}

// Generate mints a token for subject carrying scopes as an advisory
// snapshot, expiring after the configured default TTL.
func (s *TokenServiceImpl) Generate(subject string, scopes []string) (string, error) {
	return s.GenerateWithTTL(subject, scopes, s.defaultTTL)
}

// GenerateWithTTL mints a token with a per-issuance lifetime override.
func (s *TokenServiceImpl) GenerateWithTTL(subject string, scopes []string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = s.defaultTTL
	}

	now := time.Now()
	claims := &JWTClaims{
		ScopeSnapshot: scopes,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    s.issuer,
			Audience:  jwt.ClaimStrings(s.audience),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(s.signingMethod, claims)

	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to sign token")
	}

	return signed, nil
}

// Validate decodes and verifies a bearer token. Expired tokens surface as
// ErrTokenExpired; every other failure collapses into ErrTokenMalformed so
// clients learn nothing about key or claim internals.
func (s *TokenServiceImpl) Validate(tokenString string) (AuthClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.signingKey, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, goerrors.Wrap(err, ErrTokenExpired.Category, ErrTokenExpired.Message).
				WithTextCode(ErrTokenExpired.TextCode).
				WithCode(ErrTokenExpired.Code)
		}
		return nil, goerrors.Wrap(err, ErrTokenMalformed.Category, ErrTokenMalformed.Message).
			WithTextCode(ErrTokenMalformed.TextCode).
			WithCode(ErrTokenMalformed.Code)
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid {
		return nil, ErrTokenMalformed
	}

	return claims, nil
}
