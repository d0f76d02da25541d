package accounts

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// Auther exchanges password credentials for bearer tokens. Email
// verification is not a login requirement: unconfirmed accounts
// authenticate normally and are only constrained by their scopes.
type Auther struct {
	repo   RepositoryManager
	tokens TokenService
	logger Logger
}

func NewAuthenticator(repo RepositoryManager, tokens TokenService) *Auther {
	return &Auther{
		repo:   repo,
		tokens: tokens,
		logger: defLogger{},
	}
}

// WithLogger sets the logger instance
func (a *Auther) WithLogger(logger Logger) *Auther {
	if logger != nil {
		a.logger = logger
	}
	return a
}

// Login verifies the identifier/password pair and mints a token with the
// default lifetime. Unknown identifiers and wrong passwords are
// indistinguishable to the caller.
func (a *Auther) Login(ctx context.Context, identifier, password string) (string, error) {
	return a.LoginWithTTL(ctx, identifier, password, 0)
}

// LoginWithTTL is Login with a per-issuance token lifetime override.
// A non-positive ttl uses the configured default.
func (a *Auther) LoginWithTTL(ctx context.Context, identifier, password string, ttl time.Duration) (string, error) {
	user, err := a.repo.Users().GetByIdentifier(ctx, identifier)
	if err != nil {
		if goerrors.IsNotFound(err) {
			a.logger.Warn("login attempt for unknown identifier %q", identifier)
			return "", ErrMismatchedHashAndPassword
		}
		return "", ClassifyDatabaseError(err, "failed to load account for login")
	}

	if err := ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		a.logger.Warn("failed login attempt for %q", user.Username)
		return "", err
	}

	if user.Disabled {
		return "", ErrAccountDisabled
	}

	// The scope list inside the token is a snapshot for observability;
	// authorization always re-reads the live grants.
	if ttl > 0 {
		return a.tokens.GenerateWithTTL(user.Username, user.GrantedScopes(), ttl)
	}
	return a.tokens.Generate(user.Username, user.GrantedScopes())
}
