package accounts

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
)

// SessionValidator turns a bearer token into an authorized Principal. The
// token only proves identity; every call re-reads the account row so scope
// revocations and disabling apply to tokens minted before the change.
type SessionValidator struct {
	tokens TokenService
	store  PrincipalStore
	logger Logger
}

func NewSessionValidator(tokens TokenService, store PrincipalStore) *SessionValidator {
	return &SessionValidator{
		tokens: tokens,
		store:  store,
		logger: defLogger{},
	}
}

// WithLogger sets the logger instance
func (v *SessionValidator) WithLogger(logger Logger) *SessionValidator {
	if logger != nil {
		v.logger = logger
	}
	return v
}

// Authenticate validates the token and resolves the live account without
// any scope requirement.
func (v *SessionValidator) Authenticate(ctx context.Context, token string) (Principal, error) {
	return v.AuthenticateAndAuthorize(ctx, token)
}

// AuthenticateAndAuthorize validates the token, resolves the live account,
// and checks every required scope against the account's current grants.
// Decode and resolution failures are authentication errors; a missing
// scope is an authorization error. The scope snapshot inside the token is
// never consulted.
func (v *SessionValidator) AuthenticateAndAuthorize(ctx context.Context, token string, required ...Scope) (Principal, error) {
	claims, err := v.tokens.Validate(token)
	if err != nil {
		return nil, err
	}

	subject := claims.Subject()
	if subject == "" {
		return nil, ErrInvalidSession
	}

	user, err := v.store.FindBySubject(ctx, subject)
	if err != nil {
		if goerrors.IsNotFound(err) {
			v.logger.Warn("session subject %q does not resolve to a live account", subject)
			return nil, ErrInvalidSession
		}
		return nil, ClassifyDatabaseError(err, "failed to load account for session")
	}

	if user.Disabled {
		return nil, ErrAccountDisabled
	}

	if err := Authorize(required, user.GrantedScopes()); err != nil {
		return nil, err
	}

	return NewPrincipal(user), nil
}
