package accounts

import (
	"context"

	"github.com/goliatone/go-accounts/middleware/scopeware"
	"github.com/goliatone/go-router"
)

// scopewareValidator bridges the concrete SessionValidator to the mirror
// interface the middleware declares, converting the principal type across
// the package boundary.
type scopewareValidator struct {
	validator *SessionValidator
}

func (s scopewareValidator) AuthenticateAndAuthorize(ctx context.Context, token string, required ...string) (scopeware.Principal, error) {
	principal, err := s.validator.AuthenticateAndAuthorize(ctx, token, required...)
	if err != nil {
		return nil, err
	}
	return principal, nil
}

// RequireScopes builds route middleware that authenticates the bearer
// token and requires every listed scope on the live account. The
// validated principal lands in locals under PrincipalContextKey and in
// the request's standard context.
func RequireScopes(validator *SessionValidator, scopes ...Scope) router.MiddlewareFunc {
	return scopeware.New(scopeware.Config{
		Validator:      scopewareValidator{validator: validator},
		RequiredScopes: scopes,
		ContextKey:     PrincipalContextKey,
		ContextEnricher: func(c context.Context, principal scopeware.Principal) context.Context {
			if p, ok := principal.(Principal); ok {
				return WithPrincipalContext(c, p)
			}
			return c
		},
	})
}
