package accounts

import (
	"context"

	"github.com/goliatone/go-router"
)

// PrincipalContextKey is where the middleware stores the validated
// principal in the router context locals.
const PrincipalContextKey = "principal"

var principalCtxKey = &contextKey{"principal"}

type contextKey struct {
	name string
}

// WithPrincipalContext sets the Principal in the given context
func WithPrincipalContext(r context.Context, principal Principal) context.Context {
	return context.WithValue(r, principalCtxKey, principal)
}

// PrincipalFromContext finds the principal from the context.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	raw, ok := ctx.Value(principalCtxKey).(Principal)
	return raw, ok
}

// RouterPrincipal extracts the Principal from the router context locals.
func RouterPrincipal(ctx router.Context, key ...string) (Principal, bool) {
	k := PrincipalContextKey
	if len(key) > 0 && key[0] != "" {
		k = key[0]
	}

	raw := ctx.Locals(k)
	if raw == nil {
		return nil, false
	}

	principal, ok := raw.(Principal)
	return principal, ok
}

// HasScope reports whether the principal in the standard context holds the
// given scope. Missing principal means no.
func HasScope(ctx context.Context, scope Scope) bool {
	principal, ok := PrincipalFromContext(ctx)
	if !ok {
		return false
	}
	return Authorize([]Scope{scope}, principal.Scopes()) == nil
}
