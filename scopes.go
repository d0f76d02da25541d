package accounts

// Scope names a permission an account can hold. It is an alias so scope
// slices interoperate with plain string slices across package boundaries.
type Scope = string

// Closed scope set. Anything outside this list is rejected at normalization.
const (
	ScopeUsersCreate Scope = "users.create"
	ScopeUsersDelete Scope = "users.delete"
	ScopeUsersUpdate Scope = "users.update"
	ScopeUsersList   Scope = "users.list"
	ScopeItemsCreate Scope = "items.create"
	ScopeItemsDelete Scope = "items.delete"
	ScopeItemsUpdate Scope = "items.update"
	ScopeItemsList   Scope = "items.list"
)

var knownScopes = map[Scope]struct{}{
	ScopeUsersCreate: {},
	ScopeUsersDelete: {},
	ScopeUsersUpdate: {},
	ScopeUsersList:   {},
	ScopeItemsCreate: {},
	ScopeItemsDelete: {},
	ScopeItemsUpdate: {},
	ScopeItemsList:   {},
}

// DefaultScopes are granted to every newly registered account.
func DefaultScopes() []Scope {
	return []Scope{ScopeUsersList}
}

// IsKnownScope reports whether name belongs to the closed scope set.
func IsKnownScope(name Scope) bool {
	_, ok := knownScopes[name]
	return ok
}

// NormalizeScopes drops duplicates and unknown names, preserving first-seen
// order. Storage rows written by older builds may carry retired names; they
// are ignored rather than treated as errors.
func NormalizeScopes(scopes []Scope) []Scope {
	out := make([]Scope, 0, len(scopes))
	seen := map[Scope]struct{}{}
	for _, s := range scopes {
		if !IsKnownScope(s) {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// Authorize checks that every required scope is present in held. The check
// is conjunctive: a single missing scope fails the whole call with an
// authorization error carrying the missing name.
func Authorize(required, held []Scope) error {
	if len(required) == 0 {
		return nil
	}

	index := make(map[Scope]struct{}, len(held))
	for _, s := range held {
		index[s] = struct{}{}
	}

	for _, want := range required {
		if _, ok := index[want]; !ok {
			return ErrInsufficientScope.Clone().WithMetadata(map[string]any{
				"missing_scope": want,
			})
		}
	}

	return nil
}
