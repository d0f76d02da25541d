package accounts_test

import (
	"testing"

	accounts "github.com/goliatone/go-accounts"
	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthorize(t *testing.T) {
	tests := []struct {
		name     string
		required []string
		held     []string
		allowed  bool
	}{
		{
			name:     "no requirements always pass",
			required: nil,
			held:     nil,
			allowed:  true,
		},
		{
			name:     "exact match",
			required: []string{accounts.ScopeUsersList},
			held:     []string{accounts.ScopeUsersList},
			allowed:  true,
		},
		{
			name:     "subset of held",
			required: []string{accounts.ScopeUsersList},
			held:     []string{accounts.ScopeUsersList, accounts.ScopeItemsCreate},
			allowed:  true,
		},
		{
			name:     "missing single scope",
			required: []string{accounts.ScopeUsersDelete},
			held:     []string{accounts.ScopeUsersList},
			allowed:  false,
		},
		{
			name:     "all required must be held",
			required: []string{accounts.ScopeUsersList, accounts.ScopeUsersDelete},
			held:     []string{accounts.ScopeUsersList},
			allowed:  false,
		},
		{
			name:     "nothing held",
			required: []string{accounts.ScopeUsersList},
			held:     nil,
			allowed:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := accounts.Authorize(tt.required, tt.held)
			if tt.allowed {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)

			var rich *goerrors.Error
			require.True(t, goerrors.As(err, &rich))
			assert.Equal(t, goerrors.CategoryAuthz, rich.Category)
			assert.Equal(t, accounts.TextCodeInsufficientScope, rich.TextCode)
		})
	}
}

func TestAuthorizeReportsMissingScope(t *testing.T) {
	err := accounts.Authorize(
		[]string{accounts.ScopeItemsDelete},
		[]string{accounts.ScopeUsersList},
	)
	require.Error(t, err)

	var rich *goerrors.Error
	require.True(t, goerrors.As(err, &rich))
	assert.Equal(t, accounts.ScopeItemsDelete, rich.Metadata["missing_scope"])
}

func TestNormalizeScopes(t *testing.T) {
	got := accounts.NormalizeScopes([]string{
		accounts.ScopeUsersList,
		"ietms.update", // retired typo scope from older rows
		accounts.ScopeUsersList,
		accounts.ScopeItemsUpdate,
		"made.up",
	})

	assert.Equal(t, []string{accounts.ScopeUsersList, accounts.ScopeItemsUpdate}, got)
}

func TestDefaultScopes(t *testing.T) {
	assert.Equal(t, []string{accounts.ScopeUsersList}, accounts.DefaultScopes())

	for _, s := range accounts.DefaultScopes() {
		assert.True(t, accounts.IsKnownScope(s))
	}
}

func TestIsKnownScope(t *testing.T) {
	assert.True(t, accounts.IsKnownScope(accounts.ScopeItemsUpdate))
	assert.False(t, accounts.IsKnownScope("ietms.update"))
	assert.False(t, accounts.IsKnownScope(""))
}
