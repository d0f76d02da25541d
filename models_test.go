package accounts_test

import (
	"encoding/json"
	"testing"

	accounts "github.com/goliatone/go-accounts"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGrantedScopesNormalizes(t *testing.T) {
	user := &accounts.User{
		Scopes: []string{
			accounts.ScopeUsersList,
			"ietms.update", // legacy typo, no longer recognized
			accounts.ScopeUsersList,
			accounts.ScopeItemsUpdate,
		},
	}

	assert.Equal(t,
		[]string{accounts.ScopeUsersList, accounts.ScopeItemsUpdate},
		user.GrantedScopes())
}

func TestUserJSONHidesSecrets(t *testing.T) {
	user := &accounts.User{
		ID:                uuid.New(),
		Username:          "alice",
		Email:             "alice@example.com",
		PasswordHash:      "hashed-secret",
		ConfirmationToken: "A1B2C3D4E5",
		ResetToken:        "tok1234567890abc",
	}

	raw, err := json.Marshal(user)
	require.NoError(t, err)

	assert.NotContains(t, string(raw), "hashed-secret")
	assert.NotContains(t, string(raw), "A1B2C3D4E5")
	assert.NotContains(t, string(raw), "tok1234567890abc")
}

func TestNewUserOut(t *testing.T) {
	user := &accounts.User{
		ID:            uuid.New(),
		Username:      "alice",
		Email:         "alice@example.com",
		FullName:      "Alice Example",
		Scopes:        []string{accounts.ScopeUsersList},
		EmailVerified: true,
	}

	out := accounts.NewUserOut(user)
	assert.Equal(t, user.ID.String(), out.ID)
	assert.Equal(t, "alice", out.Username)
	assert.Equal(t, []string{accounts.ScopeUsersList}, out.Scopes)
	assert.True(t, out.EmailVerified)
	assert.False(t, out.Disabled)
}

func TestNewPrincipalSnapshotsUser(t *testing.T) {
	user := &accounts.User{
		ID:            uuid.New(),
		Username:      "alice",
		Email:         "alice@example.com",
		FullName:      "Alice Example",
		Scopes:        []string{accounts.ScopeUsersList},
		EmailVerified: true,
	}

	principal := accounts.NewPrincipal(user)
	assert.Equal(t, user.ID.String(), principal.ID())
	assert.Equal(t, "alice", principal.Username())
	assert.Equal(t, "alice@example.com", principal.Email())
	assert.Equal(t, "Alice Example", principal.FullName())
	assert.Equal(t, []string{accounts.ScopeUsersList}, principal.Scopes())
	assert.True(t, principal.EmailVerified())
}
