package accounts_test

import (
	"context"
	"testing"
	"time"

	accounts "github.com/goliatone/go-accounts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginMintsValidToken(t *testing.T) {
	repo := setupRepo(t)
	tokens := newTokenService()
	auther := accounts.NewAuthenticator(repo, tokens).WithLogger(&MockLogger{})

	mustRegister(t, repo, nil, accounts.RegisterUserMessage{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "s3cr3t-passw0rd",
	})

	bearer, err := auther.Login(context.Background(), "alice", "s3cr3t-passw0rd")
	require.NoError(t, err)

	claims, err := tokens.Validate(bearer)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Subject())
	assert.Equal(t, accounts.DefaultScopes(), claims.Scopes())
}

func TestLoginAcceptsEmailAsIdentifier(t *testing.T) {
	repo := setupRepo(t)
	auther := accounts.NewAuthenticator(repo, newTokenService())

	mustRegister(t, repo, nil, accounts.RegisterUserMessage{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "s3cr3t-passw0rd",
	})

	_, err := auther.Login(context.Background(), "alice@example.com", "s3cr3t-passw0rd")
	require.NoError(t, err)
}

func TestLoginWrongPassword(t *testing.T) {
	repo := setupRepo(t)
	auther := accounts.NewAuthenticator(repo, newTokenService()).WithLogger(&MockLogger{})

	mustRegister(t, repo, nil, accounts.RegisterUserMessage{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "s3cr3t-passw0rd",
	})

	_, err := auther.Login(context.Background(), "alice", "wrong-passw0rd")
	require.Error(t, err)
	assert.ErrorIs(t, err, accounts.ErrMismatchedHashAndPassword)
}

func TestLoginUnknownIdentifier(t *testing.T) {
	repo := setupRepo(t)
	auther := accounts.NewAuthenticator(repo, newTokenService()).WithLogger(&MockLogger{})

	_, err := auther.Login(context.Background(), "ghost", "whatever-passw0rd")
	require.Error(t, err)

	// Unknown identifiers and wrong passwords are the same failure.
	assert.ErrorIs(t, err, accounts.ErrMismatchedHashAndPassword)
}

func TestLoginWithTTLOverride(t *testing.T) {
	repo := setupRepo(t)
	tokens := newTokenService()
	auther := accounts.NewAuthenticator(repo, tokens)

	mustRegister(t, repo, nil, accounts.RegisterUserMessage{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "s3cr3t-passw0rd",
	})

	bearer, err := auther.LoginWithTTL(context.Background(), "alice", "s3cr3t-passw0rd", 5*time.Minute)
	require.NoError(t, err)

	claims, err := tokens.Validate(bearer)
	require.NoError(t, err)

	exp, ok := claims.Expiration()
	require.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(5*time.Minute), exp, 5*time.Second)
}
