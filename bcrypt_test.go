package accounts_test

import (
	"testing"

	accounts "github.com/goliatone/go-accounts"
	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPasswordRoundTrip(t *testing.T) {
	hash, err := accounts.HashPassword("s3cr3t-passw0rd")
	require.NoError(t, err)
	require.NotEmpty(t, hash)
	assert.NotEqual(t, "s3cr3t-passw0rd", hash)

	assert.NoError(t, accounts.ComparePasswordAndHash("s3cr3t-passw0rd", hash))
}

func TestHashPasswordRejectsEmptyInput(t *testing.T) {
	_, err := accounts.HashPassword("")
	require.Error(t, err)
	assert.ErrorIs(t, err, accounts.ErrNoEmptyString)

	var rich *goerrors.Error
	require.True(t, goerrors.As(err, &rich))
	assert.Equal(t, goerrors.CategoryValidation, rich.Category)
	assert.Equal(t, accounts.TextCodeEmptyPassword, rich.TextCode)
}

func TestComparePasswordAndHashMismatch(t *testing.T) {
	hash, err := accounts.HashPassword("correct-password")
	require.NoError(t, err)

	err = accounts.ComparePasswordAndHash("wrong-password", hash)
	require.Error(t, err)
	assert.ErrorIs(t, err, accounts.ErrMismatchedHashAndPassword)
}

func TestComparePasswordAndHashMalformedDigest(t *testing.T) {
	// Garbage digests must report the same error as a mismatch, never panic.
	err := accounts.ComparePasswordAndHash("any-password", "not-a-bcrypt-digest")
	require.Error(t, err)
	assert.ErrorIs(t, err, accounts.ErrMismatchedHashAndPassword)
}

func TestHashPasswordUniqueSalts(t *testing.T) {
	first, err := accounts.HashPassword("same-password")
	require.NoError(t, err)

	second, err := accounts.HashPassword("same-password")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestRandomPasswordHash(t *testing.T) {
	hash := accounts.RandomPasswordHash()
	assert.NotEmpty(t, hash)
	assert.Error(t, accounts.ComparePasswordAndHash("anything", hash))
}
