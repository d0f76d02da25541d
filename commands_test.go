package accounts_test

import (
	"context"
	"testing"
	"time"

	accounts "github.com/goliatone/go-accounts"
	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterUserCommand(t *testing.T) {
	repo := setupRepo(t)
	mailer := accounts.NewLogMailer(nil)

	res := mustRegister(t, repo, mailer, accounts.RegisterUserMessage{
		Username: "alice",
		Email:    "alice@example.com",
		FullName: "Alice Example",
		Password: "s3cr3t-passw0rd",
	})

	user := res.User
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, accounts.DefaultScopes(), user.Scopes)
	assert.False(t, user.EmailVerified)
	assert.NotEmpty(t, user.ConfirmationToken)
	assert.NoError(t, accounts.ComparePasswordAndHash("s3cr3t-passw0rd", user.PasswordHash))
	assert.NoError(t, res.EmailErr)

	sent := mailer.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "alice@example.com", sent[0].To)
	assert.Contains(t, sent[0].Body, user.ConfirmationToken)
}

func TestRegisterUserDerivesUsernameFromEmail(t *testing.T) {
	repo := setupRepo(t)

	res := mustRegister(t, repo, nil, accounts.RegisterUserMessage{
		Email:    "bob.smith@example.com",
		Password: "s3cr3t-passw0rd",
	})

	assert.Equal(t, "bob.smith", res.User.Username)
}

func TestRegisterUserDuplicateEmail(t *testing.T) {
	repo := setupRepo(t)

	mustRegister(t, repo, nil, accounts.RegisterUserMessage{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "s3cr3t-passw0rd",
	})

	handler := accounts.NewRegisterUserHandler(repo)
	err := handler.Execute(context.Background(), accounts.RegisterUserMessage{
		Username: "alice-two",
		Email:    "alice@example.com",
		Password: "s3cr3t-passw0rd",
	})
	require.Error(t, err)

	var rich *goerrors.Error
	require.True(t, goerrors.As(err, &rich))
	assert.Equal(t, goerrors.CategoryConflict, rich.Category)
}

func TestRegisterUserEmptyPassword(t *testing.T) {
	repo := setupRepo(t)

	handler := accounts.NewRegisterUserHandler(repo)
	err := handler.Execute(context.Background(), accounts.RegisterUserMessage{
		Username: "alice",
		Email:    "alice@example.com",
	})
	require.Error(t, err)

	var rich *goerrors.Error
	require.True(t, goerrors.As(err, &rich))
	assert.Equal(t, goerrors.CategoryValidation, rich.Category)
}

func TestRegisterUserEmailFailureStillCreatesAccount(t *testing.T) {
	repo := setupRepo(t)

	var res *accounts.RegisterUserResponse
	handler := accounts.NewRegisterUserHandler(repo).
		WithMailer(&FailingMailer{}).
		WithLogger(&MockLogger{})

	err := handler.Execute(context.Background(), accounts.RegisterUserMessage{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "s3cr3t-passw0rd",
		OnResponse: func(resp *accounts.RegisterUserResponse) {
			res = resp
		},
	})
	require.NoError(t, err, "delivery failure must not fail the registration")
	require.NotNil(t, res)
	require.NotNil(t, res.User)

	require.Error(t, res.EmailErr)
	var rich *goerrors.Error
	require.True(t, goerrors.As(res.EmailErr, &rich))
	assert.Equal(t, accounts.TextCodeEmailDelivery, rich.TextCode)

	// The insert committed.
	found, err := repo.Users().GetByIdentifier(context.Background(), "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, found.ID)
}

func TestRegisterUserInvalidPhone(t *testing.T) {
	repo := setupRepo(t)

	handler := accounts.NewRegisterUserHandler(repo)
	err := handler.Execute(context.Background(), accounts.RegisterUserMessage{
		Username: "alice",
		Email:    "alice@example.com",
		Phone:    "not-a-phone",
		Password: "s3cr3t-passw0rd",
	})
	require.Error(t, err)

	var rich *goerrors.Error
	require.True(t, goerrors.As(err, &rich))
	assert.Equal(t, goerrors.CategoryValidation, rich.Category)
}

func TestConfirmEmailCommand(t *testing.T) {
	repo := setupRepo(t)

	res := mustRegister(t, repo, nil, accounts.RegisterUserMessage{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "s3cr3t-passw0rd",
	})
	token := res.User.ConfirmationToken

	var confirmed *accounts.ConfirmEmailResponse
	handler := accounts.NewConfirmEmailHandler(repo).WithLogger(&MockLogger{})

	err := handler.Execute(context.Background(), accounts.ConfirmEmailMessage{
		Token: token,
		OnResponse: func(resp *accounts.ConfirmEmailResponse) {
			confirmed = resp
		},
	})
	require.NoError(t, err)
	require.NotNil(t, confirmed)
	assert.True(t, confirmed.User.EmailVerified)

	// Exactly once: the second attempt is a not-found client error.
	err = handler.Execute(context.Background(), accounts.ConfirmEmailMessage{Token: token})
	require.Error(t, err)

	var rich *goerrors.Error
	require.True(t, goerrors.As(err, &rich))
	assert.Equal(t, goerrors.CategoryNotFound, rich.Category)
}

func TestInitializePasswordResetCommand(t *testing.T) {
	repo := setupRepo(t)
	mailer := accounts.NewLogMailer(nil)

	mustRegister(t, repo, nil, accounts.RegisterUserMessage{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "s3cr3t-passw0rd",
	})

	var res *accounts.InitializePasswordResetResponse
	handler := accounts.NewInitializePasswordResetHandler(repo).WithMailer(mailer)

	err := handler.Execute(context.Background(), accounts.InitializePasswordResetMessage{
		Email: "alice@example.com",
		OnResponse: func(resp *accounts.InitializePasswordResetResponse) {
			res = resp
		},
	})
	require.NoError(t, err)
	require.NotNil(t, res)

	assert.True(t, res.Found)
	assert.Len(t, res.Token, 16)
	assert.WithinDuration(t, time.Now().Add(accounts.ResetTokenTTL), res.ExpiresAt, 5*time.Second)

	sent := mailer.Sent()
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0].Body, res.Token)
}

func TestInitializePasswordResetUnknownEmail(t *testing.T) {
	repo := setupRepo(t)
	mailer := accounts.NewLogMailer(nil)

	var res *accounts.InitializePasswordResetResponse
	handler := accounts.NewInitializePasswordResetHandler(repo).
		WithMailer(mailer).
		WithLogger(&MockLogger{})

	err := handler.Execute(context.Background(), accounts.InitializePasswordResetMessage{
		Email: "ghost@example.com",
		OnResponse: func(resp *accounts.InitializePasswordResetResponse) {
			res = resp
		},
	})
	require.NoError(t, err, "unknown emails are not an externally visible error")
	require.NotNil(t, res)

	assert.False(t, res.Found)
	assert.Empty(t, res.Token)
	assert.Empty(t, mailer.Sent(), "no email goes out for unknown accounts")
}

func TestFinalizePasswordResetCommand(t *testing.T) {
	repo := setupRepo(t)

	mustRegister(t, repo, nil, accounts.RegisterUserMessage{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "old-passw0rd",
	})

	var initRes *accounts.InitializePasswordResetResponse
	initHandler := accounts.NewInitializePasswordResetHandler(repo)
	err := initHandler.Execute(context.Background(), accounts.InitializePasswordResetMessage{
		Email: "alice@example.com",
		OnResponse: func(resp *accounts.InitializePasswordResetResponse) {
			initRes = resp
		},
	})
	require.NoError(t, err)

	var finalRes *accounts.FinalizePasswordResetResponse
	finalHandler := accounts.NewFinalizePasswordResetHandler(repo).WithLogger(&MockLogger{})

	err = finalHandler.Execute(context.Background(), accounts.FinalizePasswordResetMessage{
		Token:    initRes.Token,
		Password: "new-passw0rd",
		OnResponse: func(resp *accounts.FinalizePasswordResetResponse) {
			finalRes = resp
		},
	})
	require.NoError(t, err)
	require.NotNil(t, finalRes)

	assert.NoError(t, accounts.ComparePasswordAndHash("new-passw0rd", finalRes.User.PasswordHash))

	// Replaying the consumed token is a bad request.
	err = finalHandler.Execute(context.Background(), accounts.FinalizePasswordResetMessage{
		Token:    initRes.Token,
		Password: "another-passw0rd",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, accounts.ErrResetTokenInvalid)
}

func TestFinalizePasswordResetUnknownToken(t *testing.T) {
	repo := setupRepo(t)

	handler := accounts.NewFinalizePasswordResetHandler(repo)
	err := handler.Execute(context.Background(), accounts.FinalizePasswordResetMessage{
		Token:    "doesnotexist1234",
		Password: "new-passw0rd",
	})
	require.Error(t, err)

	var rich *goerrors.Error
	require.True(t, goerrors.As(err, &rich))
	assert.Equal(t, goerrors.CategoryValidation, rich.Category)
	assert.Equal(t, accounts.TextCodeResetTokenInvalid, rich.TextCode)
}

func TestCommandsHonorContextCancellation(t *testing.T) {
	repo := setupRepo(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	handler := accounts.NewRegisterUserHandler(repo)
	err := handler.Execute(ctx, accounts.RegisterUserMessage{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "s3cr3t-passw0rd",
	})
	require.Error(t, err)

	var rich *goerrors.Error
	require.True(t, goerrors.As(err, &rich))
	assert.Equal(t, goerrors.CategoryOperation, rich.Category)
}
