package accounts_test

import (
	"context"
	"database/sql"
	"testing"

	accounts "github.com/goliatone/go-accounts"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

const sqliteCreateUsers = `CREATE TABLE users (
    id TEXT NOT NULL PRIMARY KEY,
    username TEXT NOT NULL UNIQUE,
    email TEXT NOT NULL UNIQUE,
    full_name TEXT,
    phone TEXT,
    hashed_password TEXT NOT NULL,
    disabled BOOLEAN NOT NULL DEFAULT FALSE,
    email_verified BOOLEAN NOT NULL DEFAULT FALSE,
    scopes TEXT,
    confirmation_token TEXT,
    reset_token TEXT,
    reset_token_expiry TIMESTAMP NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    deleted_at TIMESTAMP NULL
);`

func setupTestDB(t *testing.T) *bun.DB {
	t.Helper()

	db, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)

	bunDB := bun.NewDB(db, sqlitedialect.New())

	_, err = bunDB.Exec(sqliteCreateUsers)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = bunDB.Close()
		_ = db.Close()
	})

	return bunDB
}

func setupRepo(t *testing.T) accounts.RepositoryManager {
	t.Helper()
	return accounts.NewRepositoryManager(setupTestDB(t))
}

func mustRegister(t *testing.T, repo accounts.RepositoryManager, mailer accounts.Mailer, msg accounts.RegisterUserMessage) *accounts.RegisterUserResponse {
	t.Helper()

	var res *accounts.RegisterUserResponse
	msg.OnResponse = func(resp *accounts.RegisterUserResponse) {
		res = resp
	}

	handler := accounts.NewRegisterUserHandler(repo)
	if mailer != nil {
		handler.WithMailer(mailer)
	}

	require.NoError(t, handler.Execute(context.Background(), msg))
	require.NotNil(t, res)
	require.NotNil(t, res.User)

	return res
}
