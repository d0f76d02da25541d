package main

import (
	"context"
	"database/sql"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-router"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	accounts "github.com/goliatone/go-accounts"
)

func main() {
	cfg, err := accounts.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.Database.DSN())))
	sqldb.SetMaxOpenConns(cfg.MaxPoolSize)
	sqldb.SetMaxIdleConns(cfg.MinPoolSize)

	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	if err := db.PingContext(context.Background()); err != nil {
		log.Fatalf("database: %v", err)
	}

	repo := accounts.NewRepositoryManager(db)
	repo.MustValidate()

	tokens := accounts.NewTokenService(cfg.SecretKey, "go-accounts", []string{"go-accounts"}, cfg.TokenExpireMinutes).
		WithSigningMethod(cfg.Algorithm)

	auther := accounts.NewAuthenticator(repo, tokens)
	validator := accounts.NewSessionValidator(tokens, repo.Users())
	mailer := cfg.Mailer(nil)

	srv := router.NewFiberAdapter(func(a *fiber.App) *fiber.App {
		return a
	})

	accounts.RegisterAccountRoutes(srv.Router(),
		accounts.WithControllerRepo(repo),
		accounts.WithControllerAuther(auther),
		accounts.WithControllerValidator(validator),
		accounts.WithControllerMailer(mailer),
	)

	if err := srv.Serve(":8080"); err != nil {
		log.Fatalf("server: %v", err)
	}
}
