package accounts

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
)

// Config carries every runtime setting, sourced from the environment.
type Config struct {
	SecretKey          string `env:"SECRET_KEY,required"`
	Algorithm          string `env:"ALGORITHM" envDefault:"HS256"`
	TokenExpireMinutes int    `env:"ACCESS_TOKEN_EXPIRE_MINUTES" envDefault:"30"`

	Database    DatabaseConfig `envPrefix:"DATABASE_"`
	MinPoolSize int            `env:"MIN_DB_POOL_SIZE" envDefault:"1"`
	MaxPoolSize int            `env:"MAX_DB_POOL_SIZE" envDefault:"10"`

	Email EmailConfig `envPrefix:"EMAIL_"`

	// Testing swaps the SMTP transport for the log-only mailer.
	Testing bool `env:"TESTING" envDefault:"false"`
}

type DatabaseConfig struct {
	Username string `env:"USERNAME"`
	Password string `env:"PASSWORD"`
	Server   string `env:"SERVER" envDefault:"localhost"`
	Port     int    `env:"PORT" envDefault:"5432"`
	Name     string `env:"NAME"`
}

// DSN renders the Postgres connection string for pgdriver.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.Username, c.Password, c.Server, c.Port, c.Name)
}

type EmailConfig struct {
	Host     string `env:"HOST"`
	Port     int    `env:"PORT" envDefault:"587"`
	Address  string `env:"ADDRESS"`
	Password string `env:"PASSWORD"`
	FromName string `env:"FROM_NAME" envDefault:"Accounts"`
}

// LoadConfig parses the environment and validates the result.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse environment configuration")
	}

	if err := cfg.Validate(); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryBadInput, "invalid configuration")
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.SecretKey, validation.Required),
		validation.Field(&c.Algorithm, validation.In("HS256", "HS384", "HS512")),
		validation.Field(&c.TokenExpireMinutes, validation.Min(1)),
		validation.Field(&c.MinPoolSize, validation.Min(0)),
		validation.Field(&c.MaxPoolSize, validation.Min(1)),
	)
}

// Mailer builds the transport the configuration asks for: log-only under
// TESTING, SMTP otherwise.
func (c *Config) Mailer(logger Logger) Mailer {
	if c.Testing {
		return NewLogMailer(logger)
	}

	mailer := NewSMTPMailer(c.Email.Host, c.Email.Port, c.Email.Address, c.Email.Password, c.Email.FromName)
	if logger != nil {
		mailer.WithLogger(logger)
	}
	return mailer
}
