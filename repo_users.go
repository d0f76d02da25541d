package accounts

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// One-time tokens are consumed by gated UPDATEs: the token match lives in
// the WHERE clause so a replay observes zero affected rows instead of
// re-applying the transition.

var ConfirmEmailSQL = `UPDATE "users" AS "usr"
SET
	"email_verified" = TRUE,
	"confirmation_token" = NULL
WHERE
	"usr"."deleted_at" IS NULL
AND (
	"usr"."confirmation_token" = ?
) RETURNING *;`

var SetResetTokenSQL = `UPDATE "users" AS "usr"
SET
	"reset_token" = ?,
	"reset_token_expiry" = ?
WHERE
	"usr"."deleted_at" IS NULL
AND (
	"usr"."email" = ?
) RETURNING *;`

var RedeemResetTokenSQL = `UPDATE "users" AS "usr"
SET
	"hashed_password" = ?,
	"reset_token" = NULL,
	"reset_token_expiry" = NULL
WHERE
	"usr"."deleted_at" IS NULL
AND "usr"."reset_token" = ?
AND "usr"."reset_token_expiry" >= ?
RETURNING *;`

type Users interface {
	repository.Repository[*User]

	Register(ctx context.Context, user *User) (*User, error)
	RegisterTx(ctx context.Context, tx bun.IDB, user *User) (*User, error)
	Create(ctx context.Context, record *User, criteria ...repository.InsertCriteria) (*User, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *User, criteria ...repository.InsertCriteria) (*User, error)

	ConfirmEmail(ctx context.Context, token string) (*User, error)
	ConfirmEmailTx(ctx context.Context, tx bun.IDB, token string) (*User, error)

	SetResetToken(ctx context.Context, email, token string, expiry time.Time) (*User, error)
	SetResetTokenTx(ctx context.Context, tx bun.IDB, email, token string, expiry time.Time) (*User, error)
	RedeemResetToken(ctx context.Context, token, passwordHash string, now time.Time) (*User, error)
	RedeemResetTokenTx(ctx context.Context, tx bun.IDB, token, passwordHash string, now time.Time) (*User, error)

	FindBySubject(ctx context.Context, subject string) (*User, error)
	ListPage(ctx context.Context, offset, limit int) ([]*User, int, error)
}

type users struct {
	repository.Repository[*User]
	db *bun.DB
}

var (
	_ Users                        = (*users)(nil)
	_ repository.Repository[*User] = (*users)(nil)
	_ PrincipalStore               = (*users)(nil)
)

func NewUsersRepository(db *bun.DB) Users {
	repo := repository.NewRepository[*User](db, repository.ModelHandlers[*User]{
		NewRecord: func() *User { return &User{} },
		GetID: func(u *User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
	})

	return &users{
		Repository: repo,
		db:         db,
	}
}

func (a *users) Register(ctx context.Context, user *User) (*User, error) {
	return a.RegisterTx(ctx, a.db, user)
}

func (a *users) RegisterTx(ctx context.Context, tx bun.IDB, user *User) (*User, error) {
	return a.CreateTx(ctx, tx, user)
}

func (a *users) Create(ctx context.Context, record *User, criteria ...repository.InsertCriteria) (*User, error) {
	return a.CreateTx(ctx, a.db, record, criteria...)
}

func (a *users) CreateTx(ctx context.Context, tx bun.IDB, record *User, criteria ...repository.InsertCriteria) (*User, error) {
	prepareUserDefaults(record)
	return a.Repository.CreateTx(ctx, tx, record, criteria...)
}

func (a *users) GetByIdentifier(ctx context.Context, identifier string, criteria ...repository.SelectCriteria) (*User, error) {
	return a.GetByIdentifierTx(ctx, a.db, identifier, criteria...)
}

func (a *users) GetByIdentifierTx(ctx context.Context, tx bun.IDB, identifier string, criteria ...repository.SelectCriteria) (*User, error) {
	options := resolveUserIdentifier(identifier)
	if len(options) == 0 {
		options = []identifierOption{
			{
				column: "id",
				value:  strings.TrimSpace(identifier),
			},
		}
	}

	for _, opt := range options {
		record := &User{}
		q := tx.NewSelect().Model(record)

		for _, c := range criteria {
			q.Apply(c)
		}

		err := q.
			Where(fmt.Sprintf("?TableAlias.%s = ?", opt.column), opt.value).
			Limit(1).
			Scan(ctx)

		if err != nil {
			if repository.IsRecordNotFound(err) {
				continue
			}
			return nil, err
		}

		return record, nil
	}

	return nil, repository.NewRecordNotFound().
		WithMetadata(map[string]any{
			"identifier": identifier,
		})
}

func (a *users) ConfirmEmail(ctx context.Context, token string) (*User, error) {
	return a.ConfirmEmailTx(ctx, a.db, token)
}

func (a *users) ConfirmEmailTx(ctx context.Context, tx bun.IDB, token string) (*User, error) {
	res, err := a.Repository.RawTx(ctx, tx, ConfirmEmailSQL, token)
	if err != nil {
		return nil, err
	}

	if len(res) == 0 {
		return nil, repository.NewRecordNotFound().
			WithMetadata(map[string]any{
				"confirmation_token": token,
			})
	}

	return res[0], nil
}

func (a *users) SetResetToken(ctx context.Context, email, token string, expiry time.Time) (*User, error) {
	return a.SetResetTokenTx(ctx, a.db, email, token, expiry)
}

func (a *users) SetResetTokenTx(ctx context.Context, tx bun.IDB, email, token string, expiry time.Time) (*User, error) {
	res, err := a.Repository.RawTx(ctx, tx, SetResetTokenSQL, token, expiry, email)
	if err != nil {
		return nil, err
	}

	if len(res) == 0 {
		return nil, repository.NewRecordNotFound().
			WithMetadata(map[string]any{
				"email": email,
			})
	}

	return res[0], nil
}

func (a *users) RedeemResetToken(ctx context.Context, token, passwordHash string, now time.Time) (*User, error) {
	return a.RedeemResetTokenTx(ctx, a.db, token, passwordHash, now)
}

// RedeemResetTokenTx validates presence and freshness of the token and
// replaces the credential in a single statement. Expired and unknown
// tokens are indistinguishable: both come back as record not found.
func (a *users) RedeemResetTokenTx(ctx context.Context, tx bun.IDB, token, passwordHash string, now time.Time) (*User, error) {
	res, err := a.Repository.RawTx(ctx, tx, RedeemResetTokenSQL, passwordHash, token, now)
	if err != nil {
		return nil, err
	}

	if len(res) == 0 {
		return nil, repository.NewRecordNotFound().
			WithMetadata(map[string]any{
				"reset_token": token,
			})
	}

	return res[0], nil
}

// FindBySubject resolves a token subject to its live row. Subjects are
// usernames, but the resolver also accepts emails and raw ids so older
// tokens minted against either keep working.
func (a *users) FindBySubject(ctx context.Context, subject string) (*User, error) {
	return a.GetByIdentifier(ctx, subject)
}

func (a *users) ListPage(ctx context.Context, offset, limit int) ([]*User, int, error) {
	var records []*User

	count, err := a.db.NewSelect().
		Model(&records).
		Order("usr.created_at ASC").
		Offset(offset).
		Limit(limit).
		ScanAndCount(ctx)
	if err != nil {
		return nil, 0, err
	}

	return records, count, nil
}

func prepareUserDefaults(record *User) {
	if record == nil {
		return
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	if record.Scopes == nil {
		record.Scopes = DefaultScopes()
	}
}

type identifierOption struct {
	column string
	value  string
}

func resolveUserIdentifier(identifier string) []identifierOption {
	trimmed := strings.TrimSpace(identifier)
	if trimmed == "" {
		return nil
	}

	options := make([]identifierOption, 0, 3)

	if isUUID(trimmed) {
		options = append(options, identifierOption{
			column: "id",
			value:  trimmed,
		})
	}

	if isEmail(trimmed) {
		options = append(options, identifierOption{
			column: "email",
			value:  trimmed,
		})
	}

	options = append(options, identifierOption{
		column: "username",
		value:  trimmed,
	})

	return options
}

func isEmail(email string) bool {
	_, err := mail.ParseAddress(email)
	return err == nil
}

func isUUID(identifier string) bool {
	_, err := uuid.Parse(identifier)
	return err == nil
}
