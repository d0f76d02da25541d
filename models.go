package accounts

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the authoritative account row. Scopes are stored as a JSON
// encoded string list so the column round-trips identically through
// Postgres and sqlite.
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr" json:"-"`

	ID       uuid.UUID `bun:"id,pk,nullzero,type:uuid" json:"id"`
	Username string    `bun:"username,notnull,unique" json:"username"`
	Email    string    `bun:"email,notnull,unique" json:"email"`
	FullName string    `bun:"full_name" json:"full_name"`
	Phone    string    `bun:"phone,nullzero" json:"phone,omitempty"`

	PasswordHash string `bun:"hashed_password,notnull" json:"-"`

	Disabled      bool     `bun:"disabled" json:"disabled"`
	EmailVerified bool     `bun:"email_verified" json:"email_verified"`
	Scopes        []string `bun:"scopes" json:"scopes"`

	ConfirmationToken string     `bun:"confirmation_token,nullzero" json:"-"`
	ResetToken        string     `bun:"reset_token,nullzero" json:"-"`
	ResetTokenExpiry  *time.Time `bun:"reset_token_expiry,nullzero" json:"-"`

	CreatedAt *time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt *time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at"`
	DeletedAt *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"-"`
}

// GrantedScopes returns the account's live scope grants, normalized
// against the closed scope set.
func (u *User) GrantedScopes() []Scope {
	return NormalizeScopes(u.Scopes)
}

type principal struct {
	id       string
	username string
	email    string
	fullName string
	scopes   []Scope
	verified bool
}

// NewPrincipal builds the read-only authenticated view from a live row.
func NewPrincipal(u *User) Principal {
	return principal{
		id:       u.ID.String(),
		username: u.Username,
		email:    u.Email,
		fullName: u.FullName,
		scopes:   u.GrantedScopes(),
		verified: u.EmailVerified,
	}
}

func (p principal) ID() string          { return p.id }
func (p principal) Username() string    { return p.username }
func (p principal) Email() string       { return p.email }
func (p principal) FullName() string    { return p.fullName }
func (p principal) Scopes() []Scope     { return p.scopes }
func (p principal) EmailVerified() bool { return p.verified }

// UserOut is the sanitized account representation returned by the API.
// It never carries hashes or one-time tokens.
type UserOut struct {
	ID            string   `json:"id"`
	Username      string   `json:"username"`
	Email         string   `json:"email"`
	FullName      string   `json:"full_name"`
	Scopes        []string `json:"scopes"`
	EmailVerified bool     `json:"email_verified"`
	Disabled      bool     `json:"disabled"`
}

// NewUserOut maps a storage row to its API representation.
func NewUserOut(u *User) UserOut {
	return UserOut{
		ID:            u.ID.String(),
		Username:      u.Username,
		Email:         u.Email,
		FullName:      u.FullName,
		Scopes:        u.GrantedScopes(),
		EmailVerified: u.EmailVerified,
		Disabled:      u.Disabled,
	}
}
