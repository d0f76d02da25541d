package accounts

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

type ConfirmEmailMessage struct {
	Token string `json:"token" example:"A1B2C3D4E5" doc:"Email confirmation token"`

	// OnResponse is called with the confirmed account after the
	// transaction commits.
	OnResponse func(*ConfirmEmailResponse) `json:"-"`
}

func (e ConfirmEmailMessage) Type() string { return "user.confirm_email" }

type ConfirmEmailResponse struct {
	User *User
}

type ConfirmEmailHandler struct {
	repo   RepositoryManager
	logger Logger
}

func NewConfirmEmailHandler(repo RepositoryManager) *ConfirmEmailHandler {
	return &ConfirmEmailHandler{
		repo:   repo,
		logger: defLogger{},
	}
}

// WithLogger overrides the logger used by the handler.
func (h *ConfirmEmailHandler) WithLogger(logger Logger) *ConfirmEmailHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *ConfirmEmailHandler) Execute(ctx context.Context, event ConfirmEmailMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during email confirmation",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *ConfirmEmailHandler) execute(ctx context.Context, event ConfirmEmailMessage) error {
	user := &User{}
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var err error

		// The gated UPDATE both verifies the email and clears the token,
		// so a second confirmation attempt matches zero rows.
		user, err = h.repo.Users().ConfirmEmailTx(ctx, tx, event.Token)
		if err != nil {
			if goerrors.IsNotFound(err) {
				return goerrors.New("invalid confirmation token", goerrors.CategoryNotFound).
					WithCode(goerrors.CodeNotFound)
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "could not confirm email")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "email confirmation transaction failed")
	}

	h.logger.Info("email confirmed for %q", user.Username)

	if event.OnResponse != nil {
		event.OnResponse(&ConfirmEmailResponse{User: user})
	}

	return nil
}
