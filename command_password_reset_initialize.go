package accounts

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

type InitializePasswordResetMessage struct {
	Email string `json:"email" example:"user@example.com" doc:"Account email"`

	// OnResponse is called with the outcome after the transaction commits.
	OnResponse func(*InitializePasswordResetResponse) `json:"-"`
}

func (e InitializePasswordResetMessage) Type() string { return "user.password_reset.initialize" }

type InitializePasswordResetResponse struct {
	// Found reports whether the email matched an account. The HTTP layer
	// must not expose this; it exists for internal callers and tests.
	Found     bool
	Token     string
	ExpiresAt time.Time
	// EmailErr carries the classified delivery failure, if any.
	EmailErr error
}

type InitializePasswordResetHandler struct {
	repo   RepositoryManager
	mailer Mailer
	mail   *MailRenderer
	logger Logger
}

// NewInitializePasswordResetHandler creates a handler with sane defaults.
func NewInitializePasswordResetHandler(repo RepositoryManager) *InitializePasswordResetHandler {
	return &InitializePasswordResetHandler{
		repo:   repo,
		mailer: NewLogMailer(defLogger{}),
		mail:   defaultMailRenderer(),
		logger: defLogger{},
	}
}

// WithMailer sets the transport used for the reset email.
func (h *InitializePasswordResetHandler) WithMailer(mailer Mailer) *InitializePasswordResetHandler {
	if mailer != nil {
		h.mailer = mailer
	}
	return h
}

// WithMailRenderer overrides the template renderer for mail bodies.
func (h *InitializePasswordResetHandler) WithMailRenderer(renderer *MailRenderer) *InitializePasswordResetHandler {
	if renderer != nil {
		h.mail = renderer
	}
	return h
}

// WithLogger overrides the logger used by the handler.
func (h *InitializePasswordResetHandler) WithLogger(logger Logger) *InitializePasswordResetHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *InitializePasswordResetHandler) Execute(ctx context.Context, event InitializePasswordResetMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password reset initialization",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *InitializePasswordResetHandler) execute(ctx context.Context, event InitializePasswordResetMessage) error {
	user := &User{}
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	token, err := NewResetToken()
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to mint reset token")
	}

	expiresAt := time.Now().Add(ResetTokenTTL)
	resp := &InitializePasswordResetResponse{}

	err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var err error

		user, err = h.repo.Users().SetResetTokenTx(ctx, tx, event.Email, token, expiresAt)
		if err != nil {
			if goerrors.IsNotFound(err) {
				// Unknown emails are not an error the outside world gets
				// to see; callers decide how to respond.
				return nil
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "could not store reset token")
		}

		resp.Found = true
		resp.Token = token
		resp.ExpiresAt = expiresAt

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "password reset initialization failed")
	}

	if !resp.Found {
		h.logger.Info("password reset requested for unknown email %q", event.Email)
		if event.OnResponse != nil {
			event.OnResponse(resp)
		}
		return nil
	}

	if err := h.sendResetEmail(ctx, user, token); err != nil {
		resp.EmailErr = ClassifyEmailError(err)
		h.logger.Error("failed to send reset email to %q: %v", user.Email, resp.EmailErr)
	}

	if event.OnResponse != nil {
		event.OnResponse(resp)
	}

	return nil
}

func (h *InitializePasswordResetHandler) sendResetEmail(ctx context.Context, user *User, token string) error {
	body, err := h.mail.ResetPasswordBody(user.Username, token)
	if err != nil {
		return err
	}
	return h.mailer.Send(ctx, "Reset Your Password", user.Email, body)
}
