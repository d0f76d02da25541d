package accounts

import (
	"context"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/nyaruka/phonenumbers"
	"github.com/uptrace/bun"
)

type RegisterUserMessage struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	FullName  string `json:"full_name"`
	Phone     string `json:"phone"`
	Password  string `json:"password"`
	UseHashid bool   `json:"-"`

	// OnResponse is called with the outcome after the transaction commits.
	OnResponse func(*RegisterUserResponse) `json:"-"`
}

func (e RegisterUserMessage) Type() string { return "user.register" }

type RegisterUserResponse struct {
	User *User
	// EmailErr carries the classified delivery failure when the
	// confirmation email could not be sent. The registration itself
	// has already committed.
	EmailErr error
}

type RegisterUserHandler struct {
	repo   RepositoryManager
	mailer Mailer
	mail   *MailRenderer
	logger Logger
}

// NewRegisterUserHandler creates a handler with sane defaults: emails are
// logged rather than delivered until a real mailer is attached.
func NewRegisterUserHandler(repo RepositoryManager) *RegisterUserHandler {
	return &RegisterUserHandler{
		repo:   repo,
		mailer: NewLogMailer(defLogger{}),
		mail:   defaultMailRenderer(),
		logger: defLogger{},
	}
}

// WithMailer sets the transport used for the confirmation email.
func (h *RegisterUserHandler) WithMailer(mailer Mailer) *RegisterUserHandler {
	if mailer != nil {
		h.mailer = mailer
	}
	return h
}

// WithMailRenderer overrides the template renderer for mail bodies.
func (h *RegisterUserHandler) WithMailRenderer(renderer *MailRenderer) *RegisterUserHandler {
	if renderer != nil {
		h.mail = renderer
	}
	return h
}

// WithLogger overrides the logger used by the handler.
func (h *RegisterUserHandler) WithLogger(logger Logger) *RegisterUserHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *RegisterUserHandler) Execute(ctx context.Context, event RegisterUserMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during user registration",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RegisterUserHandler) execute(ctx context.Context, event RegisterUserMessage) error {
	user := &User{}
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	if event.Phone != "" {
		if err := validatePhone(event.Phone); err != nil {
			return err
		}
	}

	token, err := NewConfirmationToken()
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to mint confirmation token")
	}

	err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		hash, err := HashPassword(event.Password)
		if err != nil {
			var richErr *goerrors.Error
			if goerrors.As(err, &richErr) {
				return goerrors.Wrap(richErr, goerrors.CategoryValidation, "invalid password provided")
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
		}

		user.PasswordHash = hash
		user.Email = event.Email
		user.Phone = event.Phone
		user.FullName = event.FullName
		user.Username = getUsername(event.Username, event.Email)
		user.Scopes = DefaultScopes()
		user.ConfirmationToken = token
		if event.UseHashid {
			if id, err := hashid.NewUUID(event.Email); err == nil {
				user.ID = id
			}
		}

		if user, err = h.repo.Users().CreateTx(ctx, tx, user); err != nil {
			return ClassifyDatabaseError(err, "could not create user")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}

		return goerrors.Wrap(err, goerrors.CategoryInternal, "user registration transaction failed")
	}

	resp := &RegisterUserResponse{User: user}

	// The account exists whether or not the email goes out; delivery
	// failures are reported alongside the created user, never as a
	// registration failure.
	if err := h.sendConfirmationEmail(ctx, user); err != nil {
		resp.EmailErr = ClassifyEmailError(err)
		h.logger.Error("failed to send confirmation email to %q: %v", user.Email, resp.EmailErr)
	}

	if event.OnResponse != nil {
		event.OnResponse(resp)
	}

	return nil
}

func (h *RegisterUserHandler) sendConfirmationEmail(ctx context.Context, user *User) error {
	body, err := h.mail.ConfirmEmailBody(user.Username, user.ConfirmationToken)
	if err != nil {
		return err
	}
	return h.mailer.Send(ctx, "Confirm Your Email", user.Email, body)
}

func getUsername(username, email string) string {
	if username != "" {
		return username
	}

	if strings.Contains(email, "@") {
		username = strings.Split(email, "@")[0]
	}

	return username
}

func validatePhone(phone string) error {
	parsed, err := phonenumbers.Parse(phone, "US")
	if err != nil || !phonenumbers.IsValidNumber(parsed) {
		return goerrors.New("invalid phone number", goerrors.CategoryValidation).
			WithCode(goerrors.CodeBadRequest)
	}
	return nil
}
