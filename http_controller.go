package accounts

import (
	"fmt"
	"strconv"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

// RegisterAccountRoutes mounts the JSON API on the given router.
func RegisterAccountRoutes[T any](app router.Router[T], opts ...AccountsControllerOption) {
	controller := NewAccountsController(opts...)

	app.Post(controller.Routes.Token, controller.Login).
		SetName("auth.token")

	app.Post(controller.Routes.Users, controller.Register).
		SetName("auth.register")

	app.Get(controller.Routes.ConfirmEmail, controller.ConfirmEmail).
		SetName("auth.confirm-email")

	app.Post(controller.Routes.RequestPasswordReset, controller.RequestPasswordReset).
		SetName("auth.pwd-reset.request")

	app.Post(controller.Routes.ResetPassword, controller.ResetPassword).
		SetName("auth.pwd-reset.execute")

	app.Get(controller.Routes.ListUsers, controller.ListUsers,
		RequireScopes(controller.Validator, ScopeUsersList)).
		SetName("users.list")
}

type AccountsControllerRoutes struct {
	Token                string
	Users                string
	ConfirmEmail         string
	RequestPasswordReset string
	ResetPassword        string
	ListUsers            string
}

type AccountsController struct {
	Debug        bool
	Logger       Logger
	Repo         RepositoryManager
	Auther       Authenticator
	Validator    *SessionValidator
	Mailer       Mailer
	Mail         *MailRenderer
	Routes       *AccountsControllerRoutes
	ErrorHandler router.ErrorHandler
}

type AccountsControllerOption func(*AccountsController) *AccountsController

func NewAccountsController(opts ...AccountsControllerOption) *AccountsController {
	c := &AccountsController{
		Logger:       defLogger{},
		ErrorHandler: JSONErrorHandler,
		Mail:         defaultMailRenderer(),
		Routes: &AccountsControllerRoutes{
			Token:                "/auth/token",
			Users:                "/auth/users",
			ConfirmEmail:         "/auth/confirm_email",
			RequestPasswordReset: "/auth/request_password_reset",
			ResetPassword:        "/auth/reset_password",
			ListUsers:            "/users/",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in accounts controller...")
	}

	if c.Auther == nil {
		panic("Missing Authenticator in accounts controller...")
	}

	if c.Validator == nil {
		panic("Missing SessionValidator in accounts controller...")
	}

	if c.Mailer == nil {
		c.Mailer = NewLogMailer(c.Logger)
	}

	return c
}

func WithControllerRepo(repo RepositoryManager) AccountsControllerOption {
	return func(c *AccountsController) *AccountsController {
		c.Repo = repo
		return c
	}
}

func WithControllerAuther(auther Authenticator) AccountsControllerOption {
	return func(c *AccountsController) *AccountsController {
		c.Auther = auther
		return c
	}
}

func WithControllerValidator(validator *SessionValidator) AccountsControllerOption {
	return func(c *AccountsController) *AccountsController {
		c.Validator = validator
		return c
	}
}

func WithControllerMailer(mailer Mailer) AccountsControllerOption {
	return func(c *AccountsController) *AccountsController {
		c.Mailer = mailer
		return c
	}
}

func WithControllerLogger(logger Logger) AccountsControllerOption {
	return func(c *AccountsController) *AccountsController {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

func WithControllerDebug(debug bool) AccountsControllerOption {
	return func(c *AccountsController) *AccountsController {
		c.Debug = debug
		return c
	}
}

// LoginRequest payload. Field names follow the OAuth2 password grant so
// form posts from standard clients bind without translation.
type LoginRequest struct {
	Username string `form:"username" json:"username"`
	Password string `form:"password" json:"password"`
}

// GetIdentifier returns the identifier
func (r LoginRequest) GetIdentifier() string {
	return r.Username
}

// GetPassword will return the password
func (r LoginRequest) GetPassword() string {
	return r.Password
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required),
		validation.Field(&r.Password, validation.Required),
	)
}

// TokenResponse is the login response body.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

func (a *AccountsController) Login(ctx router.Context) error {
	payload := new(LoginRequest)

	if err := ctx.Bind(payload); err != nil {
		return a.ErrorHandler(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse login payload"))
	}

	if err := payload.Validate(); err != nil {
		return a.ErrorHandler(ctx, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid login payload"))
	}

	token, err := a.Auther.Login(ctx.Context(), payload.GetIdentifier(), payload.GetPassword())
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
	})
}

// RegisterRequest is the registration payload.
type RegisterRequest struct {
	Username string `form:"username" json:"username"`
	Email    string `form:"email" json:"email"`
	FullName string `form:"full_name" json:"full_name"`
	Phone    string `form:"phone" json:"phone"`
	Password string `form:"password" json:"password"`
}

// Validate will validate the payload
func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.FullName, validation.Length(0, 200)),
		validation.Field(&r.Password, validation.Required, validation.Length(6, 100)),
	)
}

func (a *AccountsController) Register(ctx router.Context) error {
	payload := new(RegisterRequest)

	if err := ctx.Bind(payload); err != nil {
		return a.ErrorHandler(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse registration payload"))
	}

	if err := payload.Validate(); err != nil {
		return a.ErrorHandler(ctx, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid registration payload"))
	}

	if a.Debug {
		fmt.Println("======= ACCOUNTS REGISTER ======")
		fmt.Println(print.MaybePrettyJSON(payload))
		fmt.Println("================================")
	}

	var res *RegisterUserResponse

	req := RegisterUserMessage{
		Username: payload.Username,
		Email:    payload.Email,
		FullName: payload.FullName,
		Phone:    payload.Phone,
		Password: payload.Password,
		OnResponse: func(resp *RegisterUserResponse) {
			res = resp
		},
	}

	handler := NewRegisterUserHandler(a.Repo).
		WithMailer(a.Mailer).
		WithMailRenderer(a.Mail).
		WithLogger(a.Logger)

	if err := handler.Execute(ctx.Context(), req); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	if res == nil || res.User == nil {
		return a.ErrorHandler(ctx, goerrors.New("registration produced no account", goerrors.CategoryInternal))
	}

	return ctx.JSON(router.StatusCreated, NewUserOut(res.User))
}

func (a *AccountsController) ConfirmEmail(ctx router.Context) error {
	token := ctx.Query("token", "")
	if token == "" {
		return a.ErrorHandler(ctx, goerrors.New("missing confirmation token", goerrors.CategoryValidation).
			WithCode(goerrors.CodeBadRequest))
	}

	var res *ConfirmEmailResponse

	handler := NewConfirmEmailHandler(a.Repo).WithLogger(a.Logger)

	err := handler.Execute(ctx.Context(), ConfirmEmailMessage{
		Token: token,
		OnResponse: func(resp *ConfirmEmailResponse) {
			res = resp
		},
	})
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, NewUserOut(res.User))
}

// PasswordResetRequestPayload holds values for password reset
type PasswordResetRequestPayload struct {
	Email string `form:"email" json:"email"`
}

// Validate will validate the payload
func (r PasswordResetRequestPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
	)
}

// resetRequestedDetail is returned whether or not the email matched an
// account, so the endpoint cannot be used to enumerate registered emails.
const resetRequestedDetail = "If an account with that email exists, a reset token has been sent."

func (a *AccountsController) RequestPasswordReset(ctx router.Context) error {
	payload := new(PasswordResetRequestPayload)

	if err := ctx.Bind(payload); err != nil {
		return a.ErrorHandler(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse reset payload"))
	}

	if err := payload.Validate(); err != nil {
		return a.ErrorHandler(ctx, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid reset payload"))
	}

	handler := NewInitializePasswordResetHandler(a.Repo).
		WithMailer(a.Mailer).
		WithMailRenderer(a.Mail).
		WithLogger(a.Logger)

	err := handler.Execute(ctx.Context(), InitializePasswordResetMessage{
		Email: payload.Email,
	})
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]string{
		"detail": resetRequestedDetail,
	})
}

// PasswordResetExecutePayload holds values for finalizing a password reset
type PasswordResetExecutePayload struct {
	Token    string `form:"token" json:"token"`
	Password string `form:"password" json:"password"`
}

// Validate will validate the payload
func (r PasswordResetExecutePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Token, validation.Required),
		validation.Field(&r.Password, validation.Required, validation.Length(6, 100)),
	)
}

func (a *AccountsController) ResetPassword(ctx router.Context) error {
	payload := new(PasswordResetExecutePayload)

	if err := ctx.Bind(payload); err != nil {
		return a.ErrorHandler(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse reset payload"))
	}

	if err := payload.Validate(); err != nil {
		return a.ErrorHandler(ctx, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid reset payload"))
	}

	var res *FinalizePasswordResetResponse

	handler := NewFinalizePasswordResetHandler(a.Repo).WithLogger(a.Logger)

	err := handler.Execute(ctx.Context(), FinalizePasswordResetMessage{
		Token:    payload.Token,
		Password: payload.Password,
		OnResponse: func(resp *FinalizePasswordResetResponse) {
			res = resp
		},
	})
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, NewUserOut(res.User))
}

// ListUsersResponse mirrors the paginated listing shape.
type ListUsersResponse struct {
	Size  int       `json:"size"`
	Users []UserOut `json:"users"`
}

func (a *AccountsController) ListUsers(ctx router.Context) error {
	offset := queryInt(ctx, "offset", 0)
	limit := queryInt(ctx, "page_count", 20)

	if offset < 0 {
		offset = 0
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	records, total, err := a.Repo.Users().ListPage(ctx.Context(), offset, limit)
	if err != nil {
		return a.ErrorHandler(ctx, ClassifyDatabaseError(err, "failed to list users"))
	}

	out := make([]UserOut, 0, len(records))
	for _, u := range records {
		out = append(out, NewUserOut(u))
	}

	return ctx.JSON(router.StatusOK, ListUsersResponse{
		Size:  total,
		Users: out,
	})
}

func queryInt(ctx router.Context, name string, def int) int {
	raw := ctx.Query(name, "")
	if raw == "" {
		return def
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return val
}

// ErrorBody is the JSON error envelope.
type ErrorBody struct {
	Message  string `json:"message"`
	TextCode string `json:"text_code,omitempty"`
}

// JSONErrorHandler maps classified errors to HTTP statuses: 401 for
// authentication, 403 for authorization, and so on down the taxonomy.
func JSONErrorHandler(c router.Context, err error) error {
	status := router.StatusInternalServerError
	body := ErrorBody{Message: "internal server error"}

	var rich *goerrors.Error
	if goerrors.As(err, &rich) {
		status = statusFromError(rich)
		body.Message = rich.Message
		body.TextCode = rich.TextCode
	}

	return c.JSON(status, map[string]ErrorBody{"error": body})
}

func statusFromError(err *goerrors.Error) int {
	if err.Code > 0 {
		return int(err.Code)
	}

	switch err.Category {
	case goerrors.CategoryAuth:
		return router.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return router.StatusForbidden
	case goerrors.CategoryValidation, goerrors.CategoryBadInput:
		return router.StatusBadRequest
	case goerrors.CategoryNotFound:
		return router.StatusNotFound
	case goerrors.CategoryConflict:
		return router.StatusConflict
	default:
		return router.StatusInternalServerError
	}
}
