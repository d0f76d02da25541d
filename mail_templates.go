package accounts

import (
	"bytes"
	"embed"
	"io/fs"
	"net/http"

	goerrors "github.com/goliatone/go-errors"
	"github.com/gofiber/template/django/v3"
)

//go:embed templates/mail
var mailTemplates embed.FS

// MailRenderer renders the transactional mail bodies from the embedded
// django templates.
type MailRenderer struct {
	engine *django.Engine
}

func NewMailRenderer() (*MailRenderer, error) {
	sub, err := fs.Sub(mailTemplates, "templates/mail")
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to open mail templates")
	}

	engine := django.NewFileSystem(http.FS(sub), ".html")
	if err := engine.Load(); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load mail templates")
	}

	return &MailRenderer{engine: engine}, nil
}

// defaultMailRenderer panics on failure: the templates are embedded, so a
// load error is a build defect, not a runtime condition.
func defaultMailRenderer() *MailRenderer {
	renderer, err := NewMailRenderer()
	if err != nil {
		panic("ACCOUNTS: mail templates failed to load: " + err.Error())
	}
	return renderer
}

// Render executes the named template with the given bindings.
func (r *MailRenderer) Render(name string, data map[string]any) (string, error) {
	var buf bytes.Buffer
	if err := r.engine.Render(&buf, name, data); err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to render mail template")
	}
	return buf.String(), nil
}

// ConfirmEmailBody renders the registration confirmation message.
func (r *MailRenderer) ConfirmEmailBody(username, token string) (string, error) {
	return r.Render("confirm_email", map[string]any{
		"username": username,
		"token":    token,
	})
}

// ResetPasswordBody renders the password reset message.
func (r *MailRenderer) ResetPasswordBody(username, token string) (string, error) {
	return r.Render("reset_password", map[string]any{
		"username": username,
		"token":    token,
	})
}
