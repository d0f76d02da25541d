package accounts

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"sync"

	goerrors "github.com/goliatone/go-errors"
)

// SMTPMailer delivers mail over a plain SMTP dialog, upgrading to TLS via
// STARTTLS when the server offers it. The sender address doubles as the
// AUTH identity.
type SMTPMailer struct {
	host     string
	port     int
	address  string
	password string
	fromName string
	logger   Logger
}

func NewSMTPMailer(host string, port int, address, password, fromName string) *SMTPMailer {
	return &SMTPMailer{
		host:     host,
		port:     port,
		address:  address,
		password: password,
		fromName: fromName,
		logger:   defLogger{},
	}
}

// WithLogger sets the logger instance
func (m *SMTPMailer) WithLogger(logger Logger) *SMTPMailer {
	if logger != nil {
		m.logger = logger
	}
	return m
}

// Send delivers one HTML message to a single recipient. net/smtp carries
// no context, so the dialog runs in a goroutine and is abandoned when the
// context expires.
func (m *SMTPMailer) Send(ctx context.Context, subject, to, body string) error {
	done := make(chan error, 1)

	go func() {
		done <- m.send(subject, to, body)
	}()

	select {
	case <-ctx.Done():
		return goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "email delivery cancelled").
			WithTextCode(TextCodeEmailDelivery)
	case err := <-done:
		if err != nil {
			return ClassifyEmailError(err)
		}
		m.logger.Debug("sent %q to %q", subject, to)
		return nil
	}
}

func (m *SMTPMailer) send(subject, to, body string) error {
	addr := net.JoinHostPort(m.host, strconv.Itoa(m.port))

	client, err := smtp.Dial(addr)
	if err != nil {
		return err
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: m.host}); err != nil {
			return err
		}
	}

	if ok, _ := client.Extension("AUTH"); ok {
		auth := smtp.PlainAuth("", m.address, m.password, m.host)
		if err := client.Auth(auth); err != nil {
			return err
		}
	}

	if err := client.Mail(m.address); err != nil {
		return err
	}

	if err := client.Rcpt(to); err != nil {
		return err
	}

	w, err := client.Data()
	if err != nil {
		return err
	}

	if _, err := w.Write([]byte(m.message(subject, to, body))); err != nil {
		return err
	}

	if err := w.Close(); err != nil {
		return err
	}

	return client.Quit()
}

func (m *SMTPMailer) message(subject, to, body string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s <%s>\r\n", m.fromName, m.address)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	b.WriteString("\r\n")
	return b.String()
}

// LoggedMail is one message captured by LogMailer.
type LoggedMail struct {
	Subject string
	To      string
	Body    string
}

// LogMailer records outgoing mail instead of delivering it. It is the
// transport used when the TESTING flag is set and the default on handlers
// until a real mailer is attached.
type LogMailer struct {
	logger Logger

	mu   sync.Mutex
	sent []LoggedMail
}

func NewLogMailer(logger Logger) *LogMailer {
	if logger == nil {
		logger = defLogger{}
	}
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Send(ctx context.Context, subject, to, body string) error {
	m.mu.Lock()
	m.sent = append(m.sent, LoggedMail{Subject: subject, To: to, Body: body})
	m.mu.Unlock()

	m.logger.Info("mail (not delivered) %q to %q", subject, to)
	return nil
}

// Sent returns a copy of every message captured so far.
func (m *LogMailer) Sent() []LoggedMail {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]LoggedMail, len(m.sent))
	copy(out, m.sent)
	return out
}
