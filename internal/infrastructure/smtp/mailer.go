package smtp

import (
	"context"
	"crypto/tls"
	"fmt"

	mail "github.com/go-mail/mail"
	"github.com/xzajyb/MXacc-sub002/internal/config"
	"github.com/xzajyb/MXacc-sub002/internal/domain"
	"github.com/xzajyb/MXacc-sub002/internal/pkg/validate"
)

// sendFunc delivers a built message; swapped out in tests.
type sendFunc func(m *mail.Message) error

// Mailer is the direct SMTP transport, used as a secondary channel.
type Mailer struct {
	from string
	send sendFunc
}

func NewMailer(cfg *config.Config) *Mailer {
	d := mail.NewDialer(cfg.Mail.SMTPHost, cfg.Mail.SMTPPort, cfg.Mail.SMTPUsername, cfg.Mail.SMTPPassword)
	d.Timeout = cfg.Mail.SendTimeout
	d.SSL = cfg.Mail.SMTPSSL
	d.TLSConfig = &tls.Config{ServerName: cfg.Mail.SMTPHost}
	// Disable go-mail's own resend on failure; retries belong to the caller.
	d.RetryFailure = false
	return &Mailer{from: cfg.Mail.From, send: func(m *mail.Message) error { return d.DialAndSend(m) }}
}

func (m *Mailer) Name() string { return "smtp" }

// Send delivers html over SMTP.
// SMTP has no provider message id, so the returned id is always empty.
func (m *Mailer) Send(ctx context.Context, to, subject, html string) (string, error) {
	return m.SendMultipart(ctx, to, subject, html, "")
}

// SendMultipart sends text as the plain part with html as the alternative.
func (m *Mailer) SendMultipart(ctx context.Context, to, subject, html, text string) (string, error) {
	if !validate.Email(to) {
		return "", fmt.Errorf("smtp: %q: %w", to, domain.ErrInvalidRecipient)
	}
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("smtp: %w", err)
	}

	msg := mail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	if text != "" {
		msg.SetBody("text/plain", text)
		msg.AddAlternative("text/html", html)
	} else {
		msg.SetBody("text/html", html)
	}

	if err := m.send(msg); err != nil {
		return "", fmt.Errorf("smtp send: %w", err)
	}
	return "", nil
}
