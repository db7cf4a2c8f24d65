// Package resend is a secondary transport backed by the Resend HTTP API.
package resend

import (
	"context"
	"fmt"
	"time"

	resendsdk "github.com/resend/resend-go/v2"
	"github.com/xzajyb/MXacc-sub002/internal/config"
	"github.com/xzajyb/MXacc-sub002/internal/domain"
	"github.com/xzajyb/MXacc-sub002/internal/pkg/validate"
)

// Sender sends one email per call through Resend.
type Sender struct {
	client  *resendsdk.Client
	from    string
	timeout time.Duration
}

func NewSender(cfg *config.Config) *Sender {
	return &Sender{
		client:  resendsdk.NewClient(cfg.Mail.ResendAPIKey),
		from:    cfg.Mail.From,
		timeout: cfg.Mail.SendTimeout,
	}
}

func (s *Sender) Name() string { return "resend" }

func (s *Sender) Send(ctx context.Context, to, subject, html string) (string, error) {
	return s.SendMultipart(ctx, to, subject, html, "")
}

func (s *Sender) SendMultipart(ctx context.Context, to, subject, html, text string) (string, error) {
	if !validate.Email(to) {
		return "", fmt.Errorf("resend: %q: %w", to, domain.ErrInvalidRecipient)
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	sent, err := s.client.Emails.SendWithContext(ctx, &resendsdk.SendEmailRequest{
		From:    s.from,
		To:      []string{to},
		Subject: subject,
		Html:    html,
		Text:    text,
	})
	if err != nil {
		return "", fmt.Errorf("resend: failed to send email: %w", err)
	}
	return sent.Id, nil
}
