// Package delivery renders queued emails and pushes them through an ordered
// chain of transports, one task at a time.
package delivery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/xzajyb/MXacc-sub002/internal/application/mailtemplate"
	"github.com/xzajyb/MXacc-sub002/internal/domain"
)

// Provider is a single outbound mail transport.
type Provider interface {
	Name() string
	Send(ctx context.Context, to, subject, html string) (messageID string, err error)
}

// MultipartProvider is a Provider that can also carry a plain-text alternative.
type MultipartProvider interface {
	Provider
	SendMultipart(ctx context.Context, to, subject, html, text string) (messageID string, err error)
}

// Attempt is one step of the fallback chain.
type Attempt struct {
	Channel  string
	Provider Provider
	// Kinds restricts the step to these template kinds; nil means every kind.
	Kinds []domain.TemplateKind
}

func (a Attempt) accepts(kind domain.TemplateKind) bool {
	return a.Kinds == nil || slices.Contains(a.Kinds, kind)
}

// UserBlockingKinds are the only kinds worth a second transport.
var UserBlockingKinds = []domain.TemplateKind{domain.KindVerification, domain.KindWelcome}

// Dispatcher renders a message once and tries each accepting attempt in order
// until one succeeds.
type Dispatcher struct {
	attempts []Attempt
	log      *slog.Logger
}

func NewDispatcher(log *slog.Logger, attempts ...Attempt) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}
	return &Dispatcher{attempts: attempts, log: log}
}

// Dispatch never returns an error; failures are carried in the outcome with
// every attempt's error joined.
func (d *Dispatcher) Dispatch(ctx context.Context, kind domain.TemplateKind, to string, data map[string]string) domain.DeliveryOutcome {
	msg, err := mailtemplate.Render(kind, data)
	if err != nil {
		d.log.Error("template render failed", "kind", kind, "err", err)
		return domain.DeliveryOutcome{Err: err}
	}
	if len(msg.Missing) > 0 {
		d.log.Warn("template data incomplete, rendering placeholders",
			"kind", kind, "missing", msg.Missing)
	}

	var (
		errs    []error
		channel string
	)
	for _, a := range d.attempts {
		if !a.accepts(kind) {
			continue
		}
		channel = a.Channel
		id, err := send(ctx, a.Provider, to, msg)
		if err == nil {
			return domain.DeliveryOutcome{Success: true, Channel: a.Channel, MessageID: id}
		}
		errs = append(errs, fmt.Errorf("%s (%s): %w", a.Channel, a.Provider.Name(), err))
		if errors.Is(err, domain.ErrInvalidRecipient) {
			break
		}
	}
	if len(errs) == 0 {
		return domain.DeliveryOutcome{Err: fmt.Errorf("no transport configured for %s", kind)}
	}
	return domain.DeliveryOutcome{Channel: channel, Err: errors.Join(errs...)}
}

func send(ctx context.Context, p Provider, to string, msg mailtemplate.Rendered) (string, error) {
	if mp, ok := p.(MultipartProvider); ok && msg.Text != "" {
		return mp.SendMultipart(ctx, to, msg.Subject, msg.HTML, msg.Text)
	}
	return p.Send(ctx, to, msg.Subject, msg.HTML)
}
