package domain

import (
	"fmt"
	"time"
)

// TemplateKind is the closed set of transactional message types.
type TemplateKind string

const (
	KindVerification               TemplateKind = "verification"
	KindWelcome                    TemplateKind = "welcome"
	KindPasswordReset              TemplateKind = "password_reset"
	KindPasswordResetNotification  TemplateKind = "password_reset_notification"
	KindPasswordChangeNotification TemplateKind = "password_change_notification"
	KindSecurityAlert              TemplateKind = "security_alert"
	KindAdminNotification          TemplateKind = "admin_notification"
)

// TemplateKinds lists every kind in declaration order.
var TemplateKinds = []TemplateKind{
	KindVerification,
	KindWelcome,
	KindPasswordReset,
	KindPasswordResetNotification,
	KindPasswordChangeNotification,
	KindSecurityAlert,
	KindAdminNotification,
}

// ParseTemplateKind maps a wire name onto a known kind.
func ParseTemplateKind(s string) (TemplateKind, error) {
	for _, k := range TemplateKinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("%q: %w", s, ErrUnknownTemplateKind)
}

// EmailTask is one queued email. It is dropped after a single delivery attempt.
type EmailTask struct {
	ID         string            `json:"id"`
	Kind       TemplateKind      `json:"kind"`
	Recipient  string            `json:"recipient"`
	Data       map[string]string `json:"data,omitempty"`
	EnqueuedAt time.Time         `json:"enqueued_at"`
}

// Delivery channels.
const (
	ChannelPrimary   = "primary"
	ChannelSecondary = "secondary"
)

// DeliveryOutcome is the result of dispatching one task.
// Channel is the channel that succeeded, or the last one tried on failure.
type DeliveryOutcome struct {
	Success   bool
	Channel   string
	MessageID string
	Err       error
}
