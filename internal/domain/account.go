package domain

import "time"

// Account is the slice of the user record the mail pipeline reads and writes.
// PK: account_id. Version is bumped on every send-window write and used as the
// condition for optimistic updates.
type Account struct {
	AccountID  string               `json:"id" dynamodbav:"account_id"`
	Username   string               `json:"username" dynamodbav:"username"`
	Email      string               `json:"email" dynamodbav:"email"`
	Role       string               `json:"role" dynamodbav:"role"`
	Verified   bool                 `json:"verified" dynamodbav:"verified"`
	Disabled   bool                 `json:"disabled" dynamodbav:"disabled"`
	SendWindow SendWindow           `json:"send_window" dynamodbav:"send_window"`
	Pending    *PendingVerification `json:"-" dynamodbav:"pending_verification,omitempty"`
	Version    int64                `json:"-" dynamodbav:"version"`
	CreatedAt  time.Time            `json:"created" dynamodbav:"created_at"`
	UpdatedAt  time.Time            `json:"updated" dynamodbav:"updated_at"`
}

// SendWindow tracks verification sends for one account.
// SendCount == 0 implies FirstSendAt == nil.
type SendWindow struct {
	SendCount   int        `json:"send_count" dynamodbav:"send_count"`
	FirstSendAt *time.Time `json:"first_send_at,omitempty" dynamodbav:"first_send_at,omitempty"`
	LastSendAt  *time.Time `json:"last_send_at,omitempty" dynamodbav:"last_send_at,omitempty"`
}

// PendingVerification is the active verification code of an account.
type PendingVerification struct {
	Code      string    `json:"code" dynamodbav:"code"`
	ExpiresAt time.Time `json:"expires_at" dynamodbav:"expires_at"`
}

// Expired reports whether the code is past its expiry at now.
func (p PendingVerification) Expired(now time.Time) bool {
	return now.After(p.ExpiresAt)
}
