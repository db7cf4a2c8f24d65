package domain

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrBadRequest   = errors.New("bad request")
)

// Verification lifecycle errors.
var (
	ErrRateLimited     = errors.New("rate limited")
	ErrAlreadyVerified = errors.New("account already verified")
	ErrAccountDisabled = errors.New("account disabled")
	ErrNoActiveCode    = errors.New("no active verification code")
	ErrCodeMismatch    = errors.New("verification code mismatch")
	ErrCodeExpired     = errors.New("verification code expired")
)

// Mail pipeline errors.
var (
	ErrUnknownTemplateKind = errors.New("unknown template kind")
	ErrInvalidRecipient    = errors.New("invalid recipient")
	ErrQueueClosed         = errors.New("delivery queue closed")
)

// RateLimitedError carries the wait before the next send is allowed.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited: retry after %s", e.RetryAfter.Round(time.Second))
}

// Is makes errors.Is(err, ErrRateLimited) match.
func (e *RateLimitedError) Is(target error) bool {
	return target == ErrRateLimited
}
