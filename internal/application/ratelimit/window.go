// Package ratelimit gates verification sends per account with a fixed-size
// window and a minimum interval between sends.
package ratelimit

import (
	"time"

	"github.com/xzajyb/MXacc-sub002/internal/domain"
)

// Policy bounds verification sends for a single account.
type Policy struct {
	MaxSends    int
	Window      time.Duration
	MinInterval time.Duration
}

// DefaultPolicy allows 3 sends per 3 minutes, at least 30 seconds apart.
var DefaultPolicy = Policy{
	MaxSends:    3,
	Window:      3 * time.Minute,
	MinInterval: 30 * time.Second,
}

// Decision is the result of CheckAndReserve.
type Decision struct {
	Allowed    bool
	RetryAfter time.Duration
	// Window is the state to persist. When Allowed it already includes the
	// reserved send; when denied it may still carry an expired-window reset.
	Window domain.SendWindow
	// Remaining is the number of sends left in the current window.
	Remaining int
}

// CheckAndReserve evaluates w at now and, when allowed, returns the window
// with the send counted.
func (p Policy) CheckAndReserve(w domain.SendWindow, now time.Time) Decision {
	if w.FirstSendAt != nil && now.Sub(*w.FirstSendAt) >= p.Window {
		w.SendCount = 0
		w.FirstSendAt = nil
	}

	if w.SendCount >= p.MaxSends {
		retry := p.Window
		if w.FirstSendAt != nil {
			retry -= now.Sub(*w.FirstSendAt)
		}
		return Decision{RetryAfter: retry, Window: w}
	}

	if w.LastSendAt != nil {
		if elapsed := now.Sub(*w.LastSendAt); elapsed < p.MinInterval {
			return Decision{
				RetryAfter: p.MinInterval - elapsed,
				Window:     w,
				Remaining:  p.MaxSends - w.SendCount,
			}
		}
	}

	at := now
	if w.SendCount == 0 {
		w.FirstSendAt = &at
	}
	w.SendCount++
	w.LastSendAt = &at
	return Decision{Allowed: true, Window: w, Remaining: p.MaxSends - w.SendCount}
}

// Release undoes one reserved send. The count never drops below zero and an
// empty window has no anchor.
func Release(w domain.SendWindow) domain.SendWindow {
	if w.SendCount > 0 {
		w.SendCount--
	}
	if w.SendCount == 0 {
		w.FirstSendAt = nil
	}
	return w
}
