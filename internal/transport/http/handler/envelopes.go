package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"github.com/xzajyb/MXacc-sub002/internal/domain"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message           string `json:"message,omitempty"`
	Error             string `json:"error,omitempty"`
	RetryAfterSeconds int    `json:"retry_after_seconds,omitempty"`
}

// IssueEnvelope is returned when a verification code was sent.
type IssueEnvelope struct {
	Message           string `json:"message"`
	RemainingAttempts int    `json:"remaining_attempts"`
	ExpiresAt         string `json:"expires_at"`
}

// VerifyEnvelope reports verification and the welcome email separately.
type VerifyEnvelope struct {
	Verified      bool   `json:"verified"`
	WelcomeQueued bool   `json:"welcome_queued"`
	WelcomeError  string `json:"welcome_error,omitempty"`
}

// TaskEnvelope is returned for an accepted email task.
type TaskEnvelope struct {
	TaskID string `json:"task_id"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg})
}

// httpError maps domain errors onto status codes. Unknown errors are logged
// and reported as a bare 500.
func httpError(w http.ResponseWriter, err error) {
	var rl *domain.RateLimitedError
	if errors.As(err, &rl) {
		secs := int(math.Ceil(rl.RetryAfter.Seconds()))
		w.Header().Set("Retry-After", strconv.Itoa(secs))
		writeJSON(w, http.StatusTooManyRequests, MessageEnvelope{Error: "too many verification requests", RetryAfterSeconds: secs})
		return
	}
	switch {
	case errors.Is(err, domain.ErrCodeExpired):
		writeError(w, http.StatusGone, err.Error())
	case errors.Is(err, domain.ErrCodeMismatch),
		errors.Is(err, domain.ErrNoActiveCode),
		errors.Is(err, domain.ErrUnknownTemplateKind),
		errors.Is(err, domain.ErrInvalidRecipient),
		errors.Is(err, domain.ErrBadRequest):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrAlreadyVerified), errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrAccountDisabled), errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrQueueClosed):
		writeError(w, http.StatusServiceUnavailable, "mail queue is shutting down")
	default:
		slog.Error("unhandled error", "err", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
