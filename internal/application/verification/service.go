// Package verification issues and confirms email verification codes.
package verification

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strconv"
	"time"

	"github.com/xzajyb/MXacc-sub002/internal/application/ratelimit"
	"github.com/xzajyb/MXacc-sub002/internal/domain"
)

// maxConflictRetries bounds re-reads after a lost optimistic write.
const maxConflictRetries = 3

// Service issues verification codes and confirms them.
type Service interface {
	Issue(ctx context.Context, accountID string) (IssueResult, error)
	Verify(ctx context.Context, accountID, code string) (VerifyResult, error)
}

// IssueResult is returned for a code that was stored and queued for sending.
type IssueResult struct {
	RemainingAttempts int
	ExpiresAt         time.Time
}

// VerifyResult reports verification and the welcome email independently.
// WelcomeErr is set when the welcome email could not be queued.
type VerifyResult struct {
	Verified      bool
	WelcomeQueued bool
	WelcomeErr    error
}

type accountStore interface {
	Get(ctx context.Context, accountID string) (*domain.Account, error)
	SaveSendWindow(ctx context.Context, accountID string, expectedVersion int64, w domain.SendWindow, pending *domain.PendingVerification) error
	MarkVerified(ctx context.Context, accountID string, expectedVersion int64) error
}

type mailQueue interface {
	Enqueue(task domain.EmailTask) (string, error)
}

type service struct {
	repo     accountStore
	queue    mailQueue
	policy   ratelimit.Policy
	codeTTL  time.Duration
	loginURL string
	metrics  *Metrics
	log      *slog.Logger
	now      func() time.Time
	newCode  func() (string, error)
}

// ServiceDeps holds what NewService needs. Zero Policy, CodeTTL, Metrics
// and Logger fall back to defaults.
type ServiceDeps struct {
	AccountRepo accountStore
	Queue       mailQueue
	Policy      ratelimit.Policy
	CodeTTL     time.Duration
	// LoginURL is linked from the welcome email. Optional.
	LoginURL string
	Metrics  *Metrics
	Logger   *slog.Logger
}

// NewService builds a Service from deps.
func NewService(deps ServiceDeps) Service {
	s := &service{
		repo:     deps.AccountRepo,
		queue:    deps.Queue,
		policy:   deps.Policy,
		codeTTL:  deps.CodeTTL,
		loginURL: deps.LoginURL,
		metrics:  deps.Metrics,
		log:      deps.Logger,
		now:      time.Now,
		newCode:  newCode,
	}
	if s.policy == (ratelimit.Policy{}) {
		s.policy = ratelimit.DefaultPolicy
	}
	if s.codeTTL <= 0 {
		s.codeTTL = 10 * time.Minute
	}
	if s.metrics == nil {
		s.metrics = NewMetrics(nil)
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	return s
}

// reservation is a send that has been counted and persisted.
type reservation struct {
	account *domain.Account
	before  domain.SendWindow // window as read, before the reservation
	pending domain.PendingVerification
	version int64 // stored version after the write
	left    int
}

func (s *service) Issue(ctx context.Context, accountID string) (IssueResult, error) {
	res, err := s.reserve(ctx, accountID)
	if err != nil {
		s.metrics.issued(err)
		return IssueResult{}, err
	}

	_, err = s.queue.Enqueue(domain.EmailTask{
		Kind:      domain.KindVerification,
		Recipient: res.account.Email,
		Data: map[string]string{
			"code":             res.pending.Code,
			"username":         res.account.Username,
			"expiresInMinutes": strconv.Itoa(int(s.codeTTL.Minutes())),
		},
	})
	if err != nil {
		if rbErr := s.rollback(ctx, accountID, res.version, res.before); rbErr != nil {
			s.log.Error("verification send window rollback failed", "account_id", accountID, "err", rbErr)
		}
		s.metrics.issued(err)
		return IssueResult{}, fmt.Errorf("queue verification email: %w", err)
	}

	s.metrics.issued(nil)
	return IssueResult{RemainingAttempts: res.left, ExpiresAt: res.pending.ExpiresAt}, nil
}

func (s *service) reserve(ctx context.Context, accountID string) (*reservation, error) {
	for attempt := 1; ; attempt++ {
		acct, err := s.repo.Get(ctx, accountID)
		if err != nil {
			return nil, err
		}
		if acct.Verified {
			return nil, domain.ErrAlreadyVerified
		}
		if acct.Disabled {
			return nil, domain.ErrAccountDisabled
		}

		now := s.now().UTC()
		dec := s.policy.CheckAndReserve(acct.SendWindow, now)
		if !dec.Allowed {
			return nil, &domain.RateLimitedError{RetryAfter: dec.RetryAfter}
		}

		code, err := s.newCode()
		if err != nil {
			return nil, fmt.Errorf("generate verification code: %w", err)
		}
		pending := domain.PendingVerification{Code: code, ExpiresAt: now.Add(s.codeTTL)}

		err = s.repo.SaveSendWindow(ctx, accountID, acct.Version, dec.Window, &pending)
		if errors.Is(err, domain.ErrConflict) && attempt < maxConflictRetries {
			s.log.Warn("send window changed concurrently, retrying", "account_id", accountID, "attempt", attempt)
			continue
		}
		if err != nil {
			return nil, err
		}
		return &reservation{
			account: acct,
			before:  acct.SendWindow,
			pending: pending,
			version: acct.Version + 1,
			left:    dec.Remaining,
		}, nil
	}
}

// rollback puts back the window as it was before the reservation, cooldown
// included. If another write got in first, one send is released from the
// fresh window instead.
func (s *service) rollback(ctx context.Context, accountID string, version int64, before domain.SendWindow) error {
	w := before
	for attempt := 1; ; attempt++ {
		err := s.repo.SaveSendWindow(ctx, accountID, version, w, nil)
		if !errors.Is(err, domain.ErrConflict) || attempt >= maxConflictRetries {
			return err
		}
		acct, gerr := s.repo.Get(ctx, accountID)
		if gerr != nil {
			return gerr
		}
		version, w = acct.Version, ratelimit.Release(acct.SendWindow)
	}
}

func (s *service) Verify(ctx context.Context, accountID, code string) (VerifyResult, error) {
	acct, err := s.repo.Get(ctx, accountID)
	if err != nil {
		return VerifyResult{}, err
	}
	if acct.Verified {
		return VerifyResult{}, domain.ErrAlreadyVerified
	}
	if acct.Pending == nil || acct.Pending.Code == "" {
		return VerifyResult{}, domain.ErrNoActiveCode
	}
	if acct.Pending.Code != code {
		return VerifyResult{}, domain.ErrCodeMismatch
	}
	if acct.Pending.Expired(s.now().UTC()) {
		return VerifyResult{}, domain.ErrCodeExpired
	}

	if err := s.repo.MarkVerified(ctx, accountID, acct.Version); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			// A concurrent confirm or reissue won. Report whatever it left behind.
			if fresh, gerr := s.repo.Get(ctx, accountID); gerr == nil && fresh.Verified {
				return VerifyResult{}, domain.ErrAlreadyVerified
			}
		}
		return VerifyResult{}, err
	}

	res := VerifyResult{Verified: true}
	data := map[string]string{"username": acct.Username}
	if s.loginURL != "" {
		data["loginURL"] = s.loginURL
	}
	if _, err := s.queue.Enqueue(domain.EmailTask{
		Kind:      domain.KindWelcome,
		Recipient: acct.Email,
		Data:      data,
	}); err != nil {
		s.log.Warn("welcome email not queued", "account_id", accountID, "err", err)
		res.WelcomeErr = err
		return res, nil
	}
	res.WelcomeQueued = true
	return res, nil
}

var codeSpace = big.NewInt(1_000_000)

// newCode returns six random decimal digits.
func newCode() (string, error) {
	n, err := rand.Int(rand.Reader, codeSpace)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
