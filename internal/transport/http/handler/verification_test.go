package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xzajyb/MXacc-sub002/internal/application/verification"
	"github.com/xzajyb/MXacc-sub002/internal/domain"
	jwtinfra "github.com/xzajyb/MXacc-sub002/internal/infrastructure/jwt"
	"github.com/xzajyb/MXacc-sub002/internal/transport/http/middleware"
)

// --- mock ---

type mockVerificationSvc struct{ mock.Mock }

func (m *mockVerificationSvc) Issue(ctx context.Context, accountID string) (verification.IssueResult, error) {
	args := m.Called(ctx, accountID)
	return args.Get(0).(verification.IssueResult), args.Error(1)
}

func (m *mockVerificationSvc) Verify(ctx context.Context, accountID, code string) (verification.VerifyResult, error) {
	args := m.Called(ctx, accountID, code)
	return args.Get(0).(verification.VerifyResult), args.Error(1)
}

// --- helpers ---

func asAccount(r *http.Request, accountID string) *http.Request {
	return r.WithContext(middleware.WithClaims(r.Context(), &jwtinfra.Claims{AccountID: accountID, Role: domain.RoleUser}))
}

func confirmBody(code string) *bytes.Reader {
	b, _ := json.Marshal(map[string]string{"code": code})
	return bytes.NewReader(b)
}

// --- Request ---

func TestVerificationRequest_MissingClaims(t *testing.T) {
	h := NewVerificationHandler(&mockVerificationSvc{})
	rr := httptest.NewRecorder()
	h.Request(rr, httptest.NewRequest(http.MethodPost, "/v1/verification/request", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestVerificationRequest_HappyPath(t *testing.T) {
	svc := &mockVerificationSvc{}
	expires := time.Date(2024, 3, 1, 9, 10, 0, 0, time.UTC)
	svc.On("Issue", mock.Anything, "u1").Return(verification.IssueResult{RemainingAttempts: 2, ExpiresAt: expires}, nil)
	h := NewVerificationHandler(svc)

	rr := httptest.NewRecorder()
	h.Request(rr, asAccount(httptest.NewRequest(http.MethodPost, "/v1/verification/request", nil), "u1"))

	assert.Equal(t, http.StatusOK, rr.Code)
	var resp IssueEnvelope
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, 2, resp.RemainingAttempts)
	assert.Equal(t, "2024-03-01T09:10:00Z", resp.ExpiresAt)
	svc.AssertExpectations(t)
}

func TestVerificationRequest_RateLimited(t *testing.T) {
	svc := &mockVerificationSvc{}
	svc.On("Issue", mock.Anything, "u1").Return(verification.IssueResult{}, &domain.RateLimitedError{RetryAfter: 89500 * time.Millisecond})
	h := NewVerificationHandler(svc)

	rr := httptest.NewRecorder()
	h.Request(rr, asAccount(httptest.NewRequest(http.MethodPost, "/v1/verification/request", nil), "u1"))

	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "90", rr.Header().Get("Retry-After"))
	var resp MessageEnvelope
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, 90, resp.RetryAfterSeconds)
}

// --- Confirm ---

func TestVerificationConfirm_InvalidBody(t *testing.T) {
	h := NewVerificationHandler(&mockVerificationSvc{})
	r := asAccount(httptest.NewRequest(http.MethodPost, "/v1/verification/confirm", bytes.NewBufferString("nope")), "u1")
	rr := httptest.NewRecorder()
	h.Confirm(rr, r)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestVerificationConfirm_ValidationFailure(t *testing.T) {
	svc := &mockVerificationSvc{}
	h := NewVerificationHandler(svc)
	r := asAccount(httptest.NewRequest(http.MethodPost, "/v1/verification/confirm", confirmBody("12ab")), "u1")
	rr := httptest.NewRecorder()
	h.Confirm(rr, r)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	svc.AssertNotCalled(t, "Verify", mock.Anything, mock.Anything, mock.Anything)
}

func TestVerificationConfirm_MalformedCodeRejectedEvenWhenVerified(t *testing.T) {
	for _, code := range []string{"12ab", "1234567", "12345"} {
		t.Run(code, func(t *testing.T) {
			svc := &mockVerificationSvc{}
			svc.On("Verify", mock.Anything, "u1", mock.Anything).Return(verification.VerifyResult{}, domain.ErrAlreadyVerified).Maybe()
			h := NewVerificationHandler(svc)

			r := asAccount(httptest.NewRequest(http.MethodPost, "/v1/verification/confirm", confirmBody(code)), "u1")
			rr := httptest.NewRecorder()
			h.Confirm(rr, r)

			assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
			svc.AssertNotCalled(t, "Verify", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestVerificationConfirm_OversizedBody(t *testing.T) {
	svc := &mockVerificationSvc{}
	h := NewVerificationHandler(svc)
	body := `{"code":"123456","pad":"` + strings.Repeat("x", maxConfirmBodySize) + `"}`

	r := asAccount(httptest.NewRequest(http.MethodPost, "/v1/verification/confirm", strings.NewReader(body)), "u1")
	rr := httptest.NewRecorder()
	h.Confirm(rr, r)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	svc.AssertNotCalled(t, "Verify", mock.Anything, mock.Anything, mock.Anything)
}

func TestVerificationConfirm_HappyPath(t *testing.T) {
	svc := &mockVerificationSvc{}
	svc.On("Verify", mock.Anything, "u1", "123456").Return(verification.VerifyResult{Verified: true, WelcomeErr: domain.ErrQueueClosed}, nil)
	h := NewVerificationHandler(svc)

	r := asAccount(httptest.NewRequest(http.MethodPost, "/v1/verification/confirm", confirmBody("123456")), "u1")
	rr := httptest.NewRecorder()
	h.Confirm(rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	var resp VerifyEnvelope
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.True(t, resp.Verified)
	assert.False(t, resp.WelcomeQueued)
	assert.Equal(t, domain.ErrQueueClosed.Error(), resp.WelcomeError)
}

func TestVerificationConfirm_ErrorMapping(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{domain.ErrCodeMismatch, http.StatusBadRequest},
		{domain.ErrNoActiveCode, http.StatusBadRequest},
		{domain.ErrCodeExpired, http.StatusGone},
		{domain.ErrAlreadyVerified, http.StatusConflict},
		{domain.ErrAccountDisabled, http.StatusForbidden},
		{domain.ErrNotFound, http.StatusNotFound},
		{assert.AnError, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			svc := &mockVerificationSvc{}
			svc.On("Verify", mock.Anything, "u1", "123456").Return(verification.VerifyResult{}, tt.err)
			h := NewVerificationHandler(svc)

			r := asAccount(httptest.NewRequest(http.MethodPost, "/v1/verification/confirm", confirmBody("123456")), "u1")
			rr := httptest.NewRecorder()
			h.Confirm(rr, r)
			assert.Equal(t, tt.want, rr.Code)
		})
	}
}
