package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/xzajyb/MXacc-sub002/internal/application/verification"
	"github.com/xzajyb/MXacc-sub002/internal/pkg/validate"
	"github.com/xzajyb/MXacc-sub002/internal/transport/http/middleware"
)

// VerificationHandler exposes code issue and confirm for the calling account.
type VerificationHandler struct {
	svc verification.Service
}

func NewVerificationHandler(svc verification.Service) *VerificationHandler {
	return &VerificationHandler{svc: svc}
}

func (h *VerificationHandler) Request(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	res, err := h.svc.Issue(r.Context(), claims.AccountID)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, IssueEnvelope{
		Message:           "verification email queued",
		RemainingAttempts: res.RemainingAttempts,
		ExpiresAt:         res.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

const maxConfirmBodySize = 1 << 10

type confirmRequest struct {
	Code string `json:"code" validate:"required,len=6,numeric"`
}

func (h *VerificationHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxConfirmBodySize)
	var req confirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	res, err := h.svc.Verify(r.Context(), claims.AccountID, req.Code)
	if err != nil {
		httpError(w, err)
		return
	}
	env := VerifyEnvelope{Verified: res.Verified, WelcomeQueued: res.WelcomeQueued}
	if res.WelcomeErr != nil {
		env.WelcomeError = res.WelcomeErr.Error()
	}
	writeJSON(w, http.StatusOK, env)
}
