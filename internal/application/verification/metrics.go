package verification

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/xzajyb/MXacc-sub002/internal/domain"
)

type Metrics struct {
	issues *prometheus.CounterVec
}

// NewMetrics registers the collectors on reg. A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		issues: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "verification_issue_total",
			Help: "Verification code requests by result.",
		}, []string{"result"}),
	}
	if reg != nil {
		reg.MustRegister(m.issues)
	}
	return m
}

func (m *Metrics) issued(err error) {
	m.issues.WithLabelValues(issueResult(err)).Inc()
}

func issueResult(err error) string {
	switch {
	case err == nil:
		return "issued"
	case errors.Is(err, domain.ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, domain.ErrAlreadyVerified):
		return "already_verified"
	case errors.Is(err, domain.ErrAccountDisabled):
		return "disabled"
	default:
		return "error"
	}
}
