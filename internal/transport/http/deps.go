package http

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/xzajyb/MXacc-sub002/internal/application/verification"
	"github.com/xzajyb/MXacc-sub002/internal/transport/http/handler"
	"github.com/xzajyb/MXacc-sub002/internal/transport/http/middleware"
)

// MailQueue is what the router needs from the delivery queue.
type MailQueue interface {
	handler.Enqueuer
	Len() int
}

// Deps holds the application services the router exposes.
type Deps struct {
	Verification verification.Service
	Queue        MailQueue
	// Tokens verifies bearer tokens. When nil, authenticated routes are not mounted.
	Tokens middleware.TokenVerifier
	// Gatherer backs /metrics. When nil, the route is not mounted.
	Gatherer prometheus.Gatherer
}
