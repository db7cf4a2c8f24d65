package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/xzajyb/MXacc-sub002/internal/config"
	"github.com/xzajyb/MXacc-sub002/internal/domain"
	"github.com/xzajyb/MXacc-sub002/internal/transport/http/handler"
	appmiddleware "github.com/xzajyb/MXacc-sub002/internal/transport/http/middleware"
	"golang.org/x/time/rate"
)

// NewRouter builds and returns the application router. ctx bounds background
// housekeeping such as the per-IP limiter sweep.
func NewRouter(ctx context.Context, cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// 2 requests/second, burst of 5. The per-account window is enforced
	// separately by the verification service.
	verifyRL := appmiddleware.NewRateLimiter(ctx, rate.Limit(2), 5)

	healthH := handler.NewHealthHandler(deps.Queue.Len)
	verifyH := handler.NewVerificationHandler(deps.Verification)
	emailH := handler.NewEmailHandler(deps.Queue)

	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/v1", func(r chi.Router) {
		r.Get("/health-check/{action}", healthH.Ping)

		if deps.Tokens == nil {
			return
		}
		r.Group(func(r chi.Router) {
			r.Use(appmiddleware.Auth(deps.Tokens))

			r.With(verifyRL.Limit).Post("/verification/request", verifyH.Request)
			r.With(verifyRL.Limit).Post("/verification/confirm", verifyH.Confirm)

			r.Group(func(r chi.Router) {
				r.Use(appmiddleware.RequireRole(domain.RoleAdmin))
				r.Post("/emails", emailH.Enqueue)
			})
		})
	})

	return r
}
