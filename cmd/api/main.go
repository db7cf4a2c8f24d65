package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/xzajyb/MXacc-sub002/internal/application/delivery"
	"github.com/xzajyb/MXacc-sub002/internal/application/ratelimit"
	"github.com/xzajyb/MXacc-sub002/internal/application/verification"
	"github.com/xzajyb/MXacc-sub002/internal/config"
	"github.com/xzajyb/MXacc-sub002/internal/domain"
	"github.com/xzajyb/MXacc-sub002/internal/infrastructure/awsconf"
	"github.com/xzajyb/MXacc-sub002/internal/infrastructure/dynamo"
	jwtinfra "github.com/xzajyb/MXacc-sub002/internal/infrastructure/jwt"
	"github.com/xzajyb/MXacc-sub002/internal/infrastructure/mailapi"
	"github.com/xzajyb/MXacc-sub002/internal/infrastructure/resend"
	s3infra "github.com/xzajyb/MXacc-sub002/internal/infrastructure/s3"
	"github.com/xzajyb/MXacc-sub002/internal/infrastructure/smtp"
	"github.com/xzajyb/MXacc-sub002/internal/infrastructure/sns"
	transporthttp "github.com/xzajyb/MXacc-sub002/internal/transport/http"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	awsCfg, err := awsconf.Load(ctx, cfg)
	if err != nil {
		log.Fatalf("aws config: %v", err)
	}

	// Bootstrap the accounts table (creates it if it doesn't exist).
	dynamoClient := dynamo.NewClient(awsCfg, cfg.AWSEndpointURL)
	dynamo.Bootstrap(ctx, dynamoClient, cfg.DynamoTables)
	accounts := dynamo.NewAccountRepo(dynamoClient, cfg.DynamoTables.Accounts)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	dispatcher := delivery.NewDispatcher(slog.Default(), mailChain(cfg)...)
	queue := delivery.NewQueue(dispatcher,
		delivery.WithPacing(cfg.Mail.Pacing),
		delivery.WithMetrics(delivery.NewMetrics(reg)),
		delivery.WithSinks(failureSinks(cfg, awsCfg)...),
	)

	verifySvc := verification.NewService(verification.ServiceDeps{
		AccountRepo: accounts,
		Queue:       queue,
		Policy: ratelimit.Policy{
			MaxSends:    cfg.Verification.MaxSends,
			Window:      cfg.Verification.Window,
			MinInterval: cfg.Verification.MinInterval,
		},
		CodeTTL:  cfg.Verification.CodeTTL,
		LoginURL: cfg.Mail.LoginURL,
		Metrics:  verification.NewMetrics(reg),
	})

	deps := &transporthttp.Deps{
		Verification: verifySvc,
		Queue:        queue,
		Gatherer:     reg,
	}
	// JWT provider is optional: authenticated routes are skipped without it.
	if p, err := jwtinfra.NewProvider(cfg); err == nil {
		deps.Tokens = p
	} else {
		log.Printf("WARN: JWT provider not available: %v", err)
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      transporthttp.NewRouter(ctx, cfg, deps),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on :%s (env=%s)", cfg.AppPort, cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()

	log.Println("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("forced shutdown: %v", err)
	}
	if err := queue.Close(shutdownCtx); err != nil {
		log.Printf("mail queue not drained: %v", err)
	}
	log.Println("Server stopped")
}

// mailChain builds the ordered transports. The secondary only carries the
// user-blocking kinds.
func mailChain(cfg *config.Config) []delivery.Attempt {
	var chain []delivery.Attempt
	if cfg.Mail.APIURL != "" {
		chain = append(chain, delivery.Attempt{
			Channel:  domain.ChannelPrimary,
			Provider: mailapi.NewClient(cfg),
		})
	} else {
		log.Println("WARN: MAIL_API_URL not set, primary mail transport disabled")
	}

	var secondary delivery.Provider
	switch cfg.Mail.Secondary {
	case "smtp":
		secondary = smtp.NewMailer(cfg)
	case "resend":
		if cfg.Mail.ResendAPIKey == "" {
			log.Println("WARN: RESEND_API_KEY not set, secondary mail transport disabled")
			break
		}
		secondary = resend.NewSender(cfg)
	case "", "none":
	default:
		log.Printf("WARN: unknown MAIL_SECONDARY %q, secondary mail transport disabled", cfg.Mail.Secondary)
	}
	if secondary != nil {
		chain = append(chain, delivery.Attempt{
			Channel:  domain.ChannelSecondary,
			Provider: secondary,
			Kinds:    delivery.UserBlockingKinds,
		})
	}
	return chain
}

func failureSinks(cfg *config.Config, awsCfg aws.Config) []delivery.OutcomeSink {
	var sinks []delivery.OutcomeSink
	if cfg.Mail.DeadLetterBucket != "" {
		archive := s3infra.NewDeadLetterArchive(s3infra.NewClient(awsCfg, cfg.AWSEndpointURL), cfg.Mail.DeadLetterBucket)
		sinks = append(sinks, delivery.FailuresOnly{Sink: archive})
	}
	if cfg.Mail.AlertTopicARN != "" {
		alerter := sns.NewFailureAlerter(sns.NewClient(awsCfg, cfg.AWSEndpointURL), cfg.Mail.AlertTopicARN)
		sinks = append(sinks, delivery.FailuresOnly{Sink: alerter})
	}
	return sinks
}
