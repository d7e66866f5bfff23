// Package main is the entry point for the Presskit API server.
//
// It loads configuration (env, dotenv, SSM), opens the Postgres pool, builds
// the external auth and billing clients, wires the domain handlers onto the
// core chassis, and serves HTTP with graceful shutdown on SIGINT/SIGTERM.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/jackc/pgx/v5/pgxpool"

	"presskit/internal/api/handlers"
	"presskit/internal/auth"
	"presskit/internal/billing"
	"presskit/internal/config"
	"presskit/internal/core"
	"presskit/internal/db"
	"presskit/internal/external"
	"presskit/internal/observability"
	"presskit/internal/queue"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// run encapsulates the startup lifecycle so that main() can cleanly exit on error.
func run() error {
	cfg, err := config.LoadConfig(config.NewSSMProvider(os.Getenv("AWS_REGION")))
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)
	logger.Info("presskit API starting",
		"environment", cfg.Environment,
		"version", cfg.Build.Version,
		"commit", cfg.Build.Commit,
		"port", cfg.Server.Port,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Database.
	pool, err := db.NewPool(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer pool.Close()

	profileRepo := db.NewProfileRepo(pool, logger)
	collabRepo := db.NewCollabRepo(pool, logger)
	archive, err := db.NewWebhookArchive(pool, logger)
	if err != nil {
		return fmt.Errorf("initializing webhook archive: %w", err)
	}

	// AWS clients. The endpoint override points everything at LocalStack in
	// local development; in prod it is empty and the SDK resolves regions.
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWS.Region))
	if err != nil {
		return fmt.Errorf("loading AWS configuration: %w", err)
	}
	var cwClient observability.CloudWatchClient
	if cfg.Observability.EnableMetrics {
		cwClient = cloudwatch.NewFromConfig(awsCfg, func(o *cloudwatch.Options) {
			if cfg.AWS.EndpointURL != "" {
				o.BaseEndpoint = aws.String(cfg.AWS.EndpointURL)
			}
		})
	}
	metrics := observability.NewMetrics(cwClient, cfg.Service, logger)

	sqsClient := sqs.NewFromConfig(awsCfg, func(o *sqs.Options) {
		if cfg.AWS.EndpointURL != "" {
			o.BaseEndpoint = aws.String(cfg.AWS.EndpointURL)
		}
	})
	publisher := queue.NewPublisher(sqsClient, cfg.AWS, logger)

	// External providers.
	authClient := external.NewAuthProviderClient(
		&http.Client{Timeout: cfg.Auth.RequestTimeout},
		external.AuthClientConfig{
			BaseURL:    cfg.Auth.ProviderBaseURL,
			ServiceKey: cfg.Auth.ServiceKey,
			Logger:     logger,
		},
	)
	sessionValidator := auth.NewSessionValidator(auth.SessionValidatorConfig{
		Client: authClient,
		Logger: logger,
	})

	billingClient := external.NewBillingAPIClient(
		&http.Client{Timeout: cfg.Billing.RequestTimeout},
		external.BillingClientConfig{
			APIKey:  cfg.Billing.APIKey,
			BaseURL: cfg.Billing.APIBaseURL,
			Logger:  logger,
		},
	)
	checkoutService := billing.NewCheckoutService(cfg.Billing, billingClient, logger)
	dispatcher := billing.NewDispatcher(profileRepo, logger)

	// A missing webhook secret leaves the verifier nil; the webhook handler
	// then rejects every delivery with 401 instead of accepting unverifiable
	// payloads.
	var verifier handlers.SignatureVerifier
	if v, err := billing.NewVerifier(cfg.Billing.WebhookSecret); err != nil {
		logger.Warn("webhook signing secret is not configured; all deliveries will be rejected")
	} else {
		verifier = v
	}

	// Server chassis and handlers.
	srv, err := core.NewServer(cfg, logger)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	srv.Resolver = sessionValidator
	srv.Metrics = metrics
	srv.HealthProbes = []core.HealthProbe{dbProbe{pool: pool}}

	webhookHandler := handlers.NewWebhookHandler(verifier, dispatcher, archive, publisher, metrics, logger)
	billingHandler := handlers.NewBillingHandler(checkoutService, metrics, logger)
	profileHandler := handlers.NewProfileHandler(profileRepo, srv.Validator, logger)
	kitHandler := handlers.NewKitHandler(profileRepo, collabRepo, logger)
	collabHandler := handlers.NewCollabHandler(profileRepo, collabRepo, publisher, srv.Validator, logger)

	srv.PublicRouteRegistrars = append(srv.PublicRouteRegistrars,
		webhookHandler.RegisterRoutes,
		kitHandler.RegisterRoutes,
		collabHandler.RegisterPublicRoutes,
	)
	srv.V1RouteRegistrars = append(srv.V1RouteRegistrars,
		billingHandler.RegisterRoutes,
		profileHandler.RegisterRoutes,
		collabHandler.RegisterCreatorRoutes,
	)

	srv.MountRoutes()

	return runHTTPServer(ctx, srv, cfg, logger)
}

// runHTTPServer serves HTTP until the context is cancelled, then shuts down
// gracefully within the configured deadline.
func runHTTPServer(ctx context.Context, srv *core.Server, cfg *config.Config, logger *slog.Logger) error {
	httpServer := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	logger.Info("initiating graceful shutdown")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
		return fmt.Errorf("server shutdown: %w", err)
	}

	logger.Info("server stopped cleanly")
	return nil
}

// dbProbe reports database connectivity for GET /health.
type dbProbe struct {
	pool *pgxpool.Pool
}

func (p dbProbe) Name() string { return "database" }

func (p dbProbe) Check(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// newLogger creates a structured JSON slog.Logger at the configured level.
func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}
