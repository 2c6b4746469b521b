package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/evamarketing/hand-rest-6/internal/app"
	"github.com/evamarketing/hand-rest-6/internal/config"
	"github.com/evamarketing/hand-rest-6/internal/httpapi"
	"github.com/evamarketing/hand-rest-6/internal/store/postgres"
	"github.com/evamarketing/hand-rest-6/internal/telemetry"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/pflag"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

const serviceName = "booking-service"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var envFile string
	var migrate, migrateOnly bool
	var migrationsDir string

	flagSet := pflag.NewFlagSet(serviceName, pflag.ContinueOnError)
	flagSet.StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	flagSet.BoolVar(&migrate, "migrate", false, "apply database migrations before serving")
	flagSet.BoolVar(&migrateOnly, "migrate-only", false, "apply database migrations and exit")
	flagSet.StringVar(&migrationsDir, "migrations-dir", "", "directory holding goose migrations (overrides MIGRATIONS_DIR)")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	if err := config.LoadDotEnv(envFile); err != nil {
		return fmt.Errorf("load %s: %w", envFile, err)
	}
	cfg := config.Load()
	if migrationsDir != "" {
		cfg.MigrationsDir = migrationsDir
	}

	logger, err := app.NewLogger(cfg.Env)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	shutdownTelemetry := telemetry.Setup(context.Background(), telemetry.Options{
		ServiceName: serviceName,
		Endpoint:    cfg.OTLPEndpoint,
		Insecure:    cfg.OTLPInsecure,
	}, logger)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(ctx); err != nil {
			logger.Warn("telemetry shutdown", zap.Error(err))
		}
	}()

	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("db connect: %w", err)
	}
	defer pool.Close()

	if migrate || migrateOnly {
		if err := runMigrations(pool, cfg.MigrationsDir, logger); err != nil {
			return err
		}
		if migrateOnly {
			return nil
		}
	}

	store := postgres.NewStore(pool, postgres.Options{})
	handler := httpapi.NewHandler(store, httpapi.Options{Logger: logger})
	limiter := httpapi.NewRateLimiter(httpapi.RateLimitConfig{
		IPPerMinute:   cfg.RateLimitPerMinute,
		IPBurst:       cfg.RateLimitBurst,
		UserPerMinute: cfg.UserRateLimitPerMinute,
		UserBurst:     cfg.UserRateLimitBurst,
	})

	routes := httpapi.AuthMiddleware(store, logger, limiter.UserMiddleware(handler.Routes()))
	otelHandler := otelhttp.NewHandler(httpapi.LoggingMiddleware(logger, limiter.Middleware(routes)), serviceName)
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      otelHandler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-stop:
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", zap.Error(err))
	}
	logger.Info("stopped")
	return nil
}

func runMigrations(pool *pgxpool.Pool, dir string, logger *zap.Logger) error {
	migrator, err := app.NewMigrator(pool, dir, logger)
	if err != nil {
		return err
	}
	defer migrator.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	return migrator.Run(ctx)
}
