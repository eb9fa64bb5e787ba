// Storefront cart service - serves guest and account carts to app clients
// over REST and to agents over MCP, backed by the storefront API.
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

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"storefront-cart/internal/cart"
	"storefront-cart/internal/config"
	"storefront-cart/internal/gateway"
	"storefront-cart/internal/handler"
	"storefront-cart/internal/localcart"
	"storefront-cart/internal/middleware"
	"storefront-cart/internal/reconcile"
	"storefront-cart/internal/session"
	"storefront-cart/internal/storage"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Initialize structured logger
	logger := initLogger()

	// Load configuration
	ctx := context.Background()
	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger.Info("configuration loaded",
		slog.String("environment", cfg.Environment),
		slog.String("gateway", cfg.Gateway.URL),
		slog.String("storage", cfg.Storage.Backend),
		slog.String("merge_policy", string(cfg.MergePolicy())),
	)

	st, err := storage.Open(ctx, cfg.StorageOptions())
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}
	defer st.Close()

	api, err := gateway.New(cfg.GatewayClientConfig(logger))
	if err != nil {
		return fmt.Errorf("creating gateway client: %w", err)
	}

	reconciler := reconcile.New(cfg.MergePolicy(), logger)
	notifier := cart.CollectingNotifier{Next: cart.LogNotifier{Logger: logger}}

	sessions, err := session.NewRegistry(cfg.Session.CacheSize, func(deviceID string) *cart.Facade {
		deviceLogger := logger.With(slog.String("device", deviceID))
		return cart.New(cart.Options{
			Local:      localcart.New(st, deviceID, deviceLogger),
			Gateway:    api,
			Reconciler: reconciler,
			Notifier:   notifier,
			Logger:     deviceLogger,
		})
	}, logger)
	if err != nil {
		return fmt.Errorf("creating session registry: %w", err)
	}

	h := handler.New(sessions, api, st, logger)

	// Setup routes
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	// Apply middleware chain: recovery → request id → logging → session → handler
	// Recovery must be outermost to catch panics from logging middleware
	httpHandler := middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID,
		middleware.Logging(logger),
		session.Middleware(cfg.Session.MinClientVersion, logger),
	)(mux)

	// Create HTTP server with timeouts
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      otelhttp.NewHandler(httpHandler, "storefront-cart"),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	janitorCtx, stopJanitor := context.WithCancel(ctx)
	defer stopJanitor()
	if purger, ok := st.(storage.Purger); ok {
		go purgeExpired(janitorCtx, purger, time.Duration(cfg.Storage.PurgeInterval), logger)
	}

	// Channel for shutdown signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Channel for server errors
	serverErr := make(chan error, 1)

	go func() {
		logger.Info("server starting",
			slog.String("port", cfg.Port),
			slog.String("addr", server.Addr),
		)
		serverErr <- server.ListenAndServe()
	}()

	// Wait for shutdown signal or server error
	select {
	case err := <-serverErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-shutdown:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		// Give outstanding requests time to complete
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			// Force close if graceful shutdown fails
			server.Close()
			return fmt.Errorf("shutdown error: %w", err)
		}
	}

	logger.Info("server stopped")
	return nil
}

// purgeExpired periodically deletes guest carts past their TTL from backends
// that don't expire keys themselves.
func purgeExpired(ctx context.Context, p storage.Purger, every time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := p.PurgeExpired(ctx)
			if err != nil {
				logger.Warn("purging expired carts failed", slog.String("error", err.Error()))
				continue
			}
			if n > 0 {
				logger.Info("purged expired carts", slog.Int64("count", n))
			}
		}
	}
}

// initLogger creates a structured logger configured for the environment.
// Production uses JSON format for GCP Cloud Logging compatibility.
// Development uses text format for readability.
func initLogger() *slog.Logger {
	level := slog.LevelInfo
	switch os.Getenv("LOG_LEVEL") {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{
		Level: level,
		// Add source location in debug mode
		AddSource: level == slog.LevelDebug,
	}

	// JSON for production (Cloud Logging compatible), text for development
	if os.Getenv("ENVIRONMENT") == "production" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
