package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tripplanner/internal/api"
	"tripplanner/internal/cache"
	"tripplanner/internal/config"
	"tripplanner/internal/logger"
	"tripplanner/internal/models"
	"tripplanner/internal/observability"
	"tripplanner/internal/planner"
	"tripplanner/internal/ratelimit"
	"tripplanner/internal/storage"
	"tripplanner/internal/travel"
	"tripplanner/internal/version"
)

var (
	configFile    = flag.String("config", "", "Path to configuration file")
	exampleConfig = flag.String("write-example-config", "", "Write an example configuration file to this path and exit")
	showVersion   = flag.Bool("version", false, "Print version information and exit")
)

func main() {
	flag.Parse()

	ver := version.GetInfo()
	if *showVersion {
		fmt.Println(ver.String())
		return
	}

	if *exampleConfig != "" {
		if err := config.SaveExample(*exampleConfig); err != nil {
			slog.Error("Failed to write example configuration", "error", err)
			os.Exit(1)
		}
		fmt.Printf("Example configuration written to %s\n", *exampleConfig)
		return
	}

	// Load configuration
	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Initialize structured logging
	log, closer, err := logger.Setup(cfg.Logging, ver)
	if err != nil {
		slog.Error("Failed to initialize logger", "error", err)
		os.Exit(1)
	}
	if closer != nil {
		defer closer.Close()
	}
	slog.SetDefault(log)

	// Initialize observability (OpenTelemetry)
	otelProvider, err := observability.Setup(cfg.Metrics, cfg.Observability, ver)
	if err != nil {
		slog.Error("Failed to initialize observability", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := otelProvider.Shutdown(shutdownCtx); err != nil {
			slog.Error("Failed to shutdown observability", "error", err)
		}
	}()

	// Initialize storage
	storageInstance, err := storage.NewFactory().Create(cfg.Storage)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err, "type", cfg.Storage.Type)
		os.Exit(1)
	}
	defer storageInstance.Close()

	// Wrap storage with instrumentation if metrics are enabled
	var activeStorage storage.Storage = storageInstance
	if cfg.Metrics.Enabled {
		instrumented, err := observability.NewInstrumentedStorage(storageInstance)
		if err != nil {
			slog.Error("Failed to create instrumented storage", "error", err)
			os.Exit(1)
		}
		activeStorage = instrumented
	}

	// Search result cache
	searchCache, err := cache.New(cfg.Cache)
	if err != nil {
		slog.Error("Failed to initialize cache", "error", err, "type", cfg.Cache.Type)
		os.Exit(1)
	}
	defer searchCache.Close()

	plannerService := planner.NewService(activeStorage)
	catalog := travel.NewCatalog(searchCache, cfg.Cache.TTL)

	handlers := api.NewHandlers(plannerService, catalog,
		api.WithStorage(activeStorage),
		api.WithVersion(ver.Version),
	)

	routeOpts := []api.RouteOption{}
	if otelProvider.TracingEnabled() {
		routeOpts = append(routeOpts, api.WithOTelMiddleware(cfg.Observability.ServiceName))
	}

	if !cfg.Security.EnableAuth {
		demoUser, err := seedDemoUser(context.Background(), plannerService, cfg.Security.DemoUser)
		if err != nil {
			slog.Error("Failed to seed demo user", "error", err)
			os.Exit(1)
		}
		routeOpts = append(routeOpts, api.WithDemoUser(demoUser))
	}

	// Initialize rate limiters if enabled
	if cfg.Security.RateLimit.Enabled {
		rlCfg := cfg.Security.RateLimit

		chatLimiter, stopChat, err := newLimiter(models.PolicyChat, rlCfg.Chat, rlCfg.CleanupInterval, cfg.Metrics.Enabled)
		if err != nil {
			slog.Error("Failed to create rate limiter", "policy", models.PolicyChat, "error", err)
			os.Exit(1)
		}
		defer stopChat()

		searchLimiter, stopSearch, err := newLimiter(models.PolicySearch, rlCfg.Search, rlCfg.CleanupInterval, cfg.Metrics.Enabled)
		if err != nil {
			slog.Error("Failed to create rate limiter", "policy", models.PolicySearch, "error", err)
			os.Exit(1)
		}
		defer stopSearch()

		routeOpts = append(routeOpts,
			api.WithChatLimiter(chatLimiter),
			api.WithSearchLimiter(searchLimiter),
		)
	}

	router := api.SetupRoutes(handlers, activeStorage, cfg, routeOpts...)

	// Start metrics server if enabled
	var metricsServer *observability.MetricsServer
	if cfg.Metrics.Enabled {
		metricsServer = observability.NewMetricsServer(cfg.Metrics, otelProvider)
		go func() {
			if err := metricsServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("Metrics server failed", "error", err)
			}
		}()
	}

	// Create HTTP server
	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	// Start server in a goroutine
	serverErr := make(chan error, 1)
	go func() {
		slog.Info("Starting server",
			"addr", server.Addr,
			"tls", cfg.Server.TLSEnabled,
			"storage", cfg.Storage.Type,
			"auth", cfg.Security.EnableAuth)

		var err error
		if cfg.Server.TLSEnabled {
			err = server.ListenAndServeTLS(cfg.Server.TLSCertFile, cfg.Server.TLSKeyFile)
		} else {
			err = server.ListenAndServe()
		}

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for an interrupt signal or a listener failure
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		slog.Info("Shutting down server", "signal", sig.String())
	case err := <-serverErr:
		slog.Error("Server failed", "error", err)
	}

	// Create a deadline to wait for shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if metricsServer != nil {
		if err := metricsServer.Shutdown(ctx); err != nil {
			slog.Error("Metrics server forced to shutdown", "error", err)
		}
	}

	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	slog.Info("Server shutdown complete")
}

// seedDemoUser returns the user requests run as when auth is disabled,
// creating it on first start.
func seedDemoUser(ctx context.Context, svc planner.ServiceInterface, demo models.DemoUserConfig) (*models.User, error) {
	user, err := svc.EnsureUser(ctx, demo.Email, demo.Name)
	if err != nil {
		return nil, fmt.Errorf("ensure demo user %s: %w", demo.Email, err)
	}
	slog.Info("Authentication disabled; requests run as demo user", "user_id", user.ID, "email", user.Email)
	return user, nil
}

// newLimiter builds a started fixed-window limiter for one policy. The
// returned stop function halts its sweeper and releases its metrics.
func newLimiter(name string, policy models.RateLimitPolicyConfig, cleanup time.Duration, instrument bool) (ratelimit.Limiter, func(), error) {
	fw := ratelimit.NewFixedWindow(ratelimit.Policy{
		Name:        name,
		Window:      policy.Window,
		MaxRequests: policy.MaxRequests,
	}, ratelimit.WithCleanupInterval(cleanup))
	fw.Start()

	if !instrument {
		return fw, fw.Stop, nil
	}

	instrumented, err := observability.NewInstrumentedLimiter(fw)
	if err != nil {
		fw.Stop()
		return nil, nil, err
	}
	return instrumented, func() {
		_ = instrumented.Close()
		fw.Stop()
	}, nil
}
