// Package main is the entry point of the tenantgate API server.
//
// main wires the layers together:
//  1. Config and logger
//  2. Tracing
//  3. Tenant registry (one pooled client per tenant database)
//  4. Repositories, services, handlers
//  5. Middleware and routes
//  6. HTTP server with graceful shutdown
//
// There are no globals; everything is built here and passed down.
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

	"github.com/benbjohnson/clock"
	"github.com/rs/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/akinalp/tenantgate/config"
	"github.com/akinalp/tenantgate/database"
	"github.com/akinalp/tenantgate/middleware"
	"github.com/akinalp/tenantgate/pkg/logger"
	"github.com/akinalp/tenantgate/pkg/metrics"
	"github.com/akinalp/tenantgate/pkg/telemetry"
	"github.com/akinalp/tenantgate/tenant"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.App.LogLevel, cfg.App.IsProduction())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("server exited", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ─── Tracing ───
	shutdownTracing := telemetry.Setup(ctx, cfg.App.Name, cfg.Telemetry, log)

	app := newApp(cfg, log, clock.New())

	// ─── HTTP Server ───
	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           app.Handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening",
			zap.String("addr", cfg.Server.Addr()),
			zap.String("env", cfg.App.Env),
			zap.String("driver", cfg.Database.Driver),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		app.Close()
		return err
	case <-ctx.Done():
	}

	// ─── Graceful Shutdown ───
	// Stop accepting requests and drain in-flight ones before the tenant
	// pools are closed underneath them.
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("forced shutdown", zap.Error(err))
	}
	app.Close()
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Warn("tracer shutdown failed", zap.Error(err))
	}

	log.Info("server stopped gracefully")
	return nil
}

// App is the fully wired server.
type App struct {
	Handler  http.Handler
	Registry *tenant.Registry
	Services *Services

	limiters *RateLimiters
	log      *zap.Logger
}

func newApp(cfg *config.Config, log *zap.Logger, clk clock.Clock) *App {
	// ─── Tenant Registry ───
	dbOpts := database.Options{
		Driver:       cfg.Database.Driver,
		Host:         cfg.Database.Host,
		Port:         cfg.Database.Port,
		User:         cfg.Database.User,
		Password:     cfg.Database.Password,
		SSLMode:      cfg.Database.SSLMode,
		SQLiteDir:    cfg.Database.SQLiteDir,
		PoolMax:      cfg.Database.PoolMax,
		PoolMin:      cfg.Database.PoolMin,
		PoolIdle:     cfg.Database.PoolIdle,
		QueryTimeout: cfg.Database.QueryTimeout,
		AutoMigrate:  cfg.Database.AutoMigrate,
		Logger:       log,
	}
	registry := tenant.NewRegistry(func(ctx context.Context, name string) (*database.DB, error) {
		return database.Open(ctx, name, dbOpts)
	}, log, tenant.WithMaxTenants(cfg.Database.MaxTenants))

	// ─── Layers ───
	repos := initRepositories(registry, clk)
	svcs, limiters := initServices(repos, cfg, log, clk)
	h := initHandlers(svcs, limiters, registry.Len, log)

	// ─── Middleware ───
	tenantMw := middleware.NewTenantMiddleware(registry, cfg.Database.DefaultName, log)
	authMw := middleware.NewAuthMiddleware(svcs.Auth, log)
	m := metrics.New(registry.Len)

	// ─── Routes ───
	mux := http.NewServeMux()
	initRoutes(mux, h, tenantMw, authMw, m.Handler())

	// ─── CORS ───
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", tenant.Header},
		AllowCredentials: true,
	})

	handler := middleware.Chain(mux,
		middleware.Recover(log),
		middleware.Logging(log, m, limiters.ClientIP),
		corsHandler.Handler,
	)

	return &App{
		Handler:  otelhttp.NewHandler(handler, cfg.App.Name),
		Registry: registry,
		Services: svcs,
		limiters: limiters,
		log:      log,
	}
}

// Close releases the limiters and every tenant pool.
func (a *App) Close() {
	a.limiters.Login.Close()
	if err := a.Registry.Close(); err != nil {
		a.log.Error("failed to close tenant clients", zap.Error(err))
	}
}
