// Package server wires configuration, storage, the language model client and
// the HTTP transport into a runnable application and handles graceful
// shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmitrijs2005/grammarcheck/internal/logging"
	"github.com/dmitrijs2005/grammarcheck/internal/server/config"
	"github.com/dmitrijs2005/grammarcheck/internal/server/generator"
	"github.com/dmitrijs2005/grammarcheck/internal/server/httpapi"
	"github.com/dmitrijs2005/grammarcheck/internal/server/ratelimit"
	"github.com/dmitrijs2005/grammarcheck/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/grammarcheck/internal/server/services"
	"github.com/dmitrijs2005/grammarcheck/internal/server/tracing"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const serviceName = "grammarcheck"

type App struct {
	config      *config.Config
	logger      logging.Logger
	repomanager repomanager.RepositoryManager
	health      *httpapi.Health
	httpServer  *httpapi.Server

	closers []func(context.Context) error
}

// NewApp builds every dependency from c. On error, anything opened so far is
// closed again.
func NewApp(ctx context.Context, c *config.Config, out io.Writer) (app *App, err error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logger := logging.New(out, c.LogLevel, c.Env)
	if c.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	app = &App{config: c, logger: logger}
	defer func() {
		if err != nil {
			app.close(context.Background())
		}
	}()

	shutdownTracer, err := tracing.Init(ctx, serviceName, c.Env, c.TraceEndpoint)
	if err != nil {
		return nil, fmt.Errorf("tracer init error: %w", err)
	}
	app.closers = append(app.closers, shutdownTracer)

	rm, err := app.openStore(ctx)
	if err != nil {
		return nil, err
	}
	app.repomanager = rm
	app.closers = append(app.closers, func(context.Context) error { return rm.Close() })

	limiter := app.newLimiter()

	gen, err := generator.New(c.GeneratorDialect, generator.Config{
		BaseURL:     c.GeneratorBaseURL,
		Model:       c.GeneratorModel,
		APIKey:      c.GeneratorAPIKey,
		Timeout:     c.UpstreamTimeout,
		MaxAttempts: c.UpstreamMaxAttempts,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("generator init error: %w", err)
	}
	if c.GeneratorAPIKey == "" {
		logger.Warn(ctx, "language model API key is empty", "dialect", c.GeneratorDialect)
	}

	app.health = httpapi.NewHealth(rm, false)
	app.httpServer, err = httpapi.NewServer(httpapi.Options{
		Address:         c.EndpointAddrHTTP,
		ServiceName:     serviceName,
		MetricsPath:     c.MetricsPath,
		ShutdownTimeout: c.ShutdownTimeout,
		AllowedOrigins:  c.CORSAllowedOrigins,
		TrustedProxies:  c.TrustedProxies,
		Logger:          logger,
		Sessions:        services.NewSessionService(rm, c, logger),
		Grammar:         services.NewGrammarService(gen, logger, c.RenderHTMLBreaks),
		Limiter:         limiter,
		Health:          app.health,
	})
	if err != nil {
		return nil, err
	}

	return app, nil
}

// openStore picks PostgreSQL when a DSN is configured and the in-memory
// store otherwise.
func (app *App) openStore(ctx context.Context) (repomanager.RepositoryManager, error) {
	if app.config.DatabaseDSN == "" {
		app.logger.Warn(ctx, "DATABASE_DSN is empty, using in-memory store")
		return repomanager.NewMemoryRepositoryManager(time.Now), nil
	}

	rm, err := repomanager.OpenPostgres(ctx, app.config.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	if err := rm.RunMigrations(ctx); err != nil {
		_ = rm.Close()
		return nil, fmt.Errorf("db migration error: %w", err)
	}
	return rm, nil
}

func (app *App) newLimiter() ratelimit.Limiter {
	c := app.config
	if c.LoginRateLimit <= 0 {
		return nil
	}
	if c.RedisAddr == "" {
		return ratelimit.NewMemory(c.LoginRateLimit, c.LoginRateWindow)
	}

	client := redis.NewClient(&redis.Options{Addr: c.RedisAddr})
	app.closers = append(app.closers, func(context.Context) error { return client.Close() })
	return ratelimit.NewRedisLimiter(client, c.LoginRateLimit, c.LoginRateWindow, "")
}

// Run serves HTTP until a termination signal arrives or ctx is cancelled.
func (app *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	app.logger.Info(ctx, "Starting app...",
		"strategy", app.config.CredentialStrategy,
		"dialect", app.config.GeneratorDialect,
	)

	app.health.SetReady(true)

	runErr := app.httpServer.Run(ctx)
	if runErr != nil {
		app.logger.Error(ctx, "http server failed", "error", runErr)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), app.config.ShutdownTimeout)
	defer cancel()
	closeErr := app.close(shutdownCtx)

	app.logger.Info(ctx, "App stopped")
	return errors.Join(runErr, closeErr)
}

// close releases resources in reverse order of acquisition.
func (app *App) close(ctx context.Context) error {
	var errs []error
	for i := len(app.closers) - 1; i >= 0; i-- {
		if err := app.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	app.closers = nil
	return errors.Join(errs...)
}
