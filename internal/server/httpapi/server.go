// Package httpapi exposes the account and text endpoints over HTTP/JSON
// using gin.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dmitrijs2005/grammarcheck/internal/logging"
	"github.com/dmitrijs2005/grammarcheck/internal/server/config"
	"github.com/dmitrijs2005/grammarcheck/internal/server/ratelimit"
	"github.com/dmitrijs2005/grammarcheck/internal/server/services"
	"github.com/dmitrijs2005/grammarcheck/internal/server/tracing"
	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
)

// Options configures a Server. Sessions and Grammar are required.
type Options struct {
	Address         string
	ServiceName     string
	MetricsPath     string
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
	// TrustedProxies lists proxy addresses or CIDRs whose forwarding
	// headers decide the client IP. Empty uses the peer address only.
	TrustedProxies  []string

	Logger   logging.Logger
	Sessions *services.SessionService
	Grammar  *services.GrammarService
	Limiter  ratelimit.Limiter
	Health   *Health
	Metrics  *Metrics

	// Now drives the rate limiter; defaults to time.Now.
	Now func() time.Time
}

type Server struct {
	address         string
	serviceName     string
	metricsPath     string
	shutdownTimeout time.Duration
	allowedOrigins  []string
	trustedProxies  []string

	logger   logging.Logger
	sessions *services.SessionService
	grammar  *services.GrammarService
	limiter  ratelimit.Limiter
	health   *Health
	metrics  *Metrics
	now      func() time.Time

	engine *gin.Engine
}

func NewServer(o Options) (*Server, error) {
	if o.Sessions == nil || o.Grammar == nil {
		return nil, errors.New("httpapi: sessions and grammar services are required")
	}

	s := &Server{
		address:         o.Address,
		serviceName:     o.ServiceName,
		metricsPath:     o.MetricsPath,
		shutdownTimeout: o.ShutdownTimeout,
		allowedOrigins:  o.AllowedOrigins,
		trustedProxies:  o.TrustedProxies,
		logger:          o.Logger,
		sessions:        o.Sessions,
		grammar:         o.Grammar,
		limiter:         o.Limiter,
		health:          o.Health,
		metrics:         o.Metrics,
		now:             o.Now,
	}

	if s.logger == nil {
		s.logger = logging.Nop{}
	}
	s.logger = s.logger.With("module", "http_server")
	if s.serviceName == "" {
		s.serviceName = "grammarcheck"
	}
	if s.metricsPath == "" {
		s.metricsPath = "/metrics"
	}
	if s.shutdownTimeout <= 0 {
		s.shutdownTimeout = 10 * time.Second
	}
	if len(s.allowedOrigins) == 0 {
		s.allowedOrigins = []string{"*"}
	}
	if s.health == nil {
		s.health = NewHealth(nil, true)
	}
	if s.metrics == nil {
		s.metrics = NewMetrics()
	}
	if s.now == nil {
		s.now = time.Now
	}

	engine, err := s.buildEngine()
	if err != nil {
		return nil, err
	}
	s.engine = engine
	return s, nil
}

// Handler returns the configured gin engine.
func (s *Server) Handler() *gin.Engine {
	return s.engine
}

func (s *Server) buildEngine() (*gin.Engine, error) {
	useDefaultValidator()

	r := gin.New()
	if err := r.SetTrustedProxies(s.trustedProxies); err != nil {
		return nil, fmt.Errorf("httpapi: trusted proxies: %w", err)
	}
	r.Use(
		requestid.New(),
		s.requestLogger(),
		s.metrics.middleware(),
		tracing.Middleware(s.serviceName),
		s.recovery(),
		cors(s.allowedOrigins),
		gzip.Gzip(gzip.DefaultCompression),
	)

	r.GET("/healthz", s.health.liveness)
	r.GET("/readyz", s.health.readiness)
	r.GET(s.metricsPath, gin.WrapH(s.metrics.handler()))

	limited := s.rateLimit()
	r.POST("/register", limited, s.register)
	r.POST("/login", limited, s.login)
	r.POST("/refresh-token", s.refreshToken)
	r.POST("/logout", s.logout)
	r.POST("/change-password", s.changePassword)

	authed := r.Group("/", s.bearerAuth())
	authed.POST("/check-grammar", s.checkGrammar)
	authed.POST("/grammar-check", s.checkGrammar)
	authed.POST("/suggest-improvement", s.suggestImprovement)

	if s.sessions.Strategy() == config.StrategyAPIKey {
		keyed := r.Group("/g/:api_key", s.apiKeyAuth())
		keyed.POST("", s.checkGrammar)
		keyed.POST("/suggest-improvement", s.suggestImprovement)
	}

	return r, nil
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.address,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info(ctx, "Stopping HTTP server...")
	s.health.SetReady(false)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
