// Package config handles configuration for the server component,
// including defaults, environment, JSON overlay, and command-line flags.
package config

import (
	"errors"
	"fmt"
	"time"
)

// Credential strategies.
const (
	StrategyRefreshToken = "refresh_token"
	StrategyAPIKey       = "api_key"
)

// Config holds runtime settings for the grammarcheck server.
//
// Fields:
//   - EndpointAddrHTTP: bind address for the HTTP API.
//   - DatabaseDSN: PostgreSQL DSN (pgx). Empty selects the in-memory store.
//   - SecretKey: HMAC secret for signing JWTs (HS256).
//   - AccessTokenValidityDuration / RefreshTokenValidityDuration: token lifetimes.
//   - CredentialStrategy: "refresh_token" or "api_key".
//   - GeneratorDialect / GeneratorBaseURL / GeneratorModel / GeneratorAPIKey:
//     language model backend.
//   - RedisAddr: shared rate limiter backend; empty keeps limits in process.
//   - TrustedProxies: addresses or CIDRs whose X-Forwarded-For is honored
//     when resolving the client IP. Empty trusts no proxy.
//   - CORSAllowedOrigins: origins echoed in CORS responses. Empty allows any.
type Config struct {
	Env                          string
	LogLevel                     string
	EndpointAddrHTTP             string
	DatabaseDSN                  string
	SecretKey                    string
	AccessTokenValidityDuration  time.Duration
	RefreshTokenValidityDuration time.Duration
	CredentialStrategy           string
	BcryptCost                   int
	GeneratorDialect             string
	GeneratorBaseURL             string
	GeneratorModel               string
	GeneratorAPIKey              string
	UpstreamTimeout              time.Duration
	UpstreamMaxAttempts          int
	RedisAddr                    string
	LoginRateLimit               int
	LoginRateWindow              time.Duration
	RenderHTMLBreaks             bool
	MetricsPath                  string
	TraceEndpoint                string
	ShutdownTimeout              time.Duration
	TrustedProxies               []string
	CORSAllowedOrigins           []string
}

// LoadDefaults populates Config with development defaults.
// NOTE: SecretKey is insecure and Validate refuses it outside dev.
func (c *Config) LoadDefaults() {
	c.Env = "dev"
	c.LogLevel = "info"
	c.EndpointAddrHTTP = ":8080"
	c.DatabaseDSN = ""
	c.SecretKey = "secretKey"
	c.AccessTokenValidityDuration = 15 * time.Minute
	c.RefreshTokenValidityDuration = 7 * 24 * time.Hour
	c.CredentialStrategy = StrategyRefreshToken
	c.BcryptCost = 10
	c.GeneratorDialect = "gemini"
	c.GeneratorBaseURL = "https://generativelanguage.googleapis.com"
	c.GeneratorModel = "gemini-2.0-flash"
	c.UpstreamTimeout = 30 * time.Second
	c.UpstreamMaxAttempts = 3
	c.RedisAddr = ""
	c.LoginRateLimit = 10
	c.LoginRateWindow = time.Minute
	c.RenderHTMLBreaks = false
	c.MetricsPath = "/metrics"
	c.ShutdownTimeout = 10 * time.Second
}

// IsProduction reports whether Env names a production deployment.
func (c *Config) IsProduction() bool {
	return c.Env == "prod" || c.Env == "production"
}

// Validate reports settings the server cannot start with.
func (c *Config) Validate() error {
	var errs []error

	if c.SecretKey == "" {
		errs = append(errs, errors.New("secret key is empty"))
	}
	if c.Env != "dev" && c.SecretKey == "secretKey" {
		errs = append(errs, fmt.Errorf("default secret key used in %q environment", c.Env))
	}
	if c.CredentialStrategy != StrategyRefreshToken && c.CredentialStrategy != StrategyAPIKey {
		errs = append(errs, fmt.Errorf("unknown credential strategy %q", c.CredentialStrategy))
	}
	if c.AccessTokenValidityDuration <= 0 {
		errs = append(errs, errors.New("access token validity must be positive"))
	}
	if c.UpstreamMaxAttempts < 1 {
		errs = append(errs, errors.New("upstream max attempts must be at least 1"))
	}

	return errors.Join(errs...)
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from the environment (and an optional .env file), an optional JSON file
// and finally from command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
