package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/grammarcheck/internal/flagx"
	"github.com/dmitrijs2005/grammarcheck/internal/timex"
)

// JsonConfig defines a configuration structure tailored for JSON unmarshalling.
// Durations use timex.Duration so both "15m" and integer nanoseconds parse.
// Pointer fields distinguish "absent" from a zero value, so a partial file
// only overrides what it names.
type JsonConfig struct {
	Env                          *string         `json:"env"`
	LogLevel                     *string         `json:"log_level"`
	EndpointAddrHTTP             *string         `json:"endpoint_addr_http"`
	DatabaseDSN                  *string         `json:"database_dsn"`
	SecretKey                    *string         `json:"secret_key"`
	AccessTokenValidityDuration  *timex.Duration `json:"access_token_validity_duration"`
	RefreshTokenValidityDuration *timex.Duration `json:"refresh_token_validity_duration"`
	CredentialStrategy           *string         `json:"credential_strategy"`
	BcryptCost                   *int            `json:"bcrypt_cost"`
	GeneratorDialect             *string         `json:"generator_dialect"`
	GeneratorBaseURL             *string         `json:"generator_base_url"`
	GeneratorModel               *string         `json:"generator_model"`
	UpstreamTimeout              *timex.Duration `json:"upstream_timeout"`
	UpstreamMaxAttempts          *int            `json:"upstream_max_attempts"`
	RedisAddr                    *string         `json:"redis_addr"`
	LoginRateLimit               *int            `json:"login_rate_limit"`
	LoginRateWindow              *timex.Duration `json:"login_rate_window"`
	RenderHTMLBreaks             *bool           `json:"render_html_breaks"`
	MetricsPath                  *string         `json:"metrics_path"`
	TraceEndpoint                *string         `json:"trace_endpoint"`
	ShutdownTimeout              *timex.Duration `json:"shutdown_timeout"`
	TrustedProxies               *[]string       `json:"trusted_proxies"`
	CORSAllowedOrigins           *[]string       `json:"cors_allowed_origins"`
}

// parseJson loads configuration values from the JSON file named by the -c or
// -config flag into config. Without the flag nothing is loaded. Unreadable
// files and invalid JSON panic.
//
// The language model API key is read from the environment only.
func parseJson(config *Config) {

	// try flags
	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	overlay(&config.Env, c.Env)
	overlay(&config.LogLevel, c.LogLevel)
	overlay(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	overlay(&config.DatabaseDSN, c.DatabaseDSN)
	overlay(&config.SecretKey, c.SecretKey)
	overlayDuration(&config.AccessTokenValidityDuration, c.AccessTokenValidityDuration)
	overlayDuration(&config.RefreshTokenValidityDuration, c.RefreshTokenValidityDuration)
	overlay(&config.CredentialStrategy, c.CredentialStrategy)
	overlay(&config.BcryptCost, c.BcryptCost)
	overlay(&config.GeneratorDialect, c.GeneratorDialect)
	overlay(&config.GeneratorBaseURL, c.GeneratorBaseURL)
	overlay(&config.GeneratorModel, c.GeneratorModel)
	overlayDuration(&config.UpstreamTimeout, c.UpstreamTimeout)
	overlay(&config.UpstreamMaxAttempts, c.UpstreamMaxAttempts)
	overlay(&config.RedisAddr, c.RedisAddr)
	overlay(&config.LoginRateLimit, c.LoginRateLimit)
	overlayDuration(&config.LoginRateWindow, c.LoginRateWindow)
	overlay(&config.RenderHTMLBreaks, c.RenderHTMLBreaks)
	overlay(&config.MetricsPath, c.MetricsPath)
	overlay(&config.TraceEndpoint, c.TraceEndpoint)
	overlayDuration(&config.ShutdownTimeout, c.ShutdownTimeout)
	overlay(&config.TrustedProxies, c.TrustedProxies)
	overlay(&config.CORSAllowedOrigins, c.CORSAllowedOrigins)
}

func overlay[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

func overlayDuration(dst *time.Duration, src *timex.Duration) {
	if src != nil {
		*dst = src.Duration
	}
}
