package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/dmitrijs2005/grammarcheck/internal/flagx"
)

// parseEnv overlays Config with process environment variables. A dotenv file
// (the -env-file flag, or ./.env when present) is loaded first; variables
// already set in the environment win over the file.
//
// Recognised variables: APP_ENV, LOG_LEVEL, HTTP_ADDR, DATABASE_DSN,
// SECRET_KEY, ACCESS_TOKEN_TTL, REFRESH_TOKEN_TTL, CREDENTIAL_STRATEGY,
// LLM_DIALECT, LLM_BASE_URL, LLM_MODEL, GEMINI_API_KEY, REDIS_ADDR,
// RENDER_HTML_BREAKS, OTEL_EXPORTER_OTLP_ENDPOINT, TRUSTED_PROXIES,
// CORS_ALLOWED_ORIGINS. List variables are comma separated.
//
// Malformed values panic, like the other startup parsers.
func parseEnv(config *Config) {
	envFile := flagx.EnvFileFlags()
	if envFile == "" {
		if _, err := os.Stat(".env"); err == nil {
			envFile = ".env"
		}
	}
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			panic(err)
		}
	}

	setString(&config.Env, "APP_ENV")
	setString(&config.LogLevel, "LOG_LEVEL")
	setString(&config.EndpointAddrHTTP, "HTTP_ADDR")
	setString(&config.DatabaseDSN, "DATABASE_DSN")
	setString(&config.SecretKey, "SECRET_KEY")
	setDuration(&config.AccessTokenValidityDuration, "ACCESS_TOKEN_TTL")
	setDuration(&config.RefreshTokenValidityDuration, "REFRESH_TOKEN_TTL")
	setString(&config.CredentialStrategy, "CREDENTIAL_STRATEGY")
	setString(&config.GeneratorDialect, "LLM_DIALECT")
	setString(&config.GeneratorBaseURL, "LLM_BASE_URL")
	setString(&config.GeneratorModel, "LLM_MODEL")
	setString(&config.GeneratorAPIKey, "GEMINI_API_KEY")
	setString(&config.RedisAddr, "REDIS_ADDR")
	setBool(&config.RenderHTMLBreaks, "RENDER_HTML_BREAKS")
	setString(&config.TraceEndpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
	setList(&config.TrustedProxies, "TRUSTED_PROXIES")
	setList(&config.CORSAllowedOrigins, "CORS_ALLOWED_ORIGINS")
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = v
	}
}

func setDuration(dst *time.Duration, key string) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		panic(err)
	}
	*dst = d
}

func setBool(dst *bool, key string) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		panic(err)
	}
	*dst = b
}

func setList(dst *[]string, key string) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return
	}
	var items []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	*dst = items
}
