package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/grammarcheck/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-d string   PostgreSQL DSN
//	-s string   JWT HMAC secret key
//	-t int      access token validity, minutes
//	-r int      refresh token validity, minutes
//	-m string   credential strategy (refresh_token | api_key)
//	-l string   log level
//	-g string   generator dialect (gemini | ollama)
//	-u string   generator base URL
//	-k string   generator model
//	-x string   redis address for rate limiting
//
// Duration flags are accepted as integers in minutes.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-s", "-t", "-r", "-m", "-l", "-g", "-u", "-k", "-x"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	accessTokenValidityDuration := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access_token_validity_duration (in minutes)")
	refreshTokenValidityDuration := fs.Int("r", int(config.RefreshTokenValidityDuration.Minutes()), "refresh_token_validity_duration (in minutes)")

	fs.StringVar(&config.CredentialStrategy, "m", config.CredentialStrategy, "credential strategy")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	fs.StringVar(&config.GeneratorDialect, "g", config.GeneratorDialect, "generator dialect")
	fs.StringVar(&config.GeneratorBaseURL, "u", config.GeneratorBaseURL, "generator base URL")
	fs.StringVar(&config.GeneratorModel, "k", config.GeneratorModel, "generator model")
	fs.StringVar(&config.RedisAddr, "x", config.RedisAddr, "redis address")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.AccessTokenValidityDuration = time.Duration(*accessTokenValidityDuration) * time.Minute
	config.RefreshTokenValidityDuration = time.Duration(*refreshTokenValidityDuration) * time.Minute
}
