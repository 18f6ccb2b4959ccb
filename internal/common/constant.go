package common

// AuthorizationHeaderName carries the bearer access token.
const AuthorizationHeaderName = "Authorization"

// BearerPrefix is the literal prefix expected in front of an access token.
const BearerPrefix = "Bearer "

// TokenSize is the number of random bytes in refresh tokens and API keys.
const TokenSize = 32
