package models

import "time"

// RefreshToken is the session credential bound to a user. Only the digest
// of the opaque token is persisted. A zero Expires means no expiry.
type RefreshToken struct {
	UserID    string
	Email     string
	TokenHash string
	Expires   time.Time
}

// Expired reports whether the credential is no longer usable at now.
func (t *RefreshToken) Expired(now time.Time) bool {
	return !t.Expires.IsZero() && !now.Before(t.Expires)
}
