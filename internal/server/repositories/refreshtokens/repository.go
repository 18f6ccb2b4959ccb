// Package refreshtokens declares the server-side repository contract for
// the session credential (refresh token or API key) stored on a user row.
package refreshtokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/grammarcheck/internal/server/models"
)

// Repository issues, resolves and revokes session credentials. Tokens are
// addressed by their digest only; the plain value is never stored.
type Repository interface {
	// Set replaces the user's credential in a single statement, invalidating
	// any previous one. A zero expiresAt stores no expiry.
	Set(ctx context.Context, userID string, tokenHash string, expiresAt time.Time) error

	// Find resolves a credential digest. Unknown digests yield
	// common.ErrorNotFound.
	Find(ctx context.Context, tokenHash string) (*models.RefreshToken, error)

	// Delete clears the credential matching tokenHash. Unknown digests are
	// not an error.
	Delete(ctx context.Context, tokenHash string) error

	// DeleteForUser clears whatever credential userID holds.
	DeleteForUser(ctx context.Context, userID string) error
}
