package users

import (
	"context"

	"github.com/dmitrijs2005/grammarcheck/internal/server/models"
)

// Repository persists user accounts.
type Repository interface {
	// Create inserts user and fills in the generated id and timestamps.
	// A duplicate email yields common.ErrorAlreadyExists.
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	UpdatePassword(ctx context.Context, userID string, passwordHash string) error
	// SetAccessToken mirrors the last issued access token onto the row.
	SetAccessToken(ctx context.Context, userID string, accessToken string) error
}
