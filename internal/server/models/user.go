package models

import "time"

// User is an account row. PasswordHash is a bcrypt hash; AccessToken mirrors
// the last issued access token and is never used to authenticate.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	AccessToken  string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
