package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrijs2005/grammarcheck/internal/common"
)

// HashPassword returns a salted bcrypt hash of password. A cost outside
// bcrypt's range falls back to bcrypt.DefaultCost. Passwords longer than
// 72 bytes cannot be hashed by bcrypt and are rejected as invalid input.
func HashPassword(password string, cost int) (string, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", common.InvalidInput("password is longer than 72 bytes")
		}
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword reports whether password matches hash.
// Malformed hashes never match.
func VerifyPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
