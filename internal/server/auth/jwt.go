package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dmitrijs2005/grammarcheck/internal/common"
)

// Claims holds the registered claims plus the user id duplicated into a
// custom claim. Subject and UserID always carry the same value.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
}

// GenerateToken signs an HS256 access token for userID, issued at now and
// expiring after validityDuration.
func GenerateToken(userID string, secretKey []byte, validityDuration time.Duration, now time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validityDuration)),
		},
		UserID: userID,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// ParseToken verifies the signature and expiry of tokenString as seen at now.
// Expiry is compared in whole epoch seconds: the token is live while
// now < exp. An expired token still yields its claims together with
// common.ErrTokenExpired, since the signature has been checked by then.
func ParseToken(tokenString string, secretKey []byte, now time.Time) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) && claims.UserID != "" {
			return claims, common.ErrTokenExpired
		}
		return nil, common.ErrInvalidToken
	}

	if !token.Valid || claims.UserID == "" || claims.Subject != claims.UserID {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}

// GetUserIDFromToken is ParseToken reduced to the user id.
func GetUserIDFromToken(tokenString string, secretKey []byte, now time.Time) (string, error) {
	claims, err := ParseToken(tokenString, secretKey, now)
	if err != nil {
		return "", err
	}
	return claims.UserID, nil
}
