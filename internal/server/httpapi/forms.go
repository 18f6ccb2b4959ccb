package httpapi

import (
	"errors"

	"github.com/dmitrijs2005/grammarcheck/internal/common"
	"github.com/dmitrijs2005/grammarcheck/internal/server/config"
	"github.com/go-playground/validator/v10"
)

type registerForm struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// loginForm carries no required tags: missing fields fail as bad
// credentials, not as a malformed request.
type loginForm struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// sessionTokenForm accepts either credential key. Which one counts depends
// on the configured strategy.
type sessionTokenForm struct {
	RefreshToken string `json:"refresh_token" form:"refresh_token"`
	APIKey       string `json:"api_key" form:"api_key"`
}

func (f sessionTokenForm) token(strategy string) string {
	if strategy == config.StrategyAPIKey {
		return f.APIKey
	}
	return f.RefreshToken
}

type changePasswordForm struct {
	Email           string `json:"email" form:"email" binding:"required"`
	OldPassword     string `json:"old_password" form:"old_password"`
	NewPassword     string `json:"new_password" form:"new_password"`
	ConfirmPassword string `json:"confirm_password" form:"confirm_password"`
}

type textForm struct {
	Text string `json:"text"`
}

// bindError turns a binding failure into the error the client sees:
// validation failures are invalid input described by reason, everything
// else a bad body.
func bindError(err error, reason string) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		if reason == "" {
			return common.ErrorInvalidInput
		}
		return common.InvalidInput(reason)
	}
	return errBadBody
}
