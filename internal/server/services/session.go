// Package services contains server-side business logic. This file implements
// SessionService, which handles registration, login, password changes and
// the session credential (refresh token or API key) lifecycle, plus the
// bearer-token check used by the auth gate.
package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/grammarcheck/internal/common"
	"github.com/dmitrijs2005/grammarcheck/internal/dbx"
	"github.com/dmitrijs2005/grammarcheck/internal/logging"
	"github.com/dmitrijs2005/grammarcheck/internal/server/auth"
	"github.com/dmitrijs2005/grammarcheck/internal/server/config"
	"github.com/dmitrijs2005/grammarcheck/internal/server/models"
	"github.com/dmitrijs2005/grammarcheck/internal/server/repositories/repomanager"
)

// TokenPair bundles a short-lived access token and the session credential.
// SessionToken is empty for refresh responses; Email is set on login and
// refresh.
type TokenPair struct {
	AccessToken  string
	SessionToken string
	Email        string
}

// SessionService ties account and token operations together. It holds no
// per-request state and is safe for concurrent use.
type SessionService struct {
	repomanager                  repomanager.RepositoryManager
	logger                       logging.Logger
	jwtSecret                    []byte
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
	strategy                     string
	bcryptCost                   int
	now                          func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

// SessionOption customises a SessionService.
type SessionOption func(*SessionService)

// WithClock replaces time.Now, used for token issuance and expiry checks.
func WithClock(now func() time.Time) SessionOption {
	return func(s *SessionService) { s.now = now }
}

// NewSessionService constructs a SessionService using repositories and server config.
func NewSessionService(m repomanager.RepositoryManager, cfg *config.Config, l logging.Logger, opts ...SessionOption) *SessionService {
	s := &SessionService{
		repomanager:                  m,
		logger:                       l.With("module", "session_service"),
		jwtSecret:                    []byte(cfg.SecretKey),
		accessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
		strategy:                     cfg.CredentialStrategy,
		bcryptCost:                   cfg.BcryptCost,
		now:                          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Strategy reports which credential kind the service issues.
func (s *SessionService) Strategy() string { return s.strategy }

// Register creates the account and signs it in straight away.
func (s *SessionService) Register(ctx context.Context, email, password string) (*TokenPair, error) {
	if email == "" || password == "" {
		return nil, common.InvalidInput("missing email or password")
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		if errors.Is(err, common.ErrorInvalidInput) {
			return nil, err
		}
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	var (
		pair   *TokenPair
		userID string
	)
	err = s.repomanager.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		user, err := s.repomanager.Users(tx).Create(ctx, &models.User{Email: email, PasswordHash: hash})
		if err != nil {
			return err
		}
		userID = user.ID
		pair, err = s.issue(ctx, tx, user)
		return err
	})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("error registering user: %w", err)
	}

	s.logger.Info(ctx, "user registered", "user_id", userID, "strategy", s.strategy)
	return pair, nil
}

// Login verifies the password and issues a fresh token pair, replacing the
// previous session credential. Unknown emails and wrong passwords are
// indistinguishable to the caller.
func (s *SessionService) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	user, err := s.repomanager.Users(s.repomanager.Conn()).GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			auth.VerifyPassword(password, s.getDummyHash())
			return nil, common.ErrorUnauthorized
		}
		return nil, fmt.Errorf("error loading user: %w", err)
	}

	if !auth.VerifyPassword(password, user.PasswordHash) {
		return nil, common.ErrorUnauthorized
	}

	var pair *TokenPair
	err = s.repomanager.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		pair, err = s.issue(ctx, tx, user)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("error issuing tokens: %w", err)
	}

	pair.Email = user.Email
	return pair, nil
}

// RefreshAccessToken exchanges a live session credential for a new access
// token. The credential itself is not rotated.
func (s *SessionService) RefreshAccessToken(ctx context.Context, token string) (*TokenPair, error) {
	cred, err := s.findCredential(ctx, token)
	if err != nil {
		return nil, err
	}

	access, err := s.generateAccessToken(cred.UserID)
	if err != nil {
		return nil, err
	}

	if err := s.repomanager.Users(s.repomanager.Conn()).SetAccessToken(ctx, cred.UserID, access); err != nil {
		s.logger.Warn(ctx, "failed to mirror access token", "user_id", cred.UserID, "error", err)
	}

	return &TokenPair{AccessToken: access, Email: cred.Email}, nil
}

// Logout revokes the session credential. Unknown or already revoked
// credentials are not an error.
func (s *SessionService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.repomanager.RefreshTokens(s.repomanager.Conn()).Delete(ctx, common.HashToken(token)); err != nil {
		return fmt.Errorf("error revoking credential: %w", err)
	}
	return nil
}

// ChangePassword replaces the password after checking the old one and the
// confirmation. On success the session credential is revoked; access tokens
// already handed out stay valid until they expire.
func (s *SessionService) ChangePassword(ctx context.Context, email, oldPassword, newPassword, confirmPassword string) error {
	if email == "" {
		return common.InvalidInput("missing email")
	}

	user, err := s.repomanager.Users(s.repomanager.Conn()).GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorNotFound
		}
		return fmt.Errorf("error loading user: %w", err)
	}

	if !auth.VerifyPassword(oldPassword, user.PasswordHash) {
		return common.ErrorUnauthorized
	}
	if newPassword != confirmPassword {
		return common.ErrPasswordMismatch
	}
	if newPassword == "" {
		return common.InvalidInput("new password is empty")
	}

	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		if errors.Is(err, common.ErrorInvalidInput) {
			return err
		}
		return fmt.Errorf("error hashing password: %w", err)
	}

	err = s.repomanager.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Users(tx).UpdatePassword(ctx, user.ID, hash); err != nil {
			return err
		}
		return s.repomanager.RefreshTokens(tx).DeleteForUser(ctx, user.ID)
	})
	if err != nil {
		return fmt.Errorf("error changing password: %w", err)
	}

	s.logger.Info(ctx, "password changed", "user_id", user.ID)
	return nil
}

// Authenticate resolves a bearer access token to its user.
//
//   - bad signature, malformed token, unknown user: common.ErrInvalidToken
//   - valid signature, known user, past expiry:     common.ErrTokenExpired
func (s *SessionService) Authenticate(ctx context.Context, accessToken string) (*models.User, error) {
	claims, err := auth.ParseToken(accessToken, s.jwtSecret, s.now())
	if err != nil && !errors.Is(err, common.ErrTokenExpired) {
		return nil, common.ErrInvalidToken
	}
	expired := err != nil

	user, err := s.repomanager.Users(s.repomanager.Conn()).GetUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidToken
		}
		return nil, fmt.Errorf("error loading user: %w", err)
	}

	if expired {
		return nil, common.ErrTokenExpired
	}
	return user, nil
}

// AuthenticateAPIKey resolves a live API key (the session credential of the
// api_key strategy) to its user. Unknown or expired keys are unauthorized.
func (s *SessionService) AuthenticateAPIKey(ctx context.Context, key string) (*models.User, error) {
	cred, err := s.findCredential(ctx, key)
	if err != nil {
		return nil, err
	}

	user, err := s.repomanager.Users(s.repomanager.Conn()).GetUserByID(ctx, cred.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, fmt.Errorf("error loading user: %w", err)
	}
	return user, nil
}

// --- helpers below ---

func (s *SessionService) findCredential(ctx context.Context, token string) (*models.RefreshToken, error) {
	if token == "" {
		return nil, common.ErrorUnauthorized
	}

	cred, err := s.repomanager.RefreshTokens(s.repomanager.Conn()).Find(ctx, common.HashToken(token))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, fmt.Errorf("error searching credential: %w", err)
	}
	if cred.Expired(s.now()) {
		return nil, common.ErrorUnauthorized
	}
	return cred, nil
}

func (s *SessionService) generateAccessToken(userID string) (string, error) {
	token, err := auth.GenerateToken(userID, s.jwtSecret, s.accessTokenValidityDuration, s.now())
	if err != nil {
		return "", common.ErrorInternal
	}
	return token, nil
}

func (s *SessionService) generateSessionToken() (string, error) {
	token, err := common.MakeRandHexString(common.TokenSize)
	if err != nil {
		return "", common.ErrorInternal
	}
	return token, nil
}

// issue mints an access token and a new session credential for user and
// persists the credential digest, overwriting the previous one.
func (s *SessionService) issue(ctx context.Context, tx dbx.DBTX, user *models.User) (*TokenPair, error) {
	access, err := s.generateAccessToken(user.ID)
	if err != nil {
		return nil, err
	}
	session, err := s.generateSessionToken()
	if err != nil {
		return nil, err
	}

	var expires time.Time
	if s.refreshTokenValidityDuration > 0 {
		expires = s.now().Add(s.refreshTokenValidityDuration)
	}

	if err := s.repomanager.RefreshTokens(tx).Set(ctx, user.ID, common.HashToken(session), expires); err != nil {
		return nil, err
	}
	if err := s.repomanager.Users(tx).SetAccessToken(ctx, user.ID, access); err != nil {
		return nil, err
	}

	return &TokenPair{AccessToken: access, SessionToken: session}, nil
}

// getDummyHash lazily hashes a throwaway password so logins for unknown
// emails spend the same bcrypt time as real ones.
func (s *SessionService) getDummyHash() string {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = auth.HashPassword("grammarcheck-dummy", s.bcryptCost)
	})
	return s.dummyHash
}
