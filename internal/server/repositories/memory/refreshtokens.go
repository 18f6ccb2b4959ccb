package memory

import (
	"context"
	"time"

	"github.com/dmitrijs2005/grammarcheck/internal/common"
	"github.com/dmitrijs2005/grammarcheck/internal/server/models"
)

// RefreshTokensRepository implements refreshtokens.Repository on a Store.
type RefreshTokensRepository struct {
	s *Store
}

func NewRefreshTokensRepository(s *Store) *RefreshTokensRepository {
	return &RefreshTokensRepository{s: s}
}

func (r *RefreshTokensRepository) Set(ctx context.Context, userID string, tokenHash string, expiresAt time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	row, ok := r.s.byID[userID]
	if !ok {
		return common.ErrorNotFound
	}

	if owner, taken := r.s.byToken[tokenHash]; taken && owner != userID {
		return common.ErrorAlreadyExists
	}

	if row.refreshTokenHash != "" {
		delete(r.s.byToken, row.refreshTokenHash)
	}
	row.refreshTokenHash = tokenHash
	row.refreshExpires = expiresAt
	r.s.byToken[tokenHash] = userID

	return nil
}

func (r *RefreshTokensRepository) Find(ctx context.Context, tokenHash string) (*models.RefreshToken, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	id, ok := r.s.byToken[tokenHash]
	if !ok {
		return nil, common.ErrorNotFound
	}
	row := r.s.byID[id]

	return &models.RefreshToken{
		UserID:    id,
		Email:     row.user.Email,
		TokenHash: tokenHash,
		Expires:   row.refreshExpires,
	}, nil
}

func (r *RefreshTokensRepository) Delete(ctx context.Context, tokenHash string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	id, ok := r.s.byToken[tokenHash]
	if !ok {
		return nil
	}
	r.clear(id)
	return nil
}

func (r *RefreshTokensRepository) DeleteForUser(ctx context.Context, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.clear(userID)
	return nil
}

// clear expects the write lock to be held.
func (r *RefreshTokensRepository) clear(userID string) {
	row, ok := r.s.byID[userID]
	if !ok {
		return
	}
	if row.refreshTokenHash != "" {
		delete(r.s.byToken, row.refreshTokenHash)
	}
	row.refreshTokenHash = ""
	row.refreshExpires = time.Time{}
}
