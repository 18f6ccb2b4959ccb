package memory

import (
	"context"

	"github.com/dmitrijs2005/grammarcheck/internal/common"
	"github.com/dmitrijs2005/grammarcheck/internal/server/models"
)

// UsersRepository implements users.Repository on a Store.
type UsersRepository struct {
	s *Store
}

func NewUsersRepository(s *Store) *UsersRepository {
	return &UsersRepository{s: s}
}

func (r *UsersRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.byEmail[user.Email]; ok {
		return nil, common.ErrorAlreadyExists
	}

	now := r.s.now()
	user.ID = newID()
	user.CreatedAt = now
	user.UpdatedAt = now

	r.s.byID[user.ID] = &userRow{user: *user}
	r.s.byEmail[user.Email] = user.ID

	return user, nil
}

func (r *UsersRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	id, ok := r.s.byEmail[email]
	if !ok {
		return nil, common.ErrorNotFound
	}
	u := r.s.byID[id].user
	return &u, nil
}

func (r *UsersRepository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	row, ok := r.s.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	u := row.user
	return &u, nil
}

func (r *UsersRepository) UpdatePassword(ctx context.Context, userID string, passwordHash string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	row, ok := r.s.byID[userID]
	if !ok {
		return common.ErrorNotFound
	}
	row.user.PasswordHash = passwordHash
	row.user.UpdatedAt = r.s.now()
	return nil
}

func (r *UsersRepository) SetAccessToken(ctx context.Context, userID string, accessToken string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	row, ok := r.s.byID[userID]
	if !ok {
		return common.ErrorNotFound
	}
	row.user.AccessToken = accessToken
	return nil
}
