package memory

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/grammarcheck/internal/common"
	"github.com/dmitrijs2005/grammarcheck/internal/server/models"
)

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newRepos(t *testing.T) (*UsersRepository, *RefreshTokensRepository) {
	t.Helper()
	s := NewStore(func() time.Time { return fixedNow })
	return NewUsersRepository(s), NewRefreshTokensRepository(s)
}

func TestUsers_CreateAndGet(t *testing.T) {
	users, _ := newRepos(t)
	ctx := context.Background()

	u, err := users.Create(ctx, &models.User{Email: "a@x.com", PasswordHash: "h"})
	require.NoError(t, err)
	assert.NotEmpty(t, u.ID)
	assert.Equal(t, fixedNow, u.CreatedAt)

	byEmail, err := users.GetUserByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)

	byID, err := users.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", byID.Email)

	_, err = users.GetUserByEmail(ctx, "A@x.com")
	assert.ErrorIs(t, err, common.ErrorNotFound, "emails are case-sensitive as stored")

	_, err = users.GetUserByID(ctx, "missing")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestUsers_ReturnedCopiesAreDetached(t *testing.T) {
	users, _ := newRepos(t)
	ctx := context.Background()

	u, err := users.Create(ctx, &models.User{Email: "a@x.com", PasswordHash: "h"})
	require.NoError(t, err)

	got, err := users.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	got.PasswordHash = "mutated"

	again, err := users.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "h", again.PasswordHash)
}

func TestUsers_DuplicateEmailUnderConcurrency(t *testing.T) {
	users, _ := newRepos(t)
	ctx := context.Background()

	var ok, conflicts atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := users.Create(ctx, &models.User{Email: "race@x.com", PasswordHash: "h"})
			if err == nil {
				ok.Add(1)
				return
			}
			if errors.Is(err, common.ErrorAlreadyExists) {
				conflicts.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), ok.Load())
	assert.Equal(t, int32(31), conflicts.Load())
}

func TestUsers_UpdatePasswordAndAccessToken(t *testing.T) {
	users, _ := newRepos(t)
	ctx := context.Background()

	u, err := users.Create(ctx, &models.User{Email: "a@x.com", PasswordHash: "h"})
	require.NoError(t, err)

	require.NoError(t, users.UpdatePassword(ctx, u.ID, "h2"))
	require.NoError(t, users.SetAccessToken(ctx, u.ID, "jwt"))

	got, err := users.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "h2", got.PasswordHash)
	assert.Equal(t, "jwt", got.AccessToken)

	assert.ErrorIs(t, users.UpdatePassword(ctx, "ghost", "x"), common.ErrorNotFound)
	assert.ErrorIs(t, users.SetAccessToken(ctx, "ghost", "x"), common.ErrorNotFound)
}

func TestRefreshTokens_SetOverwritesPrevious(t *testing.T) {
	users, tokens := newRepos(t)
	ctx := context.Background()

	u, err := users.Create(ctx, &models.User{Email: "a@x.com", PasswordHash: "h"})
	require.NoError(t, err)

	exp := fixedNow.Add(time.Hour)
	require.NoError(t, tokens.Set(ctx, u.ID, "old", exp))
	require.NoError(t, tokens.Set(ctx, u.ID, "new", exp))

	_, err = tokens.Find(ctx, "old")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	got, err := tokens.Find(ctx, "new")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.UserID)
	assert.Equal(t, "a@x.com", got.Email)
	assert.Equal(t, exp, got.Expires)

	assert.ErrorIs(t, tokens.Set(ctx, "ghost", "x", exp), common.ErrorNotFound)
}

func TestRefreshTokens_DigestIsUniqueAcrossUsers(t *testing.T) {
	users, tokens := newRepos(t)
	ctx := context.Background()

	a, err := users.Create(ctx, &models.User{Email: "a@x.com"})
	require.NoError(t, err)
	b, err := users.Create(ctx, &models.User{Email: "b@x.com"})
	require.NoError(t, err)

	require.NoError(t, tokens.Set(ctx, a.ID, "same", time.Time{}))
	assert.ErrorIs(t, tokens.Set(ctx, b.ID, "same", time.Time{}), common.ErrorAlreadyExists)
}

func TestRefreshTokens_DeleteIsIdempotent(t *testing.T) {
	users, tokens := newRepos(t)
	ctx := context.Background()

	u, err := users.Create(ctx, &models.User{Email: "a@x.com"})
	require.NoError(t, err)
	require.NoError(t, tokens.Set(ctx, u.ID, "tok", time.Time{}))

	require.NoError(t, tokens.Delete(ctx, "tok"))
	require.NoError(t, tokens.Delete(ctx, "tok"))
	require.NoError(t, tokens.Delete(ctx, "never-issued"))

	_, err = tokens.Find(ctx, "tok")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestRefreshTokens_DeleteForUser(t *testing.T) {
	users, tokens := newRepos(t)
	ctx := context.Background()

	u, err := users.Create(ctx, &models.User{Email: "a@x.com"})
	require.NoError(t, err)
	require.NoError(t, tokens.Set(ctx, u.ID, "tok", time.Time{}))

	require.NoError(t, tokens.DeleteForUser(ctx, u.ID))
	require.NoError(t, tokens.DeleteForUser(ctx, "ghost"))

	_, err = tokens.Find(ctx, "tok")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}
