package refreshtokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/grammarcheck/internal/common"
	"github.com/dmitrijs2005/grammarcheck/internal/dbx"
	"github.com/dmitrijs2005/grammarcheck/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Set(ctx context.Context, userID string, tokenHash string, expiresAt time.Time) error {

	query :=
		`UPDATE users SET refresh_token_hash = $2, refresh_token_expires_at = $3
		 WHERE id = $1
		 `

	expires := sql.NullTime{Time: expiresAt, Valid: !expiresAt.IsZero()}

	res, err := r.db.ExecContext(ctx, query, userID, tokenHash, expires)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}

	return nil
}

func (r *PostgresRepository) Find(ctx context.Context, tokenHash string) (*models.RefreshToken, error) {
	query :=
		`SELECT id, email, refresh_token_hash, refresh_token_expires_at FROM users
		 WHERE refresh_token_hash = $1
		 `

	token := &models.RefreshToken{}
	var expires sql.NullTime

	err := r.db.QueryRowContext(ctx, query, tokenHash).Scan(&token.UserID, &token.Email, &token.TokenHash, &expires)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	if expires.Valid {
		token.Expires = expires.Time
	}

	return token, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, tokenHash string) error {
	query :=
		`UPDATE users SET refresh_token_hash = NULL, refresh_token_expires_at = NULL
		 WHERE refresh_token_hash = $1
		 `

	if _, err := r.db.ExecContext(ctx, query, tokenHash); err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (r *PostgresRepository) DeleteForUser(ctx context.Context, userID string) error {
	query :=
		`UPDATE users SET refresh_token_hash = NULL, refresh_token_expires_at = NULL
		 WHERE id = $1
		 `

	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}
