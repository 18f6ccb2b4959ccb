package repomanager

import (
	"context"

	"github.com/dmitrijs2005/grammarcheck/internal/dbx"
	"github.com/dmitrijs2005/grammarcheck/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/grammarcheck/internal/server/repositories/users"
)

// RepositoryManager owns the storage handle and vends repositories bound to
// either the handle itself (Conn) or a transaction (WithTx).
type RepositoryManager interface {
	RunMigrations(ctx context.Context) error
	Conn() dbx.DBTX
	WithTx(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) error
	Ping(ctx context.Context) error
	Close() error

	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
}
