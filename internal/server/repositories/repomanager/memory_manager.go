package repomanager

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/grammarcheck/internal/dbx"
	"github.com/dmitrijs2005/grammarcheck/internal/server/repositories/memory"
	"github.com/dmitrijs2005/grammarcheck/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/grammarcheck/internal/server/repositories/users"
)

// MemoryRepositoryManager serves every repository from one memory.Store.
// The db arguments are ignored. Transactions are serialized but never
// rolled back: the memory repositories only fail on lookups, before any
// write of a service operation happens.
type MemoryRepositoryManager struct {
	store *memory.Store
	txMu  sync.Mutex
}

// NewMemoryRepositoryManager builds a manager over a fresh store. A nil now
// uses time.Now.
func NewMemoryRepositoryManager(now func() time.Time) *MemoryRepositoryManager {
	return &MemoryRepositoryManager{store: memory.NewStore(now)}
}

func (m *MemoryRepositoryManager) Users(dbx.DBTX) users.Repository {
	return memory.NewUsersRepository(m.store)
}

func (m *MemoryRepositoryManager) RefreshTokens(dbx.DBTX) refreshtokens.Repository {
	return memory.NewRefreshTokensRepository(m.store)
}

func (m *MemoryRepositoryManager) Conn() dbx.DBTX { return nil }

func (m *MemoryRepositoryManager) WithTx(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()
	return fn(ctx, nil)
}

func (m *MemoryRepositoryManager) RunMigrations(context.Context) error { return nil }
func (m *MemoryRepositoryManager) Ping(context.Context) error          { return nil }
func (m *MemoryRepositoryManager) Close() error                        { return nil }
