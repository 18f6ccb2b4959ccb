// Package memory provides in-process implementations of the user and
// session-credential repositories. They back the server when no database
// DSN is configured and give tests the same uniqueness and overwrite
// guarantees the PostgreSQL schema enforces.
package memory

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/grammarcheck/internal/server/models"
)

type userRow struct {
	user             models.User
	refreshTokenHash string
	refreshExpires   time.Time
}

// Store holds all rows behind a single mutex.
type Store struct {
	mu      sync.RWMutex
	byID    map[string]*userRow
	byEmail map[string]string
	byToken map[string]string
	now     func() time.Time
}

// NewStore returns an empty store stamping rows with now.
func NewStore(now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{
		byID:    make(map[string]*userRow),
		byEmail: make(map[string]string),
		byToken: make(map[string]string),
		now:     now,
	}
}

func newID() string { return uuid.NewString() }
