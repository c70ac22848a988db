// Package snapshot describes persisted index snapshots and where they live.
package snapshot

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("snapshot not found")

// Snapshot is the metadata stored next to an encoded tree.
type Snapshot struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Dimension int       `json:"dimension"`
	Len       int       `json:"len"`
	Size      int       `json:"size"`
	CreatedAt time.Time `json:"createdAt"`
}

func New(name string, dim, n int) Snapshot {
	return Snapshot{
		ID:        uuid.New(),
		Name:      name,
		Dimension: dim,
		Len:       n,
		CreatedAt: time.Now().UTC(),
	}
}

// Store keeps one snapshot per index name; Save replaces the previous one.
// Save must not retain blob after it returns.
type Store interface {
	Save(ctx context.Context, meta Snapshot, blob []byte) (Snapshot, error)
	Load(ctx context.Context, name string) ([]byte, Snapshot, error)
	Names(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, name string) error
}
