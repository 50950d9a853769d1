package session

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/leadkeeper/internal/client/models"
	"github.com/dmitrijs2005/leadkeeper/internal/client/repositories/metadata"
)

// SnapshotKey is the metadata key the session snapshot lives under.
const SnapshotKey = "auth-storage"

// SnapshotStore is the durable home of the session snapshot. Load returns
// (nil, nil) when nothing was saved yet.
type SnapshotStore interface {
	Load(ctx context.Context) (*models.Snapshot, error)
	Save(ctx context.Context, snap models.Snapshot) error
}

// MetadataSnapshotStore keeps the snapshot as a JSON blob in the metadata
// repository.
type MetadataSnapshotStore struct {
	repo metadata.Repository
}

// NewMetadataSnapshotStore constructs a SnapshotStore on repo.
func NewMetadataSnapshotStore(repo metadata.Repository) *MetadataSnapshotStore {
	return &MetadataSnapshotStore{repo: repo}
}

// Load returns the stored snapshot, or nil when there is none.
func (m *MetadataSnapshotStore) Load(ctx context.Context) (*models.Snapshot, error) {
	raw, err := m.repo.Get(ctx, SnapshotKey)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}

	var snap models.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("decode session snapshot: %w", err)
	}
	return &snap, nil
}

// Save replaces the stored snapshot.
func (m *MetadataSnapshotStore) Save(ctx context.Context, snap models.Snapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode session snapshot: %w", err)
	}
	return m.repo.Set(ctx, SnapshotKey, raw)
}
