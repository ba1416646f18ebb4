// Package state persists dashboard snapshots so the service can serve the
// most recent successful payload when a fresh build is not possible.
package state

import (
	"context"
	"errors"
	"time"

	"github.com/gramboard/instagram-insights/model"
)

// ErrNoSnapshot is returned by Latest when no snapshot has been stored for
// the account yet.
var ErrNoSnapshot = errors.New("no snapshot available")

// Snapshot is one stored dashboard payload.
type Snapshot struct {
	ID        string                  `json:"id"`
	AccountID string                  `json:"accountId"`
	CreatedAt time.Time               `json:"createdAt"`
	Payload   *model.DashboardPayload `json:"payload"`
}

// SnapshotInfo is the listing view of a snapshot, without the payload.
type SnapshotInfo struct {
	ID        string    `json:"id"`
	AccountID string    `json:"accountId"`
	CreatedAt time.Time `json:"createdAt"`
}

// SnapshotStore stores and retrieves dashboard snapshots regardless of the
// underlying storage implementation.
type SnapshotStore interface {
	// Save persists a snapshot and marks it as the account's latest.
	Save(ctx context.Context, snapshot *Snapshot) error

	// Latest returns the most recent snapshot for the account, or
	// ErrNoSnapshot when none exists.
	Latest(ctx context.Context, accountID string) (*Snapshot, error)

	// List returns the stored snapshots for the account, newest first.
	List(ctx context.Context, accountID string) ([]SnapshotInfo, error)

	// Close releases the store's resources.
	Close() error
}

// StoreFactory creates the appropriate snapshot store implementation.
type StoreFactory interface {
	Create(config Config) (SnapshotStore, error)
}

// Config contains common configuration for all store implementations.
type Config struct {
	// Base storage location for the local provider.
	StorageRoot string

	// Specific configuration options for different backends.
	DaprConfig  *DaprConfig
	LocalConfig *LocalConfig
}

// DaprConfig contains Dapr-specific configuration.
type DaprConfig struct {
	StateStoreName string
}

// LocalConfig contains local filesystem-specific configuration.
type LocalConfig struct {
	BasePath string
}
