package state

import (
	"github.com/rs/zerolog/log"
)

// DefaultStoreFactory creates snapshot stores based on configuration.
// When Dapr configuration is present the Dapr state store is used,
// otherwise snapshots land on the local filesystem.
type DefaultStoreFactory struct{}

// NewStoreFactory creates a new store factory.
func NewStoreFactory() *DefaultStoreFactory {
	return &DefaultStoreFactory{}
}

// Create builds the snapshot store implementation selected by config.
func (f *DefaultStoreFactory) Create(config Config) (SnapshotStore, error) {
	if config.DaprConfig != nil {
		log.Info().Msg("Creating dapr snapshot store")
		return NewDaprSnapshotStore(config)
	}

	basePath := config.StorageRoot
	if config.LocalConfig != nil && config.LocalConfig.BasePath != "" {
		basePath = config.LocalConfig.BasePath
	}
	log.Info().Str("basePath", basePath).Msg("Creating local snapshot store")
	return NewLocalSnapshotStore(basePath)
}
