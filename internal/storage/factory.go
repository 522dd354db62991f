package storage

import (
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/chatprobe/internal/common"
	"github.com/ternarybob/chatprobe/internal/interfaces"
	"github.com/ternarybob/chatprobe/internal/storage/badger"
)

// NewRunStorage opens run history storage. It returns nil when history is
// disabled; callers treat a nil store as "do not persist".
func NewRunStorage(logger arbor.ILogger, config *common.Config) (interfaces.RunStorage, error) {
	if !config.Storage.Enabled {
		return nil, nil
	}
	store, err := badger.OpenRunStorage(logger, &config.Storage.Badger)
	if err != nil {
		return nil, err
	}
	return store, nil
}
