package scheduler

import (
	"context"

	"github.com/MrSnakeDoc/hostwatch/internal/index"
	"github.com/MrSnakeDoc/hostwatch/internal/logger"
)

// RedisSyncer warms the memory index from the persisted state on startup,
// so the snapshot endpoint answers before the first discovery round.
type RedisSyncer struct {
	store  ServiceStore
	index  *index.MemoryIndex
	logger logger.Logger
}

func NewRedisSyncer(store ServiceStore, idx *index.MemoryIndex, log logger.Logger) *RedisSyncer {
	return &RedisSyncer{
		store:  store,
		index:  idx,
		logger: log,
	}
}

// Sync loads the stored services into the index. An empty store leaves the
// index untouched.
func (rs *RedisSyncer) Sync(ctx context.Context) error {
	services, err := rs.store.GetAllServices(ctx)
	if err != nil {
		return err
	}

	if len(services) == 0 {
		rs.logger.Info("no services found in redis")
		return nil
	}

	rs.index.UpdateServices(services)

	rs.logger.Info("synced services from redis",
		logger.Int("count", len(services)))

	return nil
}
