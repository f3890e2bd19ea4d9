package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MrSnakeDoc/hostwatch/internal/index"
	"github.com/MrSnakeDoc/hostwatch/internal/logger"
)

const (
	DefaultGCInterval  = time.Hour
	DefaultGCThreshold = 24 * time.Hour
)

// GarbageCollector purges services that have been gone for longer than the
// threshold from the index and the store.
type GarbageCollector struct {
	store     ServiceStore // optional
	index     *index.MemoryIndex
	logger    logger.Logger
	interval  time.Duration
	threshold time.Duration
	now       func() time.Time

	started  atomic.Bool
	stopOnce sync.Once
	stopCh   chan struct{}
	done     chan struct{}
}

func NewGarbageCollector(
	store ServiceStore,
	idx *index.MemoryIndex,
	log logger.Logger,
	interval time.Duration,
	threshold time.Duration,
) *GarbageCollector {
	if interval <= 0 {
		interval = DefaultGCInterval
	}
	if threshold <= 0 {
		threshold = DefaultGCThreshold
	}

	return &GarbageCollector{
		store:     store,
		index:     idx,
		logger:    log,
		interval:  interval,
		threshold: threshold,
		now:       time.Now,
		stopCh:    make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Start runs a collection in the background every interval until Stop is
// called or ctx is done.
func (gc *GarbageCollector) Start(ctx context.Context) {
	if !gc.started.CompareAndSwap(false, true) {
		return
	}
	ticker := time.NewTicker(gc.interval)
	go func() {
		defer close(gc.done)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				gc.Collect(ctx)
			case <-gc.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop ends the loop started by Start and waits for it. Safe to call more
// than once, or without Start.
func (gc *GarbageCollector) Stop() {
	gc.stopOnce.Do(func() { close(gc.stopCh) })
	if gc.started.Load() {
		<-gc.done
	}
}

// Collect deletes expired entries and returns how many were removed from
// the index.
func (gc *GarbageCollector) Collect(ctx context.Context) int {
	cutoff := gc.now().Add(-gc.threshold)
	ids := gc.index.RemovedBefore(cutoff)

	for _, id := range ids {
		gc.index.DeleteService(id)

		// best effort: the store drops removed services on its own
		if gc.store != nil {
			if err := gc.store.DeleteService(ctx, id); err != nil {
				gc.logger.Warn("failed to delete service from redis",
					logger.String("service_id", id),
					logger.Error(err))
			}
		}
	}

	pruned := 0
	if gc.store != nil {
		n, err := gc.store.PruneExpired(ctx)
		if err != nil {
			gc.logger.Warn("failed to prune expired service ids", logger.Error(err))
		}
		pruned = n
	}

	if len(ids) > 0 || pruned > 0 {
		gc.logger.Info("garbage collection completed",
			logger.Int("services_deleted", len(ids)),
			logger.Int("ids_pruned", pruned))
	} else {
		gc.logger.Debug("no services to garbage collect")
	}

	return len(ids)
}
