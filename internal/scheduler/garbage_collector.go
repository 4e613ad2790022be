package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrSnakeDoc/rant/internal/domain"
	"github.com/MrSnakeDoc/rant/internal/index"
	"github.com/MrSnakeDoc/rant/internal/logger"
)

const (
	// DefaultGCThreshold is how long a rant stays hidden before it is deleted.
	DefaultGCThreshold = 30 * 24 * time.Hour // 30 days

	// DefaultLikeIdle is how long an unobserved like state stays cached.
	DefaultLikeIdle = time.Hour
)

// HiddenRantStore is the purge side of the rant repository.
type HiddenRantStore interface {
	ListHiddenBefore(ctx context.Context, cutoff time.Time) ([]string, error)
	DeleteRant(ctx context.Context, id string) error
}

// LikeCachePruner drops idle cached like states.
type LikeCachePruner interface {
	Prune(idle time.Duration) int
}

// GarbageCollector purges long-hidden rants and idle like-state cache entries.
type GarbageCollector struct {
	store     HiddenRantStore
	index     *index.MemoryIndex
	likes     LikeCachePruner
	logger    logger.Logger
	threshold time.Duration
	likeIdle  time.Duration
	now       func() time.Time
	loop      *loop
}

// NewGarbageCollector creates a new garbage collector. likes may be nil.
func NewGarbageCollector(
	store HiddenRantStore,
	idx *index.MemoryIndex,
	likes LikeCachePruner,
	log logger.Logger,
	interval time.Duration,
	threshold time.Duration,
) *GarbageCollector {
	if threshold == 0 {
		threshold = DefaultGCThreshold
	}

	return &GarbageCollector{
		store:     store,
		index:     idx,
		likes:     likes,
		logger:    log,
		threshold: threshold,
		likeIdle:  DefaultLikeIdle,
		now:       time.Now,
		loop:      newLoop("garbage_collector", interval, nil, log),
	}
}

// Start runs one collection, then collects periodically.
func (gc *GarbageCollector) Start(ctx context.Context) error {
	if err := gc.Collect(ctx); err != nil {
		gc.logger.Warn("initial garbage collection failed",
			logger.Error(err))
	}
	gc.loop.start(ctx, gc.Collect)
	return nil
}

// Stop stops the garbage collector.
func (gc *GarbageCollector) Stop() {
	gc.loop.stop()
}

// Collect deletes rants hidden for longer than the threshold and prunes
// idle like states.
func (gc *GarbageCollector) Collect(ctx context.Context) error {
	gc.logger.Debug("running garbage collection")

	pruned := 0
	if gc.likes != nil {
		pruned = gc.likes.Prune(gc.likeIdle)
	}

	if gc.store == nil {
		return nil
	}

	ids, err := gc.store.ListHiddenBefore(ctx, gc.now().Add(-gc.threshold))
	if err != nil {
		return fmt.Errorf("failed to list hidden rants: %w", err)
	}

	deleted := 0
	for _, id := range ids {
		if err := gc.store.DeleteRant(ctx, id); err != nil && !errors.Is(err, domain.ErrNotFound) {
			gc.logger.Warn("failed to delete hidden rant",
				logger.String("rant_id", id),
				logger.Error(err))
			continue
		}
		gc.index.DeleteRant(id)
		deleted++
	}

	if deleted > 0 || pruned > 0 {
		gc.logger.Info("garbage collection completed",
			logger.Int("rants_deleted", deleted),
			logger.Int("like_states_pruned", pruned))
	} else {
		gc.logger.Debug("no items to garbage collect")
	}
	return nil
}
