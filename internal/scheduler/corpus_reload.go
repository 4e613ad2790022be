package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/MrSnakeDoc/rant/internal/domain"
	"github.com/MrSnakeDoc/rant/internal/index"
	"github.com/MrSnakeDoc/rant/internal/logger"
)

// RantLister is the read side of the rant repository.
type RantLister interface {
	ListRants(ctx context.Context, filter domain.FeedFilter) ([]*domain.Rant, error)
}

// CorpusReloader keeps the memory index in sync with the relational store.
type CorpusReloader struct {
	repo   RantLister
	index  *index.MemoryIndex
	logger logger.Logger
	loop   *loop
}

// NewCorpusReloader creates a reloader running every interval and whenever
// manualTrigger receives.
func NewCorpusReloader(
	repo RantLister,
	idx *index.MemoryIndex,
	log logger.Logger,
	interval time.Duration,
	manualTrigger <-chan struct{},
) *CorpusReloader {
	return &CorpusReloader{
		repo:   repo,
		index:  idx,
		logger: log,
		loop:   newLoop("corpus_reload", interval, manualTrigger, log),
	}
}

// Start loads the corpus once, then keeps refreshing it in the background.
func (cr *CorpusReloader) Start(ctx context.Context) error {
	if err := cr.Reload(ctx); err != nil {
		return fmt.Errorf("initial corpus load failed: %w", err)
	}
	cr.loop.start(ctx, cr.Reload)
	return nil
}

// Stop stops the reloader.
func (cr *CorpusReloader) Stop() {
	cr.loop.stop()
}

// Reload replaces the indexed corpus with the visible rants of the store.
func (cr *CorpusReloader) Reload(ctx context.Context) error {
	start := time.Now()

	rants, err := cr.repo.ListRants(ctx, domain.FeedFilter{})
	if err != nil {
		return fmt.Errorf("failed to list rants: %w", err)
	}

	cr.index.UpdateRants(rants)
	cr.logger.Info("corpus reloaded",
		logger.Int("count", cr.index.Count()),
		logger.Duration("took", time.Since(start)))
	return nil
}
