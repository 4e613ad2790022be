package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/MrSnakeDoc/rant/internal/domain"
	"github.com/MrSnakeDoc/rant/internal/logger"
	"github.com/MrSnakeDoc/rant/internal/sources/seed"
)

// RantUpserter is the seed-import side of the rant repository.
type RantUpserter interface {
	UpsertRants(ctx context.Context, rants []*domain.Rant) (int, error)
}

// VocabularySetter receives the mood vocabulary declared by the seed file.
type VocabularySetter interface {
	SetVocabulary(v *domain.Vocabulary)
}

// SeedReloader imports the seed file into the store and publishes its
// mood vocabulary.
type SeedReloader struct {
	loader *seed.Loader
	mapper *seed.Mapper
	repo   RantUpserter
	vocab  VocabularySetter
	corpus *CorpusReloader
	logger logger.Logger
	loop   *loop
}

// NewSeedReloader creates a seed reloader. corpus may be nil, in which
// case the index is left for the corpus reloader's next tick.
func NewSeedReloader(
	seedFile string,
	repo RantUpserter,
	vocab VocabularySetter,
	corpus *CorpusReloader,
	log logger.Logger,
	interval time.Duration,
	manualTrigger <-chan struct{},
) *SeedReloader {
	return &SeedReloader{
		loader: seed.NewLoader(seedFile),
		mapper: seed.NewMapper(),
		repo:   repo,
		vocab:  vocab,
		corpus: corpus,
		logger: log,
		loop:   newLoop("seed_reload", interval, manualTrigger, log),
	}
}

// Start imports the seed file once, then watches for triggers and ticks.
func (sr *SeedReloader) Start(ctx context.Context) error {
	if err := sr.Reload(ctx); err != nil {
		return fmt.Errorf("initial seed import failed: %w", err)
	}
	sr.loop.start(ctx, sr.Reload)
	return nil
}

// Stop stops the reloader.
func (sr *SeedReloader) Stop() {
	sr.loop.stop()
}

// Reload reads the seed file, swaps the vocabulary if it declares one and
// inserts rants the store does not have yet.
func (sr *SeedReloader) Reload(ctx context.Context) error {
	file, err := sr.loader.Load()
	if err != nil {
		return fmt.Errorf("failed to load seed file: %w", err)
	}

	res, err := sr.mapper.Map(file, domain.DefaultVocabulary())
	if err != nil {
		return fmt.Errorf("failed to map seed file: %w", err)
	}

	if res.Vocabulary != nil && sr.vocab != nil {
		sr.vocab.SetVocabulary(res.Vocabulary)
		sr.logger.Info("mood vocabulary loaded",
			logger.Strings("moods", res.Vocabulary.Moods()))
	}

	inserted, err := sr.repo.UpsertRants(ctx, res.Rants)
	if err != nil {
		return fmt.Errorf("failed to import seed rants: %w", err)
	}

	sr.logger.Info("seed file imported",
		logger.String("file", sr.loader.Path()),
		logger.Int("rants", len(res.Rants)),
		logger.Int("inserted", inserted),
		logger.Int("skipped", res.Skipped))

	if inserted > 0 && sr.corpus != nil {
		if err := sr.corpus.Reload(ctx); err != nil {
			sr.logger.Warn("corpus refresh after seed import failed", logger.Error(err))
		}
	}
	return nil
}
