package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/MrSnakeDoc/rant/internal/domain"
)

// fakeRepo is an in-memory rant repository for scheduler tests.
type fakeRepo struct {
	mu       sync.Mutex
	rants    map[string]*domain.Rant
	hiddenAt map[string]time.Time
	listErr  error
	lists    int
}

func newFakeRepo(rants ...*domain.Rant) *fakeRepo {
	r := &fakeRepo{rants: map[string]*domain.Rant{}, hiddenAt: map[string]time.Time{}}
	for _, rant := range rants {
		r.rants[rant.ID] = rant
	}
	return r
}

func (f *fakeRepo) ListRants(_ context.Context, filter domain.FeedFilter) ([]*domain.Rant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists++
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]*domain.Rant, 0, len(f.rants))
	for _, r := range f.rants {
		if r.Hidden && !filter.IncludeHidden {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeRepo) UpsertRants(_ context.Context, rants []*domain.Rant) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, r := range rants {
		if _, ok := f.rants[r.ID]; ok {
			continue
		}
		f.rants[r.ID] = r
		n++
	}
	return n, nil
}

func (f *fakeRepo) ListHiddenBefore(_ context.Context, cutoff time.Time) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []string
	for id, at := range f.hiddenAt {
		if at.Before(cutoff) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (f *fakeRepo) DeleteRant(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rants[id]; !ok {
		return domain.ErrNotFound
	}
	delete(f.rants, id)
	delete(f.hiddenAt, id)
	return nil
}

func (f *fakeRepo) listCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lists
}

type countingPruner struct {
	mu    sync.Mutex
	calls int
	idle  time.Duration
}

func (p *countingPruner) Prune(idle time.Duration) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	p.idle = idle
	return 2
}

type vocabRecorder struct {
	mu    sync.Mutex
	vocab *domain.Vocabulary
}

func (v *vocabRecorder) SetVocabulary(vocab *domain.Vocabulary) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.vocab = vocab
}
