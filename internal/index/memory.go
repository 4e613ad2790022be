package index

import (
	"sort"
	"sync"
	"time"

	"github.com/MrSnakeDoc/rant/internal/domain"
)

// MemoryIndex holds the visible rant corpus for search and feeds.
// The relational store stays the source of truth; the index is rebuilt
// from it by the corpus reloader.
type MemoryIndex struct {
	mu         sync.RWMutex
	rants      map[string]*domain.Rant // ID -> Rant
	lastReload time.Time               // Timestamp of last full reload
}

// NewMemoryIndex creates an empty index.
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{
		rants: make(map[string]*domain.Rant),
	}
}

// UpdateRants replaces the whole corpus. Hidden rants are skipped.
func (idx *MemoryIndex) UpdateRants(rants []*domain.Rant) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.rants = make(map[string]*domain.Rant, len(rants))
	for _, r := range rants {
		if r == nil || r.Hidden {
			continue
		}
		idx.rants[r.ID] = r
	}
	idx.lastReload = time.Now()
}

// AddRant adds or replaces a single rant. A hidden rant is removed instead.
func (idx *MemoryIndex) AddRant(r *domain.Rant) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if r.Hidden {
		delete(idx.rants, r.ID)
		return
	}
	idx.rants[r.ID] = r
}

// GetRant retrieves a rant by ID.
func (idx *MemoryIndex) GetRant(id string) (*domain.Rant, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	r, ok := idx.rants[id]
	return r, ok
}

// DeleteRant removes a rant from the index.
func (idx *MemoryIndex) DeleteRant(id string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	delete(idx.rants, id)
}

// All returns a snapshot of the corpus, newest first. The order is stable
// so search ties resolve the same way on every call.
func (idx *MemoryIndex) All() []*domain.Rant {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	out := make([]*domain.Rant, 0, len(idx.rants))
	for _, r := range idx.rants {
		out = append(out, r)
	}
	sortNewest(out)
	return out
}

// Feed returns the rants selected by filter. Hidden rants never live in
// the index, so IncludeHidden has no effect here.
func (idx *MemoryIndex) Feed(filter domain.FeedFilter) []*domain.Rant {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	out := make([]*domain.Rant, 0, len(idx.rants))
	for _, r := range idx.rants {
		if filter.Mood != "" && r.Mood != filter.Mood {
			continue
		}
		out = append(out, r)
	}

	if filter.Sort == domain.SortTop {
		sort.SliceStable(out, func(i, j int) bool {
			if out[i].Likes != out[j].Likes {
				return out[i].Likes > out[j].Likes
			}
			return newer(out[i], out[j])
		})
	} else {
		sortNewest(out)
	}

	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out
}

// Related returns up to limit rants sharing the mood of id, newest first,
// excluding id itself. Untagged rants have no related items.
func (idx *MemoryIndex) Related(id string, limit int) []*domain.Rant {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	self, ok := idx.rants[id]
	if !ok || self.Mood == "" {
		return []*domain.Rant{}
	}
	out := make([]*domain.Rant, 0)
	for _, r := range idx.rants {
		if r.ID != id && r.Mood == self.Mood {
			out = append(out, r)
		}
	}
	sortNewest(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// SetLikes stores the authoritative like counter of a rant. The indexed
// value is replaced, never mutated, so snapshots handed out earlier stay
// consistent.
func (idx *MemoryIndex) SetLikes(id string, likes int64) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if r, ok := idx.rants[id]; ok {
		cp := *r
		cp.Likes = likes
		idx.rants[id] = &cp
	}
}

// Count returns the number of indexed rants.
func (idx *MemoryIndex) Count() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return len(idx.rants)
}

// GetLastReload returns the timestamp of the last full reload.
func (idx *MemoryIndex) GetLastReload() time.Time {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return idx.lastReload
}

func sortNewest(rants []*domain.Rant) {
	sort.SliceStable(rants, func(i, j int) bool { return newer(rants[i], rants[j]) })
}

func newer(a, b *domain.Rant) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID < b.ID
}
