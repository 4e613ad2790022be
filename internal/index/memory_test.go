package index

import (
	"sync"
	"testing"
	"time"

	"github.com/MrSnakeDoc/rant/internal/domain"
)

var base = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func corpus() []*domain.Rant {
	return []*domain.Rant{
		{ID: "r1", Content: "rainy monday", Mood: "Angry", Likes: 3, CreatedAt: base},
		{ID: "r2", Content: "late train", Mood: "Angry", Likes: 10, CreatedAt: base.Add(time.Hour)},
		{ID: "r3", Content: "lost keys", Mood: "Sad", Likes: 1, CreatedAt: base.Add(2 * time.Hour)},
		{ID: "r4", Content: "noisy neighbours", Mood: "Angry", Likes: 0, CreatedAt: base.Add(3 * time.Hour)},
		{ID: "r5", Content: "moderated", Mood: "Angry", Hidden: true, CreatedAt: base.Add(4 * time.Hour)},
	}
}

func ids(rants []*domain.Rant) []string {
	out := make([]string, 0, len(rants))
	for _, r := range rants {
		out = append(out, r.ID)
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestNewMemoryIndex(t *testing.T) {
	index := NewMemoryIndex()
	if index == nil {
		t.Fatal("NewMemoryIndex() returned nil")
	}
	if n := len(index.All()); n != 0 {
		t.Errorf("NewMemoryIndex() should start empty, got %v rants", n)
	}
	if !index.GetLastReload().IsZero() {
		t.Error("GetLastReload() should be zero before the first reload")
	}
}

func TestUpdateRantsSkipsHidden(t *testing.T) {
	index := NewMemoryIndex()
	index.UpdateRants(corpus())

	if index.Count() != 4 {
		t.Errorf("Count() = %v, want 4", index.Count())
	}
	if _, ok := index.GetRant("r5"); ok {
		t.Error("hidden rant should not be indexed")
	}
	if index.GetLastReload().IsZero() {
		t.Error("GetLastReload() should be set after UpdateRants")
	}
}

func TestUpdateRantsOverwrites(t *testing.T) {
	index := NewMemoryIndex()
	index.UpdateRants(corpus())
	index.UpdateRants([]*domain.Rant{{ID: "only", CreatedAt: base}})

	if got := ids(index.All()); !equal(got, []string{"only"}) {
		t.Errorf("UpdateRants() should overwrite, got %v", got)
	}
}

func TestAllNewestFirst(t *testing.T) {
	index := NewMemoryIndex()
	index.UpdateRants(corpus())

	want := []string{"r4", "r3", "r2", "r1"}
	if got := ids(index.All()); !equal(got, want) {
		t.Errorf("All() = %v, want %v", got, want)
	}
}

func TestFeed(t *testing.T) {
	index := NewMemoryIndex()
	index.UpdateRants(corpus())

	tests := []struct {
		name   string
		filter domain.FeedFilter
		want   []string
	}{
		{name: "default", filter: domain.FeedFilter{}, want: []string{"r4", "r3", "r2", "r1"}},
		{name: "top", filter: domain.FeedFilter{Sort: domain.SortTop}, want: []string{"r2", "r1", "r3", "r4"}},
		{name: "mood", filter: domain.FeedFilter{Mood: "Sad"}, want: []string{"r3"}},
		{name: "unknown mood", filter: domain.FeedFilter{Mood: "Happy"}, want: []string{}},
		{name: "limit", filter: domain.FeedFilter{Mood: "Angry", Limit: 2}, want: []string{"r4", "r2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ids(index.Feed(tt.filter)); !equal(got, tt.want) {
				t.Errorf("Feed() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRelated(t *testing.T) {
	index := NewMemoryIndex()
	index.UpdateRants(corpus())

	tests := []struct {
		name  string
		id    string
		limit int
		want  []string
	}{
		{name: "same mood newest first", id: "r1", limit: 0, want: []string{"r4", "r2"}},
		{name: "limited", id: "r1", limit: 1, want: []string{"r4"}},
		{name: "no siblings", id: "r3", limit: 5, want: []string{}},
		{name: "unknown id", id: "nope", limit: 5, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ids(index.Related(tt.id, tt.limit)); !equal(got, tt.want) {
				t.Errorf("Related(%q) = %v, want %v", tt.id, got, tt.want)
			}
		})
	}
}

func TestAddRantAndDelete(t *testing.T) {
	index := NewMemoryIndex()
	index.AddRant(&domain.Rant{ID: "a", CreatedAt: base})
	if index.Count() != 1 {
		t.Fatalf("Count() = %v, want 1", index.Count())
	}

	index.AddRant(&domain.Rant{ID: "a", Hidden: true})
	if index.Count() != 0 {
		t.Errorf("adding a hidden rant should remove it, Count() = %v", index.Count())
	}

	index.AddRant(&domain.Rant{ID: "b", CreatedAt: base})
	index.DeleteRant("b")
	index.DeleteRant("missing")
	if index.Count() != 0 {
		t.Errorf("DeleteRant() should remove, Count() = %v", index.Count())
	}
}

func TestSetLikes(t *testing.T) {
	index := NewMemoryIndex()
	index.UpdateRants(corpus())

	index.SetLikes("r1", 42)
	index.SetLikes("nonexistent", 7)

	r, _ := index.GetRant("r1")
	if r.Likes != 42 {
		t.Errorf("SetLikes() likes = %v, want 42", r.Likes)
	}
}

func TestConcurrentAccess(t *testing.T) {
	index := NewMemoryIndex()
	index.UpdateRants(corpus())

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(3)
		go func() {
			defer wg.Done()
			_ = index.All()
		}()
		go func() {
			defer wg.Done()
			_ = index.Feed(domain.FeedFilter{Sort: domain.SortTop})
		}()
		go func(n int) {
			defer wg.Done()
			index.SetLikes("r2", int64(n))
		}(i)
	}
	wg.Wait()

	if index.Count() != 4 {
		t.Errorf("Count() = %v, want 4", index.Count())
	}
}
