package engagement

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/rant/internal/domain"
	"github.com/MrSnakeDoc/rant/internal/kv"
	"github.com/MrSnakeDoc/rant/internal/logger"
)

type failingStore struct{}

func (failingStore) Get(context.Context, string) (string, error)         { return "", errors.New("io") }
func (failingStore) Set(context.Context, string, string) error           { return errors.New("io") }
func (failingStore) SetNX(context.Context, string, string) (bool, error) { return false, errors.New("io") }
func (failingStore) Delete(context.Context, string) error                { return errors.New("io") }

func TestBookmarksToggleRoundTrip(t *testing.T) {
	ctx := context.Background()
	b := NewBookmarks(kv.NewMemory(), logger.Nop())

	on, err := b.IsBookmarked(ctx, "p1", "r1")
	require.NoError(t, err)
	assert.False(t, on)

	on, err = b.Toggle(ctx, "p1", "r1")
	require.NoError(t, err)
	assert.True(t, on)

	on, err = b.IsBookmarked(ctx, "p1", "r1")
	require.NoError(t, err)
	assert.True(t, on)

	on, err = b.Toggle(ctx, "p1", "r1")
	require.NoError(t, err)
	assert.False(t, on)

	on, err = b.IsBookmarked(ctx, "p1", "r1")
	require.NoError(t, err)
	assert.False(t, on)
}

func TestBookmarksListKeepsOrderAndIsolatesProfiles(t *testing.T) {
	ctx := context.Background()
	b := NewBookmarks(kv.NewMemory(), logger.Nop())

	for _, id := range []string{"r3", "r1", "r2"} {
		_, err := b.Toggle(ctx, "p1", id)
		require.NoError(t, err)
	}
	_, err := b.Toggle(ctx, "p1", "r1")
	require.NoError(t, err)

	list, err := b.List(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, []string{"r3", "r2"}, list)

	other, err := b.List(ctx, "p2")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestBookmarksVisibleAcrossInstances(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()
	feed := NewBookmarks(store, logger.Nop())
	detail := NewBookmarks(store, logger.Nop())

	_, err := detail.Toggle(ctx, "p1", "r9")
	require.NoError(t, err)

	on, err := feed.IsBookmarked(ctx, "p1", "r9")
	require.NoError(t, err)
	assert.True(t, on)
}

func TestBookmarksCorruptDataRecoversEmpty(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()
	require.NoError(t, store.Set(ctx, kv.ProfileKey("p1", kv.KeyBookmarks), "{not json"))

	b := NewBookmarks(store, logger.Nop())

	list, err := b.List(ctx, "p1")
	require.NoError(t, err)
	assert.Empty(t, list)

	on, err := b.Toggle(ctx, "p1", "r1")
	require.NoError(t, err)
	assert.True(t, on)

	raw, err := store.Get(ctx, kv.ProfileKey("p1", kv.KeyBookmarks))
	require.NoError(t, err)
	assert.JSONEq(t, `["r1"]`, raw)
}

func TestBookmarksDuplicatesDroppedOnLoad(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()
	require.NoError(t, store.Set(ctx, kv.ProfileKey("p1", kv.KeyBookmarks), `["r1","r2","r1",""]`))

	b := NewBookmarks(store, logger.Nop())
	list, err := b.List(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, []string{"r1", "r2"}, list)

	on, err := b.Toggle(ctx, "p1", "r1")
	require.NoError(t, err)
	assert.False(t, on)

	on, err = b.IsBookmarked(ctx, "p1", "r1")
	require.NoError(t, err)
	assert.False(t, on, "a duplicated id must be fully removed by one toggle")
}

func TestBookmarksStorageUnavailable(t *testing.T) {
	ctx := context.Background()
	b := NewBookmarks(failingStore{}, logger.Nop())

	_, err := b.IsBookmarked(ctx, "p1", "r1")
	assert.ErrorIs(t, err, domain.ErrStorageUnavailable)

	_, err = b.Toggle(ctx, "p1", "r1")
	assert.ErrorIs(t, err, domain.ErrStorageUnavailable)
}

func TestBookmarksRejectEmptyItem(t *testing.T) {
	b := NewBookmarks(kv.NewMemory(), logger.Nop())
	_, err := b.Toggle(context.Background(), "p1", " ")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestDecodeSetCorrupt(t *testing.T) {
	_, err := decodeSet(`"just a string"`)
	assert.ErrorIs(t, err, domain.ErrStorageCorrupt)
}
