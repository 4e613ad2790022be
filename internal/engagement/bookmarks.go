// Package engagement holds the per-profile engagement state: bookmarks kept
// in profile storage and likes synchronized with the relational store.
package engagement

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/MrSnakeDoc/rant/internal/domain"
	"github.com/MrSnakeDoc/rant/internal/kv"
	"github.com/MrSnakeDoc/rant/internal/logger"
)

// Bookmarks manages the bookmark set of each profile.
//
// The set is stored as one JSON array under kv.KeyBookmarks and rewritten
// whole on every toggle. Reads always go to storage so every view sees the
// latest persisted set.
type Bookmarks struct {
	store  kv.Store
	logger logger.Logger
}

// NewBookmarks creates a bookmark manager backed by store.
func NewBookmarks(store kv.Store, log logger.Logger) *Bookmarks {
	return &Bookmarks{store: store, logger: log}
}

// IsBookmarked reports whether itemID is in the profile's set.
func (b *Bookmarks) IsBookmarked(ctx context.Context, profile, itemID string) (bool, error) {
	set, err := b.load(ctx, profile)
	if err != nil {
		return false, err
	}
	return indexOf(set, itemID) >= 0, nil
}

// Toggle removes itemID when present and adds it otherwise, then persists
// the whole set. It returns the new state.
func (b *Bookmarks) Toggle(ctx context.Context, profile, itemID string) (bool, error) {
	if strings.TrimSpace(itemID) == "" {
		return false, fmt.Errorf("empty item id: %w", domain.ErrInvalidInput)
	}

	set, err := b.load(ctx, profile)
	if err != nil {
		return false, err
	}

	bookmarked := true
	if i := indexOf(set, itemID); i >= 0 {
		set = append(set[:i], set[i+1:]...)
		bookmarked = false
	} else {
		set = append(set, itemID)
	}

	if err := b.save(ctx, profile, set); err != nil {
		return !bookmarked, err
	}

	b.logger.Debug("bookmark toggled",
		logger.String("profile", profile),
		logger.String("item", itemID),
		logger.Bool("bookmarked", bookmarked))
	return bookmarked, nil
}

// List returns the bookmarked item IDs in insertion order.
func (b *Bookmarks) List(ctx context.Context, profile string) ([]string, error) {
	return b.load(ctx, profile)
}

func (b *Bookmarks) load(ctx context.Context, profile string) ([]string, error) {
	raw, err := b.store.Get(ctx, kv.ProfileKey(profile, kv.KeyBookmarks))
	if errors.Is(err, kv.ErrNotFound) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read bookmarks: %v: %w", err, domain.ErrStorageUnavailable)
	}

	set, err := decodeSet(raw)
	if err != nil {
		b.logger.Warn("bookmark set unreadable, starting empty",
			logger.String("profile", profile),
			logger.Error(err))
		return []string{}, nil
	}
	return set, nil
}

func (b *Bookmarks) save(ctx context.Context, profile string, set []string) error {
	data, err := json.Marshal(set)
	if err != nil {
		return fmt.Errorf("encode bookmarks: %w", err)
	}
	if err := b.store.Set(ctx, kv.ProfileKey(profile, kv.KeyBookmarks), string(data)); err != nil {
		return fmt.Errorf("write bookmarks: %v: %w", err, domain.ErrStorageUnavailable)
	}
	return nil
}

// decodeSet parses a stored set, dropping duplicates and empty entries.
func decodeSet(raw string) ([]string, error) {
	var items []string
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("%v: %w", err, domain.ErrStorageCorrupt)
	}

	seen := make(map[string]struct{}, len(items))
	set := make([]string, 0, len(items))
	for _, id := range items {
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		set = append(set, id)
	}
	return set, nil
}

func indexOf(set []string, id string) int {
	for i, v := range set {
		if v == id {
			return i
		}
	}
	return -1
}
