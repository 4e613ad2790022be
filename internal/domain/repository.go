package domain

import (
	"context"
	"time"
)

// LikeRepository is the remote relational store as seen by the like sync.
// A row (rantID, identity) means "identity likes rant".
type LikeRepository interface {
	// HasLike reports whether the like row exists. A missing row is (false, nil).
	HasLike(ctx context.Context, rantID, identity string) (bool, error)

	// InsertLike creates the like row. Inserting an existing row is not an
	// error; liking a rant that does not exist is ErrNotFound.
	InsertLike(ctx context.Context, rantID, identity string) error

	// DeleteLike removes the like row. Deleting a missing row is not an error.
	DeleteLike(ctx context.Context, rantID, identity string) error

	// IncrementLikes bumps the like counter of a rant in one atomic call.
	IncrementLikes(ctx context.Context, rantID string) error

	// LikeCount reads the authoritative like counter of a rant.
	LikeCount(ctx context.Context, rantID string) (int64, error)
}

// RantRepository stores the rant corpus.
type RantRepository interface {
	CreateRant(ctx context.Context, rant *Rant) error
	GetRant(ctx context.Context, id string) (*Rant, error)
	ListRants(ctx context.Context, filter FeedFilter) ([]*Rant, error)
	HideRant(ctx context.Context, id string) error
	DeleteRant(ctx context.Context, id string) error

	// ListHiddenBefore returns the IDs of rants hidden before cutoff.
	ListHiddenBefore(ctx context.Context, cutoff time.Time) ([]string, error)

	// UpsertRants inserts rants whose ID is not yet stored and leaves
	// existing rows untouched. It returns the number of inserted rows.
	UpsertRants(ctx context.Context, rants []*Rant) (int, error)
}
