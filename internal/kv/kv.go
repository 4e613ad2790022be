// Package kv defines the per-profile durable key-value storage used for
// local engagement state (identity token, bookmark set).
package kv

import (
	"context"
	"errors"
)

// Fixed keys inside a profile keyspace.
const (
	KeyIdentity  = "identity"
	KeyBookmarks = "bookmarks"
)

// ErrNotFound is returned by Get when the key is absent.
var ErrNotFound = errors.New("kv: key not found")

// Store is a string key-value store. Every method must either fully apply
// or fail; Set replaces the whole value in one write.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	// SetNX stores value only if key is absent and reports whether it did.
	SetNX(ctx context.Context, key, value string) (bool, error)
	Delete(ctx context.Context, key string) error
}

// ProfileKey scopes a fixed key to one device profile.
func ProfileKey(profile, key string) string {
	return profile + ":" + key
}
