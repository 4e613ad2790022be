package domain

import "time"

// Rant is one anonymous post in the corpus.
//
// It is the content item searched, liked and bookmarked by profiles.
// The relational store is the source of truth; the memory index holds
// a snapshot of the visible rants.
type Rant struct {
	// ─────────────────────────────
	// Identity (immutable)
	// ─────────────────────────────

	// ID is the canonical unique identifier.
	ID string `json:"id"`

	// ─────────────────────────────
	// Content
	// ─────────────────────────────

	// Content is the rant text.
	Content string `json:"content"`

	// Alias is the author handle shown next to the rant.
	// Example: Anonymous #3FA
	Alias string `json:"alias"`

	// Mood is a vocabulary entry, or empty when untagged.
	Mood string `json:"mood,omitempty"`

	// ─────────────────────────────
	// Engagement
	// ─────────────────────────────

	// Likes is the counter bumped by the increment RPC.
	// It is not derived from like records.
	Likes int64 `json:"likes"`

	// ─────────────────────────────
	// Metadata
	// ─────────────────────────────

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// ─────────────────────────────
	// Moderation
	// ─────────────────────────────

	// Hidden marks a rant as removed from feeds and search.
	// It may be garbage-collected later.
	Hidden bool `json:"hidden,omitempty"`
}

// Sort orders accepted by FeedFilter.
const (
	SortNew = "new"
	SortTop = "top"
)

// DefaultFeedLimit caps feed listings when no limit is requested.
const DefaultFeedLimit = 50

// FeedFilter selects rants for a listing. It is built per request and
// passed explicitly; there is no shared filter state.
type FeedFilter struct {
	Mood          string // exact mood, empty = any
	Sort          string // SortNew (default) or SortTop
	Limit         int    // <= 0 means no limit
	IncludeHidden bool
}
