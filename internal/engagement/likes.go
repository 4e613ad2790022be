package engagement

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/MrSnakeDoc/rant/internal/domain"
	"github.com/MrSnakeDoc/rant/internal/logger"
	"github.com/MrSnakeDoc/rant/internal/observable"
)

const (
	DefaultRemoteTimeout = 5 * time.Second
	DefaultStatusTTL     = 30 * time.Second
)

// IdentityResolver maps a profile to its identity token.
type IdentityResolver interface {
	GetIdentity(ctx context.Context, profile string) (string, error)
}

// LikeState is the observable like status of one (identity, rant) pair.
// Loaded is false until the state has been read from, or written to, the
// relational store.
type LikeState struct {
	Liked  bool `json:"liked"`
	Loaded bool `json:"loaded"`
}

// LikesOptions tunes a Likes instance. Zero values fall back to defaults.
type LikesOptions struct {
	RemoteTimeout time.Duration
	StatusTTL     time.Duration
}

// Likes synchronizes like records with the relational store and keeps an
// observable, cached like state per (identity, rant).
//
// Every toggle bumps a per-key generation. A status read only populates the
// cache if the generation did not move while it was in flight, so a slow
// read can never overwrite the result of a newer toggle.
type Likes struct {
	repo       domain.LikeRepository
	identities IdentityResolver
	logger     logger.Logger
	timeout    time.Duration
	ttl        time.Duration
	now        func() time.Time

	mu      sync.Mutex
	entries map[string]*likeEntry
}

type likeEntry struct {
	state      *observable.Value[LikeState]
	generation uint64
	fetchedAt  time.Time
	touchedAt  time.Time
}

// NewLikes creates the like synchronizer.
func NewLikes(repo domain.LikeRepository, identities IdentityResolver, log logger.Logger, opts LikesOptions) *Likes {
	if opts.RemoteTimeout <= 0 {
		opts.RemoteTimeout = DefaultRemoteTimeout
	}
	if opts.StatusTTL <= 0 {
		opts.StatusTTL = DefaultStatusTTL
	}
	return &Likes{
		repo:       repo,
		identities: identities,
		logger:     log,
		timeout:    opts.RemoteTimeout,
		ttl:        opts.StatusTTL,
		now:        time.Now,
		entries:    make(map[string]*likeEntry),
	}
}

// GetLikeStatus reports whether the profile's identity likes rantID.
// A fresh cached state is served without a remote call.
func (l *Likes) GetLikeStatus(ctx context.Context, profile, rantID string) (bool, error) {
	identity, err := l.resolve(ctx, profile, rantID)
	if err != nil {
		return false, err
	}

	key := entryKey(identity, rantID)
	l.mu.Lock()
	e := l.entry(key)
	if l.fresh(e) {
		liked := e.state.Get().Liked
		l.mu.Unlock()
		return liked, nil
	}
	gen := e.generation
	l.mu.Unlock()

	rctx, cancel := context.WithTimeout(ctx, l.timeout)
	liked, err := l.repo.HasLike(rctx, rantID, identity)
	cancel()
	if err != nil {
		return false, remoteErr("read like status", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if e.generation != gen || ctx.Err() != nil {
		// A toggle landed while reading, or the caller went away.
		l.logger.Debug("discarding stale like status",
			logger.String("rant", rantID),
			logger.Bool("remote", liked))
		if cur := e.state.Get(); cur.Loaded {
			return cur.Liked, nil
		}
		return liked, nil
	}
	e.fetchedAt = l.now()
	e.state.Set(LikeState{Liked: liked, Loaded: true})
	return liked, nil
}

// ToggleLike flips the like status and returns the new state.
//
// The cached state changes immediately; when the remote write fails it is
// restored to the last known-good value and ErrRemoteTransport is returned
// together with that value.
func (l *Likes) ToggleLike(ctx context.Context, profile, rantID string) (bool, error) {
	current, err := l.GetLikeStatus(ctx, profile, rantID)
	if err != nil {
		return false, err
	}
	identity, err := l.identities.GetIdentity(ctx, profile)
	if err != nil {
		return current, err
	}
	desired := !current

	key := entryKey(identity, rantID)
	l.mu.Lock()
	e := l.entry(key)
	previous := e.state.Get()
	e.generation++
	gen := e.generation
	e.state.Set(LikeState{Liked: desired, Loaded: true})
	l.mu.Unlock()

	rctx, cancel := context.WithTimeout(ctx, l.timeout)
	if desired {
		err = l.repo.InsertLike(rctx, rantID, identity)
	} else {
		err = l.repo.DeleteLike(rctx, rantID, identity)
	}
	cancel()

	l.mu.Lock()
	defer l.mu.Unlock()
	if err != nil {
		if e.generation == gen {
			e.state.Set(previous)
		}
		l.logger.Warn("like toggle failed, state restored",
			logger.String("rant", rantID),
			logger.Bool("desired", desired),
			logger.Error(err))
		return previous.Liked, remoteErr("write like", err)
	}

	// Last completed write wins.
	e.generation++
	e.fetchedAt = l.now()
	e.state.Set(LikeState{Liked: desired, Loaded: true})
	return desired, nil
}

// IncrementLikeCount bumps the rant's counter with one atomic remote call
// and returns the count re-read from the store.
func (l *Likes) IncrementLikeCount(ctx context.Context, rantID string) (int64, error) {
	if strings.TrimSpace(rantID) == "" {
		return 0, fmt.Errorf("empty rant id: %w", domain.ErrInvalidInput)
	}

	rctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	if err := l.repo.IncrementLikes(rctx, rantID); err != nil {
		return 0, remoteErr("increment likes", err)
	}
	count, err := l.repo.LikeCount(rctx, rantID)
	if err != nil {
		return 0, remoteErr("read like count", err)
	}
	return count, nil
}

// LikeCount reads the authoritative counter of rantID.
func (l *Likes) LikeCount(ctx context.Context, rantID string) (int64, error) {
	rctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	count, err := l.repo.LikeCount(rctx, rantID)
	if err != nil {
		return 0, remoteErr("read like count", err)
	}
	return count, nil
}

// Observe returns the observable like state of the profile for rantID.
// Subscribers are notified on every transition; entries with subscribers
// are never pruned. Callbacks run under the cache lock and must not call
// back into Likes.
func (l *Likes) Observe(ctx context.Context, profile, rantID string) (*observable.Value[LikeState], error) {
	identity, err := l.resolve(ctx, profile, rantID)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	return l.entry(entryKey(identity, rantID)).state, nil
}

// Prune drops cached states without subscribers that were not touched
// within idle. It returns the number of dropped entries.
func (l *Likes) Prune(idle time.Duration) int {
	cutoff := l.now().Add(-idle)

	l.mu.Lock()
	defer l.mu.Unlock()

	pruned := 0
	for key, e := range l.entries {
		if e.state.Subscribers() > 0 || e.touchedAt.After(cutoff) {
			continue
		}
		delete(l.entries, key)
		pruned++
	}
	return pruned
}

// Cached returns the number of cached like states.
func (l *Likes) Cached() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

func (l *Likes) resolve(ctx context.Context, profile, rantID string) (string, error) {
	if strings.TrimSpace(rantID) == "" {
		return "", fmt.Errorf("empty rant id: %w", domain.ErrInvalidInput)
	}
	return l.identities.GetIdentity(ctx, profile)
}

// entry returns the cache entry for key, creating it. l.mu must be held.
func (l *Likes) entry(key string) *likeEntry {
	e, ok := l.entries[key]
	if !ok {
		e = &likeEntry{state: observable.New(LikeState{})}
		l.entries[key] = e
	}
	e.touchedAt = l.now()
	return e
}

// fresh reports whether e holds a state younger than the TTL. l.mu must be held.
func (l *Likes) fresh(e *likeEntry) bool {
	return e.state.Get().Loaded && !e.fetchedAt.IsZero() && l.now().Sub(e.fetchedAt) < l.ttl
}

func entryKey(identity, rantID string) string {
	return identity + "\x00" + rantID
}

func remoteErr(op string, err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %v: %w", op, err, domain.ErrRemoteTransport)
}
