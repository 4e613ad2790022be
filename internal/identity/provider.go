// Package identity derives and persists the pseudonymous identity of a
// device profile.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/MrSnakeDoc/rant/internal/domain"
	"github.com/MrSnakeDoc/rant/internal/kv"
	"github.com/MrSnakeDoc/rant/internal/logger"
)

const (
	displayPrefix  = "Anonymous #"
	defaultTimeout = 5 * time.Second
)

// Provider hands out one stable identity token per profile.
type Provider struct {
	store   kv.Store
	logger  logger.Logger
	group   singleflight.Group
	newID   func() string
	timeout time.Duration
}

// NewProvider creates a provider backed by store.
func NewProvider(store kv.Store, log logger.Logger) *Provider {
	return &Provider{
		store:   store,
		logger:  log,
		newID:   func() string { return uuid.NewString() },
		timeout: defaultTimeout,
	}
}

// GetIdentity returns the identity of profile, creating it on first use.
// Concurrent first calls agree on a single token: in-process callers share
// one lookup and the write itself is set-if-absent.
func (p *Provider) GetIdentity(ctx context.Context, profile string) (string, error) {
	if strings.TrimSpace(profile) == "" {
		return "", fmt.Errorf("empty profile: %w", domain.ErrInvalidInput)
	}

	// The shared lookup outlives any single caller's cancellation.
	ch := p.group.DoChan(profile, func() (interface{}, error) {
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
		defer cancel()
		return p.getOrCreate(sctx, profile)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (p *Provider) getOrCreate(ctx context.Context, profile string) (string, error) {
	key := kv.ProfileKey(profile, kv.KeyIdentity)

	id, err := p.store.Get(ctx, key)
	switch {
	case err == nil && id != "":
		return id, nil
	case err == nil:
		return p.replaceCorrupt(ctx, profile, key)
	case !errors.Is(err, kv.ErrNotFound):
		return "", fmt.Errorf("read identity: %v: %w", err, domain.ErrStorageUnavailable)
	}

	candidate := p.newID()
	created, err := p.store.SetNX(ctx, key, candidate)
	if err != nil {
		return "", fmt.Errorf("write identity: %v: %w", err, domain.ErrStorageUnavailable)
	}
	if created {
		p.logger.Debug("identity created",
			logger.String("profile", profile),
			logger.String("display", DisplayName(candidate)))
		return candidate, nil
	}

	// Another writer won the race; its token is the identity.
	id, err = p.store.Get(ctx, key)
	if err != nil {
		return "", fmt.Errorf("re-read identity: %v: %w", err, domain.ErrStorageUnavailable)
	}
	if id == "" {
		return p.replaceCorrupt(ctx, profile, key)
	}
	return id, nil
}

// replaceCorrupt overwrites an empty stored identity with a fresh token.
func (p *Provider) replaceCorrupt(ctx context.Context, profile, key string) (string, error) {
	p.logger.Warn("empty identity in storage, replacing",
		logger.String("profile", profile),
		logger.Error(domain.ErrStorageCorrupt))

	id := p.newID()
	if err := p.store.Set(ctx, key, id); err != nil {
		return "", fmt.Errorf("replace identity: %v: %w", err, domain.ErrStorageUnavailable)
	}
	return id, nil
}

// Clear forgets the identity of profile. The next GetIdentity creates a new one.
func (p *Provider) Clear(ctx context.Context, profile string) error {
	if err := p.store.Delete(ctx, kv.ProfileKey(profile, kv.KeyIdentity)); err != nil {
		return fmt.Errorf("clear identity: %v: %w", err, domain.ErrStorageUnavailable)
	}
	p.logger.Info("identity cleared", logger.String("profile", profile))
	return nil
}

// DisplayName renders the public form of an identity: its last three
// characters, uppercased, as "Anonymous #XXX".
func DisplayName(identity string) string {
	r := []rune(identity)
	for len(r) < 3 {
		r = append([]rune{'0'}, r...)
	}
	return displayPrefix + strings.ToUpper(string(r[len(r)-3:]))
}
