package deps

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/rant/internal/domain"
	"github.com/MrSnakeDoc/rant/internal/engagement"
	"github.com/MrSnakeDoc/rant/internal/identity"
	"github.com/MrSnakeDoc/rant/internal/index"
	"github.com/MrSnakeDoc/rant/internal/logger"
	"github.com/MrSnakeDoc/rant/internal/moodtag"
)

// RantStore is the relational store as seen by the handlers.
type RantStore interface {
	domain.RantRepository
	Ping(ctx context.Context) error
}

// ProfileCounter reports how many profiles hold an identity.
type ProfileCounter interface {
	CountProfiles(ctx context.Context) (int, error)
}

type Deps struct {
	Logger             logger.Logger
	StartTime          time.Time
	Version            string
	Commit             string
	BuildDate          string
	GoVersion          string
	TimeNow            func() time.Time   // for testing, defaults to time.Now
	AllowedHosts       []string           // Host headers allowed to reach admin routes
	AllowedCIDRS       []string           // IPs allowed to reach infra and admin routes
	TrustProxy         bool               // true if running behind a trusted reverse proxy
	RateLimitPerMinute int                // sustained writes per minute per profile
	RateLimitBurst     int                // write burst per profile
	RequestTimeout     time.Duration      // per-request timeout for non-streaming routes
	RedisClient        *redis.Client      // profile storage connection (nil = in-memory)
	Profiles           ProfileCounter     // stored profile statistics (nil = unknown)
	RantStore          RantStore          // relational store of rants and likes
	MemoryIndex        *index.MemoryIndex // visible corpus
	Searcher           *domain.Searcher   // search pipeline and live mood vocabulary
	Identities         *identity.Provider // profile -> identity token
	Bookmarks          *engagement.Bookmarks
	Likes              *engagement.Likes
	MoodTagger         *moodtag.Client // optional classifier (nil or unavailable = disabled)
	ReloadTrigger      chan struct{}   // manual corpus reload
	SeedReloadTrigger  chan struct{}   // manual seed import (nil if no seed file)
}

// Now returns the current time through TimeNow when set.
func (d Deps) Now() time.Time {
	if d.TimeNow != nil {
		return d.TimeNow()
	}
	return time.Now()
}
