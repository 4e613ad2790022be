package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/rant/internal/config"
	"github.com/MrSnakeDoc/rant/internal/domain"
	"github.com/MrSnakeDoc/rant/internal/engagement"
	"github.com/MrSnakeDoc/rant/internal/httpserver"
	"github.com/MrSnakeDoc/rant/internal/httpserver/deps"
	"github.com/MrSnakeDoc/rant/internal/identity"
	"github.com/MrSnakeDoc/rant/internal/index"
	"github.com/MrSnakeDoc/rant/internal/logger"
	"github.com/MrSnakeDoc/rant/internal/moodtag"
	"github.com/MrSnakeDoc/rant/internal/redis"
	"github.com/MrSnakeDoc/rant/internal/scheduler"
	redisstore "github.com/MrSnakeDoc/rant/internal/store/redis"
	"github.com/MrSnakeDoc/rant/internal/store/sqlite"
	"github.com/MrSnakeDoc/rant/internal/version"
)

type App struct {
	cfg          *config.Config
	logger       logger.Logger
	server       *httpserver.Server
	redisClient  *goredis.Client
	rantStore    *sqlite.Store
	corpus       *scheduler.CorpusReloader
	seedReloader *scheduler.SeedReloader
	gc           *scheduler.GarbageCollector
}

// New loads the configuration from the environment and wires every component.
func New() (*App, error) {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	// Initialize Redis early - fail fast if unavailable
	loggerClient.Infof("Connecting to Redis at %s", cfg.RedisAddr)
	redisClient, err := redis.New(redis.ConnectOptions{
		Addr:           cfg.RedisAddr,
		User:           cfg.RedisUser,
		Password:       cfg.RedisPassword,
		RedisDB:        cfg.RedisDB,
		DialTimeout:    cfg.RedisDT,
		ReadTimeout:    cfg.RedisRT,
		WriteTimeout:   cfg.RedisWT,
		PoolSize:       cfg.RedisPoolSize,
		ConnectTimeout: cfg.RedisConnectTimeout,
		RetryInterval:  cfg.RedisRetryInterval,
		MaxWait:        cfg.RedisMaxWait,
		PingTimeout:    cfg.RedisPingTimeout,
		WarnThreshold:  cfg.RedisWarnThreshold,
	}, loggerClient)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	loggerClient.Info("Redis initialized successfully")

	// Relational store: rants and like records
	rantStore, err := sqlite.New(cfg.DBPath)
	if err != nil {
		_ = redisClient.Close()
		return nil, fmt.Errorf("failed to open rant store: %w", err)
	}
	loggerClient.Info("rant store opened", logger.String("path", cfg.DBPath))

	memIndex := index.NewMemoryIndex()
	searcher := domain.NewSearcher(domain.DefaultVocabulary(), cfg.SearchThreshold)

	// Per-profile local storage
	profiles := redisstore.NewStore(redisClient).WithTTL(cfg.ProfileTTL)
	identities := identity.NewProvider(profiles, loggerClient)
	bookmarks := engagement.NewBookmarks(profiles, loggerClient)
	likes := engagement.NewLikes(rantStore, identities, loggerClient, engagement.LikesOptions{
		RemoteTimeout: cfg.RemoteTimeout,
		StatusTTL:     cfg.LikeStatusTTL,
	})

	moodTagger := moodtag.New(moodtag.Options{
		Endpoint: cfg.MoodAPIURL,
		Timeout:  cfg.MoodAPITimeout,
		RPS:      cfg.MoodAPIRPS,
	})
	if moodTagger.Available() {
		loggerClient.Info("mood classifier enabled", logger.String("url", cfg.MoodAPIURL))
	} else {
		loggerClient.Info("mood classifier not configured, rants are tagged only when a mood is supplied")
	}

	// Create manual reload trigger channel
	reloadTrigger := make(chan struct{}, 1)

	corpus := scheduler.NewCorpusReloader(
		rantStore,
		memIndex,
		loggerClient,
		cfg.ReloadInterval,
		reloadTrigger,
	)

	// Initialize seed reloader (if a seed file is configured)
	var seedReloader *scheduler.SeedReloader
	var seedReloadTrigger chan struct{}
	if cfg.SeedFile != "" {
		loggerClient.Info("seed file configured, initializing seed reloader",
			logger.String("file", cfg.SeedFile))
		seedReloadTrigger = make(chan struct{}, 1)
		seedReloader = scheduler.NewSeedReloader(
			cfg.SeedFile,
			rantStore,
			searcher,
			corpus,
			loggerClient,
			cfg.ReloadInterval,
			seedReloadTrigger,
		)
	} else {
		loggerClient.Info("seed file not configured, using the default mood vocabulary")
	}

	gc := scheduler.NewGarbageCollector(
		rantStore,
		memIndex,
		likes,
		loggerClient,
		cfg.GCInterval,
		cfg.GCThreshold,
	)

	d := deps.Deps{
		Logger:             loggerClient,
		StartTime:          time.Now(),
		Version:            version.Version,
		Commit:             version.Commit,
		BuildDate:          version.BuildDate,
		GoVersion:          version.GoVersion,
		TimeNow:            time.Now,
		AllowedHosts:       cfg.AllowedHosts,
		AllowedCIDRS:       cfg.AllowedCIDRS,
		TrustProxy:         cfg.TrustProxy,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		RateLimitBurst:     cfg.RateLimitBurst,
		RequestTimeout:     cfg.RemoteTimeout + time.Second,
		RedisClient:        redisClient,
		Profiles:           profiles,
		RantStore:          rantStore,
		MemoryIndex:        memIndex,
		Searcher:           searcher,
		Identities:         identities,
		Bookmarks:          bookmarks,
		Likes:              likes,
		MoodTagger:         moodTagger,
		ReloadTrigger:      reloadTrigger,
		SeedReloadTrigger:  seedReloadTrigger,
	}

	server := httpserver.New(cfg, loggerClient, d)

	return &App{
		cfg:          cfg,
		logger:       loggerClient,
		server:       server,
		redisClient:  redisClient,
		rantStore:    rantStore,
		corpus:       corpus,
		seedReloader: seedReloader,
		gc:           gc,
	}, nil
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting rant %s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Info(version.Get().String())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer a.close()

	// Import the seed before the first corpus load so it is visible at once.
	if a.seedReloader != nil {
		if err := a.seedReloader.Start(ctx); err != nil {
			return fmt.Errorf("failed to start seed reloader: %w", err)
		}
		a.logger.Info("seed reloader started",
			logger.Duration("interval", a.cfg.ReloadInterval))
	}

	if err := a.corpus.Start(ctx); err != nil {
		return fmt.Errorf("failed to start corpus reloader: %w", err)
	}
	a.logger.Info("corpus reloader started",
		logger.Duration("interval", a.cfg.ReloadInterval))

	if err := a.gc.Start(ctx); err != nil {
		return fmt.Errorf("failed to start garbage collector: %w", err)
	}
	a.logger.Info("garbage collector started",
		logger.Duration("interval", a.cfg.GCInterval))

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	a.logger.Info("✅ rant stopped cleanly")
	return nil
}

// close stops the schedulers, then releases the stores.
func (a *App) close() {
	if a.seedReloader != nil {
		a.seedReloader.Stop()
	}
	a.corpus.Stop()
	a.gc.Stop()

	if err := a.rantStore.Close(); err != nil {
		a.logger.Warnf("failed to close rant store: %v", err)
	}
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warnf("failed to close redis: %v", err)
		} else {
			a.logger.Info("✅ Redis closed cleanly")
		}
	}
	_ = a.logger.Sync()
}
