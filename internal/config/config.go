package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	// Corpus and engagement
	DBPath          string        // path to the SQLite database holding rants and likes
	SeedFile        string        // optional yaml seed file (empty = seeding disabled)
	ReloadInterval  time.Duration // interval to reload the corpus into memory (default: 10m)
	GCInterval      time.Duration // interval to run garbage collection (default: 24h)
	GCThreshold     time.Duration // hidden rants older than this are purged (default: 30 days)
	RemoteTimeout   time.Duration // timeout for every relational store call (default: 5s)
	LikeStatusTTL   time.Duration // how long a cached like state is trusted (default: 30s)
	SearchThreshold float64       // fuzzy score cutoff, lower = stricter (default: 0.4)

	// Mood classifier
	MoodAPIURL     string        // optional classifier endpoint (empty = tagging disabled)
	MoodAPITimeout time.Duration // per-request timeout (default: 3s)
	MoodAPIRPS     float64       // outbound requests per second (default: 2)

	// Write endpoints rate limit
	RateLimitPerMinute int // sustained writes per minute per client (default: 30)
	RateLimitBurst     int // burst size (default: 10)

	// Redis
	RedisAddr             string        // ex: "localhost:6379"
	RedisUser             string        // optional
	RedisPassword         string        // optional
	RedisPasswordRequired bool          // true => require password, false => allow empty password
	RedisDB               int           // Redis DB number
	RedisDT               time.Duration // Redis dial timeout (ex: 5s)
	RedisRT               time.Duration // Redis read timeout (ex: 3s)
	RedisWT               time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait          time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout      time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize         int           // Redis connection pool size
	RedisConnectTimeout   time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval    time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
	RedisWarnThreshold    int           // warn after this many attempts
	ProfileTTL            time.Duration // expiry of per-profile keys (default: 365 days)

	AllowedHosts []string // optional, restrict admin routes to specific Host headers
	AllowedCIDRS []string // optional, restrict admin routes to specific IPs/CIDRs
	TrustProxy   bool     // true => trust X-Forwarded-For headers
}

func Load() *Config {
	cfg := &Config{
		// Server settings
		ListenPort:      getenv("RANT_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("RANT_SHUTDOWN_TIMEOUT", 5*time.Second),

		// Logging
		LogLevel:  getenv("RANT_LOG_LEVEL", "info"),
		PrettyLog: mustBool("RANT_PRETTY_LOG", true),

		// Corpus and engagement
		DBPath:          getenv("RANT_DB_PATH", "/app/data/rant.db"),
		SeedFile:        getenv("RANT_SEED_FILE", ""),
		ReloadInterval:  mustDuration("RANT_RELOAD_INTERVAL", 10*time.Minute),
		GCInterval:      mustDuration("RANT_GC_INTERVAL", 24*time.Hour),
		GCThreshold:     mustDuration("RANT_GC_THRESHOLD", 30*24*time.Hour),
		RemoteTimeout:   mustDuration("RANT_REMOTE_TIMEOUT", 5*time.Second),
		LikeStatusTTL:   mustDuration("RANT_LIKE_STATUS_TTL", 30*time.Second),
		SearchThreshold: getenvFloat("RANT_SEARCH_THRESHOLD", 0.4),

		// Mood classifier
		MoodAPIURL:     getenv("RANT_MOOD_API_URL", ""),
		MoodAPITimeout: mustDuration("RANT_MOOD_API_TIMEOUT", 3*time.Second),
		MoodAPIRPS:     getenvFloat("RANT_MOOD_API_RPS", 2),

		// Rate limit
		RateLimitPerMinute: getenvInt("RANT_RATE_LIMIT_PER_MINUTE", 30),
		RateLimitBurst:     getenvInt("RANT_RATE_LIMIT_BURST", 10),

		// Redis settings
		RedisAddr:             requireEnv("RANT_REDIS_ADDR"),
		RedisUser:             getenv("RANT_REDIS_USERNAME", "default"),
		RedisPasswordRequired: mustBool("RANT_REDIS_PASSWORD_REQUIRED", true),
		RedisPassword:         getenv("RANT_REDIS_PASSWORD", ""),
		RedisDB:               requireEnvInt("RANT_REDIS_DB"),
		RedisDT:               mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:               mustDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:               mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:          mustDuration("REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:      mustDuration("REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:         getenvInt("REDIS_POOL_SIZE", 10),
		RedisConnectTimeout:   mustDuration("REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:    mustDuration("REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisWarnThreshold:    getenvInt("REDIS_WARN_THRESHOLD", 3),
		ProfileTTL:            mustDuration("RANT_PROFILE_TTL", 365*24*time.Hour),

		// Access restrictions
		AllowedHosts: splitAndTrim(getenv("RANT_ALLOWED_HOSTS", "")),
		AllowedCIDRS: parseAllowedIPs(getenv("RANT_ALLOWED_CIDRS", "")),
		TrustProxy:   mustBool("RANT_TRUST_PROXY", false),
	}

	// Validate Redis password configuration
	if cfg.RedisPasswordRequired && cfg.RedisPassword == "" {
		panic("❌ FATAL: RANT_REDIS_PASSWORD is required when RANT_REDIS_PASSWORD_REQUIRED=true")
	}

	if cfg.SearchThreshold <= 0 || cfg.SearchThreshold > 1 {
		panic(fmt.Sprintf("❌ FATAL: RANT_SEARCH_THRESHOLD must be in (0, 1], got %v", cfg.SearchThreshold))
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		cfgCopy := *cfg
		cfgCopy.RedisPassword = "***REDACTED***"
		if cfg.RedisUser != "" {
			cfgCopy.RedisUser = "***REDACTED***"
		}
		log.Printf("[DEBUG] cfg: %+v\n", cfgCopy)
	}

	return cfg
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func requireEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	return v
}

func requireEnvInt(key string) int {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		panic(fmt.Sprintf("❌ FATAL: Invalid integer value for %s: %s", key, v))
	}
	return i
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getenvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func parseAllowedIPs(allowed string) []string {
	if allowed == "" {
		return nil
	}
	ips := make([]string, 0, 4)
	for _, ip := range splitAndTrim(allowed) {
		if ip != "" {
			ips = append(ips, ip)
		}
	}
	return ips
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
