package config

import (
	"reflect"
	"testing"
	"time"
)

// setBaseEnv sets the variables Load refuses to start without.
func setBaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("RANT_REDIS_ADDR", "localhost:6379")
	t.Setenv("RANT_REDIS_DB", "0")
	t.Setenv("RANT_REDIS_PASSWORD_REQUIRED", "false")
}

func TestLoadDefaults(t *testing.T) {
	setBaseEnv(t)

	cfg := Load()

	if cfg.DBPath != "/app/data/rant.db" {
		t.Errorf("DBPath = %q, want /app/data/rant.db", cfg.DBPath)
	}
	if cfg.SeedFile != "" || cfg.MoodAPIURL != "" {
		t.Errorf("optional features enabled by default: seed=%q mood=%q", cfg.SeedFile, cfg.MoodAPIURL)
	}
	if cfg.SearchThreshold != 0.4 {
		t.Errorf("SearchThreshold = %v, want 0.4", cfg.SearchThreshold)
	}
	if cfg.ProfileTTL != 365*24*time.Hour {
		t.Errorf("ProfileTTL = %v, want 365 days", cfg.ProfileTTL)
	}
	if cfg.LikeStatusTTL != 30*time.Second {
		t.Errorf("LikeStatusTTL = %v, want 30s", cfg.LikeStatusTTL)
	}
	if cfg.RemoteTimeout != 5*time.Second {
		t.Errorf("RemoteTimeout = %v, want 5s", cfg.RemoteTimeout)
	}
	if cfg.RateLimitPerMinute != 30 || cfg.RateLimitBurst != 10 {
		t.Errorf("rate limit = %d/%d, want 30/10", cfg.RateLimitPerMinute, cfg.RateLimitBurst)
	}
	if !cfg.PrettyLog || cfg.TrustProxy {
		t.Errorf("PrettyLog = %v TrustProxy = %v, want true/false", cfg.PrettyLog, cfg.TrustProxy)
	}
	if cfg.AllowedCIDRS != nil || cfg.AllowedHosts != nil {
		t.Errorf("access lists = %v/%v, want nil", cfg.AllowedCIDRS, cfg.AllowedHosts)
	}
}

func TestLoadSearchThreshold(t *testing.T) {
	tests := []struct {
		name      string
		value     string
		expected  float64
		wantPanic bool
	}{
		{name: "fraction", value: "0.25", expected: 0.25},
		{name: "upper bound is allowed", value: "1", expected: 1},
		{name: "unparsable falls back to default", value: "strict", expected: 0.4},
		{name: "above one", value: "1.5", wantPanic: true},
		{name: "zero", value: "0", wantPanic: true},
		{name: "negative", value: "-0.2", wantPanic: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setBaseEnv(t)
			t.Setenv("RANT_SEARCH_THRESHOLD", tt.value)

			if tt.wantPanic {
				defer func() {
					if r := recover(); r == nil {
						t.Errorf("Load() should have panicked for RANT_SEARCH_THRESHOLD=%s", tt.value)
					}
				}()
			}

			cfg := Load()
			if !tt.wantPanic && cfg.SearchThreshold != tt.expected {
				t.Errorf("SearchThreshold = %v, want %v", cfg.SearchThreshold, tt.expected)
			}
		})
	}
}

func TestLoadDurations(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		value    string
		get      func(*Config) time.Duration
		expected time.Duration
	}{
		{
			name:     "profile ttl",
			key:      "RANT_PROFILE_TTL",
			value:    "720h",
			get:      func(c *Config) time.Duration { return c.ProfileTTL },
			expected: 720 * time.Hour,
		},
		{
			name:     "profile ttl invalid keeps default",
			key:      "RANT_PROFILE_TTL",
			value:    "a year",
			get:      func(c *Config) time.Duration { return c.ProfileTTL },
			expected: 365 * 24 * time.Hour,
		},
		{
			name:     "like status ttl",
			key:      "RANT_LIKE_STATUS_TTL",
			value:    "2m",
			get:      func(c *Config) time.Duration { return c.LikeStatusTTL },
			expected: 2 * time.Minute,
		},
		{
			name:     "remote timeout",
			key:      "RANT_REMOTE_TIMEOUT",
			value:    "750ms",
			get:      func(c *Config) time.Duration { return c.RemoteTimeout },
			expected: 750 * time.Millisecond,
		},
		{
			name:     "gc threshold",
			key:      "RANT_GC_THRESHOLD",
			value:    "48h",
			get:      func(c *Config) time.Duration { return c.GCThreshold },
			expected: 48 * time.Hour,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setBaseEnv(t)
			t.Setenv(tt.key, tt.value)

			if got := tt.get(Load()); got != tt.expected {
				t.Errorf("%s=%s gave %v, want %v", tt.key, tt.value, got, tt.expected)
			}
		})
	}
}

func TestLoadBools(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		value    string
		get      func(*Config) bool
		expected bool
	}{
		{name: "pretty log off", key: "RANT_PRETTY_LOG", value: "false", get: func(c *Config) bool { return c.PrettyLog }, expected: false},
		{name: "pretty log invalid keeps default", key: "RANT_PRETTY_LOG", value: "nope", get: func(c *Config) bool { return c.PrettyLog }, expected: true},
		{name: "trust proxy", key: "RANT_TRUST_PROXY", value: "1", get: func(c *Config) bool { return c.TrustProxy }, expected: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setBaseEnv(t)
			t.Setenv(tt.key, tt.value)

			if got := tt.get(Load()); got != tt.expected {
				t.Errorf("%s=%s gave %v, want %v", tt.key, tt.value, got, tt.expected)
			}
		})
	}
}

func TestLoadAccessLists(t *testing.T) {
	tests := []struct {
		name  string
		cidrs string
		hosts string
		want  []string
		host  []string
	}{
		{
			name:  "cidrs and bare ips",
			cidrs: "10.0.0.0/8, 127.0.0.1",
			want:  []string{"10.0.0.0/8", "127.0.0.1"},
		},
		{
			name:  "quoted entries and empty fields",
			cidrs: ` "192.168.0.0/16" ,, '::1' `,
			want:  []string{"192.168.0.0/16", "::1"},
		},
		{
			name:  "hosts",
			hosts: "rant.example.com,admin.rant.example.com",
			host:  []string{"rant.example.com", "admin.rant.example.com"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setBaseEnv(t)
			t.Setenv("RANT_ALLOWED_CIDRS", tt.cidrs)
			t.Setenv("RANT_ALLOWED_HOSTS", tt.hosts)

			cfg := Load()
			if !reflect.DeepEqual(cfg.AllowedCIDRS, tt.want) {
				t.Errorf("AllowedCIDRS = %v, want %v", cfg.AllowedCIDRS, tt.want)
			}
			if !reflect.DeepEqual(cfg.AllowedHosts, tt.host) {
				t.Errorf("AllowedHosts = %v, want %v", cfg.AllowedHosts, tt.host)
			}
		})
	}
}

func TestLoadRedis(t *testing.T) {
	t.Run("explicit settings", func(t *testing.T) {
		setBaseEnv(t)
		t.Setenv("RANT_REDIS_DB", "2")
		t.Setenv("REDIS_POOL_SIZE", "25")

		cfg := Load()
		if cfg.RedisAddr != "localhost:6379" || cfg.RedisDB != 2 || cfg.RedisPoolSize != 25 {
			t.Errorf("redis settings = %q/%d/%d", cfg.RedisAddr, cfg.RedisDB, cfg.RedisPoolSize)
		}
	})

	panics := []struct {
		name string
		set  func(t *testing.T)
	}{
		{
			name: "missing address",
			set: func(t *testing.T) {
				t.Setenv("RANT_REDIS_ADDR", "")
			},
		},
		{
			name: "non-numeric db",
			set: func(t *testing.T) {
				t.Setenv("RANT_REDIS_DB", "zero")
			},
		},
		{
			name: "password required but empty",
			set: func(t *testing.T) {
				t.Setenv("RANT_REDIS_PASSWORD_REQUIRED", "true")
				t.Setenv("RANT_REDIS_PASSWORD", "")
			},
		},
	}

	for _, tt := range panics {
		t.Run(tt.name, func(t *testing.T) {
			setBaseEnv(t)
			tt.set(t)

			defer func() {
				if r := recover(); r == nil {
					t.Errorf("Load() should have panicked")
				}
			}()
			Load()
		})
	}
}
