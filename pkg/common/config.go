package common

import (
	"math"
	"os"
	"strconv"
	"time"
)

// Config holds the service's runtime configuration, populated entirely from
// environment variables at process start. There is no config file: every
// deployment-specific value is supplied by the environment.
type Config struct {
	// ListenAddr is the address the HTTP server binds to.
	ListenAddr string

	// NVDAPIKey is sent as the "apiKey" header to the NVD API when set,
	// raising the caller's rate limit.
	NVDAPIKey string

	// LogLevel is one of debug, info, warn, error.
	LogLevel string
	// RemoteLogURL is read from REMOTE_LOG_URL; no log shipping uses it.
	RemoteLogURL string

	// CaptchaEnabled toggles Turnstile-style CAPTCHA verification on the
	// enrichment endpoint.
	CaptchaEnabled bool
	CaptchaSiteKey string
	CaptchaSecret  string

	// KEVRefreshInterval is how often the KEV scheduler refreshes the
	// catalog. Overridable by KEV_REFRESH_INTERVAL_HOURS; falls back to
	// DefaultKEVRefreshInterval silently on a non-numeric or non-positive value.
	KEVRefreshInterval time.Duration
	// KEVSchedulerDisabled is the scheduler kill-switch.
	KEVSchedulerDisabled bool
	// KEVCachePath is where the compact KEV snapshot is persisted.
	KEVCachePath string
	// KEVFallbackPath is the bundled fallback KEV JSON used when no cache exists.
	KEVFallbackPath string
	// KEVFeedURL is the upstream CISA KEV catalog endpoint.
	KEVFeedURL string

	// ExploitDBPath is the bundled ExploitDB index JSON.
	ExploitDBPath string
	// ALParamsPath is the AL parameter table JSON, keyed by category.
	ALParamsPath string

	// InternalRefreshSecret must match the x-cron-secret header on
	// /api/internal/refresh-kev requests.
	InternalRefreshSecret string

	// CacheTTL and CacheCapacity bound the response LRU cache.
	CacheTTL      time.Duration
	CacheCapacity int

	// RateLimitPerHour is the sliding-window per-client-IP request budget.
	RateLimitPerHour int
}

// Configuration defaults. Environment variables may override all of them
// except DefaultCacheTTL and DefaultCacheCapacity, which are always used.
const (
	DefaultListenAddr         = ":8080"
	DefaultLogLevel           = "info"
	DefaultKEVRefreshInterval = 6 * time.Hour
	DefaultKEVCachePath       = "data/kev_cache.db"
	DefaultKEVFallbackPath    = "data/kev_fallback.json"
	DefaultKEVFeedURL         = "https://www.cisa.gov/sites/default/files/feeds/known_exploited_vulnerabilities.json"
	DefaultExploitDBPath      = "data/exploitdb.json"
	DefaultALParamsPath       = "data/al_params.json"
	DefaultCacheTTL           = 24 * time.Hour
	DefaultCacheCapacity      = 2000
	DefaultRateLimitPerHour   = 120
)

// LoadConfig reads the service configuration from the process environment.
func LoadConfig() *Config {
	cfg := &Config{
		ListenAddr:            getEnvOr("SECSCORE_LISTEN_ADDR", DefaultListenAddr),
		NVDAPIKey:             os.Getenv("NVD_API_KEY"),
		LogLevel:              getEnvOr("LOG_LEVEL", DefaultLogLevel),
		RemoteLogURL:          os.Getenv("REMOTE_LOG_URL"),
		CaptchaEnabled:        getEnvBool("CAPTCHA_ENABLED", false),
		CaptchaSiteKey:        os.Getenv("CAPTCHA_SITE_KEY"),
		CaptchaSecret:         os.Getenv("CAPTCHA_SECRET_KEY"),
		KEVRefreshInterval:    getEnvHours("KEV_REFRESH_INTERVAL_HOURS", DefaultKEVRefreshInterval),
		KEVSchedulerDisabled:  getEnvBool("KEV_SCHEDULER_DISABLED", false),
		KEVCachePath:          getEnvOr("KEV_CACHE_PATH", DefaultKEVCachePath),
		KEVFallbackPath:       getEnvOr("KEV_FALLBACK_PATH", DefaultKEVFallbackPath),
		KEVFeedURL:            getEnvOr("KEV_FEED_URL", DefaultKEVFeedURL),
		ExploitDBPath:         getEnvOr("EXPLOITDB_PATH", DefaultExploitDBPath),
		ALParamsPath:          getEnvOr("AL_PARAMS_PATH", DefaultALParamsPath),
		InternalRefreshSecret: os.Getenv("INTERNAL_REFRESH_SECRET"),
		CacheTTL:              DefaultCacheTTL,
		CacheCapacity:         DefaultCacheCapacity,
		RateLimitPerHour:      getEnvInt("RATE_LIMIT_PER_HOUR", DefaultRateLimitPerHour),
	}
	return cfg
}

func getEnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

// getEnvHours parses an environment variable as a positive, finite number of
// hours. Non-numeric or non-positive values fall back silently, per the KEV
// scheduler's invariant.
func getEnvHours(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	hours, err := strconv.ParseFloat(v, 64)
	if err != nil || hours <= 0 || math.IsInf(hours, 0) || math.IsNaN(hours) {
		return fallback
	}
	return time.Duration(hours * float64(time.Hour))
}
