package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	BackendCloud  = "cloud"  // MongoDB + S3 (+ optional Redis)
	BackendMemory = "memory" // everything in-process, for local development
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s
	RequestTimeout  time.Duration // per-request deadline
	MaxBodyBytes    int64         // upper bound for JSON bodies and asset uploads

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	Backend string // BackendCloud | BackendMemory

	// MongoDB
	MongoURI                    string
	MongoDatabase               string
	MongoAppName                string
	MongoMaxPoolSize            uint64
	MongoServerSelectionTimeout time.Duration
	MongoConnectTimeout         time.Duration // total time to retry connecting
	MongoRetryInterval          time.Duration // initial wait between retries, grows exponentially
	MongoMaxWait                time.Duration // max wait between retries
	MongoPingTimeout            time.Duration // timeout for each ping attempt
	MongoWarnThreshold          int           // warn after this many connect attempts

	// S3
	S3Bucket          string
	S3Region          string
	S3Endpoint        string // optional, S3-compatible providers
	S3AccessKeyID     string // optional, default credential chain otherwise
	S3SecretAccessKey string
	S3UsePathStyle    bool
	S3PublicBaseURL   string // optional, CDN in front of the bucket

	// Object key prefixes per kind
	BlogPrefix    string
	ProjectPrefix string
	ServicePrefix string
	AssetPrefix   string

	// Redis (optional, empty address disables view tracking)
	RedisAddr           string        // ex: "localhost:6379"
	RedisUser           string        // optional
	RedisPassword       string        // optional
	RedisDB             int           // Redis DB number
	RedisDT             time.Duration // Redis dial timeout (ex: 5s)
	RedisRT             time.Duration // Redis read timeout (ex: 3s)
	RedisWT             time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait        time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout    time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize       int           // Redis connection pool size
	RedisConnectTimeout time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval  time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
	RedisWarnThreshold  int           // warn after this many attempts
	HTMLCacheTTL        time.Duration // lifetime of cached rendered bodies

	AllowedHosts []string // optional, restrict admin access to specific Host headers
	AllowedCIDRS []string // optional, restrict admin access to specific IP (e.g. "1.2.3.4, 10.0.0.0/8")
	TrustProxy   bool     // true => trust X-Forwarded-For headers (e.g. cloudflared)

	RateLimitBurst      int // public read API token bucket size per IP
	RateLimitRefill     int // read tokens per IP per minute
	ViewRateLimitBurst  int // view counting bucket size per IP and item
	ViewRateLimitRefill int // view tokens per IP and item per minute

	// Feeds
	SiteTitle       string
	SiteDescription string
	SiteBaseURL     string
	SiteAuthor      string
	FeedLimit       int

	SeedFile      string        // optional YAML imported at startup
	SweepInterval time.Duration // 0 disables the orphan sweeper
	SweepGrace    time.Duration // minimum blob age before it can be swept
}

func Load() *Config {
	cfg := &Config{
		// Server settings
		ListenPort:      getenv("DEVURE_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("DEVURE_SHUTDOWN_TIMEOUT", 5*time.Second),
		RequestTimeout:  mustDuration("DEVURE_REQUEST_TIMEOUT", 15*time.Second),
		MaxBodyBytes:    int64(getenvInt("DEVURE_MAX_BODY_BYTES", 10<<20)),

		// Logging
		LogLevel:  getenv("DEVURE_LOG_LEVEL", "info"),
		PrettyLog: mustBool("DEVURE_PRETTY_LOG", false),

		Backend: strings.ToLower(getenv("DEVURE_BACKEND", BackendCloud)),

		// Mongo settings
		MongoURI:                    getenv("DEVURE_MONGO_URI", ""),
		MongoDatabase:               getenv("DEVURE_MONGO_DATABASE", "devure"),
		MongoAppName:                getenv("DEVURE_MONGO_APP_NAME", "devure"),
		MongoMaxPoolSize:            uint64(getenvInt("DEVURE_MONGO_MAX_POOL_SIZE", 20)),
		MongoServerSelectionTimeout: mustDuration("DEVURE_MONGO_SERVER_SELECTION_TIMEOUT", 5*time.Second),
		MongoConnectTimeout:         mustDuration("DEVURE_MONGO_CONNECT_TIMEOUT", 30*time.Second),
		MongoRetryInterval:          mustDuration("DEVURE_MONGO_RETRY_INTERVAL", 2*time.Second),
		MongoMaxWait:                mustDuration("DEVURE_MONGO_MAX_WAIT", 10*time.Second),
		MongoPingTimeout:            mustDuration("DEVURE_MONGO_PING_TIMEOUT", 5*time.Second),
		MongoWarnThreshold:          getenvInt("DEVURE_MONGO_WARN_THRESHOLD", 3),

		// S3 settings
		S3Bucket:          getenv("DEVURE_S3_BUCKET", ""),
		S3Region:          getenv("DEVURE_S3_REGION", "us-east-1"),
		S3Endpoint:        getenv("DEVURE_S3_ENDPOINT", ""),
		S3AccessKeyID:     getenv("DEVURE_S3_ACCESS_KEY_ID", ""),
		S3SecretAccessKey: getenv("DEVURE_S3_SECRET_ACCESS_KEY", ""),
		S3UsePathStyle:    mustBool("DEVURE_S3_USE_PATH_STYLE", false),
		S3PublicBaseURL:   getenv("DEVURE_S3_PUBLIC_BASE_URL", ""),

		BlogPrefix:    getenv("DEVURE_S3_PREFIX_BLOG", "mdx"),
		ProjectPrefix: getenv("DEVURE_S3_PREFIX_PROJECT", "projects"),
		ServicePrefix: getenv("DEVURE_S3_PREFIX_SERVICE", "services"),
		AssetPrefix:   getenv("DEVURE_S3_PREFIX_ASSETS", "images"),

		// Redis settings
		RedisAddr:           getenv("DEVURE_REDIS_ADDR", ""),
		RedisUser:           getenv("DEVURE_REDIS_USERNAME", ""),
		RedisPassword:       getenv("DEVURE_REDIS_PASSWORD", ""),
		RedisDB:             getenvInt("DEVURE_REDIS_DB", 0),
		RedisDT:             mustDuration("DEVURE_REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:             mustDuration("DEVURE_REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:             mustDuration("DEVURE_REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:        mustDuration("DEVURE_REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:    mustDuration("DEVURE_REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:       getenvInt("DEVURE_REDIS_POOL_SIZE", 10),
		RedisConnectTimeout: mustDuration("DEVURE_REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:  mustDuration("DEVURE_REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisWarnThreshold:  getenvInt("DEVURE_REDIS_WARN_THRESHOLD", 3),
		HTMLCacheTTL:        mustDuration("DEVURE_HTML_CACHE_TTL", 24*time.Hour),

		// Access restrictions
		AllowedHosts: splitAndTrim(getenv("DEVURE_ALLOWED_HOSTS", "")),
		AllowedCIDRS: parseAllowedIPs(getenv("DEVURE_ALLOWED_CIDRS", "")),
		TrustProxy:   mustBool("DEVURE_TRUST_PROXY", false),

		RateLimitBurst:      getenvInt("DEVURE_RATE_LIMIT_BURST", 60),
		RateLimitRefill:     getenvInt("DEVURE_RATE_LIMIT_REFILL", 120),
		ViewRateLimitBurst:  getenvInt("DEVURE_VIEW_RATE_LIMIT_BURST", 3),
		ViewRateLimitRefill: getenvInt("DEVURE_VIEW_RATE_LIMIT_REFILL", 2),

		// Feeds
		SiteTitle:       getenv("DEVURE_SITE_TITLE", "Devure"),
		SiteDescription: getenv("DEVURE_SITE_DESCRIPTION", ""),
		SiteBaseURL:     strings.TrimRight(getenv("DEVURE_SITE_BASE_URL", "http://localhost:8080"), "/"),
		SiteAuthor:      getenv("DEVURE_SITE_AUTHOR", ""),
		FeedLimit:       getenvInt("DEVURE_FEED_LIMIT", 20),

		SeedFile:      getenv("DEVURE_SEED_FILE", ""),
		SweepInterval: mustDuration("DEVURE_SWEEP_INTERVAL", 6*time.Hour),
		SweepGrace:    mustDuration("DEVURE_SWEEP_GRACE", 24*time.Hour),
	}

	switch cfg.Backend {
	case BackendCloud:
		// required only when the cloud backend is selected
		cfg.MongoURI = requireEnv("DEVURE_MONGO_URI")
		cfg.S3Bucket = requireEnv("DEVURE_S3_BUCKET")
	case BackendMemory:
	default:
		panic(fmt.Sprintf("❌ FATAL: DEVURE_BACKEND must be %q or %q, got %q", BackendCloud, BackendMemory, cfg.Backend))
	}

	if cfg.S3AccessKeyID != "" && cfg.S3SecretAccessKey == "" {
		panic("❌ FATAL: DEVURE_S3_SECRET_ACCESS_KEY is required when DEVURE_S3_ACCESS_KEY_ID is set")
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		log.Printf("[DEBUG] cfg: %+v\n", cfg.Redacted())
	}

	return cfg
}

// Redacted returns a copy safe to print.
func (c *Config) Redacted() Config {
	cp := *c
	const mask = "***REDACTED***"
	if cp.MongoURI != "" {
		cp.MongoURI = mask
	}
	if cp.S3SecretAccessKey != "" {
		cp.S3SecretAccessKey = mask
	}
	if cp.RedisPassword != "" {
		cp.RedisPassword = mask
	}
	if cp.RedisUser != "" {
		cp.RedisUser = mask
	}
	return cp
}

// ViewsEnabled reports whether a Redis address was configured.
func (c *Config) ViewsEnabled() bool { return c.RedisAddr != "" }

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

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
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
