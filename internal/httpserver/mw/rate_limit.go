package mw

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/devure/internal/metrics"
	"github.com/MrSnakeDoc/devure/internal/utils"
)

// Rate limit scopes. Each scope owns its buckets, so counting a view never
// spends the reader's browsing budget and the other way around.
const (
	ScopeRead = "read"
	ScopeView = "view"
)

// RateLimitConfig configures one token bucket policy.
type RateLimitConfig struct {
	Scope        string // reported in X-RateLimit-Scope and metrics, defaults to ScopeRead
	Burst        int    // bucket capacity
	RefillPerMin int    // tokens added to a bucket per minute
	MaxEntries   int    // forces a sweep when this many buckets are tracked, 0 = unbounded
	IdleTTL      time.Duration
	TrustProxy   bool // resolve IP from proxy headers when true

	// Key picks the bucket of a request. Nil buckets by client IP.
	Key func(r *http.Request, clientIP string) string

	Metrics metrics.Recorder // counts rejections, optional
	Now     func() time.Time // for testing, defaults to time.Now
}

// PerItem buckets by client IP and content item, so a reader can be counted
// once per page it opens but cannot pump the counter of a single slug.
// Route params are only set once chi matched the route, so this key needs
// the limiter mounted with r.With or inside r.Group.
func PerItem(r *http.Request, clientIP string) string {
	return clientIP + " " + chi.URLParam(r, "kind") + "/" + chi.URLParam(r, "slug")
}

type tokenBucket struct {
	tokens   float64
	updated  time.Time
	lastSeen time.Time
}

// bucketTable holds the buckets of one scope. A single mutex is enough: the
// critical section is a map lookup plus a few float operations.
type bucketTable struct {
	mu        sync.Mutex
	buckets   map[string]*tokenBucket
	perSecond float64
	capacity  float64
	maxKeys   int
	idleTTL   time.Duration
	lastSweep time.Time
}

func newBucketTable(cfg RateLimitConfig, now time.Time) *bucketTable {
	return &bucketTable{
		buckets:   make(map[string]*tokenBucket, 256),
		perSecond: float64(cfg.RefillPerMin) / 60,
		capacity:  float64(cfg.Burst),
		maxKeys:   cfg.MaxEntries,
		idleTTL:   cfg.IdleTTL,
		lastSweep: now,
	}
}

// take spends one token of key. It returns the whole tokens left and, when
// the bucket is empty, how long until the next token.
func (t *bucketTable) take(key string, now time.Time) (left int, wait time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if now.Sub(t.lastSweep) >= t.idleTTL || (t.maxKeys > 0 && len(t.buckets) >= t.maxKeys) {
		t.sweep(now)
	}

	b, ok := t.buckets[key]
	if !ok {
		b = &tokenBucket{tokens: t.capacity, updated: now}
		t.buckets[key] = b
	}
	if dt := now.Sub(b.updated).Seconds(); dt > 0 {
		b.tokens = math.Min(t.capacity, b.tokens+dt*t.perSecond)
		b.updated = now
	}
	b.lastSeen = now

	if b.tokens < 1 {
		secs := math.Ceil((1 - b.tokens) / t.perSecond)
		return 0, time.Duration(math.Max(secs, 1)) * time.Second
	}
	b.tokens--
	return int(b.tokens), 0
}

// sweep forgets buckets idle for longer than idleTTL. Caller holds mu.
func (t *bucketTable) sweep(now time.Time) {
	for key, b := range t.buckets {
		if now.Sub(b.lastSeen) > t.idleTTL {
			delete(t.buckets, key)
		}
	}
	t.lastSweep = now
}

// RateLimit answers 429 once the request's bucket is empty. Every answer
// carries X-RateLimit-Scope, X-RateLimit-Limit and X-RateLimit-Remaining,
// and rejections add Retry-After in seconds.
func RateLimit(cfg RateLimitConfig) func(http.Handler) http.Handler {
	if cfg.Scope == "" {
		cfg.Scope = ScopeRead
	}
	cfg.Burst = max(cfg.Burst, 1)
	cfg.RefillPerMin = max(cfg.RefillPerMin, 1)
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 15 * time.Minute
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Key == nil {
		cfg.Key = func(_ *http.Request, clientIP string) string { return clientIP }
	}

	table := newBucketTable(cfg, cfg.Now())
	limit := strconv.Itoa(cfg.Burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := cfg.Key(r, utils.ClientIP(r, cfg.TrustProxy))
			left, wait := table.take(key, cfg.Now())

			h := w.Header()
			h.Set("X-RateLimit-Scope", cfg.Scope)
			h.Set("X-RateLimit-Limit", limit)
			h.Set("X-RateLimit-Remaining", strconv.Itoa(left))

			if wait > 0 {
				if cfg.Metrics != nil {
					cfg.Metrics.RecordRateLimited(cfg.Scope)
				}
				h.Set("Retry-After", strconv.Itoa(int(wait/time.Second)))
				reject(w, http.StatusTooManyRequests, "rate_limited")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
