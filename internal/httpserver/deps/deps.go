package deps

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/MrSnakeDoc/devure/internal/content"
	"github.com/MrSnakeDoc/devure/internal/domain"
	"github.com/MrSnakeDoc/devure/internal/feed"
	"github.com/MrSnakeDoc/devure/internal/logger"
	"github.com/MrSnakeDoc/devure/internal/metrics"
	redisstore "github.com/MrSnakeDoc/devure/internal/store/redis"
)

// Pinger is anything whose reachability can be probed.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Component is a backing service reported by /readyz and /api/admin/infra.
// A failing Required component makes the instance not ready.
type Component struct {
	Name     string
	Pinger   Pinger
	Required bool
}

type Deps struct {
	Logger              logger.Logger
	StartTime           time.Time
	Version             string
	Commit              string
	BuildDate           string
	GoVersion           string
	TimeNow             func() time.Time // for testing, defaults to time.Now
	AllowedHosts        []string         // Host headers allowed to access admin routes
	AllowedCIDRS        []string         // IPs allowed to access admin, readyz and metrics endpoints
	TrustProxy          bool             // true if running behind a trusted reverse proxy (e.g., cloudflared)
	RequestTimeout      time.Duration    // per-request deadline
	MaxBodyBytes        int64            // request body limit for JSON and uploads
	RateLimitBurst      int              // public read bucket size per IP
	RateLimitRefill     int              // read tokens per IP per minute
	ViewRateLimitBurst  int              // view counting bucket size per IP and item
	ViewRateLimitRefill int              // view tokens per IP and item per minute
	Backend             string           // "cloud" | "memory"

	Content map[domain.Kind]*content.Service // one service per kind
	Assets  *content.Assets
	Views   *redisstore.ViewStore // nil when Redis is not configured
	HTML    *redisstore.HTMLCache // nil when Redis is not configured
	Feed    feed.Options

	SeedTrigger chan struct{} // nil when no seed file is configured
	Components  []Component

	Registry *prometheus.Registry // exposed on /metrics, nil disables the endpoint
	Metrics  metrics.Recorder
}

// Now returns d.TimeNow() or time.Now().
func (d Deps) Now() time.Time {
	if d.TimeNow != nil {
		return d.TimeNow()
	}
	return time.Now()
}
