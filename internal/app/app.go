package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MrSnakeDoc/devure/internal/config"
	"github.com/MrSnakeDoc/devure/internal/feed"
	"github.com/MrSnakeDoc/devure/internal/httpserver"
	"github.com/MrSnakeDoc/devure/internal/httpserver/deps"
	"github.com/MrSnakeDoc/devure/internal/logger"
	"github.com/MrSnakeDoc/devure/internal/scheduler"
	"github.com/MrSnakeDoc/devure/internal/version"
)

// feedPathPrefix is where the site renders blog posts, ex: /blog/{slug}.
const feedPathPrefix = "blog"

type App struct {
	cfg     *config.Config
	logger  logger.Logger
	runtime *Runtime
	server  *httpserver.Server
	seeder  *scheduler.SeedImporter
	sweeper *scheduler.OrphanSweeper
}

// New wires the backend, the background jobs and the HTTP server.
func New(ctx context.Context, cfg *config.Config, log logger.Logger) (*App, error) {
	rt, err := Open(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	var (
		seeder      *scheduler.SeedImporter
		seedTrigger chan struct{}
	)
	if cfg.SeedFile != "" {
		log.Info("seed file configured, initializing seed importer",
			logger.String("file", cfg.SeedFile))
		seedTrigger = make(chan struct{}, 1)
		seeder = scheduler.NewSeedImporter(cfg.SeedFile, rt.Content, rt.Metrics, log, seedTrigger)
	} else {
		log.Info("seed file not configured, seed import disabled")
	}

	sweeper := scheduler.NewOrphanSweeper(rt.Services(), rt.Metrics, log, cfg.SweepInterval, cfg.SweepGrace, false)

	d := deps.Deps{
		Logger:              log,
		StartTime:           time.Now(),
		Version:             version.Version,
		Commit:              version.Commit,
		BuildDate:           version.BuildDate,
		GoVersion:           version.GoVersion,
		TimeNow:             time.Now,
		AllowedHosts:        cfg.AllowedHosts,
		AllowedCIDRS:        cfg.AllowedCIDRS,
		TrustProxy:          cfg.TrustProxy,
		RequestTimeout:      cfg.RequestTimeout,
		MaxBodyBytes:        cfg.MaxBodyBytes,
		RateLimitBurst:      cfg.RateLimitBurst,
		RateLimitRefill:     cfg.RateLimitRefill,
		ViewRateLimitBurst:  cfg.ViewRateLimitBurst,
		ViewRateLimitRefill: cfg.ViewRateLimitRefill,
		Backend:             cfg.Backend,
		Content:             rt.Content,
		Assets:              rt.Assets,
		Views:               rt.Views,
		HTML:                rt.HTML,
		Feed: feed.Options{
			Title:       cfg.SiteTitle,
			Description: cfg.SiteDescription,
			BaseURL:     cfg.SiteBaseURL,
			PathPrefix:  feedPathPrefix,
			AuthorName:  cfg.SiteAuthor,
			Limit:       cfg.FeedLimit,
		},
		SeedTrigger: seedTrigger,
		Components:  rt.Components,
		Registry:    rt.Registry,
		Metrics:     rt.Metrics,
	}

	return &App{
		cfg:     cfg,
		logger:  log,
		runtime: rt,
		server:  httpserver.New(cfg, log, d),
		seeder:  seeder,
		sweeper: sweeper,
	}, nil
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting Devure v%s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Infof("Devure %s (commit=%s, built=%s, go=%s, backend=%s)",
		version.Version, version.Commit, version.BuildDate, version.GoVersion, a.cfg.Backend)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer a.runtime.Close(context.Background())

	if a.seeder != nil {
		if err := a.seeder.Start(ctx); err != nil {
			return fmt.Errorf("failed to start seed importer: %w", err)
		}
		a.logger.Info("seed importer started")
	}

	if err := a.sweeper.Start(ctx); err != nil {
		return fmt.Errorf("failed to start orphan sweeper: %w", err)
	}
	a.logger.Info("orphan sweeper started",
		logger.Duration("interval", a.cfg.SweepInterval),
		logger.Duration("grace", a.cfg.SweepGrace))

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

	if a.seeder != nil {
		a.seeder.Stop()
	}
	a.sweeper.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	a.logger.Info("✅ Devure stopped cleanly")
	return nil
}
