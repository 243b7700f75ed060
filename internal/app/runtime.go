package app

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/MrSnakeDoc/devure/internal/config"
	"github.com/MrSnakeDoc/devure/internal/connect"
	"github.com/MrSnakeDoc/devure/internal/content"
	"github.com/MrSnakeDoc/devure/internal/domain"
	"github.com/MrSnakeDoc/devure/internal/httpserver/deps"
	"github.com/MrSnakeDoc/devure/internal/logger"
	"github.com/MrSnakeDoc/devure/internal/metrics"
	"github.com/MrSnakeDoc/devure/internal/mongo"
	"github.com/MrSnakeDoc/devure/internal/objectstore"
	objmemory "github.com/MrSnakeDoc/devure/internal/objectstore/memory"
	"github.com/MrSnakeDoc/devure/internal/objectstore/s3"
	"github.com/MrSnakeDoc/devure/internal/redis"
	"github.com/MrSnakeDoc/devure/internal/store/memory"
	mongostore "github.com/MrSnakeDoc/devure/internal/store/mongo"
	redisstore "github.com/MrSnakeDoc/devure/internal/store/redis"
)

// bodyExt is the stored body format of each kind.
var bodyExt = map[domain.Kind]string{
	domain.KindBlog:    "mdx",
	domain.KindProject: "html",
	domain.KindService: "html",
}

// Runtime holds the stores and services shared by every command.
type Runtime struct {
	Config     *config.Config
	Logger     logger.Logger
	Registry   *prometheus.Registry
	Metrics    *metrics.Collector
	Objects    objectstore.Store
	Content    map[domain.Kind]*content.Service
	Assets     *content.Assets
	Views      *redisstore.ViewStore // nil when Redis is not configured
	HTML       *redisstore.HTMLCache // nil when Redis is not configured
	Components []deps.Component

	closers []func(context.Context) error
}

// Open connects the configured backend and builds one content service per
// kind. Connection failures of required stores are fatal, a Redis failure
// only disables view tracking.
func Open(ctx context.Context, cfg *config.Config, log logger.Logger) (*Runtime, error) {
	rt := &Runtime{
		Config:   cfg,
		Logger:   log,
		Registry: metrics.NewRegistry(),
		Content:  make(map[domain.Kind]*content.Service, len(domain.Kinds)),
	}
	rt.Metrics = metrics.NewCollector(rt.Registry)

	repos, objects, err := rt.openStores(ctx)
	if err != nil {
		rt.Close(context.Background())
		return nil, err
	}
	rt.Objects = objectstore.Instrument(objects, rt.Metrics)

	if cfg.ViewsEnabled() {
		rt.openViews(ctx)
	}

	prefixes := map[domain.Kind]string{
		domain.KindBlog:    cfg.BlogPrefix,
		domain.KindProject: cfg.ProjectPrefix,
		domain.KindService: cfg.ServicePrefix,
	}
	var html content.HTMLCache
	if rt.HTML != nil {
		html = rt.HTML
	}
	for _, kind := range domain.Kinds {
		rt.Content[kind] = content.NewService(content.Options{
			Kind:     kind,
			Prefix:   prefixes[kind],
			Ext:      bodyExt[kind],
			Repo:     repos[kind],
			Objects:  rt.Objects,
			Logger:   log,
			Metrics:  rt.Metrics,
			HTML:     html,
			OnDelete: rt.dropViews,
		})
	}
	rt.Assets = content.NewAssets(rt.Objects, cfg.AssetPrefix, log)

	return rt, nil
}

// Services returns the content services in display order.
func (rt *Runtime) Services() []*content.Service {
	out := make([]*content.Service, 0, len(domain.Kinds))
	for _, kind := range domain.Kinds {
		out = append(out, rt.Content[kind])
	}
	return out
}

// Close releases every connection opened by Open, newest first.
func (rt *Runtime) Close(ctx context.Context) {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](ctx); err != nil {
			rt.Logger.Warn("failed to close backend connection", logger.Error(err))
		}
	}
	rt.closers = nil
}

func (rt *Runtime) openStores(ctx context.Context) (map[domain.Kind]content.Repository, objectstore.Store, error) {
	cfg := rt.Config
	repos := make(map[domain.Kind]content.Repository, len(domain.Kinds))

	if cfg.Backend == config.BackendMemory {
		rt.Logger.Warn("memory backend selected, content is lost on restart")
		for _, kind := range domain.Kinds {
			repos[kind] = memory.NewRepository(kind)
		}
		objects := objmemory.New("memory", cfg.S3Region, cfg.S3PublicBaseURL)
		rt.Components = append(rt.Components,
			deps.Component{Name: "repository", Pinger: repos[domain.KindBlog], Required: true},
			deps.Component{Name: "objects", Pinger: objects, Required: true},
		)
		return repos, objects, nil
	}

	rt.Logger.Info("connecting to MongoDB", logger.String("database", cfg.MongoDatabase))
	client, db, err := mongo.New(ctx, mongo.ConnectOptions{
		URI:                    cfg.MongoURI,
		Database:               cfg.MongoDatabase,
		AppName:                cfg.MongoAppName,
		MaxPoolSize:            cfg.MongoMaxPoolSize,
		ServerSelectionTimeout: cfg.MongoServerSelectionTimeout,
		Retry:                  mongoRetryPolicy(cfg),
	}, rt.Logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	rt.closers = append(rt.closers, client.Disconnect)

	for _, kind := range domain.Kinds {
		repo := mongostore.NewRepository(db, kind)
		if err := repo.EnsureIndexes(ctx); err != nil {
			return nil, nil, fmt.Errorf("failed to ensure %s indexes: %w", kind.Plural(), err)
		}
		repos[kind] = repo
	}

	objects, err := s3.New(ctx, s3.Options{
		Bucket:          cfg.S3Bucket,
		Region:          cfg.S3Region,
		Endpoint:        cfg.S3Endpoint,
		AccessKeyID:     cfg.S3AccessKeyID,
		SecretAccessKey: cfg.S3SecretAccessKey,
		UsePathStyle:    cfg.S3UsePathStyle,
		PublicBaseURL:   cfg.S3PublicBaseURL,
	}, rt.Logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to configure s3: %w", err)
	}
	if err := objects.Ping(ctx); err != nil {
		return nil, nil, fmt.Errorf("s3 bucket %q unreachable: %w", cfg.S3Bucket, err)
	}

	rt.Components = append(rt.Components,
		deps.Component{Name: "mongo", Pinger: repos[domain.KindBlog], Required: true},
		deps.Component{Name: "s3", Pinger: objects, Required: true},
	)
	return repos, objects, nil
}

func (rt *Runtime) openViews(ctx context.Context) {
	cfg := rt.Config
	rt.Logger.Infof("Connecting to Redis at %s", cfg.RedisAddr)
	client, err := redis.New(ctx, redis.ConnectOptions{
		Addr:         cfg.RedisAddr,
		User:         cfg.RedisUser,
		Password:     cfg.RedisPassword,
		RedisDB:      cfg.RedisDB,
		DialTimeout:  cfg.RedisDT,
		ReadTimeout:  cfg.RedisRT,
		WriteTimeout: cfg.RedisWT,
		PoolSize:     cfg.RedisPoolSize,
		Retry:        redisRetryPolicy(cfg),
	}, rt.Logger)
	if err != nil {
		rt.Logger.Warn("redis unavailable, view tracking and html cache disabled", logger.Error(err))
		return
	}
	rt.closers = append(rt.closers, func(context.Context) error { return client.Close() })

	rt.Views = redisstore.NewViewStore(client)
	rt.HTML = redisstore.NewHTMLCache(client, cfg.HTMLCacheTTL)
	rt.Components = append(rt.Components, deps.Component{Name: "redis", Pinger: rt.Views})
	rt.Logger.Info("Redis initialized successfully")
}

func (rt *Runtime) dropViews(ctx context.Context, item *domain.Item) {
	if rt.Views == nil {
		return
	}
	if err := rt.Views.Drop(ctx, item.Kind, item.Slug()); err != nil {
		rt.Logger.Warn("failed to drop view counter",
			logger.String("kind", string(item.Kind)),
			logger.String("slug", item.Slug()),
			logger.Error(err))
	}
}

func mongoRetryPolicy(cfg *config.Config) connect.Policy {
	return connect.Policy{
		ConnectTimeout: cfg.MongoConnectTimeout,
		RetryInterval:  cfg.MongoRetryInterval,
		MaxWait:        cfg.MongoMaxWait,
		PingTimeout:    cfg.MongoPingTimeout,
		WarnThreshold:  cfg.MongoWarnThreshold,
	}
}

func redisRetryPolicy(cfg *config.Config) connect.Policy {
	return connect.Policy{
		ConnectTimeout: cfg.RedisConnectTimeout,
		RetryInterval:  cfg.RedisRetryInterval,
		MaxWait:        cfg.RedisMaxWait,
		PingTimeout:    cfg.RedisPingTimeout,
		WarnThreshold:  cfg.RedisWarnThreshold,
	}
}
