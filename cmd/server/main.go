// Command vidhub-server starts the vidhub REST API and its gRPC admin endpoint.
package main

import (
	"context"
	"errors"
	"flag"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/and161185/vidhub/internal/config"
	"github.com/and161185/vidhub/internal/limiter"
	"github.com/and161185/vidhub/internal/migrate"
	"github.com/and161185/vidhub/internal/repository/postgres"
	"github.com/and161185/vidhub/internal/repository/redis"
	grpcserver "github.com/and161185/vidhub/internal/server/grpc"
	httpserver "github.com/and161185/vidhub/internal/server/http"
	"github.com/and161185/vidhub/internal/service"
	"github.com/and161185/vidhub/internal/storage"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

// main loads configuration, runs migrations, and serves HTTP plus the admin gRPC port.
func main() {
	cfgPath := flag.String("config", "", "path to a YAML config file (env VIDHUB_* overrides)")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		// logger is not configured yet
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(2)
	}

	logger := newLogger(cfg.App.IsProduction())
	defer func() { _ = logger.Sync() }()
	logger.Info("starting",
		zap.String("version", version),
		zap.String("buildDate", buildDate),
		zap.String("env", cfg.App.Env),
		zap.String("addr", cfg.App.Addr),
	)

	// Context with OS signals
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := migrate.Up(ctx, cfg.Postgres.DSN); err != nil {
		logger.Fatal("migrate up", zap.Error(err))
	}

	db, err := postgres.New(ctx, cfg.Postgres.DSN)
	if err != nil {
		logger.Fatal("postgres pool", zap.Error(err))
	}
	defer db.Close()

	// Repositories
	users := postgres.NewUserRepo(db)
	videos := postgres.NewVideoRepo(db)
	comments := postgres.NewCommentRepo(db)
	edges := postgres.NewRelationRepo(db)
	playlists := postgres.NewPlaylistRepo(db)

	lim := limiter.Limiter(limiter.NewPG(db.Pool, cfg.Limits.LoginWindow, cfg.Limits.LoginMaxFails, cfg.Limits.LoginBlockFor))
	if cfg.Limits.LoginMaxFails <= 0 {
		lim = limiter.Nop{}
	}

	checks := []grpcserver.Check{{Name: "postgres", Ping: db.Ping}}
	var hits httpserver.HitLimiter
	if cfg.Redis.Addr != "" {
		rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			logger.Fatal("redis", zap.Error(err))
		}
		defer func() { _ = rdb.Close() }()
		hits = redis.NewRateLimitStore(rdb, "vidhub:rl:")
		checks = append(checks, grpcserver.Check{Name: "redis", Ping: pingRedis(rdb)})
	} else {
		logger.Info("redis not configured, auth route limiter disabled")
	}

	files, mediaDir, err := newStorage(ctx, cfg.Storage)
	if err != nil {
		logger.Fatal("storage", zap.Error(err))
	}

	// Services
	tokens := service.NewTokenService(users, service.TokenConfig{
		AccessKey:  []byte(cfg.JWT.AccessSecret),
		RefreshKey: []byte(cfg.JWT.RefreshSecret),
		AccessTTL:  cfg.JWT.AccessTTL,
		RefreshTTL: cfg.JWT.RefreshTTL,
		Leeway:     cfg.JWT.Leeway,
	})
	svc := httpserver.Services{
		Auth:       service.NewAuthService(users, tokens, files, lim, logger),
		Tokens:     tokens,
		Accounts:   service.NewAccountService(users, files, logger),
		Relations:  service.NewRelationService(users, videos, comments, edges),
		Aggregates: service.NewAggregateService(users, videos, playlists, edges),
		Videos:     service.NewVideoService(videos, comments, users, files, logger),
		Playlists:  service.NewPlaylistService(playlists, videos),
	}

	// Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics, err := httpserver.NewMetrics(reg)
	if err != nil {
		logger.Fatal("metrics", zap.Error(err))
	}

	health := grpcserver.NewHealth(logger, 2*time.Second, checks...)
	go health.Run(ctx, cfg.Admin.PingInterval)

	router := httpserver.New(svc, httpserver.Options{
		Log:            logger,
		CookieSecure:   cfg.Cookie.Secure,
		CookieDomain:   cfg.Cookie.Domain,
		AccessTTL:      cfg.JWT.AccessTTL,
		RefreshTTL:     cfg.JWT.RefreshTTL,
		MaxUploadBytes: cfg.App.MaxUploadBytes,
		UploadDir:      cfg.App.UploadDir,
		MediaDir:       mediaDir,
		Limiter:        hits,
		AuthLimit:      cfg.Limits.AuthMaxRequests,
		AuthWindow:     cfg.Limits.AuthWindow,
		Metrics:        metrics,
		MetricsHTTP:    promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
		Ready:          health.Ready,
	}).Router()

	httpSrv := &http.Server{
		Addr:              cfg.App.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 2)
	go func() {
		logger.Info("http listening", zap.String("addr", cfg.App.Addr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var admin *grpc.Server
	if cfg.Admin.Addr != "" {
		lis, err := net.Listen("tcp", cfg.Admin.Addr)
		if err != nil {
			logger.Fatal("admin listen", zap.Error(err))
		}
		admin = grpcserver.New(grpcserver.Options{Log: logger, Health: health, Reflection: !cfg.App.IsProduction()})
		go func() {
			logger.Info("admin grpc listening", zap.String("addr", cfg.Admin.Addr))
			errCh <- admin.Serve(lis)
		}()
	}

	// Wait for stop
	select {
	case <-ctx.Done():
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	if admin != nil {
		stopGRPC(shutdownCtx, admin)
	}
	logger.Info("shutdown complete")
}

func newLogger(production bool) *zap.Logger {
	build := zap.NewDevelopment
	if production {
		build = zap.NewProduction
	}
	logger, err := build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// newStorage returns the file store and, for the fs backend, the directory to serve under /media.
func newStorage(ctx context.Context, cfg config.StorageSettings) (storage.FileStorage, string, error) {
	if cfg.Backend == "s3" {
		s, err := storage.NewS3(ctx, storage.S3Config{
			Bucket:    cfg.S3.Bucket,
			Prefix:    cfg.S3.Prefix,
			PublicURL: cfg.S3.PublicURL,
			Endpoint:  cfg.S3.Endpoint,
		})
		if err != nil {
			return nil, "", err
		}
		return s, "", nil
	}
	fs, err := storage.NewFS(cfg.FS.Dir, cfg.FS.BaseURL)
	if err != nil {
		return nil, "", err
	}
	return fs, fs.Dir(), nil
}

func pingRedis(c *goredis.Client) func(context.Context) error {
	return func(ctx context.Context) error { return c.Ping(ctx).Err() }
}

func stopGRPC(ctx context.Context, s *grpc.Server) {
	done := make(chan struct{})
	go func() {
		s.GracefulStop()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		s.Stop()
	}
}
