// Package server wires configuration, storage and services into the running
// API process and supervises its long-running parts.
package server

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/foodable/internal/dbx"
	"github.com/dmitrijs2005/foodable/internal/logging"
	"github.com/dmitrijs2005/foodable/internal/server/auth"
	"github.com/dmitrijs2005/foodable/internal/server/config"
	"github.com/dmitrijs2005/foodable/internal/server/httpapi"
	"github.com/dmitrijs2005/foodable/internal/server/jobs"
	"github.com/dmitrijs2005/foodable/internal/server/ratelimit"
	"github.com/dmitrijs2005/foodable/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/foodable/internal/server/services"
	"github.com/dmitrijs2005/foodable/internal/server/storage"
	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"
	"github.com/thejerf/suture/v4"

	gs "github.com/dmitrijs2005/foodable/internal/server/grpc"
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sqlx.DB
	repos  *repomanager.SQLRepositoryManager
	redis  *redis.Client
	api    *httpapi.Server
}

// NewLogger builds the process logger from cfg.
func NewLogger(cfg *config.Config) logging.Logger {
	return logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format}).
		With("service", "foodable-api", "environment", cfg.Environment)
}

// OpenDatabase connects to the configured database and applies pending
// migrations.
func OpenDatabase(ctx context.Context, cfg *config.Config, logger logging.Logger) (*sqlx.DB, *repomanager.SQLRepositoryManager, error) {
	db, err := dbx.Open(ctx, cfg.Database(), logger)
	if err != nil {
		return nil, nil, fmt.Errorf("db init error: %w", err)
	}

	repos := repomanager.NewSQLRepositoryManager(db.DriverName(), cfg.DB.SlowQuery, logger)
	if err := repos.RunMigrations(ctx, db.DB); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("migrations failed: %w", err)
	}
	logger.Info(ctx, "database schema up to date", "dialect", repos.Dialect())

	return db, repos, nil
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := NewLogger(c)

	db, repos, err := OpenDatabase(ctx, c, logger)
	if err != nil {
		return nil, err
	}

	app := &App{config: c, logger: logger, db: db, repos: repos}

	tokens := auth.NewTokenIssuer(c.JWT.Secret, c.JWT.RefreshSecret, c.JWT.ExpiresIn, c.JWT.RefreshExpiresIn)
	hasher := auth.NewHasher(c.BcryptRounds)

	deps := httpapi.Deps{
		Auth:      services.NewAuthService(db, repos, tokens, hasher, logger),
		Users:     services.NewUsersService(db, repos, logger),
		Donations: services.NewDonationsService(db, repos, logger),
		Health:    services.NewHealthService(db, c.Environment, c.APIVersion),
		Tokens:    tokens,
		Logger:    logger,
	}

	if c.S3.Enabled {
		store := storage.NewS3ImageStore(storage.Config{
			Bucket:    c.S3.Bucket,
			Region:    c.S3.Region,
			Endpoint:  c.S3.Endpoint,
			AccessKey: c.S3.AccessKey,
			SecretKey: c.S3.SecretKey,
			PublicURL: c.S3.PublicURL,
		})
		deps.Images = services.NewImagesService(store, logger)
	}

	if c.RateLimit.Store == ratelimit.StoreRedis {
		app.redis = redis.NewClient(&redis.Options{
			Addr:     c.Redis.Addr,
			Password: c.Redis.Password,
			DB:       c.Redis.DB,
		})
		apiCounter := ratelimit.NewRedisCounter(app.redis, logger, ratelimit.RedisOptions{KeyPrefix: "foodable:rl:api"})
		if err := apiCounter.Ping(ctx); err != nil {
			logger.Warn(ctx, "redis unreachable, rate limits fall back to memory", "addr", c.Redis.Addr, "error", err)
		}
		deps.APICounter = apiCounter
		deps.AuthCounter = ratelimit.NewRedisCounter(app.redis, logger, ratelimit.RedisOptions{KeyPrefix: "foodable:rl:auth"})
	}

	app.api = httpapi.New(c, deps)
	return app, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// supervisor builds the service tree: HTTP API, gRPC health and cron jobs.
func (app *App) supervisor() (*suture.Supervisor, error) {
	sup := suture.New("foodable", suture.Spec{
		EventHook: eventHook(app.logger),
		Timeout:   app.config.ShutdownTimeout,
	})

	sup.Add(newHTTPService(app.api.NewHTTPServer(), app.config.ShutdownTimeout))

	if app.config.GRPCHealthAddr != "" {
		sup.Add(gs.NewHealthServer(app.config.GRPCHealthAddr, app.db, 0, app.logger))
	}

	if app.config.TokenPurgeSchedule != "" {
		scheduler := jobs.NewScheduler(app.logger)
		if err := scheduler.AddTokenPurge(app.config.TokenPurgeSchedule, app.repos.RefreshTokens(app.db)); err != nil {
			return nil, err
		}
		sup.Add(scheduler)
	}

	return sup, nil
}

// Run blocks until a termination signal arrives or ctx is cancelled.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "addr", app.config.Addr(), "api_version", app.config.APIVersion)

	app.initSignalHandler(cancelFunc)

	sup, err := app.supervisor()
	if err != nil {
		app.close(ctx)
		return err
	}

	err = sup.Serve(ctx)
	app.close(ctx)

	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	app.logger.Info(ctx, "Server stopped")
	return nil
}

func (app *App) close(ctx context.Context) {
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Warn(ctx, "redis close failed", "error", err)
		}
	}
	if err := app.db.Close(); err != nil {
		app.logger.Warn(ctx, "database close failed", "error", err)
	}
}
