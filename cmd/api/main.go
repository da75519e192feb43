package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/weprep-api/internal/handler"
	"github.com/noah-isme/weprep-api/internal/repository"
	"github.com/noah-isme/weprep-api/internal/service"
	"github.com/noah-isme/weprep-api/pkg/cache"
	"github.com/noah-isme/weprep-api/pkg/config"
	"github.com/noah-isme/weprep-api/pkg/database"
	"github.com/noah-isme/weprep-api/pkg/jobs"
	"github.com/noah-isme/weprep-api/pkg/logger"
	"github.com/noah-isme/weprep-api/pkg/messaging"
)

// @title WePrep API
// @version 1.0.0
// @description Course lifecycle service of the WePrep tutoring marketplace
// @BasePath /
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if err := run(cfg, logr); err != nil {
		logr.Fatal("api stopped with error", zap.Error(err))
	}
}

func run(cfg *config.Config, logr *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(db, cfg.Database); err != nil {
			return err
		}
		logr.Info("database migrations applied", zap.String("path", cfg.Database.MigrationsPath))
	}

	redisClient := connectRedis(ctx, cfg, logr)
	if redisClient != nil {
		defer redisClient.Close()
	}

	producer, err := messaging.NewProducer(cfg.Kafka)
	if err != nil {
		return err
	}
	defer producer.Close()

	metrics := service.NewMetricsService()
	dispatcher := service.NewEventDispatcher(producer, metrics, jobs.QueueConfig{
		Workers:    cfg.Events.Workers,
		BufferSize: cfg.Events.BufferSize,
		MaxRetries: cfg.Events.MaxRetries,
		RetryDelay: cfg.Events.RetryDelay,
	}, logr.Named("events"))
	// Delivery outlives the signal context so Stop can drain what was accepted before shutdown.
	dispatcher.Start(context.Background())

	courses := buildCourseService(cfg, db, redisClient, dispatcher, metrics, logr)
	checks := map[string]handler.ReadinessCheck{"postgres": db.PingContext}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}

	router := newRouter(cfg, logr, routerDeps{
		tokens:   service.NewTokenService(cfg.JWT.Secret),
		metrics:  metrics,
		courses:  handler.NewCourseHandler(courses),
		requests: handler.NewTeachingRequestHandler(courses),
		health:   handler.NewMetricsHandler(metrics, checks),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logr.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		err := srv.Shutdown(shutdownCtx)
		if drainErr := dispatcher.Stop(shutdownCtx); drainErr != nil {
			logr.Warn("event queue not fully drained", zap.Error(drainErr))
		}
		return err
	})

	return g.Wait()
}

func buildCourseService(
	cfg *config.Config,
	db *sqlx.DB,
	redisClient *redis.Client,
	publisher repository.EventPublisher,
	metrics *service.MetricsService,
	logr *zap.Logger,
) *service.CourseService {
	uowFactory := repository.NewUnitOfWorkFactory(db, publisher, logr.Named("uow"))
	begin := func(ctx context.Context) (service.UnitOfWork, error) {
		uow, err := uowFactory.Begin(ctx)
		if err != nil {
			return nil, err
		}
		return uow, nil
	}

	var cacheRepo service.CourseCacheRepository
	if redisClient != nil {
		cacheRepo = repository.NewCacheRepository(redisClient, logr)
	}
	courseCache := service.NewCacheService(cacheRepo, metrics, cfg.Cache.CourseTTL, logr.Named("cache"), cfg.Cache.Enabled && redisClient != nil)

	return service.NewCourseService(
		begin,
		repository.NewCourseRepository(db),
		repository.NewTeachingRequestRepository(db),
		courseCache,
		metrics,
		validator.New(),
		logr.Named("courses"),
	)
}

// connectRedis returns nil when caching is disabled or Redis is unreachable; the API then serves reads from Postgres.
func connectRedis(ctx context.Context, cfg *config.Config, logr *zap.Logger) *redis.Client {
	if !cfg.Cache.Enabled {
		return nil
	}
	client, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, course cache disabled", zap.Error(err))
		return nil
	}
	return client
}
