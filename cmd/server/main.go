package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/d60-Lab/croak-backend/config"
	"github.com/d60-Lab/croak-backend/internal/api"
	"github.com/d60-Lab/croak-backend/internal/api/handler"
	"github.com/d60-Lab/croak-backend/internal/cachestat"
	"github.com/d60-Lab/croak-backend/internal/mailer"
	"github.com/d60-Lab/croak-backend/internal/repository"
	"github.com/d60-Lab/croak-backend/internal/service"
	"github.com/d60-Lab/croak-backend/pkg/database"
	"github.com/d60-Lab/croak-backend/pkg/logger"
	"github.com/d60-Lab/croak-backend/pkg/tracer"
)

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func main() {
	cfg := must(config.Load())
	if err := logger.Init(cfg.Log.Level); err != nil {
		panic(err)
	}
	defer logger.Sync()

	if cfg.Mailer.CronSecret == "" {
		logger.Warn("mailer.cron_secret is empty, cron endpoints will reject all callers")
	}

	if cfg.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: cfg.Sentry.DSN}); err != nil {
			logger.Fatal("init sentry", zap.Error(err))
		}
		defer sentry.Flush(2 * time.Second)
	}

	ctx := context.Background()
	shutdownTracer := must(tracer.Init(ctx, "croak-backend", cfg.Trace.Endpoint))
	defer func() { _ = shutdownTracer(ctx) }()

	db := must(database.InitDB(cfg))
	if err := database.Migrate(db); err != nil {
		logger.Fatal("migrate database", zap.Error(err))
	}

	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			// 统计缓存可降级，不阻塞启动
			logger.Warn("redis unreachable, stats caching disabled", zap.Error(err))
			rdb = nil
		}
	}

	// repositories
	queueRepo := repository.NewEmailQueueRepository(db, cfg.Mailer.MaxRetries)
	prefRepo := repository.NewPreferenceRepository(db)
	activityRepo := repository.NewActivityRepository(db)
	followRepo := repository.NewFollowRepository(db)
	userRepo := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db)
	notifRepo := repository.NewNotificationRepository(db)

	// services
	transport := mailer.NewHTTPTransport(cfg.Mailer.ServiceURL, cfg.Mailer.SendTimeout)
	mailSvc := service.NewMailService(queueRepo, prefRepo)
	dispatcher := service.NewDispatcher(queueRepo, userRepo, transport,
		cfg.Mailer.RatePerSecond, cfg.Mailer.StaleThreshold)
	digestSvc := service.NewDigestService(activityRepo, prefRepo, mailSvc)
	notifySvc := service.NewNotifyService(notifRepo, userRepo, mailSvc)
	relSvc := service.NewRelationshipService(followRepo, userRepo, notifySvc)
	postSvc := service.NewPostService(postRepo, userRepo, notifySvc)
	statsCache := cachestat.New(queueRepo, rdb, cfg.Mailer.StatsCacheTTL)

	h := handler.New(cfg, dispatcher, digestSvc, relSvc, postSvc, queueRepo, prefRepo, userRepo, statsCache)
	router := api.NewRouter(cfg, h)

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		logger.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
}
