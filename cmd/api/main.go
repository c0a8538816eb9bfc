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

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/gyh/gyh-api/api/swagger"
	"github.com/gyh/gyh-api/internal/handler"
	"github.com/gyh/gyh-api/internal/middleware"
	"github.com/gyh/gyh-api/internal/repository"
	"github.com/gyh/gyh-api/internal/service"
	"github.com/gyh/gyh-api/pkg/cache"
	"github.com/gyh/gyh-api/pkg/config"
	"github.com/gyh/gyh-api/pkg/database"
	"github.com/gyh/gyh-api/pkg/jobs"
	"github.com/gyh/gyh-api/pkg/logger"
	corsmiddleware "github.com/gyh/gyh-api/pkg/middleware/cors"
	ratelimit "github.com/gyh/gyh-api/pkg/middleware/ratelimit"
	reqidmiddleware "github.com/gyh/gyh-api/pkg/middleware/requestid"
	"github.com/gyh/gyh-api/pkg/storage"
	"github.com/gyh/gyh-api/pkg/timeutil"
)

const shutdownTimeout = 10 * time.Second

// @title GyH API
// @version 1.0.0
// @description Numbered Jake image store and the nail studio directory.
// @BasePath /api
// @schemes http

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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logr); err != nil {
		logr.Fatal("server failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logr *zap.Logger) error {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}
	loc := timeutil.LoadLocation(cfg.Timezone)

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()
	if err := database.EnsureSchema(ctx, db); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}

	metrics := service.NewMetricsService()

	var redisClient *redis.Client
	if cfg.Cache.Enabled {
		redisClient, err = cache.NewRedis(ctx, cfg.Redis, 5*time.Second)
		if err != nil {
			logr.Warn("redis unavailable, running without cache", zap.Error(err))
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}
	cacheSvc := service.NewCacheService(repository.NewCacheRepository(redisClient), metrics, cfg.Cache.TTL, logr, redisClient != nil)

	images, err := storage.NewLocalStorage(cfg.Jake.ImagesFolder)
	if err != nil {
		return fmt.Errorf("prepare images folder: %w", err)
	}
	slotRepo := repository.NewImageSlotRepository(images, cfg.Jake.AllowedExtensions, cfg.Jake.MaxImageNumber)
	jakeSvc := service.NewJakeService(slotRepo, cfg.Jake, metrics, logr)

	studioRepo := repository.NewNailStudioRepository(db, metrics)
	studioSvc := service.NewNailStudioService(studioRepo, cacheSvc, cfg.Studios, loc, nil, logr)
	exportSvc := service.NewExportService(studioSvc, cfg.Studios, loc, logr, nil)

	if cacheSvc.Enabled() {
		warmer := jobs.NewQueue("cache-warmer", studioSvc.WarmCache, jobs.QueueConfig{
			Workers:    1,
			BufferSize: 4,
			MaxRetries: 2,
			RetryDelay: 2 * time.Second,
			Logger:     logr,
		})
		warmer.Start(ctx)
		defer warmer.Stop()
		studioSvc.SetCacheWarmer(warmer)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics, "/metrics"))
	r.MaxMultipartMemory = cfg.Jake.MaxUploadSize

	limiter := ratelimit.New(cfg.RateLimit.PerSecond, cfg.RateLimit.Burst, logr)
	if limiter.Enabled() {
		go limiter.Run(ctx, 5*time.Minute)
	}

	handler.RegisterRoutes(r, cfg.APIPrefix,
		handler.NewMetricsHandler(metrics, db, loc),
		handler.NewJakeHandler(jakeSvc),
		handler.NewNailStudioHandler(studioSvc),
		handler.NewExportHandler(exportSvc),
		limiter.Middleware(),
	)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env), zap.String("images", images.Dir()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
