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
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/seam-events-api/api/swagger"
	"github.com/noah-isme/seam-events-api/internal/handler"
	internalmiddleware "github.com/noah-isme/seam-events-api/internal/middleware"
	"github.com/noah-isme/seam-events-api/internal/repository"
	"github.com/noah-isme/seam-events-api/internal/service"
	"github.com/noah-isme/seam-events-api/internal/store"
	"github.com/noah-isme/seam-events-api/pkg/cache"
	"github.com/noah-isme/seam-events-api/pkg/config"
	"github.com/noah-isme/seam-events-api/pkg/database"
	"github.com/noah-isme/seam-events-api/pkg/kv"
	"github.com/noah-isme/seam-events-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/seam-events-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/seam-events-api/pkg/middleware/requestid"
)

// @title Seam Events API
// @version 1.0.0
// @description Campus event registration: accounts, events and join requests.
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	checks := map[string]handler.ReadinessCheck{}

	var redisClient *redis.Client
	if cfg.Store.Backend == config.BackendRedis || cfg.Cache.Enabled {
		redisClient, err = cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Fatal("failed to connect redis", zap.Error(err))
		}
		defer redisClient.Close() //nolint:errcheck
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}

	backend, err := openBackend(ctx, cfg, logr, redisClient, checks)
	if err != nil {
		logr.Fatal("failed to open store backend", zap.String("backend", cfg.Store.Backend), zap.Error(err))
	}

	metricsSvc := service.NewMetricsService()
	dataStore := store.New(backend, store.Options{
		KeyPrefix: cfg.Store.KeyPrefix,
		Latency:   cfg.Store.Latency,
		Logger:    logr,
		Observer:  metricsSvc,
	})
	defer dataStore.Close() //nolint:errcheck

	var cacheSvc *service.CacheService
	if cfg.Cache.Enabled {
		cacheRepo := repository.NewCacheRepository(redisClient, cfg.Store.KeyPrefix+"cache", logr)
		cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Cache.TTL, logr, true)
	}

	validate := validator.New()
	authSvc := service.NewAuthService(dataStore, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
		BcryptCost:        cfg.Store.BcryptCost,
	})
	eventSvc := service.NewEventService(dataStore, cacheSvc, validate, logr, service.EventConfig{
		CascadeRequestDelete: cfg.Store.CascadeRequestDelete,
	})
	requestSvc := service.NewJoinRequestService(dataStore, cacheSvc, validate, logr, service.JoinRequestConfig{
		EnforceCapacity: cfg.Store.EnforceCapacity,
	})
	rosterSvc := service.NewRosterService(dataStore, logr)
	maintenanceSvc := service.NewMaintenanceService(dataStore, cacheSvc, logr, cfg.Store.BcryptCost)

	if cfg.Store.Seed {
		if err := seedStore(ctx, maintenanceSvc, logr); err != nil {
			logr.Fatal("failed to seed data store", zap.Error(err))
		}
	}

	routes := handler.Routes{
		Auth:         handler.NewAuthHandler(authSvc),
		Events:       handler.NewEventHandler(eventSvc, rosterSvc),
		Requests:     handler.NewJoinRequestHandler(requestSvc),
		Authenticate: internalmiddleware.JWT(authSvc),
	}
	if cfg.Admin.ResetEnabled {
		routes.Admin = handler.NewAdminHandler(maintenanceSvc)
	}
	metricsHandler := handler.NewMetricsHandler(metricsSvc, checks)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS))
	r.Use(internalmiddleware.Metrics(metricsSvc))
	r.Use(internalmiddleware.WithResponseMeta())

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	api := r.Group(cfg.APIPrefix)
	api.GET("/metrics/summary", metricsHandler.Summary)
	routes.Register(api)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "backend", cfg.Store.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}

type seeder interface {
	Seed(ctx context.Context) (service.SeedResult, error)
}

func seedStore(ctx context.Context, svc seeder, logr *zap.Logger) error {
	result, err := svc.Seed(ctx)
	if err != nil {
		return err
	}
	logr.Info("data store seeded", zap.Bool("users", result.Users), zap.Bool("events", result.Events))
	return nil
}

func openBackend(ctx context.Context, cfg *config.Config, logr *zap.Logger, redisClient *redis.Client, checks map[string]handler.ReadinessCheck) (kv.Store, error) {
	switch cfg.Store.Backend {
	case config.BackendMemory, "":
		return kv.NewMemoryStore(), nil
	case config.BackendFile:
		return kv.NewFileStore(cfg.Store.Dir)
	case config.BackendRedis:
		return kv.NewRedisStore(redisClient), nil
	case config.BackendPostgres:
		db, err := database.NewPostgres(ctx, cfg.Database, logr)
		if err != nil {
			return nil, err
		}
		backend := kv.NewPostgresStore(db)
		if err := backend.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
		checks["postgres"] = func(ctx context.Context) error { return db.PingContext(ctx) }
		return backend, nil
	case config.BackendS3:
		return kv.NewS3Store(ctx, cfg.S3, logr)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}
