package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/opencenters/catalog-api/api/swagger"
	"github.com/opencenters/catalog-api/internal/handler"
	"github.com/opencenters/catalog-api/internal/middleware"
	"github.com/opencenters/catalog-api/internal/repository"
	"github.com/opencenters/catalog-api/internal/service"
	"github.com/opencenters/catalog-api/internal/store"
	"github.com/opencenters/catalog-api/pkg/config"
	"github.com/opencenters/catalog-api/pkg/geocode"
	"github.com/opencenters/catalog-api/pkg/logger"
	corsmiddleware "github.com/opencenters/catalog-api/pkg/middleware/cors"
	reqidmiddleware "github.com/opencenters/catalog-api/pkg/middleware/requestid"
)

// @title Event Catalog API
// @version 1.0.0
// @description Searchable catalog of events and centers over a versioned document store
// @BasePath /
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	gitStore, err := store.OpenGit(cfg.Store.Path, cfg.Store.Remote, logr)
	if err != nil {
		logr.Sugar().Fatalw("failed to open document store", "path", cfg.Store.Path, "error", err)
	}

	var geocoder geocode.Geocoder = geocode.NewClient(cfg.Geocode, logr)
	if cfg.Redis.Enabled {
		client, err := geocode.NewRedis(fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port), cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, geocode caching disabled", "error", err)
		} else {
			geocoder = geocode.NewCached(geocoder, client, cfg.Geocode.CacheTTL, logr)
		}
	}

	metricsSvc := service.NewMetricsService()
	gitStore.SetObserver(metricsSvc)

	catalog := repository.NewCatalog(gitStore, geocoder, logr, repository.CatalogOptions{
		Author:                 store.Author{Name: cfg.Store.CommitName, Email: cfg.Store.CommitEmail},
		InvalidateEventsOnPull: cfg.Store.InvalidateEventsOnPull,
		Metrics:                metricsSvc,
	})
	if err := catalog.Load(context.Background()); err != nil {
		// A corrupt store must not come up with a partial index.
		logr.Sugar().Fatalw("failed to load event index", "error", err)
	}

	authz := service.RosterAuthorizer{}
	authSvc := service.NewAuthService(gitStore, nil, logr, service.AuthConfig{
		Secret:     cfg.JWT.Secret,
		Expiration: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})
	eventSvc := service.NewEventService(catalog, gitStore, authz, logr)
	centerSvc := service.NewCenterService(catalog, gitStore, authz, geocoder, logr)
	querySvc := service.NewQueryService(catalog, logr)
	exportSvc := service.NewExportService(querySvc, logr)

	eventHandler := handler.NewEventHandler(eventSvc, querySvc)
	centerHandler := handler.NewCenterHandler(centerSvc)
	authHandler := handler.NewAuthHandler(authSvc)
	exportHandler := handler.NewExportHandler(exportSvc)
	adminHandler := handler.NewAdminHandler(gitStore)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(middleware.Metrics(metricsSvc))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		api.POST("/auth/login", authHandler.Login)

		api.GET("/events", eventHandler.List)
		if cfg.Export.Enabled {
			api.GET("/events/export", exportHandler.Export)
		}
		api.GET("/events/:id", eventHandler.Get)
		api.GET("/centers", centerHandler.List)
		api.GET("/centers/:id", centerHandler.Get)

		protected := api.Group("")
		protected.Use(middleware.JWT(authSvc))
		{
			protected.POST("/events", eventHandler.Save)
			protected.POST("/centers/:id", centerHandler.Update)
			protected.POST("/admin/pull", adminHandler.Pull)
		}
	}

	if cfg.Store.PullInterval > 0 {
		go pullLoop(gitStore, cfg.Store.PullInterval, logr)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env, "store", cfg.Store.Path)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}

func pullLoop(gitStore *store.GitStore, interval time.Duration, logr *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for range ticker.C {
		ctx, cancel := context.WithTimeout(context.Background(), interval)
		if _, err := gitStore.Pull(ctx); err != nil {
			logr.Warn("background pull failed", zap.Error(err))
		}
		cancel()
	}
}
