package routes

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/lkimdaryl/foodjournal-backend/internal/infra/config"
	"github.com/lkimdaryl/foodjournal-backend/internal/infra/security"
	"github.com/lkimdaryl/foodjournal-backend/internal/transport/http/handlers"
	"github.com/lkimdaryl/foodjournal-backend/internal/transport/http/middleware"
	"github.com/lkimdaryl/foodjournal-backend/internal/usecase"
)

// ServiceSet groups the services the HTTP layer depends on.
type ServiceSet struct {
	Validation *usecase.ValidationService
	Revocation *usecase.RevocationService
}

// Dependencies encapsulates the objects required to register routes.
type Dependencies struct {
	Config     *config.AppConfig
	Logger     *zap.Logger
	Services   ServiceSet
	TokenCodec *security.TokenCodec
	Sweeper    handlers.SweepReporter
	Database   DatabaseChecker
	Cache      CacheChecker
}

// DatabaseChecker exposes readiness behaviour for database connections.
type DatabaseChecker interface {
	Ping(ctx context.Context) error
}

// CacheChecker exposes readiness behaviour for cache backends.
type CacheChecker interface {
	HealthCheck(ctx context.Context) error
}

// Register configures the Gin engine with routes and middleware.
func Register(deps Dependencies) *gin.Engine {
	if deps.Config.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.EnrichContext())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(deps.Logger))

	if metrics, err := middleware.NewHTTPMetrics(middleware.HTTPMetricsOptions{}); err != nil {
		deps.Logger.Warn("http metrics disabled", zap.Error(err))
	} else {
		r.Use(metrics.Handler())
	}

	authMiddleware := middleware.RequireAuth(deps.Services.Validation)

	healthOptions := make([]handlers.HealthOption, 0, 3)
	if deps.Sweeper != nil {
		healthOptions = append(healthOptions, handlers.WithSweepReporter(deps.Sweeper))
	}
	if deps.Database != nil {
		healthOptions = append(healthOptions, handlers.WithReadinessCheck("database", deps.Database.Ping))
	}
	if deps.Cache != nil {
		healthOptions = append(healthOptions, handlers.WithReadinessCheck("redis", deps.Cache.HealthCheck))
	}

	healthHandler := handlers.NewHealthHandler(healthOptions...)

	r.GET("/healthz", healthHandler.Status)
	r.GET("/readyz", healthHandler.Readiness)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	{
		authGroup := api.Group("/auth")

		tokenHandler := handlers.NewTokenHandler(deps.TokenCodec, deps.Services.Validation, deps.Services.Revocation)
		tokenHandler.RegisterRoutes(authGroup)

		adminGroup := api.Group("/admin")
		adminGroup.Use(authMiddleware)

		adminHandler := handlers.NewAdminRevocationHandler(deps.Services.Revocation)
		adminHandler.RegisterRoutes(adminGroup)
	}

	return r
}
