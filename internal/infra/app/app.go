package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/lkimdaryl/foodjournal-backend/internal/core/port"
	"github.com/lkimdaryl/foodjournal-backend/internal/infra/config"
	"github.com/lkimdaryl/foodjournal-backend/internal/infra/database"
	kafkainfra "github.com/lkimdaryl/foodjournal-backend/internal/infra/kafka"
	"github.com/lkimdaryl/foodjournal-backend/internal/infra/logger"
	redisinfra "github.com/lkimdaryl/foodjournal-backend/internal/infra/redis"
	"github.com/lkimdaryl/foodjournal-backend/internal/infra/security"
	"github.com/lkimdaryl/foodjournal-backend/internal/infra/telemetry"
	postgresrepo "github.com/lkimdaryl/foodjournal-backend/internal/repository/postgres"
	redisrepo "github.com/lkimdaryl/foodjournal-backend/internal/repository/redis"
	"github.com/lkimdaryl/foodjournal-backend/internal/transport/http/routes"
	"github.com/lkimdaryl/foodjournal-backend/internal/usecase"
)

// Application wires the revocation engine together: codec, stores, services,
// sweeper, and the HTTP surface.
type Application struct {
	cfg     *config.AppConfig
	engine  *gin.Engine
	logger  *zap.Logger
	pool    *pgxpool.Pool
	redis   *redisinfra.Client
	sweeper *usecase.Sweeper
}

func New(ctx context.Context, cfg *config.AppConfig) (*Application, error) {
	log, err := logger.New(cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	metrics, err := telemetry.NewProvider(prometheus.DefaultRegisterer)
	if err != nil {
		return nil, fmt.Errorf("init telemetry: %w", err)
	}

	pool, err := database.NewPostgresPool(ctx, cfg.Postgres, log)
	if err != nil {
		return nil, fmt.Errorf("init postgres: %w", err)
	}

	codec, err := security.NewTokenCodec(cfg.JWT, cfg.App.Name)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("init token codec: %w", err)
	}

	redisClient, err := redisinfra.NewClient(cfg.Redis, log)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("init redis: %w", err)
	}

	revocationStore := postgresrepo.NewRevocationRepository(pool)
	revocationCache := redisrepo.NewRevocationCache(redisClient.Client(), cfg.Redis.RevokedPrefix)

	var eventPublisher port.EventPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err := kafkainfra.NewProducer(cfg.Kafka, log)
		if err != nil {
			log.Warn("failed to init kafka producer, using stub publisher", zap.Error(err))
			eventPublisher = kafkainfra.NewStubPublisher(log)
		} else {
			eventPublisher = kafkainfra.NewEventPublisher(producer, cfg.App, log)
			log.Info("kafka event publisher initialized", zap.Strings("brokers", cfg.Kafka.Brokers))
		}
	} else {
		log.Info("kafka brokers not configured, using stub publisher")
		eventPublisher = kafkainfra.NewStubPublisher(log)
	}

	validationService := usecase.NewValidationService(codec, revocationStore, log).
		WithCache(revocationCache).
		WithMetrics(metrics)

	revocationService := usecase.NewRevocationService(codec, revocationStore, log).
		WithCache(revocationCache).
		WithPublisher(eventPublisher).
		WithMetrics(metrics)

	sweeper := usecase.NewSweeper(revocationStore, cfg.Sweep.Interval, log).
		WithMetrics(metrics).
		WithPublisher(eventPublisher)

	engine := routes.Register(routes.Dependencies{
		Config:     cfg,
		Logger:     log,
		TokenCodec: codec,
		Sweeper:    sweeper,
		Database:   pool,
		Cache:      redisClient,
		Services: routes.ServiceSet{
			Validation: validationService,
			Revocation: revocationService,
		},
	})

	return &Application{
		cfg:     cfg,
		engine:  engine,
		logger:  log,
		pool:    pool,
		redis:   redisClient,
		sweeper: sweeper,
	}, nil
}

func (a *Application) Run(ctx context.Context) error {
	defer func() {
		_ = a.logger.Sync()
	}()
	defer func() {
		if a.pool != nil {
			a.pool.Close()
		}
	}()
	defer func() {
		if a.redis != nil {
			_ = a.redis.Close()
		}
	}()

	if err := a.sweeper.Start(); err != nil {
		return fmt.Errorf("start sweeper: %w", err)
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := a.sweeper.Stop(stopCtx); err != nil {
			a.logger.Warn("sweeper did not stop cleanly", zap.Error(err))
		}
	}()

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", a.cfg.App.Host, a.cfg.App.Port),
		Handler:           a.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	a.logger.Info("starting session revocation API",
		zap.String("env", a.cfg.App.Env),
		zap.String("address", srv.Addr),
		zap.Duration("sweep_interval", a.cfg.Sweep.Interval),
	)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- fmt.Errorf("run server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		return nil
	case err := <-serverErrCh:
		return err
	}
}
