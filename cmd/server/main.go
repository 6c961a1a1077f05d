// Package main is the entry point for the exchange API.
// It initializes all dependencies, sets up the HTTP server,
// and starts the application.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"handoff/internal/config"
	"handoff/internal/events"
	"handoff/internal/handlers"
	"handoff/internal/logger"
	"handoff/internal/metrics"
	"handoff/internal/repositories"
	"handoff/internal/repositories/cache"
	"handoff/internal/repositories/memory"
	"handoff/internal/routes"
	"handoff/internal/services/claim"
	"handoff/internal/services/directory"
	"handoff/internal/services/notification"
	"handoff/internal/services/qr"
	"handoff/internal/services/reward"
	"handoff/internal/services/scan"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	config.LoadEnv()
	cfg := config.Load()

	log := logger.New(config.IsProduction())
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Error("server stopped", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	checks := map[string]handlers.Check{}

	var (
		store        repositories.Store
		balanceCache reward.BalanceCache = reward.NoopCache{}
	)
	switch cfg.Store {
	case "memory":
		store = memory.New()
		log.Warn("using in-memory store; data is lost on restart")
	default:
		db, err := repositories.NewPostgres(cfg.DB, log)
		if err != nil {
			return err
		}
		defer func() {
			if err := repositories.Close(db); err != nil {
				log.Warn("failed to close database connection", zap.Error(err))
			}
		}()
		store = repositories.NewGormStore(db)
		checks["database"] = func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		}

		cacheService := cache.NewCacheService(cache.NewRedisClient(cfg.Redis), cfg.Redis.TTL)
		defer func() {
			if err := cacheService.Close(); err != nil {
				log.Warn("failed to close redis connection", zap.Error(err))
			}
		}()
		if err := cacheService.HealthCheck(ctx); err != nil {
			log.Warn("redis unavailable, balances are read from the database", zap.Error(err))
		} else if n, err := cacheService.FlushBalances(ctx); err != nil {
			log.Warn("failed to flush cached balances", zap.Error(err))
		} else {
			log.Debug("flushed cached balances", zap.Int("keys", n))
		}
		balanceCache = cacheService
		checks["redis"] = cacheService.HealthCheck
	}

	bus := events.NewBus(log.Named("events"))
	notification.NewService(notification.NewLogSender(log.Named("notify")), log).Attach(bus)
	if len(cfg.Kafka.Brokers) > 0 {
		forwarder := events.NewKafkaForwarder(events.NewKafkaWriter(cfg.Kafka.Brokers, cfg.Kafka.Topic, log), log)
		forwarder.Attach(bus)
		defer func() {
			if err := forwarder.Close(); err != nil {
				log.Warn("failed to close kafka writer", zap.Error(err))
			}
		}()
		log.Info("forwarding events to kafka", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))
	}

	rec := metrics.NewPrometheus()
	qrService := qr.NewService(store, qr.Config{
		PairTTL:       cfg.Exchange.PairTTL,
		StandaloneTTL: cfg.Exchange.StandaloneTTL,
	}, rec, log.Named("qr"))
	rewardService := reward.NewService(store, balanceCache, nil, log.Named("reward"))
	claimService := claim.NewService(store, qrService, rewardService, bus,
		claim.Config{RewardPoints: cfg.Exchange.RewardPoints}, rec, log.Named("claim"))
	scanService := scan.NewService(store, qrService, claimService, bus, scan.Config{}, rec, log.Named("scan"))

	app := fiber.New(fiber.Config{
		AppName:      "handoff",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	})
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,HEAD,PUT,DELETE,PATCH",
	}))
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	routes.SetupRoutes(app, routes.Services{
		Claims:        claimService,
		QR:            qrService,
		Rewards:       rewardService,
		Scan:          scanService,
		Directory:     directory.NewService(store, nil, log.Named("directory")),
		Health:        checks,
		ScanRateLimit: cfg.ScanRateLimit,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server starting", zap.String("port", cfg.Port), zap.String("store", cfg.Store))
		if err := app.Listen(":" + cfg.Port); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		return app.ShutdownWithTimeout(10 * time.Second)
	})
	return g.Wait()
}
