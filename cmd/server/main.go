package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/sifan077/tinylink/config"
	appmodel "github.com/sifan077/tinylink/internal/app/model"
	apprepository "github.com/sifan077/tinylink/internal/app/repository"
	appserver "github.com/sifan077/tinylink/internal/app/server"
	appservice "github.com/sifan077/tinylink/internal/app/service"
	"github.com/sifan077/tinylink/internal/infra/bloomfilter"
	"github.com/sifan077/tinylink/internal/infra/logger"
	infraNATS "github.com/sifan077/tinylink/internal/infra/nats"
	infraPostgres "github.com/sifan077/tinylink/internal/infra/postgres"
	infraPrometheus "github.com/sifan077/tinylink/internal/infra/prometheus"
	infraRedis "github.com/sifan077/tinylink/internal/infra/redis"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.Init(logger.FromAppConfig(cfg.App.Env, cfg.App.LogLevel, cfg.App.LogFile))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = run(ctx, cfg, log)
	stop()

	if err != nil {
		log.Error("Server exited with error", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
	_ = logger.Sync()
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	log.Info("Configuration loaded successfully",
		zap.String("env", cfg.App.Env),
		zap.Int("port", cfg.App.Port),
		zap.String("storage", cfg.Storage.Driver),
		zap.Bool("redis_enabled", cfg.Redis.Enabled),
		zap.Bool("nats_enabled", cfg.NATS.Enabled),
	)

	links, pool, cleanupStore, err := openLinkStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer cleanupStore()

	var (
		cache       apprepository.LinkCache
		redisClient *redis.Client
	)
	if cfg.Redis.Enabled {
		redisClient, err = infraRedis.NewClient(ctx, cfg.Redis)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer redisClient.Close()
		cache = apprepository.NewRedisLinkCache(redisClient, infraRedis.CacheTTL(cfg.Redis))
		log.Info("Connected to Redis successfully")
	}

	filter := bloomfilter.New(cfg.Codes.FilterCapacity, cfg.Codes.FilterFPRate)
	warmed, err := appservice.WarmCodeFilter(ctx, links, filter)
	if err != nil {
		return err
	}
	log.Info("Code filter warmed",
		zap.Int("codes", warmed),
		zap.Uint32("approx_size", filter.ApproximateCount()),
	)

	var events appservice.EventPublisher
	if cfg.NATS.Enabled {
		natsConn, consumer, publisher, err := startLinkEvents(cfg.NATS, log, filter)
		if err != nil {
			return err
		}
		defer natsConn.Drain()
		defer consumer.Stop()
		events = publisher
		log.Info("Connected to NATS successfully")
	}

	if cfg.App.IsProduction() {
		promServer := infraPrometheus.NewServer(cfg.Prometheus, nil, log)
		promServer.Start()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := promServer.Shutdown(shutdownCtx); err != nil {
				log.Warn("Failed to stop Prometheus server", zap.Error(err))
			}
		}()
	} else {
		log.Info("Skipping Prometheus metrics server in development mode")
	}

	linkService := appservice.NewLinkService(appservice.LinkServiceDeps{
		Links:  links,
		Cache:  cache,
		Filter: filter,
		Events: events,
		Logger: log,
	})

	server := appserver.New(appserver.Dependencies{
		Logger:      log,
		Postgres:    pool,
		Redis:       redisClient,
		LinkService: linkService,
	})

	addr := fmt.Sprintf(":%d", cfg.App.Port)
	listenErr := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening", zap.String("addr", addr))
		listenErr <- server.Listen(addr)
	}()

	select {
	case err := <-listenErr:
		return fmt.Errorf("fiber server exited: %w", err)
	case <-ctx.Done():
	}

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// openLinkStore returns the configured link store. With the postgres driver it
// also returns the pgx pool used by the readiness probe.
func openLinkStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (apprepository.LinkRepository, *pgxpool.Pool, func(), error) {
	if cfg.Storage.Driver == "memory" {
		log.Warn("Using in-memory link store; links are lost on restart")
		return apprepository.NewMemoryLinkRepository(), nil, func() {}, nil
	}

	gormDB, err := infraPostgres.NewGorm(cfg.Postgres)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := infraPostgres.AutoMigrate(ctx, gormDB, &appmodel.Link{}); err != nil {
		_ = infraPostgres.Close(gormDB)
		return nil, nil, nil, err
	}

	pool, err := infraPostgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		_ = infraPostgres.Close(gormDB)
		return nil, nil, nil, err
	}
	log.Info("Connected to Postgres successfully")

	cleanup := func() {
		pool.Close()
		if err := infraPostgres.Close(gormDB); err != nil {
			log.Warn("Failed to close database", zap.Error(err))
		}
	}
	return apprepository.NewLinkRepository(gormDB), pool, cleanup, nil
}

func startLinkEvents(cfg config.NATSConfig, log *zap.Logger, filter appservice.CodeFilter) (*nats.Conn, *appservice.EventConsumer, *appservice.NATSEventPublisher, error) {
	natsConn, js, err := infraNATS.Connect(cfg)
	if err != nil {
		return nil, nil, nil, err
	}

	publisher := appservice.NewNATSEventPublisher(js)
	if err := publisher.EnsureStream(); err != nil {
		natsConn.Close()
		return nil, nil, nil, fmt.Errorf("nats: %w", err)
	}

	consumer := appservice.NewEventConsumer(js, log, filter)
	if err := consumer.Start(); err != nil {
		natsConn.Close()
		return nil, nil, nil, fmt.Errorf("nats: %w", err)
	}

	return natsConn, consumer, publisher, nil
}
