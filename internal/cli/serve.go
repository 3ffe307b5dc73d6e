package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/aescanero/example-app/internal/application/publisher"
	"github.com/aescanero/example-app/internal/config"
	"github.com/aescanero/example-app/internal/logger"
	"github.com/aescanero/example-app/pkg/adapters/events"
	"github.com/aescanero/example-app/pkg/adapters/events/memory"
	"github.com/aescanero/example-app/pkg/adapters/events/redis"
	"github.com/aescanero/example-app/pkg/adapters/metrics/prometheus"
	"github.com/aescanero/example-app/pkg/api/grpc"
	"github.com/aescanero/example-app/pkg/api/http"
	"github.com/aescanero/example-app/pkg/api/websocket"
)

func newServeCmd(version, buildTime string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, version, buildTime)
		},
	}
}

func runServe(cmd *cobra.Command, version, buildTime string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.New(cfg.EffectiveLogLevel(), cfg.LogFormat)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting example-app",
		zap.String("version", version),
		zap.String("build_time", buildTime))

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return Serve(ctx, cfg, log)
}

// Serve runs the service until ctx is done, then shuts it down within
// cfg.Timeouts.ShutdownTimeout
func Serve(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	metricsCollector := prometheus.NewCollector()

	bus, closeBus, err := newEventBus(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeBus()

	publisherPool := publisher.NewPool(
		cfg.Events.Workers,
		cfg.Events.QueueSize,
		bus,
		metricsCollector,
		log,
		cfg.Events.HealthCheckInterval,
	)
	if err := publisherPool.Start(); err != nil {
		return fmt.Errorf("failed to start event publisher: %w", err)
	}

	httpServer := http.NewServer(&http.Config{
		Port:              cfg.HTTPPort,
		ReadHeaderTimeout: cfg.Timeouts.ReadHeaderTimeout,
		Debug:             cfg.Debug,
		CORS:              cfg.CORS,
		Service: http.ServiceInfo{
			Name:        cfg.Service.Name,
			Version:     cfg.Service.Version,
			Environment: cfg.Service.Environment,
		},
		Metrics:   metricsCollector,
		Publisher: publisherPool,
		Logger:    log,
	})
	httpServer.SetupWebSocket(websocket.NewHandler(bus, log))

	var grpcServer *grpc.Server
	if cfg.GRPCEnabled() {
		grpcServer, err = grpc.NewServer(&grpc.Config{
			Port:        cfg.GRPCPort,
			ServiceName: cfg.Service.Name,
			Logger:      log,
		})
		if err != nil {
			shutdownPublisher(cfg, publisherPool, log)
			return fmt.Errorf("failed to create gRPC server: %w", err)
		}
	}

	errCh := make(chan error, 2)
	go func() {
		if err := httpServer.Start(); err != nil {
			errCh <- err
		}
	}()
	if grpcServer != nil {
		go func() {
			if err := grpcServer.Start(); err != nil {
				errCh <- err
			}
		}()
	}

	log.Info("example-app started",
		zap.Int("http_port", cfg.HTTPPort),
		zap.Int("grpc_port", cfg.GRPCPort),
		zap.Bool("redis_events", cfg.RedisEnabled()),
		zap.String("environment", cfg.Service.Environment))

	var runErr error
	select {
	case <-ctx.Done():
		log.Info("received shutdown signal")
	case runErr = <-errCh:
		log.Error("server failed", zap.Error(runErr))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Timeouts.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", zap.Error(err))
	}

	if grpcServer != nil {
		if err := grpcServer.Shutdown(shutdownCtx); err != nil {
			log.Error("gRPC server shutdown error", zap.Error(err))
		}
	}

	if err := publisherPool.Shutdown(shutdownCtx); err != nil {
		log.Error("event publisher shutdown error", zap.Error(err))
	}

	log.Info("example-app shut down complete")
	return runErr
}

func shutdownPublisher(cfg *config.Config, pool *publisher.Pool, log *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeouts.ShutdownTimeout)
	defer cancel()

	if err := pool.Shutdown(ctx); err != nil {
		log.Error("event publisher shutdown error", zap.Error(err))
	}
}

// newEventBus returns the Redis Streams bus when REDIS_ADDR is set and the
// in-process bus otherwise, along with its cleanup
func newEventBus(ctx context.Context, cfg *config.Config, log *zap.Logger) (events.Bus, func(), error) {
	if !cfg.RedisEnabled() {
		bus := memory.NewInMemoryEventBus()
		return bus, func() { _ = bus.Close() }, nil
	}

	redisClient := goredis.NewClient(&goredis.Options{
		Addr:         cfg.Redis.Addr,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		MaxRetries:   cfg.Redis.MaxRetries,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})

	if err := redisClient.Ping(ctx).Err(); err != nil {
		_ = redisClient.Close()
		return nil, nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	log.Info("connected to Redis", zap.String("addr", cfg.Redis.Addr))

	bus := redis.NewStreamsEventBus(redisClient, cfg.Events.StreamMaxLen, log)
	return bus, func() {
		_ = bus.Close()
		if err := redisClient.Close(); err != nil {
			log.Error("Redis close error", zap.Error(err))
		}
	}, nil
}
