// Package app initializes and orchestrates the main components of the gateway.
// It wires together the configuration, broker, stores, queue, and HTTP server.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"github.com/warpfn/gateway/internal/broker"
	"github.com/warpfn/gateway/internal/config"
	"github.com/warpfn/gateway/internal/dispatch"
	"github.com/warpfn/gateway/internal/ratelimit"
	"github.com/warpfn/gateway/internal/results"
	"github.com/warpfn/gateway/internal/server"
	"github.com/warpfn/gateway/internal/server/handler"
	"github.com/warpfn/gateway/internal/storage"
)

// App holds the main application components.
type App struct {
	cfg    *config.Config
	server *server.Server
	broker *broker.Manager
	logger *slog.Logger

	stopOnce sync.Once
	stopErr  error
}

// NewApp sets up the application with all its dependencies.
func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	logger.Info("initializing gateway",
		"region", cfg.AWSRegion,
		"bucket", cfg.S3Bucket,
		"table", cfg.MetadataTable,
		"redis", cfg.RedisAddr,
	)

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	brokerCfg := broker.Config{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}
	brokerMgr := broker.NewManager(brokerCfg, logger)
	if err := brokerMgr.Ping(ctx); err != nil {
		// Not fatal: admission fails open and the health endpoint reports the
		// outage until the broker comes back.
		logger.Warn("broker unreachable at startup", "addr", cfg.RedisAddr, "error", err)
	}

	limiter := ratelimit.NewLimiter(brokerMgr.Client(), cfg.RateLimit, cfg.RateWindow, logger)
	waiter := results.NewWaiter(brokerCfg, cfg.ResultTimeout, logger)
	store := storage.NewFunctionStore(dynamodb.NewFromConfig(awsCfg), cfg.MetadataTable)
	blobs := storage.NewObjectStore(s3.NewFromConfig(awsCfg), cfg.S3Bucket)
	dispatcher := dispatch.NewDispatcher(sqs.NewFromConfig(awsCfg), cfg.QueueURL, logger)

	functions := handler.NewFunctionHandler(store, blobs, dispatcher, waiter, logger)
	health := handler.NewHealthHandler(brokerMgr)
	router := server.NewRouter(cfg, functions, health, limiter, logger)
	httpServer := server.NewServer(cfg.ServerPort, router, logger)

	logger.Info("gateway initialized")
	return &App{
		cfg:    cfg,
		server: httpServer,
		broker: brokerMgr,
		logger: logger,
	}, nil
}

// Start runs the HTTP server and blocks until shutdown or error.
func (a *App) Start() error {
	return a.server.Start()
}

// Stop runs the shutdown sequence: stop accepting connections, drain in-flight
// requests within the grace period, then release the broker. Repeated signals
// reuse the outcome of the first run. A non-nil return means the grace period
// elapsed with connections still open and the process should terminate
// forcibly.
func (a *App) Stop() error {
	a.stopOnce.Do(func() {
		if err := a.server.Stop(); err != nil {
			a.logger.Error("grace period elapsed with connections still open", "error", err)
			a.stopErr = err
			return
		}

		a.logger.Info("closing broker connection")
		if err := a.broker.Close(); err != nil {
			a.logger.Error("error closing broker connection", "error", err)
		}

		a.logger.Info("gateway stopped")
	})
	return a.stopErr
}
