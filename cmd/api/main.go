package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/blockpipe/solindexer/internal/api/middleware"
	"github.com/blockpipe/solindexer/internal/api/rest"
	"github.com/blockpipe/solindexer/internal/api/server"
	"github.com/blockpipe/solindexer/internal/config"
	"github.com/blockpipe/solindexer/internal/destdb"
	"github.com/blockpipe/solindexer/internal/helius"
	"github.com/blockpipe/solindexer/internal/ingest"
	"github.com/blockpipe/solindexer/internal/logger"
	"github.com/blockpipe/solindexer/internal/secrets"
	"github.com/blockpipe/solindexer/internal/store"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
	migrate    = flag.Bool("migrate", false, "Run schema migrations and exit")
)

func main() {
	flag.Parse()

	// Load configuration
	config.ChdirRepoRoot()
	cfg, err := config.LoadAPIConfig(*configFile, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Initialize logger with sentry integration
	err = logger.Initialize(logger.Config{
		Debug:     cfg.Debug,
		SentryDSN: cfg.SentryDSN,
		Tags: map[string]string{
			"service": "api-server",
		},
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.Info("Starting Solana indexer API")

	// Connect to the application database
	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{})
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}

	if *migrate {
		if err := store.Migrate(db); err != nil {
			logger.Fatal("Failed to run migrations", zap.Error(err))
		}
		logger.Info("Migrations complete")
		return
	}

	// Configure connection pool
	if err := store.ConfigureConnectionPool(db, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns, cfg.Database.ConnMaxLifetime, cfg.Database.ConnMaxIdleTime); err != nil {
		logger.Fatal("Failed to configure connection pool", zap.Error(err))
	}
	logger.Info("Connected to database",
		zap.Int("max_open_conns", cfg.Database.MaxOpenConns),
		zap.Int("max_idle_conns", cfg.Database.MaxIdleConns),
	)

	// Initialize store
	dataStore := store.NewPGStore(db)

	// Credential encryption for destination database passwords
	box, err := secrets.New(cfg.Encryption.Key)
	if err != nil {
		logger.Fatal("Failed to initialize encryption", zap.Error(err))
	}

	// Destination connection factory
	factory := destdb.NewPGFactory(box, cfg.Ingest.ConnectTimeout)

	// Provider API client
	heliusClient := helius.NewClient(cfg.Helius.BaseURL, cfg.Helius.APIKey, cfg.Helius.Timeout)

	// Ingestion pipeline
	recorder := ingest.NewRecorder(dataStore)
	executor := ingest.NewExecutor(recorder, ingest.RetryPolicy{
		MaxAttempts:    cfg.Ingest.MaxAttempts,
		InitialBackoff: cfg.Ingest.InitialBackoff,
		MaxBackoff:     cfg.Ingest.MaxBackoff,
		Multiplier:     cfg.Ingest.BackoffMultiplier,
	})
	orchestrator := ingest.NewOrchestrator(dataStore, factory, recorder, executor, cfg.Webhook.Secret)

	// REST handler
	handler := rest.NewHandler(dataStore, heliusClient, box, factory, orchestrator, cfg.Webhook.PublicBaseURL)

	// Create server config
	serverConfig := server.Config{
		Debug:        cfg.Debug,
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
		Auth: middleware.AuthConfig{
			JWTPublicKey: cfg.Auth.JWTPublicKey,
			APIKeys:      cfg.Auth.APIKeys,
		},
	}

	// Create and start server
	srv := server.New(serverConfig, handler)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil {
			errCh <- err
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		logger.Info("Received shutdown signal", zap.String("signal", sig.String()))
	case err := <-errCh:
		logger.Error(err, zap.String("component", "server"))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("API server stopped")
}
