package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/Opsightlive/opsight-live-sub001/internal/api"
	"github.com/Opsightlive/opsight-live-sub001/internal/config"
	"github.com/Opsightlive/opsight-live-sub001/internal/db"
	"github.com/Opsightlive/opsight-live-sub001/internal/dispatch"
	"github.com/Opsightlive/opsight-live-sub001/internal/engine"
	"github.com/Opsightlive/opsight-live-sub001/internal/ingest"
	"github.com/Opsightlive/opsight-live-sub001/internal/logging"
	"github.com/Opsightlive/opsight-live-sub001/internal/realtime"
)

func main() {
	// Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Logging.Dir, cfg.Logging.Level)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}

	// Connect to database
	dbConn, err := db.New(cfg.DB.DSN)
	if err != nil {
		logger.Errorf("Failed to connect to database: %v", err)
		log.Fatalf("Database connection failed: %v", err)
	}
	defer dbConn.Close()

	// Dashboard realtime hub and delivery channels
	hub := realtime.NewHub(logger)
	backoff := dispatch.Backoff{Base: cfg.Monitor.BackoffBase, MaxRetries: cfg.Monitor.MaxRetries}
	processor := dispatch.NewProcessor(dbConn, logger, backoff, cfg.Monitor.DispatchBatchSize,
		dispatch.NewDashboardChannel(hub),
		dispatch.NewEmailChannel(cfg),
		dispatch.NewSMSChannel(cfg),
	)

	// Batch orchestrator and ingestion adapters
	orch := engine.NewOrchestrator(dbConn, logger, cfg.Monitor.Lookback, cfg.Monitor.MaxWorkers, cfg.Monitor.MaxRetries)
	documents := ingest.NewDocumentProcessor(dbConn, logger)
	pmSync := ingest.NewPMSyncer(dbConn, logger, cfg.PMSync.HTTPTimeout)

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup

	// KPI event consumer is optional; skipped without a broker
	var consumer *ingest.Consumer
	if cfg.Kafka.Broker != "" {
		consumer = ingest.NewConsumer(cfg.Kafka.Broker, cfg.Kafka.Topic, cfg.Kafka.GroupID, dbConn, logger)
		consumer.Start(ctx, &wg)
	}

	// Start API server
	handler := api.NewHandler(dbConn, logger, orch, processor, documents, pmSync, hub)
	router := api.NewRouter(logger, cfg, handler)
	go func() {
		logger.Infof("Starting API server on %s", cfg.API.Port)
		if err := router.Run(cfg.API.Port); err != nil {
			logger.Errorf("API server failed: %v", err)
		}
	}()

	// Handle graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c
	logger.Infof("Shutting down...")
	cancel()
	if consumer != nil {
		if err := consumer.Close(); err != nil {
			logger.Errorf("Consumer close failed: %v", err)
		}
	}
	wg.Wait()
	logger.Infof("Service stopped")
}
