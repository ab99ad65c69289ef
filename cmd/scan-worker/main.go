package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"splitdash/internal/amqp"
	"splitdash/internal/backend"
	"splitdash/internal/config"
	applog "splitdash/internal/log"
	"splitdash/internal/receipt"
	"splitdash/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig()).WithComponent("scan-worker")
	applog.SetDefault(logger)

	logger.Info("Starting scan worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	result, err := backend.Open(ctx, cfg)
	if err != nil {
		logger.Error("Failed to open data backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer result.Cleanup()

	scanWorker := worker.NewScanWorker(result.Store, &receipt.StubExtractor{}, cfg.ScanBatchSize)

	// Drain jobs that were queued while no worker was running.
	if err := scanWorker.ProcessPendingJobs(ctx); err != nil {
		logger.Error("Startup drain failed", "error", err)
	}

	// AMQP is optional: without it the worker runs on the ticker alone.
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, running on periodic drain only", "error", err)
		} else {
			defer amqpClient.Close()
			go func() {
				err := amqpClient.ConsumeScanJobs(ctx, func(msg *amqp.ScanJobMessage) error {
					return scanWorker.HandleScanMessage(ctx, msg)
				})
				if err != nil && !errors.Is(err, context.Canceled) {
					logger.Error("Message consumption failed", "error", err)
					cancel()
				}
			}()
			logger.Info("Consuming scan jobs", "queue", cfg.AMQPQueue)
		}
	}

	// The periodic drain catches jobs whose publish was lost.
	go scanWorker.RunPeriodic(ctx, cfg.ScanInterval)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("Context cancelled")
	}

	cancel()
	logger.Info("Shutting down worker...")

	// Give in-flight jobs a moment to settle.
	time.Sleep(2 * time.Second)
	logger.Info("Worker shutdown complete")
}
