package main

import (
	"context"
	"log"
	"time"

	"github.com/toolsdir/api/internal/app"
	"github.com/toolsdir/api/internal/config"
	"github.com/toolsdir/api/internal/orchestration"
	"github.com/toolsdir/api/internal/telemetry"
	"go.temporal.io/sdk/worker"
	"go.uber.org/zap"
)

// The worker executes RunJobWorkflow for job runs the API hands to Temporal.
func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	logger, err := app.NewLogger(cfg.Log)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	shutdownTelemetry, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName+"-worker", cfg.Telemetry.OTLPEndpoint)
	if err != nil {
		logger.Error("failed to initialize telemetry", zap.Error(err))
	} else {
		defer func() {
			if err := shutdownTelemetry(ctx); err != nil {
				logger.Error("failed to shutdown telemetry", zap.Error(err))
			}
		}()
	}

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to build service", zap.Error(err))
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		a.Close(closeCtx)
	}()

	if err := a.ConnectTemporal(); err != nil {
		logger.Fatal("failed to connect to temporal", zap.Error(err))
	}

	w := worker.New(a.Temporal, cfg.Temporal.TaskQueue, worker.Options{
		MaxConcurrentActivityExecutionSize: 2,
	})
	orchestration.Register(w, orchestration.NewActivities(a.Runner))

	logger.Info("starting worker", zap.String("task_queue", cfg.Temporal.TaskQueue))
	if err := w.Run(worker.InterruptCh()); err != nil {
		logger.Error("worker stopped", zap.Error(err))
	}
}
