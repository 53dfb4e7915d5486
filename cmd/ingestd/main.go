// Package main wires together the ingestion service binary.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/findata-ingest/internal/api"
	"github.com/JakeFAU/findata-ingest/internal/app"
	"github.com/JakeFAU/findata-ingest/internal/archive"
	channelmemory "github.com/JakeFAU/findata-ingest/internal/channel/memory"
	claimsmemory "github.com/JakeFAU/findata-ingest/internal/claims/memory"
	"github.com/JakeFAU/findata-ingest/internal/clock/system"
	"github.com/JakeFAU/findata-ingest/internal/config"
	"github.com/JakeFAU/findata-ingest/internal/decoder"
	"github.com/JakeFAU/findata-ingest/internal/etl"
	"github.com/JakeFAU/findata-ingest/internal/fetcher"
	"github.com/JakeFAU/findata-ingest/internal/id/uuid"
	"github.com/JakeFAU/findata-ingest/internal/ingest"
	"github.com/JakeFAU/findata-ingest/internal/ingestor"
	"github.com/JakeFAU/findata-ingest/internal/logging"
	"github.com/JakeFAU/findata-ingest/internal/metrics"
	"github.com/JakeFAU/findata-ingest/internal/monitor"
	"github.com/JakeFAU/findata-ingest/internal/partner"
	"github.com/JakeFAU/findata-ingest/internal/scheduler"
	"github.com/JakeFAU/findata-ingest/internal/webhook"
	workflowmemory "github.com/JakeFAU/findata-ingest/internal/workflow/memory"
)

func main() {
	cfgPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if syncErr := logger.Sync(); syncErr != nil {
			fmt.Fprintf(os.Stderr, "logger sync failed: %v\n", syncErr)
		}
	}()
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics.Init()

	services, err := app.NewApp(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("service initialization failed", zap.Error(err))
	}
	defer services.Close()

	clock := system.New()
	workflows := workflowmemory.NewStoreWithClock(clock)
	downloads := channelmemory.NewQueue[ingest.DownloadJob](cfg.ETL.QueueDepth)
	files := channelmemory.NewQueue[ingest.FileJob](cfg.ETL.QueueDepth)
	deadLetter := channelmemory.NewDeadLetter()
	idGen := uuid.New()
	claims := claimsmemory.NewRegistry(idGen, clock)

	partnerClient, err := partner.New(partner.Config{
		APIURL:  cfg.Scheduler.PartnerAPIURL,
		Timeout: cfg.FetchTimeout(),
		RPS:     cfg.Scheduler.RequestRPS,
		Burst:   cfg.Scheduler.RequestBurst,
	})
	if err != nil {
		logger.Fatal("partner client init failed", zap.Error(err))
	}

	sched := scheduler.New(scheduler.Config{
		TriggerHour:   cfg.Scheduler.TriggerHour,
		TriggerMinute: cfg.Scheduler.TriggerMinute,
		TickInterval:  cfg.TickInterval(),
	}, partnerClient, workflows, services.Logs, clock, idGen, logger)

	gateway := webhook.New(cfg.Webhook.PartnerSecrets, "", downloads,
		workflows, services.Logs, clock, logger)
	sched.OnRequestCreated(gateway.Bind)

	retry := ingest.NewExponentialRetryPolicyWith(
		cfg.HTTP.MaxRetries,
		time.Duration(cfg.HTTP.BackoffInitialMs)*time.Millisecond,
		time.Duration(cfg.HTTP.BackoffMaxMs)*time.Millisecond,
	)
	archiveFetcher := fetcher.NewHTTP(fetcher.Config{Timeout: cfg.FetchTimeout()})

	ing := ingestor.New(ingestor.Config{Prefix: cfg.Ingestor.Prefix},
		downloads, files, deadLetter, archiveFetcher, archive.NewZipExtractor(),
		services.Blobs, workflows, services.Logs, retry, clock, logger)

	pool := etl.NewPool(cfg.ETL.Concurrency, files, claims, services.Blobs,
		decoder.New(), services.Records, workflows, services.Logs, clock, logger)

	mon := monitor.New(monitor.Config{
		ErrorThreshold: cfg.Monitor.ErrorThreshold,
		Interval:       cfg.MonitorInterval(),
	}, services.Logs, workflows, services.Alerts, logger)

	apiServer := api.NewServer(gateway, workflows, services.Logs, api.Config{
		AuthEnabled: cfg.Server.AuthEnabled,
		APIKey:      cfg.Server.APIKey,
	}, logger)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := sched.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("scheduler stopped", zap.Error(err))
		}
	}()
	go func() {
		if err := ing.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("ingestor stopped", zap.Error(err))
		}
	}()
	go func() {
		if err := pool.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("etl pool stopped", zap.Error(err))
		}
	}()
	go func() {
		if err := mon.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("monitor stopped", zap.Error(err))
		}
	}()

	go func() {
		logger.Info("http server started", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}
	downloads.Close()
	files.Close()
	logger.Info("shutdown complete")
}
