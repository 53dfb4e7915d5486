// Package app initializes and holds the long-lived backing services, acting
// as a dependency injection container for the ingestion binary.
package app

import (
	"context"
	"fmt"

	gstorage "cloud.google.com/go/storage"
	"go.uber.org/zap"

	"github.com/JakeFAU/findata-ingest/internal/alert"
	channelmemory "github.com/JakeFAU/findata-ingest/internal/channel/memory"
	"github.com/JakeFAU/findata-ingest/internal/config"
	"github.com/JakeFAU/findata-ingest/internal/ingest"
	publishermemory "github.com/JakeFAU/findata-ingest/internal/publisher/memory"
	publisherpubsub "github.com/JakeFAU/findata-ingest/internal/publisher/pubsub"
	recordsmemory "github.com/JakeFAU/findata-ingest/internal/records/memory"
	recordspostgres "github.com/JakeFAU/findata-ingest/internal/records/postgres"
	storagegcs "github.com/JakeFAU/findata-ingest/internal/storage/gcs"
	storagememory "github.com/JakeFAU/findata-ingest/internal/storage/memory"
)

// App holds the shared, long-lived services for the ingestion binary:
// the blob store, the record store, the publisher, and the channels tying
// the pipeline stages together. It is initialized once at startup.
type App struct {
	logger *zap.Logger

	Blobs     ingest.BlobStore
	Records   ingest.RecordStore
	Publisher ingest.Publisher
	Logs      ingest.LogChannel
	Alerts    ingest.AlertSink

	pgStore  *recordspostgres.Store
	psClient *publisherpubsub.Publisher
}

// NewApp instantiates the configured providers. It fails fast if any
// critical service cannot be initialized.
func NewApp(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	a := &App{logger: logger}

	switch cfg.Storage.Provider {
	case "gcs":
		logger.Info("using GCS blob store", zap.String("bucket", cfg.Storage.GCSBucket))
		client, err := gstorage.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("create storage client: %w", err)
		}
		store, err := storagegcs.New(client, storagegcs.Config{Bucket: cfg.Storage.GCSBucket})
		if err != nil {
			return nil, fmt.Errorf("initialize gcs blob store: %w", err)
		}
		a.Blobs = store
	case "memory":
		logger.Info("using in-memory blob store")
		a.Blobs = storagememory.NewBlobStore()
	default:
		return nil, fmt.Errorf("unknown storage provider %q", cfg.Storage.Provider)
	}

	switch cfg.Records.Provider {
	case "postgres":
		logger.Info("connecting to PostgreSQL record store")
		store, err := recordspostgres.NewStore(ctx, recordspostgres.StoreConfig{
			DSN:   cfg.Records.DSN,
			Table: cfg.Records.Table,
		})
		if err != nil {
			return nil, fmt.Errorf("initialize postgres record store: %w", err)
		}
		a.pgStore = store
		a.Records = store
	case "memory":
		logger.Info("using in-memory record store")
		a.Records = recordsmemory.NewStore()
	default:
		return nil, fmt.Errorf("unknown records provider %q", cfg.Records.Provider)
	}

	if cfg.PubSub.ProjectID != "" {
		logger.Info("connecting to GCP Pub/Sub", zap.String("project", cfg.PubSub.ProjectID))
		pub, err := publisherpubsub.New(ctx, cfg.PubSub.ProjectID)
		if err != nil {
			return nil, fmt.Errorf("initialize pubsub publisher: %w", err)
		}
		a.psClient = pub
		a.Publisher = pub
	} else {
		logger.Info("pubsub disabled, recording publishes in memory")
		a.Publisher = publishermemory.New()
	}

	logs := channelmemory.NewLog()
	if cfg.PubSub.EventTopic != "" {
		a.Logs = channelmemory.NewMirroredLog(logs, a.Publisher, cfg.PubSub.EventTopic, logger)
	} else {
		a.Logs = logs
	}

	logSink := alert.NewLogSink(logger)
	if cfg.PubSub.AlertTopic != "" {
		a.Alerts = alert.NewFanout(logSink, alert.NewPublishSink(a.Publisher, cfg.PubSub.AlertTopic))
	} else {
		a.Alerts = logSink
	}

	logger.Info("application services initialized")
	return a, nil
}

// Close gracefully shuts down the services that hold connections.
func (a *App) Close() {
	a.logger.Info("shutting down application services")
	if a.pgStore != nil {
		a.pgStore.Close()
	}
	if a.psClient != nil {
		if err := a.psClient.Close(); err != nil {
			a.logger.Warn("error closing pubsub client", zap.Error(err))
		}
	}
	if err := a.logger.Sync(); err != nil {
		// Best effort; stderr may be gone already.
		_ = err
	}
}
