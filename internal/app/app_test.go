package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	channelmemory "github.com/JakeFAU/findata-ingest/internal/channel/memory"
	"github.com/JakeFAU/findata-ingest/internal/config"
	"github.com/JakeFAU/findata-ingest/internal/ingest"
	publishermemory "github.com/JakeFAU/findata-ingest/internal/publisher/memory"
)

func memoryConfig(t *testing.T) config.Config {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	return cfg
}

func TestNewAppMemoryProviders(t *testing.T) {
	t.Parallel()

	cfg := memoryConfig(t)
	a, err := NewApp(context.Background(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer a.Close()

	assert.NotNil(t, a.Blobs)
	assert.NotNil(t, a.Records)
	assert.NotNil(t, a.Logs)
	assert.NotNil(t, a.Alerts)

	_, ok := a.Publisher.(*publishermemory.Publisher)
	assert.True(t, ok, "pubsub disabled falls back to the memory publisher")
	_, mirrored := a.Logs.(*channelmemory.MirroredLog)
	assert.False(t, mirrored, "no event topic means no mirroring")
}

func TestNewAppMirrorsLogsWhenEventTopicSet(t *testing.T) {
	t.Parallel()

	cfg := memoryConfig(t)
	cfg.PubSub.EventTopic = "workflow-events"
	a, err := NewApp(context.Background(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer a.Close()

	_, mirrored := a.Logs.(*channelmemory.MirroredLog)
	assert.True(t, mirrored)

	require.NoError(t, a.Logs.Append(context.Background(), ingest.LogEntry{
		Module:    "scheduler",
		RequestID: "req-1",
		Level:     ingest.LevelInfo,
		Message:   "Data request sent to partner API",
	}))

	pub, ok := a.Publisher.(*publishermemory.Publisher)
	require.True(t, ok)
	assert.Len(t, pub.TopicMessages("workflow-events"), 1)
}

func TestNewAppRejectsUnknownProviders(t *testing.T) {
	t.Parallel()

	cfg := memoryConfig(t)
	cfg.Storage.Provider = "s3"
	_, err := NewApp(context.Background(), cfg, zaptest.NewLogger(t))
	assert.Error(t, err)

	cfg = memoryConfig(t)
	cfg.Records.Provider = "mysql"
	_, err = NewApp(context.Background(), cfg, zaptest.NewLogger(t))
	assert.Error(t, err)
}
