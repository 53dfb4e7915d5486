package memory

import (
	"context"

	"go.uber.org/zap"

	"github.com/JakeFAU/findata-ingest/internal/ingest"
)

// MirroredLog decorates a log channel so every appended entry is also
// published to an external topic. Publish failures are logged and swallowed:
// the in-process channel stays the source of truth.
type MirroredLog struct {
	inner     ingest.LogChannel
	publisher ingest.Publisher
	topic     string
	logger    *zap.Logger
}

// NewMirroredLog wraps inner with export to the given topic.
func NewMirroredLog(inner ingest.LogChannel, publisher ingest.Publisher, topic string, logger *zap.Logger) *MirroredLog {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MirroredLog{
		inner:     inner,
		publisher: publisher,
		topic:     topic,
		logger:    logger,
	}
}

// Append appends to the inner channel, then mirrors the entry outward.
func (m *MirroredLog) Append(ctx context.Context, entry ingest.LogEntry) error {
	if err := m.inner.Append(ctx, entry); err != nil {
		return err
	}
	if m.publisher != nil && m.topic != "" {
		if _, err := m.publisher.Publish(ctx, m.topic, entry); err != nil {
			m.logger.Warn("log entry mirror publish failed",
				zap.String("request_id", entry.RequestID),
				zap.Error(err),
			)
		}
	}
	return nil
}

// Entries proxies to the inner channel.
func (m *MirroredLog) Entries(ctx context.Context, requestID string) ([]ingest.LogEntry, error) {
	return m.inner.Entries(ctx, requestID)
}

// EntriesSince proxies to the inner channel.
func (m *MirroredLog) EntriesSince(ctx context.Context, requestID string, cursor int) ([]ingest.LogEntry, int, error) {
	return m.inner.EntriesSince(ctx, requestID, cursor)
}
