// Package alert provides sinks the health monitor raises alerts through.
package alert

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/JakeFAU/findata-ingest/internal/ingest"
)

// LogSink writes alerts to the service logger at error level.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink creates a LogSink.
func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger}
}

// Notify logs the alert message.
func (s *LogSink) Notify(_ context.Context, message string) error {
	s.logger.Error("health alert", zap.String("message", message))
	return nil
}

// PublishSink forwards alerts to a publish-subscribe topic.
type PublishSink struct {
	publisher ingest.Publisher
	topic     string
}

// NewPublishSink creates a PublishSink for the given topic.
func NewPublishSink(publisher ingest.Publisher, topic string) *PublishSink {
	return &PublishSink{publisher: publisher, topic: topic}
}

// Notify publishes the alert message.
func (s *PublishSink) Notify(ctx context.Context, message string) error {
	if _, err := s.publisher.Publish(ctx, s.topic, map[string]string{"alert": message}); err != nil {
		return fmt.Errorf("publish alert: %w", err)
	}
	return nil
}

// Fanout delivers each alert to every sink, returning the first error.
type Fanout struct {
	sinks []ingest.AlertSink
}

// NewFanout creates a Fanout over the given sinks.
func NewFanout(sinks ...ingest.AlertSink) *Fanout {
	return &Fanout{sinks: sinks}
}

// Notify forwards the alert to all sinks. Delivery continues past a
// failing sink so one broken destination cannot mute the rest.
func (f *Fanout) Notify(ctx context.Context, message string) error {
	var firstErr error
	for _, sink := range f.sinks {
		if err := sink.Notify(ctx, message); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// MemorySink records alerts for inspection in tests.
type MemorySink struct {
	mu       sync.Mutex
	messages []string
}

// NewMemorySink creates an empty MemorySink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

// Notify records the alert message.
func (s *MemorySink) Notify(_ context.Context, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, message)
	return nil
}

// Messages returns a copy of all recorded alerts.
func (s *MemorySink) Messages() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.messages))
	copy(out, s.messages)
	return out
}
