// Package monitor audits the logging and workflow channels and raises alerts.
package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/findata-ingest/internal/ingest"
	"github.com/JakeFAU/findata-ingest/internal/metrics"
)

// Config sets the alert threshold and check interval.
type Config struct {
	ErrorThreshold int
	Interval       time.Duration
}

// Monitor counts error-level log entries per request and alerts once each
// time the accumulated count crosses the threshold. Reads are cursor-based
// so a re-check never double-counts an entry.
type Monitor struct {
	cfg       Config
	logs      ingest.LogChannel
	workflows ingest.WorkflowStore
	alerts    ingest.AlertSink
	logger    *zap.Logger

	mu      sync.Mutex
	cursors map[string]int // request_id -> log channel cursor
	counts  map[string]int // request_id -> accumulated error count
}

// New creates a Monitor.
func New(cfg Config, logs ingest.LogChannel, workflows ingest.WorkflowStore, alerts ingest.AlertSink, logger *zap.Logger) *Monitor {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	return &Monitor{
		cfg:       cfg,
		logs:      logs,
		workflows: workflows,
		alerts:    alerts,
		logger:    logger.Named("monitor"),
		cursors:   make(map[string]int),
		counts:    make(map[string]int),
	}
}

// Run drives both checks on the configured interval until cancellation.
func (m *Monitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.cfg.Interval)
	defer ticker.Stop()

	m.logger.Info("monitor started",
		zap.Int("error_threshold", m.cfg.ErrorThreshold),
		zap.Duration("interval", m.cfg.Interval),
	)

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("monitor stopping")
			return ctx.Err()
		case <-ticker.C:
			m.CheckLogs(ctx)
			m.CheckWorkflow(ctx)
		}
	}
}

// CheckLogs consumes new error entries for every known request. When a
// request's accumulated count exceeds the threshold, exactly one alert fires
// and the count resets to zero.
func (m *Monitor) CheckLogs(ctx context.Context) {
	records, err := m.workflows.List(ctx)
	if err != nil {
		m.logger.Error("list workflows", zap.Error(err))
		return
	}

	for _, record := range records {
		m.checkRequestLogs(ctx, record.RequestID)
	}
}

func (m *Monitor) checkRequestLogs(ctx context.Context, requestID string) {
	m.mu.Lock()
	cursor := m.cursors[requestID]
	m.mu.Unlock()

	entries, next, err := m.logs.EntriesSince(ctx, requestID, cursor)
	if err != nil {
		m.logger.Error("read log channel", zap.Error(err), zap.String("request_id", requestID))
		return
	}

	newErrors := 0
	for _, entry := range entries {
		if entry.Level == ingest.LevelError {
			newErrors++
		}
	}

	m.mu.Lock()
	m.cursors[requestID] = next
	m.counts[requestID] += newErrors
	count := m.counts[requestID]
	fire := count > m.cfg.ErrorThreshold
	if fire {
		m.counts[requestID] = 0
	}
	m.mu.Unlock()

	if !fire {
		return
	}

	message := fmt.Sprintf("Health alert: %d errors recorded for request %s", count, requestID)
	if err := m.alerts.Notify(ctx, message); err != nil {
		m.logger.Error("alert delivery failed", zap.Error(err), zap.String("request_id", requestID))
	}
	metrics.ObserveAlert()
	m.logger.Warn("error threshold exceeded",
		zap.String("request_id", requestID),
		zap.Int("errors", count),
	)
}

// CheckWorkflow reports every record not resting at a terminal success
// status. It never mutates the records.
func (m *Monitor) CheckWorkflow(ctx context.Context) []ingest.WorkflowRecord {
	records, err := m.workflows.List(ctx)
	if err != nil {
		m.logger.Error("list workflows", zap.Error(err))
		return nil
	}

	var stalled []ingest.WorkflowRecord
	for _, record := range records {
		if record.Status.IsTerminalSuccess() {
			continue
		}
		stalled = append(stalled, record)
		m.logger.Warn("workflow not complete",
			zap.String("request_id", record.RequestID),
			zap.String("status", string(record.Status)),
		)
	}
	return stalled
}
