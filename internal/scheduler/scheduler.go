// Package scheduler issues the daily data-export request to the partner API.
package scheduler

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/findata-ingest/internal/ingest"
)

// Config sets the daily trigger time.
type Config struct {
	TriggerHour   int
	TriggerMinute int
	TickInterval  time.Duration
}

// Scheduler arms once per day and fires a single export request when the
// trigger time passes. A failed request leaves the scheduler armed so the
// next tick retries within the same day.
type Scheduler struct {
	cfg       Config
	partner   ingest.PartnerClient
	workflows ingest.WorkflowStore
	logs      ingest.LogChannel
	clock     ingest.Clock
	ids       ingest.IDGenerator
	logger    *zap.Logger

	mu        sync.Mutex
	firedDate string // YYYY-MM-DD of the last successful fire
	onCreated func(requestID string)
}

// OnRequestCreated registers a callback invoked after each accepted export
// request, with the new request ID. Used to bind the webhook gateway.
func (s *Scheduler) OnRequestCreated(fn func(requestID string)) {
	s.onCreated = fn
}

// New creates a Scheduler.
func New(cfg Config, partner ingest.PartnerClient, workflows ingest.WorkflowStore, logs ingest.LogChannel, clock ingest.Clock, ids ingest.IDGenerator, logger *zap.Logger) *Scheduler {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = time.Minute
	}
	return &Scheduler{
		cfg:       cfg,
		partner:   partner,
		workflows: workflows,
		logs:      logs,
		clock:     clock,
		ids:       ids,
		logger:    logger.Named("scheduler"),
	}
}

// Run ticks until the context is canceled.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()

	s.logger.Info("scheduler started",
		zap.Int("trigger_hour", s.cfg.TriggerHour),
		zap.Int("trigger_minute", s.cfg.TriggerMinute),
	)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopping")
			return ctx.Err()
		case <-ticker.C:
			s.Tick(ctx, s.clock.Now())
		}
	}
}

// Tick fires at most one export request per UTC day, and only once the
// trigger time has passed. Safe to call as often as the caller likes: the
// day's slot is taken under the mutex before the partner call, so
// concurrent ticks cannot each issue a request.
func (s *Scheduler) Tick(ctx context.Context, now time.Time) {
	now = now.UTC()
	day := now.Format("2006-01-02")

	s.mu.Lock()
	if s.firedDate == day || !s.due(now) {
		s.mu.Unlock()
		return
	}
	s.firedDate = day
	s.mu.Unlock()

	requestID, err := s.MakeRequest(ctx)
	if err != nil {
		// Give the slot back so a later tick in the same window retries.
		s.mu.Lock()
		if s.firedDate == day {
			s.firedDate = ""
		}
		s.mu.Unlock()
		s.logger.Error("daily export request failed", zap.Error(err))
		return
	}

	if s.onCreated != nil {
		s.onCreated(requestID)
	}
	s.logger.Info("daily export request accepted", zap.String("request_id", requestID))
}

func (s *Scheduler) due(now time.Time) bool {
	trigger := time.Date(now.Year(), now.Month(), now.Day(), s.cfg.TriggerHour, s.cfg.TriggerMinute, 0, 0, time.UTC)
	return !now.Before(trigger)
}

// MakeRequest issues one export request: it generates a request ID, calls
// the partner API, and on HTTP 201 creates the workflow record at the
// initiated status. Any other response leaves no record behind, so the
// daily slot is not consumed.
func (s *Scheduler) MakeRequest(ctx context.Context) (string, error) {
	requestID, err := s.ids.NewID()
	if err != nil {
		return "", fmt.Errorf("generate request id: %w", err)
	}

	code, err := s.partner.RequestExport(ctx, requestID)
	if err != nil {
		s.appendLog(ctx, requestID, ingest.LevelError, fmt.Sprintf("Partner API request failed: %v", err))
		return "", fmt.Errorf("partner request: %w", err)
	}
	if code != http.StatusCreated {
		s.appendLog(ctx, requestID, ingest.LevelError, fmt.Sprintf("Partner API returned status %d", code))
		return "", fmt.Errorf("partner request rejected with status %d", code)
	}

	now := s.clock.Now()
	record := ingest.WorkflowRecord{
		RequestID: requestID,
		Status:    ingest.StatusInitiated,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.workflows.Create(ctx, record); err != nil {
		return "", fmt.Errorf("create workflow record: %w", err)
	}

	s.appendLog(ctx, requestID, ingest.LevelInfo, "Data request sent to partner API")
	return requestID, nil
}

func (s *Scheduler) appendLog(ctx context.Context, requestID string, level ingest.LogLevel, message string) {
	entry := ingest.LogEntry{
		Module:    "scheduler",
		RequestID: requestID,
		Timestamp: s.clock.Now(),
		Level:     level,
		Message:   message,
	}
	if err := s.logs.Append(ctx, entry); err != nil {
		s.logger.Warn("log channel append failed", zap.Error(err))
	}
}
