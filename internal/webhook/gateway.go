// Package webhook validates partner callbacks and turns them into download jobs.
package webhook

import (
	"context"
	"net/http"
	"sync"

	"go.uber.org/zap"

	"github.com/JakeFAU/findata-ingest/internal/ingest"
)

// Response bodies returned to the partner.
const (
	msgInvalidSecret   = "Webhook validation failed: Invalid Partner Secret"
	msgMissingURL      = "Missing zip_file_url"
	msgReceived        = "Webhook received"
	msgNoActiveRequest = "No active ingestion request"
)

// Gateway authenticates partner callbacks by shared secret and enqueues one
// DownloadJob per accepted webhook. It is bound to the most recently created
// request; webhooks carry no correlation token, so concurrent in-flight
// requests cannot be told apart.
type Gateway struct {
	secrets   map[string]string // secret -> partner_id
	queue     ingest.DownloadQueue
	workflows ingest.WorkflowStore
	logs      ingest.LogChannel
	clock     ingest.Clock
	logger    *zap.Logger

	mu        sync.RWMutex
	requestID string
}

// New creates a Gateway. requestID may be empty until a request is bound.
func New(secrets map[string]string, requestID string, queue ingest.DownloadQueue, workflows ingest.WorkflowStore, logs ingest.LogChannel, clock ingest.Clock, logger *zap.Logger) *Gateway {
	return &Gateway{
		secrets:   secrets,
		queue:     queue,
		workflows: workflows,
		logs:      logs,
		clock:     clock,
		logger:    logger.Named("webhook"),
		requestID: requestID,
	}
}

// Bind attaches the gateway to the given request. Subsequent webhooks are
// correlated to it.
func (g *Gateway) Bind(requestID string) {
	g.mu.Lock()
	g.requestID = requestID
	g.mu.Unlock()
}

// Handle validates one webhook delivery and returns the HTTP status code and
// response body to send back.
func (g *Gateway) Handle(ctx context.Context, secret, archiveURL string) (int, string) {
	partnerID, ok := g.secrets[secret]
	if !ok {
		g.logger.Warn("webhook rejected: unknown partner secret")
		return http.StatusForbidden, msgInvalidSecret
	}

	g.mu.RLock()
	requestID := g.requestID
	g.mu.RUnlock()
	if requestID == "" {
		g.logger.Warn("webhook rejected: no bound request", zap.String("partner_id", partnerID))
		return http.StatusConflict, msgNoActiveRequest
	}

	if archiveURL == "" {
		g.appendLog(ctx, requestID, ingest.LevelError, "Webhook payload missing zip_file_url")
		return http.StatusBadRequest, msgMissingURL
	}

	job := ingest.DownloadJob{
		RequestID:  requestID,
		PartnerID:  partnerID,
		ArchiveURL: archiveURL,
	}
	if err := g.queue.Enqueue(ctx, job); err != nil {
		g.logger.Error("enqueue download job", zap.Error(err), zap.String("request_id", requestID))
		return http.StatusInternalServerError, "Failed to accept webhook"
	}

	if err := g.workflows.UpdateStatus(ctx, requestID, ingest.StatusWebhookReceived); err != nil {
		g.logger.Error("update workflow status", zap.Error(err), zap.String("request_id", requestID))
	}
	g.appendLog(ctx, requestID, ingest.LevelInfo, "Webhook received from partner "+partnerID)

	g.logger.Info("webhook accepted",
		zap.String("request_id", requestID),
		zap.String("partner_id", partnerID),
	)
	return http.StatusOK, msgReceived
}

func (g *Gateway) appendLog(ctx context.Context, requestID string, level ingest.LogLevel, message string) {
	entry := ingest.LogEntry{
		Module:    "webhook",
		RequestID: requestID,
		Timestamp: g.clock.Now(),
		Level:     level,
		Message:   message,
	}
	if err := g.logs.Append(ctx, entry); err != nil {
		g.logger.Warn("log channel append failed", zap.Error(err))
	}
}
