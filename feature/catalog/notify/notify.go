package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"catalog-sync/feature/catalog/models"

	"go.uber.org/zap"
)

// Event names emitted around sync runs.
const (
	EventSyncStarted   = "sync.started"
	EventSyncCompleted = "sync.completed"
	EventSyncFailed    = "sync.failed"
)

// Notifier informs the platform's outbound webhook delivery system
// about run lifecycle events. Delivery is fire-and-forget: the sync
// pipeline never blocks or fails on notification errors.
type Notifier interface {
	RunStarted(run *models.SyncRun)
	RunCompleted(run *models.SyncRun)
	RunFailed(run *models.SyncRun)
}

// event is the JSON envelope posted to the event endpoint.
type event struct {
	Event      string           `json:"event"`
	MerchantID string           `json:"merchantId"`
	SyncID     string           `json:"syncId"`
	Status     string           `json:"status"`
	Counts     models.RunCounts `json:"counts"`
	OccurredAt time.Time        `json:"occurredAt"`
}

// HTTPNotifier posts run events to a configured endpoint. With an empty
// endpoint it degrades to logging only, which keeps local development
// free of a dependency on the delivery system.
type HTTPNotifier struct {
	endpoint string
	client   *http.Client
	logger   *zap.Logger
}

// New creates a notifier posting to the given endpoint.
func New(endpoint string, logger *zap.Logger) *HTTPNotifier {
	return &HTTPNotifier{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 10 * time.Second},
		logger:   logger,
	}
}

// RunStarted emits sync.started.
func (n *HTTPNotifier) RunStarted(run *models.SyncRun) {
	n.emit(EventSyncStarted, run)
}

// RunCompleted emits sync.completed.
func (n *HTTPNotifier) RunCompleted(run *models.SyncRun) {
	n.emit(EventSyncCompleted, run)
}

// RunFailed emits sync.failed.
func (n *HTTPNotifier) RunFailed(run *models.SyncRun) {
	n.emit(EventSyncFailed, run)
}

func (n *HTTPNotifier) emit(name string, run *models.SyncRun) {
	evt := event{
		Event:      name,
		MerchantID: run.MerchantID,
		SyncID:     run.SyncID,
		Status:     run.Status,
		Counts:     run.Counts,
		OccurredAt: time.Now().UTC(),
	}

	n.logger.Info("Sync event",
		zap.String("event", name),
		zap.String("merchant_id", evt.MerchantID),
		zap.String("sync_id", evt.SyncID),
		zap.String("status", evt.Status),
	)

	if n.endpoint == "" {
		return
	}

	// Fire-and-forget: delivery happens off the run's critical path.
	go func() {
		body, err := json.Marshal(evt)
		if err != nil {
			n.logger.Warn("Failed to encode sync event", zap.Error(err))
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, bytes.NewReader(body))
		if err != nil {
			n.logger.Warn("Failed to build sync event request", zap.Error(err))
			return
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := n.client.Do(req)
		if err != nil {
			n.logger.Warn("Failed to deliver sync event", zap.String("event", name), zap.Error(err))
			return
		}
		resp.Body.Close()
	}()
}
