package catalog

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"catalog-sync/core/storage"
	"catalog-sync/core/value"
	"catalog-sync/feature/catalog/engine"
	"catalog-sync/feature/catalog/models"
	"catalog-sync/feature/catalog/source"
	"catalog-sync/feature/catalog/store"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

// Service handles catalog sync operations.
type Service struct {
	repo      *store.Repository
	executor  *engine.Executor
	scheduler *engine.Scheduler
	storage   storage.Client
	bucket    string
	logger    *zap.Logger
}

// NewService creates a new catalog sync service. The scheduler may be
// nil (CLI usage); configure calls then skip the schedule refresh.
func NewService(repo *store.Repository, executor *engine.Executor, scheduler *engine.Scheduler, client storage.Client, bucket string, logger *zap.Logger) *Service {
	return &Service{
		repo:      repo,
		executor:  executor,
		scheduler: scheduler,
		storage:   client,
		bucket:    bucket,
		logger:    logger,
	}
}

// Configure creates or updates the merchant's sync configuration and
// refreshes the scheduler so schedule changes take effect immediately.
func (s *Service) Configure(ctx context.Context, merchantID string, spec store.ConfigSpec) (*models.SyncConfig, error) {
	cfg, err := s.repo.Configure(ctx, merchantID, spec)
	if err != nil {
		return nil, err
	}
	s.refreshSchedules(ctx)
	return cfg, nil
}

// GetConfig returns the merchant's configuration. The webhook secret is
// never serialized.
func (s *Service) GetConfig(ctx context.Context, merchantID string) (*models.SyncConfig, error) {
	return s.repo.GetConfig(ctx, merchantID)
}

// Disable turns off syncing for the merchant without deleting the
// configuration.
func (s *Service) Disable(ctx context.Context, merchantID string) error {
	if err := s.repo.Disable(ctx, merchantID); err != nil {
		return err
	}
	s.refreshSchedules(ctx)
	return nil
}

// Trigger starts a manual full sync from the merchant's configured
// source and waits for it to finish.
func (s *Service) Trigger(ctx context.Context, merchantID string) (*models.SyncRun, error) {
	return s.executor.Trigger(ctx, merchantID, models.ReasonManual)
}

// Webhook verifies and processes a single-record push. The signature is
// checked before the payload is parsed; a forged call never starts a run.
func (s *Service) Webhook(ctx context.Context, merchantID string, body []byte, signature string) (*models.SyncRun, error) {
	cfg, err := s.repo.GetConfig(ctx, merchantID)
	if err != nil {
		return nil, err
	}
	if err := source.VerifySignature(body, signature, cfg.WebhookSecret); err != nil {
		return nil, err
	}

	record, err := source.ParseWebhook(body)
	if err != nil {
		return nil, err
	}

	in := engine.Input{Reason: models.ReasonWebhook}
	if record.Delete {
		in.DeleteSKU = record.SKU
	} else {
		in.Records = []value.Value{record.Raw}
	}
	return s.executor.Run(ctx, merchantID, in)
}

// Upload processes an uploaded catalog file as a full-catalog sync.
// Bad rows are isolated as record errors; the rest of the file is
// applied. An optional mapping override replaces the configured field
// mapping for this run only.
func (s *Service) Upload(ctx context.Context, merchantID, format string, data []byte, mappingOverride map[string]string) (*models.SyncRun, error) {
	batch, err := source.ParseFile(format, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	s.archiveUpload(ctx, merchantID, format, data)

	records := batch.Records
	if records == nil {
		records = []value.Value{}
	}
	return s.executor.Run(ctx, merchantID, engine.Input{
		Reason:          models.ReasonUpload,
		Records:         records,
		ParseErrors:     batch.Errors,
		MappingOverride: mappingOverride,
		FullCatalog:     true,
	})
}

// StatusReport is the merchant-facing sync status.
type StatusReport struct {
	MerchantID string `json:"merchantId"`
	// Active reports whether a run is in flight right now.
	Active bool `json:"active"`
	// LastRun is the most recent finalized run, if any.
	LastRun *models.SyncRun `json:"lastRun,omitempty"`
	// LastSyncAt is the completion time of the last finalized run.
	LastSyncAt *time.Time `json:"lastSyncAt,omitempty"`
	// NextSyncAt is the next scheduled fire time, for scheduled configs.
	NextSyncAt *time.Time `json:"nextSyncAt,omitempty"`
}

// Status returns the merchant's current sync status.
func (s *Service) Status(ctx context.Context, merchantID string) (*StatusReport, error) {
	if _, err := s.repo.GetConfig(ctx, merchantID); err != nil {
		return nil, err
	}

	report := &StatusReport{
		MerchantID: merchantID,
		Active:     s.executor.IsRunning(merchantID),
	}

	last, err := s.repo.LastCompleted(ctx, merchantID)
	if err != nil {
		return nil, err
	}
	if last != nil {
		report.LastRun = last
		report.LastSyncAt = last.CompletedAt
	}

	if s.scheduler != nil {
		if next := s.scheduler.NextRun(merchantID); !next.IsZero() {
			report.NextSyncAt = &next
		}
	}

	return report, nil
}

// History returns the merchant's sync runs newest-first.
func (s *Service) History(ctx context.Context, merchantID string, limit int) ([]models.SyncRun, error) {
	if _, err := s.repo.GetConfig(ctx, merchantID); err != nil {
		return nil, err
	}
	return s.repo.History(ctx, merchantID, limit)
}

// refreshSchedules re-syncs the scheduler with the configuration table.
func (s *Service) refreshSchedules(ctx context.Context) {
	if s.scheduler == nil {
		return
	}
	if err := s.scheduler.Reload(ctx); err != nil {
		s.logger.Warn("Failed to refresh schedules", zap.Error(err))
	}
}

// archiveUpload keeps the original upload in object storage for
// troubleshooting. Archiving is best-effort and never fails the sync.
func (s *Service) archiveUpload(ctx context.Context, merchantID, format string, data []byte) {
	if s.storage == nil {
		return
	}

	name := fmt.Sprintf("uploads/%s/%s.%s", merchantID, time.Now().UTC().Format("20060102T150405Z"), format)
	contentType := "application/json"
	if format == source.FormatCSV {
		contentType = "text/csv"
	}

	_, err := s.storage.PutObject(ctx, s.bucket, name, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		s.logger.Warn("Failed to archive upload",
			zap.String("merchant_id", merchantID),
			zap.String("object", name),
			zap.Error(err),
		)
	}
}
