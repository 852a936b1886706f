package engine

import (
	"context"
	"errors"
	"time"

	"catalog-sync/core/value"
	"catalog-sync/feature/catalog/diff"
	"catalog-sync/feature/catalog/docstore"
	"catalog-sync/feature/catalog/errs"
	"catalog-sync/feature/catalog/mapper"
	"catalog-sync/feature/catalog/models"
	"catalog-sync/feature/catalog/notify"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// FailureTimeout is the failure reason recorded when a run exceeds its
// maximum duration.
const FailureTimeout = "sync_timeout"

// Store is the persistence surface the executor needs. Implemented by
// the feature's store.Repository; faked in tests.
type Store interface {
	GetConfig(ctx context.Context, merchantID string) (*models.SyncConfig, error)
	Snapshots(ctx context.Context, merchantID string) (map[string]models.ProductSnapshot, error)
	UpsertSnapshot(ctx context.Context, snapshot models.ProductSnapshot) error
	DeleteSnapshot(ctx context.Context, merchantID, sku string) error
	CreateRun(ctx context.Context, run *models.SyncRun) error
	UpdateRunStatus(ctx context.Context, syncID, status string) error
	FinalizeRun(ctx context.Context, run *models.SyncRun) error
}

// Fetcher pulls a full raw catalog from an external source. Implemented
// by source.APIPullAdapter.
type Fetcher interface {
	Fetch(ctx context.Context, spec models.SourceSpec) ([]value.Value, error)
}

// Input describes what a run should process. A nil Records slice means
// the run fetches the full catalog from the configured source.
type Input struct {
	// Reason records what triggered the run.
	Reason string
	// Records are pre-parsed raw records (uploads, webhooks). When nil,
	// the executor fetches from the merchant's source.
	Records []value.Value
	// ParseErrors are record-level failures from file parsing, carried
	// into the run's error list and counts.
	ParseErrors []errs.RecordError
	// MappingOverride replaces the configured field mapping for this run.
	MappingOverride map[string]string
	// DeleteSKU, when set, makes this a single-record deletion run
	// (webhook delete marker). Records must be empty.
	DeleteSKU string
	// FullCatalog marks the batch as the merchant's complete catalog,
	// enabling deletion detection. Never set for webhook runs.
	FullCatalog bool
}

// Executor orchestrates sync runs end-to-end: lock, fetch, map, diff,
// apply, snapshot, finalize.
type Executor struct {
	store    Store
	docs     docstore.Store
	fetcher  Fetcher
	notifier notify.Notifier
	logger   *zap.Logger
	cfg      Config
	locks    *lockRegistry
}

// NewExecutor creates a sync executor.
func NewExecutor(store Store, docs docstore.Store, fetcher Fetcher, notifier notify.Notifier, logger *zap.Logger, cfg Config) *Executor {
	return &Executor{
		store:    store,
		docs:     docs,
		fetcher:  fetcher,
		notifier: notifier,
		logger:   logger,
		cfg:      cfg,
		locks:    newLockRegistry(),
	}
}

// IsRunning reports whether a run is currently active for the merchant.
func (e *Executor) IsRunning(merchantID string) bool {
	return e.locks.IsActive(merchantID)
}

// Trigger starts a full-catalog run that fetches from the merchant's
// configured source. It fails with ErrConflict if a run is already in
// flight for the merchant.
func (e *Executor) Trigger(ctx context.Context, merchantID, reason string) (*models.SyncRun, error) {
	return e.Run(ctx, merchantID, Input{Reason: reason, FullCatalog: true})
}

// Run executes one sync run for the merchant. The returned SyncRun is
// finalized unless an error is returned; run-level failures (source
// unreachable, timeout) are reported through the run's status, not as
// an error.
func (e *Executor) Run(ctx context.Context, merchantID string, in Input) (*models.SyncRun, error) {
	cfg, err := e.store.GetConfig(ctx, merchantID)
	if err != nil {
		return nil, err
	}
	if cfg.Status != models.ConfigStatusActive {
		return nil, errs.Validation("status", "sync is disabled for this merchant")
	}
	if in.Records == nil && in.DeleteSKU == "" && cfg.Source.URL == "" {
		return nil, errs.Validation("source.url", "no source configured; upload a file instead")
	}

	if !e.locks.TryAcquire(merchantID) {
		return nil, errs.ErrConflict
	}
	defer e.locks.Release(merchantID)

	run := &models.SyncRun{
		SyncID:     uuid.New().String(),
		MerchantID: merchantID,
		Status:     models.RunStatusPending,
		Reason:     in.Reason,
		StartedAt:  time.Now().UTC(),
	}
	if err := e.store.CreateRun(ctx, run); err != nil {
		return nil, err
	}

	l := e.logger.With(
		zap.String("merchant_id", merchantID),
		zap.String("sync_id", run.SyncID),
		zap.String("reason", in.Reason),
	)
	l.Info("Sync run started")
	e.notifier.RunStarted(run)

	// The whole run is bounded; exceeding the deadline fails the run and
	// releases the lock so future triggers are never blocked.
	runCtx, cancel := context.WithTimeout(ctx, e.cfg.RunTimeout())
	defer cancel()

	run.Status = models.RunStatusRunning
	if err := e.store.UpdateRunStatus(runCtx, run.SyncID, run.Status); err != nil {
		l.Warn("Failed to mark run as running", zap.Error(err))
	}

	e.execute(runCtx, l, cfg, run, in)

	completed := time.Now().UTC()
	run.CompletedAt = &completed
	if err := e.store.FinalizeRun(context.WithoutCancel(runCtx), run); err != nil {
		l.Error("Failed to finalize run", zap.Error(err))
	}

	if run.Status == models.RunStatusFailed {
		l.Warn("Sync run failed", zap.String("failure_reason", run.FailureReason))
		e.notifier.RunFailed(run)
	} else {
		l.Info("Sync run completed",
			zap.String("status", run.Status),
			zap.Int("total", run.Counts.Total),
			zap.Int("created", run.Counts.Created),
			zap.Int("updated", run.Counts.Updated),
			zap.Int("skipped", run.Counts.Skipped),
			zap.Int("failed", run.Counts.Failed),
		)
		e.notifier.RunCompleted(run)
	}

	return run, nil
}

// execute drives the pipeline and fills in the run's terminal state.
func (e *Executor) execute(ctx context.Context, l *zap.Logger, cfg *models.SyncConfig, run *models.SyncRun, in Input) {
	// Single-record deletion (webhook delete marker)
	if in.DeleteSKU != "" {
		e.executeDelete(ctx, run, in.DeleteSKU)
		return
	}

	records := in.Records
	if records == nil {
		fetched, err := e.fetch(ctx, cfg.Source, in.Reason)
		if err != nil {
			// The source fetch failed before any record was processed
			run.Status = models.RunStatusFailed
			run.FailureReason = failureReason(ctx, err)
			return
		}
		records = fetched
	}

	mapping := cfg.FieldMapping
	if in.MappingOverride != nil {
		mapping = in.MappingOverride
	}

	collected := newCollector(in.ParseErrors)
	canonical := e.mapRecords(ctx, records, mapping, collected)

	snapshots, err := e.store.Snapshots(ctx, run.MerchantID)
	if err != nil {
		run.Status = models.RunStatusFailed
		run.FailureReason = failureReason(ctx, err)
		return
	}

	decisions := diff.Classify(snapshots, canonical, cfg.IncrementalSync)

	seen := make(map[string]struct{}, len(decisions))
	for _, d := range decisions {
		seen[d.Product.SKU] = struct{}{}

		if ctx.Err() != nil {
			break
		}

		switch d.Op {
		case diff.OpSkip:
			run.Counts.Skipped++
		case diff.OpCreate, diff.OpUpdate:
			if err := e.apply(ctx, run.MerchantID, d); err != nil {
				collected.AddError(err, d.Product.SKU, errs.StageApply)
				continue
			}
			if d.Op == diff.OpCreate {
				run.Counts.Created++
			} else {
				run.Counts.Updated++
			}
		}
	}

	// Deletion detection only applies to full-catalog batches, and
	// deletions are only executed when the merchant opted in.
	if in.FullCatalog && ctx.Err() == nil {
		// A record that failed mapping or apply was still present in the
		// batch; it must never be treated as missing from the catalog.
		for _, rec := range collected.All() {
			if rec.SKU != "" {
				seen[rec.SKU] = struct{}{}
			}
		}
		missing := diff.Deletions(snapshots, seen)
		if cfg.DeleteMissing {
			for _, sku := range missing {
				if ctx.Err() != nil {
					break
				}
				if err := e.delete(ctx, run.MerchantID, sku); err != nil {
					collected.AddError(err, sku, errs.StageApply)
					continue
				}
				run.Counts.Deleted++
			}
		} else {
			run.PendingDeletions = missing
		}
	}

	run.Errors = collected.All()
	run.Counts.Failed = len(run.Errors)
	run.Counts.Total = len(records) + len(in.ParseErrors)

	switch {
	case ctx.Err() != nil:
		run.Status = models.RunStatusFailed
		run.FailureReason = FailureTimeout
	case run.Counts.Failed == 0:
		run.Status = models.RunStatusSuccess
	default:
		run.Status = models.RunStatusPartialFailure
	}
}

// executeDelete handles a webhook delete marker for a single sku.
func (e *Executor) executeDelete(ctx context.Context, run *models.SyncRun, sku string) {
	run.Counts.Total = 1
	if err := e.delete(ctx, run.MerchantID, sku); err != nil {
		run.Errors = []errs.RecordError{{SKU: sku, Stage: errs.StageApply, Message: err.Error()}}
		run.Counts.Failed = 1
		run.Status = models.RunStatusPartialFailure
		return
	}
	run.Counts.Deleted = 1
	run.Status = models.RunStatusSuccess
}

// fetch pulls the full catalog from the source. Scheduled runs retry
// transient failures with exponential backoff up to the configured
// attempt count; other reasons fail fast so the caller gets an answer.
func (e *Executor) fetch(ctx context.Context, spec models.SourceSpec, reason string) ([]value.Value, error) {
	if reason != models.ReasonScheduled {
		return e.fetcher.Fetch(ctx, spec)
	}

	attempts := e.cfg.FetchAttempts
	if attempts <= 0 {
		attempts = 3
	}

	var records []value.Value
	operation := func() error {
		var err error
		records, err = e.fetcher.Fetch(ctx, spec)
		if err != nil && !errs.IsRetryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(attempts-1)), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, err
	}
	return records, nil
}

// mapRecords projects raw records into canonical products on a bounded
// worker pool. Every worker finishes (success or individually-marked
// failure) before the run proceeds.
func (e *Executor) mapRecords(ctx context.Context, records []value.Value, mapping map[string]string, collected *collector) []models.CanonicalProduct {
	results := make([]*models.CanonicalProduct, len(records))

	g := new(errgroup.Group)
	g.SetLimit(e.cfg.WorkerCount())

	for i, raw := range records {
		i, raw := i, raw
		g.Go(func() error {
			product, err := mapper.Map(raw, mapping)
			if err != nil {
				collected.AddError(err, "", errs.StageMapping)
				return nil
			}
			results[i] = &product
			return nil
		})
	}
	// Mapping workers never return errors; failures are collected
	_ = g.Wait()

	canonical := make([]models.CanonicalProduct, 0, len(records))
	for _, product := range results {
		if product != nil {
			canonical = append(canonical, *product)
		}
	}
	return canonical
}

// apply writes a create/update to the document store and upserts the
// snapshot so the next diff sees the applied state.
func (e *Executor) apply(ctx context.Context, merchantID string, d diff.Decision) error {
	if err := e.docs.Upsert(ctx, merchantID, d.Product); err != nil {
		return err
	}
	return e.store.UpsertSnapshot(ctx, models.ProductSnapshot{
		MerchantID:  merchantID,
		SKU:         d.Product.SKU,
		Product:     d.Product,
		ContentHash: d.Hash,
	})
}

// delete removes a product from the document store and its snapshot.
func (e *Executor) delete(ctx context.Context, merchantID, sku string) error {
	if err := e.docs.Delete(ctx, merchantID, sku); err != nil {
		return err
	}
	return e.store.DeleteSnapshot(ctx, merchantID, sku)
}

// failureReason maps a run-aborting error to the recorded reason.
func failureReason(ctx context.Context, err error) string {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return FailureTimeout
	}
	return err.Error()
}
