package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"catalog-sync/feature/catalog/errs"
	"catalog-sync/feature/catalog/models"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository persists sync configurations, product snapshots, and run
// history in the relational database.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a repository on the given connection.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Migrate creates or updates the sync tables.
func (r *Repository) Migrate() error {
	return r.db.AutoMigrate(
		&models.SyncConfig{},
		&models.ProductSnapshot{},
		&models.SyncRun{},
	)
}

// ConfigSpec is the caller-supplied configuration input.
type ConfigSpec struct {
	SyncType        string            `json:"syncType"`
	Schedule        string            `json:"schedule"`
	Source          models.SourceSpec `json:"source"`
	FieldMapping    map[string]string `json:"fieldMapping"`
	IncrementalSync bool              `json:"incrementalSyncEnabled"`
	DeleteMissing   bool              `json:"deleteMissing"`
	WebhookSecret   string            `json:"webhookSecret"`
}

// Validate checks the spec's required fields per sync type.
func (s ConfigSpec) Validate() error {
	switch s.SyncType {
	case models.SyncTypeScheduled:
		if s.Source.URL == "" {
			return errs.Validation("source.url", "required for scheduled syncs")
		}
		if s.Schedule != "" {
			if _, err := cron.ParseStandard(s.Schedule); err != nil {
				return errs.Validation("schedule", err.Error())
			}
		}
	case models.SyncTypeWebhook:
		if s.WebhookSecret == "" {
			return errs.Validation("webhookSecret", "required for webhook syncs")
		}
	case models.SyncTypeManual:
		// Manual syncs need neither a source nor a secret
	default:
		return errs.Validation("syncType", "must be scheduled, webhook, or manual")
	}

	if len(s.FieldMapping) == 0 {
		return errs.Validation("fieldMapping", "at least one field mapping is required")
	}
	for _, field := range []string{"sku", "title", "description"} {
		if s.FieldMapping[field] == "" {
			return errs.Validation("fieldMapping", "missing mapping for required field "+field)
		}
	}

	return nil
}

// Configure creates or updates the merchant's sync configuration.
// The operation is idempotent: an existing config is mutated in place,
// never duplicated, and configuring always re-activates the merchant.
func (r *Repository) Configure(ctx context.Context, merchantID string, spec ConfigSpec) (*models.SyncConfig, error) {
	if merchantID == "" {
		return nil, errs.Validation("merchantId", "must not be empty")
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	var cfg models.SyncConfig
	err := r.db.WithContext(ctx).Where("merchant_id = ?", merchantID).First(&cfg).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	cfg.MerchantID = merchantID
	cfg.SyncType = spec.SyncType
	cfg.Schedule = spec.Schedule
	cfg.Source = spec.Source
	cfg.FieldMapping = spec.FieldMapping
	cfg.IncrementalSync = spec.IncrementalSync
	cfg.DeleteMissing = spec.DeleteMissing
	cfg.WebhookSecret = spec.WebhookSecret
	cfg.Status = models.ConfigStatusActive

	if err := r.db.WithContext(ctx).Save(&cfg).Error; err != nil {
		return nil, fmt.Errorf("failed to save config: %w", err)
	}
	return &cfg, nil
}

// GetConfig loads the merchant's configuration.
func (r *Repository) GetConfig(ctx context.Context, merchantID string) (*models.SyncConfig, error) {
	var cfg models.SyncConfig
	err := r.db.WithContext(ctx).Where("merchant_id = ?", merchantID).First(&cfg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.NotFound("sync config", merchantID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// Disable marks the merchant's configuration as disabled. Configs are
// never hard-deleted.
func (r *Repository) Disable(ctx context.Context, merchantID string) error {
	result := r.db.WithContext(ctx).Model(&models.SyncConfig{}).
		Where("merchant_id = ?", merchantID).
		Update("status", models.ConfigStatusDisabled)
	if result.Error != nil {
		return fmt.Errorf("failed to disable config: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return errs.NotFound("sync config", merchantID)
	}
	return nil
}

// ListScheduled returns all active scheduled configurations, for the
// time-based trigger.
func (r *Repository) ListScheduled(ctx context.Context) ([]models.SyncConfig, error) {
	var configs []models.SyncConfig
	err := r.db.WithContext(ctx).
		Where("sync_type = ? AND status = ?", models.SyncTypeScheduled, models.ConfigStatusActive).
		Find(&configs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list scheduled configs: %w", err)
	}
	return configs, nil
}

// Snapshots loads all product snapshots for a merchant, keyed by sku.
func (r *Repository) Snapshots(ctx context.Context, merchantID string) (map[string]models.ProductSnapshot, error) {
	var rows []models.ProductSnapshot
	err := r.db.WithContext(ctx).Where("merchant_id = ?", merchantID).Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshots: %w", err)
	}

	snapshots := make(map[string]models.ProductSnapshot, len(rows))
	for _, row := range rows {
		snapshots[row.SKU] = row
	}
	return snapshots, nil
}

// UpsertSnapshot writes the snapshot for (merchant, sku), replacing any
// previous version.
func (r *Repository) UpsertSnapshot(ctx context.Context, snapshot models.ProductSnapshot) error {
	snapshot.UpdatedAt = time.Now().UTC()
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "merchant_id"}, {Name: "sku"}},
		DoUpdates: clause.AssignmentColumns([]string{"product", "content_hash", "updated_at"}),
	}).Create(&snapshot).Error
	if err != nil {
		return fmt.Errorf("failed to upsert snapshot %s: %w", snapshot.SKU, err)
	}
	return nil
}

// DeleteSnapshot removes the snapshot for a sku.
func (r *Repository) DeleteSnapshot(ctx context.Context, merchantID, sku string) error {
	err := r.db.WithContext(ctx).
		Where("merchant_id = ? AND sku = ?", merchantID, sku).
		Delete(&models.ProductSnapshot{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete snapshot %s: %w", sku, err)
	}
	return nil
}

// CreateRun persists a new run record.
func (r *Repository) CreateRun(ctx context.Context, run *models.SyncRun) error {
	if err := r.db.WithContext(ctx).Create(run).Error; err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}
	return nil
}

// UpdateRunStatus moves a non-finalized run to a new status.
func (r *Repository) UpdateRunStatus(ctx context.Context, syncID, status string) error {
	err := r.db.WithContext(ctx).Model(&models.SyncRun{}).
		Where("sync_id = ?", syncID).
		Update("status", status).Error
	if err != nil {
		return fmt.Errorf("failed to update run status: %w", err)
	}
	return nil
}

// FinalizeRun writes the run's terminal state: status, counts, errors,
// and completion time. Finalized runs are immutable afterwards.
func (r *Repository) FinalizeRun(ctx context.Context, run *models.SyncRun) error {
	if !run.Finalized() {
		return fmt.Errorf("run %s is not in a terminal status: %s", run.SyncID, run.Status)
	}
	if err := r.db.WithContext(ctx).Save(run).Error; err != nil {
		return fmt.Errorf("failed to finalize run: %w", err)
	}
	return nil
}

// History returns the merchant's runs newest-first, bounded by limit.
func (r *Repository) History(ctx context.Context, merchantID string, limit int) ([]models.SyncRun, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	var runs []models.SyncRun
	err := r.db.WithContext(ctx).
		Where("merchant_id = ?", merchantID).
		Order("started_at DESC").
		Limit(limit).
		Find(&runs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	return runs, nil
}

// LastCompleted returns the merchant's most recent finalized run, or
// nil if no run has completed yet.
func (r *Repository) LastCompleted(ctx context.Context, merchantID string) (*models.SyncRun, error) {
	var run models.SyncRun
	err := r.db.WithContext(ctx).
		Where("merchant_id = ? AND status IN ?", merchantID,
			[]string{models.RunStatusSuccess, models.RunStatusPartialFailure, models.RunStatusFailed}).
		Order("started_at DESC").
		First(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load last run: %w", err)
	}
	return &run, nil
}
