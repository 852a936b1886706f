package models

import (
	"time"

	"catalog-sync/feature/catalog/errs"
)

// Sync types supported by a merchant configuration.
const (
	SyncTypeScheduled = "scheduled"
	SyncTypeWebhook   = "webhook"
	SyncTypeManual    = "manual"
)

// Configuration statuses. Configs are never hard-deleted, only disabled.
const (
	ConfigStatusActive   = "active"
	ConfigStatusDisabled = "disabled"
)

// Run statuses forming the executor state machine:
// pending -> running -> success | partial_failure | failed.
const (
	RunStatusPending        = "pending"
	RunStatusRunning        = "running"
	RunStatusSuccess        = "success"
	RunStatusPartialFailure = "partial_failure"
	RunStatusFailed         = "failed"
)

// Trigger reasons recorded on each run.
const (
	ReasonScheduled = "scheduled"
	ReasonManual    = "manual"
	ReasonWebhook   = "webhook"
	ReasonUpload    = "upload"
)

// Source auth kinds for API pull sources.
const (
	AuthNone   = "none"
	AuthBearer = "bearer"
	AuthBasic  = "basic"
)

// CanonicalProduct is the normalized product representation written to
// the document store. SKU, Title, and Description are required; a record
// missing any of them is rejected at mapping time.
type CanonicalProduct struct {
	SKU         string         `json:"sku"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Price       *float64       `json:"price,omitempty"`
	ImageURL    string         `json:"imageUrl,omitempty"`
	Category    string         `json:"category,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// SourceSpec describes where and how to pull catalog data.
type SourceSpec struct {
	// Type identifies the source protocol. Only "http" is supported for pulls.
	Type string `json:"type,omitempty"`
	// URL is the endpoint polled by scheduled syncs.
	URL string `json:"url,omitempty"`
	// AuthKind selects the request authentication: none, bearer, or basic.
	AuthKind string `json:"authKind,omitempty"`
	// Token is the bearer token when AuthKind is "bearer".
	Token string `json:"token,omitempty"`
	// Username and Password are used when AuthKind is "basic".
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
}

// SyncConfig is the per-merchant sync configuration. Exactly one row
// exists per merchant; configure calls update it in place.
type SyncConfig struct {
	ID         uint   `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	MerchantID string `gorm:"column:merchant_id;uniqueIndex" json:"merchantId"`
	SyncType   string `gorm:"column:sync_type" json:"syncType"`
	// Schedule is a cron expression, only meaningful for scheduled syncs.
	Schedule     string            `gorm:"column:schedule" json:"schedule,omitempty"`
	Source       SourceSpec        `gorm:"column:source;serializer:json" json:"source"`
	FieldMapping map[string]string `gorm:"column:field_mapping;serializer:json" json:"fieldMapping"`
	// IncrementalSync skips records whose content hash matches the snapshot.
	IncrementalSync bool `gorm:"column:incremental_sync" json:"incrementalSyncEnabled"`
	// DeleteMissing opts the merchant into automatic deletion of products
	// absent from a full-catalog sync. Off by default: deletions are only
	// reported.
	DeleteMissing bool   `gorm:"column:delete_missing" json:"deleteMissing"`
	WebhookSecret string `gorm:"column:webhook_secret" json:"-"`
	Status        string `gorm:"column:status" json:"status"`

	CreatedAt time.Time `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updatedAt"`
}

// TableName overrides the table name for SyncConfig.
func (SyncConfig) TableName() string {
	return "sync_configs"
}

// ProductSnapshot is the last-applied canonical product per (merchant, sku),
// plus its content hash. It is the diff baseline and the only durable state
// shared across runs.
type ProductSnapshot struct {
	ID          uint             `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	MerchantID  string           `gorm:"column:merchant_id;uniqueIndex:idx_snapshot_merchant_sku" json:"merchantId"`
	SKU         string           `gorm:"column:sku;uniqueIndex:idx_snapshot_merchant_sku" json:"sku"`
	Product     CanonicalProduct `gorm:"column:product;serializer:json" json:"product"`
	ContentHash string           `gorm:"column:content_hash" json:"contentHash"`
	UpdatedAt   time.Time        `gorm:"column:updated_at" json:"updatedAt"`
}

// TableName overrides the table name for ProductSnapshot.
func (ProductSnapshot) TableName() string {
	return "product_snapshots"
}

// RunCounts aggregates per-record outcomes of a run.
type RunCounts struct {
	Total   int `gorm:"column:total" json:"total"`
	Created int `gorm:"column:created" json:"created"`
	Updated int `gorm:"column:updated" json:"updated"`
	Skipped int `gorm:"column:skipped" json:"skipped"`
	Failed  int `gorm:"column:failed" json:"failed"`
	Deleted int `gorm:"column:deleted" json:"deleted"`
}

// SyncRun is one execution of the sync pipeline. Runs are created in
// status pending, transition to running, and are immutable once
// finalized. History is retained newest-first.
type SyncRun struct {
	SyncID     string `gorm:"column:sync_id;primaryKey" json:"syncId"`
	MerchantID string `gorm:"column:merchant_id;index" json:"merchantId"`
	Status     string `gorm:"column:status" json:"status"`
	// Reason records what triggered the run (scheduled, manual, webhook, upload).
	Reason string `gorm:"column:reason" json:"reason"`
	// FailureReason is set when Status is failed (e.g. "sync_timeout").
	FailureReason string `gorm:"column:failure_reason" json:"failureReason,omitempty"`

	Counts RunCounts `gorm:"embedded" json:"counts"`
	// Errors lists every record that failed mapping or apply.
	Errors []errs.RecordError `gorm:"column:errors;serializer:json" json:"errors"`
	// PendingDeletions lists SKUs present in snapshots but absent from the
	// incoming full catalog, when the merchant has not opted into deletion.
	PendingDeletions []string `gorm:"column:pending_deletions;serializer:json" json:"pendingDeletions,omitempty"`

	StartedAt   time.Time  `gorm:"column:started_at;index" json:"startedAt"`
	CompletedAt *time.Time `gorm:"column:completed_at" json:"completedAt,omitempty"`
}

// TableName overrides the table name for SyncRun.
func (SyncRun) TableName() string {
	return "sync_runs"
}

// Finalized reports whether the run has reached a terminal status.
func (r *SyncRun) Finalized() bool {
	switch r.Status {
	case RunStatusSuccess, RunStatusPartialFailure, RunStatusFailed:
		return true
	default:
		return false
	}
}
