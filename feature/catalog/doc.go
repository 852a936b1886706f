// Package catalog implements the merchant catalog synchronization feature.
//
// It keeps each merchant's searchable product catalog in step with their
// external product data, arriving through three channels:
//  1. Scheduled pulls: the merchant's HTTP source is polled on a cron schedule.
//  2. Webhooks: the source pushes signed single-product updates.
//  3. File uploads: the merchant uploads a CSV or JSON catalog export.
//
// # Sync Engine
//
// This package delegates run execution to `feature/catalog/engine`, which
// maps raw records to canonical products, diffs them against stored
// snapshots by content hash, and applies only real changes to the
// document store. At most one run is in flight per merchant.
//
// # Components
//
//   - Service: Orchestrates configuration, triggering, webhooks, and uploads.
//   - Handler: Exposes the HTTP endpoints under /sync.
//   - Loader: Registers the feature with the application.
//
// # HTTP Endpoints
//
//   - POST   /sync/config  : Create or update the merchant's sync configuration.
//   - GET    /sync/config  : Get the current configuration (secret redacted).
//   - DELETE /sync/config  : Disable syncing; the configuration is kept.
//   - POST   /sync/trigger : Run a full sync from the configured source.
//   - GET    /sync/status  : Active flag, last run, next scheduled run.
//   - GET    /sync/history : Past runs, newest first.
//   - POST   /sync/webhook : Signed single-product update or delete marker.
//   - POST   /sync/upload  : Full-catalog sync from an uploaded CSV/JSON file.
package catalog
