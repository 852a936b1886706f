// Package store is the persistence layer of the catalog sync feature.
//
// A single Repository covers the three durable entities:
//
//   - Sync configurations: validated per sync type on Configure
//     (scheduled needs a source URL, webhook needs a secret, manual
//     needs neither), updated in place, disabled instead of deleted.
//   - Product snapshots: upserted after a successful apply, loaded as a
//     sku-keyed map before diffing.
//   - Sync runs: created pending, finalized once with counts and
//     errors, listed newest-first for history.
//
// Schema management happens through GORM auto-migration at startup.
package store
