// Package models defines the persistent and canonical data types of the
// catalog sync feature.
//
// # Entities
//
//   - SyncConfig: per-merchant source, mapping, and schedule settings.
//     One row per merchant, updated in place, disabled instead of deleted.
//   - ProductSnapshot: the last-applied canonical product per (merchant, sku)
//     plus its content hash. The diff baseline.
//   - SyncRun: one tracked execution of the pipeline with counts and
//     per-record errors. Immutable once finalized.
//   - CanonicalProduct: the normalized product shape written to the
//     document store.
//
// GORM models carry explicit column tags; nested documents (source spec,
// field mapping, canonical product, errors) are stored as JSON columns
// via the gorm JSON serializer.
package models
