// Package engine executes sync runs.
//
// # Pipeline
//
// A run moves through fixed stages: acquire the merchant lock, record a
// pending run, fetch or accept raw records, map them to canonical
// products on a bounded worker pool, diff against the stored snapshots,
// apply creates and updates to the document store, detect deletions on
// full-catalog batches, and finalize the run with counts and errors.
//
// # Exclusivity
//
// At most one run is in flight per merchant. Concurrent triggers fail
// fast with ErrConflict instead of queueing; different merchants run
// independently.
//
// # Failure model
//
// Record-level failures never abort the run. They are collected and the
// run finalizes as partial_failure with every unaffected record
// processed. Only run-level events fail the whole run: an unreachable
// source after retries, or the run deadline expiring.
//
// # Scheduling
//
// The Scheduler registers one cron entry per active scheduled merchant
// and re-reads the configuration table periodically, so configuration
// changes take effect without a restart.
package engine
