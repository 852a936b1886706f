package engine

import (
	"errors"
	"sync"

	"catalog-sync/feature/catalog/errs"
)

// collector accumulates record-level failures within a run. It never
// raises mid-run; the aggregate list becomes part of the finalized
// SyncRun and is how callers reconcile partial failures.
//
// Mapping workers append concurrently, so the collector is locked.
type collector struct {
	mu      sync.Mutex
	records []errs.RecordError
}

func newCollector(seed []errs.RecordError) *collector {
	return &collector{records: append([]errs.RecordError(nil), seed...)}
}

// Add records a single failure.
func (c *collector) Add(sku, stage, message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = append(c.records, errs.RecordError{SKU: sku, Stage: stage, Message: message})
}

// AddError records err, preserving its sku and stage when it is a
// RecordError and falling back to the given defaults otherwise.
func (c *collector) AddError(err error, sku, stage string) {
	var re *errs.RecordError
	if errors.As(err, &re) {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.records = append(c.records, *re)
		return
	}
	c.Add(sku, stage, err.Error())
}

// All returns the collected failures.
func (c *collector) All() []errs.RecordError {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]errs.RecordError(nil), c.records...)
}
