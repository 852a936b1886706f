package engine_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"catalog-sync/core/value"
	"catalog-sync/feature/catalog/diff"
	"catalog-sync/feature/catalog/engine"
	"catalog-sync/feature/catalog/errs"
	"catalog-sync/feature/catalog/models"
	"catalog-sync/feature/catalog/notify"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeStore is an in-memory engine.Store.
type fakeStore struct {
	mu        sync.Mutex
	config    *models.SyncConfig
	snapshots map[string]models.ProductSnapshot
	runs      map[string]*models.SyncRun
}

func newFakeStore(config *models.SyncConfig) *fakeStore {
	return &fakeStore{
		config:    config,
		snapshots: make(map[string]models.ProductSnapshot),
		runs:      make(map[string]*models.SyncRun),
	}
}

func (s *fakeStore) GetConfig(ctx context.Context, merchantID string) (*models.SyncConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.config == nil || s.config.MerchantID != merchantID {
		return nil, errs.NotFound("sync config", merchantID)
	}
	cfg := *s.config
	return &cfg, nil
}

func (s *fakeStore) Snapshots(ctx context.Context, merchantID string) (map[string]models.ProductSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]models.ProductSnapshot, len(s.snapshots))
	for k, v := range s.snapshots {
		out[k] = v
	}
	return out, nil
}

func (s *fakeStore) UpsertSnapshot(ctx context.Context, snapshot models.ProductSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[snapshot.SKU] = snapshot
	return nil
}

func (s *fakeStore) DeleteSnapshot(ctx context.Context, merchantID, sku string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.snapshots, sku)
	return nil
}

func (s *fakeStore) CreateRun(ctx context.Context, run *models.SyncRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[run.SyncID] = run
	return nil
}

func (s *fakeStore) UpdateRunStatus(ctx context.Context, syncID, status string) error {
	return nil
}

func (s *fakeStore) FinalizeRun(ctx context.Context, run *models.SyncRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !run.Finalized() {
		return fmt.Errorf("run not terminal: %s", run.Status)
	}
	s.runs[run.SyncID] = run
	return nil
}

func (s *fakeStore) seedSnapshot(p models.CanonicalProduct) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[p.SKU] = models.ProductSnapshot{
		MerchantID:  s.config.MerchantID,
		SKU:         p.SKU,
		Product:     p,
		ContentHash: diff.ContentHash(p),
	}
}

// fakeDocs is an in-memory document store that can fail selected SKUs.
type fakeDocs struct {
	mu      sync.Mutex
	docs    map[string]models.CanonicalProduct
	failOn  map[string]error
	deletes []string
}

func newFakeDocs() *fakeDocs {
	return &fakeDocs{docs: make(map[string]models.CanonicalProduct), failOn: make(map[string]error)}
}

func (d *fakeDocs) Upsert(ctx context.Context, merchantID string, product models.CanonicalProduct) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err, ok := d.failOn[product.SKU]; ok {
		return err
	}
	d.docs[product.SKU] = product
	return nil
}

func (d *fakeDocs) Delete(ctx context.Context, merchantID, sku string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.docs, sku)
	d.deletes = append(d.deletes, sku)
	return nil
}

func (d *fakeDocs) Get(ctx context.Context, merchantID, sku string) (models.CanonicalProduct, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	p, ok := d.docs[sku]
	if !ok {
		return models.CanonicalProduct{}, fmt.Errorf("no document for %s", sku)
	}
	return p, nil
}

// fakeFetcher returns canned records or errors, optionally blocking
// until released.
type fakeFetcher struct {
	mu      sync.Mutex
	records []value.Value
	errors  []error
	calls   int
	block   chan struct{}
}

func (f *fakeFetcher) Fetch(ctx context.Context, spec models.SourceSpec) ([]value.Value, error) {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if len(f.errors) > 0 {
		err := f.errors[0]
		f.errors = f.errors[1:]
		return nil, err
	}
	return f.records, nil
}

var testMapping = map[string]string{
	"sku":         "id",
	"title":       "name",
	"description": "desc",
	"price":       "price",
}

func activeConfig() *models.SyncConfig {
	return &models.SyncConfig{
		MerchantID:      "m1",
		SyncType:        models.SyncTypeManual,
		Source:          models.SourceSpec{URL: "http://source.test/products"},
		FieldMapping:    testMapping,
		IncrementalSync: true,
		Status:          models.ConfigStatusActive,
	}
}

func testConfig() engine.Config {
	return engine.Config{Workers: 2, RunTimeoutSeconds: 10, FetchAttempts: 3, SourceTimeoutSeconds: 1}
}

func newTestExecutor(store *fakeStore, docs *fakeDocs, fetcher *fakeFetcher) *engine.Executor {
	logger := zap.NewNop()
	return engine.NewExecutor(store, docs, fetcher, notify.New("", logger), logger, testConfig())
}

func rawRecord(t *testing.T, raw string) value.Value {
	t.Helper()
	v, err := value.FromJSON([]byte(raw))
	require.NoError(t, err)
	return v
}

func TestRunExclusivity(t *testing.T) {
	store := newFakeStore(activeConfig())
	fetcher := &fakeFetcher{block: make(chan struct{})}
	executor := newTestExecutor(store, newFakeDocs(), fetcher)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := executor.Trigger(context.Background(), "m1", models.ReasonManual)
		assert.NoError(t, err)
	}()

	// Wait for the first run to take the lock inside its fetch
	require.Eventually(t, func() bool {
		return executor.IsRunning("m1")
	}, time.Second, 5*time.Millisecond)

	_, err := executor.Trigger(context.Background(), "m1", models.ReasonManual)
	assert.ErrorIs(t, err, errs.ErrConflict)

	close(fetcher.block)
	<-done

	// The lock is released once the run finishes
	run, err := executor.Trigger(context.Background(), "m1", models.ReasonManual)
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusSuccess, run.Status)
}

func TestRunPartialFailureAccounting(t *testing.T) {
	store := newFakeStore(activeConfig())
	executor := newTestExecutor(store, newFakeDocs(), &fakeFetcher{})

	// 10 records, 2 missing a required field
	records := make([]value.Value, 0, 10)
	for i := 1; i <= 10; i++ {
		if i == 3 || i == 7 {
			records = append(records, rawRecord(t, fmt.Sprintf(`{"id": "P%d"}`, i)))
			continue
		}
		records = append(records, rawRecord(t, fmt.Sprintf(
			`{"id": "P%d", "name": "Product %d", "desc": "d", "price": %d}`, i, i, i)))
	}

	run, err := executor.Run(context.Background(), "m1", engine.Input{
		Reason:      models.ReasonUpload,
		Records:     records,
		FullCatalog: true,
	})
	require.NoError(t, err)

	assert.Equal(t, models.RunStatusPartialFailure, run.Status)
	assert.Equal(t, 10, run.Counts.Total)
	assert.Equal(t, 8, run.Counts.Created)
	assert.Equal(t, 2, run.Counts.Failed)
	assert.Len(t, run.Errors, 2)
	for _, recErr := range run.Errors {
		assert.Equal(t, errs.StageMapping, recErr.Stage)
	}
}

func TestRunCreateUpdateSkip(t *testing.T) {
	store := newFakeStore(activeConfig())
	docs := newFakeDocs()
	executor := newTestExecutor(store, docs, &fakeFetcher{})

	price := 5.0
	store.seedSnapshot(models.CanonicalProduct{SKU: "A1", Title: "Mug", Description: "d", Price: &price})
	store.seedSnapshot(models.CanonicalProduct{SKU: "A2", Title: "Bowl", Description: "d", Price: &price})

	run, err := executor.Run(context.Background(), "m1", engine.Input{
		Reason: models.ReasonUpload,
		Records: []value.Value{
			rawRecord(t, `{"id": "A1", "name": "Mug", "desc": "d", "price": 5}`),  // unchanged
			rawRecord(t, `{"id": "A2", "name": "Bowl", "desc": "d", "price": 9}`), // repriced
			rawRecord(t, `{"id": "A3", "name": "Cup", "desc": "d", "price": 2}`),  // new
		},
		FullCatalog: true,
	})
	require.NoError(t, err)

	assert.Equal(t, models.RunStatusSuccess, run.Status)
	assert.Equal(t, 1, run.Counts.Created)
	assert.Equal(t, 1, run.Counts.Updated)
	assert.Equal(t, 1, run.Counts.Skipped)

	// Skipped records are not rewritten; the others are
	_, err = docs.Get(context.Background(), "m1", "A1")
	assert.Error(t, err)
	updated, err := docs.Get(context.Background(), "m1", "A2")
	require.NoError(t, err)
	require.NotNil(t, updated.Price)
	assert.Equal(t, 9.0, *updated.Price)
}

func TestRunApplyFailureIsRecordLevel(t *testing.T) {
	store := newFakeStore(activeConfig())
	docs := newFakeDocs()
	docs.failOn["A2"] = fmt.Errorf("document store unavailable for this key")
	executor := newTestExecutor(store, docs, &fakeFetcher{})

	run, err := executor.Run(context.Background(), "m1", engine.Input{
		Reason: models.ReasonUpload,
		Records: []value.Value{
			rawRecord(t, `{"id": "A1", "name": "Mug", "desc": "d"}`),
			rawRecord(t, `{"id": "A2", "name": "Bowl", "desc": "d"}`),
		},
		FullCatalog: true,
	})
	require.NoError(t, err)

	assert.Equal(t, models.RunStatusPartialFailure, run.Status)
	assert.Equal(t, 1, run.Counts.Created)
	require.Len(t, run.Errors, 1)
	assert.Equal(t, "A2", run.Errors[0].SKU)
	assert.Equal(t, errs.StageApply, run.Errors[0].Stage)

	// The failed record left no snapshot behind
	snapshots, _ := store.Snapshots(context.Background(), "m1")
	_, exists := snapshots["A2"]
	assert.False(t, exists)
}

func TestRunDeletionDetection(t *testing.T) {
	tests := []struct {
		name          string
		deleteMissing bool
	}{
		{name: "reported but not applied by default", deleteMissing: false},
		{name: "applied when the merchant opted in", deleteMissing: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := activeConfig()
			cfg.DeleteMissing = tt.deleteMissing
			store := newFakeStore(cfg)
			docs := newFakeDocs()
			executor := newTestExecutor(store, docs, &fakeFetcher{})

			store.seedSnapshot(models.CanonicalProduct{SKU: "A1", Title: "Mug", Description: "d"})
			store.seedSnapshot(models.CanonicalProduct{SKU: "A2", Title: "Bowl", Description: "d"})

			run, err := executor.Run(context.Background(), "m1", engine.Input{
				Reason: models.ReasonUpload,
				Records: []value.Value{
					rawRecord(t, `{"id": "A1", "name": "Mug", "desc": "d"}`),
				},
				FullCatalog: true,
			})
			require.NoError(t, err)
			assert.Equal(t, models.RunStatusSuccess, run.Status)

			snapshots, _ := store.Snapshots(context.Background(), "m1")
			if tt.deleteMissing {
				assert.Equal(t, 1, run.Counts.Deleted)
				assert.Empty(t, run.PendingDeletions)
				assert.Equal(t, []string{"A2"}, docs.deletes)
				_, exists := snapshots["A2"]
				assert.False(t, exists)
			} else {
				assert.Equal(t, 0, run.Counts.Deleted)
				assert.Equal(t, []string{"A2"}, run.PendingDeletions)
				assert.Empty(t, docs.deletes)
				_, exists := snapshots["A2"]
				assert.True(t, exists)
			}
		})
	}
}

func TestRunDeletionSparesFailedRecords(t *testing.T) {
	cfg := activeConfig()
	cfg.DeleteMissing = true
	store := newFakeStore(cfg)
	docs := newFakeDocs()
	executor := newTestExecutor(store, docs, &fakeFetcher{})

	store.seedSnapshot(models.CanonicalProduct{SKU: "A1", Title: "Mug", Description: "d"})
	store.seedSnapshot(models.CanonicalProduct{SKU: "A2", Title: "Bowl", Description: "d"})

	// A2 is in the batch but its row is malformed; it is a mapping
	// failure, not a product removed from the catalog
	run, err := executor.Run(context.Background(), "m1", engine.Input{
		Reason: models.ReasonUpload,
		Records: []value.Value{
			rawRecord(t, `{"id": "A1", "name": "Mug", "desc": "d"}`),
			rawRecord(t, `{"id": "A2"}`),
		},
		FullCatalog: true,
	})
	require.NoError(t, err)

	assert.Equal(t, models.RunStatusPartialFailure, run.Status)
	require.Len(t, run.Errors, 1)
	assert.Equal(t, "A2", run.Errors[0].SKU)
	assert.Equal(t, 0, run.Counts.Deleted)
	assert.Empty(t, run.PendingDeletions)
	assert.NotContains(t, docs.deletes, "A2")

	snapshots, _ := store.Snapshots(context.Background(), "m1")
	_, exists := snapshots["A2"]
	assert.True(t, exists)
}

func TestRunWebhookNotAFullCatalog(t *testing.T) {
	store := newFakeStore(activeConfig())
	docs := newFakeDocs()
	executor := newTestExecutor(store, docs, &fakeFetcher{})

	store.seedSnapshot(models.CanonicalProduct{SKU: "A1", Title: "Mug", Description: "d"})
	store.seedSnapshot(models.CanonicalProduct{SKU: "A2", Title: "Bowl", Description: "d"})

	// A single webhook record must never trigger deletion detection
	run, err := executor.Run(context.Background(), "m1", engine.Input{
		Reason: models.ReasonWebhook,
		Records: []value.Value{
			rawRecord(t, `{"id": "A1", "name": "New Mug", "desc": "d"}`),
		},
	})
	require.NoError(t, err)

	assert.Equal(t, models.RunStatusSuccess, run.Status)
	assert.Empty(t, run.PendingDeletions)
	assert.Equal(t, 0, run.Counts.Deleted)
	assert.Empty(t, docs.deletes)
}

func TestRunWebhookDelete(t *testing.T) {
	store := newFakeStore(activeConfig())
	docs := newFakeDocs()
	executor := newTestExecutor(store, docs, &fakeFetcher{})

	store.seedSnapshot(models.CanonicalProduct{SKU: "A1", Title: "Mug", Description: "d"})

	run, err := executor.Run(context.Background(), "m1", engine.Input{
		Reason:    models.ReasonWebhook,
		DeleteSKU: "A1",
	})
	require.NoError(t, err)

	assert.Equal(t, models.RunStatusSuccess, run.Status)
	assert.Equal(t, 1, run.Counts.Deleted)
	assert.Equal(t, []string{"A1"}, docs.deletes)

	snapshots, _ := store.Snapshots(context.Background(), "m1")
	assert.Empty(t, snapshots)
}

func TestRunDisabledConfig(t *testing.T) {
	cfg := activeConfig()
	cfg.Status = models.ConfigStatusDisabled
	executor := newTestExecutor(newFakeStore(cfg), newFakeDocs(), &fakeFetcher{})

	_, err := executor.Trigger(context.Background(), "m1", models.ReasonManual)
	require.Error(t, err)
	assert.True(t, errs.IsValidation(err))
}

func TestRunUnknownMerchant(t *testing.T) {
	executor := newTestExecutor(newFakeStore(activeConfig()), newFakeDocs(), &fakeFetcher{})

	_, err := executor.Trigger(context.Background(), "m2", models.ReasonManual)
	require.Error(t, err)
	assert.True(t, errs.IsNotFound(err))
}

func TestRunFetchFailureFailsRun(t *testing.T) {
	store := newFakeStore(activeConfig())
	fetcher := &fakeFetcher{errors: []error{fmt.Errorf("source responded 403")}}
	executor := newTestExecutor(store, newFakeDocs(), fetcher)

	// Run-level failures surface in the run report, not as an error
	run, err := executor.Trigger(context.Background(), "m1", models.ReasonManual)
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusFailed, run.Status)
	assert.Contains(t, run.FailureReason, "403")
}

func TestRunScheduledRetriesTransientFetch(t *testing.T) {
	store := newFakeStore(activeConfig())
	fetcher := &fakeFetcher{
		errors: []error{
			errs.Retryable(fmt.Errorf("connection refused")),
			errs.Retryable(fmt.Errorf("source responded 503")),
		},
		records: []value.Value{
			rawRecord(t, `{"id": "A1", "name": "Mug", "desc": "d"}`),
		},
	}
	executor := newTestExecutor(store, newFakeDocs(), fetcher)

	run, err := executor.Trigger(context.Background(), "m1", models.ReasonScheduled)
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusSuccess, run.Status)
	assert.Equal(t, 3, fetcher.calls)
}

func TestRunManualDoesNotRetryFetch(t *testing.T) {
	store := newFakeStore(activeConfig())
	fetcher := &fakeFetcher{errors: []error{errs.Retryable(fmt.Errorf("source responded 503"))}}
	executor := newTestExecutor(store, newFakeDocs(), fetcher)

	run, err := executor.Trigger(context.Background(), "m1", models.ReasonManual)
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusFailed, run.Status)
	assert.Equal(t, 1, fetcher.calls)
}

func TestRunTimeout(t *testing.T) {
	store := newFakeStore(activeConfig())

	logger := zap.NewNop()
	short := testConfig()
	short.RunTimeoutSeconds = 1
	executor := engine.NewExecutor(store, newFakeDocs(), &slowFetcher{delay: 2 * time.Second}, notify.New("", logger), logger, short)

	run, err := executor.Trigger(context.Background(), "m1", models.ReasonManual)
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusFailed, run.Status)
	assert.Equal(t, engine.FailureTimeout, run.FailureReason)

	// The lock is free again after the timeout
	assert.False(t, executor.IsRunning("m1"))
}

// slowFetcher honors context cancellation like a real HTTP client.
type slowFetcher struct {
	delay time.Duration
}

func (f *slowFetcher) Fetch(ctx context.Context, spec models.SourceSpec) ([]value.Value, error) {
	select {
	case <-time.After(f.delay):
		return nil, nil
	case <-ctx.Done():
		return nil, errs.Retryable(ctx.Err())
	}
}
