package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"catalog-sync/feature/catalog/errs"
	"catalog-sync/feature/catalog/models"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// defaultSchedule is used for scheduled configs that leave the cron
// expression empty.
const defaultSchedule = "@hourly"

// reloadInterval is how often the scheduler re-reads the configuration
// table to pick up new, changed, or disabled merchants.
const reloadInterval = time.Minute

// ConfigLister lists the active scheduled configurations. Implemented
// by store.Repository.
type ConfigLister interface {
	ListScheduled(ctx context.Context) ([]models.SyncConfig, error)
}

// Scheduler fires full-catalog syncs on each merchant's cron schedule.
// It reloads the configuration table periodically so configure and
// disable calls take effect without a restart.
type Scheduler struct {
	configs  ConfigLister
	executor *Executor
	logger   *zap.Logger

	cron *cron.Cron

	mu      sync.Mutex
	entries map[string]scheduledEntry
}

type scheduledEntry struct {
	id       cron.EntryID
	schedule string
}

// NewScheduler creates a scheduler bound to the executor.
func NewScheduler(configs ConfigLister, executor *Executor, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		configs:  configs,
		executor: executor,
		logger:   logger,
		cron:     cron.New(),
		entries:  make(map[string]scheduledEntry),
	}
}

// Start loads the initial schedule set and begins firing. It keeps
// reloading until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	if err := s.Reload(ctx); err != nil {
		s.logger.Error("Initial schedule load failed", zap.Error(err))
	}
	s.cron.Start()

	go func() {
		ticker := time.NewTicker(reloadInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := s.Reload(ctx); err != nil {
					s.logger.Error("Schedule reload failed", zap.Error(err))
				}
			}
		}
	}()
}

// Stop halts the cron runner, waiting for in-flight jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// Reload synchronizes the cron entries with the configuration table:
// new merchants are added, changed schedules are re-registered, and
// disabled merchants are removed.
func (s *Scheduler) Reload(ctx context.Context) error {
	configs, err := s.configs.ListScheduled(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	active := make(map[string]struct{}, len(configs))
	for _, cfg := range configs {
		schedule := cfg.Schedule
		if schedule == "" {
			schedule = defaultSchedule
		}
		active[cfg.MerchantID] = struct{}{}

		if entry, ok := s.entries[cfg.MerchantID]; ok {
			if entry.schedule == schedule {
				continue
			}
			s.cron.Remove(entry.id)
		}

		id, err := s.cron.AddFunc(schedule, s.job(cfg.MerchantID))
		if err != nil {
			s.logger.Error("Skipping merchant with invalid schedule",
				zap.String("merchant_id", cfg.MerchantID),
				zap.String("schedule", schedule),
				zap.Error(err),
			)
			delete(s.entries, cfg.MerchantID)
			continue
		}
		s.entries[cfg.MerchantID] = scheduledEntry{id: id, schedule: schedule}
	}

	for merchantID, entry := range s.entries {
		if _, ok := active[merchantID]; !ok {
			s.cron.Remove(entry.id)
			delete(s.entries, merchantID)
		}
	}

	return nil
}

// NextRun returns the next fire time for the merchant, or the zero time
// when the merchant has no registered schedule.
func (s *Scheduler) NextRun(merchantID string) time.Time {
	s.mu.Lock()
	entry, ok := s.entries[merchantID]
	s.mu.Unlock()
	if !ok {
		return time.Time{}
	}
	return s.cron.Entry(entry.id).Next
}

// job builds the cron callback for one merchant. A fire that overlaps a
// still-running sync is skipped; the lock keeps runs exclusive.
func (s *Scheduler) job(merchantID string) func() {
	return func() {
		ctx := context.Background()
		_, err := s.executor.Trigger(ctx, merchantID, models.ReasonScheduled)
		if errors.Is(err, errs.ErrConflict) {
			s.logger.Warn("Skipping scheduled sync, previous run still active",
				zap.String("merchant_id", merchantID))
			return
		}
		if err != nil {
			s.logger.Error("Scheduled sync failed to start",
				zap.String("merchant_id", merchantID),
				zap.Error(err),
			)
		}
	}
}
