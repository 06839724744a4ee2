// scheduler/registry.go

// Package scheduler owns the per-tenant recurring jobs of the replenishment
// agent. Each enabled tenant gets two independently ticking jobs, an
// inventory check and a forecast run, recreated whenever the tenant's
// configuration changes.
package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	logger "github.com/stonefield/resourcing/logging"
	"github.com/stonefield/resourcing/model"
)

// Job kinds.
const (
	KindInventoryCheck = "inventory_check"
	KindForecast       = "forecast"
)

// JobFunc is one scheduled unit of work for a tenant. Implementations handle
// their own errors; the registry only logs and keeps ticking.
type JobFunc func(ctx context.Context, tenantID string) error

// Registry maps tenants to their active recurring jobs. Reschedules are
// serialized per tenant: old timers are fully stopped before new ones are
// installed, so at most one inventory job and one forecast job exist per
// tenant at any time.
type Registry struct {
	inventoryJob JobFunc
	forecastJob  JobFunc

	mu      sync.Mutex
	tenants map[string]*tenantJobs
	locks   map[string]*sync.Mutex

	// nextRun and interval are swappable in tests to avoid hour-scale waits.
	nextRun  func(now time.Time, freqHours int) time.Time
	interval func(freqHours int) time.Duration
}

type tenantJobs struct {
	cancel context.CancelFunc
	done   sync.WaitGroup
}

// NewRegistry creates a registry that runs the given jobs on tenant
// schedules.
func NewRegistry(inventoryJob, forecastJob JobFunc) *Registry {
	return &Registry{
		inventoryJob: inventoryJob,
		forecastJob:  forecastJob,
		tenants:      make(map[string]*tenantJobs),
		locks:        make(map[string]*sync.Mutex),
		nextRun:      NextRun,
		interval: func(freqHours int) time.Duration {
			return time.Duration(freqHours) * time.Hour
		},
	}
}

// NextRun returns the first tick after now for an every-N-hours schedule.
// Frequencies that are a multiple of 24 hours align to the next day
// boundary; anything else aligns to the next hour boundary.
func NextRun(now time.Time, freqHours int) time.Time {
	if freqHours <= 0 {
		freqHours = 24
	}
	if freqHours%24 == 0 {
		y, m, d := now.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, now.Location()).AddDate(0, 0, 1)
	}
	return now.Truncate(time.Hour).Add(time.Hour)
}

// tenantLock returns the per-tenant mutex, creating it on first use. The
// registry-wide mutex only guards map access, never a running reschedule.
func (r *Registry) tenantLock(tenantID string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	lock, ok := r.locks[tenantID]
	if !ok {
		lock = &sync.Mutex{}
		r.locks[tenantID] = lock
	}
	return lock
}

// Schedule installs (replacing any prior) the tenant's two recurring jobs
// using the frequencies in cfg.
func (r *Registry) Schedule(tenantID string, cfg model.AgentConfiguration) {
	lock := r.tenantLock(tenantID)
	lock.Lock()
	defer lock.Unlock()

	r.stopLocked(tenantID)

	ctx, cancel := context.WithCancel(context.Background())
	jobs := &tenantJobs{cancel: cancel}
	jobs.done.Add(2)
	go r.runLoop(ctx, &jobs.done, tenantID, KindInventoryCheck, cfg.InventoryCheckFrequency, r.inventoryJob)
	go r.runLoop(ctx, &jobs.done, tenantID, KindForecast, cfg.ForecastFrequency, r.forecastJob)

	r.mu.Lock()
	r.tenants[tenantID] = jobs
	r.mu.Unlock()

	logger.Info("Scheduled replenishment jobs",
		zap.String("tenantID", tenantID),
		zap.Int("inventoryCheckFrequencyHours", cfg.InventoryCheckFrequency),
		zap.Int("forecastFrequencyHours", cfg.ForecastFrequency))
}

// Unschedule stops and removes the tenant's jobs. A no-op for tenants with
// nothing scheduled.
func (r *Registry) Unschedule(tenantID string) {
	lock := r.tenantLock(tenantID)
	lock.Lock()
	defer lock.Unlock()

	if r.stopLocked(tenantID) {
		logger.Info("Unscheduled replenishment jobs", zap.String("tenantID", tenantID))
	}
}

// stopLocked cancels and waits out the tenant's current jobs. Caller holds
// the tenant lock.
func (r *Registry) stopLocked(tenantID string) bool {
	r.mu.Lock()
	jobs, ok := r.tenants[tenantID]
	delete(r.tenants, tenantID)
	r.mu.Unlock()

	if !ok {
		return false
	}
	jobs.cancel()
	jobs.done.Wait()
	return true
}

// IsScheduled reports whether the tenant currently has active jobs.
func (r *Registry) IsScheduled(tenantID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.tenants[tenantID]
	return ok
}

// ScheduledTenants returns the ids of all tenants with active jobs.
func (r *Registry) ScheduledTenants() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.tenants))
	for id := range r.tenants {
		ids = append(ids, id)
	}
	return ids
}

// configLister loads the enabled tenant configurations at startup.
type configLister interface {
	ListEnabled(ctx context.Context) ([]*model.AgentConfiguration, error)
}

// Bootstrap schedules jobs for every tenant with the agent enabled. One
// tenant failing to schedule is logged and does not abort the rest.
func (r *Registry) Bootstrap(ctx context.Context, configs configLister, workers int) error {
	enabled, err := configs.ListEnabled(ctx)
	if err != nil {
		return err
	}

	if workers < 1 {
		workers = 8
	}
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, cfg := range enabled {
		cfg := cfg
		g.Go(func() error {
			r.Schedule(cfg.TenantID, *cfg)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	logger.Info("Bootstrapped tenant schedules", zap.Int("tenants", len(enabled)))
	return nil
}

// Stop unschedules every tenant. Used on shutdown.
func (r *Registry) Stop() {
	for _, id := range r.ScheduledTenants() {
		r.Unschedule(id)
	}
}

// runLoop ticks one job kind for one tenant. A tick's work runs to
// completion before the next tick of the same job is armed, so runs of the
// same tenant+kind never overlap; other tenants and the sibling job kind
// tick independently.
func (r *Registry) runLoop(ctx context.Context, done *sync.WaitGroup, tenantID, kind string, freqHours int, job JobFunc) {
	defer done.Done()

	if freqHours <= 0 {
		freqHours = 24
	}
	next := r.nextRun(time.Now(), freqHours)
	step := r.interval(freqHours)

	for {
		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		r.runOnce(ctx, tenantID, kind, job)

		next = next.Add(step)
		if !next.After(time.Now()) {
			// The run outlasted the interval; realign instead of firing a
			// burst of catch-up ticks.
			next = r.nextRun(time.Now(), freqHours)
		}
	}
}

// runOnce invokes the job, containing panics and errors so one tenant's
// failure never disturbs another tenant's schedule.
func (r *Registry) runOnce(ctx context.Context, tenantID, kind string, job JobFunc) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("Scheduled job panicked",
				zap.String("tenantID", tenantID),
				zap.String("kind", kind),
				zap.Any("panic", rec))
		}
	}()

	start := time.Now()
	if err := job(ctx, tenantID); err != nil {
		logger.Error("Scheduled job failed",
			zap.String("tenantID", tenantID),
			zap.String("kind", kind),
			zap.Error(err))
		return
	}
	logger.Debug("Scheduled job completed",
		zap.String("tenantID", tenantID),
		zap.String("kind", kind),
		zap.Duration("took", time.Since(start)))
}
