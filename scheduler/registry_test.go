// scheduler/registry_test.go
package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	logger "github.com/stonefield/resourcing/logging"
	"github.com/stonefield/resourcing/model"
)

func init() {
	logger.InitTestLogger()
}

// fastRegistry ticks every few milliseconds instead of on hour boundaries.
func fastRegistry(inventory, forecast JobFunc, tick time.Duration) *Registry {
	r := NewRegistry(inventory, forecast)
	r.nextRun = func(now time.Time, freqHours int) time.Time {
		return now.Add(tick)
	}
	r.interval = func(freqHours int) time.Duration { return tick }
	return r
}

func noopJob(ctx context.Context, tenantID string) error { return nil }

func TestNextRunAlignment(t *testing.T) {
	now := time.Date(2025, time.June, 5, 13, 37, 21, 0, time.UTC)

	// Multiples of 24h align to the next day boundary.
	assert.Equal(t, time.Date(2025, time.June, 6, 0, 0, 0, 0, time.UTC), NextRun(now, 24))
	assert.Equal(t, time.Date(2025, time.June, 6, 0, 0, 0, 0, time.UTC), NextRun(now, 48))

	// Anything else aligns to the next hour boundary.
	assert.Equal(t, time.Date(2025, time.June, 5, 14, 0, 0, 0, time.UTC), NextRun(now, 6))
	assert.Equal(t, time.Date(2025, time.June, 5, 14, 0, 0, 0, time.UTC), NextRun(now, 1))

	// Nonsense frequencies fall back to daily.
	assert.Equal(t, time.Date(2025, time.June, 6, 0, 0, 0, 0, time.UTC), NextRun(now, 0))
	assert.Equal(t, time.Date(2025, time.June, 6, 0, 0, 0, 0, time.UTC), NextRun(now, -3))
}

func TestScheduleAndUnschedule(t *testing.T) {
	r := fastRegistry(noopJob, noopJob, time.Hour)
	cfg := model.AgentConfiguration{InventoryCheckFrequency: 24, ForecastFrequency: 168}

	assert.False(t, r.IsScheduled("t1"))
	r.Schedule("t1", cfg)
	assert.True(t, r.IsScheduled("t1"))
	r.Schedule("t2", cfg)
	assert.ElementsMatch(t, []string{"t1", "t2"}, r.ScheduledTenants())

	r.Unschedule("t1")
	assert.False(t, r.IsScheduled("t1"))
	assert.True(t, r.IsScheduled("t2"))

	// Unscheduling an unknown tenant is a no-op.
	r.Unschedule("t3")

	r.Stop()
	assert.Empty(t, r.ScheduledTenants())
}

func TestRescheduleReplacesJobs(t *testing.T) {
	var runs int64
	job := func(ctx context.Context, tenantID string) error {
		atomic.AddInt64(&runs, 1)
		return nil
	}
	r := fastRegistry(job, noopJob, 5*time.Millisecond)
	cfg := model.AgentConfiguration{InventoryCheckFrequency: 1, ForecastFrequency: 1}

	// Rapid reschedules must leave exactly one active pair of jobs.
	for i := 0; i < 5; i++ {
		r.Schedule("t1", cfg)
	}
	assert.True(t, r.IsScheduled("t1"))

	time.Sleep(40 * time.Millisecond)
	r.Unschedule("t1")
	stopped := atomic.LoadInt64(&runs)

	// After unschedule no further ticks fire.
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, stopped, atomic.LoadInt64(&runs))
	assert.Greater(t, stopped, int64(0))
}

func TestNoOverlappingRunsOfSameJob(t *testing.T) {
	var running int32
	var overlapped atomic.Bool
	job := func(ctx context.Context, tenantID string) error {
		if atomic.AddInt32(&running, 1) > 1 {
			overlapped.Store(true)
		}
		time.Sleep(15 * time.Millisecond) // outlasts the tick interval
		atomic.AddInt32(&running, -1)
		return nil
	}

	r := fastRegistry(job, noopJob, 5*time.Millisecond)
	r.Schedule("t1", model.AgentConfiguration{InventoryCheckFrequency: 1, ForecastFrequency: 1000})

	time.Sleep(80 * time.Millisecond)
	r.Unschedule("t1")

	assert.False(t, overlapped.Load(), "same tenant+kind runs must never overlap")
}

func TestTenantIsolation(t *testing.T) {
	var fastRuns int64
	blocker := make(chan struct{})
	var once sync.Once

	slow := func(ctx context.Context, tenantID string) error {
		if tenantID == "slow" {
			once.Do(func() { <-blocker })
		}
		return nil
	}
	fast := func(ctx context.Context, tenantID string) error {
		if tenantID == "fast" {
			atomic.AddInt64(&fastRuns, 1)
		}
		return nil
	}

	r := fastRegistry(func(ctx context.Context, id string) error {
		if id == "slow" {
			return slow(ctx, id)
		}
		return fast(ctx, id)
	}, noopJob, 5*time.Millisecond)

	r.Schedule("slow", model.AgentConfiguration{InventoryCheckFrequency: 1, ForecastFrequency: 1000})
	r.Schedule("fast", model.AgentConfiguration{InventoryCheckFrequency: 1, ForecastFrequency: 1000})

	time.Sleep(60 * time.Millisecond)
	// The blocked tenant must not stall the other tenant's timer.
	assert.Greater(t, atomic.LoadInt64(&fastRuns), int64(2))

	close(blocker)
	r.Stop()
}

func TestPanickingJobKeepsTicking(t *testing.T) {
	var runs int64
	job := func(ctx context.Context, tenantID string) error {
		if atomic.AddInt64(&runs, 1) == 1 {
			panic("boom")
		}
		return nil
	}
	r := fastRegistry(job, noopJob, 5*time.Millisecond)
	r.Schedule("t1", model.AgentConfiguration{InventoryCheckFrequency: 1, ForecastFrequency: 1000})

	time.Sleep(40 * time.Millisecond)
	r.Unschedule("t1")

	assert.Greater(t, atomic.LoadInt64(&runs), int64(1), "loop must survive a panicking run")
}
