package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/venskies/flightwatch/internal/config"
	"github.com/venskies/flightwatch/internal/enrichment"
	"github.com/venskies/flightwatch/internal/reconcile"
	"github.com/venskies/flightwatch/internal/resolver"
	"github.com/stretchr/testify/assert"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"
)

type countingReconcile struct {
	calls atomic.Int64
}

func (c *countingReconcile) SyncAirport(ctx context.Context, iata string) (reconcile.Result, error) {
	return reconcile.Result{}, nil
}

func (c *countingReconcile) SyncFlight(ctx context.Context, flightNum string) (reconcile.Result, error) {
	return reconcile.Result{}, nil
}

func (c *countingReconcile) SyncTracked(ctx context.Context) (reconcile.TrackedResult, error) {
	c.calls.Add(1)
	return reconcile.TrackedResult{}, nil
}

type countingResolver struct {
	calls atomic.Int64
}

func (c *countingResolver) Cleanup(ctx context.Context) (resolver.Report, error) {
	c.calls.Add(1)
	return resolver.Report{}, nil
}

type countingEnricher struct {
	calls atomic.Int64
}

func (c *countingEnricher) Run(ctx context.Context) (enrichment.Report, error) {
	c.calls.Add(1)
	return enrichment.Report{}, nil
}

func newTestScheduler(cfg config.SchedulerConfig) (*Scheduler, *countingReconcile, *countingResolver, *countingEnricher) {
	rc := &countingReconcile{}
	rs := &countingResolver{}
	en := &countingEnricher{}
	sched := New(Params{
		Log:       zap.NewNop(),
		Cfg:       config.Config{Scheduler: cfg},
		Reconcile: rc,
		Resolver:  rs,
		Enricher:  en,
	})
	return sched, rc, rs, en
}

func TestEnabled(t *testing.T) {
	off, _, _, _ := newTestScheduler(config.SchedulerConfig{})
	assert.False(t, off.Enabled())

	on, _, _, _ := newTestScheduler(config.SchedulerConfig{CleanupInterval: time.Minute})
	assert.True(t, on.Enabled())
}

func TestRun_TicksEnabledPassesOnly(t *testing.T) {
	sched, rc, rs, en := newTestScheduler(config.SchedulerConfig{
		SyncInterval:    2 * time.Millisecond,
		CleanupInterval: 2 * time.Millisecond,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sched.Run(ctx)

	assert.Eventually(t, func() bool {
		return rc.calls.Load() > 0 && rs.calls.Load() > 0
	}, time.Second, time.Millisecond)

	// The enrich pass has no interval configured and never fires.
	assert.Zero(t, en.calls.Load())
}

func TestRun_StopsOnCancel(t *testing.T) {
	sched, rc, _, _ := newTestScheduler(config.SchedulerConfig{
		SyncInterval: 2 * time.Millisecond,
	})

	ctx, cancel := context.WithCancel(context.Background())
	go sched.Run(ctx)

	assert.Eventually(t, func() bool {
		return rc.calls.Load() > 0
	}, time.Second, time.Millisecond)

	cancel()
	// One in-flight tick may still land after cancellation.
	time.Sleep(50 * time.Millisecond)
	settled := rc.calls.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, settled, rc.calls.Load())
}

func TestStart_LifecycleStopCancelsLoops(t *testing.T) {
	sched, rc, _, _ := newTestScheduler(config.SchedulerConfig{
		SyncInterval: 2 * time.Millisecond,
	})

	lc := fxtest.NewLifecycle(t)
	Start(lc, sched)
	lc.RequireStart()

	assert.Eventually(t, func() bool {
		return rc.calls.Load() > 0
	}, time.Second, time.Millisecond)

	lc.RequireStop()
	time.Sleep(50 * time.Millisecond)
	settled := rc.calls.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, settled, rc.calls.Load())
}

func TestStart_DisabledRegistersNoHooks(t *testing.T) {
	sched, rc, _, _ := newTestScheduler(config.SchedulerConfig{})

	lc := fxtest.NewLifecycle(t)
	Start(lc, sched)
	lc.RequireStart()
	lc.RequireStop()

	assert.Zero(t, rc.calls.Load())
}
