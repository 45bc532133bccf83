package monitor

import (
	"context"
	"testing"
	"time"

	"github.com/KNICEX/strategy-monitor/internal/entity"
	"github.com/KNICEX/strategy-monitor/internal/repo"
	"github.com/KNICEX/strategy-monitor/internal/service/market"
	"github.com/KNICEX/strategy-monitor/internal/service/strategy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSchedulerPipeline(t *testing.T, cfg Config) (*Pipeline, repo.MemberStrategyRepo, *fakeClock) {
	t.Helper()
	strategies := repo.NewMemberStrategyRepo(newTestDB(t))
	clock := &fakeClock{now: baseTime.Add(100*time.Hour + time.Minute)}
	p := NewPipeline(cfg, strategies, nil, WithClock(clock.Now), WithLogger(discardLogger()))
	return p, strategies, clock
}

func TestIsDue(t *testing.T) {
	now := baseTime.Add(10 * time.Hour)
	testCases := []struct {
		name string
		st   entity.MemberStrategy
		want bool
	}{
		{name: "never run", st: entity.MemberStrategy{Timeframe: "1h"}, want: true},
		{name: "one period ago", st: entity.MemberStrategy{Timeframe: "1h", LastRunAt: now.Add(-time.Hour)}, want: true},
		{name: "within period", st: entity.MemberStrategy{Timeframe: "1h", LastRunAt: now.Add(-30 * time.Minute)}, want: false},
		{name: "invalid timeframe", st: entity.MemberStrategy{Timeframe: "7x", LastRunAt: now}, want: true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, isDue(tc.st, now))
		})
	}
}

func TestSchedulerPrepare(t *testing.T) {
	p, strategies, clock := newSchedulerPipeline(t, testConfig())
	st := createStrategy(t, strategies, entity.MemberStrategy{Overrides: `{"macd.fast":"8","unknown":"1"}`})

	require.NoError(t, p.Scheduler().Run(context.Background()))
	require.Len(t, p.jobs, 1)
	job := <-p.jobs
	require.NoError(t, job.Err)
	assert.Equal(t, st.Id, job.Strategy.Id)
	assert.Equal(t, 8, job.Params.Int("macd.fast"))
	assert.NotContains(t, job.Params, "unknown")

	lookback, err := strategy.Lookback(strategy.MACDADX, job.Params)
	require.NoError(t, err)
	end := baseTime.Add(100 * time.Hour)
	assert.Equal(t, end, job.Window.EndTime)
	assert.Equal(t, end.Add(-time.Duration(lookback)*time.Hour), job.Window.StartTime)
	assert.Equal(t, clock.Now(), job.ScheduledAt)
	assert.Equal(t, 1, p.Scheduler().InFlight())
}

func TestSchedulerInvalidJobs(t *testing.T) {
	p, strategies, _ := newSchedulerPipeline(t, testConfig())
	createStrategy(t, strategies, entity.MemberStrategy{Timeframe: "7x"})
	createStrategy(t, strategies, entity.MemberStrategy{StrategyType: "NOPE"})
	createStrategy(t, strategies, entity.MemberStrategy{Overrides: `{"macd.fast":"abc"}`})

	require.NoError(t, p.Scheduler().Run(context.Background()))
	require.Len(t, p.jobs, 3)
	for i := 0; i < 3; i++ {
		job := <-p.jobs
		assert.Equal(t, FailureInvalidRequest, classify(job.Err), job.Err)
	}
}

func TestSchedulerSkipsLeased(t *testing.T) {
	p, strategies, clock := newSchedulerPipeline(t, testConfig())
	st := createStrategy(t, strategies, entity.MemberStrategy{})

	require.NoError(t, p.Scheduler().Run(context.Background()))
	clock.Set(clock.Now().Add(time.Hour))
	require.NoError(t, p.Scheduler().Run(context.Background()))
	assert.Len(t, p.jobs, 1)

	<-p.jobs
	p.scheduler.release(st.Id)
	require.NoError(t, p.Scheduler().Run(context.Background()))
	assert.Len(t, p.jobs, 1)
}

func TestSchedulerSkipsNotDue(t *testing.T) {
	p, strategies, clock := newSchedulerPipeline(t, testConfig())
	createStrategy(t, strategies, entity.MemberStrategy{})
	st := createStrategy(t, strategies, entity.MemberStrategy{Timeframe: string(market.Timeframe4h)})
	st.LastRunAt = clock.Now().Add(-time.Hour)
	require.NoError(t, strategies.SaveState(context.Background(), st))

	require.NoError(t, p.Scheduler().Run(context.Background()))
	require.Len(t, p.jobs, 1)
	assert.NotEqual(t, st.Id, (<-p.jobs).Strategy.Id)
}

func TestSchedulerQueueFull(t *testing.T) {
	cfg := testConfig()
	cfg.QueueSize = 1
	cfg.MonitoringWorkers = 1
	p, strategies, _ := newSchedulerPipeline(t, cfg)
	createStrategy(t, strategies, entity.MemberStrategy{})
	createStrategy(t, strategies, entity.MemberStrategy{})

	require.NoError(t, p.Scheduler().Run(context.Background()))
	assert.Len(t, p.jobs, 1)
	// 被丢弃的任务释放租用, 下一周期可以再次调度
	assert.Equal(t, 1, p.Scheduler().InFlight())
}

func TestSchedulerAfterClose(t *testing.T) {
	p, strategies, _ := newSchedulerPipeline(t, testConfig())
	createStrategy(t, strategies, entity.MemberStrategy{})
	p.scheduler.close()

	require.NoError(t, p.Scheduler().Run(context.Background()))
	assert.Zero(t, p.Scheduler().InFlight())
}
