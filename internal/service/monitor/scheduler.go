package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/KNICEX/strategy-monitor/internal/entity"
	"github.com/KNICEX/strategy-monitor/internal/repo"
	"github.com/KNICEX/strategy-monitor/internal/schedule"
	"github.com/KNICEX/strategy-monitor/internal/service/market"
	"github.com/KNICEX/strategy-monitor/internal/service/strategy"
	"github.com/samber/lo"
)

// Scheduler 周期性找出到期的策略并投递评估任务.
// 每个策略同一时间最多一个任务在流水线中, 任务结束前策略处于租用状态.
type Scheduler struct {
	cfg        Config
	strategies repo.MemberStrategyRepo
	global     strategy.Params
	clock      func() time.Time
	metrics    *Metrics
	logger     *slog.Logger

	mu     sync.Mutex
	leases map[int64]struct{}
	out    chan<- Job
	closed bool
}

var _ schedule.Task = (*Scheduler)(nil)

func (s *Scheduler) Name() string {
	return "strategy monitoring task"
}

func (s *Scheduler) Run(ctx context.Context) error {
	now := s.clock()
	list, err := s.strategies.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("list active strategies: %w", err)
	}
	due := lo.Filter(list, func(st entity.MemberStrategy, _ int) bool {
		return isDue(st, now)
	})
	if len(due) == 0 {
		return nil
	}

	feed := make(chan entity.MemberStrategy)
	var wg sync.WaitGroup
	for i := 0; i < min(s.cfg.MonitoringWorkers, len(due)); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for st := range feed {
				s.dispatch(ctx, st.Id, now)
			}
		}()
	}
	for _, st := range due {
		feed <- st
	}
	close(feed)
	wg.Wait()
	return nil
}

// InFlight 当前处于租用状态的策略数
func (s *Scheduler) InFlight() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.leases)
}

// isDue 从未运行过或距上次运行已满一个周期. 周期非法时也视为到期, 由后续阶段计入失败.
func isDue(st entity.MemberStrategy, now time.Time) bool {
	tf := market.Timeframe(st.Timeframe)
	if !tf.Valid() || st.LastRunAt.IsZero() {
		return true
	}
	return !now.Before(st.LastRunAt.Add(tf.Duration()))
}

// dispatch 租用后重新读取策略, 列表中的记录可能已被刚结束的上一个任务更新
func (s *Scheduler) dispatch(ctx context.Context, id int64, now time.Time) {
	if !s.lease(id) {
		s.logger.Debug("strategy still evaluating, skip", "strategy_id", id)
		return
	}
	st, err := s.strategies.FindById(ctx, id)
	if err != nil {
		s.release(id)
		s.logger.Error("reload strategy failed", "strategy_id", id, "error", err)
		return
	}
	if !st.Active || !isDue(st, now) {
		s.release(id)
		return
	}
	s.enqueue(s.prepare(st, now))
}

func (s *Scheduler) prepare(st entity.MemberStrategy, now time.Time) Job {
	job := Job{
		Strategy:    st,
		Market:      market.Market{Base: st.Base, Quote: st.Quote},
		Timeframe:   market.Timeframe(st.Timeframe),
		Type:        strategy.Type(st.StrategyType),
		ScheduledAt: now,
	}
	if !job.Timeframe.Valid() {
		job.Err = fmt.Errorf("%w: unknown timeframe %q", ErrInvalidJob, st.Timeframe)
		return job
	}
	if job.Market.IsZero() {
		job.Err = fmt.Errorf("%w: incomplete market %q/%q", ErrInvalidJob, st.Base, st.Quote)
		return job
	}
	overrides, err := decodeOverrides(st.Overrides)
	if err != nil {
		job.Err = fmt.Errorf("%w: overrides: %v", ErrInvalidJob, err)
		return job
	}
	params, ignored, err := strategy.ResolveParams(job.Type, s.global, overrides)
	if err != nil {
		job.Err = err
		return job
	}
	if len(ignored) > 0 {
		s.logger.Warn("ignore unknown strategy parameters", "strategy_id", st.Id, "strategy_type", job.Type, "params", ignored)
	}
	lookback, err := strategy.Lookback(job.Type, params)
	if err != nil {
		job.Err = err
		return job
	}
	job.Params = params

	// 只取已收盘的K线
	tf := job.Timeframe.Duration()
	end := now.Truncate(tf)
	job.Window = market.FetchTicksReq{
		Market:    job.Market,
		Timeframe: job.Timeframe,
		StartTime: end.Add(-time.Duration(lookback) * tf),
		EndTime:   end,
	}
	return job
}

// decodeOverrides 用户参数覆盖, json 对象: 参数名 -> 数值字符串
func decodeOverrides(raw string) (strategy.Params, error) {
	if raw == "" {
		return nil, nil
	}
	var m map[string]string
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, err
	}
	return strategy.ParseParams(m)
}

// enqueue 计算队列满时丢弃并释放租用, 不阻塞调度
func (s *Scheduler) enqueue(job Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		s.releaseLocked(job.Strategy.Id)
		return
	}
	select {
	case s.out <- job:
		s.metrics.JobsScheduled.Inc()
	default:
		s.releaseLocked(job.Strategy.Id)
		s.metrics.JobsDropped.Inc()
		s.logger.Warn("calculation queue full, job dropped", "strategy_id", job.Strategy.Id)
	}
}

func (s *Scheduler) lease(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.leases[id]; ok {
		return false
	}
	s.leases[id] = struct{}{}
	s.metrics.InFlight.Inc()
	return true
}

func (s *Scheduler) release(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.releaseLocked(id)
}

func (s *Scheduler) releaseLocked(id int64) {
	if _, ok := s.leases[id]; !ok {
		return
	}
	delete(s.leases, id)
	s.metrics.InFlight.Dec()
}

// close 关闭计算队列, 之后的调度直接丢弃
func (s *Scheduler) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.out)
	}
}
