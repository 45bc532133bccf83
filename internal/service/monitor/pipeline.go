package monitor

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/KNICEX/strategy-monitor/internal/repo"
	"github.com/KNICEX/strategy-monitor/internal/service/market"
	"github.com/KNICEX/strategy-monitor/internal/service/strategy"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// Pipeline 调度 -> 计算 -> 决策 -> 发送, 各阶段之间为有界队列
type Pipeline struct {
	cfg        Config
	strategies repo.MemberStrategyRepo
	ticks      market.TickService
	notifier   Notifier
	signalRepo repo.SignalRepo
	global     strategy.Params
	clock      func() time.Time
	metrics    *Metrics
	logger     *slog.Logger
	limiter    *rate.Limiter
	tracker    FailureTracker

	scheduler *Scheduler
	jobs      chan Job
	outcomes  chan Outcome
	signals   chan Signal
	started   atomic.Bool
}

type consoleNotifier struct {
	logger *slog.Logger
}

func (c consoleNotifier) Notify(ctx context.Context, signal Signal) error {
	c.logger.Info("strategy signal", "strategy_id", signal.StrategyID, "market", signal.Market.String(),
		"positions", signal.Positions.String(), "previous", signal.Previous.String())
	return nil
}

type Option func(p *Pipeline)

func WithNotifier(notifier Notifier) Option {
	return func(p *Pipeline) {
		p.notifier = notifier
	}
}

// WithSignalRepo 记录每个信号的投递结果
func WithSignalRepo(signalRepo repo.SignalRepo) Option {
	return func(p *Pipeline) {
		p.signalRepo = signalRepo
	}
}

// WithGlobalParams 全局指标参数, 覆盖策略默认值
func WithGlobalParams(params strategy.Params) Option {
	return func(p *Pipeline) {
		p.global = params
	}
}

func WithClock(clock func() time.Time) Option {
	return func(p *Pipeline) {
		p.clock = clock
	}
}

func WithMetrics(metrics *Metrics) Option {
	return func(p *Pipeline) {
		p.metrics = metrics
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

func NewPipeline(cfg Config, strategies repo.MemberStrategyRepo, ticks market.TickService, opts ...Option) *Pipeline {
	cfg = cfg.normalize()
	p := &Pipeline{
		cfg:        cfg,
		strategies: strategies,
		ticks:      ticks,
		clock:      time.Now,
		logger:     slog.Default(),
		tracker:    FailureTracker{Allowed: cfg.FailedCyclesAllowed},
		jobs:       make(chan Job, cfg.QueueSize),
		outcomes:   make(chan Outcome, cfg.QueueSize),
		signals:    make(chan Signal, cfg.QueueSize),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.metrics == nil {
		p.metrics = NewMetrics(nil)
	}
	if p.notifier == nil {
		p.notifier = consoleNotifier{logger: p.logger}
	}
	p.limiter = rate.NewLimiter(rate.Inf, 1)
	if cfg.FetchRate > 0 {
		p.limiter = rate.NewLimiter(rate.Limit(cfg.FetchRate), max(int(cfg.FetchRate), 1))
	}
	p.scheduler = &Scheduler{
		cfg:        cfg,
		strategies: strategies,
		global:     p.global,
		clock:      p.clock,
		metrics:    p.metrics,
		logger:     p.logger.With("component", "scheduler"),
		leases:     make(map[int64]struct{}),
		out:        p.jobs,
	}
	return p
}

// Scheduler 供 cron 周期触发的调度任务
func (p *Pipeline) Scheduler() *Scheduler {
	return p.scheduler
}

// Run 启动各阶段的工作协程, ctx 结束后按阶段顺序关闭队列, 处理完队列中剩余的任务后返回.
// 关闭时进行中的K线拉取会被取消, 状态写入与信号发送使用独立的超时.
func (p *Pipeline) Run(ctx context.Context) error {
	if !p.started.CompareAndSwap(false, true) {
		return ErrPipelineStarted
	}
	detached := context.WithoutCancel(ctx)

	var calculation, decision, sender errgroup.Group
	for i := 0; i < p.cfg.CalculationWorkers; i++ {
		calculation.Go(func() error {
			for job := range p.jobs {
				p.outcomes <- p.calculate(ctx, job)
			}
			return nil
		})
	}
	for i := 0; i < p.cfg.DecisionWorkers; i++ {
		decision.Go(func() error {
			for outcome := range p.outcomes {
				signal, ok := p.decide(detached, outcome)
				if !ok {
					p.scheduler.release(outcome.Job.Strategy.Id)
					continue
				}
				p.metrics.Signals.WithLabelValues("emitted").Inc()
				p.signals <- signal
			}
			return nil
		})
	}
	for i := 0; i < p.cfg.SignalSenderWorkers; i++ {
		sender.Go(func() error {
			for signal := range p.signals {
				p.deliver(detached, signal)
			}
			return nil
		})
	}

	var supervisor errgroup.Group
	supervisor.Go(func() error {
		defer close(p.outcomes)
		return calculation.Wait()
	})
	supervisor.Go(func() error {
		defer close(p.signals)
		return decision.Wait()
	})
	supervisor.Go(sender.Wait)

	p.logger.Info("strategy monitoring pipeline started",
		"calculation_workers", p.cfg.CalculationWorkers,
		"decision_workers", p.cfg.DecisionWorkers,
		"signal_sender_workers", p.cfg.SignalSenderWorkers,
		"queue_size", p.cfg.QueueSize)

	<-ctx.Done()
	p.scheduler.close()
	err := supervisor.Wait()
	p.logger.Info("strategy monitoring pipeline drained")
	return err
}

// sleep 等待 d, ctx 结束时返回 false
func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
